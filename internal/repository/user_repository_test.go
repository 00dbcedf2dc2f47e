package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockRepo(t *testing.T) (*UserRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewUserRepo(db), mock
}

func userRows(id, name, email string, otpCode interface{}, otpExpires interface{}, verified bool) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows([]string{"id", "name", "email", "otp_code", "otp_expires", "email_verified", "created_at", "updated_at"}).
		AddRow(id, name, email, otpCode, otpExpires, verified, now, now)
}

func TestCreateInsertsUnverifiedUser(t *testing.T) {
	repo, mock := newMockRepo(t)
	expires := time.Now().UTC().Add(10 * time.Minute)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WithArgs(sqlmock.AnyArg(), "Alice", "alice@x.com", "123456", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id,name,email,otp_code,otp_expires,email_verified,created_at,updated_at FROM users WHERE id=?")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(userRows("some-uuid", "Alice", "alice@x.com", "123456", expires, false))

	u, err := repo.Create(context.Background(), "Alice", "alice@x.com", "123456", expires)
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "alice@x.com", u.Email)
	assert.False(t, u.EmailVerified)
	assert.True(t, u.OTPCode.Valid)
	assert.Equal(t, "123456", u.OTPCode.String)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateDuplicateEmail(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WillReturnError(errors.New("Error 1062 (23000): Duplicate entry 'alice@x.com' for key 'uq_users_email'"))

	u, err := repo.Create(context.Background(), "Alice", "alice@x.com", "123456", time.Now().UTC())
	assert.Nil(t, u)
	assert.ErrorIs(t, err, ErrEmailExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByEmailMissingRowIsNotAnError(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE email=?")).
		WithArgs("ghost@x.com").
		WillReturnError(sql.ErrNoRows)

	u, err := repo.FindByEmail(context.Background(), "ghost@x.com")
	assert.NoError(t, err)
	assert.Nil(t, u)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByEmailReturnsRow(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE email=?")).
		WithArgs("alice@x.com").
		WillReturnRows(userRows("some-uuid", "Alice", "alice@x.com", nil, nil, true))

	u, err := repo.FindByEmail(context.Background(), "alice@x.com")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.True(t, u.EmailVerified)
	assert.False(t, u.OTPCode.Valid)
	assert.False(t, u.OTPExpires.Valid)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateOTPUnknownEmail(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET otp_code=?, otp_expires=? WHERE email=?")).
		WithArgs("654321", sqlmock.AnyArg(), "ghost@x.com").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateOTP(context.Background(), "ghost@x.com", "654321", time.Now().UTC())
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVerifyAndConsumeOTPRejectsWithoutMutation(t *testing.T) {
	repo, mock := newMockRepo(t)

	// Zero rows affected: wrong code, expired code or already consumed.
	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET email_verified=1, otp_code=NULL, otp_expires=NULL WHERE email=? AND otp_code=? AND otp_expires > ?")).
		WithArgs("alice@x.com", "999999", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	u, err := repo.VerifyAndConsumeOTP(context.Background(), "alice@x.com", "999999")
	assert.NoError(t, err)
	assert.Nil(t, u)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVerifyAndConsumeOTPSuccess(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET email_verified=1, otp_code=NULL, otp_expires=NULL WHERE email=? AND otp_code=? AND otp_expires > ?")).
		WithArgs("alice@x.com", "123456", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE email=?")).
		WithArgs("alice@x.com").
		WillReturnRows(userRows("some-uuid", "Alice", "alice@x.com", nil, nil, true))

	u, err := repo.VerifyAndConsumeOTP(context.Background(), "alice@x.com", "123456")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.True(t, u.EmailVerified)
	assert.False(t, u.OTPCode.Valid)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInfrastructureErrorPropagates(t *testing.T) {
	repo, mock := newMockRepo(t)

	boom := errors.New("driver: bad connection")
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE email=?")).
		WithArgs("alice@x.com").
		WillReturnError(boom)

	u, err := repo.FindByEmail(context.Background(), "alice@x.com")
	assert.Nil(t, u)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrUserNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
