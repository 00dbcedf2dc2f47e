package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// User mirrors the 'users' table. OTPCode and OTPExpires are nullable and
// are always written together: both set while a code is pending, both NULL
// otherwise.
type User struct {
	ID            string
	Name          string
	Email         string
	OTPCode       sql.NullString
	OTPExpires    sql.NullTime
	EmailVerified bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = "id,name,email,otp_code,otp_expires,email_verified,created_at,updated_at"

// Create inserts a new unverified user with an initial pending OTP and
// returns the stored row. Emails are kept exactly as submitted; uniqueness
// is enforced by the table's unique key.
func (r *UserRepo) Create(ctx context.Context, name, email, otpCode string, otpExpires time.Time) (*User, error) {
	id := uuid.NewString()
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (id, name, email, otp_code, otp_expires, email_verified) VALUES (?,?,?,?,?,0)",
		id, name, email, otpCode, otpExpires.UTC())
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return nil, ErrEmailExists
		}
		return nil, err
	}
	return r.getByID(ctx, id)
}

// FindByEmail fetches a user by email. A missing row is reported as
// (nil, nil), not as an error.
func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*User, error) {
	u, err := r.scanOne(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return u, err
}

// UpdateOTP overwrites the pending code and its expiry for an existing
// user. The previous code, if any, is invalidated by the overwrite.
func (r *UserRepo) UpdateOTP(ctx context.Context, email, otpCode string, otpExpires time.Time) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET otp_code=?, otp_expires=? WHERE email=?",
		otpCode, otpExpires.UTC(), email)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrUserNotFound
	}
	return nil
}

// VerifyAndConsumeOTP marks the user verified and clears the OTP fields in
// a single conditional UPDATE: the row only changes when the submitted code
// matches and the expiry instant has not passed. The check and the clear
// being one statement is what makes the code single-use under concurrent
// verification attempts. A nil result means the code was wrong, expired, or
// already consumed; the caller must not learn which.
func (r *UserRepo) VerifyAndConsumeOTP(ctx context.Context, email, code string) (*User, error) {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET email_verified=1, otp_code=NULL, otp_expires=NULL WHERE email=? AND otp_code=? AND otp_expires > ?",
		email, code, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	return r.FindByEmail(ctx, email)
}

func (r *UserRepo) getByID(ctx context.Context, id string) (*User, error) {
	return r.scanOne(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
}

func (r *UserRepo) scanOne(row *sql.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.OTPCode, &u.OTPExpires,
		&u.EmailVerified, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}
