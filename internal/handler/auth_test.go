package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/astrivya/backend/internal/repository"
	"github.com/astrivya/backend/internal/service"
	"github.com/astrivya/backend/internal/utils"
)

type stubAuthFlow struct {
	registerErr error
	loginErr    error
	verifyErr   error
	verifyUser  *repository.User
	verifyToken utils.AccessToken
}

func (s *stubAuthFlow) Register(context.Context, string, string) error { return s.registerErr }
func (s *stubAuthFlow) RequestLoginOTP(context.Context, string) error  { return s.loginErr }
func (s *stubAuthFlow) VerifyOTP(context.Context, string, string) (*repository.User, utils.AccessToken, error) {
	if s.verifyErr != nil {
		return nil, utils.AccessToken{}, s.verifyErr
	}
	return s.verifyUser, s.verifyToken, nil
}

func doJSON(t *testing.T, h echo.HandlerFunc, body string) (*httptest.ResponseRecorder, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return rec, h(e.NewContext(req, rec))
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m))
	return m
}

func TestSendOTPDomainErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"already registered", service.ErrEmailAlreadyRegistered, http.StatusConflict, "EMAIL_ALREADY_REGISTERED"},
		{"too soon", service.ErrOTPResendTooSoon, http.StatusTooManyRequests, "OTP_RESEND_TOO_SOON"},
		{"mail failed", service.ErrMailSend, http.StatusBadGateway, "EMAIL_SEND_FAILED"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewAuthHandler(&stubAuthFlow{registerErr: tt.err})
			rec, err := doJSON(t, h.SendOTP, `{"name":"Alice","email":"alice@x.com"}`)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantCode, decodeBody(t, rec)["code"])
		})
	}
}

func TestSendOTPSuccess(t *testing.T) {
	h := NewAuthHandler(&stubAuthFlow{})
	rec, err := doJSON(t, h.SendOTP, `{"name":"Alice","email":"alice@x.com"}`)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alice@x.com", decodeBody(t, rec)["email"])
}

func TestSendOTPValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing name", `{"email":"alice@x.com"}`},
		{"missing email", `{"name":"Alice"}`},
		{"malformed email", `{"name":"Alice","email":"not-an-email"}`},
		{"invalid json", `{`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewAuthHandler(&stubAuthFlow{})
			rec, err := doJSON(t, h.SendOTP, tt.body)
			require.NoError(t, err)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "VALIDATION_ERROR", decodeBody(t, rec)["code"])
		})
	}
}

func TestLoginOTPUserNotFound(t *testing.T) {
	h := NewAuthHandler(&stubAuthFlow{loginErr: service.ErrUserNotFound})
	rec, err := doJSON(t, h.LoginOTP, `{"email":"ghost@x.com"}`)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "USER_NOT_FOUND", decodeBody(t, rec)["code"])
}

func TestVerifyOTPInvalidCode(t *testing.T) {
	h := NewAuthHandler(&stubAuthFlow{verifyErr: service.ErrInvalidOrExpiredOTP})
	rec, err := doJSON(t, h.VerifyOTP, `{"email":"alice@x.com","otp":"123456"}`)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "INVALID_OR_EXPIRED_OTP", decodeBody(t, rec)["code"])
}

func TestVerifyOTPMissingCode(t *testing.T) {
	h := NewAuthHandler(&stubAuthFlow{})
	rec, err := doJSON(t, h.VerifyOTP, `{"email":"alice@x.com"}`)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", decodeBody(t, rec)["code"])
}

func TestVerifyOTPSuccessReturnsUserAndToken(t *testing.T) {
	u := &repository.User{ID: "id-1", Name: "Alice", Email: "alice@x.com", EmailVerified: true}
	h := NewAuthHandler(&stubAuthFlow{
		verifyUser:  u,
		verifyToken: utils.AccessToken{Token: "signed.jwt.here"},
	})
	rec, err := doJSON(t, h.VerifyOTP, `{"email":"alice@x.com","otp":"123456"}`)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	user, ok := body["user"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "alice@x.com", user["email"])
	assert.Equal(t, true, user["email_verified"])
	token, ok := body["token"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "signed.jwt.here", token["token"])
}

func TestUnexpectedErrorBubblesToGlobalHandler(t *testing.T) {
	h := NewAuthHandler(&stubAuthFlow{registerErr: context.DeadlineExceeded})
	_, err := doJSON(t, h.SendOTP, `{"name":"Alice","email":"alice@x.com"}`)
	// Infrastructure failures are not mapped here; Echo's error handler
	// turns them into the generic 500 body.
	assert.Error(t, err)
}
