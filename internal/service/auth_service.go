// Package service implements the passwordless auth flow: issuing one-time
// codes on registration and login, and verifying them. Per email the user
// record moves Unregistered -> PendingVerification -> Verified; the state is
// derived from the row fields, never stored separately.
package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/astrivya/backend/internal/mailer"
	"github.com/astrivya/backend/internal/otp"
	"github.com/astrivya/backend/internal/queue"
	"github.com/astrivya/backend/internal/repository"
	"github.com/astrivya/backend/internal/utils"
)

// UserStore is the slice of the repository the auth flow needs. Lookup
// misses come back as (nil, nil); sentinel errors cover duplicate emails and
// missing update targets; anything else is an infrastructure failure.
type UserStore interface {
	Create(ctx context.Context, name, email, otpCode string, otpExpires time.Time) (*repository.User, error)
	FindByEmail(ctx context.Context, email string) (*repository.User, error)
	UpdateOTP(ctx context.Context, email, otpCode string, otpExpires time.Time) error
	VerifyAndConsumeOTP(ctx context.Context, email, code string) (*repository.User, error)
}

// EventPublisher delivers an audit event to the broker. Publishing is
// fire-and-forget: failures are logged and never fail the request.
type EventPublisher func(ctx context.Context, ev queue.AuthEvent) error

// TokenConfig carries the signing parameters for the access token issued on
// successful verification.
type TokenConfig struct {
	Secret string
	TTLMin int
}

// AuthService orchestrates registration, login-OTP and verification against
// the store, the generator and the mail gateway.
type AuthService struct {
	store    UserStore
	mail     mailer.Sender
	otp      *otp.Generator
	events   EventPublisher
	token    TokenConfig
	cooldown time.Duration

	now func() time.Time
}

func NewAuthService(store UserStore, mail mailer.Sender, gen *otp.Generator, token TokenConfig, cooldown time.Duration, events EventPublisher) *AuthService {
	return &AuthService{
		store:    store,
		mail:     mail,
		otp:      gen,
		events:   events,
		token:    token,
		cooldown: cooldown,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Register creates an unverified user and mails the initial code. For an
// email that is still pending verification it re-issues a fresh code
// instead of failing, so a user who lost the first mail can retry. For an
// already verified email it fails with ErrEmailAlreadyRegistered.
func (s *AuthService) Register(ctx context.Context, name, email string) error {
	u, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("register: lookup: %w", err)
	}
	if u != nil && u.EmailVerified {
		return ErrEmailAlreadyRegistered
	}

	code, expires, err := s.otp.Generate()
	if err != nil {
		return fmt.Errorf("register: generate otp: %w", err)
	}

	if u == nil {
		u, err = s.store.Create(ctx, name, email, code, expires)
		if err != nil {
			// A concurrent registration can win the insert between our
			// lookup and here; report it the same way as a stored row.
			if err == repository.ErrEmailExists {
				return ErrEmailAlreadyRegistered
			}
			return fmt.Errorf("register: create user: %w", err)
		}
	} else {
		// Pending verification: resend semantics, subject to the cooldown.
		if err := s.checkCooldown(u); err != nil {
			return err
		}
		if err := s.store.UpdateOTP(ctx, email, code, expires); err != nil {
			return fmt.Errorf("register: update otp: %w", err)
		}
	}

	return s.deliver(ctx, u, code)
}

// RequestLoginOTP issues a fresh code for an existing user, regardless of
// verification status. The overwrite invalidates any previous code.
func (s *AuthService) RequestLoginOTP(ctx context.Context, email string) error {
	u, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("login-otp: lookup: %w", err)
	}
	if u == nil {
		return ErrUserNotFound
	}
	if err := s.checkCooldown(u); err != nil {
		return err
	}

	code, expires, err := s.otp.Generate()
	if err != nil {
		return fmt.Errorf("login-otp: generate otp: %w", err)
	}
	if err := s.store.UpdateOTP(ctx, email, code, expires); err != nil {
		if err == repository.ErrUserNotFound {
			return ErrUserNotFound
		}
		return fmt.Errorf("login-otp: update otp: %w", err)
	}

	return s.deliver(ctx, u, code)
}

// VerifyOTP checks the submitted code against the store's atomic
// verify-and-consume operation and, on success, returns the verified user
// and a signed access token. A nil store result maps to a single
// ErrInvalidOrExpiredOTP; the caller never learns whether the code was
// wrong, expired or already consumed.
func (s *AuthService) VerifyOTP(ctx context.Context, email, code string) (*repository.User, utils.AccessToken, error) {
	u, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		return nil, utils.AccessToken{}, fmt.Errorf("verify: lookup: %w", err)
	}
	if u == nil {
		return nil, utils.AccessToken{}, ErrUserNotFound
	}

	verified, err := s.store.VerifyAndConsumeOTP(ctx, email, code)
	if err != nil {
		return nil, utils.AccessToken{}, fmt.Errorf("verify: consume otp: %w", err)
	}
	if verified == nil {
		return nil, utils.AccessToken{}, ErrInvalidOrExpiredOTP
	}

	tok, err := utils.NewAccessToken(s.token.Secret, verified.ID, verified.Email, s.token.TTLMin)
	if err != nil {
		return nil, utils.AccessToken{}, fmt.Errorf("verify: sign token: %w", err)
	}

	s.publish(ctx, queue.EventEmailVerified, verified)
	return verified, tok, nil
}

// checkCooldown rejects a new issuance while the previous code is still
// fresh. The issuance instant is derived from the stored expiry minus the
// configured window, so no extra column is needed.
func (s *AuthService) checkCooldown(u *repository.User) error {
	if s.cooldown <= 0 || !u.OTPCode.Valid || !u.OTPExpires.Valid {
		return nil
	}
	issuedAt := u.OTPExpires.Time.Add(-s.otp.Expiry)
	if s.now().Before(issuedAt.Add(s.cooldown)) {
		return ErrOTPResendTooSoon
	}
	return nil
}

// deliver sends the code and publishes the issuance event. The OTP row is
// already written at this point; a send failure is reported upward without
// rolling it back, since the next resend fully overwrites the code.
func (s *AuthService) deliver(ctx context.Context, u *repository.User, code string) error {
	if err := s.mail.SendOTP(ctx, u.Email, u.Name, code); err != nil {
		log.Printf("mailer: send to %s failed: %v", u.Email, err)
		return ErrMailSend
	}
	s.publish(ctx, queue.EventOTPIssued, u)
	return nil
}

func (s *AuthService) publish(ctx context.Context, eventType string, u *repository.User) {
	if s.events == nil {
		return
	}
	ev := queue.AuthEvent{
		Type:       eventType,
		UserID:     u.ID,
		Email:      u.Email,
		OccurredAt: s.now().Format(time.RFC3339),
	}
	if err := s.events(ctx, ev); err != nil {
		log.Printf("events: publish %s failed: %v", eventType, err)
	}
}
