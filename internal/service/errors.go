package service

import "errors"

// Domain errors are expected outcomes of the auth business rules. Each has
// a stable machine-readable code at the HTTP boundary; callers branch on
// the code, not on the message. They are never logged as exceptional.
var (
	// ErrEmailAlreadyRegistered is returned when registration is attempted
	// for an email that already completed verification. Returned distinctly
	// so clients can redirect to sign-in instead of retrying registration.
	ErrEmailAlreadyRegistered = errors.New("email already registered")

	// ErrUserNotFound is returned when login or verification targets an
	// email that was never registered.
	ErrUserNotFound = errors.New("user not found")

	// ErrInvalidOrExpiredOTP is returned when verification fails. Wrong
	// code, expired code and already-consumed code are deliberately
	// indistinguishable.
	ErrInvalidOrExpiredOTP = errors.New("invalid or expired verification code")

	// ErrOTPResendTooSoon is returned when a fresh code is requested before
	// the cooldown since the previous issuance has elapsed.
	ErrOTPResendTooSoon = errors.New("verification code was sent recently, try again later")

	// ErrMailSend is returned when the code was persisted but could not be
	// delivered. The stored code is not rolled back; a later resend simply
	// overwrites it.
	ErrMailSend = errors.New("failed to send verification email")
)
