// Package queue defines message payloads exchanged over the message broker.
package queue

// Event types published on the auth.events queue.
const (
    EventOTPIssued     = "otp.issued"
    EventEmailVerified = "email.verified"
)

// AuthEvent is published whenever a one-time code is issued or an email is
// verified. It carries enough information for downstream consumers to log,
// notify, or trigger analytics without querying the primary database. The
// code itself is never part of the payload.
type AuthEvent struct {
    Type       string `json:"type"`
    UserID     string `json:"user_id"`
    Email      string `json:"email"`
    OccurredAt string `json:"occurred_at"`
}
