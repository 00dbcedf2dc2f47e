// Package mailer delivers one-time codes to users. The core treats mail as
// a collaborator behind the Sender interface: one send attempt per issuance,
// with a success/failure signal and nothing else.
package mailer

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"
)

// Sender is implemented by anything able to deliver a one-time code.
type Sender interface {
	SendOTP(ctx context.Context, toEmail, name, code string) error
}

// SMTPSender delivers codes over plain SMTP with STARTTLS when the server
// offers it.
type SMTPSender struct {
	Host          string
	Port          string
	User          string // also used as the From address
	Password      string
	AppName       string
	ExpiryMinutes int // quoted in the message body so users know how long the code lasts

	// DialTimeout bounds the whole SMTP conversation. Zero means 10s.
	DialTimeout time.Duration
}

// SendOTP connects to the gateway, authenticates and sends a plain-text
// message containing the code. The connection deadline is the earlier of
// the context deadline and DialTimeout, so a hung gateway cannot stall the
// request indefinitely.
func (s *SMTPSender) SendOTP(ctx context.Context, toEmail, name, code string) error {
	timeout := s.DialTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	deadline := time.Now().Add(timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	addr := net.JoinHostPort(s.Host, s.Port)
	conn, err := net.DialTimeout("tcp", addr, time.Until(deadline))
	if err != nil {
		return fmt.Errorf("smtp dial: %w", err)
	}
	if err := conn.SetDeadline(deadline); err != nil {
		_ = conn.Close()
		return fmt.Errorf("smtp deadline: %w", err)
	}

	c, err := smtp.NewClient(conn, s.Host)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer func() { _ = c.Close() }()

	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: s.Host}); err != nil {
			return fmt.Errorf("smtp starttls: %w", err)
		}
	}
	if s.User != "" && s.Password != "" {
		auth := smtp.PlainAuth("", s.User, s.Password, s.Host)
		if err := c.Auth(auth); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}
	if err := c.Mail(s.User); err != nil {
		return fmt.Errorf("smtp mail from: %w", err)
	}
	if err := c.Rcpt(toEmail); err != nil {
		return fmt.Errorf("smtp rcpt to: %w", err)
	}
	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	if _, err := w.Write(s.message(toEmail, name, code)); err != nil {
		_ = w.Close()
		return fmt.Errorf("smtp write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp close data: %w", err)
	}
	return c.Quit()
}

// message builds the RFC 822 payload. Headers and body are joined with
// CRLF, with the mandatory blank line between them.
func (s *SMTPSender) message(toEmail, name, code string) []byte {
	greeting := "Hello"
	if name != "" {
		greeting = "Hello " + name
	}
	body := fmt.Sprintf(
		"%s,\n\nYour %s verification code is: %s\n\n"+
			"This code will expire in %d minutes. If you did not request this email, please ignore it.\n\n"+
			"Best regards,\nThe %s Team",
		greeting, s.AppName, code, s.ExpiryMinutes, s.AppName)

	headers := []string{
		fmt.Sprintf("From: %s", s.User),
		fmt.Sprintf("To: %s", toEmail),
		fmt.Sprintf("Subject: %s - Your verification code", s.AppName),
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		body,
	}
	return []byte(strings.Join(headers, "\r\n"))
}
