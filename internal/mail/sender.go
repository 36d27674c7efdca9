// Package mail delivers account emails. The interface is deliberately small;
// the rest of the system only ever sends a confirmation code.
package mail

import (
	"fmt"
	"log/slog"
	"net/smtp"
)

type Sender interface {
	SendConfirmationEmail(to, confirmationCode string) error
}

// SMTPSender sends through a plain SMTP relay.
type SMTPSender struct {
	addr string
	from string
	auth smtp.Auth
}

func NewSMTPSender(addr, from, username, password, host string) *SMTPSender {
	var auth smtp.Auth
	if username != "" {
		auth = smtp.PlainAuth("", username, password, host)
	}
	return &SMTPSender{addr: addr, from: from, auth: auth}
}

func (s *SMTPSender) SendConfirmationEmail(to, confirmationCode string) error {
	body := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: Confirm your registration\r\n\r\n"+
		"Your confirmation code: %s\r\n", s.from, to, confirmationCode)
	if err := smtp.SendMail(s.addr, s.auth, s.from, []string{to}, []byte(body)); err != nil {
		return fmt.Errorf("send confirmation email: %w", err)
	}
	return nil
}

// LogSender logs instead of delivering. Used in development and tests where
// no relay is configured.
type LogSender struct{}

func (LogSender) SendConfirmationEmail(to, confirmationCode string) error {
	slog.Info("confirmation email suppressed", "to", to, "code", confirmationCode)
	return nil
}
