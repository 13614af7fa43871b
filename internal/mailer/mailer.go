package mailer

import (
	"fmt"

	"boneage-backend/internal/config"

	"gopkg.in/gomail.v2"
)

// Sender delivers verification emails. Services depend on this interface
// so tests can capture codes instead of sending them.
type Sender interface {
	SendVerificationCode(to, code string) error
}

// SMTPSender sends mail through the configured relay
type SMTPSender struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPSender(cfg config.SMTPConfig) *SMTPSender {
	return &SMTPSender{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password),
		from:   cfg.From,
	}
}

// SendVerificationCode sends the fixed-template verification email
func (s *SMTPSender) SendVerificationCode(to, code string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", "Your verification code")
	m.SetBody("text/html", fmt.Sprintf(
		"<p>Your verification code is <strong>%s</strong>.</p><p>The code expires in 10 minutes.</p>", code))

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send verification mail: %w", err)
	}
	return nil
}
