package providers

import (
	"context"
	"errors"
	"fmt"
	"net/textproto"

	"gopkg.in/gomail.v2"
)

// SMTPConfig configures the plain SMTP provider.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTP sends plain-text mail through a relay. It is registered last, after Shoutrrr.
type SMTP struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTP(cfg SMTPConfig) (*SMTP, error) {
	if cfg.Host == "" || cfg.From == "" {
		return nil, fmt.Errorf("smtp: host and sender address are required")
	}
	port := cfg.Port
	if port == 0 {
		port = 587
	}
	return &SMTP{
		dialer: gomail.NewDialer(cfg.Host, port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}, nil
}

func (s *SMTP) Name() string { return "smtp" }

func (s *SMTP) Send(_ context.Context, msg Message) (string, error) {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", msg.Recipient)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Body)

	if err := s.dialer.DialAndSend(m); err != nil {
		var reply *textproto.Error
		if errors.As(err, &reply) && isAuthReply(reply.Code) {
			return "", fmt.Errorf("smtp: %w: %v", ErrUnauthorized, err)
		}
		return "", fmt.Errorf("smtp: %w", err)
	}
	return "", nil
}

// isAuthReply reports SMTP replies that mean the relay refused our credentials.
func isAuthReply(code int) bool {
	return code == 530 || code == 534 || code == 535
}
