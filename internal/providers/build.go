package providers

import (
	"fmt"
	"time"

	"github.com/Top-g99/luxe-staycations-sub000/internal/config"
)

// BuildChain registers every provider that has credentials, in failover
// order: Resend, then the Shoutrrr URL, then SMTP.
func BuildChain(cfg config.ProvidersConfig, timeout time.Duration) (*Chain, error) {
	var list []Provider

	if cfg.ResendAPIKey != "" {
		r, err := NewResend(ResendConfig{APIKey: cfg.ResendAPIKey, From: cfg.ResendFrom, BaseURL: cfg.ResendBaseURL})
		if err != nil {
			return nil, fmt.Errorf("resend provider: %w", err)
		}
		var p Provider = r
		if cfg.ResendRatePerSec > 0 {
			p = NewRateLimited(r, cfg.ResendRatePerSec)
		}
		list = append(list, p)
	}
	if cfg.ShoutrrrURL != "" {
		s, err := NewShoutrrr(cfg.ShoutrrrURL)
		if err != nil {
			return nil, fmt.Errorf("shoutrrr provider: %w", err)
		}
		list = append(list, s)
	}
	if cfg.SMTPHost != "" {
		s, err := NewSMTP(SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
		})
		if err != nil {
			return nil, fmt.Errorf("smtp provider: %w", err)
		}
		list = append(list, s)
	}

	return NewChain(timeout, list...), nil
}
