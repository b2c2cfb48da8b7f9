package providers

import (
	"context"
	"fmt"
	"net/url"

	"github.com/containrrr/shoutrrr"
	"github.com/containrrr/shoutrrr/pkg/router"
	"github.com/containrrr/shoutrrr/pkg/types"
)

// Shoutrrr is the minimal secondary provider. Any shoutrrr service URL works;
// for smtp:// URLs the recipient and subject are passed per message.
type Shoutrrr struct {
	scheme string
	sender *router.ServiceRouter
}

// NewShoutrrr validates serviceURL and prepares a sender for it.
func NewShoutrrr(serviceURL string) (*Shoutrrr, error) {
	u, err := url.Parse(serviceURL)
	if err != nil || u.Scheme == "" {
		return nil, fmt.Errorf("shoutrrr: invalid service url")
	}
	sender, err := shoutrrr.CreateSender(serviceURL)
	if err != nil {
		return nil, fmt.Errorf("shoutrrr: create sender: %w", err)
	}
	return &Shoutrrr{scheme: u.Scheme, sender: sender}, nil
}

func (s *Shoutrrr) Name() string { return "shoutrrr" }

// Send ignores ctx cancellation; the chain's per-call timeout bounds it.
func (s *Shoutrrr) Send(_ context.Context, msg Message) (string, error) {
	params := s.params(msg)
	for _, err := range s.sender.Send(msg.Body, &params) {
		if err != nil {
			return "", fmt.Errorf("shoutrrr: %w", err)
		}
	}
	return "", nil
}

func (s *Shoutrrr) params(msg Message) types.Params {
	if s.scheme == "smtp" {
		return types.Params{
			"subject":     msg.Subject,
			"toaddresses": msg.Recipient,
		}
	}
	return types.Params{"title": msg.Subject}
}
