package providers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/resend/resend-go/v3"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/renderer/html"
)

// ResendConfig holds the primary provider's credentials.
type ResendConfig struct {
	APIKey string
	From   string
	// BaseURL overrides the Resend API endpoint (tests, regional endpoints).
	BaseURL string
}

// Resend is the primary provider. Bodies are treated as markdown and sent as
// sanitized HTML with the raw body as the plain-text alternative.
type Resend struct {
	client *resend.Client
	from   string
	md     goldmark.Markdown
	policy *bluemonday.Policy
}

// NewResend creates the Resend provider.
func NewResend(cfg ResendConfig) (*Resend, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("resend: api key is required")
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("resend: sender address is required")
	}

	client := resend.NewCustomClient(&http.Client{
		Timeout:   time.Minute,
		Transport: authTransport{next: http.DefaultTransport},
	}, cfg.APIKey)
	if cfg.BaseURL != "" {
		u, err := url.Parse(cfg.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("resend: invalid base url: %w", err)
		}
		client.BaseURL = u
	}

	return &Resend{
		client: client,
		from:   cfg.From,
		md:     goldmark.New(goldmark.WithRendererOptions(html.WithHardWraps())),
		policy: bluemonday.UGCPolicy(),
	}, nil
}

func (r *Resend) Name() string { return "resend" }

func (r *Resend) Send(ctx context.Context, msg Message) (string, error) {
	htmlBody, err := r.renderHTML(msg.Body)
	if err != nil {
		return "", &ProviderError{Provider: r.Name(), Kind: ErrorKindRejected, Err: err}
	}

	req := &resend.SendEmailRequest{
		From:    r.from,
		To:      []string{msg.Recipient},
		Subject: msg.Subject,
		Html:    htmlBody,
		Text:    msg.Body,
		Tags:    convertTags(msg.Tags),
	}

	resp, err := r.client.Emails.SendWithContext(ctx, req)
	if errors.Is(err, resend.ErrRateLimit) {
		return "", &ProviderError{Provider: r.Name(), Kind: ErrorKindUnavailable, Err: err}
	}
	if err != nil {
		return "", fmt.Errorf("resend: failed to send email: %w", err)
	}
	return resp.Id, nil
}

// authTransport surfaces refused API keys as ErrUnauthorized. The Resend
// client reports every other non-2xx status as a plain message.
type authTransport struct {
	next http.RoundTripper
}

func (t authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.next.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: resend answered %s", ErrUnauthorized, resp.Status)
	}
	return resp, nil
}

func (r *Resend) renderHTML(body string) (string, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(body), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return r.policy.Sanitize(buf.String()), nil
}

func convertTags(tags map[string]string) []resend.Tag {
	if len(tags) == 0 {
		return nil
	}
	names := make([]string, 0, len(tags))
	for name := range tags {
		names = append(names, name)
	}
	sort.Strings(names)

	result := make([]resend.Tag, 0, len(tags))
	for _, name := range names {
		result = append(result, resend.Tag{Name: name, Value: tags[name]})
	}
	return result
}
