// Package providers adapts external delivery channels to one Provider
// capability and runs them as an ordered failover chain.
package providers

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Message is a fully rendered notification ready for a provider.
type Message struct {
	Recipient string
	Subject   string
	Body      string
	// Tags are forwarded to providers that support message tagging.
	Tags map[string]string
}

// Provider delivers a message through one external channel and returns the
// provider-assigned message id when the channel exposes one.
type Provider interface {
	Name() string
	Send(ctx context.Context, msg Message) (string, error)
}

type ErrorKind string

const (
	ErrorKindTimeout     ErrorKind = "timeout"
	ErrorKindNetwork     ErrorKind = "network"
	ErrorKindAuth        ErrorKind = "auth"
	ErrorKindRejected    ErrorKind = "rejected"
	ErrorKindUnavailable ErrorKind = "unavailable"
)

var (
	// ErrNoProviders is returned by an empty chain.
	ErrNoProviders = errors.New("no delivery providers registered")
	// ErrUnauthorized may be wrapped by providers whose credentials were refused.
	ErrUnauthorized = errors.New("provider rejected credentials")
)

// ProviderError is the only error shape a provider failure surfaces as.
type ProviderError struct {
	Provider string
	Kind     ErrorKind
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("provider %s: %s: %v", e.Provider, e.Kind, e.Err)
	}
	return fmt.Sprintf("provider %s: %s", e.Provider, e.Kind)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Outcome is the result of one provider call or of a full chain pass.
type Outcome struct {
	Provider  string
	Success   bool
	MessageID string
	Err       *ProviderError
}

// Kind returns the failure kind, or "" for a successful outcome.
func (o Outcome) Kind() ErrorKind {
	if o.Err == nil {
		return ""
	}
	return o.Err.Kind
}

// Classify maps an arbitrary send error to an ErrorKind.
func Classify(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var pe *ProviderError
	if errors.As(err, &pe) && pe.Kind != "" {
		return pe.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorKindTimeout
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, ErrNoProviders) {
		return ErrorKindUnavailable
	}
	if errors.Is(err, ErrUnauthorized) {
		return ErrorKindAuth
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return ErrorKindTimeout
		}
		return ErrorKindNetwork
	}
	return ErrorKindRejected
}

func newProviderError(provider string, err error) *ProviderError {
	var pe *ProviderError
	if errors.As(err, &pe) && pe.Provider == provider {
		return pe
	}
	return &ProviderError{Provider: provider, Kind: Classify(err), Err: err}
}
