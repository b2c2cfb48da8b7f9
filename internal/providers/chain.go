package providers

import (
	"context"
	"fmt"
	"time"

	"github.com/Top-g99/luxe-staycations-sub000/internal/logger"
	"github.com/Top-g99/luxe-staycations-sub000/internal/metrics"
)

// DefaultTimeout bounds a single provider call when none is configured.
const DefaultTimeout = 10 * time.Second

// Chain is an ordered list of providers tried in priority order.
type Chain struct {
	providers []Provider
	timeout   time.Duration
}

// NewChain builds a chain. The order of providers is the failover order.
func NewChain(timeout time.Duration, providers ...Provider) *Chain {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Chain{providers: providers, timeout: timeout}
}

// Names lists the providers in priority order.
func (c *Chain) Names() []string {
	names := make([]string, 0, len(c.providers))
	for _, p := range c.providers {
		names = append(names, p.Name())
	}
	return names
}

// Send makes one full pass through the chain. It stops at the first provider
// that succeeds and otherwise returns the outcome of the last one tried.
func (c *Chain) Send(ctx context.Context, msg Message) Outcome {
	if len(c.providers) == 0 {
		return Outcome{Err: &ProviderError{Kind: ErrorKindUnavailable, Err: ErrNoProviders}}
	}

	var out Outcome
	for i, p := range c.providers {
		out = c.call(ctx, p, msg)
		if out.Success {
			return out
		}
		if i < len(c.providers)-1 {
			logger.WithFields(map[string]interface{}{
				"provider":   p.Name(),
				"error_kind": out.Kind(),
				"fallback":   c.providers[i+1].Name(),
			}).WithError(out.Err).Warn("provider failed, falling back")
		}
	}
	return out
}

func (c *Chain) call(ctx context.Context, p Provider, msg Message) Outcome {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	type result struct {
		id  string
		err error
	}
	done := make(chan result, 1)
	start := time.Now()
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: fmt.Errorf("provider panic: %v", r)}
			}
		}()
		id, err := p.Send(callCtx, msg)
		done <- result{id: id, err: err}
	}()

	var out Outcome
	select {
	case res := <-done:
		if res.err != nil {
			out = Outcome{Provider: p.Name(), Err: newProviderError(p.Name(), res.err)}
		} else {
			out = Outcome{Provider: p.Name(), Success: true, MessageID: res.id}
		}
	case <-callCtx.Done():
		// Providers that ignore ctx are abandoned here; their goroutine
		// drains into the buffered channel when they return.
		out = Outcome{Provider: p.Name(), Err: &ProviderError{Provider: p.Name(), Kind: ErrorKindTimeout, Err: callCtx.Err()}}
	}

	label := "success"
	if !out.Success {
		label = string(out.Kind())
	}
	metrics.ObserveProviderCall(p.Name(), label, time.Since(start))
	return out
}
