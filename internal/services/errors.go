package services

import (
	"errors"
	"fmt"

	"github.com/Top-g99/luxe-staycations-sub000/internal/providers"
)

var (
	ErrNotConfigured    = errors.New("event is not configured")
	ErrNoTemplate       = errors.New("no active template")
	ErrExhaustedRetries = errors.New("delivery retries exhausted")
	ErrMissingRecipient = errors.New("recipient is required")
	ErrInvalidTemplate  = errors.New("invalid template")
	ErrRecordNotFound   = errors.New("delivery record not found")
	ErrSweepInProgress  = errors.New("retry sweep already running")
)

// ErrVersionConflict means another writer updated a delivery record first.
var ErrVersionConflict = errors.New("delivery record was modified concurrently")

// NotConfiguredError reports an event with no enabled trigger rule.
type NotConfiguredError struct {
	EventName string
	Disabled  bool
}

func (e *NotConfiguredError) Error() string {
	if e.Disabled {
		return fmt.Sprintf("event %q is disabled", e.EventName)
	}
	return fmt.Sprintf("event %q has no trigger rule", e.EventName)
}

func (e *NotConfiguredError) Is(target error) bool { return target == ErrNotConfigured }

// NoTemplateError reports a template type with no active template.
type NoTemplateError struct {
	Type string
}

func (e *NoTemplateError) Error() string {
	return fmt.Sprintf("no active template of type %q", e.Type)
}

func (e *NoTemplateError) Is(target error) bool { return target == ErrNoTemplate }

// ExhaustedRetriesError is returned once every repetition of a delivery failed.
// Failures holds one provider error per failed repetition, oldest first.
type ExhaustedRetriesError struct {
	RecordID string
	Attempts int
	Failures []*providers.ProviderError
}

func (e *ExhaustedRetriesError) Error() string {
	if last := e.Last(); last != nil {
		return fmt.Sprintf("delivery %s exhausted after %d attempts: %v", e.RecordID, e.Attempts, last)
	}
	return fmt.Sprintf("delivery %s exhausted after %d attempts", e.RecordID, e.Attempts)
}

// Last returns the provider error of the final repetition.
func (e *ExhaustedRetriesError) Last() *providers.ProviderError {
	if len(e.Failures) == 0 {
		return nil
	}
	return e.Failures[len(e.Failures)-1]
}

func (e *ExhaustedRetriesError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures)+1)
	errs = append(errs, ErrExhaustedRetries)
	for _, f := range e.Failures {
		errs = append(errs, f)
	}
	return errs
}
