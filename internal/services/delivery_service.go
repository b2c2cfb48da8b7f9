package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Top-g99/luxe-staycations-sub000/internal/logger"
	"github.com/Top-g99/luxe-staycations-sub000/internal/metrics"
	"github.com/Top-g99/luxe-staycations-sub000/internal/models"
	"github.com/Top-g99/luxe-staycations-sub000/internal/providers"
	"github.com/Top-g99/luxe-staycations-sub000/internal/util"
)

// Dispatcher makes one pass through the configured providers.
type Dispatcher interface {
	Send(ctx context.Context, msg providers.Message) providers.Outcome
}

// RecordWriter persists delivery records with optimistic concurrency.
type RecordWriter interface {
	Upsert(ctx context.Context, rec *models.DeliveryRecord) error
}

// DeliveryOptions bounds the retry loop.
type DeliveryOptions struct {
	MaxAttempts  int
	BackoffDelay time.Duration
	// ClaimTTL is how long a running delivery keeps other workers away from
	// its record. Zero derives it from MaxAttempts and BackoffDelay.
	ClaimTTL time.Duration
	// LogWriteRetries bounds how often a failed log write is retried.
	LogWriteRetries int
	LogWriteBackoff time.Duration
}

func (o DeliveryOptions) withDefaults() DeliveryOptions {
	if o.MaxAttempts < 1 {
		o.MaxAttempts = 1
	}
	if o.BackoffDelay < 0 {
		o.BackoffDelay = 0
	}
	if o.ClaimTTL <= 0 {
		o.ClaimTTL = time.Duration(o.MaxAttempts)*o.BackoffDelay + 5*time.Minute
	}
	if o.LogWriteRetries < 1 {
		o.LogWriteRetries = 3
	}
	if o.LogWriteBackoff <= 0 {
		o.LogWriteBackoff = 200 * time.Millisecond
	}
	return o
}

// DeliveryService turns business events into notifications and records every
// attempt in the delivery log.
type DeliveryService struct {
	triggers  *TriggerMap
	templates *TemplateService
	chain     Dispatcher
	store     RecordWriter
	opts      DeliveryOptions

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration)
}

func NewDeliveryService(triggers *TriggerMap, templates *TemplateService, chain Dispatcher, store RecordWriter, opts DeliveryOptions) *DeliveryService {
	return &DeliveryService{
		triggers:  triggers,
		templates: templates,
		chain:     chain,
		store:     store,
		opts:      opts.withDefaults(),
		now:       time.Now,
		sleep:     sleepContext,
	}
}

// MaxAttempts is the current repetition budget per record.
func (s *DeliveryService) MaxAttempts() int {
	return s.opts.MaxAttempts
}

// TriggerEvent resolves, renders and delivers the notification for eventName.
//
// NotConfiguredError and NoTemplateError are returned before any record is
// created. Otherwise the returned record reflects every repetition made; if
// they all failed the error is an *ExhaustedRetriesError.
//
// Cancelling ctx after the record exists does not abandon it: the remaining
// repetitions still run and are logged.
func (s *DeliveryService) TriggerEvent(ctx context.Context, eventName, recipient string, payload map[string]string) (*models.DeliveryRecord, error) {
	rule, err := s.triggers.Resolve(eventName)
	if err != nil {
		metrics.IncEventDropped("not_configured")
		return nil, err
	}
	if !rule.Enabled {
		metrics.IncEventDropped("disabled")
		return nil, &NotConfiguredError{EventName: eventName, Disabled: true}
	}
	recipient = strings.TrimSpace(recipient)
	if recipient == "" {
		return nil, ErrMissingRecipient
	}

	tmpl, err := s.templates.Resolve(ctx, rule.TemplateType)
	if err != nil {
		if errors.Is(err, ErrNoTemplate) {
			metrics.IncEventDropped("no_template")
		}
		return nil, err
	}
	rendered := s.templates.Render(tmpl, payload)

	if rule.Delay > 0 {
		logger.WithFields(logrus.Fields{"event": eventName, "delay": rule.Delay.String()}).
			Debug("trigger delay is advisory, delivering now")
	}

	now := s.now().UTC()
	rec := &models.DeliveryRecord{
		EventName:    eventName,
		TemplateType: tmpl.Type,
		Recipient:    recipient,
		Subject:      rendered.Subject,
		Body:         rendered.Body,
		Outcome:      models.DeliveryPending,
		CreatedAt:    now,
	}
	s.claim(rec, uuid.New().String(), now)

	ctx = context.WithoutCancel(ctx)
	s.persist(ctx, rec)
	return rec, s.deliver(ctx, rec)
}

// Resume continues a record left behind by an earlier run. It returns false
// without error when the record is not retryable or another worker won the
// claim. A record exhausted under a smaller budget is reopened.
func (s *DeliveryService) Resume(ctx context.Context, rec *models.DeliveryRecord) (bool, error) {
	now := s.now().UTC()
	if rec.Outcome == models.DeliverySucceeded || len(rec.Attempts) >= s.opts.MaxAttempts || rec.ClaimedAt(now, "") {
		metrics.IncSweepSkipped()
		return false, nil
	}

	rec.Outcome = models.DeliveryPending
	s.claim(rec, uuid.New().String(), now)
	if err := s.store.Upsert(ctx, rec); err != nil {
		metrics.IncSweepSkipped()
		if errors.Is(err, ErrVersionConflict) {
			return false, nil
		}
		return false, err
	}

	metrics.IncSweepResumed()
	logger.ForDelivery(rec.ID, rec.EventName).
		WithField("attempts", len(rec.Attempts)).
		Info("Resuming delivery")
	return true, s.deliver(context.WithoutCancel(ctx), rec)
}

// deliver runs repetitions until one succeeds or the budget is spent. Every
// repetition is persisted before the next begins.
func (s *DeliveryService) deliver(ctx context.Context, rec *models.DeliveryRecord) error {
	log := logger.ForDelivery(rec.ID, rec.EventName).WithField("recipient", util.MaskRecipient(rec.Recipient))
	msg := providers.Message{
		Recipient: rec.Recipient,
		Subject:   rec.Subject,
		Body:      rec.Body,
		Tags: map[string]string{
			"event":    rec.EventName,
			"template": rec.TemplateType,
		},
	}

	var failures []*providers.ProviderError
	for ran := 0; len(rec.Attempts) < s.opts.MaxAttempts; ran++ {
		if ran > 0 {
			s.sleep(ctx, s.opts.BackoffDelay)
		}

		out := s.chain.Send(ctx, msg)
		attempt := models.DeliveryAttempt{
			Seq:               len(rec.Attempts) + 1,
			Provider:          out.Provider,
			Succeeded:         out.Success,
			ProviderMessageID: out.MessageID,
			CreatedAt:         s.now().UTC(),
		}
		if !out.Success {
			pe := out.Err
			if pe == nil {
				pe = &providers.ProviderError{Provider: out.Provider, Kind: providers.ErrorKindUnavailable}
			}
			attempt.ErrorKind = string(pe.Kind)
			attempt.ErrorMessage = pe.Error()
			failures = append(failures, pe)
		}
		rec.Attempts = append(rec.Attempts, attempt)

		if out.Success {
			rec.Outcome = models.DeliverySucceeded
			s.release(rec)
			s.persist(ctx, rec)
			metrics.IncDelivery(string(rec.Outcome))
			log.WithFields(logrus.Fields{
				"provider":   out.Provider,
				"attempt":    attempt.Seq,
				"message_id": out.MessageID,
			}).Info("Notification delivered")
			return nil
		}

		log.WithFields(logrus.Fields{
			"provider":   out.Provider,
			"attempt":    attempt.Seq,
			"error_kind": attempt.ErrorKind,
		}).Warn("Delivery attempt failed")
		if len(rec.Attempts) >= s.opts.MaxAttempts {
			break
		}
		s.persist(ctx, rec)
	}

	rec.Outcome = models.DeliveryExhausted
	s.release(rec)
	s.persist(ctx, rec)
	metrics.IncDelivery(string(rec.Outcome))
	if last := rec.LastAttempt(); last != nil {
		log = log.WithFields(logrus.Fields{"last_provider": last.Provider, "last_error_kind": last.ErrorKind})
	}
	log.WithField("attempts", len(rec.Attempts)).Error("Delivery retries exhausted")
	return &ExhaustedRetriesError{RecordID: rec.ID, Attempts: len(rec.Attempts), Failures: failures}
}

// persist writes rec, retrying transient failures on its own budget. Failures
// are counted and logged, never returned: the delivery itself already happened.
func (s *DeliveryService) persist(ctx context.Context, rec *models.DeliveryRecord) bool {
	log := logger.ForDelivery(rec.ID, rec.EventName)
	for i := 0; i < s.opts.LogWriteRetries; i++ {
		err := s.store.Upsert(ctx, rec)
		if err == nil {
			return true
		}
		metrics.IncLogWriteFailure()
		if errors.Is(err, ErrVersionConflict) {
			log.WithError(err).Error("Delivery record changed underneath a running delivery")
			return false
		}
		log.WithError(err).WithField("try", i+1).Warn("Failed to write delivery log")
		if i < s.opts.LogWriteRetries-1 {
			s.sleep(ctx, s.opts.LogWriteBackoff*time.Duration(i+1))
		}
	}
	log.Error("Giving up on delivery log write")
	return false
}

func (s *DeliveryService) claim(rec *models.DeliveryRecord, owner string, now time.Time) {
	expires := now.Add(s.opts.ClaimTTL)
	rec.ClaimedBy = owner
	rec.ClaimExpiresAt = &expires
}

func (s *DeliveryService) release(rec *models.DeliveryRecord) {
	rec.ClaimedBy = ""
	rec.ClaimExpiresAt = nil
}

func sleepContext(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}
