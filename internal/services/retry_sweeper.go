package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/Top-g99/luxe-staycations-sub000/internal/logger"
	"github.com/Top-g99/luxe-staycations-sub000/internal/metrics"
	"github.com/Top-g99/luxe-staycations-sub000/internal/models"
)

// SweepReport summarizes one pass of the retry sweep.
type SweepReport struct {
	Candidates int `json:"candidates"`
	Resumed    int `json:"resumed"`
	Succeeded  int `json:"succeeded"`
	Exhausted  int `json:"exhausted"`
	Skipped    int `json:"skipped"`
	Errors     int `json:"errors"`
}

// SweeperOptions configures the background jobs.
type SweeperOptions struct {
	Concurrency       int
	BatchSize         int
	Retention         time.Duration
	SweepSchedule     string
	RetentionSchedule string
}

// RetrySweeper resumes deliveries that still have attempts left and purges
// old terminal records.
type RetrySweeper struct {
	store      *DeliveryStore
	deliveries *DeliveryService
	opts       SweeperOptions
	parser     cron.Parser

	running atomic.Bool

	mu sync.Mutex
	c  *cron.Cron
}

func NewRetrySweeper(store *DeliveryStore, deliveries *DeliveryService, opts SweeperOptions) *RetrySweeper {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if opts.BatchSize < 1 {
		opts.BatchSize = 100
	}
	return &RetrySweeper{
		store:      store,
		deliveries: deliveries,
		opts:       opts,
		parser:     cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
	}
}

// Sweep resumes every retryable record once. Only one sweep runs at a time;
// a concurrent call returns ErrSweepInProgress.
func (s *RetrySweeper) Sweep(ctx context.Context) (SweepReport, error) {
	var report SweepReport
	if !s.running.CompareAndSwap(false, true) {
		return report, ErrSweepInProgress
	}
	defer s.running.Store(false)

	records, err := s.store.ListRetryable(ctx, s.deliveries.MaxAttempts(), time.Now().UTC(), s.opts.BatchSize)
	if err != nil {
		return report, fmt.Errorf("list retryable deliveries: %w", err)
	}
	report.Candidates = len(records)

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(s.opts.Concurrency)
	for i := range records {
		rec := &records[i]
		g.Go(func() error {
			resumed, err := s.deliveries.Resume(ctx, rec)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case !resumed && err != nil:
				report.Errors++
				logger.ForDelivery(rec.ID, rec.EventName).WithError(err).Warn("Failed to claim delivery for retry")
			case !resumed:
				report.Skipped++
			case err == nil:
				report.Resumed++
				report.Succeeded++
			case errors.Is(err, ErrExhaustedRetries):
				report.Resumed++
				report.Exhausted++
			default:
				report.Resumed++
				report.Errors++
			}
			return nil
		})
	}
	_ = g.Wait()

	if report.Candidates > 0 {
		logger.WithFields(logrus.Fields{
			"candidates": report.Candidates,
			"succeeded":  report.Succeeded,
			"exhausted":  report.Exhausted,
			"skipped":    report.Skipped,
		}).Info("Retry sweep finished")
	}
	return report, nil
}

// Purge removes terminal records older than the retention window.
func (s *RetrySweeper) Purge(ctx context.Context) (int64, error) {
	if s.opts.Retention <= 0 {
		return 0, nil
	}
	n, err := s.store.PurgeOlderThan(ctx, s.opts.Retention)
	if err != nil {
		return 0, err
	}
	metrics.AddPurged(n)
	if n > 0 {
		logger.Log().WithField("purged", n).Info("Purged old delivery records")
	}
	return n, nil
}

// Start schedules the sweep and retention jobs. Empty schedules are skipped.
func (s *RetrySweeper) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.c != nil {
		return nil
	}

	c := cron.New(cron.WithParser(s.parser), cron.WithLocation(time.UTC))
	if spec := s.opts.SweepSchedule; spec != "" {
		if _, err := c.AddFunc(spec, func() {
			if _, err := s.Sweep(ctx); err != nil && !errors.Is(err, ErrSweepInProgress) {
				logger.Log().WithError(err).Error("Retry sweep failed")
			}
		}); err != nil {
			return fmt.Errorf("schedule retry sweep %q: %w", spec, err)
		}
	}
	if spec := s.opts.RetentionSchedule; spec != "" {
		if _, err := c.AddFunc(spec, func() {
			if _, err := s.Purge(ctx); err != nil {
				logger.Log().WithError(err).Error("Delivery retention purge failed")
			}
		}); err != nil {
			return fmt.Errorf("schedule retention purge %q: %w", spec, err)
		}
	}

	c.Start()
	s.c = c
	logger.WithFields(logrus.Fields{
		"sweep":     s.opts.SweepSchedule,
		"retention": s.opts.RetentionSchedule,
	}).Info("Delivery jobs scheduled")
	return nil
}

// Stop halts the scheduler and waits for running jobs.
func (s *RetrySweeper) Stop() {
	s.mu.Lock()
	c := s.c
	s.c = nil
	s.mu.Unlock()
	if c != nil {
		<-c.Stop().Done()
	}
}

// Pending returns records the next sweep would consider, for diagnostics.
func (s *RetrySweeper) Pending(ctx context.Context) ([]models.DeliveryRecord, error) {
	return s.store.ListRetryable(ctx, s.deliveries.MaxAttempts(), time.Now().UTC(), s.opts.BatchSize)
}
