package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Top-g99/luxe-staycations-sub000/internal/models"
)

const (
	defaultQueryLimit   = 50
	maxQueryLimit       = 500
	recentFailuresLimit = 10
)

// DeliveryFilter narrows a delivery log query.
type DeliveryFilter struct {
	TemplateType string
	// OnlyFailed keeps records whose retries are exhausted.
	OnlyFailed  bool
	Limit       int
	NewestFirst bool
}

// DeliveryStatistics summarizes the delivery log.
type DeliveryStatistics struct {
	Total          int64                   `json:"total"`
	Successful     int64                   `json:"successful"`
	Failed         int64                   `json:"failed"`
	SuccessRate    float64                 `json:"success_rate"`
	RecentFailures []models.DeliveryRecord `json:"recent_failures"`
}

// DeliveryStore persists delivery records and their attempts.
type DeliveryStore struct {
	db  *gorm.DB
	now func() time.Time
}

func NewDeliveryStore(db *gorm.DB) *DeliveryStore {
	return &DeliveryStore{db: db, now: time.Now}
}

// Upsert writes rec. A record with Version 0 is inserted; otherwise the row is
// updated only if its stored version still equals rec.Version, else
// ErrVersionConflict is returned. Attempts are append-only: rows beyond those
// already stored are inserted. On success rec.Version is incremented.
func (s *DeliveryStore) Upsert(ctx context.Context, rec *models.DeliveryRecord) error {
	now := s.now().UTC()
	next := rec.Version + 1
	if rec.ClaimExpiresAt != nil {
		expires := rec.ClaimExpiresAt.UTC()
		rec.ClaimExpiresAt = &expires
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		stored := 0
		if rec.Version == 0 {
			if rec.ID == "" {
				rec.ID = uuid.New().String()
			}
			if rec.CreatedAt.IsZero() {
				rec.CreatedAt = now
			}
			rec.CreatedAt = rec.CreatedAt.UTC()
			if rec.Outcome == "" {
				rec.Outcome = models.DeliveryPending
			}
			row := *rec
			row.Attempts = nil
			row.AttemptCount = len(rec.Attempts)
			row.Version = next
			row.UpdatedAt = now
			if err := tx.Create(&row).Error; err != nil {
				return fmt.Errorf("insert delivery record: %w", err)
			}
		} else {
			res := tx.Model(&models.DeliveryRecord{}).
				Where("id = ? AND version = ?", rec.ID, rec.Version).
				Updates(map[string]interface{}{
					"subject":          rec.Subject,
					"body":             rec.Body,
					"outcome":          rec.Outcome,
					"attempt_count":    len(rec.Attempts),
					"version":          next,
					"claimed_by":       rec.ClaimedBy,
					"claim_expires_at": rec.ClaimExpiresAt,
					"updated_at":       now,
				})
			if res.Error != nil {
				return fmt.Errorf("update delivery record: %w", res.Error)
			}
			if res.RowsAffected == 0 {
				return ErrVersionConflict
			}
			var count int64
			if err := tx.Model(&models.DeliveryAttempt{}).Where("record_id = ?", rec.ID).Count(&count).Error; err != nil {
				return fmt.Errorf("count delivery attempts: %w", err)
			}
			stored = int(count)
		}

		for i := stored; i < len(rec.Attempts); i++ {
			a := rec.Attempts[i]
			a.RecordID = rec.ID
			a.Seq = i + 1
			if a.CreatedAt.IsZero() {
				a.CreatedAt = now
			}
			a.CreatedAt = a.CreatedAt.UTC()
			if err := tx.Create(&a).Error; err != nil {
				return fmt.Errorf("insert delivery attempt %d: %w", a.Seq, err)
			}
			rec.Attempts[i] = a
		}
		return nil
	})
	if err != nil {
		return err
	}

	rec.Version = next
	rec.AttemptCount = len(rec.Attempts)
	rec.UpdatedAt = now
	return nil
}

// Get returns a record with its attempts in order.
func (s *DeliveryStore) Get(ctx context.Context, id string) (*models.DeliveryRecord, error) {
	var rec models.DeliveryRecord
	err := s.db.WithContext(ctx).Preload("Attempts", orderAttempts).First(&rec, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Query lists records matching f. Limit defaults to 50 and is capped at 500.
func (s *DeliveryStore) Query(ctx context.Context, f DeliveryFilter) ([]models.DeliveryRecord, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = defaultQueryLimit
	}
	if limit > maxQueryLimit {
		limit = maxQueryLimit
	}

	q := s.db.WithContext(ctx).Preload("Attempts", orderAttempts)
	if f.TemplateType != "" {
		q = q.Where("template_type = ?", f.TemplateType)
	}
	if f.OnlyFailed {
		q = q.Where("outcome = ?", models.DeliveryExhausted)
	}
	if f.NewestFirst {
		q = q.Order("created_at desc").Order("id desc")
	} else {
		q = q.Order("created_at asc").Order("id asc")
	}

	var records []models.DeliveryRecord
	if err := q.Limit(limit).Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// Statistics counts records by outcome. Failed means retries exhausted, so
// pending records count towards Total only.
func (s *DeliveryStore) Statistics(ctx context.Context) (*DeliveryStatistics, error) {
	db := s.db.WithContext(ctx)
	stats := &DeliveryStatistics{RecentFailures: []models.DeliveryRecord{}}

	if err := db.Model(&models.DeliveryRecord{}).Count(&stats.Total).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.DeliveryRecord{}).Where("outcome = ?", models.DeliverySucceeded).Count(&stats.Successful).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.DeliveryRecord{}).Where("outcome = ?", models.DeliveryExhausted).Count(&stats.Failed).Error; err != nil {
		return nil, err
	}
	if stats.Total > 0 {
		stats.SuccessRate = math.Round(float64(stats.Successful)/float64(stats.Total)*10000) / 100
	}

	recent, err := s.Query(ctx, DeliveryFilter{OnlyFailed: true, Limit: recentFailuresLimit, NewestFirst: true})
	if err != nil {
		return nil, err
	}
	stats.RecentFailures = append(stats.RecentFailures, recent...)
	return stats, nil
}

// PurgeOlderThan deletes terminal records created more than age ago along
// with their attempts. Pending records are never purged.
func (s *DeliveryStore) PurgeOlderThan(ctx context.Context, age time.Duration) (int64, error) {
	cutoff := s.now().UTC().Add(-age)
	terminal := models.TerminalOutcomes()

	var purged int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		expired := tx.Model(&models.DeliveryRecord{}).
			Select("id").
			Where("created_at < ? AND outcome IN ?", cutoff, terminal)
		if err := tx.Where("record_id IN (?)", expired).Delete(&models.DeliveryAttempt{}).Error; err != nil {
			return fmt.Errorf("purge delivery attempts: %w", err)
		}
		res := tx.Where("created_at < ? AND outcome IN ?", cutoff, terminal).Delete(&models.DeliveryRecord{})
		if res.Error != nil {
			return fmt.Errorf("purge delivery records: %w", res.Error)
		}
		purged = res.RowsAffected
		return nil
	})
	return purged, err
}

// ListRetryable returns records that still have attempts left under
// maxAttempts, are not succeeded, and hold no live claim at now. Oldest
// updates come first.
func (s *DeliveryStore) ListRetryable(ctx context.Context, maxAttempts int, now time.Time, limit int) ([]models.DeliveryRecord, error) {
	if limit <= 0 {
		limit = defaultQueryLimit
	}
	var records []models.DeliveryRecord
	err := s.db.WithContext(ctx).
		Preload("Attempts", orderAttempts).
		Where("outcome <> ? AND attempt_count < ?", models.DeliverySucceeded, maxAttempts).
		Where("claimed_by = '' OR claimed_by IS NULL OR claim_expires_at IS NULL OR claim_expires_at < ?", now.UTC()).
		Order("updated_at asc").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

func orderAttempts(db *gorm.DB) *gorm.DB {
	return db.Order("seq asc")
}
