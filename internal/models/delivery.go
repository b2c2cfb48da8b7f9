package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DeliveryOutcome string

const (
	// DeliveryPending means repetitions are still being attempted.
	DeliveryPending   DeliveryOutcome = "pending"
	DeliverySucceeded DeliveryOutcome = "succeeded"
	DeliveryExhausted DeliveryOutcome = "exhausted"
)

// Terminal reports whether no further attempts will be made under the current budget.
func (o DeliveryOutcome) Terminal() bool {
	return o == DeliverySucceeded || o == DeliveryExhausted
}

var outcomes = []DeliveryOutcome{DeliveryPending, DeliverySucceeded, DeliveryExhausted}

// TerminalOutcomes lists the outcomes retention may remove.
func TerminalOutcomes() []DeliveryOutcome {
	var out []DeliveryOutcome
	for _, o := range outcomes {
		if o.Terminal() {
			out = append(out, o)
		}
	}
	return out
}

// DeliveryAttempt is one full pass through the provider chain. Rows are insert-only.
type DeliveryAttempt struct {
	ID                string    `gorm:"primaryKey" json:"id"`
	RecordID          string    `gorm:"uniqueIndex:idx_attempt_record_seq;not null" json:"record_id"`
	Seq               int       `gorm:"uniqueIndex:idx_attempt_record_seq;not null" json:"seq"`
	Provider          string    `json:"provider"`
	Succeeded         bool      `json:"succeeded"`
	ErrorKind         string    `json:"error_kind,omitempty"`
	ErrorMessage      string    `json:"error_message,omitempty"`
	ProviderMessageID string    `json:"provider_message_id,omitempty"`
	CreatedAt         time.Time `json:"timestamp"`
}

func (a *DeliveryAttempt) BeforeCreate(tx *gorm.DB) (err error) {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	return
}

// DeliveryRecord is the audit trail of one notification. It is created at the
// first dispatch and updated in place by every later repetition.
type DeliveryRecord struct {
	ID           string            `gorm:"primaryKey" json:"id"`
	EventName    string            `gorm:"index" json:"event_name"`
	TemplateType string            `gorm:"index" json:"template_type"`
	Recipient    string            `json:"recipient"`
	Subject      string            `json:"subject"`
	Body         string            `json:"-"`
	Attempts     []DeliveryAttempt `gorm:"foreignKey:RecordID;constraint:OnDelete:CASCADE" json:"attempts"`
	AttemptCount int               `gorm:"index" json:"attempt_count"`
	Outcome      DeliveryOutcome   `gorm:"index;default:pending" json:"outcome"`

	// Version is bumped on every successful write and guards concurrent writers.
	Version        int        `json:"version"`
	ClaimedBy      string     `json:"-"`
	ClaimExpiresAt *time.Time `json:"-"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (r *DeliveryRecord) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.Outcome == "" {
		r.Outcome = DeliveryPending
	}
	return
}

// LastAttempt returns the most recent attempt, or nil if none was made yet.
func (r *DeliveryRecord) LastAttempt() *DeliveryAttempt {
	if len(r.Attempts) == 0 {
		return nil
	}
	return &r.Attempts[len(r.Attempts)-1]
}

// ClaimedAt reports whether a claim other than owner is still live at now.
func (r *DeliveryRecord) ClaimedAt(now time.Time, owner string) bool {
	if r.ClaimedBy == "" || r.ClaimedBy == owner || r.ClaimExpiresAt == nil {
		return false
	}
	return r.ClaimExpiresAt.After(now)
}
