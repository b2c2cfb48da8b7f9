package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NotificationTemplate is a versioned subject/body pattern for one notification type.
// Several templates may share a Type; the newest active one is authoritative.
type NotificationTemplate struct {
	ID          string `gorm:"primaryKey" json:"id"`
	Type        string `gorm:"index;not null" json:"type"`
	Name        string `json:"name"`
	Description string `json:"description"`
	// Subject and Body may reference {{variable}} placeholders.
	Subject string `json:"subject"`
	Body    string `json:"body"`
	// Variables lists the placeholders the template recognizes. Anything else
	// in the patterns is left verbatim when rendering.
	Variables []string `gorm:"serializer:json" json:"variables"`
	Active    bool     `gorm:"index" json:"active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (t *NotificationTemplate) BeforeCreate(tx *gorm.DB) (err error) {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	return
}
