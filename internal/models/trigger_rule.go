package models

import "time"

// TriggerRule maps a business event to the template type it notifies with.
// Rules are loaded from configuration, not stored in the database.
type TriggerRule struct {
	EventName    string `yaml:"event" json:"event_name"`
	TemplateType string `yaml:"template" json:"template_type"`
	Enabled      bool   `yaml:"enabled" json:"enabled"`
	Description  string `yaml:"description" json:"description,omitempty"`
	// Delay is advisory only; the engine never sleeps on it.
	Delay time.Duration `yaml:"delay" json:"delay"`
}
