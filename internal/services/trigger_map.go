package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/Top-g99/luxe-staycations-sub000/internal/logger"
	"github.com/Top-g99/luxe-staycations-sub000/internal/models"
)

// DefaultTriggerRules are the event mappings used when no triggers file overrides them.
func DefaultTriggerRules() []models.TriggerRule {
	return []models.TriggerRule{
		{EventName: "booking_created", TemplateType: "booking_confirmation", Enabled: true, Description: "Guest booking confirmation"},
		{EventName: "booking_cancelled", TemplateType: "booking_cancellation", Enabled: true, Description: "Guest cancellation notice"},
		{EventName: "payment_received", TemplateType: "payment_receipt", Enabled: true, Description: "Guest payment receipt"},
		{EventName: "checkin_upcoming", TemplateType: "checkin_reminder", Enabled: true, Description: "Reminder before check-in", Delay: 24 * time.Hour},
		{EventName: "admin_booking_alert", TemplateType: "admin_new_booking", Enabled: true, Description: "Operations alert for new bookings"},
		{EventName: "review_requested", TemplateType: "review_request", Enabled: false, Description: "Post-stay review request"},
	}
}

// TriggerMap resolves event names to trigger rules. It is safe for concurrent
// use and can be replaced at runtime.
type TriggerMap struct {
	mu    sync.RWMutex
	rules map[string]models.TriggerRule
	base  []models.TriggerRule
}

// NewTriggerMap builds a map from rules. The same rules are the base that a
// triggers file is merged over on reload.
func NewTriggerMap(rules []models.TriggerRule) (*TriggerMap, error) {
	m := &TriggerMap{base: append([]models.TriggerRule(nil), rules...)}
	if err := m.Replace(rules); err != nil {
		return nil, err
	}
	return m, nil
}

// Resolve returns the rule for eventName, enabled or not.
func (m *TriggerMap) Resolve(eventName string) (models.TriggerRule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rule, ok := m.rules[eventName]
	if !ok {
		return models.TriggerRule{}, &NotConfiguredError{EventName: eventName}
	}
	return rule, nil
}

// Replace atomically swaps the rule set. Invalid sets leave the map unchanged.
func (m *TriggerMap) Replace(rules []models.TriggerRule) error {
	next := make(map[string]models.TriggerRule, len(rules))
	for _, r := range rules {
		if err := validateRule(r); err != nil {
			return err
		}
		if _, dup := next[r.EventName]; dup {
			return fmt.Errorf("duplicate trigger rule for event %q", r.EventName)
		}
		next[r.EventName] = r
	}
	m.mu.Lock()
	m.rules = next
	m.mu.Unlock()
	return nil
}

// Rules returns a snapshot of all rules ordered by event name.
func (m *TriggerMap) Rules() []models.TriggerRule {
	m.mu.RLock()
	out := make([]models.TriggerRule, 0, len(m.rules))
	for _, r := range m.rules {
		out = append(out, r)
	}
	m.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].EventName < out[j].EventName })
	return out
}

// LoadFile merges the rules in path over the base rules and swaps them in.
func (m *TriggerMap) LoadFile(path string) error {
	rules, err := LoadTriggerRules(path)
	if err != nil {
		return err
	}
	return m.Replace(MergeTriggerRules(m.base, rules))
}

// Watch reloads path whenever it changes until ctx is cancelled. A file that
// fails to parse is logged and the previous rules stay active.
func (m *TriggerMap) Watch(ctx context.Context, path string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create trigger watcher: %w", err)
	}
	// Watch the directory so editors that replace the file are still seen.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return fmt.Errorf("watch %s: %w", path, err)
	}

	target := filepath.Clean(path)
	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != target || !ev.Has(fsnotify.Write|fsnotify.Create) {
					continue
				}
				if err := m.LoadFile(target); err != nil {
					logger.Log().WithError(err).WithField("path", target).Warn("Failed to reload trigger rules")
					continue
				}
				logger.Log().WithField("path", target).Info("Trigger rules reloaded")
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Log().WithError(err).Warn("Trigger watcher error")
			}
		}
	}()
	return nil
}

type triggerFile struct {
	Triggers []models.TriggerRule `yaml:"triggers"`
}

// LoadTriggerRules parses a YAML triggers file.
func LoadTriggerRules(path string) ([]models.TriggerRule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read triggers file: %w", err)
	}
	var f triggerFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse triggers file %s: %w", path, err)
	}
	seen := make(map[string]struct{}, len(f.Triggers))
	for _, r := range f.Triggers {
		if err := validateRule(r); err != nil {
			return nil, fmt.Errorf("triggers file %s: %w", path, err)
		}
		if _, dup := seen[r.EventName]; dup {
			return nil, fmt.Errorf("triggers file %s: duplicate trigger rule for event %q", path, r.EventName)
		}
		seen[r.EventName] = struct{}{}
	}
	return f.Triggers, nil
}

// MergeTriggerRules returns base with every rule in overrides replacing or
// extending the rule of the same event.
func MergeTriggerRules(base, overrides []models.TriggerRule) []models.TriggerRule {
	merged := make([]models.TriggerRule, 0, len(base)+len(overrides))
	index := make(map[string]int, len(base))
	for _, r := range base {
		index[r.EventName] = len(merged)
		merged = append(merged, r)
	}
	for _, r := range overrides {
		if i, ok := index[r.EventName]; ok {
			merged[i] = r
			continue
		}
		index[r.EventName] = len(merged)
		merged = append(merged, r)
	}
	return merged
}

func validateRule(r models.TriggerRule) error {
	if strings.TrimSpace(r.EventName) == "" {
		return fmt.Errorf("trigger rule event name is required")
	}
	if strings.TrimSpace(r.TemplateType) == "" {
		return fmt.Errorf("trigger rule %q: template type is required", r.EventName)
	}
	if r.Delay < 0 {
		return fmt.Errorf("trigger rule %q: delay must not be negative", r.EventName)
	}
	return nil
}
