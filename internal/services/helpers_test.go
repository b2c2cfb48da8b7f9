package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Top-g99/luxe-staycations-sub000/internal/config"
	"github.com/Top-g99/luxe-staycations-sub000/internal/database"
	"github.com/Top-g99/luxe-staycations-sub000/internal/models"
	"github.com/Top-g99/luxe-staycations-sub000/internal/providers"
)

var errProviderDown = errors.New("provider down")

func setupDeliveryTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Connect(filepath.Join(t.TempDir(), "notifier.db"))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

// stubProvider returns results in order and repeats the last one afterwards.
// A nil result is a success.
type stubProvider struct {
	name    string
	mu      sync.Mutex
	results []error
	calls   int
	sent    []providers.Message
}

func newStubProvider(name string, results ...error) *stubProvider {
	return &stubProvider{name: name, results: results}
}

func (p *stubProvider) Name() string { return p.name }

func (p *stubProvider) Send(_ context.Context, msg providers.Message) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	i := p.calls
	p.calls++
	p.sent = append(p.sent, msg)
	var err error
	if i < len(p.results) {
		err = p.results[i]
	} else if len(p.results) > 0 {
		err = p.results[len(p.results)-1]
	}
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%d", p.name, i+1), nil
}

func (p *stubProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

type deliveryFixture struct {
	db        *gorm.DB
	store     *DeliveryStore
	templates *TemplateService
	triggers  *TriggerMap
	svc       *DeliveryService
	sleeps    []time.Duration
}

func newDeliveryFixture(t *testing.T, chain Dispatcher, maxAttempts int) *deliveryFixture {
	t.Helper()
	db := setupDeliveryTestDB(t)
	triggers, err := NewTriggerMap(DefaultTriggerRules())
	require.NoError(t, err)

	f := &deliveryFixture{
		db:        db,
		store:     NewDeliveryStore(db),
		templates: NewTemplateService(db, config.OrganizationConfig{Name: "Luxe Staycations"}),
		triggers:  triggers,
	}
	require.NoError(t, f.templates.Create(context.Background(), &models.NotificationTemplate{
		Type:      "booking_confirmation",
		Name:      "Booking confirmation",
		Subject:   "Booking {{bookingId}} confirmed",
		Body:      "Hi {{guestName}}, welcome to {{organizationName}}.",
		Variables: []string{"bookingId", "guestName", "organizationName"},
		Active:    true,
	}))

	f.svc = NewDeliveryService(triggers, f.templates, chain, f.store, DeliveryOptions{
		MaxAttempts:  maxAttempts,
		BackoffDelay: time.Second,
	})
	var mu sync.Mutex
	f.svc.sleep = func(_ context.Context, d time.Duration) {
		mu.Lock()
		f.sleeps = append(f.sleeps, d)
		mu.Unlock()
	}
	return f
}

func (f *deliveryFixture) countRecords(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&models.DeliveryRecord{}).Count(&n).Error)
	return n
}

func bookingPayload() map[string]string {
	return map[string]string{"bookingId": "LX-1001", "guestName": "Asha"}
}
