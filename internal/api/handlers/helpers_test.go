package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Top-g99/luxe-staycations-sub000/internal/config"
	"github.com/Top-g99/luxe-staycations-sub000/internal/database"
	"github.com/Top-g99/luxe-staycations-sub000/internal/providers"
	"github.com/Top-g99/luxe-staycations-sub000/internal/services"
)

type testProvider struct {
	fail  atomic.Bool
	calls atomic.Int32
}

func (p *testProvider) Name() string { return "primary" }

func (p *testProvider) Send(_ context.Context, _ providers.Message) (string, error) {
	p.calls.Add(1)
	if p.fail.Load() {
		return "", errors.New("provider down")
	}
	return "msg-1", nil
}

type testAPI struct {
	router    *gin.Engine
	db        *gorm.DB
	provider  *testProvider
	templates *services.TemplateService
	triggers  *services.TriggerMap
	store     *services.DeliveryStore
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.Connect(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	templates := services.NewTemplateService(db, config.OrganizationConfig{Name: "Luxe Staycations"})
	_, err = templates.SeedDefaults(context.Background())
	require.NoError(t, err)
	triggers, err := services.NewTriggerMap(services.DefaultTriggerRules())
	require.NoError(t, err)

	provider := &testProvider{}
	store := services.NewDeliveryStore(db)
	deliveries := services.NewDeliveryService(triggers, templates, providers.NewChain(time.Second, provider), store, services.DeliveryOptions{MaxAttempts: 2})
	sweeper := services.NewRetrySweeper(store, deliveries, services.SweeperOptions{Retention: time.Hour})

	router := gin.New()
	router.GET("/api/v1/health", HealthHandler(db))
	api := router.Group("/api/v1")

	dh := NewDeliveryHandler(deliveries, store, sweeper)
	api.POST("/events/:name", dh.Trigger)
	api.GET("/deliveries", dh.List)
	api.GET("/deliveries/stats", dh.Stats)
	api.GET("/deliveries/retryable", dh.Retryable)
	api.POST("/deliveries/sweep", dh.Sweep)
	api.POST("/deliveries/purge", dh.Purge)
	api.GET("/deliveries/:id", dh.Get)

	th := NewNotificationTemplateHandler(templates)
	api.GET("/templates", th.List)
	api.POST("/templates", th.Create)
	api.POST("/templates/preview", th.Preview)
	api.GET("/templates/:id", th.Get)
	api.PUT("/templates/:id", th.Update)
	api.DELETE("/templates/:id", th.Delete)

	return &testAPI{router: router, db: db, provider: provider, templates: templates, triggers: triggers, store: store}
}

func (a *testAPI) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}
