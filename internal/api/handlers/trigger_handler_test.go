package handlers

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Top-g99/luxe-staycations-sub000/internal/models"
	"github.com/Top-g99/luxe-staycations-sub000/internal/services"
)

func triggerRouter(t *testing.T, file string) (*gin.Engine, *services.TriggerMap) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	triggers, err := services.NewTriggerMap(services.DefaultTriggerRules())
	require.NoError(t, err)
	h := NewTriggerHandler(triggers, file)
	r := gin.New()
	r.GET("/api/v1/triggers", h.List)
	r.POST("/api/v1/triggers/reload", h.Reload)
	return r, triggers
}

func TestTriggerHandler_List(t *testing.T) {
	r, _ := triggerRouter(t, "")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/triggers", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var rules []models.TriggerRule
	decode(t, w, &rules)
	assert.Len(t, rules, len(services.DefaultTriggerRules()))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/triggers/reload", nil))
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestTriggerHandler_Reload(t *testing.T) {
	file := filepath.Join(t.TempDir(), "triggers.yaml")
	require.NoError(t, os.WriteFile(file, []byte("triggers:\n  - event: booking_created\n    template: vip_confirmation\n    enabled: true\n"), 0o644))
	r, triggers := triggerRouter(t, file)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/triggers/reload", nil))
	require.Equal(t, http.StatusOK, w.Code)

	rule, err := triggers.Resolve("booking_created")
	require.NoError(t, err)
	assert.Equal(t, "vip_confirmation", rule.TemplateType)

	require.NoError(t, os.WriteFile(file, []byte("triggers: [oops"), 0o644))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/triggers/reload", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
