package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Top-g99/luxe-staycations-sub000/internal/logger"
)

func requestIDRouter(t *testing.T, seen *string) *gin.Engine {
	t.Helper()
	logger.Init(true, &bytes.Buffer{})
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestID())
	router.GET("/test", func(c *gin.Context) {
		_, ok := c.Get("logger")
		require.True(t, ok, "expected request-scoped logger in context")
		*seen = c.GetString(RequestIDKey)
		c.String(http.StatusOK, "ok")
	})
	return router
}

func TestRequestIDGeneratesWhenAbsent(t *testing.T) {
	var seen string
	router := requestIDRouter(t, &seen)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, seen, 36)
	assert.Equal(t, seen, w.Header().Get(RequestIDHeader))
}

func TestRequestIDPropagatesUpstreamValue(t *testing.T) {
	var seen string
	router := requestIDRouter(t, &seen)

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set(RequestIDHeader, "booking-svc.42")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "booking-svc.42", seen)
	assert.Equal(t, "booking-svc.42", w.Header().Get(RequestIDHeader))
}

func TestRequestIDRejectsUnsafeUpstreamValue(t *testing.T) {
	var seen string
	router := requestIDRouter(t, &seen)

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set(RequestIDHeader, "bad id\twith spaces")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.NotEqual(t, "bad id\twith spaces", seen)
	assert.Len(t, seen, 36)
}
