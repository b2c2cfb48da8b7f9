package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Top-g99/luxe-staycations-sub000/internal/api/middleware"
	"github.com/Top-g99/luxe-staycations-sub000/internal/services"
	"github.com/Top-g99/luxe-staycations-sub000/internal/util"
)

type DeliveryHandler struct {
	deliveries *services.DeliveryService
	store      *services.DeliveryStore
	sweeper    *services.RetrySweeper
}

func NewDeliveryHandler(deliveries *services.DeliveryService, store *services.DeliveryStore, sweeper *services.RetrySweeper) *DeliveryHandler {
	return &DeliveryHandler{deliveries: deliveries, store: store, sweeper: sweeper}
}

type triggerEventRequest struct {
	Recipient string                 `json:"recipient" binding:"required"`
	Payload   map[string]interface{} `json:"payload"`
}

// Trigger delivers the notification mapped to the event in the path.
func (h *DeliveryHandler) Trigger(c *gin.Context) {
	event := c.Param("name")
	var req triggerEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rec, err := h.deliveries.TriggerEvent(c.Request.Context(), event, req.Recipient, stringifyPayload(req.Payload))
	if err == nil {
		c.JSON(http.StatusCreated, rec)
		return
	}

	middleware.GetRequestLogger(c).WithError(err).
		WithField("event", util.SanitizeForLog(event)).
		Warn("event delivery did not succeed")

	switch {
	case errors.Is(err, services.ErrNotConfigured):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error(), "code": "not_configured"})
	case errors.Is(err, services.ErrNoTemplate):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error(), "code": "no_template"})
	case errors.Is(err, services.ErrMissingRecipient):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrExhaustedRetries):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "code": "exhausted_retries", "delivery": rec})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to deliver notification"})
	}
}

// List supports ?type=, ?failed=true, ?limit= and ?order=asc|desc (default desc).
func (h *DeliveryHandler) List(c *gin.Context) {
	filter := services.DeliveryFilter{
		TemplateType: c.Query("type"),
		OnlyFailed:   c.Query("failed") == "true",
		NewestFirst:  c.DefaultQuery("order", "desc") != "asc",
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		filter.Limit = limit
	}

	records, err := h.store.Query(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list deliveries"})
		return
	}
	c.JSON(http.StatusOK, records)
}

func (h *DeliveryHandler) Get(c *gin.Context) {
	rec, err := h.store.Get(c.Request.Context(), c.Param("id"))
	if errors.Is(err, services.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "delivery not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load delivery"})
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *DeliveryHandler) Stats(c *gin.Context) {
	stats, err := h.store.Statistics(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute statistics"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// Retryable lists the records the next sweep would pick up.
func (h *DeliveryHandler) Retryable(c *gin.Context) {
	records, err := h.sweeper.Pending(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list retryable deliveries"})
		return
	}
	c.JSON(http.StatusOK, records)
}

// Sweep runs the retry sweep immediately.
func (h *DeliveryHandler) Sweep(c *gin.Context) {
	report, err := h.sweeper.Sweep(c.Request.Context())
	if errors.Is(err, services.ErrSweepInProgress) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "retry sweep failed"})
		return
	}
	c.JSON(http.StatusOK, report)
}

// Purge removes old terminal records. ?older_than= overrides the configured
// retention window.
func (h *DeliveryHandler) Purge(c *gin.Context) {
	var (
		purged int64
		err    error
	)
	if raw := c.Query("older_than"); raw != "" {
		age, perr := time.ParseDuration(raw)
		if perr != nil || age <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid older_than duration"})
			return
		}
		purged, err = h.store.PurgeOlderThan(c.Request.Context(), age)
	} else {
		purged, err = h.sweeper.Purge(c.Request.Context())
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to purge deliveries"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"purged": purged})
}

// stringifyPayload flattens JSON values into template variables.
func stringifyPayload(in map[string]interface{}) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		switch val := v.(type) {
		case nil:
			out[k] = ""
		case string:
			out[k] = val
		case float64:
			out[k] = strconv.FormatFloat(val, 'f', -1, 64)
		case bool:
			out[k] = strconv.FormatBool(val)
		default:
			out[k] = strings.TrimSpace(fmt.Sprint(val))
		}
	}
	return out
}
