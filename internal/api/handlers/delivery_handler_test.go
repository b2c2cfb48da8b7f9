package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Top-g99/luxe-staycations-sub000/internal/models"
)

func bookingEvent() map[string]interface{} {
	return map[string]interface{}{
		"recipient": "asha@example.com",
		"payload": map[string]interface{}{
			"guestName":    "Asha",
			"propertyName": "Villa Azure",
			"bookingId":    "LX-1001",
			"guests":       2,
		},
	}
}

func TestDeliveryHandler_TriggerSucceeds(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(t, http.MethodPost, "/api/v1/events/booking_created", bookingEvent())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var rec models.DeliveryRecord
	decode(t, w, &rec)
	assert.Equal(t, models.DeliverySucceeded, rec.Outcome)
	assert.Equal(t, "Your stay at Villa Azure is confirmed", rec.Subject)
	require.Len(t, rec.Attempts, 1)
	assert.Equal(t, "msg-1", rec.Attempts[0].ProviderMessageID)

	stored, err := api.store.Get(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.Contains(t, stored.Body, "Guests: 2")

	w = api.do(t, http.MethodGet, "/api/v1/deliveries/"+rec.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var got models.DeliveryRecord
	decode(t, w, &got)
	assert.Equal(t, rec.ID, got.ID)
	assert.Empty(t, got.Body)
}

func TestDeliveryHandler_TriggerErrors(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(t, http.MethodPost, "/api/v1/events/unknown_event", bookingEvent())
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "not_configured")

	w = api.do(t, http.MethodPost, "/api/v1/events/review_requested", bookingEvent())
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = api.do(t, http.MethodPost, "/api/v1/events/booking_created", map[string]interface{}{"payload": map[string]string{}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	require.NoError(t, api.triggers.Replace([]models.TriggerRule{{EventName: "ghost_event", TemplateType: "ghost", Enabled: true}}))
	w = api.do(t, http.MethodPost, "/api/v1/events/ghost_event", bookingEvent())
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "no_template")

	assert.Equal(t, int32(0), api.provider.calls.Load())
	var count int64
	require.NoError(t, api.db.Model(&models.DeliveryRecord{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestDeliveryHandler_TriggerExhausted(t *testing.T) {
	api := newTestAPI(t)
	api.provider.fail.Store(true)

	w := api.do(t, http.MethodPost, "/api/v1/events/booking_created", bookingEvent())
	require.Equal(t, http.StatusBadGateway, w.Code)

	var resp struct {
		Code     string                `json:"code"`
		Delivery models.DeliveryRecord `json:"delivery"`
	}
	decode(t, w, &resp)
	assert.Equal(t, "exhausted_retries", resp.Code)
	assert.Equal(t, models.DeliveryExhausted, resp.Delivery.Outcome)
	assert.Len(t, resp.Delivery.Attempts, 2)

	w = api.do(t, http.MethodGet, "/api/v1/deliveries?failed=true", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var failed []models.DeliveryRecord
	decode(t, w, &failed)
	assert.Len(t, failed, 1)

	w = api.do(t, http.MethodGet, "/api/v1/deliveries/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var stats struct {
		Total          int64                   `json:"total"`
		Failed         int64                   `json:"failed"`
		SuccessRate    float64                 `json:"success_rate"`
		RecentFailures []models.DeliveryRecord `json:"recent_failures"`
	}
	decode(t, w, &stats)
	assert.Equal(t, int64(1), stats.Total)
	assert.Equal(t, int64(1), stats.Failed)
	assert.Equal(t, 0.0, stats.SuccessRate)
	assert.Len(t, stats.RecentFailures, 1)
}

func TestDeliveryHandler_List(t *testing.T) {
	api := newTestAPI(t)
	api.do(t, http.MethodPost, "/api/v1/events/booking_created", bookingEvent())
	api.do(t, http.MethodPost, "/api/v1/events/admin_booking_alert", bookingEvent())

	w := api.do(t, http.MethodGet, "/api/v1/deliveries", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var all []models.DeliveryRecord
	decode(t, w, &all)
	assert.Len(t, all, 2)

	w = api.do(t, http.MethodGet, "/api/v1/deliveries?type=admin_new_booking&order=asc", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var byType []models.DeliveryRecord
	decode(t, w, &byType)
	require.Len(t, byType, 1)
	assert.Equal(t, "admin_booking_alert", byType[0].EventName)

	w = api.do(t, http.MethodGet, "/api/v1/deliveries?limit=abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(t, http.MethodGet, "/api/v1/deliveries/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeliveryHandler_SweepResumesPending(t *testing.T) {
	api := newTestAPI(t)
	rec := &models.DeliveryRecord{
		EventName:    "booking_created",
		TemplateType: "booking_confirmation",
		Recipient:    "asha@example.com",
		Subject:      "Subject",
		Body:         "Body",
		Attempts:     []models.DeliveryAttempt{{Provider: "primary", ErrorKind: "network"}},
	}
	require.NoError(t, api.store.Upsert(context.Background(), rec))

	w := api.do(t, http.MethodGet, "/api/v1/deliveries/retryable", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var pending []models.DeliveryRecord
	decode(t, w, &pending)
	assert.Len(t, pending, 1)

	w = api.do(t, http.MethodPost, "/api/v1/deliveries/sweep", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var report struct {
		Resumed   int `json:"resumed"`
		Succeeded int `json:"succeeded"`
	}
	decode(t, w, &report)
	assert.Equal(t, 1, report.Resumed)
	assert.Equal(t, 1, report.Succeeded)

	stored, err := api.store.Get(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DeliverySucceeded, stored.Outcome)
	assert.Len(t, stored.Attempts, 2)
}

func TestDeliveryHandler_Purge(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(t, http.MethodPost, "/api/v1/deliveries/purge?older_than=soon", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(t, http.MethodPost, "/api/v1/deliveries/purge?older_than=24h", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"purged":0}`, w.Body.String())

	w = api.do(t, http.MethodPost, "/api/v1/deliveries/purge", nil)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestStringifyPayload(t *testing.T) {
	out := stringifyPayload(map[string]interface{}{
		"s": "text",
		"n": 2.5,
		"i": float64(3),
		"b": true,
		"z": nil,
		"l": []interface{}{"a", "b"},
	})
	assert.Equal(t, map[string]string{"s": "text", "n": "2.5", "i": "3", "b": "true", "z": "", "l": "[a b]"}, out)
}
