package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Top-g99/luxe-staycations-sub000/internal/models"
	"github.com/Top-g99/luxe-staycations-sub000/internal/services"
)

func TestNotificationTemplateHandler_CRUDAndPreview(t *testing.T) {
	api := newTestAPI(t)

	// Create
	w := api.do(t, http.MethodPost, "/api/v1/templates", map[string]interface{}{
		"type":      "review_request",
		"name":      "Review request",
		"subject":   "How was {{propertyName}}?",
		"body":      "Hi {{guestName}}, tell us about your stay.",
		"variables": []string{"propertyName", "guestName"},
		"active":    true,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created models.NotificationTemplate
	decode(t, w, &created)
	require.NotEmpty(t, created.ID)

	// List by type
	w = api.do(t, http.MethodGet, "/api/v1/templates?type=review_request", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list []models.NotificationTemplate
	decode(t, w, &list)
	require.Len(t, list, 1)

	// Update
	w = api.do(t, http.MethodPut, "/api/v1/templates/"+created.ID, map[string]interface{}{
		"type":      "review_request",
		"name":      "Review request v2",
		"subject":   "Rate {{propertyName}}",
		"body":      "Thanks {{guestName}}",
		"variables": []string{"propertyName", "guestName"},
		"active":    true,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var updated models.NotificationTemplate
	decode(t, w, &updated)
	assert.Equal(t, "Review request v2", updated.Name)
	assert.Equal(t, created.ID, updated.ID)

	// Preview by id
	w = api.do(t, http.MethodPost, "/api/v1/templates/preview", map[string]interface{}{
		"template_id": created.ID,
		"data":        map[string]string{"propertyName": "Villa Azure"},
	})
	require.Equal(t, http.StatusOK, w.Code)
	var preview services.Rendered
	decode(t, w, &preview)
	assert.Equal(t, "Rate Villa Azure", preview.Subject)
	assert.Equal(t, "Thanks ", preview.Body)
	assert.Equal(t, []string{"guestName"}, preview.Missing)

	// Preview inline
	w = api.do(t, http.MethodPost, "/api/v1/templates/preview", map[string]interface{}{
		"subject":   "{{organizationName}}",
		"body":      "{{x}} {{y}}",
		"variables": []string{"x"},
		"data":      map[string]string{"x": "1", "y": "2"},
	})
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &preview)
	assert.Equal(t, "Luxe Staycations", preview.Subject)
	assert.Equal(t, "1 {{y}}", preview.Body)

	// Delete
	w = api.do(t, http.MethodDelete, "/api/v1/templates/"+created.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = api.do(t, http.MethodGet, "/api/v1/templates/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestNotificationTemplateHandler_Errors(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(t, http.MethodPost, "/api/v1/templates", map[string]interface{}{"name": "no type", "subject": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(t, http.MethodPut, "/api/v1/templates/missing", map[string]interface{}{"type": "x", "subject": "y"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = api.do(t, http.MethodPost, "/api/v1/templates/preview", map[string]interface{}{"template_id": "missing"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
