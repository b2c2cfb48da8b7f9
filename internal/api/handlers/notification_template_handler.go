package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/Top-g99/luxe-staycations-sub000/internal/models"
	"github.com/Top-g99/luxe-staycations-sub000/internal/services"
)

type NotificationTemplateHandler struct {
	service *services.TemplateService
}

func NewNotificationTemplateHandler(s *services.TemplateService) *NotificationTemplateHandler {
	return &NotificationTemplateHandler{service: s}
}

func (h *NotificationTemplateHandler) List(c *gin.Context) {
	list, err := h.service.List(c.Request.Context(), c.Query("type"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list templates"})
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *NotificationTemplateHandler) Get(c *gin.Context) {
	t, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		templateError(c, err, "failed to load template")
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h *NotificationTemplateHandler) Create(c *gin.Context) {
	var t models.NotificationTemplate
	if err := c.ShouldBindJSON(&t); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	t.ID = ""
	if err := h.service.Create(c.Request.Context(), &t); err != nil {
		templateError(c, err, "failed to create template")
		return
	}
	c.JSON(http.StatusCreated, t)
}

func (h *NotificationTemplateHandler) Update(c *gin.Context) {
	id := c.Param("id")
	var t models.NotificationTemplate
	if err := c.ShouldBindJSON(&t); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	t.ID = id
	if err := h.service.Update(c.Request.Context(), &t); err != nil {
		templateError(c, err, "failed to update template")
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h *NotificationTemplateHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete template"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

type previewRequest struct {
	TemplateID string            `json:"template_id"`
	Subject    string            `json:"subject"`
	Body       string            `json:"body"`
	Variables  []string          `json:"variables"`
	Data       map[string]string `json:"data"`
}

// Preview renders a stored template (template_id) or an inline one.
func (h *NotificationTemplateHandler) Preview(c *gin.Context) {
	var req previewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tmpl := &models.NotificationTemplate{Subject: req.Subject, Body: req.Body, Variables: req.Variables}
	if req.TemplateID != "" {
		stored, err := h.service.Get(c.Request.Context(), req.TemplateID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "template not found"})
			return
		}
		tmpl = stored
	}

	c.JSON(http.StatusOK, h.service.Preview(tmpl, req.Data))
}

func templateError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, services.ErrInvalidTemplate):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "template not found"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}
