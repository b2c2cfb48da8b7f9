package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Top-g99/luxe-staycations-sub000/internal/services"
)

// TriggerHandler exposes the event to template mapping.
type TriggerHandler struct {
	triggers *services.TriggerMap
	file     string
}

// NewTriggerHandler builds the handler. file may be empty when rules only
// come from the built-in defaults.
func NewTriggerHandler(triggers *services.TriggerMap, file string) *TriggerHandler {
	return &TriggerHandler{triggers: triggers, file: file}
}

func (h *TriggerHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, h.triggers.Rules())
}

// Reload re-reads the triggers file without waiting for the file watcher.
func (h *TriggerHandler) Reload(c *gin.Context) {
	if h.file == "" {
		c.JSON(http.StatusConflict, gin.H{"error": "no triggers file configured"})
		return
	}
	if err := h.triggers.LoadFile(h.file); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.triggers.Rules())
}
