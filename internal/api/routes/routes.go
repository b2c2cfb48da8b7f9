package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/Top-g99/luxe-staycations-sub000/internal/api/handlers"
	"github.com/Top-g99/luxe-staycations-sub000/internal/services"
)

// Dependencies are the long-lived components the API is served from. They are
// built once at startup and shared by every request.
type Dependencies struct {
	DB           *gorm.DB
	Deliveries   *services.DeliveryService
	Store        *services.DeliveryStore
	Sweeper      *services.RetrySweeper
	Templates    *services.TemplateService
	Triggers     *services.TriggerMap
	TriggersFile string
	// Registry is served on /metrics when set.
	Registry *prometheus.Registry
}

// Register wires up API routes.
func Register(router *gin.Engine, deps Dependencies) {
	router.GET("/api/v1/health", handlers.HealthHandler(deps.DB))
	if deps.Registry != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{})))
	}

	api := router.Group("/api/v1")

	deliveryHandler := handlers.NewDeliveryHandler(deps.Deliveries, deps.Store, deps.Sweeper)
	api.POST("/events/:name", deliveryHandler.Trigger)
	api.GET("/deliveries", deliveryHandler.List)
	api.GET("/deliveries/stats", deliveryHandler.Stats)
	api.GET("/deliveries/retryable", deliveryHandler.Retryable)
	api.POST("/deliveries/sweep", deliveryHandler.Sweep)
	api.POST("/deliveries/purge", deliveryHandler.Purge)
	api.GET("/deliveries/:id", deliveryHandler.Get)

	templateHandler := handlers.NewNotificationTemplateHandler(deps.Templates)
	api.GET("/templates", templateHandler.List)
	api.POST("/templates", templateHandler.Create)
	api.POST("/templates/preview", templateHandler.Preview)
	api.GET("/templates/:id", templateHandler.Get)
	api.PUT("/templates/:id", templateHandler.Update)
	api.DELETE("/templates/:id", templateHandler.Delete)

	triggerHandler := handlers.NewTriggerHandler(deps.Triggers, deps.TriggersFile)
	api.GET("/triggers", triggerHandler.List)
	api.POST("/triggers/reload", triggerHandler.Reload)
}
