// Package v1 wires the versioned HTTP API.
package v1

import (
	"github.com/gin-gonic/gin"

	"github.com/uppalcrm1/uppalcrm-app-sub000/internal/domain/customfield"
	"github.com/uppalcrm1/uppalcrm-app-sub000/internal/infrastructure/http/v1/handlers"
	"github.com/uppalcrm1/uppalcrm-app-sub000/internal/infrastructure/http/v1/middleware"
	"github.com/uppalcrm1/uppalcrm-app-sub000/internal/infrastructure/storage/postgres"
	"github.com/uppalcrm1/uppalcrm-app-sub000/pkg/logger"
)

// RouterConfig carries everything the router needs to assemble routes.
type RouterConfig struct {
	Logger         *logger.Logger
	Pool           *postgres.Pool
	TokenValidator middleware.TokenValidator
	CustomFields   *customfield.Service
}

// NewRouter builds the gin engine with the full middleware chain and all
// v1 routes. Health probes sit outside the authenticated API group.
func NewRouter(cfg RouterConfig) *gin.Engine {
	engine := gin.New()

	engine.Use(middleware.Recovery())
	engine.Use(middleware.Trace())
	engine.Use(middleware.Logger(cfg.Logger))
	engine.Use(middleware.ErrorHandler())

	health := handlers.NewHealthHandler(cfg.Pool)
	engine.GET("/health/live", health.Live)
	engine.GET("/health/ready", health.Ready)

	api := engine.Group("/api/v1")
	api.Use(middleware.Auth(cfg.TokenValidator))

	base := handlers.NewBaseHandler()
	cf := handlers.NewCustomFieldHandler(base, cfg.CustomFields)

	fields := api.Group("/custom-fields/:entityType")
	{
		fields.GET("", cf.ListDefinitions)
		fields.POST("", cf.CreateDefinition)
		fields.GET("/fields/:fieldId", cf.GetDefinition)
		fields.PUT("/fields/:fieldId", cf.UpdateDefinition)
		fields.DELETE("/fields/:fieldId", cf.DeleteDefinition)

		fields.GET("/records/:entityId/values", cf.GetValues)
		fields.POST("/records/:entityId/values", cf.SetMultipleValues)
		fields.PUT("/records/:entityId/values/:fieldId", cf.SetValue)
		fields.DELETE("/records/:entityId/values", cf.DeleteEntityValues)

		fields.POST("/list-view", cf.ListViewProjection)
	}

	api.DELETE("/custom-field-values/:valueId", cf.DeleteValue)

	return engine
}
