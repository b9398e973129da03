package api

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/opentracing/opentracing-go"

	"github.com/cuttlefish/cuttlefish/api/handlers"
	"github.com/cuttlefish/cuttlefish/api/middleware"
	"github.com/cuttlefish/cuttlefish/internal/repository"
	"github.com/cuttlefish/cuttlefish/internal/tracing"
	"github.com/cuttlefish/cuttlefish/services"
)

// RegisterRoutes sets up all API endpoints
func RegisterRoutes(ctx context.Context, r *gin.Engine, s *services.Services, repos *repository.Repositories, apikey string) {
	if s == nil {
		panic("Services cannot be nil")
	}
	if repos == nil {
		panic("Repositories cannot be nil")
	}

	// gin.Default() already installs gin's own recovery; this one reports
	// the panic to the tracer and turns it into a 500
	r.Use(tracing.RecoveryWithJaeger(opentracing.GlobalTracer()))

	// setup handlers
	apiHandlers := handlers.InitHandlers(s)

	// Health check endpoint (no custom context needed)
	r.GET("/health", handlers.HealthCheck)

	// Tracking callbacks are hit from recipients' mail clients and
	// browsers, so they are unauthenticated. The HMAC in the URL is the
	// credential.
	t := r.Group("/t")
	t.Use(middleware.TracingMiddleware())
	{
		t.GET("/open/:delivery_id/:hash", apiHandlers.Tracking.Open())
		t.GET("/click/:delivery_id/:hash", apiHandlers.Tracking.Click())
	}

	apiKeyMiddleware := middleware.APIKeyMiddleware(middleware.APIKeyConfig{
		HeaderName:  "X-CUTTLEFISH-API-KEY",
		ValidAPIKey: apikey,
	})

	// API group with version and custom context
	api := r.Group("/v1")
	api.Use(apiKeyMiddleware)
	api.Use(middleware.CustomContextMiddleware("cuttlefish"))
	api.Use(middleware.TracingMiddleware())
	{
		// App endpoints
		apps := api.Group("/apps")
		{
			apps.POST("", apiHandlers.Apps.Create())
			apps.GET("/:id", apiHandlers.Apps.Get())
			apps.PATCH("/:id", apiHandlers.Apps.Update())
		}

		// Delivery endpoints
		deliveries := api.Group("/deliveries")
		{
			deliveries.POST("", apiHandlers.Deliveries.Send())
			deliveries.GET("/:id", apiHandlers.Deliveries.Get())
		}

		// SMTP credential check for the relay frontend
		api.POST("/credentials/verify", apiHandlers.Apps.VerifyCredentials())
	}
}
