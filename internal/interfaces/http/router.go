// Package http wires the gin router for the evaluation API.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/crowdlens/crowdlens/internal/config"
	"github.com/crowdlens/crowdlens/internal/infrastructure/monitoring"
	"github.com/crowdlens/crowdlens/internal/interfaces/http/handlers"
	"github.com/crowdlens/crowdlens/pkg/logger"
)

// Router assembles the HTTP surface of the service.
type Router struct {
	engine        *gin.Engine
	config        *config.Config
	logger        logger.Logger
	auditHandler  *handlers.AuditHandler
	healthHandler *handlers.HealthHandler
	tracing       *monitoring.TracingManager
	server        *http.Server
}

// NewRouter creates the router. Tracing may be nil when disabled.
func NewRouter(
	cfg *config.Config,
	log logger.Logger,
	auditHandler *handlers.AuditHandler,
	healthHandler *handlers.HealthHandler,
	tracing *monitoring.TracingManager,
) *Router {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	return &Router{
		engine:        gin.New(),
		config:        cfg,
		logger:        log,
		auditHandler:  auditHandler,
		healthHandler: healthHandler,
		tracing:       tracing,
	}
}

// SetupRoutes registers middleware and routes.
func (r *Router) SetupRoutes() {
	r.engine.Use(handlers.RecoveryMiddleware(r.logger))
	r.engine.Use(handlers.RequestIDMiddleware())
	r.engine.Use(handlers.TracingMiddleware(r.tracing))
	r.engine.Use(handlers.LoggingMiddleware(r.logger))

	r.engine.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "X-Request-ID"},
		ExposeHeaders: []string{"X-Request-ID"},
		MaxAge:        12 * time.Hour,
	}))

	health := r.engine.Group("/health")
	{
		health.GET("", r.healthHandler.HealthCheck)
		health.GET("/live", r.healthHandler.LivenessCheck)
		health.GET("/ready", r.healthHandler.ReadinessCheck)
	}

	r.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if r.config.Server.PprofEnabled {
		pprof.Register(r.engine)
	}

	v1 := r.engine.Group("/api/v1")
	{
		audit := v1.Group("/audit")
		{
			audit.POST("/evaluate", r.auditHandler.EvaluateFollower)
			audit.POST("/batch", r.auditHandler.EvaluateBatch)
		}
	}

	r.engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "not_found",
			"message": "the requested resource was not found",
		})
	})
}

// Start runs the HTTP server until it is shut down.
func (r *Router) Start() error {
	r.SetupRoutes()

	addr := fmt.Sprintf("%s:%d", r.config.Server.Host, r.config.Server.Port)
	r.server = &http.Server{
		Addr:           addr,
		Handler:        r.engine,
		ReadTimeout:    r.config.Server.ReadTimeout,
		WriteTimeout:   r.config.Server.WriteTimeout,
		MaxHeaderBytes: 1 << 20,
	}

	r.logger.Info(context.Background(), "starting HTTP server", logger.String("address", addr))

	if err := r.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop gracefully shuts down the HTTP server.
func (r *Router) Stop(ctx context.Context) error {
	if r.server == nil {
		return nil
	}
	r.logger.Info(ctx, "stopping HTTP server")
	return r.server.Shutdown(ctx)
}
