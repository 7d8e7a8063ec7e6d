package routes

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"waste-bin-monitor/internal/config"
	"waste-bin-monitor/internal/ingestion"
	"waste-bin-monitor/internal/logger"
	"waste-bin-monitor/internal/middleware"
	"waste-bin-monitor/pkg/utils"
)

type HealthChecker interface {
	Health() error
}

type IngestionStats interface {
	GetMetrics() ingestion.IngestMetrics
}

type SessionCounter interface {
	SessionCount() int
}

type RouteRegistrar interface {
	RegisterRoutes(router gin.IRouter)
}

type Sweeper interface {
	Run(ctx context.Context) (int, error)
}

// Deps are the collaborators the HTTP surface reads from. Sweeper may be nil
// when the offline sweep is disabled.
type Deps struct {
	DB        HealthChecker
	Ingestion IngestionStats
	Sessions  SessionCounter
	Realtime  RouteRegistrar
	Sweeper   Sweeper
}

func SetupRoutes(cfg *config.Config, deps Deps) *gin.Engine {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware())
	router.Use(middleware.CORSMiddleware(&cfg.CORS))
	router.Use(middleware.RequestSizeLimitMiddleware(middleware.DefaultMaxRequestSize))

	router.GET("/health", func(c *gin.Context) {
		body := gin.H{
			"ingestion":     deps.Ingestion.GetMetrics(),
			"live_sessions": deps.Sessions.SessionCount(),
		}

		if err := deps.DB.Health(); err != nil {
			body["status"] = "unhealthy"
			body["message"] = "Database connection failed"
			c.JSON(http.StatusServiceUnavailable, body)
			return
		}

		body["status"] = "healthy"
		body["message"] = "Service is running"
		c.JSON(http.StatusOK, body)
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	deps.Realtime.RegisterRoutes(router)

	v1 := router.Group("/api/v1")
	v1.Use(middleware.RateLimitMiddleware(cfg.RateLimit.GeneralRPS, cfg.RateLimit.GeneralBurst))
	{
		admin := v1.Group("/admin")
		admin.Use(middleware.AuthMiddleware(cfg.JWT.Secret), middleware.AdminOnly())
		{
			admin.GET("/ingestion", func(c *gin.Context) {
				utils.SuccessResponse(c, http.StatusOK, "Ingestion statistics", gin.H{
					"ingestion":     deps.Ingestion.GetMetrics(),
					"live_sessions": deps.Sessions.SessionCount(),
				})
			})

			admin.POST("/offline-sweep", func(c *gin.Context) {
				if deps.Sweeper == nil {
					utils.ErrorResponse(c, http.StatusConflict, "Offline sweep is disabled")
					return
				}
				queued, err := deps.Sweeper.Run(c.Request.Context())
				if err != nil {
					_ = c.Error(err)
					utils.ErrorResponse(c, http.StatusInternalServerError, "Offline sweep failed")
					return
				}
				utils.SuccessResponse(c, http.StatusAccepted, "Offline sweep queued", gin.H{"devices": queued})
			})
		}
	}

	logger.Info("All routes initialized")
	return router
}
