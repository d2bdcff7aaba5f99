package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/portfolio-api/internal/auth"
	"github.com/portfolio-api/internal/config"
	"github.com/portfolio-api/internal/metrics"
	"github.com/portfolio-api/internal/ratelimit"
	"github.com/portfolio-api/internal/service"
	"github.com/portfolio-api/pkg/logger"
	"github.com/rs/zerolog"
)

// Deps holds the collaborators of the router besides services
type Deps struct {
	Auth    auth.Authenticator
	Limiter *ratelimit.Limiter              // nil disables rate limiting
	Metrics *metrics.Metrics                // nil disables /metrics
	Health  func(ctx context.Context) error // nil reports healthy
}

// NewRouter creates and configures the Gin router
func NewRouter(services *service.Services, cfg *config.Config, log zerolog.Logger, deps Deps) *gin.Engine {
	// Set Gin mode
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Middleware
	router.Use(recoveryMiddleware(log))
	router.Use(loggingMiddleware(log))
	router.Use(cors.New(cors.Config{
		AllowOrigins:  cfg.Server.AllowedOrigins,
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Accept", "Authorization", "Content-Type"},
		ExposeHeaders: []string{"Content-Length", headerTotalCount, headerPage, headerLimit},
		MaxAge:        12 * time.Hour,
	}))

	// Handlers
	commentHandler := NewCommentHandler(services, log)
	voteHandler := NewVoteHandler(services, log)
	exportHandler := NewExportHandler(services, log)

	requireUser := requireAuth(deps.Auth)
	limit := rateLimit(deps.Limiter, log)

	// Health check
	router.GET("/health", healthCheck(deps.Health))
	if deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	api := router.Group("/api")
	{
		comments := api.Group("/comments")
		{
			comments.GET("/:blogSlug", optionalAuth(deps.Auth), commentHandler.List)
			comments.POST("", requireUser, limit, commentHandler.Create)
			comments.PUT("/:id", requireUser, limit, commentHandler.Update)
			comments.DELETE("/:id", requireUser, limit, commentHandler.Delete)
			comments.POST("/:id/vote", requireUser, limit, voteHandler.Cast)
			comments.DELETE("/:id/vote", requireUser, limit, voteHandler.Remove)
		}

		admin := api.Group("/admin", requireUser, requireAdmin())
		{
			admin.GET("/comments/export", exportHandler.StreamExport)
		}
	}

	return router
}

// healthCheck returns the health status
func healthCheck(check func(ctx context.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		status, code := "healthy", http.StatusOK
		if check != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := check(ctx); err != nil {
				status, code = "unhealthy", http.StatusServiceUnavailable
			}
		}

		c.JSON(code, gin.H{
			"status":    status,
			"timestamp": time.Now().Format(time.RFC3339),
			"service":   logger.ServiceName,
		})
	}
}
