package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/review-pipeline/internal/config"
	"github.com/review-pipeline/internal/service"
	"github.com/rs/zerolog"
)

// HealthCheck is one dependency probed by /health
type HealthCheck struct {
	Name string
	// Required checks turn the response unhealthy when they fail
	Required bool
	Check    func(ctx context.Context) error
}

// NewRouter creates and configures the Gin router
func NewRouter(services *service.Services, cfg *config.Config, log zerolog.Logger, checks ...HealthCheck) *gin.Engine {
	router := gin.New()

	// Middleware
	router.Use(recoveryMiddleware(log))
	router.Use(requestIDMiddleware())
	router.Use(loggingMiddleware(log))
	router.Use(metricsMiddleware())
	router.Use(corsMiddleware())

	auth := newAuthenticator(cfg.Auth)

	// Handlers
	commentHandler := NewCommentHandler(services, log)
	reviewHandler := NewReviewHandler(services, log)

	// Health check
	router.GET("/health", healthCheck(checks))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// View tracking never fails the reader, so it skips token checks
	router.POST("/v1/reviews/:id/views", reviewHandler.TrackView)

	// API v1
	v1 := router.Group("/v1")
	v1.Use(auth.viewerMiddleware())
	{
		reviews := v1.Group("/reviews")
		{
			reviews.GET("/:id", reviewHandler.GetReview)
			reviews.PUT("/:id", requireViewer(), reviewHandler.UpdateReview)
			reviews.POST("/:id/likes", reviewHandler.ToggleLike)
			reviews.GET("/:id/comments", commentHandler.ListComments)
			reviews.POST("/:id/comments", commentHandler.SubmitComment)
		}

		v1.POST("/comments/:id/reports", commentHandler.ReportComment)

		admin := v1.Group("/admin", requireAdmin())
		{
			admin.POST("/comments/:id/approve", commentHandler.ApproveComment)
			admin.POST("/comments/:id/reject", commentHandler.RejectComment)
			admin.PUT("/commenters/:id/ban", commentHandler.SetCommenterBanned)
		}
	}

	return router
}

// healthCheck reports the status of each dependency. Optional
// dependencies such as the cache degrade the service without failing it.
func healthCheck(checks []HealthCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := "healthy"
		code := http.StatusOK
		deps := gin.H{}
		for _, hc := range checks {
			if err := hc.Check(ctx); err != nil {
				deps[hc.Name] = err.Error()
				if hc.Required {
					status = "unhealthy"
					code = http.StatusServiceUnavailable
				} else if status == "healthy" {
					status = "degraded"
				}
				continue
			}
			deps[hc.Name] = "ok"
		}

		c.JSON(code, gin.H{
			"status":       status,
			"dependencies": deps,
			"timestamp":    time.Now().Format(time.RFC3339),
			"service":      "review-pipeline",
		})
	}
}
