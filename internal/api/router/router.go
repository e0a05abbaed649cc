package router

import (
	"net/http"

	"github.com/cuongbtq/pdf-retriever/internal/api/handler"
	"github.com/cuongbtq/pdf-retriever/internal/metrics"
	"github.com/gin-gonic/gin"
)

// SetupRouter configures and returns the Gin router with all routes
func SetupRouter(deps *handler.Dependencies) *gin.Engine {
	r := gin.New()

	// Middleware
	r.Use(gin.Recovery())
	r.Use(LoggerMiddleware(deps.Logger))
	r.Use(CORSMiddleware())

	// Health check endpoint
	r.GET("/health", healthHandler(deps))

	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	downloadHandler := handler.NewDownloadHandler(deps)

	// POST /download - enqueue one retrieval job per URL
	r.POST("/download", downloadHandler.Download)

	// GET /status - request counters and retrieval aggregate
	r.GET("/status", downloadHandler.Status)

	// GET /records - retrieval log with cursor pagination
	r.GET("/records", downloadHandler.ListRecords)

	return r
}

func healthHandler(deps *handler.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		failed := gin.H{}
		for name, checker := range deps.Health {
			if err := checker.HealthCheck(c.Request.Context()); err != nil {
				failed[name] = err.Error()
			}
		}

		if len(failed) > 0 {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "unhealthy",
				"service": deps.Service,
				"checks":  failed,
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": deps.Service,
		})
	}
}
