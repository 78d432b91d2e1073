package api

import (
	"github.com/gin-gonic/gin"

	"heic2jpg/batch"
	"heic2jpg/config"
)

func SetupRouter(bm *batch.Manager, cfg *config.Config) *gin.Engine {
	r := gin.Default()
	h := NewHandler(bm, cfg)

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	v1 := r.Group("/api/v1")
	v1.Use(AuthMiddleware(cfg))
	{
		v1.POST("/batches", h.handleCreateBatch)
		v1.GET("/batches", h.handleListBatches)
		v1.GET("/batches/:batchId", h.handleGetBatch)
		v1.PATCH("/batches/:batchId/cancel", h.handleCancelBatch)
	}
	return r
}
