package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"heic2jpg/batch"
	"heic2jpg/config"
)

type Handler struct {
	batches *batch.Manager
	cfg     *config.Config
}

func NewHandler(bm *batch.Manager, cfg *config.Config) *Handler {
	return &Handler{
		batches: bm,
		cfg:     cfg,
	}
}

// BatchRequest describes a conversion run. Quality and Jobs fall back to
// the server configuration when omitted.
type BatchRequest struct {
	Input   string `json:"input" binding:"required"`
	Output  string `json:"output" binding:"required"`
	Quality *int   `json:"quality"`
	Jobs    *int   `json:"jobs"`
}

// handleCreateBatch validates the roots and queues a batch.
func (h *Handler) handleCreateBatch(c *gin.Context) {
	var req BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	input, output, err := config.ResolveRoots(req.Input, req.Output)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	opts := batch.Options{
		InputRoot:  input,
		OutputRoot: output,
		Quality:    h.cfg.Quality,
		Jobs:       h.cfg.Jobs,
	}
	if req.Quality != nil {
		opts.Quality = *req.Quality
	}
	if req.Jobs != nil {
		if *req.Jobs < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "jobs must be at least 1"})
			return
		}
		opts.Jobs = *req.Jobs
	}

	b, err := h.batches.Submit(opts)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Failed to queue batch", "details": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"batchId": b.ID()})
}

// handleListBatches lists all batches.
func (h *Handler) handleListBatches(c *gin.Context) {
	list := h.batches.List()
	if list == nil {
		list = []batch.Snapshot{}
	}
	c.JSON(http.StatusOK, list)
}

// handleGetBatch retrieves the state of a single batch.
func (h *Handler) handleGetBatch(c *gin.Context) {
	b, found := h.batches.Get(c.Param("batchId"))
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "Batch not found"})
		return
	}
	c.JSON(http.StatusOK, b.Snapshot())
}

// handleCancelBatch cancels a queued or running batch.
func (h *Handler) handleCancelBatch(c *gin.Context) {
	if err := h.batches.Cancel(c.Param("batchId")); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Batch cancellation requested"})
}
