// Package server exposes the question-answering and ingestion pipelines over
// HTTP.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"

	"multimodal-rag/internal/rag/pipeline"
	"multimodal-rag/pkg/logger"
)

// API provides the HTTP handlers for the RAG service.
type API struct {
	chain      *pipeline.Chain
	ingestor   *pipeline.Ingestor
	docsFolder string
	logger     *logger.Logger

	mu        sync.Mutex
	ingesting bool
}

// NewAPI creates a new API handler.
func NewAPI(chain *pipeline.Chain, ingestor *pipeline.Ingestor, docsFolder string, log *logger.Logger) *API {
	return &API{
		chain:      chain,
		ingestor:   ingestor,
		docsFolder: docsFolder,
		logger:     log,
	}
}

// QueryHandler answers a question within a session.
func (a *API) QueryHandler(c *gin.Context) {
	var payload struct {
		SessionID string `json:"session_id"`
		Question  string `json:"question" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}
	if payload.SessionID == "" {
		payload.SessionID = "default"
	}

	answer, err := a.chain.Answer(c.Request.Context(), payload.SessionID, payload.Question)
	if err != nil {
		a.logger.Error(fmt.Sprintf("Query failed for session %s: %v", payload.SessionID, err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to answer the question"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"answer": answer})
}

// IngestHandler starts an asynchronous ingestion run over the configured
// docs folder. Only one run may be active at a time.
func (a *API) IngestHandler(c *gin.Context) {
	a.mu.Lock()
	if a.ingesting {
		a.mu.Unlock()
		c.JSON(http.StatusConflict, gin.H{"error": "An ingestion run is already in progress"})
		return
	}
	a.ingesting = true
	a.mu.Unlock()

	progress := make(chan pipeline.Progress)
	go func() {
		for p := range progress {
			if p.Err != nil {
				a.logger.Error(fmt.Sprintf("Ingestion %d/%d: %s failed: %v", p.Completed, p.Total, p.Path, p.Err))
				continue
			}
			a.logger.Info(fmt.Sprintf("Ingestion %d/%d: %s", p.Completed, p.Total, p.Path))
		}
	}()

	go func() {
		defer func() {
			a.mu.Lock()
			a.ingesting = false
			a.mu.Unlock()
		}()

		if err := a.ingestor.IngestAllWithProgress(context.Background(), a.docsFolder, progress); err != nil {
			a.logger.Error(fmt.Sprintf("Ingestion run failed: %v", err))
			return
		}
		a.logger.Info("Ingestion run completed")
	}()

	c.JSON(http.StatusAccepted, gin.H{"status": "ingestion started"})
}

// ClearHistoryHandler drops the conversational memory of one session.
func (a *API) ClearHistoryHandler(c *gin.Context) {
	a.chain.ClearHistory(c.Param("session_id"))
	c.JSON(http.StatusOK, gin.H{"status": "history cleared"})
}

// HealthHandler reports liveness.
func (a *API) HealthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
