package server

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers all the routes for the RAG service.
func RegisterRoutes(router *gin.Engine, api *API) {
	router.GET("/healthz", api.HealthHandler)

	v1 := router.Group("/api/v1")
	rag := v1.Group("/rag")
	{
		rag.POST("/query", api.QueryHandler)
		rag.POST("/ingest", api.IngestHandler)
		rag.DELETE("/history/:session_id", api.ClearHistoryHandler)
	}
}
