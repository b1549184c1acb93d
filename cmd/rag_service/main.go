package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"multimodal-rag/internal/config"
	"multimodal-rag/internal/embedding"
	"multimodal-rag/internal/llm"
	"multimodal-rag/internal/rag/extraction"
	"multimodal-rag/internal/rag/interfaces"
	"multimodal-rag/internal/rag/partition"
	"multimodal-rag/internal/rag/pipeline"
	"multimodal-rag/internal/rag/retriever"
	"multimodal-rag/internal/rag/schema"
	"multimodal-rag/internal/rag/storages/docstore"
	"multimodal-rag/internal/rag/storages/vectorstore"
	"multimodal-rag/internal/rag/summarize"
	"multimodal-rag/internal/server"
	"multimodal-rag/pkg/circuitbreaker"
	"multimodal-rag/pkg/logger"
	"multimodal-rag/pkg/ratelimiter"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to the configuration file")
	flag.Parse()

	// 1. Load Configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 2. Initialize Logger
	logger.Init(logger.ParseLevel(cfg.Log.Level))
	appLogger := logger.New(cfg.Name, "main")
	appLogger.Info("Starting RAG service...")

	ctx := context.Background()

	// 3. Initialize Dependencies
	textGen, err := llm.NewGemini(ctx, cfg.Gemini.APIKey, cfg.Gemini.TextModel)
	if err != nil {
		log.Fatalf("Failed to create Gemini text client: %v", err)
	}
	defer textGen.Close()

	visionGen, err := llm.NewGemini(ctx, cfg.Gemini.APIKey, cfg.Gemini.VisionModel)
	if err != nil {
		log.Fatalf("Failed to create Gemini vision client: %v", err)
	}
	defer visionGen.Close()

	embedder, err := embedding.NewGoogleModel(ctx, cfg.Gemini.APIKey, cfg.Gemini.EmbeddingModel)
	if err != nil {
		log.Fatalf("Failed to create Gemini embedding client: %v", err)
	}
	defer embedder.Close()

	milvusStore, err := vectorstore.NewMilvusStore(ctx, cfg.Milvus.Address, cfg.Milvus.Collection, cfg.Gemini.EmbeddingDim)
	if err != nil {
		log.Fatalf("Failed to connect to Milvus: %v", err)
	}
	defer milvusStore.Close()

	mongoClient, err := connectMongo(ctx, cfg.Mongo.URI)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer mongoClient.Disconnect(ctx)

	docStore := docstore.NewMongoDocStore(mongoClient.Database(cfg.Mongo.Database), cfg.Mongo.Collection)

	// 4. Assemble the Pipeline
	var chunker interfaces.Chunker
	if cfg.Ingest.ChunkingEnable {
		chunker, err = extraction.NewTokenChunker(cfg.Ingest.ChunkSize, cfg.Ingest.ChunkOverlap)
		if err != nil {
			log.Fatalf("Failed to create chunker: %v", err)
		}
	}

	summarizer := summarize.NewSummarizer(textGen, visionGen,
		summarize.WithBatchSize(cfg.Ingest.BatchSize),
		summarize.WithRateLimiter(ratelimiter.NewTokenBucket(cfg.Gemini.RequestsPerMin/60, int(cfg.Gemini.RequestsPerMin))),
		summarize.WithCircuitBreaker(circuitbreaker.New(5, 2, 30*time.Second)),
	)

	mv := retriever.New(milvusStore, docStore, embedder, retriever.SearchConfig{
		Policy:         retriever.SearchPolicy(cfg.Retriever.SearchType),
		TopK:           cfg.Retriever.TopK,
		ScoreThreshold: cfg.Retriever.ScoreThreshold,
		FetchK:         cfg.Retriever.FetchK,
		LambdaMult:     cfg.Retriever.LambdaMult,
	})

	exportPath := ""
	if cfg.Ingest.ExportExtracted {
		exportPath = cfg.Path.ExportExtracted
	}
	ingestor := pipeline.NewIngestor(
		partition.NewPDFPartitioner(partition.Options{
			InferTableStructure: cfg.Ingest.InferTableStructure,
			ExtractTableAsImage: cfg.Ingest.ExtractTableAsImage,
		}),
		chunker,
		summarizer,
		mv,
		milvusStore,
		docStore,
		cfg.Ingest,
		exportPath,
	)

	var placeholder *schema.ImagePlaceholder
	if cfg.Retriever.ImagePlaceholderBase64 != "" {
		placeholder = &schema.ImagePlaceholder{
			Base64:   cfg.Retriever.ImagePlaceholderBase64,
			MimeType: cfg.Retriever.ImagePlaceholderMimeType,
		}
	}
	chain := pipeline.NewChain(mv, textGen, visionGen, placeholder)

	// 5. Start Gin HTTP Server
	gin.SetMode(gin.ReleaseMode)
	router := gin.Default()
	api := server.NewAPI(chain, ingestor, cfg.Path.Docs, appLogger)
	server.RegisterRoutes(router, api)

	srv := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: router,
	}

	go func() {
		appLogger.Info(fmt.Sprintf("HTTP server listening at %s", cfg.Server.Address))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to serve HTTP: %v", err)
		}
	}()

	// 6. Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error(fmt.Sprintf("Server forced to shutdown: %v", err))
	}
	appLogger.Info("Server gracefully stopped")
}

func connectMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}
	return client, nil
}
