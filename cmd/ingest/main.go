package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

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
	"multimodal-rag/internal/rag/storages/docstore"
	"multimodal-rag/internal/rag/storages/vectorstore"
	"multimodal-rag/internal/rag/summarize"
	"multimodal-rag/pkg/circuitbreaker"
	"multimodal-rag/pkg/logger"
	"multimodal-rag/pkg/ratelimiter"
)

// Batch ingestion entrypoint. Reads every PDF under path.docs and indexes it
// into Milvus and MongoDB using the same pipeline the service exposes over
// HTTP.
func main() {
	configPath := flag.String("config", "config/config.yaml", "path to the configuration file")
	docsFolder := flag.String("docs", "", "override the documents folder from the configuration")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *docsFolder != "" {
		cfg.Path.Docs = *docsFolder
	}

	logger.Init(logger.ParseLevel(cfg.Log.Level))
	appLogger := logger.New(cfg.Name, "ingest")
	appLogger.Info(fmt.Sprintf("Ingesting documents from %s", cfg.Path.Docs))

	ctx := context.Background()

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

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	mongoClient, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.Mongo.URI))
	if err == nil {
		err = mongoClient.Ping(connectCtx, nil)
	}
	cancel()
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer mongoClient.Disconnect(ctx)

	docStore := docstore.NewMongoDocStore(mongoClient.Database(cfg.Mongo.Database), cfg.Mongo.Collection)

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

	if err := ingestor.IngestAll(ctx, cfg.Path.Docs); err != nil {
		log.Fatalf("Ingestion failed: %v", err)
	}
	appLogger.Info("Ingestion complete")
}
