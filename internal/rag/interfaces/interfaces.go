package interfaces

import (
	"context"

	"multimodal-rag/internal/rag/extraction"
	"multimodal-rag/internal/rag/schema"
)

// Partitioner is the interface for decomposing a source file into a flat,
// reading-ordered list of raw layout nodes.
type Partitioner interface {
	Partition(ctx context.Context, path string) ([]*extraction.Node, error)
}

// Chunker is the interface for re-splitting a partitioned node list into
// retrieval-sized blocks.
type Chunker interface {
	Chunk(ctx context.Context, nodes []*extraction.Node) ([]*extraction.Node, error)
}

// DocStore is the interface for storing and retrieving full document payloads
// by their ID.
type DocStore interface {
	Set(ctx context.Context, docs map[string]*schema.Document) error
	// Get returns one entry per requested ID, nil where the ID is unknown.
	Get(ctx context.Context, ids []string) ([]*schema.Document, error)
	Delete(ctx context.Context, ids []string) error
	Clear(ctx context.Context) error
}

// VectorStore is the interface for storing and querying document vectors.
type VectorStore interface {
	Add(ctx context.Context, docs []*schema.Document) error
	// Query returns the topK nearest documents with similarity scores under
	// the score metadata key.
	Query(ctx context.Context, embedding []float32, topK int) ([]*schema.Document, error)
	Clear(ctx context.Context) error
}

// EmbeddingModel is the interface for a text embedding model.
type EmbeddingModel interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// ImageData is an inline image attached to a generation prompt.
type ImageData struct {
	MimeType string
	Data     []byte
}

// Prompt is a single multimodal generation request.
type Prompt struct {
	Text   string
	Images []ImageData
}

// Generator is the interface for a large language model that can generate
// text from multimodal prompts.
type Generator interface {
	Generate(ctx context.Context, prompt Prompt) (string, error)
	// GenerateBatch answers each prompt independently, preserving order.
	GenerateBatch(ctx context.Context, prompts []Prompt) ([]string, error)
}
