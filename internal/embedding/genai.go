package embedding

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"multimodal-rag/internal/rag/interfaces"
)

// GoogleModel is a client for the Google GenAI embedding API.
type GoogleModel struct {
	client *genai.Client
	model  *genai.EmbeddingModel
}

// NewGoogleModel creates an embedding client for the given model.
func NewGoogleModel(ctx context.Context, apiKey, modelName string) (*GoogleModel, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &GoogleModel{
		client: client,
		model:  client.EmbeddingModel(modelName),
	}, nil
}

// Embed generates one embedding per input text, preserving order.
func (m *GoogleModel) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	batch := m.model.NewBatch()
	for _, text := range texts {
		batch.AddContent(genai.Text(text))
	}

	res, err := m.model.BatchEmbedContents(ctx, batch)
	if err != nil {
		return nil, err
	}

	embeddings := make([][]float32, 0, len(res.Embeddings))
	for _, emb := range res.Embeddings {
		embeddings = append(embeddings, emb.Values)
	}
	if len(embeddings) != len(texts) {
		return nil, fmt.Errorf("embedding count %d does not match input count %d", len(embeddings), len(texts))
	}
	return embeddings, nil
}

// Close releases the underlying API client.
func (m *GoogleModel) Close() error {
	return m.client.Close()
}

var _ interfaces.EmbeddingModel = (*GoogleModel)(nil)
