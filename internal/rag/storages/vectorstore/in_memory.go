package vectorstore

import (
	"context"
	"math"
	"sort"
	"sync"

	"multimodal-rag/internal/rag/interfaces"
	"multimodal-rag/internal/rag/schema"
)

// InMemoryStore is a thread-safe vector store backed by a slice, scanning
// with exact cosine similarity. Meant for tests and small local corpora.
type InMemoryStore struct {
	mu   sync.RWMutex
	docs []*schema.Document
}

// NewInMemoryStore creates an empty InMemoryStore.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

// Add appends copies of the documents to the store.
func (s *InMemoryStore) Add(ctx context.Context, docs []*schema.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, doc := range docs {
		stored := &schema.Document{
			ID:        doc.ID,
			Text:      doc.Text,
			Embedding: append([]float32(nil), doc.Embedding...),
			Metadata:  schema.CopyMetadata(doc.Metadata),
		}
		s.docs = append(s.docs, stored)
	}
	return nil
}

// Query scans all documents and returns the topK by cosine similarity, the
// score attached under the score metadata key.
func (s *InMemoryStore) Query(ctx context.Context, embedding []float32, topK int) ([]*schema.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type scored struct {
		doc   *schema.Document
		score float64
	}
	candidates := make([]scored, 0, len(s.docs))
	for _, doc := range s.docs {
		candidates = append(candidates, scored{doc: doc, score: CosineSimilarity(embedding, doc.Embedding)})
	}
	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].score > candidates[j].score })

	if topK > len(candidates) {
		topK = len(candidates)
	}
	results := make([]*schema.Document, 0, topK)
	for _, c := range candidates[:topK] {
		doc := &schema.Document{
			ID:        c.doc.ID,
			Text:      c.doc.Text,
			Embedding: append([]float32(nil), c.doc.Embedding...),
			Metadata:  schema.CopyMetadata(c.doc.Metadata),
		}
		if doc.Metadata == nil {
			doc.Metadata = make(map[string]interface{}, 1)
		}
		doc.Metadata[schema.MetadataKeyScore] = c.score
		results = append(results, doc)
	}
	return results, nil
}

// Clear removes all documents.
func (s *InMemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs = nil
	return nil
}

// CosineSimilarity returns the cosine of the angle between a and b, or 0 when
// either vector is empty or zero.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

var _ interfaces.VectorStore = (*InMemoryStore)(nil)
