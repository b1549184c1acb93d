// Package retriever implements multi-vector retrieval: a vector store holds
// the embedded search surrogates, a docstore holds the retrievable payloads,
// and a generated document ID joins the two.
package retriever

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"multimodal-rag/internal/rag/interfaces"
	"multimodal-rag/internal/rag/schema"
	"multimodal-rag/pkg/logger"
)

// ErrLengthMismatch is returned when per-element slices that must be aligned
// have different lengths.
var ErrLengthMismatch = errors.New("aligned slices have different lengths")

// Source names which element attribute feeds a store.
type Source string

const (
	SourceContent Source = "content"
	SourceSummary Source = "summary"
)

// SearchPolicy selects how vector search hits are turned into results.
type SearchPolicy string

const (
	PolicySimilarity     SearchPolicy = "similarity"
	PolicyScoreThreshold SearchPolicy = "similarity_score_threshold"
	PolicyMMR            SearchPolicy = "mmr"
)

// SearchConfig carries the per-policy search parameters.
type SearchConfig struct {
	Policy SearchPolicy
	// TopK is the number of results to return.
	TopK int
	// ScoreThreshold filters hits under the similarity_score_threshold
	// policy. Must be in (0, 1].
	ScoreThreshold float64
	// FetchK is the candidate pool size for mmr.
	FetchK int
	// LambdaMult balances relevance against diversity for mmr.
	LambdaMult float64
}

// MultiVector is the dual-store retriever.
type MultiVector struct {
	vectorstore interfaces.VectorStore
	docstore    interfaces.DocStore
	embedder    interfaces.EmbeddingModel
	search      SearchConfig
	log         *logger.Logger
}

// SearchResult is one asynchronous search outcome.
type SearchResult struct {
	Documents []*schema.Document
	Err       error
}

// New creates a MultiVector retriever over the given stores.
func New(vs interfaces.VectorStore, ds interfaces.DocStore, embedder interfaces.EmbeddingModel, search SearchConfig) *MultiVector {
	return &MultiVector{
		vectorstore: vs,
		docstore:    ds,
		embedder:    embedder,
		search:      search,
		log:         logger.New("rag_service", "retriever"),
	}
}

// AddElements indexes the elements: the vectorSource attribute is embedded
// into the vector store, the docSource attribute is stored in the docstore
// under a fresh document ID shared by both sides.
func (r *MultiVector) AddElements(ctx context.Context, elements []schema.Element, vectorSource, docSource Source) error {
	if len(elements) == 0 {
		return nil
	}

	vectorValues := make([]string, len(elements))
	docValues := make([]string, len(elements))
	for i, el := range elements {
		v, err := elementValue(el, vectorSource)
		if err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
		d, err := elementValue(el, docSource)
		if err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
		vectorValues[i] = v
		docValues[i] = d
	}

	embeddings, err := r.embedder.Embed(ctx, vectorValues)
	if err != nil {
		return fmt.Errorf("failed to embed search values: %w", err)
	}
	if len(embeddings) != len(elements) {
		return fmt.Errorf("%w: %d embeddings for %d elements", ErrLengthMismatch, len(embeddings), len(elements))
	}

	vectorDocs := make([]*schema.Document, len(elements))
	docstoreDocs := make(map[string]*schema.Document, len(elements))
	for i, el := range elements {
		docID := uuid.NewString()

		vectorMD := el.Metadata()
		vectorMD[schema.MetadataKeyDocID] = docID
		vectorMD[schema.MetadataKeySource] = string(vectorSource)
		vectorDocs[i] = &schema.Document{
			ID:        uuid.NewString(),
			Text:      vectorValues[i],
			Embedding: embeddings[i],
			Metadata:  vectorMD,
		}

		docMD := el.Metadata()
		docMD[schema.MetadataKeyDocID] = docID
		docMD[schema.MetadataKeySource] = string(docSource)
		docstoreDocs[docID] = &schema.Document{
			ID:       docID,
			Text:     docValues[i],
			Metadata: docMD,
		}
	}

	r.log.Info(fmt.Sprintf("Indexing %d elements (%s to vectorstore, %s to docstore)", len(elements), vectorSource, docSource))
	if err := r.vectorstore.Add(ctx, vectorDocs); err != nil {
		return fmt.Errorf("failed to add to vectorstore: %w", err)
	}
	if err := r.docstore.Set(ctx, docstoreDocs); err != nil {
		return fmt.Errorf("failed to add to docstore: %w", err)
	}
	return nil
}

// Search embeds the query, selects vector hits under the configured policy,
// and resolves them to docstore payloads. Hits whose payload is missing are
// dropped.
func (r *MultiVector) Search(ctx context.Context, query string) ([]*schema.Document, error) {
	embeddings, err := r.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(embeddings) != 1 {
		return nil, fmt.Errorf("%w: %d embeddings for 1 query", ErrLengthMismatch, len(embeddings))
	}

	hits, err := r.selectHits(ctx, embeddings[0])
	if err != nil {
		return nil, err
	}

	ids := docIDsInOrder(hits)
	if len(ids) == 0 {
		return nil, nil
	}

	payloads, err := r.docstore.Get(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch payloads: %w", err)
	}

	results := make([]*schema.Document, 0, len(payloads))
	for i, doc := range payloads {
		if doc == nil {
			r.log.Warn(fmt.Sprintf("Vector hit %s has no docstore payload, dropping", ids[i]))
			continue
		}
		results = append(results, doc)
	}
	return results, nil
}

// SearchAsync runs Search in a goroutine and delivers the single outcome on
// the returned channel.
func (r *MultiVector) SearchAsync(ctx context.Context, query string) <-chan SearchResult {
	out := make(chan SearchResult, 1)
	go func() {
		defer close(out)
		docs, err := r.Search(ctx, query)
		out <- SearchResult{Documents: docs, Err: err}
	}()
	return out
}

func (r *MultiVector) selectHits(ctx context.Context, embedding []float32) ([]*schema.Document, error) {
	switch r.search.Policy {
	case PolicySimilarity, "":
		return r.vectorstore.Query(ctx, embedding, r.search.TopK)

	case PolicyScoreThreshold:
		hits, err := r.vectorstore.Query(ctx, embedding, r.search.TopK)
		if err != nil {
			return nil, err
		}
		kept := hits[:0]
		for _, hit := range hits {
			if score, ok := hit.Metadata[schema.MetadataKeyScore].(float64); ok && score >= r.search.ScoreThreshold {
				kept = append(kept, hit)
			}
		}
		return kept, nil

	case PolicyMMR:
		fetchK := r.search.FetchK
		if fetchK < r.search.TopK {
			fetchK = r.search.TopK
		}
		hits, err := r.vectorstore.Query(ctx, embedding, fetchK)
		if err != nil {
			return nil, err
		}
		candidates := make([][]float32, len(hits))
		for i, hit := range hits {
			candidates[i] = hit.Embedding
		}
		selected := MaximalMarginalRelevance(embedding, candidates, r.search.LambdaMult, r.search.TopK)
		results := make([]*schema.Document, 0, len(selected))
		for _, i := range selected {
			results = append(results, hits[i])
		}
		return results, nil

	default:
		return nil, fmt.Errorf("unknown search policy: %q", r.search.Policy)
	}
}

// docIDsInOrder extracts the doc_id of each hit, keeping first-seen order and
// dropping duplicates.
func docIDsInOrder(hits []*schema.Document) []string {
	seen := make(map[string]struct{}, len(hits))
	ids := make([]string, 0, len(hits))
	for _, hit := range hits {
		id, ok := hit.Metadata[schema.MetadataKeyDocID].(string)
		if !ok || id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

// elementValue reads the requested attribute off an element.
func elementValue(el schema.Element, source Source) (string, error) {
	switch source {
	case SourceContent:
		return el.Content(), nil
	case SourceSummary:
		return el.Summary()
	default:
		return "", fmt.Errorf("%w: %q", schema.ErrUnsupportedSource, source)
	}
}
