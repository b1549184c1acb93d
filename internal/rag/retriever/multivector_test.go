package retriever

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"multimodal-rag/internal/rag/interfaces"
	"multimodal-rag/internal/rag/schema"
	"multimodal-rag/internal/rag/storages/docstore"
	"multimodal-rag/internal/rag/storages/vectorstore"
)

// fixedEmbedder returns preassigned vectors, one new axis per unseen text.
type fixedEmbedder struct {
	vectors map[string][]float32
}

func newFixedEmbedder(vectors map[string][]float32) *fixedEmbedder {
	return &fixedEmbedder{vectors: vectors}
}

func (e *fixedEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		v, ok := e.vectors[text]
		if !ok {
			return nil, fmt.Errorf("no vector assigned for %q", text)
		}
		out[i] = v
	}
	return out, nil
}

var _ interfaces.EmbeddingModel = (*fixedEmbedder)(nil)

func summarizedText(t *testing.T, content, summary string) *schema.Text {
	t.Helper()
	text, err := schema.NewText(content, schema.FormatText, nil)
	if err != nil {
		t.Fatalf("NewText: %v", err)
	}
	if err := text.SetSummary(summary); err != nil {
		t.Fatalf("SetSummary: %v", err)
	}
	return text
}

func TestAddElementsAndSearchRoundTrip(t *testing.T) {
	ctx := context.Background()
	embedder := newFixedEmbedder(map[string][]float32{
		"about cats": {1, 0, 0},
		"about dogs": {0, 1, 0},
		"cats?":      {0.9, 0.1, 0},
	})
	r := New(vectorstore.NewInMemoryStore(), docstore.NewInMemoryDocStore(), embedder,
		SearchConfig{Policy: PolicySimilarity, TopK: 1})

	elements := []schema.Element{
		summarizedText(t, "a long passage on cats", "about cats"),
		summarizedText(t, "a long passage on dogs", "about dogs"),
	}
	if err := r.AddElements(ctx, elements, SourceSummary, SourceContent); err != nil {
		t.Fatalf("AddElements: %v", err)
	}

	docs, err := r.Search(ctx, "cats?")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("len(docs) = %d, want 1", len(docs))
	}
	if docs[0].Text != "a long passage on cats" {
		t.Errorf("payload = %q, want the raw content", docs[0].Text)
	}
	if docs[0].Metadata[schema.MetadataKeySource] != "content" {
		t.Errorf("source = %v, want content", docs[0].Metadata[schema.MetadataKeySource])
	}
}

func TestAddElementsAssignsUniqueDocIDs(t *testing.T) {
	ctx := context.Background()
	vectors := map[string][]float32{}
	elements := make([]schema.Element, 5)
	for i := range elements {
		content := fmt.Sprintf("content %d", i)
		vectors[content] = []float32{float32(i + 1), 1}
		text, err := schema.NewText(content, schema.FormatText, nil)
		if err != nil {
			t.Fatalf("NewText: %v", err)
		}
		elements[i] = text
	}
	vectors["query"] = []float32{1, 1}

	vs := vectorstore.NewInMemoryStore()
	r := New(vs, docstore.NewInMemoryDocStore(), newFixedEmbedder(vectors),
		SearchConfig{Policy: PolicySimilarity, TopK: 5})

	if err := r.AddElements(ctx, elements, SourceContent, SourceContent); err != nil {
		t.Fatalf("AddElements: %v", err)
	}

	hits, err := vs.Query(ctx, []float32{1, 1}, 5)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	seen := map[string]bool{}
	for _, hit := range hits {
		id, _ := hit.Metadata[schema.MetadataKeyDocID].(string)
		if id == "" {
			t.Fatal("hit missing doc_id")
		}
		if seen[id] {
			t.Fatalf("doc_id %s assigned twice", id)
		}
		seen[id] = true
	}
	if len(seen) != 5 {
		t.Errorf("unique doc_ids = %d, want 5", len(seen))
	}
}

func TestAddElementsRequiresSummaryWhenSourced(t *testing.T) {
	text, err := schema.NewText("content", schema.FormatText, nil)
	if err != nil {
		t.Fatalf("NewText: %v", err)
	}
	r := New(vectorstore.NewInMemoryStore(), docstore.NewInMemoryDocStore(),
		newFixedEmbedder(nil), SearchConfig{Policy: PolicySimilarity, TopK: 1})

	err = r.AddElements(context.Background(), []schema.Element{text}, SourceSummary, SourceContent)
	if !errors.Is(err, schema.ErrSummaryNotSet) {
		t.Errorf("err = %v, want ErrSummaryNotSet", err)
	}
}

func TestSearchScoreThresholdFiltersWeakHits(t *testing.T) {
	ctx := context.Background()
	embedder := newFixedEmbedder(map[string][]float32{
		"strong": {1, 0},
		"weak":   {0, 1},
		"query":  {1, 0},
	})
	r := New(vectorstore.NewInMemoryStore(), docstore.NewInMemoryDocStore(), embedder,
		SearchConfig{Policy: PolicyScoreThreshold, TopK: 10, ScoreThreshold: 0.5})

	elements := []schema.Element{
		summarizedText(t, "the strong one", "strong"),
		summarizedText(t, "the weak one", "weak"),
	}
	if err := r.AddElements(ctx, elements, SourceSummary, SourceContent); err != nil {
		t.Fatalf("AddElements: %v", err)
	}

	docs, err := r.Search(ctx, "query")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(docs) != 1 || docs[0].Text != "the strong one" {
		t.Errorf("docs = %v, want only the strong hit", docs)
	}
}

func TestSearchMMRPrefersDiverseResults(t *testing.T) {
	ctx := context.Background()
	embedder := newFixedEmbedder(map[string][]float32{
		"cats a": {1, 0, 0},
		"cats b": {0.99, 0.01, 0},
		"birds":  {0, 0, 1},
		"query":  {1, 0, 0.1},
	})
	r := New(vectorstore.NewInMemoryStore(), docstore.NewInMemoryDocStore(), embedder,
		SearchConfig{Policy: PolicyMMR, TopK: 2, FetchK: 3, LambdaMult: 0.5})

	elements := []schema.Element{
		summarizedText(t, "first cat passage", "cats a"),
		summarizedText(t, "second cat passage", "cats b"),
		summarizedText(t, "bird passage", "birds"),
	}
	if err := r.AddElements(ctx, elements, SourceSummary, SourceContent); err != nil {
		t.Fatalf("AddElements: %v", err)
	}

	docs, err := r.Search(ctx, "query")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("len(docs) = %d, want 2", len(docs))
	}
	if docs[0].Text != "first cat passage" {
		t.Errorf("docs[0] = %q, want the most relevant hit first", docs[0].Text)
	}
	if docs[1].Text != "bird passage" {
		t.Errorf("docs[1] = %q, want the diverse hit over the near-duplicate", docs[1].Text)
	}
}

func TestSearchDropsHitsWithMissingPayload(t *testing.T) {
	ctx := context.Background()
	embedder := newFixedEmbedder(map[string][]float32{
		"kept":   {1, 0},
		"orphan": {0.9, 0.1},
		"query":  {1, 0},
	})
	ds := docstore.NewInMemoryDocStore()
	r := New(vectorstore.NewInMemoryStore(), ds, embedder,
		SearchConfig{Policy: PolicySimilarity, TopK: 2})

	elements := []schema.Element{
		summarizedText(t, "kept payload", "kept"),
		summarizedText(t, "orphan payload", "orphan"),
	}
	if err := r.AddElements(ctx, elements, SourceSummary, SourceContent); err != nil {
		t.Fatalf("AddElements: %v", err)
	}
	if err := ds.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if err := ds.Set(ctx, map[string]*schema.Document{}); err != nil {
		t.Fatalf("Set: %v", err)
	}

	docs, err := r.Search(ctx, "query")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(docs) != 0 {
		t.Errorf("len(docs) = %d, want 0 after payloads were removed", len(docs))
	}
}

func TestSearchAsyncDeliversResult(t *testing.T) {
	embedder := newFixedEmbedder(map[string][]float32{
		"summary": {1, 0},
		"query":   {1, 0},
	})
	r := New(vectorstore.NewInMemoryStore(), docstore.NewInMemoryDocStore(), embedder,
		SearchConfig{Policy: PolicySimilarity, TopK: 1})

	elements := []schema.Element{summarizedText(t, "payload", "summary")}
	if err := r.AddElements(context.Background(), elements, SourceSummary, SourceContent); err != nil {
		t.Fatalf("AddElements: %v", err)
	}

	result := <-r.SearchAsync(context.Background(), "query")
	if result.Err != nil {
		t.Fatalf("SearchAsync: %v", result.Err)
	}
	if len(result.Documents) != 1 || result.Documents[0].Text != "payload" {
		t.Errorf("result = %v, want the payload", result.Documents)
	}
}

func TestMaximalMarginalRelevanceBounds(t *testing.T) {
	if got := MaximalMarginalRelevance([]float32{1}, nil, 0.5, 3); got != nil {
		t.Errorf("MMR with no candidates = %v, want nil", got)
	}
	got := MaximalMarginalRelevance([]float32{1, 0}, [][]float32{{1, 0}}, 0.5, 5)
	if len(got) != 1 || got[0] != 0 {
		t.Errorf("MMR = %v, want [0]", got)
	}
}
