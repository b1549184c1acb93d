package docstore

import (
	"context"
	"testing"

	"multimodal-rag/internal/rag/schema"
)

func TestInMemoryDocStoreGetPreservesOrder(t *testing.T) {
	store := NewInMemoryDocStore()
	ctx := context.Background()

	err := store.Set(ctx, map[string]*schema.Document{
		"a": {ID: "a", Text: "alpha"},
		"b": {ID: "b", Text: "beta"},
	})
	if err != nil {
		t.Fatalf("Set: %v", err)
	}

	docs, err := store.Get(ctx, []string{"b", "missing", "a"})
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(docs) != 3 {
		t.Fatalf("len(docs) = %d, want 3", len(docs))
	}
	if docs[0] == nil || docs[0].Text != "beta" {
		t.Errorf("docs[0] = %v, want beta", docs[0])
	}
	if docs[1] != nil {
		t.Errorf("docs[1] = %v, want nil for unknown ID", docs[1])
	}
	if docs[2] == nil || docs[2].Text != "alpha" {
		t.Errorf("docs[2] = %v, want alpha", docs[2])
	}
}

func TestInMemoryDocStoreClear(t *testing.T) {
	store := NewInMemoryDocStore()
	ctx := context.Background()

	if err := store.Set(ctx, map[string]*schema.Document{"a": {ID: "a"}}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}

	docs, err := store.Get(ctx, []string{"a"})
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if docs[0] != nil {
		t.Errorf("docs[0] = %v, want nil after Clear", docs[0])
	}
}
