package docstore

import (
	"context"
	"sync"

	"multimodal-rag/internal/rag/interfaces"
	"multimodal-rag/internal/rag/schema"
)

// InMemoryDocStore is a thread-safe, in-memory implementation of the DocStore
// interface.
type InMemoryDocStore struct {
	mu   sync.RWMutex
	docs map[string]*schema.Document
}

// NewInMemoryDocStore creates a new instance of InMemoryDocStore.
func NewInMemoryDocStore() *InMemoryDocStore {
	return &InMemoryDocStore{
		docs: make(map[string]*schema.Document),
	}
}

// Set stores the documents under their keys, overwriting existing entries.
func (s *InMemoryDocStore) Set(ctx context.Context, docs map[string]*schema.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, doc := range docs {
		s.docs[id] = doc
	}
	return nil
}

// Get returns one entry per requested ID, in order, nil where the ID is
// unknown.
func (s *InMemoryDocStore) Get(ctx context.Context, ids []string) ([]*schema.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*schema.Document, len(ids))
	for i, id := range ids {
		result[i] = s.docs[id]
	}
	return result, nil
}

// Delete removes the documents with the given IDs.
func (s *InMemoryDocStore) Delete(ctx context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range ids {
		delete(s.docs, id)
	}
	return nil
}

// Clear removes all documents.
func (s *InMemoryDocStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs = make(map[string]*schema.Document)
	return nil
}

var _ interfaces.DocStore = (*InMemoryDocStore)(nil)
