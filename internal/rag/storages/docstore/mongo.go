package docstore

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"multimodal-rag/internal/rag/interfaces"
	"multimodal-rag/internal/rag/schema"
)

// docRecord is the persisted form of a document.
type docRecord struct {
	ID       string                 `bson:"_id"`
	Text     string                 `bson:"text"`
	Metadata map[string]interface{} `bson:"metadata,omitempty"`
}

// MongoDocStore is a DocStore backed by a MongoDB collection, keyed by
// document ID.
type MongoDocStore struct {
	collection *mongo.Collection
}

// NewMongoDocStore creates a MongoDocStore over the given collection.
func NewMongoDocStore(db *mongo.Database, collectionName string) *MongoDocStore {
	return &MongoDocStore{
		collection: db.Collection(collectionName),
	}
}

// Set upserts each document under its key.
func (s *MongoDocStore) Set(ctx context.Context, docs map[string]*schema.Document) error {
	if len(docs) == 0 {
		return nil
	}

	writes := make([]mongo.WriteModel, 0, len(docs))
	for id, doc := range docs {
		record := docRecord{ID: id, Text: doc.Text, Metadata: doc.Metadata}
		writes = append(writes, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"_id": id}).
			SetReplacement(record).
			SetUpsert(true))
	}

	_, err := s.collection.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(false))
	if err != nil {
		return fmt.Errorf("failed to write documents: %w", err)
	}
	return nil
}

// Get returns one entry per requested ID, in order, nil where the ID is
// unknown.
func (s *MongoDocStore) Get(ctx context.Context, ids []string) ([]*schema.Document, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	cursor, err := s.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch documents: %w", err)
	}
	defer cursor.Close(ctx)

	found := make(map[string]*schema.Document, len(ids))
	for cursor.Next(ctx) {
		var record docRecord
		if err := cursor.Decode(&record); err != nil {
			return nil, fmt.Errorf("failed to decode document: %w", err)
		}
		found[record.ID] = &schema.Document{
			ID:       record.ID,
			Text:     record.Text,
			Metadata: record.Metadata,
		}
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}

	result := make([]*schema.Document, len(ids))
	for i, id := range ids {
		result[i] = found[id]
	}
	return result, nil
}

// Delete removes the documents with the given IDs.
func (s *MongoDocStore) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := s.collection.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	return err
}

// Clear removes all documents from the collection.
func (s *MongoDocStore) Clear(ctx context.Context) error {
	_, err := s.collection.DeleteMany(ctx, bson.M{})
	return err
}

var _ interfaces.DocStore = (*MongoDocStore)(nil)
