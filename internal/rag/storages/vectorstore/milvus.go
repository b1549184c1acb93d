package vectorstore

import (
	"context"
	"fmt"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"

	"multimodal-rag/internal/rag/interfaces"
	"multimodal-rag/internal/rag/schema"
	"multimodal-rag/pkg/logger"
)

const (
	// Schema fields of the search collection. The payload lives in the
	// docstore; this collection only carries the surrogate text and the
	// metadata needed to rebuild a search hit.
	FieldID        = "id"
	FieldEmbedding = "embedding"
	FieldContent   = "content"
	FieldDocID     = "doc_id"
	FieldSource    = "source"
	FieldType      = "type"
	FieldFormat    = "format"
	FieldFileName  = "file_name"
	FieldPageLabel = "page_label"
)

const (
	contentMaxLength = 65535
	metaMaxLength    = 512
)

// MilvusStore stores search surrogates in a Milvus collection and retrieves
// them by cosine similarity.
type MilvusStore struct {
	log        *logger.Logger
	client     client.Client
	collection string
	dim        int
}

// NewMilvusStore connects to Milvus and ensures the collection exists with
// the expected schema and an AUTOINDEX over the embedding field.
func NewMilvusStore(ctx context.Context, address, collectionName string, dim int) (*MilvusStore, error) {
	c, err := client.NewClient(ctx, client.Config{Address: address})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to milvus at %s: %w", address, err)
	}

	s := &MilvusStore{
		log:        logger.New("rag_service", "vectorstore"),
		client:     c,
		collection: collectionName,
		dim:        dim,
	}
	if err := s.ensureCollection(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *MilvusStore) ensureCollection(ctx context.Context) error {
	has, err := s.client.HasCollection(ctx, s.collection)
	if err != nil {
		return fmt.Errorf("failed to check collection %q: %w", s.collection, err)
	}

	if !has {
		collSchema := entity.NewSchema().
			WithName(s.collection).
			WithField(entity.NewField().WithName(FieldID).WithDataType(entity.FieldTypeVarChar).WithMaxLength(64).WithIsPrimaryKey(true)).
			WithField(entity.NewField().WithName(FieldEmbedding).WithDataType(entity.FieldTypeFloatVector).WithDim(int64(s.dim))).
			WithField(entity.NewField().WithName(FieldContent).WithDataType(entity.FieldTypeVarChar).WithMaxLength(contentMaxLength)).
			WithField(entity.NewField().WithName(FieldDocID).WithDataType(entity.FieldTypeVarChar).WithMaxLength(64)).
			WithField(entity.NewField().WithName(FieldSource).WithDataType(entity.FieldTypeVarChar).WithMaxLength(metaMaxLength)).
			WithField(entity.NewField().WithName(FieldType).WithDataType(entity.FieldTypeVarChar).WithMaxLength(metaMaxLength)).
			WithField(entity.NewField().WithName(FieldFormat).WithDataType(entity.FieldTypeVarChar).WithMaxLength(metaMaxLength)).
			WithField(entity.NewField().WithName(FieldFileName).WithDataType(entity.FieldTypeVarChar).WithMaxLength(metaMaxLength)).
			WithField(entity.NewField().WithName(FieldPageLabel).WithDataType(entity.FieldTypeVarChar).WithMaxLength(metaMaxLength))

		if err := s.client.CreateCollection(ctx, collSchema, entity.DefaultShardNumber); err != nil {
			return fmt.Errorf("failed to create collection %q: %w", s.collection, err)
		}

		index, err := entity.NewIndexAUTOINDEX(entity.COSINE)
		if err != nil {
			return fmt.Errorf("failed to build index: %w", err)
		}
		if err := s.client.CreateIndex(ctx, s.collection, FieldEmbedding, index, false); err != nil {
			return fmt.Errorf("failed to create index on %q: %w", s.collection, err)
		}
		s.log.Info(fmt.Sprintf("Created Milvus collection: %s (dim %d)", s.collection, s.dim))
	}

	if err := s.client.LoadCollection(ctx, s.collection, false); err != nil {
		return fmt.Errorf("failed to load collection %q: %w", s.collection, err)
	}
	return nil
}

// Add inserts the documents as one column per schema field.
func (s *MilvusStore) Add(ctx context.Context, docs []*schema.Document) error {
	if len(docs) == 0 {
		return nil
	}

	ids := make([]string, len(docs))
	embeddings := make([][]float32, len(docs))
	contents := make([]string, len(docs))
	docIDs := make([]string, len(docs))
	sources := make([]string, len(docs))
	types := make([]string, len(docs))
	formats := make([]string, len(docs))
	fileNames := make([]string, len(docs))
	pageLabels := make([]string, len(docs))

	for i, doc := range docs {
		if len(doc.Embedding) != s.dim {
			return fmt.Errorf("document %q embedding has dim %d, collection expects %d", doc.ID, len(doc.Embedding), s.dim)
		}
		ids[i] = doc.ID
		embeddings[i] = doc.Embedding
		contents[i] = doc.Text
		docIDs[i] = metadataString(doc, schema.MetadataKeyDocID)
		sources[i] = metadataString(doc, schema.MetadataKeySource)
		types[i] = metadataString(doc, schema.MetadataKeyType)
		formats[i] = metadataString(doc, schema.MetadataKeyFormat)
		fileNames[i] = metadataString(doc, schema.MetadataKeyFileName)
		pageLabels[i] = metadataString(doc, schema.MetadataKeyPageLabel)
	}

	s.log.Info(fmt.Sprintf("Inserting %d documents into Milvus collection: %s", len(docs), s.collection))
	_, err := s.client.Insert(ctx, s.collection, "",
		entity.NewColumnVarChar(FieldID, ids),
		entity.NewColumnFloatVector(FieldEmbedding, s.dim, embeddings),
		entity.NewColumnVarChar(FieldContent, contents),
		entity.NewColumnVarChar(FieldDocID, docIDs),
		entity.NewColumnVarChar(FieldSource, sources),
		entity.NewColumnVarChar(FieldType, types),
		entity.NewColumnVarChar(FieldFormat, formats),
		entity.NewColumnVarChar(FieldFileName, fileNames),
		entity.NewColumnVarChar(FieldPageLabel, pageLabels),
	)
	if err != nil {
		return fmt.Errorf("failed to insert data into Milvus: %w", err)
	}
	return nil
}

// Query searches the collection by cosine similarity and rebuilds one
// document per hit, embedding included, with the similarity score under the
// score metadata key.
func (s *MilvusStore) Query(ctx context.Context, embedding []float32, topK int) ([]*schema.Document, error) {
	searchParams, err := entity.NewIndexAUTOINDEXSearchParam(1)
	if err != nil {
		return nil, fmt.Errorf("failed to build search params: %w", err)
	}
	outputFields := []string{FieldID, FieldEmbedding, FieldContent, FieldDocID, FieldSource, FieldType, FieldFormat, FieldFileName, FieldPageLabel}

	searchResults, err := s.client.Search(
		ctx, s.collection, []string{}, "", outputFields,
		[]entity.Vector{entity.FloatVector(embedding)},
		FieldEmbedding, entity.COSINE, topK, searchParams,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search in Milvus: %w", err)
	}

	var results []*schema.Document
	for _, res := range searchResults {
		columns := make(map[string]entity.Column, len(res.Fields))
		for _, field := range res.Fields {
			columns[field.Name()] = field
		}

		for i := 0; i < res.ResultCount; i++ {
			id, err := columnString(columns, FieldID, i)
			if err != nil {
				return nil, err
			}
			content, err := columnString(columns, FieldContent, i)
			if err != nil {
				return nil, err
			}

			doc := &schema.Document{
				ID:   id,
				Text: content,
				Metadata: map[string]interface{}{
					schema.MetadataKeyScore: float64(res.Scores[i]),
				},
			}
			if vec, ok := columns[FieldEmbedding].(*entity.ColumnFloatVector); ok {
				doc.Embedding = vec.Data()[i]
			}
			for field, key := range map[string]string{
				FieldDocID:     schema.MetadataKeyDocID,
				FieldSource:    schema.MetadataKeySource,
				FieldType:      schema.MetadataKeyType,
				FieldFormat:    schema.MetadataKeyFormat,
				FieldFileName:  schema.MetadataKeyFileName,
				FieldPageLabel: schema.MetadataKeyPageLabel,
			} {
				if v, err := columnString(columns, field, i); err == nil && v != "" {
					doc.Metadata[key] = v
				}
			}
			results = append(results, doc)
		}
	}
	return results, nil
}

// Clear drops and recreates the collection.
func (s *MilvusStore) Clear(ctx context.Context) error {
	has, err := s.client.HasCollection(ctx, s.collection)
	if err != nil {
		return fmt.Errorf("failed to check collection %q: %w", s.collection, err)
	}
	if has {
		if err := s.client.DropCollection(ctx, s.collection); err != nil {
			return fmt.Errorf("failed to drop collection %q: %w", s.collection, err)
		}
	}
	return s.ensureCollection(ctx)
}

// Close releases the Milvus connection.
func (s *MilvusStore) Close() error {
	return s.client.Close()
}

func metadataString(doc *schema.Document, key string) string {
	if doc.Metadata == nil {
		return ""
	}
	if v, ok := doc.Metadata[key].(string); ok {
		return v
	}
	return ""
}

func columnString(columns map[string]entity.Column, name string, i int) (string, error) {
	col, ok := columns[name].(*entity.ColumnVarChar)
	if !ok {
		return "", fmt.Errorf("search result is missing field %q", name)
	}
	return col.ValueByIdx(i)
}

var _ interfaces.VectorStore = (*MilvusStore)(nil)
