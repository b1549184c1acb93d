package schema

// Metadata keys reserved by the ingestion and retrieval pipeline.
const (
	// MetadataKeyType records the element kind (text, image, table).
	MetadataKeyType = "type"
	// MetadataKeyFormat records the representation format of the element.
	MetadataKeyFormat = "format"
	// MetadataKeyMimeType is the MIME type of image-like content.
	MetadataKeyMimeType = "mime_type"
	// MetadataKeySource records which element attribute (content or summary)
	// a stored document was built from.
	MetadataKeySource = "source"
	// MetadataKeyDocID joins a vectorstore entry with its docstore payload.
	MetadataKeyDocID = "doc_id"
	// MetadataKeyFileName is the source file name from the partitioner.
	MetadataKeyFileName = "file_name"
	// MetadataKeyPageLabel is the page number or label from the source document.
	MetadataKeyPageLabel = "page_label"
	// MetadataKeyScore carries the similarity score of a search hit.
	MetadataKeyScore = "score"
)

// Document is the unit persisted into the vectorstore and the docstore.
// The vectorstore indexes its Text (the search surrogate); the docstore keeps
// the retrievable payload under the same generated identifier.
type Document struct {
	// ID is the unique identifier for this document.
	ID string

	// Text is the string content: a search surrogate in the vectorstore, or
	// the retrievable payload (text or base64 image) in the docstore.
	Text string

	// Embedding is the vector representation of Text. Only populated for
	// vectorstore documents.
	Embedding []float32

	// Metadata holds arbitrary data about the document (file name, page
	// label, element kind and format, the reserved doc_id and source keys).
	Metadata map[string]interface{}
}

// CopyMetadata returns a shallow copy of md, or an empty map when md is nil.
// Stored documents must not share metadata maps with live elements.
func CopyMetadata(md map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(md))
	for k, v := range md {
		out[k] = v
	}
	return out
}
