package config

import (
	"errors"
	"fmt"
)

// ErrInvalidConfiguration tags every validation failure.
var ErrInvalidConfiguration = errors.New("invalid configuration")

func configError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfiguration, fmt.Sprintf(format, args...))
}

// Validate checks the cross-field consistency rules. It runs once at startup;
// any violation stops the process before a document is touched.
func (c *Config) Validate() error {
	// A zero rate would starve the summarizer's token bucket forever.
	if c.Gemini.RequestsPerMin <= 0 {
		return configError("gemini.requests_per_min must be positive, got %v", c.Gemini.RequestsPerMin)
	}
	if err := c.Ingest.validate(); err != nil {
		return err
	}
	return c.Retriever.validate(c.Ingest)
}

func (c IngestConfig) validate() error {
	switch c.TableFormat {
	case "text":
	case "html":
		if !c.InferTableStructure {
			return configError("table_format=html requires infer_table_structure=true")
		}
	case "image":
		if !c.ExtractTableAsImage {
			return configError("table_format=image requires extract_table_as_image=true")
		}
		if !c.SummarizeTable {
			return configError("table_format=image requires summarize_table=true")
		}
		if c.DocstoreSource.Table != "summary" {
			return configError("table_format=image requires docstore_source.table=summary, got %q", c.DocstoreSource.Table)
		}
	default:
		return configError("table_format must be one of text, html, image, got %q", c.TableFormat)
	}

	if c.ChunkingEnable {
		if c.ChunkSize <= 0 {
			return configError("chunk_size must be positive, got %d", c.ChunkSize)
		}
		if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
			return configError("chunk_overlap must be in [0, chunk_size), got %d", c.ChunkOverlap)
		}
	}

	if c.BatchSize <= 0 {
		return configError("batch_size must be positive, got %d", c.BatchSize)
	}

	if err := validateMinSize("image_min_size", c.ImageMinSize); err != nil {
		return err
	}
	if err := validateMinSize("table_min_size", c.TableMinSize); err != nil {
		return err
	}

	if err := c.VectorstoreSource.validate("vectorstore_source"); err != nil {
		return err
	}
	if err := c.DocstoreSource.validate("docstore_source"); err != nil {
		return err
	}

	// The search surrogate can never be raw image content.
	if c.VectorstoreSource.Image != "summary" {
		return configError("vectorstore_source.image must be summary, got %q", c.VectorstoreSource.Image)
	}
	if c.TableFormat == "image" && c.VectorstoreSource.Table != "summary" {
		return configError("vectorstore_source.table must be summary for table_format=image, got %q", c.VectorstoreSource.Table)
	}

	// Searching or retrieving by a summary that is never produced cannot
	// work; fail here rather than mid-ingestion.
	if !c.SummarizeText {
		if c.VectorstoreSource.Text == "summary" {
			return configError("vectorstore_source.text=summary requires summarize_text=true")
		}
		if c.DocstoreSource.Text == "summary" {
			return configError("docstore_source.text=summary requires summarize_text=true")
		}
	}
	if !c.SummarizeTable {
		if c.VectorstoreSource.Table == "summary" {
			return configError("vectorstore_source.table=summary requires summarize_table=true")
		}
		if c.DocstoreSource.Table == "summary" {
			return configError("docstore_source.table=summary requires summarize_table=true")
		}
	}

	return nil
}

func (s SourceConfig) validate(field string) error {
	for kind, value := range map[string]string{"text": s.Text, "table": s.Table, "image": s.Image} {
		if value != "content" && value != "summary" {
			return configError("%s.%s must be content or summary, got %q", field, kind, value)
		}
	}
	return nil
}

func validateMinSize(field string, bounds []float64) error {
	if len(bounds) != 2 {
		return configError("%s must have exactly two values, got %d", field, len(bounds))
	}
	for _, v := range bounds {
		if v < 0 || v > 1 {
			return configError("%s values must be in [0, 1], got %v", field, v)
		}
	}
	return nil
}

func (c RetrieverConfig) validate(ingest IngestConfig) error {
	if c.TopK <= 0 {
		return configError("top_k must be positive, got %d", c.TopK)
	}

	switch c.SearchType {
	case "similarity":
	case "similarity_score_threshold":
		if c.ScoreThreshold <= 0 || c.ScoreThreshold > 1 {
			return configError("score_threshold must be in (0, 1], got %v", c.ScoreThreshold)
		}
	case "mmr":
		if c.FetchK < c.TopK {
			return configError("fetch_k must be at least top_k, got %d < %d", c.FetchK, c.TopK)
		}
		if c.LambdaMult < 0 || c.LambdaMult > 1 {
			return configError("lambda_mult must be in [0, 1], got %v", c.LambdaMult)
		}
	default:
		return configError("search_type must be one of similarity, similarity_score_threshold, mmr, got %q", c.SearchType)
	}

	// A docstore that only holds summaries forces retrieval to rebuild
	// image elements from the placeholder.
	needsPlaceholder := ingest.DocstoreSource.Image == "summary" ||
		(ingest.TableFormat == "image" && ingest.DocstoreSource.Table == "summary")
	if needsPlaceholder && c.ImagePlaceholderBase64 == "" {
		return configError("image_placeholder_base64 is required when a docstore source is summary")
	}
	return nil
}
