// Package config loads and validates the service configuration.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration.
type Config struct {
	Name      string          `yaml:"name"`
	Log       LogConfig       `yaml:"log"`
	Path      PathConfig      `yaml:"path"`
	Server    ServerConfig    `yaml:"server"`
	Gemini    GeminiConfig    `yaml:"gemini"`
	Milvus    MilvusConfig    `yaml:"milvus"`
	Mongo     MongoConfig     `yaml:"mongo"`
	Ingest    IngestConfig    `yaml:"ingest"`
	Retriever RetrieverConfig `yaml:"retriever"`
}

// LogConfig controls the structured logger.
type LogConfig struct {
	Level string `yaml:"level"`
}

// PathConfig holds filesystem locations.
type PathConfig struct {
	Docs            string `yaml:"docs"`
	ExportExtracted string `yaml:"export_extracted"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Address string `yaml:"address"`
}

// GeminiConfig holds the generation and embedding model settings.
type GeminiConfig struct {
	APIKey         string  `yaml:"api_key"`
	TextModel      string  `yaml:"text_model"`
	VisionModel    string  `yaml:"vision_model"`
	EmbeddingModel string  `yaml:"embedding_model"`
	EmbeddingDim   int     `yaml:"embedding_dim"`
	RequestsPerMin float64 `yaml:"requests_per_min"`
}

// MilvusConfig holds the vector store connection settings.
type MilvusConfig struct {
	Address    string `yaml:"address"`
	Collection string `yaml:"collection"`
}

// MongoConfig holds the docstore connection settings.
type MongoConfig struct {
	URI        string `yaml:"uri"`
	Database   string `yaml:"database"`
	Collection string `yaml:"collection"`
}

// SourceConfig names which element attribute feeds a store, per kind.
type SourceConfig struct {
	Text  string `yaml:"text"`
	Table string `yaml:"table"`
	Image string `yaml:"image"`
}

// IngestConfig controls the ingestion pipeline.
type IngestConfig struct {
	ClearDatabase   bool `yaml:"clear_database"`
	ContinueOnError bool `yaml:"continue_on_error"`

	ChunkingEnable bool `yaml:"chunking_enable"`
	ChunkSize      int  `yaml:"chunk_size"`
	ChunkOverlap   int  `yaml:"chunk_overlap"`

	TableFormat         string `yaml:"table_format"`
	InferTableStructure bool   `yaml:"infer_table_structure"`
	ExtractTableAsImage bool   `yaml:"extract_table_as_image"`

	SummarizeText  bool `yaml:"summarize_text"`
	SummarizeTable bool `yaml:"summarize_table"`
	BatchSize      int  `yaml:"batch_size"`

	// ImageMinSize and TableMinSize are [width, height] bounds in 0-1
	// normalized page coordinates.
	ImageMinSize []float64 `yaml:"image_min_size"`
	TableMinSize []float64 `yaml:"table_min_size"`

	MetadataKeys []string `yaml:"metadata_keys"`

	VectorstoreSource SourceConfig `yaml:"vectorstore_source"`
	DocstoreSource    SourceConfig `yaml:"docstore_source"`

	ExportExtracted bool `yaml:"export_extracted"`
}

// RetrieverConfig controls the search path.
type RetrieverConfig struct {
	SearchType     string  `yaml:"search_type"`
	TopK           int     `yaml:"top_k"`
	ScoreThreshold float64 `yaml:"score_threshold"`
	FetchK         int     `yaml:"fetch_k"`
	LambdaMult     float64 `yaml:"lambda_mult"`

	ImagePlaceholderBase64   string `yaml:"image_placeholder_base64"`
	ImagePlaceholderMimeType string `yaml:"image_placeholder_mime_type"`
}

// Load reads, parses and validates the configuration file at path.
// ${VAR} references in the file are expanded from the environment before
// parsing, so secrets like the Gemini API key stay out of the file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	data = []byte(os.ExpandEnv(string(data)))

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns a configuration with the defaults applied; loading then
// overwrites whatever the file sets.
func Default() *Config {
	return &Config{
		Log:    LogConfig{Level: "info"},
		Gemini: GeminiConfig{RequestsPerMin: 60},
		Ingest: IngestConfig{
			ChunkingEnable:      true,
			ChunkSize:           512,
			ChunkOverlap:        64,
			TableFormat:         "text",
			InferTableStructure: true,
			SummarizeText:       true,
			SummarizeTable:      true,
			BatchSize:           10,
			ImageMinSize:        []float64{0.1, 0.1},
			TableMinSize:        []float64{0, 0},
			VectorstoreSource: SourceConfig{
				Text:  "summary",
				Table: "summary",
				Image: "summary",
			},
			DocstoreSource: SourceConfig{
				Text:  "content",
				Table: "content",
				Image: "content",
			},
		},
		Retriever: RetrieverConfig{
			SearchType: "similarity",
			TopK:       5,
			FetchK:     20,
			LambdaMult: 0.5,
		},
	}
}
