package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func validConfig() *Config {
	return Default()
}

func TestDefaultConfigIsValid(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestValidateRejectsCrossFieldViolations(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"image table with content docstore source", func(c *Config) {
			c.Ingest.TableFormat = "image"
			c.Ingest.ExtractTableAsImage = true
			c.Ingest.DocstoreSource.Table = "content"
		}},
		{"image vectorstore source content", func(c *Config) {
			c.Ingest.VectorstoreSource.Image = "content"
		}},
		{"html table without structure inference", func(c *Config) {
			c.Ingest.TableFormat = "html"
			c.Ingest.InferTableStructure = false
		}},
		{"image table without summarization", func(c *Config) {
			c.Ingest.TableFormat = "image"
			c.Ingest.ExtractTableAsImage = true
			c.Ingest.SummarizeTable = false
			c.Ingest.VectorstoreSource.Table = "content"
			c.Ingest.DocstoreSource.Table = "content"
		}},
		{"image table without extraction", func(c *Config) {
			c.Ingest.TableFormat = "image"
			c.Ingest.ExtractTableAsImage = false
		}},
		{"unknown table format", func(c *Config) {
			c.Ingest.TableFormat = "csv"
		}},
		{"summary source without text summarization", func(c *Config) {
			c.Ingest.SummarizeText = false
		}},
		{"summary source without table summarization", func(c *Config) {
			c.Ingest.SummarizeTable = false
		}},
		{"unknown source value", func(c *Config) {
			c.Ingest.DocstoreSource.Text = "raw"
		}},
		{"min size with one value", func(c *Config) {
			c.Ingest.ImageMinSize = []float64{0.1}
		}},
		{"min size out of range", func(c *Config) {
			c.Ingest.TableMinSize = []float64{0.5, 1.5}
		}},
		{"overlap not below chunk size", func(c *Config) {
			c.Ingest.ChunkOverlap = c.Ingest.ChunkSize
		}},
		{"unknown search type", func(c *Config) {
			c.Retriever.SearchType = "knn"
		}},
		{"threshold zero", func(c *Config) {
			c.Retriever.SearchType = "similarity_score_threshold"
			c.Retriever.ScoreThreshold = 0
		}},
		{"threshold above one", func(c *Config) {
			c.Retriever.SearchType = "similarity_score_threshold"
			c.Retriever.ScoreThreshold = 1.2
		}},
		{"mmr fetch_k below top_k", func(c *Config) {
			c.Retriever.SearchType = "mmr"
			c.Retriever.FetchK = 2
			c.Retriever.TopK = 5
		}},
		{"summary image docstore without placeholder", func(c *Config) {
			c.Ingest.DocstoreSource.Image = "summary"
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(cfg)
			err := cfg.Validate()
			if !errors.Is(err, ErrInvalidConfiguration) {
				t.Errorf("Validate() = %v, want ErrInvalidConfiguration", err)
			}
		})
	}
}

func TestValidateAcceptsThresholdBoundary(t *testing.T) {
	cfg := validConfig()
	cfg.Retriever.SearchType = "similarity_score_threshold"
	cfg.Retriever.ScoreThreshold = 1
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v, threshold 1 is inside (0, 1]", err)
	}
}

func TestLoadAppliesDefaultsAndValidates(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte(`
name: test
retriever:
  top_k: 3
`)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Retriever.TopK != 3 {
		t.Errorf("TopK = %d, want 3", cfg.Retriever.TopK)
	}
	if cfg.Ingest.BatchSize != 10 {
		t.Errorf("BatchSize = %d, want default 10", cfg.Ingest.BatchSize)
	}
}

func TestLoadExpandsEnvironmentVariables(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "real-secret")

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte(`
gemini:
  api_key: ${GEMINI_API_KEY}
`)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Gemini.APIKey != "real-secret" {
		t.Errorf("APIKey = %q, want env-expanded value", cfg.Gemini.APIKey)
	}
}

func TestValidateRejectsZeroRequestRate(t *testing.T) {
	cfg := Default()
	cfg.Gemini.RequestsPerMin = 0
	if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfiguration) {
		t.Errorf("Validate() = %v, want ErrInvalidConfiguration", err)
	}
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte(`
ingest:
  table_format: csv
`)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if _, err := Load(path); !errors.Is(err, ErrInvalidConfiguration) {
		t.Errorf("Load() = %v, want ErrInvalidConfiguration", err)
	}
}
