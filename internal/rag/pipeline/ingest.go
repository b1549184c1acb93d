// Package pipeline wires extraction, summarization, retrieval and generation
// into the ingestion and question-answering flows.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"multimodal-rag/internal/config"
	"multimodal-rag/internal/rag/extraction"
	"multimodal-rag/internal/rag/interfaces"
	"multimodal-rag/internal/rag/retriever"
	"multimodal-rag/internal/rag/schema"
	"multimodal-rag/internal/rag/summarize"
	"multimodal-rag/pkg/logger"
)

// Ingestor runs the per-document ingestion pipeline: partition, select,
// chunk, summarize, index, export.
type Ingestor struct {
	partitioner interfaces.Partitioner
	chunker     interfaces.Chunker
	summarizer  *summarize.Summarizer
	retriever   *retriever.MultiVector
	vectorstore interfaces.VectorStore
	docstore    interfaces.DocStore
	cfg         config.IngestConfig
	exportPath  string
	log         *logger.Logger
}

// NewIngestor creates an Ingestor. chunker may be nil when chunking is
// disabled.
func NewIngestor(
	partitioner interfaces.Partitioner,
	chunker interfaces.Chunker,
	summarizer *summarize.Summarizer,
	mv *retriever.MultiVector,
	vs interfaces.VectorStore,
	ds interfaces.DocStore,
	cfg config.IngestConfig,
	exportPath string,
) *Ingestor {
	return &Ingestor{
		partitioner: partitioner,
		chunker:     chunker,
		summarizer:  summarizer,
		retriever:   mv,
		vectorstore: vs,
		docstore:    ds,
		cfg:         cfg,
		exportPath:  exportPath,
		log:         logger.New("rag_service", "pipeline"),
	}
}

// Ingest runs the full pipeline over one document. Already-indexed entries
// are not rolled back on failure; a partially ingested document shows up as
// at-least-once rather than atomic.
func (in *Ingestor) Ingest(ctx context.Context, path string) error {
	in.log.Info(fmt.Sprintf("Processing %s", path))

	nodes, err := in.partitioner.Partition(ctx, path)
	if err != nil {
		return fmt.Errorf("failed to partition %s: %w", path, err)
	}

	images := extraction.SelectImages(nodes, in.cfg.MetadataKeys, in.cfg.ImageMinSize[0], in.cfg.ImageMinSize[1])

	chunks := nodes
	if in.chunker != nil {
		chunks, err = in.chunker.Chunk(ctx, nodes)
		if err != nil {
			return fmt.Errorf("failed to chunk %s: %w", path, err)
		}
	}

	texts := extraction.SelectTexts(chunks, in.cfg.MetadataKeys)
	tables, err := extraction.SelectTables(chunks, extraction.TableFormat(in.cfg.TableFormat), in.cfg.MetadataKeys, in.cfg.TableMinSize[0], in.cfg.TableMinSize[1])
	if err != nil {
		return err
	}

	if in.cfg.SummarizeText {
		if err := in.summarizer.SummarizeTexts(ctx, texts); err != nil {
			return fmt.Errorf("document %s: %w", path, err)
		}
	} else {
		in.log.Info("Skipping text summarization")
	}
	if in.cfg.SummarizeTable {
		if err := in.summarizer.SummarizeTables(ctx, tables); err != nil {
			return fmt.Errorf("document %s: %w", path, err)
		}
	} else {
		in.log.Info("Skipping table summarization")
	}
	// Images have no raw-text surrogate, so a summary is their only
	// searchable representation.
	if err := in.summarizer.SummarizeImages(ctx, images); err != nil {
		return fmt.Errorf("document %s: %w", path, err)
	}

	if err := in.index(ctx, texts, tables, images); err != nil {
		return fmt.Errorf("document %s: %w", path, err)
	}

	if in.cfg.ExportExtracted {
		if err := in.export(path, texts, tables, images); err != nil {
			return fmt.Errorf("document %s: %w", path, err)
		}
	}
	return nil
}

func (in *Ingestor) index(ctx context.Context, texts []*schema.Text, tables []*schema.Table, images []*schema.Image) error {
	in.log.Info("Adding texts to retriever")
	if err := in.retriever.AddElements(ctx, asElements(texts),
		retriever.Source(in.cfg.VectorstoreSource.Text), retriever.Source(in.cfg.DocstoreSource.Text)); err != nil {
		return err
	}

	in.log.Info("Adding tables to retriever")
	if err := in.retriever.AddElements(ctx, asElements(tables),
		retriever.Source(in.cfg.VectorstoreSource.Table), retriever.Source(in.cfg.DocstoreSource.Table)); err != nil {
		return err
	}

	in.log.Info("Adding images to retriever")
	return in.retriever.AddElements(ctx, asElements(images),
		retriever.Source(in.cfg.VectorstoreSource.Image), retriever.Source(in.cfg.DocstoreSource.Image))
}

// export writes all extracted elements into a per-document folder, clearing
// any previous export first.
func (in *Ingestor) export(path string, texts []*schema.Text, tables []*schema.Table, images []*schema.Image) error {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	folder := filepath.Join(in.exportPath, stem)

	if err := os.RemoveAll(folder); err != nil {
		return fmt.Errorf("failed to clear export folder %s: %w", folder, err)
	}
	if err := os.MkdirAll(folder, 0o755); err != nil {
		return fmt.Errorf("failed to create export folder %s: %w", folder, err)
	}

	for idx, el := range texts {
		if err := el.Export(filepath.Join(folder, "text"), fmt.Sprintf("%02d", idx)); err != nil {
			return err
		}
	}
	for idx, el := range tables {
		if err := el.Export(filepath.Join(folder, "table"), fmt.Sprintf("%02d", idx)); err != nil {
			return err
		}
	}
	for idx, el := range images {
		if err := el.Export(filepath.Join(folder, "image"), fmt.Sprintf("%02d", idx)); err != nil {
			return err
		}
	}
	return nil
}

// Progress reports per-document advancement during a folder ingestion run.
type Progress struct {
	Path      string
	Completed int
	Total     int
	Err       error
}

// IngestAll processes every PDF under docsFolder in sorted order. With
// clear_database set, both stores are wiped first. With continue_on_error
// set, a failed document is logged and skipped instead of aborting the run.
func (in *Ingestor) IngestAll(ctx context.Context, docsFolder string) error {
	return in.IngestAllWithProgress(ctx, docsFolder, nil)
}

// IngestAllWithProgress behaves like IngestAll and additionally sends a
// Progress update on progress after each document. The channel is closed when
// the run finishes; callers must drain it.
func (in *Ingestor) IngestAllWithProgress(ctx context.Context, docsFolder string, progress chan<- Progress) error {
	if progress != nil {
		defer close(progress)
	}
	if in.cfg.ClearDatabase {
		in.log.Warn("Clearing vectorstore and docstore before ingestion")
		if err := in.vectorstore.Clear(ctx); err != nil {
			return fmt.Errorf("failed to clear vectorstore: %w", err)
		}
		if err := in.docstore.Clear(ctx); err != nil {
			return fmt.Errorf("failed to clear docstore: %w", err)
		}
	}

	var paths []string
	err := filepath.WalkDir(docsFolder, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".pdf") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to scan %s: %w", docsFolder, err)
	}
	sort.Strings(paths)

	var failed int
	for i, path := range paths {
		err := in.Ingest(ctx, path)
		if progress != nil {
			progress <- Progress{Path: path, Completed: i + 1, Total: len(paths), Err: err}
		}
		if err != nil {
			if !in.cfg.ContinueOnError {
				return err
			}
			failed++
			in.log.Error(fmt.Sprintf("Skipping %s: %v", path, err))
		}
	}

	in.log.Info(fmt.Sprintf("Finished processing %d PDF files (%d failed)", len(paths), failed))
	if failed == len(paths) && len(paths) > 0 {
		return fmt.Errorf("all %d documents failed to ingest", failed)
	}
	return nil
}

func asElements[T schema.Element](items []T) []schema.Element {
	elements := make([]schema.Element, len(items))
	for i, item := range items {
		elements[i] = item
	}
	return elements
}
