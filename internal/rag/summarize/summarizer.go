// Package summarize generates retrieval-optimized summaries for extracted
// elements, in sequential batches with transient-error retries.
package summarize

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"multimodal-rag/internal/rag/interfaces"
	"multimodal-rag/internal/rag/prompts"
	"multimodal-rag/internal/rag/schema"
	"multimodal-rag/pkg/circuitbreaker"
	"multimodal-rag/pkg/logger"
	"multimodal-rag/pkg/ratelimiter"
)

const defaultBatchSize = 10

// Summarizer attaches a summary to each element via the generation models.
// Batches run sequentially; one failed batch aborts the whole run so the
// caller never indexes a partially summarized document.
type Summarizer struct {
	textGen   interfaces.Generator
	visionGen interfaces.Generator
	batchSize int
	policy    Policy
	limiter   ratelimiter.RateLimiter
	breaker   *circuitbreaker.Breaker
	log       *logger.Logger
}

// Option configures a Summarizer.
type Option func(*Summarizer)

// WithBatchSize overrides the number of elements per generation batch.
func WithBatchSize(n int) Option {
	return func(s *Summarizer) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// WithPolicy overrides the retry policy.
func WithPolicy(p Policy) Option {
	return func(s *Summarizer) { s.policy = p }
}

// WithRateLimiter throttles generation batches.
func WithRateLimiter(l ratelimiter.RateLimiter) Option {
	return func(s *Summarizer) { s.limiter = l }
}

// WithCircuitBreaker guards generation calls with a breaker.
func WithCircuitBreaker(b *circuitbreaker.Breaker) Option {
	return func(s *Summarizer) { s.breaker = b }
}

// NewSummarizer creates a Summarizer. Text-bearing elements go through
// textGen, image-bearing ones through visionGen.
func NewSummarizer(textGen, visionGen interfaces.Generator, opts ...Option) *Summarizer {
	s := &Summarizer{
		textGen:   textGen,
		visionGen: visionGen,
		batchSize: defaultBatchSize,
		policy:    DefaultPolicy(),
		log:       logger.New("rag_service", "summarize"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SummarizeTexts summarizes text elements in place.
func (s *Summarizer) SummarizeTexts(ctx context.Context, texts []*schema.Text) error {
	elements := make([]schema.Element, len(texts))
	for i, t := range texts {
		elements[i] = t
	}
	s.log.Info(fmt.Sprintf("Summarizing %d texts", len(texts)))
	return s.summarize(ctx, elements, s.textGen, func(el schema.Element) (interfaces.Prompt, error) {
		return interfaces.Prompt{Text: prompts.TextSummarization(el.Content())}, nil
	})
}

// SummarizeTables summarizes table elements in place. Image-backed tables are
// summarized from their rendering, textual ones from their content.
func (s *Summarizer) SummarizeTables(ctx context.Context, tables []*schema.Table) error {
	elements := make([]schema.Element, len(tables))
	for i, t := range tables {
		elements[i] = t
	}
	gen := s.textGen
	if len(tables) > 0 && tables[0].IsImage() {
		gen = s.visionGen
	}
	s.log.Info(fmt.Sprintf("Summarizing %d tables", len(tables)))
	return s.summarize(ctx, elements, gen, func(el schema.Element) (interfaces.Prompt, error) {
		table := el.(*schema.Table)
		if table.IsImage() {
			return imagePrompt(prompts.ImageSummarization, table.Content(), table.MimeType())
		}
		return interfaces.Prompt{Text: prompts.TableSummarization(table.Content())}, nil
	})
}

// SummarizeImages summarizes image elements in place.
func (s *Summarizer) SummarizeImages(ctx context.Context, images []*schema.Image) error {
	elements := make([]schema.Element, len(images))
	for i, img := range images {
		elements[i] = img
	}
	s.log.Info(fmt.Sprintf("Summarizing %d images", len(images)))
	return s.summarize(ctx, elements, s.visionGen, func(el schema.Element) (interfaces.Prompt, error) {
		image := el.(*schema.Image)
		return imagePrompt(prompts.ImageSummarization, image.Content(), image.MimeType())
	})
}

// summarize walks the elements in sequential batches, generating one summary
// per element and attaching it positionally.
func (s *Summarizer) summarize(ctx context.Context, elements []schema.Element, gen interfaces.Generator, build func(schema.Element) (interfaces.Prompt, error)) error {
	for start := 0; start < len(elements); start += s.batchSize {
		end := start + s.batchSize
		if end > len(elements) {
			end = len(elements)
		}
		batch := elements[start:end]

		batchPrompts := make([]interfaces.Prompt, len(batch))
		for i, el := range batch {
			prompt, err := build(el)
			if err != nil {
				return fmt.Errorf("failed to build prompt for element %d: %w", start+i, err)
			}
			batchPrompts[i] = prompt
		}

		if err := s.waitForSlot(ctx); err != nil {
			return err
		}

		var answers []string
		err := s.policy.Do(ctx, func() error {
			call := func() error {
				var genErr error
				answers, genErr = gen.GenerateBatch(ctx, batchPrompts)
				return genErr
			}
			if s.breaker != nil {
				return s.breaker.Execute(call)
			}
			return call()
		})
		if err != nil {
			return fmt.Errorf("summarization batch %d-%d failed: %w", start, end, err)
		}
		if len(answers) != len(batch) {
			return fmt.Errorf("summarization batch returned %d answers for %d elements", len(answers), len(batch))
		}

		for i, el := range batch {
			if err := el.SetSummary(answers[i]); err != nil {
				return fmt.Errorf("element %d: %w", start+i, err)
			}
		}
	}
	return nil
}

// waitForSlot blocks until the rate limiter admits a batch.
func (s *Summarizer) waitForSlot(ctx context.Context) error {
	if s.limiter == nil {
		return nil
	}
	for !s.limiter.Allow() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(50 * time.Millisecond):
		}
	}
	return nil
}

// imagePrompt decodes the base64 payload and pairs it with the instruction.
func imagePrompt(instruction, payload, mimeType string) (interfaces.Prompt, error) {
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return interfaces.Prompt{}, fmt.Errorf("failed to decode image payload: %w", err)
	}
	return interfaces.Prompt{
		Text:   instruction,
		Images: []interfaces.ImageData{{MimeType: mimeType, Data: data}},
	}, nil
}
