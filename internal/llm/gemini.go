package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"multimodal-rag/internal/rag/interfaces"
	"multimodal-rag/pkg/logger"
)

var log = logger.New("rag_service", "llm")

// Gemini is a multimodal generation client backed by the Google GenAI API.
type Gemini struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewGemini creates a Gemini client for the given model.
func NewGemini(ctx context.Context, apiKey, modelName string) (*Gemini, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &Gemini{
		client: client,
		model:  client.GenerativeModel(modelName),
	}, nil
}

// Generate answers a single prompt, inlining any attached images before the
// text part.
func (g *Gemini) Generate(ctx context.Context, prompt interfaces.Prompt) (string, error) {
	parts := make([]genai.Part, 0, len(prompt.Images)+1)
	for _, img := range prompt.Images {
		parts = append(parts, genai.Blob{
			MIMEType: img.MimeType,
			Data:     img.Data,
		})
	}
	parts = append(parts, genai.Text(prompt.Text))

	resp, err := g.model.GenerateContent(ctx, parts...)
	if err != nil {
		return "", err
	}
	return textFromResponse(resp)
}

// GenerateBatch answers each prompt independently, preserving order. The
// first failure aborts the batch.
func (g *Gemini) GenerateBatch(ctx context.Context, prompts []interfaces.Prompt) ([]string, error) {
	answers := make([]string, 0, len(prompts))
	for i, prompt := range prompts {
		answer, err := g.Generate(ctx, prompt)
		if err != nil {
			return nil, fmt.Errorf("generation %d/%d failed: %w", i+1, len(prompts), err)
		}
		answers = append(answers, answer)
	}
	return answers, nil
}

// Close releases the underlying API client.
func (g *Gemini) Close() error {
	return g.client.Close()
}

// textFromResponse concatenates the text parts of the first candidate.
func textFromResponse(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("gemini response contained no candidates")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	if sb.Len() == 0 {
		log.Warn("gemini candidate contained no text parts")
		return "", fmt.Errorf("gemini response contained no text")
	}
	return sb.String(), nil
}

var _ interfaces.Generator = (*Gemini)(nil)
