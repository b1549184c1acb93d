package pipeline

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"sync"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"

	"multimodal-rag/internal/rag/interfaces"
	"multimodal-rag/internal/rag/prompts"
	"multimodal-rag/internal/rag/retriever"
	"multimodal-rag/internal/rag/schema"
	"multimodal-rag/pkg/logger"
)

// exchange is one question/answer turn of a session.
type exchange struct {
	question string
	answer   string
}

// Chain answers questions over the index: condense the question against the
// session history, retrieve payloads, rebuild elements, and generate a
// multimodal answer.
type Chain struct {
	retriever   *retriever.MultiVector
	textGen     interfaces.Generator
	visionGen   interfaces.Generator
	placeholder *schema.ImagePlaceholder
	log         *logger.Logger

	mu        sync.Mutex
	histories map[string][]exchange
}

// NewChain creates a Chain. placeholder may be nil when docstore sources
// never store summaries for image-bearing kinds.
func NewChain(r *retriever.MultiVector, textGen, visionGen interfaces.Generator, placeholder *schema.ImagePlaceholder) *Chain {
	return &Chain{
		retriever:   r,
		textGen:     textGen,
		visionGen:   visionGen,
		placeholder: placeholder,
		log:         logger.New("rag_service", "chain"),
		histories:   make(map[string][]exchange),
	}
}

// Answer runs the full question-answering flow for one session turn.
func (c *Chain) Answer(ctx context.Context, sessionID, question string) (string, error) {
	standalone, err := c.condense(ctx, sessionID, question)
	if err != nil {
		return "", err
	}

	docs, err := c.retriever.Search(ctx, standalone)
	if err != nil {
		return "", fmt.Errorf("retrieval failed: %w", err)
	}
	c.log.Info(fmt.Sprintf("Retrieved %d documents for session %s", len(docs), sessionID))

	elements, err := schema.FromDocuments(docs, c.placeholder)
	if err != nil {
		return "", fmt.Errorf("failed to rebuild elements: %w", err)
	}

	contexts, images, err := splitContext(elements)
	if err != nil {
		return "", err
	}

	prompt := interfaces.Prompt{
		Text:   prompts.RAGAnswer(standalone, contexts),
		Images: images,
	}
	gen := c.textGen
	if len(images) > 0 {
		gen = c.visionGen
	}

	answer, err := gen.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("generation failed: %w", err)
	}

	c.remember(sessionID, question, answer)
	return answer, nil
}

// ClearHistory drops the conversational memory of one session.
func (c *Chain) ClearHistory(sessionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.histories, sessionID)
}

// condense rewrites a follow-up question into a standalone one using the
// session history. First turns pass through unchanged.
func (c *Chain) condense(ctx context.Context, sessionID, question string) (string, error) {
	history := c.historyText(sessionID)
	if history == "" {
		return question, nil
	}

	standalone, err := c.textGen.Generate(ctx, interfaces.Prompt{
		Text: prompts.CondenseQuestion(history, question),
	})
	if err != nil {
		return "", fmt.Errorf("failed to condense question: %w", err)
	}
	return strings.TrimSpace(standalone), nil
}

func (c *Chain) historyText(sessionID string) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	turns := c.histories[sessionID]
	if len(turns) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, turn := range turns {
		fmt.Fprintf(&sb, "Human: %s\nAssistant: %s\n", turn.question, turn.answer)
	}
	return sb.String()
}

func (c *Chain) remember(sessionID, question, answer string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.histories[sessionID] = append(c.histories[sessionID], exchange{question: question, answer: answer})
}

// splitContext separates retrieved elements into textual context blocks and
// inline images. HTML tables are converted to markdown before prompting.
func splitContext(elements []schema.Element) ([]string, []interfaces.ImageData, error) {
	var contexts []string
	var images []interfaces.ImageData

	for _, el := range elements {
		switch {
		case el.Kind() == schema.KindImage:
			img := el.(*schema.Image)
			data, err := base64.StdEncoding.DecodeString(img.Content())
			if err != nil {
				return nil, nil, fmt.Errorf("failed to decode image payload: %w", err)
			}
			images = append(images, interfaces.ImageData{MimeType: img.MimeType(), Data: data})

		case el.Kind() == schema.KindTable && el.(*schema.Table).IsImage():
			table := el.(*schema.Table)
			data, err := base64.StdEncoding.DecodeString(table.Content())
			if err != nil {
				return nil, nil, fmt.Errorf("failed to decode table rendering: %w", err)
			}
			images = append(images, interfaces.ImageData{MimeType: table.MimeType(), Data: data})

		case el.Format() == schema.FormatHTML:
			markdown, err := htmltomarkdown.ConvertString(el.Content())
			if err != nil {
				return nil, nil, fmt.Errorf("failed to convert table to markdown: %w", err)
			}
			contexts = append(contexts, markdown)

		default:
			contexts = append(contexts, el.Content())
		}
	}
	return contexts, images, nil
}
