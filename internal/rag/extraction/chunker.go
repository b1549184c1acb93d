package extraction

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

// TokenChunker merges consecutive text-bearing nodes and re-splits them into
// composite blocks of at most ChunkSize tokens, with ChunkOverlap tokens of
// overlap between consecutive blocks. Image and table nodes pass through
// unchanged and act as run boundaries.
type TokenChunker struct {
	ChunkSize    int
	ChunkOverlap int
	tokenizer    *tiktoken.Tiktoken
}

// NewTokenChunker creates a TokenChunker.
// It uses the cl100k_base encoding, matching the embedding model's tokenizer family.
func NewTokenChunker(chunkSize, chunkOverlap int) (*TokenChunker, error) {
	if chunkSize <= 0 || chunkOverlap < 0 || chunkOverlap >= chunkSize {
		return nil, fmt.Errorf("invalid chunking bounds: size %d, overlap %d", chunkSize, chunkOverlap)
	}
	tke, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return nil, fmt.Errorf("failed to get tiktoken encoding: %w", err)
	}

	return &TokenChunker{
		ChunkSize:    chunkSize,
		ChunkOverlap: chunkOverlap,
		tokenizer:    tke,
	}, nil
}

// Chunk rewrites the node list, replacing each run of text-bearing nodes with
// token-bounded composite nodes. Metadata on emitted chunks is taken from the
// first node of the run.
func (c *TokenChunker) Chunk(ctx context.Context, nodes []*Node) ([]*Node, error) {
	var (
		out []*Node
		run []*Node
	)

	flush := func() {
		if len(run) == 0 {
			return
		}
		out = append(out, c.splitRun(run)...)
		run = nil
	}

	for _, node := range nodes {
		if node.isTextBearing() {
			run = append(run, node)
			continue
		}
		flush()
		out = append(out, node)
	}
	flush()

	return out, nil
}

// splitRun joins a run of text nodes and windows the token stream.
func (c *TokenChunker) splitRun(run []*Node) []*Node {
	var parts []string
	for _, node := range run {
		if strings.TrimSpace(node.Text) != "" {
			parts = append(parts, node.Text)
		}
	}
	if len(parts) == 0 {
		return nil
	}

	tokens := c.tokenizer.Encode(strings.Join(parts, "\n\n"), nil, nil)
	step := c.ChunkSize - c.ChunkOverlap

	var chunks []*Node
	for start := 0; start < len(tokens); start += step {
		end := start + c.ChunkSize
		if end > len(tokens) {
			end = len(tokens)
		}

		chunks = append(chunks, &Node{
			Type:     NodeTypeComposite,
			Text:     c.tokenizer.Decode(tokens[start:end]),
			Metadata: copyNodeMetadata(run[0].Metadata),
		})

		if end == len(tokens) {
			break
		}
	}
	return chunks
}

func copyNodeMetadata(md map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(md))
	for k, v := range md {
		out[k] = v
	}
	return out
}
