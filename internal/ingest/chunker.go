// Package ingest loads knowledge files into the vector store: token-aware
// chunking, provenance metadata, and batch insertion.
package ingest

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

// Sentinel errors for ingestion.
var (
	// ErrInvalidConfig indicates invalid chunker or ingester configuration.
	ErrInvalidConfig = errors.New("invalid ingest configuration")

	// ErrUnsupportedFile indicates a file type the ingester does not read.
	ErrUnsupportedFile = errors.New("unsupported file type")

	// ErrFileTooLarge indicates a file over the configured size cap.
	ErrFileTooLarge = errors.New("file exceeds maximum size")
)

const defaultTokenizer = "cl100k_base"

// Chunker splits text into overlapping token windows. Token-based rather
// than character-based so chunk boundaries line up with what the embedding
// and language models actually see.
type Chunker struct {
	enc     *tiktoken.Tiktoken
	size    int
	overlap int
}

// NewChunker creates a chunker with the given token window and overlap.
// encoding defaults to cl100k_base when empty.
func NewChunker(encoding string, size, overlap int) (*Chunker, error) {
	if encoding == "" {
		encoding = defaultTokenizer
	}
	if size <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive", ErrInvalidConfig)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("%w: overlap must be in [0, chunk size)", ErrInvalidConfig)
	}

	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("loading tokenizer %s: %w", encoding, err)
	}

	return &Chunker{enc: enc, size: size, overlap: overlap}, nil
}

// Split returns the text cut into token windows of the configured size,
// each window sharing its first overlap tokens with the previous window's
// tail. Whitespace-only text yields no chunks.
func (c *Chunker) Split(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	tokens := c.enc.Encode(text, nil, nil)
	if len(tokens) <= c.size {
		return []string{text}
	}

	step := c.size - c.overlap
	chunks := make([]string, 0, (len(tokens)+step-1)/step)
	for start := 0; start < len(tokens); start += step {
		end := start + c.size
		if end > len(tokens) {
			end = len(tokens)
		}
		chunk := c.enc.Decode(tokens[start:end])
		if strings.TrimSpace(chunk) != "" {
			chunks = append(chunks, chunk)
		}
		if end == len(tokens) {
			break
		}
	}
	return chunks
}

// CountTokens returns the token count of text under this chunker's encoding.
func (c *Chunker) CountTokens(text string) int {
	return len(c.enc.Encode(text, nil, nil))
}
