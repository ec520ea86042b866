// Package retrieval implements betty's query orchestration: deciding how a
// user query becomes one or more vector searches, merging and deduplicating
// evidence across passes, and assembling it into a bounded prompt context.
package retrieval

import (
	"errors"

	"github.com/fyrsmithlabs/betty/internal/config"
	"github.com/fyrsmithlabs/betty/internal/vectorstore"
)

// Sentinel errors for retrieval operations.
var (
	// ErrInvalidConfig indicates invalid retrieval configuration.
	ErrInvalidConfig = errors.New("invalid retrieval configuration")
)

// dedupKeyRunes is the content prefix length used as the approximate
// identity of a chunk when merging multi-pass results. Two chunks sharing
// the prefix are treated as duplicates even if they diverge later; a known
// heuristic, kept because cross-pass duplicates come from identical stored
// chunks in practice.
const dedupKeyRunes = 100

// Chunk is a retrieved unit of text plus provenance metadata.
type Chunk struct {
	// ID is the stored document identifier.
	ID string

	// Content is the chunk text. Never empty for stored chunks.
	Content string

	// Score is the similarity score from the search backend.
	Score float32

	// Metadata carries provenance; "filename" identifies the source file.
	Metadata map[string]interface{}
}

// Filename returns the source filename from metadata, or "" if absent.
func (c Chunk) Filename() string {
	if v, ok := c.Metadata[vectorstore.MetadataFilename].(string); ok {
		return v
	}
	return ""
}

// dedupKey returns the chunk's approximate identity: its first 100 runes.
// Rune-based so a multibyte character on the boundary doesn't split.
func (c Chunk) dedupKey() string {
	runes := []rune(c.Content)
	if len(runes) <= dedupKeyRunes {
		return c.Content
	}
	return string(runes[:dedupKeyRunes])
}

// SubQuery is one entry in the fixed multi-pass battery: a static domain
// sweep plus its per-query result limit.
type SubQuery struct {
	Query string
	Limit int
}

// Config holds retrieval orchestration settings.
type Config struct {
	// Collection is the knowledge base collection to search.
	Collection string

	// MaxSearchResults caps single-pass retrieval.
	MaxSearchResults int

	// UseReranking enables the secondary relevance pass in single-pass mode.
	UseReranking bool

	// MaxChunks caps the merged, deduplicated multi-pass result set.
	MaxChunks int

	// Triggers are the phrases that route a query to multi-pass retrieval.
	Triggers []string

	// SubQueries is the fixed battery issued in multi-pass mode, in order.
	SubQueries []SubQuery
}

// ConfigFrom converts the application retrieval section into a Config.
func ConfigFrom(app config.RetrievalConfig) Config {
	subQueries := make([]SubQuery, len(app.MultiPassQueries))
	for i, sq := range app.MultiPassQueries {
		subQueries[i] = SubQuery{Query: sq.Query, Limit: sq.Limit}
	}
	return Config{
		Collection:       app.Collection,
		MaxSearchResults: app.MaxSearchResults,
		UseReranking:     app.UseReranking,
		MaxChunks:        app.MaxChunks,
		Triggers:         app.MultiPassTriggers,
		SubQueries:       subQueries,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.Collection == "" {
		return errors.Join(ErrInvalidConfig, errors.New("collection cannot be empty"))
	}
	if c.MaxSearchResults <= 0 {
		return errors.Join(ErrInvalidConfig, errors.New("max search results must be positive"))
	}
	if c.MaxChunks <= 0 {
		return errors.Join(ErrInvalidConfig, errors.New("max chunks must be positive"))
	}
	for _, sq := range c.SubQueries {
		if sq.Query == "" || sq.Limit <= 0 {
			return errors.Join(ErrInvalidConfig, errors.New("sub-queries need non-empty text and positive limits"))
		}
	}
	return nil
}

// Result is the outcome of one retrieval turn.
type Result struct {
	// Chunks are the retrieved chunks, in final merged order.
	Chunks []Chunk

	// Context is the assembled text block for the system prompt.
	// Empty when no chunks were retrieved.
	Context string

	// Sources are the distinct source filenames, first-seen order.
	Sources []string

	// MultiPass reports which retrieval mode ran.
	MultiPass bool
}

// fromSearchResults converts store results into chunks, preserving order.
func fromSearchResults(results []vectorstore.SearchResult) []Chunk {
	chunks := make([]Chunk, len(results))
	for i, r := range results {
		chunks[i] = Chunk{
			ID:       r.ID,
			Content:  r.Content,
			Score:    r.Score,
			Metadata: r.Metadata,
		}
	}
	return chunks
}
