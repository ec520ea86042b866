package retrieval

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/betty/internal/reranker"
	"github.com/fyrsmithlabs/betty/internal/vectorstore"
)

// Searcher is the narrow slice of the vector store retrieval depends on.
// vectorstore.Store satisfies it.
type Searcher interface {
	Search(ctx context.Context, collectionName string, query string, k int) ([]vectorstore.SearchResult, error)
}

// Retriever orchestrates retrieval for one chat turn: classify the query,
// run the right mode, assemble the prompt context. Stateless per call;
// safe for concurrent use.
type Retriever struct {
	cfg        Config
	store      Searcher
	classifier *Classifier
	reranker   reranker.Reranker
	logger     *zap.Logger
	metrics    *Metrics
}

// New creates a Retriever. The reranker may be nil when Config.UseReranking
// is false.
func New(cfg Config, store Searcher, rr reranker.Reranker, logger *zap.Logger) (*Retriever, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if store == nil {
		return nil, fmt.Errorf("%w: store is required", ErrInvalidConfig)
	}
	if cfg.UseReranking && rr == nil {
		return nil, fmt.Errorf("%w: reranking enabled but no reranker provided", ErrInvalidConfig)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Retriever{
		cfg:        cfg,
		store:      store,
		classifier: NewClassifier(cfg.Triggers),
		reranker:   rr,
		logger:     logger,
		metrics:    NewMetrics(logger),
	}, nil
}

// Retrieve runs one retrieval turn for the given user query.
//
// Multi-pass failures degrade to an empty result; single-pass failures
// surface to the caller, which decides whether to answer without context.
func (r *Retriever) Retrieve(ctx context.Context, query string) (*Result, error) {
	multiPass := r.classifier.NeedsMultiPass(query)

	var chunks []Chunk
	var err error
	if multiPass {
		chunks = r.MultiPass(ctx, query)
	} else {
		chunks, err = r.SinglePass(ctx, query, r.cfg.MaxSearchResults)
		if err != nil {
			return nil, err
		}
	}

	block, sources := AssembleContext(chunks)

	r.metrics.RecordRetrieval(ctx, multiPass, len(chunks))

	return &Result{
		Chunks:    chunks,
		Context:   block,
		Sources:   sources,
		MultiPass: multiPass,
	}, nil
}

// MultiPass issues the fixed sub-query battery sequentially, merges the
// results in plan order, deduplicates by content prefix (first seen wins)
// and truncates to the configured cap.
//
// The original user query is used only for logging; the searches run the
// static domain sweeps. A failing sub-query is logged and skipped; only if
// every sub-query fails does the result degrade to empty, which the caller
// treats as the no-context case, not an error.
func (r *Retriever) MultiPass(ctx context.Context, originalQuery string) []Chunk {
	r.logger.Debug("multi-pass retrieval",
		zap.String("query", originalQuery),
		zap.Int("sub_queries", len(r.cfg.SubQueries)),
	)

	var merged []Chunk
	for _, sq := range r.cfg.SubQueries {
		results, err := r.store.Search(ctx, r.cfg.Collection, sq.Query, sq.Limit)
		if err != nil {
			r.logger.Warn("multi-pass sub-query failed",
				zap.String("sub_query", sq.Query),
				zap.Error(err),
			)
			r.metrics.RecordSubQueryFailure(ctx)
			continue
		}
		merged = append(merged, fromSearchResults(results)...)
	}

	unique := DedupByContentPrefix(merged)

	if len(unique) > r.cfg.MaxChunks {
		unique = unique[:r.cfg.MaxChunks]
	}
	return unique
}

// SinglePass runs one focused search, optionally reranked.
func (r *Retriever) SinglePass(ctx context.Context, query string, limit int) ([]Chunk, error) {
	if limit <= 0 {
		limit = r.cfg.MaxSearchResults
	}

	results, err := r.store.Search(ctx, r.cfg.Collection, query, limit)
	if err != nil {
		return nil, fmt.Errorf("searching collection %s: %w", r.cfg.Collection, err)
	}

	chunks := fromSearchResults(results)

	if r.cfg.UseReranking && len(chunks) > 0 {
		chunks, err = r.rerank(ctx, query, chunks, limit)
		if err != nil {
			// Reranking is an enhancement; fall back to the original order.
			r.logger.Warn("reranking failed, using original order", zap.Error(err))
		}
	}

	return chunks, nil
}

// rerank applies the secondary relevance pass, preserving chunk metadata.
func (r *Retriever) rerank(ctx context.Context, query string, chunks []Chunk, topK int) ([]Chunk, error) {
	docs := make([]reranker.Document, len(chunks))
	byID := make(map[string]Chunk, len(chunks))
	for i, c := range chunks {
		docs[i] = reranker.Document{ID: c.ID, Content: c.Content, Score: c.Score}
		byID[c.ID] = c
	}

	ranked, err := r.reranker.Rerank(ctx, query, docs, topK)
	if err != nil {
		return chunks, err
	}

	out := make([]Chunk, 0, len(ranked))
	for _, doc := range ranked {
		c := byID[doc.ID]
		c.Score = doc.RerankerScore
		out = append(out, c)
	}
	return out, nil
}

// DedupByContentPrefix removes duplicate chunks, keeping the first
// occurrence of each 100-rune content prefix. Stable: survivors keep their
// input order. Idempotent.
func DedupByContentPrefix(chunks []Chunk) []Chunk {
	seen := make(map[string]struct{}, len(chunks))
	unique := make([]Chunk, 0, len(chunks))
	for _, c := range chunks {
		key := c.dedupKey()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, c)
	}
	return unique
}
