// Package reranker provides secondary relevance scoring for search results.
package reranker

import (
	"context"
	"errors"
	"sort"
	"strings"
)

// ErrNilContext is returned when a nil context is passed to Rerank.
var ErrNilContext = errors.New("context cannot be nil")

// Document is a searchable unit handed to the reranker.
type Document struct {
	ID      string  // Unique identifier for the document
	Content string  // Text content to be re-ranked
	Score   float32 // Original similarity score from vector search
}

// ScoredDocument is a document with re-ranking scores attached.
type ScoredDocument struct {
	Document
	RerankerScore float32 // Score from re-ranker (0.0-1.0)
	OriginalRank  int     // Original rank position in results (0-indexed)
}

// Reranker re-orders search results by a secondary relevance model.
type Reranker interface {
	// Rerank re-ranks documents based on query relevance, returning up to
	// topK documents sorted by combined score descending.
	Rerank(ctx context.Context, query string, docs []Document, topK int) ([]ScoredDocument, error)

	// Close releases any resources held by the reranker.
	Close() error
}

// TermOverlapReranker ranks by lexical overlap between the query and each
// document, blended 50/50 with the original vector similarity score. A
// cheap stand-in for a cross-encoder that still rewards exact term hits
// embeddings can miss.
type TermOverlapReranker struct{}

// NewTermOverlapReranker creates a new TermOverlapReranker.
func NewTermOverlapReranker() *TermOverlapReranker {
	return &TermOverlapReranker{}
}

// Rerank re-ranks documents by blended term-overlap score.
func (r *TermOverlapReranker) Rerank(ctx context.Context, query string, docs []Document, topK int) ([]ScoredDocument, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	if topK <= 0 {
		topK = len(docs)
	}
	if len(docs) == 0 {
		return []ScoredDocument{}, nil
	}

	queryTokens := tokenize(query)
	if len(queryTokens) == 0 {
		// Nothing to match against; keep the original ranking.
		return originalRank(docs, topK), nil
	}

	type scoredDoc struct {
		doc      ScoredDocument
		combined float32
	}

	scoredDocs := make([]scoredDoc, len(docs))
	for i, doc := range docs {
		overlap := termOverlap(queryTokens, tokenize(doc.Content))

		// 50% vector similarity, 50% lexical overlap.
		combined := 0.5*doc.Score + 0.5*overlap

		scoredDocs[i] = scoredDoc{
			doc: ScoredDocument{
				Document:      doc,
				RerankerScore: overlap,
				OriginalRank:  i,
			},
			combined: combined,
		}
	}

	sort.SliceStable(scoredDocs, func(i, j int) bool {
		return scoredDocs[i].combined > scoredDocs[j].combined
	})

	limit := topK
	if limit > len(scoredDocs) {
		limit = len(scoredDocs)
	}

	result := make([]ScoredDocument, limit)
	for i := 0; i < limit; i++ {
		result[i] = scoredDocs[i].doc
	}

	return result, nil
}

// Close closes the reranker. TermOverlapReranker has no resources to clean up.
func (r *TermOverlapReranker) Close() error {
	return nil
}

// originalRank preserves input order, attaching rank metadata.
func originalRank(docs []Document, topK int) []ScoredDocument {
	limit := topK
	if limit > len(docs) {
		limit = len(docs)
	}
	out := make([]ScoredDocument, limit)
	for i := 0; i < limit; i++ {
		out[i] = ScoredDocument{Document: docs[i], OriginalRank: i}
	}
	return out
}

// tokenize splits text into lowercase terms, dropping stopwords and short tokens.
func tokenize(text string) []string {
	text = strings.ToLower(text)
	tokens := strings.FieldsFunc(text, func(r rune) bool {
		return !isAlphanumeric(r)
	})

	filtered := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if !stopwords[token] && len(token) > 2 {
			filtered = append(filtered, token)
		}
	}
	return filtered
}

func isAlphanumeric(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
		(r >= '0' && r <= '9') || r == '_'
}

var stopwords = map[string]bool{
	"the": true, "and": true, "but": true,
	"for": true, "with": true, "from": true, "was": true,
	"are": true, "been": true, "being": true, "have": true, "has": true,
	"had": true, "does": true, "did": true, "will": true, "would": true,
	"could": true, "should": true, "may": true, "might": true, "can": true,
	"this": true, "that": true, "these": true, "those": true, "you": true,
	"she": true, "they": true, "what": true, "which": true, "who": true,
	"when": true, "where": true, "why": true, "how": true,
}

// termOverlap returns the fraction of unique query terms present in the document.
func termOverlap(queryTokens, docTokens []string) float32 {
	if len(queryTokens) == 0 {
		return 0.0
	}

	docTokenSet := make(map[string]bool, len(docTokens))
	for _, token := range docTokens {
		docTokenSet[token] = true
	}

	matchCount := 0
	counted := make(map[string]bool, len(queryTokens))
	uniqueQuery := 0
	for _, queryToken := range queryTokens {
		if counted[queryToken] {
			continue
		}
		counted[queryToken] = true
		uniqueQuery++
		if docTokenSet[queryToken] {
			matchCount++
		}
	}

	return float32(matchCount) / float32(uniqueQuery)
}

var _ Reranker = (*TermOverlapReranker)(nil)
