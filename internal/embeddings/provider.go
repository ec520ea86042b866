// Package embeddings provides local embedding generation for betty.
package embeddings

import (
	"errors"

	"github.com/fyrsmithlabs/betty/internal/vectorstore"
)

// Sentinel errors for embedding operations.
var (
	// ErrInvalidConfig indicates invalid provider configuration.
	ErrInvalidConfig = errors.New("invalid embeddings configuration")

	// ErrEmptyInput indicates empty input texts.
	ErrEmptyInput = errors.New("empty input")

	// ErrEmbeddingFailed indicates model inference failure.
	ErrEmbeddingFailed = errors.New("embedding generation failed")
)

// Provider is the interface for embedding providers.
type Provider interface {
	vectorstore.Embedder

	// Dimension returns the embedding dimension for the current model.
	Dimension() int

	// Close releases resources held by the provider.
	Close() error
}
