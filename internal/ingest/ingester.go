package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/betty/internal/config"
	"github.com/fyrsmithlabs/betty/internal/vectorstore"
)

// supportedExtensions are the plain-text formats the ingester reads.
var supportedExtensions = map[string]bool{
	".txt": true,
	".md":  true,
	".csv": true,
}

// Ingester chunks files and writes them into the knowledge collection.
type Ingester struct {
	store      vectorstore.Store
	chunker    *Chunker
	collection string
	maxBytes   int64
	logger     *zap.Logger
}

// FileResult summarizes one ingested file.
type FileResult struct {
	Filename string
	Chunks   int
	IDs      []string
}

// New creates an Ingester for the configured collection.
func New(store vectorstore.Store, cfg config.IngestConfig, retrieval config.RetrievalConfig, logger *zap.Logger) (*Ingester, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: store is required", ErrInvalidConfig)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	chunker, err := NewChunker(cfg.Tokenizer, cfg.ChunkSize, cfg.ChunkOverlap)
	if err != nil {
		return nil, err
	}

	return &Ingester{
		store:      store,
		chunker:    chunker,
		collection: retrieval.Collection,
		maxBytes:   int64(cfg.MaxFileSizeMB) * 1024 * 1024,
		logger:     logger,
	}, nil
}

// IngestFile reads, chunks, and stores a single file. The stored metadata
// carries the base filename and chunk index so retrieval can cite sources.
func (i *Ingester) IngestFile(ctx context.Context, path string) (*FileResult, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if !supportedExtensions[ext] {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFile, ext)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if i.maxBytes > 0 && info.Size() > i.maxBytes {
		return nil, fmt.Errorf("%w: %s is %d bytes", ErrFileTooLarge, path, info.Size())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	filename := filepath.Base(path)
	return i.IngestText(ctx, filename, string(data))
}

// IngestText chunks and stores raw text under the given source filename.
func (i *Ingester) IngestText(ctx context.Context, filename, text string) (*FileResult, error) {
	chunks := i.chunker.Split(text)
	if len(chunks) == 0 {
		i.logger.Warn("no chunks produced", zap.String("filename", filename))
		return &FileResult{Filename: filename}, nil
	}

	docs := make([]vectorstore.Document, len(chunks))
	for idx, chunk := range chunks {
		docs[idx] = vectorstore.Document{
			ID:      uuid.New().String(),
			Content: chunk,
			Metadata: map[string]interface{}{
				vectorstore.MetadataFilename: filename,
				"chunk_index":                idx,
			},
		}
	}

	ids, err := i.store.AddDocuments(ctx, i.collection, docs)
	if err != nil {
		return nil, fmt.Errorf("storing %s: %w", filename, err)
	}

	i.logger.Info("ingested file",
		zap.String("filename", filename),
		zap.Int("chunks", len(chunks)),
	)

	return &FileResult{Filename: filename, Chunks: len(chunks), IDs: ids}, nil
}

// IngestDirectory ingests every supported file directly under dir.
// Unsupported files are skipped; read or store failures abort.
func (i *Ingester) IngestDirectory(ctx context.Context, dir string) ([]FileResult, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading directory %s: %w", dir, err)
	}

	var results []FileResult
	for _, entry := range entries {
		if entry.IsDir() || !supportedExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			continue
		}
		result, err := i.IngestFile(ctx, filepath.Join(dir, entry.Name()))
		if err != nil {
			return results, err
		}
		results = append(results, *result)
	}
	return results, nil
}
