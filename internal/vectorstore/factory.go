package vectorstore

import (
	"fmt"

	"github.com/fyrsmithlabs/betty/internal/config"
	"go.uber.org/zap"
)

// NewStore creates a new Store based on the configuration.
//
// Examines VectorStoreConfig.Provider and creates the matching
// implementation:
//   - "chromem" (default): embedded ChromemStore, no external deps
//   - "qdrant": QdrantStore, requires a running Qdrant server
func NewStore(cfg config.VectorStoreConfig, embedder Embedder, logger *zap.Logger) (Store, error) {
	switch cfg.Provider {
	case "chromem", "":
		chromemCfg := ChromemConfig{
			Path:       cfg.Chromem.Path,
			Compress:   cfg.Chromem.Compress,
			VectorSize: cfg.Chromem.VectorSize,
		}
		return NewChromemStore(chromemCfg, embedder, logger)

	case "qdrant":
		qdrantCfg := QdrantConfig{
			Host:       cfg.Qdrant.Host,
			Port:       cfg.Qdrant.Port,
			UseTLS:     cfg.Qdrant.UseTLS,
			APIKey:     cfg.Qdrant.APIKey.Value(),
			VectorSize: uint64(cfg.Qdrant.VectorSize),
		}
		return NewQdrantStore(qdrantCfg, embedder)

	default:
		return nil, fmt.Errorf("unsupported vectorstore provider: %s (supported: chromem, qdrant)", cfg.Provider)
	}
}
