// Package config provides configuration loading for betty.
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration for the betty daemon.
type Config struct {
	Server      ServerConfig      `koanf:"server"`
	Logging     LoggingConfig     `koanf:"logging"`
	VectorStore VectorStoreConfig `koanf:"vectorstore"`
	Embeddings  EmbeddingsConfig  `koanf:"embeddings"`
	LLM         LLMConfig         `koanf:"llm"`
	Retrieval   RetrievalConfig   `koanf:"retrieval"`
	Ingest      IngestConfig      `koanf:"ingest"`
	Chat        ChatConfig        `koanf:"chat"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string   `koanf:"host"`
	Port            int      `koanf:"port"`
	ShutdownTimeout Duration `koanf:"shutdown_timeout"`
}

// LoggingConfig holds logger configuration.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error.
	Level string `koanf:"level"`
	// Format is the output encoding: json or console.
	Format string `koanf:"format"`
}

// VectorStoreConfig selects and configures the vector store backend.
type VectorStoreConfig struct {
	// Provider is the backend type: "chromem" (embedded, default) or "qdrant".
	Provider string        `koanf:"provider"`
	Chromem  ChromemConfig `koanf:"chromem"`
	Qdrant   QdrantConfig  `koanf:"qdrant"`
}

// ChromemConfig configures the embedded chromem-go store.
type ChromemConfig struct {
	Path       string `koanf:"path"`
	Compress   bool   `koanf:"compress"`
	VectorSize int    `koanf:"vector_size"`
}

// QdrantConfig configures the external Qdrant gRPC store.
type QdrantConfig struct {
	Host       string `koanf:"host"`
	Port       int    `koanf:"port"`
	UseTLS     bool   `koanf:"use_tls"`
	APIKey     Secret `koanf:"api_key"`
	VectorSize int    `koanf:"vector_size"`
}

// EmbeddingsConfig configures local embedding generation.
type EmbeddingsConfig struct {
	Model    string `koanf:"model"`
	CacheDir string `koanf:"cache_dir"`
}

// LLMConfig configures the language model provider.
type LLMConfig struct {
	// Provider selects the backend: "anthropic" or "openai".
	Provider        string  `koanf:"provider"`
	AnthropicAPIKey Secret  `koanf:"anthropic_api_key"`
	OpenAIAPIKey    Secret  `koanf:"openai_api_key"`
	AnthropicModel  string  `koanf:"anthropic_model"`
	OpenAIModel     string  `koanf:"openai_model"`
	MaxTokens       int     `koanf:"max_tokens"`
	Temperature     float64 `koanf:"temperature"`
	TopP            float64 `koanf:"top_p"`
}

// SubQueryConfig is one entry in the fixed multi-pass battery.
type SubQueryConfig struct {
	Query string `koanf:"query"`
	Limit int    `koanf:"limit"`
}

// RetrievalConfig configures retrieval orchestration.
type RetrievalConfig struct {
	// Collection is the knowledge base collection searched on every turn.
	Collection string `koanf:"collection"`

	// MaxSearchResults caps single-pass retrieval.
	MaxSearchResults int `koanf:"max_search_results"`

	// UseReranking enables the secondary relevance pass in single-pass mode.
	UseReranking bool `koanf:"use_reranking"`

	// MaxChunks caps the merged multi-pass result set.
	MaxChunks int `koanf:"max_chunks"`

	// MultiPassTriggers are the phrases that switch a query to multi-pass
	// retrieval. Matching is case-insensitive substring.
	MultiPassTriggers []string `koanf:"multi_pass_triggers"`

	// MultiPassQueries is the fixed sub-query battery issued in multi-pass
	// mode. The entries are static domain sweeps, independent of the live
	// user query.
	MultiPassQueries []SubQueryConfig `koanf:"multi_pass_queries"`
}

// IngestConfig configures document chunking and ingestion.
type IngestConfig struct {
	ChunkSize     int    `koanf:"chunk_size"`
	ChunkOverlap  int    `koanf:"chunk_overlap"`
	Tokenizer     string `koanf:"tokenizer"`
	MaxFileSizeMB int    `koanf:"max_file_size_mb"`
}

// ChatConfig configures the chat service.
type ChatConfig struct {
	// SystemPromptPath points to a prompt file. Empty uses the built-in prompt.
	SystemPromptPath string `koanf:"system_prompt_path"`
}

// DefaultMultiPassTriggers returns the built-in multi-pass trigger phrases.
// Three groups: project analysis, cross-domain analysis, comprehensiveness.
func DefaultMultiPassTriggers() []string {
	return []string{
		"identify projects", "compare projects", "consolidate projects",
		"similar projects", "project overlap", "combine projects",
		"project consolidation", "merge projects",

		"across all capabilities", "across capabilities", "all domains",
		"cross-capability", "cross-domain", "enterprise-wide",

		"comprehensive analysis", "complete list", "all instances",
		"portfolio analysis", "strategic overview", "full inventory",
	}
}

// DefaultMultiPassQueries returns the built-in sub-query battery: five
// domain sweeps plus a dependencies/relationships sweep, five results each.
// Tuned for coverage vs latency (~6 sequential calls, ~25-30 unique chunks).
func DefaultMultiPassQueries() []SubQueryConfig {
	return []SubQueryConfig{
		{Query: "Change Control Management projects descriptions", Limit: 5},
		{Query: "BOM PIM Management projects descriptions", Limit: 5},
		{Query: "Requirements Management projects descriptions", Limit: 5},
		{Query: "Data AI projects descriptions", Limit: 5},
		{Query: "Design Management Collaboration projects", Limit: 5},
		{Query: "project dependencies impact portfolio relationships", Limit: 5},
	}
}

// applyDefaults sets default values for missing configuration fields.
func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8484
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = Duration(10 * time.Second)
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	if cfg.VectorStore.Provider == "" {
		cfg.VectorStore.Provider = "chromem"
	}
	if cfg.VectorStore.Chromem.Path == "" {
		cfg.VectorStore.Chromem.Path = "~/.config/betty/vectorstore"
	}
	if cfg.VectorStore.Chromem.VectorSize == 0 {
		cfg.VectorStore.Chromem.VectorSize = 384 // bge-small-en-v1.5 dimensions
	}
	if cfg.VectorStore.Qdrant.Host == "" {
		cfg.VectorStore.Qdrant.Host = "localhost"
	}
	if cfg.VectorStore.Qdrant.Port == 0 {
		cfg.VectorStore.Qdrant.Port = 6334
	}
	if cfg.VectorStore.Qdrant.VectorSize == 0 {
		cfg.VectorStore.Qdrant.VectorSize = 384
	}

	if cfg.Embeddings.Model == "" {
		cfg.Embeddings.Model = "BAAI/bge-small-en-v1.5"
	}

	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = "anthropic"
	}
	if cfg.LLM.AnthropicModel == "" {
		cfg.LLM.AnthropicModel = "claude-sonnet-4-20250514"
	}
	if cfg.LLM.OpenAIModel == "" {
		cfg.LLM.OpenAIModel = "gpt-4o"
	}
	if cfg.LLM.MaxTokens == 0 {
		cfg.LLM.MaxTokens = 4000
	}
	if cfg.LLM.Temperature == 0 {
		cfg.LLM.Temperature = 0.2
	}
	if cfg.LLM.TopP == 0 {
		cfg.LLM.TopP = 0.9
	}

	if cfg.Retrieval.Collection == "" {
		cfg.Retrieval.Collection = "betty_knowledge"
	}
	if cfg.Retrieval.MaxSearchResults == 0 {
		cfg.Retrieval.MaxSearchResults = 15
	}
	if cfg.Retrieval.MaxChunks == 0 {
		cfg.Retrieval.MaxChunks = 25
	}
	if len(cfg.Retrieval.MultiPassTriggers) == 0 {
		cfg.Retrieval.MultiPassTriggers = DefaultMultiPassTriggers()
	}
	if len(cfg.Retrieval.MultiPassQueries) == 0 {
		cfg.Retrieval.MultiPassQueries = DefaultMultiPassQueries()
	}

	if cfg.Ingest.ChunkSize == 0 {
		cfg.Ingest.ChunkSize = 1000
	}
	if cfg.Ingest.ChunkOverlap == 0 {
		cfg.Ingest.ChunkOverlap = 200
	}
	if cfg.Ingest.Tokenizer == "" {
		cfg.Ingest.Tokenizer = "cl100k_base"
	}
	if cfg.Ingest.MaxFileSizeMB == 0 {
		cfg.Ingest.MaxFileSizeMB = 10
	}
}

// Validate checks configuration consistency.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	switch c.VectorStore.Provider {
	case "chromem", "qdrant":
	default:
		return fmt.Errorf("invalid vectorstore provider: %q (must be chromem or qdrant)", c.VectorStore.Provider)
	}

	switch c.LLM.Provider {
	case "anthropic", "openai":
	default:
		return fmt.Errorf("invalid llm provider: %q (must be anthropic or openai)", c.LLM.Provider)
	}

	if c.Retrieval.MaxSearchResults <= 0 {
		return fmt.Errorf("retrieval.max_search_results must be positive, got %d", c.Retrieval.MaxSearchResults)
	}
	if c.Retrieval.MaxChunks <= 0 {
		return fmt.Errorf("retrieval.max_chunks must be positive, got %d", c.Retrieval.MaxChunks)
	}
	for i, sq := range c.Retrieval.MultiPassQueries {
		if sq.Query == "" {
			return fmt.Errorf("retrieval.multi_pass_queries[%d]: query cannot be empty", i)
		}
		if sq.Limit <= 0 {
			return fmt.Errorf("retrieval.multi_pass_queries[%d]: limit must be positive, got %d", i, sq.Limit)
		}
	}

	if c.Ingest.ChunkSize <= 0 {
		return fmt.Errorf("ingest.chunk_size must be positive, got %d", c.Ingest.ChunkSize)
	}
	if c.Ingest.ChunkOverlap < 0 {
		return fmt.Errorf("ingest.chunk_overlap cannot be negative, got %d", c.Ingest.ChunkOverlap)
	}
	if c.Ingest.ChunkOverlap >= c.Ingest.ChunkSize {
		return fmt.Errorf("ingest.chunk_overlap (%d) must be smaller than chunk_size (%d)", c.Ingest.ChunkOverlap, c.Ingest.ChunkSize)
	}

	return nil
}
