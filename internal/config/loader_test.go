package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromBytes_Defaults(t *testing.T) {
	cfg, err := LoadFromBytes([]byte("{}"))
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, 8484, cfg.Server.Port)
	assert.Equal(t, "chromem", cfg.VectorStore.Provider)
	assert.Equal(t, 384, cfg.VectorStore.Chromem.VectorSize)
	assert.Equal(t, "anthropic", cfg.LLM.Provider)
	assert.Equal(t, 4000, cfg.LLM.MaxTokens)
	assert.InDelta(t, 0.2, cfg.LLM.Temperature, 1e-9)
	assert.Equal(t, "betty_knowledge", cfg.Retrieval.Collection)
	assert.Equal(t, 15, cfg.Retrieval.MaxSearchResults)
	assert.False(t, cfg.Retrieval.UseReranking)
	assert.Equal(t, 25, cfg.Retrieval.MaxChunks)
	assert.Len(t, cfg.Retrieval.MultiPassQueries, 6)
	assert.NotEmpty(t, cfg.Retrieval.MultiPassTriggers)
	assert.Equal(t, 1000, cfg.Ingest.ChunkSize)
	assert.Equal(t, 200, cfg.Ingest.ChunkOverlap)
	assert.Equal(t, "cl100k_base", cfg.Ingest.Tokenizer)
}

func TestLoadFromBytes_Overrides(t *testing.T) {
	yaml := `
server:
  port: 9191
retrieval:
  max_search_results: 5
  use_reranking: true
  multi_pass_queries:
    - query: "alpha domain sweep"
      limit: 3
    - query: "beta domain sweep"
      limit: 7
llm:
  provider: openai
  openai_model: gpt-4o-mini
`
	cfg, err := LoadFromBytes([]byte(yaml))
	require.NoError(t, err)

	assert.Equal(t, 9191, cfg.Server.Port)
	assert.Equal(t, 5, cfg.Retrieval.MaxSearchResults)
	assert.True(t, cfg.Retrieval.UseReranking)
	require.Len(t, cfg.Retrieval.MultiPassQueries, 2)
	assert.Equal(t, "alpha domain sweep", cfg.Retrieval.MultiPassQueries[0].Query)
	assert.Equal(t, 3, cfg.Retrieval.MultiPassQueries[0].Limit)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.OpenAIModel)
}

func TestLoadFromBytes_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{
			name: "bad vectorstore provider",
			yaml: "vectorstore:\n  provider: pinecone\n",
		},
		{
			name: "bad llm provider",
			yaml: "llm:\n  provider: cohere\n",
		},
		{
			name: "zero sub-query limit",
			yaml: "retrieval:\n  multi_pass_queries:\n    - query: \"x\"\n      limit: -1\n",
		},
		{
			name: "empty sub-query text",
			yaml: "retrieval:\n  multi_pass_queries:\n    - query: \"\"\n      limit: 5\n",
		},
		{
			name: "overlap exceeds chunk size",
			yaml: "ingest:\n  chunk_size: 100\n  chunk_overlap: 150\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromBytes([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoadWithFile_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadWithFile(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "chromem", cfg.VectorStore.Provider)
}

func TestLoadWithFile_EnvOverride(t *testing.T) {
	t.Setenv("RETRIEVAL_MAX_SEARCH_RESULTS", "7")
	t.Setenv("LLM_PROVIDER", "openai")

	cfg, err := LoadWithFile(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.Retrieval.MaxSearchResults)
	assert.Equal(t, "openai", cfg.LLM.Provider)
}

func TestLoadWithFile_ReadsYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := "retrieval:\n  collection: custom_kb\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := LoadWithFile(path)
	require.NoError(t, err)
	assert.Equal(t, "custom_kb", cfg.Retrieval.Collection)
}

func TestSecretRedaction(t *testing.T) {
	s := Secret("sk-ant-secret")
	assert.Equal(t, "[REDACTED]", s.String())
	assert.Equal(t, "sk-ant-secret", s.Value())
	assert.True(t, s.IsSet())

	data, err := s.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"[REDACTED]"`, string(data))

	var empty Secret
	assert.Equal(t, "", empty.String())
	assert.False(t, empty.IsSet())
}
