package vectorstore

import (
	"context"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// keywordEmbedder is a deterministic test embedder. Each dimension tracks
// the presence of one keyword; vectors are L2-normalized so cosine
// similarity behaves like the real thing.
type keywordEmbedder struct {
	keywords []string
}

func newKeywordEmbedder() *keywordEmbedder {
	return &keywordEmbedder{keywords: []string{"apple", "banana", "cherry", "durian"}}
}

func (e *keywordEmbedder) embed(text string) []float32 {
	lower := strings.ToLower(text)
	vec := make([]float32, len(e.keywords))
	var norm float64
	for i, kw := range e.keywords {
		if strings.Contains(lower, kw) {
			vec[i] = 1
			norm++
		}
	}
	if norm == 0 {
		// Fall back to a fixed off-axis direction so empty matches are valid vectors.
		vec[len(vec)-1] = 1
		return vec
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= scale
	}
	return vec
}

func (e *keywordEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = e.embed(t)
	}
	return out, nil
}

func (e *keywordEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	return e.embed(text), nil
}

func newTestChromemStore(t *testing.T) *ChromemStore {
	t.Helper()
	store, err := NewChromemStore(ChromemConfig{
		Path:       t.TempDir(),
		VectorSize: 4,
	}, newKeywordEmbedder(), zap.NewNop())
	require.NoError(t, err)
	return store
}

func TestChromemStoreAddAndSearch(t *testing.T) {
	store := newTestChromemStore(t)
	ctx := context.Background()

	docs := []Document{
		{ID: "d1", Content: "apple orchards", Metadata: map[string]interface{}{MetadataFilename: "fruit.txt"}},
		{ID: "d2", Content: "banana plantations", Metadata: map[string]interface{}{MetadataFilename: "fruit.txt"}},
		{ID: "d3", Content: "cherry trees", Metadata: map[string]interface{}{MetadataFilename: "orchard.txt"}},
	}

	ids, err := store.AddDocuments(ctx, "test_kb", docs)
	require.NoError(t, err)
	assert.Equal(t, []string{"d1", "d2", "d3"}, ids)

	results, err := store.Search(ctx, "test_kb", "apple", 2)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "d1", results[0].ID)
	assert.Equal(t, "apple orchards", results[0].Content)
	assert.Equal(t, "fruit.txt", results[0].Filename())
}

func TestChromemStoreSearchCapsK(t *testing.T) {
	store := newTestChromemStore(t)
	ctx := context.Background()

	_, err := store.AddDocuments(ctx, "test_kb", []Document{
		{ID: "d1", Content: "apple"},
	})
	require.NoError(t, err)

	// k larger than document count must not error.
	results, err := store.Search(ctx, "test_kb", "apple", 50)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestChromemStoreSearchValidation(t *testing.T) {
	store := newTestChromemStore(t)
	ctx := context.Background()

	_, err := store.Search(ctx, "test_kb", "apple", 0)
	assert.Error(t, err)

	_, err = store.Search(ctx, "test_kb", "", 5)
	assert.Error(t, err)

	_, err = store.Search(ctx, "Bad-Name!", "apple", 5)
	assert.ErrorIs(t, err, ErrInvalidCollectionName)

	_, err = store.Search(ctx, "missing_collection", "apple", 5)
	assert.ErrorIs(t, err, ErrCollectionNotFound)
}

func TestChromemStoreAddDocumentsEmpty(t *testing.T) {
	store := newTestChromemStore(t)

	_, err := store.AddDocuments(context.Background(), "test_kb", nil)
	assert.ErrorIs(t, err, ErrEmptyDocuments)
}

func TestChromemStoreCollections(t *testing.T) {
	store := newTestChromemStore(t)
	ctx := context.Background()

	exists, err := store.CollectionExists(ctx, "test_kb")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, store.CreateCollection(ctx, "test_kb", 4))

	exists, err = store.CollectionExists(ctx, "test_kb")
	require.NoError(t, err)
	assert.True(t, exists)

	names, err := store.ListCollections(ctx)
	require.NoError(t, err)
	assert.Contains(t, names, "test_kb")

	info, err := store.GetCollectionInfo(ctx, "test_kb")
	require.NoError(t, err)
	assert.Equal(t, "test_kb", info.Name)
	assert.Equal(t, 0, info.PointCount)

	_, err = store.GetCollectionInfo(ctx, "missing_collection")
	assert.ErrorIs(t, err, ErrCollectionNotFound)
}

func TestChromemStoreCreateCollectionVectorSizeMismatch(t *testing.T) {
	store := newTestChromemStore(t)

	err := store.CreateCollection(context.Background(), "test_kb", 768)
	assert.Error(t, err)
}

func TestChromemStoreDeleteDocuments(t *testing.T) {
	store := newTestChromemStore(t)
	ctx := context.Background()

	_, err := store.AddDocuments(ctx, "test_kb", []Document{
		{ID: "d1", Content: "apple"},
		{ID: "d2", Content: "banana"},
	})
	require.NoError(t, err)

	require.NoError(t, store.DeleteDocuments(ctx, "test_kb", []string{"d1"}))

	info, err := store.GetCollectionInfo(ctx, "test_kb")
	require.NoError(t, err)
	assert.Equal(t, 1, info.PointCount)

	// Deleting nothing is a no-op.
	assert.NoError(t, store.DeleteDocuments(ctx, "test_kb", nil))
}

func TestValidateCollectionName(t *testing.T) {
	assert.NoError(t, ValidateCollectionName("betty_knowledge"))
	assert.NoError(t, ValidateCollectionName("kb1"))
	assert.Error(t, ValidateCollectionName(""))
	assert.Error(t, ValidateCollectionName("Betty"))
	assert.Error(t, ValidateCollectionName("has space"))
	assert.Error(t, ValidateCollectionName(strings.Repeat("a", 65)))
}
