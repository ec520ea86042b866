package retrieval

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fyrsmithlabs/betty/internal/vectorstore"
)

func mkChunk(content, filename string) Chunk {
	c := Chunk{Content: content}
	if filename != "" {
		c.Metadata = map[string]interface{}{vectorstore.MetadataFilename: filename}
	}
	return c
}

func TestAssembleContext(t *testing.T) {
	tests := []struct {
		name        string
		chunks      []Chunk
		wantContext string
		wantSources []string
	}{
		{
			name:        "empty input is a no-op",
			chunks:      nil,
			wantContext: "",
			wantSources: nil,
		},
		{
			name:        "single chunk",
			chunks:      []Chunk{mkChunk("PLM owns change control.", "change_control.md")},
			wantContext: "Document: change_control.md\nContent: PLM owns change control.",
			wantSources: []string{"change_control.md"},
		},
		{
			name: "multiple chunks joined by blank line, sources deduplicated",
			chunks: []Chunk{
				mkChunk("First chunk.", "a.md"),
				mkChunk("Second chunk.", "b.md"),
				mkChunk("Third chunk.", "a.md"),
			},
			wantContext: "Document: a.md\nContent: First chunk.\n\n" +
				"Document: b.md\nContent: Second chunk.\n\n" +
				"Document: a.md\nContent: Third chunk.",
			wantSources: []string{"a.md", "b.md"},
		},
		{
			name: "missing filename renders unknown and yields no source",
			chunks: []Chunk{
				mkChunk("Orphan chunk.", ""),
				mkChunk("Named chunk.", "named.md"),
			},
			wantContext: "Document: unknown\nContent: Orphan chunk.\n\n" +
				"Document: named.md\nContent: Named chunk.",
			wantSources: []string{"named.md"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotContext, gotSources := AssembleContext(tt.chunks)
			assert.Equal(t, tt.wantContext, gotContext)
			assert.Equal(t, tt.wantSources, gotSources)
		})
	}
}

func TestAssembleContext_SourceOrderIsFirstSeen(t *testing.T) {
	chunks := []Chunk{
		mkChunk("c1", "z.md"),
		mkChunk("c2", "a.md"),
		mkChunk("c3", "z.md"),
		mkChunk("c4", "m.md"),
	}
	_, sources := AssembleContext(chunks)
	assert.Equal(t, []string{"z.md", "a.md", "m.md"}, sources)
}

func TestAssembleContext_PreservesChunkText(t *testing.T) {
	// Chunk text containing the separator or the field labels must pass
	// through verbatim.
	content := "Document: fake\n\nContent: nested"
	block, _ := AssembleContext([]Chunk{mkChunk(content, "real.md")})
	assert.True(t, strings.HasPrefix(block, "Document: real.md\nContent: Document: fake"))
	assert.Contains(t, block, content)
}
