package retrieval

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fyrsmithlabs/betty/internal/config"
)

func TestClassifier_NeedsMultiPass(t *testing.T) {
	c := NewClassifier(config.DefaultMultiPassTriggers())

	tests := []struct {
		name  string
		query string
		want  bool
	}{
		{
			name:  "cross-capability comparison triggers",
			query: "Compare projects across all capabilities",
			want:  true,
		},
		{
			name:  "uppercase trigger still matches",
			query: "GIVE ME A COMPREHENSIVE ANALYSIS OF THE PORTFOLIO",
			want:  true,
		},
		{
			name:  "mixed case mid-sentence",
			query: "Are there Similar Projects we should merge?",
			want:  true,
		},
		{
			name:  "consolidation trigger",
			query: "identify projects that overlap in scope",
			want:  true,
		},
		{
			name:  "enterprise-wide trigger",
			query: "what initiatives are enterprise-wide this quarter",
			want:  true,
		},
		{
			name:  "complete list trigger",
			query: "send me the complete list before Friday",
			want:  true,
		},
		{
			name:  "focused question does not trigger",
			query: "What is Betty?",
			want:  false,
		},
		{
			name:  "specific project question does not trigger",
			query: "Who owns the requirements traceability work?",
			want:  false,
		},
		{
			name:  "empty query",
			query: "",
			want:  false,
		},
		{
			name:  "near-miss phrase does not trigger",
			query: "compare the project timelines",
			want:  false,
		},
		{
			name:  "single word from a trigger does not trigger",
			query: "portfolio review next week",
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.NeedsMultiPass(tt.query))
		})
	}
}

func TestClassifier_Deterministic(t *testing.T) {
	c := NewClassifier(config.DefaultMultiPassTriggers())

	query := "portfolio analysis of all domains"
	first := c.NeedsMultiPass(query)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, c.NeedsMultiPass(query))
	}
	assert.True(t, first)
}

func TestClassifier_EmptyTriggerIgnored(t *testing.T) {
	// An empty trigger phrase must not match every query.
	c := NewClassifier([]string{"", "all projects"})

	assert.False(t, c.NeedsMultiPass("what is the roadmap"))
	assert.True(t, c.NeedsMultiPass("list all projects"))
}

func TestClassifier_NoTriggers(t *testing.T) {
	c := NewClassifier(nil)
	assert.False(t, c.NeedsMultiPass("comprehensive analysis across all capabilities"))
}
