package eval

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/betty/internal/retrieval"
)

type stubRetriever struct {
	sources map[string][]string
	errs    map[string]error
}

func (s *stubRetriever) Retrieve(_ context.Context, query string) (*retrieval.Result, error) {
	if err := s.errs[query]; err != nil {
		return nil, err
	}
	return &retrieval.Result{Sources: s.sources[query]}, nil
}

const goldenYAML = `
cases:
  - question: "What is the change control process?"
    expected_files: ["change_control.md"]
  - question: "Compare projects across all capabilities"
    expected_files: ["portfolio.md", "capabilities.md"]
`

func TestParseGoldenSet(t *testing.T) {
	set, err := ParseGoldenSet([]byte(goldenYAML))
	require.NoError(t, err)
	require.Len(t, set.Cases, 2)
	assert.Equal(t, "What is the change control process?", set.Cases[0].Question)
	assert.Equal(t, []string{"portfolio.md", "capabilities.md"}, set.Cases[1].ExpectedFiles)
}

func TestParseGoldenSet_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"no cases", "cases: []"},
		{"missing question", "cases:\n  - expected_files: [a.md]"},
		{"missing expected files", "cases:\n  - question: q"},
		{"malformed yaml", "cases: ["},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseGoldenSet([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestRunner_Run(t *testing.T) {
	set, err := ParseGoldenSet([]byte(goldenYAML))
	require.NoError(t, err)

	retr := &stubRetriever{sources: map[string][]string{
		"What is the change control process?":      {"change_control.md", "extra.md"},
		"Compare projects across all capabilities": {"portfolio.md"},
	}}

	runner, err := NewRunner(retr, zap.NewNop())
	require.NoError(t, err)

	report, err := runner.Run(context.Background(), set)
	require.NoError(t, err)

	require.Len(t, report.Cases, 2)
	assert.Equal(t, 1.0, report.Cases[0].Recall)
	assert.Equal(t, 0.5, report.Cases[1].Recall)
	assert.Equal(t, []string{"capabilities.md"}, report.Cases[1].Missing)
	assert.InDelta(t, 0.75, report.MeanRecall, 1e-9)
	assert.Equal(t, 1.0, report.HitRate)
	assert.Equal(t, 0, report.Failures)
}

func TestRunner_Run_CaseErrorIsNotFatal(t *testing.T) {
	set, err := ParseGoldenSet([]byte(goldenYAML))
	require.NoError(t, err)

	retr := &stubRetriever{
		sources: map[string][]string{
			"What is the change control process?": {"change_control.md"},
		},
		errs: map[string]error{
			"Compare projects across all capabilities": errors.New("store down"),
		},
	}

	runner, err := NewRunner(retr, zap.NewNop())
	require.NoError(t, err)

	report, err := runner.Run(context.Background(), set)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Failures)
	assert.Error(t, report.Cases[1].Err)
	// Failed cases are excluded from the averages.
	assert.Equal(t, 1.0, report.MeanRecall)
	assert.Equal(t, 1.0, report.HitRate)
}

func TestRunner_Run_EmptySet(t *testing.T) {
	runner, err := NewRunner(&stubRetriever{}, zap.NewNop())
	require.NoError(t, err)

	_, err = runner.Run(context.Background(), nil)
	assert.ErrorIs(t, err, ErrEmptyGoldenSet)
}
