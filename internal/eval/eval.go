// Package eval measures retrieval quality against a golden set of
// questions with known source files.
package eval

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/fyrsmithlabs/betty/internal/retrieval"
)

// Sentinel errors for evaluation.
var (
	// ErrEmptyGoldenSet indicates a golden set with no cases.
	ErrEmptyGoldenSet = errors.New("golden set has no cases")
)

// Case is one golden question: the query and the files a correct
// retrieval should surface.
type Case struct {
	Question      string   `yaml:"question"`
	ExpectedFiles []string `yaml:"expected_files"`
}

// GoldenSet is a retrieval evaluation suite.
type GoldenSet struct {
	Cases []Case `yaml:"cases"`
}

// LoadGoldenSet reads a golden set from a YAML file.
func LoadGoldenSet(path string) (*GoldenSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading golden set: %w", err)
	}
	return ParseGoldenSet(data)
}

// ParseGoldenSet parses golden set YAML.
func ParseGoldenSet(data []byte) (*GoldenSet, error) {
	var set GoldenSet
	if err := yaml.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("parsing golden set: %w", err)
	}
	if len(set.Cases) == 0 {
		return nil, ErrEmptyGoldenSet
	}
	for i, c := range set.Cases {
		if c.Question == "" {
			return nil, fmt.Errorf("case %d: question cannot be empty", i)
		}
		if len(c.ExpectedFiles) == 0 {
			return nil, fmt.Errorf("case %d: expected_files cannot be empty", i)
		}
	}
	return &set, nil
}

// CaseResult is the outcome of one evaluated case.
type CaseResult struct {
	Question   string
	Expected   []string
	Retrieved  []string
	Found      []string
	Missing    []string
	Recall     float64
	MultiPass  bool
	ChunkCount int
	Err        error
}

// Report aggregates a full evaluation run.
type Report struct {
	Cases []CaseResult

	// MeanRecall is the average per-case file recall.
	MeanRecall float64

	// HitRate is the fraction of cases where at least one expected file
	// was retrieved.
	HitRate float64

	// Failures counts cases whose retrieval errored.
	Failures int
}

// Retriever is the retrieval surface under evaluation.
type Retriever interface {
	Retrieve(ctx context.Context, query string) (*retrieval.Result, error)
}

// Runner evaluates a retriever against golden sets.
type Runner struct {
	retriever Retriever
	logger    *zap.Logger
}

// NewRunner creates an evaluation runner.
func NewRunner(retriever Retriever, logger *zap.Logger) (*Runner, error) {
	if retriever == nil {
		return nil, errors.New("retriever is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{retriever: retriever, logger: logger}, nil
}

// Run evaluates every case and aggregates the report. Case-level retrieval
// errors are recorded, not fatal.
func (r *Runner) Run(ctx context.Context, set *GoldenSet) (*Report, error) {
	if set == nil || len(set.Cases) == 0 {
		return nil, ErrEmptyGoldenSet
	}

	report := &Report{Cases: make([]CaseResult, 0, len(set.Cases))}
	var recallSum float64
	hits := 0

	for _, c := range set.Cases {
		result := r.evaluate(ctx, c)
		report.Cases = append(report.Cases, result)

		if result.Err != nil {
			report.Failures++
			continue
		}
		recallSum += result.Recall
		if len(result.Found) > 0 {
			hits++
		}
	}

	scored := len(set.Cases) - report.Failures
	if scored > 0 {
		report.MeanRecall = recallSum / float64(scored)
		report.HitRate = float64(hits) / float64(scored)
	}

	r.logger.Info("evaluation complete",
		zap.Int("cases", len(set.Cases)),
		zap.Int("failures", report.Failures),
		zap.Float64("mean_recall", report.MeanRecall),
		zap.Float64("hit_rate", report.HitRate),
	)
	return report, nil
}

func (r *Runner) evaluate(ctx context.Context, c Case) CaseResult {
	result := CaseResult{Question: c.Question, Expected: c.ExpectedFiles}

	retrieved, err := r.retriever.Retrieve(ctx, c.Question)
	if err != nil {
		result.Err = err
		r.logger.Warn("case retrieval failed",
			zap.String("question", c.Question),
			zap.Error(err),
		)
		return result
	}

	result.Retrieved = retrieved.Sources
	result.MultiPass = retrieved.MultiPass
	result.ChunkCount = len(retrieved.Chunks)

	got := make(map[string]bool, len(retrieved.Sources))
	for _, f := range retrieved.Sources {
		got[f] = true
	}
	for _, want := range c.ExpectedFiles {
		if got[want] {
			result.Found = append(result.Found, want)
		} else {
			result.Missing = append(result.Missing, want)
		}
	}
	result.Recall = float64(len(result.Found)) / float64(len(c.ExpectedFiles))
	return result
}
