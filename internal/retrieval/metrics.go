package retrieval

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

const retrievalInstrumentationName = "github.com/fyrsmithlabs/betty/internal/retrieval"

// Metrics holds retrieval pipeline metrics.
type Metrics struct {
	meter            metric.Meter
	logger           *zap.Logger
	retrievals       metric.Int64Counter
	chunks           metric.Int64Histogram
	subQueryFailures metric.Int64Counter
}

// NewMetrics creates a Metrics instance for the retrieval pipeline.
func NewMetrics(logger *zap.Logger) *Metrics {
	m := &Metrics{
		meter:  otel.Meter(retrievalInstrumentationName),
		logger: logger,
	}
	m.init()
	return m
}

func (m *Metrics) init() {
	var err error

	m.retrievals, err = m.meter.Int64Counter(
		"betty.retrieval.retrievals_total",
		metric.WithDescription("Total retrieval turns by mode (single_pass, multi_pass)"),
		metric.WithUnit("{retrieval}"),
	)
	if err != nil {
		m.logger.Warn("failed to create retrievals counter", zap.Error(err))
	}

	m.chunks, err = m.meter.Int64Histogram(
		"betty.retrieval.chunks_returned",
		metric.WithDescription("Number of context chunks returned per retrieval turn, after dedup and truncation"),
		metric.WithUnit("{chunk}"),
		metric.WithExplicitBucketBoundaries(0, 1, 5, 10, 15, 20, 25, 30),
	)
	if err != nil {
		m.logger.Warn("failed to create chunks histogram", zap.Error(err))
	}

	m.subQueryFailures, err = m.meter.Int64Counter(
		"betty.retrieval.sub_query_failures_total",
		metric.WithDescription("Total failed sub-queries during multi-pass retrieval. Sub-query failures are non-fatal; the turn continues with the remaining results."),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		m.logger.Warn("failed to create sub-query failures counter", zap.Error(err))
	}
}

// RecordRetrieval records one completed retrieval turn.
func (m *Metrics) RecordRetrieval(ctx context.Context, multiPass bool, chunkCount int) {
	mode := "single_pass"
	if multiPass {
		mode = "multi_pass"
	}
	attrs := metric.WithAttributes(attribute.String("mode", mode))

	if m.retrievals != nil {
		m.retrievals.Add(ctx, 1, attrs)
	}
	if m.chunks != nil {
		m.chunks.Record(ctx, int64(chunkCount), attrs)
	}
}

// RecordSubQueryFailure records a failed multi-pass sub-query.
func (m *Metrics) RecordSubQueryFailure(ctx context.Context) {
	if m.subQueryFailures != nil {
		m.subQueryFailures.Add(ctx, 1)
	}
}
