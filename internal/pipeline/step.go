// Package pipeline runs duplicate detection as a batch step between a
// table source and a table sink.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	dupdetect "github.com/Silvia-F/di-duplicate-detection"
	"github.com/Silvia-F/di-duplicate-detection/internal/config"
	"github.com/Silvia-F/di-duplicate-detection/internal/metrics"
	"github.com/Silvia-F/di-duplicate-detection/internal/table"
)

// Report describes one completed run.
type Report struct {
	RunID   string
	Read    int
	Written int
	Stats   dupdetect.Stats
	Summary dupdetect.Summary
	// ClusterDuration covers the clustering stage only.
	ClusterDuration time.Duration
}

// Step buffers every input row, clusters the whole batch once the source
// is exhausted, and emits the kept rows in arrival order with the cluster
// id and similarity appended.
type Step struct {
	settings config.Settings
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// Option configures a Step.
type Option func(*Step)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Step) { s.logger = l }
}

// WithMetrics records run metrics into m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Step) { s.metrics = m }
}

// New validates the settings and returns a ready-to-run Step.
func New(settings config.Settings, opts ...Option) (*Step, error) {
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}
	s := &Step{settings: settings, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = metrics.New()
	}
	return s, nil
}

// Metrics returns the collectors the step records into.
func (s *Step) Metrics() *metrics.Metrics { return s.metrics }

// Run drains src, clusters the rows and writes the result to sink.
// Cancellation is observed between rows. Run does not close src or sink.
func (s *Step) Run(ctx context.Context, src table.Source, sink table.Sink) (*Report, error) {
	report := &Report{RunID: uuid.NewString()}
	logger := s.logger.With("run_id", report.RunID)

	outSchema, err := src.Schema().WithDerived(s.settings.GroupColumnName, s.settings.SimColumnName)
	if err != nil {
		return nil, fmt.Errorf("deriving output schema: %w", err)
	}
	logger.Info("Starting duplicate detection",
		"columns", len(src.Schema()),
		"match_threshold", s.settings.MatchThreshold,
		"remove_singletons", s.settings.RemoveSingletons)

	var rows []table.Row
	var fingerprints []string
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		row, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading row %d: %w", len(rows)+1, err)
		}
		rows = append(rows, row)
		fingerprints = append(fingerprints, dupdetect.Fingerprint(row))
		s.metrics.RecordsRead.Inc()
		s.checkFeedback(logger, len(rows))
	}
	report.Read = len(rows)

	start := time.Now()
	result, err := dupdetect.Cluster(fingerprints, s.settings.CoreConfig())
	if err != nil {
		return nil, fmt.Errorf("clustering: %w", err)
	}
	report.ClusterDuration = time.Since(start)
	report.Stats = result.Stats
	report.Summary = result.Summary()

	s.metrics.ObservePass(metrics.PassForward, result.Stats.Forward.Comparisons, result.Stats.Forward.Merges)
	s.metrics.ObservePass(metrics.PassReverse, result.Stats.Reverse.Comparisons, result.Stats.Reverse.Merges)
	s.metrics.ObserveClustering(result.Stats.Clusters, result.Stats.Suppressed, report.ClusterDuration)
	logger.Info("Clustering finished",
		"records", report.Read,
		"clusters", result.Stats.Clusters,
		"singletons", result.Stats.Singletons,
		"merges", result.Stats.Forward.Merges+result.Stats.Reverse.Merges,
		"duration", report.ClusterDuration)

	if err := sink.Begin(ctx, outSchema); err != nil {
		return nil, fmt.Errorf("starting output: %w", err)
	}
	for i, row := range rows {
		if !result.Kept[i] {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := sink.Write(ctx, row, int64(result.ClusterIDs[i]), result.Similarities[i]); err != nil {
			return nil, fmt.Errorf("writing row %d: %w", i+1, err)
		}
		report.Written++
		s.metrics.RecordsWritten.Inc()
	}

	logger.Info("Duplicate detection finished",
		"read", report.Read,
		"written", report.Written,
		"suppressed", result.Stats.Suppressed)
	return report, nil
}

// checkFeedback logs progress every FeedbackSize rows.
func (s *Step) checkFeedback(logger *slog.Logger, n int) {
	if s.settings.FeedbackSize > 0 && n%s.settings.FeedbackSize == 0 {
		logger.Info("Reading rows", "read", n)
	}
}
