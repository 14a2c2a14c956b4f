package grid

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"gridview/internal/merge"
)

const (
	TracerName = "gridview/grid"
	MeterName  = "gridview/grid"
)

// SourceMetrics holds the instruments recorded for every source call.
type SourceMetrics struct {
	Requests metric.Int64Counter
	Failures metric.Int64Counter
	Duration metric.Float64Histogram
}

// NewSourceMetrics creates the source instruments on meter.
func NewSourceMetrics(meter metric.Meter) (*SourceMetrics, error) {
	requests, err := meter.Int64Counter(
		"gridview_source_requests_total",
		metric.WithDescription("Total number of grid source calls"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create source requests counter: %w", err)
	}

	failures, err := meter.Int64Counter(
		"gridview_source_failures_total",
		metric.WithDescription("Total number of failed grid source calls"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create source failures counter: %w", err)
	}

	duration, err := meter.Float64Histogram(
		"gridview_source_duration_seconds",
		metric.WithDescription("Grid source call duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create source duration histogram: %w", err)
	}

	return &SourceMetrics{Requests: requests, Failures: failures, Duration: duration}, nil
}

// Instrumented decorates a Source with a span, metrics and a debug log per
// call. Errors from the wrapped source are returned unchanged.
type Instrumented struct {
	next    Source
	kind    string
	tracer  trace.Tracer
	metrics *SourceMetrics
	logger  *slog.Logger
}

// NewInstrumented wraps next. kind labels spans and metrics ("xlsx",
// "sheets", ...). A nil meter or tracer falls back to the global providers.
func NewInstrumented(next Source, kind string, meter metric.Meter, tracer trace.Tracer, logger *slog.Logger) (*Instrumented, error) {
	if meter == nil {
		meter = otel.Meter(MeterName)
	}
	if tracer == nil {
		tracer = otel.Tracer(TracerName)
	}
	if logger == nil {
		logger = slog.Default()
	}

	metrics, err := NewSourceMetrics(meter)
	if err != nil {
		return nil, err
	}

	return &Instrumented{
		next:    next,
		kind:    kind,
		tracer:  tracer,
		metrics: metrics,
		logger:  logger.With(slog.String("component", "grid_source"), slog.String("source", kind)),
	}, nil
}

// Unwrap returns the decorated source.
func (s *Instrumented) Unwrap() Source {
	return s.next
}

func (s *Instrumented) ReadAllRows(ctx context.Context) ([][]string, error) {
	var rows [][]string
	err := s.observe(ctx, "read_all_rows", nil, func(ctx context.Context) error {
		var err error
		rows, err = s.next.ReadAllRows(ctx)
		return err
	})
	return rows, err
}

func (s *Instrumented) ReadCell(ctx context.Context, row, col int) (string, error) {
	var value string
	err := s.observe(ctx, "read_cell", cellAttrs(row, col), func(ctx context.Context) error {
		var err error
		value, err = s.next.ReadCell(ctx, row, col)
		return err
	})
	return value, err
}

func (s *Instrumented) WriteCell(ctx context.Context, row, col int, value string) error {
	return s.observe(ctx, "write_cell", cellAttrs(row, col), func(ctx context.Context) error {
		return s.next.WriteCell(ctx, row, col, value)
	})
}

func (s *Instrumented) Commit(ctx context.Context) error {
	return s.observe(ctx, "commit", nil, s.next.Commit)
}

func (s *Instrumented) RowCount(ctx context.Context) (int, error) {
	var n int
	err := s.observe(ctx, "row_count", nil, func(ctx context.Context) error {
		var err error
		n, err = s.next.RowCount(ctx)
		return err
	})
	return n, err
}

func (s *Instrumented) ColumnCount(ctx context.Context) (int, error) {
	var n int
	err := s.observe(ctx, "column_count", nil, func(ctx context.Context) error {
		var err error
		n, err = s.next.ColumnCount(ctx)
		return err
	})
	return n, err
}

// MergedRegions forwards to the wrapped source, or returns nil when it has
// no merge information.
func (s *Instrumented) MergedRegions(ctx context.Context) ([]merge.Region, error) {
	mp, ok := s.next.(MergeProvider)
	if !ok {
		return nil, nil
	}
	var regions []merge.Region
	err := s.observe(ctx, "merged_regions", nil, func(ctx context.Context) error {
		var err error
		regions, err = mp.MergedRegions(ctx)
		return err
	})
	return regions, err
}

// Reload forwards to the wrapped source when it supports reloading.
func (s *Instrumented) Reload(ctx context.Context) error {
	r, ok := s.next.(Reloader)
	if !ok {
		return nil
	}
	return s.observe(ctx, "reload", nil, r.Reload)
}

func cellAttrs(row, col int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int("grid.row", row),
		attribute.Int("grid.column", col),
	}
}

func (s *Instrumented) observe(ctx context.Context, op string, attrs []attribute.KeyValue, fn func(context.Context) error) error {
	ctx, span := s.tracer.Start(ctx, "grid."+op,
		trace.WithAttributes(
			attribute.String("grid.operation", op),
			attribute.String("grid.source", s.kind),
		),
		trace.WithAttributes(attrs...),
	)
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	duration := time.Since(start)

	labels := metric.WithAttributes(
		attribute.String("operation", op),
		attribute.String("source", s.kind),
	)
	s.metrics.Requests.Add(ctx, 1, labels)
	s.metrics.Duration.Record(ctx, duration.Seconds(), labels)

	if err != nil {
		s.metrics.Failures.Add(ctx, 1, labels)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.WarnContext(ctx, "grid source call failed",
			slog.String("operation", op),
			slog.Duration("duration", duration),
			slog.String("error", err.Error()),
		)
		return err
	}

	span.SetStatus(codes.Ok, "")
	s.logger.DebugContext(ctx, "grid source call",
		slog.String("operation", op),
		slog.Duration("duration", duration),
	)
	return nil
}
