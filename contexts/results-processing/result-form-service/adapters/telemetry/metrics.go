package telemetry

import (
	"context"
	"fmt"
	"time"

	"tally/contexts/results-processing/result-form-service/domain/entities"
	"tally/contexts/results-processing/result-form-service/ports"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var _ ports.Metrics = (*Metrics)(nil)

// Metrics records workflow signals as OpenTelemetry instruments.
type Metrics struct {
	transitions        metric.Int64Counter
	quarantineFailures metric.Int64Counter
	integrity          metric.Int64Counter
	conflictRetries    metric.Int64Counter
	projectionDuration metric.Float64Histogram
}

func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error
	if m.transitions, err = meter.Int64Counter("tally_result_form_transitions_total",
		metric.WithDescription("Result form state transitions")); err != nil {
		return nil, fmt.Errorf("create transitions counter: %w", err)
	}
	if m.quarantineFailures, err = meter.Int64Counter("tally_quarantine_failures_total",
		metric.WithDescription("Quarantine checks failed at archiving")); err != nil {
		return nil, fmt.Errorf("create quarantine counter: %w", err)
	}
	if m.integrity, err = meter.Int64Counter("tally_integrity_violations_total",
		metric.WithDescription("Broken store invariants detected by the workflow")); err != nil {
		return nil, fmt.Errorf("create integrity counter: %w", err)
	}
	if m.conflictRetries, err = meter.Int64Counter("tally_conflict_retries_total",
		metric.WithDescription("Operations re-run after a concurrent modification")); err != nil {
		return nil, fmt.Errorf("create conflict counter: %w", err)
	}
	if m.projectionDuration, err = meter.Float64Histogram("tally_projection_refresh_seconds",
		metric.WithDescription("Candidate projection refresh duration"),
		metric.WithUnit("s")); err != nil {
		return nil, fmt.Errorf("create projection histogram: %w", err)
	}
	return m, nil
}

func (m *Metrics) TransitionRecorded(ctx context.Context, from entities.FormState, to entities.FormState) {
	m.transitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("from_state", string(from)),
		attribute.String("to_state", string(to)),
	))
}

func (m *Metrics) QuarantineFailed(ctx context.Context, method string) {
	m.quarantineFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("method", method)))
}

func (m *Metrics) IntegrityViolation(ctx context.Context, operation string) {
	m.integrity.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", operation)))
}

func (m *Metrics) ConflictRetried(ctx context.Context, operation string) {
	m.conflictRetries.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", operation)))
}

func (m *Metrics) ProjectionRefreshed(ctx context.Context, tallyID string, duration time.Duration) {
	m.projectionDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attribute.String("tally_id", tallyID)))
}
