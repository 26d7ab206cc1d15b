package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	application "tally/contexts/results-processing/result-form-service/application"
	"tally/contexts/results-processing/result-form-service/application/queries"
	"tally/contexts/results-processing/result-form-service/domain/entities"
	"tally/contexts/results-processing/result-form-service/ports"
)

// ProjectionRefresher recomputes the stored candidate totals of a tally.
// Concurrent refreshes of the same tally share one computation.
type ProjectionRefresher struct {
	Reports     queries.ReportQueries
	Projections ports.ProjectionStore
	Flights     ports.FlightGroup
	Outbox      ports.OutboxWriter
	IDGen       ports.IDGenerator
	Metrics     ports.Metrics
	Clock       ports.Clock
	TallyIDs    []string
	Logger      *slog.Logger
}

// Refresh rebuilds the projection for tallyID and replaces the stored copy.
func (r ProjectionRefresher) Refresh(ctx context.Context, tallyID string) (entities.CandidateProjection, error) {
	tallyID = strings.TrimSpace(tallyID)
	if r.Flights == nil {
		return r.refresh(ctx, tallyID)
	}
	value, err, shared := r.Flights.Do("candidate-projection:"+tallyID, func() (interface{}, error) {
		return r.refresh(ctx, tallyID)
	})
	if err != nil {
		return entities.CandidateProjection{}, err
	}
	projection, ok := value.(entities.CandidateProjection)
	if !ok {
		return entities.CandidateProjection{}, fmt.Errorf("unexpected projection result %T", value)
	}
	if shared {
		application.ResolveLogger(r.Logger).Debug("candidate projection refresh shared",
			"event", "candidate_projection_refresh_shared",
			"module", application.ModuleName,
			"layer", "worker",
			"tally_id", tallyID,
		)
	}
	return projection, nil
}

// RunOnce refreshes every configured tally.
func (r ProjectionRefresher) RunOnce(ctx context.Context) error {
	for _, tallyID := range r.TallyIDs {
		if _, err := r.Refresh(ctx, tallyID); err != nil {
			return err
		}
	}
	return nil
}

func (r ProjectionRefresher) refresh(ctx context.Context, tallyID string) (entities.CandidateProjection, error) {
	logger := application.ResolveLogger(r.Logger)
	started := r.now()

	totals, err := r.Reports.CandidateTotals(ctx, entities.ReportFilter{TallyID: tallyID})
	if err != nil {
		logger.Error("candidate projection compute failed",
			"event", "candidate_projection_compute_failed",
			"module", application.ModuleName,
			"layer", "worker",
			"tally_id", tallyID,
			"error", err.Error(),
		)
		return entities.CandidateProjection{}, err
	}
	projection := entities.CandidateProjection{
		TallyID:     tallyID,
		Totals:      totals,
		RefreshedAt: r.now(),
	}
	if err := r.Projections.ReplaceCandidateProjection(ctx, projection); err != nil {
		logger.Error("candidate projection replace failed",
			"event", "candidate_projection_replace_failed",
			"module", application.ModuleName,
			"layer", "worker",
			"tally_id", tallyID,
			"error", err.Error(),
		)
		return entities.CandidateProjection{}, err
	}
	if err := r.announce(ctx, projection); err != nil {
		logger.Warn("candidate projection event append failed",
			"event", "candidate_projection_event_failed",
			"module", application.ModuleName,
			"layer", "worker",
			"tally_id", tallyID,
			"error", err.Error(),
		)
	}

	elapsed := r.now().Sub(started)
	if r.Metrics != nil {
		r.Metrics.ProjectionRefreshed(ctx, tallyID, elapsed)
	}
	logger.Info("candidate projection refreshed",
		"event", "candidate_projection_refreshed",
		"module", application.ModuleName,
		"layer", "worker",
		"tally_id", tallyID,
		"candidates", len(totals),
		"duration_ms", elapsed.Milliseconds(),
	)
	return projection, nil
}

func (r ProjectionRefresher) announce(ctx context.Context, projection entities.CandidateProjection) error {
	if r.Outbox == nil || r.IDGen == nil {
		return nil
	}
	eventID, err := r.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(map[string]any{
		"tally_id":     projection.TallyID,
		"candidates":   len(projection.Totals),
		"refreshed_at": projection.RefreshedAt.Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	return r.Outbox.AppendOutbox(ctx, ports.EventEnvelope{
		EventID:          eventID,
		EventType:        ports.EventAggregateProjectionBuilt,
		OccurredAt:       projection.RefreshedAt,
		SourceService:    "result-form-service",
		TallyID:          projection.TallyID,
		SchemaVersion:    1,
		PartitionKeyPath: "tally_id",
		PartitionKey:     projection.TallyID,
		Data:             payload,
	})
}

func (r ProjectionRefresher) now() time.Time {
	if r.Clock == nil {
		return time.Now().UTC()
	}
	return r.Clock.Now().UTC()
}
