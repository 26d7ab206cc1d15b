package queries

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "tally/contexts/results-processing/result-form-service/application"
	"tally/contexts/results-processing/result-form-service/domain/entities"
	domainerrors "tally/contexts/results-processing/result-form-service/domain/errors"
	"tally/contexts/results-processing/result-form-service/domain/tallying"
	"tally/contexts/results-processing/result-form-service/ports"
)

// progressTTL bounds how stale a cached station percentage may be.
const progressTTL = time.Hour

// ReferenceQueries resolves centers, stations, ballots and candidates for
// clerks. Inactive entities answer ErrDisabled.
type ReferenceQueries struct {
	Reference  ports.ReferenceReader
	CommentLog ports.ReferenceWriter
	Progress   ports.StationProgressStore
	Checks     ports.QuarantineCheckRepository
	Clock      ports.Clock
	Logger     *slog.Logger
}

func (q ReferenceQueries) ResolveCenter(ctx context.Context, tallyID string, code int) (entities.Center, error) {
	center, err := q.Reference.GetCenterByCode(ctx, strings.TrimSpace(tallyID), code)
	if err != nil {
		return entities.Center{}, err
	}
	if !center.Active {
		return center, domainerrors.ErrDisabled
	}
	return center, nil
}

// ListStations returns the active stations of an active center.
func (q ReferenceQueries) ListStations(ctx context.Context, tallyID string, code int) ([]entities.Station, error) {
	center, err := q.ResolveCenter(ctx, tallyID, code)
	if err != nil {
		return nil, err
	}
	stations, err := q.Reference.ListStations(ctx, center.TallyID, center.CenterID)
	if err != nil {
		return nil, err
	}
	active := make([]entities.Station, 0, len(stations))
	for _, station := range stations {
		if station.Active {
			active = append(active, station)
		}
	}
	return active, nil
}

func (q ReferenceQueries) GetBallot(ctx context.Context, tallyID string, number int) (entities.Ballot, error) {
	ballot, err := q.Reference.GetBallotByNumber(ctx, strings.TrimSpace(tallyID), number)
	if err != nil {
		return entities.Ballot{}, err
	}
	if !ballot.Active {
		return ballot, domainerrors.ErrDisabled
	}
	return ballot, nil
}

// ListCandidates returns the active candidates of a ballot in ballot order.
func (q ReferenceQueries) ListCandidates(ctx context.Context, tallyID string, ballotNumber int) ([]entities.Candidate, error) {
	ballot, err := q.GetBallot(ctx, tallyID, ballotNumber)
	if err != nil {
		return nil, err
	}
	candidates, err := q.Reference.ListCandidates(ctx, ballot.TallyID, ballot.BallotID)
	if err != nil {
		return nil, err
	}
	active := make([]entities.Candidate, 0, len(candidates))
	for _, candidate := range candidates {
		if candidate.Active {
			active = append(active, candidate)
		}
	}
	return active, nil
}

func (q ReferenceQueries) Comments(ctx context.Context, tallyID string, kind entities.EntityKind, entityID string) ([]entities.Comment, error) {
	return q.CommentLog.ListComments(ctx, strings.TrimSpace(tallyID), kind, strings.TrimSpace(entityID))
}

func (q ReferenceQueries) QuarantineChecks(ctx context.Context) ([]entities.QuarantineCheck, error) {
	return q.Checks.ListQuarantineChecks(ctx)
}

// StationProgress serves the received and archived percentages of one
// station from a cache refreshed on read once it is an hour old.
func (q ReferenceQueries) StationProgress(ctx context.Context, tallyID string, centerCode int, stationNumber int) (entities.StationProgress, error) {
	tallyID = strings.TrimSpace(tallyID)
	now := time.Now().UTC()
	if q.Clock != nil {
		now = q.Clock.Now().UTC()
	}

	cached, found, err := q.Progress.GetStationProgress(ctx, tallyID, centerCode, stationNumber)
	if err != nil {
		return entities.StationProgress{}, err
	}
	if found && now.Sub(cached.ComputedAt) < progressTTL {
		return cached, nil
	}

	center, err := q.Reference.GetCenterByCode(ctx, tallyID, centerCode)
	if err != nil {
		return entities.StationProgress{}, err
	}
	if _, err := q.Reference.GetStation(ctx, tallyID, center.CenterID, stationNumber); err != nil {
		return entities.StationProgress{}, err
	}
	total, received, archived, err := q.Progress.CountStationForms(ctx, tallyID, center.CenterID, stationNumber)
	if err != nil {
		return entities.StationProgress{}, err
	}
	progress := entities.StationProgress{
		TallyID:         tallyID,
		CenterCode:      centerCode,
		StationNumber:   stationNumber,
		FormsTotal:      total,
		FormsReceived:   received,
		FormsArchived:   archived,
		PercentReceived: tallying.Percent(int64(received), int64(total)),
		PercentArchived: tallying.Percent(int64(archived), int64(total)),
		ComputedAt:      now,
	}
	if err := q.Progress.SaveStationProgress(ctx, progress); err != nil {
		application.ResolveLogger(q.Logger).Warn("station progress cache write failed",
			"event", "station_progress_cache_write_failed",
			"module", application.ModuleName,
			"layer", "application",
			"tally_id", tallyID,
			"center_code", centerCode,
			"station_number", stationNumber,
			"error", err.Error(),
		)
	}
	return progress, nil
}
