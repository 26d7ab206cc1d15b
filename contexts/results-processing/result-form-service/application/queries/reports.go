package queries

import (
	"context"
	"strings"

	"tally/contexts/results-processing/result-form-service/domain/entities"
	domainerrors "tally/contexts/results-processing/result-form-service/domain/errors"
	"tally/contexts/results-processing/result-form-service/domain/tallying"
	"tally/contexts/results-processing/result-form-service/ports"
)

// ReportQueries serves the aggregate read model. Nothing here writes.
type ReportQueries struct {
	Reports     ports.ReportReader
	Projections ports.ProjectionStore
}

// CandidateTotals computes the per-candidate totals live from the store.
func (q ReportQueries) CandidateTotals(ctx context.Context, filter entities.ReportFilter) ([]entities.CandidateTotal, error) {
	filter, err := normalizeFilter(filter)
	if err != nil {
		return nil, err
	}
	candidates, err := q.Reports.ListTallyCandidates(ctx, filter.TallyID)
	if err != nil {
		return nil, err
	}
	sheets, err := q.Reports.ListFinalSheets(ctx, filter, []entities.FormState{
		entities.FormStateArchived,
		entities.FormStateAudit,
	})
	if err != nil {
		return nil, err
	}
	formsPerBallot, err := q.Reports.CountFormsPerBallot(ctx, filter.TallyID)
	if err != nil {
		return nil, err
	}
	return tallying.CandidateTotals(candidates, sheets, formsPerBallot, filter), nil
}

// CandidateProjection returns the last refreshed copy of the candidate
// totals. It may lag the live numbers.
func (q ReportQueries) CandidateProjection(ctx context.Context, tallyID string) (entities.CandidateProjection, error) {
	tallyID = strings.TrimSpace(tallyID)
	if tallyID == "" {
		return entities.CandidateProjection{}, domainerrors.Invalid("tally id is required")
	}
	return q.Projections.GetCandidateProjection(ctx, tallyID)
}

func (q ReportQueries) AreaTurnout(ctx context.Context, kind entities.AreaKind, filter entities.ReportFilter) ([]entities.AreaTurnout, error) {
	sheets, names, filter, err := q.areaInputs(ctx, kind, filter)
	if err != nil {
		return nil, err
	}
	return tallying.Turnout(kind, sheets, names, filter), nil
}

func (q ReportQueries) AreaSummary(ctx context.Context, kind entities.AreaKind, filter entities.ReportFilter) ([]entities.AreaSummary, error) {
	sheets, names, filter, err := q.areaInputs(ctx, kind, filter)
	if err != nil {
		return nil, err
	}
	return tallying.Summary(kind, sheets, names, filter), nil
}

// Duplicates lists archived forms that share a center, station and ballot.
func (q ReportQueries) Duplicates(ctx context.Context, tallyID string) ([]entities.DuplicateGroup, error) {
	tallyID = strings.TrimSpace(tallyID)
	if tallyID == "" {
		return nil, domainerrors.Invalid("tally id is required")
	}
	forms, err := q.Reports.ListResultForms(ctx, ports.ResultFormFilter{
		TallyID: tallyID,
		States:  []entities.FormState{entities.FormStateArchived},
	})
	if err != nil {
		return nil, err
	}
	codes, err := q.Reports.CenterCodes(ctx, tallyID)
	if err != nil {
		return nil, err
	}
	return tallying.Duplicates(forms, codes), nil
}

// Discrepancies lists disabled centers and stations and the forms held in
// audit.
func (q ReportQueries) Discrepancies(ctx context.Context, tallyID string) (entities.Discrepancies, error) {
	tallyID = strings.TrimSpace(tallyID)
	if tallyID == "" {
		return entities.Discrepancies{}, domainerrors.Invalid("tally id is required")
	}
	centers, err := q.Reports.ListDisabledCenters(ctx, tallyID)
	if err != nil {
		return entities.Discrepancies{}, err
	}
	stations, err := q.Reports.ListDisabledStations(ctx, tallyID)
	if err != nil {
		return entities.Discrepancies{}, err
	}
	audit, err := q.Reports.ListResultForms(ctx, ports.ResultFormFilter{
		TallyID: tallyID,
		States:  []entities.FormState{entities.FormStateAudit},
	})
	if err != nil {
		return entities.Discrepancies{}, err
	}
	return entities.Discrepancies{
		DisabledCenters:  centers,
		DisabledStations: stations,
		FormsInAudit:     audit,
	}, nil
}

func (q ReportQueries) areaInputs(
	ctx context.Context,
	kind entities.AreaKind,
	filter entities.ReportFilter,
) ([]entities.FinalSheet, map[string]string, entities.ReportFilter, error) {
	if !kind.Valid() {
		return nil, nil, filter, domainerrors.Invalid("unknown area kind %q", kind)
	}
	filter, err := normalizeFilter(filter)
	if err != nil {
		return nil, nil, filter, err
	}
	sheets, err := q.Reports.ListFinalSheets(ctx, filter, []entities.FormState{entities.FormStateArchived})
	if err != nil {
		return nil, nil, filter, err
	}
	names, err := q.Reports.AreaNames(ctx, filter.TallyID, kind)
	if err != nil {
		return nil, nil, filter, err
	}
	return sheets, names, filter, nil
}

func normalizeFilter(filter entities.ReportFilter) (entities.ReportFilter, error) {
	filter.TallyID = strings.TrimSpace(filter.TallyID)
	filter.BallotID = strings.TrimSpace(filter.BallotID)
	if filter.TallyID == "" {
		return filter, domainerrors.Invalid("tally id is required")
	}
	return filter, nil
}
