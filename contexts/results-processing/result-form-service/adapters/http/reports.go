package httpadapter

import (
	"context"
	"strings"

	application "tally/contexts/results-processing/result-form-service/application"
	"tally/contexts/results-processing/result-form-service/domain/entities"
	httptransport "tally/contexts/results-processing/result-form-service/transport/http"

	"golang.org/x/sync/errgroup"
)

func reportFilter(tallyID string, ballotID string, exclude []string) entities.ReportFilter {
	return entities.ReportFilter{
		TallyID:        tallyID,
		BallotID:       strings.TrimSpace(ballotID),
		ExcludeFormIDs: exclude,
	}
}

func (h Handler) CandidateTotalsHandler(ctx context.Context, tallyID string, ballotID string, exclude []string) (httptransport.CandidateTotalsResponse, error) {
	totals, err := h.Reports.CandidateTotals(ctx, reportFilter(tallyID, ballotID, exclude))
	if err != nil {
		return httptransport.CandidateTotalsResponse{}, err
	}
	return httptransport.CandidateTotalsResponse{TallyID: tallyID, Items: mapTotals(totals)}, nil
}

func (h Handler) CandidateProjectionHandler(ctx context.Context, tallyID string) (httptransport.CandidateTotalsResponse, error) {
	projection, err := h.Reports.CandidateProjection(ctx, tallyID)
	if err != nil {
		return httptransport.CandidateTotalsResponse{}, err
	}
	refreshedAt := projection.RefreshedAt
	return httptransport.CandidateTotalsResponse{
		TallyID:     projection.TallyID,
		RefreshedAt: &refreshedAt,
		Items:       mapTotals(projection.Totals),
	}, nil
}

func (h Handler) RefreshProjectionHandler(ctx context.Context, tallyID string) (httptransport.CandidateTotalsResponse, error) {
	projection, err := h.Refresher.Refresh(ctx, tallyID)
	if err != nil {
		return httptransport.CandidateTotalsResponse{}, err
	}
	refreshedAt := projection.RefreshedAt
	return httptransport.CandidateTotalsResponse{
		TallyID:     projection.TallyID,
		RefreshedAt: &refreshedAt,
		Items:       mapTotals(projection.Totals),
	}, nil
}

func (h Handler) AreaTurnoutHandler(ctx context.Context, tallyID string, kind string, ballotID string, exclude []string) (httptransport.AreaTurnoutListResponse, error) {
	rows, err := h.Reports.AreaTurnout(ctx, entities.AreaKind(strings.ToLower(kind)), reportFilter(tallyID, ballotID, exclude))
	if err != nil {
		return httptransport.AreaTurnoutListResponse{}, err
	}
	return httptransport.AreaTurnoutListResponse{Items: mapTurnout(rows)}, nil
}

func (h Handler) AreaSummaryHandler(ctx context.Context, tallyID string, kind string, ballotID string, exclude []string) (httptransport.AreaSummaryListResponse, error) {
	rows, err := h.Reports.AreaSummary(ctx, entities.AreaKind(strings.ToLower(kind)), reportFilter(tallyID, ballotID, exclude))
	if err != nil {
		return httptransport.AreaSummaryListResponse{}, err
	}
	return httptransport.AreaSummaryListResponse{Items: mapSummary(rows)}, nil
}

func (h Handler) DuplicatesHandler(ctx context.Context, tallyID string) (httptransport.DuplicateListResponse, error) {
	groups, err := h.Reports.Duplicates(ctx, tallyID)
	if err != nil {
		return httptransport.DuplicateListResponse{}, err
	}
	return httptransport.DuplicateListResponse{Items: mapDuplicates(groups)}, nil
}

func (h Handler) DiscrepanciesHandler(ctx context.Context, tallyID string) (httptransport.DiscrepanciesResponse, error) {
	report, err := h.Reports.Discrepancies(ctx, tallyID)
	if err != nil {
		return httptransport.DiscrepanciesResponse{}, err
	}
	return mapDiscrepancies(report), nil
}

// ExportReportHandler computes every aggregate of a tally concurrently. The
// first failure cancels the rest.
func (h Handler) ExportReportHandler(ctx context.Context, tallyID string, kind string) (httptransport.ReportExportResponse, error) {
	areaKind := entities.AreaKind(strings.ToLower(strings.TrimSpace(kind)))
	if areaKind == "" {
		areaKind = entities.AreaKindRegion
	}
	filter := reportFilter(tallyID, "", nil)

	var (
		totals        []entities.CandidateTotal
		turnout       []entities.AreaTurnout
		summary       []entities.AreaSummary
		duplicates    []entities.DuplicateGroup
		discrepancies entities.Discrepancies
	)
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		var err error
		totals, err = h.Reports.CandidateTotals(groupCtx, filter)
		return err
	})
	group.Go(func() error {
		var err error
		turnout, err = h.Reports.AreaTurnout(groupCtx, areaKind, filter)
		return err
	})
	group.Go(func() error {
		var err error
		summary, err = h.Reports.AreaSummary(groupCtx, areaKind, filter)
		return err
	})
	group.Go(func() error {
		var err error
		duplicates, err = h.Reports.Duplicates(groupCtx, tallyID)
		return err
	})
	group.Go(func() error {
		var err error
		discrepancies, err = h.Reports.Discrepancies(groupCtx, tallyID)
		return err
	})
	if err := group.Wait(); err != nil {
		application.ResolveLogger(h.Logger).Warn("report export failed",
			"event", "result_form_report_export_failed",
			"module", application.ModuleName,
			"layer", "adapter",
			"tally_id", tallyID,
			"error", err.Error(),
		)
		return httptransport.ReportExportResponse{}, err
	}
	return httptransport.ReportExportResponse{
		TallyID:       tallyID,
		Candidates:    mapTotals(totals),
		Turnout:       mapTurnout(turnout),
		Summary:       mapSummary(summary),
		Duplicates:    mapDuplicates(duplicates),
		Discrepancies: mapDiscrepancies(discrepancies),
	}, nil
}
