package httpadapter

import (
	"encoding/json"

	"tally/contexts/results-processing/result-form-service/application/queries"
	"tally/contexts/results-processing/result-form-service/domain/entities"
	"tally/contexts/results-processing/result-form-service/domain/reconciliation"
	httptransport "tally/contexts/results-processing/result-form-service/transport/http"
)

func mapForm(form entities.ResultForm) httptransport.ResultFormResponse {
	sections := make([]string, 0, len(form.ReopenedSections))
	for _, section := range form.ReopenedSections {
		sections = append(sections, string(section))
	}
	return httptransport.ResultFormResponse{
		ResultFormID:         form.ResultFormID,
		TallyID:              form.TallyID,
		Barcode:              form.Barcode,
		SerialNumber:         form.SerialNumber,
		CenterID:             form.CenterID,
		StationNumber:        form.StationNumber,
		BallotID:             form.BallotID,
		Gender:               string(form.Gender),
		FormState:            string(form.FormState),
		PreviousFormState:    string(form.PreviousFormState),
		UserID:               form.UserID,
		IsReplacement:        form.IsReplacement,
		SkipQuarantineChecks: form.SkipQuarantineChecks,
		DuplicateReviewed:    form.DuplicateReviewed,
		AuditedCount:         form.AuditedCount,
		RejectedCount:        form.RejectedCount,
		RejectReason:         form.RejectReason,
		ReopenedSections:     sections,
		DateSeen:             form.DateSeen,
		UpdatedAt:            form.UpdatedAt,
	}
}

func mapForms(forms []entities.ResultForm) []httptransport.ResultFormResponse {
	items := make([]httptransport.ResultFormResponse, 0, len(forms))
	for _, form := range forms {
		items = append(items, mapForm(form))
	}
	return items
}

func mapComparison(comparison reconciliation.Comparison) httptransport.ComparisonResponse {
	resp := httptransport.ComparisonResponse{Matched: comparison.Matched()}
	for _, item := range comparison.Candidates {
		resp.Candidates = append(resp.Candidates, httptransport.CandidateMismatch{
			CandidateID: item.CandidateID,
			DataEntry1:  item.DataEntry1,
			DataEntry2:  item.DataEntry2,
		})
	}
	for _, item := range comparison.Fields {
		resp.Fields = append(resp.Fields, httptransport.FieldMismatch{
			Field:      string(item.Field),
			DataEntry1: item.DataEntry1,
			DataEntry2: item.DataEntry2,
		})
	}
	return resp
}

func mapCorrections(view queries.CorrectionsView) httptransport.CorrectionsResponse {
	resp := httptransport.CorrectionsResponse{
		Form:       mapForm(view.Form),
		Comparison: mapComparison(view.Comparison),
		Candidates: make([]httptransport.CorrectionCandidateLine, 0, len(view.Plan.Candidates)),
		Fields:     make([]httptransport.CorrectionFieldLine, 0, len(view.Plan.Fields)),
	}
	for _, line := range view.Plan.Candidates {
		resp.Candidates = append(resp.Candidates, httptransport.CorrectionCandidateLine{
			CandidateID: line.CandidateID,
			Section:     string(line.Section),
			DataEntry1:  line.DataEntry1,
			DataEntry2:  line.DataEntry2,
			Locked:      line.Locked,
			Value:       line.Value,
		})
	}
	for _, line := range view.Plan.Fields {
		resp.Fields = append(resp.Fields, httptransport.CorrectionFieldLine{
			Field:      string(line.Field),
			DataEntry1: line.DataEntry1,
			DataEntry2: line.DataEntry2,
			Locked:     line.Locked,
			Value:      line.Value,
		})
	}
	return resp
}

func mapQualityControl(review entities.QualityControl) httptransport.QualityControlResponse {
	failed := make([]string, 0, len(review.FailedSections))
	for _, section := range review.FailedSections {
		failed = append(failed, string(section))
	}
	return httptransport.QualityControlResponse{
		QualityControlID:     review.QualityControlID,
		ResultFormID:         review.ResultFormID,
		PassedGeneral:        review.PassedGeneral,
		PassedReconciliation: review.PassedReconciliation,
		PassedWomens:         review.PassedWomens,
		FailedSections:       failed,
		Active:               review.Active,
	}
}

func mapClearance(clearance entities.Clearance) httptransport.ClearanceResponse {
	problems := clearance.Problems
	return httptransport.ClearanceResponse{
		ClearanceID:        clearance.ClearanceID,
		ResultFormID:       clearance.ResultFormID,
		Active:             clearance.Active,
		ReviewedTeam:       clearance.ReviewedTeam,
		ReviewedSupervisor: clearance.ReviewedSupervisor,
		Problems: httptransport.ClearanceProblems{
			CenterNameMissing:                problems.CenterNameMissing,
			CenterNameMismatching:            problems.CenterNameMismatching,
			CenterCodeMissing:                problems.CenterCodeMissing,
			CenterCodeMismatching:            problems.CenterCodeMismatching,
			FormAlreadyInSystem:              problems.FormAlreadyInSystem,
			FormIncorrectlyEnteredIntoSystem: problems.FormIncorrectlyEnteredIntoSystem,
			Other:                            problems.Other,
		},
		ActionPrior:       string(clearance.ActionPrior),
		Recommendation:    string(clearance.ResolutionRecommendation),
		TeamComment:       clearance.TeamComment,
		SupervisorComment: clearance.SupervisorComment,
		Attachment:        attachmentToDTO(clearance.Attachment),
	}
}

func mapAudit(audit entities.Audit) httptransport.AuditResponse {
	problems := audit.Problems
	return httptransport.AuditResponse{
		AuditID:            audit.AuditID,
		ResultFormID:       audit.ResultFormID,
		Active:             audit.Active,
		ForSuperadmin:      audit.ForSuperadmin,
		ReviewedTeam:       audit.ReviewedTeam,
		ReviewedSupervisor: audit.ReviewedSupervisor,
		QuarantineCheckIDs: append([]string(nil), audit.QuarantineCheckIDs...),
		Problems: httptransport.AuditProblems{
			BlankReconciliation: problems.BlankReconciliation,
			BlankResults:        problems.BlankResults,
			DamagedForm:         problems.DamagedForm,
			UnclearFigures:      problems.UnclearFigures,
			Other:               problems.Other,
		},
		ActionPrior:       string(audit.ActionPrior),
		Recommendation:    string(audit.ResolutionRecommendation),
		TeamComment:       audit.TeamComment,
		SupervisorComment: audit.SupervisorComment,
		Attachment:        attachmentToDTO(audit.Attachment),
	}
}

func mapRevision(revision entities.Revision) httptransport.RevisionResponse {
	var snapshot any
	if len(revision.Snapshot) > 0 {
		snapshot = json.RawMessage(revision.Snapshot)
	}
	return httptransport.RevisionResponse{
		RevisionID: revision.RevisionID,
		EntityKind: string(revision.EntityKind),
		EntityID:   revision.EntityID,
		Action:     revision.Action,
		ActorID:    revision.ActorID,
		Snapshot:   snapshot,
		CreatedAt:  revision.CreatedAt,
	}
}

func mapCenter(center entities.Center) httptransport.CenterResponse {
	return httptransport.CenterResponse{
		CenterID:          center.CenterID,
		Code:              center.Code,
		Name:              center.Name,
		OfficeID:          center.OfficeID,
		SubConstituencyID: center.SubConstituencyID,
		Active:            center.Active,
		DisableReason:     string(center.DisableReason),
	}
}

func mapStation(station entities.Station) httptransport.StationResponse {
	return httptransport.StationResponse{
		StationID:     station.StationID,
		CenterID:      station.CenterID,
		StationNumber: station.StationNumber,
		Gender:        string(station.Gender),
		Registrants:   station.Registrants,
		Active:        station.Active,
		DisableReason: string(station.DisableReason),
	}
}

func mapBallot(ballot entities.Ballot) httptransport.BallotResponse {
	return httptransport.BallotResponse{
		BallotID:            ballot.BallotID,
		Number:              ballot.Number,
		ElectrolRaceID:      ballot.ElectrolRaceID,
		Active:              ballot.Active,
		AvailableForRelease: ballot.AvailableForRelease,
		DisableReason:       string(ballot.DisableReason),
	}
}

func mapCandidate(candidate entities.Candidate) httptransport.CandidateResponse {
	return httptransport.CandidateResponse{
		CandidateID: candidate.CandidateID,
		BallotID:    candidate.BallotID,
		Order:       candidate.Order,
		FullName:    candidate.FullName,
		RaceType:    string(candidate.RaceType),
		Active:      candidate.Active,
	}
}

func mapCheck(check entities.QuarantineCheck) httptransport.QuarantineCheckResponse {
	return httptransport.QuarantineCheckResponse{
		QuarantineCheckID: check.QuarantineCheckID,
		Name:              check.Name,
		Method:            check.Method,
		Description:       check.Description,
		Value:             check.Value,
		Percentage:        check.Percentage,
		Active:            check.Active,
	}
}

func mapTotals(totals []entities.CandidateTotal) []httptransport.CandidateTotalResponse {
	items := make([]httptransport.CandidateTotalResponse, 0, len(totals))
	for _, total := range totals {
		items = append(items, httptransport.CandidateTotalResponse{
			CandidateID:          total.CandidateID,
			BallotID:             total.BallotID,
			FullName:             total.FullName,
			Order:                total.Order,
			RaceType:             string(total.RaceType),
			Votes:                total.Votes,
			QuarantineVotes:      total.QuarantineVotes,
			AllVotes:             total.AllVotes,
			StationsContributing: total.StationsContributing,
			CompletionPercent:    total.CompletionPercent,
		})
	}
	return items
}

func mapTurnout(rows []entities.AreaTurnout) []httptransport.AreaTurnoutResponse {
	items := make([]httptransport.AreaTurnoutResponse, 0, len(rows))
	for _, row := range rows {
		items = append(items, httptransport.AreaTurnoutResponse{
			AreaKind:          string(row.AreaKind),
			AreaID:            row.AreaID,
			AreaName:          row.AreaName,
			VotersVoted:       row.VotersVoted,
			Registrants:       row.Registrants,
			BallotsUsed:       row.BallotsUsed,
			TurnoutPercentage: row.TurnoutPercentage,
		})
	}
	return items
}

func mapSummary(rows []entities.AreaSummary) []httptransport.AreaSummaryResponse {
	items := make([]httptransport.AreaSummaryResponse, 0, len(rows))
	for _, row := range rows {
		items = append(items, httptransport.AreaSummaryResponse{
			AreaKind:        string(row.AreaKind),
			AreaID:          row.AreaID,
			AreaName:        row.AreaName,
			ValidVotes:      row.ValidVotes,
			InvalidVotes:    row.InvalidVotes,
			CancelledVotes:  row.CancelledVotes,
			FormsAggregated: row.FormsAggregated,
		})
	}
	return items
}

func mapDuplicates(groups []entities.DuplicateGroup) []httptransport.DuplicateGroupResponse {
	items := make([]httptransport.DuplicateGroupResponse, 0, len(groups))
	for _, group := range groups {
		items = append(items, httptransport.DuplicateGroupResponse{
			CenterID:      group.CenterID,
			CenterCode:    group.CenterCode,
			StationNumber: group.StationNumber,
			BallotID:      group.BallotID,
			ResultFormIDs: group.ResultFormIDs,
			Barcodes:      group.Barcodes,
			Reviewed:      group.Reviewed,
		})
	}
	return items
}

func mapDiscrepancies(report entities.Discrepancies) httptransport.DiscrepanciesResponse {
	resp := httptransport.DiscrepanciesResponse{
		DisabledCenters:  make([]httptransport.DisabledCenterResponse, 0, len(report.DisabledCenters)),
		DisabledStations: make([]httptransport.DisabledStationResponse, 0, len(report.DisabledStations)),
		FormsInAudit:     mapForms(report.FormsInAudit),
	}
	for _, center := range report.DisabledCenters {
		resp.DisabledCenters = append(resp.DisabledCenters, httptransport.DisabledCenterResponse{
			CenterID:      center.CenterID,
			CenterCode:    center.CenterCode,
			Name:          center.Name,
			DisableReason: string(center.DisableReason),
		})
	}
	for _, station := range report.DisabledStations {
		resp.DisabledStations = append(resp.DisabledStations, httptransport.DisabledStationResponse{
			CenterID:      station.CenterID,
			CenterCode:    station.CenterCode,
			StationNumber: station.StationNumber,
			DisableReason: string(station.DisableReason),
		})
	}
	return resp
}

func clearanceProblemsFromDTO(problems httptransport.ClearanceProblems) entities.ClearanceProblems {
	return entities.ClearanceProblems{
		CenterNameMissing:                problems.CenterNameMissing,
		CenterNameMismatching:            problems.CenterNameMismatching,
		CenterCodeMissing:                problems.CenterCodeMissing,
		CenterCodeMismatching:            problems.CenterCodeMismatching,
		FormAlreadyInSystem:              problems.FormAlreadyInSystem,
		FormIncorrectlyEnteredIntoSystem: problems.FormIncorrectlyEnteredIntoSystem,
		Other:                            problems.Other,
	}
}

func auditProblemsFromDTO(problems httptransport.AuditProblems) entities.AuditProblems {
	return entities.AuditProblems{
		BlankReconciliation: problems.BlankReconciliation,
		BlankResults:        problems.BlankResults,
		DamagedForm:         problems.DamagedForm,
		UnclearFigures:      problems.UnclearFigures,
		Other:               problems.Other,
	}
}

func attachmentFromDTO(attachment *httptransport.Attachment) *entities.Attachment {
	if attachment == nil {
		return nil
	}
	return &entities.Attachment{
		Name:      attachment.Name,
		SizeBytes: attachment.SizeBytes,
		StoredAt:  attachment.StoredAt,
	}
}

func attachmentToDTO(attachment *entities.Attachment) *httptransport.Attachment {
	if attachment == nil {
		return nil
	}
	return &httptransport.Attachment{
		Name:      attachment.Name,
		SizeBytes: attachment.SizeBytes,
		StoredAt:  attachment.StoredAt,
	}
}

func reconValuesFromDTO(values map[string]int) entities.ReconValues {
	if values == nil {
		return nil
	}
	out := make(entities.ReconValues, len(values))
	for field, value := range values {
		out[entities.ReconField(field)] = value
	}
	return out
}
