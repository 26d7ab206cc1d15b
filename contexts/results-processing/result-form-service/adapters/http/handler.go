package httpadapter

import (
	"context"
	"log/slog"
	"strings"

	"tally/contexts/results-processing/result-form-service/application/commands"
	"tally/contexts/results-processing/result-form-service/application/queries"
	"tally/contexts/results-processing/result-form-service/application/workers"
	"tally/contexts/results-processing/result-form-service/domain/entities"
	"tally/contexts/results-processing/result-form-service/ports"
	httptransport "tally/contexts/results-processing/result-form-service/transport/http"
)

type Handler struct {
	Intake          commands.IntakeUseCase
	Registry        commands.RegistryUseCase
	DataEntry       commands.DataEntryUseCase
	Corrections     commands.CorrectionsUseCase
	QualityControl  commands.QualityControlUseCase
	Archive         commands.ArchiveUseCase
	Clearance       commands.ClearanceUseCase
	Audit           commands.AuditUseCase
	ReferenceAdmin  commands.ReferenceUseCase
	CheckAdmin      commands.QuarantineCheckUseCase
	Forms           queries.ResultFormQueries
	CorrectionsView queries.CorrectionsQueries
	Reference       queries.ReferenceQueries
	Reports         queries.ReportQueries
	Refresher       workers.ProjectionRefresher
	Logger          *slog.Logger
}

func actorOf(caller httptransport.Caller) entities.Actor {
	return entities.Actor{
		UserID: strings.TrimSpace(caller.UserID),
		Roles:  entities.ParseRoles(caller.Roles),
	}
}

func (h Handler) ReceiveFormHandler(
	ctx context.Context,
	caller httptransport.Caller,
	tallyID string,
	req httptransport.ReceiveFormRequest,
) (httptransport.ResultFormResponse, error) {
	form, err := h.Intake.Receive(ctx, commands.ReceiveFormCommand{
		Actor:   actorOf(caller),
		TallyID: tallyID,
		Barcode: req.Barcode,
	})
	if err != nil {
		return httptransport.ResultFormResponse{}, err
	}
	return mapForm(form), nil
}

func (h Handler) AssignCenterStationHandler(
	ctx context.Context,
	caller httptransport.Caller,
	tallyID string,
	resultFormID string,
	req httptransport.AssignCenterStationRequest,
) (httptransport.ResultFormResponse, error) {
	form, err := h.Intake.AssignCenterStation(ctx, commands.AssignCenterStationCommand{
		Actor:         actorOf(caller),
		TallyID:       tallyID,
		ResultFormID:  resultFormID,
		CenterCode:    req.CenterCode,
		StationNumber: req.StationNumber,
	})
	if err != nil {
		return httptransport.ResultFormResponse{}, err
	}
	return mapForm(form), nil
}

func (h Handler) ConfirmIntakeHandler(ctx context.Context, caller httptransport.Caller, tallyID string, resultFormID string) (httptransport.ResultFormResponse, error) {
	form, err := h.Intake.Confirm(ctx, commands.ConfirmIntakeCommand{
		Actor:        actorOf(caller),
		TallyID:      tallyID,
		ResultFormID: resultFormID,
	})
	if err != nil {
		return httptransport.ResultFormResponse{}, err
	}
	return mapForm(form), nil
}

func (h Handler) RejectIntakeHandler(
	ctx context.Context,
	caller httptransport.Caller,
	tallyID string,
	resultFormID string,
	req httptransport.ReasonRequest,
) (httptransport.ResultFormResponse, error) {
	form, err := h.Intake.Reject(ctx, commands.RejectIntakeCommand{
		Actor:        actorOf(caller),
		TallyID:      tallyID,
		ResultFormID: resultFormID,
		Reason:       req.Reason,
	})
	if err != nil {
		return httptransport.ResultFormResponse{}, err
	}
	return mapForm(form), nil
}

func (h Handler) ReferToClearanceHandler(
	ctx context.Context,
	caller httptransport.Caller,
	tallyID string,
	resultFormID string,
	req httptransport.ReferToClearanceRequest,
) (httptransport.ResultFormResponse, error) {
	form, err := h.Intake.ReferToClearance(ctx, commands.ReferToClearanceCommand{
		Actor:        actorOf(caller),
		TallyID:      tallyID,
		ResultFormID: resultFormID,
		Problems:     clearanceProblemsFromDTO(req.Problems),
		Comment:      req.Comment,
	})
	if err != nil {
		return httptransport.ResultFormResponse{}, err
	}
	return mapForm(form), nil
}

func (h Handler) SetStateHandler(
	ctx context.Context,
	caller httptransport.Caller,
	tallyID string,
	resultFormID string,
	req httptransport.SetStateRequest,
) (httptransport.ResultFormResponse, error) {
	form, err := h.Registry.SetState(ctx, commands.SetStateCommand{
		Actor:        actorOf(caller),
		TallyID:      tallyID,
		ResultFormID: resultFormID,
		State:        entities.FormState(strings.ToLower(strings.TrimSpace(req.State))),
		Reason:       req.Reason,
	})
	if err != nil {
		return httptransport.ResultFormResponse{}, err
	}
	return mapForm(form), nil
}

func (h Handler) RecordActorHandler(ctx context.Context, caller httptransport.Caller, tallyID string, resultFormID string) error {
	return h.Registry.RecordActor(ctx, commands.RecordActorCommand{
		Actor:        actorOf(caller),
		TallyID:      tallyID,
		ResultFormID: resultFormID,
	})
}

func (h Handler) RemoveFormHandler(ctx context.Context, caller httptransport.Caller, tallyID string, resultFormID string) error {
	return h.Registry.Remove(ctx, commands.RemoveResultFormCommand{
		Actor:        actorOf(caller),
		TallyID:      tallyID,
		ResultFormID: resultFormID,
	})
}

func (h Handler) MarkDuplicateReviewedHandler(
	ctx context.Context,
	caller httptransport.Caller,
	tallyID string,
	resultFormID string,
	req httptransport.DuplicateReviewedRequest,
) (httptransport.ResultFormResponse, error) {
	form, err := h.Registry.MarkDuplicateReviewed(ctx, commands.MarkDuplicateReviewedCommand{
		Actor:        actorOf(caller),
		TallyID:      tallyID,
		ResultFormID: resultFormID,
		Reviewed:     req.Reviewed,
	})
	if err != nil {
		return httptransport.ResultFormResponse{}, err
	}
	return mapForm(form), nil
}

func (h Handler) SubmitFirstEntryHandler(
	ctx context.Context,
	caller httptransport.Caller,
	tallyID string,
	resultFormID string,
	req httptransport.EntryRequest,
) (httptransport.ResultFormResponse, error) {
	form, err := h.DataEntry.SubmitFirst(ctx, commands.SubmitEntryCommand{
		Actor:          actorOf(caller),
		TallyID:        tallyID,
		ResultFormID:   resultFormID,
		Votes:          req.Votes,
		Reconciliation: reconValuesFromDTO(req.Reconciliation),
	})
	if err != nil {
		return httptransport.ResultFormResponse{}, err
	}
	return mapForm(form), nil
}

func (h Handler) SubmitSecondEntryHandler(
	ctx context.Context,
	caller httptransport.Caller,
	tallyID string,
	resultFormID string,
	req httptransport.EntryRequest,
) (httptransport.SecondEntryResponse, error) {
	result, err := h.DataEntry.SubmitSecond(ctx, commands.SubmitEntryCommand{
		Actor:          actorOf(caller),
		TallyID:        tallyID,
		ResultFormID:   resultFormID,
		Votes:          req.Votes,
		Reconciliation: reconValuesFromDTO(req.Reconciliation),
	})
	if err != nil {
		return httptransport.SecondEntryResponse{}, err
	}
	return httptransport.SecondEntryResponse{
		Form:       mapForm(result.Form),
		Comparison: mapComparison(result.Comparison),
	}, nil
}

func (h Handler) EscalateToAuditHandler(
	ctx context.Context,
	caller httptransport.Caller,
	tallyID string,
	resultFormID string,
	req httptransport.EscalateToAuditRequest,
) (httptransport.ResultFormResponse, error) {
	form, err := h.DataEntry.EscalateToAudit(ctx, commands.EscalateToAuditCommand{
		Actor:        actorOf(caller),
		TallyID:      tallyID,
		ResultFormID: resultFormID,
		Problems:     auditProblemsFromDTO(req.Problems),
		Comment:      req.Comment,
	})
	if err != nil {
		return httptransport.ResultFormResponse{}, err
	}
	return mapForm(form), nil
}

func (h Handler) CorrectionsViewHandler(ctx context.Context, tallyID string, resultFormID string) (httptransport.CorrectionsResponse, error) {
	view, err := h.CorrectionsView.View(ctx, tallyID, resultFormID)
	if err != nil {
		return httptransport.CorrectionsResponse{}, err
	}
	return mapCorrections(view), nil
}

func (h Handler) SubmitCorrectionsHandler(
	ctx context.Context,
	caller httptransport.Caller,
	tallyID string,
	resultFormID string,
	req httptransport.EntryRequest,
) (httptransport.ResultFormResponse, error) {
	form, err := h.Corrections.Submit(ctx, commands.SubmitCorrectionsCommand{
		Actor:          actorOf(caller),
		TallyID:        tallyID,
		ResultFormID:   resultFormID,
		Votes:          req.Votes,
		Reconciliation: reconValuesFromDTO(req.Reconciliation),
	})
	if err != nil {
		return httptransport.ResultFormResponse{}, err
	}
	return mapForm(form), nil
}

func (h Handler) RejectCorrectionsHandler(
	ctx context.Context,
	caller httptransport.Caller,
	tallyID string,
	resultFormID string,
	req httptransport.ReasonRequest,
) (httptransport.ResultFormResponse, error) {
	form, err := h.Corrections.Reject(ctx, commands.RejectCorrectionsCommand{
		Actor:        actorOf(caller),
		TallyID:      tallyID,
		ResultFormID: resultFormID,
		Reason:       req.Reason,
	})
	if err != nil {
		return httptransport.ResultFormResponse{}, err
	}
	return mapForm(form), nil
}

func (h Handler) AbortCorrectionsHandler(ctx context.Context, caller httptransport.Caller, tallyID string, resultFormID string) error {
	return h.Corrections.Abort(ctx, commands.AbortCorrectionsCommand{
		Actor:        actorOf(caller),
		TallyID:      tallyID,
		ResultFormID: resultFormID,
	})
}

func (h Handler) StartQualityControlHandler(ctx context.Context, caller httptransport.Caller, tallyID string, resultFormID string) (httptransport.QualityControlResponse, error) {
	review, err := h.QualityControl.Start(ctx, commands.StartQualityControlCommand{
		Actor:        actorOf(caller),
		TallyID:      tallyID,
		ResultFormID: resultFormID,
	})
	if err != nil {
		return httptransport.QualityControlResponse{}, err
	}
	return mapQualityControl(review), nil
}

func (h Handler) SubmitQualityControlHandler(
	ctx context.Context,
	caller httptransport.Caller,
	tallyID string,
	resultFormID string,
	req httptransport.QualityControlRequest,
) (httptransport.QualityControlResultResponse, error) {
	result, err := h.QualityControl.Submit(ctx, commands.SubmitQualityControlCommand{
		Actor:                actorOf(caller),
		TallyID:              tallyID,
		ResultFormID:         resultFormID,
		PassedGeneral:        req.PassedGeneral,
		PassedReconciliation: req.PassedReconciliation,
		PassedWomens:         req.PassedWomens,
	})
	if err != nil {
		return httptransport.QualityControlResultResponse{}, err
	}
	failed := make([]httptransport.CheckOutcome, 0, len(result.FailedChecks))
	for _, outcome := range result.FailedChecks {
		failed = append(failed, httptransport.CheckOutcome{
			CheckID: outcome.CheckID,
			Name:    outcome.Name,
			Method:  outcome.Method,
			Passed:  outcome.Passed,
		})
	}
	return httptransport.QualityControlResultResponse{
		Form:           mapForm(result.Form),
		Review:         mapQualityControl(result.Review),
		FailedChecks:   failed,
		AuditRequested: result.AuditRequested,
	}, nil
}

func (h Handler) ArchiveHandler(ctx context.Context, caller httptransport.Caller, tallyID string, resultFormID string) (httptransport.ResultFormResponse, error) {
	form, err := h.Archive.Archive(ctx, commands.ArchiveFormCommand{
		Actor:        actorOf(caller),
		TallyID:      tallyID,
		ResultFormID: resultFormID,
	})
	if err != nil {
		return httptransport.ResultFormResponse{}, err
	}
	return mapForm(form), nil
}

func (h Handler) ReviewClearanceHandler(
	ctx context.Context,
	caller httptransport.Caller,
	tallyID string,
	resultFormID string,
	req httptransport.ClearanceReviewRequest,
) (httptransport.ClearanceResponse, error) {
	cmd := commands.ReviewClearanceCommand{
		Actor:          actorOf(caller),
		TallyID:        tallyID,
		ResultFormID:   resultFormID,
		ActionPrior:    entities.ActionPrior(strings.ToLower(req.ActionPrior)),
		Recommendation: entities.ClearanceResolution(strings.ToLower(req.Recommendation)),
		Comment:        req.Comment,
		Attachment:     attachmentFromDTO(req.Attachment),
		Forward:        req.Forward,
	}
	if req.Problems != nil {
		problems := clearanceProblemsFromDTO(*req.Problems)
		cmd.Problems = &problems
	}
	clearance, err := h.Clearance.Review(ctx, cmd)
	if err != nil {
		return httptransport.ClearanceResponse{}, err
	}
	return mapClearance(clearance), nil
}

func (h Handler) ImplementClearanceHandler(
	ctx context.Context,
	caller httptransport.Caller,
	tallyID string,
	resultFormID string,
	req httptransport.CommentRequest,
) (httptransport.ResultFormResponse, error) {
	form, err := h.Clearance.Implement(ctx, commands.ImplementClearanceCommand{
		Actor:        actorOf(caller),
		TallyID:      tallyID,
		ResultFormID: resultFormID,
		Comment:      req.Comment,
	})
	if err != nil {
		return httptransport.ResultFormResponse{}, err
	}
	return mapForm(form), nil
}

func (h Handler) ReturnClearanceHandler(
	ctx context.Context,
	caller httptransport.Caller,
	tallyID string,
	resultFormID string,
	req httptransport.CommentRequest,
) (httptransport.ClearanceResponse, error) {
	clearance, err := h.Clearance.Return(ctx, commands.ReturnClearanceCommand{
		Actor:        actorOf(caller),
		TallyID:      tallyID,
		ResultFormID: resultFormID,
		Comment:      req.Comment,
	})
	if err != nil {
		return httptransport.ClearanceResponse{}, err
	}
	return mapClearance(clearance), nil
}

func (h Handler) ReviewAuditHandler(
	ctx context.Context,
	caller httptransport.Caller,
	tallyID string,
	resultFormID string,
	req httptransport.AuditReviewRequest,
) (httptransport.AuditResponse, error) {
	cmd := commands.ReviewAuditCommand{
		Actor:          actorOf(caller),
		TallyID:        tallyID,
		ResultFormID:   resultFormID,
		ActionPrior:    entities.ActionPrior(strings.ToLower(req.ActionPrior)),
		Recommendation: entities.AuditResolution(strings.ToLower(req.Recommendation)),
		Comment:        req.Comment,
		Attachment:     attachmentFromDTO(req.Attachment),
		Forward:        req.Forward,
	}
	if req.Problems != nil {
		problems := auditProblemsFromDTO(*req.Problems)
		cmd.Problems = &problems
	}
	audit, err := h.Audit.Review(ctx, cmd)
	if err != nil {
		return httptransport.AuditResponse{}, err
	}
	return mapAudit(audit), nil
}

func (h Handler) ForwardAuditHandler(
	ctx context.Context,
	caller httptransport.Caller,
	tallyID string,
	resultFormID string,
	req httptransport.CommentRequest,
) (httptransport.AuditResponse, error) {
	audit, err := h.Audit.ForwardToSuperAdmin(ctx, commands.ForwardAuditCommand{
		Actor:        actorOf(caller),
		TallyID:      tallyID,
		ResultFormID: resultFormID,
		Comment:      req.Comment,
	})
	if err != nil {
		return httptransport.AuditResponse{}, err
	}
	return mapAudit(audit), nil
}

func (h Handler) ConfirmAuditHandler(
	ctx context.Context,
	caller httptransport.Caller,
	tallyID string,
	resultFormID string,
	req httptransport.CommentRequest,
) (httptransport.ResultFormResponse, error) {
	form, err := h.Audit.Confirm(ctx, commands.DecideAuditCommand{
		Actor:        actorOf(caller),
		TallyID:      tallyID,
		ResultFormID: resultFormID,
		Comment:      req.Comment,
	})
	if err != nil {
		return httptransport.ResultFormResponse{}, err
	}
	return mapForm(form), nil
}

func (h Handler) AcceptAuditHandler(
	ctx context.Context,
	caller httptransport.Caller,
	tallyID string,
	resultFormID string,
	req httptransport.CommentRequest,
) (httptransport.ResultFormResponse, error) {
	form, err := h.Audit.Accept(ctx, commands.DecideAuditCommand{
		Actor:        actorOf(caller),
		TallyID:      tallyID,
		ResultFormID: resultFormID,
		Comment:      req.Comment,
	})
	if err != nil {
		return httptransport.ResultFormResponse{}, err
	}
	return mapForm(form), nil
}

func (h Handler) ReopenArchivedHandler(
	ctx context.Context,
	caller httptransport.Caller,
	tallyID string,
	resultFormID string,
	req httptransport.ReasonRequest,
) (httptransport.ResultFormResponse, error) {
	form, err := h.Audit.ReopenArchived(ctx, commands.ReopenArchivedCommand{
		Actor:        actorOf(caller),
		TallyID:      tallyID,
		ResultFormID: resultFormID,
		Reason:       req.Reason,
	})
	if err != nil {
		return httptransport.ResultFormResponse{}, err
	}
	return mapForm(form), nil
}

func (h Handler) GetFormHandler(ctx context.Context, tallyID string, resultFormID string) (httptransport.ResultFormDetailResponse, error) {
	detail, err := h.Forms.Get(ctx, tallyID, resultFormID)
	if err != nil {
		return httptransport.ResultFormDetailResponse{}, err
	}
	resp := httptransport.ResultFormDetailResponse{Form: mapForm(detail.Form)}
	if detail.Clearance != nil {
		clearance := mapClearance(*detail.Clearance)
		resp.Clearance = &clearance
	}
	if detail.Audit != nil {
		audit := mapAudit(*detail.Audit)
		resp.Audit = &audit
	}
	if detail.QualityControl != nil {
		review := mapQualityControl(*detail.QualityControl)
		resp.QualityControl = &review
	}
	return resp, nil
}

func (h Handler) LookupBarcodeHandler(ctx context.Context, tallyID string, barcode string) (httptransport.ResultFormResponse, error) {
	form, err := h.Forms.LookupByBarcode(ctx, tallyID, barcode)
	if err != nil {
		return httptransport.ResultFormResponse{}, err
	}
	return mapForm(form), nil
}

func (h Handler) ListFormsHandler(
	ctx context.Context,
	tallyID string,
	states []string,
	ballotID string,
	centerID string,
	limit int,
) (httptransport.ResultFormListResponse, error) {
	filter := ports.ResultFormFilter{
		TallyID:  tallyID,
		BallotID: ballotID,
		CenterID: centerID,
		Limit:    limit,
	}
	for _, state := range states {
		filter.States = append(filter.States, entities.FormState(strings.ToLower(strings.TrimSpace(state))))
	}
	forms, err := h.Forms.List(ctx, filter)
	if err != nil {
		return httptransport.ResultFormListResponse{}, err
	}
	return httptransport.ResultFormListResponse{Items: mapForms(forms)}, nil
}

func (h Handler) StateHistoryHandler(ctx context.Context, tallyID string, resultFormID string) (httptransport.StateHistoryResponse, error) {
	changes, err := h.Forms.StateHistory(ctx, tallyID, resultFormID)
	if err != nil {
		return httptransport.StateHistoryResponse{}, err
	}
	items := make([]httptransport.StateChangeResponse, 0, len(changes))
	for _, change := range changes {
		items = append(items, httptransport.StateChangeResponse{
			FromState: string(change.FromState),
			ToState:   string(change.ToState),
			Action:    change.Action,
			ActorID:   change.ActorID,
			Reason:    change.Reason,
			CreatedAt: change.CreatedAt,
		})
	}
	return httptransport.StateHistoryResponse{Items: items}, nil
}

func (h Handler) RevisionsHandler(ctx context.Context, tallyID string, kind string, entityID string) (httptransport.RevisionListResponse, error) {
	revisions, err := h.Forms.Revisions(ctx, tallyID, entities.EntityKind(strings.ToLower(kind)), entityID)
	if err != nil {
		return httptransport.RevisionListResponse{}, err
	}
	items := make([]httptransport.RevisionResponse, 0, len(revisions))
	for _, revision := range revisions {
		items = append(items, mapRevision(revision))
	}
	return httptransport.RevisionListResponse{Items: items}, nil
}
