package commands

import (
	"context"
	"errors"

	"tally/contexts/results-processing/result-form-service/domain/entities"
	domainerrors "tally/contexts/results-processing/result-form-service/domain/errors"
	"tally/contexts/results-processing/result-form-service/domain/quarantine"
	"tally/contexts/results-processing/result-form-service/domain/workflow"
	"tally/contexts/results-processing/result-form-service/ports"
)

// StartQualityControlCommand opens the quality control review of a form.
type StartQualityControlCommand struct {
	Actor        entities.Actor
	TallyID      string
	ResultFormID string
}

// SubmitQualityControlCommand records the reviewer's verdict per section.
// A false flag reopens that section for corrections.
type SubmitQualityControlCommand struct {
	Actor                entities.Actor
	TallyID              string
	ResultFormID         string
	PassedGeneral        bool
	PassedReconciliation bool
	PassedWomens         bool
}

// QualityControlResult tells the caller where the review left the form and
// which quarantine checks failed on the way into archiving.
type QualityControlResult struct {
	Form           entities.ResultForm
	Review         entities.QualityControl
	FailedChecks   []entities.CheckOutcome
	AuditRequested bool
}

// QualityControlUseCase runs the three-section review of the FINAL set.
type QualityControlUseCase struct {
	Runtime
}

// Start opens the review record for the acting clerk.
func (uc QualityControlUseCase) Start(ctx context.Context, cmd StartQualityControlCommand) (entities.QualityControl, error) {
	var review entities.QualityControl
	err := uc.runForm(ctx, "start_quality_control", cmd.Actor, workflow.ActionQualityControlStart, cmd.TallyID, cmd.ResultFormID,
		func(ctx context.Context, tx *formTx) error {
			if err := workflow.RequireState(tx.form.FormState, entities.FormStateQualityControl, entities.FormStateQualityControl); err != nil {
				return err
			}
			current, created, err := activeReview(ctx, tx)
			if err != nil {
				return err
			}
			if created {
				if err := tx.store.SaveQualityControl(ctx, current); err != nil {
					return err
				}
			}
			review = current
			return nil
		})
	return review, err
}

// Submit records the three section verdicts. All three passing sends the
// form to ARCHIVING, where the quarantine checks run. Any failure reopens
// the failed sections for correction.
func (uc QualityControlUseCase) Submit(ctx context.Context, cmd SubmitQualityControlCommand) (QualityControlResult, error) {
	var out QualityControlResult
	err := uc.runForm(ctx, "submit_quality_control", cmd.Actor, workflow.ActionQualityControlReview, cmd.TallyID, cmd.ResultFormID,
		func(ctx context.Context, tx *formTx) error {
			if err := workflow.RequireState(tx.form.FormState, entities.FormStateArchiving, entities.FormStateQualityControl); err != nil {
				return err
			}
			review, _, err := activeReview(ctx, tx)
			if err != nil {
				return err
			}
			review.UserID = tx.actor.UserID
			review.PassedGeneral = boolPtr(cmd.PassedGeneral)
			review.PassedReconciliation = boolPtr(cmd.PassedReconciliation)
			review.PassedWomens = boolPtr(cmd.PassedWomens)
			review.UpdatedAt = tx.now
			review.Active = false

			if review.AllPassed() {
				if err := tx.store.SaveQualityControl(ctx, review); err != nil {
					return err
				}
				if err := tx.transition(ctx, entities.FormStateArchiving, workflow.ActionQualityControlReview, ""); err != nil {
					return err
				}
				if err := tx.requestCover(ctx, "quality_control", uc.Settings.PrintCoverInQualityControl); err != nil {
					return err
				}
				failed, audited, err := uc.runQuarantine(ctx, tx)
				if err != nil {
					return err
				}
				out.FailedChecks = failed
				out.AuditRequested = audited
			} else {
				review.FailedSections = failedSections(cmd)
				if err := tx.store.SaveQualityControl(ctx, review); err != nil {
					return err
				}
				if err := reopenSections(ctx, tx, review.FailedSections); err != nil {
					return err
				}
			}
			out.Review = review
			out.Form = tx.form
			return nil
		})
	return out, err
}

// runQuarantine evaluates the active checks against the FINAL set. Failures
// open or extend the form's audit record.
func (uc QualityControlUseCase) runQuarantine(ctx context.Context, tx *formTx) ([]entities.CheckOutcome, bool, error) {
	if tx.form.SkipQuarantineChecks {
		return nil, false, nil
	}
	checks, err := tx.store.ListQuarantineChecks(ctx)
	if err != nil {
		return nil, false, err
	}
	input, err := quarantineInput(ctx, tx)
	if err != nil {
		return nil, false, err
	}
	outcomes, err := uc.checks().Evaluate(checks, input)
	if err != nil {
		return nil, false, domainerrors.Integrity("quarantine evaluation failed: %v", err)
	}
	failed := quarantine.Failed(outcomes)
	if len(failed) == 0 {
		return nil, false, nil
	}

	audit, _, err := tx.activeAudit(ctx)
	if err != nil {
		return nil, false, err
	}
	methods := make([]string, 0, len(failed))
	for _, outcome := range failed {
		audit.AttachCheck(outcome.CheckID)
		methods = append(methods, outcome.Method)
	}
	tx.form.AuditedCount++
	if err := tx.saveForm(ctx, workflow.ActionQualityControlReview); err != nil {
		return nil, false, err
	}
	if err := tx.saveAudit(ctx, audit, workflow.ActionQualityControlReview); err != nil {
		return nil, false, err
	}
	if err := tx.emit(ctx, ports.EventResultFormQuarantined, map[string]any{
		"result_form_id": tx.form.ResultFormID,
		"barcode":        tx.form.Barcode,
		"audit_id":       audit.AuditID,
		"failed_methods": methods,
	}); err != nil {
		return nil, false, err
	}
	tx.quarantineFailures = append(tx.quarantineFailures, methods...)
	return failed, true, nil
}

func quarantineInput(ctx context.Context, tx *formTx) (quarantine.Input, error) {
	input := quarantine.Input{Form: tx.form}
	station, err := tx.store.GetStation(ctx, tx.form.TallyID, tx.form.CenterID, tx.form.StationNumber)
	switch {
	case err == nil:
		input.Registrants = station.Registrants
	case !errors.Is(err, domainerrors.ErrNotFound):
		return quarantine.Input{}, err
	}
	results, err := tx.store.ListResults(ctx, tx.form.ResultFormID, entities.EntryVersionFinal)
	if err != nil {
		return quarantine.Input{}, err
	}
	for _, result := range results {
		if result.Active {
			input.Results = append(input.Results, result)
		}
	}
	recon, found, err := tx.store.GetReconciliation(ctx, tx.form.ResultFormID, entities.EntryVersionFinal)
	if err != nil {
		return quarantine.Input{}, err
	}
	if found && recon.Active {
		input.Reconciliation = &recon
	}
	return input, nil
}

// reopenSections retires the FINAL rows reviewed by the failed sections and
// returns the form to CORRECTION.
func reopenSections(ctx context.Context, tx *formTx, sections []entities.Section) error {
	candidates, err := tx.candidates(ctx)
	if err != nil {
		return err
	}
	reopened := map[entities.Section]bool{}
	for _, section := range sections {
		reopened[section] = true
	}
	var candidateIDs []string
	for _, candidate := range candidates {
		if reopened[candidate.RaceType.Section()] {
			candidateIDs = append(candidateIDs, candidate.CandidateID)
		}
	}
	final := []entities.EntryVersion{entities.EntryVersionFinal}
	if len(candidateIDs) > 0 {
		if _, err := tx.store.DeactivateEntries(ctx, tx.form.ResultFormID, entities.EntryFilter{
			Versions:       final,
			CandidateIDs:   candidateIDs,
			IncludeResults: true,
		}); err != nil {
			return err
		}
	}
	if reopened[entities.SectionReconciliation] {
		if _, err := tx.store.DeactivateEntries(ctx, tx.form.ResultFormID, entities.EntryFilter{
			Versions:              final,
			IncludeReconciliation: true,
		}); err != nil {
			return err
		}
	}
	tx.form.ReopenedSections = append([]entities.Section(nil), sections...)
	return tx.transition(ctx, entities.FormStateCorrection, workflow.ActionQualityControlReview, "quality control rejected")
}

func activeReview(ctx context.Context, tx *formTx) (entities.QualityControl, bool, error) {
	review, err := tx.store.GetActiveQualityControl(ctx, tx.form.ResultFormID)
	if err == nil {
		return review, false, nil
	}
	if !errors.Is(err, domainerrors.ErrNotFound) {
		return entities.QualityControl{}, false, err
	}
	reviewID, err := tx.newID(ctx)
	if err != nil {
		return entities.QualityControl{}, false, err
	}
	return entities.QualityControl{
		QualityControlID: reviewID,
		ResultFormID:     tx.form.ResultFormID,
		UserID:           tx.actor.UserID,
		Active:           true,
		CreatedAt:        tx.now,
		UpdatedAt:        tx.now,
	}, true, nil
}

func failedSections(cmd SubmitQualityControlCommand) []entities.Section {
	var sections []entities.Section
	if !cmd.PassedGeneral {
		sections = append(sections, entities.SectionGeneral)
	}
	if !cmd.PassedReconciliation {
		sections = append(sections, entities.SectionReconciliation)
	}
	if !cmd.PassedWomens {
		sections = append(sections, entities.SectionWomen)
	}
	return sections
}

func boolPtr(v bool) *bool {
	return &v
}
