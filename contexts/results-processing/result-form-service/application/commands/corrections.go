package commands

import (
	"context"

	application "tally/contexts/results-processing/result-form-service/application"
	"tally/contexts/results-processing/result-form-service/domain/entities"
	"tally/contexts/results-processing/result-form-service/domain/reconciliation"
	"tally/contexts/results-processing/result-form-service/domain/workflow"
)

// SubmitCorrectionsCommand holds the corrections clerk's values for the
// open lines of the corrections screen. Locked lines may be omitted.
type SubmitCorrectionsCommand struct {
	Actor          entities.Actor
	TallyID        string
	ResultFormID   string
	Votes          map[string]int
	Reconciliation entities.ReconValues
}

// RejectCorrectionsCommand discards both entries.
type RejectCorrectionsCommand struct {
	Actor        entities.Actor
	TallyID      string
	ResultFormID string
	Reason       string
}

// AbortCorrectionsCommand leaves the corrections screen without writing.
type AbortCorrectionsCommand struct {
	Actor        entities.Actor
	TallyID      string
	ResultFormID string
}

// CorrectionsUseCase resolves DATA_ENTRY_1 and DATA_ENTRY_2 disagreements.
type CorrectionsUseCase struct {
	Runtime
}

// Submit writes the FINAL set from the locked values plus the clerk's
// authoritative values and sends the form to quality control.
func (uc CorrectionsUseCase) Submit(ctx context.Context, cmd SubmitCorrectionsCommand) (entities.ResultForm, error) {
	var form entities.ResultForm
	err := uc.runForm(ctx, "submit_corrections", cmd.Actor, workflow.ActionCorrectionsSubmit, cmd.TallyID, cmd.ResultFormID,
		func(ctx context.Context, tx *formTx) error {
			if err := workflow.RequireState(tx.form.FormState, entities.FormStateQualityControl, entities.FormStateCorrection); err != nil {
				return err
			}
			plan, err := correctionsPlan(ctx, tx)
			if err != nil {
				return err
			}
			final, err := plan.Apply(reconciliation.Corrections{Votes: cmd.Votes, Reconciliation: cmd.Reconciliation})
			if err != nil {
				return err
			}
			if err := promoteToFinal(ctx, tx, final); err != nil {
				return err
			}
			tx.form.ReopenedSections = nil
			if err := tx.transition(ctx, entities.FormStateQualityControl, workflow.ActionCorrectionsSubmit, ""); err != nil {
				return err
			}
			form = tx.form
			return nil
		})
	return form, err
}

// Reject throws away every entry and sends the form back to data entry 1.
func (uc CorrectionsUseCase) Reject(ctx context.Context, cmd RejectCorrectionsCommand) (entities.ResultForm, error) {
	var form entities.ResultForm
	err := uc.runForm(ctx, "reject_corrections", cmd.Actor, workflow.ActionCorrectionsReject, cmd.TallyID, cmd.ResultFormID,
		func(ctx context.Context, tx *formTx) error {
			if err := tx.reject(ctx, entities.FormStateDataEntry1, workflow.ActionCorrectionsReject, cmd.Reason); err != nil {
				return err
			}
			form = tx.form
			return nil
		})
	return form, err
}

// Abort leaves the form in CORRECTION. Nothing is written.
func (uc CorrectionsUseCase) Abort(ctx context.Context, cmd AbortCorrectionsCommand) error {
	err := uc.runForm(ctx, "abort_corrections", cmd.Actor, workflow.ActionCorrectionsAbort, cmd.TallyID, cmd.ResultFormID,
		func(ctx context.Context, tx *formTx) error {
			return workflow.RequireState(tx.form.FormState, entities.FormStateCorrection, entities.FormStateCorrection)
		})
	if err != nil {
		return err
	}
	uc.logger().Info("corrections aborted",
		"event", "result_form_corrections_aborted",
		"module", application.ModuleName,
		"layer", "application",
		"tally_id", cmd.TallyID,
		"result_form_id", cmd.ResultFormID,
		"actor_id", cmd.Actor.UserID,
	)
	return nil
}

func correctionsPlan(ctx context.Context, tx *formTx) (reconciliation.Plan, error) {
	candidates, err := tx.candidates(ctx)
	if err != nil {
		return reconciliation.Plan{}, err
	}
	first, err := tx.sheet(ctx, entities.EntryVersionDataEntry1)
	if err != nil {
		return reconciliation.Plan{}, err
	}
	second, err := tx.sheet(ctx, entities.EntryVersionDataEntry2)
	if err != nil {
		return reconciliation.Plan{}, err
	}
	final, err := tx.sheet(ctx, entities.EntryVersionFinal)
	if err != nil {
		return reconciliation.Plan{}, err
	}
	return reconciliation.PlanCorrections(candidates, first, second, final, tx.form.ReopenedSections)
}
