package commands

import (
	"context"
	"strings"

	"tally/contexts/results-processing/result-form-service/domain/entities"
	domainerrors "tally/contexts/results-processing/result-form-service/domain/errors"
	"tally/contexts/results-processing/result-form-service/domain/reconciliation"
	"tally/contexts/results-processing/result-form-service/domain/workflow"
)

// SubmitEntryCommand carries one clerk's full entry for a result form:
// a vote count per candidate plus the reconciliation fields.
type SubmitEntryCommand struct {
	Actor          entities.Actor
	TallyID        string
	ResultFormID   string
	Votes          map[string]int
	Reconciliation entities.ReconValues
}

// EscalateToAuditCommand is the data entry 1 clerk's request to send an
// unenterable form to audit with the problems they found.
type EscalateToAuditCommand struct {
	Actor        entities.Actor
	TallyID      string
	ResultFormID string
	Problems     entities.AuditProblems
	Comment      string
}

// SecondEntryResult reports where double entry left the form.
type SecondEntryResult struct {
	Form       entities.ResultForm
	Comparison reconciliation.Comparison
}

// DataEntryUseCase records the two independent clerk entries and
// reconciles them.
type DataEntryUseCase struct {
	Runtime
}

// SubmitFirst stores the DATA_ENTRY_1 set and hands the form to the second
// clerk.
func (uc DataEntryUseCase) SubmitFirst(ctx context.Context, cmd SubmitEntryCommand) (entities.ResultForm, error) {
	var form entities.ResultForm
	err := uc.runForm(ctx, "submit_data_entry_1", cmd.Actor, workflow.ActionDataEntryFirst, cmd.TallyID, cmd.ResultFormID,
		func(ctx context.Context, tx *formTx) error {
			if err := workflow.RequireState(tx.form.FormState, entities.FormStateDataEntry2, entities.FormStateDataEntry1); err != nil {
				return err
			}
			if err := uc.writeValidated(ctx, tx, entities.EntryVersionDataEntry1, cmd); err != nil {
				return err
			}
			if err := tx.transition(ctx, entities.FormStateDataEntry2, workflow.ActionDataEntryFirst, ""); err != nil {
				return err
			}
			form = tx.form
			return nil
		})
	return form, err
}

// SubmitSecond stores the DATA_ENTRY_2 set and compares it with the first.
// Matching entries become FINAL and the form goes to quality control;
// otherwise it stays in CORRECTION with the mismatches as the work item.
func (uc DataEntryUseCase) SubmitSecond(ctx context.Context, cmd SubmitEntryCommand) (SecondEntryResult, error) {
	var out SecondEntryResult
	err := uc.runForm(ctx, "submit_data_entry_2", cmd.Actor, workflow.ActionDataEntrySecond, cmd.TallyID, cmd.ResultFormID,
		func(ctx context.Context, tx *formTx) error {
			if err := workflow.RequireState(tx.form.FormState, entities.FormStateCorrection, entities.FormStateDataEntry2); err != nil {
				return err
			}
			if err := uc.writeValidated(ctx, tx, entities.EntryVersionDataEntry2, cmd); err != nil {
				return err
			}
			if err := tx.transition(ctx, entities.FormStateCorrection, workflow.ActionDataEntrySecond, ""); err != nil {
				return err
			}

			candidates, err := tx.candidates(ctx)
			if err != nil {
				return err
			}
			first, err := tx.sheet(ctx, entities.EntryVersionDataEntry1)
			if err != nil {
				return err
			}
			second, err := tx.sheet(ctx, entities.EntryVersionDataEntry2)
			if err != nil {
				return err
			}
			comparison, err := reconciliation.Compare(candidates, first, second)
			if err != nil {
				return err
			}
			out.Comparison = comparison
			// Matching entries that break the vote ceiling stay in CORRECTION
			// with the ballot counts open.
			if comparison.Matched() && reconciliation.CheckVoteCeiling(second) == nil {
				if err := promoteToFinal(ctx, tx, second); err != nil {
					return err
				}
				if err := tx.transition(ctx, entities.FormStateQualityControl, workflow.ActionDataEntrySecond, "entries matched"); err != nil {
					return err
				}
			}
			out.Form = tx.form
			return nil
		})
	return out, err
}

// EscalateToAudit sends a form that cannot be entered, such as a damaged or
// blank one, from data entry 1 to audit.
func (uc DataEntryUseCase) EscalateToAudit(ctx context.Context, cmd EscalateToAuditCommand) (entities.ResultForm, error) {
	var form entities.ResultForm
	err := uc.runForm(ctx, "escalate_to_audit", cmd.Actor, workflow.ActionDataEntryEscalate, cmd.TallyID, cmd.ResultFormID,
		func(ctx context.Context, tx *formTx) error {
			if err := workflow.RequireState(tx.form.FormState, entities.FormStateAudit, entities.FormStateDataEntry1); err != nil {
				return err
			}
			audit, _, err := tx.activeAudit(ctx)
			if err != nil {
				return err
			}
			audit.Problems = cmd.Problems
			audit.TeamComment = strings.TrimSpace(cmd.Comment)
			tx.form.AuditedCount++
			if err := tx.transition(ctx, entities.FormStateAudit, workflow.ActionDataEntryEscalate, cmd.Comment); err != nil {
				return err
			}
			if err := tx.saveAudit(ctx, audit, workflow.ActionDataEntryEscalate); err != nil {
				return err
			}
			form = tx.form
			return nil
		})
	return form, err
}

func (uc DataEntryUseCase) writeValidated(ctx context.Context, tx *formTx, version entities.EntryVersion, cmd SubmitEntryCommand) error {
	if err := tx.requireActiveLocation(ctx); err != nil {
		return err
	}
	candidates, err := tx.candidates(ctx)
	if err != nil {
		return err
	}
	set := entities.EntrySet{
		Version:        version,
		Votes:          cmd.Votes,
		Reconciliation: cmd.Reconciliation,
		UserID:         tx.actor.UserID,
	}
	if err := reconciliation.ValidateEntry(candidates, set); err != nil {
		return err
	}
	return tx.writeEntry(ctx, version, cmd.Votes, cmd.Reconciliation)
}

// promoteToFinal replaces any active FINAL rows with sheet. Invariant
// checks run on the sheet before anything is written.
func promoteToFinal(ctx context.Context, tx *formTx, sheet reconciliation.Sheet) error {
	candidates, err := tx.candidates(ctx)
	if err != nil {
		return err
	}
	if missing := sheet.Missing(candidates); len(missing) > 0 {
		return domainerrors.Integrity("final set for %s is incomplete: %v", tx.form.ResultFormID, missing)
	}
	if err := reconciliation.CheckVoteCeiling(sheet); err != nil {
		return err
	}
	if _, err := tx.store.DeactivateEntries(ctx, tx.form.ResultFormID, entities.EntryFilter{
		Versions:              []entities.EntryVersion{entities.EntryVersionFinal},
		IncludeResults:        true,
		IncludeReconciliation: true,
	}); err != nil {
		return err
	}
	return tx.writeEntry(ctx, entities.EntryVersionFinal, sheet.Votes, sheet.Reconciliation)
}
