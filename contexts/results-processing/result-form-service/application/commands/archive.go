package commands

import (
	"context"
	"errors"

	"tally/contexts/results-processing/result-form-service/domain/entities"
	domainerrors "tally/contexts/results-processing/result-form-service/domain/errors"
	"tally/contexts/results-processing/result-form-service/domain/reconciliation"
	"tally/contexts/results-processing/result-form-service/domain/workflow"
)

// ArchiveFormCommand asks for a form in ARCHIVING to run the quarantine
// checks and either archive or go to audit.
type ArchiveFormCommand struct {
	Actor        entities.Actor
	TallyID      string
	ResultFormID string
}

// ArchiveUseCase finalises forms waiting in ARCHIVING.
type ArchiveUseCase struct {
	Runtime
}

// Archive moves the form to ARCHIVED, or to AUDIT when a quarantine check
// or an earlier escalation left an active audit on it.
func (uc ArchiveUseCase) Archive(ctx context.Context, cmd ArchiveFormCommand) (entities.ResultForm, error) {
	var form entities.ResultForm
	err := uc.runForm(ctx, "archive_form", cmd.Actor, workflow.ActionArchiveFinalize, cmd.TallyID, cmd.ResultFormID,
		func(ctx context.Context, tx *formTx) error {
			if err := workflow.RequireState(tx.form.FormState, entities.FormStateArchived, entities.FormStateArchiving); err != nil {
				return err
			}
			if err := assertFinalSet(ctx, tx); err != nil {
				return err
			}

			audit, err := tx.store.GetActiveAudit(ctx, tx.form.ResultFormID)
			switch {
			case err == nil:
				if err := tx.transition(ctx, entities.FormStateAudit, workflow.ActionArchiveFinalize, "active audit"); err != nil {
					return err
				}
				if err := tx.revise(ctx, entities.EntityKindAudit, audit.AuditID, workflow.ActionArchiveFinalize, audit); err != nil {
					return err
				}
				if err := tx.requestCover(ctx, "audit", uc.Settings.PrintCoverInAudit); err != nil {
					return err
				}
			case errors.Is(err, domainerrors.ErrNotFound):
				if err := tx.transition(ctx, entities.FormStateArchived, workflow.ActionArchiveFinalize, ""); err != nil {
					return err
				}
			default:
				return err
			}
			form = tx.form
			return nil
		})
	return form, err
}

// assertFinalSet checks that exactly one complete FINAL set is active.
func assertFinalSet(ctx context.Context, tx *formTx) error {
	candidates, err := tx.candidates(ctx)
	if err != nil {
		return err
	}
	results, err := tx.store.ListResults(ctx, tx.form.ResultFormID, entities.EntryVersionFinal)
	if err != nil {
		return err
	}
	seen := map[string]bool{}
	for _, result := range results {
		if !result.Active {
			continue
		}
		if seen[result.CandidateID] {
			return domainerrors.Integrity("result form %s has two active final rows for candidate %s",
				tx.form.ResultFormID, result.CandidateID)
		}
		seen[result.CandidateID] = true
	}
	final, err := tx.sheet(ctx, entities.EntryVersionFinal)
	if err != nil {
		return err
	}
	if missing := final.Missing(candidates); len(missing) > 0 {
		return domainerrors.Integrity("result form %s reached archiving without a complete final set: %v",
			tx.form.ResultFormID, missing)
	}
	if err := reconciliation.CheckVoteCeiling(final); err != nil {
		return domainerrors.Integrity("result form %s final set breaks the vote ceiling: %v", tx.form.ResultFormID, err)
	}
	return nil
}
