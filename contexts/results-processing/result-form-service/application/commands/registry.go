package commands

import (
	"context"
	"strings"

	"tally/contexts/results-processing/result-form-service/domain/entities"
	domainerrors "tally/contexts/results-processing/result-form-service/domain/errors"
	"tally/contexts/results-processing/result-form-service/domain/workflow"
	"tally/contexts/results-processing/result-form-service/ports"
)

const actionRecordActor workflow.Action = "registry.record_actor"

// SetStateCommand is the super administrator's direct state override.
type SetStateCommand struct {
	Actor        entities.Actor
	TallyID      string
	ResultFormID string
	State        entities.FormState
	Reason       string
}

// RecordActorCommand stamps the actor as the form's current user.
type RecordActorCommand struct {
	Actor        entities.Actor
	TallyID      string
	ResultFormID string
}

// RemoveResultFormCommand deletes a form that has never had results.
type RemoveResultFormCommand struct {
	Actor        entities.Actor
	TallyID      string
	ResultFormID string
}

// MarkDuplicateReviewedCommand sets or clears the duplicate-reviewed flag.
type MarkDuplicateReviewedCommand struct {
	Actor        entities.Actor
	TallyID      string
	ResultFormID string
	Reviewed     bool
}

// RegistryUseCase holds the administrative result-form operations.
type RegistryUseCase struct {
	Runtime
}

// SetState moves a form along any edge of the transition graph. Side
// effects of the clerical protocols are not applied.
func (uc RegistryUseCase) SetState(ctx context.Context, cmd SetStateCommand) (entities.ResultForm, error) {
	if !cmd.State.Valid() {
		return entities.ResultForm{}, domainerrors.Invalid("unknown form state %q", cmd.State)
	}
	var form entities.ResultForm
	err := uc.runForm(ctx, "set_state", cmd.Actor, workflow.ActionSetState, cmd.TallyID, cmd.ResultFormID,
		func(ctx context.Context, tx *formTx) error {
			if err := tx.transition(ctx, cmd.State, workflow.ActionSetState, cmd.Reason); err != nil {
				return err
			}
			form = tx.form
			return nil
		})
	return form, err
}

// RecordActor stamps the user who last handled the form. Any authenticated
// clerk may do this; it is not an audit trail by itself.
func (uc RegistryUseCase) RecordActor(ctx context.Context, cmd RecordActorCommand) error {
	if strings.TrimSpace(cmd.Actor.UserID) == "" || len(cmd.Actor.Roles) == 0 {
		return domainerrors.ErrAuthorizationFailed
	}
	return uc.UnitOfWork.WithinFormTx(ctx, cmd.TallyID, cmd.ResultFormID, func(ctx context.Context, store ports.WorkflowStore) error {
		form, err := store.GetResultForm(ctx, cmd.TallyID, cmd.ResultFormID)
		if err != nil {
			return err
		}
		form.UserID = cmd.Actor.UserID
		form.UpdatedAt = uc.now()
		if err := store.UpdateResultForm(ctx, form); err != nil {
			return err
		}
		return appendRevision(ctx, store, uc.IDGen, form.TallyID, entities.EntityKindResultForm, form.ResultFormID,
			actionRecordActor, cmd.Actor.UserID, form, form.UpdatedAt)
	})
}

// Remove deletes a form that never carried results.
func (uc RegistryUseCase) Remove(ctx context.Context, cmd RemoveResultFormCommand) error {
	return uc.runForm(ctx, "remove_result_form", cmd.Actor, workflow.ActionRemoveForm, cmd.TallyID, cmd.ResultFormID,
		func(ctx context.Context, tx *formTx) error {
			results, recons, err := tx.store.CountActiveEntries(ctx, tx.form.ResultFormID)
			if err != nil {
				return err
			}
			if tx.form.HasEverHadResults || results > 0 || recons > 0 {
				return domainerrors.ErrFormHasResults
			}
			if err := tx.revise(ctx, entities.EntityKindResultForm, tx.form.ResultFormID, workflow.ActionRemoveForm, tx.form); err != nil {
				return err
			}
			return tx.store.DeleteResultForm(ctx, tx.form.TallyID, tx.form.ResultFormID)
		})
}

// MarkDuplicateReviewed flags a form whose duplicate was looked at and
// deliberately kept. Aggregates ignore the flag.
func (uc RegistryUseCase) MarkDuplicateReviewed(ctx context.Context, cmd MarkDuplicateReviewedCommand) (entities.ResultForm, error) {
	var form entities.ResultForm
	err := uc.runForm(ctx, "mark_duplicate_reviewed", cmd.Actor, workflow.ActionSetState, cmd.TallyID, cmd.ResultFormID,
		func(ctx context.Context, tx *formTx) error {
			tx.form.DuplicateReviewed = cmd.Reviewed
			if err := tx.saveForm(ctx, workflow.ActionSetState); err != nil {
				return err
			}
			form = tx.form
			return nil
		})
	return form, err
}
