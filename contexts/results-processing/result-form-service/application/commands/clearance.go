package commands

import (
	"context"
	"errors"
	"strings"

	"tally/contexts/results-processing/result-form-service/domain/entities"
	domainerrors "tally/contexts/results-processing/result-form-service/domain/errors"
	"tally/contexts/results-processing/result-form-service/domain/workflow"
)

// ReviewClearanceCommand is the clearance clerk's review of an open
// clearance case.
type ReviewClearanceCommand struct {
	Actor          entities.Actor
	TallyID        string
	ResultFormID   string
	Problems       *entities.ClearanceProblems
	ActionPrior    entities.ActionPrior
	Recommendation entities.ClearanceResolution
	Comment        string
	Attachment     *entities.Attachment
	// Forward hands the case to the supervisor.
	Forward bool
}

// ImplementClearanceCommand applies the recommended resolution.
type ImplementClearanceCommand struct {
	Actor        entities.Actor
	TallyID      string
	ResultFormID string
	Comment      string
}

// ReturnClearanceCommand sends a case back to the clearance clerk without
// resolving it.
type ReturnClearanceCommand struct {
	Actor        entities.Actor
	TallyID      string
	ResultFormID string
	Comment      string
}

// ClearanceUseCase drives the two-step clearance review.
type ClearanceUseCase struct {
	Runtime
}

// Review records the clerk's or supervisor's findings on the open case.
func (uc ClearanceUseCase) Review(ctx context.Context, cmd ReviewClearanceCommand) (entities.Clearance, error) {
	if !cmd.ActionPrior.Valid() {
		return entities.Clearance{}, domainerrors.Invalid("unknown action prior %q", cmd.ActionPrior)
	}
	if !cmd.Recommendation.Valid() {
		return entities.Clearance{}, domainerrors.Invalid("unknown clearance recommendation %q", cmd.Recommendation)
	}
	var clearance entities.Clearance
	err := uc.runForm(ctx, "review_clearance", cmd.Actor, workflow.ActionClearanceReview, cmd.TallyID, cmd.ResultFormID,
		func(ctx context.Context, tx *formTx) error {
			if err := workflow.RequireState(tx.form.FormState, entities.FormStateClearance, entities.FormStateClearance); err != nil {
				return err
			}
			current, err := activeClearance(ctx, tx)
			if err != nil {
				return err
			}
			if err := tx.checkAttachment(cmd.Attachment); err != nil {
				return err
			}
			if cmd.Problems != nil {
				current.Problems = *cmd.Problems
			}
			if cmd.ActionPrior != entities.ActionPriorEmpty {
				current.ActionPrior = cmd.ActionPrior
			}
			if cmd.Recommendation != entities.ClearanceResolutionEmpty {
				current.ResolutionRecommendation = cmd.Recommendation
			}
			if cmd.Attachment != nil {
				current.Attachment = cmd.Attachment
			}
			now := tx.now
			if isClearanceSupervisor(tx.actor) {
				current.SupervisorID = tx.actor.UserID
				current.SupervisorComment = strings.TrimSpace(cmd.Comment)
				current.DateSupervisorModified = &now
			} else {
				current.UserID = tx.actor.UserID
				current.TeamComment = strings.TrimSpace(cmd.Comment)
				current.DateTeamModified = &now
			}
			if cmd.Forward {
				current.ReviewedTeam = true
			}
			if err := tx.saveClearance(ctx, current, workflow.ActionClearanceReview); err != nil {
				return err
			}
			clearance = current
			return nil
		})
	return clearance, err
}

// Implement closes a forwarded case. RESET_TO_PREINTAKE sends the form back
// to UNSUBMITTED; every other recommendation returns it to INTAKE.
func (uc ClearanceUseCase) Implement(ctx context.Context, cmd ImplementClearanceCommand) (entities.ResultForm, error) {
	var form entities.ResultForm
	err := uc.runForm(ctx, "implement_clearance", cmd.Actor, workflow.ActionClearanceImplement, cmd.TallyID, cmd.ResultFormID,
		func(ctx context.Context, tx *formTx) error {
			if err := workflow.RequireState(tx.form.FormState, entities.FormStateIntake, entities.FormStateClearance); err != nil {
				return err
			}
			clearance, err := tx.store.GetActiveClearance(ctx, tx.form.ResultFormID)
			if err != nil {
				if errors.Is(err, domainerrors.ErrNotFound) {
					return domainerrors.ErrReviewIncomplete
				}
				return err
			}
			if !clearance.ReviewedTeam {
				return domainerrors.ErrReviewIncomplete
			}
			now := tx.now
			clearance.ReviewedSupervisor = true
			clearance.Active = false
			clearance.SupervisorID = tx.actor.UserID
			clearance.DateSupervisorModified = &now
			if comment := strings.TrimSpace(cmd.Comment); comment != "" {
				clearance.SupervisorComment = comment
			}
			if err := tx.saveClearance(ctx, clearance, workflow.ActionClearanceImplement); err != nil {
				return err
			}

			target := entities.FormStateIntake
			if clearance.ResolutionRecommendation == entities.ClearanceResolutionResetToPreintake {
				target = entities.FormStateUnsubmitted
				if tx.form.IsReplacement {
					tx.form.CenterID = ""
					tx.form.StationNumber = 0
				}
			}
			tx.form.ClearancePrinted = uc.Settings.PrintCoverInClearance
			if err := tx.transition(ctx, target, workflow.ActionClearanceImplement, string(clearance.ResolutionRecommendation)); err != nil {
				return err
			}
			if err := tx.requestCover(ctx, "clearance", uc.Settings.PrintCoverInClearance); err != nil {
				return err
			}
			form = tx.form
			return nil
		})
	return form, err
}

// Return sends the case back to the clearance team.
func (uc ClearanceUseCase) Return(ctx context.Context, cmd ReturnClearanceCommand) (entities.Clearance, error) {
	var clearance entities.Clearance
	err := uc.runForm(ctx, "return_clearance", cmd.Actor, workflow.ActionClearanceReturn, cmd.TallyID, cmd.ResultFormID,
		func(ctx context.Context, tx *formTx) error {
			if err := workflow.RequireState(tx.form.FormState, entities.FormStateClearance, entities.FormStateClearance); err != nil {
				return err
			}
			current, err := tx.store.GetActiveClearance(ctx, tx.form.ResultFormID)
			if err != nil {
				return err
			}
			now := tx.now
			current.ReviewedTeam = false
			current.ReviewedSupervisor = false
			current.SupervisorID = tx.actor.UserID
			current.DateSupervisorModified = &now
			if comment := strings.TrimSpace(cmd.Comment); comment != "" {
				current.SupervisorComment = comment
			}
			if err := tx.saveClearance(ctx, current, workflow.ActionClearanceReturn); err != nil {
				return err
			}
			clearance = current
			return nil
		})
	return clearance, err
}

// activeClearance returns the open case, opening one for forms moved into
// CLEARANCE administratively.
func activeClearance(ctx context.Context, tx *formTx) (entities.Clearance, error) {
	clearance, err := tx.store.GetActiveClearance(ctx, tx.form.ResultFormID)
	if err == nil {
		return clearance, nil
	}
	if !errors.Is(err, domainerrors.ErrNotFound) {
		return entities.Clearance{}, err
	}
	clearanceID, err := tx.newID(ctx)
	if err != nil {
		return entities.Clearance{}, err
	}
	return entities.Clearance{
		ClearanceID:  clearanceID,
		ResultFormID: tx.form.ResultFormID,
		TallyID:      tx.form.TallyID,
		UserID:       tx.actor.UserID,
		Active:       true,
		CreatedAt:    tx.now,
	}, nil
}

func isClearanceSupervisor(actor entities.Actor) bool {
	return actor.HasRole(entities.RoleClearanceSupervisor) || actor.IsSuperAdministrator()
}
