package commands

import (
	"context"
	"strings"

	"tally/contexts/results-processing/result-form-service/domain/entities"
	domainerrors "tally/contexts/results-processing/result-form-service/domain/errors"
	"tally/contexts/results-processing/result-form-service/domain/workflow"
)

// ReviewAuditCommand is the audit clerk's review of an open audit. Nil
// Problems leaves the recorded problems unchanged.
type ReviewAuditCommand struct {
	Actor          entities.Actor
	TallyID        string
	ResultFormID   string
	Problems       *entities.AuditProblems
	ActionPrior    entities.ActionPrior
	Recommendation entities.AuditResolution
	Comment        string
	Attachment     *entities.Attachment
	// Forward marks the team review as done.
	Forward bool
}

// ForwardAuditCommand escalates a team-reviewed audit to the super
// administrator.
type ForwardAuditCommand struct {
	Actor        entities.Actor
	TallyID      string
	ResultFormID string
	Comment      string
}

// DecideAuditCommand carries the supervisor's confirm or accept decision.
type DecideAuditCommand struct {
	Actor        entities.Actor
	TallyID      string
	ResultFormID string
	Comment      string
}

// ReopenArchivedCommand sends an archived form back to audit. Reason is
// required.
type ReopenArchivedCommand struct {
	Actor        entities.Actor
	TallyID      string
	ResultFormID string
	Reason       string
}

// AuditUseCase runs the three-party audit of suspicious forms.
type AuditUseCase struct {
	Runtime
}

// Review records findings on the active audit.
func (uc AuditUseCase) Review(ctx context.Context, cmd ReviewAuditCommand) (entities.Audit, error) {
	if !cmd.ActionPrior.Valid() {
		return entities.Audit{}, domainerrors.Invalid("unknown action prior %q", cmd.ActionPrior)
	}
	if !cmd.Recommendation.Valid() {
		return entities.Audit{}, domainerrors.Invalid("unknown audit recommendation %q", cmd.Recommendation)
	}
	var audit entities.Audit
	err := uc.runForm(ctx, "review_audit", cmd.Actor, workflow.ActionAuditReviewTeam, cmd.TallyID, cmd.ResultFormID,
		func(ctx context.Context, tx *formTx) error {
			if err := workflow.RequireState(tx.form.FormState, entities.FormStateAudit, entities.FormStateAudit); err != nil {
				return err
			}
			current, _, err := tx.activeAudit(ctx)
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
			if cmd.Recommendation != entities.AuditResolutionEmpty {
				current.ResolutionRecommendation = cmd.Recommendation
			}
			if cmd.Attachment != nil {
				current.Attachment = cmd.Attachment
			}
			now := tx.now
			if isAuditSupervisor(tx.actor) {
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
			if err := tx.saveAudit(ctx, current, workflow.ActionAuditReviewTeam); err != nil {
				return err
			}
			audit = current
			return nil
		})
	return audit, err
}

// ForwardToSuperAdmin reserves the decision for a super administrator.
func (uc AuditUseCase) ForwardToSuperAdmin(ctx context.Context, cmd ForwardAuditCommand) (entities.Audit, error) {
	var audit entities.Audit
	err := uc.runForm(ctx, "forward_audit", cmd.Actor, workflow.ActionAuditReviewSupervisor, cmd.TallyID, cmd.ResultFormID,
		func(ctx context.Context, tx *formTx) error {
			if err := workflow.RequireState(tx.form.FormState, entities.FormStateAudit, entities.FormStateAudit); err != nil {
				return err
			}
			current, err := tx.store.GetActiveAudit(ctx, tx.form.ResultFormID)
			if err != nil {
				return err
			}
			if !current.ReviewedTeam {
				return domainerrors.ErrReviewIncomplete
			}
			now := tx.now
			current.ForSuperadmin = true
			current.SupervisorID = tx.actor.UserID
			current.DateSupervisorModified = &now
			if comment := strings.TrimSpace(cmd.Comment); comment != "" {
				current.SupervisorComment = comment
			}
			if err := tx.saveAudit(ctx, current, workflow.ActionAuditReviewSupervisor); err != nil {
				return err
			}
			audit = current
			return nil
		})
	return audit, err
}

// Confirm clears every entry and sends the form back to data entry 1.
// Quarantine checks are skipped on its next pass through archiving.
func (uc AuditUseCase) Confirm(ctx context.Context, cmd DecideAuditCommand) (entities.ResultForm, error) {
	var form entities.ResultForm
	err := uc.runForm(ctx, "confirm_audit", cmd.Actor, workflow.ActionAuditConfirm, cmd.TallyID, cmd.ResultFormID,
		func(ctx context.Context, tx *formTx) error {
			if err := workflow.RequireState(tx.form.FormState, entities.FormStateDataEntry1, entities.FormStateAudit); err != nil {
				return err
			}
			if err := closeAudit(ctx, tx, workflow.ActionAuditConfirm, cmd.Comment); err != nil {
				return err
			}
			tx.form.SkipQuarantineChecks = true
			if err := tx.reject(ctx, entities.FormStateDataEntry1, workflow.ActionAuditConfirm, cmd.Comment); err != nil {
				return err
			}
			if err := tx.requestCover(ctx, "audit", uc.Settings.PrintCoverInAudit); err != nil {
				return err
			}
			form = tx.form
			return nil
		})
	return form, err
}

// Accept keeps the FINAL set and returns the form to archiving without
// another quarantine pass.
func (uc AuditUseCase) Accept(ctx context.Context, cmd DecideAuditCommand) (entities.ResultForm, error) {
	var form entities.ResultForm
	err := uc.runForm(ctx, "accept_audit", cmd.Actor, workflow.ActionAuditAccept, cmd.TallyID, cmd.ResultFormID,
		func(ctx context.Context, tx *formTx) error {
			if err := workflow.RequireState(tx.form.FormState, entities.FormStateArchiving, entities.FormStateAudit); err != nil {
				return err
			}
			if err := closeAudit(ctx, tx, workflow.ActionAuditAccept, cmd.Comment); err != nil {
				return err
			}
			tx.form.SkipQuarantineChecks = true
			if err := tx.transition(ctx, entities.FormStateArchiving, workflow.ActionAuditAccept, cmd.Comment); err != nil {
				return err
			}
			form = tx.form
			return nil
		})
	return form, err
}

// ReopenArchived puts an archived form back under audit.
func (uc AuditUseCase) ReopenArchived(ctx context.Context, cmd ReopenArchivedCommand) (entities.ResultForm, error) {
	if strings.TrimSpace(cmd.Reason) == "" {
		return entities.ResultForm{}, domainerrors.Invalid("a reason is required to reopen an archived form")
	}
	var form entities.ResultForm
	err := uc.runForm(ctx, "reopen_archived", cmd.Actor, workflow.ActionAuditReopenArchived, cmd.TallyID, cmd.ResultFormID,
		func(ctx context.Context, tx *formTx) error {
			if err := workflow.RequireState(tx.form.FormState, entities.FormStateAudit, entities.FormStateArchived); err != nil {
				return err
			}
			audit, _, err := tx.activeAudit(ctx)
			if err != nil {
				return err
			}
			audit.TeamComment = strings.TrimSpace(cmd.Reason)
			tx.form.AuditedCount++
			tx.form.SkipQuarantineChecks = false
			if err := tx.transition(ctx, entities.FormStateAudit, workflow.ActionAuditReopenArchived, cmd.Reason); err != nil {
				return err
			}
			if err := tx.saveAudit(ctx, audit, workflow.ActionAuditReopenArchived); err != nil {
				return err
			}
			form = tx.form
			return nil
		})
	return form, err
}

// closeAudit records the supervisor decision and deactivates the audit
// record. Cases forwarded to the super administrator need one to decide.
func closeAudit(ctx context.Context, tx *formTx, action workflow.Action, comment string) error {
	audit, err := tx.store.GetActiveAudit(ctx, tx.form.ResultFormID)
	if err != nil {
		return err
	}
	if audit.ForSuperadmin && !tx.actor.IsSuperAdministrator() {
		return domainerrors.ErrAuthorizationFailed
	}
	now := tx.now
	audit.Active = false
	audit.ReviewedSupervisor = true
	audit.SupervisorID = tx.actor.UserID
	audit.DateSupervisorModified = &now
	if comment = strings.TrimSpace(comment); comment != "" {
		audit.SupervisorComment = comment
	}
	return tx.saveAudit(ctx, audit, action)
}

func isAuditSupervisor(actor entities.Actor) bool {
	return actor.HasRole(entities.RoleAuditSupervisor) || actor.IsSuperAdministrator()
}
