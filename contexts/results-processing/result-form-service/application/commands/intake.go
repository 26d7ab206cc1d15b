package commands

import (
	"context"
	"errors"
	"strings"

	"tally/contexts/results-processing/result-form-service/domain/entities"
	domainerrors "tally/contexts/results-processing/result-form-service/domain/errors"
	"tally/contexts/results-processing/result-form-service/domain/workflow"
	"tally/contexts/results-processing/result-form-service/ports"
)

// ReceiveFormCommand is the intake clerk's barcode scan.
type ReceiveFormCommand struct {
	Actor   entities.Actor
	TallyID string
	Barcode string
}

// AssignCenterStationCommand binds a received form to a center code and
// station number.
type AssignCenterStationCommand struct {
	Actor         entities.Actor
	TallyID       string
	ResultFormID  string
	CenterCode    int
	StationNumber int
}

// ConfirmIntakeCommand moves an assigned form on to data entry 1.
type ConfirmIntakeCommand struct {
	Actor        entities.Actor
	TallyID      string
	ResultFormID string
}

// RejectIntakeCommand returns a received form to UNSUBMITTED.
type RejectIntakeCommand struct {
	Actor        entities.Actor
	TallyID      string
	ResultFormID string
	Reason       string
}

// ReferToClearanceCommand sends a form with intake problems to clearance.
type ReferToClearanceCommand struct {
	Actor        entities.Actor
	TallyID      string
	ResultFormID string
	Problems     entities.ClearanceProblems
	Comment      string
}

// IntakeUseCase receives paper forms, checks their center and station and
// sends them on to data entry or clearance.
type IntakeUseCase struct {
	Runtime
}

// Receive starts intake for the form scanned by barcode.
func (uc IntakeUseCase) Receive(ctx context.Context, cmd ReceiveFormCommand) (entities.ResultForm, error) {
	barcode := strings.TrimSpace(cmd.Barcode)
	if barcode == "" {
		return entities.ResultForm{}, domainerrors.Invalid("barcode is required")
	}
	if err := uc.authorize(cmd.Actor, workflow.ActionIntakeReceive); err != nil {
		return entities.ResultForm{}, err
	}
	var form entities.ResultForm
	err := uc.UnitOfWork.WithinTx(ctx, func(ctx context.Context, store ports.WorkflowStore) error {
		found, err := store.GetResultFormByBarcode(ctx, cmd.TallyID, barcode)
		form = found
		return err
	})
	if err != nil {
		return entities.ResultForm{}, err
	}

	err = uc.runForm(ctx, "intake_receive", cmd.Actor, workflow.ActionIntakeReceive, cmd.TallyID, form.ResultFormID,
		func(ctx context.Context, tx *formTx) error {
			if tx.form.FormState == entities.FormStateIntake {
				form = tx.form
				return nil
			}
			if err := workflow.RequireState(tx.form.FormState, entities.FormStateIntake, entities.FormStateUnsubmitted); err != nil {
				return err
			}
			seen := tx.now
			tx.form.DateSeen = &seen
			if err := tx.transition(ctx, entities.FormStateIntake, workflow.ActionIntakeReceive, ""); err != nil {
				return err
			}
			form = tx.form
			return nil
		})
	return form, err
}

// AssignCenterStation records the center and station read off the paper
// form. When another live form already holds the same center, station and
// ballot, the form is sent to clearance and ErrDuplicateBallotAssignment is
// returned after the referral commits.
func (uc IntakeUseCase) AssignCenterStation(ctx context.Context, cmd AssignCenterStationCommand) (entities.ResultForm, error) {
	if !uc.Settings.StationInRange(cmd.StationNumber) {
		return entities.ResultForm{}, domainerrors.Invalid("station number %d outside [%d, %d]",
			cmd.StationNumber, uc.Settings.MinStationNumber, uc.Settings.MaxStationNumber)
	}
	var form entities.ResultForm
	err := uc.runForm(ctx, "assign_center_station", cmd.Actor, workflow.ActionAssignCenterStation, cmd.TallyID, cmd.ResultFormID,
		func(ctx context.Context, tx *formTx) error {
			if err := workflow.RequireState(tx.form.FormState, entities.FormStateIntake,
				entities.FormStateIntake, entities.FormStateClearance); err != nil {
				return err
			}
			if tx.form.BallotID == "" {
				return domainerrors.Integrity("result form %s has no ballot", tx.form.ResultFormID)
			}
			center, err := tx.store.GetCenterByCode(ctx, tx.form.TallyID, cmd.CenterCode)
			if err != nil {
				return err
			}
			if !center.Active {
				return domainerrors.ErrDisabled
			}
			station, err := tx.store.GetStation(ctx, tx.form.TallyID, center.CenterID, cmd.StationNumber)
			if err != nil {
				return err
			}
			if !station.Active {
				return domainerrors.ErrDisabled
			}

			_, occupied, err := tx.store.FindOccupyingForm(ctx, tx.form.TallyID, center.CenterID, cmd.StationNumber, tx.form.BallotID, tx.form.ResultFormID)
			if err != nil {
				return err
			}
			if occupied {
				if tx.form.FormState == entities.FormStateIntake {
					problems := entities.ClearanceProblems{FormAlreadyInSystem: true}
					if err := referToClearance(ctx, tx, problems, "duplicate center, station and ballot"); err != nil {
						return err
					}
				}
				form = tx.form
				tx.deferred = domainerrors.ErrDuplicateBallotAssignment
				return nil
			}

			tx.form.CenterID = center.CenterID
			tx.form.StationNumber = cmd.StationNumber
			tx.form.UserID = tx.actor.UserID
			if err := tx.saveForm(ctx, workflow.ActionAssignCenterStation); err != nil {
				return err
			}
			form = tx.form
			return nil
		})
	return form, err
}

// Confirm sends an intake form with a verified center and station to data
// entry 1.
func (uc IntakeUseCase) Confirm(ctx context.Context, cmd ConfirmIntakeCommand) (entities.ResultForm, error) {
	var form entities.ResultForm
	err := uc.runForm(ctx, "intake_confirm", cmd.Actor, workflow.ActionIntakeConfirm, cmd.TallyID, cmd.ResultFormID,
		func(ctx context.Context, tx *formTx) error {
			if err := workflow.RequireState(tx.form.FormState, entities.FormStateDataEntry1, entities.FormStateIntake); err != nil {
				return err
			}
			if err := tx.requireActiveLocation(ctx); err != nil {
				return err
			}
			_, occupied, err := tx.store.FindOccupyingForm(ctx, tx.form.TallyID, tx.form.CenterID, tx.form.StationNumber, tx.form.BallotID, tx.form.ResultFormID)
			if err != nil {
				return err
			}
			if occupied {
				return domainerrors.ErrDuplicateBallotAssignment
			}
			tx.form.IntakePrinted = uc.Settings.PrintCoverInIntake
			if err := tx.transition(ctx, entities.FormStateDataEntry1, workflow.ActionIntakeConfirm, ""); err != nil {
				return err
			}
			if err := tx.requestCover(ctx, "intake", uc.Settings.PrintCoverInIntake); err != nil {
				return err
			}
			form = tx.form
			return nil
		})
	return form, err
}

// Reject returns a mismatching form to UNSUBMITTED.
func (uc IntakeUseCase) Reject(ctx context.Context, cmd RejectIntakeCommand) (entities.ResultForm, error) {
	var form entities.ResultForm
	err := uc.runForm(ctx, "intake_reject", cmd.Actor, workflow.ActionIntakeReject, cmd.TallyID, cmd.ResultFormID,
		func(ctx context.Context, tx *formTx) error {
			if err := tx.reject(ctx, entities.FormStateUnsubmitted, workflow.ActionIntakeReject, cmd.Reason); err != nil {
				return err
			}
			form = tx.form
			return nil
		})
	return form, err
}

// ReferToClearance opens a clearance case for an intake anomaly.
func (uc IntakeUseCase) ReferToClearance(ctx context.Context, cmd ReferToClearanceCommand) (entities.ResultForm, error) {
	if !cmd.Problems.Any() {
		return entities.ResultForm{}, domainerrors.Invalid("at least one clearance problem is required")
	}
	var form entities.ResultForm
	err := uc.runForm(ctx, "intake_refer_to_clearance", cmd.Actor, workflow.ActionIntakeReferToClearance, cmd.TallyID, cmd.ResultFormID,
		func(ctx context.Context, tx *formTx) error {
			if err := referToClearance(ctx, tx, cmd.Problems, cmd.Comment); err != nil {
				return err
			}
			form = tx.form
			return nil
		})
	return form, err
}

// referToClearance moves an intake form to CLEARANCE and opens its single
// active clearance record.
func referToClearance(ctx context.Context, tx *formTx, problems entities.ClearanceProblems, comment string) error {
	_, err := tx.store.GetActiveClearance(ctx, tx.form.ResultFormID)
	switch {
	case err == nil:
		return domainerrors.Integrity("result form %s already has an active clearance", tx.form.ResultFormID)
	case !errors.Is(err, domainerrors.ErrNotFound):
		return err
	}
	clearanceID, err := tx.newID(ctx)
	if err != nil {
		return err
	}
	if err := tx.transition(ctx, entities.FormStateClearance, workflow.ActionIntakeReferToClearance, comment); err != nil {
		return err
	}
	clearance := entities.Clearance{
		ClearanceID:  clearanceID,
		ResultFormID: tx.form.ResultFormID,
		TallyID:      tx.form.TallyID,
		UserID:       tx.actor.UserID,
		Active:       true,
		Problems:     problems,
		TeamComment:  strings.TrimSpace(comment),
		CreatedAt:    tx.now,
	}
	if err := tx.saveClearance(ctx, clearance, workflow.ActionIntakeReferToClearance); err != nil {
		return err
	}
	return tx.requestCover(ctx, "clearance", tx.rt.Settings.PrintCoverInIntake)
}
