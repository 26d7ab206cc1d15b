package commands

import (
	"context"
	"strings"
	"time"

	application "tally/contexts/results-processing/result-form-service/application"
	"tally/contexts/results-processing/result-form-service/domain/entities"
	domainerrors "tally/contexts/results-processing/result-form-service/domain/errors"
	"tally/contexts/results-processing/result-form-service/domain/workflow"
	"tally/contexts/results-processing/result-form-service/ports"
)

// UpdateQuarantineCheckCommand changes the tolerance of a quarantine check.
// Nil fields are left as they are.
type UpdateQuarantineCheckCommand struct {
	Actor      entities.Actor
	CheckID    string
	Value      *float64
	Percentage *float64
	Active     *bool
}

// QuarantineCheckUseCase maintains the configured quarantine checks.
type QuarantineCheckUseCase struct {
	Runtime
}

// Update changes a check's tolerance or toggles it. New values apply to the
// next evaluation.
func (uc QuarantineCheckUseCase) Update(ctx context.Context, cmd UpdateQuarantineCheckCommand) (entities.QuarantineCheck, error) {
	if cmd.Value != nil && *cmd.Value < 0 {
		return entities.QuarantineCheck{}, domainerrors.Invalid("check value must not be negative")
	}
	if cmd.Percentage != nil && (*cmd.Percentage < 0 || *cmd.Percentage > 100) {
		return entities.QuarantineCheck{}, domainerrors.Invalid("check percentage must be within [0, 100]")
	}
	var check entities.QuarantineCheck
	err := uc.runTx(ctx, "update_quarantine_check", cmd.Actor, workflow.ActionQuarantineManage,
		func(ctx context.Context, store ports.WorkflowStore, now time.Time) error {
			current, err := store.GetQuarantineCheck(ctx, strings.TrimSpace(cmd.CheckID))
			if err != nil {
				return err
			}
			if cmd.Value != nil {
				current.Value = *cmd.Value
			}
			if cmd.Percentage != nil {
				current.Percentage = *cmd.Percentage
			}
			if cmd.Active != nil {
				current.Active = *cmd.Active
			}
			current.UpdatedAt = now
			if err := store.SaveQuarantineCheck(ctx, current); err != nil {
				return err
			}
			if err := appendRevision(ctx, store, uc.IDGen, "", entities.EntityKindCheck, current.QuarantineCheckID,
				workflow.ActionQuarantineManage, cmd.Actor.UserID, current, now); err != nil {
				return err
			}
			check = current
			return nil
		})
	return check, err
}

// EnsureChecks stores every configured check whose method is not yet
// present. Stored checks keep their runtime edits.
func (uc QuarantineCheckUseCase) EnsureChecks(ctx context.Context, configured []entities.QuarantineCheck) (int, error) {
	registry := uc.checks()
	for _, check := range configured {
		if !registry.Has(check.Method) {
			return 0, domainerrors.Invalid("quarantine check %q uses unknown method %q", check.Name, check.Method)
		}
	}
	created := 0
	err := uc.retry(ctx, "ensure_quarantine_checks", func() error {
		created = 0
		return uc.UnitOfWork.WithinTx(ctx, func(ctx context.Context, store ports.WorkflowStore) error {
			existing, err := store.ListQuarantineChecks(ctx)
			if err != nil {
				return err
			}
			known := map[string]bool{}
			for _, check := range existing {
				known[check.Method] = true
			}
			now := uc.now()
			for _, check := range configured {
				if known[check.Method] {
					continue
				}
				if check.QuarantineCheckID == "" {
					id, err := uc.IDGen.NewID(ctx)
					if err != nil {
						return err
					}
					check.QuarantineCheckID = id
				}
				check.UpdatedAt = now
				if err := store.SaveQuarantineCheck(ctx, check); err != nil {
					return err
				}
				known[check.Method] = true
				created++
			}
			return nil
		})
	})
	if err != nil {
		return 0, err
	}
	if created > 0 {
		uc.logger().Info("quarantine checks seeded",
			"event", "quarantine_checks_seeded",
			"module", application.ModuleName,
			"layer", "application",
			"created", created,
		)
	}
	return created, nil
}
