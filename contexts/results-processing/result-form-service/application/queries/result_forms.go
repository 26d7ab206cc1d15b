package queries

import (
	"context"
	"errors"
	"strings"

	"tally/contexts/results-processing/result-form-service/domain/entities"
	domainerrors "tally/contexts/results-processing/result-form-service/domain/errors"
	"tally/contexts/results-processing/result-form-service/ports"
)

const defaultListLimit = 200

// FormDetail is a form with its open dispute records.
type FormDetail struct {
	Form           entities.ResultForm
	Clearance      *entities.Clearance
	Audit          *entities.Audit
	QualityControl *entities.QualityControl
}

type ResultFormQueries struct {
	Forms    ports.FormRepository
	Disputes ports.DisputeRepository
	Reviews  ports.QualityControlRepository
	History  ports.HistoryRepository
}

func (q ResultFormQueries) Get(ctx context.Context, tallyID string, resultFormID string) (FormDetail, error) {
	form, err := q.Forms.GetResultForm(ctx, strings.TrimSpace(tallyID), strings.TrimSpace(resultFormID))
	if err != nil {
		return FormDetail{}, err
	}
	detail := FormDetail{Form: form}
	if clearance, err := q.Disputes.GetActiveClearance(ctx, form.ResultFormID); err == nil {
		detail.Clearance = &clearance
	} else if !errors.Is(err, domainerrors.ErrNotFound) {
		return FormDetail{}, err
	}
	if audit, err := q.Disputes.GetActiveAudit(ctx, form.ResultFormID); err == nil {
		detail.Audit = &audit
	} else if !errors.Is(err, domainerrors.ErrNotFound) {
		return FormDetail{}, err
	}
	if q.Reviews != nil {
		if review, err := q.Reviews.GetActiveQualityControl(ctx, form.ResultFormID); err == nil {
			detail.QualityControl = &review
		} else if !errors.Is(err, domainerrors.ErrNotFound) {
			return FormDetail{}, err
		}
	}
	return detail, nil
}

// LookupByBarcode resolves the form a clerk scanned.
func (q ResultFormQueries) LookupByBarcode(ctx context.Context, tallyID string, barcode string) (entities.ResultForm, error) {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return entities.ResultForm{}, domainerrors.Invalid("barcode is required")
	}
	return q.Forms.GetResultFormByBarcode(ctx, strings.TrimSpace(tallyID), barcode)
}

func (q ResultFormQueries) List(ctx context.Context, filter ports.ResultFormFilter) ([]entities.ResultForm, error) {
	filter.TallyID = strings.TrimSpace(filter.TallyID)
	for _, state := range filter.States {
		if !state.Valid() {
			return nil, domainerrors.Invalid("unknown form state %q", state)
		}
	}
	if filter.Limit <= 0 || filter.Limit > defaultListLimit {
		filter.Limit = defaultListLimit
	}
	return q.Forms.ListResultForms(ctx, filter)
}

func (q ResultFormQueries) StateHistory(ctx context.Context, tallyID string, resultFormID string) ([]entities.StateChange, error) {
	if _, err := q.Forms.GetResultForm(ctx, tallyID, resultFormID); err != nil {
		return nil, err
	}
	return q.History.ListStateChanges(ctx, tallyID, resultFormID)
}

// Revisions returns the snapshots of one entity in commit order.
func (q ResultFormQueries) Revisions(ctx context.Context, tallyID string, kind entities.EntityKind, entityID string) ([]entities.Revision, error) {
	return q.History.ListRevisions(ctx, strings.TrimSpace(tallyID), kind, strings.TrimSpace(entityID))
}
