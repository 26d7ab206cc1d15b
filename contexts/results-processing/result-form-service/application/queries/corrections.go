package queries

import (
	"context"

	"tally/contexts/results-processing/result-form-service/domain/entities"
	"tally/contexts/results-processing/result-form-service/domain/reconciliation"
	"tally/contexts/results-processing/result-form-service/domain/workflow"
	"tally/contexts/results-processing/result-form-service/ports"
)

// CorrectionsView is what the corrections clerk works from: both entries,
// where they disagree and which lines still need a value.
type CorrectionsView struct {
	Form       entities.ResultForm
	Comparison reconciliation.Comparison
	Plan       reconciliation.Plan
}

type CorrectionsQueries struct {
	Forms     ports.FormRepository
	Entries   ports.EntryRepository
	Reference ports.ReferenceReader
}

func (q CorrectionsQueries) View(ctx context.Context, tallyID string, resultFormID string) (CorrectionsView, error) {
	form, err := q.Forms.GetResultForm(ctx, tallyID, resultFormID)
	if err != nil {
		return CorrectionsView{}, err
	}
	if err := workflow.RequireState(form.FormState, entities.FormStateCorrection, entities.FormStateCorrection); err != nil {
		return CorrectionsView{}, err
	}
	all, err := q.Reference.ListCandidates(ctx, form.TallyID, form.BallotID)
	if err != nil {
		return CorrectionsView{}, err
	}
	candidates := make([]entities.Candidate, 0, len(all))
	for _, candidate := range all {
		if candidate.Active {
			candidates = append(candidates, candidate)
		}
	}

	sheets := map[entities.EntryVersion]reconciliation.Sheet{}
	for _, version := range []entities.EntryVersion{
		entities.EntryVersionDataEntry1,
		entities.EntryVersionDataEntry2,
		entities.EntryVersionFinal,
	} {
		sheet, err := loadSheet(ctx, q.Entries, form.ResultFormID, version)
		if err != nil {
			return CorrectionsView{}, err
		}
		sheets[version] = sheet
	}

	first := sheets[entities.EntryVersionDataEntry1]
	second := sheets[entities.EntryVersionDataEntry2]
	comparison, err := reconciliation.Compare(candidates, first, second)
	if err != nil {
		return CorrectionsView{}, err
	}
	plan, err := reconciliation.PlanCorrections(candidates, first, second, sheets[entities.EntryVersionFinal], form.ReopenedSections)
	if err != nil {
		return CorrectionsView{}, err
	}
	return CorrectionsView{Form: form, Comparison: comparison, Plan: plan}, nil
}

func loadSheet(ctx context.Context, entries ports.EntryRepository, resultFormID string, version entities.EntryVersion) (reconciliation.Sheet, error) {
	results, err := entries.ListResults(ctx, resultFormID, version)
	if err != nil {
		return reconciliation.Sheet{}, err
	}
	recon, found, err := entries.GetReconciliation(ctx, resultFormID, version)
	if err != nil {
		return reconciliation.Sheet{}, err
	}
	if !found {
		return reconciliation.SheetFrom(results, nil), nil
	}
	return reconciliation.SheetFrom(results, &recon), nil
}
