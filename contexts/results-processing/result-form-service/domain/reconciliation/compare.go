package reconciliation

import (
	"sort"

	"tally/contexts/results-processing/result-form-service/domain/entities"
	domainerrors "tally/contexts/results-processing/result-form-service/domain/errors"
)

type CandidateMismatch struct {
	CandidateID string
	DataEntry1  int
	DataEntry2  int
}

type FieldMismatch struct {
	Field      entities.ReconField
	DataEntry1 *int
	DataEntry2 *int
}

// Comparison is the outcome of matching DATA_ENTRY_1 against DATA_ENTRY_2.
type Comparison struct {
	Candidates []CandidateMismatch
	Fields     []FieldMismatch
}

func (c Comparison) Matched() bool {
	return len(c.Candidates) == 0 && len(c.Fields) == 0
}

func (c Comparison) CandidateMismatched(candidateID string) bool {
	for _, item := range c.Candidates {
		if item.CandidateID == candidateID {
			return true
		}
	}
	return false
}

func (c Comparison) FieldMismatched(field entities.ReconField) bool {
	for _, item := range c.Fields {
		if item.Field == field {
			return true
		}
	}
	return false
}

// Compare pairs both data-entry sheets by candidate id and field name. Both
// sheets must be complete; an incomplete sheet here means rows were lost
// after they were accepted.
func Compare(candidates []entities.Candidate, de1 Sheet, de2 Sheet) (Comparison, error) {
	if missing := de1.Missing(candidates); len(missing) > 0 {
		return Comparison{}, domainerrors.Integrity("data entry 1 set is incomplete: %v", missing)
	}
	if missing := de2.Missing(candidates); len(missing) > 0 {
		return Comparison{}, domainerrors.Integrity("data entry 2 set is incomplete: %v", missing)
	}

	var comparison Comparison
	for _, candidate := range candidates {
		first := de1.Votes[candidate.CandidateID]
		second := de2.Votes[candidate.CandidateID]
		if first != second {
			comparison.Candidates = append(comparison.Candidates, CandidateMismatch{
				CandidateID: candidate.CandidateID,
				DataEntry1:  first,
				DataEntry2:  second,
			})
		}
	}
	for _, field := range entities.ReconFields {
		first, okFirst := de1.Reconciliation.Get(field)
		second, okSecond := de2.Reconciliation.Get(field)
		if okFirst == okSecond && first == second {
			continue
		}
		comparison.Fields = append(comparison.Fields, FieldMismatch{
			Field:      field,
			DataEntry1: optional(first, okFirst),
			DataEntry2: optional(second, okSecond),
		})
	}
	sort.Slice(comparison.Candidates, func(i, j int) bool {
		return comparison.Candidates[i].CandidateID < comparison.Candidates[j].CandidateID
	})
	return comparison, nil
}

func optional(value int, ok bool) *int {
	if !ok {
		return nil
	}
	v := value
	return &v
}
