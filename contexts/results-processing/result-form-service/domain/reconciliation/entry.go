package reconciliation

import (
	"tally/contexts/results-processing/result-form-service/domain/entities"
	domainerrors "tally/contexts/results-processing/result-form-service/domain/errors"
)

// Sheet is one entry version folded into candidate votes and reconciliation
// values.
type Sheet struct {
	Votes          map[string]int
	Reconciliation entities.ReconValues
	HasRecon       bool
}

// SheetFrom folds the active rows of one version into a Sheet.
func SheetFrom(results []entities.Result, recon *entities.ReconciliationForm) Sheet {
	sheet := Sheet{Votes: make(map[string]int, len(results))}
	for _, result := range results {
		if !result.Active {
			continue
		}
		sheet.Votes[result.CandidateID] = result.Votes
	}
	if recon != nil && recon.Active {
		sheet.Reconciliation = recon.Values.Clone()
		sheet.HasRecon = true
	}
	return sheet
}

func (s Sheet) Empty() bool {
	return len(s.Votes) == 0 && !s.HasRecon
}

// Missing lists candidate ids and required reconciliation fields absent
// from the sheet.
func (s Sheet) Missing(candidates []entities.Candidate) []string {
	var missing []string
	for _, candidate := range candidates {
		if _, ok := s.Votes[candidate.CandidateID]; !ok {
			missing = append(missing, "candidate:"+candidate.CandidateID)
		}
	}
	for _, field := range entities.RequiredReconFields {
		if !s.HasRecon {
			missing = append(missing, "reconciliation:"+string(field))
			continue
		}
		if _, ok := s.Reconciliation.Get(field); !ok {
			missing = append(missing, "reconciliation:"+string(field))
		}
	}
	return missing
}

func (s Sheet) VoteSum() int64 {
	var total int64
	for _, votes := range s.Votes {
		total += int64(votes)
	}
	return total
}

// ValidateEntry checks a clerk submission against the ballot's candidates.
// Only known candidates, values in range, and every candidate and required
// field present. The vote ceiling is not checked here: a DATA_ENTRY_1 or
// DATA_ENTRY_2 set that breaks it is routed to corrections like any other
// disagreement.
func ValidateEntry(candidates []entities.Candidate, set entities.EntrySet) error {
	if !set.Version.Valid() {
		return domainerrors.Invalid("unknown entry version %q", set.Version)
	}
	known := make(map[string]struct{}, len(candidates))
	for _, candidate := range candidates {
		known[candidate.CandidateID] = struct{}{}
	}
	for candidateID, votes := range set.Votes {
		if _, ok := known[candidateID]; !ok {
			return domainerrors.Invalid("candidate %s is not on this ballot", candidateID)
		}
		if err := checkRange("candidate "+candidateID, votes); err != nil {
			return err
		}
	}
	for field, value := range set.Reconciliation {
		if !field.Valid() {
			return domainerrors.Invalid("unknown reconciliation field %q", field)
		}
		if err := checkRange(string(field), value); err != nil {
			return err
		}
	}

	sheet := Sheet{Votes: set.Votes, Reconciliation: set.Reconciliation, HasRecon: set.Reconciliation != nil}
	if missing := sheet.Missing(candidates); len(missing) > 0 {
		return domainerrors.IncompleteEntry(missing)
	}
	return nil
}

// CheckVoteCeiling enforces that candidate votes do not exceed the valid
// plus invalid ballots reported on the reconciliation row. It guards the
// FINAL set only.
func CheckVoteCeiling(sheet Sheet) error {
	if !sheet.HasRecon {
		return nil
	}
	valid, okValid := sheet.Reconciliation.Get(entities.ReconNumberValidVotes)
	invalid, okInvalid := sheet.Reconciliation.Get(entities.ReconNumberInvalidVotes)
	if !okValid || !okInvalid {
		return nil
	}
	if sum := sheet.VoteSum(); sum > int64(valid)+int64(invalid) {
		return domainerrors.Invalid("candidate votes %d exceed valid and invalid ballots %d", sum, valid+invalid)
	}
	return nil
}

func checkRange(label string, value int) error {
	if value < 0 || value > entities.MaxEntryValue {
		return domainerrors.Invalid("%s value %d outside [0, %d]", label, value, entities.MaxEntryValue)
	}
	return nil
}
