package reconciliation

import (
	"tally/contexts/results-processing/result-form-service/domain/entities"
	domainerrors "tally/contexts/results-processing/result-form-service/domain/errors"
)

// CandidateLine is one candidate row of the corrections screen. Locked rows
// carry their pre-filled value; open rows need an authoritative value.
type CandidateLine struct {
	CandidateID string
	Section     entities.Section
	DataEntry1  int
	DataEntry2  int
	Locked      bool
	Value       *int
}

type FieldLine struct {
	Field      entities.ReconField
	DataEntry1 *int
	DataEntry2 *int
	Locked     bool
	Value      *int
}

// Plan is the corrections work item for a form.
type Plan struct {
	Candidates []CandidateLine
	Fields     []FieldLine
}

// Corrections carries the corrections clerk's authoritative values.
type Corrections struct {
	Votes          map[string]int
	Reconciliation entities.ReconValues
}

func (p Plan) OpenCandidates() []string {
	var items []string
	for _, line := range p.Candidates {
		if !line.Locked {
			items = append(items, line.CandidateID)
		}
	}
	return items
}

func (p Plan) OpenFields() []entities.ReconField {
	var items []entities.ReconField
	for _, line := range p.Fields {
		if !line.Locked {
			items = append(items, line.Field)
		}
	}
	return items
}

// PlanCorrections builds the corrections screen. A value already on an
// active FINAL row stays locked. Otherwise a candidate or field is open when
// the two entries disagree or when quality control reopened its section,
// and locked to the DATA_ENTRY_2 value when they agree. When either entry's
// candidate votes break the vote ceiling, the valid and invalid ballot
// counts open as well so the clerk can compose a FINAL set that holds it.
func PlanCorrections(
	candidates []entities.Candidate,
	de1 Sheet,
	de2 Sheet,
	final Sheet,
	reopened []entities.Section,
) (Plan, error) {
	comparison, err := Compare(candidates, de1, de2)
	if err != nil {
		return Plan{}, err
	}
	isReopened := func(section entities.Section) bool {
		for _, item := range reopened {
			if item == section {
				return true
			}
		}
		return false
	}

	var plan Plan
	for _, candidate := range candidates {
		line := CandidateLine{
			CandidateID: candidate.CandidateID,
			Section:     candidate.RaceType.Section(),
			DataEntry1:  de1.Votes[candidate.CandidateID],
			DataEntry2:  de2.Votes[candidate.CandidateID],
		}
		if value, ok := final.Votes[candidate.CandidateID]; ok {
			line.Locked = true
			line.Value = optional(value, true)
		} else if !comparison.CandidateMismatched(candidate.CandidateID) && !isReopened(line.Section) {
			line.Locked = true
			line.Value = optional(line.DataEntry2, true)
		}
		plan.Candidates = append(plan.Candidates, line)
	}

	reconReopened := isReopened(entities.SectionReconciliation)
	overCeiling := CheckVoteCeiling(de1) != nil || CheckVoteCeiling(de2) != nil
	for _, field := range entities.ReconFields {
		first, okFirst := de1.Reconciliation.Get(field)
		second, okSecond := de2.Reconciliation.Get(field)
		line := FieldLine{
			Field:      field,
			DataEntry1: optional(first, okFirst),
			DataEntry2: optional(second, okSecond),
		}
		switch {
		case final.HasRecon:
			value, ok := final.Reconciliation.Get(field)
			line.Locked = true
			line.Value = optional(value, ok)
		case comparison.FieldMismatched(field):
		case reconReopened && (okSecond || isRequired(field)):
		case overCeiling && isBallotCount(field):
		default:
			line.Locked = true
			line.Value = line.DataEntry2
		}
		plan.Fields = append(plan.Fields, line)
	}
	return plan, nil
}

// Apply merges the clerk's values into the plan and returns the FINAL
// sheet. Every open line needs a value and locked lines must not be
// overridden.
func (p Plan) Apply(corrections Corrections) (Sheet, error) {
	final := Sheet{
		Votes:          make(map[string]int, len(p.Candidates)),
		Reconciliation: make(entities.ReconValues, len(p.Fields)),
		HasRecon:       true,
	}
	var missing []string
	lines := make(map[string]CandidateLine, len(p.Candidates))
	for _, line := range p.Candidates {
		lines[line.CandidateID] = line
		if line.Locked {
			final.Votes[line.CandidateID] = *line.Value
			continue
		}
		value, ok := corrections.Votes[line.CandidateID]
		if !ok {
			missing = append(missing, "candidate:"+line.CandidateID)
			continue
		}
		if err := checkRange("candidate "+line.CandidateID, value); err != nil {
			return Sheet{}, err
		}
		final.Votes[line.CandidateID] = value
	}
	for candidateID, value := range corrections.Votes {
		line, ok := lines[candidateID]
		if !ok {
			return Sheet{}, domainerrors.Invalid("candidate %s is not on this ballot", candidateID)
		}
		if line.Locked && *line.Value != value {
			return Sheet{}, domainerrors.Invalid("candidate %s is locked", candidateID)
		}
	}

	fields := make(map[entities.ReconField]FieldLine, len(p.Fields))
	for _, line := range p.Fields {
		fields[line.Field] = line
		if line.Locked {
			if line.Value != nil {
				final.Reconciliation[line.Field] = *line.Value
			}
			continue
		}
		value, ok := corrections.Reconciliation.Get(line.Field)
		if !ok {
			if isRequired(line.Field) {
				missing = append(missing, "reconciliation:"+string(line.Field))
			}
			continue
		}
		if err := checkRange(string(line.Field), value); err != nil {
			return Sheet{}, err
		}
		final.Reconciliation[line.Field] = value
	}
	for field, value := range corrections.Reconciliation {
		line, ok := fields[field]
		if !ok {
			return Sheet{}, domainerrors.Invalid("unknown reconciliation field %q", field)
		}
		if line.Locked && (line.Value == nil || *line.Value != value) {
			return Sheet{}, domainerrors.Invalid("reconciliation field %s is locked", field)
		}
	}
	if len(missing) > 0 {
		return Sheet{}, domainerrors.IncompleteEntry(missing)
	}
	if err := CheckVoteCeiling(final); err != nil {
		return Sheet{}, err
	}
	return final, nil
}

func isBallotCount(field entities.ReconField) bool {
	return field == entities.ReconNumberValidVotes || field == entities.ReconNumberInvalidVotes
}

func isRequired(field entities.ReconField) bool {
	for _, required := range entities.RequiredReconFields {
		if required == field {
			return true
		}
	}
	return false
}
