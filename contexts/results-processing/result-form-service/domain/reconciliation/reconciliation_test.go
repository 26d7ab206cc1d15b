package reconciliation

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"tally/contexts/results-processing/result-form-service/domain/entities"
	domainerrors "tally/contexts/results-processing/result-form-service/domain/errors"
)

var candidates = []entities.Candidate{
	{CandidateID: "cand-1", BallotID: "ballot-1", Order: 1, RaceType: entities.RaceTypeGeneral, Active: true},
	{CandidateID: "cand-2", BallotID: "ballot-1", Order: 2, RaceType: entities.RaceTypeWomen, Active: true},
}

func recon(valid int, voters int) entities.ReconValues {
	return entities.ReconValues{
		entities.ReconNumberValidVotes:       valid,
		entities.ReconNumberInvalidVotes:     0,
		entities.ReconNumberCancelledBallots: 0,
		entities.ReconNumberUnstampedBallots: 0,
		entities.ReconNumberOfVoters:         voters,
	}
}

func sheet(votes map[string]int, values entities.ReconValues) Sheet {
	return Sheet{Votes: votes, Reconciliation: values, HasRecon: values != nil}
}

func TestValidateEntry(t *testing.T) {
	set := entities.EntrySet{
		Version:        entities.EntryVersionDataEntry1,
		Votes:          map[string]int{"cand-1": 10, "cand-2": 5},
		Reconciliation: recon(15, 15),
	}
	if err := ValidateEntry(candidates, set); err != nil {
		t.Fatalf("expected valid entry, got %v", err)
	}

	missing := set
	missing.Votes = map[string]int{"cand-1": 10}
	missing.Reconciliation = entities.ReconValues{entities.ReconNumberValidVotes: 10}
	err := ValidateEntry(candidates, missing)
	var incomplete domainerrors.IncompleteEntryError
	if !errors.As(err, &incomplete) {
		t.Fatalf("expected incomplete entry, got %v", err)
	}
	want := []string{
		"candidate:cand-2",
		"reconciliation:number_cancelled_ballots",
		"reconciliation:number_invalid_votes",
		"reconciliation:number_of_voters",
		"reconciliation:number_unstamped_ballots",
	}
	if diff := cmp.Diff(want, incomplete.Missing); diff != "" {
		t.Fatalf("missing mismatch (-want +got):\n%s", diff)
	}

	unknown := set
	unknown.Votes = map[string]int{"cand-1": 10, "cand-2": 5, "cand-9": 1}
	if err := ValidateEntry(candidates, unknown); !errors.Is(err, domainerrors.ErrInvalidInput) {
		t.Fatalf("expected invalid input for unknown candidate, got %v", err)
	}

	negative := set
	negative.Votes = map[string]int{"cand-1": -1, "cand-2": 5}
	if err := ValidateEntry(candidates, negative); !errors.Is(err, domainerrors.ErrInvalidInput) {
		t.Fatalf("expected invalid input for negative votes, got %v", err)
	}

	ceiling := set
	ceiling.Reconciliation = recon(14, 15)
	if err := ValidateEntry(candidates, ceiling); err != nil {
		t.Fatalf("expected entry above the vote ceiling to be accepted for comparison, got %v", err)
	}
}

func TestCheckVoteCeiling(t *testing.T) {
	if err := CheckVoteCeiling(sheet(map[string]int{"cand-1": 20, "cand-2": 0}, recon(20, 20))); err != nil {
		t.Fatalf("expected sum equal to valid to pass, got %v", err)
	}
	if err := CheckVoteCeiling(sheet(map[string]int{"cand-1": 21, "cand-2": 0}, recon(20, 20))); !errors.Is(err, domainerrors.ErrInvalidInput) {
		t.Fatalf("expected invalid input above the ceiling, got %v", err)
	}
	if err := CheckVoteCeiling(sheet(map[string]int{"cand-1": 99}, nil)); err != nil {
		t.Fatalf("expected sheet without reconciliation to pass, got %v", err)
	}
}

func TestCompareMatchedAndMismatched(t *testing.T) {
	de1 := sheet(map[string]int{"cand-1": 20, "cand-2": 0}, recon(20, 20))
	de2 := sheet(map[string]int{"cand-1": 20, "cand-2": 0}, recon(20, 20))
	comparison, err := Compare(candidates, de1, de2)
	if err != nil {
		t.Fatalf("compare: %v", err)
	}
	if !comparison.Matched() {
		t.Fatalf("expected identical sheets to match, got %+v", comparison)
	}

	de2 = sheet(map[string]int{"cand-1": 22, "cand-2": 0}, recon(22, 20))
	comparison, err = Compare(candidates, de1, de2)
	if err != nil {
		t.Fatalf("compare: %v", err)
	}
	if comparison.Matched() || !comparison.CandidateMismatched("cand-1") || comparison.CandidateMismatched("cand-2") {
		t.Fatalf("expected only cand-1 to mismatch, got %+v", comparison.Candidates)
	}
	if !comparison.FieldMismatched(entities.ReconNumberValidVotes) || comparison.FieldMismatched(entities.ReconNumberOfVoters) {
		t.Fatalf("expected only valid votes to mismatch, got %+v", comparison.Fields)
	}
}

func TestCompareRejectsIncompleteSheets(t *testing.T) {
	de1 := sheet(map[string]int{"cand-1": 20}, recon(20, 20))
	de2 := sheet(map[string]int{"cand-1": 20, "cand-2": 0}, recon(20, 20))
	if _, err := Compare(candidates, de1, de2); !errors.Is(err, domainerrors.ErrIntegrityViolation) {
		t.Fatalf("expected integrity violation, got %v", err)
	}
}

func TestPlanCorrectionsLocksMatchedValues(t *testing.T) {
	de1 := sheet(map[string]int{"cand-1": 20, "cand-2": 3}, recon(23, 23))
	de2 := sheet(map[string]int{"cand-1": 22, "cand-2": 3}, recon(25, 23))
	plan, err := PlanCorrections(candidates, de1, de2, Sheet{}, nil)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if diff := cmp.Diff([]string{"cand-1"}, plan.OpenCandidates()); diff != "" {
		t.Fatalf("open candidates (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]entities.ReconField{entities.ReconNumberValidVotes}, plan.OpenFields()); diff != "" {
		t.Fatalf("open fields (-want +got):\n%s", diff)
	}

	if _, err := plan.Apply(Corrections{Votes: map[string]int{}}); !errors.Is(err, domainerrors.ErrIncompleteEntry) {
		t.Fatalf("expected incomplete entry without values, got %v", err)
	}
	if _, err := plan.Apply(Corrections{
		Votes:          map[string]int{"cand-1": 21, "cand-2": 4},
		Reconciliation: entities.ReconValues{entities.ReconNumberValidVotes: 24},
	}); !errors.Is(err, domainerrors.ErrInvalidInput) {
		t.Fatalf("expected locked candidate override to fail, got %v", err)
	}

	final, err := plan.Apply(Corrections{
		Votes:          map[string]int{"cand-1": 21},
		Reconciliation: entities.ReconValues{entities.ReconNumberValidVotes: 24},
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	want := sheet(map[string]int{"cand-1": 21, "cand-2": 3}, recon(24, 23))
	if diff := cmp.Diff(want, final); diff != "" {
		t.Fatalf("final sheet (-want +got):\n%s", diff)
	}
}

func TestPlanCorrectionsReopenedSection(t *testing.T) {
	agreed := sheet(map[string]int{"cand-1": 20, "cand-2": 3}, recon(23, 23))
	final := Sheet{Votes: map[string]int{"cand-1": 20}}
	plan, err := PlanCorrections(candidates, agreed, agreed, final, []entities.Section{entities.SectionWomen, entities.SectionReconciliation})
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if diff := cmp.Diff([]string{"cand-2"}, plan.OpenCandidates()); diff != "" {
		t.Fatalf("open candidates (-want +got):\n%s", diff)
	}
	open := plan.OpenFields()
	if len(open) != len(entities.RequiredReconFields) {
		t.Fatalf("expected required reconciliation fields reopened, got %v", open)
	}
}

func TestPlanCorrectionsOpensBallotCountsAboveCeiling(t *testing.T) {
	de1 := sheet(map[string]int{"cand-1": 20, "cand-2": 0}, recon(20, 20))
	de2 := sheet(map[string]int{"cand-1": 22, "cand-2": 0}, recon(20, 20))
	plan, err := PlanCorrections(candidates, de1, de2, Sheet{}, nil)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	want := []entities.ReconField{entities.ReconNumberInvalidVotes, entities.ReconNumberValidVotes}
	if diff := cmp.Diff(want, plan.OpenFields()); diff != "" {
		t.Fatalf("open fields (-want +got):\n%s", diff)
	}

	_, err = plan.Apply(Corrections{
		Votes:          map[string]int{"cand-1": 21},
		Reconciliation: entities.ReconValues{entities.ReconNumberValidVotes: 20, entities.ReconNumberInvalidVotes: 0},
	})
	if !errors.Is(err, domainerrors.ErrInvalidInput) {
		t.Fatalf("expected ceiling violation on the final set, got %v", err)
	}

	final, err := plan.Apply(Corrections{
		Votes:          map[string]int{"cand-1": 21},
		Reconciliation: entities.ReconValues{entities.ReconNumberValidVotes: 21, entities.ReconNumberInvalidVotes: 0},
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if diff := cmp.Diff(sheet(map[string]int{"cand-1": 21, "cand-2": 0}, recon(21, 20)), final); diff != "" {
		t.Fatalf("final sheet (-want +got):\n%s", diff)
	}
}
