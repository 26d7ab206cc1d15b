package quarantine

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"tally/contexts/results-processing/result-form-service/domain/entities"
)

func intPtr(v int) *int { return &v }

func reconInput(registrants *int, votes []int, values entities.ReconValues) Input {
	in := Input{Registrants: registrants}
	for i, v := range votes {
		in.Results = append(in.Results, entities.Result{
			CandidateID:  string(rune('a' + i)),
			Votes:        v,
			EntryVersion: entities.EntryVersionFinal,
			Active:       true,
		})
	}
	if values != nil {
		in.Reconciliation = &entities.ReconciliationForm{EntryVersion: entities.EntryVersionFinal, Active: true, Values: values}
	}
	return in
}

func TestPassOvervoteBoundary(t *testing.T) {
	check := entities.QuarantineCheck{Method: MethodOvervote, Value: 10, Active: true}

	atLimit := reconInput(intPtr(50), nil, entities.ReconValues{
		entities.ReconNumberValidVotes:   54,
		entities.ReconNumberInvalidVotes: 6,
	})
	if !PassOvervote(check, atLimit) {
		t.Fatalf("expected pass at registrants + tolerance")
	}

	overLimit := reconInput(intPtr(50), nil, entities.ReconValues{
		entities.ReconNumberValidVotes:   55,
		entities.ReconNumberInvalidVotes: 6,
	})
	if PassOvervote(check, overLimit) {
		t.Fatalf("expected fail at registrants + tolerance + 1")
	}
}

func TestPassOvervoteVacuous(t *testing.T) {
	check := entities.QuarantineCheck{Method: MethodOvervote, Value: 0, Active: true}
	values := entities.ReconValues{entities.ReconNumberValidVotes: 1000}

	if !PassOvervote(check, reconInput(nil, nil, values)) {
		t.Fatalf("expected pass without registrants")
	}
	if !PassOvervote(check, reconInput(intPtr(1), nil, nil)) {
		t.Fatalf("expected pass without reconciliation")
	}
}

func TestPassTamperingBoundary(t *testing.T) {
	check := entities.QuarantineCheck{Method: MethodTampering, Value: 10, Active: true}

	// sum 45, expected 55: diff 10 equals 10% of 100.
	equal := reconInput(intPtr(100), []int{45}, entities.ReconValues{
		entities.ReconNumberOfVoters:     60,
		entities.ReconNumberInvalidVotes: 5,
	})
	if !PassTampering(check, equal) {
		t.Fatalf("expected pass when difference equals tolerance")
	}

	// sum 44, expected 55: diff 11 > 9.9.
	over := reconInput(intPtr(100), []int{40, 4}, entities.ReconValues{
		entities.ReconNumberOfVoters:     60,
		entities.ReconNumberInvalidVotes: 5,
	})
	if PassTampering(check, over) {
		t.Fatalf("expected fail when difference exceeds tolerance")
	}

	if !PassTampering(check, reconInput(nil, []int{1000}, nil)) {
		t.Fatalf("expected vacuous pass without reconciliation")
	}
}

func TestSupplementaryChecks(t *testing.T) {
	values := entities.ReconValues{
		entities.ReconNumberBallotsReceived:   100,
		entities.ReconNumberBallotsInsideBox:  60,
		entities.ReconNumberBallotsOutsideBox: 40,
		entities.ReconNumberSignaturesInVR:    62,
		entities.ReconNumberValidVotes:        50,
		entities.ReconNumberInvalidVotes:      8,
		entities.ReconNumberUnstampedBallots:  2,
		entities.ReconNumberCancelledBallots:  2,
	}
	in := reconInput(intPtr(80), []int{30, 20}, values)

	cases := []struct {
		name  string
		pred  Predicate
		check entities.QuarantineCheck
		want  bool
	}{
		{"ballots number", PassBallotsNumber, entities.QuarantineCheck{Value: 0}, true},
		{"signatures", PassSignatures, entities.QuarantineCheck{Value: 0}, true},
		{"inside box", PassBallotsInsideBox, entities.QuarantineCheck{Value: 0}, true},
		{"sum of votes", PassSumOfCandidatesVotes, entities.QuarantineCheck{Value: 0}, true},
		{"invalid percent under", PassInvalidBallotsPercentage, entities.QuarantineCheck{Percentage: 20}, true},
		{"invalid percent over", PassInvalidBallotsPercentage, entities.QuarantineCheck{Percentage: 10}, false},
		{"turnout under", PassTurnoutPercentage, entities.QuarantineCheck{Percentage: 100}, true},
		{"turnout over", PassTurnoutPercentage, entities.QuarantineCheck{Percentage: 70}, false},
	}
	for _, tc := range cases {
		if got := tc.pred(tc.check, in); got != tc.want {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}
}

func TestEvaluateSkipsInactiveAndRejectsUnknown(t *testing.T) {
	registry := DefaultRegistry()
	in := reconInput(intPtr(50), []int{61}, entities.ReconValues{
		entities.ReconNumberValidVotes:   55,
		entities.ReconNumberInvalidVotes: 6,
		entities.ReconNumberOfVoters:     67,
	})

	checks := []entities.QuarantineCheck{
		{QuarantineCheckID: "qc-1", Name: "Overvote", Method: MethodOvervote, Value: 10, Active: true},
		{QuarantineCheckID: "qc-2", Name: "Tampering", Method: MethodTampering, Value: 3, Active: true},
		{QuarantineCheckID: "qc-3", Name: "Turnout", Method: MethodTurnoutPercentage, Percentage: 1},
	}
	outcomes, err := registry.Evaluate(checks, in)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	want := []entities.CheckOutcome{
		{CheckID: "qc-1", Name: "Overvote", Method: MethodOvervote, Passed: false},
		{CheckID: "qc-2", Name: "Tampering", Method: MethodTampering, Passed: true},
	}
	if diff := cmp.Diff(want, outcomes); diff != "" {
		t.Fatalf("outcomes mismatch (-want +got):\n%s", diff)
	}
	if failed := Failed(outcomes); len(failed) != 1 || failed[0].CheckID != "qc-1" {
		t.Fatalf("expected only overvote to fail, got %+v", failed)
	}

	_, err = registry.Evaluate([]entities.QuarantineCheck{{Method: "pass_unknown", Active: true}}, in)
	if err == nil {
		t.Fatalf("expected error for unregistered method")
	}
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	registry := DefaultRegistry()
	if err := registry.Register(MethodOvervote, PassOvervote); err == nil {
		t.Fatalf("expected duplicate registration to fail")
	}
	if err := registry.Register("pass_always", func(entities.QuarantineCheck, Input) bool { return true }); err != nil {
		t.Fatalf("register custom predicate: %v", err)
	}
	if !registry.Has("pass_always") {
		t.Fatalf("expected custom predicate to be registered")
	}
	for _, check := range DefaultChecks() {
		if !registry.Has(check.Method) {
			t.Fatalf("default check %s has no predicate", check.Method)
		}
	}
}
