package tallying

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"tally/contexts/results-processing/result-form-service/domain/entities"
)

func intPtr(v int) *int { return &v }

func sheet(formID string, state entities.FormState, centerID string, station int, registrants *int, votes map[string]int, recon entities.ReconValues) entities.FinalSheet {
	out := entities.FinalSheet{
		Form: entities.ResultForm{
			ResultFormID:  formID,
			Barcode:       "bc-" + formID,
			BallotID:      "ballot-1",
			CenterID:      centerID,
			StationNumber: station,
			FormState:     state,
		},
		Location: entities.FormLocation{
			ResultFormID:  formID,
			BallotID:      "ballot-1",
			CenterID:      centerID,
			StationNumber: station,
			OfficeID:      "office-1",
			RegionID:      "region-1",
		},
		Registrants: registrants,
	}
	for candidateID, v := range votes {
		out.Results = append(out.Results, entities.Result{
			ResultFormID: formID, CandidateID: candidateID, Votes: v,
			EntryVersion: entities.EntryVersionFinal, Active: true,
		})
	}
	if recon != nil {
		out.Reconciliation = &entities.ReconciliationForm{
			ResultFormID: formID, EntryVersion: entities.EntryVersionFinal, Active: true, Values: recon,
		}
	}
	return out
}

func TestPercentRounding(t *testing.T) {
	cases := []struct {
		num, den int64
		want     float64
	}{
		{20, 50, 40},
		{1, 3, 33.33},
		{2, 3, 66.67},
		{1, 8, 12.5},
		{1, 80000, 0},
		{1, 20000, 0.01},
		{5, 0, 0},
	}
	for _, tc := range cases {
		if got := Percent(tc.num, tc.den); got != tc.want {
			t.Fatalf("Percent(%d, %d) = %v, want %v", tc.num, tc.den, got, tc.want)
		}
	}
}

func TestCandidateTotalsOnlyCountArchived(t *testing.T) {
	candidates := []entities.Candidate{
		{CandidateID: "cand-b", BallotID: "ballot-1", Order: 2, FullName: "B"},
		{CandidateID: "cand-a", BallotID: "ballot-1", Order: 1, FullName: "A"},
	}
	sheets := []entities.FinalSheet{
		sheet("f1", entities.FormStateArchived, "center-1", 1, intPtr(50), map[string]int{"cand-a": 20, "cand-b": 5}, nil),
		sheet("f2", entities.FormStateQualityControl, "center-1", 2, intPtr(50), map[string]int{"cand-a": 99}, nil),
		sheet("f3", entities.FormStateAudit, "center-1", 3, intPtr(50), map[string]int{"cand-a": 7}, nil),
	}
	sheets[0].Results = append(sheets[0].Results, entities.Result{
		ResultFormID: "f1", CandidateID: "cand-a", Votes: 1000,
		EntryVersion: entities.EntryVersionDataEntry1, Active: true,
	})

	got := CandidateTotals(candidates, sheets, map[string]int{"ballot-1": 4}, entities.ReportFilter{})
	want := []entities.CandidateTotal{
		{CandidateID: "cand-a", BallotID: "ballot-1", FullName: "A", Order: 1, Votes: 20, QuarantineVotes: 7, AllVotes: 27, StationsContributing: 1, CompletionPercent: 25},
		{CandidateID: "cand-b", BallotID: "ballot-1", FullName: "B", Order: 2, Votes: 5, AllVotes: 5, StationsContributing: 1, CompletionPercent: 25},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("candidate totals mismatch (-want +got):\n%s", diff)
	}

	excluded := CandidateTotals(candidates, sheets, map[string]int{"ballot-1": 4}, entities.ReportFilter{ExcludeFormIDs: []string{"f1"}})
	if excluded[0].Votes != 0 || excluded[0].QuarantineVotes != 7 {
		t.Fatalf("expected exclusion to drop f1, got %+v", excluded[0])
	}
}

func TestTurnoutCountsRegistrantsOncePerStation(t *testing.T) {
	recon := entities.ReconValues{
		entities.ReconNumberValidVotes:       20,
		entities.ReconNumberInvalidVotes:     1,
		entities.ReconNumberCancelledBallots: 2,
		entities.ReconNumberUnstampedBallots: 2,
	}
	first := sheet("f1", entities.FormStateArchived, "center-1", 1, intPtr(50), nil, recon)
	second := sheet("f2", entities.FormStateArchived, "center-1", 1, intPtr(50), nil, recon)
	second.Form.BallotID = "ballot-2"
	pending := sheet("f3", entities.FormStateArchiving, "center-1", 2, intPtr(80), nil, recon)

	got := Turnout(entities.AreaKindRegion, []entities.FinalSheet{first, second, pending}, map[string]string{"region-1": "West"}, entities.ReportFilter{})
	want := []entities.AreaTurnout{{
		AreaKind:          entities.AreaKindRegion,
		AreaID:            "region-1",
		AreaName:          "West",
		VotersVoted:       40,
		Registrants:       50,
		BallotsUsed:       50,
		TurnoutPercentage: 100,
	}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("turnout mismatch (-want +got):\n%s", diff)
	}

	summary := Summary(entities.AreaKindOffice, []entities.FinalSheet{first, second, pending}, nil, entities.ReportFilter{})
	wantSummary := []entities.AreaSummary{{
		AreaKind: entities.AreaKindOffice, AreaID: "office-1",
		ValidVotes: 40, InvalidVotes: 2, CancelledVotes: 4, FormsAggregated: 2,
	}}
	if diff := cmp.Diff(wantSummary, summary); diff != "" {
		t.Fatalf("summary mismatch (-want +got):\n%s", diff)
	}
}

func TestTurnoutWithoutRegistrantsIsZero(t *testing.T) {
	recon := entities.ReconValues{entities.ReconNumberValidVotes: 10}
	got := Turnout(entities.AreaKindCenter, []entities.FinalSheet{
		sheet("f1", entities.FormStateArchived, "center-1", 1, nil, nil, recon),
	}, nil, entities.ReportFilter{})
	if len(got) != 1 || got[0].TurnoutPercentage != 0 || got[0].BallotsUsed != 10 {
		t.Fatalf("expected zero turnout without registrants, got %+v", got)
	}
}

func TestDuplicatesGroupsArchivedForms(t *testing.T) {
	forms := []entities.ResultForm{
		{ResultFormID: "f2", Barcode: "200", CenterID: "center-1", StationNumber: 1, BallotID: "ballot-1", FormState: entities.FormStateArchived, DuplicateReviewed: true},
		{ResultFormID: "f1", Barcode: "100", CenterID: "center-1", StationNumber: 1, BallotID: "ballot-1", FormState: entities.FormStateArchived},
		{ResultFormID: "f3", Barcode: "300", CenterID: "center-1", StationNumber: 2, BallotID: "ballot-1", FormState: entities.FormStateArchived},
		{ResultFormID: "f4", Barcode: "400", CenterID: "center-1", StationNumber: 2, BallotID: "ballot-1", FormState: entities.FormStateDataEntry1},
	}
	got := Duplicates(forms, map[string]int{"center-1": 12345})
	want := []entities.DuplicateGroup{{
		CenterID:      "center-1",
		CenterCode:    12345,
		StationNumber: 1,
		BallotID:      "ballot-1",
		ResultFormIDs: []string{"f1", "f2"},
		Barcodes:      []string{"100", "200"},
		Reviewed:      false,
	}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("duplicates mismatch (-want +got):\n%s", diff)
	}
}
