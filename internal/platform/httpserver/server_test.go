package httpserver

import (
	"net/http"
	"strings"
	"testing"

	resultformservice "tally/contexts/results-processing/result-form-service"
	"tally/contexts/results-processing/result-form-service/domain/entities"
	httptransport "tally/contexts/results-processing/result-form-service/transport/http"
	"tally/internal/platform/monitoring"

	"github.com/steinfletcher/apitest"
)

const formsPath = "/api/tally/v1/tallies/tally-1/forms"

func intPtr(v int) *int { return &v }

func newTestServer(t *testing.T) *Server {
	t.Helper()
	seed := entities.ReferenceBatch{
		TallyID: "tally-1",
		Centers: []entities.Center{
			{CenterID: "center-1", TallyID: "tally-1", Code: 12345, Name: "Central School", Active: true},
			{CenterID: "center-2", TallyID: "tally-1", Code: 22222, Name: "Closed School", Active: false,
				DisableReason: entities.DisableReasonNotOpened},
		},
		Stations: []entities.Station{
			{StationID: "station-1", TallyID: "tally-1", CenterID: "center-1", StationNumber: 1, Registrants: intPtr(50), Active: true},
			{StationID: "station-2", TallyID: "tally-1", CenterID: "center-2", StationNumber: 1, Registrants: intPtr(40), Active: true},
		},
		Ballots: []entities.Ballot{
			{BallotID: "ballot-1", TallyID: "tally-1", Number: 1, Active: true},
		},
		Candidates: []entities.Candidate{
			{CandidateID: "cand-c", TallyID: "tally-1", BallotID: "ballot-1", Order: 1, FullName: "Candidate C",
				RaceType: entities.RaceTypeGeneral, Active: true},
		},
		ResultForms: []entities.ResultForm{
			{ResultFormID: "rf-1", TallyID: "tally-1", Barcode: "100000001", BallotID: "ballot-1",
				FormState: entities.FormStateUnsubmitted},
		},
	}
	module, err := resultformservice.NewInMemoryModule(seed, nil, nil)
	if err != nil {
		t.Fatalf("build module: %v", err)
	}
	monitor, err := monitoring.New("tally-test", nil)
	if err != nil {
		t.Fatalf("build monitor: %v", err)
	}
	return New(module, monitor.Handler(), nil, ":0")
}

func TestHealthAndMetrics(t *testing.T) {
	server := newTestServer(t)

	apitest.New().
		Handler(server.Handler()).
		Get("/healthz").
		Expect(t).
		Status(http.StatusOK).
		Body(`{"status":"ok"}`).
		End()

	apitest.New().
		Handler(server.Handler()).
		Get("/metrics").
		Expect(t).
		Status(http.StatusOK).
		End()
}

func TestReceiveRequiresUser(t *testing.T) {
	server := newTestServer(t)

	var body httptransport.ErrorResponse
	apitest.New().
		Handler(server.Handler()).
		Post(formsPath + "/receive").
		JSON(`{"barcode":"100000001"}`).
		Expect(t).
		Status(http.StatusUnauthorized).
		End().
		JSON(&body)
	if body.Code != "missing_user" {
		t.Fatalf("expected missing_user, got %+v", body)
	}
}

func TestReceiveAssignAndConfirm(t *testing.T) {
	server := newTestServer(t)

	var received httptransport.ResultFormResponse
	apitest.New().
		Handler(server.Handler()).
		Post(formsPath+"/receive").
		Header("X-User-Id", "intake-1").
		Header("X-User-Roles", "intake_clerk").
		JSON(`{"barcode":"100000001"}`).
		Expect(t).
		Status(http.StatusOK).
		End().
		JSON(&received)
	if received.FormState != string(entities.FormStateIntake) || received.ResultFormID != "rf-1" {
		t.Fatalf("expected rf-1 in INTAKE, got %+v", received)
	}

	apitest.New().
		Handler(server.Handler()).
		Post(formsPath+"/rf-1/assign").
		Header("X-User-Id", "intake-1").
		Header("X-User-Roles", "intake_clerk").
		JSON(`{"center_code":12345,"station_number":1}`).
		Expect(t).
		Status(http.StatusOK).
		End()

	var confirmed httptransport.ResultFormResponse
	apitest.New().
		Handler(server.Handler()).
		Post(formsPath+"/rf-1/intake/confirm").
		Header("X-User-Id", "intake-1").
		Header("X-User-Roles", "intake_clerk").
		Expect(t).
		Status(http.StatusOK).
		End().
		JSON(&confirmed)
	if confirmed.FormState != string(entities.FormStateDataEntry1) {
		t.Fatalf("expected DATA_ENTRY_1, got %s", confirmed.FormState)
	}

	var history httptransport.StateHistoryResponse
	apitest.New().
		Handler(server.Handler()).
		Get(formsPath + "/rf-1/history").
		Expect(t).
		Status(http.StatusOK).
		End().
		JSON(&history)
	if len(history.Items) != 2 {
		t.Fatalf("expected two state changes, got %+v", history.Items)
	}
}

func TestDomainErrorMapping(t *testing.T) {
	server := newTestServer(t)

	cases := []struct {
		name   string
		method string
		path   string
		roles  string
		body   string
		status int
		code   string
	}{
		{"unknown form", http.MethodGet, formsPath + "/missing", "", "", http.StatusNotFound, "not_found"},
		{"wrong role", http.MethodPost, formsPath + "/rf-1/intake/confirm", "data_entry_1_clerk", "", http.StatusForbidden, "forbidden"},
		{"illegal transition", http.MethodPost, formsPath + "/rf-1/intake/confirm", "intake_clerk", "", http.StatusConflict, "illegal_transition"},
		{"bad json", http.MethodPost, formsPath + "/receive", "intake_clerk", `{"barcode":`, http.StatusBadRequest, "invalid_json"},
		{"empty barcode", http.MethodPost, formsPath + "/receive", "intake_clerk", `{"barcode":" "}`, http.StatusUnprocessableEntity, "invalid_input"},
		{"bad center code", http.MethodGet, "/api/tally/v1/tallies/tally-1/centers/abc", "", "", http.StatusBadRequest, "invalid_code"},
		{"unknown area kind", http.MethodGet, "/api/tally/v1/tallies/tally-1/reports/turnout/planet", "", "", http.StatusUnprocessableEntity, "invalid_input"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var body httptransport.ErrorResponse
			req := apitest.New().
				Handler(server.Handler()).
				Method(tc.method).
				URL(tc.path).
				Header("X-User-Id", "user-1").
				Header("X-User-Roles", tc.roles)
			if tc.body != "" {
				req = req.Body(tc.body).ContentType("application/json")
			}
			req.Expect(t).
				Status(tc.status).
				End().
				JSON(&body)
			if body.Code != tc.code {
				t.Fatalf("expected code %s, got %+v", tc.code, body)
			}
		})
	}
}

func TestDisabledCenterIsLocked(t *testing.T) {
	server := newTestServer(t)

	apitest.New().
		Handler(server.Handler()).
		Post(formsPath+"/receive").
		Header("X-User-Id", "intake-1").
		Header("X-User-Roles", "intake_clerk").
		JSON(`{"barcode":"100000001"}`).
		Expect(t).
		Status(http.StatusOK).
		End()

	var body httptransport.ErrorResponse
	apitest.New().
		Handler(server.Handler()).
		Post(formsPath+"/rf-1/assign").
		Header("X-User-Id", "intake-1").
		Header("X-User-Roles", "intake_clerk").
		JSON(`{"center_code":22222,"station_number":1}`).
		Expect(t).
		Status(http.StatusLocked).
		End().
		JSON(&body)
	if body.Code != "disabled" {
		t.Fatalf("expected disabled, got %+v", body)
	}
}

func TestReferenceAndChecks(t *testing.T) {
	server := newTestServer(t)

	var center httptransport.CenterResponse
	apitest.New().
		Handler(server.Handler()).
		Get("/api/tally/v1/tallies/tally-1/centers/12345").
		Expect(t).
		Status(http.StatusOK).
		End().
		JSON(&center)
	if center.Code != 12345 || !center.Active {
		t.Fatalf("unexpected center %+v", center)
	}

	var checks httptransport.QuarantineCheckListResponse
	apitest.New().
		Handler(server.Handler()).
		Get("/api/tally/v1/quarantine-checks").
		Expect(t).
		Status(http.StatusOK).
		End().
		JSON(&checks)
	active := []string{}
	for _, check := range checks.Items {
		if check.Active {
			active = append(active, check.Method)
		}
	}
	if strings.Join(active, ",") != "pass_overvote,pass_tampering" {
		t.Fatalf("expected overvote and tampering active, got %v", active)
	}
}

func TestCandidateReportStartsEmpty(t *testing.T) {
	server := newTestServer(t)

	var totals httptransport.CandidateTotalsResponse
	apitest.New().
		Handler(server.Handler()).
		Get("/api/tally/v1/tallies/tally-1/reports/candidates").
		Query("ballot_id", "ballot-1").
		Expect(t).
		Status(http.StatusOK).
		End().
		JSON(&totals)
	for _, item := range totals.Items {
		if item.Votes != 0 {
			t.Fatalf("expected no archived votes, got %+v", item)
		}
	}
}
