package resultformservice_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	resultformservice "tally/contexts/results-processing/result-form-service"
	"tally/contexts/results-processing/result-form-service/domain/entities"
	domainerrors "tally/contexts/results-processing/result-form-service/domain/errors"
	"tally/contexts/results-processing/result-form-service/ports"
	httptransport "tally/contexts/results-processing/result-form-service/transport/http"
)

const testTally = "tally-1"

var (
	intakeClerk      = httptransport.Caller{UserID: "intake-1", Roles: "intake_clerk"}
	entryClerk1      = httptransport.Caller{UserID: "de1-1", Roles: "data_entry_1_clerk"}
	entryClerk2      = httptransport.Caller{UserID: "de2-1", Roles: "data_entry_2_clerk"}
	correctionsClerk = httptransport.Caller{UserID: "corr-1", Roles: "corrections_clerk"}
	qcClerk          = httptransport.Caller{UserID: "qc-1", Roles: "quality_control_clerk"}
	archiveClerk     = httptransport.Caller{UserID: "arch-1", Roles: "archive_clerk"}
	auditClerk       = httptransport.Caller{UserID: "audit-1", Roles: "audit_clerk"}
	auditSupervisor  = httptransport.Caller{UserID: "audit-sup-1", Roles: "audit_supervisor"}
	clearanceClerk   = httptransport.Caller{UserID: "clr-1", Roles: "clearance_clerk"}
	clearanceSuper   = httptransport.Caller{UserID: "clr-sup-1", Roles: "clearance_supervisor"}
	tallyManager     = httptransport.Caller{UserID: "tm-1", Roles: "tally_manager"}
	superAdmin       = httptransport.Caller{UserID: "admin-1", Roles: "super_administrator"}
)

type recordingPublisher struct {
	mu     sync.Mutex
	topics []string
}

func (p *recordingPublisher) Publish(_ context.Context, topic string, _ ports.EventEnvelope) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	return nil
}

func (p *recordingPublisher) count(topic string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, item := range p.topics {
		if item == topic {
			n++
		}
	}
	return n
}

func intPtr(v int) *int { return &v }

// testSeed holds one center (code 12345) with two stations of 50
// registrants, one single-candidate ballot and three unsubmitted forms.
func testSeed() entities.ReferenceBatch {
	return entities.ReferenceBatch{
		TallyID: testTally,
		Centers: []entities.Center{
			{CenterID: "center-12345", TallyID: testTally, Code: 12345, Name: "Central School", Active: true},
		},
		Stations: []entities.Station{
			{StationID: "station-1", TallyID: testTally, CenterID: "center-12345", StationNumber: 1, Registrants: intPtr(50), Active: true},
			{StationID: "station-2", TallyID: testTally, CenterID: "center-12345", StationNumber: 2, Registrants: intPtr(50), Active: true},
		},
		Ballots: []entities.Ballot{
			{BallotID: "ballot-1", TallyID: testTally, Number: 1, Active: true},
		},
		Candidates: []entities.Candidate{
			{CandidateID: "cand-c", TallyID: testTally, BallotID: "ballot-1", Order: 1, FullName: "Candidate C", RaceType: entities.RaceTypeGeneral, Active: true},
		},
		ResultForms: []entities.ResultForm{
			{ResultFormID: "rf-1", TallyID: testTally, Barcode: "100000001", BallotID: "ballot-1", FormState: entities.FormStateUnsubmitted},
			{ResultFormID: "rf-2", TallyID: testTally, Barcode: "100000002", BallotID: "ballot-1", FormState: entities.FormStateUnsubmitted},
			{ResultFormID: "rf-3", TallyID: testTally, Barcode: "100000003", BallotID: "ballot-1", FormState: entities.FormStateUnsubmitted},
		},
	}
}

func newTestModule(t *testing.T, publisher ports.EventPublisher) resultformservice.Module {
	t.Helper()
	module, err := resultformservice.NewInMemoryModule(testSeed(), publisher, nil)
	if err != nil {
		t.Fatalf("build module: %v", err)
	}
	return module
}

func entry(votes int, valid int, invalid int, voters int) httptransport.EntryRequest {
	return httptransport.EntryRequest{
		Votes: map[string]int{"cand-c": votes},
		Reconciliation: map[string]int{
			"number_valid_votes":       valid,
			"number_invalid_votes":     invalid,
			"number_cancelled_ballots": 0,
			"number_unstamped_ballots": 0,
			"number_of_voters":         voters,
		},
	}
}

// intakeForm receives the form by barcode, assigns it to center 12345 and
// the given station, and confirms it into data entry 1.
func intakeForm(t *testing.T, module resultformservice.Module, formID string, barcode string, station int) {
	t.Helper()
	ctx := context.Background()
	if _, err := module.Handler.ReceiveFormHandler(ctx, intakeClerk, testTally, httptransport.ReceiveFormRequest{Barcode: barcode}); err != nil {
		t.Fatalf("receive %s: %v", barcode, err)
	}
	if _, err := module.Handler.AssignCenterStationHandler(ctx, intakeClerk, testTally, formID, httptransport.AssignCenterStationRequest{
		CenterCode:    12345,
		StationNumber: station,
	}); err != nil {
		t.Fatalf("assign %s: %v", formID, err)
	}
	form, err := module.Handler.ConfirmIntakeHandler(ctx, intakeClerk, testTally, formID)
	if err != nil {
		t.Fatalf("confirm %s: %v", formID, err)
	}
	if form.FormState != string(entities.FormStateDataEntry1) {
		t.Fatalf("expected DATA_ENTRY_1 after intake, got %s", form.FormState)
	}
}

func doubleEntry(t *testing.T, module resultformservice.Module, formID string, first httptransport.EntryRequest, second httptransport.EntryRequest) httptransport.SecondEntryResponse {
	t.Helper()
	ctx := context.Background()
	if _, err := module.Handler.SubmitFirstEntryHandler(ctx, entryClerk1, testTally, formID, first); err != nil {
		t.Fatalf("first entry %s: %v", formID, err)
	}
	resp, err := module.Handler.SubmitSecondEntryHandler(ctx, entryClerk2, testTally, formID, second)
	if err != nil {
		t.Fatalf("second entry %s: %v", formID, err)
	}
	return resp
}

func passQualityControl(t *testing.T, module resultformservice.Module, formID string) httptransport.QualityControlResultResponse {
	t.Helper()
	resp, err := module.Handler.SubmitQualityControlHandler(context.Background(), qcClerk, testTally, formID, httptransport.QualityControlRequest{
		PassedGeneral:        true,
		PassedReconciliation: true,
		PassedWomens:         true,
	})
	if err != nil {
		t.Fatalf("quality control %s: %v", formID, err)
	}
	return resp
}

func formState(t *testing.T, module resultformservice.Module, formID string) string {
	t.Helper()
	detail, err := module.Handler.GetFormHandler(context.Background(), testTally, formID)
	if err != nil {
		t.Fatalf("get form %s: %v", formID, err)
	}
	return detail.Form.FormState
}

type finalSet struct {
	Votes map[string]int
	Recon entities.ReconValues
}

// finalSheet reads the active FINAL rows of a form.
func finalSheet(t *testing.T, module resultformservice.Module, formID string) finalSet {
	t.Helper()
	ctx := context.Background()
	results, err := module.Store.ListResults(ctx, formID, entities.EntryVersionFinal)
	if err != nil {
		t.Fatalf("list final results %s: %v", formID, err)
	}
	set := finalSet{Votes: map[string]int{}}
	for _, result := range results {
		if result.Active {
			set.Votes[result.CandidateID] = result.Votes
		}
	}
	recon, found, err := module.Store.GetReconciliation(ctx, formID, entities.EntryVersionFinal)
	if err != nil {
		t.Fatalf("final reconciliation %s: %v", formID, err)
	}
	if found && recon.Active {
		set.Recon = recon.Values
	}
	return set
}

func TestHappyPathArchivesAndReports(t *testing.T) {
	publisher := &recordingPublisher{}
	module := newTestModule(t, publisher)
	ctx := context.Background()

	intakeForm(t, module, "rf-1", "100000001", 1)
	second := doubleEntry(t, module, "rf-1", entry(20, 20, 0, 20), entry(20, 20, 0, 20))
	if !second.Comparison.Matched {
		t.Fatalf("expected matching entries, got %+v", second.Comparison)
	}
	if second.Form.FormState != string(entities.FormStateQualityControl) {
		t.Fatalf("expected QUALITY_CONTROL, got %s", second.Form.FormState)
	}

	qc := passQualityControl(t, module, "rf-1")
	if qc.AuditRequested || len(qc.FailedChecks) != 0 {
		t.Fatalf("expected quarantine to pass, got %+v", qc.FailedChecks)
	}
	if qc.Form.FormState != string(entities.FormStateArchiving) {
		t.Fatalf("expected ARCHIVING, got %s", qc.Form.FormState)
	}
	archived, err := module.Handler.ArchiveHandler(ctx, archiveClerk, testTally, "rf-1")
	if err != nil {
		t.Fatalf("archive: %v", err)
	}
	if archived.FormState != string(entities.FormStateArchived) {
		t.Fatalf("expected ARCHIVED, got %s", archived.FormState)
	}

	totals, err := module.Handler.CandidateTotalsHandler(ctx, testTally, "", nil)
	if err != nil {
		t.Fatalf("candidate totals: %v", err)
	}
	if len(totals.Items) != 1 || totals.Items[0].Votes != 20 {
		t.Fatalf("expected candidate C total 20, got %+v", totals.Items)
	}
	turnout, err := module.Handler.AreaTurnoutHandler(ctx, testTally, "center", "", nil)
	if err != nil {
		t.Fatalf("turnout: %v", err)
	}
	if len(turnout.Items) != 1 || turnout.Items[0].TurnoutPercentage != 40 {
		t.Fatalf("expected 40%% turnout, got %+v", turnout.Items)
	}

	if err := module.Outbox.RunOnce(ctx); err != nil {
		t.Fatalf("relay outbox: %v", err)
	}
	if publisher.count(ports.EventResultFormStateChanged) == 0 {
		t.Fatalf("expected state change events to be published, got %v", publisher.topics)
	}
	pending, err := module.Store.ListPendingOutbox(ctx, 100)
	if err != nil {
		t.Fatalf("list outbox: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected relayed outbox to be empty, got %d rows", len(pending))
	}
}

func TestLiteralVoterCountTripsTampering(t *testing.T) {
	module := newTestModule(t, nil)

	intakeForm(t, module, "rf-1", "100000001", 1)
	doubleEntry(t, module, "rf-1", entry(20, 20, 0, 50), entry(20, 20, 0, 50))
	qc := passQualityControl(t, module, "rf-1")
	if !qc.AuditRequested {
		t.Fatalf("expected tampering to request an audit")
	}
	if len(qc.FailedChecks) != 1 || qc.FailedChecks[0].Method != "pass_tampering" {
		t.Fatalf("expected only pass_tampering to fail, got %+v", qc.FailedChecks)
	}
}

func TestCorrectionPathWritesFinal(t *testing.T) {
	module := newTestModule(t, nil)
	ctx := context.Background()

	intakeForm(t, module, "rf-1", "100000001", 1)
	second := doubleEntry(t, module, "rf-1", entry(20, 20, 0, 50), entry(22, 20, 0, 50))
	if second.Comparison.Matched {
		t.Fatalf("expected mismatch between 20 and 22")
	}
	if second.Form.FormState != string(entities.FormStateCorrection) {
		t.Fatalf("expected CORRECTION, got %s", second.Form.FormState)
	}

	view, err := module.Handler.CorrectionsViewHandler(ctx, testTally, "rf-1")
	if err != nil {
		t.Fatalf("corrections view: %v", err)
	}
	var open []string
	for _, line := range view.Fields {
		if !line.Locked {
			open = append(open, line.Field)
		}
	}
	if diff := cmp.Diff([]string{"number_invalid_votes", "number_valid_votes"}, open); diff != "" {
		t.Fatalf("open fields (-want +got):\n%s", diff)
	}

	_, err = module.Handler.SubmitCorrectionsHandler(ctx, correctionsClerk, testTally, "rf-1", httptransport.EntryRequest{
		Votes:          map[string]int{"cand-c": 21},
		Reconciliation: map[string]int{"number_valid_votes": 20, "number_invalid_votes": 0},
	})
	if !errors.Is(err, domainerrors.ErrInvalidInput) {
		t.Fatalf("expected a final set above valid plus invalid to be refused, got %v", err)
	}
	if state := formState(t, module, "rf-1"); state != string(entities.FormStateCorrection) {
		t.Fatalf("expected refused corrections to leave CORRECTION, got %s", state)
	}

	form, err := module.Handler.SubmitCorrectionsHandler(ctx, correctionsClerk, testTally, "rf-1", httptransport.EntryRequest{
		Votes:          map[string]int{"cand-c": 21},
		Reconciliation: map[string]int{"number_valid_votes": 21, "number_invalid_votes": 0},
	})
	if err != nil {
		t.Fatalf("submit corrections: %v", err)
	}
	if form.FormState != string(entities.FormStateQualityControl) {
		t.Fatalf("expected QUALITY_CONTROL, got %s", form.FormState)
	}
	final := finalSheet(t, module, "rf-1")
	if final.Votes["cand-c"] != 21 || final.Recon[entities.ReconNumberValidVotes] != 21 {
		t.Fatalf("expected FINAL C=21 with 21 valid votes, got %+v", final)
	}
}

func TestMatchingEntriesAboveCeilingStayInCorrection(t *testing.T) {
	module := newTestModule(t, nil)

	intakeForm(t, module, "rf-1", "100000001", 1)
	second := doubleEntry(t, module, "rf-1", entry(22, 20, 0, 50), entry(22, 20, 0, 50))
	if !second.Comparison.Matched {
		t.Fatalf("expected identical entries to match")
	}
	if second.Form.FormState != string(entities.FormStateCorrection) {
		t.Fatalf("expected CORRECTION, got %s", second.Form.FormState)
	}
	if final := finalSheet(t, module, "rf-1"); len(final.Votes) != 0 {
		t.Fatalf("expected no FINAL rows, got %+v", final)
	}
}

func TestCorrectionsMatchingFirstEntryEqualMatchedPath(t *testing.T) {
	module := newTestModule(t, nil)
	ctx := context.Background()

	intakeForm(t, module, "rf-1", "100000001", 1)
	doubleEntry(t, module, "rf-1", entry(20, 20, 0, 20), entry(20, 20, 0, 20))

	intakeForm(t, module, "rf-3", "100000003", 2)
	doubleEntry(t, module, "rf-3", entry(20, 20, 0, 20), entry(18, 20, 0, 20))
	if _, err := module.Handler.SubmitCorrectionsHandler(ctx, correctionsClerk, testTally, "rf-3", httptransport.EntryRequest{
		Votes: map[string]int{"cand-c": 20},
	}); err != nil {
		t.Fatalf("submit corrections: %v", err)
	}

	if diff := cmp.Diff(finalSheet(t, module, "rf-1"), finalSheet(t, module, "rf-3")); diff != "" {
		t.Fatalf("final sets differ (-matched +corrected):\n%s", diff)
	}
}

func TestRejectCorrectionsClearsEntries(t *testing.T) {
	module := newTestModule(t, nil)
	ctx := context.Background()

	intakeForm(t, module, "rf-1", "100000001", 1)
	doubleEntry(t, module, "rf-1", entry(20, 20, 0, 20), entry(22, 20, 0, 20))

	form, err := module.Handler.RejectCorrectionsHandler(ctx, correctionsClerk, testTally, "rf-1", httptransport.ReasonRequest{Reason: "illegible"})
	if err != nil {
		t.Fatalf("reject corrections: %v", err)
	}
	if form.FormState != string(entities.FormStateDataEntry1) || form.RejectedCount != 1 {
		t.Fatalf("expected DATA_ENTRY_1 with one rejection, got %+v", form)
	}
	results, recons, err := module.Store.CountActiveEntries(ctx, "rf-1")
	if err != nil {
		t.Fatalf("count entries: %v", err)
	}
	if results != 0 || recons != 0 {
		t.Fatalf("expected no active entries, got %d results and %d reconciliation rows", results, recons)
	}

	second := doubleEntry(t, module, "rf-1", entry(20, 20, 0, 20), entry(20, 20, 0, 20))
	if second.Form.FormState != string(entities.FormStateQualityControl) {
		t.Fatalf("expected re-entered form in QUALITY_CONTROL, got %s", second.Form.FormState)
	}
	if final := finalSheet(t, module, "rf-1"); final.Votes["cand-c"] != 20 {
		t.Fatalf("expected FINAL C=20 after re-entry, got %+v", final)
	}
}

func TestQualityControlRejectReopensSection(t *testing.T) {
	module := newTestModule(t, nil)
	ctx := context.Background()

	intakeForm(t, module, "rf-1", "100000001", 1)
	doubleEntry(t, module, "rf-1", entry(20, 20, 0, 20), entry(20, 20, 0, 20))

	qc, err := module.Handler.SubmitQualityControlHandler(ctx, qcClerk, testTally, "rf-1", httptransport.QualityControlRequest{
		PassedGeneral:        false,
		PassedReconciliation: true,
		PassedWomens:         true,
	})
	if err != nil {
		t.Fatalf("quality control: %v", err)
	}
	if qc.Form.FormState != string(entities.FormStateCorrection) {
		t.Fatalf("expected CORRECTION, got %s", qc.Form.FormState)
	}
	if diff := cmp.Diff([]string{string(entities.SectionGeneral)}, qc.Form.ReopenedSections); diff != "" {
		t.Fatalf("reopened sections (-want +got):\n%s", diff)
	}

	view, err := module.Handler.CorrectionsViewHandler(ctx, testTally, "rf-1")
	if err != nil {
		t.Fatalf("corrections view: %v", err)
	}
	if len(view.Candidates) != 1 || view.Candidates[0].Locked {
		t.Fatalf("expected the general candidate to be open, got %+v", view.Candidates)
	}
	for _, line := range view.Fields {
		if !line.Locked {
			t.Fatalf("expected reconciliation to stay locked, %s is open", line.Field)
		}
	}

	form, err := module.Handler.SubmitCorrectionsHandler(ctx, correctionsClerk, testTally, "rf-1", httptransport.EntryRequest{
		Votes: map[string]int{"cand-c": 19},
	})
	if err != nil {
		t.Fatalf("submit corrections: %v", err)
	}
	if form.FormState != string(entities.FormStateQualityControl) || len(form.ReopenedSections) != 0 {
		t.Fatalf("expected QUALITY_CONTROL with nothing reopened, got %+v", form)
	}
	passQualityControl(t, module, "rf-1")
	if _, err := module.Handler.ArchiveHandler(ctx, archiveClerk, testTally, "rf-1"); err != nil {
		t.Fatalf("archive: %v", err)
	}
	totals, err := module.Handler.CandidateTotalsHandler(ctx, testTally, "", nil)
	if err != nil {
		t.Fatalf("candidate totals: %v", err)
	}
	if len(totals.Items) != 1 || totals.Items[0].Votes != 19 {
		t.Fatalf("expected corrected total 19, got %+v", totals.Items)
	}
}

// sendToAudit drives a form with 55 valid and 6 invalid ballots against 50
// registrants through quality control and archiving into AUDIT.
func sendToAudit(t *testing.T, module resultformservice.Module, formID string, barcode string) {
	t.Helper()
	intakeForm(t, module, formID, barcode, 1)
	doubleEntry(t, module, formID, entry(55, 55, 6, 61), entry(55, 55, 6, 61))

	qc := passQualityControl(t, module, formID)
	if !qc.AuditRequested || len(qc.FailedChecks) != 1 || qc.FailedChecks[0].Method != "pass_overvote" {
		t.Fatalf("expected overvote failure, got %+v", qc.FailedChecks)
	}
	form, err := module.Handler.ArchiveHandler(context.Background(), archiveClerk, testTally, formID)
	if err != nil {
		t.Fatalf("archive: %v", err)
	}
	if form.FormState != string(entities.FormStateAudit) {
		t.Fatalf("expected AUDIT, got %s", form.FormState)
	}
}

func TestOvervoteQuarantineGoesThroughAudit(t *testing.T) {
	module := newTestModule(t, nil)
	ctx := context.Background()

	sendToAudit(t, module, "rf-1", "100000001")

	form, err := module.Handler.ConfirmAuditHandler(ctx, auditSupervisor, testTally, "rf-1", httptransport.CommentRequest{Comment: "re-enter"})
	if err != nil {
		t.Fatalf("confirm audit: %v", err)
	}
	if form.FormState != string(entities.FormStateDataEntry1) || !form.SkipQuarantineChecks {
		t.Fatalf("expected DATA_ENTRY_1 with quarantine skipped, got %+v", form)
	}
	if form.RejectedCount != 1 || form.DuplicateReviewed {
		t.Fatalf("expected confirm to count as a rejection, got %+v", form)
	}
	results, recons, err := module.Store.CountActiveEntries(ctx, "rf-1")
	if err != nil {
		t.Fatalf("count entries: %v", err)
	}
	if results != 0 || recons != 0 {
		t.Fatalf("expected no active entries, got %d results and %d reconciliation rows", results, recons)
	}
	if _, err := module.Store.GetActiveAudit(ctx, "rf-1"); !errors.Is(err, domainerrors.ErrNotFound) {
		t.Fatalf("expected the audit to be closed, got %v", err)
	}
}

func TestForwardedAuditNeedsSuperAdministrator(t *testing.T) {
	module := newTestModule(t, nil)
	ctx := context.Background()

	sendToAudit(t, module, "rf-1", "100000001")
	if _, err := module.Handler.ReviewAuditHandler(ctx, auditClerk, testTally, "rf-1", httptransport.AuditReviewRequest{
		Comment: "figures checked against the copy",
		Forward: true,
	}); err != nil {
		t.Fatalf("review audit: %v", err)
	}
	if _, err := module.Handler.ForwardAuditHandler(ctx, auditSupervisor, testTally, "rf-1", httptransport.CommentRequest{}); err != nil {
		t.Fatalf("forward audit: %v", err)
	}

	_, err := module.Handler.ConfirmAuditHandler(ctx, auditSupervisor, testTally, "rf-1", httptransport.CommentRequest{})
	if !errors.Is(err, domainerrors.ErrAuthorizationFailed) {
		t.Fatalf("expected the audit supervisor to be refused, got %v", err)
	}
	form, err := module.Handler.ConfirmAuditHandler(ctx, superAdmin, testTally, "rf-1", httptransport.CommentRequest{})
	if err != nil {
		t.Fatalf("confirm audit: %v", err)
	}
	if form.FormState != string(entities.FormStateDataEntry1) {
		t.Fatalf("expected DATA_ENTRY_1, got %s", form.FormState)
	}
}

func TestConfirmedAuditReentryArchivesWithoutChecks(t *testing.T) {
	module := newTestModule(t, nil)
	ctx := context.Background()

	intakeForm(t, module, "rf-1", "100000001", 1)
	doubleEntry(t, module, "rf-1", entry(20, 20, 0, 50), entry(20, 20, 0, 50))
	before := finalSheet(t, module, "rf-1")
	if qc := passQualityControl(t, module, "rf-1"); !qc.AuditRequested {
		t.Fatalf("expected tampering to request an audit")
	}
	if _, err := module.Handler.ArchiveHandler(ctx, archiveClerk, testTally, "rf-1"); err != nil {
		t.Fatalf("archive: %v", err)
	}
	if _, err := module.Handler.ConfirmAuditHandler(ctx, auditSupervisor, testTally, "rf-1", httptransport.CommentRequest{}); err != nil {
		t.Fatalf("confirm audit: %v", err)
	}

	doubleEntry(t, module, "rf-1", entry(20, 20, 0, 50), entry(20, 20, 0, 50))
	if diff := cmp.Diff(before, finalSheet(t, module, "rf-1")); diff != "" {
		t.Fatalf("final set changed after re-entry (-before +after):\n%s", diff)
	}
	qc := passQualityControl(t, module, "rf-1")
	if qc.AuditRequested || len(qc.FailedChecks) != 0 || !qc.Form.SkipQuarantineChecks {
		t.Fatalf("expected checks to be skipped, got %+v", qc)
	}
	form, err := module.Handler.ArchiveHandler(ctx, archiveClerk, testTally, "rf-1")
	if err != nil {
		t.Fatalf("archive: %v", err)
	}
	if form.FormState != string(entities.FormStateArchived) || !form.SkipQuarantineChecks {
		t.Fatalf("expected ARCHIVED with skip kept, got %+v", form)
	}
}

func TestAcceptedAuditArchives(t *testing.T) {
	module := newTestModule(t, nil)
	ctx := context.Background()

	sendToAudit(t, module, "rf-1", "100000001")
	form, err := module.Handler.AcceptAuditHandler(ctx, auditSupervisor, testTally, "rf-1", httptransport.CommentRequest{Comment: "figures stand"})
	if err != nil {
		t.Fatalf("accept audit: %v", err)
	}
	if form.FormState != string(entities.FormStateArchiving) || !form.SkipQuarantineChecks {
		t.Fatalf("expected ARCHIVING with quarantine skipped, got %+v", form)
	}
	form, err = module.Handler.ArchiveHandler(ctx, archiveClerk, testTally, "rf-1")
	if err != nil {
		t.Fatalf("archive: %v", err)
	}
	if form.FormState != string(entities.FormStateArchived) {
		t.Fatalf("expected ARCHIVED, got %s", form.FormState)
	}
	if final := finalSheet(t, module, "rf-1"); final.Votes["cand-c"] != 55 {
		t.Fatalf("expected accepted FINAL set to be kept, got %+v", final)
	}
}

func TestReopenArchivedForm(t *testing.T) {
	module := newTestModule(t, nil)
	ctx := context.Background()

	intakeForm(t, module, "rf-1", "100000001", 1)
	doubleEntry(t, module, "rf-1", entry(20, 20, 0, 20), entry(20, 20, 0, 20))
	passQualityControl(t, module, "rf-1")
	if _, err := module.Handler.ArchiveHandler(ctx, archiveClerk, testTally, "rf-1"); err != nil {
		t.Fatalf("archive: %v", err)
	}

	_, err := module.Handler.ReopenArchivedHandler(ctx, tallyManager, testTally, "rf-1", httptransport.ReasonRequest{})
	if !errors.Is(err, domainerrors.ErrInvalidInput) {
		t.Fatalf("expected a reason to be required, got %v", err)
	}
	form, err := module.Handler.ReopenArchivedHandler(ctx, tallyManager, testTally, "rf-1", httptransport.ReasonRequest{Reason: "complaint from observers"})
	if err != nil {
		t.Fatalf("reopen archived: %v", err)
	}
	if form.FormState != string(entities.FormStateAudit) || form.AuditedCount != 1 || form.SkipQuarantineChecks {
		t.Fatalf("expected AUDIT with one audit counted, got %+v", form)
	}
	audit, err := module.Store.GetActiveAudit(ctx, "rf-1")
	if err != nil {
		t.Fatalf("active audit: %v", err)
	}
	if audit.TeamComment != "complaint from observers" {
		t.Fatalf("expected the reason on the audit, got %q", audit.TeamComment)
	}

	totals, err := module.Handler.CandidateTotalsHandler(ctx, testTally, "", nil)
	if err != nil {
		t.Fatalf("candidate totals: %v", err)
	}
	for _, item := range totals.Items {
		if item.Votes != 0 {
			t.Fatalf("expected the reopened form to leave the totals, got %+v", totals.Items)
		}
	}

	if _, err := module.Handler.AcceptAuditHandler(ctx, auditSupervisor, testTally, "rf-1", httptransport.CommentRequest{}); err != nil {
		t.Fatalf("accept audit: %v", err)
	}
	form, err = module.Handler.ArchiveHandler(ctx, archiveClerk, testTally, "rf-1")
	if err != nil {
		t.Fatalf("archive: %v", err)
	}
	if form.FormState != string(entities.FormStateArchived) {
		t.Fatalf("expected ARCHIVED again, got %s", form.FormState)
	}
}

func TestDuplicateAssignmentGoesToClearance(t *testing.T) {
	module := newTestModule(t, nil)
	ctx := context.Background()

	if _, err := module.Handler.ReceiveFormHandler(ctx, intakeClerk, testTally, httptransport.ReceiveFormRequest{Barcode: "100000001"}); err != nil {
		t.Fatalf("receive first: %v", err)
	}
	assign := httptransport.AssignCenterStationRequest{CenterCode: 12345, StationNumber: 1}
	if _, err := module.Handler.AssignCenterStationHandler(ctx, intakeClerk, testTally, "rf-1", assign); err != nil {
		t.Fatalf("assign first: %v", err)
	}
	if _, err := module.Handler.ReceiveFormHandler(ctx, intakeClerk, testTally, httptransport.ReceiveFormRequest{Barcode: "100000002"}); err != nil {
		t.Fatalf("receive second: %v", err)
	}
	_, err := module.Handler.AssignCenterStationHandler(ctx, intakeClerk, testTally, "rf-2", assign)
	if !errors.Is(err, domainerrors.ErrDuplicateBallotAssignment) {
		t.Fatalf("expected duplicate ballot assignment, got %v", err)
	}
	if state := formState(t, module, "rf-2"); state != string(entities.FormStateClearance) {
		t.Fatalf("expected CLEARANCE, got %s", state)
	}

	if _, err := module.Handler.ReviewClearanceHandler(ctx, clearanceClerk, testTally, "rf-2", httptransport.ClearanceReviewRequest{
		Recommendation: string(entities.ClearanceResolutionResetToPreintake),
		Forward:        true,
	}); err != nil {
		t.Fatalf("review clearance: %v", err)
	}
	form, err := module.Handler.ImplementClearanceHandler(ctx, clearanceSuper, testTally, "rf-2", httptransport.CommentRequest{})
	if err != nil {
		t.Fatalf("implement clearance: %v", err)
	}
	if form.FormState != string(entities.FormStateUnsubmitted) {
		t.Fatalf("expected UNSUBMITTED, got %s", form.FormState)
	}
}

func TestReturnClearanceClearsReviewedFlags(t *testing.T) {
	module := newTestModule(t, nil)
	ctx := context.Background()

	if _, err := module.Handler.ReceiveFormHandler(ctx, intakeClerk, testTally, httptransport.ReceiveFormRequest{Barcode: "100000001"}); err != nil {
		t.Fatalf("receive: %v", err)
	}
	if _, err := module.Handler.ReferToClearanceHandler(ctx, intakeClerk, testTally, "rf-1", httptransport.ReferToClearanceRequest{
		Problems: httptransport.ClearanceProblems{CenterNameMissing: true},
		Comment:  "center missing from the list",
	}); err != nil {
		t.Fatalf("refer to clearance: %v", err)
	}
	reviewed, err := module.Handler.ReviewClearanceHandler(ctx, clearanceClerk, testTally, "rf-1", httptransport.ClearanceReviewRequest{
		Recommendation: string(entities.ClearanceResolutionResetToPreintake),
		Forward:        true,
	})
	if err != nil {
		t.Fatalf("review clearance: %v", err)
	}
	if !reviewed.ReviewedTeam {
		t.Fatalf("expected the team review to be recorded")
	}

	returned, err := module.Handler.ReturnClearanceHandler(ctx, clearanceSuper, testTally, "rf-1", httptransport.CommentRequest{Comment: "check the station list"})
	if err != nil {
		t.Fatalf("return clearance: %v", err)
	}
	if returned.ReviewedTeam || returned.ReviewedSupervisor || !returned.Active {
		t.Fatalf("expected reviewed flags cleared on an open case, got %+v", returned)
	}
	if state := formState(t, module, "rf-1"); state != string(entities.FormStateClearance) {
		t.Fatalf("expected the form to stay in CLEARANCE, got %s", state)
	}
	_, err = module.Handler.ImplementClearanceHandler(ctx, clearanceSuper, testTally, "rf-1", httptransport.CommentRequest{})
	if !errors.Is(err, domainerrors.ErrReviewIncomplete) {
		t.Fatalf("expected implement to wait for a new team review, got %v", err)
	}
}

func TestReportsExcludeForms(t *testing.T) {
	module := newTestModule(t, nil)
	ctx := context.Background()

	for _, form := range []struct {
		id      string
		barcode string
		station int
		votes   int
	}{
		{id: "rf-1", barcode: "100000001", station: 1, votes: 20},
		{id: "rf-3", barcode: "100000003", station: 2, votes: 7},
	} {
		intakeForm(t, module, form.id, form.barcode, form.station)
		doubleEntry(t, module, form.id, entry(form.votes, form.votes, 0, form.votes), entry(form.votes, form.votes, 0, form.votes))
		passQualityControl(t, module, form.id)
		if _, err := module.Handler.ArchiveHandler(ctx, archiveClerk, testTally, form.id); err != nil {
			t.Fatalf("archive %s: %v", form.id, err)
		}
	}

	totals, err := module.Handler.CandidateTotalsHandler(ctx, testTally, "", nil)
	if err != nil {
		t.Fatalf("candidate totals: %v", err)
	}
	if len(totals.Items) != 1 || totals.Items[0].Votes != 27 {
		t.Fatalf("expected both forms counted, got %+v", totals.Items)
	}
	totals, err = module.Handler.CandidateTotalsHandler(ctx, testTally, "", []string{"rf-3"})
	if err != nil {
		t.Fatalf("candidate totals: %v", err)
	}
	if len(totals.Items) != 1 || totals.Items[0].Votes != 20 {
		t.Fatalf("expected rf-3 excluded, got %+v", totals.Items)
	}
	turnout, err := module.Handler.AreaTurnoutHandler(ctx, testTally, "center", "", []string{"rf-3"})
	if err != nil {
		t.Fatalf("turnout: %v", err)
	}
	if len(turnout.Items) != 1 || turnout.Items[0].VotersVoted != 20 {
		t.Fatalf("expected only rf-1 in turnout, got %+v", turnout.Items)
	}
}

func TestTotalsIgnoreUnarchivedForms(t *testing.T) {
	module := newTestModule(t, nil)
	ctx := context.Background()

	intakeForm(t, module, "rf-1", "100000001", 1)
	doubleEntry(t, module, "rf-1", entry(20, 20, 0, 20), entry(20, 20, 0, 20))
	passQualityControl(t, module, "rf-1")
	if _, err := module.Handler.ArchiveHandler(ctx, archiveClerk, testTally, "rf-1"); err != nil {
		t.Fatalf("archive: %v", err)
	}

	intakeForm(t, module, "rf-3", "100000003", 2)
	doubleEntry(t, module, "rf-3", entry(7, 7, 0, 7), entry(7, 7, 0, 7))

	totals, err := module.Handler.CandidateTotalsHandler(ctx, testTally, "", nil)
	if err != nil {
		t.Fatalf("candidate totals: %v", err)
	}
	if len(totals.Items) != 1 || totals.Items[0].Votes != 20 {
		t.Fatalf("expected only the archived 20 votes, got %+v", totals.Items)
	}
}

func TestRoleCheckedBeforeState(t *testing.T) {
	module := newTestModule(t, nil)
	ctx := context.Background()

	_, err := module.Handler.ConfirmIntakeHandler(ctx, entryClerk1, testTally, "rf-1")
	if !errors.Is(err, domainerrors.ErrAuthorizationFailed) {
		t.Fatalf("expected authorization failure, got %v", err)
	}
	_, err = module.Handler.ConfirmIntakeHandler(ctx, intakeClerk, testTally, "rf-1")
	var illegal domainerrors.IllegalTransitionError
	if !errors.As(err, &illegal) {
		t.Fatalf("expected illegal transition, got %v", err)
	}
	if illegal.Current != entities.FormStateUnsubmitted {
		t.Fatalf("expected current UNSUBMITTED, got %s", illegal.Current)
	}
}

func TestIncompleteEntryListsMissing(t *testing.T) {
	module := newTestModule(t, nil)
	intakeForm(t, module, "rf-1", "100000001", 1)

	_, err := module.Handler.SubmitFirstEntryHandler(context.Background(), entryClerk1, testTally, "rf-1", httptransport.EntryRequest{
		Votes: map[string]int{"cand-c": 3},
	})
	var incomplete domainerrors.IncompleteEntryError
	if !errors.As(err, &incomplete) {
		t.Fatalf("expected incomplete entry, got %v", err)
	}
	if len(incomplete.Missing) == 0 {
		t.Fatalf("expected missing reconciliation fields to be listed")
	}
	if state := formState(t, module, "rf-1"); state != string(entities.FormStateDataEntry1) {
		t.Fatalf("expected failed entry to leave DATA_ENTRY_1, got %s", state)
	}
}
