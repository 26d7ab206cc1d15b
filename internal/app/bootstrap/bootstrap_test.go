package bootstrap

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"tally/contexts/results-processing/result-form-service/adapters/memory"
	"tally/contexts/results-processing/result-form-service/application/workers"
	"tally/contexts/results-processing/result-form-service/domain/entities"
	"tally/internal/platform/config"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestSettingsFollowWorkflow(t *testing.T) {
	workflow := config.DefaultWorkflow()
	workflow.MaxStationNumber = 40
	workflow.PrintCoverInAudit = false

	got := Settings(workflow)
	if got.MaxStationNumber != 40 || got.PrintCoverInAudit {
		t.Fatalf("unexpected settings %+v", got)
	}
	if got.MinStationNumber != 1 || got.MaxFileUploadSize != 10<<20 {
		t.Fatalf("expected defaults to carry over, got %+v", got)
	}
}

func TestQuarantineChecksFallBackToDefaults(t *testing.T) {
	checks := QuarantineChecks(config.DefaultWorkflow())
	if len(checks) != 8 {
		t.Fatalf("expected eight default checks, got %d", len(checks))
	}

	workflow := config.DefaultWorkflow()
	workflow.QuarantineChecks = []config.CheckConfig{
		{Name: " Overvote ", Method: "pass_overvote", ToleranceValue: 5, Active: true},
	}
	want := []entities.QuarantineCheck{
		{Name: "Overvote", Method: "pass_overvote", Value: 5, Active: true},
	}
	if diff := cmp.Diff(want, QuarantineChecks(workflow)); diff != "" {
		t.Fatalf("checks mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildModuleRejectsUnknownCheckMethod(t *testing.T) {
	cfg := config.Config{ServiceName: "tally", Workflow: config.DefaultWorkflow()}
	cfg.Workflow.QuarantineChecks = []config.CheckConfig{{Name: "Bogus", Method: "pass_nothing", Active: true}}

	_, err := BuildModule(context.Background(), cfg, memory.NewStore(entities.ReferenceBatch{}), nil, nil, nil)
	if err == nil {
		t.Fatalf("expected unknown method to fail")
	}
}

func TestBuildModuleSeedsChecksOnce(t *testing.T) {
	cfg := config.Config{ServiceName: "tally", Workflow: config.DefaultWorkflow()}
	store := memory.NewStore(entities.ReferenceBatch{})

	if _, err := BuildModule(context.Background(), cfg, store, nil, nil, nil); err != nil {
		t.Fatalf("first build: %v", err)
	}
	if _, err := BuildModule(context.Background(), cfg, store, nil, nil, nil); err != nil {
		t.Fatalf("second build: %v", err)
	}
	checks, err := store.ListQuarantineChecks(context.Background())
	if err != nil {
		t.Fatalf("list checks: %v", err)
	}
	if len(checks) != 8 {
		t.Fatalf("expected eight stored checks, got %d", len(checks))
	}
}

func TestRunEveryStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- runEvery(ctx, time.Millisecond, func(context.Context) error {
			if calls.Add(1) == 3 {
				cancel()
			}
			return nil
		})
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("expected clean stop, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("runEvery did not stop")
	}
	if calls.Load() < 3 {
		t.Fatalf("expected at least three calls, got %d", calls.Load())
	}
}

func TestRunEveryReturnsFailure(t *testing.T) {
	boom := errors.New("relay down")
	err := runEvery(context.Background(), time.Hour, func(context.Context) error { return boom })
	if !errors.Is(err, boom) {
		t.Fatalf("expected relay error, got %v", err)
	}
}

func TestNormalizeAddr(t *testing.T) {
	for input, want := range map[string]string{"": ":8080", "9090": ":9090", ":7070": ":7070"} {
		if got := normalizeAddr(input); got != want {
			t.Fatalf("normalizeAddr(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestWorkerScheduleReportsTalliesAndIntervals(t *testing.T) {
	app := &WorkerApp{
		refresher:       workers.ProjectionRefresher{TallyIDs: []string{"tally-1", "tally-2"}},
		pollInterval:    2 * time.Second,
		refreshInterval: time.Minute,
	}
	want := WorkerSchedule{
		TallyIDs:        []string{"tally-1", "tally-2"},
		PollInterval:    2 * time.Second,
		RefreshInterval: time.Minute,
	}
	got := app.Schedule()
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("schedule mismatch (-want +got):\n%s", diff)
	}
	got.TallyIDs[0] = "changed"
	if app.refresher.TallyIDs[0] != "tally-1" {
		t.Fatalf("expected schedule to copy the tally ids")
	}
}
