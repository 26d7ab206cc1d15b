package telemetry_test

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"tally/contexts/results-processing/result-form-service/adapters/telemetry"
	"tally/contexts/results-processing/result-form-service/domain/entities"
	"tally/internal/platform/monitoring"
)

func TestMetricsAreExported(t *testing.T) {
	monitor, err := monitoring.New("tally-test", nil)
	if err != nil {
		t.Fatalf("monitor: %v", err)
	}
	defer monitor.Shutdown(context.Background())

	metrics, err := telemetry.NewMetrics(monitor.Meter())
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	ctx := context.Background()
	metrics.TransitionRecorded(ctx, entities.FormStateIntake, entities.FormStateDataEntry1)
	metrics.TransitionRecorded(ctx, entities.FormStateIntake, entities.FormStateDataEntry1)
	metrics.QuarantineFailed(ctx, "pass_overvote")
	metrics.ConflictRetried(ctx, "submit_first_entry")
	metrics.ProjectionRefreshed(ctx, "tally-1", 250*time.Millisecond)

	rec := httptest.NewRecorder()
	monitor.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	raw, _ := io.ReadAll(rec.Body)
	body := string(raw)

	for _, want := range []string{
		"tally_result_form_transitions_total",
		`from_state="intake"`,
		`to_state="data_entry_1"`,
		"tally_quarantine_failures_total",
		`method="pass_overvote"`,
		"tally_conflict_retries_total",
		"tally_projection_refresh_seconds",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in exposition:\n%s", want, body)
		}
	}
}
