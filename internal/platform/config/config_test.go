package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"SERVICE_NAME", "HTTP_PORT", "POSTGRES_DSN", "LOG_LEVEL",
		"WORKER_POLL_INTERVAL", "PROJECTION_REFRESH_INTERVAL",
		"METRICS_ENABLED", "TALLY_IDS", "TALLY_CONFIG_FILE",
	} {
		t.Setenv(name, "")
	}
	t.Setenv("TALLY_ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := Config{
		ServiceName:               "tally",
		HTTPPort:                  "8080",
		LogLevel:                  "info",
		WorkerPollInterval:        2 * time.Second,
		ProjectionRefreshInterval: time.Minute,
		MetricsEnabled:            true,
		Workflow:                  DefaultWorkflow(),
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadReadsEnvFileAndWorkflowFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	workflowPath := filepath.Join(dir, "workflow.yaml")
	workflowYAML := strings.Join([]string{
		"min_station_number: 2",
		"max_station_number: 40",
		"print_cover_in_audit: false",
		"quarantine_checks:",
		"  - name: Overvote",
		"    method: pass_overvote",
		"    tolerance_value: 5",
		"    active: true",
	}, "\n")
	if err := os.WriteFile(workflowPath, []byte(workflowYAML), 0o600); err != nil {
		t.Fatalf("write workflow: %v", err)
	}
	envPath := filepath.Join(dir, "test.env")
	envBody := "HTTP_PORT=9090\nTALLY_IDS=tally-a, tally-b\nWORKER_POLL_INTERVAL=5\nTALLY_CONFIG_FILE=" + workflowPath + "\n"
	if err := os.WriteFile(envPath, []byte(envBody), 0o600); err != nil {
		t.Fatalf("write env: %v", err)
	}
	t.Setenv("TALLY_ENV_FILE", envPath)
	// godotenv does not override variables that are already set.
	for _, name := range []string{"HTTP_PORT", "TALLY_IDS", "WORKER_POLL_INTERVAL", "TALLY_CONFIG_FILE"} {
		os.Unsetenv(name)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTPPort != "9090" {
		t.Fatalf("expected port from env file, got %q", cfg.HTTPPort)
	}
	if diff := cmp.Diff([]string{"tally-a", "tally-b"}, cfg.TallyIDs); diff != "" {
		t.Fatalf("tally ids mismatch (-want +got):\n%s", diff)
	}
	if cfg.WorkerPollInterval != 5*time.Second {
		t.Fatalf("expected 5s poll interval, got %s", cfg.WorkerPollInterval)
	}

	want := DefaultWorkflow()
	want.MinStationNumber = 2
	want.MaxStationNumber = 40
	want.PrintCoverInAudit = false
	want.QuarantineChecks = []CheckConfig{{Name: "Overvote", Method: "pass_overvote", ToleranceValue: 5, Active: true}}
	if diff := cmp.Diff(want, cfg.Workflow); diff != "" {
		t.Fatalf("workflow mismatch (-want +got):\n%s", diff)
	}
}

func TestParseWorkflowRejectsUnknownKeys(t *testing.T) {
	if _, err := ParseWorkflow([]byte("max_station: 3\n")); err == nil {
		t.Fatalf("expected unknown key to fail")
	}
}

func TestWorkflowValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Workflow)
		want   string
	}{
		{"min above max", func(w *Workflow) { w.MinStationNumber = 50; w.MaxStationNumber = 10 }, "exceeds max_station_number"},
		{"negative upload", func(w *Workflow) { w.MaxFileUploadSize = -1 }, "max_file_upload_size"},
		{"duplicate name", func(w *Workflow) {
			w.QuarantineChecks = []CheckConfig{
				{Name: "A", Method: "pass_overvote"},
				{Name: "A", Method: "pass_tampering"},
			}
		}, "duplicate quarantine check name"},
		{"duplicate method", func(w *Workflow) {
			w.QuarantineChecks = []CheckConfig{
				{Name: "A", Method: "pass_overvote"},
				{Name: "B", Method: "pass_overvote"},
			}
		}, "duplicate quarantine check method"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			workflow := DefaultWorkflow()
			tc.mutate(&workflow)
			err := workflow.Validate()
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error containing %q, got %v", tc.want, err)
			}
		})
	}
	if err := DefaultWorkflow().Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
}

func TestLoadRejectsBadLogLevel(t *testing.T) {
	clearEnv(t)
	t.Setenv("LOG_LEVEL", "chatty")
	if _, err := Load(); err == nil {
		t.Fatalf("expected invalid log level to fail")
	}
}
