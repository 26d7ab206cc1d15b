package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestConfigCommandPrintsEffectiveWorkflow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "workflow.yaml")
	if err := os.WriteFile(path, []byte("max_station_number: 12\n"), 0o600); err != nil {
		t.Fatalf("write workflow: %v", err)
	}

	var out bytes.Buffer
	root := newRootCommand()
	root.SetOut(&out)
	root.SetArgs([]string{"config", path})
	if err := root.Execute(); err != nil {
		t.Fatalf("config command: %v", err)
	}
	if !strings.Contains(out.String(), "max_station_number: 12") {
		t.Fatalf("expected overridden station limit, got:\n%s", out.String())
	}
}

func TestConfigCommandRejectsInvalidWorkflow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "workflow.yaml")
	if err := os.WriteFile(path, []byte("min_station_number: 0\n"), 0o600); err != nil {
		t.Fatalf("write workflow: %v", err)
	}

	root := newRootCommand()
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"config", path})
	err := root.Execute()
	if err == nil || !strings.Contains(err.Error(), "min_station_number") {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestReportRequiresTally(t *testing.T) {
	t.Setenv("POSTGRES_DSN", "")
	root := newRootCommand()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"report", "export"})
	err := root.Execute()
	if err == nil || !strings.Contains(err.Error(), "tally") {
		t.Fatalf("expected missing --tally error, got %v", err)
	}
}
