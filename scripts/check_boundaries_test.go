package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func writeSource(t *testing.T, root string, rel string, imports ...string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	src := "package x\n\nimport (\n"
	for _, imp := range imports {
		src += "\t_ \"" + imp + "\"\n"
	}
	src += ")\n"
	if err := os.WriteFile(path, []byte(src), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestCollectViolations(t *testing.T) {
	root := t.TempDir()
	svc := "tally/contexts/results/forms"

	writeSource(t, root, "results/forms/domain/entities/form.go", "time")
	writeSource(t, root, "results/forms/domain/workflow/engine.go", svc+"/domain/entities")
	writeSource(t, root, "results/forms/domain/entities/bad.go", svc+"/domain/errors")
	writeSource(t, root, "results/forms/domain/tallying/bad.go", "github.com/google/uuid", svc+"/ports")
	writeSource(t, root, "results/forms/application/commands/ok.go", svc+"/ports", "tally/contracts/gen/events/v1")
	writeSource(t, root, "results/forms/application/commands/bad.go", svc+"/adapters/memory", "tally/internal/platform/db")
	writeSource(t, root, "results/forms/adapters/memory/store.go", "gorm.io/gorm", "tally/internal/platform/db")
	writeSource(t, root, "results/forms/ports/ports.go", "tally/contexts/other/svc/ports")

	base := filepath.ToSlash(root)
	want := []violation{
		{File: base + "/results/forms/application/commands/bad.go", Line: 4, Import: svc + "/adapters/memory", Rule: "application import is outside explicit allowlist"},
		{File: base + "/results/forms/application/commands/bad.go", Line: 5, Import: "tally/internal/platform/db", Rule: "application import is outside explicit allowlist"},
		{File: base + "/results/forms/domain/entities/bad.go", Line: 4, Import: svc + "/domain/errors", Rule: "domain/entities must not import other domain packages"},
		{File: base + "/results/forms/domain/tallying/bad.go", Line: 4, Import: "github.com/google/uuid", Rule: "domain must not import third-party modules"},
		{File: base + "/results/forms/domain/tallying/bad.go", Line: 5, Import: svc + "/ports", Rule: "domain import is outside explicit allowlist"},
		{File: base + "/results/forms/ports/ports.go", Line: 4, Import: "tally/contexts/other/svc/ports", Rule: "cross-service imports are forbidden"},
	}

	got := collectViolations(root)
	sortViolations(got)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("violations mismatch (-want +got):\n%s", diff)
	}
}
