package postgresadapter

import (
	"testing"
	"time"

	"tally/contexts/results-processing/result-form-service/domain/entities"

	"github.com/google/go-cmp/cmp"
)

func TestResultFormModelKeepsJSONColumns(t *testing.T) {
	stamped := true
	seen := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	form := entities.ResultForm{
		ResultFormID:     "rf-1",
		TallyID:          "tally-1",
		Barcode:          "00001",
		CenterID:         "c-1",
		StationNumber:    2,
		BallotID:         "b-1",
		FormState:        entities.FormStateCorrection,
		FormStamped:      &stamped,
		ReopenedSections: []entities.Section{entities.SectionGeneral, entities.SectionWomen},
		DateSeen:         &seen,
		CreatedAt:        seen,
		UpdatedAt:        seen,
	}

	got := resultFormModelFromEntity(form).toEntity()
	if diff := cmp.Diff(form, got); diff != "" {
		t.Fatalf("form mismatch (-want +got):\n%s", diff)
	}
}

func TestReconciliationModelDecodesValues(t *testing.T) {
	recon := entities.ReconciliationForm{
		ReconciliationFormID: "r-1",
		ResultFormID:         "rf-1",
		EntryVersion:         entities.EntryVersionFinal,
		Active:               true,
		Values: entities.ReconValues{
			entities.ReconNumberValidVotes:   100,
			entities.ReconNumberInvalidVotes: 3,
		},
		CreatedAt: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	}

	got := reconciliationModelFromEntity(recon).toEntity()
	if diff := cmp.Diff(recon, got); diff != "" {
		t.Fatalf("reconciliation mismatch (-want +got):\n%s", diff)
	}
}

func TestAuditModelKeepsChecksAndAttachment(t *testing.T) {
	audit := entities.Audit{
		AuditID:            "a-1",
		ResultFormID:       "rf-1",
		TallyID:            "tally-1",
		Active:             true,
		QuarantineCheckIDs: []string{"check-overvote"},
		Problems:           entities.AuditProblems{UnclearFigures: true},
		Attachment:         &entities.Attachment{Name: "scan.pdf", SizeBytes: 2048},
	}

	got := auditModelFromEntity(audit).toEntity()
	if diff := cmp.Diff(audit, got); diff != "" {
		t.Fatalf("audit mismatch (-want +got):\n%s", diff)
	}
}

func TestEncodeJSONDropsNil(t *testing.T) {
	if raw := encodeJSON([]entities.Section(nil)); raw != nil {
		t.Fatalf("expected nil column for nil slice, got %s", raw)
	}
	if attachment := decodeAttachment(nil); attachment != nil {
		t.Fatalf("expected nil attachment, got %+v", attachment)
	}
}

func TestAllModelsCoverEveryTable(t *testing.T) {
	seen := map[string]bool{}
	for _, model := range allModels() {
		tabler, ok := model.(interface{ TableName() string })
		if !ok {
			t.Fatalf("model %T has no table name", model)
		}
		if seen[tabler.TableName()] {
			t.Fatalf("table %s registered twice", tabler.TableName())
		}
		seen[tabler.TableName()] = true
	}
	for _, table := range []string{"result_forms", "results", "reconciliation_forms", "tally_outbox", "station_progress"} {
		if !seen[table] {
			t.Fatalf("missing table %s", table)
		}
	}
}
