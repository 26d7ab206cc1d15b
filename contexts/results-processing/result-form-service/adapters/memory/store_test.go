package memory

import (
	"context"
	"errors"
	"testing"

	"tally/contexts/results-processing/result-form-service/domain/entities"
	domainerrors "tally/contexts/results-processing/result-form-service/domain/errors"
	"tally/contexts/results-processing/result-form-service/ports"
)

func seededStore() *Store {
	return NewStore(entities.ReferenceBatch{
		TallyID: "tally-1",
		Centers: []entities.Center{{CenterID: "center-1", TallyID: "tally-1", Code: 12345, Name: "Central", Active: true}},
		ResultForms: []entities.ResultForm{
			{ResultFormID: "rf-1", TallyID: "tally-1", Barcode: "100000001", BallotID: "ballot-1",
				CenterID: "center-1", StationNumber: 1, FormState: entities.FormStateDataEntry1},
			{ResultFormID: "rf-2", TallyID: "tally-1", Barcode: "100000002", BallotID: "ballot-1",
				FormState: entities.FormStateUnsubmitted},
		},
	})
}

func TestWithinTxRollsBackOnError(t *testing.T) {
	store := seededStore()
	ctx := context.Background()
	boom := errors.New("abort")

	err := store.WithinTx(ctx, func(ctx context.Context, tx ports.WorkflowStore) error {
		form, err := tx.GetResultForm(ctx, "tally-1", "rf-2")
		if err != nil {
			return err
		}
		form.FormState = entities.FormStateIntake
		if err := tx.UpdateResultForm(ctx, form); err != nil {
			return err
		}
		if err := tx.AppendComment(ctx, entities.Comment{CommentID: "c-1", TallyID: "tally-1",
			EntityKind: entities.EntityKindResultForm, EntityID: "rf-2", Text: "seen"}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected abort, got %v", err)
	}

	form, err := store.GetResultForm(ctx, "tally-1", "rf-2")
	if err != nil {
		t.Fatalf("get form: %v", err)
	}
	if form.FormState != entities.FormStateUnsubmitted {
		t.Fatalf("expected rollback to UNSUBMITTED, got %s", form.FormState)
	}
	comments, err := store.ListComments(ctx, "tally-1", entities.EntityKindResultForm, "rf-2")
	if err != nil {
		t.Fatalf("list comments: %v", err)
	}
	if len(comments) != 0 {
		t.Fatalf("expected no comments after rollback, got %d", len(comments))
	}
}

func TestWithinTxCommits(t *testing.T) {
	store := seededStore()
	ctx := context.Background()

	err := store.WithinTx(ctx, func(ctx context.Context, tx ports.WorkflowStore) error {
		form, err := tx.GetResultForm(ctx, "tally-1", "rf-2")
		if err != nil {
			return err
		}
		form.FormState = entities.FormStateIntake
		return tx.UpdateResultForm(ctx, form)
	})
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	form, _ := store.GetResultFormByBarcode(ctx, "tally-1", "100000002")
	if form.FormState != entities.FormStateIntake {
		t.Fatalf("expected INTAKE, got %s", form.FormState)
	}
}

func TestWithinTxHonoursCancelledContext(t *testing.T) {
	store := seededStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := store.WithinTx(ctx, func(context.Context, ports.WorkflowStore) error {
		called = true
		return nil
	})
	if !errors.Is(err, context.Canceled) || called {
		t.Fatalf("expected cancelled tx to skip fn, got err=%v called=%v", err, called)
	}
}

func TestReturnedFormsAreCopies(t *testing.T) {
	store := seededStore()
	ctx := context.Background()

	form, _ := store.GetResultForm(ctx, "tally-1", "rf-1")
	form.FormState = entities.FormStateArchived

	again, _ := store.GetResultForm(ctx, "tally-1", "rf-1")
	if again.FormState != entities.FormStateDataEntry1 {
		t.Fatalf("mutating a returned form leaked into the store")
	}
}

func TestFindOccupyingForm(t *testing.T) {
	store := seededStore()
	ctx := context.Background()

	form, found, err := store.FindOccupyingForm(ctx, "tally-1", "center-1", 1, "ballot-1", "rf-2")
	if err != nil || !found || form.ResultFormID != "rf-1" {
		t.Fatalf("expected rf-1 to occupy the slot, got %+v found=%v err=%v", form, found, err)
	}
	if _, found, _ := store.FindOccupyingForm(ctx, "tally-1", "center-1", 1, "ballot-1", "rf-1"); found {
		t.Fatalf("excluded form must not count as occupying")
	}
	if _, found, _ := store.FindOccupyingForm(ctx, "tally-1", "center-1", 2, "ballot-1", ""); found {
		t.Fatalf("other station must be free")
	}
}

func TestMarkUnknownOutboxRow(t *testing.T) {
	store := seededStore()
	err := store.MarkOutboxPublished(context.Background(), "missing", store.Now())
	if !errors.Is(err, domainerrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
