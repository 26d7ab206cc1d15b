package resultformservice_test

import (
	"context"
	"errors"
	"testing"
	"time"

	resultformservice "tally/contexts/results-processing/result-form-service"
	"tally/contexts/results-processing/result-form-service/adapters/memory"
	"tally/contexts/results-processing/result-form-service/adapters/policy"
	application "tally/contexts/results-processing/result-form-service/application"
	"tally/contexts/results-processing/result-form-service/domain/entities"
	domainerrors "tally/contexts/results-processing/result-form-service/domain/errors"
	"tally/contexts/results-processing/result-form-service/domain/quarantine"
	"tally/contexts/results-processing/result-form-service/ports"
	httptransport "tally/contexts/results-processing/result-form-service/transport/http"
)

// contendedStore reports a concurrent modification for the first failures
// form transactions, then behaves like the memory store.
type contendedStore struct {
	*memory.Store
	failures int
	attempts int
}

func (s *contendedStore) WithinFormTx(
	ctx context.Context,
	tallyID string,
	resultFormID string,
	fn func(ctx context.Context, store ports.WorkflowStore) error,
) error {
	s.attempts++
	if s.attempts <= s.failures {
		return domainerrors.ErrConflict
	}
	return s.Store.WithinFormTx(ctx, tallyID, resultFormID, fn)
}

type retryCounter struct {
	retries int
}

func (c *retryCounter) TransitionRecorded(context.Context, entities.FormState, entities.FormState) {}
func (c *retryCounter) QuarantineFailed(context.Context, string) {}
func (c *retryCounter) IntegrityViolation(context.Context, string) {}
func (c *retryCounter) ConflictRetried(context.Context, string) { c.retries++ }
func (c *retryCounter) ProjectionRefreshed(context.Context, string, time.Duration) {}

func newContendedModule(t *testing.T, failures int) (resultformservice.Module, *contendedStore, *retryCounter) {
	t.Helper()
	authorizer, err := policy.NewAuthorizer(nil)
	if err != nil {
		t.Fatalf("authorizer: %v", err)
	}
	store := &contendedStore{Store: memory.NewStore(testSeed()), failures: failures}
	metrics := &retryCounter{}
	module := resultformservice.NewModule(resultformservice.Dependencies{
		UnitOfWork: store,
		Forms:      store,
		Entries:    store,
		Disputes:   store,
		Reviews:    store,
		Reference:  store,
		Checks:     store,
		History:    store,
		Authorizer: authorizer,
		Metrics:    metrics,
		Clock:      store,
		IDGen:      store,
		Settings:   application.DefaultSettings(),
		Registry:   quarantine.DefaultRegistry(),
	})
	module.Store = store.Store
	return module, store, metrics
}

func TestConflictRetriesAreCapped(t *testing.T) {
	module, store, metrics := newContendedModule(t, 100)

	_, err := module.Handler.ConfirmIntakeHandler(context.Background(), intakeClerk, testTally, "rf-1")
	if !errors.Is(err, domainerrors.ErrConflict) {
		t.Fatalf("expected conflict once retries run out, got %v", err)
	}
	if store.attempts != 4 {
		t.Fatalf("expected one attempt plus three retries, got %d attempts", store.attempts)
	}
	if metrics.retries != 3 {
		t.Fatalf("expected three recorded retries, got %d", metrics.retries)
	}
}

func TestConflictRetrySucceedsWithinCap(t *testing.T) {
	module, store, metrics := newContendedModule(t, 2)

	form, err := module.Handler.ReceiveFormHandler(context.Background(), intakeClerk, testTally, httptransport.ReceiveFormRequest{Barcode: "100000001"})
	if err != nil {
		t.Fatalf("receive after conflicts: %v", err)
	}
	if form.FormState != string(entities.FormStateIntake) {
		t.Fatalf("expected INTAKE, got %s", form.FormState)
	}
	if store.attempts != 3 || metrics.retries != 2 {
		t.Fatalf("expected two retries before success, got %d attempts and %d retries", store.attempts, metrics.retries)
	}
}
