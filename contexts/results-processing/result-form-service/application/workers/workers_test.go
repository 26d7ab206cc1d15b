package workers_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"tally/contexts/results-processing/result-form-service/adapters/memory"
	"tally/contexts/results-processing/result-form-service/application/queries"
	"tally/contexts/results-processing/result-form-service/application/workers"
	"tally/contexts/results-processing/result-form-service/domain/entities"
	"tally/contexts/results-processing/result-form-service/ports"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"
	"golang.org/x/sync/singleflight"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type capturePublisher struct {
	mu     sync.Mutex
	topics []string
	fail   error
}

func (p *capturePublisher) Publish(_ context.Context, topic string, _ ports.EventEnvelope) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail != nil {
		return p.fail
	}
	p.topics = append(p.topics, topic)
	return nil
}

type fixedClock struct{ at time.Time }

func (c fixedClock) Now() time.Time { return c.at }

func appendEvent(t *testing.T, store *memory.Store, id string, eventType string) {
	t.Helper()
	data, _ := json.Marshal(map[string]string{"result_form_id": "rf-1"})
	err := store.AppendOutbox(context.Background(), ports.EventEnvelope{
		EventID:       id,
		EventType:     eventType,
		OccurredAt:    time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		SourceService: "result-form-service",
		TallyID:       "tally-1",
		SchemaVersion: 1,
		PartitionKey:  "rf-1",
		Data:          data,
	})
	if err != nil {
		t.Fatalf("append outbox: %v", err)
	}
}

func TestOutboxRelayPublishesInOrderAndMarks(t *testing.T) {
	store := memory.NewStore(entities.ReferenceBatch{})
	appendEvent(t, store, "evt-1", ports.EventResultFormStateChanged)
	appendEvent(t, store, "evt-2", ports.EventResultFormQuarantined)
	appendEvent(t, store, "evt-3", ports.EventResultFormStateChanged)

	publisher := &capturePublisher{}
	relay := workers.OutboxRelay{
		Outbox:    store,
		Publisher: publisher,
		Clock:     fixedClock{at: time.Date(2026, 1, 2, 4, 0, 0, 0, time.UTC)},
		BatchSize: 2,
	}

	if err := relay.RunOnce(context.Background()); err != nil {
		t.Fatalf("first cycle: %v", err)
	}
	if err := relay.RunOnce(context.Background()); err != nil {
		t.Fatalf("second cycle: %v", err)
	}
	want := []string{
		ports.EventResultFormStateChanged,
		ports.EventResultFormQuarantined,
		ports.EventResultFormStateChanged,
	}
	if diff := cmp.Diff(want, publisher.topics); diff != "" {
		t.Fatalf("topics mismatch (-want +got):\n%s", diff)
	}

	pending, err := store.ListPendingOutbox(context.Background(), 10)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected empty outbox, got %d rows", len(pending))
	}
}

func TestOutboxRelayKeepsRowsWhenPublishFails(t *testing.T) {
	store := memory.NewStore(entities.ReferenceBatch{})
	appendEvent(t, store, "evt-1", ports.EventResultFormStateChanged)

	boom := errors.New("broker unavailable")
	relay := workers.OutboxRelay{Outbox: store, Publisher: &capturePublisher{fail: boom}}
	if err := relay.RunOnce(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected publish error, got %v", err)
	}

	pending, err := store.ListPendingOutbox(context.Background(), 10)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 1 || pending[0].OutboxID != "evt-1" {
		t.Fatalf("expected evt-1 to stay pending, got %+v", pending)
	}
}

func TestOutboxRelayWithoutPublisherIsNoop(t *testing.T) {
	store := memory.NewStore(entities.ReferenceBatch{})
	appendEvent(t, store, "evt-1", ports.EventResultFormStateChanged)

	if err := (workers.OutboxRelay{Outbox: store}).RunOnce(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	pending, _ := store.ListPendingOutbox(context.Background(), 10)
	if len(pending) != 1 {
		t.Fatalf("expected row to stay pending, got %d", len(pending))
	}
}

func TestProjectionRefresherStoresAndAnnounces(t *testing.T) {
	store := memory.NewStore(entities.ReferenceBatch{
		TallyID: "tally-1",
		Ballots: []entities.Ballot{{BallotID: "ballot-1", TallyID: "tally-1", Number: 1, Active: true}},
		Candidates: []entities.Candidate{
			{CandidateID: "cand-a", TallyID: "tally-1", BallotID: "ballot-1", Order: 1, FullName: "A",
				RaceType: entities.RaceTypeGeneral, Active: true},
		},
	})
	refresher := workers.ProjectionRefresher{
		Reports:     queries.ReportQueries{Reports: store, Projections: store},
		Projections: store,
		Flights:     &singleflight.Group{},
		Outbox:      store,
		IDGen:       store,
		Clock:       fixedClock{at: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)},
		TallyIDs:    []string{"tally-1"},
	}

	var wg sync.WaitGroup
	errs := make(chan error, 4)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := refresher.Refresh(context.Background(), " tally-1 ")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("refresh: %v", err)
		}
	}

	projection, err := store.GetCandidateProjection(context.Background(), "tally-1")
	if err != nil {
		t.Fatalf("get projection: %v", err)
	}
	if len(projection.Totals) != 1 || projection.Totals[0].Votes != 0 {
		t.Fatalf("expected one zero-vote candidate, got %+v", projection.Totals)
	}
	if !projection.RefreshedAt.Equal(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected refresh time %s", projection.RefreshedAt)
	}

	pending, err := store.ListPendingOutbox(context.Background(), 10)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) == 0 {
		t.Fatalf("expected a projection event")
	}
	for _, row := range pending {
		if row.EventType != ports.EventAggregateProjectionBuilt {
			t.Fatalf("unexpected event %s", row.EventType)
		}
	}
}

func TestProjectionRefresherRequiresTally(t *testing.T) {
	store := memory.NewStore(entities.ReferenceBatch{})
	refresher := workers.ProjectionRefresher{
		Reports:     queries.ReportQueries{Reports: store, Projections: store},
		Projections: store,
		TallyIDs:    []string{"  "},
	}
	if err := refresher.RunOnce(context.Background()); err == nil {
		t.Fatalf("expected blank tally id to fail")
	}
}
