package memory

import (
	"context"
	"sync"
	"time"

	"tally/contexts/results-processing/result-form-service/domain/entities"
	"tally/contexts/results-processing/result-form-service/ports"

	"github.com/google/uuid"
)

// Store is the in-process store used by tests and the local profile.
// Transactions are serialised on txMu and run against a private copy of
// the tables, which replaces the live copy only when fn succeeds.
type Store struct {
	mu   sync.RWMutex
	txMu sync.Mutex
	data *state
}

// txStore is the view handed to fn inside a transaction.
type txStore struct {
	*state
}

var (
	_ ports.UnitOfWork           = (*Store)(nil)
	_ ports.WorkflowStore        = (*Store)(nil)
	_ ports.WorkflowStore        = txStore{}
	_ ports.ReportReader         = (*Store)(nil)
	_ ports.ProjectionStore      = (*Store)(nil)
	_ ports.StationProgressStore = (*Store)(nil)
	_ ports.OutboxRepository     = (*Store)(nil)
	_ ports.Clock                = (*Store)(nil)
	_ ports.IDGenerator          = (*Store)(nil)
)

// NewStore returns a store holding seed. Seed rows are taken as they are;
// the import use case is the validating path.
func NewStore(seed entities.ReferenceBatch) *Store {
	data := newState()
	if seed.TallyID != "" {
		_ = data.ImportReferenceBatch(context.Background(), seed)
	}
	return &Store{data: data}
}

func (s *Store) WithinFormTx(
	ctx context.Context,
	_ string,
	_ string,
	fn func(ctx context.Context, store ports.WorkflowStore) error,
) error {
	return s.WithinTx(ctx, fn)
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, store ports.WorkflowStore) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	working := s.data.clone()
	s.mu.RUnlock()

	if err := fn(ctx, txStore{state: working}); err != nil {
		return err
	}

	s.mu.Lock()
	s.data = working
	s.mu.Unlock()
	return nil
}

func (s *Store) read(fn func(st *state)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s.data)
}

func (s *Store) write(fn func(st *state)) {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.data)
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

func (s *Store) GetResultForm(ctx context.Context, tallyID string, resultFormID string) (form entities.ResultForm, err error) {
	s.read(func(st *state) { form, err = st.GetResultForm(ctx, tallyID, resultFormID) })
	return form, err
}

func (s *Store) GetResultFormByBarcode(ctx context.Context, tallyID string, barcode string) (form entities.ResultForm, err error) {
	s.read(func(st *state) { form, err = st.GetResultFormByBarcode(ctx, tallyID, barcode) })
	return form, err
}

func (s *Store) ListResultForms(ctx context.Context, filter ports.ResultFormFilter) (items []entities.ResultForm, err error) {
	s.read(func(st *state) { items, err = st.ListResultForms(ctx, filter) })
	return items, err
}

func (s *Store) UpdateResultForm(ctx context.Context, form entities.ResultForm) (err error) {
	s.write(func(st *state) { err = st.UpdateResultForm(ctx, form) })
	return err
}

func (s *Store) DeleteResultForm(ctx context.Context, tallyID string, resultFormID string) (err error) {
	s.write(func(st *state) { err = st.DeleteResultForm(ctx, tallyID, resultFormID) })
	return err
}

func (s *Store) FindOccupyingForm(
	ctx context.Context,
	tallyID string,
	centerID string,
	stationNumber int,
	ballotID string,
	excludeFormID string,
) (form entities.ResultForm, found bool, err error) {
	s.read(func(st *state) {
		form, found, err = st.FindOccupyingForm(ctx, tallyID, centerID, stationNumber, ballotID, excludeFormID)
	})
	return form, found, err
}

func (s *Store) ListResults(ctx context.Context, resultFormID string, version entities.EntryVersion) (items []entities.Result, err error) {
	s.read(func(st *state) { items, err = st.ListResults(ctx, resultFormID, version) })
	return items, err
}

func (s *Store) GetReconciliation(ctx context.Context, resultFormID string, version entities.EntryVersion) (recon entities.ReconciliationForm, found bool, err error) {
	s.read(func(st *state) { recon, found, err = st.GetReconciliation(ctx, resultFormID, version) })
	return recon, found, err
}

func (s *Store) InsertEntry(ctx context.Context, results []entities.Result, recon *entities.ReconciliationForm) (err error) {
	s.write(func(st *state) { err = st.InsertEntry(ctx, results, recon) })
	return err
}

func (s *Store) DeactivateEntries(ctx context.Context, resultFormID string, filter entities.EntryFilter) (count int, err error) {
	s.write(func(st *state) { count, err = st.DeactivateEntries(ctx, resultFormID, filter) })
	return count, err
}

func (s *Store) CountActiveEntries(ctx context.Context, resultFormID string) (results int, recons int, err error) {
	s.read(func(st *state) { results, recons, err = st.CountActiveEntries(ctx, resultFormID) })
	return results, recons, err
}

func (s *Store) GetActiveClearance(ctx context.Context, resultFormID string) (clearance entities.Clearance, err error) {
	s.read(func(st *state) { clearance, err = st.GetActiveClearance(ctx, resultFormID) })
	return clearance, err
}

func (s *Store) SaveClearance(ctx context.Context, clearance entities.Clearance) (err error) {
	s.write(func(st *state) { err = st.SaveClearance(ctx, clearance) })
	return err
}

func (s *Store) GetActiveAudit(ctx context.Context, resultFormID string) (audit entities.Audit, err error) {
	s.read(func(st *state) { audit, err = st.GetActiveAudit(ctx, resultFormID) })
	return audit, err
}

func (s *Store) SaveAudit(ctx context.Context, audit entities.Audit) (err error) {
	s.write(func(st *state) { err = st.SaveAudit(ctx, audit) })
	return err
}

func (s *Store) GetActiveQualityControl(ctx context.Context, resultFormID string) (record entities.QualityControl, err error) {
	s.read(func(st *state) { record, err = st.GetActiveQualityControl(ctx, resultFormID) })
	return record, err
}

func (s *Store) SaveQualityControl(ctx context.Context, record entities.QualityControl) (err error) {
	s.write(func(st *state) { err = st.SaveQualityControl(ctx, record) })
	return err
}

func (s *Store) GetCenter(ctx context.Context, tallyID string, centerID string) (center entities.Center, err error) {
	s.read(func(st *state) { center, err = st.GetCenter(ctx, tallyID, centerID) })
	return center, err
}

func (s *Store) GetCenterByCode(ctx context.Context, tallyID string, code int) (center entities.Center, err error) {
	s.read(func(st *state) { center, err = st.GetCenterByCode(ctx, tallyID, code) })
	return center, err
}

func (s *Store) ListStations(ctx context.Context, tallyID string, centerID string) (items []entities.Station, err error) {
	s.read(func(st *state) { items, err = st.ListStations(ctx, tallyID, centerID) })
	return items, err
}

func (s *Store) GetStation(ctx context.Context, tallyID string, centerID string, stationNumber int) (station entities.Station, err error) {
	s.read(func(st *state) { station, err = st.GetStation(ctx, tallyID, centerID, stationNumber) })
	return station, err
}

func (s *Store) GetBallot(ctx context.Context, tallyID string, ballotID string) (ballot entities.Ballot, err error) {
	s.read(func(st *state) { ballot, err = st.GetBallot(ctx, tallyID, ballotID) })
	return ballot, err
}

func (s *Store) GetBallotByNumber(ctx context.Context, tallyID string, number int) (ballot entities.Ballot, err error) {
	s.read(func(st *state) { ballot, err = st.GetBallotByNumber(ctx, tallyID, number) })
	return ballot, err
}

func (s *Store) ListCandidates(ctx context.Context, tallyID string, ballotID string) (items []entities.Candidate, err error) {
	s.read(func(st *state) { items, err = st.ListCandidates(ctx, tallyID, ballotID) })
	return items, err
}

func (s *Store) SaveCenter(ctx context.Context, center entities.Center) (err error) {
	s.write(func(st *state) { err = st.SaveCenter(ctx, center) })
	return err
}

func (s *Store) SaveStation(ctx context.Context, station entities.Station) (err error) {
	s.write(func(st *state) { err = st.SaveStation(ctx, station) })
	return err
}

func (s *Store) SaveBallot(ctx context.Context, ballot entities.Ballot) (err error) {
	s.write(func(st *state) { err = st.SaveBallot(ctx, ballot) })
	return err
}

func (s *Store) AppendComment(ctx context.Context, comment entities.Comment) (err error) {
	s.write(func(st *state) { err = st.AppendComment(ctx, comment) })
	return err
}

func (s *Store) ListComments(ctx context.Context, tallyID string, kind entities.EntityKind, entityID string) (items []entities.Comment, err error) {
	s.read(func(st *state) { items, err = st.ListComments(ctx, tallyID, kind, entityID) })
	return items, err
}

// ImportReferenceBatch runs on a private copy so a clash leaves the store
// untouched.
func (s *Store) ImportReferenceBatch(ctx context.Context, batch entities.ReferenceBatch) error {
	return s.WithinTx(ctx, func(ctx context.Context, store ports.WorkflowStore) error {
		return store.ImportReferenceBatch(ctx, batch)
	})
}

func (s *Store) ListQuarantineChecks(ctx context.Context) (items []entities.QuarantineCheck, err error) {
	s.read(func(st *state) { items, err = st.ListQuarantineChecks(ctx) })
	return items, err
}

func (s *Store) GetQuarantineCheck(ctx context.Context, checkID string) (check entities.QuarantineCheck, err error) {
	s.read(func(st *state) { check, err = st.GetQuarantineCheck(ctx, checkID) })
	return check, err
}

func (s *Store) SaveQuarantineCheck(ctx context.Context, check entities.QuarantineCheck) (err error) {
	s.write(func(st *state) { err = st.SaveQuarantineCheck(ctx, check) })
	return err
}

func (s *Store) AppendStateChange(ctx context.Context, change entities.StateChange) (err error) {
	s.write(func(st *state) { err = st.AppendStateChange(ctx, change) })
	return err
}

func (s *Store) AppendRevision(ctx context.Context, revision entities.Revision) (err error) {
	s.write(func(st *state) { err = st.AppendRevision(ctx, revision) })
	return err
}

func (s *Store) ListStateChanges(ctx context.Context, tallyID string, resultFormID string) (items []entities.StateChange, err error) {
	s.read(func(st *state) { items, err = st.ListStateChanges(ctx, tallyID, resultFormID) })
	return items, err
}

func (s *Store) ListRevisions(ctx context.Context, tallyID string, kind entities.EntityKind, entityID string) (items []entities.Revision, err error) {
	s.read(func(st *state) { items, err = st.ListRevisions(ctx, tallyID, kind, entityID) })
	return items, err
}

func (s *Store) AppendOutbox(ctx context.Context, envelope ports.EventEnvelope) (err error) {
	s.write(func(st *state) { err = st.AppendOutbox(ctx, envelope) })
	return err
}

func (s *Store) ListPendingOutbox(ctx context.Context, limit int) (items []ports.OutboxMessage, err error) {
	s.read(func(st *state) { items, err = st.ListPendingOutbox(ctx, limit) })
	return items, err
}

func (s *Store) MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) (err error) {
	s.write(func(st *state) { err = st.MarkOutboxPublished(ctx, outboxID, publishedAt) })
	return err
}

func (s *Store) ListFinalSheets(ctx context.Context, filter entities.ReportFilter, states []entities.FormState) (items []entities.FinalSheet, err error) {
	s.read(func(st *state) { items, err = st.ListFinalSheets(ctx, filter, states) })
	return items, err
}

func (s *Store) ListTallyCandidates(ctx context.Context, tallyID string) (items []entities.Candidate, err error) {
	s.read(func(st *state) { items, err = st.ListTallyCandidates(ctx, tallyID) })
	return items, err
}

func (s *Store) CountFormsPerBallot(ctx context.Context, tallyID string) (counts map[string]int, err error) {
	s.read(func(st *state) { counts, err = st.CountFormsPerBallot(ctx, tallyID) })
	return counts, err
}

func (s *Store) AreaNames(ctx context.Context, tallyID string, kind entities.AreaKind) (names map[string]string, err error) {
	s.read(func(st *state) { names, err = st.AreaNames(ctx, tallyID, kind) })
	return names, err
}

func (s *Store) CenterCodes(ctx context.Context, tallyID string) (codes map[string]int, err error) {
	s.read(func(st *state) { codes, err = st.CenterCodes(ctx, tallyID) })
	return codes, err
}

func (s *Store) ListDisabledCenters(ctx context.Context, tallyID string) (items []entities.DisabledCenter, err error) {
	s.read(func(st *state) { items, err = st.ListDisabledCenters(ctx, tallyID) })
	return items, err
}

func (s *Store) ListDisabledStations(ctx context.Context, tallyID string) (items []entities.DisabledStation, err error) {
	s.read(func(st *state) { items, err = st.ListDisabledStations(ctx, tallyID) })
	return items, err
}

func (s *Store) ReplaceCandidateProjection(ctx context.Context, projection entities.CandidateProjection) (err error) {
	s.write(func(st *state) { err = st.ReplaceCandidateProjection(ctx, projection) })
	return err
}

func (s *Store) GetCandidateProjection(ctx context.Context, tallyID string) (projection entities.CandidateProjection, err error) {
	s.read(func(st *state) { projection, err = st.GetCandidateProjection(ctx, tallyID) })
	return projection, err
}

func (s *Store) GetStationProgress(ctx context.Context, tallyID string, centerCode int, stationNumber int) (progress entities.StationProgress, found bool, err error) {
	s.read(func(st *state) { progress, found, err = st.GetStationProgress(ctx, tallyID, centerCode, stationNumber) })
	return progress, found, err
}

func (s *Store) SaveStationProgress(ctx context.Context, progress entities.StationProgress) (err error) {
	s.write(func(st *state) { err = st.SaveStationProgress(ctx, progress) })
	return err
}

func (s *Store) CountStationForms(ctx context.Context, tallyID string, centerID string, stationNumber int) (total int, received int, archived int, err error) {
	s.read(func(st *state) { total, received, archived, err = st.CountStationForms(ctx, tallyID, centerID, stationNumber) })
	return total, received, archived, err
}
