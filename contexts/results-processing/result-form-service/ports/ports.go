package ports

import (
	"context"
	"time"

	"tally/contexts/results-processing/result-form-service/domain/entities"
	"tally/contexts/results-processing/result-form-service/domain/workflow"
	contractsv1 "tally/contracts/gen/events/v1"
)

type ResultFormFilter struct {
	TallyID  string
	States   []entities.FormState
	BallotID string
	CenterID string
	Limit    int
}

type FormRepository interface {
	GetResultForm(ctx context.Context, tallyID string, resultFormID string) (entities.ResultForm, error)
	GetResultFormByBarcode(ctx context.Context, tallyID string, barcode string) (entities.ResultForm, error)
	ListResultForms(ctx context.Context, filter ResultFormFilter) ([]entities.ResultForm, error)
	UpdateResultForm(ctx context.Context, form entities.ResultForm) error
	DeleteResultForm(ctx context.Context, tallyID string, resultFormID string) error
	// FindOccupyingForm returns another non-archived form assigned to the
	// same center, station and ballot.
	FindOccupyingForm(
		ctx context.Context,
		tallyID string,
		centerID string,
		stationNumber int,
		ballotID string,
		excludeFormID string,
	) (entities.ResultForm, bool, error)
}

// EntryRepository is the entry store. InsertEntry fails with ErrConflict
// when active rows already exist for the form and version.
type EntryRepository interface {
	ListResults(ctx context.Context, resultFormID string, version entities.EntryVersion) ([]entities.Result, error)
	GetReconciliation(ctx context.Context, resultFormID string, version entities.EntryVersion) (entities.ReconciliationForm, bool, error)
	InsertEntry(ctx context.Context, results []entities.Result, recon *entities.ReconciliationForm) error
	DeactivateEntries(ctx context.Context, resultFormID string, filter entities.EntryFilter) (int, error)
	CountActiveEntries(ctx context.Context, resultFormID string) (results int, reconciliations int, err error)
}

type DisputeRepository interface {
	GetActiveClearance(ctx context.Context, resultFormID string) (entities.Clearance, error)
	SaveClearance(ctx context.Context, clearance entities.Clearance) error
	GetActiveAudit(ctx context.Context, resultFormID string) (entities.Audit, error)
	SaveAudit(ctx context.Context, audit entities.Audit) error
}

type QualityControlRepository interface {
	GetActiveQualityControl(ctx context.Context, resultFormID string) (entities.QualityControl, error)
	SaveQualityControl(ctx context.Context, record entities.QualityControl) error
}

type ReferenceReader interface {
	GetCenter(ctx context.Context, tallyID string, centerID string) (entities.Center, error)
	GetCenterByCode(ctx context.Context, tallyID string, code int) (entities.Center, error)
	ListStations(ctx context.Context, tallyID string, centerID string) ([]entities.Station, error)
	GetStation(ctx context.Context, tallyID string, centerID string, stationNumber int) (entities.Station, error)
	GetBallot(ctx context.Context, tallyID string, ballotID string) (entities.Ballot, error)
	GetBallotByNumber(ctx context.Context, tallyID string, number int) (entities.Ballot, error)
	// ListCandidates returns the ballot's candidates ordered by Order.
	ListCandidates(ctx context.Context, tallyID string, ballotID string) ([]entities.Candidate, error)
}

type ReferenceWriter interface {
	SaveCenter(ctx context.Context, center entities.Center) error
	SaveStation(ctx context.Context, station entities.Station) error
	SaveBallot(ctx context.Context, ballot entities.Ballot) error
	AppendComment(ctx context.Context, comment entities.Comment) error
	ListComments(ctx context.Context, tallyID string, kind entities.EntityKind, entityID string) ([]entities.Comment, error)
	// ImportReferenceBatch applies the whole batch or nothing. Keys already
	// present in the store fail with DuplicateReferenceError.
	ImportReferenceBatch(ctx context.Context, batch entities.ReferenceBatch) error
}

type QuarantineCheckRepository interface {
	ListQuarantineChecks(ctx context.Context) ([]entities.QuarantineCheck, error)
	GetQuarantineCheck(ctx context.Context, checkID string) (entities.QuarantineCheck, error)
	SaveQuarantineCheck(ctx context.Context, check entities.QuarantineCheck) error
}

type HistoryRepository interface {
	AppendStateChange(ctx context.Context, change entities.StateChange) error
	AppendRevision(ctx context.Context, revision entities.Revision) error
	ListStateChanges(ctx context.Context, tallyID string, resultFormID string) ([]entities.StateChange, error)
	ListRevisions(ctx context.Context, tallyID string, kind entities.EntityKind, entityID string) ([]entities.Revision, error)
}

type EventEnvelope = contractsv1.Envelope

const (
	EventResultFormStateChanged   = contractsv1.EventResultFormStateChanged
	EventResultFormCoverRequest   = contractsv1.EventResultFormCoverRequest
	EventResultFormQuarantined    = contractsv1.EventResultFormQuarantined
	EventReferenceEntityToggled   = contractsv1.EventReferenceEntityToggled
	EventAggregateProjectionBuilt = contractsv1.EventAggregateProjectionBuilt
)

type OutboxMessage struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
}

type OutboxWriter interface {
	AppendOutbox(ctx context.Context, envelope EventEnvelope) error
}

type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error
}

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}

// WorkflowStore is the view of the store a workflow operation sees inside
// its transaction.
type WorkflowStore interface {
	FormRepository
	EntryRepository
	DisputeRepository
	QualityControlRepository
	ReferenceReader
	ReferenceWriter
	QuarantineCheckRepository
	HistoryRepository
	OutboxWriter
}

// UnitOfWork runs fn in one serialisable transaction. WithinFormTx also
// locks the result form row before fn runs; concurrent calls for the same
// form are serialised. A failed fn rolls everything back.
type UnitOfWork interface {
	WithinFormTx(
		ctx context.Context,
		tallyID string,
		resultFormID string,
		fn func(ctx context.Context, store WorkflowStore) error,
	) error
	WithinTx(ctx context.Context, fn func(ctx context.Context, store WorkflowStore) error) error
}

// ReportReader serves the read model used by the aggregator.
type ReportReader interface {
	// ListFinalSheets returns forms in the given states with their active
	// FINAL rows and location.
	ListFinalSheets(ctx context.Context, filter entities.ReportFilter, states []entities.FormState) ([]entities.FinalSheet, error)
	ListResultForms(ctx context.Context, filter ResultFormFilter) ([]entities.ResultForm, error)
	ListTallyCandidates(ctx context.Context, tallyID string) ([]entities.Candidate, error)
	CountFormsPerBallot(ctx context.Context, tallyID string) (map[string]int, error)
	AreaNames(ctx context.Context, tallyID string, kind entities.AreaKind) (map[string]string, error)
	CenterCodes(ctx context.Context, tallyID string) (map[string]int, error)
	ListDisabledCenters(ctx context.Context, tallyID string) ([]entities.DisabledCenter, error)
	ListDisabledStations(ctx context.Context, tallyID string) ([]entities.DisabledStation, error)
}

type ProjectionStore interface {
	ReplaceCandidateProjection(ctx context.Context, projection entities.CandidateProjection) error
	GetCandidateProjection(ctx context.Context, tallyID string) (entities.CandidateProjection, error)
}

type StationProgressStore interface {
	GetStationProgress(ctx context.Context, tallyID string, centerCode int, stationNumber int) (entities.StationProgress, bool, error)
	SaveStationProgress(ctx context.Context, progress entities.StationProgress) error
	// CountStationForms counts the station's forms, those past
	// UNSUBMITTED, and those ARCHIVED.
	CountStationForms(ctx context.Context, tallyID string, centerID string, stationNumber int) (total int, received int, archived int, err error)
}

// Authorizer decides whether an actor may perform an action.
type Authorizer interface {
	Allowed(actor entities.Actor, action workflow.Action) bool
}

// Metrics receives workflow signals. Implementations must be safe for
// concurrent use.
type Metrics interface {
	TransitionRecorded(ctx context.Context, from entities.FormState, to entities.FormState)
	QuarantineFailed(ctx context.Context, method string)
	IntegrityViolation(ctx context.Context, operation string)
	ConflictRetried(ctx context.Context, operation string)
	ProjectionRefreshed(ctx context.Context, tallyID string, duration time.Duration)
}

// FlightGroup collapses concurrent calls sharing a key.
type FlightGroup interface {
	Do(key string, fn func() (interface{}, error)) (interface{}, error, bool)
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}
