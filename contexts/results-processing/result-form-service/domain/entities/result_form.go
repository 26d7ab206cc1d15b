package entities

import "time"

type FormState string

const (
	FormStateUnsubmitted    FormState = "unsubmitted"
	FormStateIntake         FormState = "intake"
	FormStateClearance      FormState = "clearance"
	FormStateDataEntry1     FormState = "data_entry_1"
	FormStateDataEntry2     FormState = "data_entry_2"
	FormStateCorrection     FormState = "correction"
	FormStateQualityControl FormState = "quality_control"
	FormStateArchiving      FormState = "archiving"
	FormStateArchived       FormState = "archived"
	FormStateAudit          FormState = "audit"
)

var FormStates = []FormState{
	FormStateUnsubmitted,
	FormStateIntake,
	FormStateClearance,
	FormStateDataEntry1,
	FormStateDataEntry2,
	FormStateCorrection,
	FormStateQualityControl,
	FormStateArchiving,
	FormStateArchived,
	FormStateAudit,
}

func (s FormState) Valid() bool {
	for _, state := range FormStates {
		if state == s {
			return true
		}
	}
	return false
}

// Section is one of the three independent quality-control reviews.
type Section string

const (
	SectionGeneral        Section = "general"
	SectionReconciliation Section = "reconciliation"
	SectionWomen          Section = "women"
)

type ResultForm struct {
	ResultFormID         string
	TallyID              string
	Barcode              string
	SerialNumber         string
	CenterID             string
	StationNumber        int
	BallotID             string
	Name                 string
	Office               string
	Gender               Gender
	FormState            FormState
	PreviousFormState    FormState
	UserID               string
	CreatedUserID        string
	IsReplacement        bool
	SkipQuarantineChecks bool
	DuplicateReviewed    bool
	FormStamped          *bool
	AuditedCount         int
	RejectedCount        int
	RejectReason         string
	ReopenedSections     []Section
	IntakePrinted        bool
	ClearancePrinted     bool
	HasEverHadResults    bool
	DateSeen             *time.Time
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

func (f ResultForm) HasCenter() bool {
	return f.CenterID != ""
}

func (f ResultForm) HasAssignment() bool {
	return f.CenterID != "" && f.StationNumber > 0 && f.BallotID != ""
}

// Occupies reports whether the form holds its (center, station, ballot)
// triple against other forms.
func (f ResultForm) Occupies() bool {
	return f.HasAssignment() && f.FormState != FormStateArchived
}

func (f ResultForm) SectionReopened(section Section) bool {
	for _, item := range f.ReopenedSections {
		if item == section {
			return true
		}
	}
	return false
}

// StateChange is one row of the per-form state history.
type StateChange struct {
	StateChangeID string
	TallyID       string
	ResultFormID  string
	FromState     FormState
	ToState       FormState
	Action        string
	ActorID       string
	Reason        string
	CreatedAt     time.Time
}

// Revision is an append-only snapshot of an entity after a committed
// mutation. Snapshot holds the JSON encoding of the entity.
type Revision struct {
	RevisionID string
	TallyID    string
	EntityKind EntityKind
	EntityID   string
	Action     string
	ActorID    string
	Snapshot   []byte
	CreatedAt  time.Time
}
