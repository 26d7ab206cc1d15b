package entities

import "time"

type AreaKind string

const (
	AreaKindRegion          AreaKind = "region"
	AreaKindOffice          AreaKind = "office"
	AreaKindConstituency    AreaKind = "constituency"
	AreaKindSubConstituency AreaKind = "sub_constituency"
	AreaKindCenter          AreaKind = "center"
)

func (k AreaKind) Valid() bool {
	switch k {
	case AreaKindRegion, AreaKindOffice, AreaKindConstituency, AreaKindSubConstituency, AreaKindCenter:
		return true
	default:
		return false
	}
}

// ReportFilter narrows aggregate reads. ExcludeFormIDs drops selected
// forms, typically one side of a reviewed duplicate.
type ReportFilter struct {
	TallyID        string
	BallotID       string
	ExcludeFormIDs []string
}

func (f ReportFilter) Excludes(formID string) bool {
	for _, item := range f.ExcludeFormIDs {
		if item == formID {
			return true
		}
	}
	return false
}

// FormLocation ties a form to every administrative area above it.
type FormLocation struct {
	ResultFormID      string
	BallotID          string
	CenterID          string
	CenterCode        int
	StationNumber     int
	OfficeID          string
	RegionID          string
	SubConstituencyID string
	ConstituencyID    string
}

// FinalSheet is the read-model row for one form: its state, location,
// active FINAL results and active FINAL reconciliation.
type FinalSheet struct {
	Form           ResultForm
	Location       FormLocation
	Registrants    *int
	Results        []Result
	Reconciliation *ReconciliationForm
}

type CandidateTotal struct {
	CandidateID          string
	BallotID             string
	FullName             string
	Order                int
	RaceType             RaceType
	Votes                int64
	QuarantineVotes      int64
	AllVotes             int64
	StationsContributing int
	CompletionPercent    float64
}

type AreaTurnout struct {
	AreaKind          AreaKind
	AreaID            string
	AreaName          string
	VotersVoted       int64
	Registrants       int64
	BallotsUsed       int64
	TurnoutPercentage float64
}

type AreaSummary struct {
	AreaKind        AreaKind
	AreaID          string
	AreaName        string
	ValidVotes      int64
	InvalidVotes    int64
	CancelledVotes  int64
	FormsAggregated int
}

type DuplicateGroup struct {
	CenterID      string
	CenterCode    int
	StationNumber int
	BallotID      string
	ResultFormIDs []string
	Barcodes      []string
	Reviewed      bool
}

type DisabledStation struct {
	CenterID      string
	CenterCode    int
	StationNumber int
	DisableReason DisableReason
}

type DisabledCenter struct {
	CenterID      string
	CenterCode    int
	Name          string
	DisableReason DisableReason
}

type Discrepancies struct {
	DisabledCenters  []DisabledCenter
	DisabledStations []DisabledStation
	FormsInAudit     []ResultForm
}

// CandidateProjection is the stored, asynchronously refreshed copy of the
// per-candidate aggregate for a tally.
type CandidateProjection struct {
	TallyID     string
	Totals      []CandidateTotal
	RefreshedAt time.Time
}
