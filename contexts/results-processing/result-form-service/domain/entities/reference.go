package entities

import (
	"fmt"
	"sort"
	"time"
)

type Gender string

const (
	GenderMale    Gender = "male"
	GenderFemale  Gender = "female"
	GenderUnisex  Gender = "unisex"
	GenderUnknown Gender = ""
)

type DisableReason string

const (
	DisableReasonNone               DisableReason = ""
	DisableReasonNotOpened          DisableReason = "not_opened"
	DisableReasonHNECDecision       DisableReason = "hnec_decision"
	DisableReasonComplaintCourt     DisableReason = "complaint_court"
	DisableReasonComplaintHNEC      DisableReason = "complaint_hnec"
	DisableReasonDisqualifiedHNEC   DisableReason = "disqualified_hnec"
	DisableReasonDisqualifiedCourt  DisableReason = "disqualified_court"
	DisableReasonMaterialsDestroyed DisableReason = "materials_destroyed"
	DisableReasonOther              DisableReason = "other"
)

func (r DisableReason) Valid() bool {
	switch r {
	case DisableReasonNotOpened,
		DisableReasonHNECDecision,
		DisableReasonComplaintCourt,
		DisableReasonComplaintHNEC,
		DisableReasonDisqualifiedHNEC,
		DisableReasonDisqualifiedCourt,
		DisableReasonMaterialsDestroyed,
		DisableReasonOther:
		return true
	default:
		return false
	}
}

type RaceType string

const (
	RaceTypeGeneral      RaceType = "general"
	RaceTypeWomen        RaceType = "women"
	RaceTypeComponent    RaceType = "component"
	RaceTypePresidential RaceType = "presidential"
)

// Section returns the quality-control section that reviews candidates of
// this race type.
func (r RaceType) Section() Section {
	if r == RaceTypeWomen {
		return SectionWomen
	}
	return SectionGeneral
}

type Region struct {
	RegionID string
	TallyID  string
	Name     string
}

type Office struct {
	OfficeID string
	TallyID  string
	RegionID string
	Number   int
	Name     string
}

type Constituency struct {
	ConstituencyID string
	TallyID        string
	Code           int
	Name           string
}

type SubConstituency struct {
	SubConstituencyID string
	TallyID           string
	ConstituencyID    string
	Code              int
	Name              string
}

type ElectrolRace struct {
	ElectrolRaceID string
	TallyID        string
	ElectionLevel  string
	BallotName     string
}

type Center struct {
	CenterID          string
	TallyID           string
	Code              int
	Name              string
	OfficeID          string
	SubConstituencyID string
	Village           string
	Latitude          *float64
	Longitude         *float64
	Active            bool
	DisableReason     DisableReason
	UpdatedAt         time.Time
}

type Station struct {
	StationID     string
	TallyID       string
	CenterID      string
	StationNumber int
	Gender        Gender
	Registrants   *int
	Active        bool
	DisableReason DisableReason
	UpdatedAt     time.Time
}

type Ballot struct {
	BallotID            string
	TallyID             string
	Number              int
	ElectrolRaceID      string
	Active              bool
	AvailableForRelease bool
	DisableReason       DisableReason
	UpdatedAt           time.Time
}

type Candidate struct {
	CandidateID string
	TallyID     string
	BallotID    string
	Order       int
	FullName    string
	RaceType    RaceType
	Active      bool
}

type EntityKind string

const (
	EntityKindCenter     EntityKind = "center"
	EntityKindStation    EntityKind = "station"
	EntityKindBallot     EntityKind = "ballot"
	EntityKindResultForm EntityKind = "result_form"
	EntityKindClearance  EntityKind = "clearance"
	EntityKindAudit      EntityKind = "audit"
	EntityKindCheck      EntityKind = "quarantine_check"
)

// Comment is one entry of the chronological per-entity comment log.
type Comment struct {
	CommentID  string
	TallyID    string
	EntityKind EntityKind
	EntityID   string
	Text       string
	ActorID    string
	CreatedAt  time.Time
}

// StationProgress carries the cached per-station percentages.
type StationProgress struct {
	TallyID         string
	CenterCode      int
	StationNumber   int
	FormsTotal      int
	FormsReceived   int
	FormsArchived   int
	PercentReceived float64
	PercentArchived float64
	ComputedAt      time.Time
}

// ReferenceBatch is a bulk reference-data import. It is applied all or
// nothing.
type ReferenceBatch struct {
	TallyID           string
	Regions           []Region
	Offices           []Office
	Constituencies    []Constituency
	SubConstituencies []SubConstituency
	ElectrolRaces     []ElectrolRace
	Centers           []Center
	Stations          []Station
	Ballots           []Ballot
	Candidates        []Candidate
	ResultForms       []ResultForm
}

func CenterKey(code int) string {
	return fmt.Sprintf("center:%d", code)
}

func StationKey(centerID string, stationNumber int) string {
	return fmt.Sprintf("station:%s/%d", centerID, stationNumber)
}

func BallotKey(number int) string {
	return fmt.Sprintf("ballot:%d", number)
}

func BarcodeKey(barcode string) string {
	return "result_form:" + barcode
}

// UniqueKeys lists the unique keys the batch would claim.
func (b ReferenceBatch) UniqueKeys() []string {
	keys := make([]string, 0, len(b.Centers)+len(b.Stations)+len(b.Ballots)+len(b.ResultForms))
	for _, center := range b.Centers {
		keys = append(keys, CenterKey(center.Code))
	}
	for _, station := range b.Stations {
		keys = append(keys, StationKey(station.CenterID, station.StationNumber))
	}
	for _, ballot := range b.Ballots {
		keys = append(keys, BallotKey(ballot.Number))
	}
	for _, form := range b.ResultForms {
		keys = append(keys, BarcodeKey(form.Barcode))
	}
	return keys
}

// DuplicateKeys lists keys claimed more than once inside the batch.
func (b ReferenceBatch) DuplicateKeys() []string {
	seen := map[string]int{}
	for _, key := range b.UniqueKeys() {
		seen[key]++
	}
	var out []string
	for key, count := range seen {
		if count > 1 {
			out = append(out, key)
		}
	}
	sort.Strings(out)
	return out
}
