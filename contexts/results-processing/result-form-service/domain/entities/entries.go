package entities

import (
	"math"
	"time"
)

// MaxEntryValue bounds every vote count and reconciliation value.
const MaxEntryValue = math.MaxInt32

type EntryVersion string

const (
	EntryVersionDataEntry1 EntryVersion = "data_entry_1"
	EntryVersionDataEntry2 EntryVersion = "data_entry_2"
	EntryVersionFinal      EntryVersion = "final"
)

func (v EntryVersion) Valid() bool {
	return v == EntryVersionDataEntry1 || v == EntryVersionDataEntry2 || v == EntryVersionFinal
}

type Result struct {
	ResultID     string
	ResultFormID string
	CandidateID  string
	Votes        int
	EntryVersion EntryVersion
	Active       bool
	UserID       string
	CreatedAt    time.Time
}

type ReconField string

const (
	ReconNumberBallotsReceived            ReconField = "number_ballots_received"
	ReconNumberSignaturesInVR             ReconField = "number_signatures_in_vr"
	ReconNumberUnusedBallots              ReconField = "number_unused_ballots"
	ReconNumberSpoiledBallots             ReconField = "number_spoiled_ballots"
	ReconNumberCancelledBallots           ReconField = "number_cancelled_ballots"
	ReconNumberBallotsOutsideBox          ReconField = "number_ballots_outside_box"
	ReconNumberBallotsInsideBox           ReconField = "number_ballots_inside_box"
	ReconNumberBallotsInsideAndOutsideBox ReconField = "number_ballots_inside_and_outside_box"
	ReconNumberUnstampedBallots           ReconField = "number_unstamped_ballots"
	ReconNumberInvalidVotes               ReconField = "number_invalid_votes"
	ReconNumberValidVotes                 ReconField = "number_valid_votes"
	ReconNumberSortedAndCounted           ReconField = "number_sorted_and_counted"
	ReconNumberOfVoters                   ReconField = "number_of_voters"
	ReconNumberOfVoterCardsInTheBallotBox ReconField = "number_of_voter_cards_in_the_ballot_box"
)

// ReconFields lists the fourteen reconciliation fields in form order.
var ReconFields = []ReconField{
	ReconNumberBallotsReceived,
	ReconNumberSignaturesInVR,
	ReconNumberUnusedBallots,
	ReconNumberSpoiledBallots,
	ReconNumberCancelledBallots,
	ReconNumberBallotsOutsideBox,
	ReconNumberBallotsInsideBox,
	ReconNumberBallotsInsideAndOutsideBox,
	ReconNumberUnstampedBallots,
	ReconNumberInvalidVotes,
	ReconNumberValidVotes,
	ReconNumberSortedAndCounted,
	ReconNumberOfVoters,
	ReconNumberOfVoterCardsInTheBallotBox,
}

// RequiredReconFields must be present for an entry set to be complete.
var RequiredReconFields = []ReconField{
	ReconNumberValidVotes,
	ReconNumberInvalidVotes,
	ReconNumberCancelledBallots,
	ReconNumberUnstampedBallots,
	ReconNumberOfVoters,
}

func (f ReconField) Valid() bool {
	for _, field := range ReconFields {
		if field == f {
			return true
		}
	}
	return false
}

// ReconValues holds the fields present on a reconciliation row. Absent
// fields were left blank by the clerk.
type ReconValues map[ReconField]int

func (v ReconValues) Get(field ReconField) (int, bool) {
	value, ok := v[field]
	return value, ok
}

func (v ReconValues) Clone() ReconValues {
	out := make(ReconValues, len(v))
	for field, value := range v {
		out[field] = value
	}
	return out
}

// BallotsUsed is valid + cancelled + unstamped + invalid.
func (v ReconValues) BallotsUsed() int {
	return v[ReconNumberValidVotes] +
		v[ReconNumberCancelledBallots] +
		v[ReconNumberUnstampedBallots] +
		v[ReconNumberInvalidVotes]
}

type ReconciliationForm struct {
	ReconciliationFormID string
	ResultFormID         string
	EntryVersion         EntryVersion
	Active               bool
	UserID               string
	Values               ReconValues
	CreatedAt            time.Time
}

// EntrySet is one clerk's complete submission for a form.
type EntrySet struct {
	Version        EntryVersion
	Votes          map[string]int
	Reconciliation ReconValues
	UserID         string
}

// EntryFilter selects rows for deactivation. Empty Versions means every
// version; empty CandidateIDs means every candidate.
type EntryFilter struct {
	Versions              []EntryVersion
	CandidateIDs          []string
	IncludeResults        bool
	IncludeReconciliation bool
}

func (f EntryFilter) MatchesVersion(version EntryVersion) bool {
	if len(f.Versions) == 0 {
		return true
	}
	for _, item := range f.Versions {
		if item == version {
			return true
		}
	}
	return false
}

func (f EntryFilter) MatchesCandidate(candidateID string) bool {
	if len(f.CandidateIDs) == 0 {
		return true
	}
	for _, item := range f.CandidateIDs {
		if item == candidateID {
			return true
		}
	}
	return false
}

// AllEntries deactivates every result and reconciliation row of a form.
func AllEntries() EntryFilter {
	return EntryFilter{IncludeResults: true, IncludeReconciliation: true}
}

type QualityControl struct {
	QualityControlID     string
	ResultFormID         string
	UserID               string
	PassedGeneral        *bool
	PassedReconciliation *bool
	PassedWomens         *bool
	FailedSections       []Section
	Active               bool
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

func (q QualityControl) AllPassed() bool {
	return q.PassedGeneral != nil && *q.PassedGeneral &&
		q.PassedReconciliation != nil && *q.PassedReconciliation &&
		q.PassedWomens != nil && *q.PassedWomens
}
