package memory

import (
	"time"

	"tally/contexts/results-processing/result-form-service/domain/entities"
	"tally/contexts/results-processing/result-form-service/ports"
)

// state is one consistent copy of every table. Transactions work on a
// clone and swap it in on commit. Nested maps and slices are never
// mutated in place, so a shallow copy of each table is enough.
type state struct {
	forms      map[string]entities.ResultForm
	results    []entities.Result
	recons     []entities.ReconciliationForm
	clearances map[string]entities.Clearance
	audits     map[string]entities.Audit
	reviews    map[string]entities.QualityControl

	regions           map[string]entities.Region
	offices           map[string]entities.Office
	constituencies    map[string]entities.Constituency
	subConstituencies map[string]entities.SubConstituency
	races             map[string]entities.ElectrolRace
	centers           map[string]entities.Center
	stations          map[string]entities.Station
	ballots           map[string]entities.Ballot
	candidates        map[string]entities.Candidate
	comments          []entities.Comment

	checks       map[string]entities.QuarantineCheck
	stateChanges []entities.StateChange
	revisions    []entities.Revision
	outbox       []outboxRow

	projections map[string]entities.CandidateProjection
	progress    map[string]entities.StationProgress
}

type outboxRow struct {
	message     ports.OutboxMessage
	publishedAt *time.Time
}

func newState() *state {
	return &state{
		forms:             make(map[string]entities.ResultForm),
		clearances:        make(map[string]entities.Clearance),
		audits:            make(map[string]entities.Audit),
		reviews:           make(map[string]entities.QualityControl),
		regions:           make(map[string]entities.Region),
		offices:           make(map[string]entities.Office),
		constituencies:    make(map[string]entities.Constituency),
		subConstituencies: make(map[string]entities.SubConstituency),
		races:             make(map[string]entities.ElectrolRace),
		centers:           make(map[string]entities.Center),
		stations:          make(map[string]entities.Station),
		ballots:           make(map[string]entities.Ballot),
		candidates:        make(map[string]entities.Candidate),
		checks:            make(map[string]entities.QuarantineCheck),
		projections:       make(map[string]entities.CandidateProjection),
		progress:          make(map[string]entities.StationProgress),
	}
}

func (st *state) clone() *state {
	return &state{
		forms:             cloneMap(st.forms),
		results:           append([]entities.Result(nil), st.results...),
		recons:            append([]entities.ReconciliationForm(nil), st.recons...),
		clearances:        cloneMap(st.clearances),
		audits:            cloneMap(st.audits),
		reviews:           cloneMap(st.reviews),
		regions:           cloneMap(st.regions),
		offices:           cloneMap(st.offices),
		constituencies:    cloneMap(st.constituencies),
		subConstituencies: cloneMap(st.subConstituencies),
		races:             cloneMap(st.races),
		centers:           cloneMap(st.centers),
		stations:          cloneMap(st.stations),
		ballots:           cloneMap(st.ballots),
		candidates:        cloneMap(st.candidates),
		comments:          append([]entities.Comment(nil), st.comments...),
		checks:            cloneMap(st.checks),
		stateChanges:      append([]entities.StateChange(nil), st.stateChanges...),
		revisions:         append([]entities.Revision(nil), st.revisions...),
		outbox:            append([]outboxRow(nil), st.outbox...),
		projections:       cloneMap(st.projections),
		progress:          cloneMap(st.progress),
	}
}

func cloneMap[K comparable, V any](in map[K]V) map[K]V {
	out := make(map[K]V, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}

func copyForm(form entities.ResultForm) entities.ResultForm {
	form.ReopenedSections = append([]entities.Section(nil), form.ReopenedSections...)
	return form
}

func copyRecon(recon entities.ReconciliationForm) entities.ReconciliationForm {
	recon.Values = recon.Values.Clone()
	return recon
}

func copyAudit(audit entities.Audit) entities.Audit {
	audit.QuarantineCheckIDs = append([]string(nil), audit.QuarantineCheckIDs...)
	if audit.Attachment != nil {
		attachment := *audit.Attachment
		audit.Attachment = &attachment
	}
	return audit
}

func copyClearance(clearance entities.Clearance) entities.Clearance {
	if clearance.Attachment != nil {
		attachment := *clearance.Attachment
		clearance.Attachment = &attachment
	}
	return clearance
}
