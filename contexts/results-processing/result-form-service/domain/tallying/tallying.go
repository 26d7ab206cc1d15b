// Package tallying holds the aggregate arithmetic over archived FINAL rows.
// Every function is pure; callers load the sheets and reference data.
package tallying

import (
	"sort"

	"tally/contexts/results-processing/result-form-service/domain/entities"
)

// Percent returns 100*num/den rounded half away from zero to two decimals.
// A zero denominator yields 0.
func Percent(num, den int64) float64 {
	if den == 0 {
		return 0
	}
	negative := (num < 0) != (den < 0)
	if num < 0 {
		num = -num
	}
	if den < 0 {
		den = -den
	}
	// hundredths of a percent, rounded half up on the magnitude
	scaled := (num*10000*2 + den) / (den * 2)
	value := float64(scaled) / 100
	if negative {
		return -value
	}
	return value
}

// counted reports whether a sheet takes part in an aggregate at all.
func counted(sheet entities.FinalSheet, filter entities.ReportFilter) bool {
	if filter.Excludes(sheet.Form.ResultFormID) {
		return false
	}
	if filter.BallotID != "" && sheet.Form.BallotID != filter.BallotID {
		return false
	}
	return true
}

func finalResults(sheet entities.FinalSheet) []entities.Result {
	out := make([]entities.Result, 0, len(sheet.Results))
	for _, result := range sheet.Results {
		if result.Active && result.EntryVersion == entities.EntryVersionFinal {
			out = append(out, result)
		}
	}
	return out
}

func finalRecon(sheet entities.FinalSheet) entities.ReconValues {
	recon := sheet.Reconciliation
	if recon == nil || !recon.Active || recon.EntryVersion != entities.EntryVersionFinal {
		return nil
	}
	return recon.Values
}

// CandidateTotals sums votes per candidate. Archived forms feed Votes, forms
// held in AUDIT feed QuarantineVotes. formsPerBallot is the number of result
// forms expected for each ballot and drives CompletionPercent.
func CandidateTotals(
	candidates []entities.Candidate,
	sheets []entities.FinalSheet,
	formsPerBallot map[string]int,
	filter entities.ReportFilter,
) []entities.CandidateTotal {
	totals := make(map[string]*entities.CandidateTotal, len(candidates))
	order := make([]string, 0, len(candidates))
	for _, candidate := range candidates {
		if filter.BallotID != "" && candidate.BallotID != filter.BallotID {
			continue
		}
		totals[candidate.CandidateID] = &entities.CandidateTotal{
			CandidateID: candidate.CandidateID,
			BallotID:    candidate.BallotID,
			FullName:    candidate.FullName,
			Order:       candidate.Order,
			RaceType:    candidate.RaceType,
		}
		order = append(order, candidate.CandidateID)
	}

	archivedPerBallot := map[string]int64{}
	for _, sheet := range sheets {
		if !counted(sheet, filter) {
			continue
		}
		state := sheet.Form.FormState
		if state != entities.FormStateArchived && state != entities.FormStateAudit {
			continue
		}
		if state == entities.FormStateArchived {
			archivedPerBallot[sheet.Form.BallotID]++
		}
		for _, result := range finalResults(sheet) {
			total, ok := totals[result.CandidateID]
			if !ok {
				continue
			}
			votes := int64(result.Votes)
			if state == entities.FormStateArchived {
				total.Votes += votes
				total.StationsContributing++
			} else {
				total.QuarantineVotes += votes
			}
			total.AllVotes += votes
		}
	}

	out := make([]entities.CandidateTotal, 0, len(order))
	for _, id := range order {
		total := totals[id]
		total.CompletionPercent = Percent(archivedPerBallot[total.BallotID], int64(formsPerBallot[total.BallotID]))
		out = append(out, *total)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].BallotID != out[j].BallotID {
			return out[i].BallotID < out[j].BallotID
		}
		return out[i].Order < out[j].Order
	})
	return out
}

// AreaID picks the identifier of the area of the given kind.
func AreaID(kind entities.AreaKind, location entities.FormLocation) string {
	switch kind {
	case entities.AreaKindRegion:
		return location.RegionID
	case entities.AreaKindOffice:
		return location.OfficeID
	case entities.AreaKindConstituency:
		return location.ConstituencyID
	case entities.AreaKindSubConstituency:
		return location.SubConstituencyID
	case entities.AreaKindCenter:
		return location.CenterID
	default:
		return ""
	}
}

type stationKey struct {
	centerID      string
	stationNumber int
}

// Turnout groups archived forms by area. Registrants are counted once per
// station even when several ballots were archived for it.
func Turnout(
	kind entities.AreaKind,
	sheets []entities.FinalSheet,
	names map[string]string,
	filter entities.ReportFilter,
) []entities.AreaTurnout {
	rows := map[string]*entities.AreaTurnout{}
	seen := map[string]map[stationKey]bool{}
	for _, sheet := range sheets {
		if sheet.Form.FormState != entities.FormStateArchived || !counted(sheet, filter) {
			continue
		}
		recon := finalRecon(sheet)
		if recon == nil {
			continue
		}
		areaID := AreaID(kind, sheet.Location)
		row, ok := rows[areaID]
		if !ok {
			row = &entities.AreaTurnout{AreaKind: kind, AreaID: areaID, AreaName: names[areaID]}
			rows[areaID] = row
			seen[areaID] = map[stationKey]bool{}
		}
		row.VotersVoted += int64(recon[entities.ReconNumberValidVotes])
		row.BallotsUsed += int64(recon.BallotsUsed())

		key := stationKey{centerID: sheet.Location.CenterID, stationNumber: sheet.Location.StationNumber}
		if !seen[areaID][key] && sheet.Registrants != nil {
			row.Registrants += int64(*sheet.Registrants)
			seen[areaID][key] = true
		}
	}

	out := make([]entities.AreaTurnout, 0, len(rows))
	for _, row := range rows {
		row.TurnoutPercentage = Percent(row.BallotsUsed, row.Registrants)
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool { return areaLess(out[i].AreaName, out[i].AreaID, out[j].AreaName, out[j].AreaID) })
	return out
}

// Summary sums valid, invalid and cancelled ballots per area.
func Summary(
	kind entities.AreaKind,
	sheets []entities.FinalSheet,
	names map[string]string,
	filter entities.ReportFilter,
) []entities.AreaSummary {
	rows := map[string]*entities.AreaSummary{}
	for _, sheet := range sheets {
		if sheet.Form.FormState != entities.FormStateArchived || !counted(sheet, filter) {
			continue
		}
		recon := finalRecon(sheet)
		if recon == nil {
			continue
		}
		areaID := AreaID(kind, sheet.Location)
		row, ok := rows[areaID]
		if !ok {
			row = &entities.AreaSummary{AreaKind: kind, AreaID: areaID, AreaName: names[areaID]}
			rows[areaID] = row
		}
		row.ValidVotes += int64(recon[entities.ReconNumberValidVotes])
		row.InvalidVotes += int64(recon[entities.ReconNumberInvalidVotes])
		row.CancelledVotes += int64(recon[entities.ReconNumberCancelledBallots])
		row.FormsAggregated++
	}

	out := make([]entities.AreaSummary, 0, len(rows))
	for _, row := range rows {
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool { return areaLess(out[i].AreaName, out[i].AreaID, out[j].AreaName, out[j].AreaID) })
	return out
}

func areaLess(nameA, idA, nameB, idB string) bool {
	if nameA != nameB {
		return nameA < nameB
	}
	return idA < idB
}

type ballotSlot struct {
	centerID      string
	stationNumber int
	ballotID      string
}

// Duplicates lists archived forms sharing a center, station and ballot.
// centerCodes maps center ids to their codes for display.
func Duplicates(forms []entities.ResultForm, centerCodes map[string]int) []entities.DuplicateGroup {
	groups := map[ballotSlot][]entities.ResultForm{}
	for _, form := range forms {
		if form.FormState != entities.FormStateArchived || !form.HasAssignment() {
			continue
		}
		slot := ballotSlot{centerID: form.CenterID, stationNumber: form.StationNumber, ballotID: form.BallotID}
		groups[slot] = append(groups[slot], form)
	}

	out := []entities.DuplicateGroup{}
	for slot, members := range groups {
		if len(members) < 2 {
			continue
		}
		sort.Slice(members, func(i, j int) bool { return members[i].Barcode < members[j].Barcode })
		group := entities.DuplicateGroup{
			CenterID:      slot.centerID,
			CenterCode:    centerCodes[slot.centerID],
			StationNumber: slot.stationNumber,
			BallotID:      slot.ballotID,
			Reviewed:      true,
		}
		for _, member := range members {
			group.ResultFormIDs = append(group.ResultFormIDs, member.ResultFormID)
			group.Barcodes = append(group.Barcodes, member.Barcode)
			group.Reviewed = group.Reviewed && member.DuplicateReviewed
		}
		out = append(out, group)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CenterCode != out[j].CenterCode {
			return out[i].CenterCode < out[j].CenterCode
		}
		if out[i].StationNumber != out[j].StationNumber {
			return out[i].StationNumber < out[j].StationNumber
		}
		return out[i].BallotID < out[j].BallotID
	})
	return out
}
