package memory

import (
	"context"
	"fmt"
	"sort"

	"tally/contexts/results-processing/result-form-service/domain/entities"
	domainerrors "tally/contexts/results-processing/result-form-service/domain/errors"
)

func (st *state) ListFinalSheets(_ context.Context, filter entities.ReportFilter, states []entities.FormState) ([]entities.FinalSheet, error) {
	wanted := map[entities.FormState]bool{}
	for _, formState := range states {
		wanted[formState] = true
	}
	sheets := make([]entities.FinalSheet, 0)
	for _, form := range st.forms {
		if form.TallyID != filter.TallyID || !wanted[form.FormState] {
			continue
		}
		if filter.BallotID != "" && form.BallotID != filter.BallotID {
			continue
		}
		sheet := entities.FinalSheet{Form: copyForm(form), Location: st.locate(form)}
		for _, station := range st.stations {
			if station.CenterID == form.CenterID && station.StationNumber == form.StationNumber {
				sheet.Registrants = station.Registrants
				break
			}
		}
		for _, result := range st.results {
			if result.ResultFormID == form.ResultFormID && result.Active && result.EntryVersion == entities.EntryVersionFinal {
				sheet.Results = append(sheet.Results, result)
			}
		}
		for _, recon := range st.recons {
			if recon.ResultFormID == form.ResultFormID && recon.Active && recon.EntryVersion == entities.EntryVersionFinal {
				copied := copyRecon(recon)
				sheet.Reconciliation = &copied
				break
			}
		}
		sheets = append(sheets, sheet)
	}
	sort.Slice(sheets, func(i, j int) bool { return sheets[i].Form.Barcode < sheets[j].Form.Barcode })
	return sheets, nil
}

func (st *state) locate(form entities.ResultForm) entities.FormLocation {
	location := entities.FormLocation{
		ResultFormID:  form.ResultFormID,
		BallotID:      form.BallotID,
		CenterID:      form.CenterID,
		StationNumber: form.StationNumber,
	}
	center, ok := st.centers[form.CenterID]
	if !ok {
		return location
	}
	location.CenterCode = center.Code
	location.OfficeID = center.OfficeID
	location.SubConstituencyID = center.SubConstituencyID
	if office, ok := st.offices[center.OfficeID]; ok {
		location.RegionID = office.RegionID
	}
	if sub, ok := st.subConstituencies[center.SubConstituencyID]; ok {
		location.ConstituencyID = sub.ConstituencyID
	}
	return location
}

func (st *state) ListTallyCandidates(_ context.Context, tallyID string) ([]entities.Candidate, error) {
	items := make([]entities.Candidate, 0)
	for _, candidate := range st.candidates {
		if candidate.TallyID == tallyID {
			items = append(items, candidate)
		}
	}
	sortCandidates(items)
	return items, nil
}

func (st *state) CountFormsPerBallot(_ context.Context, tallyID string) (map[string]int, error) {
	counts := map[string]int{}
	for _, form := range st.forms {
		if form.TallyID == tallyID && form.BallotID != "" {
			counts[form.BallotID]++
		}
	}
	return counts, nil
}

func (st *state) AreaNames(_ context.Context, tallyID string, kind entities.AreaKind) (map[string]string, error) {
	names := map[string]string{}
	switch kind {
	case entities.AreaKindRegion:
		for id, item := range st.regions {
			if item.TallyID == tallyID {
				names[id] = item.Name
			}
		}
	case entities.AreaKindOffice:
		for id, item := range st.offices {
			if item.TallyID == tallyID {
				names[id] = item.Name
			}
		}
	case entities.AreaKindConstituency:
		for id, item := range st.constituencies {
			if item.TallyID == tallyID {
				names[id] = item.Name
			}
		}
	case entities.AreaKindSubConstituency:
		for id, item := range st.subConstituencies {
			if item.TallyID == tallyID {
				names[id] = item.Name
			}
		}
	case entities.AreaKindCenter:
		for id, item := range st.centers {
			if item.TallyID == tallyID {
				names[id] = item.Name
			}
		}
	default:
		return nil, domainerrors.Invalid("unknown area kind %q", kind)
	}
	return names, nil
}

func (st *state) CenterCodes(_ context.Context, tallyID string) (map[string]int, error) {
	codes := map[string]int{}
	for id, center := range st.centers {
		if center.TallyID == tallyID {
			codes[id] = center.Code
		}
	}
	return codes, nil
}

func (st *state) ListDisabledCenters(_ context.Context, tallyID string) ([]entities.DisabledCenter, error) {
	items := make([]entities.DisabledCenter, 0)
	for _, center := range st.centers {
		if center.TallyID == tallyID && !center.Active {
			items = append(items, entities.DisabledCenter{
				CenterID:      center.CenterID,
				CenterCode:    center.Code,
				Name:          center.Name,
				DisableReason: center.DisableReason,
			})
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].CenterCode < items[j].CenterCode })
	return items, nil
}

func (st *state) ListDisabledStations(_ context.Context, tallyID string) ([]entities.DisabledStation, error) {
	items := make([]entities.DisabledStation, 0)
	for _, station := range st.stations {
		if station.TallyID != tallyID || station.Active {
			continue
		}
		items = append(items, entities.DisabledStation{
			CenterID:      station.CenterID,
			CenterCode:    st.centers[station.CenterID].Code,
			StationNumber: station.StationNumber,
			DisableReason: station.DisableReason,
		})
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].CenterCode != items[j].CenterCode {
			return items[i].CenterCode < items[j].CenterCode
		}
		return items[i].StationNumber < items[j].StationNumber
	})
	return items, nil
}

func (st *state) ReplaceCandidateProjection(_ context.Context, projection entities.CandidateProjection) error {
	projection.Totals = append([]entities.CandidateTotal(nil), projection.Totals...)
	st.projections[projection.TallyID] = projection
	return nil
}

func (st *state) GetCandidateProjection(_ context.Context, tallyID string) (entities.CandidateProjection, error) {
	projection, ok := st.projections[tallyID]
	if !ok {
		return entities.CandidateProjection{}, domainerrors.ErrNotFound
	}
	projection.Totals = append([]entities.CandidateTotal(nil), projection.Totals...)
	return projection, nil
}

func progressKey(tallyID string, centerCode int, stationNumber int) string {
	return fmt.Sprintf("%s/%d/%d", tallyID, centerCode, stationNumber)
}

func (st *state) GetStationProgress(_ context.Context, tallyID string, centerCode int, stationNumber int) (entities.StationProgress, bool, error) {
	progress, ok := st.progress[progressKey(tallyID, centerCode, stationNumber)]
	return progress, ok, nil
}

func (st *state) SaveStationProgress(_ context.Context, progress entities.StationProgress) error {
	st.progress[progressKey(progress.TallyID, progress.CenterCode, progress.StationNumber)] = progress
	return nil
}

func (st *state) CountStationForms(_ context.Context, tallyID string, centerID string, stationNumber int) (int, int, int, error) {
	total, received, archived := 0, 0, 0
	for _, form := range st.forms {
		if form.TallyID != tallyID || form.CenterID != centerID || form.StationNumber != stationNumber {
			continue
		}
		total++
		if form.FormState != entities.FormStateUnsubmitted {
			received++
		}
		if form.FormState == entities.FormStateArchived {
			archived++
		}
	}
	return total, received, archived, nil
}
