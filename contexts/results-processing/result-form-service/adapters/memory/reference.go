package memory

import (
	"context"
	"sort"

	"tally/contexts/results-processing/result-form-service/domain/entities"
	domainerrors "tally/contexts/results-processing/result-form-service/domain/errors"
)

func (st *state) GetCenter(_ context.Context, tallyID string, centerID string) (entities.Center, error) {
	center, ok := st.centers[centerID]
	if !ok || center.TallyID != tallyID {
		return entities.Center{}, domainerrors.ErrNotFound
	}
	return center, nil
}

func (st *state) GetCenterByCode(_ context.Context, tallyID string, code int) (entities.Center, error) {
	for _, center := range st.centers {
		if center.TallyID == tallyID && center.Code == code {
			return center, nil
		}
	}
	return entities.Center{}, domainerrors.ErrNotFound
}

func (st *state) ListStations(_ context.Context, tallyID string, centerID string) ([]entities.Station, error) {
	items := make([]entities.Station, 0)
	for _, station := range st.stations {
		if station.TallyID == tallyID && station.CenterID == centerID {
			items = append(items, station)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].StationNumber < items[j].StationNumber })
	return items, nil
}

func (st *state) GetStation(_ context.Context, tallyID string, centerID string, stationNumber int) (entities.Station, error) {
	for _, station := range st.stations {
		if station.TallyID == tallyID && station.CenterID == centerID && station.StationNumber == stationNumber {
			return station, nil
		}
	}
	return entities.Station{}, domainerrors.ErrNotFound
}

func (st *state) GetBallot(_ context.Context, tallyID string, ballotID string) (entities.Ballot, error) {
	ballot, ok := st.ballots[ballotID]
	if !ok || ballot.TallyID != tallyID {
		return entities.Ballot{}, domainerrors.ErrNotFound
	}
	return ballot, nil
}

func (st *state) GetBallotByNumber(_ context.Context, tallyID string, number int) (entities.Ballot, error) {
	for _, ballot := range st.ballots {
		if ballot.TallyID == tallyID && ballot.Number == number {
			return ballot, nil
		}
	}
	return entities.Ballot{}, domainerrors.ErrNotFound
}

func (st *state) ListCandidates(_ context.Context, tallyID string, ballotID string) ([]entities.Candidate, error) {
	items := make([]entities.Candidate, 0)
	for _, candidate := range st.candidates {
		if candidate.TallyID == tallyID && candidate.BallotID == ballotID {
			items = append(items, candidate)
		}
	}
	sortCandidates(items)
	return items, nil
}

func (st *state) SaveCenter(_ context.Context, center entities.Center) error {
	for id, existing := range st.centers {
		if id != center.CenterID && existing.TallyID == center.TallyID && existing.Code == center.Code {
			return domainerrors.DuplicateReferenceError{Keys: []string{entities.CenterKey(center.Code)}}
		}
	}
	st.centers[center.CenterID] = center
	return nil
}

func (st *state) SaveStation(_ context.Context, station entities.Station) error {
	for id, existing := range st.stations {
		if id != station.StationID && existing.CenterID == station.CenterID && existing.StationNumber == station.StationNumber {
			return domainerrors.DuplicateReferenceError{Keys: []string{entities.StationKey(station.CenterID, station.StationNumber)}}
		}
	}
	st.stations[station.StationID] = station
	return nil
}

func (st *state) SaveBallot(_ context.Context, ballot entities.Ballot) error {
	for id, existing := range st.ballots {
		if id != ballot.BallotID && existing.TallyID == ballot.TallyID && existing.Number == ballot.Number {
			return domainerrors.DuplicateReferenceError{Keys: []string{entities.BallotKey(ballot.Number)}}
		}
	}
	st.ballots[ballot.BallotID] = ballot
	return nil
}

func (st *state) AppendComment(_ context.Context, comment entities.Comment) error {
	st.comments = append(st.comments, comment)
	return nil
}

func (st *state) ListComments(_ context.Context, tallyID string, kind entities.EntityKind, entityID string) ([]entities.Comment, error) {
	items := make([]entities.Comment, 0)
	for _, comment := range st.comments {
		if comment.TallyID == tallyID && comment.EntityKind == kind && comment.EntityID == entityID {
			items = append(items, comment)
		}
	}
	return items, nil
}

// ImportReferenceBatch checks every unique key against the stored rows
// before writing anything.
func (st *state) ImportReferenceBatch(_ context.Context, batch entities.ReferenceBatch) error {
	var clashes []string
	for _, center := range batch.Centers {
		for _, existing := range st.centers {
			if existing.TallyID == batch.TallyID && existing.Code == center.Code {
				clashes = append(clashes, entities.CenterKey(center.Code))
			}
		}
	}
	for _, station := range batch.Stations {
		for _, existing := range st.stations {
			if existing.CenterID == station.CenterID && existing.StationNumber == station.StationNumber {
				clashes = append(clashes, entities.StationKey(station.CenterID, station.StationNumber))
			}
		}
	}
	for _, ballot := range batch.Ballots {
		for _, existing := range st.ballots {
			if existing.TallyID == batch.TallyID && existing.Number == ballot.Number {
				clashes = append(clashes, entities.BallotKey(ballot.Number))
			}
		}
	}
	for _, form := range batch.ResultForms {
		for _, existing := range st.forms {
			if existing.TallyID == batch.TallyID && existing.Barcode == form.Barcode {
				clashes = append(clashes, entities.BarcodeKey(form.Barcode))
			}
		}
	}
	if len(clashes) > 0 {
		sort.Strings(clashes)
		return domainerrors.DuplicateReferenceError{Keys: clashes}
	}

	for _, item := range batch.Regions {
		item.TallyID = batch.TallyID
		st.regions[item.RegionID] = item
	}
	for _, item := range batch.Offices {
		item.TallyID = batch.TallyID
		st.offices[item.OfficeID] = item
	}
	for _, item := range batch.Constituencies {
		item.TallyID = batch.TallyID
		st.constituencies[item.ConstituencyID] = item
	}
	for _, item := range batch.SubConstituencies {
		item.TallyID = batch.TallyID
		st.subConstituencies[item.SubConstituencyID] = item
	}
	for _, item := range batch.ElectrolRaces {
		item.TallyID = batch.TallyID
		st.races[item.ElectrolRaceID] = item
	}
	for _, item := range batch.Centers {
		st.centers[item.CenterID] = item
	}
	for _, item := range batch.Stations {
		st.stations[item.StationID] = item
	}
	for _, item := range batch.Ballots {
		st.ballots[item.BallotID] = item
	}
	for _, item := range batch.Candidates {
		st.candidates[item.CandidateID] = item
	}
	for _, item := range batch.ResultForms {
		st.forms[item.ResultFormID] = copyForm(item)
	}
	return nil
}

func (st *state) ListQuarantineChecks(_ context.Context) ([]entities.QuarantineCheck, error) {
	items := make([]entities.QuarantineCheck, 0, len(st.checks))
	for _, check := range st.checks {
		items = append(items, check)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Method < items[j].Method })
	return items, nil
}

func (st *state) GetQuarantineCheck(_ context.Context, checkID string) (entities.QuarantineCheck, error) {
	check, ok := st.checks[checkID]
	if !ok {
		return entities.QuarantineCheck{}, domainerrors.ErrNotFound
	}
	return check, nil
}

func (st *state) SaveQuarantineCheck(_ context.Context, check entities.QuarantineCheck) error {
	for id, existing := range st.checks {
		if id != check.QuarantineCheckID && existing.Method == check.Method {
			return domainerrors.ErrConflict
		}
	}
	st.checks[check.QuarantineCheckID] = check
	return nil
}

func sortCandidates(items []entities.Candidate) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].BallotID != items[j].BallotID {
			return items[i].BallotID < items[j].BallotID
		}
		if items[i].Order != items[j].Order {
			return items[i].Order < items[j].Order
		}
		return items[i].CandidateID < items[j].CandidateID
	})
}
