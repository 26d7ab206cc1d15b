package httpadapter

import (
	"context"
	"strings"

	"tally/contexts/results-processing/result-form-service/application/commands"
	"tally/contexts/results-processing/result-form-service/domain/entities"
	httptransport "tally/contexts/results-processing/result-form-service/transport/http"
)

func (h Handler) GetCenterHandler(ctx context.Context, tallyID string, code int) (httptransport.CenterResponse, error) {
	center, err := h.Reference.ResolveCenter(ctx, tallyID, code)
	if err != nil {
		return httptransport.CenterResponse{}, err
	}
	return mapCenter(center), nil
}

func (h Handler) ListStationsHandler(ctx context.Context, tallyID string, code int) (httptransport.StationListResponse, error) {
	stations, err := h.Reference.ListStations(ctx, tallyID, code)
	if err != nil {
		return httptransport.StationListResponse{}, err
	}
	items := make([]httptransport.StationResponse, 0, len(stations))
	for _, station := range stations {
		items = append(items, mapStation(station))
	}
	return httptransport.StationListResponse{Items: items}, nil
}

func (h Handler) GetBallotHandler(ctx context.Context, tallyID string, number int) (httptransport.BallotResponse, error) {
	ballot, err := h.Reference.GetBallot(ctx, tallyID, number)
	if err != nil {
		return httptransport.BallotResponse{}, err
	}
	return mapBallot(ballot), nil
}

func (h Handler) ListCandidatesHandler(ctx context.Context, tallyID string, number int) (httptransport.CandidateListResponse, error) {
	candidates, err := h.Reference.ListCandidates(ctx, tallyID, number)
	if err != nil {
		return httptransport.CandidateListResponse{}, err
	}
	items := make([]httptransport.CandidateResponse, 0, len(candidates))
	for _, candidate := range candidates {
		items = append(items, mapCandidate(candidate))
	}
	return httptransport.CandidateListResponse{Items: items}, nil
}

func (h Handler) CommentsHandler(ctx context.Context, tallyID string, kind string, entityID string) (httptransport.CommentListResponse, error) {
	comments, err := h.Reference.Comments(ctx, tallyID, entities.EntityKind(strings.ToLower(kind)), entityID)
	if err != nil {
		return httptransport.CommentListResponse{}, err
	}
	items := make([]httptransport.CommentResponse, 0, len(comments))
	for _, comment := range comments {
		items = append(items, httptransport.CommentResponse{
			CommentID: comment.CommentID,
			Text:      comment.Text,
			ActorID:   comment.ActorID,
			CreatedAt: comment.CreatedAt,
		})
	}
	return httptransport.CommentListResponse{Items: items}, nil
}

func (h Handler) StationProgressHandler(ctx context.Context, tallyID string, code int, stationNumber int) (httptransport.StationProgressResponse, error) {
	progress, err := h.Reference.StationProgress(ctx, tallyID, code, stationNumber)
	if err != nil {
		return httptransport.StationProgressResponse{}, err
	}
	return httptransport.StationProgressResponse{
		CenterCode:      progress.CenterCode,
		StationNumber:   progress.StationNumber,
		FormsTotal:      progress.FormsTotal,
		FormsReceived:   progress.FormsReceived,
		FormsArchived:   progress.FormsArchived,
		PercentReceived: progress.PercentReceived,
		PercentArchived: progress.PercentArchived,
		ComputedAt:      progress.ComputedAt,
	}, nil
}

func (h Handler) SetCenterEnabledHandler(
	ctx context.Context,
	caller httptransport.Caller,
	tallyID string,
	code int,
	req httptransport.ToggleRequest,
) (httptransport.CenterResponse, error) {
	center, err := h.ReferenceAdmin.SetCenterEnabled(ctx, commands.SetCenterEnabledCommand{
		Actor:      actorOf(caller),
		TallyID:    tallyID,
		CenterCode: code,
		Enabled:    req.Enabled,
		Reason:     entities.DisableReason(strings.ToLower(req.Reason)),
		Comment:    req.Comment,
	})
	if err != nil {
		return httptransport.CenterResponse{}, err
	}
	return mapCenter(center), nil
}

func (h Handler) RenameCenterHandler(
	ctx context.Context,
	caller httptransport.Caller,
	tallyID string,
	code int,
	req httptransport.RenameCenterRequest,
) (httptransport.CenterResponse, error) {
	center, err := h.ReferenceAdmin.RenameCenter(ctx, commands.RenameCenterCommand{
		Actor:      actorOf(caller),
		TallyID:    tallyID,
		CenterCode: code,
		Name:       req.Name,
		Comment:    req.Comment,
	})
	if err != nil {
		return httptransport.CenterResponse{}, err
	}
	return mapCenter(center), nil
}

func (h Handler) SetStationEnabledHandler(
	ctx context.Context,
	caller httptransport.Caller,
	tallyID string,
	code int,
	stationNumber int,
	req httptransport.ToggleRequest,
) (httptransport.StationResponse, error) {
	station, err := h.ReferenceAdmin.SetStationEnabled(ctx, commands.SetStationEnabledCommand{
		Actor:         actorOf(caller),
		TallyID:       tallyID,
		CenterCode:    code,
		StationNumber: stationNumber,
		Enabled:       req.Enabled,
		Reason:        entities.DisableReason(strings.ToLower(req.Reason)),
		Comment:       req.Comment,
	})
	if err != nil {
		return httptransport.StationResponse{}, err
	}
	return mapStation(station), nil
}

func (h Handler) SetBallotEnabledHandler(
	ctx context.Context,
	caller httptransport.Caller,
	tallyID string,
	number int,
	req httptransport.ToggleRequest,
) (httptransport.BallotResponse, error) {
	ballot, err := h.ReferenceAdmin.SetBallotEnabled(ctx, commands.SetBallotEnabledCommand{
		Actor:        actorOf(caller),
		TallyID:      tallyID,
		BallotNumber: number,
		Enabled:      req.Enabled,
		Reason:       entities.DisableReason(strings.ToLower(req.Reason)),
		Comment:      req.Comment,
	})
	if err != nil {
		return httptransport.BallotResponse{}, err
	}
	return mapBallot(ballot), nil
}

func (h Handler) ImportReferenceHandler(
	ctx context.Context,
	caller httptransport.Caller,
	tallyID string,
	req httptransport.ImportReferenceRequest,
) error {
	return h.ReferenceAdmin.Import(ctx, commands.ImportReferenceDataCommand{
		Actor: actorOf(caller),
		Batch: referenceBatchFromDTO(tallyID, req),
	})
}

func (h Handler) ListQuarantineChecksHandler(ctx context.Context) (httptransport.QuarantineCheckListResponse, error) {
	checks, err := h.Reference.QuarantineChecks(ctx)
	if err != nil {
		return httptransport.QuarantineCheckListResponse{}, err
	}
	items := make([]httptransport.QuarantineCheckResponse, 0, len(checks))
	for _, check := range checks {
		items = append(items, mapCheck(check))
	}
	return httptransport.QuarantineCheckListResponse{Items: items}, nil
}

func (h Handler) UpdateQuarantineCheckHandler(
	ctx context.Context,
	caller httptransport.Caller,
	checkID string,
	req httptransport.UpdateQuarantineCheckRequest,
) (httptransport.QuarantineCheckResponse, error) {
	check, err := h.CheckAdmin.Update(ctx, commands.UpdateQuarantineCheckCommand{
		Actor:      actorOf(caller),
		CheckID:    checkID,
		Value:      req.Value,
		Percentage: req.Percentage,
		Active:     req.Active,
	})
	if err != nil {
		return httptransport.QuarantineCheckResponse{}, err
	}
	return mapCheck(check), nil
}

func referenceBatchFromDTO(tallyID string, req httptransport.ImportReferenceRequest) entities.ReferenceBatch {
	batch := entities.ReferenceBatch{TallyID: strings.TrimSpace(tallyID)}
	for _, item := range req.Regions {
		batch.Regions = append(batch.Regions, entities.Region{RegionID: item.RegionID, Name: item.Name})
	}
	for _, item := range req.Offices {
		batch.Offices = append(batch.Offices, entities.Office{
			OfficeID: item.OfficeID,
			RegionID: item.RegionID,
			Number:   item.Number,
			Name:     item.Name,
		})
	}
	for _, item := range req.Constituencies {
		batch.Constituencies = append(batch.Constituencies, entities.Constituency{
			ConstituencyID: item.ConstituencyID,
			Code:           item.Code,
			Name:           item.Name,
		})
	}
	for _, item := range req.SubConstituencies {
		batch.SubConstituencies = append(batch.SubConstituencies, entities.SubConstituency{
			SubConstituencyID: item.SubConstituencyID,
			ConstituencyID:    item.ConstituencyID,
			Code:              item.Code,
			Name:              item.Name,
		})
	}
	for _, item := range req.ElectrolRaces {
		batch.ElectrolRaces = append(batch.ElectrolRaces, entities.ElectrolRace{
			ElectrolRaceID: item.ElectrolRaceID,
			ElectionLevel:  item.ElectionLevel,
			BallotName:     item.BallotName,
		})
	}
	for _, item := range req.Centers {
		batch.Centers = append(batch.Centers, entities.Center{
			CenterID:          item.CenterID,
			Code:              item.Code,
			Name:              item.Name,
			OfficeID:          item.OfficeID,
			SubConstituencyID: item.SubConstituencyID,
			Village:           item.Village,
			Latitude:          item.Latitude,
			Longitude:         item.Longitude,
		})
	}
	for _, item := range req.Stations {
		batch.Stations = append(batch.Stations, entities.Station{
			StationID:     item.StationID,
			CenterID:      item.CenterID,
			StationNumber: item.StationNumber,
			Gender:        entities.Gender(strings.ToLower(item.Gender)),
			Registrants:   item.Registrants,
		})
	}
	for _, item := range req.Ballots {
		batch.Ballots = append(batch.Ballots, entities.Ballot{
			BallotID:            item.BallotID,
			Number:              item.Number,
			ElectrolRaceID:      item.ElectrolRaceID,
			AvailableForRelease: item.AvailableForRelease,
		})
	}
	for _, item := range req.Candidates {
		batch.Candidates = append(batch.Candidates, entities.Candidate{
			CandidateID: item.CandidateID,
			BallotID:    item.BallotID,
			Order:       item.Order,
			FullName:    item.FullName,
			RaceType:    entities.RaceType(strings.ToLower(item.RaceType)),
		})
	}
	for _, item := range req.ResultForms {
		batch.ResultForms = append(batch.ResultForms, entities.ResultForm{
			ResultFormID:  item.ResultFormID,
			Barcode:       item.Barcode,
			SerialNumber:  item.SerialNumber,
			CenterID:      item.CenterID,
			StationNumber: item.StationNumber,
			BallotID:      item.BallotID,
			Gender:        entities.Gender(strings.ToLower(item.Gender)),
			Name:          item.Name,
			Office:        item.Office,
			IsReplacement: item.IsReplacement,
		})
	}
	return batch
}
