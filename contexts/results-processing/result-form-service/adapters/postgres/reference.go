package postgresadapter

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"tally/contexts/results-processing/result-form-service/domain/entities"
	domainerrors "tally/contexts/results-processing/result-form-service/domain/errors"
	"tally/contexts/results-processing/result-form-service/ports"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

func (r *Repository) GetCenter(ctx context.Context, tallyID string, centerID string) (entities.Center, error) {
	var row centerModel
	err := r.db.WithContext(ctx).
		Where("tally_id = ? AND id = ?", strings.TrimSpace(tallyID), strings.TrimSpace(centerID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Center{}, domainerrors.ErrNotFound
		}
		return entities.Center{}, r.logError("tally_repo_get_center_failed", err, "center_id", centerID)
	}
	return row.toEntity(), nil
}

func (r *Repository) GetCenterByCode(ctx context.Context, tallyID string, code int) (entities.Center, error) {
	var row centerModel
	err := r.db.WithContext(ctx).
		Where("tally_id = ? AND code = ?", strings.TrimSpace(tallyID), code).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Center{}, domainerrors.ErrNotFound
		}
		return entities.Center{}, r.logError("tally_repo_get_center_by_code_failed", err, "center_code", code)
	}
	return row.toEntity(), nil
}

func (r *Repository) ListStations(ctx context.Context, tallyID string, centerID string) ([]entities.Station, error) {
	var rows []stationModel
	if err := r.db.WithContext(ctx).
		Where("tally_id = ? AND center_id = ?", tallyID, centerID).
		Order("station_number ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("tally_repo_list_stations_failed", err, "center_id", centerID)
	}
	items := make([]entities.Station, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) GetStation(ctx context.Context, tallyID string, centerID string, stationNumber int) (entities.Station, error) {
	var row stationModel
	err := r.db.WithContext(ctx).
		Where("tally_id = ? AND center_id = ? AND station_number = ?", tallyID, centerID, stationNumber).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Station{}, domainerrors.ErrNotFound
		}
		return entities.Station{}, r.logError("tally_repo_get_station_failed", err,
			"center_id", centerID,
			"station_number", stationNumber,
		)
	}
	return row.toEntity(), nil
}

func (r *Repository) GetBallot(ctx context.Context, tallyID string, ballotID string) (entities.Ballot, error) {
	var row ballotModel
	err := r.db.WithContext(ctx).
		Where("tally_id = ? AND id = ?", strings.TrimSpace(tallyID), strings.TrimSpace(ballotID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Ballot{}, domainerrors.ErrNotFound
		}
		return entities.Ballot{}, r.logError("tally_repo_get_ballot_failed", err, "ballot_id", ballotID)
	}
	return row.toEntity(), nil
}

func (r *Repository) GetBallotByNumber(ctx context.Context, tallyID string, number int) (entities.Ballot, error) {
	var row ballotModel
	err := r.db.WithContext(ctx).
		Where("tally_id = ? AND number = ?", strings.TrimSpace(tallyID), number).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Ballot{}, domainerrors.ErrNotFound
		}
		return entities.Ballot{}, r.logError("tally_repo_get_ballot_by_number_failed", err, "ballot_number", number)
	}
	return row.toEntity(), nil
}

func (r *Repository) ListCandidates(ctx context.Context, tallyID string, ballotID string) ([]entities.Candidate, error) {
	var rows []candidateModel
	if err := r.db.WithContext(ctx).
		Where("tally_id = ? AND ballot_id = ?", tallyID, ballotID).
		Order("ballot_id ASC, sort_order ASC, id ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("tally_repo_list_candidates_failed", err, "ballot_id", ballotID)
	}
	return candidatesFromRows(rows), nil
}

func (r *Repository) SaveCenter(ctx context.Context, center entities.Center) error {
	row := centerModelFromEntity(center)
	if err := r.db.WithContext(ctx).Save(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.DuplicateReferenceError{Keys: []string{entities.CenterKey(center.Code)}}
		}
		return r.logError("tally_repo_save_center_failed", err, "center_id", center.CenterID)
	}
	return nil
}

func (r *Repository) SaveStation(ctx context.Context, station entities.Station) error {
	row := stationModelFromEntity(station)
	if err := r.db.WithContext(ctx).Save(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.DuplicateReferenceError{Keys: []string{entities.StationKey(station.CenterID, station.StationNumber)}}
		}
		return r.logError("tally_repo_save_station_failed", err, "station_id", station.StationID)
	}
	return nil
}

func (r *Repository) SaveBallot(ctx context.Context, ballot entities.Ballot) error {
	row := ballotModelFromEntity(ballot)
	if err := r.db.WithContext(ctx).Save(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.DuplicateReferenceError{Keys: []string{entities.BallotKey(ballot.Number)}}
		}
		return r.logError("tally_repo_save_ballot_failed", err, "ballot_id", ballot.BallotID)
	}
	return nil
}

func (r *Repository) AppendComment(ctx context.Context, comment entities.Comment) error {
	row := commentModel{
		ID:         comment.CommentID,
		TallyID:    comment.TallyID,
		EntityKind: string(comment.EntityKind),
		EntityID:   comment.EntityID,
		Text:       comment.Text,
		ActorID:    comment.ActorID,
		CreatedAt:  comment.CreatedAt.UTC(),
	}
	if row.ID == "" {
		row.ID = uuid.NewString()
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return r.logError("tally_repo_append_comment_failed", err,
			"entity_kind", string(comment.EntityKind),
			"entity_id", comment.EntityID,
		)
	}
	return nil
}

func (r *Repository) ListComments(ctx context.Context, tallyID string, kind entities.EntityKind, entityID string) ([]entities.Comment, error) {
	var rows []commentModel
	if err := r.db.WithContext(ctx).
		Where("tally_id = ? AND entity_kind = ? AND entity_id = ?", tallyID, string(kind), entityID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("tally_repo_list_comments_failed", err, "entity_id", entityID)
	}
	items := make([]entities.Comment, 0, len(rows))
	for _, row := range rows {
		items = append(items, entities.Comment{
			CommentID:  row.ID,
			TallyID:    row.TallyID,
			EntityKind: entities.EntityKind(row.EntityKind),
			EntityID:   row.EntityID,
			Text:       row.Text,
			ActorID:    row.ActorID,
			CreatedAt:  row.CreatedAt.UTC(),
		})
	}
	return items, nil
}

// ImportReferenceBatch looks for clashing unique keys first so the caller
// gets every collision at once, then inserts the batch in one transaction.
func (r *Repository) ImportReferenceBatch(ctx context.Context, batch entities.ReferenceBatch) error {
	clashes, err := r.referenceClashes(ctx, batch)
	if err != nil {
		return err
	}
	if len(clashes) > 0 {
		sort.Strings(clashes)
		return domainerrors.DuplicateReferenceError{Keys: clashes}
	}

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inserts := []struct {
			table string
			rows  any
			count int
		}{
			{"regions", regionRows(batch), len(batch.Regions)},
			{"offices", officeRows(batch), len(batch.Offices)},
			{"constituencies", constituencyRows(batch), len(batch.Constituencies)},
			{"sub_constituencies", subConstituencyRows(batch), len(batch.SubConstituencies)},
			{"electrol_races", raceRows(batch), len(batch.ElectrolRaces)},
			{"centers", centerRows(batch), len(batch.Centers)},
			{"stations", stationRows(batch), len(batch.Stations)},
			{"ballots", ballotRows(batch), len(batch.Ballots)},
			{"candidates", candidateRows(batch), len(batch.Candidates)},
			{"result_forms", resultFormRows(batch), len(batch.ResultForms)},
		}
		for _, insert := range inserts {
			if insert.count == 0 {
				continue
			}
			if err := tx.CreateInBatches(insert.rows, 500).Error; err != nil {
				if isUniqueViolation(err) {
					return domainerrors.DuplicateReferenceError{Keys: []string{insert.table}}
				}
				return r.logError("tally_repo_import_reference_failed", err,
					"tally_id", batch.TallyID,
					"table", insert.table,
				)
			}
		}
		return nil
	})
	return err
}

func (r *Repository) referenceClashes(ctx context.Context, batch entities.ReferenceBatch) ([]string, error) {
	db := r.db.WithContext(ctx)
	var clashes []string

	if len(batch.Centers) > 0 {
		codes := make([]int, 0, len(batch.Centers))
		for _, center := range batch.Centers {
			codes = append(codes, center.Code)
		}
		var existing []int
		if err := db.Model(&centerModel{}).
			Where("tally_id = ? AND code IN ?", batch.TallyID, codes).
			Pluck("code", &existing).Error; err != nil {
			return nil, r.logError("tally_repo_import_center_clash_failed", err, "tally_id", batch.TallyID)
		}
		for _, code := range existing {
			clashes = append(clashes, entities.CenterKey(code))
		}
	}

	if len(batch.Stations) > 0 {
		centerIDs := make([]string, 0, len(batch.Stations))
		wanted := map[string]bool{}
		for _, station := range batch.Stations {
			centerIDs = append(centerIDs, station.CenterID)
			wanted[entities.StationKey(station.CenterID, station.StationNumber)] = true
		}
		var existing []stationModel
		if err := db.Select("center_id", "station_number").
			Where("center_id IN ?", centerIDs).
			Find(&existing).Error; err != nil {
			return nil, r.logError("tally_repo_import_station_clash_failed", err, "tally_id", batch.TallyID)
		}
		for _, row := range existing {
			if key := entities.StationKey(row.CenterID, row.StationNumber); wanted[key] {
				clashes = append(clashes, key)
			}
		}
	}

	if len(batch.Ballots) > 0 {
		numbers := make([]int, 0, len(batch.Ballots))
		for _, ballot := range batch.Ballots {
			numbers = append(numbers, ballot.Number)
		}
		var existing []int
		if err := db.Model(&ballotModel{}).
			Where("tally_id = ? AND number IN ?", batch.TallyID, numbers).
			Pluck("number", &existing).Error; err != nil {
			return nil, r.logError("tally_repo_import_ballot_clash_failed", err, "tally_id", batch.TallyID)
		}
		for _, number := range existing {
			clashes = append(clashes, entities.BallotKey(number))
		}
	}

	if len(batch.ResultForms) > 0 {
		barcodes := make([]string, 0, len(batch.ResultForms))
		for _, form := range batch.ResultForms {
			barcodes = append(barcodes, form.Barcode)
		}
		var existing []string
		if err := db.Model(&resultFormModel{}).
			Where("tally_id = ? AND barcode IN ?", batch.TallyID, barcodes).
			Pluck("barcode", &existing).Error; err != nil {
			return nil, r.logError("tally_repo_import_barcode_clash_failed", err, "tally_id", batch.TallyID)
		}
		for _, barcode := range existing {
			clashes = append(clashes, entities.BarcodeKey(barcode))
		}
	}
	return clashes, nil
}

func (r *Repository) ListQuarantineChecks(ctx context.Context) ([]entities.QuarantineCheck, error) {
	var rows []quarantineCheckModel
	if err := r.db.WithContext(ctx).Order("method ASC").Find(&rows).Error; err != nil {
		return nil, r.logError("tally_repo_list_quarantine_checks_failed", err)
	}
	items := make([]entities.QuarantineCheck, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) GetQuarantineCheck(ctx context.Context, checkID string) (entities.QuarantineCheck, error) {
	var row quarantineCheckModel
	err := r.db.WithContext(ctx).Where("id = ?", strings.TrimSpace(checkID)).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.QuarantineCheck{}, domainerrors.ErrNotFound
		}
		return entities.QuarantineCheck{}, r.logError("tally_repo_get_quarantine_check_failed", err, "check_id", checkID)
	}
	return row.toEntity(), nil
}

func (r *Repository) SaveQuarantineCheck(ctx context.Context, check entities.QuarantineCheck) error {
	row := quarantineCheckModel{
		ID:          check.QuarantineCheckID,
		Name:        check.Name,
		Method:      check.Method,
		Description: check.Description,
		Value:       check.Value,
		Percentage:  check.Percentage,
		Active:      check.Active,
		UpdatedAt:   check.UpdatedAt.UTC(),
	}
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = time.Now().UTC()
	}
	if err := r.db.WithContext(ctx).Save(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrConflict
		}
		return r.logError("tally_repo_save_quarantine_check_failed", err, "method", check.Method)
	}
	return nil
}

func candidatesFromRows(rows []candidateModel) []entities.Candidate {
	items := make([]entities.Candidate, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items
}

func regionRows(batch entities.ReferenceBatch) *[]regionModel {
	rows := make([]regionModel, 0, len(batch.Regions))
	for _, item := range batch.Regions {
		rows = append(rows, regionModel{ID: item.RegionID, TallyID: batch.TallyID, Name: item.Name})
	}
	return &rows
}

func officeRows(batch entities.ReferenceBatch) *[]officeModel {
	rows := make([]officeModel, 0, len(batch.Offices))
	for _, item := range batch.Offices {
		rows = append(rows, officeModel{
			ID:       item.OfficeID,
			TallyID:  batch.TallyID,
			RegionID: item.RegionID,
			Number:   item.Number,
			Name:     item.Name,
		})
	}
	return &rows
}

func constituencyRows(batch entities.ReferenceBatch) *[]constituencyModel {
	rows := make([]constituencyModel, 0, len(batch.Constituencies))
	for _, item := range batch.Constituencies {
		rows = append(rows, constituencyModel{ID: item.ConstituencyID, TallyID: batch.TallyID, Code: item.Code, Name: item.Name})
	}
	return &rows
}

func subConstituencyRows(batch entities.ReferenceBatch) *[]subConstituencyModel {
	rows := make([]subConstituencyModel, 0, len(batch.SubConstituencies))
	for _, item := range batch.SubConstituencies {
		rows = append(rows, subConstituencyModel{
			ID:             item.SubConstituencyID,
			TallyID:        batch.TallyID,
			ConstituencyID: item.ConstituencyID,
			Code:           item.Code,
			Name:           item.Name,
		})
	}
	return &rows
}

func raceRows(batch entities.ReferenceBatch) *[]electrolRaceModel {
	rows := make([]electrolRaceModel, 0, len(batch.ElectrolRaces))
	for _, item := range batch.ElectrolRaces {
		rows = append(rows, electrolRaceModel{
			ID:            item.ElectrolRaceID,
			TallyID:       batch.TallyID,
			ElectionLevel: item.ElectionLevel,
			BallotName:    item.BallotName,
		})
	}
	return &rows
}

func centerRows(batch entities.ReferenceBatch) *[]centerModel {
	rows := make([]centerModel, 0, len(batch.Centers))
	for _, item := range batch.Centers {
		rows = append(rows, centerModelFromEntity(item))
	}
	return &rows
}

func stationRows(batch entities.ReferenceBatch) *[]stationModel {
	rows := make([]stationModel, 0, len(batch.Stations))
	for _, item := range batch.Stations {
		rows = append(rows, stationModelFromEntity(item))
	}
	return &rows
}

func ballotRows(batch entities.ReferenceBatch) *[]ballotModel {
	rows := make([]ballotModel, 0, len(batch.Ballots))
	for _, item := range batch.Ballots {
		rows = append(rows, ballotModelFromEntity(item))
	}
	return &rows
}

func candidateRows(batch entities.ReferenceBatch) *[]candidateModel {
	rows := make([]candidateModel, 0, len(batch.Candidates))
	for _, item := range batch.Candidates {
		rows = append(rows, candidateModel{
			ID:       item.CandidateID,
			TallyID:  item.TallyID,
			BallotID: item.BallotID,
			Order:    item.Order,
			FullName: item.FullName,
			RaceType: string(item.RaceType),
			Active:   item.Active,
		})
	}
	return &rows
}

func resultFormRows(batch entities.ReferenceBatch) *[]resultFormModel {
	rows := make([]resultFormModel, 0, len(batch.ResultForms))
	for _, item := range batch.ResultForms {
		rows = append(rows, resultFormModelFromEntity(item))
	}
	return &rows
}

var _ ports.ReferenceReader = (*Repository)(nil)
var _ ports.ReferenceWriter = (*Repository)(nil)
var _ ports.QuarantineCheckRepository = (*Repository)(nil)
