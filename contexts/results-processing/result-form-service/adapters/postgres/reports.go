package postgresadapter

import (
	"context"
	"errors"
	"time"

	"tally/contexts/results-processing/result-form-service/domain/entities"
	domainerrors "tally/contexts/results-processing/result-form-service/domain/errors"
	"tally/contexts/results-processing/result-form-service/ports"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ListFinalSheets loads the matching forms and then their FINAL rows and
// reference lookups in a handful of IN queries.
func (r *Repository) ListFinalSheets(ctx context.Context, filter entities.ReportFilter, states []entities.FormState) ([]entities.FinalSheet, error) {
	if len(states) == 0 {
		return []entities.FinalSheet{}, nil
	}
	db := r.db.WithContext(ctx)
	query := db.Where("tally_id = ? AND form_state IN ?", filter.TallyID, stateNames(states))
	if filter.BallotID != "" {
		query = query.Where("ballot_id = ?", filter.BallotID)
	}
	var forms []resultFormModel
	if err := query.Order("barcode ASC").Find(&forms).Error; err != nil {
		return nil, r.logError("tally_repo_list_final_sheets_failed", err, "tally_id", filter.TallyID)
	}
	if len(forms) == 0 {
		return []entities.FinalSheet{}, nil
	}

	formIDs := make([]string, 0, len(forms))
	centerIDs := make([]string, 0, len(forms))
	for _, form := range forms {
		formIDs = append(formIDs, form.ID)
		if form.CenterID != "" {
			centerIDs = append(centerIDs, form.CenterID)
		}
	}

	var results []resultModel
	if err := db.Where("result_form_id IN ? AND entry_version = ? AND active", formIDs, string(entities.EntryVersionFinal)).
		Order("candidate_id ASC").
		Find(&results).Error; err != nil {
		return nil, r.logError("tally_repo_list_final_results_failed", err, "tally_id", filter.TallyID)
	}
	var recons []reconciliationModel
	if err := db.Where("result_form_id IN ? AND entry_version = ? AND active", formIDs, string(entities.EntryVersionFinal)).
		Find(&recons).Error; err != nil {
		return nil, r.logError("tally_repo_list_final_reconciliation_failed", err, "tally_id", filter.TallyID)
	}

	locator, err := r.newLocator(ctx, filter.TallyID, centerIDs)
	if err != nil {
		return nil, err
	}

	resultsByForm := map[string][]entities.Result{}
	for _, row := range results {
		resultsByForm[row.ResultFormID] = append(resultsByForm[row.ResultFormID], row.toEntity())
	}
	reconByForm := map[string]entities.ReconciliationForm{}
	for _, row := range recons {
		reconByForm[row.ResultFormID] = row.toEntity()
	}

	sheets := make([]entities.FinalSheet, 0, len(forms))
	for _, row := range forms {
		form := row.toEntity()
		sheet := entities.FinalSheet{
			Form:        form,
			Location:    locator.locate(form),
			Registrants: locator.registrants(form),
			Results:     resultsByForm[form.ResultFormID],
		}
		if recon, ok := reconByForm[form.ResultFormID]; ok {
			sheet.Reconciliation = &recon
		}
		sheets = append(sheets, sheet)
	}
	return sheets, nil
}

type locator struct {
	centers     map[string]centerModel
	officeToReg map[string]string
	subToCons   map[string]string
	stations    map[string]map[int]*int
}

func (r *Repository) newLocator(ctx context.Context, tallyID string, centerIDs []string) (locator, error) {
	out := locator{
		centers:     map[string]centerModel{},
		officeToReg: map[string]string{},
		subToCons:   map[string]string{},
		stations:    map[string]map[int]*int{},
	}
	if len(centerIDs) == 0 {
		return out, nil
	}
	db := r.db.WithContext(ctx)

	var centers []centerModel
	if err := db.Where("id IN ?", centerIDs).Find(&centers).Error; err != nil {
		return locator{}, r.logError("tally_repo_locate_centers_failed", err, "tally_id", tallyID)
	}
	for _, center := range centers {
		out.centers[center.ID] = center
	}

	var offices []officeModel
	if err := db.Where("tally_id = ?", tallyID).Find(&offices).Error; err != nil {
		return locator{}, r.logError("tally_repo_locate_offices_failed", err, "tally_id", tallyID)
	}
	for _, office := range offices {
		out.officeToReg[office.ID] = office.RegionID
	}

	var subs []subConstituencyModel
	if err := db.Where("tally_id = ?", tallyID).Find(&subs).Error; err != nil {
		return locator{}, r.logError("tally_repo_locate_sub_constituencies_failed", err, "tally_id", tallyID)
	}
	for _, sub := range subs {
		out.subToCons[sub.ID] = sub.ConstituencyID
	}

	var stations []stationModel
	if err := db.Where("center_id IN ?", centerIDs).Find(&stations).Error; err != nil {
		return locator{}, r.logError("tally_repo_locate_stations_failed", err, "tally_id", tallyID)
	}
	for _, station := range stations {
		if out.stations[station.CenterID] == nil {
			out.stations[station.CenterID] = map[int]*int{}
		}
		out.stations[station.CenterID][station.StationNumber] = station.Registrants
	}
	return out, nil
}

func (l locator) locate(form entities.ResultForm) entities.FormLocation {
	location := entities.FormLocation{
		ResultFormID:  form.ResultFormID,
		BallotID:      form.BallotID,
		CenterID:      form.CenterID,
		StationNumber: form.StationNumber,
	}
	center, ok := l.centers[form.CenterID]
	if !ok {
		return location
	}
	location.CenterCode = center.Code
	location.OfficeID = center.OfficeID
	location.SubConstituencyID = center.SubConstituencyID
	location.RegionID = l.officeToReg[center.OfficeID]
	location.ConstituencyID = l.subToCons[center.SubConstituencyID]
	return location
}

func (l locator) registrants(form entities.ResultForm) *int {
	return l.stations[form.CenterID][form.StationNumber]
}

func (r *Repository) ListTallyCandidates(ctx context.Context, tallyID string) ([]entities.Candidate, error) {
	var rows []candidateModel
	if err := r.db.WithContext(ctx).
		Where("tally_id = ?", tallyID).
		Order("ballot_id ASC, sort_order ASC, id ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("tally_repo_list_tally_candidates_failed", err, "tally_id", tallyID)
	}
	return candidatesFromRows(rows), nil
}

func (r *Repository) CountFormsPerBallot(ctx context.Context, tallyID string) (map[string]int, error) {
	var rows []struct {
		BallotID string
		Forms    int
	}
	if err := r.db.WithContext(ctx).
		Model(&resultFormModel{}).
		Select("ballot_id, COUNT(*) AS forms").
		Where("tally_id = ? AND ballot_id <> ''", tallyID).
		Group("ballot_id").
		Scan(&rows).Error; err != nil {
		return nil, r.logError("tally_repo_count_forms_per_ballot_failed", err, "tally_id", tallyID)
	}
	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.BallotID] = row.Forms
	}
	return counts, nil
}

func (r *Repository) AreaNames(ctx context.Context, tallyID string, kind entities.AreaKind) (map[string]string, error) {
	var model any
	switch kind {
	case entities.AreaKindRegion:
		model = &regionModel{}
	case entities.AreaKindOffice:
		model = &officeModel{}
	case entities.AreaKindConstituency:
		model = &constituencyModel{}
	case entities.AreaKindSubConstituency:
		model = &subConstituencyModel{}
	case entities.AreaKindCenter:
		model = &centerModel{}
	default:
		return nil, domainerrors.Invalid("unknown area kind %q", kind)
	}
	var rows []struct {
		ID   string
		Name string
	}
	if err := r.db.WithContext(ctx).
		Model(model).
		Select("id, name").
		Where("tally_id = ?", tallyID).
		Scan(&rows).Error; err != nil {
		return nil, r.logError("tally_repo_area_names_failed", err,
			"tally_id", tallyID,
			"area_kind", string(kind),
		)
	}
	names := make(map[string]string, len(rows))
	for _, row := range rows {
		names[row.ID] = row.Name
	}
	return names, nil
}

func (r *Repository) CenterCodes(ctx context.Context, tallyID string) (map[string]int, error) {
	var rows []centerModel
	if err := r.db.WithContext(ctx).
		Select("id", "code").
		Where("tally_id = ?", tallyID).
		Find(&rows).Error; err != nil {
		return nil, r.logError("tally_repo_center_codes_failed", err, "tally_id", tallyID)
	}
	codes := make(map[string]int, len(rows))
	for _, row := range rows {
		codes[row.ID] = row.Code
	}
	return codes, nil
}

func (r *Repository) ListDisabledCenters(ctx context.Context, tallyID string) ([]entities.DisabledCenter, error) {
	var rows []centerModel
	if err := r.db.WithContext(ctx).
		Where("tally_id = ? AND NOT active", tallyID).
		Order("code ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("tally_repo_list_disabled_centers_failed", err, "tally_id", tallyID)
	}
	items := make([]entities.DisabledCenter, 0, len(rows))
	for _, row := range rows {
		items = append(items, entities.DisabledCenter{
			CenterID:      row.ID,
			CenterCode:    row.Code,
			Name:          row.Name,
			DisableReason: entities.DisableReason(row.DisableReason),
		})
	}
	return items, nil
}

func (r *Repository) ListDisabledStations(ctx context.Context, tallyID string) ([]entities.DisabledStation, error) {
	var rows []struct {
		CenterID      string
		CenterCode    int
		StationNumber int
		DisableReason string
	}
	if err := r.db.WithContext(ctx).
		Table("stations").
		Select("stations.center_id, COALESCE(centers.code, 0) AS center_code, stations.station_number, stations.disable_reason").
		Joins("LEFT JOIN centers ON centers.id = stations.center_id").
		Where("stations.tally_id = ? AND NOT stations.active", tallyID).
		Order("center_code ASC, stations.station_number ASC").
		Scan(&rows).Error; err != nil {
		return nil, r.logError("tally_repo_list_disabled_stations_failed", err, "tally_id", tallyID)
	}
	items := make([]entities.DisabledStation, 0, len(rows))
	for _, row := range rows {
		items = append(items, entities.DisabledStation{
			CenterID:      row.CenterID,
			CenterCode:    row.CenterCode,
			StationNumber: row.StationNumber,
			DisableReason: entities.DisableReason(row.DisableReason),
		})
	}
	return items, nil
}

func (r *Repository) ReplaceCandidateProjection(ctx context.Context, projection entities.CandidateProjection) error {
	row := candidateProjectionModel{
		TallyID:     projection.TallyID,
		Totals:      encodeJSON(projection.Totals),
		RefreshedAt: projection.RefreshedAt.UTC(),
	}
	if row.Totals == nil {
		row.Totals = []byte("[]")
	}
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "tally_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"totals":       row.Totals,
			"refreshed_at": row.RefreshedAt,
		}),
	}).Create(&row)
	if create.Error != nil {
		return r.logError("tally_repo_replace_candidate_projection_failed", create.Error, "tally_id", projection.TallyID)
	}
	return nil
}

// GetCandidateProjection treats a missing projection table like a missing
// row, so reads work before the first migration.
func (r *Repository) GetCandidateProjection(ctx context.Context, tallyID string) (entities.CandidateProjection, error) {
	var row candidateProjectionModel
	err := r.db.WithContext(ctx).Where("tally_id = ?", tallyID).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) || isUndefinedTable(err) {
			return entities.CandidateProjection{}, domainerrors.ErrNotFound
		}
		return entities.CandidateProjection{}, r.logError("tally_repo_get_candidate_projection_failed", err, "tally_id", tallyID)
	}
	projection := entities.CandidateProjection{
		TallyID:     row.TallyID,
		RefreshedAt: row.RefreshedAt.UTC(),
	}
	decodeJSON(row.Totals, &projection.Totals)
	return projection, nil
}

func (r *Repository) GetStationProgress(ctx context.Context, tallyID string, centerCode int, stationNumber int) (entities.StationProgress, bool, error) {
	var rows []stationProgressModel
	if err := r.db.WithContext(ctx).
		Where("tally_id = ? AND center_code = ? AND station_number = ?", tallyID, centerCode, stationNumber).
		Limit(1).
		Find(&rows).Error; err != nil {
		if isUndefinedTable(err) {
			return entities.StationProgress{}, false, nil
		}
		return entities.StationProgress{}, false, r.logError("tally_repo_get_station_progress_failed", err,
			"tally_id", tallyID,
			"center_code", centerCode,
			"station_number", stationNumber,
		)
	}
	if len(rows) == 0 {
		return entities.StationProgress{}, false, nil
	}
	row := rows[0]
	return entities.StationProgress{
		TallyID:         row.TallyID,
		CenterCode:      row.CenterCode,
		StationNumber:   row.StationNumber,
		FormsTotal:      row.FormsTotal,
		FormsReceived:   row.FormsReceived,
		FormsArchived:   row.FormsArchived,
		PercentReceived: row.PercentReceived,
		PercentArchived: row.PercentArchived,
		ComputedAt:      row.ComputedAt.UTC(),
	}, true, nil
}

func (r *Repository) SaveStationProgress(ctx context.Context, progress entities.StationProgress) error {
	row := stationProgressModel{
		TallyID:         progress.TallyID,
		CenterCode:      progress.CenterCode,
		StationNumber:   progress.StationNumber,
		FormsTotal:      progress.FormsTotal,
		FormsReceived:   progress.FormsReceived,
		FormsArchived:   progress.FormsArchived,
		PercentReceived: progress.PercentReceived,
		PercentArchived: progress.PercentArchived,
		ComputedAt:      progress.ComputedAt.UTC(),
	}
	if row.ComputedAt.IsZero() {
		row.ComputedAt = time.Now().UTC()
	}
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "tally_id"}, {Name: "center_code"}, {Name: "station_number"}},
		DoUpdates: clause.Assignments(map[string]any{
			"forms_total":      row.FormsTotal,
			"forms_received":   row.FormsReceived,
			"forms_archived":   row.FormsArchived,
			"percent_received": row.PercentReceived,
			"percent_archived": row.PercentArchived,
			"computed_at":      row.ComputedAt,
		}),
	}).Create(&row)
	if create.Error != nil {
		return r.logError("tally_repo_save_station_progress_failed", create.Error,
			"tally_id", progress.TallyID,
			"center_code", progress.CenterCode,
			"station_number", progress.StationNumber,
		)
	}
	return nil
}

func (r *Repository) CountStationForms(ctx context.Context, tallyID string, centerID string, stationNumber int) (int, int, int, error) {
	var counts struct {
		Total    int
		Received int
		Archived int
	}
	if err := r.db.WithContext(ctx).
		Model(&resultFormModel{}).
		Select(
			"COUNT(*) AS total, "+
				"COUNT(*) FILTER (WHERE form_state <> ?) AS received, "+
				"COUNT(*) FILTER (WHERE form_state = ?) AS archived",
			string(entities.FormStateUnsubmitted),
			string(entities.FormStateArchived),
		).
		Where("tally_id = ? AND center_id = ? AND station_number = ?", tallyID, centerID, stationNumber).
		Scan(&counts).Error; err != nil {
		return 0, 0, 0, r.logError("tally_repo_count_station_forms_failed", err,
			"tally_id", tallyID,
			"center_id", centerID,
			"station_number", stationNumber,
		)
	}
	return counts.Total, counts.Received, counts.Archived, nil
}

var _ ports.ReportReader = (*Repository)(nil)
var _ ports.ProjectionStore = (*Repository)(nil)
var _ ports.StationProgressStore = (*Repository)(nil)
