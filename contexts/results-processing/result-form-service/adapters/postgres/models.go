package postgresadapter

import (
	"encoding/json"
	"time"

	"tally/contexts/results-processing/result-form-service/domain/entities"

	"gorm.io/datatypes"
)

type resultFormModel struct {
	ID                   string         `gorm:"column:id;primaryKey"`
	TallyID              string         `gorm:"column:tally_id;uniqueIndex:idx_result_forms_barcode,priority:1;index"`
	Barcode              string         `gorm:"column:barcode;uniqueIndex:idx_result_forms_barcode,priority:2"`
	SerialNumber         string         `gorm:"column:serial_number"`
	CenterID             string         `gorm:"column:center_id;index:idx_result_forms_slot,priority:1"`
	StationNumber        int            `gorm:"column:station_number;index:idx_result_forms_slot,priority:2"`
	BallotID             string         `gorm:"column:ballot_id;index:idx_result_forms_slot,priority:3"`
	Name                 string         `gorm:"column:name"`
	Office               string         `gorm:"column:office"`
	Gender               string         `gorm:"column:gender"`
	FormState            string         `gorm:"column:form_state;index"`
	PreviousFormState    string         `gorm:"column:previous_form_state"`
	UserID               string         `gorm:"column:user_id"`
	CreatedUserID        string         `gorm:"column:created_user_id"`
	IsReplacement        bool           `gorm:"column:is_replacement"`
	SkipQuarantineChecks bool           `gorm:"column:skip_quarantine_checks"`
	DuplicateReviewed    bool           `gorm:"column:duplicate_reviewed"`
	FormStamped          *bool          `gorm:"column:form_stamped"`
	AuditedCount         int            `gorm:"column:audited_count"`
	RejectedCount        int            `gorm:"column:rejected_count"`
	RejectReason         string         `gorm:"column:reject_reason"`
	ReopenedSections     datatypes.JSON `gorm:"column:reopened_sections;type:jsonb"`
	IntakePrinted        bool           `gorm:"column:intake_printed"`
	ClearancePrinted     bool           `gorm:"column:clearance_printed"`
	HasEverHadResults    bool           `gorm:"column:has_ever_had_results"`
	DateSeen             *time.Time     `gorm:"column:date_seen"`
	CreatedAt            time.Time      `gorm:"column:created_at"`
	UpdatedAt            time.Time      `gorm:"column:updated_at"`
}

func (resultFormModel) TableName() string {
	return "result_forms"
}

func resultFormModelFromEntity(form entities.ResultForm) resultFormModel {
	row := resultFormModel{
		ID:                   form.ResultFormID,
		TallyID:              form.TallyID,
		Barcode:              form.Barcode,
		SerialNumber:         form.SerialNumber,
		CenterID:             form.CenterID,
		StationNumber:        form.StationNumber,
		BallotID:             form.BallotID,
		Name:                 form.Name,
		Office:               form.Office,
		Gender:               string(form.Gender),
		FormState:            string(form.FormState),
		PreviousFormState:    string(form.PreviousFormState),
		UserID:               form.UserID,
		CreatedUserID:        form.CreatedUserID,
		IsReplacement:        form.IsReplacement,
		SkipQuarantineChecks: form.SkipQuarantineChecks,
		DuplicateReviewed:    form.DuplicateReviewed,
		FormStamped:          form.FormStamped,
		AuditedCount:         form.AuditedCount,
		RejectedCount:        form.RejectedCount,
		RejectReason:         form.RejectReason,
		ReopenedSections:     encodeJSON(form.ReopenedSections),
		IntakePrinted:        form.IntakePrinted,
		ClearancePrinted:     form.ClearancePrinted,
		HasEverHadResults:    form.HasEverHadResults,
		DateSeen:             normalizeOptionalTime(form.DateSeen),
		CreatedAt:            form.CreatedAt.UTC(),
		UpdatedAt:            form.UpdatedAt.UTC(),
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = row.CreatedAt
	}
	return row
}

func (m resultFormModel) toEntity() entities.ResultForm {
	var sections []entities.Section
	decodeJSON(m.ReopenedSections, &sections)
	return entities.ResultForm{
		ResultFormID:         m.ID,
		TallyID:              m.TallyID,
		Barcode:              m.Barcode,
		SerialNumber:         m.SerialNumber,
		CenterID:             m.CenterID,
		StationNumber:        m.StationNumber,
		BallotID:             m.BallotID,
		Name:                 m.Name,
		Office:               m.Office,
		Gender:               entities.Gender(m.Gender),
		FormState:            entities.FormState(m.FormState),
		PreviousFormState:    entities.FormState(m.PreviousFormState),
		UserID:               m.UserID,
		CreatedUserID:        m.CreatedUserID,
		IsReplacement:        m.IsReplacement,
		SkipQuarantineChecks: m.SkipQuarantineChecks,
		DuplicateReviewed:    m.DuplicateReviewed,
		FormStamped:          m.FormStamped,
		AuditedCount:         m.AuditedCount,
		RejectedCount:        m.RejectedCount,
		RejectReason:         m.RejectReason,
		ReopenedSections:     sections,
		IntakePrinted:        m.IntakePrinted,
		ClearancePrinted:     m.ClearancePrinted,
		HasEverHadResults:    m.HasEverHadResults,
		DateSeen:             normalizeOptionalTime(m.DateSeen),
		CreatedAt:            m.CreatedAt.UTC(),
		UpdatedAt:            m.UpdatedAt.UTC(),
	}
}

// resultModel rows are never updated except to clear Active. The partial
// unique index keeps one active row per candidate and version.
type resultModel struct {
	ID           string    `gorm:"column:id;primaryKey"`
	ResultFormID string    `gorm:"column:result_form_id;index;uniqueIndex:idx_results_active_slot,priority:1,where:active"`
	CandidateID  string    `gorm:"column:candidate_id;uniqueIndex:idx_results_active_slot,priority:2,where:active"`
	EntryVersion string    `gorm:"column:entry_version;uniqueIndex:idx_results_active_slot,priority:3,where:active"`
	Votes        int       `gorm:"column:votes"`
	Active       bool      `gorm:"column:active"`
	UserID       string    `gorm:"column:user_id"`
	CreatedAt    time.Time `gorm:"column:created_at"`
}

func (resultModel) TableName() string {
	return "results"
}

func resultModelFromEntity(result entities.Result) resultModel {
	return resultModel{
		ID:           result.ResultID,
		ResultFormID: result.ResultFormID,
		CandidateID:  result.CandidateID,
		EntryVersion: string(result.EntryVersion),
		Votes:        result.Votes,
		Active:       result.Active,
		UserID:       result.UserID,
		CreatedAt:    result.CreatedAt.UTC(),
	}
}

func (m resultModel) toEntity() entities.Result {
	return entities.Result{
		ResultID:     m.ID,
		ResultFormID: m.ResultFormID,
		CandidateID:  m.CandidateID,
		Votes:        m.Votes,
		EntryVersion: entities.EntryVersion(m.EntryVersion),
		Active:       m.Active,
		UserID:       m.UserID,
		CreatedAt:    m.CreatedAt.UTC(),
	}
}

type reconciliationModel struct {
	ID           string         `gorm:"column:id;primaryKey"`
	ResultFormID string         `gorm:"column:result_form_id;index;uniqueIndex:idx_reconciliation_active_slot,priority:1,where:active"`
	EntryVersion string         `gorm:"column:entry_version;uniqueIndex:idx_reconciliation_active_slot,priority:2,where:active"`
	Active       bool           `gorm:"column:active"`
	UserID       string         `gorm:"column:user_id"`
	Values       datatypes.JSON `gorm:"column:field_values;type:jsonb"`
	CreatedAt    time.Time      `gorm:"column:created_at"`
}

func (reconciliationModel) TableName() string {
	return "reconciliation_forms"
}

func reconciliationModelFromEntity(recon entities.ReconciliationForm) reconciliationModel {
	return reconciliationModel{
		ID:           recon.ReconciliationFormID,
		ResultFormID: recon.ResultFormID,
		EntryVersion: string(recon.EntryVersion),
		Active:       recon.Active,
		UserID:       recon.UserID,
		Values:       encodeJSON(recon.Values),
		CreatedAt:    recon.CreatedAt.UTC(),
	}
}

func (m reconciliationModel) toEntity() entities.ReconciliationForm {
	values := entities.ReconValues{}
	decodeJSON(m.Values, &values)
	return entities.ReconciliationForm{
		ReconciliationFormID: m.ID,
		ResultFormID:         m.ResultFormID,
		EntryVersion:         entities.EntryVersion(m.EntryVersion),
		Active:               m.Active,
		UserID:               m.UserID,
		Values:               values,
		CreatedAt:            m.CreatedAt.UTC(),
	}
}

type clearanceModel struct {
	ID                               string         `gorm:"column:id;primaryKey"`
	ResultFormID                     string         `gorm:"column:result_form_id;index"`
	TallyID                          string         `gorm:"column:tally_id"`
	UserID                           string         `gorm:"column:user_id"`
	SupervisorID                     string         `gorm:"column:supervisor_id"`
	Active                           bool           `gorm:"column:active"`
	ReviewedTeam                     bool           `gorm:"column:reviewed_team"`
	ReviewedSupervisor               bool           `gorm:"column:reviewed_supervisor"`
	CenterNameMissing                bool           `gorm:"column:center_name_missing"`
	CenterNameMismatching            bool           `gorm:"column:center_name_mismatching"`
	CenterCodeMissing                bool           `gorm:"column:center_code_missing"`
	CenterCodeMismatching            bool           `gorm:"column:center_code_mismatching"`
	FormAlreadyInSystem              bool           `gorm:"column:form_already_in_system"`
	FormIncorrectlyEnteredIntoSystem bool           `gorm:"column:form_incorrectly_entered_into_system"`
	Other                            string         `gorm:"column:other"`
	ActionPrior                      string         `gorm:"column:action_prior"`
	ResolutionRecommendation         string         `gorm:"column:resolution_recommendation"`
	TeamComment                      string         `gorm:"column:team_comment"`
	SupervisorComment                string         `gorm:"column:supervisor_comment"`
	Attachment                       datatypes.JSON `gorm:"column:attachment;type:jsonb"`
	DateTeamModified                 *time.Time     `gorm:"column:date_team_modified"`
	DateSupervisorModified           *time.Time     `gorm:"column:date_supervisor_modified"`
	CreatedAt                        time.Time      `gorm:"column:created_at"`
	UpdatedAt                        time.Time      `gorm:"column:updated_at"`
}

func (clearanceModel) TableName() string {
	return "clearances"
}

func clearanceModelFromEntity(clearance entities.Clearance) clearanceModel {
	return clearanceModel{
		ID:                               clearance.ClearanceID,
		ResultFormID:                     clearance.ResultFormID,
		TallyID:                          clearance.TallyID,
		UserID:                           clearance.UserID,
		SupervisorID:                     clearance.SupervisorID,
		Active:                           clearance.Active,
		ReviewedTeam:                     clearance.ReviewedTeam,
		ReviewedSupervisor:               clearance.ReviewedSupervisor,
		CenterNameMissing:                clearance.Problems.CenterNameMissing,
		CenterNameMismatching:            clearance.Problems.CenterNameMismatching,
		CenterCodeMissing:                clearance.Problems.CenterCodeMissing,
		CenterCodeMismatching:            clearance.Problems.CenterCodeMismatching,
		FormAlreadyInSystem:              clearance.Problems.FormAlreadyInSystem,
		FormIncorrectlyEnteredIntoSystem: clearance.Problems.FormIncorrectlyEnteredIntoSystem,
		Other:                            clearance.Problems.Other,
		ActionPrior:                      string(clearance.ActionPrior),
		ResolutionRecommendation:         string(clearance.ResolutionRecommendation),
		TeamComment:                      clearance.TeamComment,
		SupervisorComment:                clearance.SupervisorComment,
		Attachment:                       encodeAttachment(clearance.Attachment),
		DateTeamModified:                 normalizeOptionalTime(clearance.DateTeamModified),
		DateSupervisorModified:           normalizeOptionalTime(clearance.DateSupervisorModified),
		CreatedAt:                        clearance.CreatedAt.UTC(),
		UpdatedAt:                        clearance.UpdatedAt.UTC(),
	}
}

func (m clearanceModel) toEntity() entities.Clearance {
	return entities.Clearance{
		ClearanceID:        m.ID,
		ResultFormID:       m.ResultFormID,
		TallyID:            m.TallyID,
		UserID:             m.UserID,
		SupervisorID:       m.SupervisorID,
		Active:             m.Active,
		ReviewedTeam:       m.ReviewedTeam,
		ReviewedSupervisor: m.ReviewedSupervisor,
		Problems: entities.ClearanceProblems{
			CenterNameMissing:                m.CenterNameMissing,
			CenterNameMismatching:            m.CenterNameMismatching,
			CenterCodeMissing:                m.CenterCodeMissing,
			CenterCodeMismatching:            m.CenterCodeMismatching,
			FormAlreadyInSystem:              m.FormAlreadyInSystem,
			FormIncorrectlyEnteredIntoSystem: m.FormIncorrectlyEnteredIntoSystem,
			Other:                            m.Other,
		},
		ActionPrior:              entities.ActionPrior(m.ActionPrior),
		ResolutionRecommendation: entities.ClearanceResolution(m.ResolutionRecommendation),
		TeamComment:              m.TeamComment,
		SupervisorComment:        m.SupervisorComment,
		Attachment:               decodeAttachment(m.Attachment),
		DateTeamModified:         normalizeOptionalTime(m.DateTeamModified),
		DateSupervisorModified:   normalizeOptionalTime(m.DateSupervisorModified),
		CreatedAt:                m.CreatedAt.UTC(),
		UpdatedAt:                m.UpdatedAt.UTC(),
	}
}

type auditModel struct {
	ID                       string         `gorm:"column:id;primaryKey"`
	ResultFormID             string         `gorm:"column:result_form_id;index"`
	TallyID                  string         `gorm:"column:tally_id"`
	UserID                   string         `gorm:"column:user_id"`
	SupervisorID             string         `gorm:"column:supervisor_id"`
	Active                   bool           `gorm:"column:active"`
	ForSuperadmin            bool           `gorm:"column:for_superadmin"`
	ReviewedTeam             bool           `gorm:"column:reviewed_team"`
	ReviewedSupervisor       bool           `gorm:"column:reviewed_supervisor"`
	QuarantineCheckIDs       datatypes.JSON `gorm:"column:quarantine_check_ids;type:jsonb"`
	BlankReconciliation      bool           `gorm:"column:blank_reconciliation"`
	BlankResults             bool           `gorm:"column:blank_results"`
	DamagedForm              bool           `gorm:"column:damaged_form"`
	UnclearFigures           bool           `gorm:"column:unclear_figures"`
	Other                    string         `gorm:"column:other"`
	ActionPrior              string         `gorm:"column:action_prior"`
	ResolutionRecommendation string         `gorm:"column:resolution_recommendation"`
	TeamComment              string         `gorm:"column:team_comment"`
	SupervisorComment        string         `gorm:"column:supervisor_comment"`
	Attachment               datatypes.JSON `gorm:"column:attachment;type:jsonb"`
	DateTeamModified         *time.Time     `gorm:"column:date_team_modified"`
	DateSupervisorModified   *time.Time     `gorm:"column:date_supervisor_modified"`
	CreatedAt                time.Time      `gorm:"column:created_at"`
	UpdatedAt                time.Time      `gorm:"column:updated_at"`
}

func (auditModel) TableName() string {
	return "audits"
}

func auditModelFromEntity(audit entities.Audit) auditModel {
	return auditModel{
		ID:                       audit.AuditID,
		ResultFormID:             audit.ResultFormID,
		TallyID:                  audit.TallyID,
		UserID:                   audit.UserID,
		SupervisorID:             audit.SupervisorID,
		Active:                   audit.Active,
		ForSuperadmin:            audit.ForSuperadmin,
		ReviewedTeam:             audit.ReviewedTeam,
		ReviewedSupervisor:       audit.ReviewedSupervisor,
		QuarantineCheckIDs:       encodeJSON(audit.QuarantineCheckIDs),
		BlankReconciliation:      audit.Problems.BlankReconciliation,
		BlankResults:             audit.Problems.BlankResults,
		DamagedForm:              audit.Problems.DamagedForm,
		UnclearFigures:           audit.Problems.UnclearFigures,
		Other:                    audit.Problems.Other,
		ActionPrior:              string(audit.ActionPrior),
		ResolutionRecommendation: string(audit.ResolutionRecommendation),
		TeamComment:              audit.TeamComment,
		SupervisorComment:        audit.SupervisorComment,
		Attachment:               encodeAttachment(audit.Attachment),
		DateTeamModified:         normalizeOptionalTime(audit.DateTeamModified),
		DateSupervisorModified:   normalizeOptionalTime(audit.DateSupervisorModified),
		CreatedAt:                audit.CreatedAt.UTC(),
		UpdatedAt:                audit.UpdatedAt.UTC(),
	}
}

func (m auditModel) toEntity() entities.Audit {
	var checkIDs []string
	decodeJSON(m.QuarantineCheckIDs, &checkIDs)
	return entities.Audit{
		AuditID:            m.ID,
		ResultFormID:       m.ResultFormID,
		TallyID:            m.TallyID,
		UserID:             m.UserID,
		SupervisorID:       m.SupervisorID,
		Active:             m.Active,
		ForSuperadmin:      m.ForSuperadmin,
		ReviewedTeam:       m.ReviewedTeam,
		ReviewedSupervisor: m.ReviewedSupervisor,
		QuarantineCheckIDs: checkIDs,
		Problems: entities.AuditProblems{
			BlankReconciliation: m.BlankReconciliation,
			BlankResults:        m.BlankResults,
			DamagedForm:         m.DamagedForm,
			UnclearFigures:      m.UnclearFigures,
			Other:               m.Other,
		},
		ActionPrior:              entities.ActionPrior(m.ActionPrior),
		ResolutionRecommendation: entities.AuditResolution(m.ResolutionRecommendation),
		TeamComment:              m.TeamComment,
		SupervisorComment:        m.SupervisorComment,
		Attachment:               decodeAttachment(m.Attachment),
		DateTeamModified:         normalizeOptionalTime(m.DateTeamModified),
		DateSupervisorModified:   normalizeOptionalTime(m.DateSupervisorModified),
		CreatedAt:                m.CreatedAt.UTC(),
		UpdatedAt:                m.UpdatedAt.UTC(),
	}
}

type qualityControlModel struct {
	ID                   string         `gorm:"column:id;primaryKey"`
	ResultFormID         string         `gorm:"column:result_form_id;index"`
	UserID               string         `gorm:"column:user_id"`
	PassedGeneral        *bool          `gorm:"column:passed_general"`
	PassedReconciliation *bool          `gorm:"column:passed_reconciliation"`
	PassedWomens         *bool          `gorm:"column:passed_womens"`
	FailedSections       datatypes.JSON `gorm:"column:failed_sections;type:jsonb"`
	Active               bool           `gorm:"column:active"`
	CreatedAt            time.Time      `gorm:"column:created_at"`
	UpdatedAt            time.Time      `gorm:"column:updated_at"`
}

func (qualityControlModel) TableName() string {
	return "quality_controls"
}

func qualityControlModelFromEntity(record entities.QualityControl) qualityControlModel {
	return qualityControlModel{
		ID:                   record.QualityControlID,
		ResultFormID:         record.ResultFormID,
		UserID:               record.UserID,
		PassedGeneral:        record.PassedGeneral,
		PassedReconciliation: record.PassedReconciliation,
		PassedWomens:         record.PassedWomens,
		FailedSections:       encodeJSON(record.FailedSections),
		Active:               record.Active,
		CreatedAt:            record.CreatedAt.UTC(),
		UpdatedAt:            record.UpdatedAt.UTC(),
	}
}

func (m qualityControlModel) toEntity() entities.QualityControl {
	var failed []entities.Section
	decodeJSON(m.FailedSections, &failed)
	return entities.QualityControl{
		QualityControlID:     m.ID,
		ResultFormID:         m.ResultFormID,
		UserID:               m.UserID,
		PassedGeneral:        m.PassedGeneral,
		PassedReconciliation: m.PassedReconciliation,
		PassedWomens:         m.PassedWomens,
		FailedSections:       failed,
		Active:               m.Active,
		CreatedAt:            m.CreatedAt.UTC(),
		UpdatedAt:            m.UpdatedAt.UTC(),
	}
}

type regionModel struct {
	ID      string `gorm:"column:id;primaryKey"`
	TallyID string `gorm:"column:tally_id;index"`
	Name    string `gorm:"column:name"`
}

func (regionModel) TableName() string {
	return "regions"
}

type officeModel struct {
	ID       string `gorm:"column:id;primaryKey"`
	TallyID  string `gorm:"column:tally_id;index"`
	RegionID string `gorm:"column:region_id"`
	Number   int    `gorm:"column:number"`
	Name     string `gorm:"column:name"`
}

func (officeModel) TableName() string {
	return "offices"
}

type constituencyModel struct {
	ID      string `gorm:"column:id;primaryKey"`
	TallyID string `gorm:"column:tally_id;index"`
	Code    int    `gorm:"column:code"`
	Name    string `gorm:"column:name"`
}

func (constituencyModel) TableName() string {
	return "constituencies"
}

type subConstituencyModel struct {
	ID             string `gorm:"column:id;primaryKey"`
	TallyID        string `gorm:"column:tally_id;index"`
	ConstituencyID string `gorm:"column:constituency_id"`
	Code           int    `gorm:"column:code"`
	Name           string `gorm:"column:name"`
}

func (subConstituencyModel) TableName() string {
	return "sub_constituencies"
}

type electrolRaceModel struct {
	ID            string `gorm:"column:id;primaryKey"`
	TallyID       string `gorm:"column:tally_id;index"`
	ElectionLevel string `gorm:"column:election_level"`
	BallotName    string `gorm:"column:ballot_name"`
}

func (electrolRaceModel) TableName() string {
	return "electrol_races"
}

type centerModel struct {
	ID                string    `gorm:"column:id;primaryKey"`
	TallyID           string    `gorm:"column:tally_id;uniqueIndex:idx_centers_code,priority:1"`
	Code              int       `gorm:"column:code;uniqueIndex:idx_centers_code,priority:2"`
	Name              string    `gorm:"column:name"`
	OfficeID          string    `gorm:"column:office_id"`
	SubConstituencyID string    `gorm:"column:sub_constituency_id"`
	Village           string    `gorm:"column:village"`
	Latitude          *float64  `gorm:"column:latitude"`
	Longitude         *float64  `gorm:"column:longitude"`
	Active            bool      `gorm:"column:active"`
	DisableReason     string    `gorm:"column:disable_reason"`
	UpdatedAt         time.Time `gorm:"column:updated_at"`
}

func (centerModel) TableName() string {
	return "centers"
}

func centerModelFromEntity(center entities.Center) centerModel {
	return centerModel{
		ID:                center.CenterID,
		TallyID:           center.TallyID,
		Code:              center.Code,
		Name:              center.Name,
		OfficeID:          center.OfficeID,
		SubConstituencyID: center.SubConstituencyID,
		Village:           center.Village,
		Latitude:          center.Latitude,
		Longitude:         center.Longitude,
		Active:            center.Active,
		DisableReason:     string(center.DisableReason),
		UpdatedAt:         center.UpdatedAt.UTC(),
	}
}

func (m centerModel) toEntity() entities.Center {
	return entities.Center{
		CenterID:          m.ID,
		TallyID:           m.TallyID,
		Code:              m.Code,
		Name:              m.Name,
		OfficeID:          m.OfficeID,
		SubConstituencyID: m.SubConstituencyID,
		Village:           m.Village,
		Latitude:          m.Latitude,
		Longitude:         m.Longitude,
		Active:            m.Active,
		DisableReason:     entities.DisableReason(m.DisableReason),
		UpdatedAt:         m.UpdatedAt.UTC(),
	}
}

type stationModel struct {
	ID            string    `gorm:"column:id;primaryKey"`
	TallyID       string    `gorm:"column:tally_id;index"`
	CenterID      string    `gorm:"column:center_id;uniqueIndex:idx_stations_number,priority:1"`
	StationNumber int       `gorm:"column:station_number;uniqueIndex:idx_stations_number,priority:2"`
	Gender        string    `gorm:"column:gender"`
	Registrants   *int      `gorm:"column:registrants"`
	Active        bool      `gorm:"column:active"`
	DisableReason string    `gorm:"column:disable_reason"`
	UpdatedAt     time.Time `gorm:"column:updated_at"`
}

func (stationModel) TableName() string {
	return "stations"
}

func stationModelFromEntity(station entities.Station) stationModel {
	return stationModel{
		ID:            station.StationID,
		TallyID:       station.TallyID,
		CenterID:      station.CenterID,
		StationNumber: station.StationNumber,
		Gender:        string(station.Gender),
		Registrants:   station.Registrants,
		Active:        station.Active,
		DisableReason: string(station.DisableReason),
		UpdatedAt:     station.UpdatedAt.UTC(),
	}
}

func (m stationModel) toEntity() entities.Station {
	return entities.Station{
		StationID:     m.ID,
		TallyID:       m.TallyID,
		CenterID:      m.CenterID,
		StationNumber: m.StationNumber,
		Gender:        entities.Gender(m.Gender),
		Registrants:   m.Registrants,
		Active:        m.Active,
		DisableReason: entities.DisableReason(m.DisableReason),
		UpdatedAt:     m.UpdatedAt.UTC(),
	}
}

type ballotModel struct {
	ID                  string    `gorm:"column:id;primaryKey"`
	TallyID             string    `gorm:"column:tally_id;uniqueIndex:idx_ballots_number,priority:1"`
	Number              int       `gorm:"column:number;uniqueIndex:idx_ballots_number,priority:2"`
	ElectrolRaceID      string    `gorm:"column:electrol_race_id"`
	Active              bool      `gorm:"column:active"`
	AvailableForRelease bool      `gorm:"column:available_for_release"`
	DisableReason       string    `gorm:"column:disable_reason"`
	UpdatedAt           time.Time `gorm:"column:updated_at"`
}

func (ballotModel) TableName() string {
	return "ballots"
}

func ballotModelFromEntity(ballot entities.Ballot) ballotModel {
	return ballotModel{
		ID:                  ballot.BallotID,
		TallyID:             ballot.TallyID,
		Number:              ballot.Number,
		ElectrolRaceID:      ballot.ElectrolRaceID,
		Active:              ballot.Active,
		AvailableForRelease: ballot.AvailableForRelease,
		DisableReason:       string(ballot.DisableReason),
		UpdatedAt:           ballot.UpdatedAt.UTC(),
	}
}

func (m ballotModel) toEntity() entities.Ballot {
	return entities.Ballot{
		BallotID:            m.ID,
		TallyID:             m.TallyID,
		Number:              m.Number,
		ElectrolRaceID:      m.ElectrolRaceID,
		Active:              m.Active,
		AvailableForRelease: m.AvailableForRelease,
		DisableReason:       entities.DisableReason(m.DisableReason),
		UpdatedAt:           m.UpdatedAt.UTC(),
	}
}

type candidateModel struct {
	ID       string `gorm:"column:id;primaryKey"`
	TallyID  string `gorm:"column:tally_id;index"`
	BallotID string `gorm:"column:ballot_id;index"`
	Order    int    `gorm:"column:sort_order"`
	FullName string `gorm:"column:full_name"`
	RaceType string `gorm:"column:race_type"`
	Active   bool   `gorm:"column:active"`
}

func (candidateModel) TableName() string {
	return "candidates"
}

func (m candidateModel) toEntity() entities.Candidate {
	return entities.Candidate{
		CandidateID: m.ID,
		TallyID:     m.TallyID,
		BallotID:    m.BallotID,
		Order:       m.Order,
		FullName:    m.FullName,
		RaceType:    entities.RaceType(m.RaceType),
		Active:      m.Active,
	}
}

type commentModel struct {
	ID         string    `gorm:"column:id;primaryKey"`
	TallyID    string    `gorm:"column:tally_id;index:idx_comments_entity,priority:1"`
	EntityKind string    `gorm:"column:entity_kind;index:idx_comments_entity,priority:2"`
	EntityID   string    `gorm:"column:entity_id;index:idx_comments_entity,priority:3"`
	Text       string    `gorm:"column:text"`
	ActorID    string    `gorm:"column:actor_id"`
	CreatedAt  time.Time `gorm:"column:created_at"`
}

func (commentModel) TableName() string {
	return "comments"
}

type quarantineCheckModel struct {
	ID          string    `gorm:"column:id;primaryKey"`
	Name        string    `gorm:"column:name"`
	Method      string    `gorm:"column:method;uniqueIndex"`
	Description string    `gorm:"column:description"`
	Value       float64   `gorm:"column:value"`
	Percentage  float64   `gorm:"column:percentage"`
	Active      bool      `gorm:"column:active"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (quarantineCheckModel) TableName() string {
	return "quarantine_checks"
}

func (m quarantineCheckModel) toEntity() entities.QuarantineCheck {
	return entities.QuarantineCheck{
		QuarantineCheckID: m.ID,
		Name:              m.Name,
		Method:            m.Method,
		Description:       m.Description,
		Value:             m.Value,
		Percentage:        m.Percentage,
		Active:            m.Active,
		UpdatedAt:         m.UpdatedAt.UTC(),
	}
}

type stateChangeModel struct {
	ID           string    `gorm:"column:id;primaryKey"`
	TallyID      string    `gorm:"column:tally_id"`
	ResultFormID string    `gorm:"column:result_form_id;index"`
	FromState    string    `gorm:"column:from_state"`
	ToState      string    `gorm:"column:to_state"`
	Action       string    `gorm:"column:action"`
	ActorID      string    `gorm:"column:actor_id"`
	Reason       string    `gorm:"column:reason"`
	CreatedAt    time.Time `gorm:"column:created_at"`
}

func (stateChangeModel) TableName() string {
	return "result_form_state_changes"
}

type revisionModel struct {
	ID         string         `gorm:"column:id;primaryKey"`
	TallyID    string         `gorm:"column:tally_id;index:idx_revisions_entity,priority:1"`
	EntityKind string         `gorm:"column:entity_kind;index:idx_revisions_entity,priority:2"`
	EntityID   string         `gorm:"column:entity_id;index:idx_revisions_entity,priority:3"`
	Action     string         `gorm:"column:action"`
	ActorID    string         `gorm:"column:actor_id"`
	Snapshot   datatypes.JSON `gorm:"column:snapshot;type:jsonb"`
	CreatedAt  time.Time      `gorm:"column:created_at"`
}

func (revisionModel) TableName() string {
	return "revisions"
}

type outboxModel struct {
	OutboxID     string     `gorm:"column:outbox_id;primaryKey"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      []byte     `gorm:"column:payload"`
	Status       string     `gorm:"column:status;index"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	PublishedAt  *time.Time `gorm:"column:published_at"`
}

func (outboxModel) TableName() string {
	return "tally_outbox"
}

type candidateProjectionModel struct {
	TallyID     string         `gorm:"column:tally_id;primaryKey"`
	Totals      datatypes.JSON `gorm:"column:totals;type:jsonb"`
	RefreshedAt time.Time      `gorm:"column:refreshed_at"`
}

func (candidateProjectionModel) TableName() string {
	return "candidate_projections"
}

type stationProgressModel struct {
	TallyID         string    `gorm:"column:tally_id;primaryKey"`
	CenterCode      int       `gorm:"column:center_code;primaryKey"`
	StationNumber   int       `gorm:"column:station_number;primaryKey"`
	FormsTotal      int       `gorm:"column:forms_total"`
	FormsReceived   int       `gorm:"column:forms_received"`
	FormsArchived   int       `gorm:"column:forms_archived"`
	PercentReceived float64   `gorm:"column:percent_received"`
	PercentArchived float64   `gorm:"column:percent_archived"`
	ComputedAt      time.Time `gorm:"column:computed_at"`
}

func (stationProgressModel) TableName() string {
	return "station_progress"
}

// allModels is the migration set, ordered so referenced tables come first.
func allModels() []any {
	return []any{
		&regionModel{},
		&officeModel{},
		&constituencyModel{},
		&subConstituencyModel{},
		&electrolRaceModel{},
		&centerModel{},
		&stationModel{},
		&ballotModel{},
		&candidateModel{},
		&resultFormModel{},
		&resultModel{},
		&reconciliationModel{},
		&clearanceModel{},
		&auditModel{},
		&qualityControlModel{},
		&commentModel{},
		&quarantineCheckModel{},
		&stateChangeModel{},
		&revisionModel{},
		&outboxModel{},
		&candidateProjectionModel{},
		&stationProgressModel{},
	}
}

func encodeJSON(value any) datatypes.JSON {
	raw, err := json.Marshal(value)
	if err != nil || string(raw) == "null" {
		return nil
	}
	return datatypes.JSON(raw)
}

func decodeJSON(raw datatypes.JSON, target any) {
	if len(raw) == 0 {
		return
	}
	_ = json.Unmarshal(raw, target)
}

func encodeAttachment(attachment *entities.Attachment) datatypes.JSON {
	if attachment == nil {
		return nil
	}
	return encodeJSON(attachment)
}

func decodeAttachment(raw datatypes.JSON) *entities.Attachment {
	if len(raw) == 0 {
		return nil
	}
	var attachment entities.Attachment
	if err := json.Unmarshal(raw, &attachment); err != nil {
		return nil
	}
	return &attachment
}

func normalizeOptionalTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	timestamp := value.UTC()
	return &timestamp
}
