package http

import "time"

type ErrorResponse struct {
	Code    string   `json:"code"`
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
}

type ReceiveFormRequest struct {
	Barcode string `json:"barcode"`
}

type AssignCenterStationRequest struct {
	CenterCode    int `json:"center_code"`
	StationNumber int `json:"station_number"`
}

type ReasonRequest struct {
	Reason string `json:"reason"`
}

type CommentRequest struct {
	Comment string `json:"comment,omitempty"`
}

type ClearanceProblems struct {
	CenterNameMissing                bool   `json:"center_name_missing"`
	CenterNameMismatching            bool   `json:"center_name_mismatching"`
	CenterCodeMissing                bool   `json:"center_code_missing"`
	CenterCodeMismatching            bool   `json:"center_code_mismatching"`
	FormAlreadyInSystem              bool   `json:"form_already_in_system"`
	FormIncorrectlyEnteredIntoSystem bool   `json:"form_incorrectly_entered_into_system"`
	Other                            string `json:"other,omitempty"`
}

type AuditProblems struct {
	BlankReconciliation bool   `json:"blank_reconciliation"`
	BlankResults        bool   `json:"blank_results"`
	DamagedForm         bool   `json:"damaged_form"`
	UnclearFigures      bool   `json:"unclear_figures"`
	Other               string `json:"other,omitempty"`
}

type Attachment struct {
	Name      string `json:"name"`
	SizeBytes int64  `json:"size_bytes"`
	StoredAt  string `json:"stored_at,omitempty"`
}

type ReferToClearanceRequest struct {
	Problems ClearanceProblems `json:"problems"`
	Comment  string            `json:"comment,omitempty"`
}

type SetStateRequest struct {
	State  string `json:"state"`
	Reason string `json:"reason"`
}

type DuplicateReviewedRequest struct {
	Reviewed bool `json:"reviewed"`
}

// EntryRequest carries one data-entry or corrections sheet. Votes is keyed
// by candidate id, Reconciliation by field name.
type EntryRequest struct {
	Votes          map[string]int `json:"votes"`
	Reconciliation map[string]int `json:"reconciliation,omitempty"`
}

type EscalateToAuditRequest struct {
	Problems AuditProblems `json:"problems"`
	Comment  string        `json:"comment,omitempty"`
}

type QualityControlRequest struct {
	PassedGeneral        bool `json:"passed_general"`
	PassedReconciliation bool `json:"passed_reconciliation"`
	PassedWomens         bool `json:"passed_womens"`
}

type ClearanceReviewRequest struct {
	Problems       *ClearanceProblems `json:"problems,omitempty"`
	ActionPrior    string             `json:"action_prior,omitempty"`
	Recommendation string             `json:"recommendation,omitempty"`
	Comment        string             `json:"comment,omitempty"`
	Attachment     *Attachment        `json:"attachment,omitempty"`
	Forward        bool               `json:"forward"`
}

type AuditReviewRequest struct {
	Problems       *AuditProblems `json:"problems,omitempty"`
	ActionPrior    string         `json:"action_prior,omitempty"`
	Recommendation string         `json:"recommendation,omitempty"`
	Comment        string         `json:"comment,omitempty"`
	Attachment     *Attachment    `json:"attachment,omitempty"`
	Forward        bool           `json:"forward"`
}

type ResultFormResponse struct {
	ResultFormID         string     `json:"result_form_id"`
	TallyID              string     `json:"tally_id"`
	Barcode              string     `json:"barcode"`
	SerialNumber         string     `json:"serial_number,omitempty"`
	CenterID             string     `json:"center_id,omitempty"`
	StationNumber        int        `json:"station_number,omitempty"`
	BallotID             string     `json:"ballot_id,omitempty"`
	Gender               string     `json:"gender,omitempty"`
	FormState            string     `json:"form_state"`
	PreviousFormState    string     `json:"previous_form_state,omitempty"`
	UserID               string     `json:"user_id,omitempty"`
	IsReplacement        bool       `json:"is_replacement"`
	SkipQuarantineChecks bool       `json:"skip_quarantine_checks"`
	DuplicateReviewed    bool       `json:"duplicate_reviewed"`
	AuditedCount         int        `json:"audited_count"`
	RejectedCount        int        `json:"rejected_count"`
	RejectReason         string     `json:"reject_reason,omitempty"`
	ReopenedSections     []string   `json:"reopened_sections,omitempty"`
	DateSeen             *time.Time `json:"date_seen,omitempty"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

type ResultFormListResponse struct {
	Items []ResultFormResponse `json:"items"`
}

type ClearanceResponse struct {
	ClearanceID        string            `json:"clearance_id"`
	ResultFormID       string            `json:"result_form_id"`
	Active             bool              `json:"active"`
	ReviewedTeam       bool              `json:"reviewed_team"`
	ReviewedSupervisor bool              `json:"reviewed_supervisor"`
	Problems           ClearanceProblems `json:"problems"`
	ActionPrior        string            `json:"action_prior,omitempty"`
	Recommendation     string            `json:"recommendation,omitempty"`
	TeamComment        string            `json:"team_comment,omitempty"`
	SupervisorComment  string            `json:"supervisor_comment,omitempty"`
	Attachment         *Attachment       `json:"attachment,omitempty"`
}

type AuditResponse struct {
	AuditID            string        `json:"audit_id"`
	ResultFormID       string        `json:"result_form_id"`
	Active             bool          `json:"active"`
	ForSuperadmin      bool          `json:"for_superadmin"`
	ReviewedTeam       bool          `json:"reviewed_team"`
	ReviewedSupervisor bool          `json:"reviewed_supervisor"`
	QuarantineCheckIDs []string      `json:"quarantine_check_ids,omitempty"`
	Problems           AuditProblems `json:"problems"`
	ActionPrior        string        `json:"action_prior,omitempty"`
	Recommendation     string        `json:"recommendation,omitempty"`
	TeamComment        string        `json:"team_comment,omitempty"`
	SupervisorComment  string        `json:"supervisor_comment,omitempty"`
	Attachment         *Attachment   `json:"attachment,omitempty"`
}

type QualityControlResponse struct {
	QualityControlID     string   `json:"quality_control_id"`
	ResultFormID         string   `json:"result_form_id"`
	PassedGeneral        *bool    `json:"passed_general,omitempty"`
	PassedReconciliation *bool    `json:"passed_reconciliation,omitempty"`
	PassedWomens         *bool    `json:"passed_womens,omitempty"`
	FailedSections       []string `json:"failed_sections,omitempty"`
	Active               bool     `json:"active"`
}

type ResultFormDetailResponse struct {
	Form           ResultFormResponse      `json:"form"`
	Clearance      *ClearanceResponse      `json:"clearance,omitempty"`
	Audit          *AuditResponse          `json:"audit,omitempty"`
	QualityControl *QualityControlResponse `json:"quality_control,omitempty"`
}

type CandidateMismatch struct {
	CandidateID string `json:"candidate_id"`
	DataEntry1  int    `json:"data_entry_1"`
	DataEntry2  int    `json:"data_entry_2"`
}

type FieldMismatch struct {
	Field      string `json:"field"`
	DataEntry1 *int   `json:"data_entry_1,omitempty"`
	DataEntry2 *int   `json:"data_entry_2,omitempty"`
}

type ComparisonResponse struct {
	Matched    bool                `json:"matched"`
	Candidates []CandidateMismatch `json:"candidates,omitempty"`
	Fields     []FieldMismatch     `json:"fields,omitempty"`
}

type SecondEntryResponse struct {
	Form       ResultFormResponse `json:"form"`
	Comparison ComparisonResponse `json:"comparison"`
}

type CorrectionCandidateLine struct {
	CandidateID string `json:"candidate_id"`
	Section     string `json:"section"`
	DataEntry1  int    `json:"data_entry_1"`
	DataEntry2  int    `json:"data_entry_2"`
	Locked      bool   `json:"locked"`
	Value       *int   `json:"value,omitempty"`
}

type CorrectionFieldLine struct {
	Field      string `json:"field"`
	DataEntry1 *int   `json:"data_entry_1,omitempty"`
	DataEntry2 *int   `json:"data_entry_2,omitempty"`
	Locked     bool   `json:"locked"`
	Value      *int   `json:"value,omitempty"`
}

type CorrectionsResponse struct {
	Form       ResultFormResponse        `json:"form"`
	Comparison ComparisonResponse        `json:"comparison"`
	Candidates []CorrectionCandidateLine `json:"candidates"`
	Fields     []CorrectionFieldLine     `json:"fields"`
}

type CheckOutcome struct {
	CheckID string `json:"check_id"`
	Name    string `json:"name"`
	Method  string `json:"method"`
	Passed  bool   `json:"passed"`
}

type QualityControlResultResponse struct {
	Form           ResultFormResponse     `json:"form"`
	Review         QualityControlResponse `json:"review"`
	FailedChecks   []CheckOutcome         `json:"failed_checks,omitempty"`
	AuditRequested bool                   `json:"audit_requested"`
}

type StateChangeResponse struct {
	FromState string    `json:"from_state"`
	ToState   string    `json:"to_state"`
	Action    string    `json:"action"`
	ActorID   string    `json:"actor_id"`
	Reason    string    `json:"reason,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type StateHistoryResponse struct {
	Items []StateChangeResponse `json:"items"`
}

type RevisionResponse struct {
	RevisionID string    `json:"revision_id"`
	EntityKind string    `json:"entity_kind"`
	EntityID   string    `json:"entity_id"`
	Action     string    `json:"action"`
	ActorID    string    `json:"actor_id"`
	Snapshot   any       `json:"snapshot"`
	CreatedAt  time.Time `json:"created_at"`
}

type RevisionListResponse struct {
	Items []RevisionResponse `json:"items"`
}

type ToggleRequest struct {
	Enabled bool   `json:"enabled"`
	Reason  string `json:"reason,omitempty"`
	Comment string `json:"comment,omitempty"`
}

type RenameCenterRequest struct {
	Name    string `json:"name"`
	Comment string `json:"comment,omitempty"`
}

type CenterResponse struct {
	CenterID          string `json:"center_id"`
	Code              int    `json:"code"`
	Name              string `json:"name"`
	OfficeID          string `json:"office_id,omitempty"`
	SubConstituencyID string `json:"sub_constituency_id,omitempty"`
	Active            bool   `json:"active"`
	DisableReason     string `json:"disable_reason,omitempty"`
}

type StationResponse struct {
	StationID     string `json:"station_id"`
	CenterID      string `json:"center_id"`
	StationNumber int    `json:"station_number"`
	Gender        string `json:"gender,omitempty"`
	Registrants   *int   `json:"registrants,omitempty"`
	Active        bool   `json:"active"`
	DisableReason string `json:"disable_reason,omitempty"`
}

type StationListResponse struct {
	Items []StationResponse `json:"items"`
}

type BallotResponse struct {
	BallotID            string `json:"ballot_id"`
	Number              int    `json:"number"`
	ElectrolRaceID      string `json:"electrol_race_id,omitempty"`
	Active              bool   `json:"active"`
	AvailableForRelease bool   `json:"available_for_release"`
	DisableReason       string `json:"disable_reason,omitempty"`
}

type CandidateResponse struct {
	CandidateID string `json:"candidate_id"`
	BallotID    string `json:"ballot_id"`
	Order       int    `json:"order"`
	FullName    string `json:"full_name"`
	RaceType    string `json:"race_type"`
	Active      bool   `json:"active"`
}

type CandidateListResponse struct {
	Items []CandidateResponse `json:"items"`
}

type CommentResponse struct {
	CommentID string    `json:"comment_id"`
	Text      string    `json:"text"`
	ActorID   string    `json:"actor_id"`
	CreatedAt time.Time `json:"created_at"`
}

type CommentListResponse struct {
	Items []CommentResponse `json:"items"`
}

type StationProgressResponse struct {
	CenterCode      int       `json:"center_code"`
	StationNumber   int       `json:"station_number"`
	FormsTotal      int       `json:"forms_total"`
	FormsReceived   int       `json:"forms_received"`
	FormsArchived   int       `json:"forms_archived"`
	PercentReceived float64   `json:"percent_received"`
	PercentArchived float64   `json:"percent_archived"`
	ComputedAt      time.Time `json:"computed_at"`
}

type ImportRegion struct {
	RegionID string `json:"region_id"`
	Name     string `json:"name"`
}

type ImportOffice struct {
	OfficeID string `json:"office_id"`
	RegionID string `json:"region_id"`
	Number   int    `json:"number"`
	Name     string `json:"name"`
}

type ImportConstituency struct {
	ConstituencyID string `json:"constituency_id"`
	Code           int    `json:"code"`
	Name           string `json:"name"`
}

type ImportSubConstituency struct {
	SubConstituencyID string `json:"sub_constituency_id"`
	ConstituencyID    string `json:"constituency_id"`
	Code              int    `json:"code"`
	Name              string `json:"name"`
}

type ImportElectrolRace struct {
	ElectrolRaceID string `json:"electrol_race_id"`
	ElectionLevel  string `json:"election_level"`
	BallotName     string `json:"ballot_name"`
}

type ImportCenter struct {
	CenterID          string   `json:"center_id"`
	Code              int      `json:"code"`
	Name              string   `json:"name"`
	OfficeID          string   `json:"office_id,omitempty"`
	SubConstituencyID string   `json:"sub_constituency_id,omitempty"`
	Village           string   `json:"village,omitempty"`
	Latitude          *float64 `json:"latitude,omitempty"`
	Longitude         *float64 `json:"longitude,omitempty"`
}

type ImportStation struct {
	StationID     string `json:"station_id,omitempty"`
	CenterID      string `json:"center_id"`
	StationNumber int    `json:"station_number"`
	Gender        string `json:"gender,omitempty"`
	Registrants   *int   `json:"registrants,omitempty"`
}

type ImportBallot struct {
	BallotID            string `json:"ballot_id"`
	Number              int    `json:"number"`
	ElectrolRaceID      string `json:"electrol_race_id,omitempty"`
	AvailableForRelease bool   `json:"available_for_release"`
}

type ImportCandidate struct {
	CandidateID string `json:"candidate_id,omitempty"`
	BallotID    string `json:"ballot_id"`
	Order       int    `json:"order"`
	FullName    string `json:"full_name"`
	RaceType    string `json:"race_type"`
}

type ImportResultForm struct {
	ResultFormID  string `json:"result_form_id,omitempty"`
	Barcode       string `json:"barcode"`
	SerialNumber  string `json:"serial_number,omitempty"`
	CenterID      string `json:"center_id,omitempty"`
	StationNumber int    `json:"station_number,omitempty"`
	BallotID      string `json:"ballot_id,omitempty"`
	Gender        string `json:"gender,omitempty"`
	Name          string `json:"name,omitempty"`
	Office        string `json:"office,omitempty"`
	IsReplacement bool   `json:"is_replacement"`
}

type ImportReferenceRequest struct {
	Regions           []ImportRegion          `json:"regions,omitempty"`
	Offices           []ImportOffice          `json:"offices,omitempty"`
	Constituencies    []ImportConstituency    `json:"constituencies,omitempty"`
	SubConstituencies []ImportSubConstituency `json:"sub_constituencies,omitempty"`
	ElectrolRaces     []ImportElectrolRace    `json:"electrol_races,omitempty"`
	Centers           []ImportCenter          `json:"centers,omitempty"`
	Stations          []ImportStation         `json:"stations,omitempty"`
	Ballots           []ImportBallot          `json:"ballots,omitempty"`
	Candidates        []ImportCandidate       `json:"candidates,omitempty"`
	ResultForms       []ImportResultForm      `json:"result_forms,omitempty"`
}

type QuarantineCheckResponse struct {
	QuarantineCheckID string  `json:"quarantine_check_id"`
	Name              string  `json:"name"`
	Method            string  `json:"method"`
	Description       string  `json:"description,omitempty"`
	Value             float64 `json:"value"`
	Percentage        float64 `json:"percentage"`
	Active            bool    `json:"active"`
}

type QuarantineCheckListResponse struct {
	Items []QuarantineCheckResponse `json:"items"`
}

type UpdateQuarantineCheckRequest struct {
	Value      *float64 `json:"value,omitempty"`
	Percentage *float64 `json:"percentage,omitempty"`
	Active     *bool    `json:"active,omitempty"`
}

type CandidateTotalResponse struct {
	CandidateID          string  `json:"candidate_id"`
	BallotID             string  `json:"ballot_id"`
	FullName             string  `json:"full_name"`
	Order                int     `json:"order"`
	RaceType             string  `json:"race_type"`
	Votes                int64   `json:"votes"`
	QuarantineVotes      int64   `json:"quarantine_votes"`
	AllVotes             int64   `json:"all_votes"`
	StationsContributing int     `json:"stations_contributing"`
	CompletionPercent    float64 `json:"completion_percent"`
}

type CandidateTotalsResponse struct {
	TallyID     string                   `json:"tally_id"`
	RefreshedAt *time.Time               `json:"refreshed_at,omitempty"`
	Items       []CandidateTotalResponse `json:"items"`
}

type AreaTurnoutResponse struct {
	AreaKind          string  `json:"area_kind"`
	AreaID            string  `json:"area_id"`
	AreaName          string  `json:"area_name"`
	VotersVoted       int64   `json:"voters_voted"`
	Registrants       int64   `json:"registrants"`
	BallotsUsed       int64   `json:"ballots_used"`
	TurnoutPercentage float64 `json:"turnout_percentage"`
}

type AreaSummaryResponse struct {
	AreaKind        string `json:"area_kind"`
	AreaID          string `json:"area_id"`
	AreaName        string `json:"area_name"`
	ValidVotes      int64  `json:"valid_votes"`
	InvalidVotes    int64  `json:"invalid_votes"`
	CancelledVotes  int64  `json:"cancelled_votes"`
	FormsAggregated int    `json:"forms_aggregated"`
}

type AreaTurnoutListResponse struct {
	Items []AreaTurnoutResponse `json:"items"`
}

type AreaSummaryListResponse struct {
	Items []AreaSummaryResponse `json:"items"`
}

type DuplicateGroupResponse struct {
	CenterID      string   `json:"center_id"`
	CenterCode    int      `json:"center_code"`
	StationNumber int      `json:"station_number"`
	BallotID      string   `json:"ballot_id"`
	ResultFormIDs []string `json:"result_form_ids"`
	Barcodes      []string `json:"barcodes"`
	Reviewed      bool     `json:"reviewed"`
}

type DuplicateListResponse struct {
	Items []DuplicateGroupResponse `json:"items"`
}

type DisabledCenterResponse struct {
	CenterID      string `json:"center_id"`
	CenterCode    int    `json:"center_code"`
	Name          string `json:"name"`
	DisableReason string `json:"disable_reason,omitempty"`
}

type DisabledStationResponse struct {
	CenterID      string `json:"center_id"`
	CenterCode    int    `json:"center_code"`
	StationNumber int    `json:"station_number"`
	DisableReason string `json:"disable_reason,omitempty"`
}

type DiscrepanciesResponse struct {
	DisabledCenters  []DisabledCenterResponse  `json:"disabled_centers"`
	DisabledStations []DisabledStationResponse `json:"disabled_stations"`
	FormsInAudit     []ResultFormResponse      `json:"forms_in_audit"`
}

// ReportExportResponse bundles every aggregate of a tally, computed
// concurrently from one request.
type ReportExportResponse struct {
	TallyID       string                   `json:"tally_id"`
	Candidates    []CandidateTotalResponse `json:"candidates"`
	Turnout       []AreaTurnoutResponse    `json:"turnout"`
	Summary       []AreaSummaryResponse    `json:"summary"`
	Duplicates    []DuplicateGroupResponse `json:"duplicates"`
	Discrepancies DiscrepanciesResponse    `json:"discrepancies"`
}

// Caller is the identity taken from the X-User-Id and X-User-Roles
// headers. Roles is comma separated.
type Caller struct {
	UserID string
	Roles  string
}
