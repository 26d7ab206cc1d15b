package entities

import "time"

type ActionPrior string

const (
	ActionPriorEmpty                       ActionPrior = ""
	ActionPriorRequestCopyFromField        ActionPrior = "request_copy_from_field"
	ActionPriorRequestAuditActionFromField ActionPrior = "request_audit_action_from_field"
	ActionPriorPendingAdvice               ActionPrior = "pending_advice"
	ActionPriorNoneRequired                ActionPrior = "none_required"
)

func (a ActionPrior) Valid() bool {
	switch a {
	case ActionPriorEmpty,
		ActionPriorRequestCopyFromField,
		ActionPriorRequestAuditActionFromField,
		ActionPriorPendingAdvice,
		ActionPriorNoneRequired:
		return true
	default:
		return false
	}
}

type ClearanceResolution string

const (
	ClearanceResolutionEmpty               ClearanceResolution = ""
	ClearanceResolutionPendingFieldInput   ClearanceResolution = "pending_field_input"
	ClearanceResolutionPassToAdministrator ClearanceResolution = "pass_to_administrator"
	ClearanceResolutionResetToPreintake    ClearanceResolution = "reset_to_preintake"
)

func (r ClearanceResolution) Valid() bool {
	switch r {
	case ClearanceResolutionEmpty,
		ClearanceResolutionPendingFieldInput,
		ClearanceResolutionPassToAdministrator,
		ClearanceResolutionResetToPreintake:
		return true
	default:
		return false
	}
}

type AuditResolution string

const (
	AuditResolutionEmpty                   AuditResolution = ""
	AuditResolutionNoProblemToDE1          AuditResolution = "no_problem_to_de_1"
	AuditResolutionClarifiedFiguresToDE1   AuditResolution = "clarified_figures_to_de_1"
	AuditResolutionOtherCorrectionToDE1    AuditResolution = "other_correction_to_de_1"
	AuditResolutionMakeAvailableForArchive AuditResolution = "make_available_for_archive"
)

func (r AuditResolution) Valid() bool {
	switch r {
	case AuditResolutionEmpty,
		AuditResolutionNoProblemToDE1,
		AuditResolutionClarifiedFiguresToDE1,
		AuditResolutionOtherCorrectionToDE1,
		AuditResolutionMakeAvailableForArchive:
		return true
	default:
		return false
	}
}

// Attachment describes a scanned document kept by the external file store.
type Attachment struct {
	Name      string `json:"name"`
	SizeBytes int64  `json:"size_bytes"`
	StoredAt  string `json:"stored_at,omitempty"`
}

type ClearanceProblems struct {
	CenterNameMissing                bool
	CenterNameMismatching            bool
	CenterCodeMissing                bool
	CenterCodeMismatching            bool
	FormAlreadyInSystem              bool
	FormIncorrectlyEnteredIntoSystem bool
	Other                            string
}

func (p ClearanceProblems) Any() bool {
	return p.CenterNameMissing ||
		p.CenterNameMismatching ||
		p.CenterCodeMissing ||
		p.CenterCodeMismatching ||
		p.FormAlreadyInSystem ||
		p.FormIncorrectlyEnteredIntoSystem ||
		p.Other != ""
}

type Clearance struct {
	ClearanceID              string
	ResultFormID             string
	TallyID                  string
	UserID                   string
	SupervisorID             string
	Active                   bool
	ReviewedTeam             bool
	ReviewedSupervisor       bool
	Problems                 ClearanceProblems
	ActionPrior              ActionPrior
	ResolutionRecommendation ClearanceResolution
	TeamComment              string
	SupervisorComment        string
	Attachment               *Attachment
	DateTeamModified         *time.Time
	DateSupervisorModified   *time.Time
	CreatedAt                time.Time
	UpdatedAt                time.Time
}

type AuditProblems struct {
	BlankReconciliation bool
	BlankResults        bool
	DamagedForm         bool
	UnclearFigures      bool
	Other               string
}

type Audit struct {
	AuditID                  string
	ResultFormID             string
	TallyID                  string
	UserID                   string
	SupervisorID             string
	Active                   bool
	ForSuperadmin            bool
	ReviewedTeam             bool
	ReviewedSupervisor       bool
	QuarantineCheckIDs       []string
	Problems                 AuditProblems
	ActionPrior              ActionPrior
	ResolutionRecommendation AuditResolution
	TeamComment              string
	SupervisorComment        string
	Attachment               *Attachment
	DateTeamModified         *time.Time
	DateSupervisorModified   *time.Time
	CreatedAt                time.Time
	UpdatedAt                time.Time
}

// AttachCheck records a failing quarantine check once.
func (a *Audit) AttachCheck(checkID string) {
	for _, existing := range a.QuarantineCheckIDs {
		if existing == checkID {
			return
		}
	}
	a.QuarantineCheckIDs = append(append([]string(nil), a.QuarantineCheckIDs...), checkID)
}
