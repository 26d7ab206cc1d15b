package workflow

import (
	"sort"

	"tally/contexts/results-processing/result-form-service/domain/entities"
)

// Action names one clerical operation. Role requirements attach to actions,
// and transition edges list the actions allowed to drive them.
type Action string

const (
	ActionIntakeReceive          Action = "intake.receive"
	ActionIntakeReferToClearance Action = "intake.refer_to_clearance"
	ActionIntakeReject           Action = "intake.reject"
	ActionIntakeConfirm          Action = "intake.confirm"
	ActionAssignCenterStation    Action = "registry.assign_center_station"
	ActionSetState               Action = "registry.set_state"
	ActionRemoveForm             Action = "registry.remove_form"
	ActionClearanceReview        Action = "clearance.review"
	ActionClearanceImplement     Action = "clearance.implement"
	ActionClearanceReturn        Action = "clearance.return"
	ActionDataEntryFirst         Action = "data_entry.submit_first"
	ActionDataEntrySecond        Action = "data_entry.submit_second"
	ActionDataEntryEscalate      Action = "data_entry.escalate_to_audit"
	ActionCorrectionsSubmit      Action = "corrections.submit"
	ActionCorrectionsReject      Action = "corrections.reject"
	ActionCorrectionsAbort       Action = "corrections.abort"
	ActionQualityControlStart    Action = "quality_control.start"
	ActionQualityControlReview   Action = "quality_control.review"
	ActionArchiveFinalize        Action = "archive.finalize"
	ActionAuditReviewTeam        Action = "audit.review_team"
	ActionAuditReviewSupervisor  Action = "audit.review_supervisor"
	ActionAuditConfirm           Action = "audit.confirm"
	ActionAuditAccept            Action = "audit.accept"
	ActionAuditReopenArchived    Action = "audit.reopen_archived"
	ActionReferenceManage        Action = "reference.manage"
	ActionQuarantineManage       Action = "quarantine.manage"
)

var intakeRoles = []entities.Role{entities.RoleIntakeClerk, entities.RoleIntakeSupervisor}
var qualityControlRoles = []entities.Role{entities.RoleQualityControlClerk, entities.RoleQualityControlSupervisor}

var actionRoles = map[Action][]entities.Role{
	ActionIntakeReceive:          intakeRoles,
	ActionIntakeReferToClearance: intakeRoles,
	ActionIntakeReject:           intakeRoles,
	ActionIntakeConfirm:          intakeRoles,
	ActionAssignCenterStation: {
		entities.RoleIntakeClerk,
		entities.RoleIntakeSupervisor,
		entities.RoleClearanceClerk,
		entities.RoleClearanceSupervisor,
	},
	ActionSetState:             {entities.RoleTallyManager},
	ActionRemoveForm:           {entities.RoleTallyManager},
	ActionClearanceReview:      {entities.RoleClearanceClerk, entities.RoleClearanceSupervisor},
	ActionClearanceImplement:   {entities.RoleClearanceSupervisor},
	ActionClearanceReturn:      {entities.RoleClearanceSupervisor},
	ActionDataEntryFirst:       {entities.RoleDataEntry1Clerk},
	ActionDataEntrySecond:      {entities.RoleDataEntry2Clerk},
	ActionDataEntryEscalate:    {entities.RoleDataEntry1Clerk, entities.RoleAuditClerk, entities.RoleAuditSupervisor},
	ActionCorrectionsSubmit:    {entities.RoleCorrectionsClerk},
	ActionCorrectionsReject:    {entities.RoleCorrectionsClerk},
	ActionCorrectionsAbort:     {entities.RoleCorrectionsClerk},
	ActionQualityControlStart:  qualityControlRoles,
	ActionQualityControlReview: qualityControlRoles,
	ActionArchiveFinalize: {
		entities.RoleArchiveClerk,
		entities.RoleQualityControlClerk,
		entities.RoleQualityControlSupervisor,
	},
	ActionAuditReviewTeam:       {entities.RoleAuditClerk, entities.RoleAuditSupervisor},
	ActionAuditReviewSupervisor: {entities.RoleAuditSupervisor},
	ActionAuditConfirm:          {entities.RoleAuditSupervisor},
	ActionAuditAccept:           {entities.RoleAuditSupervisor},
	ActionAuditReopenArchived:   {entities.RoleTallyManager},
	ActionReferenceManage:       {entities.RoleTallyManager},
	ActionQuarantineManage:      {entities.RoleTallyManager},
}

// Roles returns the roles that may perform action. Super Administrator is
// implied and not listed.
func Roles(action Action) []entities.Role {
	return append([]entities.Role(nil), actionRoles[action]...)
}

// Actions returns every known action in a stable order.
func Actions() []Action {
	items := make([]Action, 0, len(actionRoles))
	for action := range actionRoles {
		items = append(items, action)
	}
	sort.Slice(items, func(i, j int) bool { return items[i] < items[j] })
	return items
}

// RoleGrants flattens the role table into (role, action) pairs.
func RoleGrants() [][2]string {
	var grants [][2]string
	for _, action := range Actions() {
		for _, role := range actionRoles[action] {
			grants = append(grants, [2]string{string(role), string(action)})
		}
	}
	return grants
}
