package entities

import "strings"

type Role string

const (
	RoleAuditClerk               Role = "audit_clerk"
	RoleAuditSupervisor          Role = "audit_supervisor"
	RoleClearanceClerk           Role = "clearance_clerk"
	RoleClearanceSupervisor      Role = "clearance_supervisor"
	RoleCorrectionsClerk         Role = "corrections_clerk"
	RoleDataEntry1Clerk          Role = "data_entry_1_clerk"
	RoleDataEntry2Clerk          Role = "data_entry_2_clerk"
	RoleIntakeClerk              Role = "intake_clerk"
	RoleIntakeSupervisor         Role = "intake_supervisor"
	RoleQualityControlClerk      Role = "quality_control_clerk"
	RoleQualityControlSupervisor Role = "quality_control_supervisor"
	RoleArchiveClerk             Role = "archive_clerk"
	RoleTallyManager             Role = "tally_manager"
	RoleSuperAdministrator       Role = "super_administrator"
)

// Actor is the identity handed over by the external identity provider.
// Only the role tags take part in authorization decisions.
type Actor struct {
	UserID string
	Roles  []Role
}

func (a Actor) HasRole(role Role) bool {
	for _, held := range a.Roles {
		if held == role {
			return true
		}
	}
	return false
}

func (a Actor) IsSuperAdministrator() bool {
	return a.HasRole(RoleSuperAdministrator)
}

func (a Actor) RoleNames() []string {
	names := make([]string, 0, len(a.Roles))
	for _, role := range a.Roles {
		names = append(names, string(role))
	}
	return names
}

// ParseRoles splits a comma separated role header into role tags.
func ParseRoles(raw string) []Role {
	var roles []Role
	for _, value := range strings.Split(raw, ",") {
		value = strings.ToLower(strings.TrimSpace(value))
		if value != "" {
			roles = append(roles, Role(value))
		}
	}
	return roles
}
