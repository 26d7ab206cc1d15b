package policy

import (
	"testing"

	"tally/contexts/results-processing/result-form-service/domain/entities"
	"tally/contexts/results-processing/result-form-service/domain/workflow"
)

var everyRole = []entities.Role{
	entities.RoleAuditClerk,
	entities.RoleAuditSupervisor,
	entities.RoleClearanceClerk,
	entities.RoleClearanceSupervisor,
	entities.RoleCorrectionsClerk,
	entities.RoleDataEntry1Clerk,
	entities.RoleDataEntry2Clerk,
	entities.RoleIntakeClerk,
	entities.RoleIntakeSupervisor,
	entities.RoleQualityControlClerk,
	entities.RoleQualityControlSupervisor,
	entities.RoleArchiveClerk,
	entities.RoleTallyManager,
}

func TestAuthorizerMatchesRoleTable(t *testing.T) {
	authorizer, err := NewAuthorizer(nil)
	if err != nil {
		t.Fatalf("new authorizer: %v", err)
	}
	for _, action := range workflow.Actions() {
		granted := map[entities.Role]bool{}
		for _, role := range workflow.Roles(action) {
			granted[role] = true
		}
		for _, role := range everyRole {
			actor := entities.Actor{UserID: "u", Roles: []entities.Role{role}}
			if got := authorizer.Allowed(actor, action); got != granted[role] {
				t.Fatalf("%s on %s: allowed=%v, want %v", role, action, got, granted[role])
			}
		}
	}
}

func TestSuperAdministratorMayDoEverything(t *testing.T) {
	authorizer, err := NewAuthorizer(nil)
	if err != nil {
		t.Fatalf("new authorizer: %v", err)
	}
	admin := entities.Actor{UserID: "root", Roles: []entities.Role{entities.RoleSuperAdministrator}}
	for _, action := range workflow.Actions() {
		if !authorizer.Allowed(admin, action) {
			t.Fatalf("super administrator denied %s", action)
		}
	}
}

func TestAnyRoleSuffices(t *testing.T) {
	authorizer, err := NewAuthorizer(nil)
	if err != nil {
		t.Fatalf("new authorizer: %v", err)
	}
	actor := entities.Actor{UserID: "u", Roles: entities.ParseRoles("archive_clerk, corrections_clerk")}
	if !authorizer.Allowed(actor, workflow.ActionCorrectionsSubmit) {
		t.Fatalf("expected corrections role to be honoured")
	}
	if authorizer.Allowed(entities.Actor{UserID: "u"}, workflow.ActionIntakeReceive) {
		t.Fatalf("actor without roles must be denied")
	}
	if (Authorizer{}).Allowed(actor, workflow.ActionCorrectionsSubmit) {
		t.Fatalf("zero authorizer must deny")
	}
}
