package policy

import (
	"log/slog"

	"tally/contexts/results-processing/result-form-service/domain/entities"
	"tally/contexts/results-processing/result-form-service/domain/workflow"
	"tally/contexts/results-processing/result-form-service/ports"
	"tally/internal/platform/authz"
)

var _ ports.Authorizer = Authorizer{}

// Authorizer answers role checks from the casbin policy loaded with the
// workflow role table.
type Authorizer struct {
	enforcer *authz.Enforcer
}

// NewAuthorizer grants every (role, action) pair of the workflow role table.
func NewAuthorizer(logger *slog.Logger) (Authorizer, error) {
	enforcer, err := authz.NewEnforcer(logger)
	if err != nil {
		return Authorizer{}, err
	}
	for _, grant := range workflow.RoleGrants() {
		if err := enforcer.Grant(grant[0], grant[1]); err != nil {
			return Authorizer{}, err
		}
	}
	return Authorizer{enforcer: enforcer}, nil
}

func (a Authorizer) Allowed(actor entities.Actor, action workflow.Action) bool {
	if a.enforcer == nil {
		return false
	}
	return a.enforcer.Allowed(actor.RoleNames(), string(action))
}
