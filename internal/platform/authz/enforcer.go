package authz

import (
	"embed"
	"fmt"
	"log/slog"
	"sync"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
)

//go:embed model.conf
var modelFS embed.FS

// Enforcer is a role -> action policy held in memory. Policies are
// granted at startup; the super administrator role matches every action.
type Enforcer struct {
	mu       sync.RWMutex
	enforcer *casbin.Enforcer
	logger   *slog.Logger
}

func NewEnforcer(logger *slog.Logger) (*Enforcer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	modelText, err := modelFS.ReadFile("model.conf")
	if err != nil {
		return nil, fmt.Errorf("read authz model: %w", err)
	}
	m, err := model.NewModelFromString(string(modelText))
	if err != nil {
		return nil, fmt.Errorf("parse authz model: %w", err)
	}
	enforcer, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("create authz enforcer: %w", err)
	}
	return &Enforcer{enforcer: enforcer, logger: logger}, nil
}

func (e *Enforcer) Grant(role string, action string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := e.enforcer.AddPolicy(role, action); err != nil {
		return fmt.Errorf("grant %s to %s: %w", action, role, err)
	}
	return nil
}

// Allowed reports whether any of roles may perform action.
func (e *Enforcer) Allowed(roles []string, action string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()

	for _, role := range roles {
		ok, err := e.enforcer.Enforce(role, action)
		if err != nil {
			e.logger.Error("authz enforce failed",
				"event", "authz_enforce_failed",
				"module", "internal/platform/authz",
				"layer", "platform",
				"role", role,
				"action", action,
				"error", err.Error(),
			)
			return false
		}
		if ok {
			return true
		}
	}
	return false
}
