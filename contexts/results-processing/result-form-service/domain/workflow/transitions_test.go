package workflow

import (
	"errors"
	"testing"

	"tally/contexts/results-processing/result-form-service/domain/entities"
	domainerrors "tally/contexts/results-processing/result-form-service/domain/errors"
)

func TestCheckTransitionAcceptsListedEdges(t *testing.T) {
	for _, edge := range Edges() {
		for _, action := range edge.Actions {
			if err := CheckTransition(edge.From, edge.To, action); err != nil {
				t.Fatalf("%s -> %s via %s: unexpected error %v", edge.From, edge.To, action, err)
			}
		}
		if err := CheckTransition(edge.From, edge.To, ActionSetState); err != nil {
			t.Fatalf("%s -> %s via set_state: unexpected error %v", edge.From, edge.To, err)
		}
	}
}

func TestCheckTransitionRejectsEverythingElse(t *testing.T) {
	listed := map[[2]entities.FormState]bool{}
	for _, edge := range Edges() {
		listed[[2]entities.FormState{edge.From, edge.To}] = true
	}
	for _, from := range entities.FormStates {
		for _, to := range entities.FormStates {
			if listed[[2]entities.FormState{from, to}] {
				continue
			}
			err := CheckTransition(from, to, ActionSetState)
			if !errors.Is(err, domainerrors.ErrIllegalTransition) {
				t.Fatalf("%s -> %s: expected illegal transition, got %v", from, to, err)
			}
			var typed domainerrors.IllegalTransitionError
			if !errors.As(err, &typed) || typed.Current != from || typed.Attempted != to {
				t.Fatalf("%s -> %s: expected typed error carrying both states, got %#v", from, to, err)
			}
		}
	}
}

func TestCheckTransitionRequiresMatchingAction(t *testing.T) {
	err := CheckTransition(entities.FormStateDataEntry1, entities.FormStateDataEntry2, ActionDataEntrySecond)
	if !errors.Is(err, domainerrors.ErrIllegalTransition) {
		t.Fatalf("expected illegal transition for wrong action, got %v", err)
	}
}

func TestArchivedOnlyReachableFromArchiving(t *testing.T) {
	for _, edge := range Edges() {
		if edge.To == entities.FormStateArchived && edge.From != entities.FormStateArchiving {
			t.Fatalf("archived reachable from %s", edge.From)
		}
	}
	targets := Targets(entities.FormStateArchived)
	if len(targets) != 1 || targets[0] != entities.FormStateAudit {
		t.Fatalf("expected archived to lead only to audit, got %v", targets)
	}
}

func TestRequireState(t *testing.T) {
	if err := RequireState(entities.FormStateCorrection, entities.FormStateCorrection, entities.FormStateCorrection); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := RequireState(entities.FormStateIntake, entities.FormStateQualityControl, entities.FormStateCorrection)
	var typed domainerrors.IllegalTransitionError
	if !errors.As(err, &typed) || typed.Current != entities.FormStateIntake || typed.Attempted != entities.FormStateQualityControl {
		t.Fatalf("expected illegal transition from intake, got %v", err)
	}
}

func TestEveryEdgeActionHasRoles(t *testing.T) {
	for _, edge := range Edges() {
		for _, action := range edge.Actions {
			if len(Roles(action)) == 0 {
				t.Fatalf("action %s has no roles", action)
			}
		}
	}
	grants := RoleGrants()
	found := false
	for _, grant := range grants {
		if grant == [2]string{string(entities.RoleAuditSupervisor), string(ActionAuditConfirm)} {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected audit supervisor grant for confirm")
	}
}
