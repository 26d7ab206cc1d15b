package workflow

import (
	"tally/contexts/results-processing/result-form-service/domain/entities"
	domainerrors "tally/contexts/results-processing/result-form-service/domain/errors"
)

type Edge struct {
	From    entities.FormState
	To      entities.FormState
	Actions []Action
}

var edges = []Edge{
	{entities.FormStateUnsubmitted, entities.FormStateIntake, []Action{ActionIntakeReceive}},
	{entities.FormStateIntake, entities.FormStateClearance, []Action{ActionIntakeReferToClearance}},
	{entities.FormStateIntake, entities.FormStateUnsubmitted, []Action{ActionIntakeReject}},
	{entities.FormStateIntake, entities.FormStateDataEntry1, []Action{ActionIntakeConfirm}},
	{entities.FormStateClearance, entities.FormStateIntake, []Action{ActionClearanceImplement}},
	{entities.FormStateClearance, entities.FormStateUnsubmitted, []Action{ActionClearanceImplement}},
	{entities.FormStateDataEntry1, entities.FormStateDataEntry2, []Action{ActionDataEntryFirst}},
	{entities.FormStateDataEntry1, entities.FormStateAudit, []Action{ActionDataEntryEscalate}},
	{entities.FormStateDataEntry2, entities.FormStateCorrection, []Action{ActionDataEntrySecond}},
	{entities.FormStateCorrection, entities.FormStateQualityControl, []Action{ActionCorrectionsSubmit, ActionDataEntrySecond}},
	{entities.FormStateCorrection, entities.FormStateDataEntry1, []Action{ActionCorrectionsReject}},
	{entities.FormStateQualityControl, entities.FormStateCorrection, []Action{ActionQualityControlReview}},
	{entities.FormStateQualityControl, entities.FormStateArchiving, []Action{ActionQualityControlReview}},
	{entities.FormStateArchiving, entities.FormStateArchived, []Action{ActionArchiveFinalize}},
	{entities.FormStateArchiving, entities.FormStateAudit, []Action{ActionArchiveFinalize}},
	{entities.FormStateAudit, entities.FormStateDataEntry1, []Action{ActionAuditConfirm}},
	{entities.FormStateAudit, entities.FormStateArchiving, []Action{ActionAuditAccept}},
	{entities.FormStateArchived, entities.FormStateAudit, []Action{ActionAuditReopenArchived}},
}

// Edges returns a copy of the transition graph.
func Edges() []Edge {
	items := make([]Edge, 0, len(edges))
	for _, edge := range edges {
		items = append(items, Edge{
			From:    edge.From,
			To:      edge.To,
			Actions: append([]Action(nil), edge.Actions...),
		})
	}
	return items
}

func findEdge(from entities.FormState, to entities.FormState) (Edge, bool) {
	for _, edge := range edges {
		if edge.From == from && edge.To == to {
			return edge, true
		}
	}
	return Edge{}, false
}

// Allowed reports whether action may move a form from one state to another.
// ActionSetState is the administrative path and may drive any listed edge.
func Allowed(from entities.FormState, to entities.FormState, action Action) bool {
	edge, ok := findEdge(from, to)
	if !ok {
		return false
	}
	if action == ActionSetState {
		return true
	}
	for _, candidate := range edge.Actions {
		if candidate == action {
			return true
		}
	}
	return false
}

// CheckTransition returns IllegalTransitionError when the edge is not in
// the graph for action.
func CheckTransition(from entities.FormState, to entities.FormState, action Action) error {
	if !Allowed(from, to, action) {
		return domainerrors.IllegalTransition(from, to)
	}
	return nil
}

// Targets lists the states reachable from state in one step.
func Targets(from entities.FormState) []entities.FormState {
	var items []entities.FormState
	for _, edge := range edges {
		if edge.From == from {
			items = append(items, edge.To)
		}
	}
	return items
}

// RequireState fails with IllegalTransitionError when the form is not in
// one of the states the operation starts from. attempted is the state the
// operation would move the form to.
func RequireState(current entities.FormState, attempted entities.FormState, allowed ...entities.FormState) error {
	for _, state := range allowed {
		if state == current {
			return nil
		}
	}
	return domainerrors.IllegalTransition(current, attempted)
}
