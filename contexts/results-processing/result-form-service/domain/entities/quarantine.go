package entities

import "time"

// QuarantineCheck is a configured integrity rule. Method names the
// predicate in the check registry; Value is the tolerance and Percentage
// scales percentage-based rules.
type QuarantineCheck struct {
	QuarantineCheckID string
	Name              string
	Method            string
	Description       string
	Value             float64
	Percentage        float64
	Active            bool
	UpdatedAt         time.Time
}

// CheckOutcome is the evaluation of one check against one form.
type CheckOutcome struct {
	CheckID string
	Name    string
	Method  string
	Passed  bool
}
