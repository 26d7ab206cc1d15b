package errors

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"tally/contexts/results-processing/result-form-service/domain/entities"
)

var (
	ErrNotFound                  = errors.New("entity not found")
	ErrDisabled                  = errors.New("entity is disabled")
	ErrIllegalTransition         = errors.New("illegal state transition")
	ErrIncompleteEntry           = errors.New("incomplete entry")
	ErrDuplicateBallotAssignment = errors.New("center, station and ballot already assigned to another form")
	ErrConflict                  = errors.New("concurrent modification conflict")
	ErrAuthorizationFailed       = errors.New("actor lacks required role")
	ErrIntegrityViolation        = errors.New("integrity violation")
	ErrInvalidInput              = errors.New("invalid input")
	ErrDuplicateReference        = errors.New("duplicate reference data")
	ErrFormHasResults            = errors.New("result form has results")
	ErrReviewIncomplete          = errors.New("review is incomplete")
	ErrFileTooLarge              = errors.New("attachment exceeds maximum upload size")
)

// IllegalTransitionError names the state a form was in and the state the
// operation tried to move it to.
type IllegalTransitionError struct {
	Current   entities.FormState
	Attempted entities.FormState
}

func (e IllegalTransitionError) Error() string {
	return fmt.Sprintf("illegal state transition from %s to %s", e.Current, e.Attempted)
}

func (e IllegalTransitionError) Unwrap() error {
	return ErrIllegalTransition
}

func IllegalTransition(current entities.FormState, attempted entities.FormState) error {
	return IllegalTransitionError{Current: current, Attempted: attempted}
}

// IncompleteEntryError lists the candidate ids and reconciliation field
// names missing from a submission.
type IncompleteEntryError struct {
	Missing []string
}

func (e IncompleteEntryError) Error() string {
	return "incomplete entry: missing " + strings.Join(e.Missing, ", ")
}

func (e IncompleteEntryError) Unwrap() error {
	return ErrIncompleteEntry
}

func IncompleteEntry(missing []string) error {
	items := append([]string(nil), missing...)
	sort.Strings(items)
	return IncompleteEntryError{Missing: items}
}

// DuplicateReferenceError lists the unique keys that collided during an
// import.
type DuplicateReferenceError struct {
	Keys []string
}

func (e DuplicateReferenceError) Error() string {
	return "duplicate reference data: " + strings.Join(e.Keys, ", ")
}

func (e DuplicateReferenceError) Unwrap() error {
	return ErrDuplicateReference
}

// Integrity wraps ErrIntegrityViolation with the broken invariant.
func Integrity(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrIntegrityViolation, fmt.Sprintf(format, args...))
}

// Invalid wraps ErrInvalidInput with a reason.
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
