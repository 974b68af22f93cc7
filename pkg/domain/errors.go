package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors matched by the typed errors below via errors.Is.
var (
	// ErrMalformedPedigree indicates a structural pedigree invariant violation.
	ErrMalformedPedigree = errors.New("malformed pedigree")
	// ErrInvalidAssignment indicates a world that does not cover every individual.
	ErrInvalidAssignment = errors.New("invalid assignment")
	// ErrInconsistentEvidence indicates observations that admit no possible world.
	ErrInconsistentEvidence = errors.New("inconsistent evidence")
	// ErrInvalidModel indicates model parameters outside their domain.
	ErrInvalidModel = errors.New("invalid model")
	// ErrPedigreeTooLarge indicates a pedigree beyond the enumerator's capacity.
	ErrPedigreeTooLarge = errors.New("pedigree too large for exact enumeration")
	// ErrNotFound indicates a missing persisted record.
	ErrNotFound = errors.New("not found")
)

// MalformedPedigreeError is returned by NewPedigree.
type MalformedPedigreeError struct {
	ID     string
	Reason string
}

func (e *MalformedPedigreeError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("malformed pedigree: %s", e.Reason)
	}
	return fmt.Sprintf("malformed pedigree: individual %s: %s", e.ID, e.Reason)
}

// Is matches ErrMalformedPedigree.
func (e *MalformedPedigreeError) Is(target error) bool { return target == ErrMalformedPedigree }

// InvalidAssignmentError reports a world missing coverage for an individual.
type InvalidAssignmentError struct {
	ID     string
	Reason string
}

func (e *InvalidAssignmentError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("invalid assignment: %s", e.Reason)
	}
	return fmt.Sprintf("invalid assignment: individual %s: %s", e.ID, e.Reason)
}

// Is matches ErrInvalidAssignment.
func (e *InvalidAssignmentError) Is(target error) bool { return target == ErrInvalidAssignment }

// InconsistentEvidenceError reports an individual whose tallies carry no mass.
type InconsistentEvidenceError struct {
	ID       string
	Variable string
}

func (e *InconsistentEvidenceError) Error() string {
	if e.ID == "" {
		return "inconsistent evidence: no world has positive probability"
	}
	return fmt.Sprintf("inconsistent evidence: %s distribution of %s has zero mass", e.Variable, e.ID)
}

// Is matches ErrInconsistentEvidence.
func (e *InconsistentEvidenceError) Is(target error) bool { return target == ErrInconsistentEvidence }

// InvalidModelError reports a model parameter outside its domain.
type InvalidModelError struct {
	Field  string
	Reason string
}

func (e *InvalidModelError) Error() string {
	return fmt.Sprintf("invalid model: %s: %s", e.Field, e.Reason)
}

// Is matches ErrInvalidModel.
func (e *InvalidModelError) Is(target error) bool { return target == ErrInvalidModel }

// NotFoundError is returned when a persisted record does not exist.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// Is matches ErrNotFound.
func (e NotFoundError) Is(target error) bool { return target == ErrNotFound }
