package shift

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrShiftNotFound      = errors.New("shift not found")
	ErrAssignmentNotFound = errors.New("person is not assigned to this shift")
	ErrAlreadyAssigned    = errors.New("person is already assigned to this shift")
	ErrConflictDetected   = errors.New("person already has an overlapping shift on this date")
	ErrOverrideForbidden  = errors.New("only administrators can override shift conflicts")
)

// ConflictError lists every shift that overlaps a requested assignment.
type ConflictError struct {
	PersonID  string
	Conflicts []Conflict
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s: %s", ErrConflictDetected.Error(), strings.Join(e.ShiftIDs(), ", "))
}

func (e *ConflictError) Unwrap() error {
	return ErrConflictDetected
}

func (e *ConflictError) Details() map[string]string {
	return map[string]string{
		"person_id":          e.PersonID,
		"conflicting_shifts": strings.Join(e.ShiftIDs(), ","),
	}
}

// ShiftIDs returns the IDs of the conflicting shifts in detection order.
func (e *ConflictError) ShiftIDs() []string {
	ids := make([]string, 0, len(e.Conflicts))
	for _, c := range e.Conflicts {
		ids = append(ids, c.Shift.ID)
	}
	return ids
}
