package shift

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, s Shift) (Shift, error)

	// GetByID loads the shift with its assignments in creation order.
	GetByID(ctx context.Context, id string) (Shift, error)

	Update(ctx context.Context, s Shift) error
	UpdateStatus(ctx context.Context, id string, status Status) error
	Delete(ctx context.Context, id string) error

	// AddAssignment returns ErrAlreadyAssigned when the person is already on the shift.
	AddAssignment(ctx context.Context, a Assignment) (Assignment, error)
	RemoveAssignment(ctx context.Context, shiftID, personID string) error

	// ListOverlapping returns shifts whose date falls in [start, end], assignments included.
	ListOverlapping(ctx context.Context, start, end time.Time) ([]Shift, error)

	// ListByPerson returns shifts in [start, end] where personID holds an assignment.
	ListByPerson(ctx context.Context, personID string, start, end time.Time) ([]Shift, error)

	// LockPerson serializes assignment writes for personID until the
	// surrounding transaction ends. Outside a transaction it is a no-op.
	LockPerson(ctx context.Context, personID string) error
}
