package shift

import "context"

type Service interface {
	// CheckConflicts previews the conflicts an assignment would cause. It never writes.
	CheckConflicts(ctx context.Context, req ConflictCheckRequest) (ConflictCheckResponse, error)

	// Assign adds a person to a shift after re-checking conflicts under a per-person lock.
	Assign(ctx context.Context, req AssignRequest) (AssignmentResponse, error)

	Unassign(ctx context.Context, shiftID, personID string) error

	Calendar(ctx context.Context, req CalendarRequest) (CalendarResponse, error)
}
