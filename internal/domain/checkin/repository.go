package checkin

import (
	"context"
	"time"
)

type Repository interface {
	// Create returns ErrDuplicateCheckIn when (shift, person) already has a record.
	Create(ctx context.Context, c CheckIn) (CheckIn, error)

	GetByID(ctx context.Context, id string) (CheckIn, error)
	ListByShift(ctx context.Context, shiftID string) ([]CheckIn, error)
	ListByPerson(ctx context.Context, personID string, start, end time.Time) ([]CheckIn, error)
	ExistsForShiftPerson(ctx context.Context, shiftID, personID string) (bool, error)

	// Correct overwrites status and notes and stamps the corrector.
	Correct(ctx context.Context, id string, status Status, notes *string, correctedBy string) (CheckIn, error)

	// Stats counts check-ins of shifts dated in [start, end].
	Stats(ctx context.Context, start, end time.Time) (Stats, error)
}

// Guard claims the right to create a check-in for (shift, person) before the
// slower store write runs.
type Guard interface {
	Acquire(ctx context.Context, shiftID, personID string) (bool, error)
	Release(ctx context.Context, shiftID, personID string) error
}
