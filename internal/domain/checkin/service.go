package checkin

import "context"

type Service interface {
	CheckIn(ctx context.Context, req CheckInRequest) (CheckInResponse, error)

	// Validate runs the same evaluation as CheckIn without recording anything.
	Validate(ctx context.Context, req CheckInRequest) (ValidationResponse, error)

	MyPending(ctx context.Context) ([]PendingShiftResponse, error)
	List(ctx context.Context, filter ListFilter) ([]CheckInResponse, error)
	Stats(ctx context.Context, req StatsRequest) (StatsResponse, error)
	Correct(ctx context.Context, req CorrectRequest) (CheckInResponse, error)
}
