package checkin

import "errors"

var (
	ErrWindowRejected   = errors.New("check-in is outside the allowed time window")
	ErrDuplicateCheckIn = errors.New("check-in already recorded for this shift")
	ErrNotAssigned      = errors.New("you are not assigned to this shift")
	ErrCheckInNotFound  = errors.New("check-in not found")
	ErrInvalidStatus    = errors.New("invalid check-in status")
)
