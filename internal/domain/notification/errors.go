package notification

import "errors"

var (
	ErrInvalidKind      = errors.New("invalid notification kind")
	ErrMissingRecipient = errors.New("notification recipient is required")
	ErrQueueFull        = errors.New("notification queue is full")
	ErrServiceClosed    = errors.New("notification service is closed")
)
