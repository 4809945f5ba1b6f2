package notification

import (
	"context"
)

type Service interface {
	// Queue hands the notification to background workers for persistence and fan-out.
	Queue(ctx context.Context, req CreateRequest) error
	QueueMany(ctx context.Context, reqs []CreateRequest) error

	// Deliver pushes an event received from an inbound channel to live
	// subscribers without persisting it.
	Deliver(ctx context.Context, e Event) error

	List(ctx context.Context, recipientID string, limit int) (ListResponse, error)

	// Close drains the queue and stops the workers.
	Close()
}
