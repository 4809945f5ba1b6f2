package notification

import (
	"context"
)

type Repository interface {
	CreateBatch(ctx context.Context, events []Event) error
	ListByRecipient(ctx context.Context, recipientID string, limit int) ([]Event, error)
}

// Publisher forwards events to an external channel such as a message broker.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}
