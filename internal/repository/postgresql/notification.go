package postgresql

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/wecare/escalas-backend/internal/domain/notification"
	"github.com/wecare/escalas-backend/internal/pkg/database"
)

type notificationRepository struct {
	db *database.DB
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db *database.DB) notification.Repository {
	return &notificationRepository{db: db}
}

// CreateBatch inserts all events with one statement
func (r *notificationRepository) CreateBatch(ctx context.Context, events []notification.Event) error {
	if len(events) == 0 {
		return nil
	}

	q := GetQuerier(ctx, r.db)

	const cols = 8
	valueStrings := make([]string, 0, len(events))
	valueArgs := make([]interface{}, 0, len(events)*cols)

	for i, e := range events {
		dataJSON, err := json.Marshal(e.Data)
		if err != nil {
			return fmt.Errorf("failed to marshal notification data: %w", err)
		}

		base := i * cols
		valueStrings = append(valueStrings, fmt.Sprintf(
			"($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8,
		))
		valueArgs = append(valueArgs,
			e.ID,
			string(e.Kind),
			e.RecipientID,
			e.Title,
			e.Message,
			dataJSON,
			e.IsRead,
			e.CreatedAt,
		)
	}

	query := fmt.Sprintf(`
		INSERT INTO notifications (id, kind, recipient_id, title, message, data, is_read, created_at)
		VALUES %s
		ON CONFLICT (id) DO NOTHING
	`, strings.Join(valueStrings, ", "))

	if _, err := q.Exec(ctx, query, valueArgs...); err != nil {
		return fmt.Errorf("failed to batch create notifications: %w", err)
	}

	return nil
}

// ListByRecipient returns the newest notifications for a recipient
func (r *notificationRepository) ListByRecipient(ctx context.Context, recipientID string, limit int) ([]notification.Event, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `
		SELECT id, kind, recipient_id, title, message, data, is_read, created_at
		FROM notifications
		WHERE recipient_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, recipientID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}
	defer rows.Close()

	var events []notification.Event
	for rows.Next() {
		var (
			e        notification.Event
			kind     string
			dataJSON []byte
		)
		if err := rows.Scan(&e.ID, &kind, &e.RecipientID, &e.Title, &e.Message, &dataJSON, &e.IsRead, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}

		e.Kind = notification.Kind(kind)
		if dataJSON != nil {
			if err := json.Unmarshal(dataJSON, &e.Data); err != nil {
				return nil, fmt.Errorf("failed to unmarshal notification data: %w", err)
			}
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate notifications: %w", err)
	}

	return events, nil
}
