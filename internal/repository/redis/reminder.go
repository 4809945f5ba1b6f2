package redis

import (
	"context"
	"fmt"
	"time"
)

// ReminderLog records sent pending-check-in reminders.
type ReminderLog struct {
	rdb keyStore
}

func NewReminderLog(rdb keyStore) *ReminderLog {
	return &ReminderLog{rdb: rdb}
}

func reminderKey(shiftID, personID string) string {
	return fmt.Sprintf("checkin:reminder:%s:%s", shiftID, personID)
}

// MarkSent returns true the first time it is called for (shift, person)
// within ttl.
func (l *ReminderLog) MarkSent(ctx context.Context, shiftID, personID string, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		ttl = time.Hour
	}
	first, err := l.rdb.SetNX(ctx, reminderKey(shiftID, personID), 1, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to mark reminder: %w", err)
	}
	return first, nil
}
