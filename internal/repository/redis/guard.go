package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/wecare/escalas-backend/internal/domain/checkin"
)

const DefaultGuardTTL = 10 * time.Minute

// CheckInGuard claims (shift, person) with SET NX before the check-in row is
// written. The store's unique constraint remains the final authority; the
// guard keeps concurrent submissions from both reaching it.
type CheckInGuard struct {
	rdb keyStore
	ttl time.Duration
}

func NewCheckInGuard(rdb keyStore, ttl time.Duration) *CheckInGuard {
	if ttl <= 0 {
		ttl = DefaultGuardTTL
	}
	return &CheckInGuard{rdb: rdb, ttl: ttl}
}

func guardKey(shiftID, personID string) string {
	return fmt.Sprintf("checkin:guard:%s:%s", shiftID, personID)
}

// Acquire implements checkin.Guard.
func (g *CheckInGuard) Acquire(ctx context.Context, shiftID, personID string) (bool, error) {
	ok, err := g.rdb.SetNX(ctx, guardKey(shiftID, personID), time.Now().UTC().Format(time.RFC3339), g.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to set check-in guard: %w", err)
	}
	return ok, nil
}

// Release implements checkin.Guard.
func (g *CheckInGuard) Release(ctx context.Context, shiftID, personID string) error {
	if err := g.rdb.Del(ctx, guardKey(shiftID, personID)).Err(); err != nil {
		return fmt.Errorf("failed to delete check-in guard: %w", err)
	}
	return nil
}

var _ checkin.Guard = (*CheckInGuard)(nil)
