// Package position acquires a device location fix with a deadline and a
// freshness limit.
package position

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wecare/escalas-backend/internal/pkg/geo"
)

var (
	ErrPermissionDenied = errors.New("location permission denied")
	ErrUnavailable      = errors.New("location unavailable")
	ErrTimedOut         = errors.New("timed out acquiring location")
	ErrStale            = errors.New("location fix is too old")
)

const (
	DefaultTimeout = 10 * time.Second
	DefaultMaxAge  = 5 * time.Minute
)

// Fix is one location reading.
type Fix struct {
	Position   geo.Position
	Accuracy   *float64
	CapturedAt time.Time
}

// Source produces a fix no older than maxAge. Implementations must return
// when ctx is done.
type Source interface {
	RequestPosition(ctx context.Context, maxAge time.Duration) (Fix, error)
}

type Options struct {
	Timeout time.Duration
	MaxAge  time.Duration
	// Now is the clock used for the age check. Defaults to time.Now.
	Now func() time.Time
}

func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.MaxAge <= 0 {
		o.MaxAge = DefaultMaxAge
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Acquire asks src for a fix, bounded by opts.Timeout. A fix older than
// opts.MaxAge is rejected with ErrStale; invalid coordinates with
// geo.ErrInvalidCoordinates.
func Acquire(ctx context.Context, src Source, opts Options) (Fix, error) {
	opts = opts.withDefaults()

	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	type result struct {
		fix Fix
		err error
	}
	done := make(chan result, 1)
	go func() {
		fix, err := src.RequestPosition(ctx, opts.MaxAge)
		done <- result{fix, err}
	}()

	var res result
	select {
	case res = <-done:
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return Fix{}, ErrTimedOut
		}
		return Fix{}, ctx.Err()
	}

	if res.err != nil {
		if errors.Is(res.err, context.DeadlineExceeded) {
			return Fix{}, ErrTimedOut
		}
		return Fix{}, res.err
	}

	fix := res.fix
	if err := fix.Position.Validate(); err != nil {
		return Fix{}, err
	}
	if !fix.CapturedAt.IsZero() {
		if age := opts.Now().Sub(fix.CapturedAt); age > opts.MaxAge {
			return Fix{}, fmt.Errorf("%w: captured %s ago", ErrStale, age.Truncate(time.Second))
		}
	}
	return fix, nil
}

// Reported is the fix a device attached to its request. ErrCode carries the
// device-side failure when no fix could be taken.
type Reported struct {
	Latitude   *float64
	Longitude  *float64
	Accuracy   *float64
	CapturedAt *time.Time
	ErrCode    *string
}

const (
	CodePermissionDenied = "permission_denied"
	CodeUnavailable      = "position_unavailable"
	CodeTimeout          = "timeout"
)

func (r Reported) RequestPosition(ctx context.Context, maxAge time.Duration) (Fix, error) {
	if err := ctx.Err(); err != nil {
		return Fix{}, err
	}
	if r.ErrCode != nil {
		switch *r.ErrCode {
		case CodePermissionDenied:
			return Fix{}, ErrPermissionDenied
		case CodeTimeout:
			return Fix{}, ErrTimedOut
		default:
			return Fix{}, ErrUnavailable
		}
	}
	if r.Latitude == nil || r.Longitude == nil {
		return Fix{}, ErrUnavailable
	}

	fix := Fix{
		Position: geo.Position{Latitude: *r.Latitude, Longitude: *r.Longitude},
		Accuracy: r.Accuracy,
	}
	if r.CapturedAt != nil {
		fix.CapturedAt = *r.CapturedAt
	}
	return fix, nil
}
