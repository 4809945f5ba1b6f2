package attendance

import (
	"time"

	"github.com/wecare/escalas-backend/internal/domain/shift"
)

const (
	DefaultWindowBefore = 15 * time.Minute
	DefaultWindowAfter  = 30 * time.Minute
)

// WindowPolicy bounds when a check-in may be submitted relative to the
// shift's scheduled start. Both bounds are inclusive.
type WindowPolicy struct {
	Before   time.Duration
	After    time.Duration
	Location *time.Location
}

func DefaultWindowPolicy(loc *time.Location) WindowPolicy {
	return WindowPolicy{Before: DefaultWindowBefore, After: DefaultWindowAfter, Location: loc}
}

type WindowDecision struct {
	Allowed     bool
	WindowStart time.Time
	WindowEnd   time.Time
}

// Phase places now relative to the window.
type Phase int

const (
	PhaseBefore Phase = iota
	PhaseOpen
	PhaseClosed
)

func (p WindowPolicy) location() *time.Location {
	if p.Location == nil {
		return time.UTC
	}
	return p.Location
}

// Bounds returns the window for s. It depends only on the start instant, so
// overnight shifts are handled the same way.
func (p WindowPolicy) Bounds(s shift.Shift) (start, end time.Time) {
	anchor := s.StartsAt(p.location())
	return anchor.Add(-p.Before), anchor.Add(p.After)
}

func (p WindowPolicy) IsAllowed(now time.Time, s shift.Shift) WindowDecision {
	start, end := p.Bounds(s)
	return WindowDecision{
		Allowed:     !now.Before(start) && !now.After(end),
		WindowStart: start,
		WindowEnd:   end,
	}
}

func (p WindowPolicy) Phase(now time.Time, s shift.Shift) Phase {
	start, end := p.Bounds(s)
	switch {
	case now.Before(start):
		return PhaseBefore
	case now.After(end):
		return PhaseClosed
	default:
		return PhaseOpen
	}
}
