package attendance

import (
	"fmt"
	"time"

	"github.com/wecare/escalas-backend/internal/domain/checkin"
	"github.com/wecare/escalas-backend/internal/domain/establishment"
	"github.com/wecare/escalas-backend/internal/domain/shift"
	"github.com/wecare/escalas-backend/internal/pkg/geo"
)

// State is a step of a single check-in evaluation.
type State string

const (
	StateRequested     State = "requested"
	StateWindowChecked State = "window_checked"
	StateGeoChecked    State = "geo_checked"
	StateResolved      State = "resolved"
)

type Outcome string

const (
	OutcomeDone          Outcome = "done"
	OutcomeOutOfLocation Outcome = "out_of_location"
	OutcomeRejected      Outcome = "rejected"
)

const ReasonOutsideWindow = "outside time window"

type CheckInResult struct {
	Trail          []State
	Outcome        Outcome
	Reason         string
	WindowStart    time.Time
	WindowEnd      time.Time
	DistanceMeters float64
	RadiusMeters   float64
}

// ShouldRecord reports whether the outcome produces a check-in record.
// Out-of-location attempts are kept for audit.
func (r CheckInResult) ShouldRecord() bool {
	return r.Outcome == OutcomeDone || r.Outcome == OutcomeOutOfLocation
}

// Status maps a recorded outcome to the stored check-in status.
func (r CheckInResult) Status() (checkin.Status, bool) {
	switch r.Outcome {
	case OutcomeDone:
		return checkin.StatusDone, true
	case OutcomeOutOfLocation:
		return checkin.StatusOutOfLocation, true
	}
	return "", false
}

// WindowRejectedError carries the bounds the attempt missed.
type WindowRejectedError struct {
	Now         time.Time
	WindowStart time.Time
	WindowEnd   time.Time
}

func (e *WindowRejectedError) Error() string {
	return fmt.Sprintf("%s: allowed between %s and %s",
		checkin.ErrWindowRejected.Error(),
		e.WindowStart.Format("15:04"),
		e.WindowEnd.Format("15:04"),
	)
}

func (e *WindowRejectedError) Unwrap() error {
	return checkin.ErrWindowRejected
}

// Details exposes the bounds to API clients.
func (e *WindowRejectedError) Details() map[string]string {
	return map[string]string{
		"window_start": e.WindowStart.Format(time.RFC3339),
		"window_end":   e.WindowEnd.Format(time.RFC3339),
	}
}

// Coordinator runs the window check and then the geofence check.
type Coordinator struct {
	Window WindowPolicy
}

func NewCoordinator(policy WindowPolicy) *Coordinator {
	return &Coordinator{Window: policy}
}

// Evaluate decides a check-in attempt. A window miss resolves to Rejected and
// is also returned as a *WindowRejectedError; configuration and validation
// failures return an error with whatever trail was reached.
func (c *Coordinator) Evaluate(s shift.Shift, est establishment.Establishment, pos geo.Position, now time.Time) (CheckInResult, error) {
	res := CheckInResult{Trail: []State{StateRequested}}

	decision := c.Window.IsAllowed(now, s)
	res.WindowStart, res.WindowEnd = decision.WindowStart, decision.WindowEnd
	res.Trail = append(res.Trail, StateWindowChecked)

	if !decision.Allowed {
		res.Trail = append(res.Trail, StateResolved)
		res.Outcome = OutcomeRejected
		res.Reason = ReasonOutsideWindow
		return res, &WindowRejectedError{
			Now:         now,
			WindowStart: decision.WindowStart,
			WindowEnd:   decision.WindowEnd,
		}
	}

	geofence, err := EvaluateGeofence(pos, est)
	if err != nil {
		return res, err
	}
	res.Trail = append(res.Trail, StateGeoChecked, StateResolved)
	res.DistanceMeters = geofence.DistanceMeters
	res.RadiusMeters = geofence.RadiusMeters

	if geofence.WithinRadius {
		res.Outcome = OutcomeDone
	} else {
		res.Outcome = OutcomeOutOfLocation
	}
	return res, nil
}
