package attendance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/wecare/escalas-backend/internal/domain/shift"
)

func morningShift() shift.Shift {
	return shift.Shift{
		ID:        "s1",
		Date:      time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		StartTime: shift.MustTimeOfDay(7, 0),
		EndTime:   shift.MustTimeOfDay(19, 0),
		Status:    shift.StatusPending,
	}
}

func TestWindowPolicy_IsAllowed(t *testing.T) {
	policy := DefaultWindowPolicy(time.UTC)
	s := morningShift()
	at := func(h, m, sec int) time.Time { return time.Date(2024, 1, 15, h, m, sec, 0, time.UTC) }

	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"ten minutes early", at(6, 50, 0), true},
		{"twenty minutes early", at(6, 40, 0), false},
		{"at window start", at(6, 45, 0), true},
		{"one second before start", at(6, 44, 59), false},
		{"at window end", at(7, 30, 0), true},
		{"one second after end", at(7, 30, 1), false},
		{"at shift start", at(7, 0, 0), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := policy.IsAllowed(tt.now, s)
			assert.Equal(t, tt.want, d.Allowed)
			assert.Equal(t, at(6, 45, 0), d.WindowStart)
			assert.Equal(t, at(7, 30, 0), d.WindowEnd)
		})
	}
}

func TestWindowPolicy_Overnight(t *testing.T) {
	policy := DefaultWindowPolicy(time.UTC)
	s := morningShift()
	s.StartTime = shift.MustTimeOfDay(19, 0)
	s.EndTime = shift.MustTimeOfDay(7, 0)

	start, end := policy.Bounds(s)
	assert.Equal(t, time.Date(2024, 1, 15, 18, 45, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2024, 1, 15, 19, 30, 0, 0, time.UTC), end)
}

func TestWindowPolicy_Location(t *testing.T) {
	saoPaulo := time.FixedZone("BRT", -3*3600)
	policy := DefaultWindowPolicy(saoPaulo)
	s := morningShift()

	// 06:50 local is 09:50 UTC
	d := policy.IsAllowed(time.Date(2024, 1, 15, 9, 50, 0, 0, time.UTC), s)
	assert.True(t, d.Allowed)

	d = policy.IsAllowed(time.Date(2024, 1, 15, 6, 50, 0, 0, time.UTC), s)
	assert.False(t, d.Allowed)
}

func TestWindowPolicy_Phase(t *testing.T) {
	policy := WindowPolicy{Before: 15 * time.Minute, After: 30 * time.Minute}
	s := morningShift()

	assert.Equal(t, PhaseBefore, policy.Phase(time.Date(2024, 1, 15, 6, 0, 0, 0, time.UTC), s))
	assert.Equal(t, PhaseOpen, policy.Phase(time.Date(2024, 1, 15, 7, 15, 0, 0, time.UTC), s))
	assert.Equal(t, PhaseClosed, policy.Phase(time.Date(2024, 1, 15, 8, 0, 0, 0, time.UTC), s))
}
