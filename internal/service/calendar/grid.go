// Package calendar lays shifts out on the fixed five-week month grid used by
// the escalas screen.
package calendar

import (
	"cmp"
	"slices"
	"time"

	"github.com/wecare/escalas-backend/internal/domain/shift"
)

const (
	Weeks       = 5
	DaysPerWeek = 7
	GridDays    = Weeks * DaysPerWeek
)

type Day struct {
	Date    time.Time
	InMonth bool
	IsToday bool
	Shifts  []shift.Shift
}

type HourSlot struct {
	Hour   int
	Shifts []shift.Shift
}

// HourSlots groups the day's shifts by start hour. Empty hours are omitted.
func (d Day) HourSlots() []HourSlot {
	var slots []HourSlot
	for _, s := range d.Shifts {
		h := s.StartTime.Hour()
		if n := len(slots); n > 0 && slots[n-1].Hour == h {
			slots[n-1].Shifts = append(slots[n-1].Shifts, s)
			continue
		}
		slots = append(slots, HourSlot{Hour: h, Shifts: []shift.Shift{s}})
	}
	return slots
}

type Grid [Weeks][DaysPerWeek]Day

// Days returns the grid in row-major order.
func (g Grid) Days() []Day {
	days := make([]Day, 0, GridDays)
	for _, week := range g {
		days = append(days, week[:]...)
	}
	return days
}

func (g Grid) Start() time.Time { return g[0][0].Date }

func (g Grid) End() time.Time { return g[Weeks-1][DaysPerWeek-1].Date }

type options struct {
	sectorID *string
	today    *time.Time
}

type Option func(*options)

// WithSector keeps only shifts that have at least one assignment in sectorID.
func WithSector(sectorID string) Option {
	return func(o *options) { o.sectorID = &sectorID }
}

func WithToday(t time.Time) Option {
	return func(o *options) {
		d := shift.CivilDate(t)
		o.today = &d
	}
}

// Bounds returns the first and last date of the grid for reference's month.
// The grid starts on the Sunday on or before the first of the month.
func Bounds(reference time.Time) (start, end time.Time) {
	y, m, _ := reference.Date()
	first := time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
	start = first.AddDate(0, 0, -int(first.Weekday()))
	return start, start.AddDate(0, 0, GridDays-1)
}

// BuildGrid places shifts on the 35-day grid of reference's month. Shifts
// outside the grid are ignored. Within a day, shifts are ordered by start
// time and then ID.
func BuildGrid(reference time.Time, shifts []shift.Shift, opts ...Option) Grid {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	byDate := make(map[string][]shift.Shift)
	for _, s := range shifts {
		if o.sectorID != nil && !s.HasSector(*o.sectorID) {
			continue
		}
		key := s.Date.Format(shift.DateLayout)
		byDate[key] = append(byDate[key], s)
	}

	start, _ := Bounds(reference)
	month := reference.Month()

	var g Grid
	for i := range GridDays {
		date := start.AddDate(0, 0, i)
		dayShifts := byDate[date.Format(shift.DateLayout)]
		slices.SortStableFunc(dayShifts, func(a, b shift.Shift) int {
			if c := cmp.Compare(a.StartTime, b.StartTime); c != 0 {
				return c
			}
			return cmp.Compare(a.ID, b.ID)
		})
		g[i/DaysPerWeek][i%DaysPerWeek] = Day{
			Date:    date,
			InMonth: date.Month() == month,
			IsToday: o.today != nil && date.Equal(*o.today),
			Shifts:  dayShifts,
		}
	}
	return g
}
