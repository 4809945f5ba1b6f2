package shift

import (
	"time"
)

type Status string

const (
	StatusPending   Status = "Pendente"
	StatusConfirmed Status = "Confirmado"
	StatusAbsent    Status = "Ausente"
)

var StatusValues = []string{
	string(StatusPending),
	string(StatusConfirmed),
	string(StatusAbsent),
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusAbsent:
		return true
	}
	return false
}

// Shift is a scheduled work period at one establishment. EndTime before
// StartTime means the shift runs past midnight into EndDate.
type Shift struct {
	ID              string
	EstablishmentID string
	Date            time.Time
	EndDate         time.Time
	StartTime       TimeOfDay
	EndTime         TimeOfDay
	Status          Status
	Notes           *string
	Assignments     []Assignment
	CreatedAt       time.Time
	UpdatedAt       time.Time

	// Joined
	EstablishmentName *string
}

type Assignment struct {
	ID        string
	ShiftID   string
	PersonID  string
	SectorID  *string
	CreatedAt time.Time

	// Joined
	PersonName *string
	SectorName *string
}

func (s Shift) IsOvernight() bool {
	return s.EndTime < s.StartTime
}

// HasPerson reports whether personID holds an assignment on the shift.
func (s Shift) HasPerson(personID string) bool {
	for _, a := range s.Assignments {
		if a.PersonID == personID {
			return true
		}
	}
	return false
}

// HasSector reports whether at least one assignment belongs to sectorID.
func (s Shift) HasSector(sectorID string) bool {
	for _, a := range s.Assignments {
		if a.SectorID != nil && *a.SectorID == sectorID {
			return true
		}
	}
	return false
}

// StartsAt anchors the shift's civil date and start time in loc.
func (s Shift) StartsAt(loc *time.Location) time.Time {
	y, m, d := s.Date.Date()
	return time.Date(y, m, d, s.StartTime.Hour(), s.StartTime.Minute(), 0, 0, loc)
}

// EndsAt returns the end instant, rolling to the next day for overnight
// shifts when EndDate is not set.
func (s Shift) EndsAt(loc *time.Location) time.Time {
	date := s.EndDate
	if date.IsZero() {
		date = s.Date
		if s.IsOvernight() {
			date = date.AddDate(0, 0, 1)
		}
	}
	y, m, d := date.Date()
	return time.Date(y, m, d, s.EndTime.Hour(), s.EndTime.Minute(), 0, 0, loc)
}

// PersonIDs lists assigned people in assignment order.
func (s Shift) PersonIDs() []string {
	ids := make([]string, 0, len(s.Assignments))
	for _, a := range s.Assignments {
		ids = append(ids, a.PersonID)
	}
	return ids
}
