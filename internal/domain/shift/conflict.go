package shift

import "time"

// Conflict pairs an existing shift with the span it shares with a candidate.
type Conflict struct {
	Shift        Shift
	OverlapStart TimeOfDay
	OverlapEnd   TimeOfDay
}

// Overlaps compares raw start/end values. Two intervals that only touch
// (one ends exactly when the other starts) do not overlap.
//
// Overnight shifts are compared without normalization, so an EndTime that
// wrapped past midnight is treated as an early time on the same date.
func Overlaps(aStart, aEnd, bStart, bEnd TimeOfDay) bool {
	return !(aEnd <= bStart || aStart >= bEnd)
}

// FindConflicts returns the shifts in existing that fall on date, include
// personID, and overlap [start, end). Order follows existing.
func FindConflicts(personID string, date time.Time, start, end TimeOfDay, existing []Shift) []Shift {
	var out []Shift
	for _, s := range existing {
		if !SameDate(s.Date, date) || !s.HasPerson(personID) {
			continue
		}
		if Overlaps(start, end, s.StartTime, s.EndTime) {
			out = append(out, s)
		}
	}
	return out
}

// DetectConflicts is FindConflicts with the overlap bounds attached.
func DetectConflicts(personID string, date time.Time, start, end TimeOfDay, existing []Shift) []Conflict {
	found := FindConflicts(personID, date, start, end, existing)
	if len(found) == 0 {
		return nil
	}
	conflicts := make([]Conflict, 0, len(found))
	for _, s := range found {
		conflicts = append(conflicts, Conflict{
			Shift:        s,
			OverlapStart: max(start, s.StartTime),
			OverlapEnd:   min(end, s.EndTime),
		})
	}
	return conflicts
}

// ExcludeShift drops the shift with the given ID, used when re-checking a
// shift against its own siblings.
func ExcludeShift(shifts []Shift, id string) []Shift {
	out := make([]Shift, 0, len(shifts))
	for _, s := range shifts {
		if s.ID != id {
			out = append(out, s)
		}
	}
	return out
}
