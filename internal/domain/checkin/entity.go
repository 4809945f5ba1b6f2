package checkin

import (
	"math"
	"time"

	"github.com/wecare/escalas-backend/internal/pkg/geo"
)

type Status string

const (
	StatusDone          Status = "Realizado"
	StatusAbsent        Status = "Ausente"
	StatusOutOfLocation Status = "Fora de Local"
)

var StatusValues = []string{
	string(StatusDone),
	string(StatusAbsent),
	string(StatusOutOfLocation),
}

func (s Status) Valid() bool {
	switch s {
	case StatusDone, StatusAbsent, StatusOutOfLocation:
		return true
	}
	return false
}

// CheckIn is append-only. Only Status and Notes change, through an
// administrative correction.
type CheckIn struct {
	ID             string
	ShiftID        string
	PersonID       string
	SubmittedAt    time.Time
	Position       *geo.Position
	Accuracy       *float64
	DistanceMeters *float64
	Status         Status
	Notes          *string
	CorrectedBy    *string
	CorrectedAt    *time.Time
	CreatedAt      time.Time

	// Joined
	PersonName *string
}

// Stats aggregates check-ins over a date range.
type Stats struct {
	Total         int64
	Done          int64
	Absent        int64
	OutOfLocation int64
}

// AttendanceRate is the share of Done check-ins as a percentage rounded to
// two decimals. Zero when there are no check-ins.
func (s Stats) AttendanceRate() float64 {
	if s.Total == 0 {
		return 0
	}
	rate := float64(s.Done) / float64(s.Total) * 100
	return math.Round(rate*100) / 100
}
