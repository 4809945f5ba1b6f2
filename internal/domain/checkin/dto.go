package checkin

import (
	"time"

	"github.com/wecare/escalas-backend/internal/pkg/validator"
)

const (
	AvailabilityPending   = "pending"
	AvailabilityAvailable = "available"
	AvailabilityExpired   = "expired"
)

// CheckInRequest carries the fix the device obtained. DeviceError is set
// instead of a position when the device could not produce one.
type CheckInRequest struct {
	ShiftID     string     `json:"shift_id" validate:"required"`
	Latitude    *float64   `json:"latitude" validate:"omitempty,latitude"`
	Longitude   *float64   `json:"longitude" validate:"omitempty,longitude"`
	Accuracy    *float64   `json:"accuracy,omitempty" validate:"omitempty,min=0"`
	CapturedAt  *time.Time `json:"captured_at,omitempty"`
	DeviceError *string    `json:"device_error,omitempty" validate:"omitempty,oneof=permission_denied position_unavailable timeout"`
	Notes       *string    `json:"notes,omitempty" validate:"omitempty,max=500"`
}

func (r *CheckInRequest) Validate() error {
	var errs validator.ValidationErrors
	if err := validator.Struct(r); err != nil {
		ve, ok := err.(validator.ValidationErrors)
		if !ok {
			return err
		}
		errs = append(errs, ve...)
	}

	if r.DeviceError == nil {
		if r.Latitude == nil {
			errs = append(errs, validator.ValidationError{
				Field:   "latitude",
				Message: "latitude is required",
			})
		}
		if r.Longitude == nil {
			errs = append(errs, validator.ValidationError{
				Field:   "longitude",
				Message: "longitude is required",
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type ListFilter struct {
	ShiftID  *string
	PersonID *string
}

func (f *ListFilter) Validate() error {
	var errs validator.ValidationErrors
	if (f.ShiftID == nil) == (f.PersonID == nil) {
		errs = append(errs, validator.ValidationError{
			Field:   "shift_id",
			Message: "exactly one of shift_id or person_id is required",
		})
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

type StatsRequest struct {
	StartDate string `json:"start"`
	EndDate   string `json:"end"`

	start time.Time
	end   time.Time
}

func (r *StatsRequest) Validate() error {
	var errs validator.ValidationErrors

	start, ok := validator.IsValidDate(r.StartDate)
	if !ok {
		errs = append(errs, validator.ValidationError{
			Field:   "start",
			Message: "start must be in YYYY-MM-DD format",
		})
	}
	end, ok := validator.IsValidDate(r.EndDate)
	if !ok {
		errs = append(errs, validator.ValidationError{
			Field:   "end",
			Message: "end must be in YYYY-MM-DD format",
		})
	}
	if len(errs) == 0 && end.Before(start) {
		errs = append(errs, validator.ValidationError{
			Field:   "end",
			Message: "end must not be before start",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	r.start, r.end = start, end
	return nil
}

func (r *StatsRequest) Range() (time.Time, time.Time) {
	return r.start, r.end
}

type CorrectRequest struct {
	ID     string  `json:"-"`
	Status Status  `json:"status" validate:"required"`
	Notes  *string `json:"notes,omitempty" validate:"omitempty,max=500"`
}

func (r *CorrectRequest) Validate() error {
	var errs validator.ValidationErrors
	if err := validator.Struct(r); err != nil {
		ve, ok := err.(validator.ValidationErrors)
		if !ok {
			return err
		}
		errs = append(errs, ve...)
	}
	if r.Status != "" && !r.Status.Valid() {
		errs = append(errs, validator.ValidationError{
			Field:   "status",
			Message: ErrInvalidStatus.Error(),
		})
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

type CheckInResponse struct {
	ID             string   `json:"id"`
	ShiftID        string   `json:"shift_id"`
	PersonID       string   `json:"person_id"`
	PersonName     *string  `json:"person_name,omitempty"`
	SubmittedAt    string   `json:"submitted_at"`
	Latitude       *float64 `json:"latitude,omitempty"`
	Longitude      *float64 `json:"longitude,omitempty"`
	Accuracy       *float64 `json:"accuracy,omitempty"`
	DistanceMeters *float64 `json:"distance_meters,omitempty"`
	RadiusMeters   *float64 `json:"radius_meters,omitempty"`
	Status         Status   `json:"status"`
	Notes          *string  `json:"notes,omitempty"`
	CorrectedBy    *string  `json:"corrected_by,omitempty"`
	CorrectedAt    *string  `json:"corrected_at,omitempty"`
	CreatedAt      string   `json:"created_at"`
}

func NewCheckInResponse(c CheckIn) CheckInResponse {
	resp := CheckInResponse{
		ID:             c.ID,
		ShiftID:        c.ShiftID,
		PersonID:       c.PersonID,
		PersonName:     c.PersonName,
		SubmittedAt:    c.SubmittedAt.Format(time.RFC3339),
		Accuracy:       c.Accuracy,
		DistanceMeters: c.DistanceMeters,
		Status:         c.Status,
		Notes:          c.Notes,
		CorrectedBy:    c.CorrectedBy,
		CreatedAt:      c.CreatedAt.Format(time.RFC3339),
	}
	if c.Position != nil {
		lat, lon := c.Position.Latitude, c.Position.Longitude
		resp.Latitude, resp.Longitude = &lat, &lon
	}
	if c.CorrectedAt != nil {
		at := c.CorrectedAt.Format(time.RFC3339)
		resp.CorrectedAt = &at
	}
	return resp
}

type ValidationResponse struct {
	Valid          bool    `json:"valid"`
	InWindow       bool    `json:"in_window"`
	WithinRadius   bool    `json:"within_radius"`
	Status         *Status `json:"status,omitempty"`
	DistanceMeters float64 `json:"distance_meters"`
	RadiusMeters   float64 `json:"radius_meters"`
	WindowStart    string  `json:"window_start"`
	WindowEnd      string  `json:"window_end"`
	Message        string  `json:"message"`
}

type PendingShiftResponse struct {
	ShiftID           string  `json:"shift_id"`
	EstablishmentID   string  `json:"establishment_id"`
	EstablishmentName *string `json:"establishment_name,omitempty"`
	Date              string  `json:"date"`
	StartTime         string  `json:"start_time"`
	EndTime           string  `json:"end_time"`
	WindowStart       string  `json:"window_start"`
	WindowEnd         string  `json:"window_end"`
	Availability      string  `json:"availability"`
	CanCheckIn        bool    `json:"can_check_in"`
}

type StatsResponse struct {
	Total          int64   `json:"total"`
	Done           int64   `json:"done"`
	Absent         int64   `json:"absent"`
	OutOfLocation  int64   `json:"out_of_location"`
	AttendanceRate float64 `json:"attendance_rate"`
	StartDate      string  `json:"start"`
	EndDate        string  `json:"end"`
}
