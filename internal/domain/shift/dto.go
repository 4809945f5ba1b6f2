package shift

import (
	"time"

	"github.com/wecare/escalas-backend/internal/pkg/validator"
)

const DateLayout = "2006-01-02"

type ConflictCheckRequest struct {
	PersonID       string  `json:"person_id" validate:"required"`
	Date           string  `json:"date" validate:"required"`
	StartTime      string  `json:"start_time" validate:"required"`
	EndTime        string  `json:"end_time" validate:"required"`
	ExcludeShiftID *string `json:"exclude_shift_id,omitempty"`

	date  time.Time
	start TimeOfDay
	end   TimeOfDay
}

func (r *ConflictCheckRequest) Validate() error {
	var errs validator.ValidationErrors
	if err := validator.Struct(r); err != nil {
		if ve, ok := err.(validator.ValidationErrors); ok {
			errs = append(errs, ve...)
		} else {
			return err
		}
	}

	if !validator.IsEmpty(r.Date) {
		d, err := time.Parse(DateLayout, r.Date)
		if err != nil {
			errs = append(errs, validator.ValidationError{
				Field:   "date",
				Message: "date must be in YYYY-MM-DD format",
			})
		}
		r.date = d
	}
	if !validator.IsEmpty(r.StartTime) {
		t, err := ParseTimeOfDay(r.StartTime)
		if err != nil {
			errs = append(errs, validator.ValidationError{
				Field:   "start_time",
				Message: "start_time must be in HH:MM format",
			})
		}
		r.start = t
	}
	if !validator.IsEmpty(r.EndTime) {
		t, err := ParseTimeOfDay(r.EndTime)
		if err != nil {
			errs = append(errs, validator.ValidationError{
				Field:   "end_time",
				Message: "end_time must be in HH:MM format",
			})
		}
		r.end = t
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Parsed returns the values checked by Validate.
func (r *ConflictCheckRequest) Parsed() (date time.Time, start, end TimeOfDay) {
	return r.date, r.start, r.end
}

type AssignRequest struct {
	ShiftID  string  `json:"-"`
	PersonID string  `json:"person_id" validate:"required"`
	SectorID *string `json:"sector_id,omitempty"`
	Override bool    `json:"override"`
}

func (r *AssignRequest) Validate() error {
	var errs validator.ValidationErrors
	if validator.IsEmpty(r.ShiftID) {
		errs = append(errs, validator.ValidationError{
			Field:   "shift_id",
			Message: "shift_id is required",
		})
	}
	if err := validator.Struct(r); err != nil {
		if ve, ok := err.(validator.ValidationErrors); ok {
			errs = append(errs, ve...)
		} else {
			return err
		}
	}
	if r.SectorID != nil && validator.IsEmpty(*r.SectorID) {
		r.SectorID = nil
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type CalendarRequest struct {
	Month    string  `json:"month"`
	SectorID *string `json:"sector_id,omitempty"`
}

func (r *CalendarRequest) Validate() error {
	var errs validator.ValidationErrors
	if validator.IsEmpty(r.Month) {
		errs = append(errs, validator.ValidationError{
			Field:   "month",
			Message: "month is required",
		})
	} else if _, ok := validator.IsValidMonth(r.Month); !ok {
		errs = append(errs, validator.ValidationError{
			Field:   "month",
			Message: "month must be in YYYY-MM format",
		})
	}
	if r.SectorID != nil && validator.IsEmpty(*r.SectorID) {
		r.SectorID = nil
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type AssignedPersonResponse struct {
	AssignmentID string  `json:"assignment_id"`
	PersonID     string  `json:"person_id"`
	PersonName   *string `json:"person_name,omitempty"`
	SectorID     *string `json:"sector_id,omitempty"`
	SectorName   *string `json:"sector_name,omitempty"`
}

type ShiftResponse struct {
	ID                string                   `json:"id"`
	EstablishmentID   string                   `json:"establishment_id"`
	EstablishmentName *string                  `json:"establishment_name,omitempty"`
	Date              string                   `json:"date"`
	EndDate           string                   `json:"end_date"`
	StartTime         string                   `json:"start_time"`
	EndTime           string                   `json:"end_time"`
	Overnight         bool                     `json:"overnight"`
	Status            Status                   `json:"status"`
	Notes             *string                  `json:"notes,omitempty"`
	AssignedPeople    []AssignedPersonResponse `json:"assigned_people"`
}

func NewShiftResponse(s Shift) ShiftResponse {
	people := make([]AssignedPersonResponse, 0, len(s.Assignments))
	for _, a := range s.Assignments {
		people = append(people, AssignedPersonResponse{
			AssignmentID: a.ID,
			PersonID:     a.PersonID,
			PersonName:   a.PersonName,
			SectorID:     a.SectorID,
			SectorName:   a.SectorName,
		})
	}
	endDate := s.EndDate
	if endDate.IsZero() {
		endDate = s.Date
	}
	return ShiftResponse{
		ID:                s.ID,
		EstablishmentID:   s.EstablishmentID,
		EstablishmentName: s.EstablishmentName,
		Date:              s.Date.Format(DateLayout),
		EndDate:           endDate.Format(DateLayout),
		StartTime:         s.StartTime.String(),
		EndTime:           s.EndTime.String(),
		Overnight:         s.IsOvernight(),
		Status:            s.Status,
		Notes:             s.Notes,
		AssignedPeople:    people,
	}
}

type ConflictResponse struct {
	ShiftID         string `json:"shift_id"`
	EstablishmentID string `json:"establishment_id"`
	Date            string `json:"date"`
	StartTime       string `json:"start_time"`
	EndTime         string `json:"end_time"`
	OverlapStart    string `json:"overlap_start"`
	OverlapEnd      string `json:"overlap_end"`
}

func NewConflictResponses(conflicts []Conflict) []ConflictResponse {
	out := make([]ConflictResponse, 0, len(conflicts))
	for _, c := range conflicts {
		out = append(out, ConflictResponse{
			ShiftID:         c.Shift.ID,
			EstablishmentID: c.Shift.EstablishmentID,
			Date:            c.Shift.Date.Format(DateLayout),
			StartTime:       c.Shift.StartTime.String(),
			EndTime:         c.Shift.EndTime.String(),
			OverlapStart:    c.OverlapStart.String(),
			OverlapEnd:      c.OverlapEnd.String(),
		})
	}
	return out
}

type ConflictCheckResponse struct {
	HasConflict bool               `json:"has_conflict"`
	Conflicts   []ConflictResponse `json:"conflicts"`
}

type AssignmentResponse struct {
	ID         string             `json:"id"`
	ShiftID    string             `json:"shift_id"`
	PersonID   string             `json:"person_id"`
	SectorID   *string            `json:"sector_id,omitempty"`
	Overridden bool               `json:"overridden"`
	Conflicts  []ConflictResponse `json:"conflicts,omitempty"`
	CreatedAt  string             `json:"created_at"`
}

type HourSlotResponse struct {
	Hour     int      `json:"hour"`
	ShiftIDs []string `json:"shift_ids"`
}

type CalendarDayResponse struct {
	Date      string             `json:"date"`
	InMonth   bool               `json:"in_month"`
	IsToday   bool               `json:"is_today"`
	Shifts    []ShiftResponse    `json:"shifts"`
	HourSlots []HourSlotResponse `json:"hour_slots"`
}

type CalendarResponse struct {
	Month     string                  `json:"month"`
	GridStart string                  `json:"grid_start"`
	GridEnd   string                  `json:"grid_end"`
	SectorID  *string                 `json:"sector_id,omitempty"`
	Weeks     [][]CalendarDayResponse `json:"weeks"`
}
