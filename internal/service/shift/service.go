package shift

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/wecare/escalas-backend/internal/domain/establishment"
	"github.com/wecare/escalas-backend/internal/domain/notification"
	"github.com/wecare/escalas-backend/internal/domain/shift"
	"github.com/wecare/escalas-backend/internal/domain/user"
	"github.com/wecare/escalas-backend/internal/pkg/database"
	"github.com/wecare/escalas-backend/internal/pkg/jwt"
	"github.com/wecare/escalas-backend/internal/pkg/validator"
	"github.com/wecare/escalas-backend/internal/service/calendar"
)

type ShiftServiceImpl struct {
	tx             database.TxRunner
	shifts         shift.Repository
	establishments establishment.Repository
	people         user.PersonRepository
	notifications  notification.Service
	loc            *time.Location
	now            func() time.Time
}

func NewShiftService(
	tx database.TxRunner,
	shiftRepo shift.Repository,
	establishmentRepo establishment.Repository,
	personRepo user.PersonRepository,
	notificationService notification.Service,
	loc *time.Location,
) *ShiftServiceImpl {
	if loc == nil {
		loc = time.UTC
	}
	return &ShiftServiceImpl{
		tx:             tx,
		shifts:         shiftRepo,
		establishments: establishmentRepo,
		people:         personRepo,
		notifications:  notificationService,
		loc:            loc,
		now:            time.Now,
	}
}

func (s *ShiftServiceImpl) WithClock(now func() time.Time) *ShiftServiceImpl {
	s.now = now
	return s
}

func requirePermission(ctx context.Context, perm user.Permission) (jwt.Identity, error) {
	caller, err := jwt.FromContext(ctx)
	if err != nil {
		return jwt.Identity{}, err
	}
	if !user.HasPermission(caller.Role, perm) {
		return jwt.Identity{}, user.ErrSupervisorAccessRequired
	}
	return caller, nil
}

// CheckConflicts implements shift.Service.
func (s *ShiftServiceImpl) CheckConflicts(ctx context.Context, req shift.ConflictCheckRequest) (shift.ConflictCheckResponse, error) {
	if err := req.Validate(); err != nil {
		return shift.ConflictCheckResponse{}, err
	}
	if _, err := requirePermission(ctx, user.PermissionShiftAssign); err != nil {
		return shift.ConflictCheckResponse{}, err
	}

	date, start, end := req.Parsed()
	existing, err := s.shifts.ListByPerson(ctx, req.PersonID, date, date)
	if err != nil {
		return shift.ConflictCheckResponse{}, fmt.Errorf("failed to list person shifts: %w", err)
	}
	if req.ExcludeShiftID != nil {
		existing = shift.ExcludeShift(existing, *req.ExcludeShiftID)
	}

	conflicts := shift.DetectConflicts(req.PersonID, date, start, end, existing)
	return shift.ConflictCheckResponse{
		HasConflict: len(conflicts) > 0,
		Conflicts:   shift.NewConflictResponses(conflicts),
	}, nil
}

// Assign implements shift.Service. Conflicts are re-checked inside the
// transaction after the per-person lock is held, so two concurrent
// assignments of the same person cannot both pass the check.
func (s *ShiftServiceImpl) Assign(ctx context.Context, req shift.AssignRequest) (shift.AssignmentResponse, error) {
	if err := req.Validate(); err != nil {
		return shift.AssignmentResponse{}, err
	}
	caller, err := requirePermission(ctx, user.PermissionShiftAssign)
	if err != nil {
		return shift.AssignmentResponse{}, err
	}

	person, err := s.people.GetByID(ctx, req.PersonID)
	if err != nil {
		return shift.AssignmentResponse{}, fmt.Errorf("failed to get person: %w", err)
	}

	var (
		created   shift.Assignment
		target    shift.Shift
		conflicts []shift.Conflict
	)
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.shifts.LockPerson(ctx, person.ID); err != nil {
			return fmt.Errorf("failed to lock person: %w", err)
		}

		var err error
		target, err = s.shifts.GetByID(ctx, req.ShiftID)
		if err != nil {
			return fmt.Errorf("failed to get shift: %w", err)
		}
		if target.HasPerson(person.ID) {
			return shift.ErrAlreadyAssigned
		}
		if req.SectorID != nil {
			if err := s.checkSector(ctx, target.EstablishmentID, *req.SectorID); err != nil {
				return err
			}
		}

		existing, err := s.shifts.ListByPerson(ctx, person.ID, target.Date, target.Date)
		if err != nil {
			return fmt.Errorf("failed to list person shifts: %w", err)
		}
		conflicts = shift.DetectConflicts(person.ID, target.Date, target.StartTime, target.EndTime,
			shift.ExcludeShift(existing, target.ID))
		if len(conflicts) > 0 {
			if !req.Override {
				return &shift.ConflictError{PersonID: person.ID, Conflicts: conflicts}
			}
			if !user.HasPermission(caller.Role, user.PermissionShiftOverrideConflict) {
				return shift.ErrOverrideForbidden
			}
		}

		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate assignment id: %w", err)
		}
		created, err = s.shifts.AddAssignment(ctx, shift.Assignment{
			ID:       id.String(),
			ShiftID:  target.ID,
			PersonID: person.ID,
			SectorID: req.SectorID,
		})
		if err != nil {
			if errors.Is(err, shift.ErrAlreadyAssigned) {
				return err
			}
			return fmt.Errorf("failed to add assignment: %w", err)
		}
		return nil
	})
	if err != nil {
		return shift.AssignmentResponse{}, err
	}

	overridden := len(conflicts) > 0
	if overridden {
		slog.Warn("Shift conflict overridden",
			"shift_id", target.ID, "person_id", person.ID, "by", caller.UserID,
			"conflicting_shifts", (&shift.ConflictError{Conflicts: conflicts}).ShiftIDs())
	}
	s.notifyAssigned(ctx, target, person)

	resp := shift.AssignmentResponse{
		ID:         created.ID,
		ShiftID:    created.ShiftID,
		PersonID:   created.PersonID,
		SectorID:   created.SectorID,
		Overridden: overridden,
		CreatedAt:  created.CreatedAt.Format(time.RFC3339),
	}
	if overridden {
		resp.Conflicts = shift.NewConflictResponses(conflicts)
	}
	return resp, nil
}

func (s *ShiftServiceImpl) checkSector(ctx context.Context, establishmentID, sectorID string) error {
	sectors, err := s.establishments.ListSectors(ctx, establishmentID)
	if err != nil {
		return fmt.Errorf("failed to list sectors: %w", err)
	}
	for _, sec := range sectors {
		if sec.ID == sectorID {
			return nil
		}
	}
	return establishment.ErrSectorNotFound
}

func (s *ShiftServiceImpl) notifyAssigned(ctx context.Context, target shift.Shift, person user.Person) {
	if s.notifications == nil {
		return
	}
	err := s.notifications.Queue(ctx, notification.CreateRequest{
		Kind:        notification.KindSystemAlert,
		RecipientID: person.ID,
		Title:       "Nova escala",
		Message: fmt.Sprintf("Você foi escalado em %s das %s às %s",
			target.Date.Format("02/01/2006"), target.StartTime, target.EndTime),
		Data: map[string]interface{}{"shift_id": target.ID},
	})
	if err != nil {
		slog.Error("Failed to queue assignment notification", "shift_id", target.ID, "error", err)
	}
}

// Unassign implements shift.Service.
func (s *ShiftServiceImpl) Unassign(ctx context.Context, shiftID, personID string) error {
	if validator.IsEmpty(shiftID) || validator.IsEmpty(personID) {
		return validator.ValidationErrors{{Field: "person_id", Message: "shift_id and person_id are required"}}
	}
	caller, err := requirePermission(ctx, user.PermissionShiftAssign)
	if err != nil {
		return err
	}

	if err := s.shifts.RemoveAssignment(ctx, shiftID, personID); err != nil {
		if errors.Is(err, shift.ErrAssignmentNotFound) {
			return err
		}
		return fmt.Errorf("failed to remove assignment: %w", err)
	}

	slog.Info("Assignment removed", "shift_id", shiftID, "person_id", personID, "by", caller.UserID)
	return nil
}

// Calendar implements shift.Service.
func (s *ShiftServiceImpl) Calendar(ctx context.Context, req shift.CalendarRequest) (shift.CalendarResponse, error) {
	if err := req.Validate(); err != nil {
		return shift.CalendarResponse{}, err
	}
	if _, err := requirePermission(ctx, user.PermissionShiftView); err != nil {
		return shift.CalendarResponse{}, err
	}

	reference, _ := validator.IsValidMonth(req.Month)
	start, end := calendar.Bounds(reference)

	shifts, err := s.shifts.ListOverlapping(ctx, start, end)
	if err != nil {
		return shift.CalendarResponse{}, fmt.Errorf("failed to list shifts: %w", err)
	}

	opts := []calendar.Option{calendar.WithToday(s.now().In(s.loc))}
	if req.SectorID != nil {
		opts = append(opts, calendar.WithSector(*req.SectorID))
	}
	grid := calendar.BuildGrid(reference, shifts, opts...)

	return NewCalendarResponse(req.Month, req.SectorID, grid), nil
}

func NewCalendarResponse(month string, sectorID *string, g calendar.Grid) shift.CalendarResponse {
	resp := shift.CalendarResponse{
		Month:     month,
		GridStart: g.Start().Format(shift.DateLayout),
		GridEnd:   g.End().Format(shift.DateLayout),
		SectorID:  sectorID,
		Weeks:     make([][]shift.CalendarDayResponse, 0, calendar.Weeks),
	}
	for _, week := range g {
		row := make([]shift.CalendarDayResponse, 0, calendar.DaysPerWeek)
		for _, day := range week {
			shifts := make([]shift.ShiftResponse, 0, len(day.Shifts))
			for _, sh := range day.Shifts {
				shifts = append(shifts, shift.NewShiftResponse(sh))
			}
			slots := make([]shift.HourSlotResponse, 0)
			for _, slot := range day.HourSlots() {
				ids := make([]string, 0, len(slot.Shifts))
				for _, sh := range slot.Shifts {
					ids = append(ids, sh.ID)
				}
				slots = append(slots, shift.HourSlotResponse{Hour: slot.Hour, ShiftIDs: ids})
			}
			row = append(row, shift.CalendarDayResponse{
				Date:      day.Date.Format(shift.DateLayout),
				InMonth:   day.InMonth,
				IsToday:   day.IsToday,
				Shifts:    shifts,
				HourSlots: slots,
			})
		}
		resp.Weeks = append(resp.Weeks, row)
	}
	return resp
}

var _ shift.Service = (*ShiftServiceImpl)(nil)
