package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/wecare/escalas-backend/internal/domain/checkin"
	"github.com/wecare/escalas-backend/internal/domain/establishment"
	"github.com/wecare/escalas-backend/internal/domain/notification"
	"github.com/wecare/escalas-backend/internal/domain/shift"
	"github.com/wecare/escalas-backend/internal/domain/user"
	"github.com/wecare/escalas-backend/internal/pkg/database"
	"github.com/wecare/escalas-backend/internal/pkg/jwt"
	"github.com/wecare/escalas-backend/internal/pkg/position"
)

type CheckInServiceImpl struct {
	tx             database.TxRunner
	shifts         shift.Repository
	establishments establishment.Repository
	checkins       checkin.Repository
	guard          checkin.Guard
	people         user.PersonRepository
	notifications  notification.Service
	coordinator    *Coordinator
	positionOpts   position.Options
	now            func() time.Time
}

func NewCheckInService(
	tx database.TxRunner,
	shiftRepo shift.Repository,
	establishmentRepo establishment.Repository,
	checkinRepo checkin.Repository,
	guard checkin.Guard,
	personRepo user.PersonRepository,
	notificationService notification.Service,
	coordinator *Coordinator,
	positionOpts position.Options,
) *CheckInServiceImpl {
	return &CheckInServiceImpl{
		tx:             tx,
		shifts:         shiftRepo,
		establishments: establishmentRepo,
		checkins:       checkinRepo,
		guard:          guard,
		people:         personRepo,
		notifications:  notificationService,
		coordinator:    coordinator,
		positionOpts:   positionOpts,
		now:            time.Now,
	}
}

// WithClock replaces the wall clock, for tests.
func (a *CheckInServiceImpl) WithClock(now func() time.Time) *CheckInServiceImpl {
	a.now = now
	a.positionOpts.Now = now
	return a
}

func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

func reportedFix(req checkin.CheckInRequest) position.Reported {
	return position.Reported{
		Latitude:   req.Latitude,
		Longitude:  req.Longitude,
		Accuracy:   req.Accuracy,
		CapturedAt: req.CapturedAt,
		ErrCode:    req.DeviceError,
	}
}

// loadAssigned returns the shift and its establishment, checking that
// personID is on the shift.
func (a *CheckInServiceImpl) loadAssigned(ctx context.Context, shiftID, personID string) (shift.Shift, establishment.Establishment, error) {
	s, err := a.shifts.GetByID(ctx, shiftID)
	if err != nil {
		return shift.Shift{}, establishment.Establishment{}, fmt.Errorf("failed to get shift: %w", err)
	}
	if !s.HasPerson(personID) {
		return shift.Shift{}, establishment.Establishment{}, checkin.ErrNotAssigned
	}

	est, err := a.establishments.GetByID(ctx, s.EstablishmentID)
	if err != nil {
		return shift.Shift{}, establishment.Establishment{}, fmt.Errorf("failed to get establishment: %w", err)
	}
	if !est.Active {
		return shift.Shift{}, establishment.Establishment{}, establishment.ErrEstablishmentInactive
	}
	return s, est, nil
}

// CheckIn implements checkin.Service.
func (a *CheckInServiceImpl) CheckIn(ctx context.Context, req checkin.CheckInRequest) (checkin.CheckInResponse, error) {
	if err := req.Validate(); err != nil {
		return checkin.CheckInResponse{}, err
	}

	caller, err := jwt.FromContext(ctx)
	if err != nil {
		return checkin.CheckInResponse{}, err
	}

	s, est, err := a.loadAssigned(ctx, req.ShiftID, caller.UserID)
	if err != nil {
		return checkin.CheckInResponse{}, err
	}

	exists, err := a.checkins.ExistsForShiftPerson(ctx, s.ID, caller.UserID)
	if err != nil {
		return checkin.CheckInResponse{}, fmt.Errorf("failed to check existing check-in: %w", err)
	}
	if exists {
		return checkin.CheckInResponse{}, checkin.ErrDuplicateCheckIn
	}

	fix, err := position.Acquire(ctx, reportedFix(req), a.positionOpts)
	if err != nil {
		return checkin.CheckInResponse{}, err
	}

	now := a.now()
	result, err := a.coordinator.Evaluate(s, est, fix.Position, now)
	if err != nil {
		slog.Info("Check-in not recorded",
			"shift_id", s.ID, "person_id", caller.UserID, "trail", result.Trail, "error", err)
		return checkin.CheckInResponse{}, err
	}
	status, _ := result.Status()

	acquired, err := a.guard.Acquire(ctx, s.ID, caller.UserID)
	if err != nil {
		return checkin.CheckInResponse{}, fmt.Errorf("failed to acquire check-in guard: %w", err)
	}
	if !acquired {
		return checkin.CheckInResponse{}, checkin.ErrDuplicateCheckIn
	}

	distance := result.DistanceMeters
	pos := fix.Position
	record := checkin.CheckIn{
		ID:             newID(),
		ShiftID:        s.ID,
		PersonID:       caller.UserID,
		SubmittedAt:    now.UTC(),
		Position:       &pos,
		Accuracy:       fix.Accuracy,
		DistanceMeters: &distance,
		Status:         status,
		Notes:          req.Notes,
	}

	var created checkin.CheckIn
	err = a.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		created, err = a.checkins.Create(ctx, record)
		if err != nil {
			return err
		}
		if status == checkin.StatusDone && s.Status == shift.StatusPending {
			if err := a.shifts.UpdateStatus(ctx, s.ID, shift.StatusConfirmed); err != nil {
				return fmt.Errorf("failed to confirm shift: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		if relErr := a.guard.Release(ctx, s.ID, caller.UserID); relErr != nil {
			slog.Warn("Failed to release check-in guard", "shift_id", s.ID, "error", relErr)
		}
		if errors.Is(err, checkin.ErrDuplicateCheckIn) {
			return checkin.CheckInResponse{}, err
		}
		return checkin.CheckInResponse{}, fmt.Errorf("failed to record check-in: %w", err)
	}

	slog.Info("Check-in recorded",
		"checkin_id", created.ID, "shift_id", s.ID, "person_id", caller.UserID,
		"status", status, "distance_meters", distance)

	a.notifyRecorded(ctx, s, est, caller, created, result)

	resp := checkin.NewCheckInResponse(created)
	radius := result.RadiusMeters
	resp.RadiusMeters = &radius
	return resp, nil
}

func (a *CheckInServiceImpl) notifyRecorded(ctx context.Context, s shift.Shift, est establishment.Establishment, caller jwt.Identity, c checkin.CheckIn, result CheckInResult) {
	if a.notifications == nil {
		return
	}

	data := map[string]interface{}{
		"shift_id":        s.ID,
		"checkin_id":      c.ID,
		"establishment":   est.Name,
		"distance_meters": result.DistanceMeters,
		"radius_meters":   result.RadiusMeters,
	}

	var reqs []notification.CreateRequest
	switch c.Status {
	case checkin.StatusDone:
		reqs = append(reqs, notification.CreateRequest{
			Kind:        notification.KindShiftConfirmed,
			RecipientID: caller.UserID,
			Title:       "Escala confirmada",
			Message:     fmt.Sprintf("Check-in realizado em %s às %s", est.Name, c.SubmittedAt.In(a.coordinator.Window.location()).Format("15:04")),
			Data:        data,
		})
	case checkin.StatusOutOfLocation:
		supervisors, err := a.people.ListSupervisors(ctx)
		if err != nil {
			slog.Error("Failed to list supervisors", "error", err)
			return
		}
		for _, sup := range supervisors {
			reqs = append(reqs, notification.CreateRequest{
				Kind:        notification.KindSystemAlert,
				RecipientID: sup.ID,
				Title:       "Check-in fora de local",
				Message:     fmt.Sprintf("%s fez check-in a %.0fm de %s", personLabel(caller), result.DistanceMeters, est.Name),
				Data:        data,
			})
		}
	}

	if err := a.notifications.QueueMany(ctx, reqs); err != nil {
		slog.Error("Failed to queue check-in notifications", "checkin_id", c.ID, "error", err)
	}
}

func personLabel(id jwt.Identity) string {
	if id.Name != "" {
		return id.Name
	}
	return id.UserID
}

// Validate implements checkin.Service.
func (a *CheckInServiceImpl) Validate(ctx context.Context, req checkin.CheckInRequest) (checkin.ValidationResponse, error) {
	if err := req.Validate(); err != nil {
		return checkin.ValidationResponse{}, err
	}

	caller, err := jwt.FromContext(ctx)
	if err != nil {
		return checkin.ValidationResponse{}, err
	}

	s, est, err := a.loadAssigned(ctx, req.ShiftID, caller.UserID)
	if err != nil {
		return checkin.ValidationResponse{}, err
	}

	fix, err := position.Acquire(ctx, reportedFix(req), a.positionOpts)
	if err != nil {
		return checkin.ValidationResponse{}, err
	}

	result, err := a.coordinator.Evaluate(s, est, fix.Position, a.now())
	var windowErr *WindowRejectedError
	switch {
	case errors.As(err, &windowErr):
		// report the distance even though the attempt would be rejected
		geofence, gErr := EvaluateGeofence(fix.Position, est)
		if gErr != nil {
			return checkin.ValidationResponse{}, gErr
		}
		result.DistanceMeters = geofence.DistanceMeters
		result.RadiusMeters = geofence.RadiusMeters
		return a.validationResponse(result, est, false, geofence.WithinRadius), nil
	case err != nil:
		return checkin.ValidationResponse{}, err
	}

	return a.validationResponse(result, est, true, result.Outcome == OutcomeDone), nil
}

func (a *CheckInServiceImpl) validationResponse(r CheckInResult, est establishment.Establishment, inWindow, within bool) checkin.ValidationResponse {
	loc := a.coordinator.Window.location()
	resp := checkin.ValidationResponse{
		Valid:          inWindow && within,
		InWindow:       inWindow,
		WithinRadius:   within,
		DistanceMeters: r.DistanceMeters,
		RadiusMeters:   r.RadiusMeters,
		WindowStart:    r.WindowStart.In(loc).Format(time.RFC3339),
		WindowEnd:      r.WindowEnd.In(loc).Format(time.RFC3339),
	}
	if status, ok := r.Status(); ok {
		resp.Status = &status
	}

	switch {
	case !inWindow:
		resp.Message = fmt.Sprintf("Check-in not allowed now. The window is open from %s to %s",
			r.WindowStart.In(loc).Format("15:04"), r.WindowEnd.In(loc).Format("15:04"))
	case within:
		resp.Message = fmt.Sprintf("Location validated. You are %.0fm from %s", r.DistanceMeters, est.Name)
	default:
		resp.Message = fmt.Sprintf("Location not valid. You are %.0fm from %s. Maximum allowed distance is %.0fm",
			r.DistanceMeters, est.Name, r.RadiusMeters)
	}
	return resp
}

// MyPending implements checkin.Service.
func (a *CheckInServiceImpl) MyPending(ctx context.Context) ([]checkin.PendingShiftResponse, error) {
	caller, err := jwt.FromContext(ctx)
	if err != nil {
		return nil, err
	}

	loc := a.coordinator.Window.location()
	now := a.now()
	today := shift.CivilDate(now.In(loc))

	shifts, err := a.shifts.ListByPerson(ctx, caller.UserID, today, today)
	if err != nil {
		return nil, fmt.Errorf("failed to list shifts: %w", err)
	}
	slices.SortStableFunc(shifts, func(x, y shift.Shift) int { return int(x.StartTime - y.StartTime) })

	pending := make([]checkin.PendingShiftResponse, 0, len(shifts))
	for _, s := range shifts {
		if s.Status != shift.StatusPending {
			continue
		}
		exists, err := a.checkins.ExistsForShiftPerson(ctx, s.ID, caller.UserID)
		if err != nil {
			return nil, fmt.Errorf("failed to check existing check-in: %w", err)
		}
		if exists {
			continue
		}

		start, end := a.coordinator.Window.Bounds(s)
		availability := checkin.AvailabilityPending
		switch a.coordinator.Window.Phase(now, s) {
		case PhaseOpen:
			availability = checkin.AvailabilityAvailable
		case PhaseClosed:
			availability = checkin.AvailabilityExpired
		}

		pending = append(pending, checkin.PendingShiftResponse{
			ShiftID:           s.ID,
			EstablishmentID:   s.EstablishmentID,
			EstablishmentName: s.EstablishmentName,
			Date:              s.Date.Format(shift.DateLayout),
			StartTime:         s.StartTime.String(),
			EndTime:           s.EndTime.String(),
			WindowStart:       start.Format(time.RFC3339),
			WindowEnd:         end.Format(time.RFC3339),
			Availability:      availability,
			CanCheckIn:        availability == checkin.AvailabilityAvailable,
		})
	}
	return pending, nil
}

// List implements checkin.Service. Staff without view_all only see their own
// check-ins.
func (a *CheckInServiceImpl) List(ctx context.Context, filter checkin.ListFilter) ([]checkin.CheckInResponse, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	caller, err := jwt.FromContext(ctx)
	if err != nil {
		return nil, err
	}
	viewAll := user.HasPermission(caller.Role, user.PermissionCheckInViewAll)

	var records []checkin.CheckIn
	switch {
	case filter.PersonID != nil:
		if !viewAll && *filter.PersonID != caller.UserID {
			return nil, user.ErrInsufficientPermissions
		}
		records, err = a.checkins.ListByPerson(ctx, *filter.PersonID, time.Time{}, time.Time{})
	default:
		records, err = a.checkins.ListByShift(ctx, *filter.ShiftID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list check-ins: %w", err)
	}

	out := make([]checkin.CheckInResponse, 0, len(records))
	for _, c := range records {
		if !viewAll && c.PersonID != caller.UserID {
			continue
		}
		out = append(out, checkin.NewCheckInResponse(c))
	}
	return out, nil
}

// Stats implements checkin.Service.
func (a *CheckInServiceImpl) Stats(ctx context.Context, req checkin.StatsRequest) (checkin.StatsResponse, error) {
	caller, err := jwt.FromContext(ctx)
	if err != nil {
		return checkin.StatsResponse{}, err
	}
	if !user.HasPermission(caller.Role, user.PermissionCheckInStats) {
		return checkin.StatsResponse{}, user.ErrSupervisorAccessRequired
	}
	if err := req.Validate(); err != nil {
		return checkin.StatsResponse{}, err
	}

	start, end := req.Range()
	stats, err := a.checkins.Stats(ctx, start, end)
	if err != nil {
		return checkin.StatsResponse{}, fmt.Errorf("failed to compute check-in stats: %w", err)
	}
	return NewStatsResponse(stats, start, end), nil
}

func NewStatsResponse(stats checkin.Stats, start, end time.Time) checkin.StatsResponse {
	return checkin.StatsResponse{
		Total:          stats.Total,
		Done:           stats.Done,
		Absent:         stats.Absent,
		OutOfLocation:  stats.OutOfLocation,
		AttendanceRate: stats.AttendanceRate(),
		StartDate:      start.Format(shift.DateLayout),
		EndDate:        end.Format(shift.DateLayout),
	}
}

// Correct implements checkin.Service.
func (a *CheckInServiceImpl) Correct(ctx context.Context, req checkin.CorrectRequest) (checkin.CheckInResponse, error) {
	caller, err := jwt.FromContext(ctx)
	if err != nil {
		return checkin.CheckInResponse{}, err
	}
	if !user.HasPermission(caller.Role, user.PermissionCheckInCorrect) {
		return checkin.CheckInResponse{}, user.ErrSupervisorAccessRequired
	}
	if err := req.Validate(); err != nil {
		return checkin.CheckInResponse{}, err
	}

	updated, err := a.checkins.Correct(ctx, req.ID, req.Status, req.Notes, caller.UserID)
	if err != nil {
		return checkin.CheckInResponse{}, fmt.Errorf("failed to correct check-in: %w", err)
	}

	slog.Info("Check-in corrected", "checkin_id", updated.ID, "status", updated.Status, "corrected_by", caller.UserID)
	return checkin.NewCheckInResponse(updated), nil
}

var _ checkin.Service = (*CheckInServiceImpl)(nil)

