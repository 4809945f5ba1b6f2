package cron

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wecare/escalas-backend/internal/domain/checkin"
	"github.com/wecare/escalas-backend/internal/domain/notification"
	"github.com/wecare/escalas-backend/internal/domain/shift"
	"github.com/wecare/escalas-backend/internal/domain/user"
)

const (
	JobRefreshStats  = "refresh_checkin_stats"
	JobNotifyPending = "notify_pending_checkins"
	JobMarkAbsent    = "mark_absent_checkins"
)

// Window returns the check-in window of a shift.
type Window interface {
	Bounds(s shift.Shift) (start, end time.Time)
}

// ReminderLog remembers which pending reminders were already sent. MarkSent
// reports false when (shift, person) was marked before.
type ReminderLog interface {
	MarkSent(ctx context.Context, shiftID, personID string, ttl time.Duration) (bool, error)
}

type Intervals struct {
	Stats   time.Duration
	Pending time.Duration
	Absent  time.Duration
}

func DefaultIntervals() Intervals {
	return Intervals{Stats: 30 * time.Second, Pending: time.Minute, Absent: time.Minute}
}

// CheckInJobs holds the recurring check-in tasks.
type CheckInJobs struct {
	shifts        shift.Repository
	checkins      checkin.Repository
	people        user.PersonRepository
	notifications notification.Service
	reminders     ReminderLog
	window        Window
	loc           *time.Location
	now           func() time.Time
	logger        *slog.Logger

	mu        sync.Mutex
	lastStats *checkin.Stats
}

func NewCheckInJobs(
	shiftRepo shift.Repository,
	checkinRepo checkin.Repository,
	personRepo user.PersonRepository,
	notificationService notification.Service,
	reminders ReminderLog,
	window Window,
	loc *time.Location,
	logger *slog.Logger,
) *CheckInJobs {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CheckInJobs{
		shifts:        shiftRepo,
		checkins:      checkinRepo,
		people:        personRepo,
		notifications: notificationService,
		reminders:     reminders,
		window:        window,
		loc:           loc,
		now:           time.Now,
		logger:        logger,
	}
}

func (j *CheckInJobs) WithClock(now func() time.Time) *CheckInJobs {
	j.now = now
	return j
}

// Register adds the three check-in jobs to s.
func (j *CheckInJobs) Register(s *Scheduler, iv Intervals) {
	s.AddJob(JobRefreshStats, iv.Stats, j.RefreshStats)
	s.AddJob(JobNotifyPending, iv.Pending, j.NotifyPending)
	s.AddJob(JobMarkAbsent, iv.Absent, j.MarkAbsent)
}

func (j *CheckInJobs) today() time.Time {
	return shift.CivilDate(j.now().In(j.loc))
}

// RefreshStats recomputes today's stats. The first run only records a
// baseline; afterwards supervisors are alerted when the absent count grows.
func (j *CheckInJobs) RefreshStats(ctx context.Context) error {
	today := j.today()
	stats, err := j.checkins.Stats(ctx, today, today)
	if err != nil {
		return fmt.Errorf("failed to compute check-in stats: %w", err)
	}

	j.mu.Lock()
	prev := j.lastStats
	j.lastStats = &stats
	j.mu.Unlock()

	if prev == nil || stats.Absent <= prev.Absent {
		return nil
	}

	supervisors, err := j.people.ListSupervisors(ctx)
	if err != nil {
		return fmt.Errorf("failed to list supervisors: %w", err)
	}

	data := map[string]interface{}{
		"date":            today.Format(shift.DateLayout),
		"total":           stats.Total,
		"done":            stats.Done,
		"absent":          stats.Absent,
		"out_of_location": stats.OutOfLocation,
		"attendance_rate": stats.AttendanceRate(),
	}
	reqs := make([]notification.CreateRequest, 0, len(supervisors))
	for _, sup := range supervisors {
		reqs = append(reqs, notification.CreateRequest{
			Kind:        notification.KindSystemAlert,
			RecipientID: sup.ID,
			Title:       "Novas ausências",
			Message: fmt.Sprintf("%d ausência(s) registradas hoje. Taxa de presença: %.2f%%",
				stats.Absent, stats.AttendanceRate()),
			Data: data,
		})
	}
	return j.notifications.QueueMany(ctx, reqs)
}

// NotifyPending reminds every assignee of an open window who has not
// checked in yet. Each (shift, person) is reminded once.
func (j *CheckInJobs) NotifyPending(ctx context.Context) error {
	now := j.now()
	today := j.today()

	shifts, err := j.shifts.ListOverlapping(ctx, today, today)
	if err != nil {
		return fmt.Errorf("failed to list today's shifts: %w", err)
	}

	var sent int
	for _, s := range shifts {
		if s.Status != shift.StatusPending || len(s.Assignments) == 0 {
			continue
		}
		start, end := j.window.Bounds(s)
		if now.Before(start) || now.After(end) {
			continue
		}

		done, err := j.checkedIn(ctx, s.ID)
		if err != nil {
			return err
		}
		for _, a := range s.Assignments {
			if done[a.PersonID] {
				continue
			}
			first, err := j.reminders.MarkSent(ctx, s.ID, a.PersonID, end.Sub(now)+time.Hour)
			if err != nil {
				return fmt.Errorf("failed to mark reminder: %w", err)
			}
			if !first {
				continue
			}
			err = j.notifications.Queue(ctx, notification.CreateRequest{
				Kind:        notification.KindCheckInPending,
				RecipientID: a.PersonID,
				Title:       "Check-in pendente",
				Message: fmt.Sprintf("Seu check-in para a escala das %s está disponível até %s",
					s.StartTime, end.In(j.loc).Format("15:04")),
				Data: map[string]interface{}{
					"shift_id":     s.ID,
					"window_start": start.Format(time.RFC3339),
					"window_end":   end.Format(time.RFC3339),
				},
			})
			if err != nil {
				return fmt.Errorf("failed to queue reminder: %w", err)
			}
			sent++
		}
	}

	if sent > 0 {
		j.logger.Info("Pending check-in reminders queued", "count", sent)
	}
	return nil
}

// MarkAbsent records an Absent check-in, stamped at the window end, for
// every assignee whose window has closed without a check-in. Yesterday is
// included so late-night windows are not missed across midnight.
func (j *CheckInJobs) MarkAbsent(ctx context.Context) error {
	now := j.now()
	today := j.today()

	shifts, err := j.shifts.ListOverlapping(ctx, today.AddDate(0, 0, -1), today)
	if err != nil {
		return fmt.Errorf("failed to list recent shifts: %w", err)
	}

	var marked int
	for _, s := range shifts {
		if len(s.Assignments) == 0 {
			continue
		}
		_, end := j.window.Bounds(s)
		if !now.After(end) {
			continue
		}

		done, err := j.checkedIn(ctx, s.ID)
		if err != nil {
			return err
		}
		for _, a := range s.Assignments {
			if done[a.PersonID] {
				continue
			}
			id, err := uuid.NewV7()
			if err != nil {
				return fmt.Errorf("failed to generate check-in id: %w", err)
			}
			_, err = j.checkins.Create(ctx, checkin.CheckIn{
				ID:          id.String(),
				ShiftID:     s.ID,
				PersonID:    a.PersonID,
				SubmittedAt: end.UTC(),
				Status:      checkin.StatusAbsent,
			})
			if err != nil {
				if errors.Is(err, checkin.ErrDuplicateCheckIn) {
					continue
				}
				return fmt.Errorf("failed to record absence: %w", err)
			}
			marked++
		}

		if s.Status == shift.StatusPending && len(done) == 0 {
			if err := j.shifts.UpdateStatus(ctx, s.ID, shift.StatusAbsent); err != nil {
				return fmt.Errorf("failed to mark shift absent: %w", err)
			}
		}
	}

	if marked > 0 {
		j.logger.Info("Absent check-ins recorded", "count", marked)
	}
	return nil
}

// checkedIn returns the people that already have a check-in on shiftID.
func (j *CheckInJobs) checkedIn(ctx context.Context, shiftID string) (map[string]bool, error) {
	records, err := j.checkins.ListByShift(ctx, shiftID)
	if err != nil {
		return nil, fmt.Errorf("failed to list check-ins: %w", err)
	}
	done := make(map[string]bool, len(records))
	for _, c := range records {
		done[c.PersonID] = true
	}
	return done, nil
}
