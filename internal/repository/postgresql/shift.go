package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/wecare/escalas-backend/internal/domain/shift"
	"github.com/wecare/escalas-backend/internal/pkg/database"
)

type shiftRepositoryImpl struct {
	db *database.DB
}

func NewShiftRepository(db *database.DB) shift.Repository {
	return &shiftRepositoryImpl{db: db}
}

const shiftColumns = `
	s.id, s.establishment_id, s.date, s.end_date, s.start_time::text, s.end_time::text,
	s.status, s.notes, s.created_at, s.updated_at, e.name`

// rowScanner is satisfied by pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanShift(row rowScanner) (shift.Shift, error) {
	var (
		s          shift.Shift
		endDate    *time.Time
		start, end string
	)
	if err := row.Scan(
		&s.ID,
		&s.EstablishmentID,
		&s.Date,
		&endDate,
		&start,
		&end,
		&s.Status,
		&s.Notes,
		&s.CreatedAt,
		&s.UpdatedAt,
		&s.EstablishmentName,
	); err != nil {
		return shift.Shift{}, err
	}

	var err error
	if s.StartTime, err = shift.ParseTimeOfDay(start); err != nil {
		return shift.Shift{}, fmt.Errorf("invalid start_time %q: %w", start, err)
	}
	if s.EndTime, err = shift.ParseTimeOfDay(end); err != nil {
		return shift.Shift{}, fmt.Errorf("invalid end_time %q: %w", end, err)
	}
	s.Date = shift.CivilDate(s.Date)
	if endDate != nil {
		s.EndDate = shift.CivilDate(*endDate)
	}
	return s, nil
}

// Create implements shift.Repository.
func (r *shiftRepositoryImpl) Create(ctx context.Context, s shift.Shift) (shift.Shift, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO shifts (id, establishment_id, date, end_date, start_time, end_time, status, notes)
		VALUES ($1, $2, $3, $4, $5::time, $6::time, $7, $8)
		RETURNING created_at
	`
	var endDate *time.Time
	if !s.EndDate.IsZero() {
		endDate = &s.EndDate
	}
	if err := q.QueryRow(ctx, query,
		s.ID,
		s.EstablishmentID,
		s.Date,
		endDate,
		s.StartTime.String(),
		s.EndTime.String(),
		s.Status,
		s.Notes,
	).Scan(&s.CreatedAt); err != nil {
		return shift.Shift{}, fmt.Errorf("failed to create shift: %w", err)
	}
	return s, nil
}

// GetByID implements shift.Repository.
func (r *shiftRepositoryImpl) GetByID(ctx context.Context, id string) (shift.Shift, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + shiftColumns + `
		FROM shifts s
		JOIN establishments e ON e.id = s.establishment_id
		WHERE s.id = $1
	`
	s, err := scanShift(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return shift.Shift{}, shift.ErrShiftNotFound
		}
		return shift.Shift{}, fmt.Errorf("failed to get shift: %w", err)
	}

	assignments, err := r.assignmentsFor(ctx, []string{s.ID})
	if err != nil {
		return shift.Shift{}, err
	}
	s.Assignments = assignments[s.ID]
	return s, nil
}

// Update implements shift.Repository. Assignments are not touched.
func (r *shiftRepositoryImpl) Update(ctx context.Context, s shift.Shift) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE shifts
		SET establishment_id = $2, date = $3, end_date = $4, start_time = $5::time, end_time = $6::time,
		    status = $7, notes = $8, updated_at = NOW()
		WHERE id = $1
	`
	var endDate *time.Time
	if !s.EndDate.IsZero() {
		endDate = &s.EndDate
	}
	tag, err := q.Exec(ctx, query,
		s.ID, s.EstablishmentID, s.Date, endDate,
		s.StartTime.String(), s.EndTime.String(), s.Status, s.Notes,
	)
	if err != nil {
		return fmt.Errorf("failed to update shift: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shift.ErrShiftNotFound
	}
	return nil
}

// UpdateStatus implements shift.Repository.
func (r *shiftRepositoryImpl) UpdateStatus(ctx context.Context, id string, status shift.Status) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `UPDATE shifts SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("failed to update shift status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shift.ErrShiftNotFound
	}
	return nil
}

// Delete implements shift.Repository. Assignments cascade.
func (r *shiftRepositoryImpl) Delete(ctx context.Context, id string) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `DELETE FROM shifts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete shift: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shift.ErrShiftNotFound
	}
	return nil
}

// AddAssignment implements shift.Repository.
func (r *shiftRepositoryImpl) AddAssignment(ctx context.Context, a shift.Assignment) (shift.Assignment, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO shift_assignments (id, shift_id, person_id, sector_id)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`
	if err := q.QueryRow(ctx, query, a.ID, a.ShiftID, a.PersonID, a.SectorID).Scan(&a.CreatedAt); err != nil {
		if isUniqueViolation(err) {
			return shift.Assignment{}, shift.ErrAlreadyAssigned
		}
		return shift.Assignment{}, fmt.Errorf("failed to create assignment: %w", err)
	}
	return a, nil
}

// RemoveAssignment implements shift.Repository.
func (r *shiftRepositoryImpl) RemoveAssignment(ctx context.Context, shiftID, personID string) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `DELETE FROM shift_assignments WHERE shift_id = $1 AND person_id = $2`, shiftID, personID)
	if err != nil {
		return fmt.Errorf("failed to delete assignment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shift.ErrAssignmentNotFound
	}
	return nil
}

// ListOverlapping implements shift.Repository.
func (r *shiftRepositoryImpl) ListOverlapping(ctx context.Context, start, end time.Time) ([]shift.Shift, error) {
	query := `SELECT ` + shiftColumns + `
		FROM shifts s
		JOIN establishments e ON e.id = s.establishment_id
		WHERE s.date BETWEEN $1 AND $2
		ORDER BY s.date, s.start_time, s.id
	`
	return r.list(ctx, query, start, end)
}

// ListByPerson implements shift.Repository.
func (r *shiftRepositoryImpl) ListByPerson(ctx context.Context, personID string, start, end time.Time) ([]shift.Shift, error) {
	query := `SELECT ` + shiftColumns + `
		FROM shifts s
		JOIN establishments e ON e.id = s.establishment_id
		WHERE s.date BETWEEN $1 AND $2
		  AND EXISTS (SELECT 1 FROM shift_assignments sa WHERE sa.shift_id = s.id AND sa.person_id = $3)
		ORDER BY s.date, s.start_time, s.id
	`
	return r.list(ctx, query, start, end, personID)
}

// LockPerson implements shift.Repository with a transaction-scoped advisory
// lock keyed by the person ID.
func (r *shiftRepositoryImpl) LockPerson(ctx context.Context, personID string) error {
	if !inTx(ctx) {
		return nil
	}
	q := GetQuerier(ctx, r.db)
	if _, err := q.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, "assignment:"+personID); err != nil {
		return fmt.Errorf("failed to acquire assignment lock: %w", err)
	}
	return nil
}

func (r *shiftRepositoryImpl) list(ctx context.Context, query string, args ...interface{}) ([]shift.Shift, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query shifts: %w", err)
	}
	defer rows.Close()

	var (
		shifts []shift.Shift
		ids    []string
	)
	for rows.Next() {
		s, err := scanShift(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan shift: %w", err)
		}
		shifts = append(shifts, s)
		ids = append(ids, s.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate shifts: %w", err)
	}
	if len(shifts) == 0 {
		return shifts, nil
	}

	assignments, err := r.assignmentsFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range shifts {
		shifts[i].Assignments = assignments[shifts[i].ID]
	}
	return shifts, nil
}

func (r *shiftRepositoryImpl) assignmentsFor(ctx context.Context, shiftIDs []string) (map[string][]shift.Assignment, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT sa.id, sa.shift_id, sa.person_id, sa.sector_id, sa.created_at, u.name, sec.name
		FROM shift_assignments sa
		LEFT JOIN users u ON u.id = sa.person_id
		LEFT JOIN sectors sec ON sec.id = sa.sector_id
		WHERE sa.shift_id = ANY($1)
		ORDER BY sa.created_at, sa.id
	`
	rows, err := q.Query(ctx, query, shiftIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query assignments: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]shift.Assignment, len(shiftIDs))
	for rows.Next() {
		var a shift.Assignment
		if err := rows.Scan(&a.ID, &a.ShiftID, &a.PersonID, &a.SectorID, &a.CreatedAt, &a.PersonName, &a.SectorName); err != nil {
			return nil, fmt.Errorf("failed to scan assignment: %w", err)
		}
		out[a.ShiftID] = append(out[a.ShiftID], a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate assignments: %w", err)
	}
	return out, nil
}
