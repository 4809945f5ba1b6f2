package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/wecare/escalas-backend/internal/domain/checkin"
	"github.com/wecare/escalas-backend/internal/pkg/database"
	"github.com/wecare/escalas-backend/internal/pkg/geo"
)

type checkinRepositoryImpl struct {
	db *database.DB
}

func NewCheckInRepository(db *database.DB) checkin.Repository {
	return &checkinRepositoryImpl{db: db}
}

const checkinColumns = `
	c.id, c.shift_id, c.person_id, c.submitted_at, c.latitude, c.longitude, c.accuracy,
	c.distance_meters, c.status, c.notes, c.corrected_by, c.corrected_at, c.created_at, u.name`

func scanCheckIn(row rowScanner) (checkin.CheckIn, error) {
	var (
		c        checkin.CheckIn
		lat, lon *float64
	)
	if err := row.Scan(
		&c.ID,
		&c.ShiftID,
		&c.PersonID,
		&c.SubmittedAt,
		&lat,
		&lon,
		&c.Accuracy,
		&c.DistanceMeters,
		&c.Status,
		&c.Notes,
		&c.CorrectedBy,
		&c.CorrectedAt,
		&c.CreatedAt,
		&c.PersonName,
	); err != nil {
		return checkin.CheckIn{}, err
	}
	if lat != nil && lon != nil {
		c.Position = &geo.Position{Latitude: *lat, Longitude: *lon}
	}
	return c, nil
}

// Create implements checkin.Repository.
func (r *checkinRepositoryImpl) Create(ctx context.Context, c checkin.CheckIn) (checkin.CheckIn, error) {
	q := GetQuerier(ctx, r.db)

	var lat, lon *float64
	if c.Position != nil {
		lat, lon = &c.Position.Latitude, &c.Position.Longitude
	}

	query := `
		INSERT INTO checkins (id, shift_id, person_id, submitted_at, latitude, longitude, accuracy, distance_meters, status, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at
	`
	err := q.QueryRow(ctx, query,
		c.ID,
		c.ShiftID,
		c.PersonID,
		c.SubmittedAt,
		lat,
		lon,
		c.Accuracy,
		c.DistanceMeters,
		c.Status,
		c.Notes,
	).Scan(&c.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return checkin.CheckIn{}, checkin.ErrDuplicateCheckIn
		}
		return checkin.CheckIn{}, fmt.Errorf("failed to create check-in: %w", err)
	}
	return c, nil
}

// GetByID implements checkin.Repository.
func (r *checkinRepositoryImpl) GetByID(ctx context.Context, id string) (checkin.CheckIn, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + checkinColumns + `
		FROM checkins c
		LEFT JOIN users u ON u.id = c.person_id
		WHERE c.id = $1
	`
	c, err := scanCheckIn(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return checkin.CheckIn{}, checkin.ErrCheckInNotFound
		}
		return checkin.CheckIn{}, fmt.Errorf("failed to get check-in: %w", err)
	}
	return c, nil
}

// ListByShift implements checkin.Repository.
func (r *checkinRepositoryImpl) ListByShift(ctx context.Context, shiftID string) ([]checkin.CheckIn, error) {
	query := `SELECT ` + checkinColumns + `
		FROM checkins c
		LEFT JOIN users u ON u.id = c.person_id
		WHERE c.shift_id = $1
		ORDER BY c.submitted_at, c.id
	`
	return r.list(ctx, query, shiftID)
}

// ListByPerson implements checkin.Repository. A zero start or end leaves
// that side of the range open.
func (r *checkinRepositoryImpl) ListByPerson(ctx context.Context, personID string, start, end time.Time) ([]checkin.CheckIn, error) {
	var startArg, endArg *time.Time
	if !start.IsZero() {
		startArg = &start
	}
	if !end.IsZero() {
		endArg = &end
	}

	query := `SELECT ` + checkinColumns + `
		FROM checkins c
		JOIN shifts s ON s.id = c.shift_id
		LEFT JOIN users u ON u.id = c.person_id
		WHERE c.person_id = $1
		  AND ($2::date IS NULL OR s.date >= $2::date)
		  AND ($3::date IS NULL OR s.date <= $3::date)
		ORDER BY c.submitted_at DESC, c.id
	`
	return r.list(ctx, query, personID, startArg, endArg)
}

// ExistsForShiftPerson implements checkin.Repository.
func (r *checkinRepositoryImpl) ExistsForShiftPerson(ctx context.Context, shiftID, personID string) (bool, error) {
	q := GetQuerier(ctx, r.db)

	var exists bool
	err := q.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM checkins WHERE shift_id = $1 AND person_id = $2)`,
		shiftID, personID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check check-in existence: %w", err)
	}
	return exists, nil
}

// Correct implements checkin.Repository.
func (r *checkinRepositoryImpl) Correct(ctx context.Context, id string, status checkin.Status, notes *string, correctedBy string) (checkin.CheckIn, error) {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `
		UPDATE checkins
		SET status = $2, notes = COALESCE($3, notes), corrected_by = $4, corrected_at = NOW()
		WHERE id = $1
	`, id, status, notes, correctedBy)
	if err != nil {
		return checkin.CheckIn{}, fmt.Errorf("failed to correct check-in: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return checkin.CheckIn{}, checkin.ErrCheckInNotFound
	}
	return r.GetByID(ctx, id)
}

// Stats implements checkin.Repository.
func (r *checkinRepositoryImpl) Stats(ctx context.Context, start, end time.Time) (checkin.Stats, error) {
	q := GetQuerier(ctx, r.db)

	var st checkin.Stats
	err := q.QueryRow(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE c.status = $3),
			COUNT(*) FILTER (WHERE c.status = $4),
			COUNT(*) FILTER (WHERE c.status = $5)
		FROM checkins c
		JOIN shifts s ON s.id = c.shift_id
		WHERE s.date BETWEEN $1 AND $2
	`, start, end, checkin.StatusDone, checkin.StatusAbsent, checkin.StatusOutOfLocation,
	).Scan(&st.Total, &st.Done, &st.Absent, &st.OutOfLocation)
	if err != nil {
		return checkin.Stats{}, fmt.Errorf("failed to compute check-in stats: %w", err)
	}
	return st, nil
}

func (r *checkinRepositoryImpl) list(ctx context.Context, query string, args ...interface{}) ([]checkin.CheckIn, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query check-ins: %w", err)
	}
	defer rows.Close()

	var out []checkin.CheckIn
	for rows.Next() {
		c, err := scanCheckIn(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan check-in: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate check-ins: %w", err)
	}
	return out, nil
}
