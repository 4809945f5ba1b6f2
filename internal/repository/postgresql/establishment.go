package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/wecare/escalas-backend/internal/domain/establishment"
	"github.com/wecare/escalas-backend/internal/pkg/database"
	"github.com/wecare/escalas-backend/internal/pkg/geo"
)

type establishmentRepositoryImpl struct {
	db *database.DB
}

func NewEstablishmentRepository(db *database.DB) establishment.Repository {
	return &establishmentRepositoryImpl{db: db}
}

const establishmentColumns = `id, name, address, latitude, longitude, radius_meters, active, created_at, updated_at`

func scanEstablishment(row rowScanner) (establishment.Establishment, error) {
	var (
		e        establishment.Establishment
		lat, lon *float64
	)
	if err := row.Scan(&e.ID, &e.Name, &e.Address, &lat, &lon, &e.RadiusMeters, &e.Active, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return establishment.Establishment{}, err
	}
	if lat != nil && lon != nil {
		e.Position = &geo.Position{Latitude: *lat, Longitude: *lon}
	}
	return e, nil
}

// GetByID implements establishment.Repository.
func (r *establishmentRepositoryImpl) GetByID(ctx context.Context, id string) (establishment.Establishment, error) {
	q := GetQuerier(ctx, r.db)

	e, err := scanEstablishment(q.QueryRow(ctx, `SELECT `+establishmentColumns+` FROM establishments WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return establishment.Establishment{}, establishment.ErrEstablishmentNotFound
		}
		return establishment.Establishment{}, fmt.Errorf("failed to get establishment: %w", err)
	}
	return e, nil
}

// GetByIDs implements establishment.Repository. Unknown IDs are absent from the map.
func (r *establishmentRepositoryImpl) GetByIDs(ctx context.Context, ids []string) (map[string]establishment.Establishment, error) {
	out := make(map[string]establishment.Establishment, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `SELECT `+establishmentColumns+` FROM establishments WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to query establishments: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		e, err := scanEstablishment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan establishment: %w", err)
		}
		out[e.ID] = e
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate establishments: %w", err)
	}
	return out, nil
}

// ListSectors implements establishment.Repository.
func (r *establishmentRepositoryImpl) ListSectors(ctx context.Context, establishmentID string) ([]establishment.Sector, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `
		SELECT id, establishment_id, name, active
		FROM sectors
		WHERE establishment_id = $1 AND active
		ORDER BY name
	`, establishmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query sectors: %w", err)
	}
	defer rows.Close()

	var sectors []establishment.Sector
	for rows.Next() {
		var s establishment.Sector
		if err := rows.Scan(&s.ID, &s.EstablishmentID, &s.Name, &s.Active); err != nil {
			return nil, fmt.Errorf("failed to scan sector: %w", err)
		}
		sectors = append(sectors, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sectors: %w", err)
	}
	return sectors, nil
}
