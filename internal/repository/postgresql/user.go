package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/wecare/escalas-backend/internal/domain/user"
	"github.com/wecare/escalas-backend/internal/pkg/database"
)

type personRepositoryImpl struct {
	db *database.DB
}

func NewPersonRepository(db *database.DB) user.PersonRepository {
	return &personRepositoryImpl{db: db}
}

// GetByID implements user.PersonRepository.
func (r *personRepositoryImpl) GetByID(ctx context.Context, id string) (user.Person, error) {
	q := GetQuerier(ctx, r.db)

	var p user.Person
	err := q.QueryRow(ctx, `SELECT id, name, role FROM users WHERE id = $1 AND active`, id).Scan(&p.ID, &p.Name, &p.Role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.Person{}, user.ErrPersonNotFound
		}
		return user.Person{}, fmt.Errorf("failed to get person: %w", err)
	}
	return p, nil
}

// ListByIDs implements user.PersonRepository.
func (r *personRepositoryImpl) ListByIDs(ctx context.Context, ids []string) ([]user.Person, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return r.list(ctx, `SELECT id, name, role FROM users WHERE id = ANY($1) AND active ORDER BY name`, ids)
}

// ListSupervisors implements user.PersonRepository.
func (r *personRepositoryImpl) ListSupervisors(ctx context.Context) ([]user.Person, error) {
	return r.list(ctx, `SELECT id, name, role FROM users WHERE role = ANY($1) AND active ORDER BY name`,
		[]string{string(user.RoleSupervisor), string(user.RoleAdministrator)})
}

func (r *personRepositoryImpl) list(ctx context.Context, query string, args ...interface{}) ([]user.Person, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query people: %w", err)
	}
	defer rows.Close()

	var people []user.Person
	for rows.Next() {
		var p user.Person
		if err := rows.Scan(&p.ID, &p.Name, &p.Role); err != nil {
			return nil, fmt.Errorf("failed to scan person: %w", err)
		}
		people = append(people, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate people: %w", err)
	}
	return people, nil
}
