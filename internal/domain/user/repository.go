package user

import (
	"context"
)

type PersonRepository interface {
	GetByID(ctx context.Context, id string) (Person, error)
	ListByIDs(ctx context.Context, ids []string) ([]Person, error)
	ListSupervisors(ctx context.Context) ([]Person, error)
}
