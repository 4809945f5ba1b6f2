package establishment

import "context"

// Repository is the read side of the establishment directory.
type Repository interface {
	GetByID(ctx context.Context, id string) (Establishment, error)
	GetByIDs(ctx context.Context, ids []string) (map[string]Establishment, error)
	ListSectors(ctx context.Context, establishmentID string) ([]Sector, error)
}
