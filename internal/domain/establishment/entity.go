package establishment

import (
	"time"

	"github.com/wecare/escalas-backend/internal/pkg/geo"
)

const (
	MinRadiusMeters     = 10
	MaxRadiusMeters     = 1000
	DefaultRadiusMeters = 100
)

// Establishment is a workplace with a circular check-in zone.
type Establishment struct {
	ID           string
	Name         string
	Address      string
	Position     *geo.Position // nil when the address was never geocoded
	RadiusMeters float64
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    *time.Time
}

// Validate checks the geofence configuration of an establishment.
func (e Establishment) Validate() error {
	if e.RadiusMeters < MinRadiusMeters || e.RadiusMeters > MaxRadiusMeters {
		return ErrInvalidRadius
	}
	if e.Position != nil {
		if err := e.Position.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Sector is a named sub-unit of an establishment (ICU, Emergency...).
type Sector struct {
	ID              string
	EstablishmentID string
	Name            string
	Active          bool
}
