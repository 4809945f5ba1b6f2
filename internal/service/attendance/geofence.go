package attendance

import (
	"math"

	"github.com/wecare/escalas-backend/internal/domain/establishment"
	"github.com/wecare/escalas-backend/internal/pkg/geo"
	"github.com/wecare/escalas-backend/internal/pkg/validator"
)

type GeofenceResult struct {
	WithinRadius   bool
	DistanceMeters float64
	RadiusMeters   float64
}

// EvaluateGeofence measures pos against the establishment's recorded
// position. The boundary is inclusive: a fix exactly RadiusMeters away is
// within range.
func EvaluateGeofence(pos geo.Position, est establishment.Establishment) (GeofenceResult, error) {
	if est.Position == nil {
		return GeofenceResult{}, establishment.ErrPositionNotRecorded
	}

	distance := pos.DistanceTo(*est.Position)
	if math.IsNaN(distance) || math.IsInf(distance, 0) {
		return GeofenceResult{}, validator.ValidationErrors{{
			Field:   "position",
			Message: geo.ErrInvalidCoordinates.Error(),
		}}
	}

	radius := est.RadiusMeters
	if radius <= 0 {
		radius = establishment.DefaultRadiusMeters
	}
	return GeofenceResult{
		WithinRadius:   distance <= radius,
		DistanceMeters: distance,
		RadiusMeters:   radius,
	}, nil
}
