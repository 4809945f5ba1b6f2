package geo

import (
	"errors"
	"math"
)

// EarthRadiusMeters is the mean Earth radius used for great-circle distances.
const EarthRadiusMeters = 6371000

var ErrInvalidCoordinates = errors.New("invalid geographic coordinates")

// Position is a point on the globe in signed decimal degrees.
type Position struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Validate reports ErrInvalidCoordinates when the position is non-finite or out of range.
func (p Position) Validate() error {
	if !isFinite(p.Latitude) || !isFinite(p.Longitude) {
		return ErrInvalidCoordinates
	}
	if p.Latitude < -90 || p.Latitude > 90 {
		return ErrInvalidCoordinates
	}
	if p.Longitude < -180 || p.Longitude > 180 {
		return ErrInvalidCoordinates
	}
	return nil
}

// DistanceTo returns the haversine distance from p to q in meters.
func (p Position) DistanceTo(q Position) float64 {
	return DistanceMeters(p.Latitude, p.Longitude, q.Latitude, q.Longitude)
}

// DistanceMeters computes the haversine distance between two coordinates in meters.
// Inputs are not range checked; non-finite inputs yield NaN.
func DistanceMeters(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLon := toRadians(lon2 - lon1)

	lat1Rad := toRadians(lat1)
	lat2Rad := toRadians(lat2)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Sin(dLon/2)*math.Sin(dLon/2)*math.Cos(lat1Rad)*math.Cos(lat2Rad)

	// a can drift past 1 by rounding for antipodal points
	if a > 1 {
		a = 1
	}

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusMeters * c
}

func toRadians(deg float64) float64 {
	return deg * (math.Pi / 180.0)
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
