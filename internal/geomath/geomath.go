package geomath

import (
	"fmt"
	"math"

	"github.com/example/trip-quoting/internal/models"
)

const (
	// earthRadiusMeters is the mean Earth radius used by all great-circle math.
	earthRadiusMeters = 6371000.0

	// DefaultAvgSpeedKmh is the assumed urban average speed for the duration
	// fallback. This is a crude linear model, not a routing engine.
	DefaultAvgSpeedKmh = 30.0

	// maxProjectableLat bounds projection away from the poles, where the
	// longitude offset denominator collapses to zero.
	maxProjectableLat = 89.9
)

// Haversine returns the great-circle distance in meters between two points.
// Symmetric in its arguments; zero for identical points.
func Haversine(a, b models.Coordinate) float64 {
	dLat := toRad(b.Latitude - a.Latitude)
	dLon := toRad(b.Longitude - a.Longitude)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(a.Latitude))*math.Cos(toRad(b.Latitude))*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return earthRadiusMeters * c
}

// EstimateDuration converts a distance to seconds at a fixed assumed speed
// in km/h. Values <= 0 fall back to DefaultAvgSpeedKmh.
func EstimateDuration(distanceMeters, avgSpeedKmh float64) float64 {
	if avgSpeedKmh <= 0 {
		avgSpeedKmh = DefaultAvgSpeedKmh
	}
	speedMps := avgSpeedKmh * 1000 / 3600
	return distanceMeters / speedMps
}

func toRad(deg float64) float64 { return deg * math.Pi / 180 }

// Direction is one of the 8 fixed compass directions supported by Project.
type Direction string

const (
	North     Direction = "north"
	South     Direction = "south"
	East      Direction = "east"
	West      Direction = "west"
	Northeast Direction = "northeast"
	Northwest Direction = "northwest"
	Southeast Direction = "southeast"
	Southwest Direction = "southwest"
)

// diagonalFactor splits a diagonal offset across both axes (cos 45°).
const diagonalFactor = 0.7071

// Project moves anchor by the given distance along a compass direction and
// returns the new coordinate rounded to 6 decimal places (~0.1 m).
// Latitudes within 0.1° of the poles are out of supported range.
func Project(anchor models.Coordinate, dir Direction, meters float64) (models.Coordinate, error) {
	if err := anchor.Validate(); err != nil {
		return models.Coordinate{}, err
	}
	if math.Abs(anchor.Latitude) > maxProjectableLat {
		return models.Coordinate{}, fmt.Errorf("%w: latitude %f too close to a pole for projection",
			models.ErrInvalidCoordinate, anchor.Latitude)
	}

	latOffset := meters / earthRadiusMeters * (180 / math.Pi)
	lonOffset := meters / (earthRadiusMeters * math.Cos(toRad(anchor.Latitude))) * (180 / math.Pi)

	lat, lon := anchor.Latitude, anchor.Longitude
	switch dir {
	case North:
		lat += latOffset
	case South:
		lat -= latOffset
	case East:
		lon += lonOffset
	case West:
		lon -= lonOffset
	case Northeast:
		lat += latOffset * diagonalFactor
		lon += lonOffset * diagonalFactor
	case Northwest:
		lat += latOffset * diagonalFactor
		lon -= lonOffset * diagonalFactor
	case Southeast:
		lat -= latOffset * diagonalFactor
		lon += lonOffset * diagonalFactor
	case Southwest:
		lat -= latOffset * diagonalFactor
		lon -= lonOffset * diagonalFactor
	default:
		lat += latOffset
	}

	return models.Coordinate{
		Latitude:  round6(lat),
		Longitude: round6(lon),
	}, nil
}

func round6(v float64) float64 { return math.Round(v*1e6) / 1e6 }
