// Package distance estimates the kilometer distance between two postal
// codes. Estimators never fail: unknown or ambiguous codes yield a neutral
// fallback so cost calculation always produces a number.
package distance

import (
	"context"
	"math"
)

// FallbackKm is returned when either postal code cannot be matched to any
// known coordinates.
const FallbackKm = 300.0

// earthRadiusKm is the Earth radius used by the Haversine formula.
const earthRadiusKm = 6371.0

// Estimator resolves an (origin, destination) postal code pair to a
// distance in kilometers. Implementations must be side-effect free and
// deterministic for identical inputs.
type Estimator interface {
	// EstimateKm never returns an error; degraded lookups fall back to
	// FallbackKm.
	EstimateKm(ctx context.Context, originCode, destinationCode string) float64
}

// Point is a geographic coordinate in decimal degrees.
type Point struct {
	Lat float64
	Lon float64
}

// HaversineKm computes the great-circle distance between two points.
func HaversineKm(a, b Point) float64 {
	dLat := toRad(b.Lat - a.Lat)
	dLon := toRad(b.Lon - a.Lon)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(a.Lat))*math.Cos(toRad(b.Lat))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return earthRadiusKm * c
}

// Centroid computes the spherical centroid of a set of points by averaging
// their unit vectors. The vector mean is commutative, so the result does not
// depend on input order, and it avoids the discontinuity of naively
// averaging longitudes near the antimeridian. Returns false for an empty set.
func Centroid(points []Point) (Point, bool) {
	if len(points) == 0 {
		return Point{}, false
	}

	var x, y, z float64
	for _, p := range points {
		latRad := toRad(p.Lat)
		lonRad := toRad(p.Lon)
		cosLat := math.Cos(latRad)
		x += cosLat * math.Cos(lonRad)
		y += cosLat * math.Sin(lonRad)
		z += math.Sin(latRad)
	}

	n := float64(len(points))
	x /= n
	y /= n
	z /= n

	lon := math.Atan2(y, x)
	hyp := math.Sqrt(x*x + y*y)
	lat := math.Atan2(z, hyp)

	return Point{Lat: toDeg(lat), Lon: toDeg(lon)}, true
}

func toRad(deg float64) float64 { return deg * math.Pi / 180.0 }
func toDeg(rad float64) float64 { return rad * 180.0 / math.Pi }
