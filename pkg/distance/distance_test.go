package distance_test

import (
	"context"
	"errors"
	"testing"

	"github.com/pampacargo/logistica/pkg/distance"
	"github.com/pampacargo/logistica/pkg/shipping"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

func TestHaversineKm_SamePoint(t *testing.T) {
	p := distance.Point{Lat: -27.45, Lon: -58.99}
	assert.Equal(t, 0.0, distance.HaversineKm(p, p))
}

func TestHaversineKm_Symmetric(t *testing.T) {
	resistencia := distance.Point{Lat: -27.45, Lon: -58.99}
	buenosAires := distance.Point{Lat: -34.61, Lon: -58.38}

	ab := distance.HaversineKm(resistencia, buenosAires)
	ba := distance.HaversineKm(buenosAires, resistencia)
	assert.Equal(t, ab, ba)

	// Resistencia to Buenos Aires is roughly 800 km in a straight line.
	assert.InDelta(t, 800, ab, 50)
}

func TestCentroid_Empty(t *testing.T) {
	_, ok := distance.Centroid(nil)
	assert.False(t, ok)
}

func TestCentroid_SinglePoint(t *testing.T) {
	p := distance.Point{Lat: -27.45, Lon: -58.99}
	got, ok := distance.Centroid([]distance.Point{p})
	require.True(t, ok)
	assert.InDelta(t, p.Lat, got.Lat, 1e-9)
	assert.InDelta(t, p.Lon, got.Lon, 1e-9)
}

func TestCentroid_OrderIndependent(t *testing.T) {
	points := []distance.Point{
		{Lat: -27.45, Lon: -58.99},
		{Lat: -34.61, Lon: -58.38},
		{Lat: -31.42, Lon: -64.18},
	}
	reversed := []distance.Point{points[2], points[1], points[0]}

	a, okA := distance.Centroid(points)
	b, okB := distance.Centroid(reversed)
	require.True(t, okA)
	require.True(t, okB)
	assert.InDelta(t, a.Lat, b.Lat, 1e-9)
	assert.InDelta(t, a.Lon, b.Lon, 1e-9)
}

func TestProvinceEstimator_KnownProvinces(t *testing.T) {
	estimator := distance.NewProvinceEstimator()
	ctx := context.Background()

	// H (Chaco) to C (Buenos Aires city) resolves via provincial centroids.
	km := estimator.EstimateKm(ctx, "H3500", "C1000")
	assert.Greater(t, km, 0.0)
	assert.NotEqual(t, distance.FallbackKm, km)

	// Same province yields zero distance.
	assert.Equal(t, 0.0, estimator.EstimateKm(ctx, "H3500", "H3500"))
}

func TestProvinceEstimator_UnknownCode(t *testing.T) {
	estimator := distance.NewProvinceEstimator()
	ctx := context.Background()

	assert.Equal(t, distance.FallbackKm, estimator.EstimateKm(ctx, "99999", "C1000"))
	assert.Equal(t, distance.FallbackKm, estimator.EstimateKm(ctx, "H3500", ""))
}

func TestProvinceEstimator_LowercaseCode(t *testing.T) {
	estimator := distance.NewProvinceEstimator()
	ctx := context.Background()

	upper := estimator.EstimateKm(ctx, "H3500", "C1000")
	lower := estimator.EstimateKm(ctx, "h3500", "c1000")
	assert.Equal(t, upper, lower)
}

type stubDirectory struct {
	localities map[string][]shipping.Locality
	err        error
}

func (d *stubDirectory) GetByPostalCode(_ context.Context, postalCode string) ([]shipping.Locality, error) {
	if d.err != nil {
		return nil, d.err
	}
	return d.localities[postalCode], nil
}

func newLocalityEstimator(dir *stubDirectory) *distance.LocalityEstimator {
	return distance.NewLocalityEstimator(dir, otelzap.New(zap.NewNop()))
}

func TestLocalityEstimator_UnknownCode(t *testing.T) {
	estimator := newLocalityEstimator(&stubDirectory{localities: map[string][]shipping.Locality{
		"H3500": {{PostalCode: "H3500", LocalityName: "Resistencia", Lat: -27.45, Lon: -58.99}},
	}})

	km := estimator.EstimateKm(context.Background(), "H3500", "X9999")
	assert.Equal(t, distance.FallbackKm, km)
}

func TestLocalityEstimator_DirectoryError(t *testing.T) {
	estimator := newLocalityEstimator(&stubDirectory{err: errors.New("connection refused")})

	km := estimator.EstimateKm(context.Background(), "H3500", "C1000")
	assert.Equal(t, distance.FallbackKm, km)
}

func TestLocalityEstimator_CentroidOfSharedCode(t *testing.T) {
	// Two localities share the destination code; the measured point is their
	// centroid, so the distance lands between the two individual distances.
	origin := shipping.Locality{PostalCode: "H3500", LocalityName: "Resistencia", Lat: -27.45, Lon: -58.99}
	near := shipping.Locality{PostalCode: "C1000", LocalityName: "Retiro", Lat: -34.59, Lon: -58.37}
	far := shipping.Locality{PostalCode: "C1000", LocalityName: "San Telmo", Lat: -34.62, Lon: -58.37}

	estimator := newLocalityEstimator(&stubDirectory{localities: map[string][]shipping.Locality{
		"H3500": {origin},
		"C1000": {near, far},
	}})

	km := estimator.EstimateKm(context.Background(), "H3500", "C1000")

	toNear := distance.HaversineKm(
		distance.Point{Lat: origin.Lat, Lon: origin.Lon},
		distance.Point{Lat: near.Lat, Lon: near.Lon},
	)
	toFar := distance.HaversineKm(
		distance.Point{Lat: origin.Lat, Lon: origin.Lon},
		distance.Point{Lat: far.Lat, Lon: far.Lon},
	)
	assert.Greater(t, km, toNear)
	assert.Less(t, km, toFar)
}

func TestLocalityEstimator_Deterministic(t *testing.T) {
	dir := &stubDirectory{localities: map[string][]shipping.Locality{
		"H3500": {{PostalCode: "H3500", LocalityName: "Resistencia", Lat: -27.45, Lon: -58.99}},
		"C1000": {{PostalCode: "C1000", LocalityName: "Retiro", Lat: -34.59, Lon: -58.37}},
	}}
	estimator := newLocalityEstimator(dir)
	ctx := context.Background()

	first := estimator.EstimateKm(ctx, "H3500", "C1000")
	second := estimator.EstimateKm(ctx, "H3500", "C1000")
	assert.Equal(t, first, second)
}
