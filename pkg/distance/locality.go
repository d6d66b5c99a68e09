package distance

import (
	"context"

	"github.com/pampacargo/logistica/pkg/shipping"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// Directory is the queryable locality set backing the locality-level
// strategy. Absence of a match is a legitimate outcome, not an error.
type Directory interface {
	GetByPostalCode(ctx context.Context, postalCode string) ([]shipping.Locality, error)
}

// LocalityEstimator is the refined strategy. It resolves every locality
// sharing each postal code and measures between the spherical centroids of
// the two sets, so the intentional ambiguity of coarse postal codes is
// averaged out instead of picking one locality arbitrarily.
type LocalityEstimator struct {
	directory Directory
	logger    *otelzap.Logger
}

// NewLocalityEstimator creates the locality-level estimator.
func NewLocalityEstimator(directory Directory, logger *otelzap.Logger) *LocalityEstimator {
	return &LocalityEstimator{directory: directory, logger: logger}
}

// EstimateKm implements Estimator. Directory failures and unmatched codes
// degrade to FallbackKm.
func (e *LocalityEstimator) EstimateKm(ctx context.Context, originCode, destinationCode string) float64 {
	origin, ok := e.centroidFor(ctx, originCode)
	if !ok {
		return FallbackKm
	}
	destination, ok := e.centroidFor(ctx, destinationCode)
	if !ok {
		return FallbackKm
	}
	return HaversineKm(origin, destination)
}

func (e *LocalityEstimator) centroidFor(ctx context.Context, postalCode string) (Point, bool) {
	localities, err := e.directory.GetByPostalCode(ctx, postalCode)
	if err != nil {
		e.logger.Warn("Locality lookup failed, using fallback distance",
			zap.String("postal_code", postalCode),
			zap.Error(err),
		)
		return Point{}, false
	}

	points := make([]Point, len(localities))
	for i, l := range localities {
		points[i] = Point{Lat: l.Lat, Lon: l.Lon}
	}
	return Centroid(points)
}
