// Package pricing estimates shipment cost from product attributes and
// distance. The estimator is a pure function of its two upstream
// dependencies: it performs I/O through them but has no observable side
// effects and persists nothing.
package pricing

import (
	"context"

	"github.com/pampacargo/logistica/pkg/distance"
	"github.com/pampacargo/logistica/pkg/shipping"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Linear cost model coefficients. The volume coefficient applies to the unit
// volume, not the total, and the distance term is charged once per line item.
const (
	weightCoefficient   = 1.2
	volumeCoefficient   = 0.5
	distanceCoefficient = 8.0
)

// Currency is the fixed pricing currency.
const Currency = "ARS"

// ProductResolver yields shipping attributes for a product. Implementations
// never fail; degraded lookups return zeroed attributes.
type ProductResolver interface {
	ProductDetail(ctx context.Context, productID int64) shipping.ProductDetail
}

// Estimator combines distance and per-product attributes into a cost quote.
type Estimator struct {
	resolver     ProductResolver
	distance     distance.Estimator
	originPostal string
	logger       *otelzap.Logger
}

// New creates a cost estimator. originPostal is the default origin postal
// code used when a product carries no warehouse postal code of its own.
func New(resolver ProductResolver, dist distance.Estimator, originPostal string, logger *otelzap.Logger) *Estimator {
	return &Estimator{
		resolver:     resolver,
		distance:     dist,
		originPostal: originPostal,
		logger:       logger,
	}
}

// Estimate quotes the shipping cost for the given line items. An empty list
// yields a zero total and an empty product list. Line items are priced
// concurrently but the result keeps the input order.
func (e *Estimator) Estimate(ctx context.Context, delivery shipping.DeliveryAddress, items []shipping.ProductQty) (*shipping.CostQuote, error) {
	quote := &shipping.CostQuote{
		Currency:      Currency,
		TransportType: shipping.TransportPlane,
		Products:      make([]shipping.ProductCost, len(items)),
	}
	if len(items) == 0 {
		return quote, nil
	}

	// One shared distance for the order, computed once. Products that
	// declare their own warehouse postal code get a per-product distance
	// instead.
	orderKm := e.distance.EstimateKm(ctx, e.originPostal, delivery.PostalCode)

	g, ctx := errgroup.WithContext(ctx)
	for i, item := range items {
		i, item := i, item
		g.Go(func() error {
			detail := e.resolver.ProductDetail(ctx, item.ProductID)

			km := orderKm
			if detail.OriginPostalCode != "" {
				km = e.distance.EstimateKm(ctx, detail.OriginPostalCode, delivery.PostalCode)
			}

			totalWeight := detail.Weight * float64(item.Quantity)
			partial := totalWeight*weightCoefficient +
				detail.Volume()*volumeCoefficient +
				km*distanceCoefficient

			quote.Products[i] = shipping.ProductCost{ProductID: item.ProductID, Cost: partial}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, p := range quote.Products {
		quote.TotalCost += p.Cost
	}

	e.logger.Debug("Shipping cost estimated",
		zap.Float64("distance_km", orderKm),
		zap.Int("products", len(items)),
		zap.Float64("total_cost", quote.TotalCost),
	)
	return quote, nil
}
