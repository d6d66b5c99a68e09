package stock

import (
	"context"

	"github.com/pampacargo/logistica/internal/telemetry"
	"github.com/pampacargo/logistica/pkg/shipping"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// Resolver turns product ids into shipping attributes. Its contract is
// degrade-not-fail: a transport, authentication, or decoding failure is
// logged and yields a detail with all physical attributes zeroed, so cost
// calculation downstream always produces a number.
type Resolver struct {
	apiClient APIClient
	logger    *otelzap.Logger
	metrics   *telemetry.Metrics
}

// NewResolver creates a resolver over the given API client.
func NewResolver(apiClient APIClient, logger *otelzap.Logger) *Resolver {
	return &Resolver{
		apiClient: apiClient,
		logger:    logger,
		metrics:   telemetry.NewMetrics(),
	}
}

// ProductDetail resolves one product. It never returns an error.
func (r *Resolver) ProductDetail(ctx context.Context, productID int64) shipping.ProductDetail {
	resp, err := r.apiClient.GetProduct(ctx, productID)
	if err != nil {
		r.logger.Warn("Stock lookup failed, using zeroed product attributes",
			zap.Int64("product_id", productID),
			zap.Error(err),
		)
		r.metrics.RecordDependencyError("stock")
		return shipping.ProductDetail{ProductID: productID}
	}

	return shipping.ProductDetail{
		ProductID:        resp.ID,
		Weight:           resp.Weight,
		Length:           resp.Length,
		Width:            resp.Width,
		Height:           resp.Height,
		OriginPostalCode: resp.WarehousePostalCode,
	}
}
