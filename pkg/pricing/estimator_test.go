package pricing_test

import (
	"context"
	"testing"

	"github.com/pampacargo/logistica/pkg/pricing"
	"github.com/pampacargo/logistica/pkg/shipping"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

type stubResolver struct {
	details map[int64]shipping.ProductDetail
}

func (r *stubResolver) ProductDetail(_ context.Context, productID int64) shipping.ProductDetail {
	if d, ok := r.details[productID]; ok {
		return d
	}
	return shipping.ProductDetail{ProductID: productID}
}

type stubDistance struct {
	km       float64
	byOrigin map[string]float64
}

func (d *stubDistance) EstimateKm(_ context.Context, originCode, _ string) float64 {
	if km, ok := d.byOrigin[originCode]; ok {
		return km
	}
	return d.km
}

func newEstimator(resolver *stubResolver, dist *stubDistance) *pricing.Estimator {
	return pricing.New(resolver, dist, "H3500", otelzap.New(zap.NewNop()))
}

var testDelivery = shipping.DeliveryAddress{
	Street:       "Av. Rivadavia",
	Number:       1500,
	PostalCode:   "C1000",
	LocalityName: "Retiro",
}

func TestEstimate_EmptyItems(t *testing.T) {
	estimator := newEstimator(&stubResolver{}, &stubDistance{km: 300})

	quote, err := estimator.Estimate(context.Background(), testDelivery, nil)
	require.NoError(t, err)
	assert.Equal(t, pricing.Currency, quote.Currency)
	assert.Equal(t, 0.0, quote.TotalCost)
	assert.Empty(t, quote.Products)
}

func TestEstimate_SingleItem(t *testing.T) {
	resolver := &stubResolver{details: map[int64]shipping.ProductDetail{
		7: {ProductID: 7, Weight: 20, Length: 10, Width: 5, Height: 2},
	}}
	estimator := newEstimator(resolver, &stubDistance{km: 300})

	quote, err := estimator.Estimate(context.Background(), testDelivery,
		[]shipping.ProductQty{{ProductID: 7, Quantity: 1}})
	require.NoError(t, err)

	// 20*1*1.2 + (10*5*2)*0.5 + 300*8.0
	assert.InDelta(t, 2474.0, quote.TotalCost, 1e-9)
	require.Len(t, quote.Products, 1)
	assert.Equal(t, int64(7), quote.Products[0].ProductID)
	assert.InDelta(t, 2474.0, quote.Products[0].Cost, 1e-9)
	assert.Equal(t, "ARS", quote.Currency)
}

func TestEstimate_QuantityScalesWeightOnly(t *testing.T) {
	resolver := &stubResolver{details: map[int64]shipping.ProductDetail{
		7: {ProductID: 7, Weight: 20, Length: 10, Width: 5, Height: 2},
	}}
	estimator := newEstimator(resolver, &stubDistance{km: 300})

	quote, err := estimator.Estimate(context.Background(), testDelivery,
		[]shipping.ProductQty{{ProductID: 7, Quantity: 3}})
	require.NoError(t, err)

	// Only the weight term multiplies by quantity; volume and distance do not.
	assert.InDelta(t, 20*3*1.2+100*0.5+300*8.0, quote.TotalCost, 1e-9)
}

func TestEstimate_TotalIsSumOfPartials(t *testing.T) {
	resolver := &stubResolver{details: map[int64]shipping.ProductDetail{
		7: {ProductID: 7, Weight: 20, Length: 10, Width: 5, Height: 2},
		8: {ProductID: 8, Weight: 20, Length: 10, Width: 5, Height: 2},
	}}
	estimator := newEstimator(resolver, &stubDistance{km: 300})

	quote, err := estimator.Estimate(context.Background(), testDelivery,
		[]shipping.ProductQty{{ProductID: 7, Quantity: 1}, {ProductID: 8, Quantity: 1}})
	require.NoError(t, err)

	assert.InDelta(t, 4948.0, quote.TotalCost, 1e-9)
}

func TestEstimate_PreservesInputOrder(t *testing.T) {
	resolver := &stubResolver{details: map[int64]shipping.ProductDetail{}}
	for id := int64(1); id <= 20; id++ {
		resolver.details[id] = shipping.ProductDetail{ProductID: id, Weight: float64(id)}
	}
	estimator := newEstimator(resolver, &stubDistance{km: 10})

	items := make([]shipping.ProductQty, 0, 20)
	for id := int64(1); id <= 20; id++ {
		items = append(items, shipping.ProductQty{ProductID: id, Quantity: 1})
	}

	quote, err := estimator.Estimate(context.Background(), testDelivery, items)
	require.NoError(t, err)
	require.Len(t, quote.Products, 20)
	for i, p := range quote.Products {
		assert.Equal(t, int64(i+1), p.ProductID)
	}
}

func TestEstimate_UnresolvedProductStillPriced(t *testing.T) {
	// The resolver degrades to zeroed attributes, so the quote reduces to the
	// distance term alone instead of failing.
	estimator := newEstimator(&stubResolver{}, &stubDistance{km: 300})

	quote, err := estimator.Estimate(context.Background(), testDelivery,
		[]shipping.ProductQty{{ProductID: 99, Quantity: 2}})
	require.NoError(t, err)
	assert.InDelta(t, 2400.0, quote.TotalCost, 1e-9)
}

func TestEstimate_ProductWarehouseOverridesOrigin(t *testing.T) {
	resolver := &stubResolver{details: map[int64]shipping.ProductDetail{
		1: {ProductID: 1, Weight: 10},
		2: {ProductID: 2, Weight: 10, OriginPostalCode: "X5000"},
	}}
	dist := &stubDistance{km: 100, byOrigin: map[string]float64{"X5000": 700}}
	estimator := newEstimator(resolver, dist)

	quote, err := estimator.Estimate(context.Background(), testDelivery,
		[]shipping.ProductQty{{ProductID: 1, Quantity: 1}, {ProductID: 2, Quantity: 1}})
	require.NoError(t, err)

	require.Len(t, quote.Products, 2)
	assert.InDelta(t, 10*1.2+100*8.0, quote.Products[0].Cost, 1e-9)
	assert.InDelta(t, 10*1.2+700*8.0, quote.Products[1].Cost, 1e-9)
}
