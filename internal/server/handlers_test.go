package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pampacargo/logistica/internal/server"
	"github.com/pampacargo/logistica/internal/store"
	"github.com/pampacargo/logistica/pkg/purchasing"
	"github.com/pampacargo/logistica/pkg/shipping"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

type fixedEstimator struct{}

func (fixedEstimator) Estimate(_ context.Context, _ shipping.DeliveryAddress, items []shipping.ProductQty) (*shipping.CostQuote, error) {
	quote := &shipping.CostQuote{Currency: "ARS", TransportType: shipping.TransportPlane}
	for _, item := range items {
		quote.Products = append(quote.Products, shipping.ProductCost{ProductID: item.ProductID, Cost: 1000})
		quote.TotalCost += 1000
	}
	return quote, nil
}

func newTestHandler() http.Handler {
	logger := otelzap.New(zap.NewNop())
	mem := store.NewMemory()
	service := shipping.NewService(
		shipping.ServiceConfig{},
		fixedEstimator{},
		mem.Shipments(),
		mem.Addresses(),
		mem.Localities(),
		mem.Travels(),
		purchasing.NewMockNotifier(),
		logger,
	)
	return server.New(server.Config{Port: 0}, service, fixedEstimator{}, logger).Routes()
}

func createBody() map[string]any {
	return map[string]any{
		"order_id": 100,
		"user_id":  5,
		"delivery_address": map[string]any{
			"street":        "Av. 9 de Julio",
			"number":        350,
			"postal_code":   "H3500",
			"locality_name": "Resistencia",
		},
		"products":       []map[string]any{{"product_id": 1, "quantity": 2}},
		"transport_type": "truck",
	}
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	return out
}

func TestHealthEndpoint(t *testing.T) {
	handler := newTestHandler()
	rec := doJSON(t, handler, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestQuoteEndpoint(t *testing.T) {
	handler := newTestHandler()

	rec := doJSON(t, handler, http.MethodPost, "/api/shippings/quote", map[string]any{
		"delivery_address": createBody()["delivery_address"],
		"products":         []map[string]any{{"product_id": 1, "quantity": 1}, {"product_id": 2, "quantity": 1}},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode[map[string]any](t, rec)
	assert.Equal(t, "ARS", body["currency"])
	assert.Equal(t, 2000.0, body["total_cost"])
	assert.Len(t, body["products"], 2)
}

func TestCreateEndpoint(t *testing.T) {
	handler := newTestHandler()

	rec := doJSON(t, handler, http.MethodPost, "/api/shippings", createBody())
	require.Equal(t, http.StatusCreated, rec.Code)

	body := decode[map[string]any](t, rec)
	assert.Equal(t, 1.0, body["shipping_id"])
	assert.Equal(t, "created", body["status"])
	assert.Equal(t, "truck", body["transport_type"])
	assert.NotEmpty(t, body["estimated_delivery_at"])
}

func TestCreateEndpoint_ValidationErrors(t *testing.T) {
	handler := newTestHandler()

	empty := createBody()
	empty["products"] = []map[string]any{}
	rec := doJSON(t, handler, http.MethodPost, "/api/shippings", empty)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	badQty := createBody()
	badQty["products"] = []map[string]any{{"product_id": 1, "quantity": 0}}
	rec = doJSON(t, handler, http.MethodPost, "/api/shippings", badQty)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	unknownLocality := createBody()
	unknownLocality["delivery_address"] = map[string]any{
		"street": "Calle Falsa", "number": 123,
		"postal_code": "Z9999", "locality_name": "Atlantis",
	}
	rec = doJSON(t, handler, http.MethodPost, "/api/shippings", unknownLocality)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/shippings", bytes.NewBufferString("{not json"))
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestGetEndpoint(t *testing.T) {
	handler := newTestHandler()

	created := decode[map[string]any](t, doJSON(t, handler, http.MethodPost, "/api/shippings", createBody()))
	id := int64(created["shipping_id"].(float64))

	rec := doJSON(t, handler, http.MethodGet, fmt.Sprintf("/api/shippings/%d", id), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode[map[string]any](t, rec)
	assert.Equal(t, float64(id), body["shipping_id"])
	assert.Equal(t, "PENDIENTE", body["carrier_name"])
	assert.NotEmpty(t, body["tracking_number"])

	delivery := body["delivery_address"].(map[string]any)
	assert.Equal(t, "Av. 9 de Julio", delivery["street"])
	departure := body["departure_address"].(map[string]any)
	assert.Equal(t, "Av. Sarmiento", departure["street"])
}

func TestGetEndpoint_NotFound(t *testing.T) {
	handler := newTestHandler()

	rec := doJSON(t, handler, http.MethodGet, "/api/shippings/999", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, handler, http.MethodGet, "/api/shippings/abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCancelEndpoint(t *testing.T) {
	handler := newTestHandler()

	created := decode[map[string]any](t, doJSON(t, handler, http.MethodPost, "/api/shippings", createBody()))
	id := int64(created["shipping_id"].(float64))

	rec := doJSON(t, handler, http.MethodPost, fmt.Sprintf("/api/shippings/%d/cancel", id), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode[map[string]any](t, rec)
	assert.Equal(t, "cancelled", body["status"])

	// Cancelling again conflicts: the shipment is already terminal.
	rec = doJSON(t, handler, http.MethodPost, fmt.Sprintf("/api/shippings/%d/cancel", id), nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCancelEndpoint_NotFound(t *testing.T) {
	handler := newTestHandler()

	rec := doJSON(t, handler, http.MethodPost, "/api/shippings/999/cancel", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListEndpoint(t *testing.T) {
	handler := newTestHandler()

	for i := 0; i < 3; i++ {
		body := createBody()
		body["user_id"] = i%2 + 1
		rec := doJSON(t, handler, http.MethodPost, "/api/shippings", body)
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := doJSON(t, handler, http.MethodGet, "/api/shippings", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[map[string]any](t, rec)
	assert.Len(t, body["shipments"], 3)

	pagination := body["pagination"].(map[string]any)
	assert.Equal(t, 1.0, pagination["current_page"])
	assert.Equal(t, 1.0, pagination["total_pages"])
	assert.Equal(t, 3.0, pagination["total_items"])
	assert.Equal(t, 20.0, pagination["items_per_page"])

	rec = doJSON(t, handler, http.MethodGet, "/api/shippings?user_id=1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body = decode[map[string]any](t, rec)
	assert.Len(t, body["shipments"], 2)

	rec = doJSON(t, handler, http.MethodGet, "/api/shippings?status=created&limit=2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body = decode[map[string]any](t, rec)
	assert.Len(t, body["shipments"], 2)
	pagination = body["pagination"].(map[string]any)
	assert.Equal(t, 2.0, pagination["total_pages"])
}

func TestListEndpoint_InvalidFilters(t *testing.T) {
	handler := newTestHandler()

	rec := doJSON(t, handler, http.MethodGet, "/api/shippings?status=bogus", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, handler, http.MethodGet, "/api/shippings?user_id=abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, handler, http.MethodGet, "/api/shippings?from_date=not-a-date", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
