// Package stock resolves product shipping attributes from the stock service.
package stock

import (
	"context"
)

// APIClient defines the stock API operations. The abstraction allows mock
// implementations during testing and the real HTTP client in production.
type APIClient interface {
	// GetProduct fetches one product's shipping attributes.
	GetProduct(ctx context.Context, productID int64) (*ProductResponse, error)
}

// ProductResponse matches the stock API's product payload.
type ProductResponse struct {
	ID                  int64   `json:"id"`
	Weight              float64 `json:"weight"`
	Length              float64 `json:"length"`
	Width               float64 `json:"width"`
	Height              float64 `json:"height"`
	WarehousePostalCode string  `json:"warehouse_postal_code,omitempty"`
}

// APIError represents an error from the stock API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}
