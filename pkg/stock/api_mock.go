package stock

import (
	"context"
	"time"
)

// MockAPIClient is a mock implementation of APIClient for testing.
type MockAPIClient struct {
	SimulateErrors  bool
	SimulateLatency time.Duration

	OnGetProduct func(ctx context.Context, productID int64) (*ProductResponse, error)
}

// NewMockAPIClient creates a new mock stock API client with default behavior.
func NewMockAPIClient() *MockAPIClient {
	return &MockAPIClient{}
}

// GetProduct returns mock product attributes.
func (m *MockAPIClient) GetProduct(ctx context.Context, productID int64) (*ProductResponse, error) {
	if m.SimulateLatency > 0 {
		time.Sleep(m.SimulateLatency)
	}

	if m.SimulateErrors {
		return nil, &APIError{StatusCode: 503, Message: "simulated stock API error"}
	}

	if m.OnGetProduct != nil {
		return m.OnGetProduct(ctx, productID)
	}

	return &ProductResponse{
		ID:     productID,
		Weight: 500,
		Length: 30,
		Width:  20,
		Height: 10,
	}, nil
}
