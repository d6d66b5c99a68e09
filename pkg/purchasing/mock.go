package purchasing

import (
	"context"
	"sync"
)

// MockNotifier is a mock Notifier for testing.
type MockNotifier struct {
	SimulateErrors bool

	OnNotifyCancellation func(ctx context.Context, shippingID int64) error

	mu       sync.Mutex
	notified []int64
}

// NewMockNotifier creates a mock notifier with default behavior.
func NewMockNotifier() *MockNotifier {
	return &MockNotifier{}
}

// NotifyCancellation records the notification attempt.
func (m *MockNotifier) NotifyCancellation(ctx context.Context, shippingID int64) error {
	m.mu.Lock()
	m.notified = append(m.notified, shippingID)
	m.mu.Unlock()

	if m.OnNotifyCancellation != nil {
		return m.OnNotifyCancellation(ctx, shippingID)
	}
	if m.SimulateErrors {
		return &notifyError{}
	}
	return nil
}

// Notified returns the shipping ids a notification was attempted for.
func (m *MockNotifier) Notified() []int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]int64, len(m.notified))
	copy(out, m.notified)
	return out
}

type notifyError struct{}

func (*notifyError) Error() string { return "simulated purchasing API error" }
