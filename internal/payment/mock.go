package payment

import (
	"context"
	"fmt"
	"time"
)

// MockClient is the deterministic gateway used in tests and local development.
// It always reports success and synthesizes the transaction id and redirect URL
// from the order id and the current time.
type MockClient struct {
	redirectBaseURL string
	now             func() time.Time
}

func NewMockClient(redirectBaseURL string) *MockClient {
	return &MockClient{
		redirectBaseURL: redirectBaseURL,
		now:             time.Now,
	}
}

// NewMockClientWithClock pins the clock so tests get stable ids.
func NewMockClientWithClock(redirectBaseURL string, now func() time.Time) *MockClient {
	return &MockClient{
		redirectBaseURL: redirectBaseURL,
		now:             now,
	}
}

func (c *MockClient) RequestInitiation(_ context.Context, req InitiationRequest) (*Initiation, error) {
	millis := c.now().UnixMilli()

	return &Initiation{
		Success:       true,
		TransactionID: fmt.Sprintf("PG_TXN_%s_%d", req.OrderID, millis),
		RedirectURL: fmt.Sprintf("%s/payments/mock-redirect?orderId=%s&pg_token=mock_token_%d",
			c.redirectBaseURL, req.OrderID, millis),
	}, nil
}
