package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"
)

// HTTPClientConfig configures the real PG API client.
type HTTPClientConfig struct {
	InitiateURL    string
	APIKey         string
	APISecret      string
	RequestTimeout time.Duration
}

// HTTPClient talks to a real payment gateway over HTTP. Calls run behind a
// circuit breaker with an explicit request timeout, so a slow gateway cannot
// hold order placement hostage.
type HTTPClient struct {
	cfg     HTTPClientConfig
	httpCli *http.Client
	breaker *gobreaker.CircuitBreaker[*Initiation]
}

func NewHTTPClient(cfg HTTPClientConfig) *HTTPClient {
	return &HTTPClient{
		cfg: cfg,
		httpCli: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
		breaker: gobreaker.NewCircuitBreaker[*Initiation](gobreaker.Settings{
			Name:    "pg-initiate",
			Timeout: 30 * time.Second,
		}),
	}
}

type initiationWireRequest struct {
	OrderID            string `json:"orderId"`
	Amount             string `json:"amount"`
	PaymentMethod      string `json:"paymentMethod"`
	SuccessCallbackURL string `json:"successCallbackUrl"`
	FailureCallbackURL string `json:"failureCallbackUrl"`
}

type initiationWireResponse struct {
	ResultCode      string `json:"resultCode"`
	ResultMessage   string `json:"resultMessage"`
	PGTransactionID string `json:"pgTransactionId"`
	RedirectURL     string `json:"redirectUrl"`
}

const resultCodeSuccess = "0000"

func (c *HTTPClient) RequestInitiation(ctx context.Context, req InitiationRequest) (*Initiation, error) {
	return c.breaker.Execute(func() (*Initiation, error) {
		return c.doRequest(ctx, req)
	})
}

func (c *HTTPClient) doRequest(ctx context.Context, req InitiationRequest) (*Initiation, error) {
	body, err := json.Marshal(initiationWireRequest{
		OrderID:            req.OrderID.String(),
		Amount:             req.Amount.String(),
		PaymentMethod:      req.Method,
		SuccessCallbackURL: req.SuccessCallbackURL,
		FailureCallbackURL: req.FailureCallbackURL,
	})
	if err != nil {
		return nil, fmt.Errorf("client: failed to marshal initiation request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.InitiateURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("client: failed to build initiation request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-API-Key", c.cfg.APIKey)
	httpReq.Header.Set("X-API-Secret", c.cfg.APISecret)

	resp, err := c.httpCli.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("client: initiation request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("client: gateway returned status %d", resp.StatusCode)
	}

	var wire initiationWireResponse
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return nil, fmt.Errorf("client: failed to decode gateway response: %w", err)
	}

	initiation := &Initiation{
		Success:       wire.ResultCode == resultCodeSuccess,
		RedirectURL:   wire.RedirectURL,
		TransactionID: wire.PGTransactionID,
	}
	if !initiation.Success {
		initiation.ErrorCode = wire.ResultCode
		initiation.ErrorMessage = wire.ResultMessage
	}

	return initiation, nil
}
