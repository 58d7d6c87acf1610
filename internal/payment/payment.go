package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// ErrInitiationFailed is the errors.Is target for any gateway-reported
// initiation failure; the concrete error is always an *InitiationError.
var ErrInitiationFailed = errors.New("payment initiation failed")

// InitiationError carries the gateway's own failure code and message.
type InitiationError struct {
	Code    string
	Message string
}

func (e *InitiationError) Error() string {
	return fmt.Sprintf("payment initiation failed: %s (%s)", e.Message, e.Code)
}

func (e *InitiationError) Is(target error) bool {
	return target == ErrInitiationFailed
}

// Initiation is the gateway's answer to a payment initiation request.
type Initiation struct {
	Success       bool   `json:"-"`
	RedirectURL   string `json:"redirect_url"`
	TransactionID string `json:"pg_transaction_id"`
	ErrorCode     string `json:"-"`
	ErrorMessage  string `json:"-"`
}

// InitiationRequest is the data every PG client needs to open a payment session.
type InitiationRequest struct {
	OrderID            uuid.UUID
	Amount             decimal.Decimal
	Method             string
	SuccessCallbackURL string
	FailureCallbackURL string
}

// Client is the raw PG API port. Implementations talk (or pretend to talk)
// to one concrete gateway.
type Client interface {
	RequestInitiation(ctx context.Context, req InitiationRequest) (*Initiation, error)
}

type Service interface {
	InitiatePayment(ctx context.Context, orderID uuid.UUID, amount decimal.Decimal, method, successURL, failureURL string) (*Initiation, error)
}

type gatewayService struct {
	client Client
}

func NewService(client Client) Service {
	return &gatewayService{client: client}
}

// InitiatePayment performs a single gateway call. It never retries; redelivery
// and recovery are the concern of the callback flow, not of initiation.
func (s *gatewayService) InitiatePayment(ctx context.Context, orderID uuid.UUID, amount decimal.Decimal, method, successURL, failureURL string) (*Initiation, error) {
	resp, err := s.client.RequestInitiation(ctx, InitiationRequest{
		OrderID:            orderID,
		Amount:             amount,
		Method:             method,
		SuccessCallbackURL: successURL,
		FailureCallbackURL: failureURL,
	})
	if err != nil {
		log.Error().Err(err).Stringer("order_id", orderID).Msg("service: gateway request failed")
		return nil, fmt.Errorf("service: gateway request failed: %w", err)
	}

	if !resp.Success {
		log.Warn().Stringer("order_id", orderID).Str("error_code", resp.ErrorCode).Str("error_message", resp.ErrorMessage).Msg("service: gateway rejected initiation")
		return nil, &InitiationError{Code: resp.ErrorCode, Message: resp.ErrorMessage}
	}

	log.Info().Stringer("order_id", orderID).Str("pg_transaction_id", resp.TransactionID).Msg("service: payment initiated")
	return resp, nil
}
