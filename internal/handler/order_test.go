package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vasiliy-maslov/shop-service/internal/handler"
	"github.com/vasiliy-maslov/shop-service/internal/member"
	"github.com/vasiliy-maslov/shop-service/internal/order"
	"github.com/vasiliy-maslov/shop-service/internal/payment"
	"github.com/vasiliy-maslov/shop-service/internal/stock"
)

type mockOrderService struct {
	placeOrderFunc           func(ctx context.Context, memberID, productID uuid.UUID, quantity int, info order.DeliveryInfo, paymentMethod string) (*payment.Initiation, error)
	placeCartOrderFunc       func(ctx context.Context, memberID uuid.UUID, info order.DeliveryInfo, paymentMethod string) (*payment.Initiation, error)
	cancelOrderFunc          func(ctx context.Context, memberID, orderID uuid.UUID) error
	getOrderDetailsFunc      func(ctx context.Context, memberID, orderID uuid.UUID) (*order.OrderDetails, error)
	getOrdersByMemberFunc    func(ctx context.Context, memberID uuid.UUID) ([]order.OrderSummary, error)
	handlePaymentSuccessFunc func(ctx context.Context, orderID uuid.UUID) error
	handlePaymentFailureFunc func(ctx context.Context, orderID uuid.UUID) error
}

func (m *mockOrderService) PlaceOrder(ctx context.Context, memberID, productID uuid.UUID, quantity int, info order.DeliveryInfo, paymentMethod string) (*payment.Initiation, error) {
	return m.placeOrderFunc(ctx, memberID, productID, quantity, info, paymentMethod)
}

func (m *mockOrderService) PlaceCartOrder(ctx context.Context, memberID uuid.UUID, info order.DeliveryInfo, paymentMethod string) (*payment.Initiation, error) {
	return m.placeCartOrderFunc(ctx, memberID, info, paymentMethod)
}

func (m *mockOrderService) CancelOrder(ctx context.Context, memberID, orderID uuid.UUID) error {
	return m.cancelOrderFunc(ctx, memberID, orderID)
}

func (m *mockOrderService) GetOrderDetails(ctx context.Context, memberID, orderID uuid.UUID) (*order.OrderDetails, error) {
	return m.getOrderDetailsFunc(ctx, memberID, orderID)
}

func (m *mockOrderService) GetOrdersByMember(ctx context.Context, memberID uuid.UUID) ([]order.OrderSummary, error) {
	return m.getOrdersByMemberFunc(ctx, memberID)
}

func (m *mockOrderService) HandlePaymentSuccess(ctx context.Context, orderID uuid.UUID) error {
	return m.handlePaymentSuccessFunc(ctx, orderID)
}

func (m *mockOrderService) HandlePaymentFailure(ctx context.Context, orderID uuid.UUID) error {
	return m.handlePaymentFailureFunc(ctx, orderID)
}

func newOrderRouter(svc order.Service) *chi.Mux {
	r := chi.NewRouter()
	handler.NewOrderHandler(svc).RegisterRoutes(r)
	return r
}

func mustNewUUID(t *testing.T) uuid.UUID {
	t.Helper()
	id, err := uuid.NewV4()
	require.NoError(t, err)
	return id
}

func placeOrderBody(t *testing.T, memberID, productID uuid.UUID, quantity int) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]any{
		"member_id":  memberID,
		"product_id": productID,
		"quantity":   quantity,
		"delivery": map[string]string{
			"receiver_name": "Jamie Park",
			"address":       "12 Main St",
		},
		"payment_method": "CARD",
	})
	require.NoError(t, err)
	return body
}

func TestOrderHandler_PlaceOrder(t *testing.T) {
	memberID := mustNewUUID(t)
	productID := mustNewUUID(t)

	tests := []struct {
		name       string
		svcErr     error
		wantStatus int
	}{
		{"created", nil, http.StatusCreated},
		{"member_not_found", member.ErrNotFound, http.StatusNotFound},
		{"insufficient_stock", fmt.Errorf("%w: keyboard", stock.ErrInsufficientStock), http.StatusConflict},
		{"invalid_quantity", order.ErrInvalidQuantity, http.StatusBadRequest},
		{"gateway_failure", &payment.InitiationError{Code: "1001", Message: "gateway unavailable"}, http.StatusBadGateway},
		{"internal", fmt.Errorf("connection reset"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockOrderService{
				placeOrderFunc: func(ctx context.Context, gotMember, gotProduct uuid.UUID, quantity int, info order.DeliveryInfo, paymentMethod string) (*payment.Initiation, error) {
					if tt.svcErr != nil {
						return nil, tt.svcErr
					}
					assert.Equal(t, memberID, gotMember)
					assert.Equal(t, productID, gotProduct)
					assert.Equal(t, 5, quantity)
					assert.Equal(t, "CARD", paymentMethod)
					return &payment.Initiation{Success: true, RedirectURL: "http://pg.example/redirect", TransactionID: "PG_TXN_1"}, nil
				},
			}

			req := httptest.NewRequest(http.MethodPost, "/orders", bytes.NewReader(placeOrderBody(t, memberID, productID, 5)))
			rec := httptest.NewRecorder()
			newOrderRouter(svc).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)

			if tt.wantStatus == http.StatusCreated {
				var resp payment.Initiation
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
				assert.Equal(t, "http://pg.example/redirect", resp.RedirectURL)
				assert.Equal(t, "PG_TXN_1", resp.TransactionID)
			}
		})
	}

	t.Run("validation_failure", func(t *testing.T) {
		svc := &mockOrderService{}

		body := []byte(`{"member_id":"` + memberID.String() + `"}`)
		req := httptest.NewRequest(http.MethodPost, "/orders", bytes.NewReader(body))
		rec := httptest.NewRecorder()
		newOrderRouter(svc).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)

		var resp handler.ValidationErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "Validation failed", resp.Error)
	})

	t.Run("malformed_body", func(t *testing.T) {
		svc := &mockOrderService{}

		req := httptest.NewRequest(http.MethodPost, "/orders", bytes.NewReader([]byte(`{not json`)))
		rec := httptest.NewRecorder()
		newOrderRouter(svc).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestOrderHandler_PlaceCartOrder(t *testing.T) {
	memberID := mustNewUUID(t)

	body := func(t *testing.T) []byte {
		t.Helper()
		b, err := json.Marshal(map[string]any{
			"member_id": memberID,
			"delivery": map[string]string{
				"receiver_name": "Jamie Park",
				"address":       "12 Main St",
			},
			"payment_method": "CARD",
		})
		require.NoError(t, err)
		return b
	}

	t.Run("created", func(t *testing.T) {
		svc := &mockOrderService{
			placeCartOrderFunc: func(ctx context.Context, gotMember uuid.UUID, info order.DeliveryInfo, paymentMethod string) (*payment.Initiation, error) {
				assert.Equal(t, memberID, gotMember)
				return &payment.Initiation{Success: true, RedirectURL: "http://pg.example/redirect"}, nil
			},
		}

		req := httptest.NewRequest(http.MethodPost, "/orders/cart", bytes.NewReader(body(t)))
		rec := httptest.NewRecorder()
		newOrderRouter(svc).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusCreated, rec.Code)
	})

	t.Run("empty_cart", func(t *testing.T) {
		svc := &mockOrderService{
			placeCartOrderFunc: func(ctx context.Context, gotMember uuid.UUID, info order.DeliveryInfo, paymentMethod string) (*payment.Initiation, error) {
				return nil, order.ErrEmptyCart
			},
		}

		req := httptest.NewRequest(http.MethodPost, "/orders/cart", bytes.NewReader(body(t)))
		rec := httptest.NewRecorder()
		newOrderRouter(svc).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestOrderHandler_CancelOrder(t *testing.T) {
	memberID := mustNewUUID(t)
	orderID := mustNewUUID(t)

	body := func(t *testing.T) []byte {
		t.Helper()
		b, err := json.Marshal(map[string]any{"member_id": memberID})
		require.NoError(t, err)
		return b
	}

	tests := []struct {
		name       string
		svcErr     error
		wantStatus int
	}{
		{"canceled", nil, http.StatusOK},
		{"not_found", order.ErrOrderNotFound, http.StatusNotFound},
		{"not_owner", order.ErrAccessDenied, http.StatusForbidden},
		{"already_shipped", fmt.Errorf("%w: SHIPPED", order.ErrInvalidOrderStatus), http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockOrderService{
				cancelOrderFunc: func(ctx context.Context, gotMember, gotOrder uuid.UUID) error {
					assert.Equal(t, memberID, gotMember)
					assert.Equal(t, orderID, gotOrder)
					return tt.svcErr
				},
			}

			req := httptest.NewRequest(http.MethodPost, "/orders/"+orderID.String()+"/cancel", bytes.NewReader(body(t)))
			rec := httptest.NewRecorder()
			newOrderRouter(svc).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}

	t.Run("bad_order_id", func(t *testing.T) {
		svc := &mockOrderService{}

		req := httptest.NewRequest(http.MethodPost, "/orders/not-a-uuid/cancel", bytes.NewReader(body(t)))
		rec := httptest.NewRecorder()
		newOrderRouter(svc).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestOrderHandler_GetOrderDetails(t *testing.T) {
	memberID := mustNewUUID(t)
	orderID := mustNewUUID(t)

	t.Run("ok", func(t *testing.T) {
		svc := &mockOrderService{
			getOrderDetailsFunc: func(ctx context.Context, gotMember, gotOrder uuid.UUID) (*order.OrderDetails, error) {
				assert.Equal(t, memberID, gotMember)
				assert.Equal(t, orderID, gotOrder)
				return &order.OrderDetails{
					OrderID:     orderID,
					Status:      order.StatusPaid,
					TotalAmount: decimal.NewFromInt(50000),
				}, nil
			},
		}

		req := httptest.NewRequest(http.MethodGet, "/orders/"+orderID.String()+"?member_id="+memberID.String(), nil)
		rec := httptest.NewRecorder()
		newOrderRouter(svc).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)

		var resp order.OrderDetails
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, orderID, resp.OrderID)
		assert.Equal(t, order.StatusPaid, resp.Status)
	})

	t.Run("missing_member_id", func(t *testing.T) {
		svc := &mockOrderService{}

		req := httptest.NewRequest(http.MethodGet, "/orders/"+orderID.String(), nil)
		rec := httptest.NewRecorder()
		newOrderRouter(svc).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("not_owner", func(t *testing.T) {
		svc := &mockOrderService{
			getOrderDetailsFunc: func(ctx context.Context, gotMember, gotOrder uuid.UUID) (*order.OrderDetails, error) {
				return nil, order.ErrAccessDenied
			},
		}

		req := httptest.NewRequest(http.MethodGet, "/orders/"+orderID.String()+"?member_id="+memberID.String(), nil)
		rec := httptest.NewRecorder()
		newOrderRouter(svc).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestOrderHandler_GetOrdersByMember(t *testing.T) {
	memberID := mustNewUUID(t)

	t.Run("ok", func(t *testing.T) {
		svc := &mockOrderService{
			getOrdersByMemberFunc: func(ctx context.Context, gotMember uuid.UUID) ([]order.OrderSummary, error) {
				assert.Equal(t, memberID, gotMember)
				return []order.OrderSummary{
					{OrderID: mustNewUUID(t), Status: order.StatusPaid, TotalAmount: decimal.NewFromInt(50000)},
				}, nil
			},
		}

		req := httptest.NewRequest(http.MethodGet, "/orders?member_id="+memberID.String(), nil)
		rec := httptest.NewRecorder()
		newOrderRouter(svc).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)

		var resp []order.OrderSummary
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Len(t, resp, 1)
	})

	t.Run("member_not_found", func(t *testing.T) {
		svc := &mockOrderService{
			getOrdersByMemberFunc: func(ctx context.Context, gotMember uuid.UUID) ([]order.OrderSummary, error) {
				return nil, member.ErrNotFound
			},
		}

		req := httptest.NewRequest(http.MethodGet, "/orders?member_id="+memberID.String(), nil)
		rec := httptest.NewRecorder()
		newOrderRouter(svc).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
