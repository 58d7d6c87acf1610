package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/vasiliy-maslov/shop-service/internal/cart"
	"github.com/vasiliy-maslov/shop-service/internal/member"
	"github.com/vasiliy-maslov/shop-service/internal/metrics"
	"github.com/vasiliy-maslov/shop-service/internal/payment"
	"github.com/vasiliy-maslov/shop-service/internal/product"
	"github.com/vasiliy-maslov/shop-service/internal/stock"
)

// Collaborator ports, scoped to what the orchestrator actually calls.
type MemberService interface {
	FindByID(ctx context.Context, id uuid.UUID) (*member.Member, error)
}

type ProductService interface {
	FindByID(ctx context.Context, id uuid.UUID) (*product.Product, error)
}

type CartService interface {
	GetCartWithItems(ctx context.Context, memberID uuid.UUID) (*cart.Cart, error)
	Clear(ctx context.Context, memberID uuid.UUID) error
}

// OrderDetails is the flattened read view of a single order.
type OrderDetails struct {
	OrderID       uuid.UUID       `json:"order_id"`
	OrderDate     time.Time       `json:"order_date"`
	Status        OrderStatus     `json:"status"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	PaymentMethod string          `json:"payment_method"`
	Items         []OrderItemLine `json:"items"`
	Delivery      DeliveryDetails `json:"delivery"`
}

type OrderItemLine struct {
	ProductID    uuid.UUID       `json:"product_id"`
	ProductTitle string          `json:"product_title"`
	OrderPrice   decimal.Decimal `json:"order_price"`
	Count        int             `json:"count"`
}

type DeliveryDetails struct {
	ReceiverName    string         `json:"receiver_name"`
	Address         string         `json:"address"`
	DeliveryMessage string         `json:"delivery_message"`
	Status          DeliveryStatus `json:"status"`
}

type OrderSummary struct {
	OrderID     uuid.UUID       `json:"order_id"`
	OrderDate   time.Time       `json:"order_date"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Status      OrderStatus     `json:"status"`
}

type Service interface {
	PlaceOrder(ctx context.Context, memberID, productID uuid.UUID, quantity int, info DeliveryInfo, paymentMethod string) (*payment.Initiation, error)
	PlaceCartOrder(ctx context.Context, memberID uuid.UUID, info DeliveryInfo, paymentMethod string) (*payment.Initiation, error)
	CancelOrder(ctx context.Context, memberID, orderID uuid.UUID) error
	GetOrderDetails(ctx context.Context, memberID, orderID uuid.UUID) (*OrderDetails, error)
	GetOrdersByMember(ctx context.Context, memberID uuid.UUID) ([]OrderSummary, error)
	HandlePaymentSuccess(ctx context.Context, orderID uuid.UUID) error
	HandlePaymentFailure(ctx context.Context, orderID uuid.UUID) error
}

type service struct {
	repo     Repository
	members  MemberService
	products ProductService
	carts    CartService
	payments payment.Service
	ledger   stock.Ledger

	successCallbackURL string
	failureCallbackURL string
}

func NewService(
	repo Repository,
	members MemberService,
	products ProductService,
	carts CartService,
	payments payment.Service,
	ledger stock.Ledger,
	successCallbackURL, failureCallbackURL string,
) Service {
	return &service{
		repo:               repo,
		members:            members,
		products:           products,
		carts:              carts,
		payments:           payments,
		ledger:             ledger,
		successCallbackURL: successCallbackURL,
		failureCallbackURL: failureCallbackURL,
	}
}

// PlaceOrder converts a single-product purchase intent into a persisted
// PENDING order and initiates payment for it. Stock is only checked here, not
// decremented; the decrement belongs to the success callback.
func (s *service) PlaceOrder(ctx context.Context, memberID, productID uuid.UUID, quantity int, info DeliveryInfo, paymentMethod string) (*payment.Initiation, error) {
	m, err := s.members.FindByID(ctx, memberID)
	if err != nil {
		return nil, err
	}

	p, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	if quantity <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidQuantity, quantity)
	}

	if !s.ledger.CheckAvailability(p, quantity) {
		return nil, fmt.Errorf("%w: %s", stock.ErrInsufficientStock, p.Title)
	}

	item, err := NewOrderItem(p, quantity)
	if err != nil {
		return nil, err
	}

	o, err := NewOrder(m.ID, []OrderItem{item}, info, paymentMethod)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, o); err != nil {
		log.Error().Err(err).Stringer("member_id", memberID).Msg("service: failed to persist order")
		return nil, fmt.Errorf("service: failed to persist order: %w", err)
	}
	metrics.OrdersPlaced.Inc()

	log.Info().Stringer("order_id", o.ID).Stringer("member_id", memberID).Str("total_amount", o.TotalAmount.String()).Msg("service: order placed")

	return s.initiatePayment(ctx, o)
}

// PlaceCartOrder places one order covering every line of the member's cart.
// All lines are validated before anything is persisted; one short line aborts
// the whole placement. The cart is cleared only after the order is durable.
func (s *service) PlaceCartOrder(ctx context.Context, memberID uuid.UUID, info DeliveryInfo, paymentMethod string) (*payment.Initiation, error) {
	m, err := s.members.FindByID(ctx, memberID)
	if err != nil {
		return nil, err
	}

	c, err := s.carts.GetCartWithItems(ctx, memberID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to fetch cart: %w", err)
	}

	if len(c.Items) == 0 {
		return nil, ErrEmptyCart
	}

	items := make([]OrderItem, 0, len(c.Items))
	for _, line := range c.Items {
		p := line.Product

		if !s.ledger.CheckAvailability(p, line.Quantity) {
			return nil, fmt.Errorf("%w: %s", stock.ErrInsufficientStock, p.Title)
		}

		item, err := NewOrderItem(p, line.Quantity)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	o, err := NewOrder(m.ID, items, info, paymentMethod)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, o); err != nil {
		log.Error().Err(err).Stringer("member_id", memberID).Msg("service: failed to persist cart order")
		return nil, fmt.Errorf("service: failed to persist cart order: %w", err)
	}
	metrics.OrdersPlaced.Inc()

	// The order is durable; a failed clear must not orphan it.
	if err := s.carts.Clear(ctx, memberID); err != nil {
		log.Error().Err(err).Stringer("order_id", o.ID).Stringer("member_id", memberID).Msg("service: failed to clear cart after order placement")
	}

	log.Info().Stringer("order_id", o.ID).Stringer("member_id", memberID).Int("line_count", len(items)).Str("total_amount", o.TotalAmount.String()).Msg("service: cart order placed")

	return s.initiatePayment(ctx, o)
}

// initiatePayment runs after the order transaction has committed, so no
// database locks are held across the gateway call. A gateway failure leaves
// the PENDING order in place; recovery is the failure callback or a manual
// cancel.
func (s *service) initiatePayment(ctx context.Context, o *Order) (*payment.Initiation, error) {
	initiation, err := s.payments.InitiatePayment(ctx, o.ID, o.TotalAmount, o.PaymentMethod, s.successCallbackURL, s.failureCallbackURL)
	if err != nil {
		log.Error().Err(err).Stringer("order_id", o.ID).Msg("service: payment initiation failed, order stays pending")
		return nil, err
	}

	return initiation, nil
}

// CancelOrder cancels a member's own, still-cancelable order and restores the
// stock of every item. The restitution is unconditional: it also runs for
// PENDING orders whose stock was never decremented (see DESIGN.md).
func (s *service) CancelOrder(ctx context.Context, memberID, orderID uuid.UUID) error {
	o, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return ErrOrderNotFound
		}

		return fmt.Errorf("service: failed to fetch order for cancellation: %w", err)
	}

	if !o.OwnedBy(memberID) {
		log.Warn().Stringer("order_id", orderID).Stringer("member_id", memberID).Msg("service: cancel denied, not the orderer")
		return ErrAccessDenied
	}

	if !o.Cancelable() {
		return fmt.Errorf("%w: %s", ErrInvalidOrderStatus, o.Status)
	}

	ok, err := s.repo.MarkCanceled(ctx, o, true)
	if err != nil {
		return fmt.Errorf("service: failed to cancel order: %w", err)
	}
	if !ok {
		// Lost the race to a concurrent transition since the load above.
		return fmt.Errorf("%w: %s", ErrInvalidOrderStatus, o.Status)
	}

	metrics.OrdersCanceled.Inc()
	log.Info().Stringer("order_id", orderID).Stringer("member_id", memberID).Msg("service: order canceled")
	return nil
}

func (s *service) GetOrderDetails(ctx context.Context, memberID, orderID uuid.UUID) (*OrderDetails, error) {
	o, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return nil, ErrOrderNotFound
		}

		return nil, fmt.Errorf("service: failed to fetch order details: %w", err)
	}

	if !o.OwnedBy(memberID) {
		return nil, ErrAccessDenied
	}

	details := &OrderDetails{
		OrderID:       o.ID,
		OrderDate:     o.OrderDate,
		Status:        o.Status,
		TotalAmount:   o.TotalAmount,
		PaymentMethod: o.PaymentMethod,
		Items:         make([]OrderItemLine, 0, len(o.Items)),
		Delivery: DeliveryDetails{
			ReceiverName:    o.Delivery.ReceiverName,
			Address:         o.Delivery.Address,
			DeliveryMessage: o.Delivery.DeliveryMessage,
			Status:          o.Delivery.Status,
		},
	}

	for _, item := range o.Items {
		details.Items = append(details.Items, OrderItemLine{
			ProductID:    item.ProductID,
			ProductTitle: item.ProductTitle,
			OrderPrice:   item.OrderPrice,
			Count:        item.Count,
		})
	}

	return details, nil
}

// GetOrdersByMember returns one summary per order, newest order date first.
func (s *service) GetOrdersByMember(ctx context.Context, memberID uuid.UUID) ([]OrderSummary, error) {
	if _, err := s.members.FindByID(ctx, memberID); err != nil {
		return nil, err
	}

	orders, err := s.repo.GetByOrdererID(ctx, memberID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to fetch member orders: %w", err)
	}

	summaries := make([]OrderSummary, 0, len(orders))
	for _, o := range orders {
		summaries = append(summaries, OrderSummary{
			OrderID:     o.ID,
			OrderDate:   o.OrderDate,
			TotalAmount: o.TotalAmount,
			Status:      o.Status,
		})
	}

	return summaries, nil
}

// HandlePaymentSuccess marks the order PAID and decrements stock per item.
// Redelivery is benign: any order no longer PENDING is a successful no-op.
func (s *service) HandlePaymentSuccess(ctx context.Context, orderID uuid.UUID) error {
	o, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return ErrOrderNotFound
		}

		return fmt.Errorf("service: failed to fetch order for success callback: %w", err)
	}

	if o.Status != StatusPending {
		log.Info().Stringer("order_id", orderID).Stringer("status", o.Status).Msg("service: success callback redelivered for processed order, ignoring")
		return nil
	}

	ok, err := s.repo.MarkPaid(ctx, o)
	if err != nil {
		return fmt.Errorf("service: failed to process success callback: %w", err)
	}
	if !ok {
		return nil
	}

	metrics.PaymentCallbacks.WithLabelValues("success").Inc()
	log.Info().Stringer("order_id", orderID).Msg("service: order paid, stock decremented")
	return nil
}

// HandlePaymentFailure cancels a still-PENDING order and its delivery. Stock
// is never touched here: nothing was decremented at placement, so there is
// nothing to give back. The transition carries its own PENDING guard, so a
// success callback that lands between the load below and the update turns
// this into a no-op rather than canceling a paid order.
func (s *service) HandlePaymentFailure(ctx context.Context, orderID uuid.UUID) error {
	o, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return ErrOrderNotFound
		}

		return fmt.Errorf("service: failed to fetch order for failure callback: %w", err)
	}

	if o.Status != StatusPending {
		log.Info().Stringer("order_id", orderID).Stringer("status", o.Status).Msg("service: failure callback redelivered for processed order, ignoring")
		return nil
	}

	ok, err := s.repo.MarkCanceledIfPending(ctx, o)
	if err != nil {
		return fmt.Errorf("service: failed to process failure callback: %w", err)
	}
	if !ok {
		return nil
	}

	metrics.PaymentCallbacks.WithLabelValues("failure").Inc()
	log.Info().Stringer("order_id", orderID).Msg("service: order canceled after payment failure")
	return nil
}
