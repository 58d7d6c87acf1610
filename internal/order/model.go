package order

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
	"github.com/vasiliy-maslov/shop-service/internal/product"
)

type OrderStatus string

const (
	StatusPending   OrderStatus = "PENDING"
	StatusPaid      OrderStatus = "PAID"
	StatusShipped   OrderStatus = "SHIPPED"
	StatusDelivered OrderStatus = "DELIVERED"
	StatusCanceled  OrderStatus = "CANCELED"
)

func (os OrderStatus) String() string {
	return string(os)
}

type DeliveryStatus string

const (
	DeliveryReady     DeliveryStatus = "READY"
	DeliveryShipping  DeliveryStatus = "SHIPPING"
	DeliveryCompleted DeliveryStatus = "COMPLETED"
	DeliveryCanceled  DeliveryStatus = "CANCELED"
)

func (ds DeliveryStatus) String() string {
	return string(ds)
}

// allowedTransitions is the order state machine. PENDING is the sole initial
// state; SHIPPED and DELIVERED progressions exist in the enum but no operation
// here drives them.
var allowedTransitions = map[OrderStatus]map[OrderStatus]bool{
	StatusPending: {
		StatusPaid:     true,
		StatusCanceled: true,
	},
	StatusPaid: {
		StatusShipped:  true,
		StatusCanceled: true,
	},
	StatusShipped: {
		StatusDelivered: true,
	},
	StatusDelivered: {},
	StatusCanceled:  {},
}

func CanTransition(from, to OrderStatus) bool {
	return allowedTransitions[from][to]
}

var (
	ErrOrderNotFound      = errors.New("order not found")
	ErrAccessDenied       = errors.New("access denied")
	ErrInvalidOrderStatus = errors.New("invalid order status")
	ErrInvalidQuantity    = errors.New("quantity must be greater than zero")
	ErrEmptyCart          = errors.New("cart is empty")
)

type Order struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	OrdererID     uuid.UUID       `json:"orderer_id" db:"orderer_id"`
	OrderDate     time.Time       `json:"order_date" db:"order_date"`
	Status        OrderStatus     `json:"status" db:"status"`
	TotalAmount   decimal.Decimal `json:"total_amount" db:"total_amount"`
	PaymentMethod string          `json:"payment_method" db:"payment_method"`
	Items         []OrderItem     `json:"items" db:"-"`
	Delivery      Delivery        `json:"delivery" db:"-"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" db:"updated_at"`
}

// OrderItem references its product by id only. OrderPrice and ProductTitle are
// captured when the item is built and never re-read from the catalog, so later
// price or title edits cannot alter historical orders.
type OrderItem struct {
	ID           uuid.UUID       `json:"id" db:"id"`
	OrderID      uuid.UUID       `json:"order_id" db:"order_id"`
	ProductID    uuid.UUID       `json:"product_id" db:"product_id"`
	OrderPrice   decimal.Decimal `json:"order_price" db:"order_price"`
	Count        int             `json:"count" db:"count"`
	ProductTitle string          `json:"product_title" db:"product_title"`
}

type Delivery struct {
	ID              uuid.UUID      `json:"id" db:"id"`
	OrderID         uuid.UUID      `json:"order_id" db:"order_id"`
	ReceiverName    string         `json:"receiver_name" db:"receiver_name"`
	Address         string         `json:"address" db:"address"`
	DeliveryMessage string         `json:"delivery_message" db:"delivery_message"`
	Status          DeliveryStatus `json:"status" db:"status"`
}

// DeliveryInfo is the shipping input supplied at placement time.
type DeliveryInfo struct {
	ReceiverName    string
	Address         string
	AddressDetail   string
	DeliveryMessage string
}

// NewOrderItem snapshots the product's current price and title.
func NewOrderItem(p *product.Product, count int) (OrderItem, error) {
	if count <= 0 {
		return OrderItem{}, fmt.Errorf("%w: product %s", ErrInvalidQuantity, p.ID)
	}

	return OrderItem{
		ProductID:    p.ID,
		OrderPrice:   p.Price,
		Count:        count,
		ProductTitle: p.Title,
	}, nil
}

// NewOrder builds the full aggregate in PENDING state. TotalAmount is computed
// here, once, from the item snapshots and is never recomputed afterward.
func NewOrder(ordererID uuid.UUID, items []OrderItem, info DeliveryInfo, paymentMethod string) (*Order, error) {
	if len(items) == 0 {
		return nil, errors.New("order must contain at least one item")
	}

	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.OrderPrice.Mul(decimal.NewFromInt(int64(item.Count))))
	}

	address := info.Address
	if info.AddressDetail != "" {
		address = strings.TrimSpace(info.Address + " " + info.AddressDetail)
	}

	return &Order{
		OrdererID:     ordererID,
		OrderDate:     time.Now().UTC(),
		Status:        StatusPending,
		TotalAmount:   total,
		PaymentMethod: paymentMethod,
		Items:         items,
		Delivery: Delivery{
			ReceiverName:    info.ReceiverName,
			Address:         address,
			DeliveryMessage: info.DeliveryMessage,
			Status:          DeliveryReady,
		},
	}, nil
}

// OwnedBy is the ownership predicate every member-scoped operation goes through.
func (o *Order) OwnedBy(memberID uuid.UUID) bool {
	return o.OrdererID == memberID
}

// Cancelable reports whether the order may still be canceled. SHIPPED,
// DELIVERED and CANCELED are terminal for cancellation.
func (o *Order) Cancelable() bool {
	switch o.Status {
	case StatusShipped, StatusDelivered, StatusCanceled:
		return false
	default:
		return true
	}
}
