package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/shop-service/internal/stock"
)

type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*Order, error)
	GetByOrdererID(ctx context.Context, ordererID uuid.UUID) ([]Order, error)
	MarkPaid(ctx context.Context, o *Order) (bool, error)
	MarkCanceled(ctx context.Context, o *Order, restoreStock bool) (bool, error)
	MarkCanceledIfPending(ctx context.Context, o *Order) (bool, error)
}

type postgresRepository struct {
	db     *pgxpool.Pool
	ledger stock.Ledger
}

func NewRepository(db *pgxpool.Pool, ledger stock.Ledger) Repository {
	return &postgresRepository{db: db, ledger: ledger}
}

// Create persists the order, its items and its delivery in one transaction.
func (r *postgresRepository) Create(ctx context.Context, o *Order) error {
	if o.ID == uuid.Nil {
		id, err := uuid.NewV4()
		if err != nil {
			return fmt.Errorf("repository: failed to generate order ID: %w", err)
		}
		o.ID = id
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("repository: failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	now := time.Now().UTC()

	queryOrder := `
		INSERT INTO orders (id, orderer_id, order_date, status, total_amount, payment_method, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
	`
	_, err = tx.Exec(ctx, queryOrder,
		o.ID,
		o.OrdererID,
		o.OrderDate,
		string(o.Status),
		o.TotalAmount,
		o.PaymentMethod,
		now,
	)
	if err != nil {
		return fmt.Errorf("repository: failed to insert order: %w", err)
	}
	o.CreatedAt = now
	o.UpdatedAt = now

	queryItem := `
		INSERT INTO order_items (id, order_id, product_id, order_price, count, product_title)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	for i := range o.Items {
		item := &o.Items[i]

		itemID, err := uuid.NewV4()
		if err != nil {
			return fmt.Errorf("repository: failed to generate order item ID: %w", err)
		}
		item.ID = itemID
		item.OrderID = o.ID

		_, err = tx.Exec(ctx, queryItem,
			item.ID,
			item.OrderID,
			item.ProductID,
			item.OrderPrice,
			item.Count,
			item.ProductTitle,
		)
		if err != nil {
			return fmt.Errorf("repository: failed to insert order item for order %s: %w", o.ID, err)
		}
	}

	deliveryID, err := uuid.NewV4()
	if err != nil {
		return fmt.Errorf("repository: failed to generate delivery ID: %w", err)
	}
	o.Delivery.ID = deliveryID
	o.Delivery.OrderID = o.ID

	queryDelivery := `
		INSERT INTO deliveries (id, order_id, receiver_name, address, delivery_message, status)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = tx.Exec(ctx, queryDelivery,
		o.Delivery.ID,
		o.Delivery.OrderID,
		o.Delivery.ReceiverName,
		o.Delivery.Address,
		o.Delivery.DeliveryMessage,
		string(o.Delivery.Status),
	)
	if err != nil {
		return fmt.Errorf("repository: failed to insert delivery for order %s: %w", o.ID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("repository: failed to commit transaction: %w", err)
	}

	return nil
}

// GetByID loads the full aggregate: order row, items and delivery.
func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Order, error) {
	queryOrder := `
		SELECT id, orderer_id, order_date, status, total_amount, payment_method, created_at, updated_at
		FROM orders
		WHERE id = $1
	`

	var o Order
	err := r.db.QueryRow(ctx, queryOrder, id).Scan(
		&o.ID,
		&o.OrdererID,
		&o.OrderDate,
		&o.Status,
		&o.TotalAmount,
		&o.PaymentMethod,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}

		return nil, fmt.Errorf("repository: failed to select order by id %s: %w", id, err)
	}

	queryItems := `
		SELECT id, order_id, product_id, order_price, count, product_title
		FROM order_items
		WHERE order_id = $1
	`

	rows, err := r.db.Query(ctx, queryItems, id)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query order items for order %s: %w", id, err)
	}
	defer rows.Close()

	items := make([]OrderItem, 0)
	for rows.Next() {
		var item OrderItem
		err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.ProductID,
			&item.OrderPrice,
			&item.Count,
			&item.ProductTitle,
		)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan order item for order %s: %w", id, err)
		}
		items = append(items, item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating order items for order %s: %w", id, err)
	}
	o.Items = items

	queryDelivery := `
		SELECT id, order_id, receiver_name, address, COALESCE(delivery_message, ''), status
		FROM deliveries
		WHERE order_id = $1
	`
	err = r.db.QueryRow(ctx, queryDelivery, id).Scan(
		&o.Delivery.ID,
		&o.Delivery.OrderID,
		&o.Delivery.ReceiverName,
		&o.Delivery.Address,
		&o.Delivery.DeliveryMessage,
		&o.Delivery.Status,
	)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to select delivery for order %s: %w", id, err)
	}

	return &o, nil
}

// GetByOrdererID returns a member's orders, newest first.
func (r *postgresRepository) GetByOrdererID(ctx context.Context, ordererID uuid.UUID) ([]Order, error) {
	queryOrders := `
		SELECT id, orderer_id, order_date, status, total_amount, payment_method, created_at, updated_at
		FROM orders
		WHERE orderer_id = $1
		ORDER BY order_date DESC, id DESC
	`

	orderRows, err := r.db.Query(ctx, queryOrders, ordererID)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query orders for member %s: %w", ordererID, err)
	}
	defer orderRows.Close()

	ordersMap := make(map[uuid.UUID]*Order)
	var orderIDs []uuid.UUID

	for orderRows.Next() {
		var o Order
		err := orderRows.Scan(
			&o.ID,
			&o.OrdererID,
			&o.OrderDate,
			&o.Status,
			&o.TotalAmount,
			&o.PaymentMethod,
			&o.CreatedAt,
			&o.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan order for member %s: %w", ordererID, err)
		}
		o.Items = make([]OrderItem, 0)
		ordersMap[o.ID] = &o
		orderIDs = append(orderIDs, o.ID)
	}
	if err = orderRows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating orders for member %s: %w", ordererID, err)
	}

	if len(orderIDs) == 0 {
		return []Order{}, nil
	}

	queryItems := `
		SELECT id, order_id, product_id, order_price, count, product_title
		FROM order_items
		WHERE order_id = ANY($1)
	`
	itemRows, err := r.db.Query(ctx, queryItems, orderIDs)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query order items for member %s: %w", ordererID, err)
	}
	defer itemRows.Close()

	for itemRows.Next() {
		var item OrderItem
		err := itemRows.Scan(
			&item.ID,
			&item.OrderID,
			&item.ProductID,
			&item.OrderPrice,
			&item.Count,
			&item.ProductTitle,
		)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan order item for member %s: %w", ordererID, err)
		}

		if o, ok := ordersMap[item.OrderID]; ok {
			o.Items = append(o.Items, item)
		}
	}
	if err = itemRows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating order items for member %s: %w", ordererID, err)
	}

	result := make([]Order, 0, len(orderIDs))
	for _, id := range orderIDs {
		if o, ok := ordersMap[id]; ok {
			result = append(result, *o)
		}
	}

	return result, nil
}

// MarkPaid transitions the order to PAID and decrements stock for each item,
// atomically. The status update is conditional on the order still being
// PENDING; losing that race (a redelivered callback, a concurrent cancel)
// returns false without touching anything, which makes the operation safe
// under at-least-once delivery.
func (r *postgresRepository) MarkPaid(ctx context.Context, o *Order) (bool, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("repository: failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		UPDATE orders
		SET status = $2, updated_at = now()
		WHERE id = $1 AND status = $3
	`
	cmdTag, err := tx.Exec(ctx, query, o.ID, string(StatusPaid), string(StatusPending))
	if err != nil {
		return false, fmt.Errorf("repository: failed to mark order %s paid: %w", o.ID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		log.Info().Stringer("order_id", o.ID).Msg("repository: order no longer pending, skipping paid transition")
		return false, nil
	}

	ledger := r.ledger.WithTx(tx)
	for _, item := range o.Items {
		if err := ledger.Decrement(ctx, item.ProductID, item.Count); err != nil {
			return false, fmt.Errorf("repository: failed to decrement stock for order %s: %w", o.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("repository: failed to commit transaction: %w", err)
	}

	return true, nil
}

// MarkCanceledIfPending cancels the order and its delivery only while the
// order is still PENDING, mirroring MarkPaid's guard. The failure callback
// goes through here: nothing was decremented for a PENDING order, so nothing
// is restored, and a success callback that committed PAID in between makes
// this a no-op instead of voiding a paid order.
func (r *postgresRepository) MarkCanceledIfPending(ctx context.Context, o *Order) (bool, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("repository: failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		UPDATE orders
		SET status = $2, updated_at = now()
		WHERE id = $1 AND status = $3
	`
	cmdTag, err := tx.Exec(ctx, query, o.ID, string(StatusCanceled), string(StatusPending))
	if err != nil {
		return false, fmt.Errorf("repository: failed to mark order %s canceled: %w", o.ID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		log.Info().Stringer("order_id", o.ID).Msg("repository: order no longer pending, skipping canceled transition")
		return false, nil
	}

	queryDelivery := `
		UPDATE deliveries
		SET status = $2
		WHERE order_id = $1
	`
	if _, err := tx.Exec(ctx, queryDelivery, o.ID, string(DeliveryCanceled)); err != nil {
		return false, fmt.Errorf("repository: failed to cancel delivery for order %s: %w", o.ID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("repository: failed to commit transaction: %w", err)
	}

	return true, nil
}

// MarkCanceled transitions the order and its delivery to CANCELED, optionally
// restoring stock, atomically. The update is conditional on the order not
// having reached a terminal-for-cancellation status.
func (r *postgresRepository) MarkCanceled(ctx context.Context, o *Order, restoreStock bool) (bool, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("repository: failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		UPDATE orders
		SET status = $2, updated_at = now()
		WHERE id = $1 AND status NOT IN ($3, $4, $5)
	`
	cmdTag, err := tx.Exec(ctx, query, o.ID,
		string(StatusCanceled),
		string(StatusShipped), string(StatusDelivered), string(StatusCanceled),
	)
	if err != nil {
		return false, fmt.Errorf("repository: failed to mark order %s canceled: %w", o.ID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		log.Info().Stringer("order_id", o.ID).Msg("repository: order not cancelable anymore, skipping")
		return false, nil
	}

	queryDelivery := `
		UPDATE deliveries
		SET status = $2
		WHERE order_id = $1
	`
	if _, err := tx.Exec(ctx, queryDelivery, o.ID, string(DeliveryCanceled)); err != nil {
		return false, fmt.Errorf("repository: failed to cancel delivery for order %s: %w", o.ID, err)
	}

	if restoreStock {
		ledger := r.ledger.WithTx(tx)
		for _, item := range o.Items {
			if err := ledger.Restore(ctx, item.ProductID, item.Count); err != nil {
				return false, fmt.Errorf("repository: failed to restore stock for order %s: %w", o.ID, err)
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("repository: failed to commit transaction: %w", err)
	}

	return true, nil
}
