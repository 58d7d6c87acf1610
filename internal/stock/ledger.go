package stock

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/shop-service/internal/product"
)

var ErrInsufficientStock = errors.New("insufficient stock")

// DBTX is the subset of pgxpool.Pool and pgx.Tx the ledger needs, so the same
// ledger can run standalone or inside a caller-owned transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Ledger owns every mutation of products.stock_quantity. Decrement and Restore
// are single UPDATE statements; the row lock taken by the UPDATE serializes
// concurrent adjustments against the same product.
type Ledger interface {
	CheckAvailability(p *product.Product, quantity int) bool
	Decrement(ctx context.Context, productID uuid.UUID, quantity int) error
	Restore(ctx context.Context, productID uuid.UUID, quantity int) error
	WithTx(tx pgx.Tx) Ledger
}

type sqlLedger struct {
	db DBTX
}

func NewLedger(db DBTX) Ledger {
	return &sqlLedger{db: db}
}

func (l *sqlLedger) WithTx(tx pgx.Tx) Ledger {
	return &sqlLedger{db: tx}
}

func (l *sqlLedger) CheckAvailability(p *product.Product, quantity int) bool {
	return p.StockQuantity >= quantity
}

func (l *sqlLedger) Decrement(ctx context.Context, productID uuid.UUID, quantity int) error {
	query := `
		UPDATE products
		SET stock_quantity = stock_quantity - $2, updated_at = now()
		WHERE id = $1 AND stock_quantity >= $2
	`

	cmdTag, err := l.db.Exec(ctx, query, productID, quantity)
	if err != nil {
		return fmt.Errorf("ledger: failed to decrement stock for product %s: %w", productID, err)
	}

	if cmdTag.RowsAffected() == 0 {
		log.Warn().Stringer("product_id", productID).Int("quantity", quantity).Msg("ledger: decrement rejected, stock below requested quantity")
		return fmt.Errorf("%w: product %s", ErrInsufficientStock, productID)
	}

	return nil
}

func (l *sqlLedger) Restore(ctx context.Context, productID uuid.UUID, quantity int) error {
	query := `
		UPDATE products
		SET stock_quantity = stock_quantity + $2, updated_at = now()
		WHERE id = $1
	`

	cmdTag, err := l.db.Exec(ctx, query, productID, quantity)
	if err != nil {
		return fmt.Errorf("ledger: failed to restore stock for product %s: %w", productID, err)
	}

	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("ledger: product %s not found for stock restore", productID)
	}

	return nil
}
