package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vasiliy-maslov/shop-service/internal/product"
)

var (
	ErrCartNotFound = errors.New("cart not found")
	ErrItemNotFound = errors.New("cart item not found")
)

type Repository interface {
	GetOrCreateByMemberID(ctx context.Context, memberID uuid.UUID) (*Cart, error)
	GetByMemberIDWithProducts(ctx context.Context, memberID uuid.UUID) (*Cart, error)
	UpsertItem(ctx context.Context, cartID, productID uuid.UUID, quantity int) error
	UpdateItemQuantity(ctx context.Context, cartID, productID uuid.UUID, quantity int) error
	DeleteItem(ctx context.Context, cartID, productID uuid.UUID) error
	Clear(ctx context.Context, cartID uuid.UUID) error
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) GetOrCreateByMemberID(ctx context.Context, memberID uuid.UUID) (*Cart, error) {
	var c Cart

	query := `
		SELECT id, member_id, created_at
		FROM carts
		WHERE member_id = $1
	`
	err := r.db.QueryRow(ctx, query, memberID).Scan(&c.ID, &c.MemberID, &c.CreatedAt)
	if err == nil {
		return &c, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("repository: failed to select cart for member %s: %w", memberID, err)
	}

	id, err := uuid.NewV4()
	if err != nil {
		return nil, fmt.Errorf("repository: failed to generate cart ID: %w", err)
	}

	insert := `
		INSERT INTO carts (id, member_id)
		VALUES ($1, $2)
		ON CONFLICT (member_id) DO UPDATE SET member_id = EXCLUDED.member_id
		RETURNING id, member_id, created_at
	`
	err = r.db.QueryRow(ctx, insert, id, memberID).Scan(&c.ID, &c.MemberID, &c.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to create cart for member %s: %w", memberID, err)
	}

	return &c, nil
}

func (r *postgresRepository) GetByMemberIDWithProducts(ctx context.Context, memberID uuid.UUID) (*Cart, error) {
	c, err := r.GetOrCreateByMemberID(ctx, memberID)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT ci.id, ci.cart_id, ci.product_id, ci.quantity,
		       p.id, p.title, p.price, p.stock_quantity, p.created_at, p.updated_at
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.cart_id = $1
		ORDER BY ci.created_at
	`

	rows, err := r.db.Query(ctx, query, c.ID)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query cart items for cart %s: %w", c.ID, err)
	}
	defer rows.Close()

	items := make([]CartItem, 0)
	for rows.Next() {
		var item CartItem
		var p product.Product
		err := rows.Scan(
			&item.ID,
			&item.CartID,
			&item.ProductID,
			&item.Quantity,
			&p.ID,
			&p.Title,
			&p.Price,
			&p.StockQuantity,
			&p.CreatedAt,
			&p.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan cart item for cart %s: %w", c.ID, err)
		}
		item.Product = &p
		items = append(items, item)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating cart items for cart %s: %w", c.ID, err)
	}

	c.Items = items
	return c, nil
}

func (r *postgresRepository) UpsertItem(ctx context.Context, cartID, productID uuid.UUID, quantity int) error {
	id, err := uuid.NewV4()
	if err != nil {
		return fmt.Errorf("repository: failed to generate cart item ID: %w", err)
	}

	query := `
		INSERT INTO cart_items (id, cart_id, product_id, quantity)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (cart_id, product_id)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity, updated_at = now()
	`

	_, err = r.db.Exec(ctx, query, id, cartID, productID, quantity)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
			return product.ErrNotFound
		}

		return fmt.Errorf("repository: failed to upsert cart item for cart %s: %w", cartID, err)
	}

	return nil
}

func (r *postgresRepository) UpdateItemQuantity(ctx context.Context, cartID, productID uuid.UUID, quantity int) error {
	query := `
		UPDATE cart_items
		SET quantity = $3, updated_at = now()
		WHERE cart_id = $1 AND product_id = $2
	`

	cmdTag, err := r.db.Exec(ctx, query, cartID, productID, quantity)
	if err != nil {
		return fmt.Errorf("repository: failed to update cart item quantity for cart %s: %w", cartID, err)
	}

	if cmdTag.RowsAffected() == 0 {
		return ErrItemNotFound
	}

	return nil
}

func (r *postgresRepository) DeleteItem(ctx context.Context, cartID, productID uuid.UUID) error {
	query := `DELETE FROM cart_items WHERE cart_id = $1 AND product_id = $2`

	cmdTag, err := r.db.Exec(ctx, query, cartID, productID)
	if err != nil {
		return fmt.Errorf("repository: failed to delete cart item for cart %s: %w", cartID, err)
	}

	if cmdTag.RowsAffected() == 0 {
		return ErrItemNotFound
	}

	return nil
}

func (r *postgresRepository) Clear(ctx context.Context, cartID uuid.UUID) error {
	query := `DELETE FROM cart_items WHERE cart_id = $1`

	_, err := r.db.Exec(ctx, query, cartID)
	if err != nil {
		return fmt.Errorf("repository: failed to clear cart %s: %w", cartID, err)
	}

	return nil
}
