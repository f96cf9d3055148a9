package cart

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) (*PostgresStore, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) ListItems(ctx context.Context, userID string) ([]Item, error) {
	query := `
		SELECT id, user_id, product_id, selected_size, quantity, created_at, updated_at
		FROM cart_items
		WHERE user_id = $1
		ORDER BY created_at
	`
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query cart items: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.UserID, &it.ProductID, &it.SelectedSize, &it.Quantity, &it.CreatedAt, &it.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan cart item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cart items: %w", err)
	}
	return items, nil
}

// Upsert relies on the (user_id, product_id, selected_size) unique constraint.
// The conditional DO UPDATE returns no row when the merged quantity is over
// the limit, which leaves the existing line as it was.
func (s *PostgresStore) Upsert(ctx context.Context, userID, productID, size string, quantity, limit int) (Item, error) {
	query := `
		INSERT INTO cart_items (id, user_id, product_id, selected_size, quantity, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		ON CONFLICT (user_id, product_id, selected_size)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity, updated_at = NOW()
		WHERE cart_items.quantity + EXCLUDED.quantity <= $6
		RETURNING id, user_id, product_id, selected_size, quantity, created_at, updated_at
	`
	if quantity > limit {
		return Item{}, ErrQuantityExceeded
	}
	var it Item
	err := s.db.QueryRowContext(ctx, query, uuid.NewString(), userID, productID, size, quantity, limit).
		Scan(&it.ID, &it.UserID, &it.ProductID, &it.SelectedSize, &it.Quantity, &it.CreatedAt, &it.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Item{}, ErrQuantityExceeded
		}
		return Item{}, fmt.Errorf("failed to upsert cart item: %w", err)
	}
	return it, nil
}

func (s *PostgresStore) UpdateQuantity(ctx context.Context, userID, productID, size string, quantity int) (bool, error) {
	query := `
		UPDATE cart_items
		SET quantity = $4, updated_at = NOW()
		WHERE user_id = $1 AND product_id = $2 AND selected_size = $3
	`
	res, err := s.db.ExecContext(ctx, query, userID, productID, size, quantity)
	if err != nil {
		return false, fmt.Errorf("failed to update cart item quantity: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n > 0, nil
}

func (s *PostgresStore) DeleteItem(ctx context.Context, userID, productID, size string) (bool, error) {
	query := `DELETE FROM cart_items WHERE user_id = $1 AND product_id = $2 AND selected_size = $3`
	res, err := s.db.ExecContext(ctx, query, userID, productID, size)
	if err != nil {
		return false, fmt.Errorf("failed to delete cart item: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n > 0, nil
}

func (s *PostgresStore) Clear(ctx context.Context, userID string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to clear cart: %w", err)
	}
	return res.RowsAffected()
}
