package orders

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
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

const orderColumns = `id, user_id, customer_email, total, shipping_cost, shipping_address, status,
	payment_method, payment_status, checkout_session_id, payment_intent_id, created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, o Order) error {
	addr, err := json.Marshal(o.ShippingAddress)
	if err != nil {
		return fmt.Errorf("failed to encode shipping address: %w", err)
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		queryOrder := `
			INSERT INTO orders (` + orderColumns + `)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		`
		_, err := tx.ExecContext(ctx, queryOrder, o.ID, o.UserID, o.CustomerEmail, o.Total, o.ShippingCost, string(addr),
			o.Status, o.PaymentMethod, o.PaymentStatus, o.CheckoutSessionID, o.PaymentIntentID, o.CreatedAt, o.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert order: %w", err)
		}

		queryItem := `
			INSERT INTO order_items (order_id, position, product_id, name, price, quantity, image, selected_size)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`
		for i, it := range o.Items {
			_, err = tx.ExecContext(ctx, queryItem, o.ID, i, it.ProductID, it.Name, it.Price, it.Quantity, it.Image, it.SelectedSize)
			if err != nil {
				return fmt.Errorf("failed to insert order item: %w", err)
			}
		}
		return nil
	})
}

func (s *PostgresStore) getBy(ctx context.Context, column, value string) (Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE ` + column + ` = $1 LIMIT 1`
	o, err := scanOrder(s.db.QueryRowContext(ctx, query, value))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Order{}, ErrNotFound
		}
		return Order{}, fmt.Errorf("failed to query order: %w", err)
	}
	if o.Items, err = s.items(ctx, o.ID); err != nil {
		return Order{}, err
	}
	return o, nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (Order, error) {
	return s.getBy(ctx, "id", id)
}

func (s *PostgresStore) FindBySession(ctx context.Context, sessionID string) (Order, error) {
	if sessionID == "" {
		return Order{}, ErrNotFound
	}
	return s.getBy(ctx, "checkout_session_id", sessionID)
}

func (s *PostgresStore) FindByPaymentIntent(ctx context.Context, paymentIntentID string) (Order, error) {
	if paymentIntentID == "" {
		return Order{}, ErrNotFound
	}
	return s.getBy(ctx, "payment_intent_id", paymentIntentID)
}

func (s *PostgresStore) ListByUser(ctx context.Context, userID string, f ListFilter) ([]Order, int, error) {
	var total int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM orders WHERE user_id = $1 AND ($2::text = '' OR status = $2::text)`,
		userID, string(f.Status)).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE user_id = $1 AND ($2::text = '' OR status = $2::text)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`
	rows, err := s.db.QueryContext(ctx, query, userID, string(f.Status), f.Limit, f.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	out := []Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan order: %w", err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating orders: %w", err)
	}
	for i := range out {
		if out[i].Items, err = s.items(ctx, out[i].ID); err != nil {
			return nil, 0, err
		}
	}
	return out, total, nil
}

func (s *PostgresStore) items(ctx context.Context, orderID string) ([]Item, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT product_id, name, price, quantity, image, selected_size
		FROM order_items
		WHERE order_id = $1
		ORDER BY position
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	items := []Item{}
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ProductID, &it.Name, &it.Price, &it.Quantity, &it.Image, &it.SelectedSize); err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (s *PostgresStore) exec(ctx context.Context, query string, args ...any) (bool, error) {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to update order: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n > 0, nil
}

func (s *PostgresStore) AttachSession(ctx context.Context, id, sessionID string) error {
	ok, err := s.exec(ctx, `UPDATE orders SET checkout_session_id = $2, updated_at = NOW() WHERE id = $1`, id, sessionID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) AttachPaymentIntent(ctx context.Context, id, paymentIntentID string) (bool, error) {
	if paymentIntentID == "" {
		return false, nil
	}
	return s.exec(ctx, `
		UPDATE orders
		SET payment_intent_id = $2::text, updated_at = NOW()
		WHERE id = $1 AND payment_status <> 'paid' AND payment_intent_id <> $2::text
	`, id, paymentIntentID)
}

func (s *PostgresStore) MarkPaid(ctx context.Context, id, paymentIntentID, sessionID string) (bool, error) {
	return s.exec(ctx, `
		UPDATE orders
		SET payment_status = 'paid',
		    status = 'confirmed',
		    payment_intent_id = CASE WHEN $2::text = '' THEN payment_intent_id ELSE $2::text END,
		    checkout_session_id = CASE WHEN checkout_session_id = '' THEN $3::text ELSE checkout_session_id END,
		    updated_at = NOW()
		WHERE id = $1 AND payment_status <> 'paid'
	`, id, paymentIntentID, sessionID)
}

func (s *PostgresStore) MarkExpired(ctx context.Context, id string) (bool, error) {
	return s.exec(ctx, `
		UPDATE orders
		SET payment_status = 'failed', status = 'cancelled', updated_at = NOW()
		WHERE id = $1 AND status = 'pending' AND payment_status = 'pending'
	`, id)
}

func (s *PostgresStore) MarkPaymentFailed(ctx context.Context, id string) (bool, error) {
	return s.exec(ctx, `
		UPDATE orders
		SET payment_status = 'failed', updated_at = NOW()
		WHERE id = $1 AND payment_status <> 'paid'
	`, id)
}

func (s *PostgresStore) Cancel(ctx context.Context, id, userID string) (bool, error) {
	var status string
	err := s.db.QueryRowContext(ctx, `SELECT status FROM orders WHERE id = $1 AND user_id = $2`, id, userID).Scan(&status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, ErrNotFound
		}
		return false, fmt.Errorf("failed to query order: %w", err)
	}
	return s.exec(ctx, `
		UPDATE orders
		SET status = 'cancelled', updated_at = NOW()
		WHERE id = $1 AND user_id = $2 AND status IN ('pending', 'confirmed')
	`, id, userID)
}

func (s *PostgresStore) Discard(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM orders
		WHERE id = $1 AND checkout_session_id = '' AND payment_status = 'pending'
	`, id)
	if err != nil {
		return fmt.Errorf("failed to discard order: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (Order, error) {
	var o Order
	var addr string
	err := row.Scan(&o.ID, &o.UserID, &o.CustomerEmail, &o.Total, &o.ShippingCost, &addr, &o.Status,
		&o.PaymentMethod, &o.PaymentStatus, &o.CheckoutSessionID, &o.PaymentIntentID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return Order{}, err
	}
	if err := json.Unmarshal([]byte(addr), &o.ShippingAddress); err != nil {
		return Order{}, fmt.Errorf("decode shipping address of order %s: %w", o.ID, err)
	}
	return o, nil
}

func (s *PostgresStore) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}

	if err := fn(tx); err != nil {
		er := tx.Rollback()
		if er != nil && !errors.Is(er, sql.ErrTxDone) {
			return fmt.Errorf("failed to rollback withTx: %w", err)
		}
		return fmt.Errorf("failed to execute withTx: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit withTx: %w", err)
	}
	return nil
}
