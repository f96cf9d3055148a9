package wishlist

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type MemoryStore struct {
	mu    sync.RWMutex
	items map[[2]string]Item
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: map[[2]string]Item{}}
}

func (m *MemoryStore) List(_ context.Context, userID string) ([]Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Item
	for k, it := range m.items {
		if k[0] == userID {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *MemoryStore) Add(_ context.Context, userID, productID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := [2]string{userID, productID}
	if _, ok := m.items[k]; ok {
		return false, nil
	}
	m.items[k] = Item{ID: uuid.NewString(), UserID: userID, ProductID: productID, CreatedAt: time.Now().UTC()}
	return true, nil
}

func (m *MemoryStore) Remove(_ context.Context, userID, productID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := [2]string{userID, productID}
	_, ok := m.items[k]
	delete(m.items, k)
	return ok, nil
}

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) (*PostgresStore, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) List(ctx context.Context, userID string) ([]Item, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, product_id, created_at
		FROM wishlist_items
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query wishlist: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.UserID, &it.ProductID, &it.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan wishlist item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (s *PostgresStore) Add(ctx context.Context, userID, productID string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO wishlist_items (id, user_id, product_id, created_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (user_id, product_id) DO NOTHING
	`, uuid.NewString(), userID, productID)
	if err != nil {
		return false, fmt.Errorf("failed to insert wishlist item: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n > 0, nil
}

func (s *PostgresStore) Remove(ctx context.Context, userID, productID string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM wishlist_items WHERE user_id = $1 AND product_id = $2`, userID, productID)
	if err != nil {
		return false, fmt.Errorf("failed to delete wishlist item: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n > 0, nil
}
