package cart

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type lineKey struct {
	userID, productID, size string
}

// MemoryStore is a Store for development and tests.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[lineKey]Item
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: map[lineKey]Item{}}
}

func (m *MemoryStore) ListItems(_ context.Context, userID string) ([]Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Item
	for k, it := range m.items {
		if k.userID == userID {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ProductID+out[i].SelectedSize < out[j].ProductID+out[j].SelectedSize
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (m *MemoryStore) Upsert(_ context.Context, userID, productID, size string, quantity, limit int) (Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := lineKey{userID, productID, size}
	now := time.Now().UTC()
	it, ok := m.items[k]
	if !ok {
		if quantity > limit {
			return Item{}, ErrQuantityExceeded
		}
		it = Item{ID: uuid.NewString(), UserID: userID, ProductID: productID, SelectedSize: size,
			Quantity: quantity, CreatedAt: now, UpdatedAt: now}
		m.items[k] = it
		return it, nil
	}
	if it.Quantity+quantity > limit {
		return Item{}, ErrQuantityExceeded
	}
	it.Quantity += quantity
	it.UpdatedAt = now
	m.items[k] = it
	return it, nil
}

func (m *MemoryStore) UpdateQuantity(_ context.Context, userID, productID, size string, quantity int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := lineKey{userID, productID, size}
	it, ok := m.items[k]
	if !ok {
		return false, nil
	}
	it.Quantity = quantity
	it.UpdatedAt = time.Now().UTC()
	m.items[k] = it
	return true, nil
}

func (m *MemoryStore) DeleteItem(_ context.Context, userID, productID, size string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := lineKey{userID, productID, size}
	_, ok := m.items[k]
	delete(m.items, k)
	return ok, nil
}

func (m *MemoryStore) Clear(_ context.Context, userID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for k := range m.items {
		if k.userID == userID {
			delete(m.items, k)
			n++
		}
	}
	return n, nil
}
