package orders

import (
	"context"
	"sort"
	"sync"
	"time"
)

type MemoryStore struct {
	mu     sync.RWMutex
	orders map[string]Order
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{orders: map[string]Order{}}
}

func clone(o Order) Order {
	o.Items = append([]Item(nil), o.Items...)
	return o
}

func (m *MemoryStore) Create(_ context.Context, o Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[o.ID] = clone(o)
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.orders[id]
	if !ok {
		return Order{}, ErrNotFound
	}
	return clone(o), nil
}

func (m *MemoryStore) find(match func(Order) bool) (Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, o := range m.orders {
		if match(o) {
			return clone(o), nil
		}
	}
	return Order{}, ErrNotFound
}

func (m *MemoryStore) FindBySession(_ context.Context, sessionID string) (Order, error) {
	if sessionID == "" {
		return Order{}, ErrNotFound
	}
	return m.find(func(o Order) bool { return o.CheckoutSessionID == sessionID })
}

func (m *MemoryStore) FindByPaymentIntent(_ context.Context, paymentIntentID string) (Order, error) {
	if paymentIntentID == "" {
		return Order{}, ErrNotFound
	}
	return m.find(func(o Order) bool { return o.PaymentIntentID == paymentIntentID })
}

func (m *MemoryStore) ListByUser(_ context.Context, userID string, f ListFilter) ([]Order, int, error) {
	m.mu.RLock()
	var all []Order
	for _, o := range m.orders {
		if o.UserID == userID && (f.Status == "" || o.Status == f.Status) {
			all = append(all, clone(o))
		}
	}
	m.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	total := len(all)
	start := f.Offset()
	if start >= total {
		return []Order{}, total, nil
	}
	end := start + f.Limit
	if end > total {
		end = total
	}
	return all[start:end], total, nil
}

// update applies fn under the write lock when cond holds.
func (m *MemoryStore) update(id string, cond func(Order) bool, fn func(*Order)) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return false, ErrNotFound
	}
	if !cond(o) {
		return false, nil
	}
	fn(&o)
	o.UpdatedAt = time.Now().UTC()
	m.orders[id] = o
	return true, nil
}

func (m *MemoryStore) AttachSession(_ context.Context, id, sessionID string) error {
	_, err := m.update(id, func(Order) bool { return true }, func(o *Order) { o.CheckoutSessionID = sessionID })
	return err
}

func (m *MemoryStore) AttachPaymentIntent(_ context.Context, id, paymentIntentID string) (bool, error) {
	return m.update(id, func(o Order) bool {
		return paymentIntentID != "" && o.PaymentStatus != PaymentPaid && o.PaymentIntentID != paymentIntentID
	}, func(o *Order) { o.PaymentIntentID = paymentIntentID })
}

func (m *MemoryStore) MarkPaid(_ context.Context, id, paymentIntentID, sessionID string) (bool, error) {
	return m.update(id, func(o Order) bool { return o.PaymentStatus != PaymentPaid }, func(o *Order) {
		o.PaymentStatus = PaymentPaid
		o.Status = StatusConfirmed
		if paymentIntentID != "" {
			o.PaymentIntentID = paymentIntentID
		}
		if o.CheckoutSessionID == "" {
			o.CheckoutSessionID = sessionID
		}
	})
}

func (m *MemoryStore) MarkExpired(_ context.Context, id string) (bool, error) {
	return m.update(id, func(o Order) bool {
		return o.Status == StatusPending && o.PaymentStatus == PaymentPending
	}, func(o *Order) {
		o.PaymentStatus = PaymentFailed
		o.Status = StatusCancelled
	})
}

func (m *MemoryStore) MarkPaymentFailed(_ context.Context, id string) (bool, error) {
	return m.update(id, func(o Order) bool { return o.PaymentStatus != PaymentPaid }, func(o *Order) {
		o.PaymentStatus = PaymentFailed
	})
}

func (m *MemoryStore) Cancel(_ context.Context, id, userID string) (bool, error) {
	m.mu.RLock()
	o, ok := m.orders[id]
	m.mu.RUnlock()
	if !ok || o.UserID != userID {
		return false, ErrNotFound
	}
	return m.update(id, func(o Order) bool { return o.Cancellable() }, func(o *Order) { o.Status = StatusCancelled })
}

func (m *MemoryStore) Discard(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if o, ok := m.orders[id]; ok && o.CheckoutSessionID == "" && o.PaymentStatus == PaymentPending {
		delete(m.orders, id)
	}
	return nil
}
