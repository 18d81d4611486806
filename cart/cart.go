package cart

import (
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"sync"
	"vital_geo/database"
	"vital_geo/model"
)

// Manager owns the ordered cart line items. Every mutation rewrites the
// whole cart slot.
type Manager struct {
	store database.Store

	// persistMu orders saves so the slot always holds the latest snapshot.
	persistMu sync.Mutex
	mu        sync.RWMutex
	items     []model.CartLineItem
	listeners []func([]model.CartLineItem)
}

func NewManager(store database.Store) *Manager {
	m := &Manager{store: store}
	m.load()
	return m
}

func (m *Manager) load() {
	var items []model.CartLineItem
	if _, err := m.store.Load(database.SlotCart, &items); err != nil {
		logrus.Errorf("cart: error in loading cart from storage err = %v", err)
		return
	}
	for i := range items {
		if items[i].Quantity < 1 {
			items[i].Quantity = 1
		}
	}
	m.items = items
}

func (m *Manager) Subscribe(fn func([]model.CartLineItem)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, fn)
}

// mutate applies fn to the current items under the lock, then persists and
// notifies with the result.
func (m *Manager) mutate(fn func(items []model.CartLineItem) []model.CartLineItem) {
	m.persistMu.Lock()
	m.mu.Lock()
	m.items = fn(m.items)
	snapshot := copyItems(m.items)
	listeners := append([]func([]model.CartLineItem){}, m.listeners...)
	m.mu.Unlock()

	if err := m.store.Save(database.SlotCart, snapshot); err != nil {
		logrus.Errorf("cart: error in saving cart err = %v", err)
	}
	m.persistMu.Unlock()

	for _, fn := range listeners {
		fn(snapshot)
	}
}

// AddToCart increments the quantity of an existing line item or appends a
// new one with quantity 1.
func (m *Manager) AddToCart(product model.Product) {
	key := product.Key()
	m.mutate(func(items []model.CartLineItem) []model.CartLineItem {
		for i := range items {
			if items[i].Key() == key {
				items[i].Quantity++
				return items
			}
		}
		return append(items, model.CartLineItem{Product: product, Quantity: 1})
	})
}

func (m *Manager) RemoveFromCart(id string) {
	m.mutate(func(items []model.CartLineItem) []model.CartLineItem {
		kept := items[:0]
		for _, item := range items {
			if item.Key() != id {
				kept = append(kept, item)
			}
		}
		return kept
	})
}

// UpdateQuantity sets the quantity exactly; zero or less removes the item.
func (m *Manager) UpdateQuantity(id string, quantity int) {
	if quantity <= 0 {
		m.RemoveFromCart(id)
		return
	}
	m.mutate(func(items []model.CartLineItem) []model.CartLineItem {
		for i := range items {
			if items[i].Key() == id {
				items[i].Quantity = quantity
			}
		}
		return items
	})
}

func (m *Manager) ClearCart() {
	m.mutate(func([]model.CartLineItem) []model.CartLineItem {
		return []model.CartLineItem{}
	})
}

func (m *Manager) Items() []model.CartLineItem {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return copyItems(m.items)
}

// CartCount is the sum of quantities.
func (m *Manager) CartCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	count := 0
	for _, item := range m.items {
		count += item.Quantity
	}
	return count
}

// TotalPrice sums price * quantity, treating a missing price as zero.
func (m *Manager) TotalPrice() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	total := decimal.Zero
	for _, item := range m.items {
		line := decimal.NewFromFloat(item.PriceOrZero()).Mul(decimal.NewFromInt(int64(item.Quantity)))
		total = total.Add(line)
	}
	f, _ := total.Float64()
	return f
}

func copyItems(items []model.CartLineItem) []model.CartLineItem {
	out := make([]model.CartLineItem, len(items))
	copy(out, items)
	return out
}
