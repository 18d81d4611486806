package likes

import (
	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"
	"sync"
	"vital_geo/database"
	"vital_geo/model"
)

// Manager owns the liked products and the per-product like counter. The
// counter only moves when membership changes, so a product is liked exactly
// when its counter is positive after any toggle.
type Manager struct {
	store database.Store

	persistMu sync.Mutex
	mu        sync.RWMutex
	liked     []model.Product
	counts    map[string]int
	listeners []func([]model.Product)
}

func NewManager(store database.Store) *Manager {
	m := &Manager{store: store, counts: map[string]int{}}
	m.load()
	return m
}

func (m *Manager) load() {
	var liked []model.Product
	if _, err := m.store.Load(database.SlotLikes, &liked); err != nil {
		logrus.Errorf("likes: error in loading liked products err = %v", err)
		liked = nil
	}
	counts := map[string]int{}
	if _, err := m.store.Load(database.SlotLikesCount, &counts); err != nil || counts == nil {
		if err != nil {
			logrus.Errorf("likes: error in loading like counts err = %v", err)
		}
		counts = map[string]int{}
	}
	m.liked = liked
	m.counts = counts
}

func (m *Manager) Subscribe(fn func([]model.Product)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, fn)
}

// ToggleLike flips membership of product and returns whether it is now liked.
func (m *Manager) ToggleLike(product model.Product) bool {
	key := product.Key()

	m.persistMu.Lock()
	m.mu.Lock()
	idx := m.indexLocked(key)
	liked := idx < 0
	if liked {
		m.liked = append(m.liked, product)
		m.counts[key]++
	} else {
		m.liked = append(m.liked[:idx], m.liked[idx+1:]...)
		if m.counts[key] > 0 {
			m.counts[key]--
		}
	}
	snapshot := append([]model.Product{}, m.liked...)
	counts := make(map[string]int, len(m.counts))
	for k, v := range m.counts {
		counts[k] = v
	}
	listeners := append([]func([]model.Product){}, m.listeners...)
	m.mu.Unlock()

	m.persist(snapshot, counts)
	m.persistMu.Unlock()

	for _, fn := range listeners {
		fn(snapshot)
	}
	return liked
}

// persist writes both slots; a failure of one does not stop the other.
func (m *Manager) persist(liked []model.Product, counts map[string]int) {
	var result *multierror.Error
	if err := m.store.Save(database.SlotLikes, liked); err != nil {
		result = multierror.Append(result, err)
	}
	if err := m.store.Save(database.SlotLikesCount, counts); err != nil {
		result = multierror.Append(result, err)
	}
	if err := result.ErrorOrNil(); err != nil {
		logrus.Errorf("likes: error in saving likes err = %v", err)
	}
}

func (m *Manager) IsLiked(id string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.indexLocked(id) >= 0
}

func (m *Manager) GetProductLikeCount(id string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.counts[id]
}

func (m *Manager) LikedProducts() []model.Product {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]model.Product{}, m.liked...)
}

// LikeCount is the number of liked products.
func (m *Manager) LikeCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.liked)
}

func (m *Manager) indexLocked(id string) int {
	for i, p := range m.liked {
		if p.Key() == id {
			return i
		}
	}
	return -1
}
