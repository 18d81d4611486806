package cart

import (
	"fmt"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"math/rand"
	"sync"
	"testing"
	"time"
	"vital_geo/database"
	"vital_geo/model"
)

func price(v float64) *float64 { return &v }

var (
	sapphire = model.Product{MongoID: "p1", Name: "Kashmir Blue Sapphire", ProductType: model.ProductTypeGemstone, Price: price(1000)}
	shilajit = model.Product{ID: "p2", Name: "Pure Himalayan Shilajit", ProductType: model.ProductTypeShilajit, Price: price(500)}
	unpriced = model.Product{MongoID: "p3", Name: "Swat Emerald"}
)

func newTestManager(t *testing.T) (*Manager, database.Store) {
	store, err := database.NewFileStore(afero.NewMemMapFs(), "/data")
	require.NoError(t, err)
	return NewManager(store), store
}

func TestAddToCartSameProductIncrements(t *testing.T) {
	m, _ := newTestManager(t)

	for i := 0; i < 5; i++ {
		m.AddToCart(sapphire)
	}

	items := m.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 5, items[0].Quantity)
	assert.Equal(t, 5, m.CartCount())
}

func TestAddToCartAppendsInOrder(t *testing.T) {
	m, _ := newTestManager(t)

	m.AddToCart(sapphire)
	m.AddToCart(shilajit)
	m.AddToCart(sapphire)

	items := m.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "p1", items[0].Key())
	assert.Equal(t, "p2", items[1].Key())
}

func TestRemoveThenAddResetsQuantity(t *testing.T) {
	m, _ := newTestManager(t)
	m.AddToCart(sapphire)
	m.AddToCart(sapphire)

	m.RemoveFromCart("p1")
	m.AddToCart(sapphire)

	items := m.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 1, items[0].Quantity)
}

func TestRemoveMissingIsNoop(t *testing.T) {
	m, _ := newTestManager(t)
	m.AddToCart(sapphire)

	m.RemoveFromCart("nope")

	assert.Len(t, m.Items(), 1)
}

func TestUpdateQuantity(t *testing.T) {
	m, _ := newTestManager(t)
	m.AddToCart(sapphire)
	m.AddToCart(shilajit)

	m.UpdateQuantity("p1", 4)
	assert.Equal(t, 5, m.CartCount())

	m.UpdateQuantity("p2", 0)
	items := m.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "p1", items[0].Key())
}

func TestTotals(t *testing.T) {
	m, _ := newTestManager(t)
	m.AddToCart(sapphire)
	m.AddToCart(sapphire)
	m.AddToCart(shilajit)
	m.AddToCart(unpriced)

	assert.Equal(t, 2500.0, m.TotalPrice())
	assert.Equal(t, 4, m.CartCount())
}

func TestClearCart(t *testing.T) {
	m, _ := newTestManager(t)
	m.AddToCart(sapphire)

	m.ClearCart()

	assert.Empty(t, m.Items())
	assert.Equal(t, 0.0, m.TotalPrice())
}

func TestCartPersistsAcrossManagers(t *testing.T) {
	m, store := newTestManager(t)
	m.AddToCart(sapphire)
	m.AddToCart(shilajit)
	m.UpdateQuantity("p2", 3)

	reloaded := NewManager(store)

	assert.Equal(t, m.Items(), reloaded.Items())
	assert.Equal(t, 4, reloaded.CartCount())
}

func TestCorruptCartStartsEmpty(t *testing.T) {
	fs := afero.NewMemMapFs()
	store, err := database.NewFileStore(fs, "/data")
	require.NoError(t, err)
	require.NoError(t, afero.WriteFile(fs, "/data/"+database.SlotCart+".json", []byte("[{broken"), 0o600))

	m := NewManager(store)

	assert.Empty(t, m.Items())
}

func TestSubscribeReceivesSnapshots(t *testing.T) {
	m, _ := newTestManager(t)
	var counts []int
	m.Subscribe(func(items []model.CartLineItem) { counts = append(counts, len(items)) })

	m.AddToCart(sapphire)
	m.AddToCart(shilajit)
	m.ClearCart()

	assert.Equal(t, []int{1, 2, 0}, counts)
}

// slowStore delays every save so overlapping mutations race on persistence.
type slowStore struct {
	database.Store
}

func (s slowStore) Save(key string, v interface{}) error {
	time.Sleep(time.Duration(rand.Intn(2000)) * time.Microsecond)
	return s.Store.Save(key, v)
}

func TestConcurrentAddsAllPersist(t *testing.T) {
	base, err := database.NewFileStore(afero.NewMemMapFs(), "/data")
	require.NoError(t, err)
	store := slowStore{Store: base}
	m := NewManager(store)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m.AddToCart(model.Product{MongoID: fmt.Sprintf("g%d", i), Name: "Gem", Price: price(100)})
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 20, m.CartCount())
	reloaded := NewManager(store)
	assert.Equal(t, 20, reloaded.CartCount())
	assert.Len(t, reloaded.Items(), 20)
}
