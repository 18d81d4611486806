package currency

import (
	"context"
	"errors"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
	"vital_geo/database"
	"vital_geo/model"
)

type fakeSource struct {
	mu    sync.Mutex
	rate  float64
	err   error
	calls int
	gate  chan struct{}
}

func (f *fakeSource) FetchRate(ctx context.Context) (float64, error) {
	if f.gate != nil {
		<-f.gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.rate, f.err
}

func (f *fakeSource) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newStore(t *testing.T) database.Store {
	store, err := database.NewFileStore(afero.NewMemMapFs(), "/data")
	require.NoError(t, err)
	return store
}

func seedRate(t *testing.T, store database.Store, rate float64, age time.Duration) {
	entry := model.ExchangeRateCache{Rate: rate, LastUpdated: now.Add(-age).UnixMilli()}
	require.NoError(t, store.Save(database.SlotExchangeRate, entry))
}

func newService(source RateSource, store database.Store) *Service {
	return NewService(source, store, Options{Now: func() time.Time { return now }})
}

func TestConvertDisambiguatesRateDirection(t *testing.T) {
	assert.InDelta(t, 3.59, Convert(1000, 278.5), 0.01)
	assert.InDelta(t, 3.6, Convert(1000, 0.0036), 1e-9)
	assert.Equal(t, 1000.0, Convert(1000, 1))
}

func TestFormatting(t *testing.T) {
	assert.Equal(t, "PKR 15,750", FormatLocal(15750))
	assert.Equal(t, "$56.57", FormatForeign(56.57))
	assert.Equal(t, "$3.00", FormatForeign(3))
}

func TestFormattingRoundsHalfAwayFromZero(t *testing.T) {
	assert.Equal(t, "PKR 2,501", FormatLocal(2500.5))
	assert.Equal(t, "$0.13", FormatForeign(0.125))
	assert.Equal(t, "1.063", FormatGrouped(1.0625))
}

func TestLoadUsesFreshCacheAndRefreshesInBackground(t *testing.T) {
	store := newStore(t)
	seedRate(t, store, 280, 5*time.Minute)
	source := &fakeSource{rate: 0.0036, gate: make(chan struct{})}
	s := newService(source, store)

	s.Load(context.Background())

	assert.Equal(t, 280.0, s.Rate())
	assert.False(t, s.Loading())

	close(source.gate)
	s.Close()
	assert.Equal(t, 0.0036, s.Rate())
	assert.Equal(t, 1, source.Calls())
}

func TestLoadFetchesWhenNoCache(t *testing.T) {
	store := newStore(t)
	s := newService(&fakeSource{rate: 0.0036}, store)

	s.Load(context.Background())

	assert.Equal(t, 0.0036, s.Rate())
	var cached model.ExchangeRateCache
	found, err := store.Load(database.SlotExchangeRate, &cached)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 0.0036, cached.Rate)
	assert.Equal(t, now.UnixMilli(), cached.LastUpdated)
}

func TestLoadFallsBackToStaleCacheOnFailure(t *testing.T) {
	store := newStore(t)
	seedRate(t, store, 281.25, 15*time.Minute)
	s := newService(&fakeSource{err: errors.New("offline")}, store)

	s.Load(context.Background())

	assert.Equal(t, 281.25, s.Rate())
}

func TestLoadFallsBackToConstant(t *testing.T) {
	store := newStore(t)
	seedRate(t, store, 281.25, 30*time.Minute)
	s := newService(&fakeSource{err: errors.New("offline")}, store)

	s.Load(context.Background())

	assert.Equal(t, 278.50, s.Rate())
	assert.InDelta(t, 3.59, s.ToForeign(1000), 0.01)
}

func TestStartRefreshesPeriodically(t *testing.T) {
	source := &fakeSource{rate: 0.0036}
	s := NewService(source, newStore(t), Options{RefreshEvery: 10 * time.Millisecond, FreshFor: time.Nanosecond})

	s.Start(context.Background())
	defer s.Close()

	assert.Eventually(t, func() bool { return source.Calls() >= 3 }, time.Second, 5*time.Millisecond)
}

func TestHTTPRateSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v4/latest/PKR":
			_, _ = w.Write([]byte(`{"base":"PKR","rates":{"PKR":1,"USD":0.0036}}`))
		default:
			_, _ = w.Write([]byte(`{"base":"PKR","rates":{"PKR":1}}`))
		}
	}))
	defer srv.Close()

	rate, err := NewHTTPRateSource(srv.URL+"/v4/latest/PKR", time.Second).FetchRate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0.0036, rate)

	_, err = NewHTTPRateSource(srv.URL+"/other", time.Second).FetchRate(context.Background())
	assert.ErrorIs(t, err, errNoUSDRate)
}

func TestFormatGrouped(t *testing.T) {
	assert.Equal(t, "15,750", FormatGrouped(15750))
	assert.Equal(t, "56.5", FormatGrouped(56.5))
}
