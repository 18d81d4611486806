package currency

import (
	"context"
	"github.com/sirupsen/logrus"
	"go.uber.org/atomic"
	"sync"
	"time"
	"vital_geo/database"
	"vital_geo/model"
)

// RateSource fetches the current PKR/USD rate.
type RateSource interface {
	FetchRate(ctx context.Context) (float64, error)
}

type Options struct {
	FreshFor     time.Duration
	StaleFor     time.Duration
	RefreshEvery time.Duration
	FallbackRate float64
	Now          func() time.Time
}

func (o *Options) setDefaults() {
	if o.FreshFor <= 0 {
		o.FreshFor = 10 * time.Minute
	}
	if o.StaleFor <= 0 {
		o.StaleFor = 2 * o.FreshFor
	}
	if o.RefreshEvery <= 0 {
		o.RefreshEvery = 10 * time.Minute
	}
	if o.FallbackRate <= 0 {
		o.FallbackRate = 278.50
	}
	if o.Now == nil {
		o.Now = time.Now
	}
}

// Service keeps the exchange rate used to show USD next to PKR prices. It
// never fails: when the source and the cache are unusable the fallback rate
// is used.
type Service struct {
	source RateSource
	store  database.Store
	opts   Options

	rate    *atomic.Float64
	loading *atomic.Bool

	wg     sync.WaitGroup
	mu     sync.Mutex
	cancel context.CancelFunc
}

func NewService(source RateSource, store database.Store, opts Options) *Service {
	opts.setDefaults()
	return &Service{
		source:  source,
		store:   store,
		opts:    opts,
		rate:    atomic.NewFloat64(opts.FallbackRate),
		loading: atomic.NewBool(true),
	}
}

func (s *Service) Rate() float64 {
	return s.rate.Load()
}

func (s *Service) Loading() bool {
	return s.loading.Load()
}

// Load runs the freshness check. A fresh cached rate is published at once
// and refreshed in the background; otherwise the caller waits for a fetch.
func (s *Service) Load(ctx context.Context) {
	s.loading.Store(true)
	defer s.loading.Store(false)

	if cached, ok := s.cached(); ok {
		age := s.opts.Now().Sub(cached.FetchedAt())
		if age < s.opts.FreshFor {
			s.rate.Store(cached.Rate)
			s.loading.Store(false)
			s.wg.Add(1)
			go func() {
				defer s.wg.Done()
				s.rate.Store(s.fetch(ctx))
			}()
			return
		}
		if age < s.opts.StaleFor {
			s.rate.Store(cached.Rate)
		}
	}

	s.rate.Store(s.fetch(ctx))
}

// Start loads the rate and then reloads it every RefreshEvery until ctx is
// done or Close is called.
func (s *Service) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()

	s.Load(ctx)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.opts.RefreshEvery)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Load(ctx)
			}
		}
	}()
}

// Close stops the refresh loop and waits for in-flight refreshes.
func (s *Service) Close() {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()
	s.wg.Wait()
}

// fetch asks the source for a rate and caches it. On failure it falls back
// to a cache younger than StaleFor, then to the fallback rate.
func (s *Service) fetch(ctx context.Context) float64 {
	rate, err := s.source.FetchRate(ctx)
	if err == nil {
		entry := model.ExchangeRateCache{Rate: rate, LastUpdated: s.opts.Now().UnixMilli()}
		if err := s.store.Save(database.SlotExchangeRate, entry); err != nil {
			logrus.Errorf("fetchRate: error in caching exchange rate err = %v", err)
		}
		return rate
	}
	logrus.Errorf("fetchRate: error in fetching exchange rate err = %v", err)

	if cached, ok := s.cached(); ok && s.opts.Now().Sub(cached.FetchedAt()) < s.opts.StaleFor {
		return cached.Rate
	}
	return s.opts.FallbackRate
}

func (s *Service) cached() (model.ExchangeRateCache, bool) {
	var entry model.ExchangeRateCache
	found, err := s.store.Load(database.SlotExchangeRate, &entry)
	if err != nil {
		logrus.Errorf("cachedRate: error in reading cached rate err = %v", err)
		return entry, false
	}
	return entry, found && entry.Rate > 0
}

// ToForeign converts a PKR amount to USD. The cached rate may be expressed
// either way round: above 1 it is read as PKR per USD and divides, otherwise
// it is USD per PKR and multiplies.
func (s *Service) ToForeign(amount float64) float64 {
	return Convert(amount, s.Rate())
}

func Convert(amount, rate float64) float64 {
	if rate > 1 {
		return amount / rate
	}
	return amount * rate
}
