// Package app wires the storefront services together. Each service gets its
// dependencies through its constructor; App only owns their lifetimes.
package app

import (
	"context"
	"fmt"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"sync"
	"vital_geo/auth"
	"vital_geo/cart"
	"vital_geo/catalog"
	"vital_geo/client"
	"vital_geo/currency"
	"vital_geo/database"
	"vital_geo/likes"
	"vital_geo/payment"
	"vital_geo/utils"
)

type App struct {
	Config       *utils.Config
	Store        database.Store
	Client       *client.Client
	Auth         *auth.Manager
	Cart         *cart.Manager
	Likes        *likes.Manager
	Currency     *currency.Service
	Catalog      *catalog.Catalog
	Payments     *payment.Submitter
	Transactions *payment.Watcher

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// OpenStore builds the slot store selected by cfg.Driver.
func OpenStore(cfg utils.StorageConfig) (database.Store, error) {
	switch database.Driver(cfg.Driver) {
	case database.DriverFile, "":
		return database.NewFileStore(afero.NewOsFs(), cfg.Dir)
	case database.DriverPostgres:
		pg := cfg.Postgres
		return database.ConnectAndMigrate(pg.Host, pg.Port, pg.Name, pg.User, pg.Password, database.SSLMode(pg.SSLMode), cfg.Migrations)
	default:
		return nil, fmt.Errorf("%w: %q", database.ErrUnknownDriver, cfg.Driver)
	}
}

// New builds every service on top of store. rates may be nil to use the
// configured HTTP rate source.
func New(cfg *utils.Config, store database.Store, rates currency.RateSource) (*App, error) {
	c, err := client.New(cfg.API.URL, cfg.API.Timeout, store)
	if err != nil {
		return nil, err
	}
	if rates == nil {
		rates = currency.NewHTTPRateSource(cfg.Currency.RateURL, cfg.API.Timeout)
	}

	sessions := auth.NewManager(c, store, auth.Options{
		Secret:             cfg.Session.Secret,
		MaxAge:             cfg.Session.MaxAge,
		ValidationInterval: cfg.Session.ValidationInterval,
		RevalidateDelay:    cfg.Session.RevalidateDelay,
	})
	a := &App{
		Config: cfg,
		Store:  store,
		Client: c,
		Auth:   sessions,
		Cart:  cart.NewManager(store),
		Likes: likes.NewManager(store),
		Currency: currency.NewService(rates, store, currency.Options{
			FreshFor:     cfg.Currency.FreshFor,
			StaleFor:     cfg.Currency.StaleFor,
			RefreshEvery: cfg.Currency.RefreshEvery,
			FallbackRate: cfg.Currency.FallbackRate,
		}),
		Catalog:      catalog.New(c),
		Payments:     payment.NewSubmitter(c, cfg.Payments.RedirectDelay),
		Transactions: payment.NewWatcher(c, store, cfg.Payments.PollInterval, sessions.UserID),
	}
	c.OnUnauthorized(a.Auth.Expire)
	return a, nil
}

// Start runs the initial session check, then the background loops: session
// re-validation, rate refresh and transaction polling while signed in.
func (a *App) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	a.Auth.Start(ctx)
	a.Currency.Start(ctx)

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.Transactions.Run(ctx, a.Auth.IsAuthenticated)
	}()
	logrus.Info("storefront services started")
}

// Close stops the background loops and releases the store.
func (a *App) Close() {
	if a.cancel != nil {
		a.cancel()
	}
	a.Auth.Close()
	a.Currency.Close()
	a.wg.Wait()
	if closer, ok := a.Store.(interface{ Close() }); ok {
		closer.Close()
	}
}
