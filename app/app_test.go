package app

import (
	"context"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
	"vital_geo/catalog"
	"vital_geo/database"
	"vital_geo/model"
	"vital_geo/utils"
)

type fixedRate float64

func (r fixedRate) FetchRate(ctx context.Context) (float64, error) {
	return float64(r), nil
}

func testConfig(apiURL string) *utils.Config {
	return &utils.Config{
		API:      utils.APIConfig{URL: apiURL, Timeout: time.Second},
		Session:  utils.SessionConfig{Secret: "test-secret", RevalidateDelay: time.Hour},
		Payments: utils.PaymentsConfig{PollInterval: time.Hour},
	}
}

func TestUnauthorizedResponseExpiresSession(t *testing.T) {
	customer := model.User{ID: "u1", Email: "ayesha@example.com", Role: model.RoleUser}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/auth/status":
			utils.RespondJSON(w, http.StatusOK, model.AuthStatusResponse{Authenticated: true, User: &customer})
		case "/api/payments/my-transactions":
			utils.RespondJSON(w, http.StatusOK, model.PaymentsResponse{})
		default:
			utils.RespondJSON(w, http.StatusUnauthorized, map[string]string{"message": "Not authenticated"})
		}
	}))
	defer srv.Close()

	store, err := database.NewFileStore(afero.NewMemMapFs(), "/data")
	require.NoError(t, err)
	a, err := New(testConfig(srv.URL), store, fixedRate(0.0036))
	require.NoError(t, err)

	a.Start(context.Background())
	defer a.Close()

	require.True(t, a.Auth.IsAuthenticated())
	assert.Equal(t, 0.0036, a.Currency.Rate())

	_, err = a.Catalog.List(context.Background(), catalog.Filter{})
	assert.Error(t, err)
	assert.False(t, a.Auth.IsAuthenticated())
}

func TestWrongPasswordKeepsSession(t *testing.T) {
	customer := model.User{ID: "u1", Email: "ayesha@example.com", Role: model.RoleUser}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/auth/status":
			utils.RespondJSON(w, http.StatusOK, model.AuthStatusResponse{Authenticated: true, User: &customer})
		case "/api/payments/my-transactions":
			utils.RespondJSON(w, http.StatusOK, model.PaymentsResponse{})
		case "/api/auth/login":
			utils.RespondJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid email or password"})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	store, err := database.NewFileStore(afero.NewMemMapFs(), "/data")
	require.NoError(t, err)
	a, err := New(testConfig(srv.URL), store, fixedRate(0.0036))
	require.NoError(t, err)

	a.Start(context.Background())
	defer a.Close()
	require.True(t, a.Auth.IsAuthenticated())

	err = a.Auth.Login(context.Background(), "other@example.com", "wrong-password")
	assert.EqualError(t, err, "Invalid email or password")
	assert.True(t, a.Auth.IsAuthenticated())
}

func TestOpenStore(t *testing.T) {
	_, err := OpenStore(utils.StorageConfig{Driver: "mongo"})
	assert.ErrorIs(t, err, database.ErrUnknownDriver)

	store, err := OpenStore(utils.StorageConfig{Driver: "file", Dir: t.TempDir()})
	require.NoError(t, err)
	require.NoError(t, store.Save(database.SlotCart, []model.CartLineItem{}))
}
