package server

import (
	"context"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"net/http"
	"time"
	"vital_geo/app"
	"vital_geo/database/handler"
	"vital_geo/middleware"
)

const (
	readTimeout       = 5 * time.Minute
	readHeaderTimeout = 30 * time.Second
	writeTimeout      = 5 * time.Minute
)

type Server struct {
	chi.Router
	Events *Hub
	server *http.Server
}

// SetupRoutes mounts the storefront API under /api.
func SetupRoutes(a *app.App) *Server {
	h := handler.New(a)
	hub := NewHub()
	hub.Attach(a)

	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.Recoverer)

	router.Route("/api", func(api chi.Router) {
		api.Get("/events", hub.ServeHTTP)
		api.Group(func(r chi.Router) {
			StorefrontRoute(r, h)
		})
		api.Route("/auth", func(r chi.Router) {
			SessionRoute(r, h)
		})
		api.Route("/payments", func(payments chi.Router) {
			payments.Use(middleware.RequireSession(a.Auth))
			payments.Use(middleware.UserOnly)
			PaymentRoute(payments, h)
		})
	})

	return &Server{
		Router: router,
		Events: hub,
	}
}

func (srv *Server) Run(addr string) error {
	srv.server = &http.Server{
		Addr:              addr,
		Handler:           srv.Router,
		ReadTimeout:       readTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
		WriteTimeout:      writeTimeout,
	}
	return srv.server.ListenAndServe()
}

func (srv *Server) Stop(timeout time.Duration) error {
	srv.Events.Close()
	if srv.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return srv.server.Shutdown(ctx)
}
