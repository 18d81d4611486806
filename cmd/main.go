package main

import (
	"context"
	"errors"
	"github.com/sirupsen/logrus"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	"vital_geo/app"
	"vital_geo/server"
	"vital_geo/utils"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := utils.LoadEnv(".env"); err != nil {
		logrus.Errorf("Failed to load .env with error: %+v", err)
	}

	flags := utils.Flags()
	if err := flags.Parse(os.Args[1:]); err != nil {
		logrus.Fatalf("Failed to parse flags with error: %+v", err)
	}
	cfg, v, err := utils.LoadConfig(flags)
	if err != nil {
		logrus.Fatalf("Failed to load config with error: %+v", err)
	}
	utils.SetLogLevel(cfg.LogLevel)
	utils.WatchLogLevel(v)

	store, err := app.OpenStore(cfg.Storage)
	if err != nil {
		logrus.Panicf("Failed to initialize storage with error: %+v", err)
	}
	logrus.Infof("storage ready (driver %s)", cfg.Storage.Driver)

	a, err := app.New(cfg, store, nil)
	if err != nil {
		logrus.Fatalf("Failed to build app with error: %+v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	a.Start(ctx)

	srv := server.SetupRoutes(a)
	go func() {
		if err := srv.Run(cfg.Server.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("Failed to run server with error %+v", err)
		}
	}()
	logrus.Printf("Server started at %s, backend %s", cfg.Server.Addr, a.Client.BaseURL())

	<-ctx.Done()
	logrus.Info("shutting down")
	if err := srv.Stop(shutdownTimeout); err != nil {
		logrus.Errorf("Failed to stop server gracefully with error: %+v", err)
	}
	a.Close()
}
