package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kramislife/brick-draft-sub001/internal/cache"
	"github.com/kramislife/brick-draft-sub001/internal/clock"
	"github.com/kramislife/brick-draft-sub001/internal/config"
	"github.com/kramislife/brick-draft-sub001/internal/httpapi"
	"github.com/kramislife/brick-draft-sub001/internal/hub"
	"github.com/kramislife/brick-draft-sub001/internal/store"
)

func main() {
	cfg := config.Load()

	logger := buildLogger(cfg.DevLogging)
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var catalog store.Catalog
	var recorder store.Recorder
	if cfg.DatabaseURL != "" {
		pg, err := store.OpenPostgres(cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("open store", zap.Error(err))
		}
		catalog, recorder = pg, pg
	} else {
		mem := store.NewMemory()
		catalog, recorder = mem, mem
		logger.Warn("DATABASE_URL not set, results will not survive a restart")
	}

	ec := cache.New(catalog, cfg.CacheTTL)
	tc := clock.New(clockwork.NewRealClock())
	h := hub.NewHub(ctx, ec, recorder, tc, hub.Config{
		ShuffleWindow: cfg.ShuffleWindow,
		Retention:     cfg.Retention,
		IdleTTL:       cfg.IdleTTL,
	}, logger)

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: httpapi.SetupRoutes(h, catalog, ec, cfg.AdminToken, logger),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		h.Inbox() <- hub.ShutdownHub{}
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}

func buildLogger(dev bool) *zap.Logger {
	if dev {
		logger, err := zap.NewDevelopment()
		if err != nil {
			panic(err)
		}
		return logger
	}
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	return logger
}
