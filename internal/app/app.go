package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"baskt/internal/auth"
	bkcfg "baskt/internal/config"
	"baskt/internal/logger"
	"baskt/internal/market"
	"baskt/internal/replay"
	"baskt/internal/server"
	"baskt/internal/store/archive"
	"baskt/internal/store/gormstore"

	"golang.org/x/sync/errgroup"
)

// App wires configuration, storage, market sources and the HTTP server into a
// runnable unit.
type App struct {
	cfg     *bkcfg.Config
	store   *gormstore.GormStore
	archive *archive.Store
	server  *server.Server
}

// NewApp builds the application from config without starting it.
func NewApp(cfg *bkcfg.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	logger.SetLevel(cfg.App.LogLevel)

	store, err := gormstore.NewGormStore(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("opening database failed: %w", err)
	}
	archiveStore, err := archive.NewStore(cfg.Database.ArchivePath)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("opening trade archive failed: %w", err)
	}

	timeout := time.Duration(cfg.Provider.TimeoutSeconds) * time.Second
	fx, err := market.NewTwelveDataSource(cfg.Provider.APIKey, cfg.Provider.BaseURL, timeout)
	if err != nil {
		_ = archiveStore.Close()
		_ = store.Close()
		return nil, err
	}
	crypto := market.NewBinanceSource(cfg.Provider.BinanceBaseURL, timeout)
	router := market.NewRouter(fx, crypto)

	svc, err := replay.NewService(store, router, archiveStore)
	if err != nil {
		_ = archiveStore.Close()
		_ = store.Close()
		return nil, err
	}

	tokens, err := auth.NewTokenManager(cfg.Auth.JWTSecret, time.Duration(cfg.Auth.TokenTTLHours)*time.Hour)
	if err != nil {
		_ = archiveStore.Close()
		_ = store.Close()
		return nil, err
	}

	srv, err := server.NewServer(server.Config{
		Addr:   cfg.App.HTTPAddr,
		Store:  store,
		Replay: svc,
		Tokens: tokens,
	})
	if err != nil {
		_ = archiveStore.Close()
		_ = store.Close()
		return nil, err
	}

	return &App{cfg: cfg, store: store, archive: archiveStore, server: srv}, nil
}

// Run serves until ctx is cancelled or SIGINT/SIGTERM arrives.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.cfg == nil {
		return fmt.Errorf("app not initialized")
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		if err := a.server.Start(ctx); err != nil {
			return fmt.Errorf("http server error: %w", err)
		}
		return nil
	})

	logger.Infof("baskt started (env=%s, addr=%s)", a.cfg.App.Env, a.server.Addr())
	return group.Wait()
}

// Close releases the database handles.
func (a *App) Close() {
	if a == nil {
		return
	}
	if a.archive != nil {
		if err := a.archive.Close(); err != nil {
			logger.Warnf("closing trade archive: %v", err)
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			logger.Warnf("closing database: %v", err)
		}
	}
}
