package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"algotutor/internal/api"
	"algotutor/internal/app/service"
	"algotutor/internal/common/security"
	"algotutor/internal/domain/repository"
	"algotutor/internal/platform/cache"
	"algotutor/internal/platform/config"
	"algotutor/internal/platform/database"
	"algotutor/internal/platform/events"
	"algotutor/internal/platform/logging"

	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Configuration and logging
	cfg, err := config.Load()
	if err != nil {
		logging.Setup("info")
		return err
	}
	logging.Setup(cfg.LogLevel)
	slog.Info("configuration loaded", "backend", cfg.BackendURL.String(), "prefix", cfg.ProxyPrefix)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. JWT
	security.InitJWT(cfg.JWTKey)

	// 3. Ledger storage
	var ledgerRepo repository.LedgerRepository
	if cfg.DBConnStr != "" {
		if err := database.Connect(ctx); err != nil {
			return err
		}
		defer database.Close()
		if err := repository.EnsureLedgerSchema(ctx, database.DB); err != nil {
			return err
		}
		ledgerRepo = repository.NewPgLedgerRepository(database.DB)
	} else {
		slog.Info("DB_HOST not set, keeping the submission ledger in memory")
		ledgerRepo = repository.NewMemoryLedgerRepository()
	}

	// 4. Status cache
	var statusCache service.StatusCache
	if cfg.RedisAddr != "" {
		if err := cache.ConnectRedis(ctx); err != nil {
			return err
		}
		defer cache.CloseRedis()
		statusCache = cache.NewStatusCache(cache.RDB, cfg.StatusCacheTTL)
	}

	// 5. Services
	ledgerService := service.NewLedgerService(ledgerRepo)
	observers := []service.ForwardObserver{ledgerService}
	if cfg.NatsURL != "" {
		nc, err := events.Connect(cfg.NatsURL)
		if err != nil {
			return err
		}
		defer nc.Drain()
		observers = append(observers, service.NewCompletionNotifier(events.NewNatsPublisher(nc, cfg.NatsSubject)))
	}

	upstream := &http.Client{Timeout: cfg.UpstreamTimeout}
	proxyService := service.NewProxyService(cfg.BackendURL, upstream, cfg.PlaceholderToken, statusCache, observers...)
	voiceService := service.NewVoiceService(cfg.VoiceTokenURL, upstream)
	sessionService := service.NewSessionService(cfg.JWTExp)

	// 6. Router and HTTP server
	router := api.NewRouter(cfg.ProxyPrefix, proxyService, voiceService, sessionService, ledgerService)
	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.UpstreamTimeout + 10*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("server starting", "port", cfg.APIPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	slog.Info("server stopped gracefully")
	return nil
}
