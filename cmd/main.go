package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"adboard/internal/adapter/broadstreet"
	"adboard/internal/adapter/docstore"
	httpadapter "adboard/internal/adapter/http"
	"adboard/internal/adapter/usecase"
	"adboard/internal/config"
)

// main is the entry point of the adboard service. It loads configuration,
// opens the embedded document store, wires the upstream client and
// services, kicks off the cold-start cache population in the background
// and starts the HTTP server. On receiving a termination signal it
// gracefully shuts down the server.
func main() {
	exitCode := 1
	defer func() {
		if r := recover(); r != nil {
			panic(r)
		} else {
			os.Exit(exitCode)
		}
	}()

	// Load configuration from environment variables.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	var logger *slog.Logger
	{
		// Initialise structured logger based on configuration.
		var handler slog.Handler
		level := cfg.Log.SlogLevel()
		switch cfg.Log.SlogFormat() {
		case "json":
			handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
		default:
			handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
		}
		logger = slog.New(handler)
	}

	store, err := docstore.Open(cfg.Store)
	if err != nil {
		logger.Error("document store error", slog.Any("error", err))
		os.Exit(1)
	}
	defer store.Close()

	repos := usecase.Repositories{
		Networks:       docstore.NewNetworkRepository(store),
		Advertisers:    docstore.NewAdvertiserRepository(store),
		Campaigns:      docstore.NewCampaignRepository(store),
		Advertisements: docstore.NewAdvertisementRepository(store),
		Zones:          docstore.NewZoneRepository(store),
		Ledger:         docstore.NewSyncLedger(store),
	}

	upstream := broadstreet.NewClient(cfg.Broadstreet, logger)
	syncSvc := usecase.NewSyncService(repos, upstream, logger)
	initSvc := usecase.NewInitService(repos, syncSvc, logger)
	dataSvc := usecase.NewDataService(repos, upstream, initSvc, syncSvc, logger)
	defer dataSvc.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Populate the cache in the background so the server accepts requests
	// immediately; reads fall back to the upstream until it finishes.
	go func() {
		if err := initSvc.EnsureInitialized(ctx); err != nil {
			logger.Error("initial cache population failed", slog.Any("error", err))
		}
	}()

	handler := httpadapter.NewHandler(dataSvc, syncSvc, initSvc, repos.Ledger, store, logger)
	srv := &http.Server{
		Addr:         cfg.HTTP.Addr(),
		Handler:      handler.Router(),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	go func() {
		logger.Info("server listening", slog.String("addr", cfg.HTTP.Addr()))
		if err = srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.Any("error", err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	value := <-quit
	exitCode = 128 + int(value.(syscall.Signal))

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err = srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
	} else {
		logger.Info("server gracefully stopped")
	}
}
