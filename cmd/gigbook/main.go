package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"gigbook/internal/store"
	"gigbook/shared/go/config"
	"gigbook/shared/go/logging"
	"gigbook/shared/go/middleware"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("gigbook exited")
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logging.SetGlobalLogger(logging.New(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	}))

	settings, err := config.LoadSettings(cfg.SettingsPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := openDatabase(ctx, cfg.Database.URL)
	if err != nil {
		return err
	}
	defer db.Close()
	log.Info().Msg("Connected to PostgreSQL database")

	dataStore := store.New(db)

	syncer, closeSync, err := newSynchronizer(ctx, cfg, settings, dataStore)
	if err != nil {
		return err
	}
	defer closeSync()

	// Generate the coming weeks before serving so the first report is current.
	runSync(ctx, syncer)

	stopScheduler, err := startScheduler(ctx, cfg.Sync.Cron, syncer)
	if err != nil {
		return err
	}
	defer stopScheduler()

	handler := newHTTPHandler(middleware.ParseOrigins(cfg.Server.AllowedOrigins), *settings, dataStore, syncer, time.Now)

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           handler,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", server.Addr).Msg("API listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down gigbook...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info().Msg("gigbook exited")
	return nil
}
