package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/collabmd/server/internal/account"
	"github.com/collabmd/server/internal/config"
	"github.com/collabmd/server/internal/handler"
	"github.com/collabmd/server/internal/logger"
	"github.com/collabmd/server/internal/relay"
	"github.com/collabmd/server/internal/session"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file; absence is fine, the environment still applies.
	dotenvErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		zlog.Fatal().Err(err).Msg("failed to load configuration")
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)
	if dotenvErr != nil {
		log.Debug().Err(dotenvErr).Msg("no .env file loaded")
	}

	gate := session.NewPasswordGate()
	registry := session.NewRegistry()

	reaper := session.NewReaper(registry, gate, cfg.Session.TTL, log)
	if err := reaper.Start(cfg.Session.SweepEvery); err != nil {
		log.Fatal().Err(err).Msg("failed to start session reaper")
	}
	defer reaper.Stop()

	relayHandler := relay.NewHandler(registry, gate, relay.Options{
		SendQueueSize: cfg.Relay.SendQueueSize,
		WriteTimeout:  cfg.Relay.WriteTimeout,
	}, log)

	var accountHandler *account.Handler
	if cfg.Account.Enabled() {
		store, err := account.Open(cfg.Account.DBPath, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to open account store")
		}
		defer store.Close()
		accountHandler = account.NewHandler(store, log)
		log.Info().Str("path", cfg.Account.DBPath).Msg("account store enabled")
	} else {
		log.Info().Msg("account store disabled, serving relay only")
	}

	router := handler.NewRouter(relayHandler, accountHandler, log)
	startServer(ctx, cfg.Server, router, log)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler, log zerolog.Logger) {
	srv := &http.Server{
		Addr:              serverCfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Info().Str("addr", serverCfg.Addr).Msg("collaboration server listening")
	if err := runServer(ctx, srv); err != nil {
		log.Fatal().Err(err).Msg("server error")
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
