package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/seanblong/docask/internal/api"
	"github.com/seanblong/docask/internal/app"
	"github.com/seanblong/docask/internal/auth"
	"github.com/seanblong/docask/internal/config"
	"github.com/spf13/pflag"
)

func main() {
	_ = godotenv.Load()

	fs := pflag.NewFlagSet("docask-api", pflag.ExitOnError)
	cfg, err := config.Load("", fs)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	fs.Usage = cfg.Usage

	logger, err := app.NewLogger(cfg.LogLevel, os.Stdout)
	if err != nil {
		log.Fatal(err)
	}
	logger.Info().Str("provider", cfg.Provider).Str("log_level", cfg.LogLevel).Bool("auth_enabled", cfg.Auth.Enabled).Msg("starting docask api")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, closeStore, err := app.NewService(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("Failed to initialize service: %v", err)
	}
	defer closeStore()

	authenticator, err := auth.New(cfg.Auth.JwtSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTL, cfg.Auth.Enabled)
	if err != nil {
		log.Fatalf("Failed to initialize auth: %v", err)
	}
	if authenticator.Enabled() {
		logger.Info().Msg("authentication is ENABLED")
	} else {
		logger.Warn().Msg("authentication is DISABLED - running in open mode")
	}

	srv := api.NewServer(svc, authenticator, api.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst), logger)
	s := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("shutdown failed")
		}
	}()

	logger.Info().Str("addr", s.Addr).Msg("api server listening")
	if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
	logger.Info().Msg("api server stopped")
}
