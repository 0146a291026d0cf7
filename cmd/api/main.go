// cmd/api/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	scs "github.com/alexedwards/scs/v2"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/briangreenhill/newsgpt/actions"
	"github.com/briangreenhill/newsgpt/internal/config"
	"github.com/briangreenhill/newsgpt/internal/http/routes"
	"github.com/briangreenhill/newsgpt/internal/setup"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config error")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stack, err := setup.Build(ctx, cfg, os.Stdout)
	if err != nil {
		log.Fatal().Err(err).Msg("setup error")
	}
	defer stack.Close()
	logger := stack.Logger

	// Sessions
	sess := scs.New()
	sess.Lifetime = 30 * 24 * time.Hour
	sess.Cookie.HttpOnly = true
	sess.Cookie.SameSite = http.SameSiteLaxMode
	sess.Cookie.Secure = false

	// Job queue for cache warming
	queue := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer func() {
		if err := queue.Close(); err != nil {
			logger.Error().Err(err).Msg("Error closing asynq client.")
		}
	}()

	s := routes.New(routes.ServerOptions{
		News:    stack.Service,
		Sess:    sess,
		Queue:   queue,
		Actions: actions.NewNewsRegistry(stack.Service, nil, logger),
		Logger:  logger,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("Shutdown failed.")
		}
	}()

	logger.Info().Str("addr", srv.Addr).Str("backend", cfg.Cache.Backend).Msg("Starting API server.")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("server error")
	}
	logger.Info().Msg("API server stopped.")
}
