package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/briangreenhill/newsgpt/cache"
	"github.com/briangreenhill/newsgpt/internal/config"
	"github.com/briangreenhill/newsgpt/internal/jobs"
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
	logger := stack.Logger.With().Str("component", "WorkerMain").Logger()
	if cfg.Cache.Backend == config.BackendMemory {
		logger.Warn().Msg("Memory cache backend is private to this process; warming will not reach the API.")
	}

	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}

	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency:    4,
		StrictPriority: false,
		Queues: map[string]int{
			jobs.QueueNews: 10,
			"default":      5,
		},
		Logger:   asynqLogger{logger},
		LogLevel: asynq.WarnLevel,
	})
	mux := asynq.NewServeMux()
	var handlerOpts []jobs.HandlerOption
	purger, canPurge := stack.Store.(cache.Purger)
	if canPurge {
		handlerOpts = append(handlerOpts, jobs.WithPurger(purger))
	}
	jobs.NewHandler(stack.Service, stack.Logger, handlerOpts...).Register(mux)

	scheduler := asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{
		Logger:   asynqLogger{logger},
		LogLevel: asynq.WarnLevel,
	})
	for _, country := range cfg.Warm.Countries {
		country = strings.ToLower(strings.TrimSpace(country))
		if country == "" {
			continue
		}
		task, err := jobs.ScheduledWarmHeadlinesTask(jobs.WarmHeadlinesPayload{Country: country})
		if err != nil {
			logger.Fatal().Err(err).Msg("build warm task")
		}
		id, err := scheduler.Register(cfg.Warm.Schedule, task)
		if err != nil {
			logger.Fatal().Err(err).Str("schedule", cfg.Warm.Schedule).Msg("register warm task")
		}
		logger.Info().Str("country", country).Str("schedule", cfg.Warm.Schedule).Str("entry_id", id).Msg("Scheduled headline warming.")
	}

	if canPurge && cfg.Warm.PurgeSchedule != "" {
		id, err := scheduler.Register(cfg.Warm.PurgeSchedule, jobs.NewPurgeCacheTask())
		if err != nil {
			logger.Fatal().Err(err).Str("schedule", cfg.Warm.PurgeSchedule).Msg("register purge task")
		}
		logger.Info().Str("backend", cfg.Cache.Backend).Str("schedule", cfg.Warm.PurgeSchedule).Str("entry_id", id).Msg("Scheduled cache purge.")
	}

	if err := scheduler.Start(); err != nil {
		logger.Fatal().Err(err).Msg("scheduler error")
	}
	defer scheduler.Shutdown()

	if err := srv.Start(mux); err != nil {
		logger.Fatal().Err(err).Msg("worker error")
	}
	logger.Info().Msg("Worker running...")

	<-ctx.Done()
	srv.Shutdown()
	logger.Info().Msg("Worker stopped.")
}

// asynqLogger routes asynq's internal logs into zerolog.
type asynqLogger struct {
	l zerolog.Logger
}

func (a asynqLogger) Debug(args ...interface{}) { a.l.Debug().Msgf("%s", fmtArgs(args)) }
func (a asynqLogger) Info(args ...interface{})  { a.l.Info().Msgf("%s", fmtArgs(args)) }
func (a asynqLogger) Warn(args ...interface{})  { a.l.Warn().Msgf("%s", fmtArgs(args)) }
func (a asynqLogger) Error(args ...interface{}) { a.l.Error().Msgf("%s", fmtArgs(args)) }
func (a asynqLogger) Fatal(args ...interface{}) { a.l.Fatal().Msgf("%s", fmtArgs(args)) }

func fmtArgs(args []interface{}) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = strings.TrimSpace(fmt.Sprint(a))
	}
	return strings.Join(parts, " ")
}
