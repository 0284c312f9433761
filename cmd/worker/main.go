package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/noah-isme/omnipay-inventory/internal/app"
	"github.com/noah-isme/omnipay-inventory/internal/config"
	"github.com/noah-isme/omnipay-inventory/internal/obs"
	"github.com/noah-isme/omnipay-inventory/internal/tasks"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logFormat := envOrDefault("OBS_LOG_FORMAT", "json")
	logLevel := envOrDefault("OBS_LOG_LEVEL", "info")
	logger := obs.NewLogger(logFormat, logLevel).With().Str("component", "worker").Logger()
	zerolog.DefaultContextLogger = &logger
	obs.MustRegisterDomainMetrics(envOrDefault("OBS_METRICS_NAMESPACE", "omnipay"), nil)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	connectCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	deps, err := app.Connect(connectCtx, cfg, logger, "omnipay-worker", false)
	cancel()
	if err != nil {
		logger.Fatal().Err(err).Msg("connect dependencies")
	}
	defer deps.Close()

	modules, err := app.NewModules(cfg, deps)
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise modules")
	}

	redisOpt, err := app.AsynqRedisOpt(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("asynq redis options")
	}

	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: cfg.WorkerConcurrency,
		Queues:      map[string]int{"default": 1},
		Logger:      tasks.Logger{L: logger},
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			logger.Error().Err(err).Str("task", task.Type()).Bytes("payload", task.Payload()).Msg("task failed")
		}),
	})
	mux := tasks.NewServeMux(&tasks.Processor{Reports: modules.Reports, Location: cfg.ReportTimezone}, logger)

	scheduler := asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{
		Location: cfg.ReportTimezone,
		Logger:   tasks.Logger{L: logger},
	})
	warm, err := tasks.NewWarmHourlyTask("")
	if err != nil {
		logger.Fatal().Err(err).Msg("build warm task")
	}
	entryID, err := scheduler.Register(cfg.ReportWarmCron, warm)
	if err != nil {
		logger.Fatal().Err(err).Str("cron", cfg.ReportWarmCron).Msg("register warm schedule")
	}
	logger.Info().Str("entry", entryID).Str("cron", cfg.ReportWarmCron).Msg("hourly report warm-up scheduled")

	if err := srv.Start(mux); err != nil {
		logger.Fatal().Err(err).Msg("start worker")
	}
	if err := scheduler.Start(); err != nil {
		logger.Fatal().Err(err).Msg("start scheduler")
	}

	logger.Info().Msg("worker started")
	<-ctx.Done()

	scheduler.Shutdown()
	srv.Shutdown()
	logger.Info().Msg("worker shutdown complete")
}

func envOrDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(val)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
}
