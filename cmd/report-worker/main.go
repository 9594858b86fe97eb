package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/sgalleguillos/brokerpulse-backend/internal/cron"
	"github.com/sgalleguillos/brokerpulse-backend/internal/reports"
	"github.com/sgalleguillos/brokerpulse-backend/pkg/config"
	"github.com/sgalleguillos/brokerpulse-backend/pkg/db"
	"github.com/sgalleguillos/brokerpulse-backend/pkg/logger"
	"github.com/sgalleguillos/brokerpulse-backend/pkg/metrics"
	"github.com/sgalleguillos/brokerpulse-backend/pkg/migrate"
	"github.com/sgalleguillos/brokerpulse-backend/pkg/redis"
)

const lockKeyFormat = "report-worker:%s"

func main() {
	logg := logger.New(logger.Options{ServiceName: "report-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "report-worker"

	logg = logger.New(logger.Options{
		ServiceName: "report-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	generator, err := reports.NewGenerator(reports.NewRepository(dbClient.DB()), cfg.Checkout.GrantDuration)
	if err != nil {
		logg.Error(context.Background(), "failed to create report generator", err)
		os.Exit(1)
	}

	retryQueue, err := reports.NewRetryQueue(reports.NewQueueRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create retry queue", err)
		os.Exit(1)
	}

	retryJob, err := cron.NewReportRetryJob(cron.ReportRetryJobParams{
		Logger:      logg,
		Queue:       retryQueue,
		Generator:   generator,
		BatchSize:   cfg.Worker.RetryBatchSize,
		MaxAttempts: cfg.Worker.MaxAttempts,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create report retry job", err)
		os.Exit(1)
	}

	lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey(lockKey(cfg.App.Env)), 0)
	if err != nil {
		logg.Error(context.Background(), "failed to create worker lock", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(retryJob),
		Lock:     lock,
		Metrics:  metrics.NewJobMetrics(prometheus.DefaultRegisterer),
		Interval: cfg.Worker.RetryInterval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create worker service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(ctx, "starting report worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "report worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "report worker shutting down gracefully")
}

func lockKey(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf(lockKeyFormat, env)
}
