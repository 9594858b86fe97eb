package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/sgalleguillos/brokerpulse-backend/api/routes"
	"github.com/sgalleguillos/brokerpulse-backend/internal/cart"
	"github.com/sgalleguillos/brokerpulse-backend/internal/checkout"
	"github.com/sgalleguillos/brokerpulse-backend/internal/entitlements"
	"github.com/sgalleguillos/brokerpulse-backend/internal/payments"
	"github.com/sgalleguillos/brokerpulse-backend/internal/reports"
	"github.com/sgalleguillos/brokerpulse-backend/pkg/config"
	"github.com/sgalleguillos/brokerpulse-backend/pkg/db"
	"github.com/sgalleguillos/brokerpulse-backend/pkg/logger"
	"github.com/sgalleguillos/brokerpulse-backend/pkg/metrics"
	"github.com/sgalleguillos/brokerpulse-backend/pkg/migrate"
	"github.com/sgalleguillos/brokerpulse-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
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

	cartPersistence, err := cart.NewRedisPersistence(redisClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart persistence", err)
		os.Exit(1)
	}
	cartStore, err := cart.NewStore(cartPersistence)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart store", err)
		os.Exit(1)
	}

	paymentService, err := payments.NewService(payments.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create payment service", err)
		os.Exit(1)
	}

	grantService, err := entitlements.NewService(entitlements.NewRepository(dbClient.DB()), cfg.Checkout.GrantDuration)
	if err != nil {
		logg.Error(context.Background(), "failed to create entitlement service", err)
		os.Exit(1)
	}

	reportGenerator, err := reports.NewGenerator(reports.NewRepository(dbClient.DB()), cfg.Checkout.GrantDuration)
	if err != nil {
		logg.Error(context.Background(), "failed to create report generator", err)
		os.Exit(1)
	}

	retryQueue, err := reports.NewRetryQueue(reports.NewQueueRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create retry queue", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	checkoutService, err := checkout.NewService(checkout.Deps{
		Cart:     cartStore,
		Payments: paymentService,
		Grants:   grantService,
		Reports:  reportGenerator,
		Retries:  retryQueue,
		Metrics:  metrics.NewCheckoutMetrics(registry),
		Logger:   logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Params{
			Config:       cfg,
			Logger:       logg,
			DB:           dbClient,
			Redis:        redisClient,
			CartStore:    cartStore,
			Checkout:     checkoutService,
			Payments:     paymentService,
			Entitlements: grantService,
			Reports:      reportGenerator,
			Registry:     registry,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
