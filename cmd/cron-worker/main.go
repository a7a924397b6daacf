package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/foodhaul-backend/internal/cron"
	"github.com/angelmondragon/foodhaul-backend/internal/delivery"
	"github.com/angelmondragon/foodhaul-backend/internal/offers"
	"github.com/angelmondragon/foodhaul-backend/internal/orders"
	"github.com/angelmondragon/foodhaul-backend/internal/payments"
	"github.com/angelmondragon/foodhaul-backend/internal/vendors"
	"github.com/angelmondragon/foodhaul-backend/pkg/config"
	"github.com/angelmondragon/foodhaul-backend/pkg/db"
	"github.com/angelmondragon/foodhaul-backend/pkg/logger"
	"github.com/angelmondragon/foodhaul-backend/pkg/metrics"
	"github.com/angelmondragon/foodhaul-backend/pkg/migrate"
	"github.com/angelmondragon/foodhaul-backend/pkg/outbox"
	"github.com/angelmondragon/foodhaul-backend/pkg/redis"
)

const lockKeyFormat = "foodhaul:cron-worker:lock:%s"

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "cron-worker"

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
		Level:       cfg.App.LogLevel,
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

	jobs, err := buildRegistry(cfg, logg, dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to build cron jobs", err)
		os.Exit(1)
	}

	lock, err := cron.NewRedisLock(redisClient, lockKey(cfg.App.Env), cfg.Cron.LockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: jobs,
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		Interval: cfg.Cron.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
		"jobs":        len(jobs.Jobs()),
	})
	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

func buildRegistry(cfg *config.Config, logg *logger.Logger, dbClient *db.Client) (*cron.Registry, error) {
	gdb := dbClient.DB()
	outboxRepo := outbox.NewRepository(gdb)
	emitter := outbox.NewService(outboxRepo, logg)
	orderMetrics := metrics.NewOrderMetrics(prometheus.DefaultRegisterer)
	txnRepo := payments.NewRepository(gdb)
	deliveryRepo := delivery.NewRepository(gdb)

	ranker, err := delivery.RankerFromConfig(cfg.FeatureFlags, cfg.GoogleMaps, logg)
	if err != nil {
		return nil, err
	}
	assigner, err := delivery.NewAssigner(delivery.AssignerParams{
		DB:      dbClient,
		Repo:    deliveryRepo,
		Ranker:  ranker,
		Outbox:  emitter,
		Metrics: orderMetrics,
		Logger:  logg,
	})
	if err != nil {
		return nil, err
	}
	retrier, err := orders.NewAssignmentRetrier(orders.RetryParams{
		Repo:        orders.NewRepository(gdb),
		Assigner:    assigner,
		Logger:      logg,
		Window:      cfg.Orders.AssignmentRetryWindow,
		MaxAttempts: cfg.Orders.AssignmentMaxAttempts,
	})
	if err != nil {
		return nil, err
	}
	paymentSvc, err := payments.NewService(payments.ServiceParams{
		DB:     dbClient,
		Repo:   txnRepo,
		Offers: offers.NewRepository(gdb),
		Outbox: emitter,
		Logger: logg,
	})
	if err != nil {
		return nil, err
	}
	offerSvc, err := offers.NewService(offers.ServiceParams{
		Repo:        offers.NewRepository(gdb),
		Vendors:     vendors.NewRepository(gdb),
		Redemptions: txnRepo,
	})
	if err != nil {
		return nil, err
	}

	retentionJob, err := newOutboxRetentionJob(cfg.Outbox, logg, outboxRepo, time.Now)
	if err != nil {
		return nil, err
	}
	retryJob, err := cron.NewAssignmentRetryJob(logg, retrier)
	if err != nil {
		return nil, err
	}
	staleJob, err := cron.NewStaleTransactionsJob(logg, paymentSvc, cfg.Orders.StaleTransactionTTL)
	if err != nil {
		return nil, err
	}
	offerJob, err := cron.NewOfferExpiryJob(logg, offerSvc)
	if err != nil {
		return nil, err
	}
	return cron.NewRegistry(retryJob, staleJob, offerJob, retentionJob), nil
}

type retentionRepo interface {
	DeletePublishedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

func newOutboxRetentionJob(cfg config.OutboxConfig, logg *logger.Logger, repo retentionRepo, now func() time.Time) (cron.Job, error) {
	return cron.NewOutboxRetentionJob(cron.OutboxRetentionJobParams{
		Logger:     logg,
		Repository: repo,
		Retention:  cfg.RetentionDays,
		Now:        now,
	})
}

func lockKey(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf(lockKeyFormat, env)
}
