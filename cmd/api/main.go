package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/angelmondragon/foodhaul-backend/api/routes"
	"github.com/angelmondragon/foodhaul-backend/internal/admins"
	"github.com/angelmondragon/foodhaul-backend/internal/customers"
	"github.com/angelmondragon/foodhaul-backend/internal/delivery"
	"github.com/angelmondragon/foodhaul-backend/internal/foods"
	"github.com/angelmondragon/foodhaul-backend/internal/offers"
	"github.com/angelmondragon/foodhaul-backend/internal/orders"
	"github.com/angelmondragon/foodhaul-backend/internal/payments"
	"github.com/angelmondragon/foodhaul-backend/internal/shopping"
	"github.com/angelmondragon/foodhaul-backend/internal/vendors"
	"github.com/angelmondragon/foodhaul-backend/pkg/config"
	"github.com/angelmondragon/foodhaul-backend/pkg/db"
	"github.com/angelmondragon/foodhaul-backend/pkg/locks"
	"github.com/angelmondragon/foodhaul-backend/pkg/logger"
	"github.com/angelmondragon/foodhaul-backend/pkg/metrics"
	"github.com/angelmondragon/foodhaul-backend/pkg/migrate"
	"github.com/angelmondragon/foodhaul-backend/pkg/notify"
	"github.com/angelmondragon/foodhaul-backend/pkg/outbox"
	"github.com/angelmondragon/foodhaul-backend/pkg/redis"
	"github.com/angelmondragon/foodhaul-backend/pkg/security"
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

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	deps, err := buildDeps(cfg, logg, dbClient, redisClient, registry)
	if err != nil {
		logg.Error(context.Background(), "failed to wire services", err)
		os.Exit(1)
	}

	if created, err := deps.Admins.Bootstrap(context.Background(), cfg.Admin); err != nil {
		logg.Error(context.Background(), "failed to bootstrap admin", err)
		os.Exit(1)
	} else if created {
		logg.Info(context.Background(), "bootstrap admin created")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":          cfg.App.Env,
		"addr":         addr,
		"maps_ranking": cfg.FeatureFlags.MapsRanking,
	})

	server := &http.Server{
		Addr:         addr,
		Handler:      routes.NewRouter(deps),
		ReadTimeout:  cfg.App.ReadTimeout,
		WriteTimeout: cfg.App.WriteTimeout,
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting api server")
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-sigCtx.Done():
		logg.Info(ctx, "shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}
	logg.Info(ctx, "api server stopped")
}

func buildDeps(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, redisClient *redis.Client, registry *prometheus.Registry) (routes.Deps, error) {
	gdb := dbClient.DB()
	hasher := security.NewHasher(cfg.Password)
	emitter := outbox.NewService(outbox.NewRepository(gdb), logg)
	orderMetrics := metrics.NewOrderMetrics(registry)

	adminRepo := admins.NewRepository(gdb)
	vendorRepo := vendors.NewRepository(gdb)
	foodRepo := foods.NewRepository(gdb)
	offerRepo := offers.NewRepository(gdb)
	customerRepo := customers.NewRepository(gdb)
	txnRepo := payments.NewRepository(gdb)
	orderRepo := orders.NewRepository(gdb)
	deliveryRepo := delivery.NewRepository(gdb)

	locker, err := locks.NewLocker(redisClient, locks.Options{TTL: cfg.Orders.CustomerLockTTL})
	if err != nil {
		return routes.Deps{}, err
	}

	adminSvc, err := admins.NewService(admins.ServiceParams{Repo: adminRepo, Hasher: hasher, JWT: cfg.JWT, Logger: logg})
	if err != nil {
		return routes.Deps{}, err
	}
	vendorSvc, err := vendors.NewService(vendors.ServiceParams{Repo: vendorRepo, Hasher: hasher, JWT: cfg.JWT})
	if err != nil {
		return routes.Deps{}, err
	}
	foodSvc, err := foods.NewService(foodRepo)
	if err != nil {
		return routes.Deps{}, err
	}
	offerSvc, err := offers.NewService(offers.ServiceParams{Repo: offerRepo, Vendors: vendorRepo, Redemptions: txnRepo})
	if err != nil {
		return routes.Deps{}, err
	}
	customerSvc, err := customers.NewService(customers.ServiceParams{
		Repo:     customerRepo,
		Hasher:   hasher,
		Notifier: notify.NewLogNotifier(logg, !cfg.App.IsProd()),
		JWT:      cfg.JWT,
		OTP:      cfg.OTP,
		Logger:   logg,
	})
	if err != nil {
		return routes.Deps{}, err
	}
	cartSvc, err := customers.NewCartService(customerRepo, foodRepo, locker)
	if err != nil {
		return routes.Deps{}, err
	}
	paymentSvc, err := payments.NewService(payments.ServiceParams{DB: dbClient, Repo: txnRepo, Offers: offerRepo, Outbox: emitter, Logger: logg})
	if err != nil {
		return routes.Deps{}, err
	}
	orderSvc, err := orders.NewService(orders.ServiceParams{DB: dbClient, Repo: orderRepo, Partners: deliveryRepo, Outbox: emitter})
	if err != nil {
		return routes.Deps{}, err
	}
	deliverySvc, err := delivery.NewService(delivery.ServiceParams{Repo: deliveryRepo, Hasher: hasher, JWT: cfg.JWT})
	if err != nil {
		return routes.Deps{}, err
	}
	shoppingSvc, err := shopping.NewService(vendorRepo, foodRepo, offerRepo, nil)
	if err != nil {
		return routes.Deps{}, err
	}

	ranker, err := delivery.RankerFromConfig(cfg.FeatureFlags, cfg.GoogleMaps, logg)
	if err != nil {
		return routes.Deps{}, err
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
		return routes.Deps{}, err
	}
	validator, err := payments.NewValidator(txnRepo)
	if err != nil {
		return routes.Deps{}, err
	}
	assembler, err := orders.NewAssembler(foodRepo)
	if err != nil {
		return routes.Deps{}, err
	}
	placement, err := orders.NewPlacementService(orders.PlacementParams{
		DB:               dbClient,
		Orders:           orderRepo,
		Transactions:     txnRepo,
		Offers:           offerRepo,
		Validator:        validator,
		Assembler:        assembler,
		Carts:            customerRepo,
		Locker:           locker,
		Numbers:          redisClient,
		Assigner:         assigner,
		Outbox:           emitter,
		Metrics:          orderMetrics,
		Logger:           logg,
		DefaultReadyTime: cfg.Orders.DefaultReadyTimeMinutes,
	})
	if err != nil {
		return routes.Deps{}, err
	}

	return routes.Deps{
		Config:    cfg,
		Logger:    logg,
		DB:        dbClient,
		Redis:     redisClient,
		Gatherer:  registry,
		HTTP:      metrics.NewHTTPMetrics(registry),
		Admins:    adminSvc,
		Vendors:   vendorSvc,
		Foods:     foodSvc,
		Offers:    offerSvc,
		Customers: customerSvc,
		Carts:     cartSvc,
		Payments:  paymentSvc,
		Orders:    orderSvc,
		Placement: placement,
		Delivery:  deliverySvc,
		Shopping:  shoppingSvc,
	}, nil
}
