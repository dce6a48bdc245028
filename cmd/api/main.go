package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/greengomarket/greengo-backend/api/routes"
	authsvc "github.com/greengomarket/greengo-backend/internal/auth"
	cartsvc "github.com/greengomarket/greengo-backend/internal/cart"
	"github.com/greengomarket/greengo-backend/internal/catalog"
	"github.com/greengomarket/greengo-backend/internal/orders"
	"github.com/greengomarket/greengo-backend/internal/support"
	"github.com/greengomarket/greengo-backend/internal/users"
	"github.com/greengomarket/greengo-backend/pkg/auth/session"
	"github.com/greengomarket/greengo-backend/pkg/cartstream"
	"github.com/greengomarket/greengo-backend/pkg/config"
	"github.com/greengomarket/greengo-backend/pkg/db"
	"github.com/greengomarket/greengo-backend/pkg/logger"
	"github.com/greengomarket/greengo-backend/pkg/metrics"
	"github.com/greengomarket/greengo-backend/pkg/migrate"
	"github.com/greengomarket/greengo-backend/pkg/redis"
)

const shutdownGrace = 15 * time.Second

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

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	storefrontMetrics := metrics.NewStorefrontMetrics(registry)

	catalogService, err := catalog.NewService(catalog.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}
	if cfg.Catalog.SeedOnStart {
		if err := catalogService.EnsureSeeded(context.Background()); err != nil {
			logg.Error(context.Background(), "failed to seed catalog", err)
			os.Exit(1)
		}
	}

	productLoader, err := cartsvc.NewCatalogProducts(catalogService)
	if err != nil {
		logg.Error(context.Background(), "failed to create product loader", err)
		os.Exit(1)
	}

	cartService, err := cartsvc.NewEngine(
		cartsvc.NewRemoteStore(dbClient.DB()),
		cartsvc.NewGuestStore(redisClient, cfg.Cart.GuestTTL),
		productLoader,
		redisClient,
		cartstream.NewPublisher(redisClient, logg),
		storefrontMetrics,
		logg,
		cfg.Cart,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	ordersService, err := orders.NewService(orders.NewRepository(dbClient.DB()), cartService, storefrontMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	supportService, err := support.NewService(support.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create support service", err)
		os.Exit(1)
	}

	authService, err := authsvc.NewService(
		users.NewRepository(dbClient.DB()),
		sessionManager,
		cartService,
		cfg,
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	router := routes.NewRouter(routes.Deps{
		Config:         cfg,
		Logger:         logg,
		DB:             dbClient,
		Redis:          redisClient,
		Sessions:       sessionManager,
		AuthService:    authService,
		CatalogService: catalogService,
		CartService:    cartService,
		OrdersService:  ordersService,
		SupportService: supportService,
		CartStream:     cartstream.NewSubscriber(redisClient, logg),
		Metrics:        registry,
	})

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
		Addr:    addr,
		Handler: router,
	}

	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-shutdownCtx.Done():
		logg.Info(ctx, "shutting down api server")
		graceCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := server.Shutdown(graceCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}
}
