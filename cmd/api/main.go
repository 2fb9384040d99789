package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/vapevault-backend/api/routes"
	"github.com/angelmondragon/vapevault-backend/internal/account"
	"github.com/angelmondragon/vapevault-backend/internal/address"
	"github.com/angelmondragon/vapevault-backend/internal/admin"
	"github.com/angelmondragon/vapevault-backend/internal/assistant"
	"github.com/angelmondragon/vapevault-backend/internal/auth"
	"github.com/angelmondragon/vapevault-backend/internal/cart"
	"github.com/angelmondragon/vapevault-backend/internal/catalog"
	"github.com/angelmondragon/vapevault-backend/internal/checkout"
	"github.com/angelmondragon/vapevault-backend/internal/orders"
	"github.com/angelmondragon/vapevault-backend/internal/reviews"
	"github.com/angelmondragon/vapevault-backend/internal/users"
	"github.com/angelmondragon/vapevault-backend/internal/wishlist"
	"github.com/angelmondragon/vapevault-backend/pkg/auth/session"
	"github.com/angelmondragon/vapevault-backend/pkg/config"
	"github.com/angelmondragon/vapevault-backend/pkg/db"
	"github.com/angelmondragon/vapevault-backend/pkg/instance"
	"github.com/angelmondragon/vapevault-backend/pkg/logger"
	"github.com/angelmondragon/vapevault-backend/pkg/maps"
	"github.com/angelmondragon/vapevault-backend/pkg/metrics"
	"github.com/angelmondragon/vapevault-backend/pkg/migrate"
	"github.com/angelmondragon/vapevault-backend/pkg/openai"
	"github.com/angelmondragon/vapevault-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(ctx, ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       cfg.App.LogLevel,
		WarnStack:   cfg.App.LogWarnStack,
		Console:     cfg.App.ConsoleLogs(),
	})

	decimal.MarshalJSONWithoutQuotes = true

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(ctx, "error closing database", err)
		}
	}()

	err = migrate.MaybeRunDev(ctx, cfg, logg, dbClient)
	requireResource(ctx, logg, "dev migrations", err)

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	requireResource(ctx, logg, "redis", err)
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(ctx, "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	requireResource(ctx, logg, "session manager", err)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	poolStats, err := dbClient.StatsCollector("vapevault")
	requireResource(ctx, logg, "db pool metrics", err)
	registry.MustRegister(poolStats)
	httpMetrics := metrics.NewHTTPMetrics(registry)
	jobMetrics := metrics.NewJobMetrics(registry)
	checkoutMetrics := metrics.NewCheckoutMetrics(registry)

	gormDB := dbClient.DB()
	userRepo := users.NewRepository(gormDB)
	productRepo := catalog.NewRepository(gormDB)
	orderRepo := orders.NewRepository(gormDB)
	cartRepo := cart.NewRepository(gormDB)

	var places address.Places
	if cfg.GoogleMaps.APIKey != "" {
		mapsClient, err := maps.NewClient(cfg.GoogleMaps.APIKey,
			maps.WithHTTPClient(&http.Client{Timeout: cfg.GoogleMaps.Timeout}),
			maps.WithRateLimit(cfg.GoogleMaps.QPS, cfg.GoogleMaps.Burst),
		)
		requireResource(ctx, logg, "google maps client", err)
		places = mapsClient
	} else {
		logg.Warn(ctx, "google maps api key missing, address lookups disabled")
	}
	addressService := address.NewService(places)

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       userRepo,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
	})
	requireResource(ctx, logg, "auth service", err)

	accountService, err := account.NewService(userRepo, addressService, cfg.Password)
	requireResource(ctx, logg, "account service", err)

	catalogService, err := catalog.NewService(catalog.ServiceParams{
		Repo:        productRepo,
		Cache:       redisClient,
		CacheTTL:    cfg.Catalog.CacheTTL,
		SearchLimit: cfg.Catalog.SearchLimit,
		Logger:      logg,
	})
	requireResource(ctx, logg, "catalog service", err)

	reviewsService, err := reviews.NewService(reviews.NewRepository(gormDB), productRepo)
	requireResource(ctx, logg, "reviews service", err)

	cartService, err := cart.NewService(cartRepo, productRepo)
	requireResource(ctx, logg, "cart service", err)

	wishlistService, err := wishlist.NewService(wishlist.NewRepository(gormDB), productRepo)
	requireResource(ctx, logg, "wishlist service", err)

	checkoutService, err := checkout.NewService(checkout.ServiceParams{
		Tx:       dbClient,
		Carts:    cartRepo,
		Orders:   orderRepo,
		Products: productRepo,
		Catalog:  catalogService,
		Metrics:  checkoutMetrics,
		Logger:   logg,
	})
	requireResource(ctx, logg, "checkout service", err)

	ordersService, err := orders.NewService(orderRepo)
	requireResource(ctx, logg, "orders service", err)

	adminService, err := admin.NewService(admin.ServiceParams{
		OrderStats:      orderRepo,
		Orders:          ordersService,
		Users:           userRepo,
		Products:        productRepo,
		Catalog:         catalogService,
		Jobs:            jobMetrics,
		Logger:          logg,
		StatsRetryDelay: cfg.Admin.StatsRetryDelay,
	})
	requireResource(ctx, logg, "admin service", err)

	var assistantService assistant.Service
	if cfg.OpenAI.APIKey != "" {
		openaiClient, err := openai.NewClient(
			cfg.OpenAI.APIKey,
			openai.WithBaseURL(cfg.OpenAI.BaseURL),
			openai.WithTimeout(cfg.OpenAI.Timeout),
		)
		requireResource(ctx, logg, "openai client", err)

		assistantService, err = assistant.NewService(assistant.ServiceParams{
			Completions:    openaiClient,
			Embeddings:     openaiClient,
			Products:       productRepo,
			ChatModel:      cfg.OpenAI.ChatModel,
			EmbeddingModel: cfg.OpenAI.EmbeddingModel,
			Logger:         logg,
		})
		requireResource(ctx, logg, "assistant service", err)
	} else {
		logg.Warn(ctx, "openai api key missing, chat assistant disabled")
	}

	router := routes.NewRouter(cfg, logg, routes.Dependencies{
		DB:        dbClient,
		Redis:     redisClient,
		Sessions:  sessionManager,
		Gatherer:  registry,
		HTTP:      httpMetrics,
		Auth:      authService,
		Account:   accountService,
		Address:   addressService,
		Catalog:   catalogService,
		Reviews:   reviewsService,
		Cart:      cartService,
		Wishlist:  wishlistService,
		Checkout:  checkoutService,
		Orders:    ordersService,
		Admin:     adminService,
		Assistant: assistantService,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	runCtx = logg.WithFields(runCtx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.GetID(),
	})
	logg.Info(runCtx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(runCtx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-runCtx.Done():
		logg.Info(runCtx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(runCtx, "api server shutdown failed", err)
		}
	}
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
