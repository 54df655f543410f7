package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/fjod/go_cart/order-placement/internal/cache"
	"github.com/fjod/go_cart/order-placement/internal/catalog"
	"github.com/fjod/go_cart/order-placement/internal/config"
	"github.com/fjod/go_cart/order-placement/internal/gateway"
	h "github.com/fjod/go_cart/order-placement/internal/http"
	"github.com/fjod/go_cart/order-placement/internal/logger"
	"github.com/fjod/go_cart/order-placement/internal/publisher"
	"github.com/fjod/go_cart/order-placement/internal/repository"
	"github.com/fjod/go_cart/order-placement/internal/service"
	"github.com/redis/go-redis/v9"
	zlog "github.com/rs/zerolog/log"
)

func main() {
	envFile := flag.String("env", ".env", "optional env file")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		zlog.Fatal().Err(err).Msg("failed to load config")
	}

	log := logger.New(cfg.LogLevel, os.Stdout)
	zlog.Logger = log
	log.Info().Str("api", cfg.APIBaseURL).Msg("order-placement starting")

	// Database setup
	creds := &repository.Credentials{
		Host:              cfg.DBHost,
		Port:              cfg.DBPort,
		User:              cfg.DBUser,
		Password:          cfg.DBPassword,
		DBName:            cfg.DBName,
		MigrationsDirPath: cfg.MigrationsPath,
	}
	repo, err := repository.NewRepository(creds)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer repo.Close()

	if err := repo.RunMigrations(creds); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}
	log.Info().Msg("database migrations completed")

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Fatal().Err(err).Str("addr", cfg.RedisAddr).Msg("failed to connect to redis")
	}
	carts := cache.NewRedisCache(redisClient)

	remote := gateway.NewHTTPClient(cfg.APIBaseURL, cfg.RemoteCallTimeout,
		gateway.WithBreaker(gateway.BreakerSettings{
			Name:        "order-api",
			MaxFailures: cfg.BreakerMaxFailures,
			OpenTimeout: cfg.BreakerOpenTimeout,
		}))
	products := catalog.NewService(remote.Catalog())

	checkoutService := service.NewCheckoutService(remote, carts, repo, service.Options{
		ShippingFee:    cfg.ShippingFeeAmount(),
		RedirectTarget: cfg.RedirectTarget,
		RedirectDelay:  cfg.RedirectDelay,
		ItemsBudget:    cfg.CheckoutItemsBudget,
	})

	router := h.NewRouter(
		h.RouterConfig{RequestTimeout: cfg.RequestTimeout, MaxRequestBodySize: cfg.MaxRequestBodySize},
		h.Handlers{
			Products:   h.NewProductHandler(products, cfg.RequestTimeout),
			Cart:       h.NewCartHandler(carts, products, cfg.RequestTimeout),
			Checkout:   h.NewCheckoutHandler(checkoutService, carts, cfg.RequestTimeout, cfg.WriteTimeout()),
			Placements: h.NewPlacementsHandler(repo, cfg.RequestTimeout),
		},
		log,
	)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	poller := publisher.NewOutboxPoller(repo, cfg.OutboxTopic, cfg.Brokers()...)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		poller.Run(ctx)
	}()

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.WriteTimeout(),
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.HTTPPort).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	stop()
	wg.Wait()
	if err := poller.Close(); err != nil {
		log.Error().Err(err).Msg("failed to close kafka writer")
	}

	log.Info().Msg("server exited")
}
