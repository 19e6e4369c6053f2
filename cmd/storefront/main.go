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

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/fjod/go_shoe_store/internal/cache"
	"github.com/fjod/go_shoe_store/internal/catalog"
	"github.com/fjod/go_shoe_store/internal/checkout"
	"github.com/fjod/go_shoe_store/internal/config"
	"github.com/fjod/go_shoe_store/internal/graphql"
	h "github.com/fjod/go_shoe_store/internal/http"
	"github.com/fjod/go_shoe_store/internal/lineitem"
	"github.com/fjod/go_shoe_store/internal/provider"
	"github.com/fjod/go_shoe_store/internal/publisher"
	"github.com/fjod/go_shoe_store/internal/repository"
	"github.com/fjod/go_shoe_store/internal/storage"
	"github.com/fjod/go_shoe_store/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	zap.ReplaceGlobals(log)

	if err := run(cfg, log); err != nil {
		log.Fatal("storefront stopped", zap.Error(err))
	}
}

func run(cfg config.Config, log *zap.Logger) error {
	ctx := context.Background()

	var closers []func()
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}()

	var redisClient *redis.Client
	if cfg.StorageBackend == config.StorageRedis || cfg.CatalogCache {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       0,
		})
		closers = append(closers, func() { redisClient.Close() })
		if err := redisClient.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis connection failed: %w", err)
		}
		log.Info("redis ping succeeded", zap.String("addr", cfg.RedisAddr))
	}

	var gqlClient *graphql.Client
	if cfg.CatalogSource == config.CatalogGraphQL || cfg.OrderSink == config.SinkGraphQL {
		gqlClient = graphql.NewClient(cfg.GraphQLURL, cfg.APIKey)
	}

	src, err := catalogSource(cfg, gqlClient, &closers)
	if err != nil {
		return err
	}
	if cfg.CatalogCache {
		cached := catalog.NewCachedSource(src, cache.NewRedisCache(redisClient))
		if err := cached.Refresh(ctx); err != nil {
			log.Warn("catalog cache refresh failed", zap.Error(err))
		}
		src = cached
	}
	log.Info("catalog ready", zap.String("source", cfg.CatalogSource), zap.Bool("cached", cfg.CatalogCache))

	st, err := slotStorage(ctx, cfg, redisClient, &closers)
	if err != nil {
		return err
	}
	log.Info("storage ready", zap.String("backend", cfg.StorageBackend))

	stores := provider.New(ctx, st,
		lineitem.WithLogger(log),
		lineitem.WithPersistTimeout(cfg.PersistTimeout),
	)
	closers = append(closers, stores.Close)

	var submitter checkout.Submitter
	switch cfg.OrderSink {
	case config.SinkGraphQL:
		submitter = gqlClient
	case config.SinkKafka:
		pub := publisher.NewOrderPublisher(cfg.OrdersTopic, cfg.KafkaBrokers...)
		closers = append(closers, func() { _ = pub.Close() })
		submitter = pub
	default:
		submitter = checkout.LogSubmitter{}
	}

	router := h.NewRouter(h.RouterConfig{
		Catalog:        catalog.NewAccessor(src),
		Stores:         stores,
		Checkout:       checkout.NewService(submitter),
		Logger:         log,
		RequestTimeout: cfg.RequestTimeout,
	})

	srv := &http.Server{
		Addr:        ":" + cfg.HTTPPort,
		Handler:     router,
		ReadTimeout: 10 * time.Second,
		// No write timeout: event streams are long-lived. Plain routes are
		// bounded by the timeout middleware.
		IdleTimeout: 60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("storefront starting", zap.String("port", cfg.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-quit:
	}

	log.Info("shutting down server...")
	// Closing the stores ends open event streams.
	stores.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info("server exited")
	return nil
}

func catalogSource(cfg config.Config, gqlClient *graphql.Client, closers *[]func()) (catalog.Source, error) {
	switch cfg.CatalogSource {
	case config.CatalogSQLite:
		repo, err := repository.NewRepository(cfg.CatalogDBPath)
		if err != nil {
			return nil, err
		}
		*closers = append(*closers, func() { _ = repo.Close() })
		if err := repo.RunMigrations(cfg.MigrationsPath); err != nil {
			return nil, err
		}
		return repo, nil
	case config.CatalogGraphQL:
		return gqlClient, nil
	default:
		if cfg.CatalogFile != "" {
			return catalog.LoadStaticSource(cfg.CatalogFile)
		}
		return catalog.NewBundledSource()
	}
}

func slotStorage(ctx context.Context, cfg config.Config, redisClient *redis.Client, closers *[]func()) (storage.Storage, error) {
	switch cfg.StorageBackend {
	case config.StorageRedis:
		return storage.NewRedisStorage(redisClient, cfg.StoragePrefix), nil
	case config.StorageMongo:
		ms, err := storage.OpenMongoStorage(ctx, cfg.MongoURI, cfg.MongoDBName)
		if err != nil {
			return nil, err
		}
		*closers = append(*closers, func() { _ = ms.Close(context.Background()) })
		return ms, nil
	default:
		return storage.NewMemoryStorage(), nil
	}
}
