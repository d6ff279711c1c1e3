package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Kosench/shortlink/internal/cache"
	"github.com/Kosench/shortlink/internal/config"
	"github.com/Kosench/shortlink/internal/database"
	"github.com/Kosench/shortlink/internal/handler"
	"github.com/Kosench/shortlink/internal/logger"
	"github.com/Kosench/shortlink/internal/middleware"
	"github.com/Kosench/shortlink/internal/repository"
	"github.com/Kosench/shortlink/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/go-chi/httplog/v2"
	"github.com/jmoiron/sqlx"
	"golang.org/x/sync/errgroup"
)

const (
	version       = "1.0.0"
	warmupLimit   = 100
	warmupTimeout = 30 * time.Second
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "shortlink: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	httpLogger := logger.New(logger.Options{Level: cfg.Log.Level, JSON: cfg.Log.JSON || cfg.IsProduction()})
	log := httpLogger.Logger

	g, ctx := errgroup.WithContext(ctx)

	var (
		store repository.RecordStore
		db    *sqlx.DB
	)

	switch cfg.Storage.Driver {
	case config.DriverMemory:
		store = repository.NewMemoryRecordStore()
		log.Warn("using in-memory storage, records are lost on restart")
	default:
		dsn := cfg.Database.DSN()

		if cfg.Database.Migrate {
			if err := database.Migrate(dsn); err != nil {
				return err
			}
			log.Info("database migrations applied")
		}

		db, err = database.Connect(dsn, database.Options{
			MaxOpenConns:    cfg.Database.MaxOpenConns,
			MaxIdleConns:    cfg.Database.MaxIdleConns,
			ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
			ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
		})
		if err != nil {
			return fmt.Errorf("failed to connect database: %w", err)
		}
		defer db.Close()

		log.Info("successfully connected to database")
		store = repository.NewPostgresRecordStore(db)
	}

	var (
		urlCache    cache.Cache = cache.NewNullCache()
		redisClient *cache.RedisClient
		keys        = cache.NewKeyBuilder(cfg.Redis.Namespace)
	)

	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedisClient(cache.RedisConfig{
			Host:         cfg.Redis.Host,
			Port:         cfg.Redis.Port,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			MaxRetries:   cfg.Redis.MaxRetries,
			CacheTTL:     cfg.Redis.CacheTTL,
			Namespace:    cfg.Redis.Namespace,
		})
		if err != nil {
			// Продолжаем без кэша
			log.Warn("failed to connect to Redis, running without cache", slog.Any("error", err))
			redisClient = nil
		} else {
			urlCache = redisClient
			defer redisClient.Close()
			log.Info("successfully connected to Redis")
		}
	}

	cachedStore := repository.NewCachedRecordStore(store, urlCache, keys, log)

	if redisClient != nil {
		// Прогреваем кэш популярными URL
		ttl := time.Duration(cfg.Redis.CacheTTL) * time.Second
		g.Go(func() error {
			return warmupCache(ctx, cachedStore, ttl, log)
		})
	}

	urlService := service.NewURLService(cachedStore, cfg.GetBaseURL(), cfg.App.MaxAttempts, log)

	var rateLimit gin.HandlerFunc
	if redisClient != nil {
		rateLimit = middleware.RedisRateLimit(redisClient, keys, cfg.App.RateLimit.Requests, cfg.App.RateLimit.Window, log)
	} else {
		limiter := middleware.NewInMemoryRateLimiter(cfg.App.RateLimit.Requests, cfg.App.RateLimit.Window)
		rateLimit = limiter.Middleware()
		g.Go(func() error {
			ticker := time.NewTicker(cfg.App.RateLimit.Window)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return nil
				case <-ticker.C:
					limiter.Cleanup()
				}
			}
		})
	}

	checks := map[string]handler.Check{"database": nil, "cache": nil}
	if db != nil {
		checks["database"] = func(ctx context.Context) error { return database.HealthCheck(ctx, db) }
	}
	if redisClient != nil {
		checks["cache"] = redisClient.HealthCheck
	}

	info := func(ctx context.Context) map[string]any {
		data := map[string]any{
			"version":        version,
			"storage_driver": cfg.Storage.Driver,
			"cache_enabled":  redisClient != nil,
		}
		if db != nil {
			data["database_driver"] = "pgx"
			if v, err := database.GetVersion(ctx, db); err == nil {
				data["database_version"] = v
			}
		}
		if redisClient != nil {
			data["cache_driver"] = "redis"
		}
		return data
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := handler.NewRouter(
		handler.RouterConfig{
			AllowedOrigins: cfg.GetAllowedOrigins(),
			RateLimit:      rateLimit,
		},
		handler.NewURLHandler(urlService, log),
		handler.NewHealthHandler(checks, info),
	)

	srv := newHTTPServer(ctx, cfg, httplog.RequestLogger(httpLogger)(router))

	g.Go(func() error {
		log.Info("server starting",
			slog.String("addr", srv.Addr),
			slog.String("storage", cfg.Storage.Driver),
			slog.Bool("cache", redisClient != nil),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}

		log.Info("server gracefully stopped")
		return nil
	})

	return g.Wait()
}

// newHTTPServer builds the server. Request contexts keep ctx values but are
// not cancelled with it; Shutdown drains in-flight requests instead.
func newHTTPServer(ctx context.Context, cfg *config.Config, h http.Handler) *http.Server {
	baseCtx := context.WithoutCancel(ctx)

	return &http.Server{
		Addr:           cfg.GetServerAddress(),
		Handler:        h,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxHeaderBytes: 1 << 20,
		BaseContext: func(_ net.Listener) context.Context {
			return baseCtx
		},
	}
}

// warmupCache logs failures and always returns nil.
func warmupCache(ctx context.Context, store *repository.CachedRecordStore, ttl time.Duration, log *slog.Logger) error {
	ctx, cancel := context.WithTimeout(ctx, warmupTimeout)
	defer cancel()

	if _, err := store.Warmup(ctx, warmupLimit, ttl); err != nil {
		log.Warn("failed to warm up cache", slog.Any("error", err))
	}
	return nil
}
