// Package main is the entry point for the API server.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/SWENT-team09-2025/joinme-backend/internal/api"
	"github.com/SWENT-team09-2025/joinme-backend/internal/config"
	"github.com/SWENT-team09-2025/joinme-backend/internal/event"
	"github.com/SWENT-team09-2025/joinme-backend/internal/geo"
	"github.com/SWENT-team09-2025/joinme-backend/internal/group"
	"github.com/SWENT-team09-2025/joinme-backend/internal/health"
	"github.com/SWENT-team09-2025/joinme-backend/internal/idempotency"
	"github.com/SWENT-team09-2025/joinme-backend/internal/jobs"
	"github.com/SWENT-team09-2025/joinme-backend/internal/middleware"
	"github.com/SWENT-team09-2025/joinme-backend/internal/profile"
	"github.com/SWENT-team09-2025/joinme-backend/internal/series"
	"github.com/SWENT-team09-2025/joinme-backend/internal/tracing"
)

// idempotentRoutes are matched after path normalization; POST and PATCH
// requests on these require an Idempotency-Key.
var idempotentRoutes = map[string]bool{
	"/events":               true,
	"/series":               true,
	"/series/{id}/duration": true,
}

func main() {
	configPath := flag.String("config", "", "path to optional YAML config file")
	help := flag.Bool("help", false, "display help message")
	flag.Parse()

	if *help {
		fmt.Println("JoinMe API Server")
		fmt.Println()
		fmt.Println("Usage: api [options]")
		fmt.Println()
		fmt.Println("Options:")
		flag.PrintDefaults()
		os.Exit(0)
	}

	cfg, errs := config.Load(*configPath)
	if len(errs) > 0 {
		for _, err := range errs {
			fmt.Fprintln(os.Stderr, "config error:", err)
		}
		os.Exit(1)
	}

	logger := middleware.NewLogger(cfg.Env)
	slog.SetDefault(logger)
	logger.Info("configuration loaded", "config", cfg.LogSummary())

	// Tracing
	tracerProvider, err := tracing.NewProvider(tracing.FromAppConfig(cfg))
	if err != nil {
		logger.Error("failed to initialize tracing", "error", err)
		os.Exit(1)
	}

	// Storage: MongoDB when configured, in-memory otherwise.
	var (
		eventRepo    event.Repository
		serieRepo    series.Repository
		groupReader  group.Reader
		profileRepo  profile.Repository
		mongoChecker api.HealthChecker
	)
	if cfg.MongoURI != "" {
		client, err := mongo.Connect(options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			logger.Error("failed to connect to mongodb", "error", err)
			os.Exit(1)
		}
		defer func() {
			if err := client.Disconnect(context.Background()); err != nil {
				logger.Error("failed to disconnect mongodb client", "error", err)
			}
		}()
		db := client.Database(cfg.MongoDatabase)
		eventRepo = event.NewMongoRepository(db)
		serieRepo = series.NewMongoRepository(db)
		groupReader = group.NewMongoReader(db)
		profileRepo = profile.NewMongoRepository(db)
		mongoChecker = health.NewMongoChecker(client)
		logger.Info("using mongodb storage", "database", cfg.MongoDatabase)
	} else {
		eventRepo = event.NewInMemoryRepository()
		serieRepo = series.NewInMemoryRepository()
		groupReader = group.NewInMemoryReader()
		profileRepo = profile.NewInMemoryRepository()
		logger.Warn("MONGO_URI not set, using in-memory storage")
	}

	// Redis: idempotency records and cascade checkpoints.
	var (
		idemRepo     idempotency.Repository
		checkpoints  series.CheckpointStore
		sweeper      jobs.CheckpointSweeper
		redisChecker api.HealthChecker
	)
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer func() {
			if err := rdb.Close(); err != nil {
				logger.Error("failed to close redis client", "error", err)
			}
		}()
		idemRepo = idempotency.NewRedisRepository(rdb, idempotency.DefaultExpiry)
		checkpoints = idempotency.NewRedisCheckpointStore(rdb)
		redisChecker = health.NewRedisChecker(rdb)
		logger.Info("using redis for idempotency and cascade checkpoints", "addr", cfg.RedisAddr)
	} else {
		idemRepo = idempotency.NewInMemoryRepository()
		memCheckpoints := idempotency.NewInMemoryCheckpointStore()
		checkpoints = memCheckpoints
		sweeper = memCheckpoints
		logger.Warn("REDIS_ADDR not set, using in-memory idempotency stores")
	}

	// Metrics
	httpMetrics := middleware.NewMetrics()
	if err := httpMetrics.Register(prometheus.DefaultRegisterer); err != nil {
		logger.Error("failed to register http metrics", "error", err)
		os.Exit(1)
	}
	jobMetrics := jobs.NewMetrics()
	if err := jobMetrics.Register(prometheus.DefaultRegisterer); err != nil {
		logger.Error("failed to register job metrics", "error", err)
		os.Exit(1)
	}

	// Domain services
	coordinator := series.NewCoordinator(eventRepo, checkpoints, logger)
	broadcaster := series.NewScheduleBroadcaster()
	lookup := geo.NewNominatimClient(cfg.NominatimBaseURL, nil, logger)

	// Handlers and routes
	serieHandlers := api.NewSerieHandlers(serieRepo, eventRepo, groupReader, coordinator, broadcaster)
	router := api.NewRouter(api.RouterConfig{
		Events:    api.NewEventHandlers(eventRepo, serieRepo, coordinator, broadcaster),
		Series:    serieHandlers,
		Profiles:  api.NewProfileHandlers(profileRepo),
		Locations: api.NewLocationHandlers(lookup),
		Exports:   api.NewExportHandlers(eventRepo, serieRepo, serieHandlers),
		Schedule:  api.NewScheduleWebSocketHandlers(serieRepo, broadcaster),
		Health: api.NewHealthHandlers(api.HealthHandlersConfig{
			MongoChecker: mongoChecker,
			RedisChecker: redisChecker,
		}),
	})

	// Middleware chain, outermost first.
	var handler http.Handler = router
	handler = middleware.Idempotency(idemRepo, idempotentRoutes, httpMetrics)(handler)
	handler = middleware.RateLimiter(middleware.NewInMemoryRateLimitStore(), middleware.DefaultGlobalLimit(), middleware.UserKeyFunc())(handler)
	handler = middleware.CORS(middleware.CORSConfig{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Idempotency-Key", middleware.UserIDHeader},
		AllowCredentials: true,
		MaxAge:           600,
	})(handler)
	handler = middleware.HTTPMetrics(httpMetrics)(handler)
	handler = middleware.Logging(logger)(handler)
	handler = middleware.Tracing("joinme-api")(handler)
	handler = middleware.Identity(handler)
	handler = middleware.RequestID(handler)

	// Background jobs
	scheduler := jobs.NewScheduler(idemRepo, sweeper, jobMetrics, logger)
	if err := scheduler.Start(); err != nil {
		logger.Error("failed to start job scheduler", "error", err)
		os.Exit(1)
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("starting server", "port", cfg.Port, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := scheduler.Stop(ctx); err != nil {
		logger.Error("job scheduler forced to stop", "error", err)
	}
	if err := tracerProvider.Shutdown(ctx); err != nil {
		logger.Error("failed to shut down tracer provider", "error", err)
	}
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
