package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/Adithya-Monish-Kumar-K/retrieval-lab/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/retrieval-lab/internal/api"
	"github.com/Adithya-Monish-Kumar-K/retrieval-lab/internal/cache"
	"github.com/Adithya-Monish-Kumar-K/retrieval-lab/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/retrieval-lab/internal/engine"
	"github.com/Adithya-Monish-Kumar-K/retrieval-lab/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/retrieval-lab/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/retrieval-lab/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/retrieval-lab/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/retrieval-lab/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/retrieval-lab/pkg/postgres"
	"github.com/Adithya-Monish-Kumar-K/retrieval-lab/pkg/ratelimit"
	pkgredis "github.com/Adithya-Monish-Kumar-K/retrieval-lab/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/retrieval-lab/pkg/resilience"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting retrieval lab", "port", cfg.Server.Port, "language", cfg.TextProc.Language)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
	slog.Info("retrieval lab stopped")
}

func run(ctx context.Context, cfg *config.Config) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)
	if cfg.Metrics.Enabled {
		shutdownMetrics := metrics.StartServer(cfg.Metrics.Port, reg)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			shutdownMetrics(shutdownCtx)
		}()
	}

	checker := health.NewChecker()
	deps := engine.Deps{Metrics: m}

	var history analytics.History
	var snapshots *analytics.Store
	if cfg.Postgres.Enabled {
		var db *postgres.Client
		err := resilience.Retry(ctx, "postgres-connect", resilience.RetryConfig{}, func() error {
			var err error
			db, err = postgres.New(ctx, cfg.Postgres)
			return err
		})
		if err != nil {
			return fmt.Errorf("connecting to postgres: %w", err)
		}
		defer db.Close()

		repo, err := corpus.NewPostgresRepository(ctx, db)
		if err != nil {
			return err
		}
		deps.Repository = repo
		snapshots, err = analytics.NewStore(ctx, db)
		if err != nil {
			return err
		}
		history = snapshots
		checker.Register("postgres", health.Ping(db.Ping, health.StatusDown))
		slog.Info("document persistence enabled", "host", cfg.Postgres.Host, "database", cfg.Postgres.Database)
	}

	if cfg.Redis.Enabled {
		var redisClient *pkgredis.Client
		err := resilience.Retry(ctx, "redis-connect", resilience.RetryConfig{MaxAttempts: 3}, func() error {
			var err error
			redisClient, err = pkgredis.NewClient(ctx, cfg.Redis)
			return err
		})
		if err != nil {
			slog.Warn("redis unavailable, search caching disabled", "error", err)
			checker.Register("redis", func(ctx context.Context) health.ComponentHealth {
				return health.ComponentHealth{Status: health.StatusDegraded, Message: "not connected"}
			})
		} else {
			defer redisClient.Close()
			deps.Cache = cache.New(redisClient, cfg.Redis.CacheTTL, m)
			if err := deps.Cache.Invalidate(ctx); err != nil {
				slog.Warn("could not clear stale search cache", "error", err)
			}
			checker.Register("redis", health.Ping(redisClient.Ping, health.StatusDegraded))
			slog.Info("search cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
		}
	}

	aggregator := analytics.NewAggregator()
	var publisher analytics.Publisher
	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.AnalyticsEvents)
		defer producer.Close()
		publisher = producer
	}
	collector := analytics.NewCollector(aggregator, publisher, analytics.CollectorOptions{
		BufferSize:    cfg.Analytics.BufferSize,
		BatchSize:     cfg.Analytics.BatchSize,
		FlushInterval: cfg.Analytics.FlushInterval,
	})
	collector.Start()
	defer collector.Close()
	deps.Collector = collector

	if snapshots != nil {
		snapshots.StartPeriodicSave(ctx, aggregator, cfg.Analytics.SnapshotInterval)
	}

	eng, err := engine.New(engine.FromConfig(cfg), deps)
	if err != nil {
		return err
	}
	restored, err := eng.Restore(ctx)
	if err != nil {
		return fmt.Errorf("restoring corpus: %w", err)
	}
	seeded := 0
	if cfg.Corpus.SeedFile != "" {
		seeded, err = eng.LoadSeed(ctx, cfg.Corpus.SeedFile)
		if err != nil {
			return fmt.Errorf("loading seed corpus: %w", err)
		}
	}
	slog.Info("corpus ready", "restored", restored, "seeded", seeded, "version", eng.Snapshot().Version)
	checker.Register("corpus", health.Ping(eng.Check, health.StatusDown))

	limiter := ratelimit.New(cfg.Server.WriteRateLimit, time.Minute)
	defer limiter.Close()

	handler := api.NewRouter(
		api.New(eng, deps.Cache, cfg.Server.MaxBodyBytes),
		analytics.NewHandler(aggregator, history),
		checker,
		api.RouterOptions{
			AllowOrigins:   cfg.Server.AllowOrigins,
			RequestTimeout: cfg.Server.RequestTimeout,
			Metrics:        m,
			Limiter:        limiter,
		},
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	ln, err := net.Listen("tcp", server.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", server.Addr, err)
	}
	slog.Info("retrieval lab listening", "addr", server.Addr, "methods", eng.Methods())
	return serve(ctx, server, ln, cfg.Server.ShutdownTimeout)
}

// serve runs server on ln until ctx is cancelled. It returns only after
// Shutdown has drained in-flight requests, so deferred cleanup in the caller
// never races a running handler.
func serve(ctx context.Context, server *http.Server, ln net.Listener, shutdownTimeout time.Duration) error {
	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	<-shutdownDone
	slog.Info("server stopped")
	return nil
}
