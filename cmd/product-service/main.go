package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/dmehra2102/shopnow/internal/product/application"
	"github.com/dmehra2102/shopnow/internal/product/infrastructure/cache"
	productgrpc "github.com/dmehra2102/shopnow/internal/product/infrastructure/grpc"
	producthttp "github.com/dmehra2102/shopnow/internal/product/infrastructure/http"
	productpg "github.com/dmehra2102/shopnow/internal/product/infrastructure/postgres"
	"github.com/dmehra2102/shopnow/internal/product/infrastructure/sqlite"
	"github.com/dmehra2102/shopnow/pkg/config"
	"github.com/dmehra2102/shopnow/pkg/logging"
	"github.com/dmehra2102/shopnow/pkg/metrics"
	"github.com/dmehra2102/shopnow/pkg/shutdown"
	"github.com/dmehra2102/shopnow/pkg/tracing"
)

func main() {
	cfg, err := config.LoadProduct()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}
	log := logging.New(cfg.LogLevel)

	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()

	tp, err := tracing.Init(ctx, "product-service", cfg.OTLPEndpoint, log)
	if err != nil {
		log.Error("otel init failed", "err", err)
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	serverMetrics := metrics.NewServerMetrics(reg, "product")

	stops := []shutdown.Func{}

	// Catalog store
	var repo application.ProductRepository
	switch cfg.Store {
	case "sqlite":
		sq, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			log.Error("sqlite open failed", "path", cfg.SQLitePath, "err", err)
			os.Exit(1)
		}
		stops = append(stops, func(context.Context) error { return sq.Close() })
		repo = sq
	default:
		pool, err := pgxpool.New(ctx, cfg.PGURL)
		if err != nil {
			log.Error("pg connect failed", "err", err)
			os.Exit(1)
		}
		defer pool.Close()

		pgRepo := productpg.NewRepository(log, pool)
		if err := pgRepo.Migrate(ctx); err != nil {
			log.Error("pg migrate failed", "err", err)
			os.Exit(1)
		}
		repo = pgRepo
	}

	opts := []application.Option{application.WithLogger(log)}
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		stops = append(stops, func(context.Context) error { return rdb.Close() })
		opts = append(opts, application.WithCache(cache.NewRedisCache(rdb, cfg.CacheTTL)))
	}
	svc := application.NewService(repo, opts...)

	// gRPC lookup
	gs, err := productgrpc.Run(log, cfg.GRPCAddr, productgrpc.NewServer(log, svc))
	if err != nil {
		log.Error("grpc listen failed", "addr", cfg.GRPCAddr, "err", err)
		os.Exit(1)
	}

	// HTTP server
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer, serverMetrics.Middleware)
	r.Handle("/metrics", metrics.Handler(reg))
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Mount("/", producthttp.NewHandler(log, svc).Routes())
	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("http listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server error", "err", err)
			cancel()
		}
	}()

	<-ctx.Done()

	grpcStop := func(context.Context) error {
		gs.GracefulStop()
		return nil
	}
	stops = append([]shutdown.Func{srv.Shutdown, grpcStop}, stops...)
	stops = append(stops, tp.Shutdown)
	_ = shutdown.Run(log, 10*time.Second, stops...)
	log.Info("product-service shutdown complete")
}
