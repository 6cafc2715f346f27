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

	"github.com/dmehra2102/shopnow/internal/order/application"
	"github.com/dmehra2102/shopnow/internal/order/infrastructure/catalog"
	orderhttp "github.com/dmehra2102/shopnow/internal/order/infrastructure/http"
	orderkafka "github.com/dmehra2102/shopnow/internal/order/infrastructure/kafka"
	"github.com/dmehra2102/shopnow/internal/order/infrastructure/memory"
	orderpg "github.com/dmehra2102/shopnow/internal/order/infrastructure/postgres"
	"github.com/dmehra2102/shopnow/pkg/config"
	"github.com/dmehra2102/shopnow/pkg/logging"
	"github.com/dmehra2102/shopnow/pkg/metrics"
	"github.com/dmehra2102/shopnow/pkg/outbox"
	"github.com/dmehra2102/shopnow/pkg/shutdown"
	"github.com/dmehra2102/shopnow/pkg/tracing"
)

func main() {
	cfg, err := config.LoadOrder()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}
	log := logging.New(cfg.LogLevel)

	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()

	tp, err := tracing.Init(ctx, "order-service", cfg.OTLPEndpoint, log)
	if err != nil {
		log.Error("otel init failed", "err", err)
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	serverMetrics := metrics.NewServerMetrics(reg, "order")
	orderMetrics := metrics.NewOrderMetrics(reg)

	stops := []shutdown.Func{}

	// Order store, plus the outbox relay when events have somewhere to go.
	var repo application.OrderRepository
	switch cfg.Store {
	case "memory":
		log.Warn("in-memory order store, orders and events are not durable")
		repo = memory.NewRepository()
	default:
		pool, err := pgxpool.New(ctx, cfg.PGURL)
		if err != nil {
			log.Error("pg connect failed", "err", err)
			os.Exit(1)
		}
		defer pool.Close()

		pgRepo := orderpg.NewRepository(log, pool)
		if err := pgRepo.Migrate(ctx); err != nil {
			log.Error("pg migrate failed", "err", err)
			os.Exit(1)
		}
		repo = pgRepo

		writer := orderkafka.NewWriter(cfg.KafkaAddrs)
		stops = append(stops, func(context.Context) error { return writer.Close() })

		dispatch := outbox.NewDispatcher(log, writer, cfg.EventsTopic)
		relay := outbox.NewRelay(log, orderpg.NewOutboxStore(log, pool), dispatch, "order-service-relay")
		go func() {
			if err := relay.Run(ctx); err != nil {
				log.Error("relay stopped with error", "err", err)
			}
		}()
	}

	// Catalog lookup client
	var lookup application.CatalogClient
	switch cfg.CatalogTransport {
	case "http":
		lookup = catalog.NewHTTPClient(log, cfg.CatalogHTTPURL, nil)
	default:
		gc, err := catalog.NewGRPCClient(log, cfg.CatalogGRPCAddr)
		if err != nil {
			log.Error("catalog client init failed", "err", err)
			os.Exit(1)
		}
		stops = append(stops, func(context.Context) error { return gc.Close() })
		lookup = gc
	}

	svc := application.NewService(repo, lookup,
		application.WithLogger(log),
		application.WithMetrics(orderMetrics),
		application.WithLookupTimeout(cfg.CatalogTimeout),
		application.WithLookupConcurrency(cfg.LookupConcurrency),
	)
	handler := orderhttp.NewHandler(log, svc)

	// HTTP server
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer, serverMetrics.Middleware)
	r.Handle("/metrics", metrics.Handler(reg))
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Mount("/", handler.Routes())
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

	stops = append([]shutdown.Func{srv.Shutdown}, stops...)
	stops = append(stops, tp.Shutdown)
	_ = shutdown.Run(log, 10*time.Second, stops...)
	log.Info("order-service shutdown complete")
}
