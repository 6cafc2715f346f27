package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/dmehra2102/shopnow/internal/order/domain"
	"github.com/dmehra2102/shopnow/pkg/metrics"
	"github.com/dmehra2102/shopnow/pkg/outbox"
	"github.com/dmehra2102/shopnow/pkg/tracing"
)

const DefaultLookupTimeout = 2 * time.Second

type Service struct {
	log         *slog.Logger
	repo        OrderRepository
	catalog     CatalogClient
	metrics     *metrics.OrderMetrics
	tracer      trace.Tracer
	timeout     time.Duration
	concurrency int
}

type Option func(*Service)

func WithLogger(log *slog.Logger) Option { return func(s *Service) { s.log = log } }

func WithMetrics(m *metrics.OrderMetrics) Option { return func(s *Service) { s.metrics = m } }

// WithLookupTimeout bounds each catalog call. An expired deadline is reported
// as ErrCatalogUnavailable.
func WithLookupTimeout(d time.Duration) Option { return func(s *Service) { s.timeout = d } }

// WithLookupConcurrency resolves up to n items at once. With n <= 1 items are
// resolved one after another and resolution stops at the first failure.
func WithLookupConcurrency(n int) Option { return func(s *Service) { s.concurrency = n } }

func NewService(repo OrderRepository, catalog CatalogClient, opts ...Option) *Service {
	s := &Service{
		log:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		repo:        repo,
		catalog:     catalog,
		tracer:      otel.Tracer("order-service"),
		timeout:     DefaultLookupTimeout,
		concurrency: 1,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PlaceOrder resolves every requested item against the catalog and persists
// the order. If any item fails to resolve nothing is persisted.
func (s *Service) PlaceOrder(ctx context.Context, items []domain.RequestedItem) (domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "PlaceOrder", trace.WithAttributes(attribute.Int("order.requested_items", len(items))))
	defer span.End()

	lineItems, err := s.resolve(ctx, items)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "resolve failed")
		s.log.WarnContext(ctx, "order rejected", "err", err)
		return domain.Order{}, err
	}

	order, err := s.repo.Save(ctx, domain.NewDraft(lineItems), orderCreatedEvent(tracing.Traceparent(ctx)))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "save failed")
		s.log.ErrorContext(ctx, "order save failed", "err", err)
		return domain.Order{}, fmt.Errorf("%w: save order: %w", ErrStorage, err)
	}

	s.metrics.OrderCreated()
	total := order.Total().String()
	span.SetAttributes(
		attribute.Int64("order.id", order.ID),
		attribute.String("order.number", order.OrderNumber),
		attribute.String("order.total", total),
	)
	s.log.InfoContext(ctx, "order created", "order_id", order.ID, "order_number", order.OrderNumber,
		"line_items", len(order.LineItems), "total", total)
	return order, nil
}

func (s *Service) GetOrder(ctx context.Context, id int64) (domain.Order, error) {
	o, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return domain.Order{}, err
		}
		return domain.Order{}, fmt.Errorf("%w: get order %d: %w", ErrStorage, id, err)
	}
	return o, nil
}

func (s *Service) ListOrders(ctx context.Context) ([]domain.Order, error) {
	orders, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list orders: %w", ErrStorage, err)
	}
	return orders, nil
}

func (s *Service) resolve(ctx context.Context, items []domain.RequestedItem) ([]domain.LineItem, error) {
	if s.concurrency <= 1 || len(items) <= 1 {
		lineItems := make([]domain.LineItem, 0, len(items))
		for _, item := range items {
			snap, err := s.lookup(ctx, item.ProductID)
			if err != nil {
				return nil, err
			}
			lineItems = append(lineItems, domain.NewLineItem(snap, item.Quantity))
		}
		return lineItems, nil
	}

	// Each goroutine owns one index, so input order survives the fan-out.
	lineItems := make([]domain.LineItem, len(items))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, item := range items {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return &CatalogUnavailableError{ProductID: item.ProductID, Err: err}
			}
			snap, err := s.lookup(gctx, item.ProductID)
			if err != nil {
				return err
			}
			lineItems[i] = domain.NewLineItem(snap, item.Quantity)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return lineItems, nil
}

func (s *Service) lookup(ctx context.Context, productID string) (domain.ProductSnapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	ctx, span := s.tracer.Start(ctx, "catalog.Resolve", trace.WithAttributes(attribute.String("product.id", productID)))
	defer span.End()

	snap, err := s.catalog.Resolve(ctx, productID)
	switch {
	case err == nil:
		s.metrics.Lookup(metrics.LookupResolved)
		return snap, nil
	case errors.Is(err, ErrProductNotFound):
		s.metrics.Lookup(metrics.LookupNotFound)
		span.SetStatus(codes.Error, "not found")
		return domain.ProductSnapshot{}, &ProductNotFoundError{ProductID: productID}
	default:
		s.metrics.Lookup(metrics.LookupUnavailable)
		span.RecordError(err)
		span.SetStatus(codes.Error, "unavailable")
		return domain.ProductSnapshot{}, &CatalogUnavailableError{ProductID: productID, Err: err}
	}
}

func orderCreatedEvent(traceparent string) EventBuilder {
	return func(o domain.Order) (outbox.Message, error) {
		payload, err := json.Marshal(domain.NewOrderCreated(o))
		if err != nil {
			return outbox.Message{}, fmt.Errorf("marshal %s: %w", domain.EventOrderCreated, err)
		}
		return outbox.Message{
			AggregateType: "order",
			AggregateID:   o.OrderNumber,
			Type:          domain.EventOrderCreated,
			Payload:       payload,
			Headers:       map[string]string{"source": "order-service"},
			Traceparent:   traceparent,
		}, nil
	}
}
