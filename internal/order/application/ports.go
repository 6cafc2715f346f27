package application

import (
	"context"

	"github.com/dmehra2102/shopnow/internal/order/domain"
	"github.com/dmehra2102/shopnow/pkg/outbox"
)

// EventBuilder renders the outbox message for an order once the store has
// assigned its identity.
type EventBuilder func(o domain.Order) (outbox.Message, error)

// OrderRepository persists orders. Save assigns id, order number and creation
// time, then writes the order, its line items and the built event as one unit.
// A nil builder writes no event.
type OrderRepository interface {
	Save(ctx context.Context, d domain.Draft, event EventBuilder) (domain.Order, error)
	Get(ctx context.Context, id int64) (domain.Order, error)
	List(ctx context.Context) ([]domain.Order, error)
}

// CatalogClient resolves a product id against the catalog service.
// Implementations return an error wrapping ErrProductNotFound when the id has
// no product and ErrCatalogUnavailable for every other failure.
type CatalogClient interface {
	Resolve(ctx context.Context, productID string) (domain.ProductSnapshot, error)
}
