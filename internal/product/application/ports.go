package application

import (
	"context"
	"errors"

	"github.com/dmehra2102/shopnow/internal/product/domain"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrDuplicateSKU    = errors.New("sku code already exists")
)

type ProductRepository interface {
	List(ctx context.Context) ([]domain.Product, error)
	Get(ctx context.Context, id int64) (domain.Product, error)
	Create(ctx context.Context, in domain.ProductInput) (domain.Product, error)
	Update(ctx context.Context, id int64, in domain.ProductInput) (domain.Product, error)
	Delete(ctx context.Context, id int64) error
}

// ProductCache is an optional read-through cache in front of the repository.
type ProductCache interface {
	Get(ctx context.Context, id int64) (domain.Product, bool, error)
	Set(ctx context.Context, p domain.Product) error
	Evict(ctx context.Context, id int64) error
}
