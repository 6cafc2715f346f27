package application

import (
	"errors"
	"fmt"
)

var (
	ErrProductNotFound    = errors.New("product not found")
	ErrCatalogUnavailable = errors.New("catalog unreachable")
	ErrOrderNotFound      = errors.New("order not found")
	ErrStorage            = errors.New("storage failure")
)

// ProductNotFoundError names the request item that failed to resolve.
type ProductNotFoundError struct {
	ProductID string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product not found: %s", e.ProductID)
}

func (e *ProductNotFoundError) Is(target error) bool { return target == ErrProductNotFound }

// CatalogUnavailableError carries the transport failure behind a lookup.
type CatalogUnavailableError struct {
	ProductID string
	Err       error
}

func (e *CatalogUnavailableError) Error() string {
	return fmt.Sprintf("catalog unreachable resolving %s: %v", e.ProductID, e.Err)
}

func (e *CatalogUnavailableError) Is(target error) bool { return target == ErrCatalogUnavailable }

func (e *CatalogUnavailableError) Unwrap() error { return e.Err }
