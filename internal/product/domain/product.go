package domain

import (
	"errors"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrInvalidProduct = errors.New("invalid product")

type Product struct {
	ID            int64
	Name          string
	Description   string
	Price         decimal.Decimal
	StockQuantity int
	SKUCode       string
}

// ProductInput holds the mutable fields accepted on create and update.
type ProductInput struct {
	Name          string
	Description   string
	Price         decimal.Decimal
	StockQuantity int
	SKUCode       string
}

// Normalize trims text fields and checks the catalog rules.
func (in ProductInput) Normalize() (ProductInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	in.SKUCode = strings.TrimSpace(in.SKUCode)

	var problems []string
	if in.Name == "" {
		problems = append(problems, "name is required")
	}
	if in.SKUCode == "" {
		problems = append(problems, "skuCode is required")
	}
	if in.Price.IsNegative() {
		problems = append(problems, "price must be >= 0")
	}
	if in.StockQuantity < 0 {
		problems = append(problems, "stockQuantity must be >= 0")
	}
	if len(problems) > 0 {
		return ProductInput{}, &ValidationError{Problems: problems}
	}
	return in, nil
}

type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid product: " + strings.Join(e.Problems, "; ")
}

func (e *ValidationError) Is(target error) bool { return target == ErrInvalidProduct }

// Snapshot is the slice of a product the order service copies into a line item.
type Snapshot struct {
	ID      int64
	SKUCode string
	Price   decimal.Decimal
	Name    string
}

func (p Product) Snapshot() Snapshot {
	return Snapshot{ID: p.ID, SKUCode: p.SKUCode, Price: p.Price, Name: p.Name}
}

// ParseID parses a catalog identifier. Only positive integers are valid.
func ParseID(s string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
