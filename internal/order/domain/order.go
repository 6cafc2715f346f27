package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	StatusPending   OrderStatus = "PENDING"
	StatusConfirmed OrderStatus = "CONFIRMED"
	StatusCancelled OrderStatus = "CANCELLED"
)

// RequestedItem is one (product, quantity) pair of an order request.
type RequestedItem struct {
	ProductID string
	Quantity  int
}

// ProductSnapshot is the catalog's answer for one product at lookup time.
type ProductSnapshot struct {
	ProductID string
	SKUCode   string
	Price     decimal.Decimal
}

// LineItem is immutable once built; it copies SKU and price out of a snapshot.
type LineItem struct {
	skuCode  string
	price    decimal.Decimal
	quantity int
}

func NewLineItem(s ProductSnapshot, quantity int) LineItem {
	return LineItem{skuCode: s.SKUCode, price: s.Price, quantity: quantity}
}

// RestoreLineItem rebuilds a stored line item. Only stores should call it.
func RestoreLineItem(skuCode string, price decimal.Decimal, quantity int) LineItem {
	return LineItem{skuCode: skuCode, price: price, quantity: quantity}
}

func (l LineItem) SKUCode() string        { return l.skuCode }
func (l LineItem) Price() decimal.Decimal { return l.price }
func (l LineItem) Quantity() int          { return l.quantity }

// Draft is an assembled order that has not been persisted. It carries no
// identifier, order number or creation time; a store assigns those on Save.
type Draft struct {
	lineItems []LineItem
}

func NewDraft(items []LineItem) Draft {
	return Draft{lineItems: append([]LineItem(nil), items...)}
}

func (d Draft) LineItems() []LineItem { return append([]LineItem(nil), d.lineItems...) }

func (d Draft) Status() OrderStatus { return StatusPending }

// Order is the persisted aggregate.
type Order struct {
	ID          int64
	OrderNumber string
	Status      OrderStatus
	CreatedAt   time.Time
	LineItems   []LineItem
}

// Persist stamps a draft with the identity a store generated for it.
func (d Draft) Persist(id int64, orderNumber string, createdAt time.Time) Order {
	return Order{
		ID:          id,
		OrderNumber: orderNumber,
		Status:      d.Status(),
		CreatedAt:   createdAt,
		LineItems:   d.LineItems(),
	}
}

// Clone returns a copy that shares no slice with o.
func (o Order) Clone() Order {
	o.LineItems = append([]LineItem(nil), o.LineItems...)
	return o
}

func (o Order) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.LineItems {
		total = total.Add(item.Price().Mul(decimal.NewFromInt(int64(item.Quantity()))))
	}
	return total
}
