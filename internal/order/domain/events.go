package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const EventOrderCreated = "OrderCreated"

type OrderCreated struct {
	OrderID     int64                  `json:"id"`
	OrderNumber string                 `json:"orderNumber"`
	Status      OrderStatus            `json:"status"`
	CreatedAt   time.Time              `json:"createdAt"`
	LineItems   []OrderCreatedLineItem `json:"lineItems"`
}

type OrderCreatedLineItem struct {
	SKUCode  string          `json:"skuCode"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}

func NewOrderCreated(o Order) OrderCreated {
	items := make([]OrderCreatedLineItem, 0, len(o.LineItems))
	for _, li := range o.LineItems {
		items = append(items, OrderCreatedLineItem{SKUCode: li.SKUCode(), Price: li.Price(), Quantity: li.Quantity()})
	}
	return OrderCreated{
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
		Status:      o.Status,
		CreatedAt:   o.CreatedAt,
		LineItems:   items,
	}
}
