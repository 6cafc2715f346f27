package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLineItem_CopiesSnapshot(t *testing.T) {
	snap := ProductSnapshot{ProductID: "1", SKUCode: "SKU-1", Price: decimal.RequireFromString("9.99")}
	li := NewLineItem(snap, 2)

	snap.SKUCode = "SKU-CHANGED"
	snap.Price = decimal.NewFromInt(100)

	assert.Equal(t, "SKU-1", li.SKUCode())
	assert.True(t, li.Price().Equal(decimal.RequireFromString("9.99")))
	assert.Equal(t, 2, li.Quantity())
}

func TestDraft_IsolatedFromCaller(t *testing.T) {
	items := []LineItem{
		RestoreLineItem("A", decimal.NewFromInt(1), 1),
		RestoreLineItem("B", decimal.NewFromInt(2), 1),
	}
	d := NewDraft(items)
	items[0] = RestoreLineItem("Z", decimal.Zero, 0)

	got := d.LineItems()
	require.Len(t, got, 2)
	assert.Equal(t, "A", got[0].SKUCode())

	got[1] = RestoreLineItem("Y", decimal.Zero, 0)
	assert.Equal(t, "B", d.LineItems()[1].SKUCode())
	assert.Equal(t, StatusPending, d.Status())
}

func TestDraft_Persist(t *testing.T) {
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	d := NewDraft([]LineItem{RestoreLineItem("SKU-1", decimal.RequireFromString("9.99"), 2)})

	o := d.Persist(42, "b3c1", created)

	assert.Equal(t, int64(42), o.ID)
	assert.Equal(t, "b3c1", o.OrderNumber)
	assert.Equal(t, StatusPending, o.Status)
	assert.Equal(t, created, o.CreatedAt)
	require.Len(t, o.LineItems, 1)
	assert.True(t, o.Total().Equal(decimal.RequireFromString("19.98")))
}

func TestOrder_Clone(t *testing.T) {
	o := NewDraft([]LineItem{RestoreLineItem("A", decimal.NewFromInt(1), 1)}).Persist(1, "n", time.Now())
	c := o.Clone()
	c.LineItems[0] = RestoreLineItem("B", decimal.Zero, 0)
	assert.Equal(t, "A", o.LineItems[0].SKUCode())
}

func TestNewOrderCreated(t *testing.T) {
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	o := NewDraft([]LineItem{
		RestoreLineItem("SKU-1", decimal.RequireFromString("9.99"), 2),
		RestoreLineItem("SKU-2", decimal.RequireFromString("1.50"), 1),
	}).Persist(7, "num-7", created)

	ev := NewOrderCreated(o)
	assert.Equal(t, int64(7), ev.OrderID)
	assert.Equal(t, "num-7", ev.OrderNumber)
	assert.Equal(t, StatusPending, ev.Status)
	require.Len(t, ev.LineItems, 2)
	assert.Equal(t, "SKU-2", ev.LineItems[1].SKUCode)
}
