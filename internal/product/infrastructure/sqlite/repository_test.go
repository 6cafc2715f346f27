package sqlite

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmehra2102/shopnow/internal/product/application"
	"github.com/dmehra2102/shopnow/internal/product/domain"
)

func openTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func input(sku, price string) domain.ProductInput {
	return domain.ProductInput{
		Name:          "Item " + sku,
		Description:   "desc",
		Price:         decimal.RequireFromString(price),
		StockQuantity: 7,
		SKUCode:       sku,
	}
}

func TestRepository_CreateGet(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, input("SKU-1", "19.99"))
	require.NoError(t, err)
	assert.Positive(t, created.ID)

	got, err := repo.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "SKU-1", got.SKUCode)
	assert.Equal(t, "Item SKU-1", got.Name)
	assert.Equal(t, 7, got.StockQuantity)
	assert.Equal(t, "19.99", got.Price.String())
}

func TestRepository_GetMissing(t *testing.T) {
	repo := openTestRepo(t)
	_, err := repo.Get(context.Background(), 404)
	assert.ErrorIs(t, err, application.ErrProductNotFound)
}

func TestRepository_DuplicateSKU(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	_, err := repo.Create(ctx, input("DUP", "1"))
	require.NoError(t, err)
	_, err = repo.Create(ctx, input("DUP", "2"))
	assert.ErrorIs(t, err, application.ErrDuplicateSKU)
}

func TestRepository_ListOrdered(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	for _, sku := range []string{"A", "B", "C"} {
		_, err := repo.Create(ctx, input(sku, "1.00"))
		require.NoError(t, err)
	}
	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "A", list[0].SKUCode)
	assert.Equal(t, "C", list[2].SKUCode)
}

func TestRepository_UpdateDelete(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	p, err := repo.Create(ctx, input("U-1", "5.00"))
	require.NoError(t, err)

	updated, err := repo.Update(ctx, p.ID, input("U-2", "6.50"))
	require.NoError(t, err)
	assert.Equal(t, "U-2", updated.SKUCode)

	got, err := repo.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "6.5", got.Price.String())

	_, err = repo.Update(ctx, 999, input("U-3", "1"))
	assert.ErrorIs(t, err, application.ErrProductNotFound)

	require.NoError(t, repo.Delete(ctx, p.ID))
	assert.ErrorIs(t, repo.Delete(ctx, p.ID), application.ErrProductNotFound)
}
