package application_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmehra2102/shopnow/internal/product/application"
	"github.com/dmehra2102/shopnow/internal/product/domain"
)

type fakeRepo struct {
	mu       sync.Mutex
	nextID   int64
	products map[int64]domain.Product
	gets     int
	failGet  error
}

func newFakeRepo() *fakeRepo { return &fakeRepo{products: map[int64]domain.Product{}} }

func (r *fakeRepo) List(context.Context) ([]domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Product, 0, len(r.products))
	for id := int64(1); id <= r.nextID; id++ {
		if p, ok := r.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakeRepo) Get(_ context.Context, id int64) (domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gets++
	if r.failGet != nil {
		return domain.Product{}, r.failGet
	}
	p, ok := r.products[id]
	if !ok {
		return domain.Product{}, application.ErrProductNotFound
	}
	return p, nil
}

func (r *fakeRepo) Create(_ context.Context, in domain.ProductInput) (domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.products {
		if p.SKUCode == in.SKUCode {
			return domain.Product{}, application.ErrDuplicateSKU
		}
	}
	r.nextID++
	p := domain.Product{ID: r.nextID, Name: in.Name, Description: in.Description, Price: in.Price, StockQuantity: in.StockQuantity, SKUCode: in.SKUCode}
	r.products[p.ID] = p
	return p, nil
}

func (r *fakeRepo) Update(_ context.Context, id int64, in domain.ProductInput) (domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.products[id]; !ok {
		return domain.Product{}, application.ErrProductNotFound
	}
	p := domain.Product{ID: id, Name: in.Name, Description: in.Description, Price: in.Price, StockQuantity: in.StockQuantity, SKUCode: in.SKUCode}
	r.products[id] = p
	return p, nil
}

func (r *fakeRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.products[id]; !ok {
		return application.ErrProductNotFound
	}
	delete(r.products, id)
	return nil
}

type fakeCache struct {
	items   map[int64]domain.Product
	evicted []int64
	failGet bool
}

func newFakeCache() *fakeCache { return &fakeCache{items: map[int64]domain.Product{}} }

func (c *fakeCache) Get(_ context.Context, id int64) (domain.Product, bool, error) {
	if c.failGet {
		return domain.Product{}, false, errors.New("redis down")
	}
	p, ok := c.items[id]
	return p, ok, nil
}

func (c *fakeCache) Set(_ context.Context, p domain.Product) error {
	c.items[p.ID] = p
	return nil
}

func (c *fakeCache) Evict(_ context.Context, id int64) error {
	delete(c.items, id)
	c.evicted = append(c.evicted, id)
	return nil
}

func kettle() domain.ProductInput {
	return domain.ProductInput{Name: "Kettle", Description: "1.7l", Price: decimal.RequireFromString("29.90"), StockQuantity: 5, SKUCode: "KET-1"}
}

func TestService_CreateAndGet(t *testing.T) {
	svc := application.NewService(newFakeRepo())
	ctx := context.Background()

	p, err := svc.Create(ctx, kettle())
	require.NoError(t, err)
	assert.Equal(t, int64(1), p.ID)

	got, err := svc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "KET-1", got.SKUCode)
	assert.True(t, got.Price.Equal(decimal.RequireFromString("29.9")))
}

func TestService_CreateRejectsInvalid(t *testing.T) {
	repo := newFakeRepo()
	svc := application.NewService(repo)

	in := kettle()
	in.SKUCode = "  "
	_, err := svc.Create(context.Background(), in)
	require.ErrorIs(t, err, domain.ErrInvalidProduct)
	assert.Empty(t, repo.products)
}

func TestService_CreateDuplicateSKU(t *testing.T) {
	svc := application.NewService(newFakeRepo())
	ctx := context.Background()

	_, err := svc.Create(ctx, kettle())
	require.NoError(t, err)
	_, err = svc.Create(ctx, kettle())
	assert.ErrorIs(t, err, application.ErrDuplicateSKU)
}

func TestService_GetReadsThroughCache(t *testing.T) {
	repo := newFakeRepo()
	cache := newFakeCache()
	svc := application.NewService(repo, application.WithCache(cache))
	ctx := context.Background()

	p, err := svc.Create(ctx, kettle())
	require.NoError(t, err)

	_, err = svc.Get(ctx, p.ID)
	require.NoError(t, err)
	_, err = svc.Get(ctx, p.ID)
	require.NoError(t, err)

	assert.Equal(t, 1, repo.gets, "second Get served from cache")
	assert.Contains(t, cache.items, p.ID)
}

func TestService_CacheFailureFallsBackToStore(t *testing.T) {
	repo := newFakeRepo()
	cache := newFakeCache()
	cache.failGet = true
	svc := application.NewService(repo, application.WithCache(cache))
	ctx := context.Background()

	p, err := svc.Create(ctx, kettle())
	require.NoError(t, err)

	got, err := svc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)
}

func TestService_UpdateAndDeleteEvict(t *testing.T) {
	repo := newFakeRepo()
	cache := newFakeCache()
	svc := application.NewService(repo, application.WithCache(cache))
	ctx := context.Background()

	p, err := svc.Create(ctx, kettle())
	require.NoError(t, err)
	_, err = svc.Get(ctx, p.ID)
	require.NoError(t, err)

	in := kettle()
	in.Price = decimal.RequireFromString("31.00")
	updated, err := svc.Update(ctx, p.ID, in)
	require.NoError(t, err)
	assert.True(t, updated.Price.Equal(in.Price))
	assert.NotContains(t, cache.items, p.ID)

	got, err := svc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, got.Price.Equal(in.Price))

	require.NoError(t, svc.Delete(ctx, p.ID))
	assert.Equal(t, []int64{p.ID, p.ID}, cache.evicted)

	_, err = svc.Get(ctx, p.ID)
	assert.ErrorIs(t, err, application.ErrProductNotFound)
}

func TestService_UpdateDeleteMissing(t *testing.T) {
	svc := application.NewService(newFakeRepo())
	ctx := context.Background()

	_, err := svc.Update(ctx, 9, kettle())
	assert.ErrorIs(t, err, application.ErrProductNotFound)
	assert.True(t, application.IsNotFound(svc.Delete(ctx, 9)))
}

func TestService_LookupBypassesCache(t *testing.T) {
	repo := newFakeRepo()
	cache := newFakeCache()
	svc := application.NewService(repo, application.WithCache(cache))
	ctx := context.Background()

	p, err := svc.Create(ctx, kettle())
	require.NoError(t, err)

	stale := p
	stale.Price = decimal.RequireFromString("1.00")
	cache.items[p.ID] = stale

	snap, err := svc.Lookup(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "KET-1", snap.SKUCode)
	assert.True(t, snap.Price.Equal(decimal.RequireFromString("29.90")))
}

func TestService_LookupStoreFailure(t *testing.T) {
	repo := newFakeRepo()
	repo.failGet = errors.New("connection refused")
	svc := application.NewService(repo)

	_, err := svc.Lookup(context.Background(), 1)
	require.Error(t, err)
	assert.False(t, application.IsNotFound(err))
}

func TestService_GetUncachedIgnoresCache(t *testing.T) {
	repo := newFakeRepo()
	cache := newFakeCache()
	svc := application.NewService(repo, application.WithCache(cache))
	ctx := context.Background()

	p, err := svc.Create(ctx, kettle())
	require.NoError(t, err)

	// A Get that raced an Update wrote the old price back after eviction.
	stale := p
	stale.Price = decimal.RequireFromString("1.00")
	cache.items[p.ID] = stale

	cached, err := svc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, cached.Price.Equal(stale.Price))

	fresh, err := svc.GetUncached(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, fresh.Price.Equal(decimal.RequireFromString("29.90")))
	assert.True(t, cache.items[p.ID].Price.Equal(stale.Price), "uncached read does not touch the cache")
}
