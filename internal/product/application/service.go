package application

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/dmehra2102/shopnow/internal/product/domain"
)

type Service struct {
	log   *slog.Logger
	repo  ProductRepository
	cache ProductCache
}

type Option func(*Service)

func WithLogger(log *slog.Logger) Option { return func(s *Service) { s.log = log } }

// WithCache puts c in front of Get. A nil cache disables caching.
func WithCache(c ProductCache) Option { return func(s *Service) { s.cache = c } }

func NewService(repo ProductRepository, opts ...Option) *Service {
	s := &Service{
		log:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		repo: repo,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) List(ctx context.Context) ([]domain.Product, error) {
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, id int64) (domain.Product, error) {
	if s.cache != nil {
		p, ok, err := s.cache.Get(ctx, id)
		switch {
		case err != nil:
			s.log.WarnContext(ctx, "product cache read failed", "product_id", id, "err", err)
		case ok:
			return p, nil
		}
	}

	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, p); err != nil {
			s.log.WarnContext(ctx, "product cache write failed", "product_id", id, "err", err)
		}
	}
	return p, nil
}

func (s *Service) Create(ctx context.Context, in domain.ProductInput) (domain.Product, error) {
	in, err := in.Normalize()
	if err != nil {
		return domain.Product{}, err
	}
	p, err := s.repo.Create(ctx, in)
	if err != nil {
		return domain.Product{}, err
	}
	s.log.InfoContext(ctx, "product created", "product_id", p.ID, "sku_code", p.SKUCode)
	return p, nil
}

func (s *Service) Update(ctx context.Context, id int64, in domain.ProductInput) (domain.Product, error) {
	in, err := in.Normalize()
	if err != nil {
		return domain.Product{}, err
	}
	p, err := s.repo.Update(ctx, id, in)
	if err != nil {
		return domain.Product{}, err
	}
	s.evict(ctx, id)
	s.log.InfoContext(ctx, "product updated", "product_id", id)
	return p, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.evict(ctx, id)
	s.log.InfoContext(ctx, "product deleted", "product_id", id)
	return nil
}

// GetUncached reads the store and leaves the cache alone. A cached entry can
// be stale when a Get races an Update, so reads that feed an order use this.
func (s *Service) GetUncached(ctx context.Context, id int64) (domain.Product, error) {
	return s.repo.Get(ctx, id)
}

// Lookup returns the snapshot an order line item copies. It always reads the
// store so the order sees committed catalog state.
func (s *Service) Lookup(ctx context.Context, id int64) (domain.Snapshot, error) {
	p, err := s.GetUncached(ctx, id)
	if err != nil {
		return domain.Snapshot{}, err
	}
	return p.Snapshot(), nil
}

func (s *Service) evict(ctx context.Context, id int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Evict(ctx, id); err != nil {
		s.log.WarnContext(ctx, "product cache evict failed", "product_id", id, "err", err)
	}
}

// IsNotFound reports whether err means the product does not exist.
func IsNotFound(err error) bool { return errors.Is(err, ErrProductNotFound) }
