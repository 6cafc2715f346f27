// Package memory is an in-process OrderRepository for tests and local runs.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmehra2102/shopnow/internal/order/application"
	"github.com/dmehra2102/shopnow/internal/order/domain"
	"github.com/dmehra2102/shopnow/pkg/outbox"
)

type Repository struct {
	mu     sync.RWMutex
	nextID int64
	orders map[int64]domain.Order
	events []outbox.Message
	now    func() time.Time
}

func NewRepository() *Repository {
	return &Repository{
		orders: make(map[int64]domain.Order),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (r *Repository) Save(ctx context.Context, d domain.Draft, event application.EventBuilder) (domain.Order, error) {
	if err := ctx.Err(); err != nil {
		return domain.Order{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	o := d.Persist(r.nextID+1, uuid.NewString(), r.now())
	if event != nil {
		msg, err := event(o)
		if err != nil {
			return domain.Order{}, fmt.Errorf("memory: build event: %w", err)
		}
		r.events = append(r.events, msg)
	}
	r.nextID = o.ID
	r.orders[o.ID] = o
	return o.Clone(), nil
}

func (r *Repository) Get(ctx context.Context, id int64) (domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	o, ok := r.orders[id]
	if !ok {
		return domain.Order{}, fmt.Errorf("order %d: %w", id, application.ErrOrderNotFound)
	}
	return o.Clone(), nil
}

func (r *Repository) List(ctx context.Context) ([]domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Order, 0, len(r.orders))
	for _, o := range r.orders {
		out = append(out, o.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Events returns the outbox messages written so far.
func (r *Repository) Events() []outbox.Message {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]outbox.Message(nil), r.events...)
}

func (r *Repository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.orders)
}
