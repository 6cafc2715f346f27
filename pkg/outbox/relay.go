package outbox

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

type Store interface {
	LockBatch(ctx context.Context, relayID string, batchSize int, lease time.Duration) ([]Event, error)
	MarkSent(ctx context.Context, ids []int64) error
	// MarkFailed parks an event for good. The relay never leases it again.
	MarkFailed(ctx context.Context, id int64, errMsg string) error
	ExtendLease(ctx context.Context, relayID string, ids []int64, lease time.Duration) error
	// Release returns leased events to pending without counting an attempt.
	Release(ctx context.Context, relayID string, ids []int64, errMsg string) error
	// Retry returns one event to pending and counts a failed attempt.
	Retry(ctx context.Context, id int64, errMsg string) error
}

var ErrPublishFailed = errors.New("outbox: publish failed")

type Relay struct {
	log         *slog.Logger
	store       Store
	dispatch    *Dispatcher
	relayID     string
	batchSize   int
	interval    time.Duration
	lease       time.Duration
	maxAttempts int
}

type Option func(*Relay)

func WithBatchSize(n int) Option { return func(r *Relay) { r.batchSize = n } }

func WithInterval(d time.Duration) Option { return func(r *Relay) { r.interval = d } }

func WithLease(d time.Duration) Option { return func(r *Relay) { r.lease = d } }

// WithMaxAttempts sets how many times an event may fail on its own before it
// is marked failed.
func WithMaxAttempts(n int) Option { return func(r *Relay) { r.maxAttempts = n } }

func NewRelay(log *slog.Logger, store Store, dispatch *Dispatcher, relayID string, opts ...Option) *Relay {
	r := &Relay{
		log:       log,
		store:     store,
		dispatch:  dispatch,
		relayID:   relayID,
		batchSize:   100,
		interval:    500 * time.Millisecond,
		lease:       5 * time.Second,
		maxAttempts: 5,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Relay) Run(ctx context.Context) error {
	t := time.NewTicker(r.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			r.log.Info("relay stopping", "relay_id", r.relayID)
			return nil
		case <-t.C:
			if _, err := r.RunOnce(ctx); err != nil && ctx.Err() == nil {
				r.log.Error("relay batch error", "relay_id", r.relayID, "err", err)
			}
		}
	}
}

// RunOnce leases one batch, publishes it and records the outcome per event.
// It returns how many events were marked sent.
//
// When every event of the batch fails the broker is taken to be down: the
// events go back to pending untouched and ErrPublishFailed is returned. When
// only some fail, each failure counts as an attempt, and an event that used up
// maxAttempts is marked failed.
func (r *Relay) RunOnce(ctx context.Context) (int, error) {
	events, err := r.store.LockBatch(ctx, r.relayID, r.batchSize, r.lease)
	if err != nil {
		return 0, err
	}
	if len(events) == 0 {
		return 0, nil
	}

	all := make([]int64, 0, len(events))
	for _, e := range events {
		all = append(all, e.ID)
	}
	if err := r.dispatch.DispatchBatch(ctx, events); err == nil {
		if err := r.store.MarkSent(ctx, all); err != nil {
			return 0, err
		}
		return len(all), nil
	}

	// Fall back to one-by-one so a single poison event does not block the batch.
	// The slow path can outlive the lease, so renew it first.
	if lErr := r.store.ExtendLease(ctx, r.relayID, all, r.lease); lErr != nil {
		r.log.Warn("relay extend lease failed", "relay_id", r.relayID, "err", lErr)
	}
	var (
		sent     []int64
		failures = make(map[int64]error)
	)
	for _, e := range events {
		if err := r.dispatch.Dispatch(ctx, e); err != nil {
			failures[e.ID] = err
			continue
		}
		sent = append(sent, e.ID)
	}

	// Outcomes must be recorded even when ctx was cancelled mid-publish.
	wctx := context.WithoutCancel(ctx)
	if len(sent) == 0 {
		var last error
		for _, err := range failures {
			last = err
		}
		if err := r.store.Release(wctx, r.relayID, all, last.Error()); err != nil {
			r.log.Error("relay release failed", "relay_id", r.relayID, "err", err)
		}
		return 0, fmt.Errorf("%w: %d events returned to pending: %w", ErrPublishFailed, len(all), last)
	}

	for _, e := range events {
		err, ok := failures[e.ID]
		if !ok {
			continue
		}
		if e.RetryCount+1 >= r.maxAttempts {
			r.log.Error("relay giving up on event", "event_id", e.ID, "attempts", e.RetryCount+1, "err", err)
			if mErr := r.store.MarkFailed(wctx, e.ID, err.Error()); mErr != nil {
				r.log.Error("relay mark failed error", "event_id", e.ID, "err", mErr)
			}
			continue
		}
		if rErr := r.store.Retry(wctx, e.ID, err.Error()); rErr != nil {
			r.log.Error("relay retry error", "event_id", e.ID, "err", rErr)
		}
	}
	if err := r.store.MarkSent(wctx, sent); err != nil {
		return 0, err
	}
	return len(sent), nil
}
