package postgres

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/dmehra2102/shopnow/internal/order/application"
	"github.com/dmehra2102/shopnow/internal/order/domain"
)

const (
	uniqueViolation        = "23505"
	orderNumberConstraint  = "orders_order_number_key"
	orderNumberMaxAttempts = 2
)

//go:embed migrations/*.sql
var migrations embed.FS

type Repository struct {
	log     *slog.Logger
	pool    *pgxpool.Pool
	now     func() time.Time
	numbers func() string
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{
		log:     log,
		pool:    pool,
		now:     func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
		numbers: uuid.NewString,
	}
}

// Migrate applies the embedded schema files in name order. Every statement is
// idempotent, so it runs on each start.
func (r *Repository) Migrate(ctx context.Context) error {
	names, err := fs.Glob(migrations, "migrations/*.sql")
	if err != nil {
		return err
	}
	sort.Strings(names)
	for _, name := range names {
		sql, err := migrations.ReadFile(name)
		if err != nil {
			return err
		}
		if _, err := r.pool.Exec(ctx, string(sql)); err != nil {
			return fmt.Errorf("postgres: migrate %s: %w", name, err)
		}
		r.log.Debug("migration applied", "file", name)
	}
	return nil
}

// Save writes the order, its line items and the built outbox row in one
// transaction. An order number collision is retried once with a new number;
// that is the only retry, every other failure is returned as is.
func (r *Repository) Save(ctx context.Context, d domain.Draft, event application.EventBuilder) (domain.Order, error) {
	var lastErr error
	for attempt := 1; attempt <= orderNumberMaxAttempts; attempt++ {
		o, err := r.saveOnce(ctx, d, event)
		if err == nil {
			return o, nil
		}
		if !isOrderNumberCollision(err) {
			return domain.Order{}, err
		}
		r.log.WarnContext(ctx, "order number collision, retrying", "attempt", attempt)
		lastErr = err
	}
	return domain.Order{}, lastErr
}

func (r *Repository) saveOnce(ctx context.Context, d domain.Draft, event application.EventBuilder) (domain.Order, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return domain.Order{}, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	number, createdAt := r.numbers(), r.now()
	var id int64
	err = tx.QueryRow(ctx, `INSERT INTO orders (order_number, status, created_at) VALUES ($1,$2,$3) RETURNING id`,
		number, string(d.Status()), createdAt).Scan(&id)
	if err != nil {
		return domain.Order{}, fmt.Errorf("insert order: %w", err)
	}
	o := d.Persist(id, number, createdAt)

	if len(o.LineItems) > 0 {
		batch := &pgx.Batch{}
		for pos, item := range o.LineItems {
			batch.Queue(`INSERT INTO order_line_items (order_id, position, sku_code, price, quantity)
				VALUES ($1,$2,$3,$4::numeric,$5)`,
				id, pos, item.SKUCode(), item.Price().String(), item.Quantity())
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return domain.Order{}, fmt.Errorf("insert line items: %w", err)
		}
	}

	if event != nil {
		msg, err := event(o)
		if err != nil {
			return domain.Order{}, err
		}
		headers := msg.Headers
		if headers == nil {
			headers = map[string]string{}
		}
		_, err = tx.Exec(ctx, `INSERT INTO outbox (aggregate_type, aggregate_id, type, payload, headers, traceparent, status)
			VALUES ($1,$2,$3,$4,$5,$6,'pending')`,
			msg.AggregateType, msg.AggregateID, msg.Type, msg.Payload, headers, msg.Traceparent)
		if err != nil {
			return domain.Order{}, fmt.Errorf("insert outbox: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Order{}, err
	}
	return o, nil
}

func (r *Repository) Get(ctx context.Context, id int64) (domain.Order, error) {
	var (
		o      domain.Order
		status string
	)
	err := r.pool.QueryRow(ctx, `SELECT id, order_number, status, created_at FROM orders WHERE id=$1`, id).
		Scan(&o.ID, &o.OrderNumber, &status, &o.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Order{}, fmt.Errorf("order %d: %w", id, application.ErrOrderNotFound)
	}
	if err != nil {
		return domain.Order{}, err
	}
	o.Status = domain.OrderStatus(status)
	o.CreatedAt = o.CreatedAt.UTC()

	items, err := r.lineItems(ctx, []int64{id})
	if err != nil {
		return domain.Order{}, err
	}
	o.LineItems = items[id]
	return o, nil
}

func (r *Repository) List(ctx context.Context) ([]domain.Order, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, order_number, status, created_at FROM orders ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var (
		orders []domain.Order
		ids    []int64
	)
	for rows.Next() {
		var (
			o      domain.Order
			status string
		)
		if err := rows.Scan(&o.ID, &o.OrderNumber, &status, &o.CreatedAt); err != nil {
			return nil, err
		}
		o.Status = domain.OrderStatus(status)
		o.CreatedAt = o.CreatedAt.UTC()
		orders = append(orders, o)
		ids = append(ids, o.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []domain.Order{}, nil
	}

	items, err := r.lineItems(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].LineItems = items[orders[i].ID]
	}
	return orders, nil
}

func (r *Repository) lineItems(ctx context.Context, orderIDs []int64) (map[int64][]domain.LineItem, error) {
	rows, err := r.pool.Query(ctx, `SELECT order_id, sku_code, price::text, quantity
		FROM order_line_items WHERE order_id = ANY($1) ORDER BY order_id, position`, orderIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[int64][]domain.LineItem, len(orderIDs))
	for _, id := range orderIDs {
		out[id] = []domain.LineItem{}
	}
	for rows.Next() {
		var (
			orderID  int64
			sku      string
			price    string
			quantity int
		)
		if err := rows.Scan(&orderID, &sku, &price, &quantity); err != nil {
			return nil, err
		}
		p, err := decimal.NewFromString(price)
		if err != nil {
			return nil, fmt.Errorf("order %d line item price %q: %w", orderID, price, err)
		}
		out[orderID] = append(out[orderID], domain.RestoreLineItem(sku, p, quantity))
	}
	return out, rows.Err()
}

func isOrderNumberCollision(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation && pgErr.ConstraintName == orderNumberConstraint
}
