package postgres

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/dmehra2102/shopnow/internal/product/application"
	"github.com/dmehra2102/shopnow/internal/product/domain"
)

const uniqueViolation = "23505"

//go:embed migrations/*.sql
var migrations embed.FS

const productColumns = `id, name, description, price::text, stock_quantity, sku_code`

type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool}
}

// Migrate applies the embedded schema files in name order.
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

func (r *Repository) List(ctx context.Context) ([]domain.Product, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+productColumns+` FROM products ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("postgres: list products: %w", err)
	}
	defer rows.Close()

	var out []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list products: %w", err)
	}
	return out, nil
}

func (r *Repository) Get(ctx context.Context, id int64) (domain.Product, error) {
	p, err := scanProduct(r.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Product{}, fmt.Errorf("product %d: %w", id, application.ErrProductNotFound)
	}
	return p, err
}

func (r *Repository) Create(ctx context.Context, in domain.ProductInput) (domain.Product, error) {
	row := r.pool.QueryRow(ctx, `INSERT INTO products (name, description, price, stock_quantity, sku_code)
		VALUES ($1,$2,$3::numeric,$4,$5)
		RETURNING `+productColumns,
		in.Name, in.Description, in.Price.String(), in.StockQuantity, in.SKUCode)
	p, err := scanProduct(row)
	if err != nil {
		return domain.Product{}, mapWriteErr("create product", err)
	}
	return p, nil
}

func (r *Repository) Update(ctx context.Context, id int64, in domain.ProductInput) (domain.Product, error) {
	row := r.pool.QueryRow(ctx, `UPDATE products
		SET name=$2, description=$3, price=$4::numeric, stock_quantity=$5, sku_code=$6
		WHERE id=$1
		RETURNING `+productColumns,
		id, in.Name, in.Description, in.Price.String(), in.StockQuantity, in.SKUCode)
	p, err := scanProduct(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Product{}, fmt.Errorf("product %d: %w", id, application.ErrProductNotFound)
	}
	if err != nil {
		return domain.Product{}, mapWriteErr("update product", err)
	}
	return p, nil
}

func (r *Repository) Delete(ctx context.Context, id int64) error {
	ct, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("postgres: delete product: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("product %d: %w", id, application.ErrProductNotFound)
	}
	return nil
}

func scanProduct(row pgx.Row) (domain.Product, error) {
	var (
		p     domain.Product
		price string
	)
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &price, &p.StockQuantity, &p.SKUCode); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Product{}, err
		}
		return domain.Product{}, fmt.Errorf("postgres: scan product: %w", err)
	}
	d, err := decimal.NewFromString(price)
	if err != nil {
		return domain.Product{}, fmt.Errorf("postgres: product %d price %q: %w", p.ID, price, err)
	}
	p.Price = d
	return p, nil
}

func mapWriteErr(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%s: %w", op, application.ErrDuplicateSKU)
	}
	return fmt.Errorf("postgres: %s: %w", op, err)
}
