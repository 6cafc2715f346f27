// Package sqlite is the local-development catalog store.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/dmehra2102/shopnow/internal/product/application"
	"github.com/dmehra2102/shopnow/internal/product/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS products (
    id             INTEGER PRIMARY KEY AUTOINCREMENT,
    name           TEXT    NOT NULL,
    description    TEXT    NOT NULL DEFAULT '',
    price          TEXT    NOT NULL,
    stock_quantity INTEGER NOT NULL DEFAULT 0,
    sku_code       TEXT    NOT NULL UNIQUE
);
`

type Repository struct {
	db *sql.DB
}

// Open opens or creates the database at path. ":memory:" gives a private
// in-process database.
func Open(path string) (*Repository, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %q: %w", path, err)
	}
	// One connection: a single writer, and ":memory:" stays one database.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: apply schema: %w", err)
	}
	return &Repository{db: db}, nil
}

func (r *Repository) Close() error { return r.db.Close() }

func (r *Repository) Ping(ctx context.Context) error { return r.db.PingContext(ctx) }

func (r *Repository) List(ctx context.Context) ([]domain.Product, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, description, price, stock_quantity, sku_code FROM products ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list products: %w", err)
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
		return nil, fmt.Errorf("sqlite: list products: %w", err)
	}
	return out, nil
}

func (r *Repository) Get(ctx context.Context, id int64) (domain.Product, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, name, description, price, stock_quantity, sku_code FROM products WHERE id = ?`, id)
	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Product{}, fmt.Errorf("product %d: %w", id, application.ErrProductNotFound)
	}
	return p, err
}

func (r *Repository) Create(ctx context.Context, in domain.ProductInput) (domain.Product, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO products (name, description, price, stock_quantity, sku_code) VALUES (?, ?, ?, ?, ?)`,
		in.Name, in.Description, in.Price.String(), in.StockQuantity, in.SKUCode)
	if err != nil {
		return domain.Product{}, mapWriteErr("create product", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.Product{}, fmt.Errorf("sqlite: create product: %w", err)
	}
	return fromInput(id, in), nil
}

func (r *Repository) Update(ctx context.Context, id int64, in domain.ProductInput) (domain.Product, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE products SET name = ?, description = ?, price = ?, stock_quantity = ?, sku_code = ? WHERE id = ?`,
		in.Name, in.Description, in.Price.String(), in.StockQuantity, in.SKUCode, id)
	if err != nil {
		return domain.Product{}, mapWriteErr("update product", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return domain.Product{}, fmt.Errorf("sqlite: update product: %w", err)
	} else if n == 0 {
		return domain.Product{}, fmt.Errorf("product %d: %w", id, application.ErrProductNotFound)
	}
	return fromInput(id, in), nil
}

func (r *Repository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: delete product: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: delete product: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("product %d: %w", id, application.ErrProductNotFound)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProduct(s scanner) (domain.Product, error) {
	var (
		p     domain.Product
		price string
	)
	if err := s.Scan(&p.ID, &p.Name, &p.Description, &price, &p.StockQuantity, &p.SKUCode); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Product{}, err
		}
		return domain.Product{}, fmt.Errorf("sqlite: scan product: %w", err)
	}
	d, err := decimal.NewFromString(price)
	if err != nil {
		return domain.Product{}, fmt.Errorf("sqlite: product %d price %q: %w", p.ID, price, err)
	}
	p.Price = d
	return p, nil
}

func fromInput(id int64, in domain.ProductInput) domain.Product {
	return domain.Product{
		ID:            id,
		Name:          in.Name,
		Description:   in.Description,
		Price:         in.Price,
		StockQuantity: in.StockQuantity,
		SKUCode:       in.SKUCode,
	}
}

func mapWriteErr(op string, err error) error {
	var se *sqlite.Error
	if errors.As(err, &se) && se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE {
		return fmt.Errorf("%s: %w", op, application.ErrDuplicateSKU)
	}
	return fmt.Errorf("sqlite: %s: %w", op, err)
}
