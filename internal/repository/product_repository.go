package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/text/currency"

	"github.com/salespoint/pos/internal/domain"
)

var ErrProductNotFound = errors.New("product not found")

type ProductRepository struct {
	pool *pgxpool.Pool
}

func NewProduct(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

func (r *ProductRepository) ListProducts(ctx context.Context) ([]domain.Product, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, barcode, price_amount, price_currency, stock_qty, status, created_at, updated_at
		FROM products
		ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("pool.Query: %w", err)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scanProduct: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (r *ProductRepository) GetProduct(ctx context.Context, productID uuid.UUID) (domain.Product, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, barcode, price_amount, price_currency, stock_qty, status, created_at, updated_at
		FROM products
		WHERE id = $1`, productID)
	if err != nil {
		return domain.Product{}, fmt.Errorf("pool.Query: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return domain.Product{}, ErrProductNotFound
	}
	p, err := scanProduct(rows)
	if err != nil {
		return domain.Product{}, fmt.Errorf("scanProduct: %w", err)
	}
	return p, nil
}

func (r *ProductRepository) CreateProduct(ctx context.Context, p domain.Product) (domain.Product, error) {
	if p.Name == "" {
		return domain.Product{}, fmt.Errorf("product name is empty")
	}

	err := r.pool.QueryRow(ctx, `
		INSERT INTO products (name, barcode, price_amount, price_currency, stock_qty, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`,
		p.Name, p.Barcode, p.UnitPrice.Amount, p.UnitPrice.Currency.String(), p.StockQty, p.Status,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return domain.Product{}, fmt.Errorf("pool.QueryRow: %w", err)
	}
	return p, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (domain.Product, error) {
	var (
		p       domain.Product
		isoCode string
	)
	if err := row.Scan(&p.ID, &p.Name, &p.Barcode, &p.UnitPrice.Amount, &isoCode,
		&p.StockQty, &p.Status, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return domain.Product{}, err
	}

	parsedCurrency, err := currency.ParseISO(isoCode)
	if err != nil {
		return domain.Product{}, fmt.Errorf("currency[%s] is not valid: %w", isoCode, err)
	}
	p.UnitPrice.Currency = parsedCurrency

	return p, nil
}
