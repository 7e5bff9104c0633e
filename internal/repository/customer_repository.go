package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/salespoint/pos/internal/domain"
)

type CustomerRepository struct {
	pool *pgxpool.Pool
}

func NewCustomer(pool *pgxpool.Pool) *CustomerRepository {
	return &CustomerRepository{pool: pool}
}

func (r *CustomerRepository) ListCustomers(ctx context.Context) ([]domain.Customer, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, email, phone, created_at
		FROM customers
		ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("pool.Query: %w", err)
	}
	defer rows.Close()

	var customers []domain.Customer
	for rows.Next() {
		var c domain.Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("rows.Scan: %w", err)
		}
		customers = append(customers, c)
	}
	return customers, rows.Err()
}

func (r *CustomerRepository) CreateCustomer(ctx context.Context, c domain.Customer) (domain.Customer, error) {
	if c.Name == "" {
		return domain.Customer{}, fmt.Errorf("customer name is empty")
	}

	err := r.pool.QueryRow(ctx, `
		INSERT INTO customers (name, email, phone)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`,
		c.Name, c.Email, c.Phone,
	).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		return domain.Customer{}, fmt.Errorf("pool.QueryRow: %w", err)
	}
	return c, nil
}
