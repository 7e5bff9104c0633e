package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/text/currency"

	"github.com/salespoint/pos/internal/domain"
	"github.com/salespoint/pos/internal/port"
)

type SaleRepository struct {
	pool *pgxpool.Pool
}

func NewSale(pool *pgxpool.Pool) *SaleRepository {
	return &SaleRepository{pool: pool}
}

// CreateSale executes a checkout request as one transaction: product rows
// are locked, stock is re-checked and decremented, the sale with its lines is
// inserted and an invoice number drawn from a sequence. Stock shortfalls and
// unknown references surface as port.SaleRejectedError; the request itself is
// never partially applied.
func (r *SaleRepository) CreateSale(ctx context.Context, req domain.CheckoutRequest) (domain.Sale, error) {
	if len(req.Items) == 0 {
		return domain.Sale{}, port.SaleRejected("sale has no items")
	}
	if !domain.ValidPaymentType(req.PaymentType) {
		return domain.Sale{}, port.SaleRejected("unknown payment type %q", req.PaymentType)
	}

	return withTx(ctx, r.pool, func(tx pgx.Tx) (domain.Sale, error) {
		if req.CustomerID != nil {
			var exists bool
			err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM customers WHERE id = $1)`, *req.CustomerID).Scan(&exists)
			if err != nil {
				return domain.Sale{}, fmt.Errorf("check customer: %w", err)
			}
			if !exists {
				return domain.Sale{}, port.SaleRejected("customer %s not found", *req.CustomerID)
			}
		}

		items := make([]domain.SaleItem, 0, len(req.Items))
		for _, item := range req.Items {
			var (
				name     string
				stockQty int
			)
			err := tx.QueryRow(ctx, `
				SELECT name, stock_qty FROM products WHERE id = $1 FOR UPDATE`,
				item.ProductID).Scan(&name, &stockQty)
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.Sale{}, port.SaleRejected("product %s not found", item.ProductID)
			}
			if err != nil {
				return domain.Sale{}, fmt.Errorf("lock product: %w", err)
			}

			if item.Quantity <= 0 {
				return domain.Sale{}, port.SaleRejected("invalid quantity %d for %s", item.Quantity, name)
			}
			if stockQty < item.Quantity {
				return domain.Sale{}, port.SaleRejected("insufficient stock for %s: %d left, %d requested", name, stockQty, item.Quantity)
			}

			_, err = tx.Exec(ctx, `
				UPDATE products SET stock_qty = stock_qty - $2, updated_at = now() WHERE id = $1`,
				item.ProductID, item.Quantity)
			if err != nil {
				return domain.Sale{}, fmt.Errorf("decrement stock: %w", err)
			}

			items = append(items, domain.SaleItem{
				ProductID: item.ProductID,
				Name:      name,
				Quantity:  item.Quantity,
				UnitPrice: item.UnitPrice,
			})
		}

		total := domain.ZeroMoney(req.Total.Currency)
		for _, item := range items {
			total = total.Add(item.UnitPrice.Mul(item.Quantity))
		}
		total = total.Round()

		var seq int64
		if err := tx.QueryRow(ctx, `SELECT nextval('invoice_seq')`).Scan(&seq); err != nil {
			return domain.Sale{}, fmt.Errorf("next invoice number: %w", err)
		}

		sale := domain.Sale{
			InvoiceNumber: fmt.Sprintf("INV-%d-%06d", time.Now().Year(), seq),
			CustomerID:    req.CustomerID,
			PaymentType:   req.PaymentType,
			Items:         items,
			Total:         total,
			Status:        domain.SaleCompleted,
		}

		err := tx.QueryRow(ctx, `
			INSERT INTO sales (invoice_number, customer_id, payment_type, total_amount, total_currency, status)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id, sale_date`,
			sale.InvoiceNumber, sale.CustomerID, sale.PaymentType,
			sale.Total.Amount, sale.Total.Currency.String(), sale.Status,
		).Scan(&sale.ID, &sale.SaleDate)
		if err != nil {
			return domain.Sale{}, fmt.Errorf("insert sale: %w", err)
		}

		batch := &pgx.Batch{}
		for _, item := range sale.Items {
			batch.Queue(`
				INSERT INTO sale_items (sale_id, product_id, name, quantity, unit_price_amount, unit_price_currency)
				VALUES ($1, $2, $3, $4, $5, $6)`,
				sale.ID, item.ProductID, item.Name, item.Quantity,
				item.UnitPrice.Amount, item.UnitPrice.Currency.String())
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return domain.Sale{}, fmt.Errorf("insert sale items: %w", err)
		}

		return sale, nil
	})
}

func (r *SaleRepository) ListSalesBetween(ctx context.Context, from, to time.Time) ([]domain.Sale, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, invoice_number, customer_id, payment_type, total_amount, total_currency, status, sale_date
		FROM sales
		WHERE sale_date >= $1 AND sale_date < $2
		ORDER BY sale_date`, from, to)
	if err != nil {
		return nil, fmt.Errorf("pool.Query: %w", err)
	}
	defer rows.Close()

	var sales []domain.Sale
	for rows.Next() {
		s, err := scanSale(rows)
		if err != nil {
			return nil, fmt.Errorf("scanSale: %w", err)
		}
		sales = append(sales, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := r.attachItems(ctx, sales); err != nil {
		return nil, fmt.Errorf("attachItems: %w", err)
	}
	return sales, nil
}

// ListTodaySales returns sales since midnight in the database's time zone.
func (r *SaleRepository) ListTodaySales(ctx context.Context) ([]domain.Sale, error) {
	var dayStart, dayEnd time.Time
	err := r.pool.QueryRow(ctx,
		`SELECT date_trunc('day', now()), date_trunc('day', now()) + interval '1 day'`).
		Scan(&dayStart, &dayEnd)
	if err != nil {
		return nil, fmt.Errorf("resolve day bounds: %w", err)
	}
	return r.ListSalesBetween(ctx, dayStart, dayEnd)
}

func (r *SaleRepository) attachItems(ctx context.Context, sales []domain.Sale) error {
	if len(sales) == 0 {
		return nil
	}

	byID := make(map[uuid.UUID]*domain.Sale, len(sales))
	ids := make([]uuid.UUID, len(sales))
	for i := range sales {
		byID[sales[i].ID] = &sales[i]
		ids[i] = sales[i].ID
	}

	rows, err := r.pool.Query(ctx, `
		SELECT sale_id, product_id, name, quantity, unit_price_amount, unit_price_currency
		FROM sale_items
		WHERE sale_id = ANY($1)`, ids)
	if err != nil {
		return fmt.Errorf("pool.Query: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			saleID  uuid.UUID
			item    domain.SaleItem
			isoCode string
		)
		if err := rows.Scan(&saleID, &item.ProductID, &item.Name, &item.Quantity,
			&item.UnitPrice.Amount, &isoCode); err != nil {
			return fmt.Errorf("rows.Scan: %w", err)
		}
		parsedCurrency, err := currency.ParseISO(isoCode)
		if err != nil {
			return fmt.Errorf("currency[%s] is not valid: %w", isoCode, err)
		}
		item.UnitPrice.Currency = parsedCurrency

		byID[saleID].Items = append(byID[saleID].Items, item)
	}
	return rows.Err()
}

func scanSale(row rowScanner) (domain.Sale, error) {
	var (
		s       domain.Sale
		isoCode string
	)
	if err := row.Scan(&s.ID, &s.InvoiceNumber, &s.CustomerID, &s.PaymentType,
		&s.Total.Amount, &isoCode, &s.Status, &s.SaleDate); err != nil {
		return domain.Sale{}, err
	}

	parsedCurrency, err := currency.ParseISO(isoCode)
	if err != nil {
		return domain.Sale{}, fmt.Errorf("currency[%s] is not valid: %w", isoCode, err)
	}
	s.Total.Currency = parsedCurrency

	return s, nil
}
