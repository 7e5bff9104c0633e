package port

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/salespoint/pos/internal/domain"
)

type ProductCatalog interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	GetProduct(ctx context.Context, productID uuid.UUID) (domain.Product, error)
}

type CustomerDirectory interface {
	ListCustomers(ctx context.Context) ([]domain.Customer, error)
}

// SalesProcessor executes checkout requests atomically: server-side stock is
// re-checked inside the sale transaction and is the final authority, whatever
// the cart believed at add time.
type SalesProcessor interface {
	CreateSale(ctx context.Context, req domain.CheckoutRequest) (domain.Sale, error)
	ListSalesBetween(ctx context.Context, from, to time.Time) ([]domain.Sale, error)
	ListTodaySales(ctx context.Context) ([]domain.Sale, error)
}

type SettingsStore interface {
	GetSetting(ctx context.Context, key string) (string, error)
	PutSetting(ctx context.Context, key, value string) error
	AllSettings(ctx context.Context) (map[string]string, error)
}

type EventPublisher interface {
	SaleCompleted(ctx context.Context, sale domain.Sale) error
	LowStock(ctx context.Context, product domain.Product) error
}

// SaleRejectedError is a business rejection of a checkout request, e.g. the
// server-side stock check failed. Its reason is safe to show verbatim.
type SaleRejectedError struct {
	Reason string
}

func (e SaleRejectedError) Error() string {
	return e.Reason
}

func SaleRejected(format string, args ...any) SaleRejectedError {
	return SaleRejectedError{Reason: fmt.Sprintf(format, args...)}
}
