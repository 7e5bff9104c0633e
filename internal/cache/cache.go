package cache

import (
	"context"
	"errors"

	"github.com/salespoint/pos/internal/domain"
)

// CatalogCache holds the most recent product list so terminal refreshes do
// not hit postgres on every keystroke. Sales invalidate it.
type CatalogCache interface {
	Get(ctx context.Context) ([]domain.Product, error)
	Set(ctx context.Context, products []domain.Product) error
	Invalidate(ctx context.Context) error
}

var ErrCacheMiss = errors.New("cache miss")
