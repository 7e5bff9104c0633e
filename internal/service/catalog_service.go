package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/salespoint/pos/internal/cache"
	"github.com/salespoint/pos/internal/domain"
	"github.com/salespoint/pos/internal/port"
)

// CatalogService serves product lists to terminals, cache-aside over the
// repository. Reads fan in through singleflight so a cold cache does not
// stampede postgres when every terminal refreshes at once.
type CatalogService struct {
	catalog port.ProductCatalog
	cache   cache.CatalogCache
	log     *zap.Logger
	sfg     singleflight.Group
}

func NewCatalog(catalog port.ProductCatalog, catalogCache cache.CatalogCache, log *zap.Logger) *CatalogService {
	return &CatalogService{
		catalog: catalog,
		cache:   catalogCache,
		log:     log,
	}
}

func (s *CatalogService) ListProducts(ctx context.Context) ([]domain.Product, error) {
	v, err, _ := s.sfg.Do("catalog", func() (interface{}, error) {
		products, err := s.cache.Get(ctx)
		if err == nil {
			return products, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.log.Warn("catalog cache get failed", zap.Error(err))
		}

		products, err = s.catalog.ListProducts(ctx)
		if err != nil {
			return nil, fmt.Errorf("catalog.ListProducts: %w", err)
		}

		if err := s.cache.Set(ctx, products); err != nil {
			s.log.Warn("catalog cache set failed", zap.Error(err))
		}
		return products, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.Product), nil
}

// SellableProducts is ListProducts narrowed to what a cart may accept,
// active products with stock on hand.
func (s *CatalogService) SellableProducts(ctx context.Context) ([]domain.Product, error) {
	products, err := s.ListProducts(ctx)
	if err != nil {
		return nil, err
	}

	sellable := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if p.Sellable() {
			sellable = append(sellable, p)
		}
	}
	return sellable, nil
}

// GetProduct always reads through to the repository; single-product reads
// back cart mutations and need the freshest stock count available.
func (s *CatalogService) GetProduct(ctx context.Context, productID uuid.UUID) (domain.Product, error) {
	return s.catalog.GetProduct(ctx, productID)
}

func (s *CatalogService) Invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil {
		s.log.Warn("catalog cache invalidate failed", zap.Error(err))
	}
}
