package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/salespoint/pos/internal/domain"
	"github.com/salespoint/pos/internal/port"
)

// SalesService fronts the sale store: it executes checkout requests and, on
// success, refreshes the catalog cache and emits advisory events. Event and
// cache failures are logged, never surfaced — the sale is already committed.
type SalesService struct {
	sales     port.SalesProcessor
	catalog   *CatalogService
	publisher port.EventPublisher
	log       *zap.Logger

	lowStockThreshold int
}

func NewSales(sales port.SalesProcessor, catalog *CatalogService, publisher port.EventPublisher,
	lowStockThreshold int, log *zap.Logger) *SalesService {
	return &SalesService{
		sales:             sales,
		catalog:           catalog,
		publisher:         publisher,
		lowStockThreshold: lowStockThreshold,
		log:               log,
	}
}

func (s *SalesService) CreateSale(ctx context.Context, req domain.CheckoutRequest) (domain.Sale, error) {
	sale, err := s.sales.CreateSale(ctx, req)
	if err != nil {
		return domain.Sale{}, err
	}

	s.catalog.Invalidate(ctx)

	if err := s.publisher.SaleCompleted(ctx, sale); err != nil {
		s.log.Warn("sale event publish failed",
			zap.String("invoice", sale.InvoiceNumber),
			zap.Error(err))
	}

	s.reportLowStock(ctx, sale)

	s.log.Info("sale completed",
		zap.String("invoice", sale.InvoiceNumber),
		zap.String("total", sale.Total.String()),
		zap.Int("items", len(sale.Items)))

	return sale, nil
}

func (s *SalesService) ListSalesBetween(ctx context.Context, from, to time.Time) ([]domain.Sale, error) {
	return s.sales.ListSalesBetween(ctx, from, to)
}

func (s *SalesService) ListTodaySales(ctx context.Context) ([]domain.Sale, error) {
	return s.sales.ListTodaySales(ctx)
}

func (s *SalesService) reportLowStock(ctx context.Context, sale domain.Sale) {
	for _, item := range sale.Items {
		product, err := s.catalog.GetProduct(ctx, item.ProductID)
		if err != nil {
			s.log.Warn("low stock check failed",
				zap.Stringer("product_id", item.ProductID),
				zap.Error(err))
			continue
		}
		if product.StockQty > s.lowStockThreshold {
			continue
		}
		if err := s.publisher.LowStock(ctx, product); err != nil {
			s.log.Warn("low stock event publish failed",
				zap.Stringer("product_id", product.ID),
				zap.Error(err))
		}
	}
}
