package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/salespoint/pos/internal/cache"
	"github.com/salespoint/pos/internal/domain"
)

var errNotFound = errors.New("product not found")

type mockCatalog struct {
	mu       sync.Mutex
	products []domain.Product
	err      error
	listed   int
}

func (m *mockCatalog) ListProducts(context.Context) ([]domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listed++
	if m.err != nil {
		return nil, m.err
	}
	return m.products, nil
}

func (m *mockCatalog) GetProduct(_ context.Context, productID uuid.UUID) (domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return domain.Product{}, m.err
	}
	for _, p := range m.products {
		if p.ID == productID {
			return p, nil
		}
	}
	return domain.Product{}, errNotFound
}

type mockCache struct {
	mu       sync.Mutex
	products []domain.Product
	getErr   error
	setErr   error
	sets     int
	deletes  int
}

func (m *mockCache) Get(context.Context) ([]domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	if m.products == nil {
		return nil, cache.ErrCacheMiss
	}
	return m.products, nil
}

func (m *mockCache) Set(_ context.Context, products []domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setErr != nil {
		return m.setErr
	}
	m.products = products
	m.sets++
	return nil
}

func (m *mockCache) Invalidate(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products = nil
	m.deletes++
	return nil
}

type mockProcessor struct {
	sale domain.Sale
	err  error
	reqs []domain.CheckoutRequest
}

func (m *mockProcessor) CreateSale(_ context.Context, req domain.CheckoutRequest) (domain.Sale, error) {
	m.reqs = append(m.reqs, req)
	if m.err != nil {
		return domain.Sale{}, m.err
	}
	return m.sale, nil
}

func (m *mockProcessor) ListSalesBetween(context.Context, time.Time, time.Time) ([]domain.Sale, error) {
	return []domain.Sale{m.sale}, m.err
}

func (m *mockProcessor) ListTodaySales(context.Context) ([]domain.Sale, error) {
	return []domain.Sale{m.sale}, m.err
}

type mockPublisher struct {
	completed []domain.Sale
	lowStock  []domain.Product
	err       error
}

func (m *mockPublisher) SaleCompleted(_ context.Context, sale domain.Sale) error {
	if m.err != nil {
		return m.err
	}
	m.completed = append(m.completed, sale)
	return nil
}

func (m *mockPublisher) LowStock(_ context.Context, product domain.Product) error {
	if m.err != nil {
		return m.err
	}
	m.lowStock = append(m.lowStock, product)
	return nil
}
