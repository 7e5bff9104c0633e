package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/text/currency"

	"github.com/salespoint/pos/internal/cache"
	"github.com/salespoint/pos/internal/domain"
	"github.com/salespoint/pos/internal/port"
	"github.com/salespoint/pos/internal/server"
	"github.com/salespoint/pos/internal/service"
	"github.com/salespoint/pos/internal/session"
)

type fakeCatalog struct {
	products map[uuid.UUID]domain.Product
}

func (f *fakeCatalog) ListProducts(context.Context) ([]domain.Product, error) {
	out := make([]domain.Product, 0, len(f.products))
	for _, p := range f.products {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeCatalog) GetProduct(_ context.Context, id uuid.UUID) (domain.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return domain.Product{}, fmt.Errorf("product %s missing", id)
	}
	return p, nil
}

type fakeCustomers struct {
	customers []domain.Customer
}

func (f *fakeCustomers) ListCustomers(context.Context) ([]domain.Customer, error) {
	return f.customers, nil
}

// fakeProcessor confirms sales and decrements the catalog's stock, or
// rejects everything when reject is set.
type fakeProcessor struct {
	catalog *fakeCatalog
	reject  *port.SaleRejectedError
	sales   []domain.Sale
}

func (f *fakeProcessor) CreateSale(_ context.Context, req domain.CheckoutRequest) (domain.Sale, error) {
	if f.reject != nil {
		return domain.Sale{}, *f.reject
	}

	sale := domain.Sale{
		ID:            uuid.New(),
		InvoiceNumber: fmt.Sprintf("INV-2026-%06d", len(f.sales)+1),
		CustomerID:    req.CustomerID,
		PaymentType:   req.PaymentType,
		Total:         req.Total,
		Status:        domain.SaleCompleted,
		SaleDate:      time.Now(),
	}
	for _, item := range req.Items {
		p := f.catalog.products[item.ProductID]
		p.StockQty -= item.Quantity
		f.catalog.products[item.ProductID] = p
		sale.Items = append(sale.Items, domain.SaleItem{
			ProductID: item.ProductID,
			Name:      p.Name,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}
	f.sales = append(f.sales, sale)
	return sale, nil
}

func (f *fakeProcessor) ListSalesBetween(context.Context, time.Time, time.Time) ([]domain.Sale, error) {
	return f.sales, nil
}

func (f *fakeProcessor) ListTodaySales(context.Context) ([]domain.Sale, error) {
	return f.sales, nil
}

type noopCache struct{}

func (noopCache) Get(context.Context) ([]domain.Product, error) { return nil, cache.ErrCacheMiss }
func (noopCache) Set(context.Context, []domain.Product) error   { return nil }
func (noopCache) Invalidate(context.Context) error              { return nil }

type fakeSettings map[string]string

func (f fakeSettings) GetSetting(_ context.Context, key string) (string, error) {
	v, ok := f[key]
	if !ok {
		return "", fmt.Errorf("setting %s missing", key)
	}
	return v, nil
}

func (f fakeSettings) PutSetting(_ context.Context, key, value string) error {
	f[key] = value
	return nil
}

func (f fakeSettings) AllSettings(context.Context) (map[string]string, error) {
	return f, nil
}

type noopPublisher struct{}

func (noopPublisher) SaleCompleted(context.Context, domain.Sale) error { return nil }
func (noopPublisher) LowStock(context.Context, domain.Product) error   { return nil }

type fixture struct {
	server    *httptest.Server
	catalog   *fakeCatalog
	processor *fakeProcessor
	product   domain.Product
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	product := domain.Product{
		ID:        uuid.New(),
		Name:      "Espresso Beans 1kg",
		UnitPrice: domain.NewMoney(decimal.RequireFromString("10.00"), currency.USD),
		StockQty:  2,
		Status:    domain.ProductActive,
	}
	catalogRepo := &fakeCatalog{products: map[uuid.UUID]domain.Product{product.ID: product}}
	processor := &fakeProcessor{catalog: catalogRepo}

	log := zap.NewNop()
	catalogSvc := service.NewCatalog(catalogRepo, noopCache{}, log)
	salesSvc := service.NewSales(processor, catalogSvc, noopPublisher{}, 5, log)

	handler := server.NewHandler(log, catalogSvc, &fakeCustomers{}, salesSvc,
		fakeSettings{"currency": "USD"}, session.NewRegistry(currency.USD), currency.USD, 5)

	srv := httptest.NewServer(handler.Routes())
	t.Cleanup(srv.Close)

	return &fixture{server: srv, catalog: catalogRepo, processor: processor, product: product}
}

func (f *fixture) do(t *testing.T, method, path string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req, err := http.NewRequest(method, f.server.URL+path, &buf)
	require.NoError(t, err)

	resp, err := f.server.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	var decoded map[string]any
	if resp.StatusCode != http.StatusNoContent {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	}
	return resp, decoded
}

func (f *fixture) openCart(t *testing.T) string {
	t.Helper()

	resp, body := f.do(t, http.MethodPost, "/carts", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return body["cart_id"].(string)
}

func TestListProducts(t *testing.T) {
	f := newFixture(t)

	req, err := http.NewRequest(http.MethodGet, f.server.URL+"/products", nil)
	require.NoError(t, err)
	resp, err := f.server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var products []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&products))
	require.Len(t, products, 1)
	assert.Equal(t, "Espresso Beans 1kg", products[0]["name"])
}

func TestCartFlow_CheckoutSucceeds(t *testing.T) {
	f := newFixture(t)
	cartID := f.openCart(t)

	addBody := map[string]string{"product_id": f.product.ID.String()}
	resp, body := f.do(t, http.MethodPost, "/carts/"+cartID+"/items", addBody)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = f.do(t, http.MethodPost, "/carts/"+cartID+"/items", addBody)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	lines := body["lines"].([]any)
	require.Len(t, lines, 1)
	assert.Equal(t, float64(2), lines[0].(map[string]any)["quantity"])

	// third unit exceeds the stock of 2
	resp, body = f.do(t, http.MethodPost, "/carts/"+cartID+"/items", addBody)
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Contains(t, body["message"], "stock")

	resp, body = f.do(t, http.MethodPost, "/carts/"+cartID+"/checkout", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.NotEmpty(t, body["invoice_number"])

	// cart is empty and reusable after a successful checkout
	resp, body = f.do(t, http.MethodGet, "/carts/"+cartID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, body["lines"])
	assert.Equal(t, false, body["checking_out"])

	// stock was decremented server-side
	got, err := f.catalog.GetProduct(t.Context(), f.product.ID)
	require.NoError(t, err)
	assert.Zero(t, got.StockQty)
}

func TestCheckout_EmptyCart(t *testing.T) {
	f := newFixture(t)
	cartID := f.openCart(t)

	resp, body := f.do(t, http.MethodPost, "/carts/"+cartID+"/checkout", nil)
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, body["message"], "empty")
}

func TestCheckout_SaleRejectedKeepsCart(t *testing.T) {
	f := newFixture(t)
	cartID := f.openCart(t)

	addBody := map[string]string{"product_id": f.product.ID.String()}
	resp, _ := f.do(t, http.MethodPost, "/carts/"+cartID+"/items", addBody)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	rejection := port.SaleRejected("insufficient stock for Espresso Beans 1kg: 0 left, 1 requested")
	f.processor.reject = &rejection

	resp, body := f.do(t, http.MethodPost, "/carts/"+cartID+"/checkout", nil)
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, rejection.Reason, body["message"], "rejection reason is surfaced verbatim")

	resp, body = f.do(t, http.MethodGet, "/carts/"+cartID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, body["lines"].([]any), 1)
}

func TestCart_UnknownSession(t *testing.T) {
	f := newFixture(t)

	resp, _ := f.do(t, http.MethodGet, "/carts/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCart_SetQuantityAndRemove(t *testing.T) {
	f := newFixture(t)
	cartID := f.openCart(t)

	addBody := map[string]string{"product_id": f.product.ID.String()}
	resp, _ := f.do(t, http.MethodPost, "/carts/"+cartID+"/items", addBody)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	itemPath := "/carts/" + cartID + "/items/" + f.product.ID.String()

	resp, body := f.do(t, http.MethodPut, itemPath, map[string]int{"quantity": 2})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(2), body["lines"].([]any)[0].(map[string]any)["quantity"])

	resp, body = f.do(t, http.MethodPut, itemPath, map[string]int{"quantity": 3})
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, body = f.do(t, http.MethodDelete, itemPath, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, body["lines"])
}

func TestDirectSale(t *testing.T) {
	f := newFixture(t)

	saleBody := map[string]any{
		"payment_type": "CARD",
		"items": []map[string]any{
			{
				"product_id": f.product.ID.String(),
				"quantity":   1,
				"unit_price": map[string]any{"amount": "10.00", "currency": "USD"},
			},
		},
		"total": map[string]any{"amount": "10.00", "currency": "USD"},
	}

	resp, body := f.do(t, http.MethodPost, "/sales", saleBody)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "CARD", body["payment_type"])
	assert.NotEmpty(t, body["invoice_number"])
}

func TestSettings(t *testing.T) {
	f := newFixture(t)

	resp, body := f.do(t, http.MethodGet, "/settings/currency", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "USD", body["value"])

	resp, body = f.do(t, http.MethodPut, "/settings/store_name", map[string]string{"value": "Corner Shop"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Corner Shop", body["value"])
}

func TestDailySalesReport(t *testing.T) {
	f := newFixture(t)
	cartID := f.openCart(t)

	addBody := map[string]string{"product_id": f.product.ID.String()}
	resp, _ := f.do(t, http.MethodPost, "/carts/"+cartID+"/items", addBody)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = f.do(t, http.MethodPost, "/carts/"+cartID+"/checkout", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := f.do(t, http.MethodGet, "/reports/daily-sales", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	summary := body["summary"].(map[string]any)
	assert.Equal(t, float64(1), summary["sale_count"])
	require.NotEmpty(t, body["by_hour"])
	assert.Contains(t, body["by_payment_type"], "CASH")
}

func TestDashboardStats(t *testing.T) {
	f := newFixture(t)

	resp, body := f.do(t, http.MethodGet, "/dashboard/stats", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(1), body["total_products"])
	assert.Equal(t, float64(1), body["low_stock_products"], "stock of 2 is at or below the threshold of 5")
}
