package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"

	"github.com/salespoint/pos/internal/domain"
	"github.com/salespoint/pos/internal/port"
)

var ErrNotFound = errors.New("not found")

// Client talks to the admin console HTTP API on behalf of a remote terminal.
// It satisfies the same catalog and sales ports the in-process services do,
// so a terminal binary wires it in place of the repositories.
//
// Calls run through a circuit breaker: transport failures and 5xx responses
// trip it, business rejections (4xx) do not.
type Client struct {
	baseURL string
	httpc   *http.Client
	breaker *gobreaker.CircuitBreaker[apiResult]
}

var (
	_ port.ProductCatalog = (*Client)(nil)
	_ port.SalesProcessor = (*Client)(nil)
)

type apiResult struct {
	status int
	body   []byte
}

func New(baseURL string, httpc *http.Client) *Client {
	if httpc == nil {
		httpc = &http.Client{Timeout: 10 * time.Second}
	}

	breaker := gobreaker.NewCircuitBreaker[apiResult](gobreaker.Settings{
		Name:    "pos-api",
		Timeout: 10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	})

	return &Client{
		baseURL: baseURL,
		httpc:   httpc,
		breaker: breaker,
	}
}

type productPayload struct {
	ID        uuid.UUID    `json:"id"`
	Name      string       `json:"name"`
	Barcode   string       `json:"barcode"`
	UnitPrice domain.Money `json:"unit_price"`
	StockQty  int          `json:"stock_qty"`
	Status    string       `json:"status"`
}

func (p productPayload) toDomain() domain.Product {
	return domain.Product{
		ID:        p.ID,
		Name:      p.Name,
		Barcode:   p.Barcode,
		UnitPrice: p.UnitPrice,
		StockQty:  p.StockQty,
		Status:    domain.ProductStatus(p.Status),
	}
}

func (c *Client) ListProducts(ctx context.Context) ([]domain.Product, error) {
	res, err := c.do(ctx, http.MethodGet, "/products", nil)
	if err != nil {
		return nil, err
	}

	var payload []productPayload
	if err := json.Unmarshal(res.body, &payload); err != nil {
		return nil, fmt.Errorf("json.Unmarshal: %w", err)
	}

	products := make([]domain.Product, len(payload))
	for i, p := range payload {
		products[i] = p.toDomain()
	}
	return products, nil
}

func (c *Client) GetProduct(ctx context.Context, productID uuid.UUID) (domain.Product, error) {
	res, err := c.do(ctx, http.MethodGet, "/products/"+productID.String(), nil)
	if err != nil {
		return domain.Product{}, err
	}

	var payload productPayload
	if err := json.Unmarshal(res.body, &payload); err != nil {
		return domain.Product{}, fmt.Errorf("json.Unmarshal: %w", err)
	}
	return payload.toDomain(), nil
}

type checkoutItemPayload struct {
	ProductID uuid.UUID    `json:"product_id"`
	Quantity  int          `json:"quantity"`
	UnitPrice domain.Money `json:"unit_price"`
}

type checkoutRequestPayload struct {
	CustomerID  *uuid.UUID            `json:"customer_id,omitempty"`
	PaymentType string                `json:"payment_type"`
	Items       []checkoutItemPayload `json:"items"`
	Total       domain.Money          `json:"total"`
}

type saleItemPayload struct {
	ProductID uuid.UUID    `json:"product_id"`
	Name      string       `json:"name"`
	Quantity  int          `json:"quantity"`
	UnitPrice domain.Money `json:"unit_price"`
}

type salePayload struct {
	ID            uuid.UUID         `json:"id"`
	InvoiceNumber string            `json:"invoice_number"`
	CustomerID    *uuid.UUID        `json:"customer_id"`
	PaymentType   string            `json:"payment_type"`
	Items         []saleItemPayload `json:"items"`
	Total         domain.Money      `json:"total"`
	Status        string            `json:"status"`
	SaleDate      time.Time         `json:"sale_date"`
}

func (s salePayload) toDomain() domain.Sale {
	items := make([]domain.SaleItem, len(s.Items))
	for i, item := range s.Items {
		items[i] = domain.SaleItem{
			ProductID: item.ProductID,
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		}
	}
	return domain.Sale{
		ID:            s.ID,
		InvoiceNumber: s.InvoiceNumber,
		CustomerID:    s.CustomerID,
		PaymentType:   domain.PaymentType(s.PaymentType),
		Items:         items,
		Total:         s.Total,
		Status:        domain.SaleStatus(s.Status),
		SaleDate:      s.SaleDate,
	}
}

func (c *Client) CreateSale(ctx context.Context, req domain.CheckoutRequest) (domain.Sale, error) {
	items := make([]checkoutItemPayload, len(req.Items))
	for i, item := range req.Items {
		items[i] = checkoutItemPayload{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		}
	}
	body := checkoutRequestPayload{
		CustomerID:  req.CustomerID,
		PaymentType: string(req.PaymentType),
		Items:       items,
		Total:       req.Total,
	}

	res, err := c.do(ctx, http.MethodPost, "/sales", body)
	if err != nil {
		return domain.Sale{}, err
	}

	var payload salePayload
	if err := json.Unmarshal(res.body, &payload); err != nil {
		return domain.Sale{}, fmt.Errorf("json.Unmarshal: %w", err)
	}
	return payload.toDomain(), nil
}

func (c *Client) ListSalesBetween(ctx context.Context, from, to time.Time) ([]domain.Sale, error) {
	query := url.Values{
		"from": {from.Format(time.RFC3339)},
		"to":   {to.Format(time.RFC3339)},
	}
	return c.listSales(ctx, "/sales?"+query.Encode())
}

func (c *Client) ListTodaySales(ctx context.Context) ([]domain.Sale, error) {
	return c.listSales(ctx, "/sales/today")
}

func (c *Client) listSales(ctx context.Context, path string) ([]domain.Sale, error) {
	res, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var payload []salePayload
	if err := json.Unmarshal(res.body, &payload); err != nil {
		return nil, fmt.Errorf("json.Unmarshal: %w", err)
	}

	sales := make([]domain.Sale, len(payload))
	for i, s := range payload {
		sales[i] = s.toDomain()
	}
	return sales, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any) (apiResult, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return apiResult{}, fmt.Errorf("json.Encode: %w", err)
		}
	}

	res, err := c.breaker.Execute(func() (apiResult, error) {
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
		if err != nil {
			return apiResult{}, fmt.Errorf("http.NewRequest: %w", err)
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpc.Do(req)
		if err != nil {
			return apiResult{}, fmt.Errorf("httpc.Do: %w", err)
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return apiResult{}, fmt.Errorf("io.ReadAll: %w", err)
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			return apiResult{}, fmt.Errorf("server error: %s", resp.Status)
		}
		return apiResult{status: resp.StatusCode, body: raw}, nil
	})
	if err != nil {
		return apiResult{}, err
	}

	if res.status >= http.StatusBadRequest {
		return apiResult{}, apiError(res)
	}
	return res, nil
}

// apiError turns an error response back into the condition the server
// reported: 422 bodies carry a business rejection reason verbatim.
func apiError(res apiResult) error {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(res.body, &payload); err != nil || payload.Message == "" {
		return fmt.Errorf("unexpected status %d", res.status)
	}

	switch res.status {
	case http.StatusUnprocessableEntity:
		return port.SaleRejectedError{Reason: payload.Message}
	case http.StatusNotFound:
		return fmt.Errorf("%s: %w", payload.Message, ErrNotFound)
	default:
		return fmt.Errorf("status %d: %s", res.status, payload.Message)
	}
}
