package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/text/currency"

	"github.com/salespoint/pos/internal/cart"
	"github.com/salespoint/pos/internal/domain"
	"github.com/salespoint/pos/internal/port"
	"github.com/salespoint/pos/internal/repository"
	"github.com/salespoint/pos/internal/report"
	"github.com/salespoint/pos/internal/service"
	"github.com/salespoint/pos/internal/session"
)

type Handler struct {
	log       *zap.Logger
	catalog   *service.CatalogService
	customers port.CustomerDirectory
	sales     *service.SalesService
	settings  port.SettingsStore
	carts     *session.Registry

	unit              currency.Unit
	lowStockThreshold int
}

func NewHandler(log *zap.Logger, catalog *service.CatalogService, customers port.CustomerDirectory,
	sales *service.SalesService, settings port.SettingsStore, carts *session.Registry,
	unit currency.Unit, lowStockThreshold int) *Handler {
	return &Handler{
		log:               log,
		catalog:           catalog,
		customers:         customers,
		sales:             sales,
		settings:          settings,
		carts:             carts,
		unit:              unit,
		lowStockThreshold: lowStockThreshold,
	}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/products", h.listProducts)
	r.Get("/products/{productID}", h.getProduct)
	r.Get("/customers", h.listCustomers)

	r.Route("/sales", func(r chi.Router) {
		r.Get("/", h.listSales)
		r.Post("/", h.createSale)
		r.Get("/today", h.listTodaySales)
	})

	r.Route("/reports", func(r chi.Router) {
		r.Get("/daily-sales", h.dailySalesReport)
		r.Get("/inventory-summary", h.inventorySummary)
		r.Get("/top-selling", h.topSelling)
	})
	r.Get("/dashboard/stats", h.dashboardStats)

	r.Route("/settings", func(r chi.Router) {
		r.Get("/", h.allSettings)
		r.Get("/{key}", h.getSetting)
		r.Put("/{key}", h.putSetting)
	})

	r.Route("/carts", func(r chi.Router) {
		r.Post("/", h.openCart)
		r.Route("/{cartID}", func(r chi.Router) {
			r.Get("/", h.getCart)
			r.Delete("/", h.closeCart)
			r.Post("/items", h.addCartItem)
			r.Put("/items/{productID}", h.setCartQuantity)
			r.Delete("/items/{productID}", h.removeCartItem)
			r.Post("/clear", h.clearCart)
			r.Post("/customer", h.setCartCustomer)
			r.Post("/payment", h.setCartPayment)
			r.Post("/checkout", h.checkoutCart)
		})
	})

	return r
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	var (
		products []domain.Product
		err      error
	)
	if r.URL.Query().Get("sellable") == "true" {
		products, err = h.catalog.SellableProducts(r.Context())
	} else {
		products, err = h.catalog.ListProducts(r.Context())
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	out := make([]productJSON, len(products))
	for i, p := range products {
		out[i] = toProductJSON(p)
	}
	h.writeJSON(w, http.StatusOK, out)
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "productID"))
	if err != nil {
		h.writeMessage(w, http.StatusBadRequest, "invalid product id")
		return
	}

	product, err := h.catalog.GetProduct(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toProductJSON(product))
}

func (h *Handler) listCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := h.customers.ListCustomers(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	out := make([]customerJSON, len(customers))
	for i, c := range customers {
		out[i] = customerJSON{ID: c.ID, Name: c.Name, Email: c.Email, Phone: c.Phone}
	}
	h.writeJSON(w, http.StatusOK, out)
}

func (h *Handler) listSales(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseRange(r)
	if err != nil {
		h.writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	sales, err := h.sales.ListSalesBetween(r.Context(), from, to)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toSalesJSON(sales))
}

func (h *Handler) listTodaySales(w http.ResponseWriter, r *http.Request) {
	sales, err := h.sales.ListTodaySales(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toSalesJSON(sales))
}

// createSale is the direct path used by remote terminals that keep their
// cart locally; in-process carts go through the /carts checkout instead.
func (h *Handler) createSale(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequestJSON
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeMessage(w, http.StatusBadRequest, "invalid body")
		return
	}

	sale, err := h.sales.CreateSale(r.Context(), req.toDomain())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, toSaleJSON(sale))
}

func (h *Handler) dailySalesReport(w http.ResponseWriter, r *http.Request) {
	sales, err := h.sales.ListTodaySales(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"summary":         report.Summarize(sales, h.unit),
		"by_hour":         report.SalesByHour(sales, h.unit),
		"by_payment_type": report.RevenueByPaymentType(sales, h.unit),
	})
}

func (h *Handler) inventorySummary(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.ListProducts(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, report.SummarizeInventory(products, h.lowStockThreshold, h.unit))
}

func (h *Handler) topSelling(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			h.writeMessage(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}

	sales, err := h.sales.ListTodaySales(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, report.TopProducts(sales, h.unit, limit))
}

func (h *Handler) dashboardStats(w http.ResponseWriter, r *http.Request) {
	sales, err := h.sales.ListTodaySales(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	products, err := h.catalog.ListProducts(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	summary := report.Summarize(sales, h.unit)
	inventory := report.SummarizeInventory(products, h.lowStockThreshold, h.unit)
	h.writeJSON(w, http.StatusOK, map[string]any{
		"today_revenue":      summary.Revenue,
		"today_sales":        summary.SaleCount,
		"total_products":     inventory.ProductCount,
		"low_stock_products": inventory.LowStock,
	})
}

func (h *Handler) allSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.settings.AllSettings(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, settings)
}

func (h *Handler) getSetting(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	value, err := h.settings.GetSetting(r.Context(), key)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"key": key, "value": value})
}

func (h *Handler) putSetting(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Value string `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeMessage(w, http.StatusBadRequest, "invalid body")
		return
	}

	key := chi.URLParam(r, "key")
	if err := h.settings.PutSetting(r.Context(), key, body.Value); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"key": key, "value": body.Value})
}

func (h *Handler) openCart(w http.ResponseWriter, r *http.Request) {
	id, engine := h.carts.Open()
	h.writeJSON(w, http.StatusCreated, map[string]any{
		"cart_id": id,
		"cart":    toCartJSON(engine.Snapshot()),
	})
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	engine, ok := h.cartEngine(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, toCartJSON(engine.Snapshot()))
}

func (h *Handler) closeCart(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "cartID"))
	if err != nil {
		h.writeMessage(w, http.StatusBadRequest, "invalid cart id")
		return
	}
	h.carts.Close(id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) addCartItem(w http.ResponseWriter, r *http.Request) {
	engine, ok := h.cartEngine(w, r)
	if !ok {
		return
	}

	var body struct {
		ProductID uuid.UUID `json:"product_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeMessage(w, http.StatusBadRequest, "invalid body")
		return
	}

	product, err := h.catalog.GetProduct(r.Context(), body.ProductID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := engine.Add(product); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toCartJSON(engine.Snapshot()))
}

func (h *Handler) setCartQuantity(w http.ResponseWriter, r *http.Request) {
	engine, ok := h.cartEngine(w, r)
	if !ok {
		return
	}
	productID, err := uuid.Parse(chi.URLParam(r, "productID"))
	if err != nil {
		h.writeMessage(w, http.StatusBadRequest, "invalid product id")
		return
	}

	var body struct {
		Quantity int `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeMessage(w, http.StatusBadRequest, "invalid body")
		return
	}

	if err := engine.SetQuantity(productID, body.Quantity); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toCartJSON(engine.Snapshot()))
}

func (h *Handler) removeCartItem(w http.ResponseWriter, r *http.Request) {
	engine, ok := h.cartEngine(w, r)
	if !ok {
		return
	}
	productID, err := uuid.Parse(chi.URLParam(r, "productID"))
	if err != nil {
		h.writeMessage(w, http.StatusBadRequest, "invalid product id")
		return
	}

	if err := engine.Remove(productID); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toCartJSON(engine.Snapshot()))
}

func (h *Handler) clearCart(w http.ResponseWriter, r *http.Request) {
	engine, ok := h.cartEngine(w, r)
	if !ok {
		return
	}
	if err := engine.Clear(); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toCartJSON(engine.Snapshot()))
}

func (h *Handler) setCartCustomer(w http.ResponseWriter, r *http.Request) {
	engine, ok := h.cartEngine(w, r)
	if !ok {
		return
	}

	var body struct {
		CustomerID *uuid.UUID `json:"customer_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeMessage(w, http.StatusBadRequest, "invalid body")
		return
	}

	if err := engine.SetCustomer(body.CustomerID); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toCartJSON(engine.Snapshot()))
}

func (h *Handler) setCartPayment(w http.ResponseWriter, r *http.Request) {
	engine, ok := h.cartEngine(w, r)
	if !ok {
		return
	}

	var body struct {
		PaymentType string `json:"payment_type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeMessage(w, http.StatusBadRequest, "invalid body")
		return
	}

	if err := engine.SetPaymentType(domain.PaymentType(body.PaymentType)); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toCartJSON(engine.Snapshot()))
}

func (h *Handler) checkoutCart(w http.ResponseWriter, r *http.Request) {
	engine, ok := h.cartEngine(w, r)
	if !ok {
		return
	}

	sale, err := engine.Checkout(r.Context(), h.sales.CreateSale)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, toSaleJSON(sale))
}

func (h *Handler) cartEngine(w http.ResponseWriter, r *http.Request) (*cart.Engine, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "cartID"))
	if err != nil {
		h.writeMessage(w, http.StatusBadRequest, "invalid cart id")
		return nil, false
	}

	engine, err := h.carts.Get(id)
	if err != nil {
		h.writeError(w, r, err)
		return nil, false
	}
	return engine, true
}

func parseRange(r *http.Request) (time.Time, time.Time, error) {
	now := time.Now()
	from := now.Truncate(24 * time.Hour)
	to := from.Add(24 * time.Hour)

	var err error
	if raw := r.URL.Query().Get("from"); raw != "" {
		if from, err = time.Parse(time.RFC3339, raw); err != nil {
			return time.Time{}, time.Time{}, errors.New("invalid from timestamp")
		}
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		if to, err = time.Parse(time.RFC3339, raw); err != nil {
			return time.Time{}, time.Time{}, errors.New("invalid to timestamp")
		}
	}
	return from, to, nil
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error("response encode failed", zap.Error(err))
	}
}

func (h *Handler) writeMessage(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"message": message})
}

// writeError maps domain conditions onto HTTP statuses. Cart rejections are
// conflicts the terminal retries after adjusting; business rejections carry
// their reason verbatim for the operator.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var rejected port.SaleRejectedError

	switch {
	case errors.Is(err, cart.ErrStockExceeded),
		errors.Is(err, cart.ErrCheckoutInFlight):
		h.writeMessage(w, http.StatusConflict, err.Error())
	case errors.Is(err, cart.ErrEmptyCart),
		errors.Is(err, cart.ErrProductUnavailable),
		errors.Is(err, cart.ErrCurrencyMismatch),
		errors.Is(err, cart.ErrInvalidPaymentType):
		h.writeMessage(w, http.StatusUnprocessableEntity, err.Error())
	case errors.As(err, &rejected):
		h.writeMessage(w, http.StatusUnprocessableEntity, rejected.Reason)
	case errors.Is(err, cart.ErrLineNotFound),
		errors.Is(err, session.ErrSessionNotFound),
		errors.Is(err, repository.ErrProductNotFound),
		errors.Is(err, repository.ErrSettingNotFound):
		h.writeMessage(w, http.StatusNotFound, err.Error())
	default:
		h.log.Error("request failed",
			zap.String("path", r.URL.Path),
			zap.Error(err))
		h.writeMessage(w, http.StatusInternalServerError, "internal error")
	}
}
