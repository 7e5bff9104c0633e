// Package cart holds the in-memory checkout engine behind a point of sale
// terminal. The engine owns a single ephemeral cart: one line per product,
// quantities capped by the stock known at the time the caller handed the
// product over, prices captured at add time. Server-side stock remains the
// final authority; an optimistic cart that the sales processor rejects is
// kept intact so the operator can adjust and retry.
package cart

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/currency"

	"github.com/salespoint/pos/internal/domain"
)

// CheckoutFunc submits a finalized cart to the sales system and returns the
// confirmed sale. It is supplied by the caller, typically backed by the
// sales service or a remote console client.
type CheckoutFunc func(ctx context.Context, req domain.CheckoutRequest) (domain.Sale, error)

// line pairs the exposed cart line with the stock bound captured from the
// product snapshot the caller supplied.
type line struct {
	domain.CartLine
	stockQty int
}

// Engine maintains cart state and guarantees it can never represent an
// over-sell. All methods are safe for concurrent use; the same mutex that
// makes them so also keeps mutations out of an in-flight checkout.
type Engine struct {
	mu sync.Mutex

	unit        currency.Unit
	lines       []line
	customerID  *uuid.UUID
	paymentType domain.PaymentType
	checkingOut bool

	now func() time.Time
}

func New(unit currency.Unit) *Engine {
	return &Engine{
		unit:        unit,
		paymentType: domain.DefaultPaymentType,
		now:         time.Now,
	}
}

// Add puts one unit of the product into the cart. A new line starts at
// quantity 1 with the product's current price; an existing line is bumped by
// one, subject to the stock cap. The stock bound of an existing line is
// refreshed from the snapshot the caller passed in.
func (e *Engine) Add(p domain.Product) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.checkingOut {
		return ErrCheckoutInFlight
	}
	if !p.Sellable() {
		return ErrProductUnavailable
	}
	if p.UnitPrice.Currency.String() != e.unit.String() {
		return ErrCurrencyMismatch
	}

	if i := e.find(p.ID); i >= 0 {
		e.lines[i].stockQty = p.StockQty
		if e.lines[i].Quantity+1 > p.StockQty {
			return ErrStockExceeded
		}
		e.lines[i].Quantity++
		return nil
	}

	e.lines = append(e.lines, line{
		CartLine: domain.CartLine{
			ProductID: p.ID,
			Name:      p.Name,
			UnitPrice: p.UnitPrice,
			Quantity:  1,
			AddedAt:   e.now(),
		},
		stockQty: p.StockQty,
	})
	return nil
}

// SetQuantity updates an existing line. A quantity of zero or less removes
// the line; a quantity above the product's stock is rejected and the line is
// left unchanged.
func (e *Engine) SetQuantity(productID uuid.UUID, qty int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.checkingOut {
		return ErrCheckoutInFlight
	}

	i := e.find(productID)
	if i < 0 {
		return ErrLineNotFound
	}
	if qty <= 0 {
		e.lines = append(e.lines[:i], e.lines[i+1:]...)
		return nil
	}
	if qty > e.lines[i].stockQty {
		return ErrStockExceeded
	}
	e.lines[i].Quantity = qty
	return nil
}

// Remove drops the line if present; removing an absent product is a no-op.
func (e *Engine) Remove(productID uuid.UUID) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.checkingOut {
		return ErrCheckoutInFlight
	}
	if i := e.find(productID); i >= 0 {
		e.lines = append(e.lines[:i], e.lines[i+1:]...)
	}
	return nil
}

// Clear empties the cart and resets the customer and payment selections.
func (e *Engine) Clear() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.checkingOut {
		return ErrCheckoutInFlight
	}
	e.clearLocked()
	return nil
}

func (e *Engine) SetCustomer(customerID *uuid.UUID) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.checkingOut {
		return ErrCheckoutInFlight
	}
	e.customerID = customerID
	return nil
}

func (e *Engine) SetPaymentType(pt domain.PaymentType) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.checkingOut {
		return ErrCheckoutInFlight
	}
	if !domain.ValidPaymentType(pt) {
		return ErrInvalidPaymentType
	}
	e.paymentType = pt
	return nil
}

// Total is the exact decimal sum of unit price times quantity over all
// lines, rounded to the currency's minor unit. An empty cart totals zero.
func (e *Engine) Total() domain.Money {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.totalLocked()
}

func (e *Engine) CheckingOut() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.checkingOut
}

// Snapshot returns a copy of the current cart state for rendering.
func (e *Engine) Snapshot() domain.CartSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	lines := make([]domain.CartLine, len(e.lines))
	for i, l := range e.lines {
		lines[i] = l.CartLine
	}
	return domain.CartSnapshot{
		Lines:       lines,
		CustomerID:  e.customerID,
		PaymentType: e.paymentType,
		Total:       e.totalLocked(),
		CheckingOut: e.checkingOut,
	}
}

// BuildCheckoutRequest snapshots the cart into an immutable request without
// mutating it. It fails with ErrEmptyCart when there is nothing to sell.
func (e *Engine) BuildCheckoutRequest() (domain.CheckoutRequest, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.buildRequestLocked()
}

// Checkout builds the request, submits it through fn and clears the cart
// once fn confirms success. On failure the cart is left untouched and the
// collaborator's error is returned as-is, so a rejection message can be
// surfaced verbatim. Mutations arriving while fn runs are rejected with
// ErrCheckoutInFlight.
func (e *Engine) Checkout(ctx context.Context, fn CheckoutFunc) (domain.Sale, error) {
	e.mu.Lock()
	if e.checkingOut {
		e.mu.Unlock()
		return domain.Sale{}, ErrCheckoutInFlight
	}
	req, err := e.buildRequestLocked()
	if err != nil {
		e.mu.Unlock()
		return domain.Sale{}, err
	}
	e.checkingOut = true
	e.mu.Unlock()

	sale, err := fn(ctx, req)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.checkingOut = false
	if err != nil {
		return domain.Sale{}, err
	}
	e.clearLocked()
	return sale, nil
}

func (e *Engine) find(productID uuid.UUID) int {
	for i, l := range e.lines {
		if l.ProductID == productID {
			return i
		}
	}
	return -1
}

func (e *Engine) totalLocked() domain.Money {
	total := domain.ZeroMoney(e.unit)
	for _, l := range e.lines {
		total = total.Add(l.Subtotal())
	}
	return total.Round()
}

func (e *Engine) buildRequestLocked() (domain.CheckoutRequest, error) {
	if len(e.lines) == 0 {
		return domain.CheckoutRequest{}, ErrEmptyCart
	}

	items := make([]domain.CheckoutItem, len(e.lines))
	for i, l := range e.lines {
		items[i] = domain.CheckoutItem{
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
		}
	}
	return domain.CheckoutRequest{
		CustomerID:  e.customerID,
		PaymentType: e.paymentType,
		Items:       items,
		Total:       e.totalLocked(),
	}, nil
}

func (e *Engine) clearLocked() {
	e.lines = nil
	e.customerID = nil
	e.paymentType = domain.DefaultPaymentType
}
