package domain

import (
	"time"

	"github.com/google/uuid"
)

type PaymentType string

const (
	PaymentCash   PaymentType = "CASH"
	PaymentCard   PaymentType = "CARD"
	PaymentMobile PaymentType = "MOBILE_PAYMENT"
	PaymentCredit PaymentType = "CREDIT"
)

// DefaultPaymentType is what a fresh or cleared cart falls back to.
const DefaultPaymentType = PaymentCash

func ValidPaymentType(pt PaymentType) bool {
	switch pt {
	case PaymentCash, PaymentCard, PaymentMobile, PaymentCredit:
		return true
	}
	return false
}

// CartLine is one product in a cart. UnitPrice is captured when the line is
// created; later catalog price changes do not touch existing lines.
type CartLine struct {
	ProductID uuid.UUID
	Name      string
	UnitPrice Money
	Quantity  int

	AddedAt time.Time
}

func (l CartLine) Subtotal() Money {
	return l.UnitPrice.Mul(l.Quantity)
}

// CheckoutItem is one line of a CheckoutRequest.
type CheckoutItem struct {
	ProductID uuid.UUID
	Quantity  int
	UnitPrice Money
}

// CheckoutRequest is an immutable snapshot of a cart taken at submission
// time. It is built once per checkout attempt and never mutated.
type CheckoutRequest struct {
	CustomerID  *uuid.UUID
	PaymentType PaymentType
	Items       []CheckoutItem
	Total       Money
}

// CartSnapshot is the read-only view of a cart exposed to callers.
type CartSnapshot struct {
	Lines       []CartLine
	CustomerID  *uuid.UUID
	PaymentType PaymentType
	Total       Money
	CheckingOut bool
}
