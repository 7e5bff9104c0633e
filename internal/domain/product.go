package domain

import (
	"time"

	"github.com/google/uuid"
)

type ProductStatus string

const (
	ProductActive   ProductStatus = "ACTIVE"
	ProductInactive ProductStatus = "INACTIVE"
)

type Product struct {
	ID        uuid.UUID
	Name      string
	Barcode   string
	UnitPrice Money
	StockQty  int
	Status    ProductStatus

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Sellable reports whether the product may be added to a cart.
func (p Product) Sellable() bool {
	return p.Status == ProductActive && p.StockQty > 0
}
