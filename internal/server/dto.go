package server

import (
	"time"

	"github.com/google/uuid"

	"github.com/salespoint/pos/internal/domain"
)

type productJSON struct {
	ID        uuid.UUID    `json:"id"`
	Name      string       `json:"name"`
	Barcode   string       `json:"barcode,omitempty"`
	UnitPrice domain.Money `json:"unit_price"`
	StockQty  int          `json:"stock_qty"`
	Status    string       `json:"status"`
}

func toProductJSON(p domain.Product) productJSON {
	return productJSON{
		ID:        p.ID,
		Name:      p.Name,
		Barcode:   p.Barcode,
		UnitPrice: p.UnitPrice,
		StockQty:  p.StockQty,
		Status:    string(p.Status),
	}
}

type customerJSON struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email,omitempty"`
	Phone string    `json:"phone,omitempty"`
}

type cartLineJSON struct {
	ProductID uuid.UUID    `json:"product_id"`
	Name      string       `json:"name"`
	UnitPrice domain.Money `json:"unit_price"`
	Quantity  int          `json:"quantity"`
	Subtotal  domain.Money `json:"subtotal"`
}

type cartJSON struct {
	Lines       []cartLineJSON `json:"lines"`
	CustomerID  *uuid.UUID     `json:"customer_id,omitempty"`
	PaymentType string         `json:"payment_type"`
	Total       domain.Money   `json:"total"`
	CheckingOut bool           `json:"checking_out"`
}

func toCartJSON(snap domain.CartSnapshot) cartJSON {
	lines := make([]cartLineJSON, len(snap.Lines))
	for i, l := range snap.Lines {
		lines[i] = cartLineJSON{
			ProductID: l.ProductID,
			Name:      l.Name,
			UnitPrice: l.UnitPrice,
			Quantity:  l.Quantity,
			Subtotal:  l.Subtotal().Round(),
		}
	}
	return cartJSON{
		Lines:       lines,
		CustomerID:  snap.CustomerID,
		PaymentType: string(snap.PaymentType),
		Total:       snap.Total,
		CheckingOut: snap.CheckingOut,
	}
}

type checkoutItemJSON struct {
	ProductID uuid.UUID    `json:"product_id"`
	Quantity  int          `json:"quantity"`
	UnitPrice domain.Money `json:"unit_price"`
}

type checkoutRequestJSON struct {
	CustomerID  *uuid.UUID         `json:"customer_id,omitempty"`
	PaymentType string             `json:"payment_type"`
	Items       []checkoutItemJSON `json:"items"`
	Total       domain.Money       `json:"total"`
}

func (r checkoutRequestJSON) toDomain() domain.CheckoutRequest {
	items := make([]domain.CheckoutItem, len(r.Items))
	for i, item := range r.Items {
		items[i] = domain.CheckoutItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		}
	}
	return domain.CheckoutRequest{
		CustomerID:  r.CustomerID,
		PaymentType: domain.PaymentType(r.PaymentType),
		Items:       items,
		Total:       r.Total,
	}
}

type saleItemJSON struct {
	ProductID uuid.UUID    `json:"product_id"`
	Name      string       `json:"name"`
	Quantity  int          `json:"quantity"`
	UnitPrice domain.Money `json:"unit_price"`
}

type saleJSON struct {
	ID            uuid.UUID      `json:"id"`
	InvoiceNumber string         `json:"invoice_number"`
	CustomerID    *uuid.UUID     `json:"customer_id,omitempty"`
	PaymentType   string         `json:"payment_type"`
	Items         []saleItemJSON `json:"items"`
	Total         domain.Money   `json:"total"`
	Status        string         `json:"status"`
	SaleDate      time.Time      `json:"sale_date"`
}

func toSaleJSON(s domain.Sale) saleJSON {
	items := make([]saleItemJSON, len(s.Items))
	for i, item := range s.Items {
		items[i] = saleItemJSON{
			ProductID: item.ProductID,
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		}
	}
	return saleJSON{
		ID:            s.ID,
		InvoiceNumber: s.InvoiceNumber,
		CustomerID:    s.CustomerID,
		PaymentType:   string(s.PaymentType),
		Items:         items,
		Total:         s.Total,
		Status:        string(s.Status),
		SaleDate:      s.SaleDate,
	}
}

func toSalesJSON(sales []domain.Sale) []saleJSON {
	out := make([]saleJSON, len(sales))
	for i, s := range sales {
		out[i] = toSaleJSON(s)
	}
	return out
}
