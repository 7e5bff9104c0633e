package domain

import (
	"time"

	"github.com/google/uuid"
)

type SaleStatus string

const (
	SaleCompleted SaleStatus = "COMPLETED"
	SaleCancelled SaleStatus = "CANCELLED"
	SaleRefunded  SaleStatus = "REFUNDED"
)

type Sale struct {
	ID            uuid.UUID
	InvoiceNumber string
	CustomerID    *uuid.UUID
	PaymentType   PaymentType
	Items         []SaleItem
	Total         Money
	Status        SaleStatus
	SaleDate      time.Time
}

type SaleItem struct {
	ProductID uuid.UUID
	Name      string
	Quantity  int
	UnitPrice Money
}

func (s Sale) ItemCount() int {
	var n int
	for _, item := range s.Items {
		n += item.Quantity
	}
	return n
}
