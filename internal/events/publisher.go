package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/salespoint/pos/internal/domain"
)

// MessageWriter is the slice of kafka.Writer the publisher needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

func NewWriter(brokers []string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireAll,
	}
}

// Publisher emits advisory events about completed sales and products running
// low. Consumers drive dashboards and notifications; a lost event never
// invalidates a sale.
type Publisher struct {
	writer MessageWriter
	topic  string
}

func NewPublisher(writer MessageWriter, topic string) *Publisher {
	return &Publisher{writer: writer, topic: topic}
}

type saleCompletedEvent struct {
	Type          string             `json:"type"`
	SaleID        uuid.UUID          `json:"sale_id"`
	InvoiceNumber string             `json:"invoice_number"`
	CustomerID    *uuid.UUID         `json:"customer_id,omitempty"`
	PaymentType   domain.PaymentType `json:"payment_type"`
	TotalAmount   string             `json:"total_amount"`
	TotalCurrency string             `json:"total_currency"`
	ItemCount     int                `json:"item_count"`
	SaleDate      time.Time          `json:"sale_date"`
}

type lowStockEvent struct {
	Type      string    `json:"type"`
	ProductID uuid.UUID `json:"product_id"`
	Name      string    `json:"name"`
	StockQty  int       `json:"stock_qty"`
}

func (p *Publisher) SaleCompleted(ctx context.Context, sale domain.Sale) error {
	event := saleCompletedEvent{
		Type:          "sale.completed",
		SaleID:        sale.ID,
		InvoiceNumber: sale.InvoiceNumber,
		CustomerID:    sale.CustomerID,
		PaymentType:   sale.PaymentType,
		TotalAmount:   sale.Total.Amount.String(),
		TotalCurrency: sale.Total.Currency.String(),
		ItemCount:     sale.ItemCount(),
		SaleDate:      sale.SaleDate,
	}
	return p.publish(ctx, sale.ID.String(), event)
}

func (p *Publisher) LowStock(ctx context.Context, product domain.Product) error {
	event := lowStockEvent{
		Type:      "product.low_stock",
		ProductID: product.ID,
		Name:      product.Name,
		StockQty:  product.StockQty,
	}
	return p.publish(ctx, product.ID.String(), event)
}

func (p *Publisher) publish(ctx context.Context, key string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("json.Marshal: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Topic: p.topic,
		Key:   []byte(key),
		Value: payload,
	})
	if err != nil {
		return fmt.Errorf("writer.WriteMessages: %w", err)
	}
	return nil
}
