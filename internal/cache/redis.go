package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"

	"github.com/salespoint/pos/internal/domain"
)

const catalogKey = "catalog:products"

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{
		client:  client,
		baseTTL: 5 * time.Minute,
	}
}

type RedisCache struct {
	client  *redis.Client
	baseTTL time.Duration
}

// cachedProduct flattens Money for JSON; currency.Unit has no marshaler.
type cachedProduct struct {
	ID            uuid.UUID       `json:"id"`
	Name          string          `json:"name"`
	Barcode       string          `json:"barcode"`
	PriceAmount   decimal.Decimal `json:"price_amount"`
	PriceCurrency string          `json:"price_currency"`
	StockQty      int             `json:"stock_qty"`
	Status        string          `json:"status"`
}

func (r *RedisCache) Get(ctx context.Context) ([]domain.Product, error) {
	data, err := r.client.Get(ctx, catalogKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var cached []cachedProduct
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, fmt.Errorf("unmarshal catalog failed: %w", err)
	}

	products := make([]domain.Product, 0, len(cached))
	for _, c := range cached {
		parsedCurrency, err := currency.ParseISO(c.PriceCurrency)
		if err != nil {
			return nil, fmt.Errorf("currency[%s] is not valid: %w", c.PriceCurrency, err)
		}
		products = append(products, domain.Product{
			ID:        c.ID,
			Name:      c.Name,
			Barcode:   c.Barcode,
			UnitPrice: domain.NewMoney(c.PriceAmount, parsedCurrency),
			StockQty:  c.StockQty,
			Status:    domain.ProductStatus(c.Status),
		})
	}
	return products, nil
}

func (r *RedisCache) Set(ctx context.Context, products []domain.Product) error {
	cached := make([]cachedProduct, 0, len(products))
	for _, p := range products {
		cached = append(cached, cachedProduct{
			ID:            p.ID,
			Name:          p.Name,
			Barcode:       p.Barcode,
			PriceAmount:   p.UnitPrice.Amount,
			PriceCurrency: p.UnitPrice.Currency.String(),
			StockQty:      p.StockQty,
			Status:        string(p.Status),
		})
	}

	data, err := json.Marshal(cached)
	if err != nil {
		return fmt.Errorf("marshal catalog failed: %w", err)
	}

	jitter := time.Duration(rand.Intn(30)) * time.Second
	if err := r.client.Set(ctx, catalogKey, data, r.baseTTL+jitter).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *RedisCache) Invalidate(ctx context.Context) error {
	if err := r.client.Del(ctx, catalogKey).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}
