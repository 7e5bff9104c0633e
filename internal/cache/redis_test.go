package cache_test

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/currency"

	"github.com/salespoint/pos/internal/cache"
	"github.com/salespoint/pos/internal/domain"
)

func newTestCache(t *testing.T) *cache.RedisCache {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return cache.NewRedisCache(client)
}

func TestGet_Miss(t *testing.T) {
	c := newTestCache(t)

	_, err := c.Get(t.Context())
	require.ErrorIs(t, err, cache.ErrCacheMiss)
}

func TestSetAndGet_RoundTrip(t *testing.T) {
	c := newTestCache(t)
	ctx := t.Context()

	products := []domain.Product{
		{
			ID:        uuid.New(),
			Name:      "Espresso Beans 1kg",
			Barcode:   "4006381333931",
			UnitPrice: domain.NewMoney(decimal.RequireFromString("18.90"), currency.USD),
			StockQty:  12,
			Status:    domain.ProductActive,
		},
		{
			ID:        uuid.New(),
			Name:      "Paper Cups 50pc",
			UnitPrice: domain.NewMoney(decimal.RequireFromString("3.25"), currency.USD),
			StockQty:  0,
			Status:    domain.ProductInactive,
		},
	}

	require.NoError(t, c.Set(ctx, products))

	got, err := c.Get(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)

	for i := range products {
		assert.Equal(t, products[i].ID, got[i].ID)
		assert.Equal(t, products[i].Name, got[i].Name)
		assert.Equal(t, products[i].StockQty, got[i].StockQty)
		assert.Equal(t, products[i].Status, got[i].Status)
		assert.True(t, got[i].UnitPrice.Amount.Equal(products[i].UnitPrice.Amount))
		assert.Equal(t, "USD", got[i].UnitPrice.Currency.String())
	}
}

func TestInvalidate(t *testing.T) {
	c := newTestCache(t)
	ctx := t.Context()

	require.NoError(t, c.Set(ctx, []domain.Product{{ID: uuid.New(), Name: "x",
		UnitPrice: domain.NewMoney(decimal.New(1, 0), currency.USD), Status: domain.ProductActive}}))

	require.NoError(t, c.Invalidate(ctx))

	_, err := c.Get(ctx)
	require.ErrorIs(t, err, cache.ErrCacheMiss)
}

func TestInvalidate_EmptyKeyIsNoError(t *testing.T) {
	c := newTestCache(t)

	require.NoError(t, c.Invalidate(t.Context()))
}
