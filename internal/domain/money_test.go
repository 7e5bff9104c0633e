package domain_test

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/currency"

	"github.com/salespoint/pos/internal/domain"
)

func TestMoney_Round(t *testing.T) {
	tests := []struct {
		name     string
		amount   string
		unit     currency.Unit
		expected string
	}{
		{name: "usd two decimals", amount: "10.005", unit: currency.USD, expected: "10.01"},
		{name: "usd half away from zero", amount: "0.375", unit: currency.USD, expected: "0.38"},
		{name: "usd already exact", amount: "4.50", unit: currency.USD, expected: "4.5"},
		{name: "jpy whole units", amount: "100.4", unit: currency.JPY, expected: "100"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m := domain.NewMoney(decimal.RequireFromString(tc.amount), tc.unit)
			assert.Equal(t, tc.expected, m.Round().Amount.String())
		})
	}
}

func TestMoney_MulKeepsExactness(t *testing.T) {
	m := domain.NewMoney(decimal.RequireFromString("0.1"), currency.USD)

	total := domain.ZeroMoney(currency.USD)
	for range 3 {
		total = total.Add(m)
	}

	assert.True(t, total.Amount.Equal(decimal.RequireFromString("0.3")),
		"no float drift summing 0.1 three times")
	assert.True(t, m.Mul(3).Amount.Equal(total.Amount))
}

func TestMoney_JSONRoundTrip(t *testing.T) {
	m := domain.NewMoney(decimal.RequireFromString("19.99"), currency.EUR)

	raw, err := json.Marshal(m)
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount":"19.99","currency":"EUR"}`, string(raw))

	var got domain.Money
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.True(t, m.Amount.Equal(got.Amount))
	assert.Equal(t, m.Currency, got.Currency)
}

func TestMoney_UnmarshalRejectsUnknownCurrency(t *testing.T) {
	var got domain.Money
	err := json.Unmarshal([]byte(`{"amount":"1.00","currency":"ZZZ"}`), &got)
	require.Error(t, err)
}
