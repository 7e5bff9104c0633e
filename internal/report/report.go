// Package report turns sale and catalog slices into the aggregates behind
// the dashboard: revenue by hour, revenue by payment type, daily summary,
// top sellers and inventory totals. All money math is exact decimal; only
// completed sales count toward revenue.
package report

import (
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"

	"github.com/salespoint/pos/internal/domain"
)

type HourlyRevenue struct {
	Hour    int          `json:"hour"`
	Revenue domain.Money `json:"revenue"`
	Sales   int          `json:"sales"`
}

// SalesByHour buckets completed sales by the hour of their sale date,
// ascending. Hours without sales are omitted.
func SalesByHour(sales []domain.Sale, unit currency.Unit) []HourlyRevenue {
	byHour := make(map[int]*HourlyRevenue)
	for _, sale := range sales {
		if sale.Status != domain.SaleCompleted {
			continue
		}
		hour := sale.SaleDate.Hour()
		bucket, ok := byHour[hour]
		if !ok {
			bucket = &HourlyRevenue{Hour: hour, Revenue: domain.ZeroMoney(unit)}
			byHour[hour] = bucket
		}
		bucket.Revenue = bucket.Revenue.Add(sale.Total)
		bucket.Sales++
	}

	buckets := make([]HourlyRevenue, 0, len(byHour))
	for _, bucket := range byHour {
		bucket.Revenue = bucket.Revenue.Round()
		buckets = append(buckets, *bucket)
	}
	sort.Slice(buckets, func(i, j int) bool { return buckets[i].Hour < buckets[j].Hour })
	return buckets
}

// RevenueByPaymentType sums completed sale totals per payment type.
func RevenueByPaymentType(sales []domain.Sale, unit currency.Unit) map[domain.PaymentType]domain.Money {
	revenue := make(map[domain.PaymentType]domain.Money)
	for _, sale := range sales {
		if sale.Status != domain.SaleCompleted {
			continue
		}
		current, ok := revenue[sale.PaymentType]
		if !ok {
			current = domain.ZeroMoney(unit)
		}
		revenue[sale.PaymentType] = current.Add(sale.Total)
	}
	for pt, m := range revenue {
		revenue[pt] = m.Round()
	}
	return revenue
}

type DailySummary struct {
	Revenue       domain.Money `json:"revenue"`
	SaleCount     int          `json:"sale_count"`
	ItemsSold     int          `json:"items_sold"`
	AverageTicket domain.Money `json:"average_ticket"`
}

func Summarize(sales []domain.Sale, unit currency.Unit) DailySummary {
	summary := DailySummary{
		Revenue:       domain.ZeroMoney(unit),
		AverageTicket: domain.ZeroMoney(unit),
	}
	for _, sale := range sales {
		if sale.Status != domain.SaleCompleted {
			continue
		}
		summary.Revenue = summary.Revenue.Add(sale.Total)
		summary.SaleCount++
		summary.ItemsSold += sale.ItemCount()
	}
	summary.Revenue = summary.Revenue.Round()
	if summary.SaleCount > 0 {
		avg := summary.Revenue.Amount.Div(decimal.NewFromInt(int64(summary.SaleCount)))
		summary.AverageTicket = domain.NewMoney(avg, unit).Round()
	}
	return summary
}

type ProductSales struct {
	ProductID    uuid.UUID    `json:"product_id"`
	Name         string       `json:"name"`
	QuantitySold int          `json:"quantity_sold"`
	Revenue      domain.Money `json:"revenue"`
}

// TopProducts ranks products by quantity sold, revenue breaking ties,
// and returns at most limit entries.
func TopProducts(sales []domain.Sale, unit currency.Unit, limit int) []ProductSales {
	byProduct := make(map[uuid.UUID]*ProductSales)
	for _, sale := range sales {
		if sale.Status != domain.SaleCompleted {
			continue
		}
		for _, item := range sale.Items {
			entry, ok := byProduct[item.ProductID]
			if !ok {
				entry = &ProductSales{
					ProductID: item.ProductID,
					Name:      item.Name,
					Revenue:   domain.ZeroMoney(unit),
				}
				byProduct[item.ProductID] = entry
			}
			entry.QuantitySold += item.Quantity
			entry.Revenue = entry.Revenue.Add(item.UnitPrice.Mul(item.Quantity))
		}
	}

	ranked := make([]ProductSales, 0, len(byProduct))
	for _, entry := range byProduct {
		entry.Revenue = entry.Revenue.Round()
		ranked = append(ranked, *entry)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].QuantitySold != ranked[j].QuantitySold {
			return ranked[i].QuantitySold > ranked[j].QuantitySold
		}
		return ranked[i].Revenue.Amount.GreaterThan(ranked[j].Revenue.Amount)
	})

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

type InventorySummary struct {
	ProductCount int          `json:"product_count"`
	ActiveCount  int          `json:"active_count"`
	TotalUnits   int          `json:"total_units"`
	RetailValue  domain.Money `json:"retail_value"`
	LowStock     int          `json:"low_stock"`
}

// SummarizeInventory values the catalog at retail price and counts active
// products at or below the low stock threshold.
func SummarizeInventory(products []domain.Product, lowStockThreshold int, unit currency.Unit) InventorySummary {
	summary := InventorySummary{RetailValue: domain.ZeroMoney(unit)}
	for _, p := range products {
		summary.ProductCount++
		summary.TotalUnits += p.StockQty
		summary.RetailValue = summary.RetailValue.Add(p.UnitPrice.Mul(p.StockQty))
		if p.Status == domain.ProductActive {
			summary.ActiveCount++
			if p.StockQty <= lowStockThreshold {
				summary.LowStock++
			}
		}
	}
	summary.RetailValue = summary.RetailValue.Round()
	return summary
}
