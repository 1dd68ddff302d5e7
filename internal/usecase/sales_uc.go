package usecase

import (
	"context"
	"sort"
	"time"

	"github.com/phenrril/licores/internal/domain"
)

const dayLayout = "2006-01-02"

type ProductSales struct {
	SKU     string  `json:"sku"`
	Name    string  `json:"name"`
	Qty     int     `json:"qty"`
	Revenue float64 `json:"revenue"`
}

type DayPoint struct {
	Day     string  `json:"day"`
	Orders  int     `json:"orders"`
	Revenue float64 `json:"revenue"`
}

type SalesSummary struct {
	From             time.Time                `json:"from"`
	To               time.Time                `json:"to"`
	OrdersCount      int                      `json:"orders_count"`
	CancelledCount   int                      `json:"cancelled_count"`
	Revenue          float64                  `json:"revenue"`
	Tax              float64                  `json:"tax"`
	PaidTotal        float64                  `json:"paid_total"`
	AvgOrderValue    float64                  `json:"avg_order_value"`
	StatusCounts     map[string]int           `json:"status_counts"`
	UnitsByWarehouse map[domain.Warehouse]int `json:"units_by_warehouse"`
	TopProducts      []ProductSales           `json:"top_products"`
	Daily            []DayPoint               `json:"daily"`
}

// SalesUC calcula las cifras del tablero para un rango de fechas.
type SalesUC struct {
	Store domain.Store
	// TopN limita TopProducts; cero equivale a 10.
	TopN int
}

// Summary agrega los pedidos con fecha dentro de [from, to]. Los cancelados sólo
// cuentan en StatusCounts y CancelledCount.
func (uc *SalesUC) Summary(ctx context.Context, from, to time.Time) (*SalesSummary, error) {
	if from.After(to) {
		from, to = to, from
	}
	var (
		orders   []domain.Order
		invoices []domain.Invoice
	)
	err := uc.Store.WithinTx(ctx, func(r domain.Repos) error {
		var err error
		if orders, err = r.Orders.ListInRange(ctx, from, to); err != nil {
			return err
		}
		invoices, err = r.Invoices.ListInRange(ctx, from, to)
		return err
	})
	if err != nil {
		return nil, err
	}

	s := &SalesSummary{
		From:             from,
		To:               to,
		StatusCounts:     map[string]int{},
		UnitsByWarehouse: map[domain.Warehouse]int{},
	}
	products := map[string]*ProductSales{}
	days := map[string]*DayPoint{}
	for _, o := range orders {
		s.StatusCounts[string(o.Status)]++
		if o.Status == domain.OrderStatusCancelled {
			s.CancelledCount++
			continue
		}
		s.OrdersCount++
		s.Revenue += o.Total
		key := o.Date.Format(dayLayout)
		d, ok := days[key]
		if !ok {
			d = &DayPoint{Day: key}
			days[key] = d
		}
		d.Orders++
		d.Revenue += o.Total
		for _, it := range o.Items {
			s.UnitsByWarehouse[o.Warehouse] += it.Quantity
			ps, ok := products[it.SKU]
			if !ok {
				ps = &ProductSales{SKU: it.SKU, Name: it.ProductName}
				products[it.SKU] = ps
			}
			ps.Qty += it.Quantity
			ps.Revenue += it.LineTotal
		}
	}
	if s.OrdersCount > 0 {
		s.AvgOrderValue = s.Revenue / float64(s.OrdersCount)
	}
	for _, inv := range invoices {
		switch inv.Status {
		case domain.InvoiceStatusCancelled:
		case domain.InvoiceStatusPaid:
			s.PaidTotal += inv.Total
			s.Tax += inv.Tax
		default:
			s.Tax += inv.Tax
		}
	}

	s.TopProducts = make([]ProductSales, 0, len(products))
	for _, ps := range products {
		s.TopProducts = append(s.TopProducts, *ps)
	}
	sort.Slice(s.TopProducts, func(i, j int) bool {
		a, b := s.TopProducts[i], s.TopProducts[j]
		if a.Qty == b.Qty {
			if a.Revenue == b.Revenue {
				return a.SKU < b.SKU
			}
			return a.Revenue > b.Revenue
		}
		return a.Qty > b.Qty
	})
	top := uc.TopN
	if top <= 0 {
		top = 10
	}
	if len(s.TopProducts) > top {
		s.TopProducts = s.TopProducts[:top]
	}

	s.Daily = make([]DayPoint, 0, len(days))
	for _, d := range days {
		s.Daily = append(s.Daily, *d)
	}
	sort.Slice(s.Daily, func(i, j int) bool { return s.Daily[i].Day < s.Daily[j].Day })
	return s, nil
}
