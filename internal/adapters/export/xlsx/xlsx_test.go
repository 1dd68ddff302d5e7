package xlsx

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/phenrril/licores/internal/domain"
	"github.com/phenrril/licores/internal/usecase"
)

func TestWriteInvoice(t *testing.T) {
	o := &domain.Order{
		Number:       "ORD-004",
		CustomerName: "Ana Pérez",
		Total:        100,
		Items: []domain.OrderItem{
			{SKU: "WHI-001", ProductName: "Whisky 12 años", Quantity: 2, UnitPrice: 50, LineTotal: 100},
		},
	}
	inv := domain.DeriveInvoice(o, "Calle 1", time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC))
	inv.Number = "INV-004"

	var buf bytes.Buffer
	require.NoError(t, WriteInvoice(&buf, inv))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"Factura"}, f.GetSheetList())
	v, _ := f.GetCellValue("Factura", "B1")
	assert.Equal(t, "INV-004", v)
	v, _ = f.GetCellValue("Factura", "B3")
	assert.Equal(t, "05/03/2024", v)
	v, _ = f.GetCellValue("Factura", "B9")
	assert.Equal(t, "Whisky 12 años", v)
	v, _ = f.GetCellValue("Factura", "D12")
	assert.Equal(t, "IVA 19%", v)
	v, _ = f.GetCellValue("Factura", "E11")
	assert.Equal(t, "100", v)
}

func TestStockSheetCanBeReimported(t *testing.T) {
	products := []domain.Product{
		{SKU: "VIN-010", Name: "Malbec", Category: "Vinos", Price: 12.5, ReorderThreshold: 5,
			Stock: domain.Stock{Main: 10, Warehouse1: 2, Warehouse3: 1}},
		{SKU: "GIN-002", Name: "Gin London Dry", Category: "Gin", Price: 30, ReorderThreshold: 10,
			Stock: domain.Stock{Main: 3}},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteStock(&buf, products))

	rows, err := ReadStock(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, usecase.ProductInput{
		SKU: "VIN-010", Name: "Malbec", Category: "Vinos", Price: 12.5, ReorderThreshold: 5,
		Stock: domain.Stock{Main: 10, Warehouse1: 2, Warehouse3: 1},
	}, rows[0])
	assert.Equal(t, 3, rows[1].Stock.Main)
}

func TestReadStockRejectsGarbage(t *testing.T) {
	_, err := ReadStock(bytes.NewReader([]byte("no es un xlsx")))
	assert.Error(t, err)
}

func TestWriteSales(t *testing.T) {
	s := &usecase.SalesSummary{
		From:             time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		To:               time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
		OrdersCount:      3,
		Revenue:          250,
		StatusCounts:     map[string]int{"pending": 2, "cancelled": 1},
		UnitsByWarehouse: map[domain.Warehouse]int{domain.WarehouseMain: 7},
		TopProducts:      []usecase.ProductSales{{SKU: "RON-001", Name: "Ron", Qty: 4, Revenue: 80}},
		Daily:            []usecase.DayPoint{{Day: "2024-01-02", Orders: 3, Revenue: 250}},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteSales(&buf, s))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"Resumen", "Productos", "Diario"}, f.GetSheetList())
	v, _ := f.GetCellValue("Resumen", "B3")
	assert.Equal(t, "3", v)
	v, _ = f.GetCellValue("Productos", "A2")
	assert.Equal(t, "RON-001", v)
	v, _ = f.GetCellValue("Diario", "C2")
	assert.Equal(t, "250", v)
}
