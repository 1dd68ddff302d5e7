package xlsx

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/phenrril/licores/internal/domain"
	"github.com/phenrril/licores/internal/usecase"
)

const dateLayout = "02/01/2006"

var stockHeader = []string{"SKU", "Producto", "Categoría", "Precio", "Reposición", "Principal", "Depósito 1", "Depósito 2", "Depósito 3", "Total"}

func cell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

func writeRow(f *excelize.File, sheet string, row int, values ...any) error {
	for i, v := range values {
		if err := f.SetCellValue(sheet, cell(i+1, row), v); err != nil {
			return err
		}
	}
	return nil
}

func boldStyle(f *excelize.File) int {
	id, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return 0
	}
	return id
}

// WriteInvoice arma la factura en una hoja.
func WriteInvoice(w io.Writer, inv *domain.Invoice) error {
	f := excelize.NewFile()
	defer f.Close()
	const sh = "Factura"
	if err := f.SetSheetName("Sheet1", sh); err != nil {
		return err
	}
	bold := boldStyle(f)
	rows := [][]any{
		{"Factura", inv.Number},
		{"Pedido", inv.OrderNumber},
		{"Fecha", inv.IssuedAt.Format(dateLayout)},
		{"Cliente", inv.CustomerName},
		{"Dirección", inv.CustomerAddress},
		{"Estado", string(inv.Status)},
	}
	for i, r := range rows {
		if err := writeRow(f, sh, i+1, r...); err != nil {
			return err
		}
	}
	_ = f.SetCellStyle(sh, "A1", cell(1, len(rows)), bold)

	row := len(rows) + 2
	if err := writeRow(f, sh, row, "SKU", "Producto", "Cantidad", "Precio unitario", "Importe"); err != nil {
		return err
	}
	_ = f.SetCellStyle(sh, cell(1, row), cell(5, row), bold)
	for _, it := range inv.Items {
		row++
		if err := writeRow(f, sh, row, it.SKU, it.ProductName, it.Quantity, it.UnitPrice, it.LineTotal); err != nil {
			return err
		}
	}
	row += 2
	totals := [][]any{
		{"Subtotal", inv.Subtotal},
		{fmt.Sprintf("IVA %.0f%%", domain.TaxRate*100), inv.Tax},
		{"Total", inv.Total},
	}
	for i, t := range totals {
		if err := writeRow(f, sh, row+i, "", "", "", t[0], t[1]); err != nil {
			return err
		}
	}
	_ = f.SetCellStyle(sh, cell(4, row), cell(4, row+len(totals)-1), bold)
	_ = f.SetColWidth(sh, "B", "B", 40)
	_ = f.SetColWidth(sh, "D", "E", 16)
	_, err := f.WriteTo(w)
	return err
}

// WriteStock vuelca el stock por depósito; la hoja se puede volver a importar.
func WriteStock(w io.Writer, products []domain.Product) error {
	f := excelize.NewFile()
	defer f.Close()
	const sh = "Stock"
	if err := f.SetSheetName("Sheet1", sh); err != nil {
		return err
	}
	hdr := make([]any, len(stockHeader))
	for i, h := range stockHeader {
		hdr[i] = h
	}
	if err := writeRow(f, sh, 1, hdr...); err != nil {
		return err
	}
	_ = f.SetCellStyle(sh, "A1", cell(len(stockHeader), 1), boldStyle(f))
	low, _ := f.NewStyle(&excelize.Style{Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"F8D7DA"}}})
	for i, p := range products {
		row := i + 2
		if err := writeRow(f, sh, row,
			p.SKU, p.Name, p.Category, p.Price, p.ReorderThreshold,
			p.Stock.Main, p.Stock.Warehouse1, p.Stock.Warehouse2, p.Stock.Warehouse3, p.Stock.Total(),
		); err != nil {
			return err
		}
		if p.LowStock() && low != 0 {
			_ = f.SetCellStyle(sh, cell(1, row), cell(len(stockHeader), row), low)
		}
	}
	_ = f.SetColWidth(sh, "B", "B", 40)
	_ = f.SetPanes(sh, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})
	_, err := f.WriteTo(w)
	return err
}

// ReadStock lee una planilla con el formato de WriteStock. La fila de
// encabezado se saltea; las filas sin SKU ni nombre se ignoran.
func ReadStock(r io.Reader) ([]usecase.ProductInput, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("abrir planilla: %w", err)
	}
	defer f.Close()
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, err
	}
	var out []usecase.ProductInput
	for i, row := range rows {
		if i == 0 && len(row) > 0 && strings.EqualFold(strings.TrimSpace(row[0]), "sku") {
			continue
		}
		col := func(n int) string {
			if n < len(row) {
				return strings.TrimSpace(row[n])
			}
			return ""
		}
		if col(0) == "" && col(1) == "" {
			continue
		}
		out = append(out, usecase.ProductInput{
			SKU:              col(0),
			Name:             col(1),
			Category:         col(2),
			Price:            parseFloat(col(3)),
			ReorderThreshold: parseInt(col(4)),
			Stock: domain.Stock{
				Main:       parseInt(col(5)),
				Warehouse1: parseInt(col(6)),
				Warehouse2: parseInt(col(7)),
				Warehouse3: parseInt(col(8)),
			},
		})
	}
	return out, nil
}

func parseFloat(s string) float64 {
	s = strings.ReplaceAll(strings.TrimPrefix(s, "$"), ",", ".")
	v, _ := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return v
}

func parseInt(s string) int {
	if s == "" {
		return 0
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return int(parseFloat(s))
}

// WriteSales genera el resumen de ventas con una hoja por sección.
func WriteSales(w io.Writer, s *usecase.SalesSummary) error {
	f := excelize.NewFile()
	defer f.Close()
	bold := boldStyle(f)

	const resumen = "Resumen"
	if err := f.SetSheetName("Sheet1", resumen); err != nil {
		return err
	}
	summary := [][]any{
		{"Desde", s.From.Format(dateLayout)},
		{"Hasta", s.To.Format(dateLayout)},
		{"Pedidos", s.OrdersCount},
		{"Cancelados", s.CancelledCount},
		{"Facturado (sin IVA)", s.Revenue},
		{"IVA", s.Tax},
		{"Cobrado", s.PaidTotal},
		{"Ticket promedio", s.AvgOrderValue},
	}
	for i, r := range summary {
		if err := writeRow(f, resumen, i+1, r...); err != nil {
			return err
		}
	}
	_ = f.SetCellStyle(resumen, "A1", cell(1, len(summary)), bold)
	_ = f.SetColWidth(resumen, "A", "A", 24)

	row := len(summary) + 2
	_ = writeRow(f, resumen, row, "Estado", "Pedidos")
	_ = f.SetCellStyle(resumen, cell(1, row), cell(2, row), bold)
	statuses := make([]string, 0, len(s.StatusCounts))
	for k := range s.StatusCounts {
		statuses = append(statuses, k)
	}
	sort.Strings(statuses)
	for _, st := range statuses {
		row++
		if err := writeRow(f, resumen, row, st, s.StatusCounts[st]); err != nil {
			return err
		}
	}
	row += 2
	_ = writeRow(f, resumen, row, "Depósito", "Unidades")
	_ = f.SetCellStyle(resumen, cell(1, row), cell(2, row), bold)
	for _, wh := range domain.Warehouses {
		row++
		if err := writeRow(f, resumen, row, wh.Label(), s.UnitsByWarehouse[wh]); err != nil {
			return err
		}
	}

	const top = "Productos"
	if _, err := f.NewSheet(top); err != nil {
		return err
	}
	_ = writeRow(f, top, 1, "SKU", "Producto", "Unidades", "Importe")
	_ = f.SetCellStyle(top, "A1", "D1", bold)
	for i, p := range s.TopProducts {
		if err := writeRow(f, top, i+2, p.SKU, p.Name, p.Qty, p.Revenue); err != nil {
			return err
		}
	}
	_ = f.SetColWidth(top, "B", "B", 40)

	const daily = "Diario"
	if _, err := f.NewSheet(daily); err != nil {
		return err
	}
	_ = writeRow(f, daily, 1, "Día", "Pedidos", "Importe")
	_ = f.SetCellStyle(daily, "A1", "C1", bold)
	for i, d := range s.Daily {
		if err := writeRow(f, daily, i+2, d.Day, d.Orders, d.Revenue); err != nil {
			return err
		}
	}
	_, err := f.WriteTo(w)
	return err
}
