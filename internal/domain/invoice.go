package domain

import (
	"time"

	"github.com/google/uuid"
)

// TaxRate es el IVA fijo aplicado a todas las facturas.
const TaxRate = 0.19

type InvoiceStatus string

const (
	InvoiceStatusPending   InvoiceStatus = "pending"
	InvoiceStatusPaid      InvoiceStatus = "paid"
	InvoiceStatusCancelled InvoiceStatus = "cancelled"
)

func (s InvoiceStatus) IsValid() bool {
	switch s {
	case InvoiceStatusPending, InvoiceStatusPaid, InvoiceStatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo: una factura anulada no vuelve atrás y una pagada no vuelve a pendiente.
func (s InvoiceStatus) CanTransitionTo(to InvoiceStatus) bool {
	if !to.IsValid() {
		return false
	}
	if s == to {
		return true
	}
	switch s {
	case InvoiceStatusPending:
		return true
	case InvoiceStatusPaid:
		return to == InvoiceStatusCancelled
	}
	return false
}

type Invoice struct {
	ID              uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	Number          string        `gorm:"size:20;uniqueIndex" json:"number"`
	OrderID         uuid.UUID     `gorm:"type:uuid;uniqueIndex" json:"order_id"`
	OrderNumber     string        `gorm:"size:20" json:"order_number"`
	IssuedAt        time.Time     `gorm:"index" json:"issued_at"`
	CustomerName    string        `gorm:"size:140" json:"customer_name"`
	CustomerAddress string        `gorm:"size:255" json:"customer_address"`
	Items           []InvoiceItem `gorm:"foreignKey:InvoiceID" json:"items"`
	Subtotal        float64       `gorm:"type:decimal(12,2)" json:"subtotal"`
	Tax             float64       `gorm:"type:decimal(12,2)" json:"tax"`
	Total           float64       `gorm:"type:decimal(12,2)" json:"total"`
	Status          InvoiceStatus `gorm:"type:varchar(20);index" json:"status"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

type InvoiceItem struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	InvoiceID   uuid.UUID `gorm:"type:uuid;index" json:"invoice_id"`
	ProductID   uuid.UUID `gorm:"type:uuid" json:"product_id"`
	ProductName string    `gorm:"size:180" json:"product_name"`
	SKU         string    `gorm:"size:60" json:"sku"`
	Quantity    int       `gorm:"not null" json:"quantity"`
	UnitPrice   float64   `gorm:"type:decimal(12,2)" json:"unit_price"`
	LineTotal   float64   `gorm:"type:decimal(12,2)" json:"line_total"`
}

// DeriveInvoice arma la factura de un pedido. No asigna ID ni número.
func DeriveInvoice(o *Order, customerAddress string, issuedAt time.Time) *Invoice {
	inv := &Invoice{
		OrderID:         o.ID,
		OrderNumber:     o.Number,
		IssuedAt:        issuedAt,
		CustomerName:    o.CustomerName,
		CustomerAddress: customerAddress,
		Items:           make([]InvoiceItem, 0, len(o.Items)),
		Subtotal:        o.Total,
		Status:          InvoiceStatusPending,
	}
	inv.Tax = inv.Subtotal * TaxRate
	inv.Total = inv.Subtotal + inv.Tax
	for _, it := range o.Items {
		inv.Items = append(inv.Items, InvoiceItem{
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			SKU:         it.SKU,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			LineTotal:   it.LineTotal,
		})
	}
	return inv
}

type InvoiceFilter struct {
	Status   InvoiceStatus
	Page     int
	PageSize int
}
