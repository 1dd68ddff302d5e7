package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type OrderStatus string

const (
	OrderStatusPending     OrderStatus = "pending"
	OrderStatusPreparation OrderStatus = "preparation"
	OrderStatusShipped     OrderStatus = "shipped"
	OrderStatusDelivered   OrderStatus = "delivered"
	OrderStatusCancelled   OrderStatus = "cancelled"
)

func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending, OrderStatusPreparation, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// IsTerminal: delivered y cancelled no admiten cambios de estado.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// CanTransitionTo permite cualquier cambio entre estados no terminales y volver a
// aplicar el estado actual. De cancelled no se sale para que el stock nunca se
// reponga dos veces. Que delivered sea final y que shipped exija repartidor son
// reglas que vienen del tablero, no del inventario.
func (s OrderStatus) CanTransitionTo(to OrderStatus) bool {
	if !to.IsValid() {
		return false
	}
	if s == to {
		return true
	}
	return !s.IsTerminal()
}

type Order struct {
	ID                 uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	Number             string      `gorm:"size:20;uniqueIndex" json:"number"`
	CustomerID         uuid.UUID   `gorm:"type:uuid;index" json:"customer_id"`
	CustomerName       string      `gorm:"size:140" json:"customer_name"`
	Date               time.Time   `gorm:"index" json:"date"`
	Items              []OrderItem `gorm:"foreignKey:OrderID" json:"items"`
	Total              float64     `gorm:"type:decimal(12,2)" json:"total"`
	Status             OrderStatus `gorm:"type:varchar(20);index" json:"status"`
	ShippingAddress    string      `gorm:"size:255" json:"shipping_address"`
	Warehouse          Warehouse   `gorm:"type:varchar(20);not null" json:"warehouse"`
	DeliveryPersonID   string      `gorm:"size:80;index" json:"delivery_person_id,omitempty"`
	DeliveryPersonName string      `gorm:"size:140" json:"delivery_person_name,omitempty"`
	Notes              string      `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt          time.Time   `json:"created_at"`
	UpdatedAt          time.Time   `json:"updated_at"`
}

type OrderItem struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	OrderID     uuid.UUID `gorm:"type:uuid;index" json:"order_id"`
	ProductID   uuid.UUID `gorm:"type:uuid;index" json:"product_id"`
	ProductName string    `gorm:"size:180" json:"product_name"`
	SKU         string    `gorm:"size:60" json:"sku"`
	Quantity    int       `gorm:"not null" json:"quantity"`
	UnitPrice   float64   `gorm:"type:decimal(12,2)" json:"unit_price"`
	LineTotal   float64   `gorm:"type:decimal(12,2)" json:"line_total"`
}

// OrderTotal suma las extensiones de línea.
func OrderTotal(items []OrderItem) float64 {
	total := 0.0
	for _, it := range items {
		total += it.UnitPrice * float64(it.Quantity)
	}
	return total
}

// Quantities suma las unidades pedidas por producto; las líneas repetidas se
// validan contra el contador como una sola demanda.
func Quantities(items []OrderItem) map[uuid.UUID]int {
	out := make(map[uuid.UUID]int, len(items))
	for _, it := range items {
		out[it.ProductID] += it.Quantity
	}
	return out
}

type OrderFilter struct {
	Status           OrderStatus
	DeliveryPersonID string
	CustomerID       *uuid.UUID
	Page             int
	PageSize         int
}

const (
	SequenceOrders   = "orders"
	SequenceInvoices = "invoices"
)

// FormatNumber arma números legibles como ORD-007 o INV-1234.
func FormatNumber(prefix string, n int64) string {
	return fmt.Sprintf("%s-%03d", prefix, n)
}
