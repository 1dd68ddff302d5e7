package domain

import (
	"time"

	"github.com/google/uuid"
)

// Warehouse identifica uno de los cuatro depósitos con stock propio.
type Warehouse string

const (
	WarehouseMain Warehouse = "main"
	Warehouse1    Warehouse = "warehouse1"
	Warehouse2    Warehouse = "warehouse2"
	Warehouse3    Warehouse = "warehouse3"
)

// Warehouses lista los depósitos en el orden en que se muestran.
var Warehouses = []Warehouse{WarehouseMain, Warehouse1, Warehouse2, Warehouse3}

func (w Warehouse) IsValid() bool {
	switch w {
	case WarehouseMain, Warehouse1, Warehouse2, Warehouse3:
		return true
	}
	return false
}

func (w Warehouse) Label() string {
	switch w {
	case WarehouseMain:
		return "Depósito central"
	case Warehouse1:
		return "Depósito 1"
	case Warehouse2:
		return "Depósito 2"
	case Warehouse3:
		return "Depósito 3"
	}
	return string(w)
}

// Stock guarda un contador no negativo por depósito.
type Stock struct {
	Main       int `gorm:"not null;default:0" json:"main"`
	Warehouse1 int `gorm:"not null;default:0" json:"warehouse1"`
	Warehouse2 int `gorm:"not null;default:0" json:"warehouse2"`
	Warehouse3 int `gorm:"not null;default:0" json:"warehouse3"`
}

func (s *Stock) counter(w Warehouse) *int {
	switch w {
	case WarehouseMain:
		return &s.Main
	case Warehouse1:
		return &s.Warehouse1
	case Warehouse2:
		return &s.Warehouse2
	case Warehouse3:
		return &s.Warehouse3
	}
	return nil
}

// Get devuelve el contador de w; un depósito desconocido no tiene nada.
func (s Stock) Get(w Warehouse) int {
	if c := s.counter(w); c != nil {
		return *c
	}
	return 0
}

// Add suma delta al contador de w. Si el resultado fuera negativo el contador
// no se toca.
func (s *Stock) Add(w Warehouse, delta int) error {
	c := s.counter(w)
	if c == nil {
		return &MissingFieldError{Field: "warehouse", Message: "depósito desconocido: " + string(w)}
	}
	if *c+delta < 0 {
		return &InsufficientStockError{Warehouse: w, Available: *c, Requested: -delta}
	}
	*c += delta
	return nil
}

func (s Stock) Total() int {
	return s.Main + s.Warehouse1 + s.Warehouse2 + s.Warehouse3
}

func (s Stock) Validate() error {
	for _, w := range Warehouses {
		if s.Get(w) < 0 {
			return &MissingFieldError{Field: "stock", Message: "el stock no puede ser negativo en " + w.Label()}
		}
	}
	return nil
}

type Product struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	SKU              string    `gorm:"size:60;uniqueIndex" json:"sku"`
	Name             string    `gorm:"size:180;not null" json:"name"`
	Category         string    `gorm:"size:100;index" json:"category"`
	Price            float64   `gorm:"type:decimal(12,2);not null;default:0" json:"price"`
	ReorderThreshold int       `gorm:"not null;default:0" json:"reorder_threshold"`
	Stock            Stock     `gorm:"embedded;embeddedPrefix:stock_" json:"stock"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// LowStock indica si el total entre depósitos llegó al umbral de reposición.
func (p Product) LowStock() bool {
	return p.Stock.Total() <= p.ReorderThreshold
}

type ProductFilter struct {
	Query    string
	Category string
	LowStock bool
	Sort     string
	Page     int
	// PageSize < 0 devuelve todos los resultados.
	PageSize int
}

// MovementReason describe el origen de un cambio de stock.
type MovementReason string

const (
	MovementSale         MovementReason = "sale"
	MovementCancellation MovementReason = "cancellation"
	MovementTransferOut  MovementReason = "transfer_out"
	MovementTransferIn   MovementReason = "transfer_in"
	MovementAdjustment   MovementReason = "adjustment"
)

// StockMovement registra cada cambio de un contador de stock.
type StockMovement struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	ProductID   uuid.UUID      `gorm:"type:uuid;not null;index" json:"product_id"`
	Warehouse   Warehouse      `gorm:"type:varchar(20);not null" json:"warehouse"`
	Reason      MovementReason `gorm:"type:varchar(20);not null;index" json:"reason"`
	Delta       int            `gorm:"not null" json:"delta"`
	Before      int            `gorm:"not null" json:"before"`
	After       int            `gorm:"not null" json:"after"`
	ReferenceID *uuid.UUID     `gorm:"type:uuid;index" json:"reference_id,omitempty"`
	Note        string         `gorm:"size:255" json:"note,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}
