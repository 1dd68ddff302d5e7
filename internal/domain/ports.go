package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type ProductRepo interface {
	List(ctx context.Context, f ProductFilter) ([]Product, int64, error)
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)
	FindBySKU(ctx context.Context, sku string) (*Product, error)
	// LockByIDs carga los productos a modificar; dentro de una transacción las
	// filas quedan bloqueadas hasta el commit.
	LockByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*Product, error)
	Save(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context) (int64, error)
	DistinctCategories(ctx context.Context) ([]string, error)
}

type CustomerRepo interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Customer, error)
	FindByEmail(ctx context.Context, email string) (*Customer, error)
	List(ctx context.Context) ([]Customer, error)
	Save(ctx context.Context, c *Customer) error
}

type OrderRepo interface {
	Create(ctx context.Context, o *Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)
	UpdateStatus(ctx context.Context, o *Order) error
	List(ctx context.Context, f OrderFilter) ([]Order, int64, error)
	ListInRange(ctx context.Context, from, to time.Time) ([]Order, error)
}

type InvoiceRepo interface {
	Create(ctx context.Context, inv *Invoice) error
	FindByID(ctx context.Context, id uuid.UUID) (*Invoice, error)
	FindByOrderID(ctx context.Context, orderID uuid.UUID) (*Invoice, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status InvoiceStatus, at time.Time) error
	List(ctx context.Context, f InvoiceFilter) ([]Invoice, int64, error)
	ListInRange(ctx context.Context, from, to time.Time) ([]Invoice, error)
}

type MovementRepo interface {
	Create(ctx context.Context, mv []StockMovement) error
	ListByProduct(ctx context.Context, productID uuid.UUID, limit int) ([]StockMovement, error)
}

// Sequencer entrega números crecientes por nombre.
type Sequencer interface {
	Next(ctx context.Context, name string) (int64, error)
}

// Repos agrupa los repositorios ligados a una unidad de trabajo.
type Repos struct {
	Products  ProductRepo
	Customers CustomerRepo
	Orders    OrderRepo
	Invoices  InvoiceRepo
	Movements MovementRepo
	Sequences Sequencer
}

// Store ejecuta fn de forma atómica: se persisten todas las escrituras de fn o ninguna.
type Store interface {
	WithinTx(ctx context.Context, fn func(r Repos) error) error
}

const (
	TopicProducts = "products"
	TopicOrders   = "orders"
	TopicInvoices = "invoices"
)

// Notifier no espera respuesta: las implementaciones no deben frenar al que llama
// ni devolver errores de envío.
type Notifier interface {
	Notify(ctx context.Context, topic string)
}

type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, string) {}
