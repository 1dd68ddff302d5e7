package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/phenrril/licores/internal/domain"
)

// Store ejecuta cada unidad de trabajo dentro de una transacción.
type Store struct{ db *gorm.DB }

func NewStore(db *gorm.DB) *Store { return &Store{db: db} }

func (s *Store) WithinTx(ctx context.Context, fn func(r domain.Repos) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepos(tx))
	})
}

// NewRepos liga los repositorios a db, que puede ser una transacción.
func NewRepos(db *gorm.DB) domain.Repos {
	return domain.Repos{
		Products:  NewProductRepo(db),
		Customers: NewCustomerRepo(db),
		Orders:    NewOrderRepo(db),
		Invoices:  NewInvoiceRepo(db),
		Movements: NewMovementRepo(db),
		Sequences: NewSequenceRepo(db),
	}
}

// Migrate crea o actualiza el esquema.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&domain.Product{}, &domain.Customer{}, &domain.Order{}, &domain.OrderItem{},
		&domain.Invoice{}, &domain.InvoiceItem{}, &domain.StockMovement{}, &Sequence{},
	); err != nil {
		return err
	}
	_ = db.Exec("CREATE INDEX IF NOT EXISTS idx_orders_date_status ON orders(date, status)").Error
	_ = db.Exec("CREATE UNIQUE INDEX IF NOT EXISTS idx_customers_email_lower ON customers (LOWER(email)) WHERE email IS NOT NULL AND email <> ''").Error
	_ = db.Exec("ALTER TABLE products DROP CONSTRAINT IF EXISTS chk_products_stock_non_negative").Error
	return db.Exec(`ALTER TABLE products ADD CONSTRAINT chk_products_stock_non_negative
		CHECK (stock_main >= 0 AND stock_warehouse1 >= 0 AND stock_warehouse2 >= 0 AND stock_warehouse3 >= 0)`).Error
}

func translate(err error, notFound error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return notFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return &domain.ConflictError{Message: "registro duplicado"}
	}
	return err
}
