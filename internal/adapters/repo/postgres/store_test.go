package postgres

import (
	"context"
	"os"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/phenrril/licores/internal/domain"
	"github.com/phenrril/licores/internal/usecase"
)

// openTestDB usa TEST_DB_DSN; sin esa variable los tests se saltean.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN no definido")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true, Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, Migrate(db))
	require.NoError(t, db.Exec("TRUNCATE products, customers, orders, order_items, invoices, invoice_items, stock_movements, sequences").Error)
	return db
}

func TestPostgresPlaceAndCancel(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	store := NewStore(db)
	products := &usecase.ProductUC{Store: store}
	orders := &usecase.OrderUC{Store: store}

	p, err := products.Create(ctx, usecase.ProductInput{SKU: "WHI-001", Name: "Whisky", Price: 50, Stock: domain.Stock{Main: 120}})
	require.NoError(t, err)

	o, inv, err := orders.Place(ctx, usecase.PlaceOrderInput{
		Customer:  usecase.CustomerInput{Name: "Bar", Email: "bar@x.com", Address: "Calle 1"},
		Items:     []usecase.LineInput{{ProductID: p.ID, Quantity: 2}},
		Warehouse: domain.WarehouseMain,
	})
	require.NoError(t, err)
	assert.Equal(t, "ORD-001", o.Number)
	assert.InDelta(t, 119.0, inv.Total, 1e-9)

	got, err := products.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 118, got.Stock.Main)

	_, _, err = orders.Place(ctx, usecase.PlaceOrderInput{
		Customer:  usecase.CustomerInput{Email: "bar@x.com", Name: "Bar"},
		Items:     []usecase.LineInput{{ProductID: p.ID, Quantity: 500}},
		Warehouse: domain.WarehouseMain,
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	_, err = orders.UpdateStatus(ctx, o.ID, usecase.StatusInput{Status: domain.OrderStatusCancelled})
	require.NoError(t, err)
	got, err = products.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 120, got.Stock.Main)

	var count int64
	require.NoError(t, db.Model(&domain.Invoice{}).Where("status = ?", domain.InvoiceStatusCancelled).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestPostgresConcurrentOrdersNeverOversell(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	store := NewStore(db)
	products := &usecase.ProductUC{Store: store}
	orders := &usecase.OrderUC{Store: store}
	customers := &usecase.CustomerUC{Store: store}

	p, err := products.Create(ctx, usecase.ProductInput{SKU: "HOT-1", Name: "Caliente", Price: 10, Stock: domain.Stock{Main: 5}})
	require.NoError(t, err)
	c, err := customers.Create(ctx, usecase.CustomerInput{Name: "Bar", Email: "hot@x.com", Address: "Calle 2"})
	require.NoError(t, err)

	var (
		wg sync.WaitGroup
		mu sync.Mutex
		ok int
	)
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := orders.Place(ctx, usecase.PlaceOrderInput{
				Customer:  usecase.CustomerInput{ID: &c.ID},
				Items:     []usecase.LineInput{{ProductID: p.ID, Quantity: 1}},
				Warehouse: domain.WarehouseMain,
			})
			if err == nil {
				mu.Lock()
				ok++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 5, ok)

	got, err := products.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Stock.Main)
}

func TestPostgresRepoErrors(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	r := NewRepos(db)

	_, err := r.Products.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = r.Customers.FindByEmail(ctx, "nadie@x.com")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	p := &domain.Product{ID: uuid.New(), SKU: "DUP-1", Name: "Uno"}
	require.NoError(t, r.Products.Save(ctx, p))
	err = r.Products.Save(ctx, &domain.Product{ID: uuid.New(), SKU: "DUP-1", Name: "Dos"})
	assert.ErrorIs(t, err, domain.ErrConflict)

	n1, err := r.Sequences.Next(ctx, "prueba")
	require.NoError(t, err)
	n2, err := r.Sequences.Next(ctx, "prueba")
	require.NoError(t, err)
	assert.Equal(t, n1+1, n2)
}
