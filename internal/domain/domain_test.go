package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStockAddNeverGoesNegative(t *testing.T) {
	s := Stock{Main: 15}
	err := s.Add(WarehouseMain, -20)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInsufficientStock))
	assert.Equal(t, 15, s.Main)

	var ins *InsufficientStockError
	require.ErrorAs(t, err, &ins)
	assert.Equal(t, 15, ins.Available)
	assert.Equal(t, 20, ins.Requested)

	require.NoError(t, s.Add(WarehouseMain, -15))
	assert.Equal(t, 0, s.Main)
}

func TestStockUnknownWarehouse(t *testing.T) {
	s := Stock{}
	err := s.Add(Warehouse("sotano"), 1)
	assert.ErrorIs(t, err, ErrMissingField)
	assert.Equal(t, 0, s.Get(Warehouse("sotano")))
}

func TestStockTotalAndLowStock(t *testing.T) {
	p := Product{ReorderThreshold: 10, Stock: Stock{Main: 4, Warehouse1: 3, Warehouse2: 2, Warehouse3: 1}}
	assert.Equal(t, 10, p.Stock.Total())
	assert.True(t, p.LowStock())
	p.Stock.Main++
	assert.False(t, p.LowStock())
	assert.Error(t, Stock{Warehouse2: -1}.Validate())
}

func TestOrderStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to OrderStatus
		ok       bool
	}{
		{OrderStatusPending, OrderStatusPreparation, true},
		{OrderStatusPending, OrderStatusDelivered, true},
		{OrderStatusShipped, OrderStatusPending, true},
		{OrderStatusPreparation, OrderStatusCancelled, true},
		{OrderStatusCancelled, OrderStatusCancelled, true},
		{OrderStatusCancelled, OrderStatusPending, false},
		{OrderStatusDelivered, OrderStatusCancelled, false},
		{OrderStatusPending, OrderStatus("perdido"), false},
	}
	for _, c := range cases {
		assert.Equal(t, c.ok, c.from.CanTransitionTo(c.to), "%s -> %s", c.from, c.to)
	}
}

func TestInvoiceStatusTransitions(t *testing.T) {
	assert.True(t, InvoiceStatusPending.CanTransitionTo(InvoiceStatusPaid))
	assert.True(t, InvoiceStatusPending.CanTransitionTo(InvoiceStatusCancelled))
	assert.True(t, InvoiceStatusPaid.CanTransitionTo(InvoiceStatusCancelled))
	assert.False(t, InvoiceStatusPaid.CanTransitionTo(InvoiceStatusPending))
	assert.False(t, InvoiceStatusCancelled.CanTransitionTo(InvoiceStatusPaid))
}

func TestDeriveInvoice(t *testing.T) {
	pid := uuid.New()
	o := &Order{
		ID:           uuid.New(),
		Number:       "ORD-001",
		CustomerName: "Bar La Esquina",
		Items: []OrderItem{
			{ProductID: pid, ProductName: "Gin", SKU: "GIN-001", Quantity: 2, UnitPrice: 50, LineTotal: 100},
		},
	}
	o.Total = OrderTotal(o.Items)
	at := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	inv := DeriveInvoice(o, "Av. Siempre Viva 742", at)
	assert.Equal(t, uuid.Nil, inv.ID)
	assert.Empty(t, inv.Number)
	assert.Equal(t, o.ID, inv.OrderID)
	assert.Equal(t, "ORD-001", inv.OrderNumber)
	assert.Equal(t, InvoiceStatusPending, inv.Status)
	assert.Equal(t, at, inv.IssuedAt)
	assert.InDelta(t, 100.0, inv.Subtotal, 1e-9)
	assert.InDelta(t, 19.0, inv.Tax, 1e-9)
	assert.InDelta(t, 119.0, inv.Total, 1e-9)
	require.Len(t, inv.Items, 1)
	assert.Equal(t, pid, inv.Items[0].ProductID)
}

func TestInvoiceArithmeticHolds(t *testing.T) {
	for _, sub := range []float64{0, 0.01, 13.37, 99.99, 1234.56, 1e6 + 0.5} {
		inv := DeriveInvoice(&Order{Total: sub}, "", time.Now())
		assert.InDelta(t, inv.Subtotal+inv.Subtotal*0.19, inv.Total, 1e-9)
	}
}

func TestQuantitiesMergesRepeatedLines(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	q := Quantities([]OrderItem{{ProductID: a, Quantity: 2}, {ProductID: b, Quantity: 1}, {ProductID: a, Quantity: 3}})
	assert.Equal(t, map[uuid.UUID]int{a: 5, b: 1}, q)
}

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "ORD-007", FormatNumber("ORD", 7))
	assert.Equal(t, "INV-1234", FormatNumber("INV", 1234))
}

func TestTypedErrorsMatchSentinels(t *testing.T) {
	assert.ErrorIs(t, NewNotFound("pedido", uuid.New()), ErrNotFound)
	assert.ErrorIs(t, &InvalidTransitionError{From: "delivered", To: "pending"}, ErrInvalidTransition)
	assert.ErrorIs(t, &ConflictError{}, ErrConflict)
	assert.EqualError(t, &MissingFieldError{Field: "address"}, "falta el campo obligatorio: address")
}

func TestCustomerValidate(t *testing.T) {
	c := &Customer{Name: "Ana"}
	err := c.Validate()
	var mf *MissingFieldError
	require.ErrorAs(t, err, &mf)
	assert.Equal(t, "address", mf.Field)
	c.Address = "Calle 1"
	assert.NoError(t, c.Validate())
	assert.Equal(t, "ana@x.com", NormalizeEmail("  Ana@X.com "))
}
