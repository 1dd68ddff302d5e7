package usecase

import (
	"context"
	"errors"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/phenrril/licores/internal/domain"
)

// priceEpsilon es la tolerancia al comparar el precio recibido con el de catálogo.
const priceEpsilon = 0.005

type OrderUC struct {
	Store    domain.Store
	Notifier domain.Notifier
	Now      func() time.Time
	// TrustCallerPrices usa el precio unitario recibido en lugar del de
	// catálogo. Las diferencias se registran en ambos casos.
	TrustCallerPrices bool
}

type CustomerInput struct {
	ID      *uuid.UUID `json:"id,omitempty"`
	Name    string     `json:"name"`
	Email   string     `json:"email"`
	Address string     `json:"address"`
	Phone   string     `json:"phone"`
}

type LineInput struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
	UnitPrice *float64  `json:"unit_price,omitempty"`
}

type PlaceOrderInput struct {
	Customer  CustomerInput    `json:"customer"`
	Items     []LineInput      `json:"items"`
	Warehouse domain.Warehouse `json:"warehouse"`
	Notes     string           `json:"notes"`
}

type StatusInput struct {
	Status             domain.OrderStatus `json:"status"`
	DeliveryPersonID   string             `json:"delivery_person_id"`
	DeliveryPersonName string             `json:"delivery_person_name"`
}

func (uc *OrderUC) now() time.Time {
	if uc.Now != nil {
		return uc.Now()
	}
	return time.Now()
}

func (uc *OrderUC) notify(ctx context.Context, topics ...string) {
	if uc.Notifier == nil {
		return
	}
	for _, t := range topics {
		uc.Notifier.Notify(ctx, t)
	}
}

func (in PlaceOrderInput) validate() error {
	if len(in.Items) == 0 {
		return &domain.MissingFieldError{Field: "items", Message: "el pedido no tiene productos"}
	}
	if !in.Warehouse.IsValid() {
		return &domain.MissingFieldError{Field: "warehouse", Message: "depósito de origen inválido"}
	}
	if in.Customer.ID == nil && strings.TrimSpace(in.Customer.Email) == "" && strings.TrimSpace(in.Customer.Name) == "" {
		return &domain.MissingFieldError{Field: "customer", Message: "el pedido no tiene cliente"}
	}
	for _, it := range in.Items {
		if it.ProductID == uuid.Nil {
			return &domain.MissingFieldError{Field: "product_id", Message: "línea sin producto"}
		}
		if it.Quantity <= 0 {
			return &domain.MissingFieldError{Field: "quantity", Message: "la cantidad debe ser mayor a cero"}
		}
		if it.UnitPrice != nil && *it.UnitPrice < 0 {
			return &domain.MissingFieldError{Field: "unit_price", Message: "el precio unitario no puede ser negativo"}
		}
	}
	return nil
}

// Place crea el pedido, descuenta las unidades del depósito elegido y emite la
// factura en una sola unidad de trabajo. El stock de todas las líneas se
// verifica antes de tocar cualquier contador.
func (uc *OrderUC) Place(ctx context.Context, in PlaceOrderInput) (*domain.Order, *domain.Invoice, error) {
	if err := in.validate(); err != nil {
		return nil, nil, err
	}
	now := uc.now()
	var (
		order   *domain.Order
		invoice *domain.Invoice
	)
	err := uc.Store.WithinTx(ctx, func(r domain.Repos) error {
		cust, err := resolveCustomer(ctx, r.Customers, in.Customer, now)
		if err != nil {
			return err
		}

		ids := productIDs(in.Items)
		products, err := r.Products.LockByIDs(ctx, ids)
		if err != nil {
			return err
		}

		o := &domain.Order{
			ID:              uuid.New(),
			CustomerID:      cust.ID,
			CustomerName:    cust.Name,
			Date:            now,
			Status:          domain.OrderStatusPending,
			ShippingAddress: cust.Address,
			Warehouse:       in.Warehouse,
			Notes:           strings.TrimSpace(in.Notes),
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if o.ShippingAddress == "" {
			o.ShippingAddress = strings.TrimSpace(in.Customer.Address)
		}
		for _, line := range in.Items {
			p, ok := products[line.ProductID]
			if !ok {
				return domain.NewNotFound("producto", line.ProductID)
			}
			price := uc.linePrice(p, line)
			o.Items = append(o.Items, domain.OrderItem{
				ID:          uuid.New(),
				OrderID:     o.ID,
				ProductID:   p.ID,
				ProductName: p.Name,
				SKU:         p.SKU,
				Quantity:    line.Quantity,
				UnitPrice:   price,
				LineTotal:   price * float64(line.Quantity),
			})
		}
		o.Total = domain.OrderTotal(o.Items)

		demand := domain.Quantities(o.Items)
		for _, id := range ids {
			p := products[id]
			if avail := p.Stock.Get(in.Warehouse); avail < demand[id] {
				return &domain.InsufficientStockError{ProductID: p.ID, ProductName: p.Name, Warehouse: in.Warehouse, Available: avail, Requested: demand[id]}
			}
		}
		movements := make([]domain.StockMovement, 0, len(ids))
		for _, id := range ids {
			p := products[id]
			mv, err := applyStock(p, in.Warehouse, -demand[id], domain.MovementSale, &o.ID, "", now)
			if err != nil {
				return err
			}
			if err := r.Products.Save(ctx, p); err != nil {
				return err
			}
			movements = append(movements, mv)
		}

		n, err := r.Sequences.Next(ctx, domain.SequenceOrders)
		if err != nil {
			return err
		}
		o.Number = domain.FormatNumber("ORD", n)
		if err := r.Orders.Create(ctx, o); err != nil {
			return err
		}

		inv := domain.DeriveInvoice(o, cust.Address, now)
		inv.ID = uuid.New()
		for i := range inv.Items {
			inv.Items[i].ID = uuid.New()
			inv.Items[i].InvoiceID = inv.ID
		}
		inv.CreatedAt, inv.UpdatedAt = now, now
		n, err = r.Sequences.Next(ctx, domain.SequenceInvoices)
		if err != nil {
			return err
		}
		inv.Number = domain.FormatNumber("INV", n)
		if err := r.Invoices.Create(ctx, inv); err != nil {
			return err
		}
		if err := r.Movements.Create(ctx, movements); err != nil {
			return err
		}
		order, invoice = o, inv
		return nil
	})
	if err != nil {
		log.Warn().Err(err).Str("warehouse", string(in.Warehouse)).Int("lines", len(in.Items)).Msg("pedido rechazado")
		return nil, nil, err
	}
	log.Info().Str("order", order.Number).Str("invoice", invoice.Number).Str("customer", order.CustomerName).
		Float64("total", order.Total).Str("warehouse", string(order.Warehouse)).Msg("pedido creado")
	uc.notify(ctx, domain.TopicProducts, domain.TopicOrders, domain.TopicInvoices)
	return order, invoice, nil
}

func (uc *OrderUC) linePrice(p *domain.Product, line LineInput) float64 {
	if line.UnitPrice == nil {
		return p.Price
	}
	caller := *line.UnitPrice
	if math.Abs(caller-p.Price) <= priceEpsilon {
		return p.Price
	}
	ev := log.Warn().Str("sku", p.SKU).Float64("catalog", p.Price).Float64("caller", caller)
	if uc.TrustCallerPrices {
		ev.Msg("precio distinto al de catálogo, se usa el enviado")
		return caller
	}
	ev.Msg("precio distinto al de catálogo, se usa el de catálogo")
	return p.Price
}

// UpdateStatus cambia el estado del pedido. Al cancelarlo las líneas vuelven al
// depósito del pedido y la factura se anula; un pedido ya cancelado nunca
// repone stock dos veces.
func (uc *OrderUC) UpdateStatus(ctx context.Context, id uuid.UUID, in StatusInput) (*domain.Order, error) {
	if !in.Status.IsValid() {
		return nil, &domain.MissingFieldError{Field: "status", Message: "estado de pedido inválido: " + string(in.Status)}
	}
	now := uc.now()
	var (
		order     *domain.Order
		cancelled bool
	)
	err := uc.Store.WithinTx(ctx, func(r domain.Repos) error {
		o, err := r.Orders.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if !o.Status.CanTransitionTo(in.Status) {
			return &domain.InvalidTransitionError{From: string(o.Status), To: string(in.Status)}
		}
		if pid := strings.TrimSpace(in.DeliveryPersonID); pid != "" {
			o.DeliveryPersonID = pid
			o.DeliveryPersonName = strings.TrimSpace(in.DeliveryPersonName)
		}
		// regla del tablero: sin repartidor no se despacha
		if in.Status == domain.OrderStatusShipped && o.DeliveryPersonID == "" {
			return &domain.MissingFieldError{Field: "delivery_person_id", Message: "para despachar el pedido hay que asignar un repartidor"}
		}

		cancelled = in.Status == domain.OrderStatusCancelled && o.Status != domain.OrderStatusCancelled
		o.Status = in.Status
		o.UpdatedAt = now
		if cancelled {
			if err := restoreStock(ctx, r, o, now); err != nil {
				return err
			}
			if err := cancelInvoice(ctx, r.Invoices, o); err != nil {
				return err
			}
		}
		if err := r.Orders.UpdateStatus(ctx, o); err != nil {
			return err
		}
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Info().Str("order", order.Number).Str("status", string(order.Status)).Str("driver", order.DeliveryPersonID).Msg("estado de pedido actualizado")
	if cancelled {
		uc.notify(ctx, domain.TopicProducts, domain.TopicOrders, domain.TopicInvoices)
	} else {
		uc.notify(ctx, domain.TopicOrders)
	}
	return order, nil
}

func restoreStock(ctx context.Context, r domain.Repos, o *domain.Order, now time.Time) error {
	returned := domain.Quantities(o.Items)
	ids := make([]uuid.UUID, 0, len(returned))
	for id := range returned {
		ids = append(ids, id)
	}
	sortIDs(ids)
	products, err := r.Products.LockByIDs(ctx, ids)
	if err != nil {
		return err
	}
	movements := make([]domain.StockMovement, 0, len(ids))
	for _, id := range ids {
		p, ok := products[id]
		if !ok {
			log.Warn().Str("order", o.Number).Str("product", id.String()).Msg("producto eliminado, no se repone stock")
			continue
		}
		mv, err := applyStock(p, o.Warehouse, returned[id], domain.MovementCancellation, &o.ID, o.Number, now)
		if err != nil {
			return err
		}
		if err := r.Products.Save(ctx, p); err != nil {
			return err
		}
		movements = append(movements, mv)
	}
	return r.Movements.Create(ctx, movements)
}

func cancelInvoice(ctx context.Context, invoices domain.InvoiceRepo, o *domain.Order) error {
	inv, err := invoices.FindByOrderID(ctx, o.ID)
	if errors.Is(err, domain.ErrNotFound) {
		log.Warn().Str("order", o.Number).Msg("pedido sin factura al cancelar")
		return nil
	}
	if err != nil {
		return err
	}
	if inv.Status == domain.InvoiceStatusCancelled {
		return nil
	}
	return invoices.UpdateStatus(ctx, inv.ID, domain.InvoiceStatusCancelled, o.UpdatedAt)
}

func (uc *OrderUC) Get(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	var o *domain.Order
	err := uc.Store.WithinTx(ctx, func(r domain.Repos) error {
		var err error
		o, err = r.Orders.FindByID(ctx, id)
		return err
	})
	return o, err
}

func (uc *OrderUC) List(ctx context.Context, f domain.OrderFilter) ([]domain.Order, int64, error) {
	if f.PageSize == 0 {
		f.PageSize = 20
	}
	if f.Status != "" && !f.Status.IsValid() {
		return nil, 0, &domain.MissingFieldError{Field: "status", Message: "estado de pedido inválido: " + string(f.Status)}
	}
	var (
		list  []domain.Order
		total int64
	)
	err := uc.Store.WithinTx(ctx, func(r domain.Repos) error {
		var err error
		list, total, err = r.Orders.List(ctx, f)
		return err
	})
	return list, total, err
}

func resolveCustomer(ctx context.Context, customers domain.CustomerRepo, in CustomerInput, now time.Time) (*domain.Customer, error) {
	if in.ID != nil && *in.ID != uuid.Nil {
		return customers.FindByID(ctx, *in.ID)
	}
	email := domain.NormalizeEmail(in.Email)
	if email != "" {
		c, err := customers.FindByEmail(ctx, email)
		if err == nil {
			return c, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
	}
	c := &domain.Customer{
		ID:        uuid.New(),
		Name:      strings.TrimSpace(in.Name),
		Email:     email,
		Phone:     strings.TrimSpace(in.Phone),
		Address:   strings.TrimSpace(in.Address),
		CreatedAt: now,
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if err := customers.Save(ctx, c); err != nil {
		return nil, err
	}
	log.Info().Str("customer", c.Name).Str("email", c.Email).Msg("cliente creado")
	return c, nil
}

// applyStock mueve un contador y devuelve el movimiento que lo registra.
func applyStock(p *domain.Product, w domain.Warehouse, delta int, reason domain.MovementReason, ref *uuid.UUID, note string, now time.Time) (domain.StockMovement, error) {
	before := p.Stock.Get(w)
	if err := p.Stock.Add(w, delta); err != nil {
		var ins *domain.InsufficientStockError
		if errors.As(err, &ins) {
			ins.ProductID, ins.ProductName = p.ID, p.Name
		}
		return domain.StockMovement{}, err
	}
	p.UpdatedAt = now
	return domain.StockMovement{
		ID:          uuid.New(),
		ProductID:   p.ID,
		Warehouse:   w,
		Reason:      reason,
		Delta:       delta,
		Before:      before,
		After:       p.Stock.Get(w),
		ReferenceID: ref,
		Note:        note,
		CreatedAt:   now,
	}, nil
}

// productIDs devuelve los ids de producto sin repetir y en orden estable, así
// las transacciones concurrentes bloquean las filas en la misma secuencia.
func productIDs(items []LineInput) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(items))
	ids := make([]uuid.UUID, 0, len(items))
	for _, it := range items {
		if _, ok := seen[it.ProductID]; ok {
			continue
		}
		seen[it.ProductID] = struct{}{}
		ids = append(ids, it.ProductID)
	}
	sortIDs(ids)
	return ids
}

func sortIDs(ids []uuid.UUID) {
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
}
