package snapshot

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/phenrril/licores/internal/domain"
)

func paginate[T any](list []T, page, size int) []T {
	if size < 0 {
		return list
	}
	if size == 0 {
		size = 20
	}
	if page <= 0 {
		page = 1
	}
	start := (page - 1) * size
	if start >= len(list) {
		return []T{}
	}
	end := start + size
	if end > len(list) {
		end = len(list)
	}
	return list[start:end]
}

// ---- productos ----

type productRepo struct{ st *state }

func (r *productRepo) all() ([]domain.Product, error) {
	if err := r.st.load(colProducts, &r.st.products); err != nil {
		return nil, err
	}
	return r.st.products, nil
}

func (r *productRepo) List(ctx context.Context, f domain.ProductFilter) ([]domain.Product, int64, error) {
	all, err := r.all()
	if err != nil {
		return nil, 0, err
	}
	q := strings.ToLower(strings.TrimSpace(f.Query))
	list := make([]domain.Product, 0, len(all))
	for _, p := range all {
		if f.Category != "" && !strings.EqualFold(p.Category, f.Category) {
			continue
		}
		if f.LowStock && !p.LowStock() {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(p.Name), q) &&
			!strings.Contains(strings.ToLower(p.SKU), q) &&
			!strings.Contains(strings.ToLower(p.Category), q) {
			continue
		}
		list = append(list, p)
	}
	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i], list[j]
		switch f.Sort {
		case "price_asc":
			return a.Price < b.Price
		case "price_desc":
			return a.Price > b.Price
		case "stock":
			return a.Stock.Total() < b.Stock.Total()
		case "newest":
			return a.CreatedAt.After(b.CreatedAt)
		default:
			return strings.ToLower(a.Name) < strings.ToLower(b.Name)
		}
	})
	return paginate(list, f.Page, f.PageSize), int64(len(list)), nil
}

func (r *productRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	all, err := r.all()
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].ID == id {
			p := all[i]
			return &p, nil
		}
	}
	return nil, domain.NewNotFound("producto", id)
}

func (r *productRepo) FindBySKU(ctx context.Context, sku string) (*domain.Product, error) {
	all, err := r.all()
	if err != nil {
		return nil, err
	}
	for i := range all {
		if strings.EqualFold(all[i].SKU, sku) {
			p := all[i]
			return &p, nil
		}
	}
	return nil, &domain.NotFoundError{Resource: "producto", ID: sku}
}

// LockByIDs es una búsqueda simple: el mutex del store ya aísla la unidad de trabajo.
func (r *productRepo) LockByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*domain.Product, error) {
	out := make(map[uuid.UUID]*domain.Product, len(ids))
	for _, id := range ids {
		p, err := r.FindByID(ctx, id)
		if errors.Is(err, domain.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out[id] = p
	}
	return out, nil
}

func (r *productRepo) Save(ctx context.Context, p *domain.Product) error {
	all, err := r.all()
	if err != nil {
		return err
	}
	idx := -1
	for i := range all {
		if all[i].ID == p.ID {
			idx = i
			continue
		}
		if strings.EqualFold(all[i].SKU, p.SKU) {
			return &domain.ConflictError{Message: "ya existe un producto con sku " + p.SKU}
		}
	}
	if idx >= 0 {
		r.st.products[idx] = *p
	} else {
		r.st.products = append(r.st.products, *p)
	}
	r.st.touch(colProducts)
	return nil
}

func (r *productRepo) Delete(ctx context.Context, id uuid.UUID) error {
	all, err := r.all()
	if err != nil {
		return err
	}
	for i := range all {
		if all[i].ID == id {
			r.st.products = append(all[:i:i], all[i+1:]...)
			r.st.touch(colProducts)
			return nil
		}
	}
	return domain.NewNotFound("producto", id)
}

func (r *productRepo) Count(ctx context.Context) (int64, error) {
	all, err := r.all()
	return int64(len(all)), err
}

func (r *productRepo) DistinctCategories(ctx context.Context) ([]string, error) {
	all, err := r.all()
	if err != nil {
		return nil, err
	}
	seen := map[string]struct{}{}
	cats := []string{}
	for _, p := range all {
		if p.Category == "" {
			continue
		}
		if _, ok := seen[p.Category]; ok {
			continue
		}
		seen[p.Category] = struct{}{}
		cats = append(cats, p.Category)
	}
	sort.Strings(cats)
	return cats, nil
}

// ---- clientes ----

type customerRepo struct{ st *state }

func (r *customerRepo) all() ([]domain.Customer, error) {
	if err := r.st.load(colCustomers, &r.st.customers); err != nil {
		return nil, err
	}
	return r.st.customers, nil
}

func (r *customerRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Customer, error) {
	all, err := r.all()
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].ID == id {
			c := all[i]
			return &c, nil
		}
	}
	return nil, domain.NewNotFound("cliente", id)
}

func (r *customerRepo) FindByEmail(ctx context.Context, email string) (*domain.Customer, error) {
	e := domain.NormalizeEmail(email)
	all, err := r.all()
	if err != nil {
		return nil, err
	}
	if e != "" {
		for i := range all {
			if all[i].Email == e {
				c := all[i]
				return &c, nil
			}
		}
	}
	return nil, &domain.NotFoundError{Resource: "cliente", ID: e}
}

func (r *customerRepo) List(ctx context.Context) ([]domain.Customer, error) {
	all, err := r.all()
	if err != nil {
		return nil, err
	}
	list := append([]domain.Customer(nil), all...)
	sort.SliceStable(list, func(i, j int) bool { return strings.ToLower(list[i].Name) < strings.ToLower(list[j].Name) })
	return list, nil
}

func (r *customerRepo) Save(ctx context.Context, c *domain.Customer) error {
	all, err := r.all()
	if err != nil {
		return err
	}
	c.Email = domain.NormalizeEmail(c.Email)
	idx := -1
	for i := range all {
		if all[i].ID == c.ID {
			idx = i
			continue
		}
		if c.Email != "" && all[i].Email == c.Email {
			return &domain.ConflictError{Message: "ya existe un cliente con email " + c.Email}
		}
	}
	if idx >= 0 {
		r.st.customers[idx] = *c
	} else {
		r.st.customers = append(r.st.customers, *c)
	}
	r.st.touch(colCustomers)
	return nil
}

// ---- pedidos ----

type orderRepo struct{ st *state }

func (r *orderRepo) all() ([]domain.Order, error) {
	if err := r.st.load(colOrders, &r.st.orders); err != nil {
		return nil, err
	}
	return r.st.orders, nil
}

func cloneOrder(o domain.Order) *domain.Order {
	o.Items = append([]domain.OrderItem(nil), o.Items...)
	return &o
}

func (r *orderRepo) Create(ctx context.Context, o *domain.Order) error {
	all, err := r.all()
	if err != nil {
		return err
	}
	for i := range all {
		if all[i].ID == o.ID || all[i].Number == o.Number {
			return &domain.ConflictError{Message: "pedido duplicado " + o.Number}
		}
	}
	r.st.orders = append(r.st.orders, *cloneOrder(*o))
	r.st.touch(colOrders)
	return nil
}

func (r *orderRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	all, err := r.all()
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].ID == id {
			return cloneOrder(all[i]), nil
		}
	}
	return nil, domain.NewNotFound("pedido", id)
}

// UpdateStatus escribe sólo los campos mutables del pedido.
func (r *orderRepo) UpdateStatus(ctx context.Context, o *domain.Order) error {
	all, err := r.all()
	if err != nil {
		return err
	}
	for i := range all {
		if all[i].ID == o.ID {
			r.st.orders[i].Status = o.Status
			r.st.orders[i].DeliveryPersonID = o.DeliveryPersonID
			r.st.orders[i].DeliveryPersonName = o.DeliveryPersonName
			r.st.orders[i].UpdatedAt = o.UpdatedAt
			r.st.touch(colOrders)
			return nil
		}
	}
	return domain.NewNotFound("pedido", o.ID)
}

func (r *orderRepo) List(ctx context.Context, f domain.OrderFilter) ([]domain.Order, int64, error) {
	all, err := r.all()
	if err != nil {
		return nil, 0, err
	}
	list := make([]domain.Order, 0, len(all))
	for _, o := range all {
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		if f.DeliveryPersonID != "" && o.DeliveryPersonID != f.DeliveryPersonID {
			continue
		}
		if f.CustomerID != nil && o.CustomerID != *f.CustomerID {
			continue
		}
		list = append(list, *cloneOrder(o))
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].Date.After(list[j].Date) })
	return paginate(list, f.Page, f.PageSize), int64(len(list)), nil
}

func (r *orderRepo) ListInRange(ctx context.Context, from, to time.Time) ([]domain.Order, error) {
	all, err := r.all()
	if err != nil {
		return nil, err
	}
	list := []domain.Order{}
	for _, o := range all {
		if o.Date.Before(from) || o.Date.After(to) {
			continue
		}
		list = append(list, *cloneOrder(o))
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].Date.Before(list[j].Date) })
	return list, nil
}

// ---- facturas ----

type invoiceRepo struct{ st *state }

func (r *invoiceRepo) all() ([]domain.Invoice, error) {
	if err := r.st.load(colInvoices, &r.st.invoices); err != nil {
		return nil, err
	}
	return r.st.invoices, nil
}

func cloneInvoice(inv domain.Invoice) *domain.Invoice {
	inv.Items = append([]domain.InvoiceItem(nil), inv.Items...)
	return &inv
}

func (r *invoiceRepo) Create(ctx context.Context, inv *domain.Invoice) error {
	all, err := r.all()
	if err != nil {
		return err
	}
	for i := range all {
		if all[i].OrderID == inv.OrderID {
			return &domain.ConflictError{Message: "el pedido " + inv.OrderNumber + " ya tiene factura"}
		}
		if all[i].Number == inv.Number {
			return &domain.ConflictError{Message: "factura duplicada " + inv.Number}
		}
	}
	r.st.invoices = append(r.st.invoices, *cloneInvoice(*inv))
	r.st.touch(colInvoices)
	return nil
}

func (r *invoiceRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Invoice, error) {
	all, err := r.all()
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].ID == id {
			return cloneInvoice(all[i]), nil
		}
	}
	return nil, domain.NewNotFound("factura", id)
}

func (r *invoiceRepo) FindByOrderID(ctx context.Context, orderID uuid.UUID) (*domain.Invoice, error) {
	all, err := r.all()
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].OrderID == orderID {
			return cloneInvoice(all[i]), nil
		}
	}
	return nil, &domain.NotFoundError{Resource: "factura del pedido", ID: orderID.String()}
}

func (r *invoiceRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.InvoiceStatus, at time.Time) error {
	all, err := r.all()
	if err != nil {
		return err
	}
	for i := range all {
		if all[i].ID == id {
			r.st.invoices[i].Status = status
			r.st.invoices[i].UpdatedAt = at
			r.st.touch(colInvoices)
			return nil
		}
	}
	return domain.NewNotFound("factura", id)
}

func (r *invoiceRepo) List(ctx context.Context, f domain.InvoiceFilter) ([]domain.Invoice, int64, error) {
	all, err := r.all()
	if err != nil {
		return nil, 0, err
	}
	list := make([]domain.Invoice, 0, len(all))
	for _, inv := range all {
		if f.Status != "" && inv.Status != f.Status {
			continue
		}
		list = append(list, *cloneInvoice(inv))
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].IssuedAt.After(list[j].IssuedAt) })
	return paginate(list, f.Page, f.PageSize), int64(len(list)), nil
}

func (r *invoiceRepo) ListInRange(ctx context.Context, from, to time.Time) ([]domain.Invoice, error) {
	all, err := r.all()
	if err != nil {
		return nil, err
	}
	list := []domain.Invoice{}
	for _, inv := range all {
		if inv.IssuedAt.Before(from) || inv.IssuedAt.After(to) {
			continue
		}
		list = append(list, *cloneInvoice(inv))
	}
	return list, nil
}

// ---- movimientos ----

type movementRepo struct{ st *state }

func (r *movementRepo) Create(ctx context.Context, mv []domain.StockMovement) error {
	if len(mv) == 0 {
		return nil
	}
	if err := r.st.load(colMovements, &r.st.movements); err != nil {
		return err
	}
	r.st.movements = append(r.st.movements, mv...)
	r.st.touch(colMovements)
	return nil
}

func (r *movementRepo) ListByProduct(ctx context.Context, productID uuid.UUID, limit int) ([]domain.StockMovement, error) {
	if err := r.st.load(colMovements, &r.st.movements); err != nil {
		return nil, err
	}
	list := []domain.StockMovement{}
	for i := len(r.st.movements) - 1; i >= 0; i-- {
		if r.st.movements[i].ProductID != productID {
			continue
		}
		list = append(list, r.st.movements[i])
		if limit > 0 && len(list) == limit {
			break
		}
	}
	return list, nil
}

// ---- secuencias ----

type sequencer struct{ st *state }

// Next arranca desde el mayor número ya guardado cuando la secuencia es nueva,
// así los datos previos a las secuencias conservan números únicos.
func (s *sequencer) Next(ctx context.Context, name string) (int64, error) {
	if err := s.st.load(colSequences, &s.st.sequences); err != nil {
		return 0, err
	}
	if s.st.sequences == nil {
		s.st.sequences = map[string]int64{}
	}
	cur, ok := s.st.sequences[name]
	if !ok {
		var err error
		if cur, err = s.highest(name); err != nil {
			return 0, err
		}
	}
	cur++
	s.st.sequences[name] = cur
	s.st.touch(colSequences)
	return cur, nil
}

func (s *sequencer) highest(name string) (int64, error) {
	var numbers []string
	switch name {
	case domain.SequenceOrders:
		if err := s.st.load(colOrders, &s.st.orders); err != nil {
			return 0, err
		}
		for _, o := range s.st.orders {
			numbers = append(numbers, o.Number)
		}
	case domain.SequenceInvoices:
		if err := s.st.load(colInvoices, &s.st.invoices); err != nil {
			return 0, err
		}
		for _, inv := range s.st.invoices {
			numbers = append(numbers, inv.Number)
		}
	}
	var max int64
	for _, n := range numbers {
		i := strings.LastIndex(n, "-")
		v, err := strconv.ParseInt(n[i+1:], 10, 64)
		if err == nil && v > max {
			max = v
		}
	}
	return max, nil
}
