package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/phenrril/licores/internal/domain"
)

const (
	colProducts  = "products"
	colCustomers = "customers"
	colOrders    = "orders"
	colInvoices  = "invoices"
	colMovements = "movements"
	colSequences = "sequences"
)

// Backend guarda colecciones completas como documentos JSON.
type Backend interface {
	// Load devuelve nil si la colección nunca se guardó.
	Load(collection string) ([]byte, error)
	Save(collection string, data []byte) error
}

// BatchSaver guarda varias colecciones juntas: o se guardan todas o ninguna.
// order indica en qué orden se publican.
type BatchSaver interface {
	SaveAll(order []string, docs map[string][]byte) error
}

// Store implementa domain.Store sobre un snapshot completo: la unidad de trabajo
// lo modifica en memoria y al final se guardan las colecciones tocadas. Un mutex
// serializa las unidades de trabajo. Si la unidad falla no se guarda nada.
type Store struct {
	mu      sync.Mutex
	backend Backend
}

func New(b Backend) *Store {
	return &Store{backend: b}
}

// NewMemory devuelve un store sobre un mapa en memoria.
func NewMemory() *Store {
	return New(NewMemoryBackend())
}

func (s *Store) WithinTx(ctx context.Context, fn func(r domain.Repos) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	st := &state{backend: s.backend, dirty: map[string]bool{}}
	if err := fn(st.repos()); err != nil {
		return err
	}
	return st.flush()
}

type state struct {
	backend Backend
	dirty   map[string]bool

	products  []domain.Product
	customers []domain.Customer
	orders    []domain.Order
	invoices  []domain.Invoice
	movements []domain.StockMovement
	sequences map[string]int64

	loaded map[string]bool
}

func (st *state) repos() domain.Repos {
	return domain.Repos{
		Products:  &productRepo{st: st},
		Customers: &customerRepo{st: st},
		Orders:    &orderRepo{st: st},
		Invoices:  &invoiceRepo{st: st},
		Movements: &movementRepo{st: st},
		Sequences: &sequencer{st: st},
	}
}

// load decodifica la colección en dst la primera vez que la unidad de trabajo la usa.
func (st *state) load(collection string, dst any) error {
	if st.loaded == nil {
		st.loaded = map[string]bool{}
	}
	if st.loaded[collection] {
		return nil
	}
	data, err := st.backend.Load(collection)
	if err != nil {
		return fmt.Errorf("cargar %s: %w", collection, err)
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, dst); err != nil {
			return fmt.Errorf("decodificar %s: %w", collection, err)
		}
	}
	st.loaded[collection] = true
	return nil
}

func (st *state) touch(collection string) { st.dirty[collection] = true }

// flushOrder deja products al final: si un guardado parcial falla, el stock
// nunca queda descontado sin el pedido que lo justifica.
var flushOrder = []string{colSequences, colCustomers, colOrders, colInvoices, colMovements, colProducts}

func (st *state) flush() error {
	values := map[string]any{
		colProducts:  st.products,
		colCustomers: st.customers,
		colOrders:    st.orders,
		colInvoices:  st.invoices,
		colMovements: st.movements,
		colSequences: st.sequences,
	}
	docs := make(map[string][]byte, len(st.dirty))
	order := make([]string, 0, len(st.dirty))
	for _, name := range flushOrder {
		if !st.dirty[name] {
			continue
		}
		data, err := json.Marshal(values[name])
		if err != nil {
			return fmt.Errorf("codificar %s: %w", name, err)
		}
		docs[name] = data
		order = append(order, name)
	}
	if len(order) == 0 {
		return nil
	}
	if b, ok := st.backend.(BatchSaver); ok {
		return b.SaveAll(order, docs)
	}
	for _, name := range order {
		if err := st.backend.Save(name, docs[name]); err != nil {
			return err
		}
	}
	return nil
}

// MemoryBackend guarda las colecciones en memoria; lo usan los tests y el modo demo.
type MemoryBackend struct {
	mu   sync.Mutex
	data map[string][]byte
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{data: map[string][]byte{}}
}

func (m *MemoryBackend) Load(collection string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.data[collection]
	if !ok {
		return nil, nil
	}
	out := make([]byte, len(d))
	copy(out, d)
	return out, nil
}

func (m *MemoryBackend) Save(collection string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]byte, len(data))
	copy(cp, data)
	m.data[collection] = cp
	return nil
}

func (m *MemoryBackend) SaveAll(order []string, docs map[string][]byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, name := range order {
		cp := make([]byte, len(docs[name]))
		copy(cp, docs[name])
		m.data[name] = cp
	}
	return nil
}
