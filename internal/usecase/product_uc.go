package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/phenrril/licores/internal/domain"
)

type ProductUC struct {
	Store    domain.Store
	Notifier domain.Notifier
	Now      func() time.Time
}

type ProductInput struct {
	SKU              string       `json:"sku"`
	Name             string       `json:"name"`
	Category         string       `json:"category"`
	Price            float64      `json:"price"`
	ReorderThreshold int          `json:"reorder_threshold"`
	Stock            domain.Stock `json:"stock"`
}

type TransferInput struct {
	ProductID uuid.UUID        `json:"product_id"`
	From      domain.Warehouse `json:"from"`
	To        domain.Warehouse `json:"to"`
	Quantity  int              `json:"quantity"`
}

type AdjustInput struct {
	Warehouse domain.Warehouse `json:"warehouse"`
	Quantity  int              `json:"quantity"`
	Reason    string           `json:"reason"`
}

func (uc *ProductUC) now() time.Time {
	if uc.Now != nil {
		return uc.Now()
	}
	return time.Now()
}

func (uc *ProductUC) notify(ctx context.Context) {
	if uc.Notifier != nil {
		uc.Notifier.Notify(ctx, domain.TopicProducts)
	}
}

func (uc *ProductUC) List(ctx context.Context, f domain.ProductFilter) ([]domain.Product, int64, error) {
	if f.PageSize == 0 {
		f.PageSize = 20
	}
	var (
		list  []domain.Product
		total int64
	)
	err := uc.Store.WithinTx(ctx, func(r domain.Repos) error {
		var err error
		list, total, err = r.Products.List(ctx, f)
		return err
	})
	return list, total, err
}

func (uc *ProductUC) Get(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	var p *domain.Product
	err := uc.Store.WithinTx(ctx, func(r domain.Repos) error {
		var err error
		p, err = r.Products.FindByID(ctx, id)
		return err
	})
	return p, err
}

func (in ProductInput) validate() error {
	if strings.TrimSpace(in.SKU) == "" {
		return &domain.MissingFieldError{Field: "sku", Message: "sku vacío"}
	}
	if strings.TrimSpace(in.Name) == "" {
		return &domain.MissingFieldError{Field: "name", Message: "nombre vacío"}
	}
	if in.Price < 0 {
		return &domain.MissingFieldError{Field: "price", Message: "el precio no puede ser negativo"}
	}
	if in.ReorderThreshold < 0 {
		return &domain.MissingFieldError{Field: "reorder_threshold", Message: "el punto de reposición no puede ser negativo"}
	}
	return in.Stock.Validate()
}

func (uc *ProductUC) Create(ctx context.Context, in ProductInput) (*domain.Product, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	now := uc.now()
	p := &domain.Product{
		ID:               uuid.New(),
		SKU:              strings.ToUpper(strings.TrimSpace(in.SKU)),
		Name:             strings.TrimSpace(in.Name),
		Category:         strings.TrimSpace(in.Category),
		Price:            in.Price,
		ReorderThreshold: in.ReorderThreshold,
		Stock:            in.Stock,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	err := uc.Store.WithinTx(ctx, func(r domain.Repos) error {
		if _, err := r.Products.FindBySKU(ctx, p.SKU); err == nil {
			return &domain.ConflictError{Message: "ya existe un producto con sku " + p.SKU}
		} else if !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		return r.Products.Save(ctx, p)
	})
	if err != nil {
		return nil, err
	}
	log.Info().Str("sku", p.SKU).Str("name", p.Name).Int("stock", p.Stock.Total()).Msg("producto creado")
	uc.notify(ctx)
	return p, nil
}

// Update cambia los datos de catálogo. Los contadores de stock sólo se mueven
// con pedidos, transferencias y ajustes.
func (uc *ProductUC) Update(ctx context.Context, id uuid.UUID, in ProductInput) (*domain.Product, error) {
	in.Stock = domain.Stock{}
	if err := in.validate(); err != nil {
		return nil, err
	}
	var p *domain.Product
	err := uc.Store.WithinTx(ctx, func(r domain.Repos) error {
		cur, err := r.Products.FindByID(ctx, id)
		if err != nil {
			return err
		}
		sku := strings.ToUpper(strings.TrimSpace(in.SKU))
		if sku != cur.SKU {
			if other, err := r.Products.FindBySKU(ctx, sku); err == nil && other.ID != cur.ID {
				return &domain.ConflictError{Message: "ya existe un producto con sku " + sku}
			} else if err != nil && !errors.Is(err, domain.ErrNotFound) {
				return err
			}
		}
		cur.SKU = sku
		cur.Name = strings.TrimSpace(in.Name)
		cur.Category = strings.TrimSpace(in.Category)
		cur.Price = in.Price
		cur.ReorderThreshold = in.ReorderThreshold
		cur.UpdatedAt = uc.now()
		p = cur
		return r.Products.Save(ctx, cur)
	})
	if err != nil {
		return nil, err
	}
	uc.notify(ctx)
	return p, nil
}

func (uc *ProductUC) Delete(ctx context.Context, id uuid.UUID) error {
	err := uc.Store.WithinTx(ctx, func(r domain.Repos) error {
		return r.Products.Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	log.Info().Str("product", id.String()).Msg("producto eliminado")
	uc.notify(ctx)
	return nil
}

func (uc *ProductUC) Categories(ctx context.Context) ([]string, error) {
	var cats []string
	err := uc.Store.WithinTx(ctx, func(r domain.Repos) error {
		var err error
		cats, err = r.Products.DistinctCategories(ctx)
		return err
	})
	return cats, err
}

// LowStock lista los productos en o por debajo de su umbral de reposición.
func (uc *ProductUC) LowStock(ctx context.Context) ([]domain.Product, error) {
	list, _, err := uc.List(ctx, domain.ProductFilter{LowStock: true, Sort: "stock", PageSize: -1})
	return list, err
}

func (uc *ProductUC) Movements(ctx context.Context, productID uuid.UUID, limit int) ([]domain.StockMovement, error) {
	if limit <= 0 {
		limit = 100
	}
	var list []domain.StockMovement
	err := uc.Store.WithinTx(ctx, func(r domain.Repos) error {
		if _, err := r.Products.FindByID(ctx, productID); err != nil {
			return err
		}
		var err error
		list, err = r.Movements.ListByProduct(ctx, productID, limit)
		return err
	})
	return list, err
}

// Transfer pasa unidades de un producto entre dos depósitos. El total entre
// depósitos no cambia.
func (uc *ProductUC) Transfer(ctx context.Context, in TransferInput) (*domain.Product, error) {
	if in.ProductID == uuid.Nil {
		return nil, &domain.MissingFieldError{Field: "product_id", Message: "transferencia sin producto"}
	}
	if !in.From.IsValid() || !in.To.IsValid() {
		return nil, &domain.MissingFieldError{Field: "warehouse", Message: "depósito de origen o destino inválido"}
	}
	if in.From == in.To {
		return nil, &domain.MissingFieldError{Field: "to", Message: "origen y destino deben ser distintos"}
	}
	if in.Quantity <= 0 {
		return nil, &domain.MissingFieldError{Field: "quantity", Message: "la cantidad debe ser mayor a cero"}
	}
	now := uc.now()
	ref := uuid.New()
	var p *domain.Product
	err := uc.Store.WithinTx(ctx, func(r domain.Repos) error {
		locked, err := r.Products.LockByIDs(ctx, []uuid.UUID{in.ProductID})
		if err != nil {
			return err
		}
		cur, ok := locked[in.ProductID]
		if !ok {
			return domain.NewNotFound("producto", in.ProductID)
		}
		out, err := applyStock(cur, in.From, -in.Quantity, domain.MovementTransferOut, &ref, string(in.To), now)
		if err != nil {
			return err
		}
		inc, err := applyStock(cur, in.To, in.Quantity, domain.MovementTransferIn, &ref, string(in.From), now)
		if err != nil {
			return err
		}
		if err := r.Products.Save(ctx, cur); err != nil {
			return err
		}
		p = cur
		return r.Movements.Create(ctx, []domain.StockMovement{out, inc})
	})
	if err != nil {
		return nil, err
	}
	log.Info().Str("sku", p.SKU).Str("from", string(in.From)).Str("to", string(in.To)).Int("qty", in.Quantity).Msg("transferencia de stock")
	uc.notify(ctx)
	return p, nil
}

// Adjust fija el contador de un depósito en la cantidad contada.
func (uc *ProductUC) Adjust(ctx context.Context, id uuid.UUID, in AdjustInput) (*domain.Product, error) {
	if !in.Warehouse.IsValid() {
		return nil, &domain.MissingFieldError{Field: "warehouse", Message: "depósito inválido"}
	}
	if in.Quantity < 0 {
		return nil, &domain.MissingFieldError{Field: "quantity", Message: "el stock no puede ser negativo"}
	}
	now := uc.now()
	var p *domain.Product
	err := uc.Store.WithinTx(ctx, func(r domain.Repos) error {
		locked, err := r.Products.LockByIDs(ctx, []uuid.UUID{id})
		if err != nil {
			return err
		}
		cur, ok := locked[id]
		if !ok {
			return domain.NewNotFound("producto", id)
		}
		p = cur
		delta := in.Quantity - cur.Stock.Get(in.Warehouse)
		if delta == 0 {
			return nil
		}
		mv, err := applyStock(cur, in.Warehouse, delta, domain.MovementAdjustment, nil, strings.TrimSpace(in.Reason), now)
		if err != nil {
			return err
		}
		if err := r.Products.Save(ctx, cur); err != nil {
			return err
		}
		return r.Movements.Create(ctx, []domain.StockMovement{mv})
	})
	if err != nil {
		return nil, err
	}
	uc.notify(ctx)
	return p, nil
}

// SeedIfEmpty carga el catálogo inicial la primera vez que se usa el store.
func (uc *ProductUC) SeedIfEmpty(ctx context.Context, seed []ProductInput) (int, error) {
	now := uc.now()
	created := 0
	err := uc.Store.WithinTx(ctx, func(r domain.Repos) error {
		n, err := r.Products.Count(ctx)
		if err != nil || n > 0 {
			return err
		}
		for _, in := range seed {
			if err := in.validate(); err != nil {
				return err
			}
			p := &domain.Product{
				ID:               uuid.New(),
				SKU:              strings.ToUpper(in.SKU),
				Name:             in.Name,
				Category:         in.Category,
				Price:            in.Price,
				ReorderThreshold: in.ReorderThreshold,
				Stock:            in.Stock,
				CreatedAt:        now,
				UpdatedAt:        now,
			}
			if err := r.Products.Save(ctx, p); err != nil {
				return err
			}
			created++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	if created > 0 {
		log.Info().Int("products", created).Msg("catálogo inicial cargado")
	}
	return created, nil
}

// ImportReport resume una carga masiva de catálogo.
type ImportReport struct {
	Created   int      `json:"created"`
	Updated   int      `json:"updated"`
	Movements int      `json:"movements"`
	Skipped   []string `json:"skipped,omitempty"`
}

// Import da de alta o actualiza productos por SKU en una sola unidad de trabajo.
// Los existentes reciben los datos de catálogo y los contadores importados; cada
// cambio de stock queda como ajuste. Las filas inválidas se saltean.
func (uc *ProductUC) Import(ctx context.Context, rows []ProductInput) (*ImportReport, error) {
	now := uc.now()
	rep := &ImportReport{}
	err := uc.Store.WithinTx(ctx, func(r domain.Repos) error {
		var moves []domain.StockMovement
		for _, in := range rows {
			if err := in.validate(); err != nil {
				rep.Skipped = append(rep.Skipped, strings.TrimSpace(in.SKU+" "+in.Name)+": "+err.Error())
				continue
			}
			sku := strings.ToUpper(strings.TrimSpace(in.SKU))
			cur, err := r.Products.FindBySKU(ctx, sku)
			if errors.Is(err, domain.ErrNotFound) {
				p := &domain.Product{
					ID:               uuid.New(),
					SKU:              sku,
					Name:             strings.TrimSpace(in.Name),
					Category:         strings.TrimSpace(in.Category),
					Price:            in.Price,
					ReorderThreshold: in.ReorderThreshold,
					Stock:            in.Stock,
					CreatedAt:        now,
					UpdatedAt:        now,
				}
				if err := r.Products.Save(ctx, p); err != nil {
					return err
				}
				rep.Created++
				continue
			}
			if err != nil {
				return err
			}
			locked, err := r.Products.LockByIDs(ctx, []uuid.UUID{cur.ID})
			if err != nil {
				return err
			}
			if l, ok := locked[cur.ID]; ok {
				cur = l
			}
			cur.Name = strings.TrimSpace(in.Name)
			cur.Category = strings.TrimSpace(in.Category)
			cur.Price = in.Price
			cur.ReorderThreshold = in.ReorderThreshold
			cur.UpdatedAt = now
			for _, w := range domain.Warehouses {
				delta := in.Stock.Get(w) - cur.Stock.Get(w)
				if delta == 0 {
					continue
				}
				mv, err := applyStock(cur, w, delta, domain.MovementAdjustment, nil, "importación", now)
				if err != nil {
					return err
				}
				moves = append(moves, mv)
			}
			if err := r.Products.Save(ctx, cur); err != nil {
				return err
			}
			rep.Updated++
		}
		rep.Movements = len(moves)
		return r.Movements.Create(ctx, moves)
	})
	if err != nil {
		return nil, err
	}
	log.Info().Int("created", rep.Created).Int("updated", rep.Updated).Int("skipped", len(rep.Skipped)).Msg("importación de catálogo")
	if rep.Created+rep.Updated > 0 {
		uc.notify(ctx)
	}
	return rep, nil
}
