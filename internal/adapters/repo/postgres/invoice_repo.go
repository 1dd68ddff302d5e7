package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/phenrril/licores/internal/domain"
)

type InvoiceRepo struct{ db *gorm.DB }

func NewInvoiceRepo(db *gorm.DB) *InvoiceRepo { return &InvoiceRepo{db: db} }

// Create depende del índice único sobre order_id para impedir una segunda factura.
func (r *InvoiceRepo) Create(ctx context.Context, inv *domain.Invoice) error {
	err := r.db.WithContext(ctx).Create(inv).Error
	if err != nil {
		if terr := translate(err, nil); terr != err {
			return &domain.ConflictError{Message: "el pedido " + inv.OrderNumber + " ya tiene factura"}
		}
	}
	return err
}

func (r *InvoiceRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Invoice, error) {
	var inv domain.Invoice
	if err := r.db.WithContext(ctx).Preload("Items").First(&inv, "id = ?", id).Error; err != nil {
		return nil, translate(err, domain.NewNotFound("factura", id))
	}
	return &inv, nil
}

func (r *InvoiceRepo) FindByOrderID(ctx context.Context, orderID uuid.UUID) (*domain.Invoice, error) {
	var inv domain.Invoice
	if err := r.db.WithContext(ctx).Preload("Items").First(&inv, "order_id = ?", orderID).Error; err != nil {
		return nil, translate(err, &domain.NotFoundError{Resource: "factura del pedido", ID: orderID.String()})
	}
	return &inv, nil
}

func (r *InvoiceRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.InvoiceStatus, at time.Time) error {
	res := r.db.WithContext(ctx).Model(&domain.Invoice{}).Where("id = ?", id).Updates(map[string]any{
		"status":     status,
		"updated_at": at,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.NewNotFound("factura", id)
	}
	return nil
}

func (r *InvoiceRepo) List(ctx context.Context, f domain.InvoiceFilter) ([]domain.Invoice, int64, error) {
	var list []domain.Invoice
	q := r.db.WithContext(ctx).Model(&domain.Invoice{})
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	q = q.Order("issued_at desc")
	if f.PageSize > 0 {
		if f.Page <= 0 {
			f.Page = 1
		}
		q = q.Offset((f.Page - 1) * f.PageSize).Limit(f.PageSize)
	}
	if err := q.Preload("Items").Find(&list).Error; err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (r *InvoiceRepo) ListInRange(ctx context.Context, from, to time.Time) ([]domain.Invoice, error) {
	var list []domain.Invoice
	if err := r.db.WithContext(ctx).
		Where("issued_at BETWEEN ? AND ?", from, to).
		Order("issued_at asc").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}
