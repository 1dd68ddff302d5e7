package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/phenrril/licores/internal/domain"
)

type OrderRepo struct{ db *gorm.DB }

func NewOrderRepo(db *gorm.DB) *OrderRepo { return &OrderRepo{db: db} }

func (r *OrderRepo) Create(ctx context.Context, o *domain.Order) error {
	return translate(r.db.WithContext(ctx).Create(o).Error, nil)
}

func (r *OrderRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	var o domain.Order
	if err := r.db.WithContext(ctx).Preload("Items").First(&o, "id = ?", id).Error; err != nil {
		return nil, translate(err, domain.NewNotFound("pedido", id))
	}
	return &o, nil
}

func (r *OrderRepo) UpdateStatus(ctx context.Context, o *domain.Order) error {
	res := r.db.WithContext(ctx).Model(&domain.Order{}).Where("id = ?", o.ID).Updates(map[string]any{
		"status":               o.Status,
		"delivery_person_id":   o.DeliveryPersonID,
		"delivery_person_name": o.DeliveryPersonName,
		"updated_at":           o.UpdatedAt,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.NewNotFound("pedido", o.ID)
	}
	return nil
}

func (r *OrderRepo) List(ctx context.Context, f domain.OrderFilter) ([]domain.Order, int64, error) {
	var list []domain.Order
	q := r.db.WithContext(ctx).Model(&domain.Order{})
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.DeliveryPersonID != "" {
		q = q.Where("delivery_person_id = ?", f.DeliveryPersonID)
	}
	if f.CustomerID != nil {
		q = q.Where("customer_id = ?", *f.CustomerID)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	q = q.Order("date desc")
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

func (r *OrderRepo) ListInRange(ctx context.Context, from, to time.Time) ([]domain.Order, error) {
	var list []domain.Order
	if err := r.db.WithContext(ctx).Preload("Items").
		Where("date BETWEEN ? AND ?", from, to).
		Order("date asc").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}
