package postgres

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/phenrril/licores/internal/domain"
)

type MovementRepo struct{ db *gorm.DB }

func NewMovementRepo(db *gorm.DB) *MovementRepo { return &MovementRepo{db: db} }

func (r *MovementRepo) Create(ctx context.Context, mv []domain.StockMovement) error {
	if len(mv) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(mv, 100).Error
}

func (r *MovementRepo) ListByProduct(ctx context.Context, productID uuid.UUID, limit int) ([]domain.StockMovement, error) {
	list := []domain.StockMovement{}
	q := r.db.WithContext(ctx).Where("product_id = ?", productID).Order("created_at desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}
