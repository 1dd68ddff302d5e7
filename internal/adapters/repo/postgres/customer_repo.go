package postgres

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/phenrril/licores/internal/domain"
)

type CustomerRepo struct{ db *gorm.DB }

func NewCustomerRepo(db *gorm.DB) *CustomerRepo { return &CustomerRepo{db: db} }

func (r *CustomerRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Customer, error) {
	var c domain.Customer
	if err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, translate(err, domain.NewNotFound("cliente", id))
	}
	return &c, nil
}

func (r *CustomerRepo) FindByEmail(ctx context.Context, email string) (*domain.Customer, error) {
	var c domain.Customer
	e := domain.NormalizeEmail(email)
	if e == "" {
		return nil, &domain.NotFoundError{Resource: "cliente"}
	}
	if err := r.db.WithContext(ctx).First(&c, "LOWER(email) = ?", e).Error; err != nil {
		return nil, translate(err, &domain.NotFoundError{Resource: "cliente", ID: e})
	}
	return &c, nil
}

func (r *CustomerRepo) List(ctx context.Context) ([]domain.Customer, error) {
	var list []domain.Customer
	if err := r.db.WithContext(ctx).Order("name asc").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *CustomerRepo) Save(ctx context.Context, c *domain.Customer) error {
	c.Email = domain.NormalizeEmail(c.Email)
	return translate(r.db.WithContext(ctx).Save(c).Error, nil)
}
