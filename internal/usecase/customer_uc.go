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

type CustomerUC struct {
	Store domain.Store
	Now   func() time.Time
}

func (uc *CustomerUC) List(ctx context.Context) ([]domain.Customer, error) {
	var list []domain.Customer
	err := uc.Store.WithinTx(ctx, func(r domain.Repos) error {
		var err error
		list, err = r.Customers.List(ctx)
		return err
	})
	return list, err
}

func (uc *CustomerUC) Get(ctx context.Context, id uuid.UUID) (*domain.Customer, error) {
	var c *domain.Customer
	err := uc.Store.WithinTx(ctx, func(r domain.Repos) error {
		var err error
		c, err = r.Customers.FindByID(ctx, id)
		return err
	})
	return c, err
}

func (uc *CustomerUC) Create(ctx context.Context, in CustomerInput) (*domain.Customer, error) {
	now := time.Now()
	if uc.Now != nil {
		now = uc.Now()
	}
	c := &domain.Customer{
		ID:        uuid.New(),
		Name:      strings.TrimSpace(in.Name),
		Email:     domain.NormalizeEmail(in.Email),
		Phone:     strings.TrimSpace(in.Phone),
		Address:   strings.TrimSpace(in.Address),
		CreatedAt: now,
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	err := uc.Store.WithinTx(ctx, func(r domain.Repos) error {
		if c.Email != "" {
			if _, err := r.Customers.FindByEmail(ctx, c.Email); err == nil {
				return &domain.ConflictError{Message: "ya existe un cliente con email " + c.Email}
			} else if !errors.Is(err, domain.ErrNotFound) {
				return err
			}
		}
		return r.Customers.Save(ctx, c)
	})
	if err != nil {
		return nil, err
	}
	log.Info().Str("customer", c.Name).Str("email", c.Email).Msg("cliente creado")
	return c, nil
}
