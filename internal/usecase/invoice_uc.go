package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/phenrril/licores/internal/domain"
)

// InvoiceUC expone las facturas. Sólo OrderUC.Place las crea.
type InvoiceUC struct {
	Store    domain.Store
	Notifier domain.Notifier
	Now      func() time.Time
}

func (uc *InvoiceUC) Get(ctx context.Context, id uuid.UUID) (*domain.Invoice, error) {
	var inv *domain.Invoice
	err := uc.Store.WithinTx(ctx, func(r domain.Repos) error {
		var err error
		inv, err = r.Invoices.FindByID(ctx, id)
		return err
	})
	return inv, err
}

func (uc *InvoiceUC) GetByOrder(ctx context.Context, orderID uuid.UUID) (*domain.Invoice, error) {
	var inv *domain.Invoice
	err := uc.Store.WithinTx(ctx, func(r domain.Repos) error {
		var err error
		inv, err = r.Invoices.FindByOrderID(ctx, orderID)
		return err
	})
	return inv, err
}

func (uc *InvoiceUC) List(ctx context.Context, f domain.InvoiceFilter) ([]domain.Invoice, int64, error) {
	if f.PageSize == 0 {
		f.PageSize = 20
	}
	if f.Status != "" && !f.Status.IsValid() {
		return nil, 0, &domain.MissingFieldError{Field: "status", Message: "estado de factura inválido: " + string(f.Status)}
	}
	var (
		list  []domain.Invoice
		total int64
	)
	err := uc.Store.WithinTx(ctx, func(r domain.Repos) error {
		var err error
		list, total, err = r.Invoices.List(ctx, f)
		return err
	})
	return list, total, err
}

// UpdateStatus cambia sólo la factura; el pedido conserva su estado.
func (uc *InvoiceUC) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.InvoiceStatus) (*domain.Invoice, error) {
	if !status.IsValid() {
		return nil, &domain.MissingFieldError{Field: "status", Message: "estado de factura inválido: " + string(status)}
	}
	var inv *domain.Invoice
	err := uc.Store.WithinTx(ctx, func(r domain.Repos) error {
		cur, err := r.Invoices.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if !cur.Status.CanTransitionTo(status) {
			return &domain.InvalidTransitionError{From: string(cur.Status), To: string(status)}
		}
		if cur.Status != status {
			now := time.Now()
			if uc.Now != nil {
				now = uc.Now()
			}
			if err := r.Invoices.UpdateStatus(ctx, id, status, now); err != nil {
				return err
			}
			cur.Status = status
			cur.UpdatedAt = now
		}
		inv = cur
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Info().Str("invoice", inv.Number).Str("status", string(inv.Status)).Msg("estado de factura actualizado")
	if uc.Notifier != nil {
		uc.Notifier.Notify(ctx, domain.TopicInvoices)
	}
	return inv, nil
}
