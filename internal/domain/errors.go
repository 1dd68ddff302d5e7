package domain

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrNotFound          = errors.New("no encontrado")
	ErrInsufficientStock = errors.New("stock insuficiente")
	ErrMissingField      = errors.New("falta un campo obligatorio")
	ErrInvalidTransition = errors.New("transición de estado inválida")
	ErrConflict          = errors.New("conflicto")
)

// NotFoundError indica que la entidad buscada no existe.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s no encontrado", e.Resource)
	}
	return fmt.Sprintf("%s no encontrado: %s", e.Resource, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

func NewNotFound(resource string, id uuid.UUID) error {
	return &NotFoundError{Resource: resource, ID: id.String()}
}

// InsufficientStockError indica un contador menor que la cantidad pedida.
type InsufficientStockError struct {
	ProductID   uuid.UUID
	ProductName string
	Warehouse   Warehouse
	Available   int
	Requested   int
}

func (e *InsufficientStockError) Error() string {
	name := e.ProductName
	if name == "" && e.ProductID != uuid.Nil {
		name = e.ProductID.String()
	}
	if name == "" {
		return fmt.Sprintf("stock insuficiente en %s: disponible %d, solicitado %d", e.Warehouse.Label(), e.Available, e.Requested)
	}
	return fmt.Sprintf("stock insuficiente de %s en %s: disponible %d, solicitado %d", name, e.Warehouse.Label(), e.Available, e.Requested)
}

func (e *InsufficientStockError) Is(target error) bool { return target == ErrInsufficientStock }

type MissingFieldError struct {
	Field   string
	Message string
}

func (e *MissingFieldError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "falta el campo obligatorio: " + e.Field
}

func (e *MissingFieldError) Is(target error) bool { return target == ErrMissingField }

type InvalidTransitionError struct {
	From string
	To   string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("no se puede pasar de %s a %s", e.From, e.To)
}

func (e *InvalidTransitionError) Is(target error) bool { return target == ErrInvalidTransition }

type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return ErrConflict.Error()
}

func (e *ConflictError) Is(target error) bool { return target == ErrConflict }
