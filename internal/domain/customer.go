package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Customer struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"size:140;not null" json:"name"`
	Email     string    `gorm:"size:140;uniqueIndex" json:"email"`
	Phone     string    `gorm:"size:60" json:"phone,omitempty"`
	Address   string    `gorm:"size:255" json:"address"`
	CreatedAt time.Time `json:"created_at"`
}

// NormalizeEmail es la forma en que se comparan y guardan los emails.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (c *Customer) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return &MissingFieldError{Field: "customer", Message: "falta el nombre del cliente"}
	}
	if strings.TrimSpace(c.Address) == "" {
		return &MissingFieldError{Field: "address", Message: "falta la dirección del cliente"}
	}
	return nil
}
