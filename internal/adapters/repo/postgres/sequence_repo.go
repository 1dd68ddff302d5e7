package postgres

import (
	"context"

	"gorm.io/gorm"
)

// Sequence guarda el último número emitido por nombre.
type Sequence struct {
	Name  string `gorm:"primaryKey;size:40"`
	Value int64  `gorm:"not null"`
}

type SequenceRepo struct{ db *gorm.DB }

func NewSequenceRepo(db *gorm.DB) *SequenceRepo { return &SequenceRepo{db: db} }

// Next incrementa en una sola sentencia; el upsert toma el lock de la fila.
func (r *SequenceRepo) Next(ctx context.Context, name string) (int64, error) {
	var v int64
	err := r.db.WithContext(ctx).Raw(
		`INSERT INTO sequences (name, value) VALUES (?, 1)
		 ON CONFLICT (name) DO UPDATE SET value = sequences.value + 1
		 RETURNING value`, name,
	).Scan(&v).Error
	return v, err
}
