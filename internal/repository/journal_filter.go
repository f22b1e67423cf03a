package repository

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	DefaultLimit = 200
	MaxLimit     = 1000
)

// JournalFilter narrows journal listings. From and To are inclusive.
type JournalFilter struct {
	BaseIDs         []uuid.UUID
	EquipmentTypeID *uuid.UUID
	Status          string
	From            *time.Time
	To              *time.Time
	Limit           int
	Offset          int
}

func (f JournalFilter) limit() int {
	switch {
	case f.Limit <= 0:
		return DefaultLimit
	case f.Limit > MaxLimit:
		return MaxLimit
	default:
		return f.Limit
	}
}

// scope applies the filter to a single-base journal table.
func (f JournalFilter) scope(q *gorm.DB, dateColumn string) *gorm.DB {
	if len(f.BaseIDs) > 0 {
		q = q.Where("base_id IN ?", f.BaseIDs)
	}
	if f.EquipmentTypeID != nil {
		q = q.Where("equipment_type_id = ?", *f.EquipmentTypeID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.From != nil {
		q = q.Where(dateColumn+" >= ?", f.From.UTC())
	}
	if f.To != nil {
		q = q.Where(dateColumn+" <= ?", f.To.UTC())
	}
	return q.Order(dateColumn + " DESC").Limit(f.limit()).Offset(f.Offset)
}
