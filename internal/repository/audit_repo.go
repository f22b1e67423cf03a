package repository

import (
	"context"

	"go-armory-ledger/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AuditRepository interface {
	Create(ctx context.Context, entry *model.AuditLog) error
	List(ctx context.Context, filter AuditFilter) ([]model.AuditLog, error)
}

type AuditFilter struct {
	RecordID *uuid.UUID
	Action   string
	Limit    int
	Offset   int
}

type auditRepo struct {
	db *gorm.DB
}

func NewAuditRepo(db *gorm.DB) AuditRepository {
	return &auditRepo{db}
}

func (r *auditRepo) Create(ctx context.Context, entry *model.AuditLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *auditRepo) List(ctx context.Context, filter AuditFilter) ([]model.AuditLog, error) {
	var logs []model.AuditLog
	q := r.db.WithContext(ctx)
	if filter.RecordID != nil {
		q = q.Where("record_id = ?", *filter.RecordID)
	}
	if filter.Action != "" {
		q = q.Where("action = ?", filter.Action)
	}
	limit := filter.Limit
	if limit <= 0 || limit > MaxLimit {
		limit = DefaultLimit
	}
	err := q.Order("created_at DESC").Limit(limit).Offset(filter.Offset).Find(&logs).Error
	return logs, err
}
