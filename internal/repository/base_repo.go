package repository

import (
	"context"

	"go-armory-ledger/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BaseRepository interface {
	Create(ctx context.Context, base *model.Base) error
	FindAll(ctx context.Context) ([]model.Base, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Base, error)
	FindByName(ctx context.Context, name string) (*model.Base, error)
	AllIDs(ctx context.Context) ([]uuid.UUID, error)
}

type baseRepo struct {
	db *gorm.DB
}

func NewBaseRepo(db *gorm.DB) BaseRepository {
	return &baseRepo{db}
}

func (r *baseRepo) Create(ctx context.Context, base *model.Base) error {
	return r.db.WithContext(ctx).Create(base).Error
}

func (r *baseRepo) FindAll(ctx context.Context) ([]model.Base, error) {
	var bases []model.Base
	err := r.db.WithContext(ctx).Order("name ASC").Find(&bases).Error
	return bases, err
}

func (r *baseRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Base, error) {
	var base model.Base
	if err := r.db.WithContext(ctx).First(&base, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &base, nil
}

func (r *baseRepo) FindByName(ctx context.Context, name string) (*model.Base, error) {
	var base model.Base
	if err := r.db.WithContext(ctx).First(&base, "name = ?", name).Error; err != nil {
		return nil, err
	}
	return &base, nil
}

func (r *baseRepo) AllIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Model(&model.Base{}).Order("name ASC").Pluck("id", &ids).Error
	return ids, err
}
