package repository

import (
	"context"

	"go-armory-ledger/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type EquipmentTypeRepository interface {
	Create(ctx context.Context, equipmentType *model.EquipmentType) error
	FindAll(ctx context.Context) ([]model.EquipmentType, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.EquipmentType, error)
	FindByName(ctx context.Context, name string) (*model.EquipmentType, error)
}

type equipmentTypeRepo struct {
	db *gorm.DB
}

func NewEquipmentTypeRepo(db *gorm.DB) EquipmentTypeRepository {
	return &equipmentTypeRepo{db}
}

func (r *equipmentTypeRepo) Create(ctx context.Context, equipmentType *model.EquipmentType) error {
	return r.db.WithContext(ctx).Create(equipmentType).Error
}

func (r *equipmentTypeRepo) FindAll(ctx context.Context) ([]model.EquipmentType, error) {
	var types []model.EquipmentType
	err := r.db.WithContext(ctx).Order("name ASC").Find(&types).Error
	return types, err
}

func (r *equipmentTypeRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.EquipmentType, error) {
	var equipmentType model.EquipmentType
	if err := r.db.WithContext(ctx).First(&equipmentType, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &equipmentType, nil
}

func (r *equipmentTypeRepo) FindByName(ctx context.Context, name string) (*model.EquipmentType, error) {
	var equipmentType model.EquipmentType
	if err := r.db.WithContext(ctx).First(&equipmentType, "name = ?", name).Error; err != nil {
		return nil, err
	}
	return &equipmentType, nil
}
