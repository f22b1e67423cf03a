package service

import (
	"context"
	"errors"

	"go-armory-ledger/internal/model"
	"go-armory-ledger/internal/repository"
	"go-armory-ledger/pkg/apperrors"
	"go-armory-ledger/pkg/validator"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ReferenceService manages bases and equipment types and exposes the
// balance store read side.
type ReferenceService interface {
	ListBases(ctx context.Context) ([]model.Base, error)
	CreateBase(ctx context.Context, actor model.Actor, req *CreateBaseRequest) (*model.Base, error)
	ListEquipmentTypes(ctx context.Context) ([]model.EquipmentType, error)
	CreateEquipmentType(ctx context.Context, actor model.Actor, req *CreateEquipmentTypeRequest) (*model.EquipmentType, error)
	ListBalances(ctx context.Context, actor model.Actor, filter repository.BalanceFilter) ([]model.Balance, error)
}

type CreateBaseRequest struct {
	Name     string `json:"name" validate:"required,max=120"`
	Location string `json:"location" validate:"max=255"`
}

type CreateEquipmentTypeRequest struct {
	Name     string `json:"name" validate:"required,max=120"`
	Category string `json:"category" validate:"required,max=60"`
	Unit     string `json:"unit" validate:"max=20"`
}

type referenceService struct {
	*Ledger
}

func NewReferenceService(l *Ledger) ReferenceService {
	return &referenceService{Ledger: l}
}

func (s *referenceService) ListBases(ctx context.Context) ([]model.Base, error) {
	return s.Bases.FindAll(ctx)
}

func (s *referenceService) CreateBase(ctx context.Context, actor model.Actor, req *CreateBaseRequest) (*model.Base, error) {
	if err := validator.Struct(req); err != nil {
		return nil, err
	}
	if _, err := s.Bases.FindByName(ctx, req.Name); err == nil {
		return nil, apperrors.NewValidationError("base %q already exists", req.Name)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	base := &model.Base{Name: req.Name, Location: req.Location}
	base.CreatedBy = actor.ID.String()
	if err := s.Bases.Create(ctx, base); err != nil {
		return nil, err
	}
	s.Logger.Info("base created", zap.String("base_id", base.ID.String()), zap.String("name", base.Name))
	return base, nil
}

func (s *referenceService) ListEquipmentTypes(ctx context.Context) ([]model.EquipmentType, error) {
	return s.EquipmentTypes.FindAll(ctx)
}

func (s *referenceService) CreateEquipmentType(ctx context.Context, actor model.Actor, req *CreateEquipmentTypeRequest) (*model.EquipmentType, error) {
	if err := validator.Struct(req); err != nil {
		return nil, err
	}
	if _, err := s.EquipmentTypes.FindByName(ctx, req.Name); err == nil {
		return nil, apperrors.NewValidationError("equipment type %q already exists", req.Name)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	unit := req.Unit
	if unit == "" {
		unit = "unit"
	}
	equipmentType := &model.EquipmentType{Name: req.Name, Category: req.Category, Unit: unit}
	equipmentType.CreatedBy = actor.ID.String()
	if err := s.EquipmentTypes.Create(ctx, equipmentType); err != nil {
		return nil, err
	}
	s.Logger.Info("equipment type created",
		zap.String("equipment_type_id", equipmentType.ID.String()),
		zap.String("name", equipmentType.Name),
	)
	return equipmentType, nil
}

func (s *referenceService) ListBalances(ctx context.Context, actor model.Actor, filter repository.BalanceFilter) ([]model.Balance, error) {
	bases, err := s.visibleBases(ctx, actor, filter.BaseIDs)
	if err != nil || len(bases) == 0 {
		return []model.Balance{}, err
	}
	filter.BaseIDs = bases
	return s.Balances.List(ctx, filter)
}
