package service

import (
	"context"
	"time"

	"go-armory-ledger/internal/model"
	"go-armory-ledger/internal/repository"
	"go-armory-ledger/pkg/validator"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ExpenditureService interface {
	Record(ctx context.Context, actor model.Actor, req *RecordExpenditureRequest) (*model.Expenditure, error)
	List(ctx context.Context, actor model.Actor, filter repository.JournalFilter) ([]model.Expenditure, error)
}

type RecordExpenditureRequest struct {
	BaseID          uuid.UUID  `json:"base_id" validate:"uuid_required"`
	EquipmentTypeID uuid.UUID  `json:"equipment_type_id" validate:"uuid_required"`
	Quantity        int        `json:"quantity" validate:"required,gt=0"`
	Reason          string     `json:"reason" validate:"required,max=255"`
	ExpenditureDate time.Time  `json:"expenditure_date"`
	ApprovedBy      *uuid.UUID `json:"approved_by"`
	Notes           string     `json:"notes" validate:"max=2000"`
}

type expenditureService struct {
	*Ledger
	expenditureRepo repository.ExpenditureRepository
}

func NewExpenditureService(l *Ledger, expenditureRepo repository.ExpenditureRepository) ExpenditureService {
	return &expenditureService{Ledger: l, expenditureRepo: expenditureRepo}
}

func (s *expenditureService) Record(ctx context.Context, actor model.Actor, req *RecordExpenditureRequest) (*model.Expenditure, error) {
	if err := validator.Struct(req); err != nil {
		return nil, err
	}
	ctx, cancel := s.begin(ctx)
	defer cancel()

	if err := s.authorize(actor, "record expenditure", req.BaseID); err != nil {
		return nil, err
	}
	if _, err := s.requireBase(ctx, req.BaseID); err != nil {
		return nil, err
	}
	if _, err := s.requireEquipmentType(ctx, req.EquipmentTypeID); err != nil {
		return nil, err
	}

	var expenditure *model.Expenditure
	var balanceAfter int
	err := s.Tx.RunInTransaction(ctx, func(tx *gorm.DB) error {
		key := model.BalanceKey{BaseID: req.BaseID, EquipmentTypeID: req.EquipmentTypeID}
		next, err := s.Balances.Adjust(tx, key, -req.Quantity)
		if err != nil {
			return err
		}

		e := &model.Expenditure{
			BaseID:          req.BaseID,
			EquipmentTypeID: req.EquipmentTypeID,
			Quantity:        req.Quantity,
			Reason:          req.Reason,
			ExpenditureDate: utcOrNow(req.ExpenditureDate),
			ApprovedBy:      req.ApprovedBy,
			Notes:           req.Notes,
		}
		e.CreatedBy = actor.ID
		if err := s.expenditureRepo.Create(tx, e); err != nil {
			return err
		}
		expenditure, balanceAfter = e, next
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Info("expenditure recorded",
		zap.String("expenditure_id", expenditure.ID.String()),
		zap.String("base_id", expenditure.BaseID.String()),
		zap.Int("quantity", expenditure.Quantity),
		zap.Int("balance_after", balanceAfter),
	)
	s.committed(ctx, model.AuditEntry{
		Action:   model.AuditExpenditureRecorded,
		Table:    "expenditures",
		RecordID: expenditure.ID,
		BaseIDs:  []uuid.UUID{expenditure.BaseID},
		After:    expenditure,
		Actor:    actor,
	})
	return expenditure, nil
}

func (s *expenditureService) List(ctx context.Context, actor model.Actor, filter repository.JournalFilter) ([]model.Expenditure, error) {
	bases, err := s.visibleBases(ctx, actor, filter.BaseIDs)
	if err != nil || len(bases) == 0 {
		return []model.Expenditure{}, err
	}
	filter.BaseIDs = bases
	return s.expenditureRepo.List(ctx, filter)
}
