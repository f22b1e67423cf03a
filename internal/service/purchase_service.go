package service

import (
	"context"
	"time"

	"go-armory-ledger/internal/model"
	"go-armory-ledger/internal/repository"
	"go-armory-ledger/pkg/validator"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type PurchaseService interface {
	Record(ctx context.Context, actor model.Actor, req *RecordPurchaseRequest) (*model.Purchase, error)
	GetByID(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.Purchase, error)
	List(ctx context.Context, actor model.Actor, filter repository.JournalFilter) ([]model.Purchase, error)
}

type RecordPurchaseRequest struct {
	BaseID          uuid.UUID       `json:"base_id" validate:"uuid_required"`
	EquipmentTypeID uuid.UUID       `json:"equipment_type_id" validate:"uuid_required"`
	Quantity        int             `json:"quantity" validate:"required,gt=0"`
	UnitPrice       decimal.Decimal `json:"unit_price" validate:"gt=0"`
	Supplier        string          `json:"supplier" validate:"required,max=255"`
	PurchaseDate    time.Time       `json:"purchase_date"` // defaults to now
	Notes           string          `json:"notes" validate:"max=2000"`
}

type purchaseService struct {
	*Ledger
	purchaseRepo repository.PurchaseRepository
}

func NewPurchaseService(l *Ledger, purchaseRepo repository.PurchaseRepository) PurchaseService {
	return &purchaseService{Ledger: l, purchaseRepo: purchaseRepo}
}

func (s *purchaseService) Record(ctx context.Context, actor model.Actor, req *RecordPurchaseRequest) (*model.Purchase, error) {
	if err := validator.Struct(req); err != nil {
		return nil, err
	}
	ctx, cancel := s.begin(ctx)
	defer cancel()

	if err := s.authorize(actor, "record purchase", req.BaseID); err != nil {
		return nil, err
	}
	if _, err := s.requireBase(ctx, req.BaseID); err != nil {
		return nil, err
	}
	if _, err := s.requireEquipmentType(ctx, req.EquipmentTypeID); err != nil {
		return nil, err
	}

	var purchase *model.Purchase
	var balanceAfter int
	err := s.Tx.RunInTransaction(ctx, func(tx *gorm.DB) error {
		key := model.BalanceKey{BaseID: req.BaseID, EquipmentTypeID: req.EquipmentTypeID}
		next, err := s.Balances.Adjust(tx, key, req.Quantity)
		if err != nil {
			return err
		}

		p := &model.Purchase{
			BaseID:          req.BaseID,
			EquipmentTypeID: req.EquipmentTypeID,
			Quantity:        req.Quantity,
			UnitPrice:       req.UnitPrice,
			TotalAmount:     req.UnitPrice.Mul(decimal.NewFromInt(int64(req.Quantity))),
			Supplier:        req.Supplier,
			PurchaseDate:    utcOrNow(req.PurchaseDate),
			Notes:           req.Notes,
		}
		p.CreatedBy = actor.ID
		if err := s.purchaseRepo.Create(tx, p); err != nil {
			return err
		}
		purchase, balanceAfter = p, next
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Info("purchase recorded",
		zap.String("purchase_id", purchase.ID.String()),
		zap.String("base_id", purchase.BaseID.String()),
		zap.String("equipment_type_id", purchase.EquipmentTypeID.String()),
		zap.Int("quantity", purchase.Quantity),
		zap.Int("balance_after", balanceAfter),
	)
	s.committed(ctx, model.AuditEntry{
		Action:   model.AuditPurchaseRecorded,
		Table:    "purchases",
		RecordID: purchase.ID,
		BaseIDs:  []uuid.UUID{purchase.BaseID},
		After:    purchase,
		Actor:    actor,
	})
	return purchase, nil
}

func (s *purchaseService) GetByID(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.Purchase, error) {
	purchase, err := s.purchaseRepo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "purchase", id)
	}
	if err := s.authorize(actor, "read", purchase.BaseID); err != nil {
		return nil, err
	}
	return purchase, nil
}

func (s *purchaseService) List(ctx context.Context, actor model.Actor, filter repository.JournalFilter) ([]model.Purchase, error) {
	bases, err := s.visibleBases(ctx, actor, filter.BaseIDs)
	if err != nil || len(bases) == 0 {
		return []model.Purchase{}, err
	}
	filter.BaseIDs = bases
	return s.purchaseRepo.List(ctx, filter)
}
