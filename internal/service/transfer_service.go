package service

import (
	"context"
	"time"

	"go-armory-ledger/internal/model"
	"go-armory-ledger/internal/repository"
	"go-armory-ledger/pkg/apperrors"
	"go-armory-ledger/pkg/validator"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type TransferService interface {
	Create(ctx context.Context, actor model.Actor, req *CreateTransferRequest) (*model.Transfer, error)
	Approve(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.Transfer, error)
	Complete(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.Transfer, error)
	Cancel(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.Transfer, error)
	Reject(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.Transfer, error)
	GetByID(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.Transfer, error)
	List(ctx context.Context, actor model.Actor, filter repository.JournalFilter) ([]model.Transfer, error)
}

type CreateTransferRequest struct {
	FromBaseID      uuid.UUID `json:"from_base_id" validate:"uuid_required"`
	ToBaseID        uuid.UUID `json:"to_base_id" validate:"uuid_required"`
	EquipmentTypeID uuid.UUID `json:"equipment_type_id" validate:"uuid_required"`
	Quantity        int       `json:"quantity" validate:"required,gt=0"`
	TransferDate    time.Time `json:"transfer_date"`
	Notes           string    `json:"notes" validate:"max=2000"`
}

type transferService struct {
	*Ledger
	transferRepo repository.TransferRepository
}

func NewTransferService(l *Ledger, transferRepo repository.TransferRepository) TransferService {
	return &transferService{Ledger: l, transferRepo: transferRepo}
}

func (s *transferService) Create(ctx context.Context, actor model.Actor, req *CreateTransferRequest) (*model.Transfer, error) {
	if err := validator.Struct(req); err != nil {
		return nil, err
	}
	if req.FromBaseID == req.ToBaseID {
		return nil, apperrors.NewValidationError("source and destination base must differ")
	}
	ctx, cancel := s.begin(ctx)
	defer cancel()

	if !s.Authorizer.CanActOnBase(actor, req.FromBaseID) && !s.Authorizer.CanActOnBase(actor, req.ToBaseID) {
		return nil, apperrors.Unauthorized("request transfer", req.FromBaseID)
	}
	if _, err := s.requireBase(ctx, req.FromBaseID); err != nil {
		return nil, err
	}
	if _, err := s.requireBase(ctx, req.ToBaseID); err != nil {
		return nil, err
	}
	if _, err := s.requireEquipmentType(ctx, req.EquipmentTypeID); err != nil {
		return nil, err
	}

	var transfer *model.Transfer
	err := s.Tx.RunInTransaction(ctx, func(tx *gorm.DB) error {
		// Advisory only: stock is re-checked when the transfer completes.
		source := model.BalanceKey{BaseID: req.FromBaseID, EquipmentTypeID: req.EquipmentTypeID}
		balance, err := s.Balances.Lock(tx, source)
		if err != nil {
			return err
		}
		available := 0
		if balance != nil {
			available = balance.Quantity
		}
		if available < req.Quantity {
			return &apperrors.InsufficientBalanceError{
				BaseID:          req.FromBaseID,
				EquipmentTypeID: req.EquipmentTypeID,
				Available:       available,
				Requested:       req.Quantity,
			}
		}

		t := &model.Transfer{
			FromBaseID:      req.FromBaseID,
			ToBaseID:        req.ToBaseID,
			EquipmentTypeID: req.EquipmentTypeID,
			Quantity:        req.Quantity,
			TransferDate:    utcOrNow(req.TransferDate),
			Status:          model.TransferPending,
			Notes:           req.Notes,
		}
		t.CreatedBy = actor.ID
		if err := s.transferRepo.Create(tx, t); err != nil {
			return err
		}
		transfer = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Info("transfer requested",
		zap.String("transfer_id", transfer.ID.String()),
		zap.String("from_base_id", transfer.FromBaseID.String()),
		zap.String("to_base_id", transfer.ToBaseID.String()),
		zap.Int("quantity", transfer.Quantity),
	)
	s.committed(ctx, model.AuditEntry{
		Action:   model.AuditTransferRequested,
		Table:    "transfers",
		RecordID: transfer.ID,
		BaseIDs:  []uuid.UUID{transfer.FromBaseID, transfer.ToBaseID},
		After:    transfer,
		Actor:    actor,
	})
	return transfer, nil
}

func (s *transferService) Approve(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.Transfer, error) {
	return s.transition(ctx, actor, id, model.TransferApproved, model.AuditTransferApproved,
		func(tx *gorm.DB, t *model.Transfer) error {
			if err := s.authorize(actor, "approve transfer", t.FromBaseID); err != nil {
				return err
			}
			now := time.Now().UTC()
			t.ApprovedBy = &actor.ID
			t.ApprovedAt = &now
			return nil
		})
}

func (s *transferService) Reject(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.Transfer, error) {
	return s.transition(ctx, actor, id, model.TransferRejected, model.AuditTransferRejected,
		func(tx *gorm.DB, t *model.Transfer) error {
			if err := s.authorize(actor, "reject transfer", t.FromBaseID); err != nil {
				return err
			}
			s.close(t, actor)
			return nil
		})
}

func (s *transferService) Cancel(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.Transfer, error) {
	return s.transition(ctx, actor, id, model.TransferCancelled, model.AuditTransferCancelled,
		func(tx *gorm.DB, t *model.Transfer) error {
			allowed := t.CreatedBy == actor.ID ||
				s.Authorizer.SeesAllBases(actor) ||
				s.Authorizer.CommandsBase(actor, t.FromBaseID) ||
				s.Authorizer.CommandsBase(actor, t.ToBaseID)
			if !allowed {
				return apperrors.Unauthorized("cancel transfer", t.FromBaseID)
			}
			s.close(t, actor)
			return nil
		})
}

// Complete moves the stock: source down, destination up, in one transaction.
func (s *transferService) Complete(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.Transfer, error) {
	return s.transition(ctx, actor, id, model.TransferCompleted, model.AuditTransferCompleted,
		func(tx *gorm.DB, t *model.Transfer) error {
			if err := s.authorize(actor, "complete transfer", t.ToBaseID); err != nil {
				return err
			}

			source := model.BalanceKey{BaseID: t.FromBaseID, EquipmentTypeID: t.EquipmentTypeID}
			destination := model.BalanceKey{BaseID: t.ToBaseID, EquipmentTypeID: t.EquipmentTypeID}
			if err := s.Balances.LockInOrder(tx, source, destination); err != nil {
				return err
			}
			if _, err := s.Balances.Adjust(tx, source, -t.Quantity); err != nil {
				return err
			}
			if _, err := s.Balances.Adjust(tx, destination, t.Quantity); err != nil {
				return err
			}

			now := time.Now().UTC()
			t.CompletedBy = &actor.ID
			t.CompletedAt = &now
			return nil
		})
}

func (s *transferService) close(t *model.Transfer, actor model.Actor) {
	now := time.Now().UTC()
	t.ClosedBy = &actor.ID
	t.ClosedAt = &now
}

// transition locks the transfer, checks the state machine before authority,
// applies fn and persists the new status atomically.
func (s *transferService) transition(
	ctx context.Context,
	actor model.Actor,
	id uuid.UUID,
	next model.TransferStatus,
	action string,
	fn func(tx *gorm.DB, t *model.Transfer) error,
) (*model.Transfer, error) {
	ctx, cancel := s.begin(ctx)
	defer cancel()

	var before model.Transfer
	var transfer *model.Transfer
	err := s.Tx.RunInTransaction(ctx, func(tx *gorm.DB) error {
		t, err := s.transferRepo.LockByID(tx, id)
		if err != nil {
			return notFoundOr(err, "transfer", id)
		}
		if !t.Status.CanTransitionTo(next) {
			return &apperrors.StateError{Entity: "transfer", From: string(t.Status), To: string(next)}
		}
		before = *t

		if err := fn(tx, t); err != nil {
			return err
		}
		t.Status = next
		if err := s.transferRepo.Update(tx, t); err != nil {
			return err
		}
		transfer = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Info("transfer "+string(next),
		zap.String("transfer_id", transfer.ID.String()),
		zap.String("from_status", string(before.Status)),
		zap.String("actor_id", actor.ID.String()),
	)
	s.committed(ctx, model.AuditEntry{
		Action:   action,
		Table:    "transfers",
		RecordID: transfer.ID,
		BaseIDs:  []uuid.UUID{transfer.FromBaseID, transfer.ToBaseID},
		Before:   &before,
		After:    transfer,
		Actor:    actor,
	})
	return transfer, nil
}

func (s *transferService) GetByID(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.Transfer, error) {
	transfer, err := s.transferRepo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "transfer", id)
	}
	if !s.Authorizer.CanActOnBase(actor, transfer.FromBaseID) && !s.Authorizer.CanActOnBase(actor, transfer.ToBaseID) {
		return nil, apperrors.Unauthorized("read", transfer.FromBaseID)
	}
	return transfer, nil
}

func (s *transferService) List(ctx context.Context, actor model.Actor, filter repository.JournalFilter) ([]model.Transfer, error) {
	bases, err := s.visibleBases(ctx, actor, filter.BaseIDs)
	if err != nil || len(bases) == 0 {
		return []model.Transfer{}, err
	}
	filter.BaseIDs = bases
	return s.transferRepo.List(ctx, filter)
}
