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

type AssignmentService interface {
	Assign(ctx context.Context, actor model.Actor, req *CreateAssignmentRequest) (*model.Assignment, error)
	Return(ctx context.Context, actor model.Actor, id uuid.UUID, req *ReturnAssignmentRequest) (*model.Assignment, error)
	GetByID(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.Assignment, error)
	List(ctx context.Context, actor model.Actor, filter repository.JournalFilter) ([]model.Assignment, error)
}

type CreateAssignmentRequest struct {
	BaseID             uuid.UUID  `json:"base_id" validate:"uuid_required"`
	EquipmentTypeID    uuid.UUID  `json:"equipment_type_id" validate:"uuid_required"`
	Quantity           int        `json:"quantity" validate:"required,gt=0"`
	AssignedTo         string     `json:"assigned_to" validate:"required,max=255"`
	AssignmentDate     time.Time  `json:"assignment_date"`
	ExpectedReturnDate *time.Time `json:"expected_return_date"`
	Notes              string     `json:"notes" validate:"max=2000"`
}

type ReturnAssignmentRequest struct {
	ReturnDate *time.Time `json:"return_date"` // defaults to now
	Notes      string     `json:"notes" validate:"max=2000"`
}

type assignmentService struct {
	*Ledger
	assignmentRepo repository.AssignmentRepository
}

func NewAssignmentService(l *Ledger, assignmentRepo repository.AssignmentRepository) AssignmentService {
	return &assignmentService{Ledger: l, assignmentRepo: assignmentRepo}
}

func (s *assignmentService) Assign(ctx context.Context, actor model.Actor, req *CreateAssignmentRequest) (*model.Assignment, error) {
	if err := validator.Struct(req); err != nil {
		return nil, err
	}
	assignedOn := utcOrNow(req.AssignmentDate)
	if req.ExpectedReturnDate != nil && req.ExpectedReturnDate.Before(assignedOn) {
		return nil, apperrors.NewValidationError("expected return date precedes assignment date")
	}
	ctx, cancel := s.begin(ctx)
	defer cancel()

	if err := s.authorize(actor, "assign equipment", req.BaseID); err != nil {
		return nil, err
	}
	if _, err := s.requireBase(ctx, req.BaseID); err != nil {
		return nil, err
	}
	if _, err := s.requireEquipmentType(ctx, req.EquipmentTypeID); err != nil {
		return nil, err
	}

	var assignment *model.Assignment
	err := s.Tx.RunInTransaction(ctx, func(tx *gorm.DB) error {
		key := model.BalanceKey{BaseID: req.BaseID, EquipmentTypeID: req.EquipmentTypeID}
		if _, err := s.Balances.Adjust(tx, key, -req.Quantity); err != nil {
			return err
		}

		a := &model.Assignment{
			BaseID:          req.BaseID,
			EquipmentTypeID: req.EquipmentTypeID,
			Quantity:        req.Quantity,
			AssignedTo:      req.AssignedTo,
			AssignmentDate:  assignedOn,
			Status:          model.AssignmentActive,
			Notes:           req.Notes,
		}
		if req.ExpectedReturnDate != nil {
			expected := req.ExpectedReturnDate.UTC()
			a.ExpectedReturnDate = &expected
		}
		a.CreatedBy = actor.ID
		if err := s.assignmentRepo.Create(tx, a); err != nil {
			return err
		}
		assignment = a
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Info("equipment assigned",
		zap.String("assignment_id", assignment.ID.String()),
		zap.String("base_id", assignment.BaseID.String()),
		zap.String("assigned_to", assignment.AssignedTo),
		zap.Int("quantity", assignment.Quantity),
	)
	s.committed(ctx, model.AuditEntry{
		Action:   model.AuditAssignmentCreated,
		Table:    "assignments",
		RecordID: assignment.ID,
		BaseIDs:  []uuid.UUID{assignment.BaseID},
		After:    assignment,
		Actor:    actor,
	})
	return assignment, nil
}

func (s *assignmentService) Return(ctx context.Context, actor model.Actor, id uuid.UUID, req *ReturnAssignmentRequest) (*model.Assignment, error) {
	if req == nil {
		req = &ReturnAssignmentRequest{}
	}
	if err := validator.Struct(req); err != nil {
		return nil, err
	}
	ctx, cancel := s.begin(ctx)
	defer cancel()

	var before model.Assignment
	var assignment *model.Assignment
	err := s.Tx.RunInTransaction(ctx, func(tx *gorm.DB) error {
		a, err := s.assignmentRepo.LockByID(tx, id)
		if err != nil {
			return notFoundOr(err, "assignment", id)
		}
		if a.Status != model.AssignmentActive {
			return &apperrors.StateError{Entity: "assignment", From: string(a.Status), To: string(model.AssignmentReturned)}
		}
		if err := s.authorize(actor, "return equipment", a.BaseID); err != nil {
			return err
		}

		returnedOn := time.Now().UTC()
		if req.ReturnDate != nil {
			returnedOn = req.ReturnDate.UTC()
		}
		if returnedOn.Before(a.AssignmentDate) {
			return apperrors.NewValidationError("return date precedes assignment date")
		}
		before = *a

		key := model.BalanceKey{BaseID: a.BaseID, EquipmentTypeID: a.EquipmentTypeID}
		if _, err := s.Balances.Adjust(tx, key, a.Quantity); err != nil {
			return err
		}

		a.Status = model.AssignmentReturned
		a.ActualReturnDate = &returnedOn
		a.ReturnedBy = &actor.ID
		a.Notes = appendNote(a.Notes, req.Notes)
		if err := s.assignmentRepo.Update(tx, a); err != nil {
			return err
		}
		assignment = a
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Info("equipment returned",
		zap.String("assignment_id", assignment.ID.String()),
		zap.String("base_id", assignment.BaseID.String()),
		zap.Int("quantity", assignment.Quantity),
	)
	s.committed(ctx, model.AuditEntry{
		Action:   model.AuditAssignmentReturned,
		Table:    "assignments",
		RecordID: assignment.ID,
		BaseIDs:  []uuid.UUID{assignment.BaseID},
		Before:   &before,
		After:    assignment,
		Actor:    actor,
	})
	return assignment, nil
}

func (s *assignmentService) GetByID(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.Assignment, error) {
	assignment, err := s.assignmentRepo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "assignment", id)
	}
	if err := s.authorize(actor, "read", assignment.BaseID); err != nil {
		return nil, err
	}
	return assignment, nil
}

func (s *assignmentService) List(ctx context.Context, actor model.Actor, filter repository.JournalFilter) ([]model.Assignment, error) {
	bases, err := s.visibleBases(ctx, actor, filter.BaseIDs)
	if err != nil || len(bases) == 0 {
		return []model.Assignment{}, err
	}
	filter.BaseIDs = bases
	return s.assignmentRepo.List(ctx, filter)
}

// appendNote keeps the issuing notes and adds the return notes on a new line.
func appendNote(existing, added string) string {
	switch {
	case added == "":
		return existing
	case existing == "":
		return added
	default:
		return existing + "\n" + added
	}
}
