package repository

import (
	"context"

	"go-armory-ledger/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AssignmentRepository interface {
	Create(tx *gorm.DB, assignment *model.Assignment) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Assignment, error)
	// LockByID reads the assignment with FOR UPDATE inside tx.
	LockByID(tx *gorm.DB, id uuid.UUID) (*model.Assignment, error)
	Update(tx *gorm.DB, assignment *model.Assignment) error
	List(ctx context.Context, filter JournalFilter) ([]model.Assignment, error)
}

type assignmentRepo struct {
	db *gorm.DB
}

func NewAssignmentRepo(db *gorm.DB) AssignmentRepository {
	return &assignmentRepo{db}
}

func (r *assignmentRepo) Create(tx *gorm.DB, assignment *model.Assignment) error {
	return tx.Omit(clause.Associations).Create(assignment).Error
}

func (r *assignmentRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Assignment, error) {
	var assignment model.Assignment
	err := r.db.WithContext(ctx).Preload("Base").Preload("EquipmentType").First(&assignment, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &assignment, nil
}

func (r *assignmentRepo) LockByID(tx *gorm.DB, id uuid.UUID) (*model.Assignment, error) {
	var assignment model.Assignment
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&assignment, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &assignment, nil
}

func (r *assignmentRepo) Update(tx *gorm.DB, assignment *model.Assignment) error {
	return tx.Omit(clause.Associations).Save(assignment).Error
}

// List dates returned assignments by their return, everything else by
// assignment date.
func (r *assignmentRepo) List(ctx context.Context, filter JournalFilter) ([]model.Assignment, error) {
	var assignments []model.Assignment
	q := r.db.WithContext(ctx).Preload("Base").Preload("EquipmentType")
	dateColumn := "assignment_date"
	if filter.Status == string(model.AssignmentReturned) {
		dateColumn = "actual_return_date"
	}
	err := filter.scope(q, dateColumn).Find(&assignments).Error
	return assignments, err
}
