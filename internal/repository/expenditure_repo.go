package repository

import (
	"context"

	"go-armory-ledger/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ExpenditureRepository interface {
	Create(tx *gorm.DB, expenditure *model.Expenditure) error
	List(ctx context.Context, filter JournalFilter) ([]model.Expenditure, error)
}

type expenditureRepo struct {
	db *gorm.DB
}

func NewExpenditureRepo(db *gorm.DB) ExpenditureRepository {
	return &expenditureRepo{db}
}

func (r *expenditureRepo) Create(tx *gorm.DB, expenditure *model.Expenditure) error {
	return tx.Omit(clause.Associations).Create(expenditure).Error
}

func (r *expenditureRepo) List(ctx context.Context, filter JournalFilter) ([]model.Expenditure, error) {
	var expenditures []model.Expenditure
	q := r.db.WithContext(ctx).Preload("Base").Preload("EquipmentType")
	err := filter.scope(q, "expenditure_date").Find(&expenditures).Error
	return expenditures, err
}
