package repository

import (
	"context"

	"go-armory-ledger/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TransferRepository interface {
	Create(tx *gorm.DB, transfer *model.Transfer) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Transfer, error)
	// LockByID reads the transfer with FOR UPDATE inside tx.
	LockByID(tx *gorm.DB, id uuid.UUID) (*model.Transfer, error)
	Update(tx *gorm.DB, transfer *model.Transfer) error
	List(ctx context.Context, filter JournalFilter) ([]model.Transfer, error)
}

type transferRepo struct {
	db *gorm.DB
}

func NewTransferRepo(db *gorm.DB) TransferRepository {
	return &transferRepo{db}
}

func (r *transferRepo) Create(tx *gorm.DB, transfer *model.Transfer) error {
	return tx.Omit(clause.Associations).Create(transfer).Error
}

func (r *transferRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Transfer, error) {
	var transfer model.Transfer
	err := r.db.WithContext(ctx).
		Preload("FromBase").Preload("ToBase").Preload("EquipmentType").
		First(&transfer, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &transfer, nil
}

func (r *transferRepo) LockByID(tx *gorm.DB, id uuid.UUID) (*model.Transfer, error) {
	var transfer model.Transfer
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&transfer, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &transfer, nil
}

func (r *transferRepo) Update(tx *gorm.DB, transfer *model.Transfer) error {
	return tx.Omit(clause.Associations).Save(transfer).Error
}

// List matches a transfer when either side is in filter.BaseIDs. Completed
// transfers are dated by completion, everything else by request date.
func (r *transferRepo) List(ctx context.Context, filter JournalFilter) ([]model.Transfer, error) {
	var transfers []model.Transfer
	q := r.db.WithContext(ctx).Preload("FromBase").Preload("ToBase").Preload("EquipmentType")
	if len(filter.BaseIDs) > 0 {
		q = q.Where("from_base_id IN ? OR to_base_id IN ?", filter.BaseIDs, filter.BaseIDs)
		filter.BaseIDs = nil
	}
	dateColumn := "transfer_date"
	if filter.Status == string(model.TransferCompleted) {
		dateColumn = "completed_at"
	}
	err := filter.scope(q, dateColumn).Find(&transfers).Error
	return transfers, err
}
