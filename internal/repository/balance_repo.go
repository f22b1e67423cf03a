package repository

import (
	"context"
	"errors"
	"sort"
	"time"

	"go-armory-ledger/internal/model"
	"go-armory-ledger/pkg/apperrors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BalanceRepository interface {
	Get(ctx context.Context, key model.BalanceKey) (int, error)
	List(ctx context.Context, filter BalanceFilter) ([]model.Balance, error)
	// Lock reads a balance row with FOR UPDATE. Absent rows return nil.
	Lock(tx *gorm.DB, key model.BalanceKey) (*model.Balance, error)
	// LockInOrder creates missing rows and locks every key in BalanceKey order.
	LockInOrder(tx *gorm.DB, keys ...model.BalanceKey) error
	// Adjust applies delta inside tx and returns the new quantity. A result
	// below zero fails with *apperrors.InsufficientBalanceError.
	Adjust(tx *gorm.DB, key model.BalanceKey, delta int) (int, error)
}

type BalanceFilter struct {
	BaseIDs         []uuid.UUID
	EquipmentTypeID *uuid.UUID
	NonZeroOnly     bool
}

type balanceRepo struct {
	db *gorm.DB
}

func NewBalanceRepo(db *gorm.DB) BalanceRepository {
	return &balanceRepo{db}
}

func (r *balanceRepo) Get(ctx context.Context, key model.BalanceKey) (int, error) {
	var balance model.Balance
	err := r.db.WithContext(ctx).
		Where("base_id = ? AND equipment_type_id = ?", key.BaseID, key.EquipmentTypeID).
		First(&balance).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return balance.Quantity, nil
}

func (r *balanceRepo) List(ctx context.Context, filter BalanceFilter) ([]model.Balance, error) {
	var balances []model.Balance
	q := r.db.WithContext(ctx).Preload("Base").Preload("EquipmentType")
	if len(filter.BaseIDs) > 0 {
		q = q.Where("base_id IN ?", filter.BaseIDs)
	}
	if filter.EquipmentTypeID != nil {
		q = q.Where("equipment_type_id = ?", *filter.EquipmentTypeID)
	}
	if filter.NonZeroOnly {
		q = q.Where("quantity > 0")
	}
	err := q.Order("base_id, equipment_type_id").Find(&balances).Error
	return balances, err
}

func (r *balanceRepo) Lock(tx *gorm.DB, key model.BalanceKey) (*model.Balance, error) {
	var balance model.Balance
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("base_id = ? AND equipment_type_id = ?", key.BaseID, key.EquipmentTypeID).
		First(&balance).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &balance, nil
}

func (r *balanceRepo) LockInOrder(tx *gorm.DB, keys ...model.BalanceKey) error {
	sorted := make([]model.BalanceKey, len(keys))
	copy(sorted, keys)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Less(sorted[j]) })

	for _, key := range sorted {
		if err := r.ensureRow(tx, key); err != nil {
			return err
		}
		if _, err := r.Lock(tx, key); err != nil {
			return err
		}
	}
	return nil
}

func (r *balanceRepo) Adjust(tx *gorm.DB, key model.BalanceKey, delta int) (int, error) {
	if delta > 0 {
		if err := r.ensureRow(tx, key); err != nil {
			return 0, err
		}
	}

	balance, err := r.Lock(tx, key)
	if err != nil {
		return 0, err
	}
	current := 0
	if balance != nil {
		current = balance.Quantity
	}

	next := current + delta
	if next < 0 {
		return current, &apperrors.InsufficientBalanceError{
			BaseID:          key.BaseID,
			EquipmentTypeID: key.EquipmentTypeID,
			Available:       current,
			Requested:       -delta,
		}
	}
	if delta == 0 {
		return current, nil
	}

	err = tx.Model(&model.Balance{}).
		Where("base_id = ? AND equipment_type_id = ?", key.BaseID, key.EquipmentTypeID).
		Updates(map[string]interface{}{
			"quantity":   next,
			"updated_at": time.Now().UTC(),
		}).Error
	if err != nil {
		return current, err
	}
	return next, nil
}

// ensureRow creates a zero balance if none exists. Concurrent creators race
// on the primary key and the loser does nothing.
func (r *balanceRepo) ensureRow(tx *gorm.DB, key model.BalanceKey) error {
	return tx.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model.Balance{BaseID: key.BaseID, EquipmentTypeID: key.EquipmentTypeID}).Error
}
