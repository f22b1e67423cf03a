// Package testutil provides utilities for testing.
package testutil

import (
	"testing"

	"go-armory-ledger/internal/model"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// NewTestDB creates a migrated in-memory SQLite database. The pool holds a
// single connection, so every query inside a transaction callback must use
// the callback's tx.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
		t.Fatalf("failed to enable foreign keys: %v", err)
	}
	if err := model.AutoMigrate(db); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

func CreateBase(t *testing.T, db *gorm.DB, name string) *model.Base {
	t.Helper()
	base := &model.Base{Name: name, Location: name + " district"}
	if err := db.Create(base).Error; err != nil {
		t.Fatalf("failed to create base %s: %v", name, err)
	}
	return base
}

func CreateEquipmentType(t *testing.T, db *gorm.DB, name string) *model.EquipmentType {
	t.Helper()
	equipmentType := &model.EquipmentType{Name: name, Category: "weapon", Unit: "unit"}
	if err := db.Create(equipmentType).Error; err != nil {
		t.Fatalf("failed to create equipment type %s: %v", name, err)
	}
	return equipmentType
}

// SetBalance writes a balance row directly, bypassing the journal.
func SetBalance(t *testing.T, db *gorm.DB, baseID, equipmentTypeID uuid.UUID, quantity int) {
	t.Helper()
	balance := model.Balance{BaseID: baseID, EquipmentTypeID: equipmentTypeID, Quantity: quantity}
	if err := db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&balance).Error; err != nil {
		t.Fatalf("failed to set balance: %v", err)
	}
}

func GetBalance(t *testing.T, db *gorm.DB, baseID, equipmentTypeID uuid.UUID) int {
	t.Helper()
	var balance model.Balance
	err := db.Where("base_id = ? AND equipment_type_id = ?", baseID, equipmentTypeID).Limit(1).Find(&balance).Error
	if err != nil {
		t.Fatalf("failed to read balance: %v", err)
	}
	return balance.Quantity
}

func Admin() model.Actor {
	return model.Actor{ID: uuid.New(), Username: "admin", Name: "Administrator", Role: model.RoleAdmin}
}

func Commander(base *model.Base) model.Actor {
	id := base.ID
	return model.Actor{ID: uuid.New(), Username: "cmdr." + base.Name, Name: "Commander " + base.Name, Role: model.RoleBaseCommander, BaseID: &id}
}

func Officer(base *model.Base) model.Actor {
	id := base.ID
	return model.Actor{ID: uuid.New(), Username: "lo." + base.Name, Name: "Officer " + base.Name, Role: model.RoleLogisticsOfficer, BaseID: &id}
}
