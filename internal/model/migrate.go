package model

import "gorm.io/gorm"

// AutoMigrate creates or updates every ledger table.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Privilege{},
		&Role{},
		&Base{},
		&EquipmentType{},
		&User{},
		&Balance{},
		&Purchase{},
		&Transfer{},
		&Assignment{},
		&Expenditure{},
		&AuditLog{},
	)
}
