package model

import (
	"bytes"
	"time"

	"github.com/google/uuid"
)

// Balance is the current on-hand quantity for one (base, equipment type) pair.
type Balance struct {
	BaseID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"base_id"`
	EquipmentTypeID uuid.UUID      `gorm:"type:uuid;primaryKey" json:"equipment_type_id"`
	Quantity        int            `gorm:"not null;default:0;check:chk_balances_quantity,quantity >= 0" json:"quantity"`
	UpdatedAt       time.Time      `json:"updated_at"`
	Base            *Base          `gorm:"foreignKey:BaseID" json:"base,omitempty"`
	EquipmentType   *EquipmentType `gorm:"foreignKey:EquipmentTypeID" json:"equipment_type,omitempty"`
}

type BalanceKey struct {
	BaseID          uuid.UUID
	EquipmentTypeID uuid.UUID
}

// Less orders keys by base then equipment type. Locks on several balances
// are always taken in this order.
func (k BalanceKey) Less(other BalanceKey) bool {
	if c := bytes.Compare(k.BaseID[:], other.BaseID[:]); c != 0 {
		return c < 0
	}
	return bytes.Compare(k.EquipmentTypeID[:], other.EquipmentTypeID[:]) < 0
}
