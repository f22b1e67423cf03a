package model

import (
	"time"

	"github.com/google/uuid"
)

// Expenditure is permanent consumption of stock. There is no reversal.
type Expenditure struct {
	JournalModel
	BaseID          uuid.UUID  `gorm:"type:uuid;not null;index:idx_expenditures_slice" json:"base_id"`
	EquipmentTypeID uuid.UUID  `gorm:"type:uuid;not null;index:idx_expenditures_slice" json:"equipment_type_id"`
	Quantity        int        `gorm:"not null" json:"quantity"`
	Reason          string     `gorm:"type:varchar(255);not null" json:"reason"`
	ExpenditureDate time.Time  `gorm:"not null;index" json:"expenditure_date"`
	ApprovedBy      *uuid.UUID `gorm:"type:uuid" json:"approved_by,omitempty"`
	Notes           string     `gorm:"type:text" json:"notes"`

	Base          *Base          `gorm:"foreignKey:BaseID" json:"base,omitempty"`
	EquipmentType *EquipmentType `gorm:"foreignKey:EquipmentTypeID" json:"equipment_type,omitempty"`
}
