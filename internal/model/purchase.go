package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Purchase records stock bought into a base. Immutable once written.
type Purchase struct {
	JournalModel
	BaseID          uuid.UUID       `gorm:"type:uuid;not null;index:idx_purchases_slice" json:"base_id"`
	EquipmentTypeID uuid.UUID       `gorm:"type:uuid;not null;index:idx_purchases_slice" json:"equipment_type_id"`
	Quantity        int             `gorm:"not null" json:"quantity"`
	UnitPrice       decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"unit_price"`
	TotalAmount     decimal.Decimal `gorm:"type:numeric(16,2);not null" json:"total_amount"` // Snapshot price * quantity
	Supplier        string          `gorm:"type:varchar(255);not null" json:"supplier"`
	PurchaseDate    time.Time       `gorm:"not null;index" json:"purchase_date"`
	Notes           string          `gorm:"type:text" json:"notes"`

	Base          *Base          `gorm:"foreignKey:BaseID" json:"base,omitempty"`
	EquipmentType *EquipmentType `gorm:"foreignKey:EquipmentTypeID" json:"equipment_type,omitempty"`
}
