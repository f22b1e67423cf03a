package model

import (
	"time"

	"github.com/google/uuid"
)

type TransferStatus string

const (
	TransferPending   TransferStatus = "pending"
	TransferApproved  TransferStatus = "approved"
	TransferCompleted TransferStatus = "completed"
	TransferCancelled TransferStatus = "cancelled"
	TransferRejected  TransferStatus = "rejected"
)

var transferTransitions = map[TransferStatus][]TransferStatus{
	TransferPending:  {TransferApproved, TransferRejected, TransferCancelled},
	TransferApproved: {TransferCompleted, TransferCancelled},
}

func (s TransferStatus) CanTransitionTo(next TransferStatus) bool {
	for _, allowed := range transferTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no transition leaves s.
func (s TransferStatus) IsTerminal() bool {
	return len(transferTransitions[s]) == 0
}

// Transfer moves stock between two bases. Stock moves only when the transfer
// is completed.
type Transfer struct {
	JournalModel
	UpdatedAt       time.Time      `json:"updated_at"`
	FromBaseID      uuid.UUID      `gorm:"type:uuid;not null;index" json:"from_base_id"`
	ToBaseID        uuid.UUID      `gorm:"type:uuid;not null;index" json:"to_base_id"`
	EquipmentTypeID uuid.UUID      `gorm:"type:uuid;not null;index" json:"equipment_type_id"`
	Quantity        int            `gorm:"not null" json:"quantity"`
	TransferDate    time.Time      `gorm:"not null" json:"transfer_date"`
	Status          TransferStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	ApprovedBy      *uuid.UUID     `gorm:"type:uuid" json:"approved_by,omitempty"`
	ApprovedAt      *time.Time     `json:"approved_at,omitempty"`
	CompletedBy     *uuid.UUID     `gorm:"type:uuid" json:"completed_by,omitempty"`
	CompletedAt     *time.Time     `gorm:"index" json:"completed_at,omitempty"`
	ClosedBy        *uuid.UUID     `gorm:"type:uuid" json:"closed_by,omitempty"` // cancelled or rejected by
	ClosedAt        *time.Time     `json:"closed_at,omitempty"`
	Notes           string         `gorm:"type:text" json:"notes"`

	FromBase      *Base          `gorm:"foreignKey:FromBaseID" json:"from_base,omitempty"`
	ToBase        *Base          `gorm:"foreignKey:ToBaseID" json:"to_base,omitempty"`
	EquipmentType *EquipmentType `gorm:"foreignKey:EquipmentTypeID" json:"equipment_type,omitempty"`
}
