package model

import (
	"time"

	"github.com/google/uuid"
)

type AssignmentStatus string

const (
	AssignmentActive   AssignmentStatus = "active"
	AssignmentReturned AssignmentStatus = "returned"
)

// Assignment is temporary custody of stock by a named person.
type Assignment struct {
	JournalModel
	UpdatedAt          time.Time        `json:"updated_at"`
	BaseID             uuid.UUID        `gorm:"type:uuid;not null;index:idx_assignments_slice" json:"base_id"`
	EquipmentTypeID    uuid.UUID        `gorm:"type:uuid;not null;index:idx_assignments_slice" json:"equipment_type_id"`
	Quantity           int              `gorm:"not null" json:"quantity"`
	AssignedTo         string           `gorm:"type:varchar(255);not null" json:"assigned_to"`
	AssignmentDate     time.Time        `gorm:"not null;index" json:"assignment_date"`
	ExpectedReturnDate *time.Time       `json:"expected_return_date,omitempty"`
	ActualReturnDate   *time.Time       `json:"actual_return_date,omitempty"`
	Status             AssignmentStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	ReturnedBy         *uuid.UUID       `gorm:"type:uuid" json:"returned_by,omitempty"`
	Notes              string           `gorm:"type:text" json:"notes"`

	Base          *Base          `gorm:"foreignKey:BaseID" json:"base,omitempty"`
	EquipmentType *EquipmentType `gorm:"foreignKey:EquipmentTypeID" json:"equipment_type,omitempty"`
}
