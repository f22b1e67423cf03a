package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AuditLog is one committed ledger mutation. Rows are written after commit
// and never read by the ledger itself.
type AuditLog struct {
	ID        uuid.UUID      `gorm:"type:uuid;primary_key;" json:"id"`
	Action    string         `gorm:"type:varchar(60);not null;index" json:"action"`
	Entity    string         `gorm:"column:table_name;type:varchar(60);not null" json:"table_name"`
	RecordID  uuid.UUID      `gorm:"type:uuid;not null;index" json:"record_id"`
	OldValues datatypes.JSON `json:"old_values,omitempty"`
	NewValues datatypes.JSON `json:"new_values,omitempty"`
	ActorID   uuid.UUID      `gorm:"type:uuid;index" json:"actor_id"`
	ActorName string         `gorm:"type:varchar(255)" json:"actor_name"`
	CreatedAt time.Time      `gorm:"index" json:"created_at"`
}

func (a *AuditLog) BeforeCreate(tx *gorm.DB) (err error) {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return
}

// AuditEntry is what the ledger hands to its audit sink.
type AuditEntry struct {
	Action   string
	Table    string
	RecordID uuid.UUID
	BaseIDs  []uuid.UUID // bases the change touches
	Before   interface{}
	After    interface{}
	Actor    Actor
}

const (
	AuditPurchaseRecorded    = "purchase.recorded"
	AuditTransferRequested   = "transfer.requested"
	AuditTransferApproved    = "transfer.approved"
	AuditTransferCompleted   = "transfer.completed"
	AuditTransferCancelled   = "transfer.cancelled"
	AuditTransferRejected    = "transfer.rejected"
	AuditAssignmentCreated   = "assignment.created"
	AuditAssignmentReturned  = "assignment.returned"
	AuditExpenditureRecorded = "expenditure.recorded"
)
