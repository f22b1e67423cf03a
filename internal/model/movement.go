package model

import (
	"time"

	"github.com/google/uuid"
)

type MovementKind string

const (
	MovementPurchase         MovementKind = "purchase"
	MovementTransferIn       MovementKind = "transfer_in"
	MovementTransferOut      MovementKind = "transfer_out"
	MovementAssignment       MovementKind = "assignment"
	MovementAssignmentReturn MovementKind = "assignment_return"
	MovementExpenditure      MovementKind = "expenditure"
)

// Movement is one journal record seen from a single base, with its signed
// effect on that base's balance.
type Movement struct {
	Kind            MovementKind `json:"kind"`
	ReferenceID     uuid.UUID    `json:"reference_id"`
	Date            time.Time    `json:"date"`
	BaseID          uuid.UUID    `json:"base_id"`
	EquipmentTypeID uuid.UUID    `json:"equipment_type_id"`
	Quantity        int          `json:"quantity"`
	Effect          int          `json:"effect"`
	Counterparty    string       `json:"counterparty"`
	ActorID         uuid.UUID    `json:"actor_id"`
}
