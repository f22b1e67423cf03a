package model

import "github.com/google/uuid"

// Actor is the authenticated caller of a ledger operation.
type Actor struct {
	ID       uuid.UUID  `json:"id"`
	Username string     `json:"username"`
	Name     string     `json:"name"`
	Role     string     `json:"role"`
	BaseID   *uuid.UUID `json:"base_id,omitempty"`
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

func (a Actor) AssignedTo(baseID uuid.UUID) bool {
	return a.BaseID != nil && *a.BaseID == baseID
}
