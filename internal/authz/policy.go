// Package authz decides which bases an actor may act on.
package authz

import (
	"go-armory-ledger/internal/model"

	"github.com/google/uuid"
)

// Policy grants admins every base and everyone else their assigned base.
type Policy struct{}

func NewPolicy() Policy {
	return Policy{}
}

func (Policy) CanActOnBase(actor model.Actor, baseID uuid.UUID) bool {
	if actor.IsAdmin() {
		return true
	}
	return actor.AssignedTo(baseID)
}

// CommandsBase reports whether actor is the commander of baseID.
func (Policy) CommandsBase(actor model.Actor, baseID uuid.UUID) bool {
	return actor.Role == model.RoleBaseCommander && actor.AssignedTo(baseID)
}

func (Policy) SeesAllBases(actor model.Actor) bool {
	return actor.IsAdmin()
}
