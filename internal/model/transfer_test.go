package model

import (
	"sort"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestTransferTransitions(t *testing.T) {
	allowed := []struct{ from, to TransferStatus }{
		{TransferPending, TransferApproved},
		{TransferPending, TransferRejected},
		{TransferPending, TransferCancelled},
		{TransferApproved, TransferCompleted},
		{TransferApproved, TransferCancelled},
	}
	for _, tc := range allowed {
		assert.True(t, tc.from.CanTransitionTo(tc.to), "%s -> %s", tc.from, tc.to)
	}

	denied := []struct{ from, to TransferStatus }{
		{TransferPending, TransferCompleted},
		{TransferApproved, TransferRejected},
		{TransferApproved, TransferApproved},
		{TransferCompleted, TransferCancelled},
		{TransferCancelled, TransferApproved},
		{TransferRejected, TransferPending},
	}
	for _, tc := range denied {
		assert.False(t, tc.from.CanTransitionTo(tc.to), "%s -> %s", tc.from, tc.to)
	}

	for _, s := range []TransferStatus{TransferCompleted, TransferCancelled, TransferRejected} {
		assert.True(t, s.IsTerminal(), s)
	}
	assert.False(t, TransferPending.IsTerminal())
	assert.False(t, TransferApproved.IsTerminal())
}

func TestBalanceKeyOrder(t *testing.T) {
	a := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	b := uuid.MustParse("00000000-0000-0000-0000-000000000002")

	keys := []BalanceKey{
		{BaseID: b, EquipmentTypeID: a},
		{BaseID: a, EquipmentTypeID: b},
		{BaseID: a, EquipmentTypeID: a},
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })

	assert.Equal(t, []BalanceKey{
		{BaseID: a, EquipmentTypeID: a},
		{BaseID: a, EquipmentTypeID: b},
		{BaseID: b, EquipmentTypeID: a},
	}, keys)
}

func TestActorScope(t *testing.T) {
	base := uuid.New()
	officer := Actor{Role: RoleLogisticsOfficer, BaseID: &base}

	assert.True(t, officer.AssignedTo(base))
	assert.False(t, officer.AssignedTo(uuid.New()))
	assert.False(t, officer.IsAdmin())
	assert.True(t, Actor{Role: RoleAdmin}.IsAdmin())
	assert.False(t, Actor{Role: RoleAdmin}.AssignedTo(base))
}
