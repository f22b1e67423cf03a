package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"go-armory-ledger/internal/model"
	"go-armory-ledger/internal/repository"
	"go-armory-ledger/internal/service"
	"go-armory-ledger/internal/testutil"
	"go-armory-ledger/pkg/apperrors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTerminalTransitionsFailWithoutSideEffects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	testutil.SetBalance(t, f.db, f.north.ID, f.rifle.ID, 50)

	tr := f.requestTransfer(t, 20)
	_, err := f.transfers.Approve(ctx, f.admin, tr.ID)
	require.NoError(t, err)
	_, err = f.transfers.Complete(ctx, f.admin, tr.ID)
	require.NoError(t, err)

	calls := map[string]func(context.Context, model.Actor, uuid.UUID) (*model.Transfer, error){
		"approve":  f.transfers.Approve,
		"complete": f.transfers.Complete,
		"cancel":   f.transfers.Cancel,
		"reject":   f.transfers.Reject,
	}
	for name, call := range calls {
		_, err := call(ctx, f.admin, tr.ID)
		var stateErr *apperrors.StateError
		require.ErrorAs(t, err, &stateErr, name)
		assert.Equal(t, string(model.TransferCompleted), stateErr.From, name)
	}
	assert.Equal(t, 30, f.balance(t, f.north))
	assert.Equal(t, 20, f.balance(t, f.south))

	rejected := f.requestTransfer(t, 5)
	_, err = f.transfers.Reject(ctx, f.admin, rejected.ID)
	require.NoError(t, err)
	_, err = f.transfers.Approve(ctx, f.admin, rejected.ID)
	assert.ErrorIs(t, err, apperrors.ErrInvalidState)

	approved := f.requestTransfer(t, 5)
	_, err = f.transfers.Approve(ctx, f.admin, approved.ID)
	require.NoError(t, err)
	_, err = f.transfers.Reject(ctx, f.admin, approved.ID)
	assert.ErrorIs(t, err, apperrors.ErrInvalidState, "reject only from pending")
	cancelled, err := f.transfers.Cancel(ctx, f.admin, approved.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TransferCancelled, cancelled.Status)
	assert.Equal(t, 30, f.balance(t, f.north))
}

func TestReturnTwiceFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	testutil.SetBalance(t, f.db, f.north.ID, f.rifle.ID, 4)

	a, err := f.assignments.Assign(ctx, f.admin, &service.CreateAssignmentRequest{
		BaseID: f.north.ID, EquipmentTypeID: f.rifle.ID, Quantity: 4, AssignedTo: "Cpl. Diaz",
	})
	require.NoError(t, err)
	_, err = f.assignments.Return(ctx, f.admin, a.ID, nil)
	require.NoError(t, err)

	_, err = f.assignments.Return(ctx, f.admin, a.ID, nil)
	require.ErrorIs(t, err, apperrors.ErrInvalidState)
	assert.Equal(t, 4, f.balance(t, f.north))
}

func TestTransferAuthority(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	testutil.SetBalance(t, f.db, f.north.ID, f.rifle.ID, 50)

	northOfficer := testutil.Officer(f.north)
	northCommander := testutil.Commander(f.north)
	southCommander := testutil.Commander(f.south)
	outsider := testutil.Officer(testutil.CreateBase(t, f.db, "East"))

	tr, err := f.transfers.Create(ctx, northOfficer, &service.CreateTransferRequest{
		FromBaseID: f.north.ID, ToBaseID: f.south.ID, EquipmentTypeID: f.rifle.ID, Quantity: 10,
	})
	require.NoError(t, err)

	_, err = f.transfers.Create(ctx, outsider, &service.CreateTransferRequest{
		FromBaseID: f.north.ID, ToBaseID: f.south.ID, EquipmentTypeID: f.rifle.ID, Quantity: 10,
	})
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized, "neither side")

	_, err = f.transfers.Approve(ctx, southCommander, tr.ID)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized, "approval belongs to the source base")

	_, err = f.transfers.Approve(ctx, northCommander, tr.ID)
	require.NoError(t, err)

	_, err = f.transfers.Complete(ctx, northCommander, tr.ID)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized, "completion belongs to the destination base")
	assert.Equal(t, 50, f.balance(t, f.north))

	_, err = f.transfers.Cancel(ctx, outsider, tr.ID)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	_, err = f.transfers.Complete(ctx, southCommander, tr.ID)
	require.NoError(t, err)
	assert.Equal(t, 40, f.balance(t, f.north))
	assert.Equal(t, 10, f.balance(t, f.south))

	// The requester may withdraw their own request.
	second, err := f.transfers.Create(ctx, northOfficer, &service.CreateTransferRequest{
		FromBaseID: f.north.ID, ToBaseID: f.south.ID, EquipmentTypeID: f.rifle.ID, Quantity: 1,
	})
	require.NoError(t, err)
	_, err = f.transfers.Cancel(ctx, northOfficer, second.ID)
	require.NoError(t, err)

	// A commander of the destination may cancel too.
	third, err := f.transfers.Create(ctx, northOfficer, &service.CreateTransferRequest{
		FromBaseID: f.north.ID, ToBaseID: f.south.ID, EquipmentTypeID: f.rifle.ID, Quantity: 1,
	})
	require.NoError(t, err)
	_, err = f.transfers.Cancel(ctx, southCommander, third.ID)
	require.NoError(t, err)
}

func TestCompleteRechecksStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	testutil.SetBalance(t, f.db, f.north.ID, f.rifle.ID, 30)

	tr := f.requestTransfer(t, 30)
	_, err := f.transfers.Approve(ctx, f.admin, tr.ID)
	require.NoError(t, err)

	_, err = f.expenditures.Record(ctx, f.admin, &service.RecordExpenditureRequest{
		BaseID: f.north.ID, EquipmentTypeID: f.rifle.ID, Quantity: 1, Reason: "damaged",
	})
	require.NoError(t, err)

	_, err = f.transfers.Complete(ctx, f.admin, tr.ID)
	require.ErrorIs(t, err, apperrors.ErrInsufficientBalance)

	got, err := f.transfers.GetByID(ctx, f.admin, tr.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TransferApproved, got.Status, "failed completion leaves the transfer approved")
	assert.Equal(t, 29, f.balance(t, f.north))
	assert.Equal(t, 0, f.balance(t, f.south))
}

// TestConcurrentCompletesMoveStockOnce checks the outcome of racing completes.
// The test database holds one connection and SQLite ignores FOR UPDATE, so
// here the transactions are serialised by the pool rather than by row locks;
// the row-lock path only runs against PostgreSQL.
func TestConcurrentCompletesMoveStockOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	testutil.SetBalance(t, f.db, f.north.ID, f.rifle.ID, 25)

	const n = 6
	ids := make([]model.Transfer, n)
	for i := range ids {
		tr := f.requestTransfer(t, 25)
		_, err := f.transfers.Approve(ctx, f.admin, tr.ID)
		require.NoError(t, err)
		ids[i] = *tr
	}

	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.transfers.Complete(ctx, f.admin, ids[i].ID)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, apperrors.ErrInsufficientBalance):
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 0, f.balance(t, f.north))
	assert.Equal(t, 25, f.balance(t, f.south))

	completed, err := f.transfers.List(ctx, f.admin, repository.JournalFilter{Status: string(model.TransferCompleted)})
	require.NoError(t, err)
	assert.Len(t, completed, 1)
}

func TestListScopesToActorBase(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	east := testutil.CreateBase(t, f.db, "East")
	f.buy(t, f.north, 5, testDay(1))
	f.buy(t, east, 5, testDay(1))

	mine, err := f.purchases.List(ctx, testutil.Officer(f.north), repository.JournalFilter{})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, f.north.ID, mine[0].BaseID)

	all, err := f.purchases.List(ctx, f.admin, repository.JournalFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = f.purchases.List(ctx, testutil.Officer(f.north), repository.JournalFilter{BaseIDs: []uuid.UUID{east.ID}})
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	unposted := model.Actor{ID: f.admin.ID, Role: model.RoleLogisticsOfficer}
	none, err := f.purchases.List(ctx, unposted, repository.JournalFilter{})
	require.NoError(t, err)
	assert.Empty(t, none)
}
