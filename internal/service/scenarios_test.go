package service_test

import (
	"context"
	"testing"
	"time"

	"go-armory-ledger/internal/model"
	"go-armory-ledger/internal/service"
	"go-armory-ledger/internal/testutil"
	"go-armory-ledger/pkg/apperrors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPurchaseIncrementsBalance(t *testing.T) {
	f := newFixture(t)

	p, err := f.purchases.Record(context.Background(), f.admin, &service.RecordPurchaseRequest{
		BaseID:          f.north.ID,
		EquipmentTypeID: f.rifle.ID,
		Quantity:        100,
		UnitPrice:       decimal.NewFromInt(50),
		Supplier:        "Acme",
	})
	require.NoError(t, err)

	assert.Equal(t, 100, f.balance(t, f.north))
	assert.True(t, decimal.NewFromInt(5000).Equal(p.TotalAmount), "got %s", p.TotalAmount)
	assert.Equal(t, []string{model.AuditPurchaseRecorded}, f.audit.actions())
}

func TestTransferMovesStockOnlyAtComplete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	testutil.SetBalance(t, f.db, f.north.ID, f.rifle.ID, 100)

	tr := f.requestTransfer(t, 30)
	assert.Equal(t, model.TransferPending, tr.Status)
	assert.Equal(t, 100, f.balance(t, f.north))

	tr, err := f.transfers.Approve(ctx, f.admin, tr.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TransferApproved, tr.Status)
	require.NotNil(t, tr.ApprovedBy)
	assert.Equal(t, 100, f.balance(t, f.north))
	assert.Equal(t, 0, f.balance(t, f.south))

	tr, err = f.transfers.Complete(ctx, f.admin, tr.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TransferCompleted, tr.Status)
	require.NotNil(t, tr.CompletedAt)
	assert.Equal(t, 70, f.balance(t, f.north))
	assert.Equal(t, 30, f.balance(t, f.south))

	assert.Equal(t, []string{
		model.AuditTransferRequested,
		model.AuditTransferApproved,
		model.AuditTransferCompleted,
	}, f.audit.actions())
	for _, entry := range f.audit.entries {
		assert.Equal(t, []uuid.UUID{f.north.ID, f.south.ID}, entry.BaseIDs, entry.Action)
	}
}

func TestAssignmentRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	testutil.SetBalance(t, f.db, f.north.ID, f.rifle.ID, 10)

	a, err := f.assignments.Assign(ctx, f.admin, &service.CreateAssignmentRequest{
		BaseID:          f.north.ID,
		EquipmentTypeID: f.rifle.ID,
		Quantity:        10,
		AssignedTo:      "Pvt. Jones",
	})
	require.NoError(t, err)
	assert.Equal(t, model.AssignmentActive, a.Status)
	assert.Equal(t, 0, f.balance(t, f.north))

	a, err = f.assignments.Return(ctx, f.admin, a.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, model.AssignmentReturned, a.Status)
	require.NotNil(t, a.ActualReturnDate)
	assert.Equal(t, 10, f.balance(t, f.north))
}

func TestReturnAppendsNotes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	testutil.SetBalance(t, f.db, f.north.ID, f.rifle.ID, 4)

	issue := func(notes string) *model.Assignment {
		a, err := f.assignments.Assign(ctx, f.admin, &service.CreateAssignmentRequest{
			BaseID:          f.north.ID,
			EquipmentTypeID: f.rifle.ID,
			Quantity:        1,
			AssignedTo:      "Cpl. Reyes",
			Notes:           notes,
		})
		require.NoError(t, err)
		return a
	}

	withOptics := issue("issued with optics")
	_, err := f.assignments.Return(ctx, f.admin, withOptics.ID, &service.ReturnAssignmentRequest{Notes: "scope damaged"})
	require.NoError(t, err)
	stored, err := f.assignments.GetByID(ctx, f.admin, withOptics.ID)
	require.NoError(t, err)
	assert.Equal(t, "issued with optics\nscope damaged", stored.Notes)

	silentReturn := issue("night exercise")
	returned, err := f.assignments.Return(ctx, f.admin, silentReturn.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, "night exercise", returned.Notes)

	noIssueNotes := issue("")
	returned, err = f.assignments.Return(ctx, f.admin, noIssueNotes.ID, &service.ReturnAssignmentRequest{Notes: "cleaned"})
	require.NoError(t, err)
	assert.Equal(t, "cleaned", returned.Notes)
}

func TestExpenditureOverdrawLeavesBalance(t *testing.T) {
	f := newFixture(t)
	testutil.SetBalance(t, f.db, f.north.ID, f.rifle.ID, 5)

	_, err := f.expenditures.Record(context.Background(), f.admin, &service.RecordExpenditureRequest{
		BaseID:          f.north.ID,
		EquipmentTypeID: f.rifle.ID,
		Quantity:        6,
		Reason:          "live fire exercise",
	})
	require.ErrorIs(t, err, apperrors.ErrInsufficientBalance)
	assert.Equal(t, 5, f.balance(t, f.north))
	assert.Empty(t, f.audit.actions(), "failed operations are not audited")

	var count int64
	require.NoError(t, f.db.Model(&model.Expenditure{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCancelBeforeApprove(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	testutil.SetBalance(t, f.db, f.north.ID, f.rifle.ID, 30)

	tr := f.requestTransfer(t, 30)

	tr, err := f.transfers.Cancel(ctx, f.admin, tr.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TransferCancelled, tr.Status)
	assert.Equal(t, 30, f.balance(t, f.north))

	_, err = f.transfers.Cancel(ctx, f.admin, tr.ID)
	require.ErrorIs(t, err, apperrors.ErrInvalidState)
}

func TestRequestValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	testutil.SetBalance(t, f.db, f.north.ID, f.rifle.ID, 10)

	_, err := f.transfers.Create(ctx, f.admin, &service.CreateTransferRequest{
		FromBaseID: f.north.ID, ToBaseID: f.north.ID, EquipmentTypeID: f.rifle.ID, Quantity: 1,
	})
	assert.ErrorIs(t, err, apperrors.ErrValidation, "same base")

	_, err = f.transfers.Create(ctx, f.admin, &service.CreateTransferRequest{
		FromBaseID: f.north.ID, ToBaseID: f.south.ID, EquipmentTypeID: f.rifle.ID, Quantity: 0,
	})
	assert.ErrorIs(t, err, apperrors.ErrValidation, "zero quantity")

	_, err = f.transfers.Create(ctx, f.admin, &service.CreateTransferRequest{
		FromBaseID: f.north.ID, ToBaseID: f.south.ID, EquipmentTypeID: f.rifle.ID, Quantity: 11,
	})
	assert.ErrorIs(t, err, apperrors.ErrInsufficientBalance, "advisory stock check")

	_, err = f.purchases.Record(ctx, f.admin, &service.RecordPurchaseRequest{
		BaseID: f.north.ID, EquipmentTypeID: f.rifle.ID, Quantity: 1, UnitPrice: decimal.Zero, Supplier: "Acme",
	})
	assert.ErrorIs(t, err, apperrors.ErrValidation, "zero price")

	_, err = f.assignments.Assign(ctx, f.admin, &service.CreateAssignmentRequest{
		BaseID: f.north.ID, EquipmentTypeID: f.rifle.ID, Quantity: 1,
	})
	assert.ErrorIs(t, err, apperrors.ErrValidation, "missing assignee")

	past := time.Now().Add(-48 * time.Hour)
	_, err = f.assignments.Assign(ctx, f.admin, &service.CreateAssignmentRequest{
		BaseID: f.north.ID, EquipmentTypeID: f.rifle.ID, Quantity: 1, AssignedTo: "Sgt. Lee", ExpectedReturnDate: &past,
	})
	assert.ErrorIs(t, err, apperrors.ErrValidation, "return expected before assignment")

	assert.Equal(t, 10, f.balance(t, f.north))
}

func TestUnknownReferencesAreNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	missing := testutil.CreateBase(t, f.db, "Ghost")
	require.NoError(t, f.db.Delete(missing).Error)

	_, err := f.purchases.Record(ctx, f.admin, &service.RecordPurchaseRequest{
		BaseID: missing.ID, EquipmentTypeID: f.rifle.ID, Quantity: 1, UnitPrice: decimal.NewFromInt(1), Supplier: "Acme",
	})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = f.transfers.Approve(ctx, f.admin, f.rifle.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = f.assignments.Return(ctx, f.admin, f.rifle.ID, nil)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
