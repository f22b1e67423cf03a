package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"go-armory-ledger/internal/model"
	"go-armory-ledger/internal/repository"
	"go-armory-ledger/internal/service"
	"go-armory-ledger/internal/testutil"
	"go-armory-ledger/pkg/apperrors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedHistory leaves North with 55 on hand and 5 out on assignment, and
// South with 30 received by transfer.
func seedHistory(t *testing.T, f *fixture) {
	t.Helper()
	ctx := context.Background()

	f.buy(t, f.north, 100, testDay(10))

	_, err := f.expenditures.Record(ctx, f.admin, &service.RecordExpenditureRequest{
		BaseID: f.north.ID, EquipmentTypeID: f.rifle.ID, Quantity: 10, Reason: "training", ExpenditureDate: testDay(12),
	})
	require.NoError(t, err)

	_, err = f.assignments.Assign(ctx, f.admin, &service.CreateAssignmentRequest{
		BaseID: f.north.ID, EquipmentTypeID: f.rifle.ID, Quantity: 5, AssignedTo: "Pvt. Jones", AssignmentDate: testDay(12),
	})
	require.NoError(t, err)

	tr := f.requestTransfer(t, 30)
	_, err = f.transfers.Approve(ctx, f.admin, tr.ID)
	require.NoError(t, err)
	_, err = f.transfers.Complete(ctx, f.admin, tr.ID)
	require.NoError(t, err)

	require.Equal(t, 55, f.balance(t, f.north))
	require.Equal(t, 30, f.balance(t, f.south))
}

func TestMetricsForOneBase(t *testing.T) {
	f := newFixture(t)
	seedHistory(t, f)

	from := testDay(11)
	to := time.Now().Add(24 * time.Hour)
	m, err := f.metrics.GetMetrics(context.Background(), f.admin, service.MetricsQuery{
		BaseIDs: []uuid.UUID{f.north.ID}, From: &from, To: &to,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(0), m.Purchases, "purchase predates the range")
	assert.Equal(t, int64(30), m.TransfersOut)
	assert.Equal(t, int64(10), m.Expended)
	assert.Equal(t, int64(5), m.Assigned)
	assert.Equal(t, int64(-40), m.NetMovement, "assignments do not count")
	assert.Equal(t, int64(100), m.OpeningBalance)
	assert.Equal(t, int64(60), m.ClosingBalance)
}

func TestMetricsAcrossBases(t *testing.T) {
	f := newFixture(t)
	seedHistory(t, f)

	from := testDay(11)
	m, err := f.metrics.GetMetrics(context.Background(), f.admin, service.MetricsQuery{From: &from})
	require.NoError(t, err)

	assert.Len(t, m.BaseIDs, 2)
	assert.Equal(t, int64(30), m.TransfersIn)
	assert.Equal(t, int64(30), m.TransfersOut)
	assert.Equal(t, int64(-10), m.NetMovement)
	assert.Equal(t, int64(100), m.OpeningBalance)
	assert.Equal(t, int64(90), m.ClosingBalance)
}

func TestMetricsOpenRangeStartsFromZero(t *testing.T) {
	f := newFixture(t)
	seedHistory(t, f)

	m, err := f.metrics.GetMetrics(context.Background(), f.admin, service.MetricsQuery{
		BaseIDs: []uuid.UUID{f.north.ID},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), m.OpeningBalance)
	assert.Equal(t, int64(100), m.Purchases)
	assert.Equal(t, int64(60), m.ClosingBalance)
}

func TestMetricsWindowBeforeActivity(t *testing.T) {
	f := newFixture(t)
	seedHistory(t, f)

	from, to := testDay(1), testDay(9)
	m, err := f.metrics.GetMetrics(context.Background(), f.admin, service.MetricsQuery{
		BaseIDs: []uuid.UUID{f.north.ID}, From: &from, To: &to,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), m.OpeningBalance)
	assert.Equal(t, int64(0), m.NetMovement)
	assert.Equal(t, int64(0), m.ClosingBalance)
}

func TestMetricsScope(t *testing.T) {
	f := newFixture(t)
	seedHistory(t, f)
	ctx := context.Background()

	m, err := f.metrics.GetMetrics(ctx, testutil.Commander(f.south), service.MetricsQuery{})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{f.south.ID}, m.BaseIDs)
	assert.Equal(t, int64(30), m.ClosingBalance)

	_, err = f.metrics.GetMetrics(ctx, testutil.Commander(f.south), service.MetricsQuery{BaseIDs: []uuid.UUID{f.north.ID}})
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	from, to := testDay(20), testDay(10)
	_, err = f.metrics.GetMetrics(ctx, f.admin, service.MetricsQuery{From: &from, To: &to})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestMetricsCacheFollowsLedgerVersion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.buy(t, f.north, 10, testDay(1))

	q := service.MetricsQuery{BaseIDs: []uuid.UUID{f.north.ID}}
	first, err := f.metrics.GetMetrics(ctx, f.admin, q)
	require.NoError(t, err)
	assert.Equal(t, int64(10), first.ClosingBalance)

	// Writes that bypass the ledger do not bump the version, so the cached
	// result is still served.
	testutil.SetBalance(t, f.db, f.north.ID, f.rifle.ID, 999)
	cached, err := f.metrics.GetMetrics(ctx, f.admin, q)
	require.NoError(t, err)
	assert.Equal(t, int64(10), cached.ClosingBalance)

	testutil.SetBalance(t, f.db, f.north.ID, f.rifle.ID, 10)
	f.buy(t, f.north, 5, testDay(2))
	fresh, err := f.metrics.GetMetrics(ctx, f.admin, q)
	require.NoError(t, err)
	assert.Equal(t, int64(15), fresh.ClosingBalance)
}

func TestReconcile(t *testing.T) {
	f := newFixture(t)
	seedHistory(t, f)
	ctx := context.Background()

	r, err := f.metrics.Reconcile(ctx, f.admin, service.MetricsQuery{})
	require.NoError(t, err)
	assert.True(t, r.Consistent)
	assert.Equal(t, int64(85), r.OnHand)

	testutil.SetBalance(t, f.db, f.north.ID, f.rifle.ID, 50)
	r, err = f.metrics.Reconcile(ctx, f.admin, service.MetricsQuery{BaseIDs: []uuid.UUID{f.north.ID}})
	require.NoError(t, err)
	assert.False(t, r.Consistent)
	assert.Equal(t, int64(55), r.Expected)
	assert.Equal(t, int64(-5), r.Drift)
}

func TestMovements(t *testing.T) {
	f := newFixture(t)
	seedHistory(t, f)
	ctx := context.Background()

	movements, err := f.metrics.Movements(ctx, f.admin, service.MovementQuery{BaseIDs: []uuid.UUID{f.north.ID}})
	require.NoError(t, err)
	require.Len(t, movements, 4)

	assert.Equal(t, model.MovementTransferOut, movements[0].Kind, "newest first")
	assert.Equal(t, "South", movements[0].Counterparty)
	assert.Equal(t, model.MovementPurchase, movements[3].Kind)

	total := 0
	for _, m := range movements {
		total += m.Effect
	}
	assert.Equal(t, 55, total, "effects replay to the current balance")

	all, err := f.metrics.Movements(ctx, f.admin, service.MovementQuery{})
	require.NoError(t, err)
	assert.Len(t, all, 5, "a transfer appears once per side")
}

// interleavedMetricsRepo runs afterOnHand once the on-hand sum has been read,
// standing in for a ledger write that commits between two aggregate reads.
type interleavedMetricsRepo struct {
	repository.MetricsRepository
	afterOnHand func()
}

func (r *interleavedMetricsRepo) Snapshot(ctx context.Context, fn func(repo repository.MetricsRepository) error) error {
	return r.MetricsRepository.Snapshot(ctx, func(tx repository.MetricsRepository) error {
		return fn(&interleavedMetricsRepo{MetricsRepository: tx, afterOnHand: r.afterOnHand})
	})
}

func (r *interleavedMetricsRepo) SumOnHand(ctx context.Context, scope repository.MetricsScope) (int64, error) {
	total, err := r.MetricsRepository.SumOnHand(ctx, scope)
	r.afterOnHand()
	return total, err
}

// assignDuringRead returns a hook that issues 10 rifles from North in the
// background the first time it runs, and a channel carrying that result.
func assignDuringRead(f *fixture) (func(), <-chan error) {
	done := make(chan error, 1)
	var once sync.Once
	return func() {
		once.Do(func() {
			go func() {
				_, err := f.assignments.Assign(context.Background(), f.admin, &service.CreateAssignmentRequest{
					BaseID: f.north.ID, EquipmentTypeID: f.rifle.ID, Quantity: 10, AssignedTo: "Sgt. Vale", AssignmentDate: testDay(5),
				})
				done <- err
			}()
		})
	}, done
}

func TestMetricsReadOneSnapshot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.buy(t, f.north, 100, testDay(1))

	hook, done := assignDuringRead(f)
	metrics := service.NewMetricsService(f.ledger, &interleavedMetricsRepo{
		MetricsRepository: repository.NewMetricsRepo(f.db),
		afterOnHand:       hook,
	}, f.journals)

	m, err := metrics.GetMetrics(ctx, f.admin, service.MetricsQuery{BaseIDs: []uuid.UUID{f.north.ID}})
	require.NoError(t, err)
	assert.Equal(t, int64(0), m.OpeningBalance)
	assert.Equal(t, int64(100), m.NetMovement)
	assert.Equal(t, int64(100), m.ClosingBalance)
	assert.Equal(t, int64(0), m.Assigned, "the concurrent assignment is not part of this read")

	require.NoError(t, <-done)
	assert.Equal(t, 90, f.balance(t, f.north))
}

func TestReconcileReadsOneSnapshot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.buy(t, f.north, 100, testDay(1))

	hook, done := assignDuringRead(f)
	metrics := service.NewMetricsService(f.ledger, &interleavedMetricsRepo{
		MetricsRepository: repository.NewMetricsRepo(f.db),
		afterOnHand:       hook,
	}, f.journals)

	r, err := metrics.Reconcile(ctx, f.admin, service.MetricsQuery{BaseIDs: []uuid.UUID{f.north.ID}})
	require.NoError(t, err)
	assert.True(t, r.Consistent, "drift %d", r.Drift)
	assert.Equal(t, int64(100), r.OnHand)

	require.NoError(t, <-done)
	r, err = metrics.Reconcile(ctx, f.admin, service.MetricsQuery{BaseIDs: []uuid.UUID{f.north.ID}})
	require.NoError(t, err)
	assert.True(t, r.Consistent)
	assert.Equal(t, int64(90), r.OnHand)
}
