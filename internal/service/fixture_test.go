package service_test

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"go-armory-ledger/internal/authz"
	"go-armory-ledger/internal/model"
	"go-armory-ledger/internal/repository"
	"go-armory-ledger/internal/service"
	"go-armory-ledger/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type recordingSink struct {
	mu      sync.Mutex
	entries []model.AuditEntry
}

func (s *recordingSink) Record(_ context.Context, entry model.AuditEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
}

func (s *recordingSink) actions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.Action
	}
	return out
}

// memoryCache is a CacheRepository backed by a map.
type memoryCache struct {
	mu   sync.Mutex
	data map[string]string
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: map[string]string{}}
}

func (m *memoryCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch v := value.(type) {
	case []byte:
		m.data[key] = string(v)
	case string:
		m.data[key] = v
	}
	return nil
}

func (m *memoryCache) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return "", repository.ErrCacheMiss
	}
	return v, nil
}

func (m *memoryCache) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func (m *memoryCache) Incr(_ context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, _ := strconv.ParseInt(m.data[key], 10, 64)
	n++
	m.data[key] = strconv.FormatInt(n, 10)
	return n, nil
}

type fixture struct {
	db           *gorm.DB
	ledger       *service.Ledger
	journals     service.JournalRepos
	audit        *recordingSink
	cache        *memoryCache
	references   service.ReferenceService
	purchases    service.PurchaseService
	transfers    service.TransferService
	assignments  service.AssignmentService
	expenditures service.ExpenditureService
	metrics      service.MetricsService

	north *model.Base
	south *model.Base
	rifle *model.EquipmentType
	admin model.Actor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewTestDB(t)
	sink := &recordingSink{}
	cache := newMemoryCache()

	ledger := service.NewLedger(service.LedgerDeps{
		Tx:             repository.NewTxManager(db, 2),
		Balances:       repository.NewBalanceRepo(db),
		Bases:          repository.NewBaseRepo(db),
		EquipmentTypes: repository.NewEquipmentTypeRepo(db),
		Authorizer:     authz.NewPolicy(),
		Audit:          sink,
		Cache:          service.NewMetricsCache(cache, time.Minute, nil),
	})
	journals := service.JournalRepos{
		Purchases:    repository.NewPurchaseRepo(db),
		Transfers:    repository.NewTransferRepo(db),
		Assignments:  repository.NewAssignmentRepo(db),
		Expenditures: repository.NewExpenditureRepo(db),
	}

	return &fixture{
		db:           db,
		ledger:       ledger,
		journals:     journals,
		audit:        sink,
		cache:        cache,
		references:   service.NewReferenceService(ledger),
		purchases:    service.NewPurchaseService(ledger, journals.Purchases),
		transfers:    service.NewTransferService(ledger, journals.Transfers),
		assignments:  service.NewAssignmentService(ledger, journals.Assignments),
		expenditures: service.NewExpenditureService(ledger, journals.Expenditures),
		metrics:      service.NewMetricsService(ledger, repository.NewMetricsRepo(db), journals),
		north:        testutil.CreateBase(t, db, "North"),
		south:        testutil.CreateBase(t, db, "South"),
		rifle:        testutil.CreateEquipmentType(t, db, "Rifle"),
		admin:        testutil.Admin(),
	}
}

func (f *fixture) balance(t *testing.T, base *model.Base) int {
	t.Helper()
	return testutil.GetBalance(t, f.db, base.ID, f.rifle.ID)
}

func (f *fixture) buy(t *testing.T, base *model.Base, quantity int, on time.Time) *model.Purchase {
	t.Helper()
	p, err := f.purchases.Record(context.Background(), f.admin, &service.RecordPurchaseRequest{
		BaseID:          base.ID,
		EquipmentTypeID: f.rifle.ID,
		Quantity:        quantity,
		UnitPrice:       decimal.NewFromInt(50),
		Supplier:        "Acme",
		PurchaseDate:    on,
	})
	require.NoError(t, err)
	return p
}

func (f *fixture) requestTransfer(t *testing.T, quantity int) *model.Transfer {
	t.Helper()
	tr, err := f.transfers.Create(context.Background(), f.admin, &service.CreateTransferRequest{
		FromBaseID:      f.north.ID,
		ToBaseID:        f.south.ID,
		EquipmentTypeID: f.rifle.ID,
		Quantity:        quantity,
	})
	require.NoError(t, err)
	return tr
}

// testDay returns midnight UTC on the given day of January 2024.
func testDay(day int) time.Time {
	return time.Date(2024, time.January, day, 0, 0, 0, 0, time.UTC)
}
