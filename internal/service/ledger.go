package service

import (
	"context"
	"errors"
	"time"

	"go-armory-ledger/internal/model"
	"go-armory-ledger/internal/repository"
	"go-armory-ledger/pkg/apperrors"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Authorizer decides whether an actor may act on a base.
type Authorizer interface {
	CanActOnBase(actor model.Actor, baseID uuid.UUID) bool
	CommandsBase(actor model.Actor, baseID uuid.UUID) bool
	SeesAllBases(actor model.Actor) bool
}

// AuditSink receives one entry per committed mutation. It must not block
// and reports its own failures.
type AuditSink interface {
	Record(ctx context.Context, entry model.AuditEntry)
}

type LedgerDeps struct {
	Tx             repository.TxManager
	Balances       repository.BalanceRepository
	Bases          repository.BaseRepository
	EquipmentTypes repository.EquipmentTypeRepository
	Authorizer     Authorizer
	Audit          AuditSink
	Cache          *MetricsCache // optional
	Logger         *zap.Logger
	OpTimeout      time.Duration
}

// Ledger holds what every mutating operation shares: the transaction
// runner, the balance store and the post-commit collaborators.
type Ledger struct {
	LedgerDeps
}

func NewLedger(deps LedgerDeps) *Ledger {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.OpTimeout <= 0 {
		deps.OpTimeout = 10 * time.Second
	}
	return &Ledger{LedgerDeps: deps}
}

func (l *Ledger) begin(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, l.OpTimeout)
}

// committed runs the post-commit side effects. They never fail the
// operation and outlive a cancelled request context.
func (l *Ledger) committed(ctx context.Context, entry model.AuditEntry) {
	ctx = context.WithoutCancel(ctx)
	if l.Audit != nil {
		l.Audit.Record(ctx, entry)
	}
	l.Cache.Invalidate(ctx)
}

func (l *Ledger) requireBase(ctx context.Context, id uuid.UUID) (*model.Base, error) {
	base, err := l.Bases.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "base", id)
	}
	return base, nil
}

func (l *Ledger) requireEquipmentType(ctx context.Context, id uuid.UUID) (*model.EquipmentType, error) {
	equipmentType, err := l.EquipmentTypes.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "equipment type", id)
	}
	return equipmentType, nil
}

func (l *Ledger) authorize(actor model.Actor, action string, baseID uuid.UUID) error {
	if !l.Authorizer.CanActOnBase(actor, baseID) {
		return apperrors.Unauthorized(action, baseID)
	}
	return nil
}

// notFoundOr maps gorm's missing-record error onto the ledger taxonomy.
func notFoundOr(err error, entity string, id interface{}) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.NotFound(entity, id)
	}
	return err
}

func utcOrNow(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t.UTC()
}

// visibleBases resolves the bases a read may cover. An empty request means
// every base the actor can see; an explicit base outside the actor's
// authority is rejected.
func (l *Ledger) visibleBases(ctx context.Context, actor model.Actor, requested []uuid.UUID) ([]uuid.UUID, error) {
	if len(requested) > 0 {
		for _, id := range requested {
			if err := l.authorize(actor, "read", id); err != nil {
				return nil, err
			}
		}
		return requested, nil
	}
	if l.Authorizer.SeesAllBases(actor) {
		return l.Bases.AllIDs(ctx)
	}
	if actor.BaseID != nil {
		return []uuid.UUID{*actor.BaseID}, nil
	}
	return nil, nil
}
