package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go-armory-ledger/internal/model"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MovementSource string

const (
	SourcePurchases    MovementSource = "purchases"
	SourceTransfersIn  MovementSource = "transfers_in"
	SourceTransfersOut MovementSource = "transfers_out"
	SourceAssigned     MovementSource = "assigned"
	SourceReturned     MovementSource = "returned"
	SourceExpended     MovementSource = "expended"
)

type movementSource struct {
	table      string
	baseColumn string
	dateColumn string
	condition  sq.Sqlizer
}

var movementSources = map[MovementSource]movementSource{
	SourcePurchases:    {table: "purchases", baseColumn: "base_id", dateColumn: "purchase_date"},
	SourceTransfersIn:  {table: "transfers", baseColumn: "to_base_id", dateColumn: "completed_at", condition: sq.Eq{"status": string(model.TransferCompleted)}},
	SourceTransfersOut: {table: "transfers", baseColumn: "from_base_id", dateColumn: "completed_at", condition: sq.Eq{"status": string(model.TransferCompleted)}},
	SourceAssigned:     {table: "assignments", baseColumn: "base_id", dateColumn: "assignment_date"},
	SourceReturned:     {table: "assignments", baseColumn: "base_id", dateColumn: "actual_return_date", condition: sq.Eq{"status": string(model.AssignmentReturned)}},
	SourceExpended:     {table: "expenditures", baseColumn: "base_id", dateColumn: "expenditure_date"},
}

// MetricsScope is the (base set, equipment type) slice being aggregated.
// An empty base set matches nothing.
type MetricsScope struct {
	BaseIDs         []uuid.UUID
	EquipmentTypeID *uuid.UUID
}

type MetricsRepository interface {
	// Snapshot runs fn against one read-only transaction so every sum sees
	// the same committed state.
	Snapshot(ctx context.Context, fn func(repo MetricsRepository) error) error
	// SumMovements totals journal quantities dated within [from, to]. Nil
	// bounds are open.
	SumMovements(ctx context.Context, source MovementSource, scope MetricsScope, from, to *time.Time) (int64, error)
	SumOnHand(ctx context.Context, scope MetricsScope) (int64, error)
	SumOutstandingAssignments(ctx context.Context, scope MetricsScope) (int64, error)
}

type metricsRepo struct {
	db *gorm.DB
}

func NewMetricsRepo(db *gorm.DB) MetricsRepository {
	return &metricsRepo{db}
}

func (r *metricsRepo) Snapshot(ctx context.Context, fn func(repo MetricsRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&metricsRepo{db: tx})
	}, snapshotOptions(r.db)...)
}

// snapshotOptions asks PostgreSQL for a repeatable-read, read-only
// transaction. SQLite transactions are already serializable.
func snapshotOptions(db *gorm.DB) []*sql.TxOptions {
	if db.Dialector.Name() != "postgres" {
		return nil
	}
	return []*sql.TxOptions{{Isolation: sql.LevelRepeatableRead, ReadOnly: true}}
}

func (r *metricsRepo) SumMovements(ctx context.Context, source MovementSource, scope MetricsScope, from, to *time.Time) (int64, error) {
	def, ok := movementSources[source]
	if !ok {
		return 0, fmt.Errorf("unknown movement source %q", source)
	}

	b := sq.Select("COALESCE(SUM(quantity), 0)").From(def.table)
	b = applyScope(b, def.baseColumn, scope)
	if def.condition != nil {
		b = b.Where(def.condition)
	}
	if from != nil {
		b = b.Where(sq.GtOrEq{def.dateColumn: from.UTC()})
	}
	if to != nil {
		b = b.Where(sq.LtOrEq{def.dateColumn: to.UTC()})
	}
	return r.scalar(ctx, b)
}

func (r *metricsRepo) SumOnHand(ctx context.Context, scope MetricsScope) (int64, error) {
	b := sq.Select("COALESCE(SUM(quantity), 0)").From("balances")
	return r.scalar(ctx, applyScope(b, "base_id", scope))
}

func (r *metricsRepo) SumOutstandingAssignments(ctx context.Context, scope MetricsScope) (int64, error) {
	b := sq.Select("COALESCE(SUM(quantity), 0)").From("assignments").
		Where(sq.Eq{"status": string(model.AssignmentActive)})
	return r.scalar(ctx, applyScope(b, "base_id", scope))
}

// applyScope binds ids as strings: squirrel expands array values such as
// uuid.UUID into IN lists.
func applyScope(b sq.SelectBuilder, baseColumn string, scope MetricsScope) sq.SelectBuilder {
	ids := make([]string, len(scope.BaseIDs))
	for i, id := range scope.BaseIDs {
		ids[i] = id.String()
	}
	if len(ids) == 0 {
		b = b.Where(sq.Expr("1 = 0"))
	} else {
		b = b.Where(sq.Eq{baseColumn: ids})
	}
	if scope.EquipmentTypeID != nil {
		b = b.Where(sq.Eq{"equipment_type_id": scope.EquipmentTypeID.String()})
	}
	return b
}

func (r *metricsRepo) scalar(ctx context.Context, b sq.SelectBuilder) (int64, error) {
	query, args, err := b.PlaceholderFormat(sq.Question).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build metrics query: %w", err)
	}
	var total int64
	if err := r.db.WithContext(ctx).Raw(query, args...).Scan(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}
