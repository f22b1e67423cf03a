package service

import (
	"context"
	"encoding/json"

	"go-armory-ledger/internal/model"
	"go-armory-ledger/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// Broadcaster pushes committed ledger events to the live subscribers of
// the given bases.
type Broadcaster interface {
	Publish(eventType string, bases []uuid.UUID, payload interface{})
}

type auditRecorder struct {
	auditRepo   repository.AuditRepository
	broadcaster Broadcaster
	logger      *zap.Logger
}

// NewAuditRecorder persists audit entries and republishes them. Failures are
// logged; the ledger operation has already committed.
func NewAuditRecorder(auditRepo repository.AuditRepository, broadcaster Broadcaster, logger *zap.Logger) AuditSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &auditRecorder{auditRepo: auditRepo, broadcaster: broadcaster, logger: logger}
}

func (r *auditRecorder) Record(ctx context.Context, entry model.AuditEntry) {
	log := &model.AuditLog{
		Action:    entry.Action,
		Entity:    entry.Table,
		RecordID:  entry.RecordID,
		OldValues: r.snapshot(entry.Before),
		NewValues: r.snapshot(entry.After),
		ActorID:   entry.Actor.ID,
		ActorName: entry.Actor.Name,
	}
	if err := r.auditRepo.Create(ctx, log); err != nil {
		r.logger.Error("failed to write audit log",
			zap.String("action", entry.Action),
			zap.String("record_id", entry.RecordID.String()),
			zap.Error(err),
		)
	}
	if r.broadcaster != nil {
		r.broadcaster.Publish(entry.Action, entry.BaseIDs, entry.After)
	}
}

func (r *auditRecorder) snapshot(v interface{}) datatypes.JSON {
	if v == nil {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		r.logger.Warn("failed to snapshot audit value", zap.Error(err))
		return nil
	}
	return datatypes.JSON(raw)
}
