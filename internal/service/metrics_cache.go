package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go-armory-ledger/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const ledgerVersionKey = "ledger:version"

// MetricsCache memoises metrics results under the current ledger version.
// Every commit bumps the version, so stale entries are never read and simply
// expire. A nil *MetricsCache disables caching.
type MetricsCache struct {
	repo   repository.CacheRepository
	ttl    time.Duration
	logger *zap.Logger
}

func NewMetricsCache(repo repository.CacheRepository, ttl time.Duration, logger *zap.Logger) *MetricsCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MetricsCache{repo: repo, ttl: ttl, logger: logger}
}

// Invalidate bumps the ledger version.
func (c *MetricsCache) Invalidate(ctx context.Context) {
	if c == nil {
		return
	}
	if _, err := c.repo.Incr(ctx, ledgerVersionKey); err != nil {
		c.logger.Warn("failed to bump ledger version", zap.Error(err))
	}
}

func (c *MetricsCache) key(ctx context.Context, q MetricsQuery, bases []uuid.UUID) (string, bool) {
	version, err := c.repo.Get(ctx, ledgerVersionKey)
	if errors.Is(err, repository.ErrCacheMiss) {
		version = "0"
	} else if err != nil {
		c.logger.Warn("failed to read ledger version", zap.Error(err))
		return "", false
	}

	ids := make([]string, len(bases))
	for i, id := range bases {
		ids[i] = id.String()
	}
	equipment := "*"
	if q.EquipmentTypeID != nil {
		equipment = q.EquipmentTypeID.String()
	}
	return fmt.Sprintf("metrics:v%s:%s:%s:%s:%s", version, strings.Join(ids, ","), equipment,
		bound(q.From), bound(q.To)), true
}

func bound(t *time.Time) string {
	if t == nil {
		return "open"
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func (c *MetricsCache) load(ctx context.Context, q MetricsQuery, bases []uuid.UUID) (*Metrics, string) {
	if c == nil {
		return nil, ""
	}
	key, ok := c.key(ctx, q, bases)
	if !ok {
		return nil, ""
	}
	raw, err := c.repo.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, repository.ErrCacheMiss) {
			c.logger.Warn("metrics cache read failed", zap.String("key", key), zap.Error(err))
		}
		return nil, key
	}
	var m Metrics
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		c.logger.Warn("discarding corrupt metrics cache entry", zap.String("key", key), zap.Error(err))
		return nil, key
	}
	return &m, key
}

func (c *MetricsCache) store(ctx context.Context, key string, m *Metrics) {
	if c == nil || key == "" {
		return
	}
	raw, err := json.Marshal(m)
	if err != nil {
		c.logger.Warn("failed to encode metrics", zap.Error(err))
		return
	}
	if err := c.repo.Set(ctx, key, raw, c.ttl); err != nil {
		c.logger.Warn("metrics cache write failed", zap.String("key", key), zap.Error(err))
	}
}
