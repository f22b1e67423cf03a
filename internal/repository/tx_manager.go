package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go-armory-ledger/pkg/apperrors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sethvargo/go-retry"
	"gorm.io/gorm"
)

type TxManager interface {
	// RunInTransaction runs fn in one database transaction. Transient lock or
	// serialization failures restart fn from scratch; business errors do not.
	RunInTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type txManager struct {
	db         *gorm.DB
	maxRetries uint64
	backoff    time.Duration
}

func NewTxManager(db *gorm.DB, maxRetries int) TxManager {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &txManager{db: db, maxRetries: uint64(maxRetries), backoff: 20 * time.Millisecond}
}

func (m *txManager) RunInTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	b := retry.WithMaxRetries(m.maxRetries, retry.NewExponential(m.backoff))

	err := retry.Do(ctx, b, func(ctx context.Context) error {
		err := m.db.WithContext(ctx).Transaction(fn)
		if err != nil && IsTransient(err) {
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil && IsTransient(err) {
		return fmt.Errorf("%w: %v", apperrors.ErrConcurrencyConflict, err)
	}
	return err
}

// IsTransient reports lock timeouts, deadlocks and serialization failures.
func IsTransient(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01", "55P03":
			return true
		}
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}
