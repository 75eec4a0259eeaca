package database

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"pos-backend/internal/apperror"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Postgres SQLSTATE codes that mean "run the whole transaction again".
const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
)

// IsRetryable reports whether err is a serialization failure, deadlock or busy database.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgSerializationFailure || pgErr.Code == pgDeadlockDetected
	}
	msg := err.Error()
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "SQLITE_BUSY")
}

// InTx runs fn in a serializable transaction. Retryable failures rerun fn from the
// start up to retries more times; exhaustion yields a conflict error.
// *apperror.Error values from fn pass through; other failures become persistence errors.
func InTx(ctx context.Context, db *gorm.DB, retries int, fn func(tx *gorm.DB) error) error {
	opts := &sql.TxOptions{Isolation: sql.LevelSerializable}
	if db.Dialector.Name() == "sqlite" {
		// sqlite serializes writers on its own
		opts = nil
	}

	var err error
	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return apperror.Conflict(ctx.Err())
			case <-time.After(backoff(attempt)):
			}
		}

		if opts != nil {
			err = db.WithContext(ctx).Transaction(fn, opts)
		} else {
			err = db.WithContext(ctx).Transaction(fn)
		}
		if err == nil {
			return nil
		}
		if !IsRetryable(err) {
			var ae *apperror.Error
			if errors.As(err, &ae) {
				return err
			}
			return apperror.Persistence("transaction", err)
		}
	}
	return apperror.Conflict(err)
}

func backoff(attempt int) time.Duration {
	return time.Duration(attempt*attempt) * 10 * time.Millisecond
}

// ForUpdate adds a row lock for reads inside a transaction. SQLite ignores it.
func ForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}
