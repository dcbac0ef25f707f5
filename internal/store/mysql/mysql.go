// Package mysql implements the store contract on MySQL using
// database/sql.  Row locks are taken with SELECT ... FOR UPDATE; the
// bounded lock wait comes from innodb_lock_wait_timeout (set in the
// DSN by the database package), and lock-wait timeouts and deadlocks
// surface as store.ErrLockTimeout so callers can treat them as
// retryable conflicts.
package mysql

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/movie-ticket-booking/internal/store"
)

// MySQL server error numbers this package cares about.
const (
	erDupEntry        = 1062
	erLockWaitTimeout = 1205
	erLockDeadlock    = 1213
)

// Store is the MySQL-backed implementation of store.Store.
type Store struct {
	db *sql.DB
}

// New returns a Store bound to the given database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// tx wraps a live *sql.Tx and implements store.Tx.
type tx struct {
	tx *sql.Tx
}

// WithinTx runs fn inside a single database transaction.  A nil
// return from fn commits; any error rolls the transaction back and is
// returned to the caller unchanged (after lock-error translation).
func (s *Store) WithinTx(ctx context.Context, fn func(tx store.Tx) error) error {
	dbtx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = dbtx.Rollback()
		}
	}()
	if err := fn(&tx{tx: dbtx}); err != nil {
		return translateErr(err)
	}
	if err := dbtx.Commit(); err != nil {
		return translateErr(err)
	}
	committed = true
	return nil
}

// translateErr folds driver-specific failure codes into the store
// package's sentinel errors.  Lock waits and deadlocks both mean the
// caller lost a race and may retry.
func translateErr(err error) error {
	if err == nil {
		return nil
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		switch me.Number {
		case erLockWaitTimeout, erLockDeadlock:
			return store.ErrLockTimeout
		}
	}
	return err
}

// isDupEntry reports whether err is a unique-constraint violation.
func isDupEntry(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == erDupEntry
}

// placeholders returns "?, ?, ?" with n question marks, for IN lists.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

// uint64Args converts ids to the []interface{} form ExecContext wants.
func uint64Args(ids []uint64) []interface{} {
	args := make([]interface{}, 0, len(ids))
	for _, id := range ids {
		args = append(args, id)
	}
	return args
}
