// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/vinovest/sqlx"
)

var (
	// ErrNotFound is returned when a record is not found
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateEmail is returned when an account with the email already exists
	ErrDuplicateEmail = errors.New("email already in use")
)

// DBTX is the subset of sqlx used by the repository.
// Both *sqlx.DB and *sqlx.Tx satisfy this interface.
type DBTX interface {
	sqlx.ExtContext
}

// Repository wraps sqlx for database operations
type Repository struct {
	db   DBTX
	conn *sqlx.DB
}

// New creates a new Repository instance
func New(db *sqlx.DB) *Repository {
	return &Repository{db: db, conn: db}
}

// DB returns the underlying connection pool
func (r *Repository) DB() *sqlx.DB {
	return r.conn
}

// Tx is a repository bound to an open transaction. Every method of the
// embedded Repository runs inside the transaction until Commit or Rollback.
type Tx struct {
	*Repository
	tx *sqlx.Tx
}

// Begin starts a transaction. Callers must defer Rollback right away;
// it is a no-op once Commit succeeded.
func (r *Repository) Begin(ctx context.Context) (*Tx, error) {
	if r.conn == nil {
		return nil, errors.New("repository is already bound to a transaction")
	}

	tx, err := r.conn.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}

	return &Tx{
		Repository: &Repository{db: tx},
		tx:         tx,
	}, nil
}

// Commit makes the changes of the transaction durable.
func (t *Tx) Commit() error {
	return t.tx.Commit()
}

// Rollback discards the changes of the transaction. Rolling back a
// transaction that was already committed or rolled back returns nil.
func (t *Tx) Rollback() error {
	if err := t.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return err
	}
	return nil
}

// wrapError converts driver errors to repository errors
func wrapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// expectAffected returns ErrNotFound when a write matched no rows.
func expectAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
