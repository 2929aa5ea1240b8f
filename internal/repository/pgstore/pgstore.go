// Package pgstore implements repository.Store on PostgreSQL using pgx directly
// (no ORM).
//
// Read-write transactions run at SERIALIZABLE isolation. Postgres then
// guarantees the same property the in-memory store checks by hand: if
// anything a transaction read (a row, or the result set of a count) is
// changed by a concurrent commit, one of the two fails. Serialization
// failures and deadlocks are reported as apperr.ErrConflict so the retry
// decorator treats both backends alike.
package pgstore

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Shivanand-hulikatti/club-membership/internal/apperr"
	"github.com/Shivanand-hulikatti/club-membership/internal/repository"
)

// Schema creates every table the store needs. It is idempotent.
//
//go:embed schema.sql
var Schema string

const (
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeUniqueViolation      = "23505"
	codeForeignKeyViolation  = "23503"
	codeCheckViolation       = "23514"
)

// Store is a repository.Store backed by a pgx connection pool.
type Store struct {
	pool *pgxpool.Pool
}

var _ repository.Store = (*Store)(nil)

// New wraps an open pool. The caller owns the pool; Close releases it.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Migrate applies Schema.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// RunTransaction runs fn in a SERIALIZABLE transaction.
func (s *Store) RunTransaction(ctx context.Context, fn repository.TxFunc) error {
	return s.run(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable}, fn)
}

// View runs fn in a read-only snapshot.
func (s *Store) View(ctx context.Context, fn repository.TxFunc) error {
	return s.run(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}, fn)
}

// Close closes the pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func (s *Store) run(ctx context.Context, opts pgx.TxOptions, fn repository.TxFunc) (err error) {
	ptx, err := s.pool.BeginTx(ctx, opts)
	if err != nil {
		return classify(fmt.Errorf("begin transaction: %w", err))
	}
	// Ensure the transaction is always resolved.
	defer func() {
		if err != nil {
			_ = ptx.Rollback(ctx)
		}
	}()

	if err = fn(ctx, &tx{q: ptx}); err != nil {
		return classify(err)
	}
	if err = ptx.Commit(ctx); err != nil {
		return classify(fmt.Errorf("commit transaction: %w", err))
	}
	return nil
}

// classify converts Postgres errors the core cares about into apperr kinds
// and passes everything else through.
func classify(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case codeSerializationFailure, codeDeadlockDetected:
		return apperr.Conflict("transaction conflict: %s", pgErr.Message)
	case codeUniqueViolation:
		return apperr.InvalidState("%s already exists", pgErr.TableName)
	case codeForeignKeyViolation:
		return apperr.NotFound("referenced record not found: %s", pgErr.ConstraintName)
	case codeCheckViolation:
		return apperr.Validation("constraint %s violated", pgErr.ConstraintName)
	}
	return err
}

func notFound(err error, format string, args ...any) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.NotFound(format, args...)
	}
	return err
}

// where accumulates positional predicates for dynamic list queries.
type where struct {
	clauses []string
	args    []any
}

func (w *where) add(clause string, arg any) {
	w.args = append(w.args, arg)
	w.clauses = append(w.clauses, strings.ReplaceAll(clause, "?", fmt.Sprintf("$%d", len(w.args))))
}

func (w *where) String() string {
	if len(w.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.clauses, " AND ")
}

// page renders LIMIT/OFFSET, binding the values as parameters.
func (w *where) page(limit, offset int) string {
	var b strings.Builder
	if limit > 0 {
		w.args = append(w.args, limit)
		fmt.Fprintf(&b, " LIMIT $%d", len(w.args))
	}
	if offset > 0 {
		w.args = append(w.args, offset)
		fmt.Fprintf(&b, " OFFSET $%d", len(w.args))
	}
	return b.String()
}
