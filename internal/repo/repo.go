// Package repo contains all database access logic for the time ledger API.
// Each resource has its own file with an interface and a Postgres
// implementation. No business logic lives here — only SQL, type mapping,
// and the translation of Postgres error codes into domain sentinels.
package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/mhollstein/timeledger/internal/domain"
)

// db is the minimal interface satisfied by *pgxpool.Pool, *pgx.Conn, and
// pgx.Tx. Accepting this interface instead of *pgxpool.Pool directly allows
// integration tests to pass a transaction that is rolled back after each
// test, giving free per-test isolation without any manual cleanup.
// Begin is included so the ledger's check+write sequences can open a
// transaction; on a pgx.Tx it opens a savepoint, which keeps the rollback
// trick working in tests.
type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// scanner is satisfied by both pgx.Row and pgx.Rows, allowing the scan
// helpers to be reused for both QueryRow and Query calls.
type scanner interface {
	Scan(dest ...any) error
}

// mapPgError translates Postgres error codes into domain sentinels so the
// schema-level constraints surface as the same typed failures the service
// layer produces itself.
//
//	23P01 exclusion_violation   → ErrOverlap (the gist no-overlap constraint)
//	23505 unique_violation      → ErrConflict (the one-running-per-user index)
//	23514 check_violation       → ErrInvalidInterval (end_time > start_time)
//	23503 foreign_key_violation → ErrConflict (referenced rows still in use)
//	40001/40P01/55P03           → ErrTransient (retried by the service)
func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case "23P01":
		return fmt.Errorf("%w (%s)", domain.ErrOverlap, pgErr.ConstraintName)
	case "23505":
		return fmt.Errorf("%w: %s", domain.ErrConflict, pgErr.ConstraintName)
	case "23514":
		return fmt.Errorf("%w (%s)", domain.ErrInvalidInterval, pgErr.ConstraintName)
	case "23503":
		return fmt.Errorf("%w: referenced by other rows (%s)", domain.ErrConflict, pgErr.ConstraintName)
	case "40001", "40P01", "55P03":
		return fmt.Errorf("%w: %s", domain.ErrTransient, pgErr.Code)
	}
	return err
}
