// Package repo contains all database access logic for the Tripweaver API.
// Each resource has its own file with an interface and a Postgres
// implementation. No business logic lives here, only SQL and type mapping.
package repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// db is the minimal interface satisfied by *pgxpool.Pool, pgx.Conn, and pgx.Tx.
// Accepting this interface instead of *pgxpool.Pool directly allows integration
// tests to pass a transaction that is rolled back after each test, giving free
// per-test isolation without any manual cleanup.
type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// scanner is satisfied by both pgx.Row and pgx.Rows, allowing the scanX
// helpers to be reused for both QueryRow and Query calls.
type scanner interface {
	Scan(dest ...any) error
}

// Queries bundles the per-resource repos over a single connection source.
// Inside Atomic.InTx all three share one transaction, so a multi-step write
// (version insert + trip pointer advance + comment status update) commits or
// rolls back as a unit.
type Queries struct {
	Trips    TripRepo
	Versions VersionRepo
	Comments CommentRepo
}

// NewQueries builds a Queries over the given connection source.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx.
func NewQueries(d db) Queries {
	return Queries{
		Trips:    NewTripRepo(d),
		Versions: NewVersionRepo(d),
		Comments: NewCommentRepo(d),
	}
}

// Tx runs a function against a transactional view of the store.
// The service layer depends on this interface so unit tests can substitute a
// fake that passes mock repos straight through.
type Tx interface {
	// InTx executes fn inside a single database transaction. The transaction
	// commits only if fn returns nil; any error rolls everything back.
	InTx(ctx context.Context, fn func(q Queries) error) error
}

// Atomic is the pgx implementation of Tx.
type Atomic struct {
	pool *pgxpool.Pool
}

// NewAtomic constructs an Atomic over the given pool.
func NewAtomic(pool *pgxpool.Pool) *Atomic {
	return &Atomic{pool: pool}
}

// InTx begins a transaction, runs fn against repos bound to it, and commits.
// Rollback on error is unconditional: a secondary write failing after a
// primary write succeeded undoes the primary write too, never leaving the
// trip pointer and version log disagreeing.
func (a *Atomic) InTx(ctx context.Context, fn func(q Queries) error) error {
	tx, err := a.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("repo.Atomic.InTx: begin: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	if err := fn(NewQueries(tx)); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("repo.Atomic.InTx: commit: %w", err)
	}
	return nil
}
