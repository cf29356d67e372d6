// Package storage is the transactional persistence layer for ledgercore. It
// enforces, at write time, every invariant spec.md §4.A requires regardless
// of caller bugs: positive amounts, distinct ledger legs, append-only
// ledger/event tables, the uniqueness constraints of §3, closed-enum status
// columns, status-transition checks, and single-reversal-per-original.
package storage

import (
	"context"
	"fmt"
	"hash/fnv"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Store wraps a pgx connection pool. Every component in this module is
// constructed with a *Store rather than holding its own pool, mirroring the
// teacher's "services share one *sql.DB" convention.
type Store struct {
	pool *pgxpool.Pool
	log  *zap.Logger
}

// New wraps an already-configured pool. Pool lifecycle (creation, health
// checks, reconnection) is the integrator's concern per spec §1 Non-goals
// ("database connection lifecycle").
func New(pool *pgxpool.Pool, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{pool: pool, log: log}
}

// Pool exposes the underlying pool for components that need to run their own
// multi-statement transactions (ledger posting, reservation creation).
func (s *Store) Pool() *pgxpool.Pool {
	return s.pool
}

// Migrate applies the embedded schema. It is idempotent: re-running it
// against an already-migrated database is a no-op.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, Schema)
	if err != nil {
		return fmt.Errorf("applying schema: %w", err)
	}
	if err := s.seedReturnCodes(ctx); err != nil {
		return fmt.Errorf("seeding return codes: %w", err)
	}
	return nil
}

// LockKey hashes one or more string parts into the int64 space
// pg_advisory_xact_lock expects, joining multi-part keys on a NUL byte
// before hashing so ("ab", "c") and ("a", "bc") never collide.
// Transaction-scoped advisory locks release automatically on commit or
// rollback, which is why every per-account, per-instruction, and per-batch
// lock in this module uses the _xact_ variant (spec §5: "correctness is
// preserved across process restarts"). This is the single shared
// implementation every package-local lock-key helper delegates to.
func LockKey(parts ...string) int64 {
	h := fnv.New64a()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return int64(h.Sum64())
}
