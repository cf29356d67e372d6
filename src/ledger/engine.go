// Package ledger is the double-entry core: every money movement in the
// system is recorded as a balanced debit/credit pair here, and nowhere
// else. Rows are append-only; a mistaken entry is corrected by posting an
// equal-and-opposite reversal, never by editing or deleting the original
// (spec §4.A).
package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/brightpay/ledgercore/src/eventlog"
	"github.com/brightpay/ledgercore/src/metrics"
	"github.com/brightpay/ledgercore/src/models"
	"github.com/brightpay/ledgercore/src/storage"
)

// Engine posts and reverses ledger entries and computes account balances.
type Engine struct {
	store   *storage.Store
	events  *eventlog.Log
	metrics *metrics.Metrics
	log     *zap.Logger
}

// New constructs a ledger engine. m may be nil, in which case postings go
// unmeasured.
func New(store *storage.Store, events *eventlog.Log, m *metrics.Metrics, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{store: store, events: events, metrics: m, log: logger}
}

// lockKeyForAccount derives a stable advisory lock key from an account ID,
// delegating to the shared storage.LockKey helper every per-entity lock in
// this module uses.
func lockKeyForAccount(id uuid.UUID) int64 {
	return storage.LockKey(id.String())
}

// PostEntry appends a balanced debit/credit pair within a single
// transaction, holding transaction-scoped advisory locks on both accounts,
// taken in UUID order (lower first, whichever leg it is) so concurrent
// postings against the same two accounts in opposite directions cannot
// deadlock. Returns is_new=false if idempotency_key was already posted.
func (e *Engine) PostEntry(ctx context.Context, entry *models.LedgerEntry) (bool, error) {
	if err := entry.Validate(); err != nil {
		return false, fmt.Errorf("ledger: invalid entry: %w", err)
	}

	tx, err := e.store.Pool().BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return false, fmt.Errorf("ledger: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	first, second := orderAccounts(entry.DebitAccount, entry.CreditAccount)
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, lockKeyForAccount(first)); err != nil {
		return false, fmt.Errorf("ledger: lock account %s: %w", first, err)
	}
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, lockKeyForAccount(second)); err != nil {
		return false, fmt.Errorf("ledger: lock account %s: %w", second, err)
	}

	isNew, err := insertLedgerEntryTx(ctx, tx, entry)
	if err != nil {
		return false, fmt.Errorf("ledger: insert entry: %w", err)
	}

	if isNew {
		if entry.IsReversal && entry.ReversalOf != nil {
			if _, err := tx.Exec(ctx, `
				UPDATE ledger_entries SET reversed_by = $1
				WHERE id = $2 AND reversed_by IS NULL`, entry.ID, *entry.ReversalOf); err != nil {
				return false, fmt.Errorf("ledger: set reversal pointer: %w", err)
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("ledger: commit: %w", err)
	}

	if isNew {
		eventType := models.EventLedgerEntryPosted
		if entry.IsReversal {
			eventType = models.EventLedgerEntryReversed
			e.metrics.ObserveLedgerReversal()
		} else {
			e.metrics.ObserveLedgerEntryPosted(string(entry.EntryType))
		}
		ev := models.NewDomainEvent(eventType, models.CategoryLedger, entry.TenantID, entry.CorrelationID, map[string]any{
			"ledger_entry_id": entry.ID.String(),
			"debit_account":   entry.DebitAccount.String(),
			"credit_account":  entry.CreditAccount.String(),
			"amount":          entry.Amount.String(),
			"entry_type":      string(entry.EntryType),
		})
		if err := e.events.Append(ctx, ev); err != nil {
			e.log.Error("ledger: failed to append domain event", zap.Error(err))
		}
	}

	return isNew, nil
}

// ReverseEntry posts the equal-and-opposite entry for an original, failing
// with ErrAlreadyReversed if a reversal already exists (spec §4.A: at most
// one reversal per original).
func (e *Engine) ReverseEntry(ctx context.Context, originalID uuid.UUID, idempotencyKey, reason string) (*models.LedgerEntry, error) {
	original, err := e.store.GetLedgerEntryByID(ctx, originalID)
	if err != nil {
		return nil, fmt.Errorf("ledger: load original entry: %w", err)
	}
	if original.IsReversed() {
		return nil, models.ErrAlreadyReversed
	}

	reversal := original.BuildReversal(idempotencyKey, reason)
	if _, err := e.PostEntry(ctx, reversal); err != nil {
		return nil, err
	}
	return reversal, nil
}

// Balance is the derived posted/available/reserved view of an account,
// computed fresh from the append-only log every call (spec §4.A/§4.C:
// "Balance is always derived, never cached").
type Balance struct {
	AccountID uuid.UUID
	Posted    decimal.Decimal
	Reserved  decimal.Decimal
	Available decimal.Decimal
}

// GetBalance computes an account's posted balance and, combined with the
// reservation manager's active sum, its available balance.
func (e *Engine) GetBalance(ctx context.Context, accountID uuid.UUID, reserved decimal.Decimal) (*Balance, error) {
	credits, debits, err := e.store.SumPostedForAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("ledger: sum account: %w", err)
	}
	creditSum, err := decimal.NewFromString(credits)
	if err != nil {
		return nil, fmt.Errorf("ledger: parse credit sum: %w", err)
	}
	debitSum, err := decimal.NewFromString(debits)
	if err != nil {
		return nil, fmt.Errorf("ledger: parse debit sum: %w", err)
	}
	posted := creditSum.Sub(debitSum)
	return &Balance{
		AccountID: accountID,
		Posted:    posted,
		Reserved:  reserved,
		Available: posted.Sub(reserved),
	}, nil
}

func orderAccounts(a, b uuid.UUID) (uuid.UUID, uuid.UUID) {
	if a.String() <= b.String() {
		return a, b
	}
	return b, a
}

func insertLedgerEntryTx(ctx context.Context, tx pgx.Tx, e *models.LedgerEntry) (bool, error) {
	tag, err := tx.Exec(ctx, `
		INSERT INTO ledger_entries
			(id, tenant_id, debit_account, credit_account, amount, entry_type,
			 source_type, source_id, correlation_id, idempotency_key, metadata,
			 posted_at, is_reversal, reversal_of)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,now(),$12,$13)
		ON CONFLICT (tenant_id, idempotency_key) DO NOTHING`,
		e.ID, e.TenantID, e.DebitAccount, e.CreditAccount, e.Amount, e.EntryType,
		e.SourceType, e.SourceID, e.CorrelationID, e.IdempotencyKey, e.Metadata,
		e.IsReversal, e.ReversalOf)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
