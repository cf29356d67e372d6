// Package reconciler ingests external settlement records, matches them to
// payment attempts, posts the resulting ledger entries, and advances
// instructions toward settled (or, for late returns, back through a
// reversal). Ingest is fully idempotent: replaying an entire provider feed
// must produce identical final state (spec §4.H).
package reconciler

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/brightpay/ledgercore/src/eventlog"
	"github.com/brightpay/ledgercore/src/ledger"
	"github.com/brightpay/ledgercore/src/liability"
	"github.com/brightpay/ledgercore/src/metrics"
	"github.com/brightpay/ledgercore/src/models"
	"github.com/brightpay/ledgercore/src/storage"
)

// Reconciler matches settlement truth to internal payment attempts.
type Reconciler struct {
	store       *storage.Store
	ledger      *ledger.Engine
	events      *eventlog.Log
	liability   *liability.Attributor
	metrics     *metrics.Metrics
	concurrency int
	log         *zap.Logger
}

// New constructs a settlement reconciler. concurrency <= 0 defaults to
// runtime.GOMAXPROCS(0), matching the teacher pack's bounded-fan-out
// convention for per-record work. m may be nil.
func New(store *storage.Store, ledgerEngine *ledger.Engine, events *eventlog.Log, attributor *liability.Attributor, m *metrics.Metrics, concurrency int, logger *zap.Logger) *Reconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if concurrency <= 0 {
		concurrency = runtime.GOMAXPROCS(0)
	}
	return &Reconciler{store: store, ledger: ledgerEngine, events: events, liability: attributor, metrics: m, concurrency: concurrency, log: logger}
}

// Ingest processes a batch of raw settlement records concurrently, each
// independently, so one bad record never blocks the rest of the feed. A
// record's insert, match, ledger posting and status advance are separate
// storage calls, not one transaction. Errors from individual records are
// collected and returned joined; callers that need per-record detail
// should inspect the returned IngestResult slice.
func (r *Reconciler) Ingest(ctx context.Context, records []*models.SettlementEvent) ([]IngestResult, error) {
	started := time.Now()
	results := make([]IngestResult, len(records))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	for i, record := range records {
		i, record := i, record
		g.Go(func() error {
			res := r.ingestOne(ctx, record)
			results[i] = res
			return nil
		})
	}
	err := g.Wait()
	r.metrics.ObserveReconciliationBatch(time.Since(started))
	if err != nil {
		return results, fmt.Errorf("reconciler: ingest: %w", err)
	}
	var errs []error
	for _, res := range results {
		if res.Err != nil {
			errs = append(errs, res.Err)
		}
	}
	if len(errs) > 0 {
		return results, fmt.Errorf("reconciler: ingest: %w", errors.Join(errs...))
	}
	return results, nil
}

// IngestResult reports what happened to a single settlement record.
type IngestResult struct {
	Event   *models.SettlementEvent
	IsNew   bool
	Matched bool
	Err     error
}

func (r *Reconciler) ingestOne(ctx context.Context, record *models.SettlementEvent) IngestResult {
	isNew, err := r.store.InsertSettlementEvent(ctx, record)
	if err != nil {
		return IngestResult{Event: record, Err: fmt.Errorf("insert: %w", err)}
	}
	if !isNew {
		return IngestResult{Event: record, IsNew: false}
	}

	attempt, err := r.matchAttempt(ctx, record)
	if err != nil {
		return IngestResult{Event: record, IsNew: true, Err: fmt.Errorf("match: %w", err)}
	}
	if attempt == nil {
		r.metrics.ObserveReconciliationUnmatched()
		ev := models.NewDomainEvent(models.EventSettlementUnmatched, models.CategorySettlement, record.TenantID, uuid.New(), map[string]any{
			"settlement_event_id": record.ID.String(),
			"external_trace_id":   record.ExternalTraceID,
		})
		if err := r.events.Append(ctx, ev); err != nil {
			r.log.Error("reconciler: failed to append unmatched event", zap.Error(err))
		}
		return IngestResult{Event: record, IsNew: true, Matched: false}
	}

	if err := r.applyMatch(ctx, record, attempt); err != nil {
		return IngestResult{Event: record, IsNew: true, Matched: true, Err: fmt.Errorf("apply: %w", err)}
	}
	return IngestResult{Event: record, IsNew: true, Matched: true}
}

// matchAttempt implements spec §4.H step 2: exact (provider,
// provider_request_id) match first, then deterministic fallback scoring
// over the instruction's attempts.
func (r *Reconciler) matchAttempt(ctx context.Context, record *models.SettlementEvent) (*models.PaymentAttempt, error) {
	if record.Provider != nil && record.ProviderRequestID != nil {
		attempt, err := r.store.GetPaymentAttemptByProviderRequestID(ctx, *record.Provider, *record.ProviderRequestID)
		if err == nil {
			r.metrics.ObserveReconciliationMatch("exact")
			return attempt, nil
		}
		if err != storage.ErrNotFound {
			return nil, err
		}
	}

	candidates, err := r.store.ListOpenAttemptsForTenant(ctx, record.TenantID)
	if err != nil {
		return nil, fmt.Errorf("list open attempts: %w", err)
	}

	scored := make([]candidate, 0, len(candidates))
	for _, a := range candidates {
		instruction, err := resolveInstructionForAttempt(ctx, r.store, a)
		if err != nil {
			continue
		}
		scored = append(scored, candidate{attempt: a, score: scoreMatch(record, instruction, a)})
	}

	var best *models.PaymentAttempt
	bestScore := -1
	for _, c := range scored {
		if c.score < minMatchScore {
			continue
		}
		if c.score > bestScore || (c.score == bestScore && best != nil && c.attempt.CreatedAt.Before(best.CreatedAt)) {
			best = c.attempt
			bestScore = c.score
		}
	}
	if best != nil {
		r.metrics.ObserveReconciliationMatch("scored")
	}
	return best, nil
}

// applyMatch posts the ledger entry for a matched settlement, links it,
// and advances the instruction — including the post-settlement-return
// reversal path.
func (r *Reconciler) applyMatch(ctx context.Context, record *models.SettlementEvent, attempt *models.PaymentAttempt) error {
	instruction, err := r.store.GetPaymentInstructionByID(ctx, attempt.InstructionID)
	if err != nil {
		return fmt.Errorf("load instruction: %w", err)
	}

	if record.Status == models.SettlementStatusReturned || record.Status == models.SettlementStatusReversed {
		if instruction.Status == models.InstructionStatusSettled {
			return r.applyPostSettlementReturn(ctx, record, instruction)
		}
		return r.applyDirectReturn(ctx, record, instruction)
	}

	if record.Status != models.SettlementStatusSettled {
		return nil
	}

	clearing, err := r.store.GetOrCreateLedgerAccount(ctx, instruction.TenantID, instruction.LegalEntityID, models.AccountClientFundingClearing, instruction.Currency)
	if err != nil {
		return fmt.Errorf("resolve clearing account: %w", err)
	}
	payable, err := r.store.GetOrCreateLedgerAccount(ctx, instruction.TenantID, instruction.LegalEntityID, payableAccountFor(instruction.Purpose), instruction.Currency)
	if err != nil {
		return fmt.Errorf("resolve payable account: %w", err)
	}

	entry := &models.LedgerEntry{
		ID:             uuid.New(),
		TenantID:       instruction.TenantID,
		DebitAccount:   payable.ID,
		CreditAccount:  clearing.ID,
		Amount:         instruction.Amount,
		EntryType:      models.EntryTypeSettlement,
		SourceType:     models.SourceTypeSettlementEvent,
		SourceID:       record.ID,
		CorrelationID:  instruction.CorrelationID,
		IdempotencyKey: fmt.Sprintf("settlement:%s", record.ID),
	}
	isNew, err := r.ledger.PostEntry(ctx, entry)
	if err != nil {
		return fmt.Errorf("post settlement entry: %w", err)
	}
	if isNew {
		link := &models.SettlementLink{
			ID:                uuid.New(),
			TenantID:          instruction.TenantID,
			SettlementEventID: record.ID,
			LedgerEntryID:     entry.ID,
			InstructionID:     &instruction.ID,
			CreatedAt:         entry.PostedAt,
		}
		if err := r.store.InsertSettlementLink(ctx, link); err != nil {
			return fmt.Errorf("insert settlement link: %w", err)
		}
	}

	if instruction.Status == models.InstructionStatusAccepted {
		if err := r.store.TransitionPaymentInstruction(ctx, instruction.ID, instruction.Status, models.InstructionStatusSettled); err != nil {
			return fmt.Errorf("transition instruction to settled: %w", err)
		}
		r.metrics.ObserveInstructionTransition(string(models.InstructionStatusAccepted), string(models.InstructionStatusSettled))
	}

	ev := models.NewDomainEvent(models.EventPaymentSettled, models.CategoryPayment, record.TenantID, instruction.CorrelationID, map[string]any{
		"instruction_id":      instruction.ID.String(),
		"settlement_event_id": record.ID.String(),
	})
	if err := r.events.Append(ctx, ev); err != nil {
		r.log.Error("reconciler: failed to append domain event", zap.Error(err))
	}

	return nil
}

// payableAccountFor maps an instruction's business purpose to the ledger
// account its disbursement clears against, mirroring the funding-model
// buckets named in spec §3.
func payableAccountFor(purpose models.InstructionPurpose) models.LedgerAccountType {
	switch purpose {
	case models.PurposeTax:
		return models.AccountClientTaxImpoundPayable
	case models.PurposeThirdParty:
		return models.AccountClientThirdPartyPayable
	case models.PurposeFee:
		return models.AccountPSPFeesRevenue
	default:
		return models.AccountClientNetPayPayable
	}
}

// applyPostSettlementReturn implements spec §4.H step 4: reverse the
// settlement ledger entry, advance the instruction to returned, and hand
// off to the liability attributor.
func (r *Reconciler) applyPostSettlementReturn(ctx context.Context, record *models.SettlementEvent, instruction *models.PaymentInstruction) error {
	link, err := r.store.GetLatestSettlementLinkForInstruction(ctx, instruction.ID)
	if err != nil {
		return fmt.Errorf("find settlement entry to reverse: %w", err)
	}
	if _, err := r.ledger.ReverseEntry(ctx, link.LedgerEntryID, fmt.Sprintf("return:%s", record.ID), "post-settlement return"); err != nil && err != models.ErrAlreadyReversed {
		return fmt.Errorf("reverse settlement entry: %w", err)
	}
	return r.finishReturn(ctx, record, instruction)
}

// applyDirectReturn handles a return that arrives before settlement ever
// posted a ledger entry (the "accepted -> returned" edge): nothing needs
// reversing, only the instruction status and liability determination.
func (r *Reconciler) applyDirectReturn(ctx context.Context, record *models.SettlementEvent, instruction *models.PaymentInstruction) error {
	return r.finishReturn(ctx, record, instruction)
}

func (r *Reconciler) finishReturn(ctx context.Context, record *models.SettlementEvent, instruction *models.PaymentInstruction) error {
	fromStatus := instruction.Status
	if err := r.store.TransitionPaymentInstruction(ctx, instruction.ID, instruction.Status, models.InstructionStatusReturned); err != nil {
		return fmt.Errorf("transition instruction to returned: %w", err)
	}
	r.metrics.ObserveInstructionTransition(string(fromStatus), string(models.InstructionStatusReturned))

	ev := models.NewDomainEvent(models.EventPaymentReturned, models.CategoryPayment, record.TenantID, instruction.CorrelationID, map[string]any{
		"instruction_id":      instruction.ID.String(),
		"settlement_event_id": record.ID.String(),
		"return_code":         record.ReturnCode,
	})
	if err := r.events.Append(ctx, ev); err != nil {
		r.log.Error("reconciler: failed to append domain event", zap.Error(err))
	}

	if record.ReturnCode != nil && r.liability != nil {
		if _, err := r.liability.Classify(ctx, liability.ClassifyInput{
			TenantID:      record.TenantID,
			Source:        models.LiabilitySourceSettlement,
			SourceID:      record.ID,
			Rail:          record.Rail,
			ReturnCode:    *record.ReturnCode,
			LossAmount:    record.Amount,
			PayeeRef:      instruction.PayeeRef,
			CorrelationID: uuid.New(),
		}); err != nil {
			return fmt.Errorf("classify liability: %w", err)
		}
	}
	return nil
}
