// Package liability maps return codes to (origin, responsible party,
// recovery path) and records the determination as an append-only event. It
// never edits or reopens a prior LiabilityEvent; an escalation is recorded
// as a new row layered on top (spec §4.I).
package liability

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/brightpay/ledgercore/src/eventlog"
	"github.com/brightpay/ledgercore/src/metrics"
	"github.com/brightpay/ledgercore/src/models"
	"github.com/brightpay/ledgercore/src/storage"
)

// repeatWindow is the rolling lookback the R01-repeat escalation checks
// (spec §4.I, decided Open Question: "repeated R01 for the same employer
// payee_ref within a rolling 30-day window escalates recovery_path from
// offset_future to manual_collection").
const repeatWindow = 30 * 24 * time.Hour

// escalationThreshold is how many prior R01 events against the same payee
// within the window trigger the override on this one.
const escalationThreshold = 1

// Attributor classifies returns and records liability determinations.
type Attributor struct {
	store   *storage.Store
	events  *eventlog.Log
	metrics *metrics.Metrics
	log     *zap.Logger
}

// New constructs a liability attributor. m may be nil.
func New(store *storage.Store, events *eventlog.Log, m *metrics.Metrics, logger *zap.Logger) *Attributor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Attributor{store: store, events: events, metrics: m, log: logger}
}

// ClassifyInput carries everything Classify needs to determine and record a
// liability event for one returned/failed money movement.
type ClassifyInput struct {
	TenantID      uuid.UUID
	Source        models.LiabilitySource
	SourceID      uuid.UUID
	Rail          models.Rail
	ReturnCode    string
	LossAmount    decimal.Decimal
	PayeeRef      string
	CorrelationID uuid.UUID
}

// Classify looks up the seeded default for (rail, return_code), applies the
// repeat-R01 escalation override, and appends the resulting LiabilityEvent.
// Idempotent on (tenant, idempotency_key): retried classification of the
// same source returns the existing determination rather than duplicating it.
func (a *Attributor) Classify(ctx context.Context, in ClassifyInput) (*models.LiabilityEvent, error) {
	idempotencyKey := fmt.Sprintf("liability:%s:%s", in.Source, in.SourceID)

	ref, err := a.store.GetReturnCodeReference(ctx, in.Rail, in.ReturnCode)
	unknown := false
	if err != nil {
		if err != storage.ErrNotFound {
			return nil, fmt.Errorf("liability: lookup return code: %w", err)
		}
		if fallback, ok := defaultClassification(in.Rail, in.ReturnCode); ok {
			ref = &fallback
		} else {
			unknown = true
		}
	}

	event := &models.LiabilityEvent{
		ID:                  uuid.New(),
		TenantID:            in.TenantID,
		Source:              in.Source,
		SourceID:            in.SourceID,
		LossAmount:          in.LossAmount,
		IdempotencyKey:      idempotencyKey,
		CorrelationID:       in.CorrelationID,
		RecoveryStatus:      models.RecoveryStatusOpen,
		DeterminationReason: fmt.Sprintf("%s return code %s", in.Rail, in.ReturnCode),
		Evidence: map[string]any{
			"rail":        string(in.Rail),
			"return_code": in.ReturnCode,
			"payee_ref":   in.PayeeRef,
		},
		CreatedAt: time.Now(),
	}

	if unknown {
		event.ErrorOrigin = models.ErrorOriginUnknown
		event.LiabilityParty = models.LiabilityPartyPending
		event.RecoveryPath = models.RecoveryPathNone
		event.RequiresManualReview = true
		event.DeterminationReason = fmt.Sprintf("unrecognized return code %s on rail %s", in.ReturnCode, in.Rail)
	} else {
		event.ErrorOrigin = ref.DefaultErrorOrigin
		event.LiabilityParty = ref.DefaultParty
		event.RecoveryPath = models.RecoveryPathNone
		if ref.IsRecoverable {
			event.RecoveryPath = models.RecoveryPathOffsetFuture
		}

		if err := a.applyRepeatR01Escalation(ctx, in, event); err != nil {
			return nil, err
		}
	}

	isNew, err := a.store.InsertLiabilityEvent(ctx, event)
	if err != nil {
		return nil, fmt.Errorf("liability: insert event: %w", err)
	}
	if !isNew {
		return event, nil
	}

	a.metrics.ObserveLiabilityClassified(string(event.ErrorOrigin), string(event.LiabilityParty))

	ev := models.NewDomainEvent(models.EventLiabilityClassified, models.CategoryLiability, event.TenantID, event.CorrelationID, map[string]any{
		"liability_event_id": event.ID.String(),
		"source":             string(event.Source),
		"source_id":          event.SourceID.String(),
		"error_origin":       string(event.ErrorOrigin),
		"liability_party":    string(event.LiabilityParty),
		"recovery_path":      string(event.RecoveryPath),
	})
	if err := a.events.Append(ctx, ev); err != nil {
		a.log.Error("liability: failed to append domain event", zap.Error(err))
	}

	return event, nil
}

// applyRepeatR01Escalation overrides recovery_path to manual_collection when
// this is at least the second R01 against the same payee within the rolling
// window. It never edits a prior event, only shapes the one being appended.
func (a *Attributor) applyRepeatR01Escalation(ctx context.Context, in ClassifyInput, event *models.LiabilityEvent) error {
	if in.ReturnCode != string(models.ACHReturnR01) || in.PayeeRef == "" {
		return nil
	}

	prior, err := a.store.ListLiabilityEventsByPayeeSince(ctx, in.TenantID, in.PayeeRef, time.Now().Add(-repeatWindow))
	if err != nil {
		return fmt.Errorf("liability: check repeat window: %w", err)
	}

	repeatCount := 0
	for _, p := range prior {
		if p.Evidence["return_code"] == string(models.ACHReturnR01) {
			repeatCount++
		}
	}
	if repeatCount > escalationThreshold-1 {
		event.RecoveryPath = models.RecoveryPathManualCollection
		event.DeterminationReason += fmt.Sprintf(" (escalated: %d prior R01 against this payee within 30 days)", repeatCount)
	}
	return nil
}
