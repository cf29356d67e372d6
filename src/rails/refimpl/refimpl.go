// Package refimpl provides in-memory Provider implementations used for
// local development, demos, and tests. These are deliberately NOT
// production bank or processor integrations — wire protocols for real
// rails are out of scope for this module (spec §1 Non-goals: "bank adapter
// wire protocols"). Each type here simulates one rail's shape closely
// enough to exercise the orchestrator and reconciler end to end.
package refimpl

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/brightpay/ledgercore/src/models"
	"github.com/brightpay/ledgercore/src/rails"
)

// Provider is a single in-memory rail simulator. It tracks submitted
// requests by idempotency key so repeated Submit calls for the same key
// return the original result rather than creating a second attempt.
type Provider struct {
	name         string
	rail         models.Rail
	mu           sync.Mutex
	submissions  map[string]rails.SubmitResult
	autoAccept   bool
}

// New constructs a reference provider for a single rail. autoAccept
// controls whether Submit immediately returns status=accepted (useful for
// happy-path demos) or status=submitted, requiring a later Reconcile/
// webhook to advance it.
func New(name string, rail models.Rail, autoAccept bool) *Provider {
	return &Provider{
		name:        name,
		rail:        rail,
		submissions: make(map[string]rails.SubmitResult),
		autoAccept:  autoAccept,
	}
}

func (p *Provider) Name() string { return p.name }

func (p *Provider) Capabilities() rails.Capabilities {
	return rails.Capabilities{
		SupportedRails: []models.Rail{p.rail},
		CutoffTimes:    map[models.Rail]time.Duration{p.rail: 17 * time.Hour},
		SettlementTimeline: map[models.Rail]time.Duration{
			p.rail: settlementTimelineFor(p.rail),
		},
		MaxPerTxn:      map[models.Rail]string{p.rail: maxPerTxnFor(p.rail)},
		SupportsCancel: p.rail != models.RailCheck,
		SupportsBatch:  true,
	}
}

func settlementTimelineFor(rail models.Rail) time.Duration {
	switch rail {
	case models.RailRTP, models.RailFedNow:
		return 0
	case models.RailWire:
		return 24 * time.Hour
	case models.RailACH:
		return 48 * time.Hour
	default:
		return 72 * time.Hour
	}
}

// maxPerTxnFor mirrors the per-transaction ceilings real rail operators
// publish: instant rails cap low, wire caps high, ACH sits in between, and
// check (the default case) caps lowest of all.
func maxPerTxnFor(rail models.Rail) string {
	switch rail {
	case models.RailRTP, models.RailFedNow:
		return "100000.00"
	case models.RailWire:
		return "1000000.00"
	case models.RailACH:
		return "250000.00"
	default:
		return "10000.00"
	}
}

func (p *Provider) Submit(ctx context.Context, instruction *models.PaymentInstruction, idempotencyKey string) (rails.SubmitResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if existing, ok := p.submissions[idempotencyKey]; ok {
		return existing, nil
	}

	requestID, err := randomRequestID(p.name)
	if err != nil {
		return rails.SubmitResult{}, fmt.Errorf("refimpl: generate request id: %w", err)
	}

	status := models.AttemptStatusSubmitted
	if p.autoAccept {
		status = models.AttemptStatusAccepted
	}
	result := rails.SubmitResult{ProviderRequestID: requestID, Status: status, Retryable: false}
	p.submissions[idempotencyKey] = result
	return result, nil
}

func (p *Provider) GetStatus(ctx context.Context, providerRequestID string) (models.AttemptStatus, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, r := range p.submissions {
		if r.ProviderRequestID == providerRequestID {
			return r.Status, nil
		}
	}
	return "", fmt.Errorf("refimpl: unknown provider_request_id %q", providerRequestID)
}

func (p *Provider) Cancel(ctx context.Context, providerRequestID string) (bool, error) {
	caps := p.Capabilities()
	if !caps.SupportsCancel {
		return false, nil
	}
	return true, nil
}

// Reconcile returns no records by default; demos drive settlement directly
// through the reconciler's Ingest rather than this pull path.
func (p *Provider) Reconcile(ctx context.Context, date time.Time) ([]models.SettlementEvent, error) {
	return nil, nil
}

// ParseWebhook decodes a JSON body into a SettlementEvent. Real providers
// sign their webhooks; this reference implementation treats a missing or
// mismatched X-Signature header as a distinct verification failure rather
// than a parse error, mirroring spec §4.F's requirement that the two be
// distinguishable.
func (p *Provider) ParseWebhook(ctx context.Context, body []byte, headers map[string]string) (*models.SettlementEvent, error) {
	if headers["X-Signature"] == "" {
		return nil, ErrSignatureVerificationFailed
	}
	var event models.SettlementEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, fmt.Errorf("refimpl: parse webhook body: %w", err)
	}
	return &event, nil
}

// ErrSignatureVerificationFailed is returned by ParseWebhook when the
// inbound request lacks (or fails) signature verification, kept distinct
// from a JSON decode error per spec §4.F.
var ErrSignatureVerificationFailed = fmt.Errorf("refimpl: webhook signature verification failed")

func randomRequestID(prefix string) (string, error) {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%s", prefix, hex.EncodeToString(buf)), nil
}
