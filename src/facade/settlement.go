package facade

import (
	"context"
	"fmt"

	"github.com/brightpay/ledgercore/src/models"
	"github.com/brightpay/ledgercore/src/reconciler"
)

// IngestSettlementFeed hands a batch of settlement records to the
// reconciler, matching each to a payment attempt and advancing instruction
// state (spec §4.H).
func (f *Facade) IngestSettlementFeed(ctx context.Context, records []*models.SettlementEvent) ([]reconciler.IngestResult, error) {
	return f.reconciler.Ingest(ctx, records)
}

// HandleProviderCallback verifies and parses a single inbound webhook
// through the named provider's adapter, then ingests the resulting
// settlement record exactly as a pulled feed record would be. A webhook
// whose payload carries no settlement information (e.g. a ping) is not an
// error: ParseWebhook returns a nil event and this is a no-op.
func (f *Facade) HandleProviderCallback(ctx context.Context, providerName string, body []byte, headers map[string]string) (*reconciler.IngestResult, error) {
	provider, err := f.registry.Get(providerName)
	if err != nil {
		return nil, fmt.Errorf("facade: resolve provider %s: %w", providerName, err)
	}

	event, err := provider.ParseWebhook(ctx, body, headers)
	if err != nil {
		return nil, fmt.Errorf("facade: parse webhook from %s: %w", providerName, err)
	}
	if event == nil {
		return nil, nil
	}

	results, err := f.reconciler.Ingest(ctx, []*models.SettlementEvent{event})
	if err != nil {
		return nil, err
	}
	return &results[0], nil
}
