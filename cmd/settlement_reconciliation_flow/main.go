package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/brightpay/ledgercore/src/eventlog"
	"github.com/brightpay/ledgercore/src/facade"
	"github.com/brightpay/ledgercore/src/fundinggate"
	"github.com/brightpay/ledgercore/src/ledger"
	"github.com/brightpay/ledgercore/src/metrics"
	"github.com/brightpay/ledgercore/src/models"
	"github.com/brightpay/ledgercore/src/orchestrator"
	"github.com/brightpay/ledgercore/src/rails"
	"github.com/brightpay/ledgercore/src/rails/refimpl"
	"github.com/brightpay/ledgercore/src/reservation"
	"github.com/brightpay/ledgercore/src/storage"
)

// This example drives two net-pay instructions through disbursement and
// settlement, one of each outcome spec §4.H distinguishes:
//  1. A settlement feed record that exact-matches by provider_request_id
//     and settles cleanly.
//  2. A settlement feed record reporting an ACH R01 return on an instruction
//     that never settled, landing on the orchestrator's accepted -> returned
//     edge and triggering liability attribution.
// It finishes by replaying the tenant's full domain event log.

func main() {
	ctx := context.Background()

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	pool, err := pgxpool.New(ctx, "postgres://localhost/ledgercore?sslmode=disable")
	if err != nil {
		log.Fatal(err)
	}
	defer pool.Close()

	store := storage.New(pool, logger)
	if err := store.Migrate(ctx); err != nil {
		log.Fatal(err)
	}

	registry := rails.NewRegistry()
	registry.Register(refimpl.New("reference-ach", models.RailACH, true))

	m := metrics.New()
	events := eventlog.New(store, logger)
	ledgerEngine := ledger.New(store, events, m, logger)
	gate := fundinggate.New(store, events, m, logger)
	reservations := reservation.New(store, ledgerEngine, events, m, logger)
	orch := orchestrator.New(store, events, gate, registry, reservations, m, logger)
	f := facade.New(store, registry, m, logger)

	tenantID := uuid.New()
	legalEntityID := uuid.New()
	if err := store.InsertLegalEntity(ctx, &models.LegalEntity{
		ID:           legalEntityID,
		TenantID:     tenantID,
		Name:         "Beacon Hospitality Group",
		FundingModel: models.FundingModelPrefundAll,
		Status:       models.LegalEntityStatusActive,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}); err != nil {
		log.Fatal(err)
	}

	fmt.Println("=== Ledgercore - Settlement Reconciliation Flow ===")
	fmt.Println()

	batchRef := fmt.Sprintf("batch-%s", uuid.New().String()[:8])
	perInstruction := decimal.NewFromFloat(2150.00)
	total := perInstruction.Mul(decimal.NewFromInt(2))
	correlationID := uuid.New()

	clearing, err := store.GetOrCreateLedgerAccount(ctx, tenantID, legalEntityID, models.AccountClientFundingClearing, "USD")
	if err != nil {
		log.Fatal(err)
	}
	pspClearing, err := store.GetOrCreateLedgerAccount(ctx, tenantID, legalEntityID, models.AccountPSPSettlementClearing, "USD")
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println("Step 1: Funding and committing")
	fmt.Println("-------------------------------")

	fundingRequest := &models.FundingRequest{
		ID:                      uuid.New(),
		TenantID:                tenantID,
		LegalEntityID:           legalEntityID,
		FundingModel:            models.FundingModelPrefundAll,
		Rail:                    models.RailWire,
		Amount:                  total,
		RequestedSettlementDate: time.Now(),
		Status:                  models.FundingRequestStatusCreated,
		IdempotencyKey:          fmt.Sprintf("fund:%s", batchRef),
		CreatedAt:               time.Now(),
		UpdatedAt:               time.Now(),
	}
	if _, err := store.InsertFundingRequest(ctx, fundingRequest); err != nil {
		log.Fatal(err)
	}
	for _, next := range []models.FundingRequestStatus{
		models.FundingRequestStatusSubmitted,
		models.FundingRequestStatusAccepted,
		models.FundingRequestStatusSettled,
	} {
		if err := store.TransitionFundingRequest(ctx, fundingRequest.ID, fundingRequest.Status, next); err != nil {
			log.Fatal(err)
		}
		fundingRequest.Status = next
	}

	if _, err := ledgerEngine.PostEntry(ctx, &models.LedgerEntry{
		ID:             uuid.New(),
		TenantID:       tenantID,
		DebitAccount:   pspClearing.ID,
		CreditAccount:  clearing.ID,
		Amount:         total,
		EntryType:      models.EntryTypeFunding,
		SourceType:     models.SourceTypeFundingRequest,
		SourceID:       fundingRequest.ID,
		CorrelationID:  correlationID,
		IdempotencyKey: fmt.Sprintf("fund:%s", batchRef),
	}); err != nil {
		log.Fatal(err)
	}

	commitResult, err := f.CommitPayrollBatch(ctx, facade.CommitPayrollBatchInput{
		TenantID:       tenantID,
		LegalEntityID:  legalEntityID,
		BatchRef:       batchRef,
		Currency:       "USD",
		RequiredAmount: total,
		Mode:           fundinggate.ModeStrict,
		CorrelationID:  correlationID,
	})
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("  commit gate outcome: %s\n\n", commitResult.Evaluation.Outcome)

	good := models.NewPaymentInstruction(tenantID, legalEntityID, models.PurposeNetPay, models.DirectionCredit, perInstruction, fmt.Sprintf("instr-good:%s", batchRef))
	good.Currency = "USD"
	good.PayeeType = models.PayeeTypeEmployee
	good.PayeeRef = "employee-anna-liu"
	good.RequestedSettlementDate = time.Now().Add(48 * time.Hour)
	good.SourceType = models.SourceTypeFundingRequest
	good.SourceID = commitResult.Reservation.ID
	good.CorrelationID = correlationID

	returned := models.NewPaymentInstruction(tenantID, legalEntityID, models.PurposeNetPay, models.DirectionCredit, perInstruction, fmt.Sprintf("instr-returned:%s", batchRef))
	returned.Currency = "USD"
	returned.PayeeType = models.PayeeTypeEmployee
	returned.PayeeRef = "employee-marcus-webb"
	returned.RequestedSettlementDate = time.Now().Add(48 * time.Hour)
	returned.SourceType = models.SourceTypeFundingRequest
	returned.SourceID = commitResult.Reservation.ID
	returned.CorrelationID = correlationID

	for _, in := range []*models.PaymentInstruction{good, returned} {
		if _, err := orch.CreateInstruction(ctx, in); err != nil {
			log.Fatal(err)
		}
	}

	fmt.Println("Step 2: Executing both instructions")
	fmt.Println("------------------------------------")

	results, err := f.ExecutePayments(ctx, facade.ExecutePaymentsInput{
		TenantID:       tenantID,
		LegalEntityID:  legalEntityID,
		BatchRef:       batchRef,
		Currency:       "USD",
		RequiredAmount: total,
		InstructionIDs: []uuid.UUID{good.ID, returned.ID},
		CorrelationID:  correlationID,
	})
	if err != nil {
		log.Fatal(err)
	}
	attemptFor := map[uuid.UUID]*models.PaymentAttempt{}
	for _, r := range results {
		if r.Err != nil {
			log.Fatalf("instruction %s failed to submit: %v", r.InstructionID, r.Err)
		}
		attemptFor[r.InstructionID] = r.Attempt
		fmt.Printf("  instruction %s submitted, attempt status=%s\n", r.InstructionID, r.Attempt.Status)
	}
	fmt.Println()

	fmt.Println("Step 3: Ingesting the settlement feed")
	fmt.Println("---------------------------------------")

	goodAttempt := attemptFor[good.ID]
	goodProvider := goodAttempt.Provider
	settledRecord := &models.SettlementEvent{
		ID:                uuid.New(),
		TenantID:          tenantID,
		BankAccountID:     uuid.New(),
		Rail:              models.RailACH,
		Direction:         models.DirectionCredit,
		Amount:            perInstruction,
		Status:            models.SettlementStatusSettled,
		ExternalTraceID:   fmt.Sprintf("trace-%s", uuid.New().String()[:8]),
		ProviderRequestID: &goodAttempt.ProviderRequestID,
		Provider:          &goodProvider,
		PayeeRef:          good.PayeeRef,
		EffectiveDate:     time.Now(),
	}

	returnedAttempt := attemptFor[returned.ID]
	returnedProvider := returnedAttempt.Provider
	returnCode := string(models.ACHReturnR01)
	returnReason := "Insufficient Funds"
	returnedRecord := &models.SettlementEvent{
		ID:                uuid.New(),
		TenantID:          tenantID,
		BankAccountID:     uuid.New(),
		Rail:              models.RailACH,
		Direction:         models.DirectionCredit,
		Amount:            perInstruction,
		Status:            models.SettlementStatusReturned,
		ExternalTraceID:   fmt.Sprintf("trace-%s", uuid.New().String()[:8]),
		ProviderRequestID: &returnedAttempt.ProviderRequestID,
		Provider:          &returnedProvider,
		ReturnCode:        &returnCode,
		ReturnReason:      &returnReason,
		PayeeRef:          returned.PayeeRef,
		EffectiveDate:     time.Now(),
	}

	ingestResults, err := f.IngestSettlementFeed(ctx, []*models.SettlementEvent{settledRecord, returnedRecord})
	if err != nil {
		log.Fatal(err)
	}
	for _, r := range ingestResults {
		fmt.Printf("  settlement %s: matched=%v is_new=%v\n", r.Event.ExternalTraceID, r.Matched, r.IsNew)
	}
	fmt.Println()

	fmt.Println("Step 4: Final balance and replayed event log")
	fmt.Println("-----------------------------------------------")

	balance, err := f.GetBalance(ctx, clearing.ID)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("  posted:    $%s\n", balance.Posted.StringFixed(2))
	fmt.Printf("  reserved:  $%s\n", balance.Reserved.StringFixed(2))
	fmt.Printf("  available: $%s\n\n", balance.Available.StringFixed(2))

	replayed, err := f.ReplayEvents(ctx, tenantID, ulid.ULID{}, 100)
	if err != nil {
		log.Fatal(err)
	}
	for _, ev := range replayed {
		fmt.Printf("  [%s] %s\n", ev.EventType, ev.EventID)
	}

	fmt.Println()
	fmt.Println("=== Flow Complete ===")
}
