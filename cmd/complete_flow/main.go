package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
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

// This example drives a full prefund-then-payroll flow:
// 1. Stand up a legal entity on the prefund_all funding model
// 2. Fund its client_funding_clearing account from the client's bank
// 3. Commit a payroll batch (Commit Gate)
// 4. Create a net-pay instruction and execute payment (Pay Gate + disbursement)
// 5. Print the account balance after disbursement
//
// Funding and instruction creation here stand in for upstream payroll-run
// and funding-request systems this module doesn't own (spec §1 Non-goals),
// so the demo talks to the ledger engine and orchestrator directly for
// those two steps rather than through the facade, which only exposes the
// six operations of spec §6.

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
	reservations := reservation.New(store, ledgerEngine, events, m, logger)
	orch := orchestrator.New(store, events, fundinggate.New(store, events, m, logger), registry, reservations, m, logger)
	f := facade.New(store, registry, m, logger)

	tenantID := uuid.New()
	legalEntityID := uuid.New()
	if err := store.InsertLegalEntity(ctx, &models.LegalEntity{
		ID:           legalEntityID,
		TenantID:     tenantID,
		Name:         "Acme Staffing Co",
		FundingModel: models.FundingModelPrefundAll,
		Status:       models.LegalEntityStatusActive,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}); err != nil {
		log.Fatal(err)
	}

	fmt.Println("=== Ledgercore - Prefund + Payroll Flow ===")
	fmt.Println()

	batchRef := fmt.Sprintf("batch-%s", uuid.New().String()[:8])
	netPay := decimal.NewFromFloat(48250.00)
	correlationID := uuid.New()

	fmt.Println("Step 1: Funding the client_funding_clearing account")
	fmt.Println("----------------------------------------------------")

	clearing, err := store.GetOrCreateLedgerAccount(ctx, tenantID, legalEntityID, models.AccountClientFundingClearing, "USD")
	if err != nil {
		log.Fatal(err)
	}
	pspClearing, err := store.GetOrCreateLedgerAccount(ctx, tenantID, legalEntityID, models.AccountPSPSettlementClearing, "USD")
	if err != nil {
		log.Fatal(err)
	}

	fundingRequest := &models.FundingRequest{
		ID:                      uuid.New(),
		TenantID:                tenantID,
		LegalEntityID:           legalEntityID,
		FundingModel:            models.FundingModelPrefundAll,
		Rail:                    models.RailWire,
		Amount:                  netPay,
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

	fundingEntry := &models.LedgerEntry{
		ID:             uuid.New(),
		TenantID:       tenantID,
		DebitAccount:   pspClearing.ID,
		CreditAccount:  clearing.ID,
		Amount:         netPay,
		EntryType:      models.EntryTypeFunding,
		SourceType:     models.SourceTypeFundingRequest,
		SourceID:       fundingRequest.ID,
		CorrelationID:  correlationID,
		IdempotencyKey: fmt.Sprintf("fund:%s", batchRef),
	}
	isNew, err := ledgerEngine.PostEntry(ctx, fundingEntry)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("  posted funding entry (is_new=%v): $%s into client_funding_clearing\n\n", isNew, netPay.StringFixed(2))

	fmt.Println("Step 2: Committing the payroll batch")
	fmt.Println("-------------------------------------")

	commitResult, err := f.CommitPayrollBatch(ctx, facade.CommitPayrollBatchInput{
		TenantID:       tenantID,
		LegalEntityID:  legalEntityID,
		BatchRef:       batchRef,
		Currency:       "USD",
		RequiredAmount: netPay,
		Mode:           fundinggate.ModeStrict,
		CorrelationID:  correlationID,
	})
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("  commit gate outcome: %s\n", commitResult.Evaluation.Outcome)
	if commitResult.Reservation != nil {
		fmt.Printf("  commit hold reserved: $%s\n\n", commitResult.Reservation.Amount.StringFixed(2))
	}

	fmt.Println("Step 3: Creating and executing the net-pay instruction")
	fmt.Println("--------------------------------------------------------")

	instruction := models.NewPaymentInstruction(tenantID, legalEntityID, models.PurposeNetPay, models.DirectionCredit, netPay, fmt.Sprintf("instr:%s", batchRef))
	instruction.Currency = "USD"
	instruction.PayeeType = models.PayeeTypeEmployee
	instruction.PayeeRef = "employee-group-001"
	instruction.RequestedSettlementDate = time.Now().Add(48 * time.Hour)
	instruction.SourceType = models.SourceTypeFundingRequest
	instruction.SourceID = commitResult.Reservation.ID
	instruction.CorrelationID = correlationID

	if _, err := orch.CreateInstruction(ctx, instruction); err != nil {
		log.Fatal(err)
	}

	results, err := f.ExecutePayments(ctx, facade.ExecutePaymentsInput{
		TenantID:       tenantID,
		LegalEntityID:  legalEntityID,
		BatchRef:       batchRef,
		Currency:       "USD",
		RequiredAmount: netPay,
		InstructionIDs: []uuid.UUID{instruction.ID},
		CorrelationID:  correlationID,
	})
	if err != nil {
		log.Fatal(err)
	}
	for _, r := range results {
		if r.Err != nil {
			fmt.Printf("  instruction %s failed to submit: %v\n", r.InstructionID, r.Err)
			continue
		}
		fmt.Printf("  instruction %s submitted via %s, attempt status=%s\n\n", r.InstructionID, r.Attempt.Provider, r.Attempt.Status)
	}

	fmt.Println("Step 4: Balance after disbursement")
	fmt.Println("-----------------------------------")

	balance, err := f.GetBalance(ctx, clearing.ID)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("  posted:    $%s\n", balance.Posted.StringFixed(2))
	fmt.Printf("  reserved:  $%s\n", balance.Reserved.StringFixed(2))
	fmt.Printf("  available: $%s\n\n", balance.Available.StringFixed(2))

	fmt.Println("=== Flow Complete ===")
}
