package storage

import (
	"context"
	"fmt"

	"github.com/brightpay/ledgercore/src/models"
)

// defaultReturnCodes is the seeded (rail, code) -> liability-default mapping
// shipped with every fresh database, per spec §6. Callers may add escalation
// overrides on top of these through the Liability Attributor; this table
// itself is never mutated at runtime.
var defaultReturnCodes = []models.ReturnCodeReference{
	{Rail: models.RailACH, Code: "R01", DefaultErrorOrigin: models.ErrorOriginRecipient, DefaultParty: models.LiabilityPartyEmployer, IsRecoverable: true, Description: "Insufficient Funds"},
	{Rail: models.RailACH, Code: "R02", DefaultErrorOrigin: models.ErrorOriginRecipient, DefaultParty: models.LiabilityPartyPSP, IsRecoverable: false, Description: "Account Closed"},
	{Rail: models.RailACH, Code: "R03", DefaultErrorOrigin: models.ErrorOriginRecipient, DefaultParty: models.LiabilityPartyEmployer, IsRecoverable: false, Description: "No Account/Unable to Locate Account"},
	{Rail: models.RailACH, Code: "R04", DefaultErrorOrigin: models.ErrorOriginRecipient, DefaultParty: models.LiabilityPartyEmployer, IsRecoverable: false, Description: "Invalid Account Number"},
	{Rail: models.RailACH, Code: "R05", DefaultErrorOrigin: models.ErrorOriginBank, DefaultParty: models.LiabilityPartyPSP, IsRecoverable: false, Description: "Unauthorized Debit to Consumer Account"},
	{Rail: models.RailACH, Code: "R06", DefaultErrorOrigin: models.ErrorOriginPSP, DefaultParty: models.LiabilityPartyPSP, IsRecoverable: false, Description: "Returned per ODFI's Request"},
	{Rail: models.RailACH, Code: "R07", DefaultErrorOrigin: models.ErrorOriginRecipient, DefaultParty: models.LiabilityPartyEmployer, IsRecoverable: false, Description: "Authorization Revoked by Customer"},
	{Rail: models.RailACH, Code: "R08", DefaultErrorOrigin: models.ErrorOriginRecipient, DefaultParty: models.LiabilityPartyEmployer, IsRecoverable: false, Description: "Payment Stopped"},
	{Rail: models.RailACH, Code: "R09", DefaultErrorOrigin: models.ErrorOriginSender, DefaultParty: models.LiabilityPartyEmployer, IsRecoverable: true, Description: "Uncollected Funds"},
	{Rail: models.RailACH, Code: "R10", DefaultErrorOrigin: models.ErrorOriginRecipient, DefaultParty: models.LiabilityPartyEmployer, IsRecoverable: false, Description: "Customer Advises Not Authorized"},
	{Rail: models.RailACH, Code: "R16", DefaultErrorOrigin: models.ErrorOriginBank, DefaultParty: models.LiabilityPartyPSP, IsRecoverable: false, Description: "Account Frozen"},
	{Rail: models.RailACH, Code: "R20", DefaultErrorOrigin: models.ErrorOriginRecipient, DefaultParty: models.LiabilityPartyEmployer, IsRecoverable: false, Description: "Non-Transaction Account"},
	{Rail: models.RailACH, Code: "R29", DefaultErrorOrigin: models.ErrorOriginRecipient, DefaultParty: models.LiabilityPartyEmployer, IsRecoverable: false, Description: "Corporate Customer Advises Not Authorized"},
	{Rail: models.RailFedNow, Code: "AC01", DefaultErrorOrigin: models.ErrorOriginRecipient, DefaultParty: models.LiabilityPartyEmployer, IsRecoverable: false, Description: "Incorrect account number"},
	{Rail: models.RailFedNow, Code: "AC04", DefaultErrorOrigin: models.ErrorOriginRecipient, DefaultParty: models.LiabilityPartyPSP, IsRecoverable: false, Description: "Account closed"},
	{Rail: models.RailFedNow, Code: "AC06", DefaultErrorOrigin: models.ErrorOriginBank, DefaultParty: models.LiabilityPartyPSP, IsRecoverable: false, Description: "Account blocked"},
	{Rail: models.RailFedNow, Code: "AM02", DefaultErrorOrigin: models.ErrorOriginPSP, DefaultParty: models.LiabilityPartyPSP, IsRecoverable: false, Description: "Amount exceeds limit"},
	{Rail: models.RailFedNow, Code: "AM04", DefaultErrorOrigin: models.ErrorOriginSender, DefaultParty: models.LiabilityPartyEmployer, IsRecoverable: true, Description: "Insufficient funds"},
	{Rail: models.RailFedNow, Code: "BE04", DefaultErrorOrigin: models.ErrorOriginRecipient, DefaultParty: models.LiabilityPartyEmployer, IsRecoverable: false, Description: "Missing/invalid creditor address"},
	{Rail: models.RailFedNow, Code: "RJCT", DefaultErrorOrigin: models.ErrorOriginUnknown, DefaultParty: models.LiabilityPartyPending, IsRecoverable: false, Description: "Generic rejection"},
}

func (s *Store) seedReturnCodes(ctx context.Context) error {
	for _, r := range defaultReturnCodes {
		_, err := s.pool.Exec(ctx, `
			INSERT INTO return_code_reference (rail, code, default_error_origin, default_party, is_recoverable, description)
			VALUES ($1,$2,$3,$4,$5,$6)
			ON CONFLICT (rail, code) DO NOTHING`,
			r.Rail, r.Code, r.DefaultErrorOrigin, r.DefaultParty, r.IsRecoverable, r.Description)
		if err != nil {
			return fmt.Errorf("seeding %s/%s: %w", r.Rail, r.Code, err)
		}
	}
	return nil
}
