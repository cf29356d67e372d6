package liability

import "github.com/brightpay/ledgercore/src/models"

// defaultReturnCodes mirrors storage.Store.Migrate's seeded
// return_code_reference rows as a pure Go literal, so Classify can fall back
// to an in-process default even before a lookup round-trips to Postgres
// (spec §4.I seed data, supplemented per SPEC_FULL §4).
var defaultReturnCodes = map[returnCodeKey]models.ReturnCodeReference{
	{models.RailACH, "R01"}:  {Rail: models.RailACH, Code: "R01", DefaultErrorOrigin: models.ErrorOriginRecipient, DefaultParty: models.LiabilityPartyEmployer, IsRecoverable: true, Description: "Insufficient Funds"},
	{models.RailACH, "R02"}:  {Rail: models.RailACH, Code: "R02", DefaultErrorOrigin: models.ErrorOriginRecipient, DefaultParty: models.LiabilityPartyPSP, IsRecoverable: false, Description: "Account Closed"},
	{models.RailACH, "R03"}:  {Rail: models.RailACH, Code: "R03", DefaultErrorOrigin: models.ErrorOriginRecipient, DefaultParty: models.LiabilityPartyEmployer, IsRecoverable: false, Description: "No Account/Unable to Locate Account"},
	{models.RailACH, "R04"}:  {Rail: models.RailACH, Code: "R04", DefaultErrorOrigin: models.ErrorOriginRecipient, DefaultParty: models.LiabilityPartyEmployer, IsRecoverable: false, Description: "Invalid Account Number"},
	{models.RailACH, "R05"}:  {Rail: models.RailACH, Code: "R05", DefaultErrorOrigin: models.ErrorOriginBank, DefaultParty: models.LiabilityPartyPSP, IsRecoverable: false, Description: "Unauthorized Debit to Consumer Account"},
	{models.RailACH, "R06"}:  {Rail: models.RailACH, Code: "R06", DefaultErrorOrigin: models.ErrorOriginPSP, DefaultParty: models.LiabilityPartyPSP, IsRecoverable: false, Description: "Returned per ODFI's Request"},
	{models.RailACH, "R07"}:  {Rail: models.RailACH, Code: "R07", DefaultErrorOrigin: models.ErrorOriginRecipient, DefaultParty: models.LiabilityPartyEmployer, IsRecoverable: false, Description: "Authorization Revoked by Customer"},
	{models.RailACH, "R08"}:  {Rail: models.RailACH, Code: "R08", DefaultErrorOrigin: models.ErrorOriginRecipient, DefaultParty: models.LiabilityPartyEmployer, IsRecoverable: false, Description: "Payment Stopped"},
	{models.RailACH, "R09"}:  {Rail: models.RailACH, Code: "R09", DefaultErrorOrigin: models.ErrorOriginSender, DefaultParty: models.LiabilityPartyEmployer, IsRecoverable: true, Description: "Uncollected Funds"},
	{models.RailACH, "R10"}:  {Rail: models.RailACH, Code: "R10", DefaultErrorOrigin: models.ErrorOriginRecipient, DefaultParty: models.LiabilityPartyEmployer, IsRecoverable: false, Description: "Customer Advises Not Authorized"},
	{models.RailACH, "R16"}:  {Rail: models.RailACH, Code: "R16", DefaultErrorOrigin: models.ErrorOriginBank, DefaultParty: models.LiabilityPartyPSP, IsRecoverable: false, Description: "Account Frozen"},
	{models.RailACH, "R20"}:  {Rail: models.RailACH, Code: "R20", DefaultErrorOrigin: models.ErrorOriginRecipient, DefaultParty: models.LiabilityPartyEmployer, IsRecoverable: false, Description: "Non-Transaction Account"},
	{models.RailACH, "R29"}:  {Rail: models.RailACH, Code: "R29", DefaultErrorOrigin: models.ErrorOriginRecipient, DefaultParty: models.LiabilityPartyEmployer, IsRecoverable: false, Description: "Corporate Customer Advises Not Authorized"},
	{models.RailFedNow, "AC01"}: {Rail: models.RailFedNow, Code: "AC01", DefaultErrorOrigin: models.ErrorOriginRecipient, DefaultParty: models.LiabilityPartyEmployer, IsRecoverable: false, Description: "Incorrect account number"},
	{models.RailFedNow, "AC04"}: {Rail: models.RailFedNow, Code: "AC04", DefaultErrorOrigin: models.ErrorOriginRecipient, DefaultParty: models.LiabilityPartyPSP, IsRecoverable: false, Description: "Account closed"},
	{models.RailFedNow, "AC06"}: {Rail: models.RailFedNow, Code: "AC06", DefaultErrorOrigin: models.ErrorOriginBank, DefaultParty: models.LiabilityPartyPSP, IsRecoverable: false, Description: "Account blocked"},
	{models.RailFedNow, "AM02"}: {Rail: models.RailFedNow, Code: "AM02", DefaultErrorOrigin: models.ErrorOriginPSP, DefaultParty: models.LiabilityPartyPSP, IsRecoverable: false, Description: "Amount exceeds limit"},
	{models.RailFedNow, "AM04"}: {Rail: models.RailFedNow, Code: "AM04", DefaultErrorOrigin: models.ErrorOriginSender, DefaultParty: models.LiabilityPartyEmployer, IsRecoverable: true, Description: "Insufficient funds"},
	{models.RailFedNow, "BE04"}: {Rail: models.RailFedNow, Code: "BE04", DefaultErrorOrigin: models.ErrorOriginRecipient, DefaultParty: models.LiabilityPartyEmployer, IsRecoverable: false, Description: "Missing/invalid creditor address"},
	{models.RailFedNow, "RJCT"}: {Rail: models.RailFedNow, Code: "RJCT", DefaultErrorOrigin: models.ErrorOriginUnknown, DefaultParty: models.LiabilityPartyPending, IsRecoverable: false, Description: "Generic rejection"},
}

type returnCodeKey struct {
	rail models.Rail
	code string
}

// defaultClassification returns the in-process fallback for a (rail, code)
// pair, used only if the storage-backed lookup misses (e.g. a code added to
// a rail's return set after this binary was built).
func defaultClassification(rail models.Rail, code string) (models.ReturnCodeReference, bool) {
	ref, ok := defaultReturnCodes[returnCodeKey{rail, code}]
	return ref, ok
}
