package models

// ReturnCodeReference is the seeded (rail, code) -> liability-default mapping
// consulted by the Liability Attributor (spec §4.I, §6).
type ReturnCodeReference struct {
	Rail                Rail
	Code                string
	DefaultErrorOrigin  ErrorOrigin
	DefaultParty        LiabilityParty
	IsRecoverable       bool
	Description         string
}
