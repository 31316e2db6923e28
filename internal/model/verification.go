package model

// VerificationOutcome is produced once per registration attempt and decides
// the initial verification state of the account.
type VerificationOutcome struct {
	Verified bool
	Reason   string
	// RawEvidence holds normalized extracted text for audit logs only.
	RawEvidence string
}
