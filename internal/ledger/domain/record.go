package domain

import (
	"time"

	"attest-ledger/internal/commitment"
)

// Record is one append-only attestation entry. Records are created once by a
// single store operation and never mutated or deleted; there is no update or
// revoke. Commitment and AuditID are each globally unique.
type Record struct {
	// Index is the record's dense 0-based ordinal position in the ledger.
	Index int64
	// Commitment is the Keccak-256 digest over the uploaded payload envelope.
	Commitment commitment.Digest
	// Locator is the content-addressed pointer to the encrypted payload.
	Locator string
	// AuditID identifies the audit this attestation covers.
	AuditID string
	// Timestamp is when the record was stored.
	Timestamp time.Time
	// Submitter is the normalized wallet address that stored the record.
	Submitter string
}
