package domain

import "time"

// Event types emitted by the attestation pipeline.
const (
	EventAttestationRecorded = "attestation.recorded"
	EventAttestationRejected = "attestation.rejected"
)

// Event is one telemetry event describing a ledger write or rejection.
// Best-effort: emission never blocks or fails the originating request.
type Event struct {
	ID         string    `json:"id"`
	EventType  string    `json:"eventType"`
	AuditID    string    `json:"auditId"`
	Commitment string    `json:"commitment"` // 0x-prefixed hex digest
	Locator    string    `json:"locator"`
	Index      int64     `json:"index"` // ordinal position of the new record
	Submitter  string    `json:"submitter"`
	Source     string    `json:"source"`
	Detail     string    `json:"detail,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}
