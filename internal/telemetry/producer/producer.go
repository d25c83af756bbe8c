// Package producer publishes attestation events to Kafka for downstream
// consumers (the Loki indexing worker).
package producer

import (
	"context"

	"attest-ledger/internal/telemetry/domain"
)

// Producer is a best-effort event sink; callers log and drop errors.
type Producer interface {
	Emit(ctx context.Context, event *domain.Event) error
	// Close releases the underlying writer. Safe to call twice.
	Close() error
}
