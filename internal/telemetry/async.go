package telemetry

import (
	"context"
	"log"
	"time"

	"attest-ledger/internal/telemetry/domain"
)

// emitTimeout bounds a single background emit.
const emitTimeout = 5 * time.Second

// ShutdownDrainDuration is how long shutdown waits after the HTTP server
// stops so in-flight background emits can finish. Must be >= emitTimeout.
const ShutdownDrainDuration = emitTimeout

// EmitAsync emits the event on a goroutine so the ledger write path never
// blocks on telemetry. The goroutine runs on a fresh context with emitTimeout,
// detached from the request, so cancellation of the request does not abort an
// emit already in flight. Failures are logged and dropped.
//
// A nil emitter or event is a no-op.
func EmitAsync(emitter EventEmitter, ctx context.Context, event *domain.Event) {
	if emitter == nil || event == nil {
		return
	}
	go func() {
		emitCtx, cancel := context.WithTimeout(context.Background(), emitTimeout)
		defer cancel()
		if err := emitter.Emit(emitCtx, event); err != nil {
			log.Printf("telemetry: async emit failed: %v", err)
		}
	}()
}
