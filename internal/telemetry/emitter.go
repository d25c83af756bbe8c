// Package telemetry emits pipeline events to pluggable sinks (OTel logs,
// Kafka). Emission is always best-effort; callers log and ignore errors.
package telemetry

import (
	"context"
	"time"

	"github.com/google/uuid"

	"attest-ledger/internal/telemetry/domain"
)

// EventEmitter emits attestation events (e.g. to OTel Logs or Kafka).
// Best-effort; callers log and ignore errors.
type EventEmitter interface {
	Emit(ctx context.Context, event *domain.Event) error
}

// NewEvent returns an event of the given type with a fresh id and timestamp.
func NewEvent(eventType, source string) *domain.Event {
	return &domain.Event{
		ID:        uuid.NewString(),
		EventType: eventType,
		Source:    source,
		CreatedAt: time.Now().UTC(),
	}
}

// Fanout returns an emitter that forwards each event to every given emitter.
// Nil emitters are skipped; the last non-nil error is returned.
func Fanout(emitters ...EventEmitter) EventEmitter {
	return fanoutEmitter(emitters)
}

type fanoutEmitter []EventEmitter

func (f fanoutEmitter) Emit(ctx context.Context, event *domain.Event) error {
	var lastErr error
	for _, e := range f {
		if e == nil {
			continue
		}
		if err := e.Emit(ctx, event); err != nil {
			lastErr = err
		}
	}
	return lastErr
}
