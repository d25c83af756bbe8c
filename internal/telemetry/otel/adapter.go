package otel

import (
	"context"
	"strconv"
	"time"

	otellog "go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	"attest-ledger/internal/telemetry"
	"attest-ledger/internal/telemetry/domain"
)

// recordLogger is the subset of otellog.Logger the emitter needs. Lets tests capture records.
type recordLogger interface {
	Emit(ctx context.Context, rec otellog.Record)
}

// NewEventEmitter returns an EventEmitter that sends events as OTel log records via the given LoggerProvider.
// If provider is nil, returns a no-op emitter.
func NewEventEmitter(provider *sdklog.LoggerProvider) telemetry.EventEmitter {
	if provider == nil {
		return noopEmitter{}
	}
	return &otelEmitter{logger: provider.Logger("attest-ledger.telemetry")}
}

// NewEventEmitterWithLogger returns an emitter bound to a specific logger.
func NewEventEmitterWithLogger(logger recordLogger) telemetry.EventEmitter {
	if logger == nil {
		return noopEmitter{}
	}
	return &otelEmitter{logger: logger}
}

type noopEmitter struct{}

func (noopEmitter) Emit(context.Context, *domain.Event) error { return nil }

type otelEmitter struct {
	logger recordLogger
}

// Emit converts the pipeline event to an OTel log record and emits it. Best-effort; errors are logged.
func (e *otelEmitter) Emit(ctx context.Context, event *domain.Event) error {
	if event == nil {
		return nil
	}
	rec := otellog.Record{}
	if !event.CreatedAt.IsZero() {
		rec.SetTimestamp(event.CreatedAt)
	}
	if event.Detail != "" {
		rec.SetBody(otellog.StringValue(event.Detail))
	}
	if event.ID != "" {
		rec.AddAttributes(otellog.String("event_id", event.ID))
	}
	if event.EventType != "" {
		rec.AddAttributes(otellog.String("event_type", event.EventType))
	}
	if event.AuditID != "" {
		rec.AddAttributes(otellog.String("audit_id", event.AuditID))
	}
	if event.Commitment != "" {
		rec.AddAttributes(otellog.String("commitment", event.Commitment))
	}
	if event.Locator != "" {
		rec.AddAttributes(otellog.String("locator", event.Locator))
	}
	if event.Index >= 0 {
		rec.AddAttributes(otellog.String("index", strconv.FormatInt(event.Index, 10)))
	}
	if event.Submitter != "" {
		rec.AddAttributes(otellog.String("submitter", event.Submitter))
	}
	if event.Source != "" {
		rec.AddAttributes(otellog.String("source", event.Source))
	}
	if rec.Timestamp().IsZero() {
		rec.SetTimestamp(time.Now().UTC())
	}
	e.logger.Emit(ctx, rec)
	return nil
}
