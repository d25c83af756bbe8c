package telemetry

import (
	"context"
	"sync"
	"testing"
	"time"

	"attest-ledger/internal/telemetry/domain"
)

// mockEventEmitter implements EventEmitter for tests.
type mockEventEmitter struct {
	mu      sync.Mutex
	events  []*domain.Event
	emitErr error
	delay   time.Duration
}

func (m *mockEventEmitter) Emit(ctx context.Context, event *domain.Event) error {
	if m.delay > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(m.delay):
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return m.emitErr
}

func (m *mockEventEmitter) getEvents() []*domain.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.events
}

func TestEmitAsync_NilEmitter(t *testing.T) {
	event := NewEvent(domain.EventAttestationRecorded, "test")

	// Should not panic
	EmitAsync(nil, context.Background(), event)
}

func TestEmitAsync_NilEvent(t *testing.T) {
	emitter := &mockEventEmitter{}

	// Should not panic
	EmitAsync(emitter, context.Background(), nil)

	time.Sleep(10 * time.Millisecond)

	if events := emitter.getEvents(); len(events) != 0 {
		t.Errorf("expected 0 events, got %d", len(events))
	}
}

func TestEmitAsync_SuccessfulEmit(t *testing.T) {
	emitter := &mockEventEmitter{}
	event := NewEvent(domain.EventAttestationRecorded, "attest-service")
	event.AuditID = "audit_1"
	event.Index = 0

	EmitAsync(emitter, context.Background(), event)

	time.Sleep(100 * time.Millisecond)

	events := emitter.getEvents()
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].AuditID != "audit_1" {
		t.Errorf("event auditId = %q, want %q", events[0].AuditID, "audit_1")
	}
	if events[0].EventType != domain.EventAttestationRecorded {
		t.Errorf("event type = %q, want %q", events[0].EventType, domain.EventAttestationRecorded)
	}
	if events[0].ID == "" {
		t.Error("event id should be populated by NewEvent")
	}
}

func TestEmitAsync_UsesBackgroundContext(t *testing.T) {
	emitter := &mockEventEmitter{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel() // Cancel the request context immediately

	event := NewEvent(domain.EventAttestationRecorded, "test")

	// Should still emit even though request context is cancelled
	EmitAsync(emitter, ctx, event)

	time.Sleep(100 * time.Millisecond)

	if events := emitter.getEvents(); len(events) != 1 {
		t.Errorf("expected 1 event (context.Background used), got %d", len(events))
	}
}

func TestEmitAsync_ErrorHandling(t *testing.T) {
	emitter := &mockEventEmitter{
		emitErr: context.DeadlineExceeded,
	}
	event := NewEvent(domain.EventAttestationRejected, "test")

	// Error is logged, must not panic or affect the caller
	EmitAsync(emitter, context.Background(), event)

	time.Sleep(100 * time.Millisecond)
}

func TestEmitAsync_MultipleEvents(t *testing.T) {
	emitter := &mockEventEmitter{}

	for i := 0; i < 5; i++ {
		EmitAsync(emitter, context.Background(), NewEvent(domain.EventAttestationRecorded, "test"))
	}

	time.Sleep(200 * time.Millisecond)

	if events := emitter.getEvents(); len(events) != 5 {
		t.Errorf("expected 5 events, got %d", len(events))
	}
}

func TestEmitAsync_ConcurrentAccess(t *testing.T) {
	emitter := &mockEventEmitter{}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			EmitAsync(emitter, context.Background(), NewEvent(domain.EventAttestationRecorded, "test"))
		}()
	}

	wg.Wait()
	time.Sleep(200 * time.Millisecond)

	if events := emitter.getEvents(); len(events) != 10 {
		t.Errorf("expected 10 events, got %d", len(events))
	}
}

func TestNewEvent_PopulatesDefaults(t *testing.T) {
	before := time.Now().UTC()
	event := NewEvent(domain.EventAttestationRecorded, "attest-service")
	after := time.Now().UTC()

	if event.ID == "" {
		t.Error("id should be set")
	}
	if event.EventType != domain.EventAttestationRecorded {
		t.Errorf("eventType = %q, want %q", event.EventType, domain.EventAttestationRecorded)
	}
	if event.Source != "attest-service" {
		t.Errorf("source = %q, want %q", event.Source, "attest-service")
	}
	if event.CreatedAt.Before(before) || event.CreatedAt.After(after) {
		t.Errorf("createdAt = %v, should be between %v and %v", event.CreatedAt, before, after)
	}
}
