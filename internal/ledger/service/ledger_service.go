// Package service enforces the ledger's append-only semantics: globally
// unique commitments and audit ids, dense ordinal indexing, and no mutation
// after a record is stored.
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"attest-ledger/internal/commitment"
	"attest-ledger/internal/ledger/domain"
	"attest-ledger/internal/ledger/repository"
	"attest-ledger/internal/telemetry"
	telemetrydomain "attest-ledger/internal/telemetry/domain"
)

// Sentinel errors for the ledger service; handlers map them to status codes.
var (
	ErrInvalidInput        = errors.New("ledger: commitment, locator, and audit id must be non-empty")
	ErrNotFound            = errors.New("ledger: no record for audit id")
	ErrIndexOutOfRange     = errors.New("ledger: index out of range")
	ErrDuplicateCommitment = repository.ErrDuplicateCommitment
	ErrDuplicateAuditID    = repository.ErrDuplicateAuditID
)

// Service wraps a ledger repository with input validation and event emission.
type Service struct {
	repo    repository.Repository
	emitter telemetry.EventEmitter
	nowF    func() time.Time
}

// NewService returns a ledger service. emitter may be nil; events are then
// dropped.
func NewService(repo repository.Repository, emitter telemetry.EventEmitter) *Service {
	return &Service{repo: repo, emitter: emitter, nowF: func() time.Time { return time.Now().UTC() }}
}

// Store appends a new record. It succeeds only if the commitment and audit id
// are both unused and all inputs are non-empty/non-zero; any violated
// precondition fails the call with no state change. Store returns only after
// the write is durably committed, then emits an attestation.recorded event
// carrying the new record's ordinal index.
func (s *Service) Store(ctx context.Context, d commitment.Digest, locator, auditID, submitter string) (*domain.Record, error) {
	if d.IsZero() || strings.TrimSpace(locator) == "" || strings.TrimSpace(auditID) == "" || strings.TrimSpace(submitter) == "" {
		return nil, ErrInvalidInput
	}
	rec := &domain.Record{
		Commitment: d,
		Locator:    locator,
		AuditID:    auditID,
		Timestamp:  s.nowF(),
		Submitter:  strings.ToLower(submitter),
	}
	if err := s.repo.Append(ctx, rec); err != nil {
		if errors.Is(err, ErrDuplicateCommitment) || errors.Is(err, ErrDuplicateAuditID) {
			ev := telemetry.NewEvent(telemetrydomain.EventAttestationRejected, "ledger")
			ev.AuditID = auditID
			ev.Commitment = d.Hex()
			ev.Detail = err.Error()
			telemetry.EmitAsync(s.emitter, ctx, ev)
		}
		return nil, err
	}

	ev := telemetry.NewEvent(telemetrydomain.EventAttestationRecorded, "ledger")
	ev.AuditID = rec.AuditID
	ev.Commitment = rec.Commitment.Hex()
	ev.Locator = rec.Locator
	ev.Index = rec.Index
	ev.Submitter = rec.Submitter
	telemetry.EmitAsync(s.emitter, ctx, ev)

	return rec, nil
}

// Count returns the number of stored records.
func (s *Service) Count(ctx context.Context) (int64, error) {
	return s.repo.Count(ctx)
}

// GetByIndex returns the record at ordinal index i. An index with no record
// fails with ErrIndexOutOfRange, distinct from GetByID's ErrNotFound.
func (s *Service) GetByIndex(ctx context.Context, i int64) (*domain.Record, error) {
	if i < 0 {
		return nil, ErrIndexOutOfRange
	}
	rec, err := s.repo.GetByIndex(ctx, i)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, ErrIndexOutOfRange
	}
	return rec, nil
}

// GetByID returns the record for auditID, or ErrNotFound.
func (s *Service) GetByID(ctx context.Context, auditID string) (*domain.Record, error) {
	rec, err := s.repo.GetByAuditID(ctx, auditID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, ErrNotFound
	}
	return rec, nil
}

// Exists reports whether the commitment is already stored.
func (s *Service) Exists(ctx context.Context, d commitment.Digest) (bool, error) {
	return s.repo.ExistsCommitment(ctx, d)
}

// List returns all records in ordinal order.
func (s *Service) List(ctx context.Context) ([]*domain.Record, error) {
	return s.repo.List(ctx)
}
