package repository

import (
	"context"
	"errors"

	"attest-ledger/internal/commitment"
	"attest-ledger/internal/ledger/domain"
)

// Sentinel errors shared by all ledger repository implementations. The service
// layer surfaces them to callers unchanged; duplicate and not-found are
// expected outcomes, not faults.
var (
	ErrDuplicateCommitment = errors.New("ledger: commitment already stored")
	ErrDuplicateAuditID    = errors.New("ledger: audit id already stored")
)

// Repository persists the append-only attestation ledger. Append must be
// atomic: a duplicate commitment or audit id rejects the insert with no
// partial state change.
type Repository interface {
	// Append stores r and assigns its ordinal index. Returns
	// ErrDuplicateCommitment or ErrDuplicateAuditID on a uniqueness
	// violation, leaving the ledger unchanged.
	Append(ctx context.Context, r *domain.Record) error
	// Count returns the number of stored records.
	Count(ctx context.Context) (int64, error)
	// GetByIndex returns the record at ordinal index i, or nil if the index
	// has no record. Error only for storage failures.
	GetByIndex(ctx context.Context, i int64) (*domain.Record, error)
	// GetByAuditID returns the record for auditID, or nil if not found.
	// Error only for storage failures.
	GetByAuditID(ctx context.Context, auditID string) (*domain.Record, error)
	// ExistsCommitment reports whether the commitment is already stored.
	ExistsCommitment(ctx context.Context, d commitment.Digest) (bool, error)
	// List returns all records in ordinal order.
	List(ctx context.Context) ([]*domain.Record, error)
}
