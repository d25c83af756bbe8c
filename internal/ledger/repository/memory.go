package repository

import (
	"context"
	"sync"

	"attest-ledger/internal/commitment"
	"attest-ledger/internal/ledger/domain"
)

// MemoryRepository is an in-memory Repository used in tests and local runs
// without a database. Safe for concurrent use.
type MemoryRepository struct {
	mu       sync.RWMutex
	records  []*domain.Record
	byDigest map[commitment.Digest]int
	byAudit  map[string]int
}

// NewMemoryRepository returns an empty in-memory ledger repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byDigest: make(map[commitment.Digest]int),
		byAudit:  make(map[string]int),
	}
}

// Append stores a copy of r and assigns its ordinal index. Duplicate checks
// and the append happen under one lock, so rejection leaves no partial state.
func (m *MemoryRepository) Append(ctx context.Context, r *domain.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byDigest[r.Commitment]; ok {
		return ErrDuplicateCommitment
	}
	if _, ok := m.byAudit[r.AuditID]; ok {
		return ErrDuplicateAuditID
	}
	r.Index = int64(len(m.records))
	cp := *r
	m.records = append(m.records, &cp)
	m.byDigest[r.Commitment] = int(r.Index)
	m.byAudit[r.AuditID] = int(r.Index)
	return nil
}

// Count returns the number of stored records.
func (m *MemoryRepository) Count(ctx context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.records)), nil
}

// GetByIndex returns the record at ordinal index i, or nil if out of range.
func (m *MemoryRepository) GetByIndex(ctx context.Context, i int64) (*domain.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if i < 0 || i >= int64(len(m.records)) {
		return nil, nil
	}
	cp := *m.records[i]
	return &cp, nil
}

// GetByAuditID returns the record for auditID, or nil if not found.
func (m *MemoryRepository) GetByAuditID(ctx context.Context, auditID string) (*domain.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	i, ok := m.byAudit[auditID]
	if !ok {
		return nil, nil
	}
	cp := *m.records[i]
	return &cp, nil
}

// ExistsCommitment reports whether the commitment is already stored.
func (m *MemoryRepository) ExistsCommitment(ctx context.Context, d commitment.Digest) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.byDigest[d]
	return ok, nil
}

// List returns copies of all records in ordinal order.
func (m *MemoryRepository) List(ctx context.Context) ([]*domain.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.Record, len(m.records))
	for i, r := range m.records {
		cp := *r
		out[i] = &cp
	}
	return out, nil
}
