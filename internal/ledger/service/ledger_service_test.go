package service

import (
	"context"
	"errors"
	"testing"

	"attest-ledger/internal/commitment"
	"attest-ledger/internal/ledger/repository"
)

const testSubmitter = "0xabcdef0123456789abcdef0123456789abcdef01"

func mustCommit(t *testing.T, v any) commitment.Digest {
	t.Helper()
	d, err := commitment.Commit(v)
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	return d
}

func newTestService() *Service {
	return NewService(repository.NewMemoryRepository(), nil)
}

func TestStore_FirstRecordGetsIndexZero(t *testing.T) {
	s := newTestService()
	ctx := context.Background()

	rec, err := s.Store(ctx, mustCommit(t, "x"), "ipfs://loc1", "audit_1", testSubmitter)
	if err != nil {
		t.Fatalf("Store: %v", err)
	}
	if rec.Index != 0 {
		t.Errorf("Index = %d, want 0", rec.Index)
	}
	if rec.Timestamp.IsZero() {
		t.Error("Timestamp not set")
	}

	n, err := s.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 1 {
		t.Errorf("Count = %d, want 1", n)
	}
}

func TestStore_DuplicateCommitmentRejected(t *testing.T) {
	s := newTestService()
	ctx := context.Background()
	d := mustCommit(t, "x")

	if _, err := s.Store(ctx, d, "ipfs://loc1", "audit_1", testSubmitter); err != nil {
		t.Fatalf("first Store: %v", err)
	}
	// Same commitment, different audit id: still rejected.
	_, err := s.Store(ctx, d, "ipfs://loc2", "audit_2", testSubmitter)
	if !errors.Is(err, ErrDuplicateCommitment) {
		t.Fatalf("second Store = %v, want ErrDuplicateCommitment", err)
	}

	n, _ := s.Count(ctx)
	if n != 1 {
		t.Errorf("Count after rejected store = %d, want 1", n)
	}
	if _, err := s.GetByID(ctx, "audit_2"); !errors.Is(err, ErrNotFound) {
		t.Errorf("audit_2 should not exist after rejected store, got %v", err)
	}
}

func TestStore_DuplicateAuditIDRejected(t *testing.T) {
	s := newTestService()
	ctx := context.Background()

	if _, err := s.Store(ctx, mustCommit(t, "x"), "ipfs://loc1", "audit_1", testSubmitter); err != nil {
		t.Fatalf("first Store: %v", err)
	}
	// Fresh commitment, reused audit id: rejected independently.
	_, err := s.Store(ctx, mustCommit(t, "y"), "ipfs://loc2", "audit_1", testSubmitter)
	if !errors.Is(err, ErrDuplicateAuditID) {
		t.Fatalf("second Store = %v, want ErrDuplicateAuditID", err)
	}

	n, _ := s.Count(ctx)
	if n != 1 {
		t.Errorf("Count after rejected store = %d, want 1", n)
	}
}

func TestStore_InputValidation(t *testing.T) {
	s := newTestService()
	ctx := context.Background()
	d := mustCommit(t, "x")

	tests := []struct {
		name                        string
		digest                      commitment.Digest
		locator, auditID, submitter string
	}{
		{"zero digest", commitment.ZeroDigest, "ipfs://loc", "audit_1", testSubmitter},
		{"empty locator", d, "", "audit_1", testSubmitter},
		{"empty audit id", d, "ipfs://loc", "", testSubmitter},
		{"empty submitter", d, "ipfs://loc", "audit_1", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := s.Store(ctx, tt.digest, tt.locator, tt.auditID, tt.submitter); !errors.Is(err, ErrInvalidInput) {
				t.Errorf("Store = %v, want ErrInvalidInput", err)
			}
		})
	}

	if n, _ := s.Count(ctx); n != 0 {
		t.Errorf("Count = %d, want 0 after rejected inputs", n)
	}
}

func TestGetByID_NotFoundDistinctFromOutOfRange(t *testing.T) {
	s := newTestService()
	ctx := context.Background()

	if _, err := s.Store(ctx, mustCommit(t, "x"), "ipfs://loc1", "audit_1", testSubmitter); err != nil {
		t.Fatalf("Store: %v", err)
	}

	rec, err := s.GetByID(ctx, "audit_1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if rec.AuditID != "audit_1" || rec.Locator != "ipfs://loc1" {
		t.Errorf("GetByID returned wrong record: %+v", rec)
	}

	if _, err := s.GetByID(ctx, "audit_999"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID missing = %v, want ErrNotFound", err)
	}
	if _, err := s.GetByIndex(ctx, 99); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("GetByIndex(99) = %v, want ErrIndexOutOfRange", err)
	}
	if _, err := s.GetByIndex(ctx, -1); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("GetByIndex(-1) = %v, want ErrIndexOutOfRange", err)
	}
}

func TestExists(t *testing.T) {
	s := newTestService()
	ctx := context.Background()
	d := mustCommit(t, "x")

	ok, err := s.Exists(ctx, d)
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if ok {
		t.Error("Exists = true before store")
	}

	if _, err := s.Store(ctx, d, "ipfs://loc1", "audit_1", testSubmitter); err != nil {
		t.Fatalf("Store: %v", err)
	}

	ok, err = s.Exists(ctx, d)
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if !ok {
		t.Error("Exists = false after store")
	}
}

func TestStore_SubmitterNormalized(t *testing.T) {
	s := newTestService()
	ctx := context.Background()

	rec, err := s.Store(ctx, mustCommit(t, "x"), "ipfs://loc1", "audit_1",
		"0xABCDEF0123456789ABCDEF0123456789ABCDEF01")
	if err != nil {
		t.Fatalf("Store: %v", err)
	}
	if rec.Submitter != testSubmitter {
		t.Errorf("Submitter = %q, want lowercase %q", rec.Submitter, testSubmitter)
	}
}

func TestStore_SequentialIndexes(t *testing.T) {
	s := newTestService()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		rec, err := s.Store(ctx, mustCommit(t, i), "ipfs://loc", "audit_"+string(rune('a'+i)), testSubmitter)
		if err != nil {
			t.Fatalf("Store %d: %v", i, err)
		}
		if rec.Index != int64(i) {
			t.Errorf("Index = %d, want %d", rec.Index, i)
		}
	}
}
