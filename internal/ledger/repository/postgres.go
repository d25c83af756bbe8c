package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"attest-ledger/internal/commitment"
	"attest-ledger/internal/ledger/domain"
)

// Unique constraint names from the attestations migration; used to map a
// 23505 violation to the right sentinel.
const (
	commitmentConstraint = "attestations_commitment_key"
	auditIDConstraint    = "attestations_audit_id_key"
	idxConstraint        = "attestations_idx_key"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a ledger repository that uses the given db for
// persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Append inserts the record with the next dense ordinal index. The uniqueness
// of commitment and audit_id is enforced by database constraints, so a
// concurrent duplicate writer fails atomically with no partial state.
//
// Two concurrent non-duplicate writers read the same count and race on the
// idx constraint. The loser retries with a fresh count; every collision means
// another insert committed, so the loop makes progress and stops at ctx
// cancellation.
func (r *PostgresRepository) Append(ctx context.Context, rec *domain.Record) error {
	for {
		row := r.db.QueryRowContext(ctx, `
			INSERT INTO attestations (idx, commitment, locator, audit_id, created_at, submitter)
			SELECT COUNT(*), $1, $2, $3, $4, $5 FROM attestations
			RETURNING idx`,
			rec.Commitment[:], rec.Locator, rec.AuditID, rec.Timestamp, rec.Submitter,
		)
		err := row.Scan(&rec.Index)
		if err == nil {
			return nil
		}
		if !isIndexCollision(err) {
			return mapUniqueViolation(err)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

// Count returns the number of stored records.
func (r *PostgresRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM attestations`).Scan(&n)
	return n, err
}

// GetByIndex returns the record at ordinal index i, or nil if not present.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByIndex(ctx context.Context, i int64) (*domain.Record, error) {
	return r.scanOne(r.db.QueryRowContext(ctx, `
		SELECT idx, commitment, locator, audit_id, created_at, submitter
		FROM attestations WHERE idx = $1`, i))
}

// GetByAuditID returns the record for auditID, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByAuditID(ctx context.Context, auditID string) (*domain.Record, error) {
	return r.scanOne(r.db.QueryRowContext(ctx, `
		SELECT idx, commitment, locator, audit_id, created_at, submitter
		FROM attestations WHERE audit_id = $1`, auditID))
}

// ExistsCommitment reports whether the commitment is already stored.
func (r *PostgresRepository) ExistsCommitment(ctx context.Context, d commitment.Digest) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM attestations WHERE commitment = $1)`, d[:],
	).Scan(&exists)
	return exists, err
}

// List returns all records in ordinal order.
func (r *PostgresRepository) List(ctx context.Context) ([]*domain.Record, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT idx, commitment, locator, audit_id, created_at, submitter
		FROM attestations ORDER BY idx`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *PostgresRepository) scanOne(row *sql.Row) (*domain.Record, error) {
	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return rec, nil
}

func scanRecord(row rowScanner) (*domain.Record, error) {
	var rec domain.Record
	var digest []byte
	if err := row.Scan(&rec.Index, &digest, &rec.Locator, &rec.AuditID, &rec.Timestamp, &rec.Submitter); err != nil {
		return nil, err
	}
	copy(rec.Commitment[:], digest)
	return &rec, nil
}

func mapUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		switch pgErr.ConstraintName {
		case commitmentConstraint:
			return ErrDuplicateCommitment
		case auditIDConstraint:
			return ErrDuplicateAuditID
		}
	}
	return err
}

// isIndexCollision reports whether err is the idx unique violation raised
// when a concurrent writer took the index first. Not a duplicate attestation;
// Append resolves it by retrying.
func isIndexCollision(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == idxConstraint
}
