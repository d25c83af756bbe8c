// Package attest sequences the attestation pipeline: admit the report,
// encrypt it, pin the ciphertext, commit over the locator-wrapped envelope,
// and append
// the commitment to the ledger. Steps run strictly in order; the first failure
// aborts the rest and surfaces the originating error. No step retries:
// every step is safely re-callable with the same inputs, so a failed flow is
// resumed by running it again (uploads are content-addressed, the store is
// guarded by the duplicate check).
package attest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"attest-ledger/internal/commitment"
	"attest-ledger/internal/crypt"
	ledgerdomain "attest-ledger/internal/ledger/domain"
	"attest-ledger/internal/policy/engine"
	"attest-ledger/internal/report"
	"attest-ledger/internal/wallet"
)

// Sentinel errors for the orchestration flow.
var (
	// ErrAlreadyStored is the expected duplicate outcome of the pre-store
	// check; not a fault.
	ErrAlreadyStored = errors.New("attest: this report is already stored on the ledger")
	// ErrNotAdmissible is returned when the admission policy denies the
	// report before any network step.
	ErrNotAdmissible = errors.New("attest: report rejected by admission policy")
)

// Uploader is the content storage surface the flow needs.
type Uploader interface {
	UploadJSON(ctx context.Context, v any, name string) (string, error)
	FetchCiphertext(ctx context.Context, locator string) (string, error)
}

// Ledger is the ledger surface the flow needs.
type Ledger interface {
	Store(ctx context.Context, d commitment.Digest, locator, auditID, submitter string) (*ledgerdomain.Record, error)
	Exists(ctx context.Context, d commitment.Digest) (bool, error)
	List(ctx context.Context) ([]*ledgerdomain.Record, error)
}

// Service runs the attestation pipeline for one session at a time. The
// session is passed per call rather than cached, so a Service is safe to
// share and free of hidden cross-call state.
type Service struct {
	uploader  Uploader
	ledger    Ledger
	admission engine.Evaluator
}

// NewService returns an attestation flow over the given collaborators.
// admission may be nil to skip the policy gate.
func NewService(uploader Uploader, ledger Ledger, admission engine.Evaluator) *Service {
	return &Service{uploader: uploader, ledger: ledger, admission: admission}
}

// envelope is the payload pinned to storage: the ciphertext plus the audit id
// it belongs to.
type envelope struct {
	AuditID    string `json:"auditId"`
	Ciphertext string `json:"ciphertext"`
}

// sealedEnvelope is the value the commitment is computed over: the storage
// locator wrapped around the uploaded envelope. A verifier holding a ledger
// record fetches the payload by its locator, rebuilds this value, and
// recomputes the commitment.
type sealedEnvelope struct {
	Locator  string   `json:"locator"`
	Envelope envelope `json:"envelope"`
}

// Result is the outcome of one completed attestation flow.
type Result struct {
	Record  *ledgerdomain.Record
	Locator string
}

// Attest runs the full pipeline for one report: admission → encrypt → upload
// → commit → duplicate check → store. Returns only after the ledger write is
// confirmed. Re-calling with the same inputs after a partial failure is safe;
// a completed flow re-run fails with ErrAlreadyStored.
func (s *Service) Attest(ctx context.Context, sess *wallet.Session, auditID string, rpt *report.Report) (*Result, error) {
	if sess == nil || sess.Address == "" {
		return nil, wallet.ErrProviderUnavailable
	}
	if strings.TrimSpace(auditID) == "" {
		return nil, fmt.Errorf("attest: audit id must not be empty")
	}
	if rpt == nil {
		return nil, fmt.Errorf("attest: report must not be nil")
	}

	if s.admission != nil {
		res, err := s.admission.EvaluateAdmission(ctx, auditID, rpt)
		if err != nil {
			return nil, fmt.Errorf("admission policy: %w", err)
		}
		if !res.Allow {
			return nil, fmt.Errorf("%w: %s", ErrNotAdmissible, strings.Join(res.Reasons, "; "))
		}
	}

	km := crypt.KeyMaterial{Address: sess.Address, AuditID: auditID}
	ciphertext, err := crypt.Encrypt(s.plaintext(rpt), km)
	if err != nil {
		return nil, fmt.Errorf("encrypt report: %w", err)
	}

	env := envelope{AuditID: auditID, Ciphertext: ciphertext}
	locator, err := s.uploader.UploadJSON(ctx, env, auditID+".json")
	if err != nil {
		return nil, fmt.Errorf("upload ciphertext: %w", err)
	}

	digest, err := commitment.Commit(sealedEnvelope{Locator: locator, Envelope: env})
	if err != nil {
		return nil, fmt.Errorf("compute commitment: %w", err)
	}

	exists, err := s.ledger.Exists(ctx, digest)
	if err != nil {
		return nil, fmt.Errorf("duplicate check: %w", err)
	}
	if exists {
		return nil, ErrAlreadyStored
	}

	rec, err := s.ledger.Store(ctx, digest, locator, auditID, sess.Address)
	if err != nil {
		return nil, fmt.Errorf("store commitment: %w", err)
	}
	return &Result{Record: rec, Locator: locator}, nil
}

// plaintext returns the bytes to encrypt: the backend's verbatim report JSON
// when available, otherwise the report struct itself.
func (s *Service) plaintext(rpt *report.Report) any {
	if len(rpt.Raw) > 0 {
		return rpt.Raw
	}
	return rpt
}

// DecryptedRecord pairs a ledger record with its recovered plaintext.
type DecryptedRecord struct {
	Record    *ledgerdomain.Record
	Plaintext json.RawMessage
}

// DecryptAll fetches and decrypts every ledger record stored by the session's
// address. Best-effort: a record whose fetch or decryption fails is logged
// and skipped so one bad record does not block the rest.
func (s *Service) DecryptAll(ctx context.Context, sess *wallet.Session) ([]DecryptedRecord, error) {
	if sess == nil || sess.Address == "" {
		return nil, wallet.ErrProviderUnavailable
	}
	records, err := s.ledger.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}

	addr := strings.ToLower(sess.Address)
	var out []DecryptedRecord
	for _, rec := range records {
		if rec.Submitter != addr {
			continue
		}
		ciphertext, err := s.uploader.FetchCiphertext(ctx, rec.Locator)
		if err != nil {
			log.Printf("attest: fetch %s for audit %s failed, skipping: %v", rec.Locator, rec.AuditID, err)
			continue
		}
		plaintext, err := crypt.Decrypt(ciphertext, crypt.KeyMaterial{Address: addr, AuditID: rec.AuditID})
		if err != nil {
			log.Printf("attest: decrypt audit %s failed, skipping: %v", rec.AuditID, err)
			continue
		}
		out = append(out, DecryptedRecord{Record: rec, Plaintext: plaintext})
	}
	return out, nil
}
