package engine

import (
	"context"

	"attest-ledger/internal/report"
)

// AdmissionResult holds the result of report admission evaluation.
type AdmissionResult struct {
	// Allow is true when the report may enter the attestation pipeline.
	Allow bool
	// Reasons lists why admission was denied; empty when Allow is true.
	Reasons []string
}

// Evaluator decides whether an audit report is admissible for attestation.
// Evaluation happens before any network step so malformed input never
// reaches the storage or ledger boundaries.
type Evaluator interface {
	EvaluateAdmission(ctx context.Context, auditID string, r *report.Report) (AdmissionResult, error)
}
