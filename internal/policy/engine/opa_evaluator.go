package engine

import (
	"context"
	"fmt"
	"sort"

	"github.com/open-policy-agent/opa/v1/ast"
	"github.com/open-policy-agent/opa/v1/rego"

	"attest-ledger/internal/report"
)

const admissionQuery = "data.attest.admission"

// Default Rego admission policy: a report needs a vendor and a positive
// amount, and the audit id must have a sane shape.
const defaultRegoPolicy = `package attest.admission

import rego.v1

default allow := false

deny contains msg if {
	input.report.vendor == ""
	msg := "report is missing a vendor"
}

deny contains msg if {
	input.report.amount <= 0
	msg := "report amount must be positive"
}

deny contains msg if {
	not regex.match("^[A-Za-z0-9_.-]{1,64}$", input.audit_id)
	msg := "audit id has an invalid shape"
}

allow if count(deny) == 0
`

// OPAEvaluator evaluates report admission using OPA Rego. A custom policy
// module may replace the default at construction.
type OPAEvaluator struct {
	compiler *ast.Compiler
}

// NewOPAEvaluator returns an OPA-based admission evaluator compiled from the
// given Rego module, or from the default policy when module is empty.
func NewOPAEvaluator(module string) (*OPAEvaluator, error) {
	if module == "" {
		module = defaultRegoPolicy
	}
	compiler, err := ast.CompileModules(map[string]string{"admission.rego": module})
	if err != nil {
		return nil, fmt.Errorf("policy: compile: %w", err)
	}
	return &OPAEvaluator{compiler: compiler}, nil
}

// HealthCheck verifies the in-process Rego engine can evaluate the compiled
// policy against a minimal input. Returns nil on success.
func (e *OPAEvaluator) HealthCheck(ctx context.Context) error {
	_, err := e.eval(ctx, map[string]any{
		"audit_id": "healthcheck",
		"report":   map[string]any{"vendor": "probe", "amount": 1},
	})
	return err
}

// EvaluateAdmission evaluates the admission policy for the report. Denial is
// an expected outcome carried in the result, not an error; errors mean the
// engine itself failed.
func (e *OPAEvaluator) EvaluateAdmission(ctx context.Context, auditID string, r *report.Report) (AdmissionResult, error) {
	if r == nil {
		return AdmissionResult{Reasons: []string{"no report"}}, nil
	}
	amount, _ := r.Amount.Float64()
	input := map[string]any{
		"audit_id": auditID,
		"report": map[string]any{
			"vendor":   r.Vendor,
			"amount":   amount,
			"currency": r.Currency,
			"findings": len(r.Findings),
		},
	}
	return e.eval(ctx, input)
}

func (e *OPAEvaluator) eval(ctx context.Context, input map[string]any) (AdmissionResult, error) {
	q := rego.New(
		rego.Query(admissionQuery),
		rego.Compiler(e.compiler),
		rego.Input(input),
	)
	rs, err := q.Eval(ctx)
	if err != nil {
		return AdmissionResult{}, fmt.Errorf("policy: eval: %w", err)
	}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return AdmissionResult{}, fmt.Errorf("policy: query returned no result")
	}
	doc, ok := rs[0].Expressions[0].Value.(map[string]any)
	if !ok {
		return AdmissionResult{}, fmt.Errorf("policy: unexpected document shape %T", rs[0].Expressions[0].Value)
	}

	var out AdmissionResult
	if allow, ok := doc["allow"].(bool); ok {
		out.Allow = allow
	}
	if deny, ok := doc["deny"].([]any); ok {
		for _, d := range deny {
			if msg, ok := d.(string); ok {
				out.Reasons = append(out.Reasons, msg)
			}
		}
	}
	sort.Strings(out.Reasons)
	return out, nil
}
