package report

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Report is a finance audit report fetched from the backend. Raw preserves
// the exact JSON the backend returned; it is the plaintext that gets
// encrypted and attested, so it must not be re-shaped here.
type Report struct {
	AuditID   string          `json:"auditId"`
	Vendor    string          `json:"vendor"`
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
	Findings  []Finding       `json:"findings,omitempty"`
	RiskScore decimal.Decimal `json:"riskScore"`

	Raw json.RawMessage `json:"-"`
}

// Finding is one flagged item in an audit report.
type Finding struct {
	Category string          `json:"category"`
	Severity string          `json:"severity"`
	Amount   decimal.Decimal `json:"amount"`
	Note     string          `json:"note,omitempty"`
}
