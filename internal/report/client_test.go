package report

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
)

const reportBody = `{"auditId":"audit_1","vendor":"Acme","amount":"1249.99","currency":"USD","riskScore":"0.12","findings":[{"category":"duplicate_charge","severity":"medium","amount":"49.99"}]}`

func TestGetReport(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		switch r.URL.Path {
		case "/api/audit/audit_1":
			w.Write([]byte(reportBody))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "backend-key")
	r, err := c.GetReport(context.Background(), "audit_1")
	if err != nil {
		t.Fatalf("GetReport: %v", err)
	}
	if gotAuth != "Bearer backend-key" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if r.Vendor != "Acme" {
		t.Errorf("Vendor = %q, want Acme", r.Vendor)
	}
	if !r.Amount.Equal(decimal.RequireFromString("1249.99")) {
		t.Errorf("Amount = %s, want 1249.99", r.Amount)
	}
	if len(r.Findings) != 1 || !r.Findings[0].Amount.Equal(decimal.RequireFromString("49.99")) {
		t.Errorf("Findings = %+v", r.Findings)
	}
	if string(r.Raw) != reportBody {
		t.Error("Raw does not preserve the response body verbatim")
	}
}

func TestGetReport_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(http.NotFound))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	if _, err := c.GetReport(context.Background(), "audit_999"); !errors.Is(err, ErrReportNotFound) {
		t.Errorf("GetReport = %v, want ErrReportNotFound", err)
	}
}

func TestGetReport_EmptyID(t *testing.T) {
	c := NewClient("http://localhost:0", "")
	if _, err := c.GetReport(context.Background(), "  "); err == nil {
		t.Error("expected error for empty audit id")
	}
}

func TestGetReport_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	if _, err := c.GetReport(context.Background(), "audit_1"); err == nil {
		t.Error("expected error on 500")
	}
}
