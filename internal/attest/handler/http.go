// Package handler runs the attestation pipeline over HTTP.
package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"attest-ledger/internal/attest"
	"attest-ledger/internal/crypt"
	"attest-ledger/internal/ledger/repository"
	"attest-ledger/internal/report"
	"attest-ledger/internal/server/httpjson"
	"attest-ledger/internal/server/middleware"
	"attest-ledger/internal/wallet"
)

// Flow is the orchestration surface the handler needs.
type Flow interface {
	Attest(ctx context.Context, sess *wallet.Session, auditID string, rpt *report.Report) (*attest.Result, error)
}

// ReportFetcher loads audit reports from the finance backend.
type ReportFetcher interface {
	GetReport(ctx context.Context, auditID string) (*report.Report, error)
}

// Server serves POST /v1/attestations.
type Server struct {
	flow    Flow
	reports ReportFetcher
	chainID int64
}

// NewServer returns an attestation HTTP handler. chainID is stamped on the
// session used for key derivation and record attribution.
func NewServer(flow Flow, reports ReportFetcher, chainID int64) *Server {
	return &Server{flow: flow, reports: reports, chainID: chainID}
}

type attestRequest struct {
	AuditID string `json:"auditId"`
	// WalletAddress may be omitted when the bearer token carries a wallet_address claim.
	WalletAddress string `json:"walletAddress,omitempty"`
}

type attestResponse struct {
	Index      int64     `json:"index"`
	Commitment string    `json:"commitment"`
	Locator    string    `json:"locator"`
	AuditID    string    `json:"auditId"`
	Timestamp  time.Time `json:"timestamp"`
	Submitter  string    `json:"submitter"`
}

// Attest fetches the report for the requested audit id and runs the pipeline:
// admission, encrypt, pin, commit, duplicate check, store.
func (s *Server) Attest(w http.ResponseWriter, r *http.Request) {
	var req attestRequest
	if err := httpjson.Read(r, &req); err != nil {
		httpjson.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.AuditID) == "" {
		httpjson.WriteError(w, http.StatusBadRequest, "auditId must not be empty")
		return
	}

	addr := req.WalletAddress
	if addr == "" {
		addr, _ = middleware.GetWalletAddress(r.Context())
	}
	normAddr, err := wallet.NormalizeAddress(addr)
	if err != nil {
		httpjson.WriteError(w, http.StatusBadRequest, "walletAddress must be a 0x-prefixed 20-byte hex address")
		return
	}

	rpt, err := s.reports.GetReport(r.Context(), req.AuditID)
	if err != nil {
		if errors.Is(err, report.ErrReportNotFound) {
			httpjson.WriteError(w, http.StatusNotFound, "no report for audit id")
			return
		}
		log.Printf("attest: fetch report %s: %v", req.AuditID, err)
		httpjson.WriteError(w, http.StatusBadGateway, "report backend unavailable")
		return
	}

	result, err := s.flow.Attest(r.Context(), &wallet.Session{Address: normAddr, ChainID: s.chainID}, req.AuditID, rpt)
	if err != nil {
		s.writeFlowErr(w, req.AuditID, err)
		return
	}

	rec := result.Record
	httpjson.Write(w, http.StatusCreated, attestResponse{
		Index:      rec.Index,
		Commitment: rec.Commitment.Hex(),
		Locator:    rec.Locator,
		AuditID:    rec.AuditID,
		Timestamp:  rec.Timestamp,
		Submitter:  rec.Submitter,
	})
}

// writeFlowErr maps pipeline failures onto the API error taxonomy: 400 for
// input the caller can fix, 409 for duplicates, 422 for policy denial, 502
// for upstream storage or provider faults.
func (s *Server) writeFlowErr(w http.ResponseWriter, auditID string, err error) {
	switch {
	case errors.Is(err, crypt.ErrInvalidAddress), errors.Is(err, crypt.ErrEmptyAuditID):
		httpjson.WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, attest.ErrAlreadyStored),
		errors.Is(err, repository.ErrDuplicateCommitment),
		errors.Is(err, repository.ErrDuplicateAuditID):
		httpjson.WriteError(w, http.StatusConflict, "this report is already stored on the ledger")
	case errors.Is(err, attest.ErrNotAdmissible):
		httpjson.WriteError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		log.Printf("attest: pipeline for audit %s: %v", auditID, err)
		httpjson.WriteError(w, http.StatusBadGateway, "attestation pipeline failed upstream")
	}
}
