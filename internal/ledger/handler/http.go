// Package handler exposes ledger reads over HTTP.
package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"attest-ledger/internal/commitment"
	"attest-ledger/internal/ledger/domain"
	"attest-ledger/internal/ledger/service"
	"attest-ledger/internal/server/httpjson"
)

// Ledger is the read surface the handler needs from the ledger service.
type Ledger interface {
	Count(ctx context.Context) (int64, error)
	GetByIndex(ctx context.Context, i int64) (*domain.Record, error)
	GetByID(ctx context.Context, auditID string) (*domain.Record, error)
	Exists(ctx context.Context, d commitment.Digest) (bool, error)
	List(ctx context.Context) ([]*domain.Record, error)
}

// Server serves the read-only ledger endpoints.
type Server struct {
	ledger Ledger
}

// NewServer returns a ledger HTTP handler over the given service.
func NewServer(ledger Ledger) *Server {
	return &Server{ledger: ledger}
}

// recordResponse is the wire shape of one ledger record.
type recordResponse struct {
	Index      int64     `json:"index"`
	Commitment string    `json:"commitment"`
	Locator    string    `json:"locator"`
	AuditID    string    `json:"auditId"`
	Timestamp  time.Time `json:"timestamp"`
	Submitter  string    `json:"submitter"`
}

func toResponse(rec *domain.Record) recordResponse {
	return recordResponse{
		Index:      rec.Index,
		Commitment: rec.Commitment.Hex(),
		Locator:    rec.Locator,
		AuditID:    rec.AuditID,
		Timestamp:  rec.Timestamp,
		Submitter:  rec.Submitter,
	}
}

type listResponse struct {
	Count   int64            `json:"count"`
	Records []recordResponse `json:"records"`
}

// List returns all records in ordinal order.
func (s *Server) List(w http.ResponseWriter, r *http.Request) {
	records, err := s.ledger.List(r.Context())
	if err != nil {
		s.writeErr(w, err)
		return
	}
	resp := listResponse{Count: int64(len(records)), Records: make([]recordResponse, 0, len(records))}
	for _, rec := range records {
		resp.Records = append(resp.Records, toResponse(rec))
	}
	httpjson.Write(w, http.StatusOK, resp)
}

// GetByAuditID returns the record for the audit id in the path.
func (s *Server) GetByAuditID(w http.ResponseWriter, r *http.Request) {
	auditID := chi.URLParam(r, "auditId")
	rec, err := s.ledger.GetByID(r.Context(), auditID)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	httpjson.Write(w, http.StatusOK, toResponse(rec))
}

// GetByIndex returns the record at the ordinal index in the path.
func (s *Server) GetByIndex(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "index")
	i, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		httpjson.WriteError(w, http.StatusBadRequest, "index must be a non-negative integer")
		return
	}
	rec, err := s.ledger.GetByIndex(r.Context(), i)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	httpjson.Write(w, http.StatusOK, toResponse(rec))
}

type existsResponse struct {
	Commitment string `json:"commitment"`
	Exists     bool   `json:"exists"`
}

// ExistsCommitment reports whether the commitment digest in the path is stored.
func (s *Server) ExistsCommitment(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "commitment")
	d, err := commitment.ParseDigest(raw)
	if err != nil {
		httpjson.WriteError(w, http.StatusBadRequest, "commitment must be 32 bytes of hex")
		return
	}
	exists, err := s.ledger.Exists(r.Context(), d)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	httpjson.Write(w, http.StatusOK, existsResponse{Commitment: d.Hex(), Exists: exists})
}

func (s *Server) writeErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		httpjson.WriteError(w, http.StatusNotFound, "no record for audit id")
	case errors.Is(err, service.ErrIndexOutOfRange):
		httpjson.WriteError(w, http.StatusNotFound, "index out of range")
	default:
		log.Printf("ledger: handler error: %v", err)
		httpjson.WriteError(w, http.StatusInternalServerError, "internal error")
	}
}
