// Package handler serves readiness for Kubernetes, load balancers, and CI.
package handler

import (
	"context"
	"net/http"
	"time"

	"attest-ledger/internal/server/httpjson"
)

const checkTimeout = 2 * time.Second

// Pinger reports database reachability (e.g. *sql.DB).
type Pinger interface {
	PingContext(ctx context.Context) error
}

// PolicyChecker reports admission policy engine health (e.g. the OPA evaluator).
type PolicyChecker interface {
	HealthCheck(ctx context.Context) error
}

// Server serves GET /healthz. Nil dependencies skip their check.
type Server struct {
	pinger Pinger
	policy PolicyChecker
}

// NewServer returns a health handler. pinger and policy may be nil.
func NewServer(pinger Pinger, policy PolicyChecker) *Server {
	return &Server{pinger: pinger, policy: policy}
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Healthz reports overall health; 503 when any configured dependency fails.
func (s *Server) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
	defer cancel()

	checks := map[string]string{}
	healthy := true

	if s.pinger != nil {
		if err := s.pinger.PingContext(ctx); err != nil {
			checks["database"] = err.Error()
			healthy = false
		} else {
			checks["database"] = "ok"
		}
	}
	if s.policy != nil {
		if err := s.policy.HealthCheck(ctx); err != nil {
			checks["policy"] = err.Error()
			healthy = false
		} else {
			checks["policy"] = "ok"
		}
	}

	if !healthy {
		httpjson.Write(w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable", Checks: checks})
		return
	}
	httpjson.Write(w, http.StatusOK, healthResponse{Status: "ok", Checks: checks})
}
