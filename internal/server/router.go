// Package server assembles the HTTP API: router, auth middleware, and
// request identity context.
package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	attesthandler "attest-ledger/internal/attest/handler"
	healthhandler "attest-ledger/internal/health/handler"
	ledgerhandler "attest-ledger/internal/ledger/handler"
	"attest-ledger/internal/security"
	"attest-ledger/internal/server/middleware"
)

// Deps holds the handlers and middleware dependencies for the router.
type Deps struct {
	// Attest serves POST /v1/attestations. Required.
	Attest *attesthandler.Server
	// Ledger serves the read-only ledger endpoints. Required.
	Ledger *ledgerhandler.Server
	// Health serves GET /healthz. Required.
	Health *healthhandler.Server
	// Verifier validates bearer tokens on /v1 routes. Nil disables auth (dev only).
	Verifier *security.TokenVerifier
}

// Route → handler mapping:
//   - POST /v1/attestations                       → internal/attest/handler
//   - GET  /v1/attestations                       → internal/ledger/handler
//   - GET  /v1/attestations/index/{index}         → internal/ledger/handler
//   - GET  /v1/attestations/commitments/{commitment} → internal/ledger/handler
//   - GET  /v1/attestations/{auditId}             → internal/ledger/handler
//   - GET  /healthz                               → internal/health/handler
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))

	r.Get("/healthz", deps.Health.Healthz)

	r.Route("/v1", func(r chi.Router) {
		r.Use(middleware.BearerAuth(deps.Verifier))
		r.Route("/attestations", func(r chi.Router) {
			r.Post("/", deps.Attest.Attest)
			r.Get("/", deps.Ledger.List)
			r.Get("/index/{index}", deps.Ledger.GetByIndex)
			r.Get("/commitments/{commitment}", deps.Ledger.ExistsCommitment)
			r.Get("/{auditId}", deps.Ledger.GetByAuditID)
		})
	})

	return r
}
