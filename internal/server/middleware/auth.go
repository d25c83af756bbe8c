// Package middleware holds the HTTP middleware and the request identity context.
package middleware

import (
	"net/http"
	"strings"

	"attest-ledger/internal/security"
	"attest-ledger/internal/server/httpjson"
)

const bearerPrefix = "bearer "

// BearerAuth returns middleware that validates the Bearer token from the
// Authorization header and sets subject and wallet address in context.
// A nil verifier disables auth (dev mode); requests pass through unchanged.
func BearerAuth(verifier *security.TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if verifier == nil {
				next.ServeHTTP(w, r)
				return
			}
			token := extractBearer(r)
			if token == "" {
				httpjson.WriteError(w, http.StatusUnauthorized, "missing or invalid authorization")
				return
			}
			claims, err := verifier.Verify(token)
			if err != nil {
				httpjson.WriteError(w, http.StatusUnauthorized, "missing or invalid authorization")
				return
			}
			ctx := WithIdentity(r.Context(), claims.Subject, claims.WalletAddress)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// extractBearer returns the Bearer token from the Authorization header, or "" if missing or malformed.
func extractBearer(r *http.Request) string {
	v := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(v) < len(bearerPrefix) {
		return ""
	}
	if !strings.EqualFold(v[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(v[len(bearerPrefix):])
}
