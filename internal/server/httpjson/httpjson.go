// Package httpjson holds the request/response JSON helpers shared by HTTP handlers.
package httpjson

import (
	"encoding/json"
	"net/http"
)

// maxBodyBytes caps request bodies; attestation requests are small.
const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error string `json:"error"`
}

// Read decodes the request body into v, rejecting unknown fields and oversized bodies.
func Read(r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// Write encodes v as JSON with the given status code.
func Write(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes an error response with the given status code.
func WriteError(w http.ResponseWriter, status int, message string) {
	Write(w, status, errorResponse{Error: message})
}
