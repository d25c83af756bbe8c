// Package commitment computes fixed-size digests over canonical JSON, used as
// the on-ledger commitment for an uploaded audit payload.
package commitment

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/sha3"
)

// Digest is a 32-byte Keccak-256 commitment over a canonical JSON payload.
type Digest [32]byte

// ZeroDigest is the all-zero digest; never a valid commitment.
var ZeroDigest Digest

// ErrInvalidDigest is returned when parsing a hex digest of the wrong shape.
var ErrInvalidDigest = errors.New("commitment: invalid digest")

// Hex returns the digest as a 0x-prefixed lowercase hex string.
func (d Digest) Hex() string {
	return "0x" + hex.EncodeToString(d[:])
}

// IsZero reports whether the digest is all zero bytes.
func (d Digest) IsZero() bool {
	return d == ZeroDigest
}

// ParseDigest parses a hex digest string with or without a 0x prefix.
// Returns ErrInvalidDigest if the string is not exactly 32 hex-encoded bytes.
func ParseDigest(s string) (Digest, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "0x")
	b, err := hex.DecodeString(s)
	if err != nil {
		return ZeroDigest, fmt.Errorf("%w: %v", ErrInvalidDigest, err)
	}
	if len(b) != 32 {
		return ZeroDigest, fmt.Errorf("%w: expected 32 bytes, got %d", ErrInvalidDigest, len(b))
	}
	var d Digest
	copy(d[:], b)
	return d, nil
}

// Canonical serializes v to canonical JSON: stable key order, no insignificant
// whitespace, numbers preserved verbatim. Two semantically equal JSON values
// canonicalize to identical bytes regardless of incidental formatting.
func Canonical(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("commitment: marshal: %w", err)
	}
	// Round-trip through a generic value so map keys are re-emitted sorted
	// (encoding/json sorts map keys) and whitespace is dropped. UseNumber
	// keeps numeric literals intact instead of routing them through float64.
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var generic any
	if err := dec.Decode(&generic); err != nil {
		return nil, fmt.Errorf("commitment: canonicalize: %w", err)
	}
	out, err := json.Marshal(generic)
	if err != nil {
		return nil, fmt.Errorf("commitment: canonicalize: %w", err)
	}
	return out, nil
}

// Commit returns the Keccak-256 digest of the canonical serialization of v.
// The digest is opaque; v cannot be recovered from it.
func Commit(v any) (Digest, error) {
	canonical, err := Canonical(v)
	if err != nil {
		return ZeroDigest, err
	}
	h := sha3.NewLegacyKeccak256()
	h.Write(canonical)
	var d Digest
	copy(d[:], h.Sum(nil))
	return d, nil
}
