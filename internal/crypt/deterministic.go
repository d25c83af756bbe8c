// Package crypt encrypts audit report payloads with a key derived from the
// submitter wallet address and the audit identifier. Encryption is
// deterministic: the same payload and key material always produce the same
// ciphertext, so re-encryption is idempotent and a verifier holding the same
// two inputs can decrypt without an out-of-band key exchange.
package crypt

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"golang.org/x/crypto/hkdf"

	"attest-ledger/internal/commitment"
)

var (
	// ErrInvalidAddress is returned when the wallet address is not a
	// well-formed 0x-prefixed 20-byte hex address.
	ErrInvalidAddress = errors.New("crypt: invalid wallet address")
	// ErrEmptyAuditID is returned when the audit identifier is empty.
	ErrEmptyAuditID = errors.New("crypt: audit id must not be empty")
	// ErrCiphertext is returned when ciphertext is malformed or fails the
	// integrity check (wrong key material or corrupted payload).
	ErrCiphertext = errors.New("crypt: malformed or unauthentic ciphertext")
)

var addressPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

const (
	keySize   = 32
	nonceSize = 12
	hkdfInfo  = "attest-ledger/report-key/v1"
)

// KeyMaterial identifies the symmetric key for one audit payload: the
// submitter address (case-normalized before use) and the audit id.
type KeyMaterial struct {
	Address string
	AuditID string
}

// NormalizedAddress returns the lowercased address. The same logical identity
// may appear in mixed case; derivation always uses the lowercase form.
func (k KeyMaterial) NormalizedAddress() string {
	return strings.ToLower(strings.TrimSpace(k.Address))
}

func (k KeyMaterial) validate() error {
	if !addressPattern.MatchString(strings.TrimSpace(k.Address)) {
		return ErrInvalidAddress
	}
	if strings.TrimSpace(k.AuditID) == "" {
		return ErrEmptyAuditID
	}
	return nil
}

// deriveKey derives a 32-byte AES key from the normalized address and audit id
// via HKDF-SHA256. Deterministic: no random salt.
func deriveKey(km KeyMaterial) ([]byte, error) {
	if err := km.validate(); err != nil {
		return nil, err
	}
	secret := []byte(km.NormalizedAddress() + ":" + km.AuditID)
	key := make([]byte, keySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, secret, nil, []byte(hkdfInfo)), key); err != nil {
		return nil, fmt.Errorf("crypt: derive key: %w", err)
	}
	return key, nil
}

// Encrypt serializes payload as canonical JSON and seals it with AES-256-GCM
// under the derived key. The nonce is an HMAC of the plaintext under the same
// key (SIV-style), so identical inputs yield identical ciphertext. Returns the
// ciphertext as base64(nonce || sealed).
func Encrypt(payload any, km KeyMaterial) (string, error) {
	key, err := deriveKey(km)
	if err != nil {
		return "", err
	}
	plaintext, err := commitment.Canonical(payload)
	if err != nil {
		return "", fmt.Errorf("crypt: serialize payload: %w", err)
	}

	mac := hmac.New(sha256.New, key)
	mac.Write(plaintext)
	nonce := mac.Sum(nil)[:nonceSize]

	aead, err := newAEAD(key)
	if err != nil {
		return "", err
	}
	sealed := aead.Seal(nil, nonce, plaintext, nil)

	out := make([]byte, 0, nonceSize+len(sealed))
	out = append(out, nonce...)
	out = append(out, sealed...)
	return base64.StdEncoding.EncodeToString(out), nil
}

// Decrypt opens a ciphertext produced by Encrypt with the same key material
// and returns the canonical JSON plaintext. Malformed input, a wrong key, or a
// corrupted payload all return ErrCiphertext; garbage is never returned.
func Decrypt(ciphertext string, km KeyMaterial) (json.RawMessage, error) {
	key, err := deriveKey(km)
	if err != nil {
		return nil, err
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(ciphertext))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCiphertext, err)
	}
	if len(raw) <= nonceSize {
		return nil, fmt.Errorf("%w: too short", ErrCiphertext)
	}
	nonce, sealed := raw[:nonceSize], raw[nonceSize:]

	aead, err := newAEAD(key)
	if err != nil {
		return nil, err
	}
	plaintext, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: integrity check failed", ErrCiphertext)
	}
	if !json.Valid(plaintext) {
		return nil, fmt.Errorf("%w: plaintext is not JSON", ErrCiphertext)
	}
	return json.RawMessage(plaintext), nil
}

func newAEAD(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("crypt: cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("crypt: gcm: %w", err)
	}
	return aead, nil
}
