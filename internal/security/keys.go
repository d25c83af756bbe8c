package security

import (
	"crypto"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"os"
	"strings"
)

// ErrInvalidKey is returned for malformed PEM or an unsupported key type.
var ErrInvalidKey = errors.New("invalid key")

// LoadPEM resolves s to PEM bytes. Inline PEM (starts with "-----BEGIN") is
// returned as-is; anything else is treated as a file path.
func LoadPEM(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, ErrInvalidKey
	}
	if strings.HasPrefix(s, "-----BEGIN") {
		return []byte(s), nil
	}
	return os.ReadFile(s)
}

func decodeBlock(s string) (*pem.Block, error) {
	pemBytes, err := LoadPEM(s)
	if err != nil {
		return nil, err
	}
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, ErrInvalidKey
	}
	return block, nil
}

// ParsePublicKey parses an RSA or ECDSA public key from inline PEM or a file path.
// This is the verification key for bearer tokens issued by the finance backend.
func ParsePublicKey(s string) (crypto.PublicKey, error) {
	block, err := decodeBlock(s)
	if err != nil {
		return nil, err
	}
	switch block.Type {
	case "PUBLIC KEY":
		return x509.ParsePKIXPublicKey(block.Bytes)
	case "RSA PUBLIC KEY":
		return x509.ParsePKCS1PublicKey(block.Bytes)
	}
	return nil, ErrInvalidKey
}

// ParsePrivateKey parses an RSA or ECDSA private key from inline PEM or a file
// path. Only tests sign tokens; the service itself never does.
func ParsePrivateKey(s string) (crypto.Signer, error) {
	block, err := decodeBlock(s)
	if err != nil {
		return nil, err
	}
	switch block.Type {
	case "PRIVATE KEY":
		key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, err
		}
		if signer, ok := key.(crypto.Signer); ok {
			return signer, nil
		}
		return nil, ErrInvalidKey
	case "RSA PRIVATE KEY":
		return x509.ParsePKCS1PrivateKey(block.Bytes)
	case "EC PRIVATE KEY":
		return x509.ParseECPrivateKey(block.Bytes)
	}
	return nil, ErrInvalidKey
}
