// Package security verifies bearer tokens issued by the finance backend.
// The attestation service never issues tokens; it only holds the issuer's public key.
package security

import (
	"crypto"
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned when a token is malformed or invalid.
var ErrInvalidToken = errors.New("invalid token")

// APIClaims holds the JWT claims accepted on API requests.
// wallet_address is optional; when present it names the wallet the caller attests for.
type APIClaims struct {
	jwt.RegisteredClaims
	WalletAddress string `json:"wallet_address,omitempty"`
}

// TokenVerifier validates RS256/ES256 tokens against the issuer's public key.
type TokenVerifier struct {
	publicKey crypto.PublicKey
	issuer    string
	audience  string
}

// NewTokenVerifier returns a TokenVerifier for the given public key, issuer, and audience.
func NewTokenVerifier(publicKey crypto.PublicKey, issuer, audience string) *TokenVerifier {
	return &TokenVerifier{publicKey: publicKey, issuer: issuer, audience: audience}
}

// Verify parses and validates the token (signature, exp, iss, aud) and returns its claims.
// Only asymmetric signing methods are accepted; HMAC tokens are rejected outright.
func (v *TokenVerifier) Verify(tokenString string) (*APIClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &APIClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); ok {
			return v.publicKey, nil
		}
		if _, ok := token.Method.(*jwt.SigningMethodECDSA); ok {
			return v.publicKey, nil
		}
		return nil, ErrInvalidToken
	})
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*APIClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Issuer != v.issuer {
		return nil, ErrInvalidToken
	}
	audOk := false
	for _, a := range claims.Audience {
		if a == v.audience {
			audOk = true
			break
		}
	}
	if !audOk {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
