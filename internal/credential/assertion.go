package credential

import (
	"crypto/ed25519"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// assertionTTL keeps device assertions short-lived; they prove possession of
// the device key at submission time, nothing more.
const assertionTTL = 2 * time.Minute

type assertionClaims struct {
	jwt.RegisteredClaims
	KeyID string `json:"kid"`
}

// NewAssertion mints a short-lived EdDSA token signed with the device
// private key. The backend checks it against the enrolled public key for
// device-binding verification.
func NewAssertion(priv ed25519.PrivateKey, keyID, installationID string) (string, error) {
	if len(priv) == 0 {
		return "", fmt.Errorf("missing device private key")
	}

	now := time.Now()
	claims := assertionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   installationID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(assertionTTL)),
		},
		KeyID: keyID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	signed, err := token.SignedString(priv)
	if err != nil {
		return "", fmt.Errorf("sign device assertion: %w", err)
	}
	return signed, nil
}

// ParseAssertion validates an assertion against a public key. Used in tests
// and by the dev harness; the production verifier is the backend.
func ParseAssertion(tokenString string, pub ed25519.PublicKey) (string, error) {
	claims := &assertionClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodEd25519); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return pub, nil
	})
	if err != nil {
		return "", err
	}
	return claims.KeyID, nil
}
