// Package credential owns the device enrollment credential and the local
// identity cache. All durable writes go through the state machine, which
// enforces that a backend-accepted credential is never overwritten before a
// replacement has been confirmed.
package credential

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"time"

	"golang.org/x/crypto/hkdf"

	"github.com/saturnino-fabrica-de-software/veriface/internal/domain"
)

// KeyPair is the device signing key and its public credential form.
type KeyPair struct {
	Private    ed25519.PrivateKey
	Credential domain.DeviceCredential
}

// DeriveKeyPair derives the device key pair from the installation secret and
// the platform device fingerprint via HKDF-SHA256. The same installation
// always re-derives the same credential, so enrollment retries after a
// reinstall-free crash keep their key.
func DeriveKeyPair(installSecret []byte, deviceFingerprint string) (*KeyPair, error) {
	if len(installSecret) == 0 {
		return nil, fmt.Errorf("empty install secret")
	}
	if deviceFingerprint == "" {
		return nil, fmt.Errorf("empty device fingerprint")
	}

	ikm := append(append([]byte{}, installSecret...), []byte(deviceFingerprint)...)
	hk := hkdf.New(sha256.New, ikm, nil, []byte("device-credential"))

	seed := make([]byte, ed25519.SeedSize)
	if _, err := io.ReadFull(hk, seed); err != nil {
		return nil, fmt.Errorf("derive key seed: %w", err)
	}

	priv := ed25519.NewKeyFromSeed(seed)
	pub := priv.Public().(ed25519.PublicKey)

	return &KeyPair{
		Private: priv,
		Credential: domain.DeviceCredential{
			PublicKey: base64.StdEncoding.EncodeToString(pub),
			KeyID:     keyID(pub),
			CreatedAt: time.Now().UTC(),
		},
	}, nil
}

// keyID is a short stable identifier for the public key.
func keyID(pub ed25519.PublicKey) string {
	sum := sha256.Sum256(pub)
	return hex.EncodeToString(sum[:8])
}
