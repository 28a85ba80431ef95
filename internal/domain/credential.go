package domain

import (
	"strings"
	"time"
)

// DeviceCredential is the public key that binds biometric login to a single
// installation. Generated once at enrollment and persisted until a later
// enrollment is confirmed by the backend.
type DeviceCredential struct {
	PublicKey string    `json:"public_key"`
	KeyID     string    `json:"key_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Normalized returns a copy with the public key trimmed of surrounding
// whitespace. Storage may hand back whitespace-corrupted values; every
// compare and every transmission goes through this first.
func (c DeviceCredential) Normalized() DeviceCredential {
	c.PublicKey = strings.TrimSpace(c.PublicKey)
	return c
}

// Equal compares two credentials by their normalized public key.
func (c DeviceCredential) Equal(other DeviceCredential) bool {
	return c.Normalized().PublicKey == other.Normalized().PublicKey
}

// IsZero reports whether no credential is present.
func (c DeviceCredential) IsZero() bool {
	return strings.TrimSpace(c.PublicKey) == ""
}

// IdentitySnapshot is the locally cached identity signal for the most recent
// backend-confirmed enrollment or login. It disambiguates multiple users
// sharing one device; it is never proof of identity on its own.
type IdentitySnapshot struct {
	FaceID    string    `json:"face_id"`
	Features  []float64 `json:"features,omitempty"`
	Embedding []float64 `json:"embedding,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}
