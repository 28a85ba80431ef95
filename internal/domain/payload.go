package domain

// LandmarkPoint is one named facial landmark in frame coordinates, used as
// the lowest-priority evidence form on the wire.
type LandmarkPoint struct {
	Name string  `json:"name"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

// VerificationPayload is the evidence bundle submitted to the backend. The
// backend makes the authoritative accept/reject decision; this struct only
// fixes which evidence travels and under which keys.
type VerificationPayload struct {
	FaceEmbedding        []float64       `json:"faceEmbedding,omitempty"`
	FaceImage            string          `json:"faceImage,omitempty"`
	FaceLandmarks        []LandmarkPoint `json:"faceLandmarks,omitempty"`
	FaceID               string          `json:"faceId,omitempty"`
	FingerprintPublicKey string          `json:"fingerprintPublicKey,omitempty"`
	DeviceAssertion      string          `json:"deviceAssertion,omitempty"`
}

// EvidenceKind names the primary evidence carried by a payload.
type EvidenceKind string

const (
	EvidenceEmbedding EvidenceKind = "embedding"
	EvidenceImage     EvidenceKind = "image"
	EvidenceLandmarks EvidenceKind = "landmarks"
)

// PrimaryEvidence reports which evidence form the payload leads with.
func (p *VerificationPayload) PrimaryEvidence() EvidenceKind {
	switch {
	case len(p.FaceEmbedding) > 0:
		return EvidenceEmbedding
	case p.FaceImage != "":
		return EvidenceImage
	default:
		return EvidenceLandmarks
	}
}

// VerificationResult is the backend's authoritative decision for one login
// attempt.
type VerificationResult struct {
	Verified   bool    `json:"verified"`
	ExternalID string  `json:"external_id,omitempty"`
	Confidence float64 `json:"confidence"`
}

// EnrollmentResult is the backend's answer to an enrollment attempt. On
// conflict, Classification carries the backend's reason string.
type EnrollmentResult struct {
	Enrolled       bool   `json:"enrolled"`
	ExternalID     string `json:"external_id,omitempty"`
	Classification string `json:"classification,omitempty"`
}
