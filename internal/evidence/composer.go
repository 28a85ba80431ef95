// Package evidence assembles the verification payload from a capture
// result. Evidence forms are tried in a fixed priority order (embedding,
// then image, then landmarks) through a declarative provider table; the
// first one present becomes the primary evidence. The composer never
// decides acceptance, it only controls what travels.
package evidence

import (
	"encoding/base64"
	"log/slog"
	"os"

	"github.com/saturnino-fabrica-de-software/veriface/internal/capture"
	"github.com/saturnino-fabrica-de-software/veriface/internal/domain"
)

// provider is one named evidence source. collect returns nil when this form
// of evidence is absent from the capture.
type provider struct {
	name    string
	collect func(c *Composer, result capture.Result) applyFunc
}

type applyFunc func(p *domain.VerificationPayload)

// providers is the fallback order. Embedding is the primary match signal
// when present; the raw image lets the backend compute its own; landmarks
// are the last resort.
var providers = []provider{
	{name: "embedding", collect: collectEmbedding},
	{name: "image", collect: collectImage},
	{name: "landmarks", collect: collectLandmarks},
}

// Composer builds verification payloads.
type Composer struct {
	logger *slog.Logger

	// readFile is swappable for tests
	readFile func(path string) ([]byte, error)
}

func NewComposer(logger *slog.Logger) *Composer {
	return &Composer{logger: logger, readFile: os.ReadFile}
}

// Build assembles the outbound payload. The credential public key and the
// device assertion are attached whenever available; FaceID rides along as a
// secondary disambiguator. Absence of all face evidence aborts before any
// network call with ErrNoFaceEvidence.
func (c *Composer) Build(result capture.Result, cred *domain.DeviceCredential, assertion string) (*domain.VerificationPayload, error) {
	payload := &domain.VerificationPayload{}

	var primary applyFunc
	var primaryName string
	for _, p := range providers {
		if apply := p.collect(c, result); apply != nil {
			primary = apply
			primaryName = p.name
			break
		}
	}
	if primary == nil {
		return nil, domain.ErrNoFaceEvidence
	}
	primary(payload)

	if result.FaceID != "" {
		payload.FaceID = result.FaceID
	}
	if cred != nil && !cred.IsZero() {
		payload.FingerprintPublicKey = cred.Normalized().PublicKey
	}
	if assertion != "" {
		payload.DeviceAssertion = assertion
	}

	c.logger.Debug("evidence composed",
		"primary", primaryName,
		"face_id", payload.FaceID != "",
		"device_bound", payload.FingerprintPublicKey != "",
	)
	return payload, nil
}

func collectEmbedding(c *Composer, result capture.Result) applyFunc {
	if len(result.FaceEmbedding) == 0 {
		return nil
	}
	return func(p *domain.VerificationPayload) {
		p.FaceEmbedding = result.FaceEmbedding
	}
}

func collectImage(c *Composer, result capture.Result) applyFunc {
	if result.ImagePath == "" {
		return nil
	}
	raw, err := c.readFile(result.ImagePath)
	if err != nil || len(raw) == 0 {
		c.logger.Debug("capture image unreadable, skipping image evidence",
			"path", result.ImagePath, "error", err)
		return nil
	}
	encoded := base64.StdEncoding.EncodeToString(raw)
	return func(p *domain.VerificationPayload) {
		p.FaceImage = encoded
	}
}

func collectLandmarks(c *Composer, result capture.Result) applyFunc {
	if result.Observation == nil {
		return nil
	}
	points := result.Observation.OrderedLandmarks()
	if len(points) == 0 {
		return nil
	}
	landmarks := make([]domain.LandmarkPoint, len(points))
	for i, pt := range points {
		landmarks[i] = domain.LandmarkPoint{Name: pt.Name, X: pt.X, Y: pt.Y}
	}
	return func(p *domain.VerificationPayload) {
		p.FaceLandmarks = landmarks
	}
}
