// Package faceid derives a short deterministic fingerprint from facial
// geometry. Landmark positions are normalized against the bounding frame so
// the fingerprint survives translation and scale changes between captures.
//
// The fingerprint is a similarity signal, not a cryptographic identity:
// structurally different faces can collide. Callers combine it with an
// embedding or the device credential and never gate access on it alone.
package faceid

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/saturnino-fabrica-de-software/veriface/internal/observation"
)

// precision is the quantization applied to every feature before hashing.
// This rounding is what makes the hash reproducible across near-identical
// captures.
const precision = 4

// Compute returns the FaceId for an observation. The feature set degrades
// through three levels: full landmark geometry, box-and-rotation only, and
// finally a serialization of the raw observation when the detector produced
// neither landmarks nor rotation.
func Compute(obs *observation.FaceObservation) string {
	features := Features(obs)
	if features == nil {
		raw, err := json.Marshal(obs)
		if err != nil {
			return ""
		}
		return hashString(string(raw))
	}
	return hashString(encode(features))
}

// Features returns the normalized quantized feature vector, or nil when the
// observation carries too little structure to build one.
func Features(obs *observation.FaceObservation) []float64 {
	if obs == nil || !obs.HasBounds() {
		return nil
	}

	if landmarks := obs.OrderedLandmarks(); len(landmarks) > 0 {
		return landmarkFeatures(obs, landmarks)
	}
	if obs.RotationY != nil {
		return boxFeatures(obs)
	}
	return nil
}

// landmarkFeatures builds the full feature vector: per-landmark positions
// relative to the box center normalized by box size, inter-eye distance,
// smiling probability, aspect ratio and normalized yaw.
func landmarkFeatures(obs *observation.FaceObservation, landmarks []observation.NamedPoint) []float64 {
	bounds := obs.Bounds
	centerX, centerY := bounds.Center()

	features := make([]float64, 0, 2*len(landmarks)+4)
	for _, lm := range landmarks {
		features = append(features,
			quantize((lm.X-centerX)/bounds.Width),
			quantize((lm.Y-centerY)/bounds.Height),
		)
	}

	// Inter-eye distance normalized by box width is largely pose-invariant.
	if left, ok := obs.Landmarks[observation.LeftEye]; ok {
		if right, ok := obs.Landmarks[observation.RightEye]; ok {
			dx := (right.X - left.X) / bounds.Width
			dy := (right.Y - left.Y) / bounds.Height
			features = append(features, quantize(math.Hypot(dx, dy)))
		}
	}

	if obs.SmilingProbability != nil {
		features = append(features, quantize(*obs.SmilingProbability))
	}
	features = append(features, quantize(bounds.AspectRatio()))
	if obs.RotationY != nil {
		features = append(features, quantize(*obs.RotationY/90))
	}
	return features
}

// boxFeatures is the degenerate fallback when no landmarks are available.
func boxFeatures(obs *observation.FaceObservation) []float64 {
	bounds := obs.Bounds
	return []float64{
		quantize(bounds.Left / bounds.Width),
		quantize(bounds.Top / bounds.Height),
		quantize(bounds.AspectRatio()),
		quantize(*obs.RotationY / 90),
	}
}

func quantize(v float64) float64 {
	scale := math.Pow10(precision)
	q := math.Round(v*scale) / scale
	// collapse -0 so equal feature values always encode identically
	if q == 0 {
		return 0
	}
	return q
}

func encode(features []float64) string {
	parts := make([]string, len(features))
	for i, f := range features {
		parts[i] = strconv.FormatFloat(f, 'f', precision, 64)
	}
	return strings.Join(parts, "|")
}

// hashString applies a polynomial rolling hash wrapped to signed 32 bits and
// returns the absolute value in hex.
func hashString(s string) string {
	var h int32
	for _, b := range []byte(s) {
		h = h*31 + int32(b)
	}
	v := int64(h)
	if v < 0 {
		v = -v
	}
	return strconv.FormatInt(v, 16)
}
