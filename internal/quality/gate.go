// Package quality gates detector observations before they can become a
// capture candidate: pose, eye openness and apparent size are checked
// locally so obviously unusable frames never reach the backend.
package quality

import (
	"math"

	"github.com/saturnino-fabrica-de-software/veriface/internal/observation"
)

const (
	// MaxYawDegrees is the largest tolerated left/right head turn.
	MaxYawDegrees = 30.0
	// MinEyeOpenProbability is the minimum mean eye-open probability.
	MinEyeOpenProbability = 0.5
	// MinFaceWidthPx rejects faces too far from the camera.
	MinFaceWidthPx = 100.0
	// Frontal faces keep their bounding frame close to square.
	MinAspectRatio = 0.7
	MaxAspectRatio = 1.4
)

// Reason classifies why an observation was rejected.
type Reason string

const (
	ReasonNoFace     Reason = "no_face"
	ReasonHeadTurned Reason = "head_turned"
	ReasonEyesClosed Reason = "eyes_closed"
	ReasonTooFar     Reason = "too_far"
	ReasonNotFrontal Reason = "not_frontal"
)

// Guidance returns the user-facing hint for a rejection.
func (r Reason) Guidance() string {
	switch r {
	case ReasonNoFace:
		return "position your face in the frame"
	case ReasonHeadTurned:
		return "look straight at the camera"
	case ReasonEyesClosed:
		return "open your eyes"
	case ReasonTooFar:
		return "move closer to the camera"
	case ReasonNotFrontal:
		return "face the camera directly"
	default:
		return ""
	}
}

// Verdict is the outcome of one evaluation. No side effects beyond this.
type Verdict struct {
	Accepted bool
	Reason   Reason
}

// Gate evaluates observations against fixed thresholds.
type Gate struct{}

func NewGate() *Gate {
	return &Gate{}
}

// Evaluate applies the rejection rules in order and returns the first hit.
func (g *Gate) Evaluate(obs *observation.FaceObservation) Verdict {
	if !obs.HasBounds() {
		return rejected(ReasonNoFace)
	}

	if obs.RotationY != nil && math.Abs(*obs.RotationY) > MaxYawDegrees {
		return rejected(ReasonHeadTurned)
	}

	if mean, ok := obs.EyeOpenMean(); ok && mean < MinEyeOpenProbability {
		return rejected(ReasonEyesClosed)
	}

	if obs.Bounds.Width < MinFaceWidthPx {
		return rejected(ReasonTooFar)
	}

	ratio := obs.Bounds.AspectRatio()
	if ratio < MinAspectRatio || ratio > MaxAspectRatio {
		return rejected(ReasonNotFrontal)
	}

	return Verdict{Accepted: true}
}

func rejected(reason Reason) Verdict {
	return Verdict{Accepted: false, Reason: reason}
}
