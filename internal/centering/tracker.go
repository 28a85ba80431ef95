// Package centering tracks how far a detected face sits from the frame
// center and smooths the signal over consecutive detections so a single
// borderline tick does not flip the UI between "hold still" and guidance.
package centering

import (
	"math"

	"github.com/saturnino-fabrica-de-software/veriface/internal/observation"
)

const (
	// MaxOffsetPercent is the tolerated face-center offset from frame
	// center, as a percentage of the frame dimension on each axis.
	MaxOffsetPercent = 25.0
	// StableTicks is how many consecutive centered observations are
	// required before the tracker reports stability.
	StableTicks = 2
)

// Status is the tracker output for one observation.
type Status struct {
	Centered bool
	// Stable is true once StableTicks consecutive observations were
	// centered. This, not Centered, is the capture trigger.
	Stable bool
	// Offsets of the face center from the frame center, as a percentage
	// of frame width/height. Positive X means the face sits to the right.
	OffsetXPercent float64
	OffsetYPercent float64
	// Guidance is a movement hint, empty when centered.
	Guidance string
}

// Tracker accumulates consecutive-centered state. Not safe for concurrent
// use; each capture session owns one.
type Tracker struct {
	consecutive int
}

func NewTracker() *Tracker {
	return &Tracker{}
}

// Reset clears the consecutive-centered counter.
func (t *Tracker) Reset() {
	t.consecutive = 0
}

// Update processes one observation against the frame dimensions. A missing
// face or a non-centered face resets the counter to zero.
func (t *Tracker) Update(obs *observation.FaceObservation, frameWidth, frameHeight float64) Status {
	if !obs.HasBounds() || frameWidth <= 0 || frameHeight <= 0 {
		t.consecutive = 0
		return Status{Guidance: "position your face in the frame"}
	}

	faceX, faceY := obs.Bounds.Center()
	offsetX := (faceX - frameWidth/2) / frameWidth * 100
	offsetY := (faceY - frameHeight/2) / frameHeight * 100

	status := Status{
		OffsetXPercent: offsetX,
		OffsetYPercent: offsetY,
	}

	if math.Abs(offsetX) <= MaxOffsetPercent && math.Abs(offsetY) <= MaxOffsetPercent {
		status.Centered = true
		t.consecutive++
		status.Stable = t.consecutive >= StableTicks
		return status
	}

	t.consecutive = 0
	status.Guidance = guidance(offsetX, offsetY)
	return status
}

// guidance derives the movement hint from the sign of the larger offset.
// Offsets are face-relative, so a face sitting right of center means the
// user should move left.
func guidance(offsetX, offsetY float64) string {
	if math.Abs(offsetX) >= math.Abs(offsetY) {
		if offsetX > 0 {
			return "move left"
		}
		return "move right"
	}
	if offsetY > 0 {
		return "move up"
	}
	return "move down"
}
