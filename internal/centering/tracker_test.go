package centering

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/saturnino-fabrica-de-software/veriface/internal/observation"
)

const (
	frameW = 720.0
	frameH = 1280.0
)

// faceAt returns an observation whose bounding frame is centered on (x, y).
func faceAt(x, y float64) *observation.FaceObservation {
	return &observation.FaceObservation{
		Bounds: &observation.Rect{Left: x - 100, Top: y - 110, Width: 200, Height: 220},
	}
}

func centered() *observation.FaceObservation {
	return faceAt(frameW/2, frameH/2)
}

func TestTracker_RequiresTwoConsecutiveCenteredTicks(t *testing.T) {
	tr := NewTracker()

	first := tr.Update(centered(), frameW, frameH)
	assert.True(t, first.Centered)
	assert.False(t, first.Stable)

	second := tr.Update(centered(), frameW, frameH)
	assert.True(t, second.Centered)
	assert.True(t, second.Stable)
}

func TestTracker_NonCenteredObservationResetsCounter(t *testing.T) {
	tr := NewTracker()

	tr.Update(centered(), frameW, frameH)
	off := tr.Update(faceAt(frameW, frameH/2), frameW, frameH)
	assert.False(t, off.Centered)

	// Counter restarted: one centered tick is not enough again.
	again := tr.Update(centered(), frameW, frameH)
	assert.True(t, again.Centered)
	assert.False(t, again.Stable)
}

func TestTracker_NoFaceResetsCounter(t *testing.T) {
	tr := NewTracker()

	tr.Update(centered(), frameW, frameH)
	gone := tr.Update(&observation.FaceObservation{}, frameW, frameH)
	assert.False(t, gone.Centered)
	assert.NotEmpty(t, gone.Guidance)

	again := tr.Update(centered(), frameW, frameH)
	assert.False(t, again.Stable)
}

func TestTracker_OffsetPercentages(t *testing.T) {
	tr := NewTracker()

	// Face center at 75% of the frame width: 25% offset, still tolerated.
	status := tr.Update(faceAt(frameW*0.75, frameH/2), frameW, frameH)
	assert.InDelta(t, 25.0, status.OffsetXPercent, 1e-9)
	assert.True(t, status.Centered)

	// Just past the tolerance on the Y axis.
	tr.Reset()
	status = tr.Update(faceAt(frameW/2, frameH*0.76), frameW, frameH)
	assert.False(t, status.Centered)
	assert.InDelta(t, 26.0, status.OffsetYPercent, 1e-9)
}

func TestTracker_Guidance(t *testing.T) {
	tests := []struct {
		name string
		x, y float64
		want string
	}{
		{name: "face right of center", x: frameW * 0.95, y: frameH / 2, want: "move left"},
		{name: "face left of center", x: frameW * 0.05, y: frameH / 2, want: "move right"},
		{name: "face below center", x: frameW / 2, y: frameH * 0.95, want: "move up"},
		{name: "face above center", x: frameW / 2, y: frameH * 0.05, want: "move down"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := NewTracker()
			status := tr.Update(faceAt(tt.x, tt.y), frameW, frameH)
			assert.False(t, status.Centered)
			assert.Equal(t, tt.want, status.Guidance)
		})
	}
}

func TestTracker_StabilityPersistsWhileCentered(t *testing.T) {
	tr := NewTracker()
	tr.Update(centered(), frameW, frameH)
	tr.Update(centered(), frameW, frameH)

	third := tr.Update(centered(), frameW, frameH)
	assert.True(t, third.Stable)
}
