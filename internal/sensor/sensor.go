// Package sensor defines the capability contracts for the camera and the
// face detector. The real implementations live in the host application's
// platform layer; this package pins the shapes the pipeline consumes.
package sensor

import (
	"context"
	"errors"

	"github.com/saturnino-fabrica-de-software/veriface/internal/observation"
)

var (
	// ErrCameraBusy is a transient failure: the device is still serving a
	// previous capture. The orchestrator retries without surfacing it.
	ErrCameraBusy = errors.New("camera busy")
	// ErrPermissionDenied means camera access was revoked.
	ErrPermissionDenied = errors.New("camera permission denied")
)

// Photo is one captured frame on disk.
type Photo struct {
	Path   string
	Width  int
	Height int
}

// Camera is the frame acquisition capability.
type Camera interface {
	// RequestPermission asks the platform for camera access.
	RequestPermission(ctx context.Context) (granted bool, err error)

	// TakePhoto captures a single frame at the given quality (0..1).
	TakePhoto(ctx context.Context, quality float64) (*Photo, error)
}

// DetectOptions mirrors the mobile detector configuration surface.
type DetectOptions struct {
	Landmarks      bool
	Classification bool
	MinFaceSize    float64
}

// Detector is the face detection capability. Results are already normalized
// into canonical observations at this boundary.
type Detector interface {
	Detect(ctx context.Context, imagePath string, opts DetectOptions) ([]*observation.FaceObservation, error)
}
