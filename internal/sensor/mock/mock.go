// Package mock provides a deterministic in-memory sensor stack for tests and
// the dev harness. Frames are scripted: each detector call consumes the next
// entry, and the last entry repeats once the script is exhausted.
package mock

import (
	"context"
	"fmt"
	"sync"

	"github.com/saturnino-fabrica-de-software/veriface/internal/observation"
	"github.com/saturnino-fabrica-de-software/veriface/internal/sensor"
)

// Frame is one scripted detector outcome.
type Frame struct {
	Faces []*observation.FaceObservation
	Err   error
	// Delay suspends the detector call, for timeout tests.
	Delay func(ctx context.Context) error
}

// Camera implements sensor.Camera with counted deterministic photos.
type Camera struct {
	mu        sync.Mutex
	granted   bool
	shots     int
	busyShots int
	FrameW    int
	FrameH    int
}

func NewCamera() *Camera {
	return &Camera{granted: true, FrameW: 720, FrameH: 1280}
}

// DenyPermission makes subsequent permission requests fail.
func (c *Camera) DenyPermission() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.granted = false
}

// FailBusy makes the next n TakePhoto calls return sensor.ErrCameraBusy.
func (c *Camera) FailBusy(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.busyShots = n
}

func (c *Camera) RequestPermission(ctx context.Context) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.granted, nil
}

func (c *Camera) TakePhoto(ctx context.Context, quality float64) (*sensor.Photo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.granted {
		return nil, sensor.ErrPermissionDenied
	}
	if c.busyShots > 0 {
		c.busyShots--
		return nil, sensor.ErrCameraBusy
	}
	c.shots++
	return &sensor.Photo{
		Path:   fmt.Sprintf("mock-photo-%04d.jpg", c.shots),
		Width:  c.FrameW,
		Height: c.FrameH,
	}, nil
}

// Shots returns how many photos were taken.
func (c *Camera) Shots() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.shots
}

// Detector implements sensor.Detector by replaying a script.
type Detector struct {
	mu     sync.Mutex
	script []Frame
	calls  int
}

func NewDetector(script ...Frame) *Detector {
	return &Detector{script: script}
}

// Append adds frames to the end of the script.
func (d *Detector) Append(frames ...Frame) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.script = append(d.script, frames...)
}

func (d *Detector) Detect(ctx context.Context, imagePath string, opts sensor.DetectOptions) ([]*observation.FaceObservation, error) {
	d.mu.Lock()
	if len(d.script) == 0 {
		d.mu.Unlock()
		return nil, nil
	}
	idx := d.calls
	if idx >= len(d.script) {
		idx = len(d.script) - 1
	}
	d.calls++
	frame := d.script[idx]
	d.mu.Unlock()

	if frame.Delay != nil {
		if err := frame.Delay(ctx); err != nil {
			return nil, err
		}
	}
	if frame.Err != nil {
		return nil, frame.Err
	}
	return frame.Faces, nil
}

// Calls returns how many detect calls were served.
func (d *Detector) Calls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

// CenteredFace builds a frontal, centered, eyes-open observation for a
// frameW x frameH frame, usable as a passing frame in scripts.
func CenteredFace(frameW, frameH float64) *observation.FaceObservation {
	open := 0.95
	yaw := 2.0
	smile := 0.1
	w, h := 220.0, 240.0
	left := frameW/2 - w/2
	top := frameH/2 - h/2
	return &observation.FaceObservation{
		Bounds: &observation.Rect{Left: left, Top: top, Width: w, Height: h},
		Landmarks: map[string]observation.Point{
			observation.LeftEye:  {X: left + w*0.3, Y: top + h*0.4},
			observation.RightEye: {X: left + w*0.7, Y: top + h*0.4},
			observation.NoseBase: {X: left + w*0.5, Y: top + h*0.6},
		},
		SmilingProbability:      &smile,
		LeftEyeOpenProbability:  &open,
		RightEyeOpenProbability: &open,
		RotationY:               &yaw,
	}
}

var (
	_ sensor.Camera   = (*Camera)(nil)
	_ sensor.Detector = (*Detector)(nil)
)
