package observation

// Canonical face detector output. Platform detectors disagree on field names
// and nesting; everything entering the pipeline passes through FromRaw first
// so the variance stays in one translation layer.

// Rect is a face bounding frame in frame pixel coordinates.
type Rect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Center returns the geometric center of the rect.
func (r Rect) Center() (x, y float64) {
	return r.Left + r.Width/2, r.Top + r.Height/2
}

// AspectRatio returns width/height, or 0 for a degenerate rect.
func (r Rect) AspectRatio() float64 {
	if r.Height <= 0 {
		return 0
	}
	return r.Width / r.Height
}

// Point is a landmark position in frame pixel coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Landmark names follow the mobile detector vocabulary.
const (
	LeftEye     = "leftEye"
	RightEye    = "rightEye"
	NoseBase    = "noseBase"
	LeftEar     = "leftEar"
	RightEar    = "rightEar"
	LeftCheek   = "leftCheek"
	RightCheek  = "rightCheek"
	MouthLeft   = "mouthLeft"
	MouthRight  = "mouthRight"
	MouthBottom = "mouthBottom"
)

// landmarkOrder fixes iteration order for deterministic serialization.
var landmarkOrder = []string{
	LeftEye, RightEye, NoseBase,
	LeftEar, RightEar, LeftCheek, RightCheek,
	MouthLeft, MouthRight, MouthBottom,
}

// FaceObservation is one detector result. Transient: produced per detection
// tick and discarded after processing unless selected as the capture frame.
type FaceObservation struct {
	Bounds    *Rect            `json:"bounds,omitempty"`
	Landmarks map[string]Point `json:"landmarks,omitempty"`

	SmilingProbability      *float64 `json:"smiling_probability,omitempty"`
	LeftEyeOpenProbability  *float64 `json:"left_eye_open_probability,omitempty"`
	RightEyeOpenProbability *float64 `json:"right_eye_open_probability,omitempty"`

	// Head rotation in degrees: X pitch, Y yaw, Z roll.
	RotationX *float64 `json:"rotation_x,omitempty"`
	RotationY *float64 `json:"rotation_y,omitempty"`
	RotationZ *float64 `json:"rotation_z,omitempty"`
}

// HasBounds reports whether the detector produced a usable bounding frame.
func (o *FaceObservation) HasBounds() bool {
	return o != nil && o.Bounds != nil && o.Bounds.Width > 0 && o.Bounds.Height > 0
}

// EyeOpenMean returns the mean of the left/right eye-open probabilities.
// ok is false when neither probability is present.
func (o *FaceObservation) EyeOpenMean() (mean float64, ok bool) {
	var sum float64
	var n int
	if o.LeftEyeOpenProbability != nil {
		sum += *o.LeftEyeOpenProbability
		n++
	}
	if o.RightEyeOpenProbability != nil {
		sum += *o.RightEyeOpenProbability
		n++
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

// OrderedLandmarks returns the present landmarks in canonical order.
func (o *FaceObservation) OrderedLandmarks() []NamedPoint {
	if len(o.Landmarks) == 0 {
		return nil
	}
	out := make([]NamedPoint, 0, len(o.Landmarks))
	for _, name := range landmarkOrder {
		if p, found := o.Landmarks[name]; found {
			out = append(out, NamedPoint{Name: name, Point: p})
		}
	}
	return out
}

// NamedPoint pairs a landmark name with its position.
type NamedPoint struct {
	Name string
	Point
}
