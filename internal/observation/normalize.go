package observation

import (
	"fmt"
)

// FromRaw maps one raw detector face (decoded JSON object) into a canonical
// FaceObservation. Known shapes:
//
//   - bounding frame under "frame" {left,top,width,height} or {x,y,...},
//     under "bounds" {origin:{x,y}, size:{width,height}}, or "boundingBox"
//   - landmarks as a name->{x,y} object, or a list of {type, position:{x,y}}
//   - rotations as rotX/rotY/rotZ or headEulerAngleX/Y/Z
//
// Returns an error only when the object is not a face at all (no recognized
// field); a face with a missing frame is still returned so callers can reject
// it with a reason.
func FromRaw(raw map[string]any) (*FaceObservation, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("empty detector result")
	}

	obs := &FaceObservation{}
	obs.Bounds = rawBounds(raw)
	obs.Landmarks = rawLandmarks(raw)

	obs.SmilingProbability = rawFloat(raw, "smilingProbability", "smileProbability")
	obs.LeftEyeOpenProbability = rawFloat(raw, "leftEyeOpenProbability", "leftEyeOpenProb")
	obs.RightEyeOpenProbability = rawFloat(raw, "rightEyeOpenProbability", "rightEyeOpenProb")

	obs.RotationX = rawFloat(raw, "rotX", "headEulerAngleX", "pitchAngle")
	obs.RotationY = rawFloat(raw, "rotY", "headEulerAngleY", "yawAngle")
	obs.RotationZ = rawFloat(raw, "rotZ", "headEulerAngleZ", "rollAngle")

	if obs.Bounds == nil && obs.Landmarks == nil && obs.RotationY == nil {
		return nil, fmt.Errorf("unrecognized detector result shape")
	}
	return obs, nil
}

func rawBounds(raw map[string]any) *Rect {
	for _, key := range []string{"frame", "bounds", "boundingBox"} {
		m, found := raw[key].(map[string]any)
		if !found {
			continue
		}
		// origin/size nesting
		if origin, found := m["origin"].(map[string]any); found {
			size, _ := m["size"].(map[string]any)
			r := &Rect{}
			if v := rawFloat(origin, "x", "left"); v != nil {
				r.Left = *v
			}
			if v := rawFloat(origin, "y", "top"); v != nil {
				r.Top = *v
			}
			if size != nil {
				if v := rawFloat(size, "width"); v != nil {
					r.Width = *v
				}
				if v := rawFloat(size, "height"); v != nil {
					r.Height = *v
				}
			}
			return r
		}
		r := &Rect{}
		if v := rawFloat(m, "left", "x"); v != nil {
			r.Left = *v
		}
		if v := rawFloat(m, "top", "y"); v != nil {
			r.Top = *v
		}
		if v := rawFloat(m, "width"); v != nil {
			r.Width = *v
		}
		if v := rawFloat(m, "height"); v != nil {
			r.Height = *v
		}
		return r
	}
	return nil
}

func rawLandmarks(raw map[string]any) map[string]Point {
	v, found := raw["landmarks"]
	if !found {
		return nil
	}

	out := map[string]Point{}
	switch lm := v.(type) {
	case map[string]any:
		for name, pv := range lm {
			if p, ok := rawPoint(pv); ok {
				out[name] = p
			}
		}
	case []any:
		for _, item := range lm {
			m, ok := item.(map[string]any)
			if !ok {
				continue
			}
			name, _ := m["type"].(string)
			if name == "" {
				continue
			}
			if p, ok := rawPoint(m["position"]); ok {
				out[name] = p
			}
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func rawPoint(v any) (Point, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return Point{}, false
	}
	x := rawFloat(m, "x")
	y := rawFloat(m, "y")
	if x == nil || y == nil {
		return Point{}, false
	}
	return Point{X: *x, Y: *y}, true
}

// rawFloat reads the first present key as a float64. JSON numbers decode as
// float64 but detectors bridging from native code occasionally hand over ints.
func rawFloat(m map[string]any, keys ...string) *float64 {
	for _, key := range keys {
		v, found := m[key]
		if !found {
			continue
		}
		switch n := v.(type) {
		case float64:
			return &n
		case float32:
			f := float64(n)
			return &f
		case int:
			f := float64(n)
			return &f
		case int64:
			f := float64(n)
			return &f
		}
	}
	return nil
}
