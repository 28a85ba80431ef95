package observation

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, raw string) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &m))
	return m
}

func TestFromRaw_FrameShapes(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{
			name: "flat frame with left/top",
			raw:  `{"frame":{"left":10,"top":20,"width":100,"height":120}}`,
		},
		{
			name: "flat frame with x/y",
			raw:  `{"frame":{"x":10,"y":20,"width":100,"height":120}}`,
		},
		{
			name: "origin/size nesting",
			raw:  `{"bounds":{"origin":{"x":10,"y":20},"size":{"width":100,"height":120}}}`,
		},
		{
			name: "boundingBox alias",
			raw:  `{"boundingBox":{"left":10,"top":20,"width":100,"height":120}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obs, err := FromRaw(decode(t, tt.raw))
			require.NoError(t, err)
			require.True(t, obs.HasBounds())
			assert.Equal(t, Rect{Left: 10, Top: 20, Width: 100, Height: 120}, *obs.Bounds)
		})
	}
}

func TestFromRaw_LandmarkShapes(t *testing.T) {
	asObject := `{
		"frame":{"left":0,"top":0,"width":100,"height":100},
		"landmarks":{"leftEye":{"x":30,"y":40},"rightEye":{"x":70,"y":40}}
	}`
	asList := `{
		"frame":{"left":0,"top":0,"width":100,"height":100},
		"landmarks":[
			{"type":"leftEye","position":{"x":30,"y":40}},
			{"type":"rightEye","position":{"x":70,"y":40}}
		]
	}`

	for name, raw := range map[string]string{"object": asObject, "list": asList} {
		t.Run(name, func(t *testing.T) {
			obs, err := FromRaw(decode(t, raw))
			require.NoError(t, err)
			require.Len(t, obs.Landmarks, 2)
			assert.Equal(t, Point{X: 30, Y: 40}, obs.Landmarks[LeftEye])
			assert.Equal(t, Point{X: 70, Y: 40}, obs.Landmarks[RightEye])
		})
	}
}

func TestFromRaw_RotationAliases(t *testing.T) {
	obs, err := FromRaw(decode(t, `{"frame":{"left":0,"top":0,"width":10,"height":10},"headEulerAngleY":22.5}`))
	require.NoError(t, err)
	require.NotNil(t, obs.RotationY)
	assert.InDelta(t, 22.5, *obs.RotationY, 1e-9)

	obs, err = FromRaw(decode(t, `{"frame":{"left":0,"top":0,"width":10,"height":10},"rotY":-12}`))
	require.NoError(t, err)
	require.NotNil(t, obs.RotationY)
	assert.InDelta(t, -12, *obs.RotationY, 1e-9)
}

func TestFromRaw_Unrecognized(t *testing.T) {
	_, err := FromRaw(map[string]any{})
	assert.Error(t, err)

	_, err = FromRaw(map[string]any{"confidence": 0.9})
	assert.Error(t, err)
}

func TestEyeOpenMean(t *testing.T) {
	l, r := 0.9, 0.5
	obs := &FaceObservation{LeftEyeOpenProbability: &l, RightEyeOpenProbability: &r}
	mean, ok := obs.EyeOpenMean()
	require.True(t, ok)
	assert.InDelta(t, 0.7, mean, 1e-9)

	obs = &FaceObservation{LeftEyeOpenProbability: &l}
	mean, ok = obs.EyeOpenMean()
	require.True(t, ok)
	assert.InDelta(t, 0.9, mean, 1e-9)

	_, ok = (&FaceObservation{}).EyeOpenMean()
	assert.False(t, ok)
}

func TestOrderedLandmarks_Deterministic(t *testing.T) {
	obs := &FaceObservation{Landmarks: map[string]Point{
		NoseBase: {X: 3}, LeftEye: {X: 1}, RightEye: {X: 2},
	}}
	pts := obs.OrderedLandmarks()
	require.Len(t, pts, 3)
	assert.Equal(t, LeftEye, pts[0].Name)
	assert.Equal(t, RightEye, pts[1].Name)
	assert.Equal(t, NoseBase, pts[2].Name)
}
