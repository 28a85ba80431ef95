// Package embedding wraps the on-device face embedding model. Model absence
// is an expected condition, not a failure: callers fall back to lower
// priority evidence when ErrModelUnavailable comes back.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"os"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"

	"github.com/saturnino-fabrica-de-software/veriface/internal/observation"
)

var (
	// ErrModelUnavailable signals an absent or non-loadable model, or a
	// frame from which no usable crop could be produced.
	ErrModelUnavailable = errors.New("embedding model unavailable")
)

const (
	// InputSize is the square model input resolution in pixels.
	InputSize = 112
	// Fixed pixel normalization applied before inference.
	pixelMean  = 127.5
	pixelScale = 1.0 / 127.5
)

// Model runs inference over a normalized RGB tensor of
// InputSize*InputSize*3 values. Dim is the model's output vector length.
type Model interface {
	Infer(ctx context.Context, input []float32) ([]float64, error)
	Dim() int
}

// Adapter crops the detected face out of a captured photo, pre-processes the
// pixels and delegates to the model.
type Adapter struct {
	model  Model
	logger *slog.Logger
}

func NewAdapter(model Model, logger *slog.Logger) *Adapter {
	return &Adapter{model: model, logger: logger}
}

// Generate produces the embedding for the detected face in the photo at
// imagePath. Returns ErrModelUnavailable when no model is configured or the
// crop cannot be produced; any other error is a real inference failure.
func (a *Adapter) Generate(ctx context.Context, obs *observation.FaceObservation, imagePath string) ([]float64, error) {
	if a.model == nil {
		return nil, ErrModelUnavailable
	}
	if !obs.HasBounds() {
		return nil, ErrModelUnavailable
	}

	img, err := decodeImage(imagePath)
	if err != nil {
		a.logger.Debug("embedding crop source unreadable", "path", imagePath, "error", err)
		return nil, ErrModelUnavailable
	}

	crop, err := cropFace(img, *obs.Bounds)
	if err != nil {
		a.logger.Debug("face crop failed", "error", err)
		return nil, ErrModelUnavailable
	}

	input := normalizePixels(resize(crop, InputSize, InputSize))

	vec, err := a.model.Infer(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("infer embedding: %w", err)
	}
	if len(vec) == 0 {
		return nil, ErrModelUnavailable
	}
	// unit length keeps similarity scores comparable across captures
	return Normalize(vec), nil
}

func decodeImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

// cropFace clamps the detector bounds to the image and extracts the face
// region. A bounds rectangle falling entirely outside the image means the
// detector and the capture frame disagree; no crop can be produced.
func cropFace(img image.Image, bounds observation.Rect) (image.Image, error) {
	r := image.Rect(
		int(bounds.Left),
		int(bounds.Top),
		int(bounds.Left+bounds.Width),
		int(bounds.Top+bounds.Height),
	).Intersect(img.Bounds())

	if r.Empty() {
		return nil, fmt.Errorf("face bounds outside frame")
	}

	out := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	draw.Copy(out, image.Point{}, img, r, draw.Src, nil)
	return out, nil
}

func resize(img image.Image, width, height int) *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.BiLinear.Scale(out, out.Bounds(), img, img.Bounds(), draw.Src, nil)
	return out
}

// normalizePixels flattens the RGBA image into a normalized RGB tensor.
func normalizePixels(img *image.RGBA) []float32 {
	b := img.Bounds()
	out := make([]float32, 0, b.Dx()*b.Dy()*3)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bb, _ := img.At(x, y).RGBA()
			out = append(out,
				(float32(r>>8)-pixelMean)*pixelScale,
				(float32(g>>8)-pixelMean)*pixelScale,
				(float32(bb>>8)-pixelMean)*pixelScale,
			)
		}
	}
	return out
}
