// Package features reduces an uploaded crop image to the small colour and
// texture summary used for signature matching.
package features

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
	"gonum.org/v1/gonum/stat"
)

const (
	// CanvasSize is the side of the square canvas every image is resized to.
	// EdgeThreshold and the scorer's contrast buckets are calibrated to it.
	CanvasSize = 100

	// EdgeThreshold is the red-channel step that marks a pixel as an edge.
	EdgeThreshold = 20

	DefaultMaxPixels = 40_000_000
)

var ErrInvalidImage = errors.New("invalid image")

// FeatureVector is the per-image summary consumed by the scorer.
type FeatureVector struct {
	RedMean     float64 `json:"red_mean"`
	GreenMean   float64 `json:"green_mean"`
	BlueMean    float64 `json:"blue_mean"`
	RedStd      float64 `json:"red_std"`
	GreenStd    float64 `json:"green_std"`
	EdgeDensity float64 `json:"edge_density"`
}

type Extractor struct {
	maxPixels int
}

func NewExtractor(maxPixels int) *Extractor {
	if maxPixels <= 0 {
		maxPixels = DefaultMaxPixels
	}
	return &Extractor{maxPixels: maxPixels}
}

// Hash returns the hex MD5 digest of the raw upload.
func Hash(data []byte) string {
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])
}

// Extract decodes data and computes its feature vector. The content hash is
// returned alongside, and is set even when decoding fails.
func (e *Extractor) Extract(ctx context.Context, data []byte) (FeatureVector, string, error) {
	hash := Hash(data)

	img, err := e.decode(data)
	if err != nil {
		return FeatureVector{}, hash, err
	}
	if err := ctx.Err(); err != nil {
		return FeatureVector{}, hash, err
	}

	canvas := imaging.Resize(img, CanvasSize, CanvasSize, imaging.CatmullRom)
	fv, err := Compute(ctx, canvas)
	return fv, hash, err
}

func (e *Extractor) decode(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrInvalidImage)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("%w: empty %s image", ErrInvalidImage, format)
	}
	if cfg.Width*cfg.Height > e.maxPixels {
		return nil, fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrInvalidImage, cfg.Width, cfg.Height, e.maxPixels)
	}
	if channels(cfg.ColorModel) < 3 {
		return nil, fmt.Errorf("%w: %s image has fewer than 3 channels", ErrInvalidImage, format)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: decoding %s: %v", ErrInvalidImage, format, err)
	}
	return img, nil
}

func channels(m color.Model) int {
	switch m {
	case color.GrayModel, color.Gray16Model, color.AlphaModel, color.Alpha16Model:
		return 1
	default:
		return 3
	}
}

// Compute derives the feature vector from an already resized canvas.
func Compute(ctx context.Context, canvas *image.NRGBA) (FeatureVector, error) {
	b := canvas.Bounds()
	w, h := b.Dx(), b.Dy()
	if w < 3 || h < 3 {
		return FeatureVector{}, fmt.Errorf("%w: canvas %dx%d too small", ErrInvalidImage, w, h)
	}

	n := w * h
	red := make([]float64, n)
	green := make([]float64, n)
	blue := make([]float64, n)
	for y := 0; y < h; y++ {
		row := canvas.Pix[y*canvas.Stride:]
		for x := 0; x < w; x++ {
			i := y*w + x
			red[i] = float64(row[x*4])
			green[i] = float64(row[x*4+1])
			blue[i] = float64(row[x*4+2])
		}
	}

	var fv FeatureVector
	fv.RedMean, fv.RedStd = stat.PopMeanStdDev(red, nil)
	fv.GreenMean, fv.GreenStd = stat.PopMeanStdDev(green, nil)
	fv.BlueMean = stat.Mean(blue, nil)

	edges := 0
	for y := 1; y < h-1; y++ {
		if err := ctx.Err(); err != nil {
			return FeatureVector{}, err
		}
		for x := 1; x < w-1; x++ {
			r := red[y*w+x]
			if abs(r-red[(y-1)*w+x]) > EdgeThreshold || abs(r-red[y*w+x-1]) > EdgeThreshold {
				edges++
			}
		}
	}
	fv.EdgeDensity = float64(edges) / float64((w-2)*(h-2))

	return fv, nil
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
