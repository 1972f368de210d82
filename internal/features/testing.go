package features

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
)

// SolidPNG encodes a w×h PNG filled with a single colour. It is used by
// tests across packages to build uploads with known channel means.
func SolidPNG(w, h int, c color.NRGBA) []byte {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(err)
	}
	return buf.Bytes()
}
