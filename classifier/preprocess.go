package classifier

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/disintegration/gift"
)

// Input geometry and normalization constants matching the model's
// training pipeline. MRI scans are effectively grayscale, so a single
// mean/std pair applies to all three channels.
const (
	inputSize = 224

	normMean = 0.4815
	normStd  = 0.2235
)

// preprocess decodes the image, converts it to grayscale, resizes it to
// the model input geometry and returns a normalized HWC float32 tensor.
func preprocess(path string) ([]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	src, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	g := gift.New(
		gift.Grayscale(),
		gift.Resize(inputSize, inputSize, gift.LanczosResampling),
	)
	dst := image.NewRGBA(g.Bounds(src.Bounds()))
	g.Draw(dst, src)

	return normalize(dst), nil
}

func normalize(img *image.RGBA) []float32 {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	out := make([]float32, 0, w*h*3)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			out = append(out,
				normChannel(r),
				normChannel(g),
				normChannel(b),
			)
		}
	}
	return out
}

func normChannel(v uint32) float32 {
	// RGBA() returns 16-bit values.
	scaled := float32(v) / 65535.0
	return (scaled - normMean) / normStd
}
