package biometric

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
)

// Halve scales an image down to half its width and height. Detection runs
// on the half-scale frame to cut service latency; callers rescale the
// returned boxes back to full-frame coordinates.
func Halve(img image.Image) image.Image {
	bounds := img.Bounds()
	width := bounds.Dx() / 2
	height := bounds.Dy() / 2
	if width < 1 || height < 1 {
		return img
	}

	scaled := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.ApproxBiLinear.Scale(scaled, scaled.Bounds(), img, bounds, draw.Over, nil)
	return scaled
}

// EncodeJPEG encodes an image as JPEG for transport and audit artifacts.
func EncodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85}); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeImage decodes an image buffer (JPEG, PNG, or BMP).
func DecodeImage(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}
