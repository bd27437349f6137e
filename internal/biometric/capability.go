// Package biometric defines the face detection and encoding capability
// consumed by the enrollment and verification flows. The detector/encoder
// itself is an external service; this package only specifies its contract
// and provides the HTTP client plus the distance math used for matching.
package biometric

import (
	"context"
	"image"
)

// Box is a detected face region in pixel coordinates.
type Box struct {
	Top    int `json:"top"`
	Right  int `json:"right"`
	Bottom int `json:"bottom"`
	Left   int `json:"left"`
}

// Capability converts images into face regions and fixed-length encodings.
// Two frames of the same face are never assumed to produce identical vectors;
// callers compare encodings with Distance instead of equality.
type Capability interface {
	// Detect returns zero or more face regions found in the image.
	// The first region is usable as the primary face.
	Detect(ctx context.Context, img image.Image) ([]Box, error)
	// Encode computes the fixed-length encoding for the face inside box.
	Encode(ctx context.Context, img image.Image, box Box) ([]float32, error)
}
