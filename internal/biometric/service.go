package biometric

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// Service is an HTTP client for the face detection/encoding sidecar.
// The sidecar exposes two endpoints:
//
//	POST /v1/detect  — JPEG body, returns {"faces": [box, ...]}
//	POST /v1/encode  — JPEG body, box in query params, returns {"encoding": [...]}
//
// Frames are downscaled to half size before detection and the returned
// boxes rescaled, matching the detector's tuning for live camera frames.
type Service struct {
	baseURL string
	dim     int
	client  *http.Client
}

// NewService creates a face service client. dim is the expected encoding
// dimensionality; encodings of any other length are rejected.
func NewService(baseURL string, dim int) (*Service, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("face service URL is required")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("invalid face service URL: %w", err)
	}
	if dim <= 0 {
		return nil, fmt.Errorf("encoding dimensionality must be positive, got %d", dim)
	}

	return &Service{
		baseURL: strings.TrimRight(baseURL, "/"),
		dim:     dim,
		client:  http.DefaultClient,
	}, nil
}

// Dim returns the encoding dimensionality the service is configured for.
func (s *Service) Dim() int {
	return s.dim
}

// Detect returns face regions found in the image in full-frame pixel
// coordinates. Detection runs on a half-scale copy of the frame.
func (s *Service) Detect(ctx context.Context, img image.Image) ([]Box, error) {
	data, err := EncodeJPEG(Halve(img))
	if err != nil {
		return nil, err
	}

	var result struct {
		Faces []Box `json:"faces"`
	}
	if err := s.postJPEG(ctx, s.baseURL+"/v1/detect", data, &result); err != nil {
		return nil, fmt.Errorf("detect: %w", err)
	}

	// Scale boxes back to full-frame coordinates.
	boxes := make([]Box, len(result.Faces))
	for i, b := range result.Faces {
		boxes[i] = Box{Top: b.Top * 2, Right: b.Right * 2, Bottom: b.Bottom * 2, Left: b.Left * 2}
	}
	return boxes, nil
}

// Encode computes the encoding for the face inside box, using the full
// resolution frame.
func (s *Service) Encode(ctx context.Context, img image.Image, box Box) ([]float32, error) {
	data, err := EncodeJPEG(img)
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/v1/encode?top=%s&right=%s&bottom=%s&left=%s",
		s.baseURL,
		strconv.Itoa(box.Top), strconv.Itoa(box.Right),
		strconv.Itoa(box.Bottom), strconv.Itoa(box.Left),
	)

	var result struct {
		Encoding []float32 `json:"encoding"`
	}
	if err := s.postJPEG(ctx, endpoint, data, &result); err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}

	if len(result.Encoding) != s.dim {
		return nil, fmt.Errorf("encode: expected %d-dimensional encoding, got %d", s.dim, len(result.Encoding))
	}
	return result.Encoding, nil
}

// postJPEG sends a JPEG body and unmarshals the JSON response.
func (s *Service) postJPEG(ctx context.Context, endpoint string, data []byte, result any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("could not create request: %w", err)
	}
	req.Header.Set("Content-Type", "image/jpeg")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("could not send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("could not read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("request failed with status %d", resp.StatusCode)
	}

	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("could not unmarshal response: %w", err)
	}
	return nil
}
