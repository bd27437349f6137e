// Package capture coordinates camera-bound background work. The camera is
// an exclusive resource: at most one capture loop runs at a time, and each
// loop delivers exactly one terminal result to the initiating flow.
package capture

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"net/http"

	"github.com/campusops/smart-attendance/internal/biometric"
)

// ErrDeviceUnavailable indicates the camera device could not be opened.
// Fatal to the current operation; the user may retry by re-issuing the
// intent.
var ErrDeviceUnavailable = errors.New("device unavailable")

// Source produces camera frames. Implementations are owned by a single
// capture loop and are not safe for concurrent use.
type Source interface {
	// NextFrame blocks until the next frame is available or ctx is done.
	NextFrame(ctx context.Context) (image.Image, error)
	// Close releases the device.
	Close() error
}

// Opener acquires the camera. Returns ErrDeviceUnavailable (wrapped) when
// the device cannot be opened.
type Opener func(ctx context.Context) (Source, error)

// HTTPCamera reads frames from a network camera's JPEG snapshot endpoint.
type HTTPCamera struct {
	url    string
	client *http.Client
}

// OpenHTTPCamera probes the snapshot endpoint and returns a frame source.
func OpenHTTPCamera(ctx context.Context, snapshotURL string) (Source, error) {
	if snapshotURL == "" {
		return nil, fmt.Errorf("camera snapshot URL is required: %w", ErrDeviceUnavailable)
	}

	cam := &HTTPCamera{url: snapshotURL, client: http.DefaultClient}
	if _, err := cam.NextFrame(ctx); err != nil {
		return nil, fmt.Errorf("probing camera: %w", ErrDeviceUnavailable)
	}
	return cam, nil
}

// NextFrame fetches and decodes one snapshot.
func (c *HTTPCamera) NextFrame(ctx context.Context) (image.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("could not create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("could not fetch frame: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("camera returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("could not read frame: %w", err)
	}

	return biometric.DecodeImage(data)
}

// Close releases the camera. Snapshot cameras hold no persistent handle.
func (c *HTTPCamera) Close() error {
	return nil
}
