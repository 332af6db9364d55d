// Package camera defines the occupancy capability the core consumes: a
// blocking face-recognition window and a blocking QR scan.
package camera

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"smart-classroom/internal/models"
)

var (
	// ErrMissingAsset means a detector, model or registry file is absent
	ErrMissingAsset = errors.New("missing asset")
	// ErrCameraUnavailable means the camera could not be acquired
	ErrCameraUnavailable = errors.New("camera unavailable")
	// ErrCameraBusy means another call holds the camera
	ErrCameraBusy = fmt.Errorf("%w: busy", ErrCameraUnavailable)
)

// Recognizer samples the camera for known faces. A zero window runs until
// ctx is done. silent suppresses any preview on the camera side.
type Recognizer interface {
	Recognize(ctx context.Context, window time.Duration, silent bool) (models.OccupancyResult, error)
}

// QRDecoder scans for one QR code. An empty string with a nil error means
// no code was seen before the timeout.
type QRDecoder interface {
	DecodeQR(ctx context.Context, timeout time.Duration) (string, error)
}

// Source is the full capability surface
type Source interface {
	Recognizer
	QRDecoder
}

// Device arbitrates exclusive access to the physical camera. The zero
// value is ready to use.
type Device struct {
	mu sync.Mutex
}

// Acquire takes the camera or fails with ErrCameraBusy. The returned
// function releases it.
func (d *Device) Acquire() (release func(), err error) {
	if !d.mu.TryLock() {
		return nil, ErrCameraBusy
	}
	return d.mu.Unlock, nil
}

// Disabled is the Source used when no camera is configured
type Disabled struct{}

func (Disabled) Recognize(context.Context, time.Duration, bool) (models.OccupancyResult, error) {
	return models.OccupancyResult{}, fmt.Errorf("%w: camera disabled", ErrCameraUnavailable)
}

func (Disabled) DecodeQR(context.Context, time.Duration) (string, error) {
	return "", fmt.Errorf("%w: camera disabled", ErrCameraUnavailable)
}
