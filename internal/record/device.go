package record

import (
	"context"
	"errors"
)

// ErrDeviceUnavailable is returned when the capture device cannot be
// acquired (missing hardware, denied permission, failed command).
var ErrDeviceUnavailable = errors.New("capture device unavailable")

// CaptureDevice abstracts microphone backends. Start acquires the device
// and begins capture; Stop finalizes capture and returns the raw PCM bytes
// collected so far, releasing the device.
type CaptureDevice interface {
	Start(ctx context.Context) error
	Stop() ([]byte, error)
}
