package audio

import (
	"context"
	"errors"
)

// ErrCaptureExited is returned when the capture process dies during startup,
// typically because the device is busy or the codec is not supported.
var ErrCaptureExited = errors.New("capture process exited during startup")

// Capture is a running microphone capture writing to one file.
type Capture interface {
	// Amplitude returns the maximum absolute sample value seen since the
	// previous call, in the 0..32767 range.
	Amplitude() int

	// Stop finalizes and closes the target file.
	Stop() error

	// Kill aborts the capture without waiting for the file to be finalized.
	Kill()
}

// CaptureBackend starts captures. Implementations must not leave a
// process running when StartCapture returns an error.
type CaptureBackend interface {
	StartCapture(ctx context.Context, path string) (Capture, error)
}
