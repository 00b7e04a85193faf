package audio

import (
	"io"
	"log/slog"
	"os/exec"

	"github.com/audiolibrelab/looper/internal/config"
)

// PermissionChecker answers whether microphone capture may start.
type PermissionChecker interface {
	CaptureAllowed() bool
}

// PermissionFunc adapts a function to PermissionChecker.
type PermissionFunc func() bool

func (f PermissionFunc) CaptureAllowed() bool { return f() }

// NewCaptureBackend creates the capture backend for the configuration
func NewCaptureBackend(cfg *config.Config, logWriter io.Writer) CaptureBackend {
	return NewFFmpegBackend(cfg, logWriter)
}

// CapturePermission grants capture when it is enabled in the configuration
// and the capture binary can be found.
type CapturePermission struct {
	cfg      *config.Config
	lookPath func(string) (string, error)
}

// NewCapturePermission creates the permission facility for cfg
func NewCapturePermission(cfg *config.Config) *CapturePermission {
	return &CapturePermission{cfg: cfg, lookPath: exec.LookPath}
}

func (p *CapturePermission) CaptureAllowed() bool {
	if !p.cfg.Capture.Enabled {
		slog.Debug("Capture disabled in configuration")
		return false
	}
	if _, err := p.lookPath("ffmpeg"); err != nil {
		slog.Debug("ffmpeg not found on PATH", "error", err)
		return false
	}
	return true
}
