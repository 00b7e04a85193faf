// Package recording owns the single microphone recording session of the
// application: start and stop of capture into a timestamped file in the
// cache directory, plus a pull-based amplitude accessor for visualizers.
package recording

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/audiolibrelab/looper/internal/audio"
	"github.com/audiolibrelab/looper/internal/config"
	"github.com/audiolibrelab/looper/internal/notify"
	"github.com/audiolibrelab/looper/internal/play"
	"github.com/audiolibrelab/looper/internal/record"
	"github.com/google/uuid"
)

var (
	ErrPermissionDenied = errors.New("audio permission not granted")
	ErrAlreadyRecording = errors.New("a recording is already in progress")
	ErrNotRecording     = errors.New("no recording in progress")
)

// SessionInfo describes the active recording session
type SessionInfo struct {
	ID        string    `json:"id"`
	Path      string    `json:"path"`
	StartTime time.Time `json:"start_time"`
}

type session struct {
	info    SessionInfo
	capture audio.Capture
	monitor play.Player
}

// Controller runs at most one recording session at a time.
type Controller struct {
	dir        string
	ext        string
	capture    audio.CaptureBackend
	monitor    play.Backend
	permission audio.PermissionChecker
	notifier   notify.Notifier
	now        func() time.Time

	mu      sync.Mutex
	session *session

	// stopping is closed once the previous capture has been finalized.
	stopping chan struct{}
}

// New creates a controller. monitor may be nil to record without hearing
// the growing file back.
func New(cfg *config.Config, capture audio.CaptureBackend, monitor play.Backend, permission audio.PermissionChecker, notifier notify.Notifier) *Controller {
	if notifier == nil {
		notifier = notify.Discard
	}
	if !cfg.Capture.Monitor {
		monitor = nil
	}

	return &Controller{
		dir:        cfg.Storage.Directory,
		ext:        cfg.Storage.Extension,
		capture:    capture,
		monitor:    monitor,
		permission: permission,
		notifier:   notifier,
		now:        time.Now,
	}
}

// Start begins capturing into a new file named after the current time.
// Failures are reported once through the notifier and leave the
// controller idle; nothing is retried. While a previous capture is still
// finalizing, Start waits for it or for ctx.
func (c *Controller) Start(ctx context.Context) (SessionInfo, error) {
	c.mu.Lock()
	for c.stopping != nil {
		stopping := c.stopping
		c.mu.Unlock()
		select {
		case <-stopping:
		case <-ctx.Done():
			return SessionInfo{}, ctx.Err()
		}
		c.mu.Lock()
	}
	defer c.mu.Unlock()

	if c.session != nil {
		return SessionInfo{}, ErrAlreadyRecording
	}

	if c.permission != nil && !c.permission.CaptureAllowed() {
		c.notifier.Notify(notify.LevelError, "You need to grant audio permission")
		return SessionInfo{}, ErrPermissionDenied
	}

	startTime := c.now()
	path, err := record.NewPath(c.dir, startTime, c.ext)
	if err != nil {
		c.notifier.Notify(notify.LevelError, err.Error())
		return SessionInfo{}, err
	}

	capture, err := c.capture.StartCapture(ctx, path)
	if err != nil {
		c.notifier.Notify(notify.LevelError, fmt.Sprintf("Recording failed: %v", err))
		return SessionInfo{}, fmt.Errorf("failed to start recording: %w", err)
	}

	sess := &session{
		info: SessionInfo{
			ID:        uuid.New().String(),
			Path:      path,
			StartTime: startTime,
		},
		capture: capture,
	}

	if c.monitor != nil {
		monitor, err := c.monitor.Open(ctx, path, play.Options{Follow: true})
		if err != nil {
			// Capture keeps going without live monitoring
			slog.Warn("Monitor playback unavailable", "file", path, "error", err)
		} else {
			sess.monitor = monitor
		}
	}

	c.session = sess
	slog.Info("Recording started", "session", sess.info.ID, "file", path)

	return sess.info, nil
}

// Stop finalizes the capture, releases the monitor and returns the new
// record.
func (c *Controller) Stop() (record.Record, error) {
	sess := c.detach()
	if sess == nil {
		return record.Record{}, ErrNotRecording
	}

	captureErr := c.release(sess)

	rec, err := record.FromPath(sess.info.Path)
	if err != nil {
		c.notifier.Notify(notify.LevelError, fmt.Sprintf("Recording failed: %v", err))
		return record.Record{}, err
	}

	if captureErr != nil {
		// The file exists, keep it and let the user judge it
		c.notifier.Notify(notify.LevelError, fmt.Sprintf("Recording may be incomplete: %v", captureErr))
	}

	slog.Info("Recording stopped", "session", sess.info.ID, "file", rec.Path, "size", rec.Size,
		"duration", c.now().Sub(sess.info.StartTime).Round(time.Millisecond))

	return rec, nil
}

// Close finalizes an active session on teardown. The file stays in the
// cache directory and shows up in the next listing.
func (c *Controller) Close() error {
	sess := c.detach()
	if sess == nil {
		return nil
	}
	return c.release(sess)
}

// detach takes the active session out of the controller so it can be
// finalized without holding the lock. Readers see an idle controller from
// here on, and Start blocks until release is done.
func (c *Controller) detach() *session {
	c.mu.Lock()
	defer c.mu.Unlock()

	sess := c.session
	if sess == nil {
		return nil
	}
	c.session = nil
	c.stopping = make(chan struct{})
	return sess
}

func (c *Controller) release(sess *session) error {
	defer func() {
		c.mu.Lock()
		close(c.stopping)
		c.stopping = nil
		c.mu.Unlock()
	}()

	if sess.monitor != nil {
		if err := sess.monitor.Stop(); err != nil {
			slog.Debug("Failed to stop monitor playback", "error", err)
		}
	}
	if sess.capture == nil {
		return nil
	}
	return sess.capture.Stop()
}

// Amplitude returns the peak amplitude since the previous call, or 0 when
// idle.
func (c *Controller) Amplitude() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil || c.session.capture == nil {
		return 0
	}
	return c.session.capture.Amplitude()
}

// Recording reports whether a session is active.
func (c *Controller) Recording() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session != nil
}

// Session returns the active session, if any.
func (c *Controller) Session() (SessionInfo, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil {
		return SessionInfo{}, false
	}
	return c.session.info, true
}
