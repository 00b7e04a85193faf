package audio

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/audiolibrelab/looper/internal/config"
)

const (
	// meterSampleRate is the rate of the mono PCM side stream feeding the meter.
	meterSampleRate = 8000
	stopTimeout     = 5 * time.Second
)

// FFmpegBackend captures the microphone with an ffmpeg subprocess. The
// compressed file is written to the target path while a mono PCM copy is
// streamed to stdout for the amplitude meter.
type FFmpegBackend struct {
	cfg       *config.Config
	logWriter io.Writer
	sources   *Sources

	// StartupGrace is how long StartCapture waits for an early exit before
	// considering the capture started.
	StartupGrace time.Duration
}

// NewFFmpegBackend creates a new ffmpeg-based capture backend
func NewFFmpegBackend(cfg *config.Config, logWriter io.Writer) *FFmpegBackend {
	if logWriter == nil {
		logWriter = io.Discard
	}

	return &FFmpegBackend{
		cfg:          cfg,
		logWriter:    logWriter,
		sources:      NewSources(),
		StartupGrace: 300 * time.Millisecond,
	}
}

// ffmpegCapture implements Capture for one ffmpeg process
type ffmpegCapture struct {
	cmd    *exec.Cmd
	meter  *PeakMeter
	stderr *outputBuffer

	exited  chan struct{}
	waitErr error

	stopOnce sync.Once
	stopErr  error
}

// BuildArgs constructs the ffmpeg command line for capturing into outputFile
func (b *FFmpegBackend) BuildArgs(outputFile string) []string {
	args := []string{
		"-hide_banner",
		"-nostdin",
		"-loglevel", "error",
		"-f", b.cfg.Capture.InputFormat,
		"-i", b.cfg.Capture.Source,
	}

	// Compressed file output
	args = append(args,
		"-map", "0:a",
		"-ar", fmt.Sprintf("%d", b.cfg.Capture.SampleRate),
		"-c:a", b.cfg.Capture.Codec,
	)
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(outputFile), ".")) {
	case "mp4", "m4a", "3gp", "mov":
		// Fragmented so the file is playable while it is still growing
		args = append(args, "-movflags", "+frag_keyframe+empty_moov+default_base_moof")
	}
	args = append(args, "-y", outputFile)

	// Raw mono side stream for the amplitude meter
	args = append(args,
		"-map", "0:a",
		"-ac", "1",
		"-ar", fmt.Sprintf("%d", meterSampleRate),
		"-f", "s16le",
		"pipe:1",
	)

	return args
}

// StartCapture starts ffmpeg and waits StartupGrace for an early failure
func (b *FFmpegBackend) StartCapture(ctx context.Context, path string) (Capture, error) {
	if b.cfg.Capture.InputFormat == "pulse" {
		if err := b.sources.Validate(b.cfg.Capture.Source); err != nil {
			return nil, fmt.Errorf("capture source unavailable: %w", err)
		}
	}

	args := b.BuildArgs(path)
	slog.Info("Starting FFmpeg capture", "command", "ffmpeg "+strings.Join(args, " "))

	cmd := exec.Command("ffmpeg", args...)

	c := &ffmpegCapture{
		cmd:    cmd,
		meter:  &PeakMeter{},
		stderr: &outputBuffer{logWriter: b.logWriter},
		exited: make(chan struct{}),
	}
	cmd.Stdout = c.meter
	cmd.Stderr = c.stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start FFmpeg: %w", err)
	}

	go func() {
		c.waitErr = cmd.Wait()
		close(c.exited)
	}()

	select {
	case <-c.exited:
		output := strings.TrimSpace(c.stderr.String())
		os.Remove(path)
		if output != "" {
			return nil, fmt.Errorf("%w: %s", ErrCaptureExited, output)
		}
		return nil, fmt.Errorf("%w: %v", ErrCaptureExited, c.waitErr)
	case <-ctx.Done():
		c.Kill()
		os.Remove(path)
		return nil, ctx.Err()
	case <-time.After(b.StartupGrace):
	}

	slog.Debug("FFmpeg capture running", "pid", cmd.Process.Pid, "output", path)
	return c, nil
}

func (c *ffmpegCapture) Amplitude() int {
	return c.meter.Amplitude()
}

// Stop sends SIGINT so ffmpeg writes the trailer, then waits with a timeout
func (c *ffmpegCapture) Stop() error {
	c.stopOnce.Do(func() {
		c.stopErr = c.stopFFmpeg()
	})
	return c.stopErr
}

func (c *ffmpegCapture) Kill() {
	c.stopOnce.Do(func() {
		if c.cmd.Process != nil {
			c.cmd.Process.Kill()
		}
		<-c.exited
	})
}

func (c *ffmpegCapture) stopFFmpeg() error {
	select {
	case <-c.exited:
		// Already gone, report how it ended
		return c.exitError()
	default:
	}

	slog.Debug("Sending SIGINT to FFmpeg process")
	if err := c.cmd.Process.Signal(os.Interrupt); err != nil {
		slog.Debug("Failed to send interrupt to FFmpeg, falling back to SIGKILL", "error", err)
		c.cmd.Process.Kill()
	}

	select {
	case <-c.exited:
		return c.exitError()
	case <-time.After(stopTimeout):
		slog.Warn("FFmpeg did not exit within timeout, force killing")
		c.cmd.Process.Kill()
		<-c.exited
		return nil
	}
}

func (c *ffmpegCapture) exitError() error {
	err := c.waitErr
	if err == nil {
		slog.Debug("FFmpeg exited successfully")
		return nil
	}

	if exitErr, ok := err.(*exec.ExitError); ok {
		// Exit code 255 means the process was interrupted gracefully
		if exitErr.ExitCode() == 255 {
			slog.Debug("FFmpeg exited normally after interrupt signal")
			return nil
		}
		if exitErr.ProcessState != nil {
			stateStr := exitErr.ProcessState.String()
			if stateStr == "signal: interrupt" || stateStr == "signal: killed" {
				slog.Debug("FFmpeg exited normally due to signal", "state", stateStr)
				return nil
			}
		}
	}

	slog.Debug("FFmpeg stderr", "output", c.stderr.String())
	return fmt.Errorf("FFmpeg process failed: %w", err)
}

// outputBuffer keeps subprocess output for error reporting and mirrors it
// to the log writer.
type outputBuffer struct {
	mu        sync.Mutex
	buf       strings.Builder
	logWriter io.Writer
}

func (o *outputBuffer) Write(p []byte) (int, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.buf.Write(p)
	o.logWriter.Write(p)
	return len(p), nil
}

func (o *outputBuffer) String() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.buf.String()
}
