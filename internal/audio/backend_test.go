package audio

import (
	"errors"
	"strings"
	"testing"

	"github.com/audiolibrelab/looper/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestCapturePermission(t *testing.T) {
	cfg := config.Default()
	found := func(string) (string, error) { return "/usr/bin/ffmpeg", nil }
	missing := func(string) (string, error) { return "", errors.New("not found") }

	p := &CapturePermission{cfg: cfg, lookPath: found}
	assert.True(t, p.CaptureAllowed())

	p.lookPath = missing
	assert.False(t, p.CaptureAllowed())

	cfg.Capture.Enabled = false
	p.lookPath = found
	assert.False(t, p.CaptureAllowed())
}

func TestFFmpegBackend_BuildArgs(t *testing.T) {
	cfg := config.Default()
	b := NewFFmpegBackend(cfg, nil)

	args := strings.Join(b.BuildArgs("/cache/20240307_090501_audio.mp4"), " ")

	assert.Contains(t, args, "-f pulse -i default")
	assert.Contains(t, args, "-c:a aac")
	assert.Contains(t, args, "+frag_keyframe+empty_moov")
	assert.Contains(t, args, "-y /cache/20240307_090501_audio.mp4")
	assert.True(t, strings.HasSuffix(args, "-ac 1 -ar 8000 -f s16le pipe:1"), args)
}

func TestFFmpegBackend_BuildArgs_StreamableContainer(t *testing.T) {
	cfg := config.Default()
	cfg.Capture.Codec = "libopus"
	b := NewFFmpegBackend(cfg, nil)

	args := strings.Join(b.BuildArgs("/cache/20240307_090501_audio.ogg"), " ")

	assert.Contains(t, args, "-c:a libopus")
	assert.NotContains(t, args, "movflags")
}
