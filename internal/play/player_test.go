package play

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/audiolibrelab/looper/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPosition(t *testing.T) {
	tests := []struct {
		name     string
		elapsed  time.Duration
		duration time.Duration
		loop     bool
		want     time.Duration
	}{
		{"unknown duration", time.Second, 0, false, 0},
		{"mid file", 500 * time.Millisecond, 2 * time.Second, false, 500 * time.Millisecond},
		{"past the end", 3 * time.Second, 2 * time.Second, false, 2 * time.Second},
		{"looped wraps", 2500 * time.Millisecond, 2 * time.Second, true, 500 * time.Millisecond},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Position(tt.elapsed, tt.duration, tt.loop))
		})
	}
}

func TestPercent(t *testing.T) {
	assert.Equal(t, 0, Percent(time.Second, 0))
	assert.Equal(t, 25, Percent(500*time.Millisecond, 2*time.Second))
	assert.Equal(t, 100, Percent(3*time.Second, 2*time.Second))
	assert.Equal(t, 0, Percent(-time.Second, 2*time.Second))
}

func TestBuildArgs(t *testing.T) {
	assert.Equal(t, "-nodisp -loglevel quiet -autoexit a.mp4", strings.Join(buildArgs("ffplay", "a.mp4", Options{}), " "))
	assert.Equal(t, "-nodisp -loglevel quiet -loop 0 a.mp4", strings.Join(buildArgs("ffplay", "a.mp4", Options{Loop: true}), " "))
	assert.Contains(t, strings.Join(buildArgs("ffplay", "a.mp4", Options{Follow: true}), " "), "-follow 1")
	assert.Contains(t, buildArgs("mpv", "a.mp4", Options{Loop: true}), "--loop-file=inf")
	assert.Contains(t, buildArgs("vlc", "a.mp4", Options{}), "--play-and-exit")
}

func TestFindAudioPlayer(t *testing.T) {
	cfg := config.Default()
	b := New(cfg, nil)
	b.lookPath = func(name string) (string, error) {
		if name == "mpv" {
			return "/usr/bin/mpv", nil
		}
		return "", errors.New("not found")
	}

	player, err := b.findAudioPlayer(Options{})
	require.NoError(t, err)
	assert.Equal(t, "mpv", player)

	_, err = b.findAudioPlayer(Options{Follow: true})
	assert.Error(t, err, "following a growing file requires ffplay")

	cfg.Playback.Player = "vlc"
	_, err = b.findAudioPlayer(Options{})
	assert.ErrorContains(t, err, "tried: vlc")
}

func TestOpen_MissingFile(t *testing.T) {
	b := New(config.Default(), nil)

	_, err := b.Open(context.Background(), filepath.Join(t.TempDir(), "absent.mp4"), Options{})
	assert.ErrorContains(t, err, "audio file not found")
}

func TestOpen_NoPlayer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.mp4")
	require.NoError(t, os.WriteFile(path, []byte("data"), 0644))

	b := New(config.Default(), nil)
	b.lookPath = func(string) (string, error) { return "", errors.New("not found") }

	_, err := b.Open(context.Background(), path, Options{})
	assert.ErrorContains(t, err, "no suitable audio player found")
}

func TestParseProbeDuration(t *testing.T) {
	d, err := parseProbeDuration([]byte(`{"format": {"filename": "a.mp4", "duration": "2.500000"}}`))
	require.NoError(t, err)
	assert.Equal(t, 2500*time.Millisecond, d)

	_, err = parseProbeDuration([]byte(`{"format": {}}`))
	assert.Error(t, err)

	_, err = parseProbeDuration([]byte(`not json`))
	assert.Error(t, err)
}
