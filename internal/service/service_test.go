package service

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/audiolibrelab/looper/internal/audio"
	"github.com/audiolibrelab/looper/internal/config"
	"github.com/audiolibrelab/looper/internal/notify"
	"github.com/audiolibrelab/looper/internal/play"
	"github.com/audiolibrelab/looper/internal/playlist"
	"github.com/audiolibrelab/looper/internal/recording"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCapture struct{}

func (stubCapture) Amplitude() int { return 4096 }
func (stubCapture) Stop() error    { return nil }
func (stubCapture) Kill()          {}

type stubCaptureBackend struct{}

func (stubCaptureBackend) StartCapture(_ context.Context, path string) (audio.Capture, error) {
	if err := os.WriteFile(path, []byte("audio"), 0644); err != nil {
		return nil, err
	}
	return stubCapture{}, nil
}

type stubPlayer struct {
	once sync.Once
	done chan struct{}
}

func (p *stubPlayer) Duration() time.Duration { return time.Minute }
func (p *stubPlayer) Position() time.Duration { return 0 }
func (p *stubPlayer) Done() <-chan struct{}   { return p.done }
func (p *stubPlayer) Stop() error {
	p.once.Do(func() { close(p.done) })
	return nil
}

type stubPlayerBackend struct{}

func (stubPlayerBackend) Open(context.Context, string, play.Options) (play.Player, error) {
	return &stubPlayer{done: make(chan struct{})}, nil
}

func newTestService(t *testing.T, allowed bool, files ...string) *LooperService {
	t.Helper()

	cfg := config.Default()
	cfg.Storage.Directory = t.TempDir()
	cfg.Playback.PollInterval = 10 * time.Millisecond
	for _, name := range files {
		require.NoError(t, os.WriteFile(filepath.Join(cfg.Storage.Directory, name), []byte("audio"), 0644))
	}

	s, err := NewWithBackends(cfg, Backends{
		Capture:    stubCaptureBackend{},
		Player:     stubPlayerBackend{},
		Permission: audio.PermissionFunc(func() bool { return allowed }),
	}, nil)
	require.NoError(t, err)
	t.Cleanup(s.Close)

	return s
}

func TestNewLoadsCacheDirectory(t *testing.T) {
	s := newTestService(t, true, "20240307_090502_audio.mp4", "20240307_090501_audio.mp4")

	rows := s.Rows()
	require.Len(t, rows, 2)
	assert.Equal(t, "20240307_090501_audio.mp4", rows[0].Record.Name)
	assert.Equal(t, StatusIdle, s.Status())
	assert.Equal(t, "Start", s.Status().Label())
}

func TestToggleRecord_StartThenStop(t *testing.T) {
	s := newTestService(t, true)
	ctx := context.Background()

	res, err := s.ToggleRecord(ctx)
	require.NoError(t, err)
	assert.Equal(t, ActionStartedRecording, res.Action)
	require.NotNil(t, res.Session)
	assert.Equal(t, StatusRecording, s.Status())
	assert.Equal(t, 4096, s.Amplitude())

	res, err = s.ToggleRecord(ctx)
	require.NoError(t, err)
	assert.Equal(t, ActionStoppedRecording, res.Action)
	require.NotNil(t, res.Record)
	assert.Equal(t, StatusIdle, s.Status())

	rows := s.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, res.Record.Name, rows[0].Record.Name)

	msg, ok := s.LastMessage()
	require.True(t, ok)
	assert.Contains(t, msg.Text, res.Record.Name)
}

func TestToggleRecord_StopsPlaybackFirst(t *testing.T) {
	s := newTestService(t, true, "20240307_090501_audio.mp4")
	ctx := context.Background()

	require.NoError(t, s.Play(ctx, "1", true))
	assert.Equal(t, StatusPlaying, s.Status())
	assert.Equal(t, "Playing", s.Status().Label())

	res, err := s.ToggleRecord(ctx)
	require.NoError(t, err)
	assert.Equal(t, ActionStoppedPlayback, res.Action)
	assert.Equal(t, StatusIdle, s.Status())

	_, recording := s.Session()
	assert.False(t, recording)
}

func TestToggleRecord_PermissionDenied(t *testing.T) {
	s := newTestService(t, false)

	_, err := s.ToggleRecord(context.Background())
	assert.ErrorIs(t, err, recording.ErrPermissionDenied)
	assert.Equal(t, StatusIdle, s.Status())

	msg, ok := s.LastMessage()
	require.True(t, ok)
	assert.Equal(t, notify.LevelError, msg.Level)
	assert.Equal(t, "You need to grant audio permission", msg.Text)
}

func TestDeleteByPosition(t *testing.T) {
	s := newTestService(t, true, "20240307_090501_audio.mp4", "20240307_090502_audio.mp4")

	require.NoError(t, s.Delete("1"))
	rows := s.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, "20240307_090502_audio.mp4", rows[0].Record.Name)
	assert.NoFileExists(t, filepath.Join(s.GetConfig().Storage.Directory, "20240307_090501_audio.mp4"))

	assert.ErrorIs(t, s.Delete("5"), playlist.ErrRecordNotFound)
}

func TestStopByName(t *testing.T) {
	s := newTestService(t, true, "20240307_090501_audio.mp4")

	require.NoError(t, s.Play(context.Background(), "20240307_090501_audio.mp4", false))
	require.NoError(t, s.Stop("20240307_090501_audio.mp4"))
	assert.Equal(t, StatusIdle, s.Status())
}
