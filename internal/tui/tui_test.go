package tui

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/audiolibrelab/looper/internal/audio"
	"github.com/audiolibrelab/looper/internal/config"
	"github.com/audiolibrelab/looper/internal/play"
	"github.com/audiolibrelab/looper/internal/playlist"
	"github.com/audiolibrelab/looper/internal/service"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCapture struct{}

func (stubCapture) Amplitude() int { return maxAmplitude }
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

func (p *stubPlayer) Duration() time.Duration { return 10 * time.Second }
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

func newTestModel(t *testing.T, files ...string) (Model, service.Service) {
	t.Helper()

	cfg := config.Default()
	cfg.Storage.Directory = t.TempDir()
	cfg.Playback.PollInterval = 10 * time.Millisecond
	for _, name := range files {
		require.NoError(t, os.WriteFile(filepath.Join(cfg.Storage.Directory, name), []byte("audio"), 0644))
	}

	svc, err := service.NewWithBackends(cfg, service.Backends{
		Capture:    stubCaptureBackend{},
		Player:     stubPlayerBackend{},
		Permission: audio.PermissionFunc(func() bool { return true }),
	}, nil)
	require.NoError(t, err)
	t.Cleanup(svc.Close)

	m := New(context.Background(), svc)
	t.Cleanup(m.Close)
	return m, svc
}

// press sends a key and runs the resulting command, if any.
func press(t *testing.T, m Model, keys string) Model {
	t.Helper()

	var msg tea.KeyMsg
	switch keys {
	case "down":
		msg = tea.KeyMsg{Type: tea.KeyDown}
	case "up":
		msg = tea.KeyMsg{Type: tea.KeyUp}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(keys)}
	}

	next, cmd := m.Update(msg)
	m = next.(Model)
	if cmd != nil {
		next, _ = m.Update(cmd())
		m = next.(Model)
	}
	return m
}

func TestModel_ListsRecords(t *testing.T) {
	m, _ := newTestModel(t, "20240307_090501_audio.mp4", "20240307_090502_audio.mp4")

	view := m.View()
	assert.Contains(t, view, "20240307_090501_audio.mp4")
	assert.Contains(t, view, "20240307_090502_audio.mp4")
	assert.Contains(t, view, "Start")
}

func TestModel_EmptyList(t *testing.T) {
	m, _ := newTestModel(t)
	assert.Contains(t, m.View(), "No recordings yet")
}

func TestModel_RecordToggle(t *testing.T) {
	m, svc := newTestModel(t)

	m = press(t, m, "r")
	assert.Equal(t, service.StatusRecording, svc.Status())
	assert.Contains(t, m.View(), "Recording")

	next, _ := m.Update(tickMsg(time.Now()))
	m = next.(Model)
	assert.Contains(t, m.viz.String(), "█")

	m = press(t, m, "r")
	assert.Equal(t, service.StatusIdle, svc.Status())
	require.Len(t, m.rows, 1)
	assert.NotContains(t, m.viz.String(), "█")
}

func TestModel_PlayLoopStopDelete(t *testing.T) {
	m, svc := newTestModel(t, "20240307_090501_audio.mp4", "20240307_090502_audio.mp4")

	m = press(t, m, "down")
	assert.Equal(t, 1, m.cursor)

	m = press(t, m, "l")
	rows := svc.Rows()
	assert.Equal(t, playlist.StatePlaying, rows[1].State)
	assert.True(t, rows[1].Loop)
	assert.Contains(t, m.View(), "looping")

	m = press(t, m, "s")
	assert.Equal(t, playlist.StateIdle, svc.Rows()[1].State)

	m = press(t, m, "d")
	require.Len(t, svc.Rows(), 1)
	assert.Equal(t, 0, m.cursor)
	assert.NotContains(t, m.View(), "20240307_090502_audio.mp4")
}

func TestModel_RecordStopsPlayback(t *testing.T) {
	m, svc := newTestModel(t, "20240307_090501_audio.mp4")

	m = press(t, m, "p")
	assert.Equal(t, service.StatusPlaying, svc.Status())

	m = press(t, m, "r")
	assert.Equal(t, service.StatusIdle, svc.Status())
	assert.Contains(t, m.View(), "Start")
}

func TestModel_Quit(t *testing.T) {
	m, _ := newTestModel(t)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestBoard(t *testing.T) {
	b := newBoard()

	dirty, _ := b.take()
	assert.True(t, dirty)

	b.HandleEvent(playlist.Event{Kind: playlist.EventProgress, ID: "a", Progress: 40})
	dirty, progress := b.take()
	assert.False(t, dirty)
	assert.Equal(t, 40, progress["a"])

	b.HandleEvent(playlist.Event{Kind: playlist.EventRemoved, ID: "a"})
	dirty, progress = b.take()
	assert.True(t, dirty)
	assert.Empty(t, progress)
}

func TestVisualizer(t *testing.T) {
	v := newVisualizer(4)
	assert.Equal(t, "    ", v.String())

	for _, a := range []int{0, maxAmplitude, -5, 99999, maxAmplitude / 2} {
		v.push(a)
	}
	out := v.String()
	assert.Equal(t, 4, len([]rune(out)))
	assert.True(t, strings.HasPrefix(out, "█"))

	v.clear()
	assert.Equal(t, "    ", v.String())
}
