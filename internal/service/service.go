package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/audiolibrelab/looper/internal/audio"
	"github.com/audiolibrelab/looper/internal/config"
	"github.com/audiolibrelab/looper/internal/notify"
	"github.com/audiolibrelab/looper/internal/play"
	"github.com/audiolibrelab/looper/internal/playlist"
	"github.com/audiolibrelab/looper/internal/record"
	"github.com/audiolibrelab/looper/internal/recording"
)

// Service represents the core looper service interface
type Service interface {
	// Recording operations
	ToggleRecord(ctx context.Context) (ToggleResult, error)
	StartRecording(ctx context.Context) (recording.SessionInfo, error)
	StopRecording() (record.Record, error)
	Amplitude() int
	Session() (recording.SessionInfo, bool)

	// Playback operations
	Play(ctx context.Context, arg string, loop bool) error
	Stop(arg string) error
	Delete(arg string) error
	StopAll()

	// Information operations
	Rows() []playlist.Row
	Resolve(arg string) (string, error)
	Status() Status
	Subscribe(l playlist.Listener) func()
	LastMessage() (notify.Message, bool)
	GetConfig() *config.Config

	Close()
}

// Status is the state shown on the record button
type Status string

const (
	StatusIdle      Status = "IDLE"
	StatusRecording Status = "RECORDING"
	StatusPlaying   Status = "PLAYING"
)

// Label returns the record button caption for the status.
func (s Status) Label() string {
	switch s {
	case StatusRecording:
		return "Recording"
	case StatusPlaying:
		return "Playing"
	default:
		return "Start"
	}
}

// ToggleAction tells what a press of the record button did
type ToggleAction string

const (
	ActionStoppedPlayback  ToggleAction = "stopped_playback"
	ActionStartedRecording ToggleAction = "started_recording"
	ActionStoppedRecording ToggleAction = "stopped_recording"
)

// ToggleResult is the outcome of ToggleRecord
type ToggleResult struct {
	Action  ToggleAction           `json:"action"`
	Session *recording.SessionInfo `json:"session,omitempty"`
	Record  *record.Record         `json:"record,omitempty"`
}

// Backends groups the device facing dependencies of the service.
type Backends struct {
	Capture    audio.CaptureBackend
	Player     play.Backend
	Permission audio.PermissionChecker
}

var _ Service = (*LooperService)(nil)

// LooperService is the main service implementation
type LooperService struct {
	cfg      *config.Config
	recorder *recording.Controller
	playlist *playlist.Manager
	messages *notify.Recorder
	notifier notify.Notifier

	// toggleMu serializes record button presses
	toggleMu sync.Mutex
}

// New creates a looper service driving ffmpeg and the configured player.
// The cache directory listing becomes the initial record list.
func New(cfg *config.Config, logWriter io.Writer, notifier notify.Notifier) (Service, error) {
	if logWriter == nil {
		logWriter = io.Discard
	}

	return NewWithBackends(cfg, Backends{
		Capture:    audio.NewCaptureBackend(cfg, logWriter),
		Player:     play.New(cfg, logWriter),
		Permission: audio.NewCapturePermission(cfg),
	}, notifier)
}

// NewWithBackends creates a looper service on the given backends
func NewWithBackends(cfg *config.Config, backends Backends, notifier notify.Notifier) (*LooperService, error) {
	messages := &notify.Recorder{}
	var out notify.Notifier = notify.NewLog(messages)
	if notifier != nil {
		out = notify.Multi{out, notifier}
	}

	s := &LooperService{
		cfg:      cfg,
		recorder: recording.New(cfg, backends.Capture, backends.Player, backends.Permission, out),
		playlist: playlist.New(cfg, backends.Player, out),
		messages: messages,
		notifier: out,
	}

	records, err := record.List(cfg.Storage.Directory)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	s.playlist.Load(records)
	slog.Debug("Records loaded", "directory", cfg.Storage.Directory, "count", len(records))

	return s, nil
}

// ToggleRecord implements the record button: it stops playback when
// anything plays, otherwise it stops or starts a recording.
func (s *LooperService) ToggleRecord(ctx context.Context) (ToggleResult, error) {
	s.toggleMu.Lock()
	defer s.toggleMu.Unlock()

	if s.playlist.Playing() {
		s.playlist.StopAll()
		return ToggleResult{Action: ActionStoppedPlayback}, nil
	}

	if s.recorder.Recording() {
		rec, err := s.StopRecording()
		if err != nil {
			return ToggleResult{}, err
		}
		return ToggleResult{Action: ActionStoppedRecording, Record: &rec}, nil
	}

	info, err := s.StartRecording(ctx)
	if err != nil {
		return ToggleResult{}, err
	}
	return ToggleResult{Action: ActionStartedRecording, Session: &info}, nil
}

// StartRecording starts a recording session
func (s *LooperService) StartRecording(ctx context.Context) (recording.SessionInfo, error) {
	return s.recorder.Start(ctx)
}

// StopRecording stops the session and appends the new record to the list
func (s *LooperService) StopRecording() (record.Record, error) {
	rec, err := s.recorder.Stop()
	if err != nil {
		return record.Record{}, err
	}

	s.playlist.Add(rec)
	s.notifier.Notify(notify.LevelInfo, fmt.Sprintf("Saved %s", rec.Name))
	return rec, nil
}

// Amplitude returns the recording peak since the previous call
func (s *LooperService) Amplitude() int {
	return s.recorder.Amplitude()
}

// Session returns the active recording session, if any
func (s *LooperService) Session() (recording.SessionInfo, bool) {
	return s.recorder.Session()
}

// Play plays the record at a 1-based position or with the given name
func (s *LooperService) Play(ctx context.Context, arg string, loop bool) error {
	id, err := s.playlist.Resolve(arg)
	if err != nil {
		return err
	}
	return s.playlist.Play(ctx, id, loop)
}

// Stop stops playback of a record
func (s *LooperService) Stop(arg string) error {
	id, err := s.playlist.Resolve(arg)
	if err != nil {
		return err
	}
	return s.playlist.Stop(id)
}

// Delete stops a record and removes it from disk and from the list
func (s *LooperService) Delete(arg string) error {
	id, err := s.playlist.Resolve(arg)
	if err != nil {
		return err
	}
	return s.playlist.Delete(id)
}

// StopAll stops every playback
func (s *LooperService) StopAll() {
	s.playlist.StopAll()
}

// Rows returns the record list
func (s *LooperService) Rows() []playlist.Row {
	return s.playlist.Rows()
}

// Resolve maps a position or name to a record id
func (s *LooperService) Resolve(arg string) (string, error) {
	return s.playlist.Resolve(arg)
}

// Status returns the record button state. Playback wins over recording,
// matching the button's stop-playback-first behavior.
func (s *LooperService) Status() Status {
	switch {
	case s.playlist.Playing():
		return StatusPlaying
	case s.recorder.Recording():
		return StatusRecording
	default:
		return StatusIdle
	}
}

// Subscribe registers a list listener
func (s *LooperService) Subscribe(l playlist.Listener) func() {
	return s.playlist.Subscribe(l)
}

// LastMessage returns the latest user notification
func (s *LooperService) LastMessage() (notify.Message, bool) {
	return s.messages.Last()
}

// GetConfig returns the current configuration
func (s *LooperService) GetConfig() *config.Config {
	return s.cfg
}

// Close stops playback and finalizes an active recording
func (s *LooperService) Close() {
	s.playlist.Close()
	if err := s.recorder.Close(); err != nil && !errors.Is(err, recording.ErrNotRecording) {
		slog.Warn("Failed to finalize recording on shutdown", "error", err)
	}
}
