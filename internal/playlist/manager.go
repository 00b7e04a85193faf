// Package playlist keeps the ordered list of records and the playback
// sessions running on them. Several records may play at once; each
// session has its own progress poller.
package playlist

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/audiolibrelab/looper/internal/config"
	"github.com/audiolibrelab/looper/internal/notify"
	"github.com/audiolibrelab/looper/internal/play"
	"github.com/audiolibrelab/looper/internal/record"
	"github.com/google/uuid"
)

// ErrRecordNotFound is returned for ids and positions that are not listed.
var ErrRecordNotFound = record.ErrNotFound

// State is the playback state of a row.
type State string

const (
	StateIdle    State = "idle"
	StatePlaying State = "playing"
)

// Row is a snapshot of one record as shown in a list.
type Row struct {
	Record   record.Record `json:"record"`
	State    State         `json:"state"`
	Progress int           `json:"progress"`
	Loop     bool          `json:"loop"`
	// Visualizer is always false: live amplitude only exists while recording.
	Visualizer bool `json:"visualizer"`
}

type session struct {
	id         string
	record     record.Record
	loop       bool
	visualizer bool
	progress   int

	cancel context.CancelFunc
	done   chan struct{}

	// mu guards player, which changes when a looped player is reopened.
	mu     sync.Mutex
	player play.Player
}

func (s *session) currentPlayer() play.Player {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.player
}

// Manager owns the record list and its playback sessions. Listeners are
// called without the manager lock held, from the caller's goroutine or a
// poller goroutine.
type Manager struct {
	backend  play.Backend
	notifier notify.Notifier
	interval time.Duration

	mu        sync.Mutex
	records   []record.Record
	sessions  map[string]*session
	listeners map[int]Listener
	nextID    int
}

// New creates an empty manager.
func New(cfg *config.Config, backend play.Backend, notifier notify.Notifier) *Manager {
	if notifier == nil {
		notifier = notify.Discard
	}
	interval := cfg.Playback.PollInterval
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}

	return &Manager{
		backend:   backend,
		notifier:  notifier,
		interval:  interval,
		sessions:  make(map[string]*session),
		listeners: make(map[int]Listener),
	}
}

// Subscribe registers l and returns a function removing it.
func (m *Manager) Subscribe(l Listener) func() {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextID
	m.nextID++
	m.listeners[id] = l

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.listeners, id)
	}
}

func (m *Manager) emit(events ...Event) {
	m.mu.Lock()
	listeners := make([]Listener, 0, len(m.listeners))
	for _, l := range m.listeners {
		listeners = append(listeners, l)
	}
	m.mu.Unlock()

	for _, ev := range events {
		for _, l := range listeners {
			l.HandleEvent(ev)
		}
	}
}

// Load appends records that are not listed yet.
func (m *Manager) Load(records []record.Record) {
	for _, r := range records {
		m.Add(r)
	}
}

// Add appends r to the end of the list. Adding a listed record is a no-op.
func (m *Manager) Add(r record.Record) {
	m.mu.Lock()
	if m.indexLocked(r.ID()) >= 0 {
		m.mu.Unlock()
		return
	}
	m.records = append(m.records, r)
	index := len(m.records) - 1
	row := m.rowLocked(index)
	m.mu.Unlock()

	m.emit(Event{Kind: EventInserted, Index: index, ID: r.ID(), Row: &row})
}

func (m *Manager) indexLocked(id string) int {
	for i, r := range m.records {
		if r.ID() == id {
			return i
		}
	}
	return -1
}

func (m *Manager) rowLocked(index int) Row {
	r := m.records[index]
	row := Row{Record: r, State: StateIdle}
	if s, ok := m.sessions[r.ID()]; ok {
		row.State = StatePlaying
		row.Progress = s.progress
		row.Loop = s.loop
		row.Visualizer = s.visualizer
	}
	return row
}

// rowEvent returns a changed event for id, or false when it is no longer
// listed.
func (m *Manager) rowEvent(id string) (Event, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	index := m.indexLocked(id)
	if index < 0 {
		return Event{}, false
	}
	row := m.rowLocked(index)
	return Event{Kind: EventChanged, Index: index, ID: id, Row: &row}, true
}

// Rows returns a snapshot of the list.
func (m *Manager) Rows() []Row {
	m.mu.Lock()
	defer m.mu.Unlock()

	rows := make([]Row, len(m.records))
	for i := range m.records {
		rows[i] = m.rowLocked(i)
	}
	return rows
}

// Len returns the number of listed records.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

// At returns the row at index.
func (m *Manager) At(index int) (Row, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if index < 0 || index >= len(m.records) {
		return Row{}, false
	}
	return m.rowLocked(index), true
}

// Find returns the row of the record with the given id and its index.
func (m *Manager) Find(id string) (Row, int, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	index := m.indexLocked(id)
	if index < 0 {
		return Row{}, -1, false
	}
	return m.rowLocked(index), index, true
}

// Resolve maps a user argument to a record id. arg is either a 1-based
// position in the list or a record name.
func (m *Manager) Resolve(arg string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.indexLocked(arg) >= 0 {
		return arg, nil
	}
	if n, err := strconv.Atoi(arg); err == nil {
		if n >= 1 && n <= len(m.records) {
			return m.records[n-1].ID(), nil
		}
		return "", fmt.Errorf("%w: no record at position %d", ErrRecordNotFound, n)
	}
	return "", fmt.Errorf("%w: %s", ErrRecordNotFound, arg)
}

// Playing reports whether any session is active.
func (m *Manager) Playing() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions) > 0
}

// Play starts playback of id. A session already running on the same
// record is replaced.
func (m *Manager) Play(ctx context.Context, id string, loop bool) error {
	m.mu.Lock()
	index := m.indexLocked(id)
	if index < 0 {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrRecordNotFound, id)
	}
	rec := m.records[index]
	previous := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if previous != nil {
		m.halt(previous)
	}

	player, err := m.backend.Open(ctx, rec.Path, play.Options{Loop: loop})
	if err != nil {
		m.notifier.Notify(notify.LevelError, fmt.Sprintf("Cannot play %s: %v", rec.Name, err))
		if previous != nil {
			m.publishStopped(id)
		}
		return fmt.Errorf("failed to play %s: %w", rec.Name, err)
	}

	pollCtx, cancel := context.WithCancel(context.Background())
	sess := &session{
		id:     uuid.New().String(),
		record: rec,
		loop:   loop,
		cancel: cancel,
		done:   make(chan struct{}),
		player: player,
	}

	m.mu.Lock()
	if m.indexLocked(id) < 0 {
		// Deleted while the player was opening
		m.mu.Unlock()
		cancel()
		player.Stop()
		return fmt.Errorf("%w: %s", ErrRecordNotFound, id)
	}
	raced := m.sessions[id]
	m.sessions[id] = sess
	m.mu.Unlock()

	if raced != nil {
		m.halt(raced)
	}

	slog.Debug("Playback started", "record", rec.Name, "session", sess.id, "loop", loop,
		"duration", player.Duration())

	if ev, ok := m.rowEvent(id); ok {
		m.emit(ev)
	}
	go m.poll(pollCtx, sess)

	return nil
}

// Stop halts the session of id, if any, and resets its progress. No
// progress for that session is published after Stop returns.
func (m *Manager) Stop(id string) error {
	m.mu.Lock()
	if m.indexLocked(id) < 0 {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrRecordNotFound, id)
	}
	sess := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if sess == nil {
		return nil
	}

	m.halt(sess)
	m.publishStopped(id)
	slog.Debug("Playback stopped", "record", id, "session", sess.id)

	return nil
}

// StopAll halts every session and its poller.
func (m *Manager) StopAll() {
	m.mu.Lock()
	sessions := make([]*session, 0, len(m.sessions))
	for id, s := range m.sessions {
		sessions = append(sessions, s)
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	for _, s := range sessions {
		m.halt(s)
	}
	for _, s := range sessions {
		m.publishStopped(s.record.ID())
	}
}

// Delete stops the record, removes its file and then its row. When the
// file cannot be removed the row stays and the error is returned.
func (m *Manager) Delete(id string) error {
	if err := m.Stop(id); err != nil {
		return err
	}

	m.mu.Lock()
	index := m.indexLocked(id)
	if index < 0 {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrRecordNotFound, id)
	}
	rec := m.records[index]
	m.mu.Unlock()

	if err := record.Remove(rec); err != nil {
		m.notifier.Notify(notify.LevelError, err.Error())
		return err
	}

	m.mu.Lock()
	index = m.indexLocked(id)
	if index < 0 {
		m.mu.Unlock()
		return nil
	}
	m.records = append(m.records[:index:index], m.records[index+1:]...)
	sess := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if sess != nil {
		m.halt(sess)
	}

	slog.Info("Record deleted", "record", rec.Name)
	m.emit(Event{Kind: EventRemoved, Index: index, ID: id})

	return nil
}

// Close stops all playback.
func (m *Manager) Close() {
	m.StopAll()
}

// halt cancels the poller, stops the player and waits for the poller to
// exit. The session must already be out of the sessions map.
func (m *Manager) halt(s *session) {
	s.cancel()
	if p := s.currentPlayer(); p != nil {
		if err := p.Stop(); err != nil {
			slog.Debug("Failed to stop player", "record", s.record.Name, "error", err)
		}
	}
	<-s.done
}

func (m *Manager) publishStopped(id string) {
	events := []Event{{Kind: EventProgress, ID: id, Progress: 0}}
	if ev, ok := m.rowEvent(id); ok {
		events[0].Index = ev.Index
		events = append(events, ev)
	}
	m.emit(events...)
}

func (m *Manager) poll(ctx context.Context, s *session) {
	defer close(s.done)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		player := s.currentPlayer()
		select {
		case <-player.Done():
			if ctx.Err() != nil {
				return
			}
			if s.loop {
				if m.reopen(ctx, s) {
					continue
				}
			}
			m.complete(s)
			return
		default:
		}

		percent := play.Percent(player.Position(), player.Duration())

		m.mu.Lock()
		if m.sessions[s.record.ID()] != s {
			m.mu.Unlock()
			return
		}
		s.progress = percent
		index := m.indexLocked(s.record.ID())
		m.mu.Unlock()

		m.emit(Event{Kind: EventProgress, Index: index, ID: s.record.ID(), Progress: percent})
	}
}

// reopen restarts a looped session whose player exited on its own.
func (m *Manager) reopen(ctx context.Context, s *session) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ctx.Err() != nil {
		return false
	}

	player, err := m.backend.Open(ctx, s.record.Path, play.Options{Loop: true})
	if err != nil {
		m.notifier.Notify(notify.LevelError, fmt.Sprintf("Cannot loop %s: %v", s.record.Name, err))
		return false
	}

	slog.Debug("Looped player restarted", "record", s.record.Name, "session", s.id)
	s.player = player
	return true
}

// complete ends a session that ran to its end, unless it was already
// stopped or replaced.
func (m *Manager) complete(s *session) {
	id := s.record.ID()

	m.mu.Lock()
	current := m.sessions[id] == s
	if current {
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	if !current {
		return
	}

	s.cancel()
	slog.Debug("Playback completed", "record", s.record.Name, "session", s.id)
	m.publishStopped(id)
}
