package tui

import (
	"sync"

	"github.com/audiolibrelab/looper/internal/playlist"
)

// board collects list events from poller goroutines. The model reads it on
// its own tick instead of being sent messages, so a busy program loop
// never blocks a poller.
type board struct {
	mu       sync.Mutex
	dirty    bool
	progress map[string]int
}

func newBoard() *board {
	return &board{dirty: true, progress: make(map[string]int)}
}

// HandleEvent implements playlist.Listener.
func (b *board) HandleEvent(ev playlist.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if ev.Kind == playlist.EventProgress {
		b.progress[ev.ID] = ev.Progress
		return
	}
	b.dirty = true
}

// take reports whether rows must be reloaded and returns the progress
// received since the previous call.
func (b *board) take() (bool, map[string]int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	dirty, progress := b.dirty, b.progress
	b.dirty = false
	b.progress = make(map[string]int)
	return dirty, progress
}
