package playlist

// EventKind tells listeners what changed in the list.
type EventKind string

const (
	EventInserted EventKind = "inserted"
	EventRemoved  EventKind = "removed"
	EventChanged  EventKind = "changed"
	EventProgress EventKind = "progress"
)

// Event is a list change. Row is set for inserted and changed events,
// Progress for progress events.
type Event struct {
	Kind     EventKind `json:"kind"`
	Index    int       `json:"index"`
	ID       string    `json:"id"`
	Row      *Row      `json:"row,omitempty"`
	Progress int       `json:"progress"`
}

// Listener receives list events. Implementations must be safe for
// concurrent use and must not block.
type Listener interface {
	HandleEvent(Event)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(Event)

func (f ListenerFunc) HandleEvent(ev Event) { f(ev) }
