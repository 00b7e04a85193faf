// Package notify delivers one-shot user messages such as errors and status
// changes. It is the desktop counterpart of a toast.
package notify

import (
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/fatih/color"
)

// Level tells the surface how to style a message.
type Level string

const (
	LevelInfo  Level = "info"
	LevelError Level = "error"
)

// Notifier shows a message to the user once.
type Notifier interface {
	Notify(level Level, message string)
}

// Func adapts a function to Notifier.
type Func func(level Level, message string)

func (f Func) Notify(level Level, message string) { f(level, message) }

// Discard drops every message.
var Discard Notifier = Func(func(Level, string) {})

// Console prints messages to a terminal, errors in red.
type Console struct {
	mu  sync.Mutex
	out io.Writer
}

func NewConsole(out io.Writer) *Console {
	return &Console{out: out}
}

func (c *Console) Notify(level Level, message string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch level {
	case LevelError:
		fmt.Fprintln(c.out, color.RedString("✗ %s", message))
	default:
		fmt.Fprintln(c.out, color.CyanString("• %s", message))
	}
}

// Log writes messages to slog and forwards them to next, if any.
type Log struct {
	next Notifier
}

func NewLog(next Notifier) *Log {
	return &Log{next: next}
}

func (l *Log) Notify(level Level, message string) {
	if level == LevelError {
		slog.Error("User notification", "message", message)
	} else {
		slog.Info("User notification", "message", message)
	}
	if l.next != nil {
		l.next.Notify(level, message)
	}
}

// Multi fans a message out to several notifiers.
type Multi []Notifier

func (m Multi) Notify(level Level, message string) {
	for _, n := range m {
		if n != nil {
			n.Notify(level, message)
		}
	}
}

// Recorder keeps every message it receives. Useful in tests and for
// surfaces that poll for the latest message.
type Recorder struct {
	mu       sync.Mutex
	messages []Message
}

// Message is a delivered notification.
type Message struct {
	Level Level  `json:"level"`
	Text  string `json:"text"`
}

func (r *Recorder) Notify(level Level, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, Message{Level: level, Text: message})
}

// Messages returns a copy of the delivered messages.
func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Message, len(r.messages))
	copy(out, r.messages)
	return out
}

// Last returns the most recent message.
func (r *Recorder) Last() (Message, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.messages) == 0 {
		return Message{}, false
	}
	return r.messages[len(r.messages)-1], true
}
