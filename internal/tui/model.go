package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/audiolibrelab/looper/internal/notify"
	"github.com/audiolibrelab/looper/internal/playlist"
	"github.com/audiolibrelab/looper/internal/record"
	"github.com/audiolibrelab/looper/internal/service"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
)

// refreshInterval is the redraw rate; it also paces amplitude sampling.
const refreshInterval = 50 * time.Millisecond

type tickMsg time.Time

// actionDoneMsg reports the result of a service call run off the program
// loop.
type actionDoneMsg struct {
	err error
}

// Model is the looper screen: the record button, the live level of the
// current recording and the record list.
type Model struct {
	ctx         context.Context
	svc         service.Service
	board       *board
	unsubscribe func()

	keys     KeyMap
	help     help.Model
	progress progress.Model
	viz      *visualizer

	rows    []playlist.Row
	cursor  int
	status  service.Status
	message notify.Message
	seen    notify.Message
	width   int
}

// New creates the screen model. ctx bounds the playback it starts.
func New(ctx context.Context, svc service.Service) Model {
	b := newBoard()
	unsubscribe := svc.Subscribe(b)

	p := progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage())
	p.Width = 30

	m := Model{
		ctx:         ctx,
		svc:         svc,
		board:       b,
		unsubscribe: unsubscribe,
		keys:        DefaultKeyMap,
		help:        help.New(),
		progress:    p,
		viz:         newVisualizer(48),
		status:      svc.Status(),
	}
	m.refresh()

	return m
}

// Close detaches the model from the service.
func (m Model) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
}

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return tick()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case tickMsg:
		m.refresh()
		return m, tick()

	case actionDoneMsg:
		if msg.err != nil {
			m.message = notify.Message{Level: notify.LevelError, Text: msg.err.Error()}
		}
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.rows)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Record):
		return m, m.run(func() error {
			_, err := m.svc.ToggleRecord(m.ctx)
			return err
		})
	case key.Matches(msg, m.keys.StopAll):
		return m, m.run(func() error {
			m.svc.StopAll()
			return nil
		})
	case key.Matches(msg, m.keys.Play), key.Matches(msg, m.keys.Loop):
		id, ok := m.selected()
		if !ok {
			return m, nil
		}
		loop := key.Matches(msg, m.keys.Loop)
		return m, m.run(func() error { return m.svc.Play(m.ctx, id, loop) })
	case key.Matches(msg, m.keys.Stop):
		id, ok := m.selected()
		if !ok {
			return m, nil
		}
		return m, m.run(func() error { return m.svc.Stop(id) })
	case key.Matches(msg, m.keys.Delete):
		id, ok := m.selected()
		if !ok {
			return m, nil
		}
		return m, m.run(func() error { return m.svc.Delete(id) })
	}

	return m, nil
}

// run executes a service call in a command. Stop and delete wait for a
// poller to exit, which must not stall the program loop.
func (m Model) run(action func() error) tea.Cmd {
	return func() tea.Msg {
		return actionDoneMsg{err: action()}
	}
}

func (m Model) selected() (string, bool) {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return "", false
	}
	return m.rows[m.cursor].Record.ID(), true
}

// refresh pulls service state into the model
func (m *Model) refresh() {
	dirty, progress := m.board.take()
	if dirty || m.rows == nil {
		m.rows = m.svc.Rows()
	}
	for i := range m.rows {
		if p, ok := progress[m.rows[i].Record.ID()]; ok {
			m.rows[i].Progress = p
		}
	}
	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}

	m.status = m.svc.Status()
	if m.status == service.StatusRecording {
		m.viz.push(m.svc.Amplitude())
	} else {
		m.viz.clear()
	}

	if msg, ok := m.svc.LastMessage(); ok && msg != m.seen {
		m.message = msg
		m.seen = msg
	}
}

func (m Model) View() string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render("Looper"))
	sb.WriteString("\n\n")

	button := buttonStyle
	switch m.status {
	case service.StatusRecording:
		button = recordingButtonStyle
	case service.StatusPlaying:
		button = playingButtonStyle
	}
	sb.WriteString(button.Render(m.status.Label()))
	sb.WriteString("\n")
	sb.WriteString(visualizerStyle.Render(m.viz.String()))
	sb.WriteString("\n\n")

	if len(m.rows) == 0 {
		sb.WriteString(dimStyle.Render("No recordings yet. Press r to record."))
		sb.WriteString("\n")
	}
	for i, row := range m.rows {
		sb.WriteString(m.renderRow(i, row))
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	if m.message.Text != "" {
		if m.message.Level == notify.LevelError {
			sb.WriteString(errorStyle.Render(m.message.Text))
		} else {
			sb.WriteString(dimStyle.Render(m.message.Text))
		}
		sb.WriteString("\n")
	}
	sb.WriteString(m.help.View(m.keys))

	return sb.String()
}

func (m Model) renderRow(i int, row playlist.Row) string {
	cursor := "  "
	name := row.Record.Name
	if i == m.cursor {
		cursor = selectedStyle.Render("> ")
		name = selectedStyle.Render(name)
	}

	state := dimStyle.Render("idle   ")
	if row.State == playlist.StatePlaying {
		label := "playing"
		if row.Loop {
			label = "looping"
		}
		state = playingStyle.Render(label)
	}

	return fmt.Sprintf("%s%2d. %s %s %s %s",
		cursor,
		i+1,
		name,
		dimStyle.Render(record.FormatBytes(row.Record.Size)),
		state,
		m.progress.ViewAs(float64(row.Progress)/100),
	)
}
