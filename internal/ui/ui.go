// Package ui draws the viewer state to the terminal and turns key and mouse
// input into state actions.
//
// All state lives in the state package. Every frame the current mode picks
// its renderer and its input handling; nothing mode-specific is kept here
// beyond the terminal size.
package ui

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	appLog "fahrplan/internal/log"
	"fahrplan/internal/state"
)

// Options configures the terminal program.
type Options struct {
	// Location converts times for display. nil keeps each event's offset.
	Location *time.Location
	// Now is the clock used to decide between short and long date formats.
	Now func() time.Time
}

// Model is the Bubble Tea model around a state.Store.
type Model struct {
	store *state.Store
	keys  keyMap
	st    styles

	loc *time.Location
	now func() time.Time

	width  int
	height int
}

// New constructs a model for store.
func New(store *state.Store, opts Options) *Model {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	m := &Model{
		store:  store,
		keys:   defaultKeyMap(),
		st:     defaultStyles(),
		loc:    opts.Location,
		now:    now,
		width:  80,
		height: 24,
	}
	store.SetGridHeight(m.bodyHeight())
	return m
}

// Run launches the Bubble Tea program and blocks until the user exits.
func Run(store *state.Store, opts Options) error {
	p := tea.NewProgram(New(store, opts), tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err := p.Run()
	return err
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.store.SetGridHeight(m.bodyHeight())
		appLog.Debug("terminal resized", "width", m.width, "height", m.height)
	case tea.KeyMsg:
		cur := m.store.State()
		if a, ok := m.keys.actionForKey(cur.Mode, msg); ok {
			return m, m.dispatch(a)
		}
	case tea.MouseMsg:
		if a, ok := actionForMouse(msg); ok {
			return m, m.dispatch(a)
		}
	}
	return m, nil
}

func (m *Model) dispatch(a state.Action) tea.Cmd {
	cur := m.store.State()
	// The single view's scroll limit depends on the wrapped text height,
	// which only the renderer knows.
	if sc, ok := a.(state.Scroll); ok && cur.Mode == state.Single && sc.Direction == state.ScrollDown {
		if cur.SingleView.Scroll >= m.singleScrollLimit(&cur) {
			return nil
		}
	}
	if m.store.Dispatch(a) {
		appLog.Info("exit requested")
		return tea.Quit
	}
	return nil
}

// View implements tea.Model.
func (m *Model) View() string {
	cur := m.store.State()

	var body string
	switch cur.Mode {
	case state.Grid:
		body = m.gridView(&cur, m.bodyHeight())
	case state.Single:
		body = m.singleView(&cur, m.bodyHeight())
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.headerLine(&cur),
		body,
		m.helpLine(cur.Mode),
	)
}

func (m *Model) headerLine(cur *state.State) string {
	conf := cur.Schedule.Conference()
	title := conf.Title
	if title == "" {
		title = "Schedule"
	}
	if conf.Acronym != "" && conf.Acronym != title {
		title = conf.Acronym + " · " + title
	}
	right := cur.Mode.String()
	if cur.Mode == state.Grid {
		if n := len(cur.Grid.Dropped()); n > 0 {
			right = plural(n, "event") + " hidden · " + right
		}
	}
	return m.st.header.Render(spread(title, right, m.width))
}

func (m *Model) helpLine(mode state.Mode) string {
	parts := make([]string, 0, 8)
	for _, b := range m.keys.help(mode) {
		parts = append(parts, helpEntry(b))
	}
	return m.st.helper.Render(truncate(strings.Join(parts, "  "), m.width))
}

func helpEntry(b key.Binding) string {
	h := b.Help()
	return h.Key + " " + h.Desc
}

// bodyHeight is the terminal height minus the header and help lines.
func (m *Model) bodyHeight() int {
	return max(m.height-2, 1)
}

func (m *Model) display(t time.Time) time.Time {
	if m.loc == nil {
		return t
	}
	return t.In(m.loc)
}
