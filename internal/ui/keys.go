package ui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"fahrplan/internal/state"
)

type keyMap struct {
	Quit  key.Binding
	Left  key.Binding
	Right key.Binding

	// Grid mode.
	Up       key.Binding
	Down     key.Binding
	Open     key.Binding
	PageUp   key.Binding
	PageDown key.Binding

	// Single mode.
	ScrollUp   key.Binding
	ScrollDown key.Binding
	PrevRow    key.Binding
	NextRow    key.Binding
	Back       key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Quit:  key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		Left:  key.NewBinding(key.WithKeys("h", "left"), key.WithHelp("h/←", "prev")),
		Right: key.NewBinding(key.WithKeys("l", "right"), key.WithHelp("l/→", "next")),

		Up:       key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "earlier")),
		Down:     key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "later")),
		Open:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "details")),
		PageUp:   key.NewBinding(key.WithKeys("pgup"), key.WithHelp("pgup", "scroll up")),
		PageDown: key.NewBinding(key.WithKeys("pgdown"), key.WithHelp("pgdn", "scroll down")),

		ScrollUp:   key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "scroll up")),
		ScrollDown: key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "scroll down")),
		PrevRow:    key.NewBinding(key.WithKeys("K"), key.WithHelp("K", "earlier")),
		NextRow:    key.NewBinding(key.WithKeys("J"), key.WithHelp("J", "later")),
		Back:       key.NewBinding(key.WithKeys("esc", "backspace"), key.WithHelp("esc", "grid")),
	}
}

// help lists the bindings shown in the footer of mode.
func (k keyMap) help(mode state.Mode) []key.Binding {
	switch mode {
	case state.Single:
		return []key.Binding{k.Left, k.Right, k.ScrollUp, k.ScrollDown, k.PrevRow, k.NextRow, k.Back, k.Quit}
	default:
		return []key.Binding{k.Left, k.Right, k.Up, k.Down, k.Open, k.Quit}
	}
}

// actionForKey maps a key press onto an intent. Keys shared by both modes
// are matched first so each mode only handles what is specific to it.
func (k keyMap) actionForKey(mode state.Mode, msg tea.KeyMsg) (state.Action, bool) {
	switch {
	case key.Matches(msg, k.Quit):
		return state.Exit{}, true
	case key.Matches(msg, k.Left):
		return state.Select{To: state.Left}, true
	case key.Matches(msg, k.Right):
		return state.Select{To: state.Right}, true
	}

	switch mode {
	case state.Grid:
		switch {
		case key.Matches(msg, k.Up):
			return state.Select{To: state.Up}, true
		case key.Matches(msg, k.Down):
			return state.Select{To: state.Below}, true
		case key.Matches(msg, k.Open):
			return state.SwitchTo{Mode: state.Single}, true
		case key.Matches(msg, k.PageUp):
			return state.Scroll{Direction: state.ScrollUp}, true
		case key.Matches(msg, k.PageDown):
			return state.Scroll{Direction: state.ScrollDown}, true
		}
	case state.Single:
		switch {
		case key.Matches(msg, k.ScrollUp):
			return state.Scroll{Direction: state.ScrollUp}, true
		case key.Matches(msg, k.ScrollDown):
			return state.Scroll{Direction: state.ScrollDown}, true
		case key.Matches(msg, k.PrevRow):
			return state.Select{To: state.Up}, true
		case key.Matches(msg, k.NextRow):
			return state.Select{To: state.Below}, true
		case key.Matches(msg, k.Back):
			return state.SwitchTo{Mode: state.Grid}, true
		}
	}
	return nil, false
}

func actionForMouse(msg tea.MouseMsg) (state.Action, bool) {
	if msg.Action != tea.MouseActionPress {
		return nil, false
	}
	switch msg.Button {
	case tea.MouseButtonWheelUp:
		return state.Scroll{Direction: state.ScrollUp}, true
	case tea.MouseButtonWheelDown:
		return state.Scroll{Direction: state.ScrollDown}, true
	}
	return nil, false
}
