package state

// Action is a single user intent. The concrete types are Exit, Select,
// SwitchTo and Scroll.
type Action interface {
	action()
}

// Exit ends the program. The store itself ignores it.
type Exit struct{}

// Select moves the shared selection.
type Select struct {
	To To
}

// SwitchTo changes the active view mode.
type SwitchTo struct {
	Mode Mode
}

// Scroll scrolls the active view mode only.
type Scroll struct {
	Direction VerticalDirection
}

func (Exit) action()     {}
func (Select) action()   {}
func (SwitchTo) action() {}
func (Scroll) action()   {}

// To is the direction of a selection move.
type To int

const (
	Left To = iota
	Right
	Up
	Below
)

func (t To) String() string {
	switch t {
	case Left:
		return "left"
	case Right:
		return "right"
	case Up:
		return "up"
	case Below:
		return "below"
	default:
		return "unknown"
	}
}

type VerticalDirection int

const (
	ScrollDown VerticalDirection = iota
	ScrollUp
)

func (d VerticalDirection) String() string {
	if d == ScrollUp {
		return "up"
	}
	return "down"
}
