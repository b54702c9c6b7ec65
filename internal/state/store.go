// Package state holds the view and selection state of the viewer and the
// single dispatch step that mutates it.
//
// The schedule and grid referenced from State are immutable and shared; only
// the mode, the selection and the per-mode scroll offsets change, and only
// through Store.Dispatch. The renderer reports the grid viewport height with
// Store.SetGridHeight so the grid scroll can keep the selection visible.
package state

import (
	"errors"
	"fmt"
	"math"
	"time"

	"fahrplan/internal/grid"
	appLog "fahrplan/internal/log"
	"fahrplan/internal/schedule"
)

// Mode is the active view.
type Mode int

const (
	// Grid is the overview of concurrent events over time.
	Grid Mode = iota
	// Single shows every detail of the selected event.
	Single
)

func (m Mode) String() string {
	switch m {
	case Grid:
		return "grid"
	case Single:
		return "single"
	default:
		return "unknown"
	}
}

// TimeCoord is the selection cursor shared by both modes: a time map row and
// a column of that row's grid layout.
type TimeCoord struct {
	Row    time.Time
	Column int
}

// GridState is the Grid mode's local state.
type GridState struct {
	// Scroll is the topmost visible grid row.
	Scroll int
	// Height is the number of visible grid rows; zero while unknown.
	Height int
}

// SingleState is the Single mode's local state.
type SingleState struct {
	// Scroll is the line offset into the event text.
	Scroll int
}

// State is a snapshot handed to the renderer once per frame.
type State struct {
	Schedule *schedule.Schedule
	Grid     *grid.Grid

	Mode      Mode
	Selection TimeCoord

	GridView   GridState
	SingleView SingleState
}

// Selected returns the event under the selection. ok is false when the
// selected column is empty at that row.
func (s State) Selected() (*schedule.Event, bool) {
	row, found := s.Grid.Row(s.Selection.Row)
	if !found {
		return nil, false
	}
	if s.Selection.Column < 0 || s.Selection.Column >= len(row) {
		return nil, false
	}
	cell := row[s.Selection.Column]
	if !cell.Ok {
		return nil, false
	}
	return s.Schedule.ResolveEvent(cell.ID), true
}

// Store exclusively owns the State.
type Store struct {
	state State
}

// New creates a store in Grid mode with the earliest event selected and both
// views scrolled to the top.
func New(sched *schedule.Schedule, g *grid.Grid) (*Store, error) {
	if sched == nil || g == nil {
		return nil, errors.New("state: schedule and grid are required")
	}
	first, ok := sched.First()
	if !ok {
		return nil, fmt.Errorf("state: %w", schedule.ErrEmpty)
	}

	sel := TimeCoord{Row: first.Start}
	if row, found := g.Row(first.Start); found {
		if c, placed := row.Column(first.ID); placed {
			sel.Column = c
		}
	}

	return &Store{
		state: State{
			Schedule:  sched,
			Grid:      g,
			Mode:      Grid,
			Selection: sel,
		},
	}, nil
}

// State returns a copy of the current state. The schedule and grid pointers
// are shared and read-only.
func (st *Store) State() State {
	return st.state
}

// SetGridHeight records how many grid rows the renderer shows and scrolls
// the grid so the selected row stays inside them.
func (st *Store) SetGridHeight(rows int) {
	if rows < 0 {
		rows = 0
	}
	s := &st.state
	s.GridView.Height = rows
	s.GridView.follow(s)
}

// Dispatch applies one action. It reports whether the action asks the
// program to exit.
func (st *Store) Dispatch(a Action) (exit bool) {
	s := &st.state

	switch a := a.(type) {
	case Exit:
		return true
	case SwitchTo:
		s.Mode = a.Mode
		return false
	case Scroll:
		switch s.Mode {
		case Grid:
			s.GridView.scroll(a.Direction, s.Grid.Len()-1)
		case Single:
			s.SingleView.scroll(a.Direction, math.MaxInt)
		}
		return false
	}

	prev := s.Selection
	prevEvent, hadEvent := s.Selected()

	if sel, ok := a.(Select); ok {
		s.Selection = s.move(sel.To)
		if s.Selection != prev {
			appLog.Debug("selection moved",
				"to", sel.To,
				"row", s.Selection.Row.Format(time.RFC3339),
				"column", s.Selection.Column,
			)
		}
	}

	// Everything else goes to both modes; each ignores what it does not know.
	changed := eventChanged(prevEvent, hadEvent, s)
	s.GridView.update(a, s, changed)
	s.SingleView.update(a, s, changed)

	return false
}

func eventChanged(prev *schedule.Event, had bool, s *State) bool {
	cur, has := s.Selected()
	if had != has {
		return true
	}
	return has && cur.ID != prev.ID
}

func (g *GridState) update(a Action, s *State, _ bool) {
	if _, ok := a.(Select); !ok {
		return
	}
	g.follow(s)
}

// follow moves the scroll just far enough that the selected row is inside
// the viewport.
func (g *GridState) follow(s *State) {
	idx, ok := s.Grid.Index(s.Selection.Row)
	if !ok {
		return
	}
	if idx < g.Scroll {
		g.Scroll = idx
	}
	if g.Height > 0 && idx >= g.Scroll+g.Height {
		g.Scroll = idx - g.Height + 1
	}
}

func (g *GridState) scroll(d VerticalDirection, limit int) {
	g.Scroll = saturate(g.Scroll, d, limit)
}

func (v *SingleState) update(a Action, _ *State, eventChanged bool) {
	if _, ok := a.(Select); !ok {
		return
	}
	if eventChanged {
		v.Scroll = 0
	}
}

func (v *SingleState) scroll(d VerticalDirection, limit int) {
	v.Scroll = saturate(v.Scroll, d, limit)
}

// saturate steps n by one within [0, limit].
func saturate(n int, d VerticalDirection, limit int) int {
	if limit < 0 {
		limit = 0
	}
	switch d {
	case ScrollDown:
		if n < limit {
			n++
		}
	case ScrollUp:
		if n > 0 {
			n--
		}
	}
	if n > limit {
		n = limit
	}
	return n
}

// move computes the selection after one step. Exhausted moves return the
// selection unchanged.
func (s *State) move(to To) TimeCoord {
	sel := s.Selection
	row, ok := s.Grid.Row(sel.Row)
	if !ok {
		return sel
	}

	switch to {
	case Left, Right:
		step := 1
		if to == Left {
			step = -1
		}

		if first, last, occupied := row.Bounds(); occupied {
			// Approach the occupied range from wherever a vertical move left
			// the column, then step inside it.
			col := sel.Column + step
			if to == Left && col > last {
				col = last
			}
			if to == Right && col < first {
				col = first
			}
			if col >= first && col <= last {
				return TimeCoord{Row: sel.Row, Column: col}
			}
		}

		at, _, ok := s.Schedule.Relative(step, sel.Row)
		if !ok {
			return sel
		}
		next, _ := s.Grid.Row(at)
		col := 0
		if first, last, occupied := next.Bounds(); occupied {
			if to == Left {
				col = first
			} else {
				col = last
			}
		}
		return TimeCoord{Row: at, Column: col}

	case Up, Below:
		step := 1
		if to == Up {
			step = -1
		}
		at, _, ok := s.Schedule.Relative(step, sel.Row)
		if !ok {
			return sel
		}
		return TimeCoord{Row: at, Column: sel.Column}
	}

	return sel
}
