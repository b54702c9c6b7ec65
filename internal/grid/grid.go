// Package grid projects a schedule onto a fixed number of columns.
//
// For every time map row the grid records which event occupies each column
// at that instant. An event keeps its column for as long as it runs, so it
// does not jump sideways while scrolling through time. When more events run
// concurrently than there are columns, the later-declared ones are left out
// of the grid entirely; the schedule itself still holds them.
package grid

import (
	"sort"
	"time"

	appLog "fahrplan/internal/log"
	"fahrplan/internal/schedule"
)

// Cell is one column of a grid row. Empty cells have Ok == false.
type Cell struct {
	ID schedule.EventID
	Ok bool
}

// Row is a fixed-width snapshot of the columns at one instant.
type Row []Cell

// Bounds returns the first and last occupied column. ok is false when no
// column is occupied.
func (r Row) Bounds() (first, last int, ok bool) {
	first, last = -1, -1
	for i, c := range r {
		if !c.Ok {
			continue
		}
		if first < 0 {
			first = i
		}
		last = i
	}
	return first, last, first >= 0
}

// Column returns the column holding id.
func (r Row) Column(id schedule.EventID) (int, bool) {
	for i, c := range r {
		if c.Ok && c.ID == id {
			return i, true
		}
	}
	return 0, false
}

// Grid is read-only after Build.
type Grid struct {
	width int
	times []time.Time
	rows  []Row

	dropped []schedule.EventID
}

// slot is one column of the sweep state.
type slot struct {
	id   schedule.EventID
	end  time.Time
	used bool
}

// Build sweeps the schedule's time map in ascending order. At each instant T
// it first frees every column whose event ends at or before T, then places
// the events starting at T into the lowest free columns in import order.
// Events that find no free column are dropped for their whole lifetime.
//
// width below 1 is treated as 1.
func Build(s *schedule.Schedule, width int) *Grid {
	if width < 1 {
		width = 1
	}

	g := &Grid{
		width: width,
		times: make([]time.Time, 0, s.Rows()),
		rows:  make([]Row, 0, s.Rows()),
	}

	active := make([]slot, width)
	// live counts used slots; the eviction scan is skipped while it is zero.
	live := 0

	for i := 0; i < s.Rows(); i++ {
		at, ids := s.RowAt(i)

		if live > 0 {
			for c := range active {
				if active[c].used && !active[c].end.After(at) {
					active[c] = slot{}
					live--
				}
			}
		}

		for _, id := range ids {
			c := firstFree(active)
			if c < 0 {
				g.dropped = append(g.dropped, id)
				appLog.Debug("grid: column capacity exhausted, event left out",
					"event", id,
					"start", at.Format(time.RFC3339),
					"columns", width,
				)
				continue
			}
			ev := s.ResolveEvent(id)
			active[c] = slot{id: id, end: ev.End(), used: true}
			live++
		}

		row := make(Row, width)
		for c, sl := range active {
			if sl.used {
				row[c] = Cell{ID: sl.id, Ok: true}
			}
		}
		g.times = append(g.times, at)
		g.rows = append(g.rows, row)
	}

	return g
}

func firstFree(active []slot) int {
	for c := range active {
		if !active[c].used {
			return c
		}
	}
	return -1
}

// Width is the column capacity.
func (g *Grid) Width() int {
	return g.width
}

// Len is the number of rows, equal to the number of time map entries.
func (g *Grid) Len() int {
	return len(g.rows)
}

// RowAt returns the i-th row and its instant. The row must not be modified.
func (g *Grid) RowAt(i int) (time.Time, Row) {
	return g.times[i], g.rows[i]
}

// Index returns the position of the row for instant t.
func (g *Grid) Index(t time.Time) (int, bool) {
	i := sort.Search(len(g.times), func(i int) bool { return !g.times[i].Before(t) })
	if i < len(g.times) && g.times[i].Equal(t) {
		return i, true
	}
	return 0, false
}

// Row returns the row for instant t.
func (g *Grid) Row(t time.Time) (Row, bool) {
	i, ok := g.Index(t)
	if !ok {
		return nil, false
	}
	return g.rows[i], true
}

// Dropped lists the events that never got a column, in sweep order.
func (g *Grid) Dropped() []schedule.EventID {
	return g.dropped
}
