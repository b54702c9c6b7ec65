// Package schedule holds the immutable in-memory conference schedule: all
// events and persons keyed by id, plus a time map from start instant to the
// events beginning then.
//
// A Schedule is built once by New and never mutated afterwards, so a single
// *Schedule can be shared freely between readers without locking.
package schedule

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"fahrplan/internal/model"
)

var (
	// ErrEmpty is returned by New when the import holds no events. An empty
	// schedule has no valid initial selection.
	ErrEmpty = errors.New("schedule is empty, nothing to display")
	// ErrNegativeDuration is returned by New for an event ending before it starts.
	ErrNegativeDuration = errors.New("event duration is negative")
	// ErrDuplicateEvent is returned by New when two records share a GUID.
	ErrDuplicateEvent = errors.New("duplicate event id")
)

// EventID identifies an event within a Schedule.
type EventID uuid.UUID

func (id EventID) String() string { return uuid.UUID(id).String() }

// PersonID identifies a person within a Schedule.
type PersonID uuid.UUID

func (id PersonID) String() string { return uuid.UUID(id).String() }

// Event is one scheduled talk or session.
type Event struct {
	ID EventID

	Start    time.Time
	Duration time.Duration

	Title       string
	Subtitle    string
	Abstract    string
	Description string

	Room     string
	Track    string
	Type     string
	Language string

	URL         string
	FeedbackURL *string
	Links       []Link

	Persons []PersonID
}

// End is Start + Duration.
func (e *Event) End() time.Time {
	return e.Start.Add(e.Duration)
}

// Link is one entry of an event's ordered label -> URL mapping.
type Link struct {
	Label string
	URL   string
}

// Person is a speaker or host, shared by every event they appear in.
type Person struct {
	ID   PersonID
	Name string
}

// entry is one time map row: every event starting at the same instant, in
// import order.
type entry struct {
	at  time.Time
	ids []EventID
}

// Schedule is the read-only event store and its time index.
type Schedule struct {
	conference model.Conference

	events  map[EventID]*Event
	persons map[PersonID]*Person

	// timeMap is sorted by instant; keys are distinct instants.
	timeMap []entry
}

// New builds a Schedule from decoded records. Record order is preserved
// inside each time map row.
func New(imp model.Import) (*Schedule, error) {
	if len(imp.Events) == 0 {
		return nil, ErrEmpty
	}

	s := &Schedule{
		conference: imp.Conference,
		events:     make(map[EventID]*Event, len(imp.Events)),
		persons:    make(map[PersonID]*Person),
	}

	// Group by instant while keeping first-seen order, then sort the rows.
	rowByInstant := make(map[int64]int)

	for i := range imp.Events {
		rec := &imp.Events[i]
		ev, persons, err := realize(rec)
		if err != nil {
			return nil, fmt.Errorf("schedule: event %d (%q): %w", i, rec.Title, err)
		}
		if _, dup := s.events[ev.ID]; dup {
			return nil, fmt.Errorf("schedule: event %s (%q): %w", ev.ID, rec.Title, ErrDuplicateEvent)
		}
		s.events[ev.ID] = ev

		for _, p := range persons {
			// The same speaker shows up once per talk; first name wins.
			if _, ok := s.persons[p.ID]; !ok {
				s.persons[p.ID] = p
			}
		}

		key := ev.Start.UnixNano()
		row, ok := rowByInstant[key]
		if !ok {
			row = len(s.timeMap)
			rowByInstant[key] = row
			s.timeMap = append(s.timeMap, entry{at: ev.Start})
		}
		s.timeMap[row].ids = append(s.timeMap[row].ids, ev.ID)
	}

	sort.Slice(s.timeMap, func(i, j int) bool {
		return s.timeMap[i].at.Before(s.timeMap[j].at)
	})

	return s, nil
}

func realize(rec *model.EventRecord) (*Event, []*Person, error) {
	if rec.Duration < 0 {
		return nil, nil, ErrNegativeDuration
	}

	ev := &Event{
		ID:          EventID(rec.GUID),
		Start:       rec.Start,
		Duration:    rec.Duration,
		Title:       rec.Title,
		Subtitle:    rec.Subtitle,
		Abstract:    rec.Abstract,
		Description: rec.Description,
		Room:        rec.Room,
		Track:       rec.Track,
		Type:        rec.Type,
		Language:    rec.Language,
		URL:         rec.URL,
		FeedbackURL: rec.FeedbackURL,
		Links:       realizeLinks(rec.Links),
		Persons:     make([]PersonID, 0, len(rec.Persons)),
	}

	persons := make([]*Person, 0, len(rec.Persons))
	for _, p := range rec.Persons {
		id := PersonID(p.GUID)
		ev.Persons = append(ev.Persons, id)
		persons = append(persons, &Person{ID: id, Name: p.Name})
	}

	return ev, persons, nil
}

// realizeLinks turns the record list into an ordered mapping: a repeated
// label keeps its first position and takes the last URL.
func realizeLinks(recs []model.LinkRecord) []Link {
	if len(recs) == 0 {
		return nil
	}
	links := make([]Link, 0, len(recs))
	index := make(map[string]int, len(recs))
	for _, r := range recs {
		if i, ok := index[r.Label]; ok {
			links[i].URL = r.URL
			continue
		}
		index[r.Label] = len(links)
		links = append(links, Link{Label: r.Label, URL: r.URL})
	}
	return links
}

// Conference returns the conference metadata the schedule was built with.
func (s *Schedule) Conference() model.Conference {
	return s.conference
}

// Len returns the number of events.
func (s *Schedule) Len() int {
	return len(s.events)
}

// First returns the event with the earliest start, ties broken by import
// order. ok is false only for a zero Schedule, since New refuses to build an
// empty one.
func (s *Schedule) First() (ev *Event, ok bool) {
	if len(s.timeMap) == 0 {
		return nil, false
	}
	ids := s.timeMap[0].ids
	if len(ids) == 0 {
		panic("schedule: time map must be consistent with events")
	}
	return s.ResolveEvent(ids[0]), true
}

// ResolveEvent returns the Event for id.
//
// It panics if id did not originate from this Schedule.
func (s *Schedule) ResolveEvent(id EventID) *Event {
	ev, ok := s.events[id]
	if !ok {
		panic(fmt.Sprintf("schedule: EventID %s is not from the current schedule", id))
	}
	return ev
}

// ResolvePerson returns the Person for id.
//
// It panics if id did not originate from this Schedule.
func (s *Schedule) ResolvePerson(id PersonID) *Person {
	p, ok := s.persons[id]
	if !ok {
		panic(fmt.Sprintf("schedule: PersonID %s is not from the current schedule", id))
	}
	return p
}

// Times returns the time map keys in ascending order.
func (s *Schedule) Times() []time.Time {
	out := make([]time.Time, len(s.timeMap))
	for i, e := range s.timeMap {
		out[i] = e.at
	}
	return out
}

// Rows returns the number of time map entries.
func (s *Schedule) Rows() int {
	return len(s.timeMap)
}

// RowAt returns the i-th time map entry. The returned slice must not be
// modified.
func (s *Schedule) RowAt(i int) (time.Time, []EventID) {
	e := s.timeMap[i]
	return e.at, e.ids
}

// Index returns the position of the time map key equal to t (same instant).
func (s *Schedule) Index(t time.Time) (int, bool) {
	i := sort.Search(len(s.timeMap), func(i int) bool {
		return !s.timeMap[i].at.Before(t)
	})
	if i < len(s.timeMap) && s.timeMap[i].at.Equal(t) {
		return i, true
	}
	return 0, false
}

// At returns the events starting at t, in import order.
func (s *Schedule) At(t time.Time) ([]EventID, bool) {
	i, ok := s.Index(t)
	if !ok {
		return nil, false
	}
	return s.timeMap[i].ids, true
}

// Relative returns the time map entry n entries away from the one at from:
// negative n moves earlier, positive later, zero returns from itself. ok is
// false if from is not a key or the step leaves the map.
func (s *Schedule) Relative(n int, from time.Time) (at time.Time, ids []EventID, ok bool) {
	i, found := s.Index(from)
	if !found {
		return time.Time{}, nil, false
	}
	j := i + n
	if j < 0 || j >= len(s.timeMap) {
		return time.Time{}, nil, false
	}
	e := s.timeMap[j]
	return e.at, e.ids, true
}
