package ui

import (
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/muesli/termenv"

	"fahrplan/internal/grid"
	"fahrplan/internal/model"
	"fahrplan/internal/schedule"
	"fahrplan/internal/state"
)

func TestMain(m *testing.M) {
	lipgloss.SetColorProfile(termenv.Ascii)
	os.Exit(m.Run())
}

var day = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func at(h, m int) time.Time {
	return day.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute)
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func newModel(t *testing.T) *Model {
	t.Helper()
	person := func(name string) model.PersonRecord {
		return model.PersonRecord{GUID: uuid.NewSHA1(uuid.NameSpaceOID, []byte(name)), Name: name}
	}
	feedback := "https://example.com/feedback"
	s, err := schedule.New(model.Import{
		Conference: model.Conference{Acronym: "tc", Title: "Test Conf"},
		Events: []model.EventRecord{
			{
				GUID:        uuid.NewSHA1(uuid.NameSpaceOID, []byte("a")),
				Title:       "Opening",
				Subtitle:    "Welcome everyone",
				Abstract:    "A short abstract.",
				Room:        "Hall 1",
				Track:       "General",
				Start:       at(10, 0),
				Duration:    90 * time.Minute,
				FeedbackURL: &feedback,
				Persons:     []model.PersonRecord{person("Alice"), person("Bob")},
			},
			{
				GUID:     uuid.NewSHA1(uuid.NameSpaceOID, []byte("b")),
				Title:    "Workshop",
				Room:     "Hall 2",
				Start:    at(10, 0),
				Duration: time.Hour,
			},
			{
				GUID:     uuid.NewSHA1(uuid.NameSpaceOID, []byte("c")),
				Title:    "Overflow",
				Start:    at(10, 0),
				Duration: time.Hour,
			},
			{
				GUID:     uuid.NewSHA1(uuid.NameSpaceOID, []byte("d")),
				Title:    "Lunch",
				Start:    at(11, 0),
				Duration: time.Hour,
			},
			{
				GUID:     uuid.NewSHA1(uuid.NameSpaceOID, []byte("e")),
				Title:    "Closing",
				Start:    at(12, 0),
				Duration: time.Hour,
			},
		},
	})
	if err != nil {
		t.Fatalf("schedule.New: %v", err)
	}
	store, err := state.New(s, grid.Build(s, 2))
	if err != nil {
		t.Fatalf("state.New: %v", err)
	}
	m := New(store, Options{Now: func() time.Time { return at(8, 0) }})
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 20})
	return m
}

func TestActionForKey(t *testing.T) {
	k := defaultKeyMap()
	tests := []struct {
		name   string
		mode   state.Mode
		msg    tea.KeyMsg
		want   state.Action
		wantOK bool
	}{
		{"quit", state.Grid, runes("q"), state.Exit{}, true},
		{"ctrl+c", state.Single, tea.KeyMsg{Type: tea.KeyCtrlC}, state.Exit{}, true},
		{"left", state.Grid, runes("h"), state.Select{To: state.Left}, true},
		{"right arrow", state.Single, tea.KeyMsg{Type: tea.KeyRight}, state.Select{To: state.Right}, true},
		{"grid up", state.Grid, runes("k"), state.Select{To: state.Up}, true},
		{"grid down", state.Grid, tea.KeyMsg{Type: tea.KeyDown}, state.Select{To: state.Below}, true},
		{"grid open", state.Grid, tea.KeyMsg{Type: tea.KeyEnter}, state.SwitchTo{Mode: state.Single}, true},
		{"grid page down", state.Grid, tea.KeyMsg{Type: tea.KeyPgDown}, state.Scroll{Direction: state.ScrollDown}, true},
		{"single scroll", state.Single, runes("j"), state.Scroll{Direction: state.ScrollDown}, true},
		{"single prev row", state.Single, runes("K"), state.Select{To: state.Up}, true},
		{"single next row", state.Single, runes("J"), state.Select{To: state.Below}, true},
		{"single back", state.Single, tea.KeyMsg{Type: tea.KeyEsc}, state.SwitchTo{Mode: state.Grid}, true},
		{"enter in single", state.Single, tea.KeyMsg{Type: tea.KeyEnter}, nil, false},
		{"unbound", state.Grid, runes("x"), nil, false},
	}
	for _, tt := range tests {
		got, ok := k.actionForKey(tt.mode, tt.msg)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("%s: actionForKey = %#v, %v, want %#v, %v", tt.name, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestActionForMouse(t *testing.T) {
	a, ok := actionForMouse(tea.MouseMsg{Action: tea.MouseActionPress, Button: tea.MouseButtonWheelUp})
	if !ok || a != (state.Scroll{Direction: state.ScrollUp}) {
		t.Errorf("wheel up = %#v, %v", a, ok)
	}
	if _, ok := actionForMouse(tea.MouseMsg{Action: tea.MouseActionRelease, Button: tea.MouseButtonLeft}); ok {
		t.Error("left release mapped to an action")
	}
}

func TestUpdateDispatches(t *testing.T) {
	m := newModel(t)

	m.Update(runes("l"))
	cur := m.store.State()
	if ev, ok := cur.Selected(); !ok || ev.Title != "Workshop" {
		t.Fatalf("after l selected = %v, %v, want Workshop", ev, ok)
	}

	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if got := m.store.State().Mode; got != state.Single {
		t.Fatalf("after enter mode = %v, want single", got)
	}

	_, cmd := m.Update(runes("q"))
	if cmd == nil {
		t.Fatal("q returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q did not quit")
	}
}

func TestSingleScrollStopsAtText(t *testing.T) {
	m := newModel(t)
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	for i := 0; i < 5; i++ {
		m.Update(runes("j"))
	}
	if got := m.store.State().SingleView.Scroll; got != 0 {
		t.Errorf("SingleView.Scroll = %d, want 0 for text that fits", got)
	}
}

func TestGridView(t *testing.T) {
	m := newModel(t)
	out := m.View()

	for _, want := range []string{
		"tc · Test Conf",
		"1 event hidden",
		"Fri 10:00",
		"Opening @ Hall 1",
		"Workshop @ Hall 2",
		"┆ Opening",
		"Lunch",
		"q quit",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("grid view missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Overflow") {
		t.Errorf("grid view shows dropped event:\n%s", out)
	}
}

func TestSingleView(t *testing.T) {
	m := newModel(t)
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	out := m.View()

	for _, want := range []string{
		"Opening",
		"Welcome everyone",
		"by Alice and Bob",
		"Hall 1",
		"1h 30m",
		"General",
		"A short abstract.",
		"feedback: https://example.com/feedback",
		"esc grid",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("single view missing %q:\n%s", want, out)
		}
	}
}

func TestGridPagingAfterSelectingFarDown(t *testing.T) {
	var recs []model.EventRecord
	for i := 0; i < 40; i++ {
		title := fmt.Sprintf("Talk %02d", i)
		recs = append(recs, model.EventRecord{
			GUID:     uuid.NewSHA1(uuid.NameSpaceOID, []byte(title)),
			Title:    title,
			Start:    at(0, 30*i),
			Duration: 30 * time.Minute,
		})
	}
	s, err := schedule.New(model.Import{Events: recs})
	if err != nil {
		t.Fatalf("schedule.New: %v", err)
	}
	store, err := state.New(s, grid.Build(s, 1))
	if err != nil {
		t.Fatalf("state.New: %v", err)
	}
	m := New(store, Options{Now: func() time.Time { return at(0, 0) }})
	// Two lines go to the header and the help line.
	m.Update(tea.WindowSizeMsg{Width: 80, Height: 14})

	for i := 0; i < 30; i++ {
		m.Update(runes("j"))
	}
	if got := m.store.State().GridView.Scroll; got != 19 {
		t.Fatalf("GridView.Scroll after moving down = %d, want 19", got)
	}
	out := m.View()
	if !strings.Contains(out, "Talk 30") || !strings.Contains(out, "Talk 19") || strings.Contains(out, "Talk 18") {
		t.Fatalf("view does not end at the selection:\n%s", out)
	}

	m.Update(tea.KeyMsg{Type: tea.KeyPgUp})
	out = m.View()
	if !strings.Contains(out, "Talk 18") || strings.Contains(out, "Talk 30") {
		t.Errorf("pgup did not scroll the view:\n%s", out)
	}

	for i := 0; i < 5; i++ {
		m.Update(tea.KeyMsg{Type: tea.KeyPgDown})
	}
	out = m.View()
	if got := m.store.State().GridView.Scroll; got != 23 {
		t.Errorf("GridView.Scroll after pgdown = %d, want 23", got)
	}
	if strings.Contains(out, "Talk 22") || !strings.Contains(out, "Talk 23") || !strings.Contains(out, "Talk 34") {
		t.Errorf("pgdown did not scroll the view:\n%s", out)
	}
}

func TestSingleViewEmptySlot(t *testing.T) {
	m := newModel(t)
	// Column 1 at 12:00 is empty.
	m.Update(runes("l"))
	m.Update(runes("j"))
	m.Update(runes("j"))
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	if out := m.View(); !strings.Contains(out, "No event in this slot") {
		t.Errorf("single view on empty slot:\n%s", out)
	}
}

func TestJoinNames(t *testing.T) {
	tests := []struct {
		in   []string
		want string
	}{
		{nil, ""},
		{[]string{"A"}, "A"},
		{[]string{"A", "B"}, "A and B"},
		{[]string{"A", "B", "C"}, "A, B and C"},
	}
	for _, tt := range tests {
		if got := joinNames(tt.in); got != tt.want {
			t.Errorf("joinNames(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "0m"},
		{45 * time.Minute, "45m"},
		{time.Hour, "1h"},
		{90 * time.Minute, "1h 30m"},
		{26 * time.Hour, "26h"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.in); got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatPoint(t *testing.T) {
	now := at(8, 0)
	if got := formatPoint(at(10, 30), now); got != "10:30" {
		t.Errorf("same day = %q, want 10:30", got)
	}
	if got := formatPoint(at(34, 30), now); got != "2024-03-02 10:30" {
		t.Errorf("next day = %q, want 2024-03-02 10:30", got)
	}
}

func TestTruncateAndFit(t *testing.T) {
	if got := truncate("Opening Ceremony", 8); got != "Opening…" {
		t.Errorf("truncate = %q", got)
	}
	if got := fit("ab", 4); got != "ab  " {
		t.Errorf("fit = %q", got)
	}
	if got := spread("left", "right", 12); got != "left   right" {
		t.Errorf("spread = %q", got)
	}
}
