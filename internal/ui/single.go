package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"fahrplan/internal/schedule"
	"fahrplan/internal/state"
)

const (
	labelWidth = 6
	headerRows = 5
)

// singleView renders one event like the first page of a paper: metadata on
// the left, title block and scrollable text on the right.
func (m *Model) singleView(cur *state.State, height int) string {
	if height < 1 {
		height = 1
	}
	ev, ok := cur.Selected()
	if !ok {
		msg := m.st.helper.Render("No event in this slot. Move with h/l or J/K, esc for the grid.")
		return lipgloss.Place(m.width, height, lipgloss.Center, lipgloss.Center, msg)
	}

	metaWidth, textWidth := m.singleWidths()

	meta := lipgloss.NewStyle().Width(metaWidth).Height(height).Render(m.metadata(ev, metaWidth))

	header := lipgloss.NewStyle().
		Width(textWidth).
		Height(headerRows).
		Align(lipgloss.Center).
		Render(m.singleHeader(cur, ev, textWidth))

	bodyHeight := height - headerRows
	if bodyHeight < 1 {
		bodyHeight = 1
	}
	lines := m.bodyLines(ev, textWidth)
	offset := clampScroll(cur.SingleView.Scroll, len(lines), bodyHeight)
	end := offset + bodyHeight
	if end > len(lines) {
		end = len(lines)
	}
	body := lipgloss.NewStyle().Width(textWidth).Height(bodyHeight).Render(strings.Join(lines[offset:end], "\n"))

	right := lipgloss.NewStyle().PaddingLeft(2).Render(lipgloss.JoinVertical(lipgloss.Left, header, body))
	return lipgloss.JoinHorizontal(lipgloss.Top, meta, right)
}

func (m *Model) singleWidths() (meta, text int) {
	meta = m.width / 4
	if meta < labelWidth+12 {
		meta = labelWidth + 12
	}
	text = m.width - meta - 2
	if text < 10 {
		text = 10
	}
	return meta, text
}

// singleScrollLimit is the largest useful line offset for the selected event
// at the current terminal size.
func (m *Model) singleScrollLimit(cur *state.State) int {
	ev, ok := cur.Selected()
	if !ok {
		return 0
	}
	_, textWidth := m.singleWidths()
	visible := m.bodyHeight() - headerRows
	if visible < 1 {
		visible = 1
	}
	n := len(m.bodyLines(ev, textWidth)) - visible
	if n < 0 {
		return 0
	}
	return n
}

func clampScroll(scroll, lines, height int) int {
	limit := lines - height
	if limit < 0 {
		limit = 0
	}
	if scroll > limit {
		return limit
	}
	if scroll < 0 {
		return 0
	}
	return scroll
}

func (m *Model) metadata(ev *schedule.Event, width int) string {
	now := m.now()
	start := m.display(ev.Start)
	end := m.display(ev.End())

	rows := []struct{ label, value string }{
		{"where", ev.Room},
		{"when", formatPoint(start, now)},
		{"+", formatDuration(ev.Duration)},
		{"=", formatPoint(end, now)},
		{"", ""},
		{"track", ev.Track},
		{"type", ev.Type},
		{"lang", ev.Language},
	}

	lines := make([]string, 0, len(rows)+4)
	lines = append(lines, "", "", "", "")
	for _, r := range rows {
		label := lipgloss.NewStyle().Width(labelWidth).Align(lipgloss.Right).Render(r.label)
		lines = append(lines, m.st.helper.Render(label)+" "+truncate(r.value, width-labelWidth-1))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) singleHeader(cur *state.State, ev *schedule.Event, width int) string {
	names := make([]string, 0, len(ev.Persons))
	for _, id := range ev.Persons {
		names = append(names, cur.Schedule.ResolvePerson(id).Name)
	}

	lines := []string{
		m.st.title.Render(truncate(ev.Title, width)),
		m.st.subtitle.Render(truncate(ev.Subtitle, width)),
		"",
	}
	if len(names) > 0 {
		lines = append(lines, m.st.helper.Render("by ")+truncate(joinNames(names), width-3))
	}
	return strings.Join(lines, "\n")
}

// bodyLines is the scrollable part: abstract, description, links.
func (m *Model) bodyLines(ev *schedule.Event, width int) []string {
	var lines []string
	section := func(label, content string) {
		if strings.TrimSpace(content) == "" {
			return
		}
		if len(lines) > 0 {
			lines = append(lines, "")
		}
		lines = append(lines, m.st.helper.Render(label))
		lines = append(lines, strings.Split(wordwrap.String(content, width), "\n")...)
	}

	section("abstract", ev.Abstract)
	section("description", ev.Description)

	var refs []string
	if ev.URL != "" {
		refs = append(refs, "url: "+ev.URL)
	}
	if ev.FeedbackURL != nil {
		refs = append(refs, "feedback: "+*ev.FeedbackURL)
	}
	for _, l := range ev.Links {
		refs = append(refs, l.Label+": "+l.URL)
	}
	section("links", strings.Join(refs, "\n"))

	return lines
}
