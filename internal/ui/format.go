package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

const (
	timeFormatShort = "15:04"
	timeFormatLong  = "2006-01-02 15:04"
)

type styles struct {
	header   lipgloss.Style
	helper   lipgloss.Style
	selected lipgloss.Style
	title    lipgloss.Style
	subtitle lipgloss.Style
	cont     lipgloss.Style
}

func defaultStyles() styles {
	return styles{
		header:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205")),
		helper:   lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		selected: lipgloss.NewStyle().Reverse(true),
		title:    lipgloss.NewStyle().Bold(true),
		subtitle: lipgloss.NewStyle().Italic(true),
		cont:     lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
	}
}

// formatPoint shows only the time of day when t falls on the same date as
// now, the full date otherwise.
func formatPoint(t, now time.Time) string {
	now = now.In(t.Location())
	if t.Year() == now.Year() && t.YearDay() == now.YearDay() {
		return t.Format(timeFormatShort)
	}
	return t.Format(timeFormatLong)
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Minute)
	h := int(d / time.Hour)
	mins := int((d % time.Hour) / time.Minute)
	switch {
	case h > 0 && mins > 0:
		return fmt.Sprintf("%dh %dm", h, mins)
	case h > 0:
		return fmt.Sprintf("%dh", h)
	default:
		return fmt.Sprintf("%dm", mins)
	}
}

// joinNames concatenates names with commas, using "and" before the last.
func joinNames(names []string) string {
	switch len(names) {
	case 0:
		return ""
	case 1:
		return names[0]
	default:
		return strings.Join(names[:len(names)-1], ", ") + " and " + names[len(names)-1]
	}
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

// truncate cuts s to at most width terminal cells.
func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	return runewidth.Truncate(s, width, "…")
}

// fit truncates s and pads it to exactly width terminal cells.
func fit(s string, width int) string {
	if width <= 0 {
		return ""
	}
	return runewidth.FillRight(truncate(s, width), width)
}

// spread places left and right at the edges of a line of width cells.
func spread(left, right string, width int) string {
	rw := runewidth.StringWidth(right)
	if rw >= width {
		return truncate(left, width)
	}
	return fit(left, width-rw-1) + " " + right
}
