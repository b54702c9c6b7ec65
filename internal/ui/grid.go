package ui

import (
	"strings"

	"fahrplan/internal/state"
)

const (
	gutterWidth    = 11 // "Mon 15:04" + padding
	minColumnWidth = 6
	dateKey        = "2006-01-02"
)

// gridView renders one line per grid row, starting at the grid scroll row.
func (m *Model) gridView(cur *state.State, height int) string {
	if height < 1 {
		height = 1
	}
	g := cur.Grid

	selIdx, _ := g.Index(cur.Selection.Row)
	offset := cur.GridView.Scroll

	colWidth := (m.width - gutterWidth) / g.Width()
	if colWidth < minColumnWidth {
		colWidth = minColumnWidth
	}

	lines := make([]string, 0, height)
	prevDay := ""
	if offset > 0 {
		t, _ := g.RowAt(offset - 1)
		prevDay = m.display(t).Format(dateKey)
	}

	for i := offset; i < g.Len() && len(lines) < height; i++ {
		at, row := g.RowAt(i)
		local := m.display(at)

		label := "    " + local.Format(timeFormatShort)
		if day := local.Format(dateKey); day != prevDay {
			label = local.Format("Mon") + " " + local.Format(timeFormatShort)
			prevDay = day
		}

		var b strings.Builder
		b.WriteString(m.st.helper.Render(fit(label, gutterWidth)))

		for c, cell := range row {
			text := ""
			continued := false
			if cell.Ok {
				ev := cur.Schedule.ResolveEvent(cell.ID)
				if ev.Start.Equal(at) {
					text = ev.Title
					if ev.Room != "" {
						text += " @ " + ev.Room
					}
				} else {
					text = "┆ " + ev.Title
					continued = true
				}
			}
			cellText := fit(text, colWidth-1) + " "

			switch {
			case i == selIdx && c == cur.Selection.Column:
				b.WriteString(m.st.selected.Render(cellText))
			case continued:
				b.WriteString(m.st.cont.Render(cellText))
			default:
				b.WriteString(cellText)
			}
		}
		lines = append(lines, b.String())
	}

	for len(lines) < height {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}
