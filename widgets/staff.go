package widgets

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"go-melodycards/game"
	"go-melodycards/theme"
)

// cell is one grid unit of the staff
type cell struct {
	symbol rune
	pitch  string
	status string
	start  bool // first unit of its placement
}

// staffCells lays placements and sounding pitches onto the grid
func staffCells(th *theme.Theme, snap game.Snapshot) []cell {
	total := snap.EighthNotesPerMeasure * snap.MaxMeasures
	cells := make([]cell, total)
	for i := range cells {
		cells[i].symbol = th.Symbols.Empty
	}

	for _, p := range snap.Placements {
		sym := th.Symbols.Fused
		if !p.Fused && len(p.Cards) == 1 {
			sym = th.Symbols.Rhythm
			if p.Cards[0].Kind == "pitch" {
				sym = th.Symbols.Pitch
			}
		}
		status := ""
		if len(p.Cards) > 0 {
			status = p.Cards[0].Status
		}
		for u := p.Start; u < p.Start+p.Length && u < total; u++ {
			if u < 0 {
				continue
			}
			cells[u] = cell{symbol: sym, status: status, start: u == p.Start}
		}
	}

	for _, e := range snap.Melody {
		for u := e.Start; u < e.End() && u < total; u++ {
			if u >= 0 {
				cells[u].pitch = e.Pitch
			}
		}
	}
	return cells
}

// RenderStaff draws the staff perLine measures to a row. cursor is a grid
// unit, or -1 for none; the playhead comes from the snapshot.
func RenderStaff(th *theme.Theme, snap game.Snapshot, cursor, perLine int) string {
	n := snap.EighthNotesPerMeasure
	if n <= 0 || snap.MaxMeasures <= 0 {
		return ""
	}
	if perLine <= 0 {
		perLine = 4
	}

	cells := staffCells(th, snap)
	completed := make(map[int]bool, len(snap.Completed))
	for _, m := range snap.Completed {
		completed[m] = true
	}
	head := -1
	if snap.Position >= 0 {
		head = int(math.Floor(snap.Position))
	}

	muted := lipgloss.NewStyle().Foreground(th.Muted())
	barDone := lipgloss.NewStyle().Foreground(th.Success())
	bar := muted.Render(string(th.Symbols.Bar))

	var lines []string
	for first := 0; first < snap.MaxMeasures; first += perLine {
		last := first + perLine
		if last > snap.MaxMeasures {
			last = snap.MaxMeasures
		}

		var label, row strings.Builder
		for m := first; m < last; m++ {
			num := fmt.Sprintf("%-*d", n+1, m+1)
			if completed[m] {
				label.WriteString(barDone.Render(num))
			} else {
				label.WriteString(muted.Render(num))
			}

			row.WriteString(bar)
			for u := m * n; u < (m+1)*n; u++ {
				row.WriteString(renderCell(th, cells[u], u == cursor, u == head))
			}
		}
		row.WriteString(bar)
		lines = append(lines, " "+label.String(), row.String())
	}
	return strings.Join(lines, "\n")
}

func renderCell(th *theme.Theme, c cell, cursor, head bool) string {
	style := lipgloss.NewStyle()
	switch {
	case c.pitch != "":
		style = th.NoteStyle(c.pitch)
	case c.status == "locked":
		style = style.Foreground(th.Success())
	case c.status == "waiting":
		style = style.Foreground(th.Warning())
	default:
		style = style.Foreground(th.Muted())
	}
	if c.status == "locked" {
		style = style.Bold(true)
	}
	if head {
		style = style.Reverse(true)
	}
	if cursor {
		style = style.Background(th.Cursor())
	}

	sym := c.symbol
	if !c.start && sym != th.Symbols.Empty {
		// continuation of the placement to the left
		sym = '─'
	}
	return style.Render(string(sym))
}

// RenderCard is a one-line description of a card
func RenderCard(th *theme.Theme, c game.CardView, selected bool) string {
	var b strings.Builder
	if selected {
		b.WriteString(lipgloss.NewStyle().Foreground(th.Cursor()).Render(string(th.Symbols.Cursor)))
	} else {
		b.WriteString(" ")
	}
	b.WriteString(fmt.Sprintf(" #%-3d ", c.ID))

	switch c.Kind {
	case "rhythm":
		vals := make([]string, len(c.Rhythm))
		for i, v := range c.Rhythm {
			vals[i] = fmt.Sprint(v)
		}
		b.WriteString(string(th.Symbols.Rhythm) + " " + strings.Join(vals, " "))
	default:
		names := make([]string, len(c.Pitches))
		for i, p := range c.Pitches {
			names[i] = th.NoteStyle(p).Render(p)
		}
		b.WriteString(string(th.Symbols.Pitch) + " " + strings.Join(names, " "))
	}

	b.WriteString(lipgloss.NewStyle().Foreground(th.Muted()).Render(fmt.Sprintf("  len %d", c.Length)))
	switch c.Status {
	case "locked":
		b.WriteString(" " + string(th.Symbols.Locked))
	case "waiting":
		b.WriteString(" " + string(th.Symbols.Waiting))
	}
	return b.String()
}

// RenderPool lists pool cards, marking the selected index
func RenderPool(th *theme.Theme, pool []game.CardView, selected int) string {
	if len(pool) == 0 {
		return lipgloss.NewStyle().Foreground(th.Muted()).Render("  (pool empty)")
	}
	lines := make([]string, len(pool))
	for i, c := range pool {
		lines[i] = RenderCard(th, c, i == selected)
	}
	return strings.Join(lines, "\n")
}
