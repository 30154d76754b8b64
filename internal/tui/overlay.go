package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

var dialogStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(colorAccent).
	Padding(1, 2)

// centerDialog draws body as a bordered card in the middle of base.
func centerDialog(base, body string, width, height int) string {
	if width <= 0 || height <= 0 {
		return ""
	}
	card := dialogStyle.Render(body)
	lines := strings.Split(card, "\n")
	w := widest(lines)
	x := max((width-w)/2, 0)
	y := max((height-len(lines))/2, 0)
	return placeAt(base, card, x, y, width, height)
}

// placeAt paints overlay over base with its top left corner at (x, y).
// Both may contain ANSI styling.
func placeAt(base, overlay string, x, y, width, height int) string {
	rows := fitLines(base, height)
	over := strings.Split(overlay, "\n")
	ow := widest(over)
	for i, line := range over {
		row := y + i
		if row < 0 || row >= len(rows) {
			continue
		}
		target := padANSI(rows[row], width)
		left := padANSI(ansi.Truncate(target, x, ""), x)
		mid := padANSI(line, ow)
		end := x + ansi.StringWidth(mid)
		rows[row] = padANSI(left+mid+skipCols(target, end), width)
	}
	return strings.Join(rows, "\n")
}

// setCell replaces the single cell at col of a plain line.
func setCell(line string, col int, glyph string) string {
	if col < 0 {
		return line
	}
	left := padANSI(ansi.Truncate(line, col, ""), col)
	return left + glyph + skipCols(line, col+1)
}

func fitLines(s string, height int) []string {
	lines := strings.Split(s, "\n")
	if height > 0 && len(lines) > height {
		lines = lines[:height]
	}
	for height > 0 && len(lines) < height {
		lines = append(lines, "")
	}
	return lines
}

func widest(lines []string) int {
	w := 0
	for _, l := range lines {
		w = max(w, ansi.StringWidth(l))
	}
	return w
}

func skipCols(s string, cols int) string {
	if cols <= 0 {
		return s
	}
	return strings.TrimPrefix(s, ansi.Truncate(s, cols, ""))
}

func padANSI(s string, width int) string {
	s = ansi.Truncate(s, width, "")
	if w := ansi.StringWidth(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}
