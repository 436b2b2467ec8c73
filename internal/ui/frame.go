package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// frame builds a single box-drawn panel line by line
type frame struct {
	sb    strings.Builder
	width int
}

func newFrame(width int) *frame {
	return &frame{width: width}
}

func (f *frame) rule(left, right string) {
	f.sb.WriteString(BorderStyle.Render(left + strings.Repeat(Horizontal, f.width) + right))
	f.sb.WriteString("\n")
}

// row writes one line of cells laid out left to right. A zero width cell
// takes the remaining space.
func (f *frame) row(cells []Cell, widths []int) {
	var line strings.Builder
	used := 0
	for i, c := range cells {
		w := 0
		if i < len(widths) {
			w = widths[i]
		}
		if w == 0 || used+w > f.width {
			w = f.width - used
		}
		if w <= 0 {
			break
		}
		line.WriteString(c.Style.Render(padRight(c.Text, w)))
		used += w
	}
	if used < f.width {
		line.WriteString(strings.Repeat(" ", f.width-used))
	}
	f.sb.WriteString(BorderStyle.Render(Vertical))
	f.sb.WriteString(line.String())
	f.sb.WriteString(BorderStyle.Render(Vertical))
	f.sb.WriteString("\n")
}

func (f *frame) text(s string, style lipgloss.Style) {
	f.row([]Cell{{s, style}}, nil)
}

// split writes left and right aligned text on one line
func (f *frame) split(left string, leftStyle lipgloss.Style, right string, rightStyle lipgloss.Style) {
	rw := runewidth.StringWidth(right)
	if rw >= f.width {
		f.text(left, leftStyle)
		return
	}
	f.row([]Cell{{left, leftStyle}, {right, rightStyle}}, []int{f.width - rw, rw})
}

func (f *frame) String() string {
	return f.sb.String()
}
