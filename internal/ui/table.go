package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Cell is one styled table value
type Cell struct {
	Text  string
	Style lipgloss.Style
}

// Table is a box-drawn table with fixed column widths
type Table struct {
	Headers []string
	Widths  []int
	Rows    [][]Cell
}

func (t *Table) border(left, mid, right string) string {
	var sb strings.Builder
	sb.WriteString(BorderStyle.Render(left))
	for i, w := range t.Widths {
		sb.WriteString(BorderStyle.Render(strings.Repeat(Horizontal, w+2)))
		if i < len(t.Widths)-1 {
			sb.WriteString(BorderStyle.Render(mid))
		}
	}
	sb.WriteString(BorderStyle.Render(right))
	sb.WriteString("\n")
	return sb.String()
}

// Render draws the table
func (t *Table) Render() string {
	var sb strings.Builder

	// Top border
	sb.WriteString(t.border(TopLeft, TopT, TopRight))

	// Header row
	sb.WriteString(BorderStyle.Render(Vertical))
	for i, h := range t.Headers {
		cell := " " + padRight(h, t.Widths[i]) + " "
		sb.WriteString(HeaderStyle.Render(cell))
		sb.WriteString(BorderStyle.Render(Vertical))
	}
	sb.WriteString("\n")

	// Header separator
	sb.WriteString(t.border(LeftT, Cross, RightT))

	// Data rows
	for _, row := range t.Rows {
		sb.WriteString(BorderStyle.Render(Vertical))
		for i, w := range t.Widths {
			c := Cell{Style: lipgloss.NewStyle()}
			if i < len(row) {
				c = row[i]
			}
			cell := " " + padRight(c.Text, w) + " "
			sb.WriteString(c.Style.Render(cell))
			sb.WriteString(BorderStyle.Render(Vertical))
		}
		sb.WriteString("\n")
	}

	// Bottom border
	sb.WriteString(t.border(BottomLeft, BottomT, BottomRight))
	return sb.String()
}
