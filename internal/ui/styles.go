package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// Box drawing characters
const (
	TopLeft     = "╭"
	TopRight    = "╮"
	BottomLeft  = "╰"
	BottomRight = "╯"
	Horizontal  = "─"
	Vertical    = "│"
	LeftT       = "├"
	RightT      = "┤"
	TopT        = "┬"
	BottomT     = "┴"
	Cross       = "┼"
)

// Selector width bounds
const (
	minWidth = 60
	maxWidth = 120
)

// Color palette
const (
	ColorBorder    = "240"
	ColorHeader    = "252"
	ColorName      = "81"
	ColorCIDR      = "252"
	ColorBridge    = "214"
	ColorNamespace = "245"
	ColorPublic    = "82"
	ColorPrivate   = "214"
	ColorOK        = "82"
	ColorWarn      = "214"
	ColorError     = "196"
	ColorMuted     = "240"
	ColorHint      = "245"
)

// Shared styles
var (
	BorderStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorBorder))
	HeaderStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorHeader))
	NameStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorName))
	CIDRStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorCIDR))
	BridgeStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorBridge))
	NamespaceStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorNamespace))
	PublicStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorPublic))
	PrivateStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorPrivate))
	OKStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorOK))
	WarnStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorWarn))
	ErrorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorError))
	MutedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorMuted))
	HintStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorHint))
)

// padRight pads a string to the specified display width using runewidth
func padRight(s string, width int) string {
	sw := runewidth.StringWidth(s)
	if sw >= width {
		return runewidth.Truncate(s, width, "...")
	}
	return s + strings.Repeat(" ", width-sw)
}
