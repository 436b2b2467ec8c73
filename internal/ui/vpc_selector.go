package ui

import (
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vietdv277/vpcctl/pkg/types"
)

const (
	pickerRows       = 6
	pickerSubnetRows = 4
	pickerLabelWidth = 10
)

// ErrSelectionCancelled is returned when the picker is closed without a choice
var ErrSelectionCancelled = errors.New("selection cancelled")

// VPCPicker is the bubbletea model behind "vpcctl show" without arguments.
// Typing filters on VPC and subnet names, ranges, namespaces, the NAT
// interface and peers.
type VPCPicker struct {
	all     []*types.VPC
	shown   []*types.VPC
	cursor  int
	top     int
	query   string
	chosen  *types.VPC
	aborted bool
	width   int
}

// NewVPCPicker creates a picker over the given records
func NewVPCPicker(vpcs []*types.VPC) VPCPicker {
	return VPCPicker{all: vpcs, shown: vpcs, width: 78}
}

// Init implements tea.Model
func (p VPCPicker) Init() tea.Cmd {
	return tea.WindowSize()
}

// Update implements tea.Model
func (p VPCPicker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		p.width = min(max(msg.Width-2, minWidth), maxWidth)

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			p.aborted = true
			return p, tea.Quit
		case tea.KeyEnter:
			if len(p.shown) > 0 {
				p.chosen = p.shown[p.cursor]
				return p, tea.Quit
			}
		case tea.KeyUp, tea.KeyCtrlP:
			p.move(-1)
		case tea.KeyDown, tea.KeyCtrlN:
			p.move(1)
		case tea.KeyPgUp:
			p.move(-pickerRows)
		case tea.KeyPgDown:
			p.move(pickerRows)
		case tea.KeyCtrlU:
			p.setQuery("")
		case tea.KeyBackspace:
			if q := []rune(p.query); len(q) > 0 {
				p.setQuery(string(q[:len(q)-1]))
			}
		case tea.KeyRunes, tea.KeySpace:
			p.setQuery(p.query + string(msg.Runes))
		}
	}
	return p, nil
}

func (p *VPCPicker) move(delta int) {
	if len(p.shown) == 0 {
		return
	}
	p.cursor = min(max(p.cursor+delta, 0), len(p.shown)-1)
	if p.cursor < p.top {
		p.top = p.cursor
	}
	if p.cursor >= p.top+pickerRows {
		p.top = p.cursor - pickerRows + 1
	}
}

func (p *VPCPicker) setQuery(q string) {
	p.query = q
	p.shown = nil
	for _, v := range p.all {
		if matchesVPC(v, strings.ToLower(strings.TrimSpace(q))) {
			p.shown = append(p.shown, v)
		}
	}
	p.cursor, p.top = 0, 0
}

func matchesVPC(v *types.VPC, q string) bool {
	if q == "" {
		return true
	}
	fields := []string{v.Name, v.CIDR, v.NATInterface}
	fields = append(fields, v.Peers...)
	for name, s := range v.Subnets {
		fields = append(fields, name, s.CIDR, s.Namespace)
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}

// View implements tea.Model
func (p VPCPicker) View() string {
	if p.aborted || p.chosen != nil {
		return ""
	}

	f := newFrame(p.width)
	f.rule(TopLeft, TopRight)
	f.split(" filter: "+p.query, NameStyle, fmt.Sprintf("%d/%d ", len(p.shown), len(p.all)), MutedStyle)
	f.rule(LeftT, RightT)

	end := min(p.top+pickerRows, len(p.shown))
	for i := p.top; i < end; i++ {
		p.listRow(f, i)
	}
	if len(p.shown) == 0 {
		f.text("   no VPC matches", MutedStyle)
	}
	for i := max(end-p.top, 1); i < pickerRows; i++ {
		f.text("", MutedStyle)
	}

	f.rule(LeftT, RightT)
	if len(p.shown) > 0 {
		p.details(f, p.shown[p.cursor])
	}
	f.rule(BottomLeft, BottomRight)

	return f.String() + HintStyle.Render("  ↑/↓ move · enter show · ctrl+u clear · esc cancel") + "\n"
}

func (p VPCPicker) listRow(f *frame, i int) {
	v := p.shown[i]
	marker := "   "
	if i == p.cursor {
		marker = " ▸ "
	}
	var flags []string
	if v.NATInterface != "" {
		flags = append(flags, "nat")
	}
	if len(v.Peers) > 0 {
		flags = append(flags, "peered")
	}
	f.row([]Cell{
		{marker, NameStyle},
		{v.Name, NameStyle},
		{v.CIDR, CIDRStyle},
		{subnetCounts(v), MutedStyle},
		{strings.Join(flags, " "), WarnStyle},
	}, []int{3, 14, 18, 20, 0})
}

func (p VPCPicker) details(f *frame, v *types.VPC) {
	nat := "disabled"
	if v.NATInterface != "" {
		nat = "via " + v.NATInterface
	}
	peers := "none"
	if len(v.Peers) > 0 {
		peers = strings.Join(v.Peers, ", ")
	}
	widths := []int{pickerLabelWidth + 1, 0}
	f.row([]Cell{{" Bridge", MutedStyle}, {v.Bridge, BridgeStyle}}, widths)
	f.row([]Cell{{" NAT", MutedStyle}, {nat, MutedStyle}}, widths)
	f.row([]Cell{{" Peers", MutedStyle}, {peers, MutedStyle}}, widths)

	names := v.SubnetNames()
	if len(names) == 0 {
		f.text(" no subnets", MutedStyle)
		return
	}
	for i, name := range names {
		if i == pickerSubnetRows {
			f.text(fmt.Sprintf("   +%d more", len(names)-i), MutedStyle)
			break
		}
		s := v.Subnets[name]
		f.row([]Cell{
			{"", MutedStyle},
			{name, NameStyle},
			{s.CIDR, CIDRStyle},
			formatSubnetType(s.Type),
			{s.Namespace, NamespaceStyle},
		}, []int{3, 14, 18, 12, 0})
	}
}

func subnetCounts(v *types.VPC) string {
	public := 0
	for _, s := range v.Subnets {
		if s.Type == types.SubnetPublic {
			public++
		}
	}
	return fmt.Sprintf("%d pub / %d priv", public, len(v.Subnets)-public)
}

// SelectVPC runs the picker and returns the chosen record
func SelectVPC(vpcs []*types.VPC) (*types.VPC, error) {
	if len(vpcs) == 0 {
		return nil, errors.New("no VPCs recorded")
	}
	final, err := tea.NewProgram(NewVPCPicker(vpcs)).Run()
	if err != nil {
		return nil, fmt.Errorf("error running selector: %w", err)
	}
	p := final.(VPCPicker)
	if p.aborted || p.chosen == nil {
		return nil, ErrSelectionCancelled
	}
	return p.chosen, nil
}
