package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vietdv277/vpcctl/pkg/types"
)

// VPC table column widths
var vpcColumnWidths = []int{14, 18, 16, 8, 10, 20}

// Subnet table column widths
var subnetColumnWidths = []int{16, 18, 8, 24, 18}

// PrintVPCTable prints VPC records in a styled box table
func PrintVPCTable(w io.Writer, vpcs []*types.VPC) {
	t := &Table{
		Headers: []string{"Name", "CIDR", "Bridge", "Subnets", "NAT", "Peers"},
		Widths:  vpcColumnWidths,
	}
	for _, v := range vpcs {
		nat := v.NATInterface
		if nat == "" {
			nat = "-"
		}
		t.Rows = append(t.Rows, []Cell{
			{v.Name, NameStyle},
			{v.CIDR, CIDRStyle},
			{v.Bridge, BridgeStyle},
			{fmt.Sprintf("%d", len(v.Subnets)), MutedStyle},
			{nat, MutedStyle},
			{joinOrDash(v.Peers), MutedStyle},
		})
	}
	fmt.Fprint(w, t.Render())
	fmt.Fprintf(w, "  %d VPCs\n", len(vpcs))
}

// PrintSubnetTable prints the subnets of one VPC in a styled box table
func PrintSubnetTable(w io.Writer, v *types.VPC) {
	t := &Table{
		Headers: []string{"Name", "CIDR", "Type", "Namespace", "IP"},
		Widths:  subnetColumnWidths,
	}
	public := 0
	for _, name := range v.SubnetNames() {
		s := v.Subnets[name]
		if s.Type == types.SubnetPublic {
			public++
		}
		t.Rows = append(t.Rows, []Cell{
			{name, NameStyle},
			{s.CIDR, CIDRStyle},
			formatSubnetType(s.Type),
			{s.Namespace, NamespaceStyle},
			{s.IP, CIDRStyle},
		})
	}
	fmt.Fprint(w, t.Render())

	summary := fmt.Sprintf("  %d subnets", len(v.Subnets))
	if len(v.Subnets) > 0 {
		summary += " (" + PublicStyle.Render(fmt.Sprintf("%d public", public)) +
			", " + PrivateStyle.Render(fmt.Sprintf("%d private", len(v.Subnets)-public)) + ")"
	}
	fmt.Fprintln(w, summary)
}

type detail struct {
	label string
	value string
	style lipgloss.Style
}

func vpcDetails(v *types.VPC) []detail {
	details := []detail{
		{"VPC:", v.Name, NameStyle},
		{"CIDR:", v.CIDR, CIDRStyle},
		{"Bridge:", v.Bridge, BridgeStyle},
	}
	if v.NATInterface != "" {
		details = append(details, detail{"NAT:", v.NATInterface, MutedStyle})
	}
	if len(v.Peers) > 0 {
		details = append(details, detail{"Peers:", strings.Join(v.Peers, ", "), MutedStyle})
	}
	return details
}

// PrintVPCDetail prints the VPC header followed by its subnet table
func PrintVPCDetail(w io.Writer, v *types.VPC) {
	for _, d := range vpcDetails(v) {
		fmt.Fprintln(w, MutedStyle.Render(padRight(d.label, 8))+d.style.Render(d.value))
	}
	fmt.Fprintln(w)
	PrintSubnetTable(w, v)
}

func formatSubnetType(kind string) Cell {
	if kind == types.SubnetPublic {
		return Cell{"● " + kind, PublicStyle}
	}
	return Cell{"○ " + kind, PrivateStyle}
}

func joinOrDash(items []string) string {
	if len(items) == 0 {
		return "-"
	}
	return strings.Join(items, ",")
}
