package ui

import (
	"fmt"
	"io"

	"github.com/vietdv277/vpcctl/pkg/types"
)

var findingColumnWidths = []int{14, 24, 22}

var probeColumnWidths = []int{14, 16, 16, 12}

// PrintDiagnosis prints live resources, drift findings and probe results
func PrintDiagnosis(w io.Writer, d *types.Diagnosis) {
	fmt.Fprintln(w, HeaderStyle.Render("Namespaces: ")+NamespaceStyle.Render(joinOrDash(d.Namespaces)))
	fmt.Fprintln(w, HeaderStyle.Render("Bridges:    ")+BridgeStyle.Render(joinOrDash(d.Bridges)))
	fmt.Fprintln(w, HeaderStyle.Render("Records:    ")+NameStyle.Render(joinOrDash(d.Records)))
	fmt.Fprintln(w)

	if d.Orphaned {
		fmt.Fprintln(w, WarnStyle.Render("Orphaned resources found: live resources exist but no VPC is recorded"))
		fmt.Fprintln(w, HintStyle.Render("  run 'vpcctl recover' to rebuild records or 'vpcctl cleanup-orphans' to remove them"))
		fmt.Fprintln(w)
	}

	if len(d.Findings) == 0 {
		fmt.Fprintln(w, OKStyle.Render("No drift between records and host"))
	} else {
		t := &Table{
			Headers: []string{"VPC", "Resource", "Finding"},
			Widths:  findingColumnWidths,
		}
		for _, f := range d.Findings {
			t.Rows = append(t.Rows, []Cell{
				{f.VPC, NameStyle},
				{f.Resource, NamespaceStyle},
				{f.Kind, WarnStyle},
			})
		}
		fmt.Fprint(w, t.Render())
		fmt.Fprintf(w, "  %d findings\n", len(d.Findings))
	}

	if len(d.Probes) == 0 {
		return
	}
	fmt.Fprintln(w)
	t := &Table{
		Headers: []string{"VPC", "Subnet", "Address", "Reachable"},
		Widths:  probeColumnWidths,
	}
	for _, p := range d.Probes {
		status := Cell{"● yes", OKStyle}
		if !p.Reachable {
			status = Cell{"○ no", ErrorStyle}
		}
		t.Rows = append(t.Rows, []Cell{
			{p.VPC, NameStyle},
			{p.Subnet, NameStyle},
			{p.Address, CIDRStyle},
			status,
		})
	}
	fmt.Fprint(w, t.Render())
}
