package vpc

import (
	"fmt"
	"strings"

	"github.com/vietdv277/vpcctl/pkg/types"
)

const reportRule = "=================================================="

// Report renders a plain-text summary of a VPC record
func Report(v *types.VPC) string {
	var sb strings.Builder
	sb.WriteString(reportRule + "\n")
	fmt.Fprintf(&sb, "VPC: %s\n", v.Name)
	fmt.Fprintf(&sb, "CIDR: %s\n", v.CIDR)
	fmt.Fprintf(&sb, "Bridge: %s\n", v.Bridge)
	if v.NATInterface != "" {
		fmt.Fprintf(&sb, "NAT: %s\n", v.NATInterface)
	}
	if len(v.Peers) > 0 {
		fmt.Fprintf(&sb, "Peers: %s\n", strings.Join(v.Peers, ", "))
	}
	sb.WriteString(reportRule + "\n")

	sb.WriteString("\nSubnets:\n")
	if len(v.Subnets) == 0 {
		sb.WriteString("  (none)\n")
	}
	for _, name := range v.SubnetNames() {
		s := v.Subnets[name]
		fmt.Fprintf(&sb, "  - %s (%s)\n", name, s.Type)
		fmt.Fprintf(&sb, "    CIDR: %s\n", s.CIDR)
		fmt.Fprintf(&sb, "    Namespace: %s\n", s.Namespace)
		fmt.Fprintf(&sb, "    IP: %s\n", s.IP)
	}
	return sb.String()
}
