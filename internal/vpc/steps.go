package vpc

import (
	"context"
	"fmt"

	"github.com/cespare/xxhash/v2"

	"github.com/vietdv277/vpcctl/internal/executor"
	"github.com/vietdv277/vpcctl/internal/ipplan"
	"github.com/vietdv277/vpcctl/pkg/types"
)

// NamespaceIface is the interface name every subnet namespace uses
const NamespaceIface = "eth0"

func digest(s string) string {
	return fmt.Sprintf("%08x", uint32(xxhash.Sum64String(s)))
}

// VethNames derives the veth pair of a subnet namespace. The host end keeps its
// name; the namespace end is renamed to eth0 once moved.
func VethNames(namespace string) (host, peer string) {
	id := digest(namespace)
	return "vh" + id, "vn" + id
}

// PeerLinkNames derives the veth pair joining two peered VPCs. The first name is
// the end attached to a's bridge. The result does not depend on argument order.
func PeerLinkNames(a, b string) (string, string) {
	lo, hi := a, b
	if hi < lo {
		lo, hi = hi, lo
	}
	id := "pr" + digest(lo+"/"+hi)
	if a == lo {
		return id + "a", id + "b"
	}
	return id + "b", id + "a"
}

// BridgeSteps brings up the VPC router bridge with its gateway address
func BridgeSteps(v *types.VPC) ([]executor.Command, error) {
	gw, err := ipplan.GatewayAddress(v.CIDR)
	if err != nil {
		return nil, err
	}
	return []executor.Command{
		executor.IP("link", "add", v.Bridge, "type", "bridge"),
		executor.IP("link", "set", v.Bridge, "up"),
		executor.IP("addr", "add", gw.String(), "dev", v.Bridge),
	}, nil
}

// SubnetSteps wires a subnet namespace to the VPC bridge
func SubnetSteps(v *types.VPC, sub *types.Subnet) ([]executor.Command, error) {
	gw, err := ipplan.GatewayAddress(v.CIDR)
	if err != nil {
		return nil, err
	}
	ns := sub.Namespace
	host := sub.VethHost
	_, peer := VethNames(ns)
	if host == "" {
		host, _ = VethNames(ns)
	}

	return []executor.Command{
		executor.IP("netns", "add", ns),
		executor.IP("link", "add", host, "type", "veth", "peer", "name", peer),
		executor.IP("link", "set", host, "master", v.Bridge),
		executor.IP("link", "set", host, "up"),
		executor.IP("link", "set", peer, "netns", ns),
		executor.IP("link", "set", peer, "name", NamespaceIface).In(ns),
		executor.IP("addr", "add", sub.IP, "dev", NamespaceIface).In(ns),
		executor.IP("link", "set", NamespaceIface, "up").In(ns),
		executor.IP("link", "set", "lo", "up").In(ns),
		executor.IP("route", "add", "default", "via", gw.Addr().String()).In(ns),
	}, nil
}

// RunSteps executes cmds in order with the same options and stops at the first error
func RunSteps(ctx context.Context, exec executor.Executor, cmds []executor.Command, opts ...executor.Option) error {
	for _, cmd := range cmds {
		if _, err := exec.Execute(ctx, cmd, opts...); err != nil {
			return err
		}
	}
	return nil
}
