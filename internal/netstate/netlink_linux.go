//go:build linux

package netstate

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/vishvananda/netlink"
	"github.com/vishvananda/netns"

	"github.com/vietdv277/vpcctl/pkg/types"
)

// netnsDir is where iproute2 bind-mounts named namespaces
const netnsDir = "/var/run/netns"

// NetlinkInspector reads host state directly from the kernel
type NetlinkInspector struct{}

// NewNetlinkInspector creates a NetlinkInspector
func NewNetlinkInspector() *NetlinkInspector {
	return &NetlinkInspector{}
}

// Namespaces lists named namespaces that can still be opened
func (i *NetlinkInspector) Namespaces(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(netnsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list namespaces: %w", err)
	}

	var names []string
	for _, e := range entries {
		h, err := netns.GetFromName(e.Name())
		if err != nil {
			// stale mount point
			continue
		}
		h.Close()
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// Bridges lists bridges named with the VPC bridge prefix
func (i *NetlinkInspector) Bridges(ctx context.Context) ([]string, error) {
	links, err := netlink.LinkList()
	if err != nil {
		return nil, fmt.Errorf("failed to list interfaces: %w", err)
	}

	var names []string
	for _, link := range links {
		if _, ok := link.(*netlink.Bridge); !ok {
			continue
		}
		if name := link.Attrs().Name; strings.HasPrefix(name, types.BridgePrefix) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}
