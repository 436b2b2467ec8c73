// Package netstate reports what network namespaces and bridges exist on the
// host, independent of the records vpcctl keeps.
package netstate

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/vietdv277/vpcctl/internal/executor"
	"github.com/vietdv277/vpcctl/pkg/provider"
	"github.com/vietdv277/vpcctl/pkg/types"
)

// Backend names accepted by NewInspector
const (
	BackendExec    = "exec"
	BackendNetlink = "netlink"
)

// NewInspector returns the inspector for backend
func NewInspector(backend string, exec executor.Executor) (provider.Inspector, error) {
	switch backend {
	case "", BackendExec:
		return NewExecInspector(exec), nil
	case BackendNetlink:
		return NewNetlinkInspector(), nil
	}
	return nil, fmt.Errorf("unknown inspector backend %q", backend)
}

// ExecInspector reads host state through iproute2
type ExecInspector struct {
	exec executor.Executor
}

// NewExecInspector creates an ExecInspector
func NewExecInspector(exec executor.Executor) *ExecInspector {
	return &ExecInspector{exec: exec}
}

// Namespaces lists named network namespaces
func (i *ExecInspector) Namespaces(ctx context.Context) ([]string, error) {
	res, err := i.exec.Execute(ctx, executor.IP("netns", "list"), executor.Capture())
	if err != nil {
		return nil, fmt.Errorf("failed to list namespaces: %w", err)
	}
	return parseNamespaces(res.Stdout), nil
}

// Bridges lists bridges named with the VPC bridge prefix
func (i *ExecInspector) Bridges(ctx context.Context) ([]string, error) {
	res, err := i.exec.Execute(ctx, executor.IP("-o", "link", "show", "type", "bridge"), executor.Capture())
	if err != nil {
		return nil, fmt.Errorf("failed to list bridges: %w", err)
	}
	return parseBridges(res.Stdout), nil
}

// parseNamespaces reads `ip netns list` output, e.g. "dev-web (id: 0)"
func parseNamespaces(out string) []string {
	var names []string
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		names = append(names, fields[0])
	}
	sort.Strings(names)
	return names
}

// parseBridges reads `ip -o link show` output, e.g. "5: vpc-dev: <BROADCAST,...> mtu 1500"
func parseBridges(out string) []string {
	var names []string
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		name := strings.TrimSuffix(fields[1], ":")
		if at := strings.IndexByte(name, '@'); at >= 0 {
			name = name[:at]
		}
		if strings.HasPrefix(name, types.BridgePrefix) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
