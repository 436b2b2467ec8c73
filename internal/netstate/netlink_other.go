//go:build !linux

package netstate

import (
	"context"
	"errors"
)

var errUnsupported = errors.New("netlink inspector is only available on Linux")

// NetlinkInspector is unavailable on this platform
type NetlinkInspector struct{}

// NewNetlinkInspector creates a NetlinkInspector
func NewNetlinkInspector() *NetlinkInspector {
	return &NetlinkInspector{}
}

// Namespaces always fails on this platform
func (i *NetlinkInspector) Namespaces(ctx context.Context) ([]string, error) {
	return nil, errUnsupported
}

// Bridges always fails on this platform
func (i *NetlinkInspector) Bridges(ctx context.Context) ([]string, error) {
	return nil, errUnsupported
}
