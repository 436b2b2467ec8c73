package netstate

import (
	"context"
	"fmt"
	"time"

	probing "github.com/prometheus-community/pro-bing"
)

// DefaultProbeTimeout bounds a single reachability probe
const DefaultProbeTimeout = time.Second

// PingProber checks reachability with one ICMP echo
type PingProber struct {
	Timeout    time.Duration
	Privileged bool
}

// NewPingProber creates a prober using raw ICMP sockets, which needs root
func NewPingProber() *PingProber {
	return &PingProber{Timeout: DefaultProbeTimeout, Privileged: true}
}

// Probe sends one echo request to address
func (p *PingProber) Probe(ctx context.Context, address string) error {
	pinger, err := probing.NewPinger(address)
	if err != nil {
		return fmt.Errorf("failed to create pinger: %w", err)
	}

	pinger.Count = 1
	pinger.Timeout = p.Timeout
	pinger.SetPrivileged(p.Privileged)

	if err := pinger.RunWithContext(ctx); err != nil {
		return err
	}
	if pinger.Statistics().PacketsRecv == 0 {
		return fmt.Errorf("no reply from %s", address)
	}
	return nil
}
