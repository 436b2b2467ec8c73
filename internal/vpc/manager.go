// Package vpc provisions VPCs, subnets, NAT, firewall policy and peering on
// the local host and keeps their records in sync.
package vpc

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/vietdv277/vpcctl/internal/executor"
	"github.com/vietdv277/vpcctl/internal/ipplan"
	"github.com/vietdv277/vpcctl/pkg/provider"
	"github.com/vietdv277/vpcctl/pkg/types"
)

// DefaultNATInterface is used when neither the caller nor the record names one
const DefaultNATInterface = "eth0"

// Manager applies VPC operations through an Executor and persists records
type Manager struct {
	exec          executor.Executor
	store         provider.RecordStore
	logger        *zap.Logger
	natInterface  string
	payloadBinary string
}

// Option configures a Manager
type Option func(*Manager)

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

// WithNATInterface sets the default outbound interface for NAT
func WithNATInterface(iface string) Option {
	return func(m *Manager) {
		if iface != "" {
			m.natInterface = iface
		}
	}
}

// WithPayloadBinary sets the executable launched by DeployPayload
func WithPayloadBinary(path string) Option {
	return func(m *Manager) { m.payloadBinary = path }
}

// NewManager creates a Manager
func NewManager(exec executor.Executor, store provider.RecordStore, opts ...Option) *Manager {
	m := &Manager{
		exec:          exec,
		store:         store,
		logger:        zap.NewNop(),
		natInterface:  DefaultNATInterface,
		payloadBinary: "vpcctl",
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Get loads a VPC record
func (m *Manager) Get(name string) (*types.VPC, error) {
	return m.load(name)
}

func (m *Manager) load(name string) (*types.VPC, error) {
	if err := ValidateVPCName(name); err != nil {
		return nil, err
	}
	return m.store.Load(name)
}

// List returns the names of all recorded VPCs
func (m *Manager) List() ([]string, error) {
	return m.store.List()
}

// Create provisions the VPC router bridge and persists the record.
// Running it again for an existing VPC converges the bridge and keeps the subnets.
func (m *Manager) Create(ctx context.Context, name, cidr string) (*types.VPC, error) {
	if err := ValidateVPCName(name); err != nil {
		return nil, err
	}
	p, err := ipplan.ParseRange(cidr)
	if err != nil {
		return nil, err
	}
	cidr = p.String()

	vpc := types.NewVPC(name, cidr)
	exists, err := m.store.Exists(name)
	if err != nil {
		return nil, err
	}
	if exists {
		existing, err := m.store.Load(name)
		if err != nil {
			return nil, err
		}
		if existing.CIDR != cidr {
			return nil, fmt.Errorf("VPC %s already exists with CIDR %s", name, existing.CIDR)
		}
		vpc = existing
		m.logger.Info("VPC already recorded, re-applying", zap.String("vpc", name))
	}

	steps, err := BridgeSteps(vpc)
	if err != nil {
		return nil, err
	}
	if err := RunSteps(ctx, m.exec, steps, executor.TolerateExists()); err != nil {
		return nil, fmt.Errorf("failed to create bridge %s: %w", vpc.Bridge, err)
	}

	if err := m.store.Save(vpc); err != nil {
		return nil, fmt.Errorf("failed to save VPC %s: %w", name, err)
	}
	m.logger.Info("VPC created",
		zap.String("vpc", name),
		zap.String("cidr", cidr),
		zap.String("bridge", vpc.Bridge))
	return vpc, nil
}

// AddSubnet creates a namespace for the subnet, connects it to the VPC bridge
// and records it. An empty kind means private.
func (m *Manager) AddSubnet(ctx context.Context, vpcName, name, cidr, kind string) (*types.Subnet, error) {
	if kind == "" {
		kind = types.SubnetPrivate
	}
	if err := ValidateSubnetName(name); err != nil {
		return nil, err
	}
	if err := ValidateSubnetType(kind); err != nil {
		return nil, err
	}
	vpc, err := m.load(vpcName)
	if err != nil {
		return nil, err
	}
	p, err := ipplan.ParseRange(cidr)
	if err != nil {
		return nil, err
	}
	cidr = p.String()

	inside, err := ipplan.Contains(vpc.CIDR, cidr)
	if err != nil {
		return nil, err
	}
	if !inside {
		m.logger.Warn("subnet range lies outside the VPC range",
			zap.String("vpc", vpcName), zap.String("vpc_cidr", vpc.CIDR), zap.String("cidr", cidr))
	}

	sub, ok := vpc.Subnets[name]
	if ok {
		if sub.CIDR != cidr {
			return nil, fmt.Errorf("subnet %s of VPC %s already exists with CIDR %s", name, vpcName, sub.CIDR)
		}
		m.logger.Info("subnet already recorded, re-applying", zap.String("vpc", vpcName), zap.String("subnet", name))
	} else {
		if other, _, taken := vpc.SubnetByCIDR(cidr); taken {
			return nil, fmt.Errorf("CIDR %s is already used by subnet %s", cidr, other)
		}
		ip, err := ipplan.SubnetInterfaceAddress(cidr)
		if err != nil {
			return nil, err
		}
		ns := types.NamespaceName(vpcName, name)
		host, _ := VethNames(ns)
		sub = &types.Subnet{
			CIDR:      cidr,
			Type:      kind,
			Namespace: ns,
			VethHost:  host,
			IP:        ip,
		}
	}

	steps, err := SubnetSteps(vpc, sub)
	if err != nil {
		return nil, err
	}
	if err := RunSteps(ctx, m.exec, steps, executor.TolerateExists()); err != nil {
		return nil, fmt.Errorf("failed to add subnet %s: %w", name, err)
	}

	vpc.Subnets[name] = sub
	if err := m.store.Save(vpc); err != nil {
		return nil, fmt.Errorf("failed to save VPC %s: %w", vpcName, err)
	}
	m.logger.Info("subnet added",
		zap.String("vpc", vpcName),
		zap.String("subnet", name),
		zap.String("cidr", cidr),
		zap.String("type", sub.Type),
		zap.String("namespace", sub.Namespace))
	return sub, nil
}

// EnableNAT gives the VPC outbound access through iface. Rules already
// installed are not appended again. An empty iface uses the configured default.
func (m *Manager) EnableNAT(ctx context.Context, vpcName, iface string) error {
	vpc, err := m.load(vpcName)
	if err != nil {
		return err
	}
	if iface == "" {
		iface = m.natInterface
	}

	if _, err := m.exec.Execute(ctx, executor.Cmd("sysctl", "-w", "net.ipv4.ip_forward=1")); err != nil {
		return fmt.Errorf("failed to enable forwarding: %w", err)
	}

	if vpc.NATInterface != "" && vpc.NATInterface != iface {
		m.logger.Info("moving NAT to a new interface",
			zap.String("vpc", vpcName), zap.String("from", vpc.NATInterface), zap.String("to", iface))
		for _, r := range NATRules(vpc, vpc.NATInterface) {
			if _, err := m.exec.Execute(ctx, r.Delete(), executor.TolerateAny()); err != nil {
				return err
			}
		}
	}

	added := 0
	for _, r := range NATRules(vpc, iface) {
		ok, err := ensureRule(ctx, m.exec, m.logger, r)
		if err != nil {
			return fmt.Errorf("failed to enable NAT: %w", err)
		}
		if ok {
			added++
		}
	}

	vpc.NATInterface = iface
	if err := m.store.Save(vpc); err != nil {
		return fmt.Errorf("failed to save VPC %s: %w", vpcName, err)
	}
	m.logger.Info("NAT enabled",
		zap.String("vpc", vpcName), zap.String("interface", iface), zap.Int("rules_added", added))
	return nil
}

// Peer connects two VPC bridges with a veth pair and routes each range via the
// other VPC's gateway
func (m *Manager) Peer(ctx context.Context, name, otherName string) error {
	if name == otherName {
		return fmt.Errorf("cannot peer VPC %s with itself", name)
	}
	a, err := m.load(name)
	if err != nil {
		return err
	}
	b, err := m.load(otherName)
	if err != nil {
		return err
	}

	pa, err := ipplan.ParseRange(a.CIDR)
	if err != nil {
		return err
	}
	pb, err := ipplan.ParseRange(b.CIDR)
	if err != nil {
		return err
	}
	if pa.Overlaps(pb) {
		return fmt.Errorf("cannot peer %s and %s: ranges %s and %s overlap", name, otherName, a.CIDR, b.CIDR)
	}
	hopA, err := ipplan.PeerNextHop(a.CIDR)
	if err != nil {
		return err
	}
	hopB, err := ipplan.PeerNextHop(b.CIDR)
	if err != nil {
		return err
	}

	endA, endB := PeerLinkNames(name, otherName)
	steps := []executor.Command{
		executor.IP("link", "add", endA, "type", "veth", "peer", "name", endB),
		executor.IP("link", "set", endA, "master", a.Bridge),
		executor.IP("link", "set", endB, "master", b.Bridge),
		executor.IP("link", "set", endA, "up"),
		executor.IP("link", "set", endB, "up"),
	}
	if err := RunSteps(ctx, m.exec, steps, executor.TolerateExists()); err != nil {
		return fmt.Errorf("failed to peer %s with %s: %w", name, otherName, err)
	}

	routes := []executor.Command{
		executor.IP("route", "add", b.CIDR, "via", hopB.String(), "dev", a.Bridge),
		executor.IP("route", "add", a.CIDR, "via", hopA.String(), "dev", b.Bridge),
	}
	for _, r := range routes {
		res, err := m.exec.Execute(ctx, r, executor.TolerateExists())
		if err != nil {
			return fmt.Errorf("failed to peer %s with %s: %w", name, otherName, err)
		}
		// the kernel refuses a gateway that is not on-link for the bridge
		if res.Tolerated && res.Code == executor.CodeInvalidGateway {
			m.logger.Warn("peer route not installed, next hop is not reachable on the bridge",
				zap.String("vpc", name),
				zap.String("peer", otherName),
				zap.String("command", r.String()))
		}
	}

	a.AddPeer(otherName)
	b.AddPeer(name)
	if err := m.store.Save(a); err != nil {
		return fmt.Errorf("failed to save VPC %s: %w", name, err)
	}
	if err := m.store.Save(b); err != nil {
		return fmt.Errorf("failed to save VPC %s: %w", otherName, err)
	}
	m.logger.Info("VPCs peered", zap.String("vpc", name), zap.String("peer", otherName), zap.String("link", endA))
	return nil
}

// DeployPayload starts the greeting server inside a subnet namespace and
// returns its URL. The process is detached and not supervised.
func (m *Manager) DeployPayload(ctx context.Context, vpcName, subnetName string, port int) (string, error) {
	if port < 1 || port > 65535 {
		return "", fmt.Errorf("invalid port %d", port)
	}
	vpc, err := m.load(vpcName)
	if err != nil {
		return "", err
	}
	sub, ok := vpc.Subnets[subnetName]
	if !ok {
		return "", &provider.SubnetNotFoundError{VPC: vpcName, Ref: subnetName}
	}
	ip, _, _ := strings.Cut(sub.IP, "/")
	if ip == "" {
		return "", fmt.Errorf("subnet %s of VPC %s has no interface address", subnetName, vpcName)
	}

	message := fmt.Sprintf("Hello from %s in VPC %s", subnetName, vpcName)
	cmd := executor.Cmd(m.payloadBinary, "serve-greeting",
		"--bind", ip,
		"--port", strconv.Itoa(port),
		"--message", message,
	).In(sub.Namespace)
	if _, err := m.exec.Execute(ctx, cmd, executor.Background()); err != nil {
		return "", fmt.Errorf("failed to deploy web server: %w", err)
	}

	url := fmt.Sprintf("http://%s:%d", ip, port)
	m.logger.Info("web server deployed",
		zap.String("vpc", vpcName), zap.String("subnet", subnetName), zap.String("url", url))
	return url, nil
}

// Delete tears down everything the VPC owns and removes its record. Teardown
// failures are logged and skipped; only failing to remove the record is an error.
func (m *Manager) Delete(ctx context.Context, name string) error {
	vpc, err := m.load(name)
	if err != nil {
		return err
	}

	var steps []executor.Command
	for _, subName := range vpc.SubnetNames() {
		steps = append(steps, executor.IP("netns", "del", vpc.Subnets[subName].Namespace))
	}
	for _, peer := range vpc.Peers {
		end, _ := PeerLinkNames(name, peer)
		steps = append(steps, executor.IP("link", "del", end))
	}
	steps = append(steps, executor.IP("link", "del", vpc.Bridge))

	iface := vpc.NATInterface
	if iface == "" {
		iface = m.natInterface
	}
	for _, r := range NATRules(vpc, iface) {
		steps = append(steps, r.Delete())
	}

	// TolerateAny never returns an error from Execute
	_ = RunSteps(ctx, m.exec, steps, executor.TolerateAny())

	for _, peer := range vpc.Peers {
		m.unlinkPeer(ctx, peer, vpc)
	}

	if err := m.store.Delete(name); err != nil {
		return fmt.Errorf("failed to delete record of VPC %s: %w", name, err)
	}
	m.logger.Info("VPC deleted", zap.String("vpc", name))
	return nil
}

// unlinkPeer drops the deleted VPC's route from the surviving peer's bridge
// and from its record
func (m *Manager) unlinkPeer(ctx context.Context, peer string, vpc *types.VPC) {
	other, err := m.store.Load(peer)
	if err != nil {
		m.logger.Warn("could not update peer record", zap.String("peer", peer), zap.Error(err))
		return
	}
	// TolerateAny never returns an error from Execute
	_, _ = m.exec.Execute(ctx, executor.IP("route", "del", vpc.CIDR, "dev", other.Bridge), executor.TolerateAny())

	other.RemovePeer(vpc.Name)
	if err := m.store.Save(other); err != nil {
		m.logger.Warn("could not update peer record", zap.String("peer", peer), zap.Error(err))
	}
}
