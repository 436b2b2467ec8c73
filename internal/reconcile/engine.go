// Package reconcile compares live host resources with VPC records and repairs
// drift between them.
package reconcile

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/vietdv277/vpcctl/internal/executor"
	"github.com/vietdv277/vpcctl/internal/ipplan"
	"github.com/vietdv277/vpcctl/internal/vpc"
	"github.com/vietdv277/vpcctl/pkg/provider"
	"github.com/vietdv277/vpcctl/pkg/types"
)

// Engine runs diagnose, cleanup, recover and connectivity repair
type Engine struct {
	exec      executor.Executor
	store     provider.RecordStore
	inspector provider.Inspector
	prober    provider.Prober
	logger    *zap.Logger
}

// Option configures an Engine
type Option func(*Engine)

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithProber enables reachability probes in Diagnose
func WithProber(p provider.Prober) Option {
	return func(e *Engine) { e.prober = p }
}

// NewEngine creates an Engine
func NewEngine(exec executor.Executor, store provider.RecordStore, inspector provider.Inspector, opts ...Option) *Engine {
	e := &Engine{
		exec:      exec,
		store:     store,
		inspector: inspector,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// DiagnoseOptions controls Diagnose
type DiagnoseOptions struct {
	Probe bool
}

// CleanupOptions controls CleanupOrphans
type CleanupOptions struct {
	// SkipRecorded keeps resources whose VPC still has a record
	SkipRecorded bool
}

// CleanupResult lists the resources CleanupOrphans tried to delete
type CleanupResult struct {
	Namespaces []string `json:"namespaces" yaml:"namespaces"`
	Bridges    []string `json:"bridges" yaml:"bridges"`
}

// RecoverOptions controls Recover
type RecoverOptions struct {
	// Force overwrites records that already exist
	Force bool
}

// vpcOf returns the VPC part of a namespace name
func vpcOf(namespace string) (string, string, bool) {
	return strings.Cut(namespace, "-")
}

func (e *Engine) live(ctx context.Context) ([]string, []string, error) {
	namespaces, err := e.inspector.Namespaces(ctx)
	if err != nil {
		return nil, nil, err
	}
	bridges, err := e.inspector.Bridges(ctx)
	if err != nil {
		return nil, nil, err
	}
	var vpcBridges []string
	for _, b := range bridges {
		if strings.HasPrefix(b, types.BridgePrefix) {
			vpcBridges = append(vpcBridges, b)
		}
	}
	return namespaces, vpcBridges, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// Diagnose reports live resources, records and the drift between them
func (e *Engine) Diagnose(ctx context.Context, opts DiagnoseOptions) (*types.Diagnosis, error) {
	namespaces, bridges, err := e.live(ctx)
	if err != nil {
		return nil, err
	}
	records, err := e.store.List()
	if err != nil {
		return nil, err
	}

	d := &types.Diagnosis{
		Namespaces: namespaces,
		Bridges:    bridges,
		Records:    records,
		Orphaned:   len(records) == 0 && len(namespaces)+len(bridges) > 0,
	}

	var loaded []*types.VPC
	for _, name := range records {
		v, err := e.store.Load(name)
		if err != nil {
			e.logger.Warn("skipping unreadable record", zap.String("vpc", name), zap.Error(err))
			continue
		}
		loaded = append(loaded, v)
		if !contains(bridges, v.Bridge) {
			d.Findings = append(d.Findings, types.Finding{VPC: name, Resource: v.Bridge, Kind: types.FindingMissingBridge})
		}
		for _, subName := range v.SubnetNames() {
			ns := v.Subnets[subName].Namespace
			if !contains(namespaces, ns) {
				d.Findings = append(d.Findings, types.Finding{VPC: name, Resource: ns, Kind: types.FindingMissingNamespace})
			}
		}
	}

	for _, ns := range namespaces {
		name, _, ok := vpcOf(ns)
		if ok && !contains(records, name) {
			d.Findings = append(d.Findings, types.Finding{VPC: name, Resource: ns, Kind: types.FindingUnrecordedNamespace})
		}
	}
	for _, b := range bridges {
		name := strings.TrimPrefix(b, types.BridgePrefix)
		if !contains(records, name) {
			d.Findings = append(d.Findings, types.Finding{VPC: name, Resource: b, Kind: types.FindingUnrecordedBridge})
		}
	}

	if opts.Probe {
		if e.prober == nil {
			return nil, fmt.Errorf("no prober configured")
		}
		for _, v := range loaded {
			for _, subName := range v.SubnetNames() {
				d.Probes = append(d.Probes, e.probe(ctx, v.Name, subName, v.Subnets[subName]))
			}
		}
	}

	e.logger.Info("diagnosis complete",
		zap.Int("namespaces", len(namespaces)),
		zap.Int("bridges", len(bridges)),
		zap.Int("records", len(records)),
		zap.Int("findings", len(d.Findings)),
		zap.Bool("orphaned", d.Orphaned))
	return d, nil
}

func (e *Engine) probe(ctx context.Context, vpcName, subName string, sub *types.Subnet) types.ProbeResult {
	addr, _, _ := strings.Cut(sub.IP, "/")
	res := types.ProbeResult{VPC: vpcName, Subnet: subName, Address: addr}
	if err := e.prober.Probe(ctx, addr); err != nil {
		res.Error = err.Error()
		return res
	}
	res.Reachable = true
	return res
}

// CleanupOrphans deletes subnet namespaces and VPC bridges found on the host.
// Failures are logged and skipped.
func (e *Engine) CleanupOrphans(ctx context.Context, opts CleanupOptions) (*CleanupResult, error) {
	namespaces, bridges, err := e.live(ctx)
	if err != nil {
		return nil, err
	}

	recorded := func(name string) bool {
		if !opts.SkipRecorded {
			return false
		}
		ok, err := e.store.Exists(name)
		if err != nil {
			e.logger.Warn("could not check record", zap.String("vpc", name), zap.Error(err))
			return true
		}
		return ok
	}

	result := &CleanupResult{}
	for _, ns := range namespaces {
		if !strings.Contains(ns, "-"+types.SubnetPublic) && !strings.Contains(ns, "-"+types.SubnetPrivate) {
			continue
		}
		if name, _, _ := vpcOf(ns); recorded(name) {
			continue
		}
		if _, err := e.exec.Execute(ctx, executor.IP("netns", "del", ns), executor.TolerateAny()); err != nil {
			return result, err
		}
		result.Namespaces = append(result.Namespaces, ns)
	}
	for _, b := range bridges {
		if recorded(strings.TrimPrefix(b, types.BridgePrefix)) {
			continue
		}
		if _, err := e.exec.Execute(ctx, executor.IP("link", "del", b), executor.TolerateAny()); err != nil {
			return result, err
		}
		result.Bridges = append(result.Bridges, b)
	}

	e.logger.Info("cleanup complete",
		zap.Int("namespaces", len(result.Namespaces)),
		zap.Int("bridges", len(result.Bridges)))
	return result, nil
}

// Recover writes records for VPCs inferred from live namespace names.
// Namespaces are grouped by the part before the first dash.
func (e *Engine) Recover(ctx context.Context, opts RecoverOptions) ([]*types.VPC, error) {
	namespaces, err := e.inspector.Namespaces(ctx)
	if err != nil {
		return nil, err
	}
	sort.Strings(namespaces)

	var order []string
	groups := make(map[string][]string)
	for _, ns := range namespaces {
		name, _, ok := vpcOf(ns)
		if !ok {
			continue
		}
		if err := vpc.ValidateVPCName(name); err != nil {
			e.logger.Warn("skipping namespace with unusable VPC name", zap.String("namespace", ns), zap.Error(err))
			continue
		}
		if _, seen := groups[name]; !seen {
			order = append(order, name)
		}
		groups[name] = append(groups[name], ns)
	}

	var recovered []*types.VPC
	for _, name := range order {
		exists, err := e.store.Exists(name)
		if err != nil {
			return recovered, err
		}
		if exists && !opts.Force {
			e.logger.Info("record exists, skipping", zap.String("vpc", name))
			continue
		}

		cidr, exact := ipplan.RecoveryRange(name)
		if !exact {
			e.logger.Warn("recovered addressing is approximate",
				zap.String("vpc", name), zap.String("cidr", cidr))
		}

		v := types.NewVPC(name, cidr)
		for i, ns := range groups[name] {
			_, subName, _ := vpcOf(ns)
			subCIDR, err := ipplan.RecoverySubnet(cidr, i+1)
			if err != nil {
				return recovered, err
			}
			ip, err := ipplan.SubnetInterfaceAddress(subCIDR)
			if err != nil {
				return recovered, err
			}
			kind := types.SubnetPrivate
			if strings.Contains(subName, types.SubnetPublic) {
				kind = types.SubnetPublic
			}
			host, _ := vpc.VethNames(ns)
			v.Subnets[subName] = &types.Subnet{
				CIDR:      subCIDR,
				Type:      kind,
				Namespace: ns,
				VethHost:  host,
				IP:        ip,
			}
		}

		if err := e.store.Save(v); err != nil {
			return recovered, fmt.Errorf("failed to save VPC %s: %w", name, err)
		}
		e.logger.Info("VPC recovered",
			zap.String("vpc", name), zap.String("cidr", cidr), zap.Int("subnets", len(v.Subnets)))
		recovered = append(recovered, v)
	}
	return recovered, nil
}

// FixConnectivity re-asserts every link, address and route a VPC's record
// describes
func (e *Engine) FixConnectivity(ctx context.Context, name string) error {
	if err := vpc.ValidateVPCName(name); err != nil {
		return err
	}
	v, err := e.store.Load(name)
	if err != nil {
		return err
	}

	steps, err := vpc.BridgeSteps(v)
	if err != nil {
		return err
	}
	for _, subName := range v.SubnetNames() {
		sub := v.Subnets[subName]
		subSteps, err := vpc.SubnetSteps(v, sub)
		if err != nil {
			return err
		}
		steps = append(steps, subSteps...)
		steps = append(steps, executor.IP("route", "add", sub.CIDR, "dev", v.Bridge))
	}

	if err := vpc.RunSteps(ctx, e.exec, steps, executor.TolerateExists()); err != nil {
		return fmt.Errorf("failed to fix connectivity of %s: %w", name, err)
	}
	e.logger.Info("connectivity restored", zap.String("vpc", name), zap.Int("subnets", len(v.Subnets)))
	return nil
}
