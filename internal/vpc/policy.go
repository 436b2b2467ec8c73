package vpc

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/vietdv277/vpcctl/internal/executor"
	"github.com/vietdv277/vpcctl/pkg/provider"
	"github.com/vietdv277/vpcctl/pkg/types"
)

// PolicyResult summarizes what ApplyFirewallPolicy changed
type PolicyResult struct {
	Subnet    string       `json:"subnet" yaml:"subnet"`
	Namespace string       `json:"namespace" yaml:"namespace"`
	Added     []IngressKey `json:"added" yaml:"added"`
	Removed   []IngressKey `json:"removed" yaml:"removed"`
	Unchanged []IngressKey `json:"unchanged" yaml:"unchanged"`
	Skipped   int          `json:"skipped" yaml:"skipped"`
}

// LoadPolicy reads a firewall policy file
func LoadPolicy(path string) (*types.FirewallPolicy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy file: %w", err)
	}
	var policy types.FirewallPolicy
	if err := json.Unmarshal(data, &policy); err != nil {
		return nil, fmt.Errorf("failed to parse policy file %s: %w", path, err)
	}
	return &policy, nil
}

// desiredRules translates policy entries into managed rule keys in order,
// dropping duplicates. Entries with unknown actions are counted as skipped.
func (m *Manager) desiredRules(policy *types.FirewallPolicy) ([]IngressKey, int, error) {
	var keys []IngressKey
	seen := make(map[IngressKey]bool)
	skipped := 0
	for _, in := range policy.Ingress {
		target, ok := actionTargets[strings.ToLower(in.Action)]
		if !ok {
			m.logger.Warn("skipping rule with unknown action",
				zap.String("action", in.Action), zap.Int("port", in.Port))
			skipped++
			continue
		}
		proto := strings.ToLower(in.Protocol)
		if proto != "tcp" && proto != "udp" {
			return nil, 0, fmt.Errorf("invalid protocol %q for port %d: must be tcp or udp", in.Protocol, in.Port)
		}
		if in.Port < 1 || in.Port > 65535 {
			return nil, 0, fmt.Errorf("invalid port %d", in.Port)
		}
		k := IngressKey{Protocol: proto, Port: in.Port, Target: target}
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	return keys, skipped, nil
}

// ApplyFirewallPolicy converges the INPUT chain of the subnet selected by
// policy.Subnet onto the policy. The subnet must match a recorded CIDR exactly.
// Managed rules not in the policy are removed.
func (m *Manager) ApplyFirewallPolicy(ctx context.Context, vpcName string, policy *types.FirewallPolicy) (*PolicyResult, error) {
	vpc, err := m.load(vpcName)
	if err != nil {
		return nil, err
	}
	subName, sub, ok := vpc.SubnetByCIDR(policy.Subnet)
	if !ok {
		return nil, &provider.SubnetNotFoundError{VPC: vpcName, Ref: policy.Subnet}
	}

	desired, skipped, err := m.desiredRules(policy)
	if err != nil {
		return nil, err
	}

	res, err := m.exec.Execute(ctx, executor.IPTables("-S", "INPUT").In(sub.Namespace), executor.Capture())
	if err != nil {
		return nil, fmt.Errorf("failed to list firewall rules: %w", err)
	}
	installed := make(map[IngressKey]bool)
	for _, k := range parseManagedRules(res.Stdout) {
		installed[k] = true
	}

	result := &PolicyResult{Subnet: subName, Namespace: sub.Namespace, Skipped: skipped}
	wanted := make(map[IngressKey]bool, len(desired))
	for _, k := range desired {
		wanted[k] = true
	}

	for _, k := range parseManagedRules(res.Stdout) {
		if wanted[k] {
			continue
		}
		if _, err := m.exec.Execute(ctx, k.rule(sub.Namespace).Delete(), executor.TolerateExists()); err != nil {
			return result, fmt.Errorf("failed to remove rule %s: %w", k, err)
		}
		result.Removed = append(result.Removed, k)
	}

	for _, k := range desired {
		if installed[k] {
			result.Unchanged = append(result.Unchanged, k)
			continue
		}
		if _, err := m.exec.Execute(ctx, k.rule(sub.Namespace).Append()); err != nil {
			return result, fmt.Errorf("failed to add rule %s: %w", k, err)
		}
		result.Added = append(result.Added, k)
	}

	m.logger.Info("firewall policy applied",
		zap.String("vpc", vpcName),
		zap.String("subnet", subName),
		zap.Int("added", len(result.Added)),
		zap.Int("removed", len(result.Removed)),
		zap.Int("unchanged", len(result.Unchanged)),
		zap.Int("skipped", skipped))
	return result, nil
}
