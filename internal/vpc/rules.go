package vpc

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/vietdv277/vpcctl/internal/executor"
	"github.com/vietdv277/vpcctl/pkg/types"
)

// RuleComment tags the firewall rules vpcctl manages inside a namespace
const RuleComment = "vpcctl"

// Rule is one iptables rule identified by table, chain and match spec
type Rule struct {
	Table     string
	Chain     string
	Spec      []string
	Namespace string
}

func (r Rule) command(op string) executor.Command {
	args := make([]string, 0, len(r.Spec)+4)
	if r.Table != "" && r.Table != "filter" {
		args = append(args, "-t", r.Table)
	}
	args = append(args, op, r.Chain)
	args = append(args, r.Spec...)
	cmd := executor.IPTables(args...)
	if r.Namespace != "" {
		cmd = cmd.In(r.Namespace)
	}
	return cmd
}

// Check returns the iptables -C form of the rule
func (r Rule) Check() executor.Command { return r.command("-C") }

// Append returns the iptables -A form of the rule
func (r Rule) Append() executor.Command { return r.command("-A") }

// Delete returns the iptables -D form of the rule
func (r Rule) Delete() executor.Command { return r.command("-D") }

// NATRules returns the masquerade and forwarding rules that give a VPC
// outbound access through iface
func NATRules(v *types.VPC, iface string) []Rule {
	return []Rule{
		{Table: "nat", Chain: "POSTROUTING", Spec: []string{"-s", v.CIDR, "-o", iface, "-j", "MASQUERADE"}},
		{Chain: "FORWARD", Spec: []string{"-i", v.Bridge, "-o", iface, "-j", "ACCEPT"}},
		{Chain: "FORWARD", Spec: []string{"-i", iface, "-o", v.Bridge, "-m", "state", "--state", "RELATED,ESTABLISHED", "-j", "ACCEPT"}},
	}
}

// ensureRule appends r unless an identical rule is already installed.
// It reports whether an append was issued.
func ensureRule(ctx context.Context, exec executor.Executor, logger *zap.Logger, r Rule) (bool, error) {
	res, err := exec.Execute(ctx, r.Check(), executor.NoFail())
	if err != nil {
		return false, err
	}
	if res.OK {
		logger.Debug("rule already present", zap.String("rule", r.Check().String()))
		return false, nil
	}
	if res.Code != executor.CodeMissing {
		return false, fmt.Errorf("failed to check rule %s: %s", r.Check().String(), res.Code)
	}
	if _, err := exec.Execute(ctx, r.Append()); err != nil {
		return false, err
	}
	return true, nil
}

// IngressKey identifies a managed INPUT rule
type IngressKey struct {
	Protocol string `json:"protocol" yaml:"protocol"`
	Port     int    `json:"port" yaml:"port"`
	Target   string `json:"target" yaml:"target"`
}

func (k IngressKey) String() string {
	return fmt.Sprintf("%s/%d %s", k.Protocol, k.Port, k.Target)
}

func (k IngressKey) rule(ns string) Rule {
	return Rule{
		Chain:     "INPUT",
		Namespace: ns,
		Spec: []string{
			"-p", k.Protocol,
			"--dport", strconv.Itoa(k.Port),
			"-m", "comment", "--comment", RuleComment,
			"-j", k.Target,
		},
	}
}

// actionTargets maps policy actions to iptables targets
var actionTargets = map[string]string{
	types.ActionAllow: "ACCEPT",
	types.ActionDeny:  "DROP",
}

// parseManagedRules extracts the managed INPUT rules from iptables -S output.
// Rules without the vpcctl comment are left alone.
func parseManagedRules(out string) []IngressKey {
	var keys []IngressKey
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 || fields[0] != "-A" || fields[1] != "INPUT" {
			continue
		}
		var k IngressKey
		managed := false
		for i := 2; i < len(fields)-1; i++ {
			val := fields[i+1]
			switch fields[i] {
			case "-p":
				k.Protocol = val
			case "--dport":
				k.Port, _ = strconv.Atoi(val)
			case "--comment":
				managed = strings.Trim(val, `"`) == RuleComment
			case "-j":
				k.Target = val
			}
		}
		if managed && k.Protocol != "" && k.Port > 0 && k.Target != "" {
			keys = append(keys, k)
		}
	}
	return keys
}
