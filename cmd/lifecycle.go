package cmd

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/vietdv277/vpcctl/internal/ui"
	"github.com/vietdv277/vpcctl/internal/vpc"
)

var createCmd = &cobra.Command{
	Use:   "create <vpc> <cidr>",
	Short: "Create a VPC",
	Long: `Create the router bridge of a VPC and assign it the gateway address,
the first host of the range. Running create again converges the bridge and
keeps existing subnets.

Examples:
  vpcctl create dev 10.0.0.0/16`,
	Args: cobra.ExactArgs(2),
	RunE: runCreate,
}

var addSubnetCmd = &cobra.Command{
	Use:   "add-subnet <vpc> <name> <cidr> [public|private]",
	Short: "Add a subnet to a VPC",
	Long: `Create a network namespace for the subnet and connect it to the VPC bridge
with a veth pair. The subnet type defaults to private.

Examples:
  vpcctl add-subnet dev web 10.0.1.0/24 public
  vpcctl add-subnet dev db 10.0.2.0/24`,
	Args: cobra.RangeArgs(3, 4),
	RunE: runAddSubnet,
}

var enableNATCmd = &cobra.Command{
	Use:   "enable-nat <vpc> [interface]",
	Short: "Enable outbound NAT for a VPC",
	Long: `Turn on IP forwarding and install masquerade and forwarding rules so the
VPC reaches the outside world through interface. Rules already present are
not added twice. The interface defaults to nat_interface from the config.

Examples:
  vpcctl enable-nat dev
  vpcctl enable-nat dev wlan0`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runEnableNAT,
}

var applyPolicyCmd = &cobra.Command{
	Use:   "apply-policy <vpc> <policy-file>",
	Short: "Apply a firewall policy to a subnet",
	Long: `Converge the INPUT chain of the subnet selected by the policy's CIDR onto
the policy. Rules installed by an earlier policy that are no longer listed are
removed; rules already present are left alone.

Policy file:
  {"subnet": "10.0.1.0/24",
   "ingress": [{"port": 80, "protocol": "tcp", "action": "allow"},
               {"port": 22, "protocol": "tcp", "action": "deny"}]}

Examples:
  vpcctl apply-policy dev policy.json`,
	Args: cobra.ExactArgs(2),
	RunE: runApplyPolicy,
}

var peerCmd = &cobra.Command{
	Use:   "peer <vpc> <other-vpc>",
	Short: "Peer two VPCs",
	Long: `Connect the bridges of two VPCs with a veth pair and route each range
through the other VPC's gateway.

Examples:
  vpcctl peer dev prod`,
	Args: cobra.ExactArgs(2),
	RunE: runPeer,
}

var deployWebCmd = &cobra.Command{
	Use:   "deploy-web <vpc> <subnet> [port]",
	Short: "Start a test web server in a subnet",
	Long: `Start a detached greeting web server inside the subnet namespace. The port
defaults to web_port from the config.

Examples:
  vpcctl deploy-web dev web
  vpcctl deploy-web dev web 8080`,
	Args: cobra.RangeArgs(2, 3),
	RunE: runDeployWeb,
}

var deleteCmd = &cobra.Command{
	Use:   "delete <vpc>",
	Short: "Delete a VPC and everything it owns",
	Long: `Remove the subnet namespaces, peer links, bridge and NAT rules of a VPC,
then its record. Teardown failures are logged and skipped.

Examples:
  vpcctl delete dev`,
	Args: cobra.ExactArgs(1),
	RunE: runDelete,
}

func init() {
	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(addSubnetCmd)
	rootCmd.AddCommand(enableNATCmd)
	rootCmd.AddCommand(applyPolicyCmd)
	rootCmd.AddCommand(peerCmd)
	rootCmd.AddCommand(deployWebCmd)
	rootCmd.AddCommand(deleteCmd)
}

func runCreate(cmd *cobra.Command, args []string) error {
	m, err := newManager()
	if err != nil {
		return err
	}
	v, err := m.Create(cmd.Context(), args[0], args[1])
	if err != nil {
		return fmt.Errorf("failed to create VPC: %w", err)
	}
	return render(cmd.OutOrStdout(), v, func(w io.Writer) {
		fmt.Fprintf(w, "%s VPC %s created with bridge %s\n",
			ui.OKStyle.Render("✓"), ui.NameStyle.Render(v.Name), ui.BridgeStyle.Render(v.Bridge))
	})
}

func runAddSubnet(cmd *cobra.Command, args []string) error {
	kind := ""
	if len(args) == 4 {
		kind = args[3]
	}
	m, err := newManager()
	if err != nil {
		return err
	}
	s, err := m.AddSubnet(cmd.Context(), args[0], args[1], args[2], kind)
	if err != nil {
		return fmt.Errorf("failed to add subnet: %w", err)
	}
	return render(cmd.OutOrStdout(), s, func(w io.Writer) {
		fmt.Fprintf(w, "%s Subnet %s (%s) added in namespace %s with address %s\n",
			ui.OKStyle.Render("✓"), ui.NameStyle.Render(args[1]), s.Type,
			ui.NamespaceStyle.Render(s.Namespace), ui.CIDRStyle.Render(s.IP))
	})
}

func runEnableNAT(cmd *cobra.Command, args []string) error {
	iface := ""
	if len(args) == 2 {
		iface = args[1]
	}
	m, err := newManager()
	if err != nil {
		return err
	}
	if err := m.EnableNAT(cmd.Context(), args[0], iface); err != nil {
		return fmt.Errorf("failed to enable NAT: %w", err)
	}
	if iface == "" {
		iface = settings.NATInterface
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s NAT enabled for %s via %s\n",
		ui.OKStyle.Render("✓"), ui.NameStyle.Render(args[0]), iface)
	return nil
}

func runApplyPolicy(cmd *cobra.Command, args []string) error {
	policy, err := vpc.LoadPolicy(args[1])
	if err != nil {
		return err
	}
	m, err := newManager()
	if err != nil {
		return err
	}
	res, err := m.ApplyFirewallPolicy(cmd.Context(), args[0], policy)
	if err != nil {
		return fmt.Errorf("failed to apply policy: %w", err)
	}
	return render(cmd.OutOrStdout(), res, func(w io.Writer) {
		fmt.Fprintf(w, "%s Policy applied to subnet %s (%s)\n",
			ui.OKStyle.Render("✓"), ui.NameStyle.Render(res.Subnet), ui.NamespaceStyle.Render(res.Namespace))
		for _, k := range res.Added {
			fmt.Fprintf(w, "  %s %s\n", ui.OKStyle.Render("+"), k)
		}
		for _, k := range res.Removed {
			fmt.Fprintf(w, "  %s %s\n", ui.ErrorStyle.Render("-"), k)
		}
		fmt.Fprintln(w, ui.MutedStyle.Render(fmt.Sprintf("  %d added, %d removed, %d unchanged, %d skipped",
			len(res.Added), len(res.Removed), len(res.Unchanged), res.Skipped)))
	})
}

func runPeer(cmd *cobra.Command, args []string) error {
	m, err := newManager()
	if err != nil {
		return err
	}
	if err := m.Peer(cmd.Context(), args[0], args[1]); err != nil {
		return fmt.Errorf("failed to peer VPCs: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s Peered %s with %s\n",
		ui.OKStyle.Render("✓"), ui.NameStyle.Render(args[0]), ui.NameStyle.Render(args[1]))
	return nil
}

func runDeployWeb(cmd *cobra.Command, args []string) error {
	port := settings.WebPort
	if len(args) == 3 {
		p, err := strconv.Atoi(args[2])
		if err != nil {
			return fmt.Errorf("invalid port %q", args[2])
		}
		port = p
	}
	m, err := newManager()
	if err != nil {
		return err
	}
	url, err := m.DeployPayload(cmd.Context(), args[0], args[1], port)
	if err != nil {
		return fmt.Errorf("failed to deploy web server: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s Web server starting at %s\n", ui.OKStyle.Render("✓"), url)
	return nil
}

func runDelete(cmd *cobra.Command, args []string) error {
	m, err := newManager()
	if err != nil {
		return err
	}
	if err := m.Delete(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("failed to delete VPC: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s VPC %s deleted\n", ui.OKStyle.Render("✓"), ui.NameStyle.Render(args[0]))
	return nil
}
