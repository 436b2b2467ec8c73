package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/vietdv277/vpcctl/internal/reconcile"
	"github.com/vietdv277/vpcctl/internal/ui"
)

var (
	diagnoseProbe bool
	skipRecorded  bool
	recoverForce  bool
)

var diagnoseCmd = &cobra.Command{
	Use:   "diagnose",
	Short: "Compare VPC records with the host",
	Long: `List live namespaces and VPC bridges next to the recorded VPCs and report
drift between them: recorded resources missing from the host and live
resources no record accounts for.

Examples:
  vpcctl diagnose
  vpcctl diagnose --probe     # Also ping every subnet interface address`,
	Args: cobra.NoArgs,
	RunE: runDiagnose,
}

var cleanupCmd = &cobra.Command{
	Use:   "cleanup-orphans",
	Short: "Remove leftover subnet namespaces and VPC bridges",
	Long: `Delete every namespace named like a public or private subnet and every
VPC bridge on the host. With --skip-recorded, resources whose VPC still has a
record are kept.

Examples:
  vpcctl cleanup-orphans
  vpcctl cleanup-orphans --skip-recorded`,
	Args: cobra.NoArgs,
	RunE: runCleanup,
}

var recoverCmd = &cobra.Command{
	Use:   "recover",
	Short: "Rebuild lost VPC records from live namespaces",
	Long: `Infer VPCs from live namespace names of the form <vpc>-<subnet> and write a
record for each. Addressing for VPCs other than dev, prod and test is a
deterministic guess. Existing records are kept unless --force is given.

Examples:
  vpcctl recover
  vpcctl recover --force`,
	Args: cobra.NoArgs,
	RunE: runRecover,
}

var fixConnectivityCmd = &cobra.Command{
	Use:   "fix-connectivity <vpc>",
	Short: "Re-assert the links, addresses and routes of a VPC",
	Long: `Recreate whatever is missing of the bridge, veth pairs, interface
addresses and routes a VPC record describes. Parts already in place are left
alone.

Examples:
  vpcctl fix-connectivity dev`,
	Args: cobra.ExactArgs(1),
	RunE: runFixConnectivity,
}

func init() {
	diagnoseCmd.Flags().BoolVar(&diagnoseProbe, "probe", false, "ping each subnet interface address")
	cleanupCmd.Flags().BoolVar(&skipRecorded, "skip-recorded", false, "keep resources whose VPC has a record")
	recoverCmd.Flags().BoolVar(&recoverForce, "force", false, "overwrite existing records")

	rootCmd.AddCommand(diagnoseCmd)
	rootCmd.AddCommand(cleanupCmd)
	rootCmd.AddCommand(recoverCmd)
	rootCmd.AddCommand(fixConnectivityCmd)
}

func runDiagnose(cmd *cobra.Command, args []string) error {
	e, err := newEngine(diagnoseProbe)
	if err != nil {
		return err
	}
	d, err := e.Diagnose(cmd.Context(), reconcile.DiagnoseOptions{Probe: diagnoseProbe})
	if err != nil {
		return fmt.Errorf("failed to diagnose: %w", err)
	}
	return render(cmd.OutOrStdout(), d, func(w io.Writer) {
		ui.PrintDiagnosis(w, d)
	})
}

func runCleanup(cmd *cobra.Command, args []string) error {
	e, err := newEngine(false)
	if err != nil {
		return err
	}
	res, err := e.CleanupOrphans(cmd.Context(), reconcile.CleanupOptions{SkipRecorded: skipRecorded})
	if err != nil {
		return fmt.Errorf("failed to clean up: %w", err)
	}
	return render(cmd.OutOrStdout(), res, func(w io.Writer) {
		for _, ns := range res.Namespaces {
			fmt.Fprintf(w, "  %s namespace %s\n", ui.ErrorStyle.Render("-"), ui.NamespaceStyle.Render(ns))
		}
		for _, b := range res.Bridges {
			fmt.Fprintf(w, "  %s bridge %s\n", ui.ErrorStyle.Render("-"), ui.BridgeStyle.Render(b))
		}
		fmt.Fprintf(w, "%s Cleanup complete: %d namespaces, %d bridges\n",
			ui.OKStyle.Render("✓"), len(res.Namespaces), len(res.Bridges))
	})
}

func runRecover(cmd *cobra.Command, args []string) error {
	e, err := newEngine(false)
	if err != nil {
		return err
	}
	vpcs, err := e.Recover(cmd.Context(), reconcile.RecoverOptions{Force: recoverForce})
	if err != nil {
		return fmt.Errorf("failed to recover: %w", err)
	}
	return render(cmd.OutOrStdout(), vpcs, func(w io.Writer) {
		if len(vpcs) == 0 {
			fmt.Fprintln(w, "Nothing to recover")
			return
		}
		ui.PrintVPCTable(w, vpcs)
	})
}

func runFixConnectivity(cmd *cobra.Command, args []string) error {
	e, err := newEngine(false)
	if err != nil {
		return err
	}
	if err := e.FixConnectivity(cmd.Context(), args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s Connectivity of %s restored\n", ui.OKStyle.Render("✓"), ui.NameStyle.Render(args[0]))
	return nil
}
