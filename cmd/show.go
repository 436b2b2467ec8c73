package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vietdv277/vpcctl/internal/ui"
	"github.com/vietdv277/vpcctl/internal/vpc"
	"github.com/vietdv277/vpcctl/pkg/types"
)

var showCmd = &cobra.Command{
	Use:   "show [vpc]",
	Short: "Show a VPC and its subnets",
	Long: `Show the record of a VPC including its subnets.
If no VPC name is provided, an interactive selector will be shown.

Examples:
  vpcctl show                 # Interactive VPC selector
  vpcctl show dev             # Show a specific VPC
  vpcctl show dev -o yaml     # Print the record as YAML`,
	Args: cobra.MaximumNArgs(1),
	RunE: runShow,
}

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List recorded VPCs",
	Long: `List every VPC in the state directory with its range, bridge and subnets.

Examples:
  vpcctl list
  vpcctl list -o json`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(listCmd)
}

func loadAll(m *vpc.Manager) ([]*types.VPC, error) {
	names, err := m.List()
	if err != nil {
		return nil, fmt.Errorf("failed to list VPCs: %w", err)
	}
	vpcs := make([]*types.VPC, 0, len(names))
	for _, name := range names {
		v, err := m.Get(name)
		if err != nil {
			logger.Warn("skipping unreadable record", zap.String("vpc", name), zap.Error(err))
			continue
		}
		vpcs = append(vpcs, v)
	}
	return vpcs, nil
}

func runShow(cmd *cobra.Command, args []string) error {
	m, err := newManager()
	if err != nil {
		return err
	}

	var v *types.VPC
	if len(args) == 1 {
		v, err = m.Get(args[0])
		if err != nil {
			return err
		}
	} else {
		if !isatty.IsTerminal(os.Stdin.Fd()) {
			return errors.New("no VPC given and stdin is not a terminal")
		}
		vpcs, err := loadAll(m)
		if err != nil {
			return err
		}
		v, err = ui.SelectVPC(vpcs)
		if err != nil {
			return err
		}
	}

	return render(cmd.OutOrStdout(), v, func(w io.Writer) {
		ui.PrintVPCDetail(w, v)
	})
}

func runList(cmd *cobra.Command, args []string) error {
	m, err := newManager()
	if err != nil {
		return err
	}
	vpcs, err := loadAll(m)
	if err != nil {
		return err
	}

	return render(cmd.OutOrStdout(), vpcs, func(w io.Writer) {
		if len(vpcs) == 0 {
			fmt.Fprintln(w, "No VPCs found")
			return
		}
		ui.PrintVPCTable(w, vpcs)
	})
}
