package cmd

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/spf13/cobra"

	"github.com/vietdv277/vpcctl/internal/store"
	"github.com/vietdv277/vpcctl/internal/ui"
)

// requiredTools are the host utilities every VPC operation shells out to
var requiredTools = []string{"ip", "iptables", "sysctl"}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check host prerequisites and the state directory",
	Long: `Verify that vpcctl can run on this host: root privileges, the network
utilities it drives and a usable state directory.

Examples:
  vpcctl status`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	w := cmd.OutOrStdout()

	fmt.Fprintln(w, "Host Status")
	fmt.Fprintln(w, ui.MutedStyle.Render("─────────────────────────────────"))
	fmt.Fprintln(w)

	fmt.Fprint(w, "Privileges: ")
	if os.Geteuid() == 0 {
		fmt.Fprintln(w, ui.OKStyle.Render("✓ root"))
	} else {
		fmt.Fprintln(w, ui.ErrorStyle.Render("✗ not root"))
		fmt.Fprintf(w, "            %s\n", ui.MutedStyle.Render("namespace, link and iptables changes need root"))
	}

	for _, tool := range requiredTools {
		fmt.Fprintf(w, "%-12s", tool+":")
		path, err := exec.LookPath(tool)
		if err != nil {
			fmt.Fprintln(w, ui.ErrorStyle.Render("✗ not installed"))
			continue
		}
		fmt.Fprintln(w, ui.OKStyle.Render("✓ ")+ui.MutedStyle.Render(path))
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "State dir:  %s\n", ui.HeaderStyle.Render(settings.StateDir))
	st, err := store.New(settings.StateDir)
	if err != nil {
		fmt.Fprintf(w, "Records:    %s\n", ui.ErrorStyle.Render(err.Error()))
		return nil
	}
	names, err := st.List()
	if err != nil {
		fmt.Fprintf(w, "Records:    %s\n", ui.ErrorStyle.Render(err.Error()))
		return nil
	}
	fmt.Fprintf(w, "Records:    %d VPCs\n", len(names))
	fmt.Fprintf(w, "Inspector:  %s\n", settings.Inspector)
	if settings.DryRun {
		fmt.Fprintf(w, "Mode:       %s\n", ui.WarnStyle.Render("dry run"))
	}
	return nil
}
