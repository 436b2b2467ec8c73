package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vietdv277/vpcctl/internal/config"
	"github.com/vietdv277/vpcctl/internal/ui"
)

var configForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective settings",
	Long: `Print the settings in effect after merging defaults, the config file,
VPCCTL_* environment variables and flags.

Examples:
  vpcctl config
  VPCCTL_NAT_INTERFACE=wlan0 vpcctl config`,
	Args: cobra.NoArgs,
	RunE: runConfig,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the effective settings to the config file",
	Long: `Write the effective settings to the config file so they persist.

Examples:
  vpcctl config init
  vpcctl --state-dir /var/lib/vpcctl config init --force`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "overwrite an existing config file")
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}

func configPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	return config.GetConfigPath()
}

func runConfig(cmd *cobra.Command, args []string) error {
	data, err := settings.Marshal()
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), ui.MutedStyle.Render("# "+configPath()))
	fmt.Fprint(cmd.OutOrStdout(), string(data))
	return nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := configPath()
	if _, err := os.Stat(path); err == nil && !configForce {
		return fmt.Errorf("config file %s already exists (use --force to overwrite)", path)
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to check config file: %w", err)
	}

	if err := config.SaveConfig(settings, path); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s Config written to %s\n", ui.OKStyle.Render("✓"), path)
	return nil
}
