package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/vietdv277/vpcctl/internal/config"
	"github.com/vietdv277/vpcctl/internal/logging"
)

var (
	// Global flags
	cfgFile  string
	stateDir string
	dryRun   bool
	logLevel string
	output   string

	settings *config.Settings
	logger   = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "vpcctl",
	Short: "vpcctl - Virtual private clouds on a single Linux host",
	Long: `vpcctl builds isolated virtual networks on one Linux host out of network
namespaces, bridges, veth pairs, routes and iptables rules. Records of every
VPC are kept in the state directory so topologies can be inspected, repaired
and torn down later.

Lifecycle:
  vpcctl create dev 10.0.0.0/16                   # Create a VPC router bridge
  vpcctl add-subnet dev web 10.0.1.0/24 public    # Add a namespace-backed subnet
  vpcctl enable-nat dev eth0                      # Give the VPC outbound access
  vpcctl apply-policy dev policy.json             # Apply a firewall policy
  vpcctl peer dev prod                            # Connect two VPCs
  vpcctl deploy-web dev web 8000                  # Start a test web server
  vpcctl delete dev                               # Tear everything down

Inspection and repair:
  vpcctl list                                     # List recorded VPCs
  vpcctl show dev                                 # Show a VPC and its subnets
  vpcctl diagnose --probe                         # Compare records with the host
  vpcctl recover                                  # Rebuild lost records
  vpcctl fix-connectivity dev                     # Re-assert links and routes
  vpcctl cleanup-orphans                          # Remove leftover resources`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: initConfig,
	RunE: func(cmd *cobra.Command, args []string) error {
		_ = cmd.Help()
		return errors.New("no command given")
	},
}

// Execute runs the root command.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	_ = logger.Sync()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	//Global persistent flags (available to all subcommands)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.vpcctl/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&stateDir, "state-dir", "", "directory holding VPC records (default ~/.vpcctl)")
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "log commands without running them or saving records")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "", "output format: table, json, yaml")

	// Bind flags to viper
	_ = viper.BindPFlag("state_dir", rootCmd.PersistentFlags().Lookup("state-dir"))
	_ = viper.BindPFlag("dry_run", rootCmd.PersistentFlags().Lookup("dry-run"))
	_ = viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("output", rootCmd.PersistentFlags().Lookup("output"))
}

func initConfig(cmd *cobra.Command, args []string) error {
	path := cfgFile
	if path == "" {
		path = config.GetConfigPath()
	}

	s, err := config.Load(viper.GetViper(), path)
	if err != nil {
		return err
	}
	settings = s

	l, err := logging.New(logging.Config{Level: s.LogLevel, JSON: s.LogJSON})
	if err != nil {
		return err
	}
	logger = l
	return nil
}
