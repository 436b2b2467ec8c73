package cmd

import (
	"github.com/spf13/cobra"

	"github.com/vietdv277/vpcctl/internal/payload"
)

var (
	serveBind    string
	servePort    int
	serveMessage string
)

// serveGreetingCmd is what deploy-web launches inside a subnet namespace
var serveGreetingCmd = &cobra.Command{
	Use:    "serve-greeting",
	Short:  "Serve the greeting page (used by deploy-web)",
	Hidden: true,
	Args:   cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return payload.Serve(cmd.Context(), serveBind, servePort, serveMessage, logger.Named("payload"))
	},
}

func init() {
	serveGreetingCmd.Flags().StringVar(&serveBind, "bind", "0.0.0.0", "address to listen on")
	serveGreetingCmd.Flags().IntVar(&servePort, "port", 8000, "port to listen on")
	serveGreetingCmd.Flags().StringVar(&serveMessage, "message", "Hello from vpcctl", "greeting text")
	rootCmd.AddCommand(serveGreetingCmd)
}
