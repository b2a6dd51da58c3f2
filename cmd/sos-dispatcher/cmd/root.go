package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/critical-alert/internal/config"
	"github.com/oshokin/critical-alert/internal/service/dispatcher"
	"github.com/oshokin/critical-alert/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// recordsPath overrides the record store location.
	recordsPath string

	// rootCmd represents the base command for running the dispatcher.
	rootCmd = &cobra.Command{
		Use:   "sos-dispatcher [listen-address]",
		Short: "Run the critical alert dispatcher.",
		Long: `Starts the gRPC dispatcher that turns a trigger into one push to every assigned responder.

The dispatcher looks the target up in the record store, resolves each responder's
delivery address and sends a single multicast message through the configured push transport.
Only the port from server_addr is used for listening (e.g., :50051).
Listen address can be provided as argument to override config (e.g., :9090, 0.0.0.0:50051).`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			var listenAddress string
			if len(args) > 0 {
				listenAddress = args[0]
			}

			return dispatcher.Run(ctx, &dispatcher.Options{
				ConfigPath:    configPath,
				ListenAddress: listenAddress,
				RecordsPath:   recordsPath,
			})
		},
	}
)

// Execute runs the sos-dispatcher CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.Flags().StringVarP(&recordsPath, "records", "r", "", "path to the record store, overrides records.path")
}
