package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/critical-alert/internal/config"
	client "github.com/oshokin/critical-alert/internal/service/client"
	"github.com/oshokin/critical-alert/internal/version"
)

var (
	// cfgPath stores the configuration file path.
	cfgPath string

	// rootCmd represents the base command.
	rootCmd = &cobra.Command{
		Use:   "sos-alarm-off [device-address]",
		Short: "Stop the alarm on a device agent.",
		Long: `Stops the critical alert alarm on a device agent. Stopping an idle agent succeeds.

Retries while the agent is unreachable. Device address can be provided as argument
or loaded from configuration file.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			var deviceAddress string
			if len(args) > 0 {
				deviceAddress = args[0]
			}

			return client.Run(ctx, &client.Options{
				ConfigPath:    cfgPath,
				DeviceAddress: deviceAddress,
				Enable:        false,
			})
		},
	}
)

// Execute runs the sos-alarm-off CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.Flags().StringVarP(&cfgPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
}
