package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/critical-alert/internal/config"
	"github.com/oshokin/critical-alert/internal/service/trigger"
	"github.com/oshokin/critical-alert/internal/version"
)

var (
	// cfgPath stores the configuration file path.
	cfgPath string
	// serverAddress overrides server_addr.
	serverAddress string
	// actor overrides the detected caller identity.
	actor string
	// anonymous sends the trigger without a caller identity.
	anonymous bool

	// rootCmd represents the base command for raising an alert.
	rootCmd = &cobra.Command{
		Use:   "sos-trigger <target-id>",
		Short: "Raise a critical alert for a person in distress.",
		Long: `Asks the dispatcher to alert every responder assigned to the target.

The caller is identified as username@hostname unless --actor or --anonymous is given.
Exits with non-zero status when the dispatcher rejects the trigger or no device accepted it.`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			return trigger.Run(ctx, &trigger.Options{
				ConfigPath:    cfgPath,
				ServerAddress: serverAddress,
				TargetID:      args[0],
				Actor:         actor,
				Anonymous:     anonymous,
			})
		},
	}
)

// Execute runs the sos-trigger CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.Flags().StringVarP(&cfgPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.Flags().StringVarP(&serverAddress, "server", "s", "", "dispatcher address, overrides server_addr")
	rootCmd.Flags().StringVar(&actor, "actor", "", "caller identity sent to the dispatcher")
	rootCmd.Flags().BoolVar(&anonymous, "anonymous", false, "send no caller identity")
	rootCmd.MarkFlagsMutuallyExclusive("actor", "anonymous")
}
