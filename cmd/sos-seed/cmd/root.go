package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/critical-alert/internal/config"
	"github.com/oshokin/critical-alert/internal/service/seed"
	"github.com/oshokin/critical-alert/internal/version"
)

var (
	// cfgPath stores the configuration file path.
	cfgPath string
	// recordsPath overrides records.path.
	recordsPath string

	// rootCmd represents the base command for importing records.
	rootCmd = &cobra.Command{
		Use:   "sos-seed <records.yaml>",
		Short: "Import target and responder records into the sqlite record store.",
		Long: `Reads a YAML snapshot with a top-level "users" map and upserts every record
into the sqlite database used by sos-dispatcher. Existing records with the same id are replaced.`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			return seed.Run(ctx, &seed.Options{
				ConfigPath:   cfgPath,
				SnapshotPath: args[0],
				RecordsPath:  recordsPath,
			})
		},
	}
)

// Execute runs the sos-seed CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.Flags().StringVarP(&cfgPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.Flags().StringVarP(&recordsPath, "records", "r", "", "path to the sqlite database, overrides records.path")
}
