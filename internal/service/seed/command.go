package seed

import (
	"context"
	"fmt"
	"slices"

	"github.com/oshokin/critical-alert/internal/config"
	"github.com/oshokin/critical-alert/internal/logger"
	"github.com/oshokin/critical-alert/internal/repository/record"
)

// Options configures an import.
type Options struct {
	// ConfigPath to YAML settings file, defaults to standard filename if empty.
	ConfigPath string
	// SnapshotPath is the YAML file to import.
	SnapshotPath string
	// RecordsPath overrides records.path from config.
	RecordsPath string
}

// Putter stores records.
type Putter interface {
	Put(ctx context.Context, id string, doc record.Document) error
}

// Run imports the snapshot into the sqlite database named by the settings.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "sos-seed")

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}

	if err = logger.Configure(cfg.LogLevel); err != nil {
		return err
	}

	path := cfg.Records.Path
	if opts.RecordsPath != "" {
		path = opts.RecordsPath
	}

	snapshot, err := record.ReadSnapshot(opts.SnapshotPath)
	if err != nil {
		return err
	}

	store, err := record.OpenSQLite(ctx, path)
	if err != nil {
		return err
	}

	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			logger.WarnKV(ctx, "Failed to close record store", "error", closeErr)
		}
	}()

	count, err := Import(ctx, store, snapshot)
	if err != nil {
		return err
	}

	logger.InfoKV(ctx, "Records imported", "count", count, "records_path", path)

	return nil
}

// Import writes every record of snapshot in id order and returns how many were written.
func Import(ctx context.Context, store Putter, snapshot *record.Snapshot) (int, error) {
	ids := make([]string, 0, len(snapshot.Users))
	for id := range snapshot.Users {
		ids = append(ids, id)
	}

	slices.Sort(ids)

	for i, id := range ids {
		if id == "" {
			return i, fmt.Errorf("%w: record without id", errInvalidSnapshot)
		}

		if err := store.Put(ctx, id, snapshot.Users[id]); err != nil {
			return i, err
		}

		logger.DebugKV(ctx, "Record imported", "id", id)
	}

	return len(ids), nil
}
