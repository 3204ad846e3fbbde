package main

import (
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/iudanet/logindash/internal/server/storage/sqldb"
)

func newInitDBCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init-db",
		Short: "Create or upgrade the database schema",
		Long:  `Apply all pending schema migrations. Safe to run repeatedly.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInitDB(cmd, opts)
		},
	}
}

func runInitDB(cmd *cobra.Command, opts *rootOptions) error {
	cfg, _, err := loadRuntime(cmd, opts)
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	store, err := sqldb.New(ctx, sqldb.Options{
		URL:            cfg.Database.URL,
		PoolSize:       cfg.Database.PoolSize,
		PoolRecycle:    cfg.Database.PoolRecycle,
		ConnectTimeout: cfg.Database.ConnectTimeout,
	})
	if err != nil {
		return oops.Code("DB_CONNECT_FAILED").With("operation", "open database").Wrap(err)
	}
	defer store.Close()

	cmd.Printf("Initializing %s database at %s...\n", store.Target().Dialect, store.Target().Description)

	applied, err := store.Migrate(ctx)
	if err != nil {
		return oops.Code("MIGRATION_FAILED").With("operation", "run migrations").Wrap(err)
	}

	version, err := store.SchemaVersion(ctx)
	if err != nil {
		return oops.Code("MIGRATION_FAILED").With("operation", "read schema version").Wrap(err)
	}

	cmd.Printf("Database initialized: %d migration(s) applied, schema version %d\n", applied, version)
	return nil
}
