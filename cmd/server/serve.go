package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/iudanet/logindash/internal/logging"
	"github.com/iudanet/logindash/internal/server"
)

// schemaInitRetries число повторов инициализации схемы при старте
const schemaInitRetries = 3

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Long: `Start the HTTP server. The database schema is created on startup;
if the database is not reachable the server still starts and reports
the failure through /health.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, opts)
		},
	}
}

func runServe(cmd *cobra.Command, opts *rootOptions) error {
	cfg, logger, err := loadRuntime(cmd, opts)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := server.NewApp(ctx, cfg, logger, Version)
	if err != nil {
		return oops.Code("APP_INIT_FAILED").With("operation", "create application").Wrap(err)
	}
	defer func() {
		if err := app.Close(); err != nil {
			logging.LogError(logger, "failed to close storage", err)
		}
	}()

	// Ошибка схемы не останавливает процесс: запросы к БД вернут 503
	if err := app.InitSchema(ctx, schemaInitRetries); err != nil {
		logging.LogError(logger, "database initialization failed", err)
	}

	if err := app.Run(ctx); err != nil {
		return oops.Code("SERVER_FAILED").With("addr", cfg.HTTPAddr).Wrap(err)
	}
	return nil
}
