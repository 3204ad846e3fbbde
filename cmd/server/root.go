package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/iudanet/logindash/internal/config"
	"github.com/iudanet/logindash/internal/logging"
)

// rootOptions флаги, общие для всех подкоманд
type rootOptions struct {
	envFile  string
	httpAddr string
}

// NewRootCmd создает корневую команду CLI
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "logindash",
		Short:         "logindash - username/password login with a login history dashboard",
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildDate),
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "path to .env file (ignored if missing)")
	cmd.PersistentFlags().StringVar(&opts.httpAddr, "addr", "", "HTTP listen address (overrides HTTP_ADDR/PORT)")

	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newInitDBCmd(opts))
	cmd.AddCommand(newCreateUserCmd(opts))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// loadRuntime загружает конфигурацию и строит логгер, который пишет в stderr команды
func loadRuntime(cmd *cobra.Command, opts *rootOptions) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(opts.envFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if opts.httpAddr != "" {
		cfg.HTTPAddr = opts.httpAddr
	}

	logger, err := logging.Setup(cfg.Log.Format, cfg.Log.Level, cmd.ErrOrStderr())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to configure logging: %w", err)
	}

	if cfg.SecretKeyIsDefault {
		logger.Warn("SECRET_KEY is not set, using the development key; sessions are forgeable")
	}

	return cfg, logger, nil
}
