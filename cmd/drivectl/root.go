package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dalemusser/stratadrive/internal/app/bootstrap"
	"github.com/dalemusser/waffle/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// env is the loaded configuration plus connected backends shared by the
// subcommands.
type env struct {
	log     *zap.Logger
	coreCfg *config.CoreConfig
	appCfg  bootstrap.AppConfig
}

// NewRootCommand builds the drivectl command tree.
func NewRootCommand() *cobra.Command {
	e := &env{}

	rootCmd := &cobra.Command{
		Use:   "drivectl",
		Short: "StrataDrive maintenance CLI",
		Long: `drivectl runs one-off StrataDrive maintenance tasks: purging the trash,
reconciling the schema and checking configuration. Configuration keys are the
server's (e.g. STRATADRIVE_MONGO_URI or --mongo_uri).`,
		SilenceUsage:  true,
		SilenceErrors: true,
		// Configuration flags belong to the config loader, not to cobra.
		FParseErrWhitelist: cobra.FParseErrWhitelist{UnknownFlags: true},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return e.load()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if e.log != nil {
				_ = e.log.Sync()
			}
		},
	}

	rootCmd.AddCommand(newCheckConfigCommand(e))
	rootCmd.AddCommand(newEnsureSchemaCommand(e))
	rootCmd.AddCommand(newPurgeTrashCommand(e))

	return rootCmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func (e *env) load() error {
	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	e.log = logger

	coreCfg, appCfg, err := bootstrap.LoadConfig(logger)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := bootstrap.ValidateConfig(coreCfg, appCfg, logger); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	e.coreCfg, e.appCfg = coreCfg, appCfg
	return nil
}

// connect opens the backends and returns a cleanup func.
func (e *env) connect(ctx context.Context) (bootstrap.DBDeps, func(), error) {
	deps, err := bootstrap.ConnectDB(ctx, e.coreCfg, e.appCfg, e.log)
	if err != nil {
		return bootstrap.DBDeps{}, nil, err
	}
	return deps, func() {
		if err := bootstrap.Shutdown(context.Background(), e.coreCfg, e.appCfg, deps, e.log); err != nil {
			e.log.Warn("shutdown failed", zap.Error(err))
		}
	}, nil
}
