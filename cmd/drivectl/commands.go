package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/dalemusser/stratadrive/internal/app/bootstrap"
	"github.com/dalemusser/stratadrive/internal/app/system/timeouts"
	"github.com/spf13/cobra"
)

func newCheckConfigCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "check-config",
		Short: "Load and validate configuration without connecting",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "configuration ok (storage=%s, policy=%s, sweep=%q)\n",
				e.appCfg.StorageType, e.appCfg.FileMutationPolicy, e.appCfg.TrashSweepSchedule)
			return nil
		},
	}
}

func newEnsureSchemaCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "ensure-schema",
		Short: "Create collections, validators and indexes",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			deps, closeFn, err := e.connect(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			if err := bootstrap.EnsureSchema(ctx, e.coreCfg, e.appCfg, deps, e.log); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema ok")
			return nil
		},
	}
}

func newPurgeTrashCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "purge-trash",
		Short: "Permanently delete trashed files now",
		Long: `Runs one trash sweep immediately, honouring trash_retention and the Redis
sweep lock when redis_addr is set. Prints the sweep result as JSON.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeouts.Sweep())
			defer cancel()

			deps, closeFn, err := e.connect(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			svcs, err := bootstrap.NewServices(e.appCfg, deps, e.log)
			if err != nil {
				return err
			}
			res, err := svcs.Sweeper.PurgeTrashed(ctx)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(res); err != nil {
				return err
			}
			if res.Failed > 0 {
				fmt.Fprintf(os.Stderr, "%d file(s) could not be purged; see logs\n", res.Failed)
			}
			return nil
		},
	}
}
