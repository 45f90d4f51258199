package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/NordCoder/apiwatch/migrations"
)

func newMigrateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := opts.load()
			if err != nil {
				return err
			}
			if e.cfg.Memory {
				return errNeedsDB
			}
			if err := migrations.Up(e.cfg.DB.DSN); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "migrations: up OK")
			return nil
		},
	}
}
