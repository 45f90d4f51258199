package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/NordCoder/apiwatch/internal/domain/clock"
	pg "github.com/NordCoder/apiwatch/internal/repository/postgres"
	"github.com/NordCoder/apiwatch/internal/services/executor"
	runworker "github.com/NordCoder/apiwatch/internal/services/run-worker"
)

func newRunCmd(opts *options) *cobra.Command {
	var alert bool
	cmd := &cobra.Command{
		Use:   "run <monitor-id>",
		Short: "Run one monitor now and print the outcome",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.load()
			if err != nil {
				return err
			}
			db, err := e.db(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			tests := pg.NewAPITestRepo(db)
			h := &runworker.Handler{
				Monitors:   pg.NewMonitorRepo(db),
				Tests:      tests,
				Exec:       executor.New(nil, tests, clock.System{}, e.log, e.cfg.HTTP),
				Transactor: pg.NewTransactor(db, e.log),
				Alerter:    runworker.LogAlerter{Log: e.log},
				Clock:      clock.System{},
				Log:        e.log,
			}
			if alert {
				h.Alerter = runworker.OutboxAlerter{Outbox: pg.NewOutboxRepo(db)}
			}

			out, err := h.RunMonitor(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			e.log.Debug("run finished", zap.Bool("alerted", out.Alerted))
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().BoolVar(&alert, "alert", false, "queue an email alert through the outbox when the run fails")
	return cmd
}
