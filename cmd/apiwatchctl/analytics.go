package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/NordCoder/apiwatch/internal/analytics"
	"github.com/NordCoder/apiwatch/internal/domain/clock"
	pg "github.com/NordCoder/apiwatch/internal/repository/postgres"
	"github.com/NordCoder/apiwatch/internal/services/api-gateway/reports"
)

type windowFlags struct {
	rng     string
	monitor string
}

func (w *windowFlags) register(fs *pflag.FlagSet) {
	fs.StringVarP(&w.rng, "range", "r", string(analytics.DefaultRange), "time window: 24h, 7d, 30d or 90d")
	fs.StringVarP(&w.monitor, "monitor", "m", analytics.AllMonitors, `monitor id, or "all"`)
}

func (w *windowFlags) parse() (analytics.Range, error) {
	r := analytics.ParseRange(w.rng)
	if !strings.EqualFold(strings.TrimSpace(w.rng), string(r)) {
		return "", fmt.Errorf("unknown range %q", w.rng)
	}
	return r, nil
}

func withReports(ctx context.Context, opts *options, fn func(*reports.Usecase) error) error {
	e, err := opts.load()
	if err != nil {
		return err
	}
	db, err := e.db(ctx)
	if err != nil {
		return err
	}
	defer db.Close()
	return fn(reports.New(pg.NewMonitorRepo(db), clock.System{}))
}

func newAnalyticsCmd(opts *options) *cobra.Command {
	var win windowFlags
	cmd := &cobra.Command{
		Use:   "analytics",
		Short: "Print the analytics report as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rng, err := win.parse()
			if err != nil {
				return err
			}
			return withReports(cmd.Context(), opts, func(uc *reports.Usecase) error {
				rep, err := uc.Report(cmd.Context(), rng, win.monitor)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), rep)
			})
		},
	}
	win.register(cmd.Flags())
	return cmd
}

func newExportCmd(opts *options) *cobra.Command {
	var (
		win windowFlags
		out string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write monitor history as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rng, err := win.parse()
			if err != nil {
				return err
			}
			return withReports(cmd.Context(), opts, func(uc *reports.Usecase) error {
				var (
					w    io.Writer = cmd.OutOrStdout()
					file *os.File
				)
				if out != "-" {
					path := out
					if path == "" {
						path = analytics.Filename(clock.System{}.Now())
					}
					if file, err = os.Create(path); err != nil {
						return err
					}
					defer file.Close()
					w = file
				}
				_, rows, err := uc.Export(cmd.Context(), w, rng, win.monitor)
				if err != nil {
					return err
				}
				if file != nil {
					_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d rows to %s\n", rows, file.Name())
					return file.Close()
				}
				return nil
			})
		},
	}
	win.register(cmd.Flags())
	cmd.Flags().StringVarP(&out, "out", "o", "", `output file, "-" for stdout (default api-analytics-<date>.csv)`)
	return cmd
}
