package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	config "github.com/NordCoder/apiwatch/internal/config/api-gateway"
	"github.com/NordCoder/apiwatch/internal/obs"
	pg "github.com/NordCoder/apiwatch/internal/repository/postgres"
)

type options struct {
	configPath string
	verbose    bool
}

// env is what a command gets once config is loaded.
type env struct {
	cfg *config.Config
	log *zap.Logger
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:          "apiwatchctl",
		Short:        "Operate an apiwatch deployment",
		SilenceUsage: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}
	addGlobalFlags(root.PersistentFlags(), opts)

	root.AddCommand(
		newMigrateCmd(opts),
		newRunCmd(opts),
		newAnalyticsCmd(opts),
		newExportCmd(opts),
		newTemplatesCmd(opts),
	)
	return root
}

func addGlobalFlags(fs *pflag.FlagSet, opts *options) {
	fs.StringVarP(&opts.configPath, "config", "c", "", "api-gateway config file (defaults and env vars apply)")
	fs.BoolVarP(&opts.verbose, "verbose", "v", false, "log at debug level")
}

func (o *options) load() (*env, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	lc := cfg.Log.AsLoggerConfig(cfg.App)
	// console encoding for people, JSON when stderr is piped to a collector
	lc.Pretty = isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())
	if o.verbose {
		lc.Level = "debug"
	} else {
		lc.Level = "warn"
	}
	log, err := obs.NewLogger(lc)
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, log: log}, nil
}

var errNeedsDB = errors.New("this command needs a database; memory mode is not supported")

func (e *env) db(ctx context.Context) (*pg.DB, error) {
	if e.cfg.Memory {
		return nil, errNeedsDB
	}
	db, err := pg.NewDB(ctx, e.cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}
	return db, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
