package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	pg "github.com/NordCoder/apiwatch/internal/repository/postgres"
	"github.com/NordCoder/apiwatch/internal/templates"
)

func newTemplatesCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "templates",
		Aliases: []string{"tpl"},
		Short:   "Browse pre-built test templates",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List templates by category",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				groups, err := templates.Grouped()
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				for _, g := range groups {
					_, _ = fmt.Fprintf(tw, "%s\n", g.Category)
					for _, t := range g.Templates {
						_, _ = fmt.Fprintf(tw, "  %s\t%s\t%s\n", t.ID, t.Method, t.Description)
					}
				}
				return tw.Flush()
			},
		},
		&cobra.Command{
			Use:   "show <id>",
			Short: "Print one template as JSON",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				t, err := templates.Get(args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), t)
			},
		},
		&cobra.Command{
			Use:   "use <id>",
			Short: "Save a new test from a template",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				t, err := templates.Get(args[0])
				if err != nil {
					return err
				}
				e, err := opts.load()
				if err != nil {
					return err
				}
				db, err := e.db(cmd.Context())
				if err != nil {
					return err
				}
				defer db.Close()

				test := t.ToTest()
				if err := pg.NewAPITestRepo(db).Create(cmd.Context(), test); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "created test %s (%s)\n", test.ID, test.Name)
				return nil
			},
		},
	)
	return cmd
}
