package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/trezcool/rollcall/core/group"
	"github.com/trezcool/rollcall/core/student"
	"github.com/trezcool/rollcall/storage/database"
)

var (
	gooseRunFunc = database.RunMigrations // mockable

	errHelp  = errors.New("help provided")
	errNoSQL = errors.New("migrations require the postgres database engine")
)

type commandLine struct {
	db         *sqlx.DB // nil with the memory engine
	studentSvc *student.Service
	groupSvc   *group.Service
	out        io.Writer
}

func (cli *commandLine) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "admin",
		Short:         "Rollcall administration commands.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_ = cmd.Help()
			return errHelp
		},
	}
	root.SetOut(cli.out)
	root.SetErr(cli.out)
	root.AddCommand(cli.migrateCmd(), cli.seedCmd(), cli.runFiltersCmd())
	return root
}

func (cli *commandLine) run(args []string) error {
	root := cli.rootCmd()
	if len(args) > 0 {
		args = args[1:] // drop program name
	}
	root.SetArgs(args)
	return root.ExecuteContext(context.Background())
}

func (cli *commandLine) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate COMMAND [ARGS...]",
		Short: "Run a goose migration command: up, up-by-one, up-to, down, down-to, redo, reset, status, version, create, fix.",
		// goose flags like `create NAME sql` are passed through untouched
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				_ = cmd.Help()
				return errHelp
			}
			return cli.migrate(cmd.Context(), args)
		},
	}
}

func (cli *commandLine) migrate(ctx context.Context, args []string) error {
	if cli.db == nil {
		return errNoSQL
	}
	return gooseRunFunc(ctx, cli.db, args[0], args[1:]...)
}

func (cli *commandLine) seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert the default students if there are none.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			n, err := cli.studentSvc.SeedDefaults(cmd.Context())
			if err != nil {
				return errors.Wrap(err, "seeding students")
			}
			_, _ = fmt.Fprintf(cli.out, "%d students created\n", n)
			return nil
		},
	}
}

func (cli *commandLine) runFiltersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run-filters",
		Short: "Recompute the members of every group and print the run summary as JSON.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			summary, err := cli.groupSvc.RunFilters(cmd.Context())
			if err != nil {
				return errors.Wrap(err, "running group filters")
			}
			enc := json.NewEncoder(cli.out)
			enc.SetIndent("", "  ")
			return enc.Encode(summary)
		},
	}
}
