package main

import (
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Konsultn-Engineering/xqlorm/dialect"
	"github.com/Konsultn-Engineering/xqlorm/schema"
	"github.com/Konsultn-Engineering/xqlorm/xql"
)

// app carries what the persistent flags resolve to.
type app struct {
	verbose     bool
	configFile  string
	schemaFile  string
	dialectName string

	logger  *slog.Logger
	catalog schema.Catalog
}

var errNoSchema = errors.New("no schema loaded, pass --schema")

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "xql",
		Short: "Compile and run XQL entity queries",
		Long: `xql compiles XQL, the entity query language, into SQL for PostgreSQL,
MySQL or SQLite, and runs it against a configured database.

Entities are declared in a YAML schema file passed with --schema.`,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			level := slog.LevelInfo
			if a.verbose {
				level = slog.LevelDebug
			}
			a.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

			if a.schemaFile == "" {
				return nil
			}
			catalog, err := loadSchema(a.schemaFile)
			if err != nil {
				return err
			}
			a.catalog = catalog
			a.logger.Debug("schema loaded", "file", a.schemaFile, "entities", len(catalog))
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Debug logging on stderr")
	root.PersistentFlags().StringVar(&a.configFile, "config", "", "Connection config file (yaml)")
	root.PersistentFlags().StringVarP(&a.schemaFile, "schema", "s", "", "Entity schema file (yaml)")
	root.PersistentFlags().StringVarP(&a.dialectName, "dialect", "d", "postgres", "SQL dialect for compile and tokens")

	_ = root.RegisterFlagCompletionFunc("dialect", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return dialect.Names(), cobra.ShellCompDirectiveNoFileComp
	})

	root.AddCommand(newTokensCmd(a), newCompileCmd(a), newQueryCmd(a))
	return root
}

func (a *app) compiler() (*xql.Compiler, error) {
	if a.catalog == nil {
		return nil, errNoSchema
	}
	d, err := dialect.Lookup(a.dialectName)
	if err != nil {
		return nil, err
	}
	return xql.New(a.catalog, d, xql.WithLogger(a.logger)), nil
}
