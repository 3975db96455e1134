package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/Konsultn-Engineering/xqlorm/connector"
	"github.com/Konsultn-Engineering/xqlorm/database"
	"github.com/Konsultn-Engineering/xqlorm/engine"
	"github.com/Konsultn-Engineering/xqlorm/query"
	"github.com/Konsultn-Engineering/xqlorm/schema"
)

type queryOptions struct {
	limit  int
	offset int
	params []string
	count  bool
}

func newQueryCmd(a *app) *cobra.Command {
	var opts queryOptions
	cmd := &cobra.Command{
		Use:   "query <xql>",
		Short: "Run an XQL statement and print the entities it returns",
		Long: `Run an XQL statement against the configured database. Connection
settings come from --config, XQL_* environment variables and the flags below,
later sources overriding earlier ones.`,
		Example: `  xql query -s schema.yaml --driver sqlite --database app.db "u from User u"
  xql query -s schema.yaml --config db.yaml -p age=30 "u from User u where u.age > :age"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.catalog == nil {
				return errNoSchema
			}
			params, err := parseParams(opts.params)
			if err != nil {
				return err
			}
			cfg, err := connector.Load(a.configFile, cmd.Flags())
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			conn, err := connector.Open(ctx, cfg, a.logger)
			if err != nil {
				return err
			}
			defer conn.Close()

			m, err := newManager(conn.Database(), a)
			if err != nil {
				return err
			}
			b, err := m.Query(args[0])
			if err != nil {
				return err
			}

			if opts.count {
				n, err := b.Count(ctx, params, false)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), n)
				return err
			}

			res, err := b.Get(ctx, params, opts.limit, opts.offset)
			if err != nil {
				return err
			}
			q, err := m.Compiler().Parse(args[0])
			if err != nil {
				return err
			}
			columns := make([]resultColumn, 0, len(q.Select))
			for _, alias := range q.Select {
				entity, _ := q.Resolve(alias)
				model, _ := m.Model(entity)
				columns = append(columns, resultColumn{alias: alias, model: model})
			}
			return renderResult(cmd.OutOrStdout(), columns, res)
		},
	}

	cmd.Flags().IntVar(&opts.limit, "limit", 0, "Maximum rows")
	cmd.Flags().IntVar(&opts.offset, "offset", 0, "Rows to skip")
	cmd.Flags().StringArrayVarP(&opts.params, "param", "p", nil, "Query parameter as name=value (repeatable)")
	cmd.Flags().BoolVar(&opts.count, "count", false, "Print the number of matching rows")

	cmd.Flags().String("driver", "", "Database driver ("+strings.Join(connector.Drivers(), ", ")+")")
	cmd.Flags().String("host", "", "Database host")
	cmd.Flags().Int("port", 0, "Database port")
	cmd.Flags().String("database", "", "Database name, or file for sqlite")
	cmd.Flags().String("username", "", "Database user")
	cmd.Flags().String("password", "", "Database password")
	cmd.Flags().String("ssl-mode", "", "SSL mode")
	return cmd
}

// newManager declares every schema entity as a generic entity.
func newManager(db database.Database, a *app) (*engine.Manager, error) {
	decls := make([]engine.Declaration, 0, len(a.catalog))
	for _, name := range a.catalog.Names() {
		model := a.catalog[name]
		decls = append(decls, engine.Declare(name, func() schema.Entity {
			return schema.NewGeneric(model)
		}))
	}
	return engine.New(db, engine.WithEntities(decls...), engine.WithLogger(a.logger))
}

func parseParams(raw []string) (map[string]any, error) {
	params := make(map[string]any, len(raw))
	for _, p := range raw {
		name, value, ok := strings.Cut(p, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid parameter %q, want name=value", p)
		}
		params[name] = value
	}
	return params, nil
}

type resultColumn struct {
	alias string
	model *schema.Model
}

func renderResult(w io.Writer, columns []resultColumn, res query.Result) error {
	if res.Len() == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return nil
	}

	t := newTable(w)

	header := table.Row{}
	for _, c := range columns {
		for _, p := range c.model.Properties() {
			if len(columns) == 1 {
				header = append(header, p.Name())
			} else {
				header = append(header, c.alias+"."+p.Name())
			}
		}
	}
	t.AppendHeader(header)

	switch r := res.(type) {
	case query.EntityCollection:
		for _, e := range r {
			t.AppendRow(entityCells(columns[0].model, e))
		}
	case query.RecordSet:
		for _, record := range r {
			row := table.Row{}
			for _, c := range columns {
				row = append(row, entityCells(c.model, record[c.alias])...)
			}
			t.AppendRow(row)
		}
	}

	t.Render()
	_, _ = fmt.Fprintf(w, "(%d rows)\n", res.Len())
	return nil
}

// entityCells formats the property values of e; a nil entity, from an
// unmatched outer join, renders as empty cells.
func entityCells(m *schema.Model, e schema.Entity) table.Row {
	row := make(table.Row, len(m.Properties()))
	for i, p := range m.Properties() {
		if e == nil {
			row[i] = ""
			continue
		}
		v, err := schema.Value(e, p.Name())
		if err != nil {
			row[i] = "!"
			continue
		}
		row[i] = p.FormatValue(v)
	}
	return row
}
