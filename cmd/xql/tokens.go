package main

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/Konsultn-Engineering/xqlorm/ast"
	"github.com/Konsultn-Engineering/xqlorm/xql"
)

func newTokensCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tokens <xql>",
		Short: "Print the tokens of an XQL statement",
		Long: `Print the tokens of an XQL statement. With --schema the tokens are
categorized (entities, aliases, properties, parameters); without it the raw
lexer output is shown.`,
		Example: `  xql tokens "u from User u where u.age > :age"
  xql tokens -s schema.yaml "u from User u order by u.name desc"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tokens, err := a.tokens(args[0])
			if err != nil {
				return err
			}

			t := newTable(cmd.OutOrStdout())
			t.AppendHeader(table.Row{"#", "Pos", "Type", "Phase", "Text"})
			for i, tok := range tokens {
				t.AppendRow(table.Row{i, tok.Pos, tok.Type, tok.Phase, tok.String()})
			}
			t.Render()
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "(%d tokens)\n", len(tokens))
			return nil
		},
	}
}

func (a *app) tokens(src string) ([]ast.Token, error) {
	if a.catalog == nil {
		return xql.Tokenize(src)
	}
	c, err := a.compiler()
	if err != nil {
		return nil, err
	}
	compiled, err := c.Compile(src)
	if err != nil {
		return nil, err
	}
	return compiled.Tokens, nil
}
