package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCompileCmd(a *app) *cobra.Command {
	var count bool
	cmd := &cobra.Command{
		Use:   "compile <xql>",
		Short: "Compile an XQL statement to SQL",
		Example: `  xql compile -s schema.yaml "u from User u where u.name %% 'ann'"
  xql compile -s schema.yaml -d mysql --count "u from User u"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.compiler()
			if err != nil {
				return err
			}
			compiled, err := c.Compile(args[0])
			if err != nil {
				return err
			}
			if count {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), compiled.CountSQL)
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), compiled.SQL)
			return err
		},
	}
	cmd.Flags().BoolVar(&count, "count", false, "Print the count statement instead")
	return cmd
}
