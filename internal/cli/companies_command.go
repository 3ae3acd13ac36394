package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCompaniesCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "companies",
		Short: "List production companies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, _, err := ctx.catalogue(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			companies := svc.Companies(cmd.Context())
			if asJSON {
				return writeJSON(cmd, companies)
			}

			out := cmd.OutOrStdout()
			if len(companies) == 0 {
				fmt.Fprintln(out, "No companies")
				return nil
			}
			rows := make([][]string, 0, len(companies))
			for _, c := range companies {
				rows = append(rows, []string{c.ID, c.Name})
			}
			fmt.Fprintln(out, renderTable([]string{"ID", "Name"}, rows, nil, shouldColorize(out)))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}
