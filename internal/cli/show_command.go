package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func newShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show the details of one film",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, _, err := ctx.catalogue(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			film, ok := svc.FindByID(cmd.Context(), args[0])
			if !ok {
				return fmt.Errorf("film not found: %s", args[0])
			}
			if asJSON {
				return writeJSON(cmd, film)
			}

			l, _ := svc.ListingFor(cmd.Context(), film.ID)
			p := message.NewPrinter(language.English)

			out := cmd.OutOrStdout()
			rows := [][]string{
				{"ID", film.ID},
				{"Title", film.Title},
				{"Company", l.ProductionCompany},
				{"Released", strconv.Itoa(film.ReleaseYear)},
				{"Cost", p.Sprintf("%.0f", film.Cost)},
				{"Reviews", strconv.Itoa(len(film.Reviews))},
				{"Score", l.AverageReviewScore},
			}
			fmt.Fprintln(out, renderTable([]string{"Field", "Value"}, rows, nil, shouldColorize(out)))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}
