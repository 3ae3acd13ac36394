package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/okian/marquee/internal/domain/model"
)

type listOutput struct {
	Page     int             `json:"page"`
	PageSize int             `json:"pageSize"`
	Total    int             `json:"total"`
	Listings []model.Listing `json:"listings"`
}

func newListCommand(ctx *commandContext) *cobra.Command {
	var page int
	var pageSize int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List a page of films with their average score and company",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, cfg, err := ctx.catalogue(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			if pageSize == 0 {
				pageSize = cfg.DefaultPageSize
			}
			if page < 0 {
				return fmt.Errorf("--page must not be negative, got %d", page)
			}
			if pageSize < 1 || pageSize > cfg.MaxPageSize {
				return fmt.Errorf("--page-size must be between 1 and %d, got %d", cfg.MaxPageSize, pageSize)
			}

			listings, err := svc.ListingsForPage(cmd.Context(), page, pageSize)
			if err != nil {
				return err
			}
			total := svc.Count(cmd.Context())

			if asJSON {
				return writeJSON(cmd, listOutput{Page: page, PageSize: pageSize, Total: total, Listings: listings})
			}

			out := cmd.OutOrStdout()
			if len(listings) == 0 {
				fmt.Fprintln(out, "No films on this page")
				return nil
			}
			rows := make([][]string, 0, len(listings))
			for _, l := range listings {
				rows = append(rows, []string{l.FilmID, l.Title, l.ProductionCompany, l.AverageReviewScore})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"ID", "Title", "Company", "Score"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight},
				shouldColorize(out),
			))
			fmt.Fprintf(out, "page %d of %d, %d films\n", page+1, pageCount(total, pageSize), total)
			return nil
		},
	}

	cmd.Flags().IntVar(&page, "page", 0, "Zero-based page number")
	cmd.Flags().IntVar(&pageSize, "page-size", 0, "Films per page (default from config)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func pageCount(total, pageSize int) int {
	if total == 0 || pageSize <= 0 {
		return 1
	}
	return (total + pageSize - 1) / pageSize
}
