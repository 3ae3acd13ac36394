package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/okian/marquee/internal/domain/review"
)

func newReviewCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "review <id> <text...>",
		Short: "Submit a review for a film",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			id := args[0]
			text := strings.Join(args[1:], " ")
			if err := review.Validate(text, cfg.MaxReviewLength); err != nil {
				return errors.New(review.Message(err, cfg.MaxReviewLength))
			}

			svc, _, err := ctx.catalogue(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if _, ok := svc.FindByID(cmd.Context(), id); !ok {
				return fmt.Errorf("film not found: %s", id)
			}

			resp := svc.SubmitReview(cmd.Context(), id, text)
			if !resp.Success {
				return errors.New(review.FailureMessage)
			}
			fmt.Fprintln(cmd.OutOrStdout(), resp.Message)
			return nil
		},
	}
	return cmd
}
