package commands

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/stwalsh4118/publicrecords/internal/app"
	"github.com/stwalsh4118/publicrecords/internal/models"
)

var (
	claimSource *string
	claimOrder  *string
)

func init() {
	claimSource = claimCmd.Flags().String("source", "", "The producer source to claim from.")
	claimOrder = claimCmd.Flags().String("order", "asc", "Claim by county priority, asc or desc.")
	_ = claimCmd.MarkFlagRequired("source")

	rootCmd.AddCommand(claimCmd, markCmd)
}

var claimCmd = &cobra.Command{
	Use:   "claim --source <source> [--order asc|desc]",
	Short: "Claims the next unprocessed producer and prints it.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		order, err := models.ParsePriorityOrder(*claimOrder)
		if err != nil {
			return err
		}

		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			producer, err := a.Ledger.ClaimNext(ctx, *claimSource, order)
			if err != nil {
				return err
			}
			if producer == nil {
				fmt.Fprintln(cmd.ErrOrStderr(), "nothing left to claim")
				return nil
			}
			return printJSON(cmd, producer)
		})
	},
}

var markCmd = &cobra.Command{
	Use:   "mark <id>",
	Short: "Marks a producer processed.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid producer id %q: %w", args[0], err)
		}

		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			return a.Ledger.MarkProcessed(ctx, id)
		})
	},
}
