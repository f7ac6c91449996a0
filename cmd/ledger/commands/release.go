package commands

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/stwalsh4118/publicrecords/internal/app"
)

var releaseRevoke *bool

func init() {
	releaseRevoke = releaseCmd.Flags().Bool("revoke", false, "Hide the links from the query API again.")
	rootCmd.AddCommand(releaseCmd)
}

// New links are stored unprocessed and unconsumed; the query API only
// returns links once enrichment has released them.
var releaseCmd = &cobra.Command{
	Use:   "release <link-id>... [--revoke]",
	Short: "Marks links processed and consumed so the query API returns them.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ids := make([]int64, 0, len(args))
		for _, arg := range args {
			id, err := strconv.ParseInt(arg, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid link id %q: %w", arg, err)
			}
			ids = append(ids, id)
		}

		released := !*releaseRevoke
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			for _, id := range ids {
				if err := a.Links.SetFlags(ctx, id, released, released); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "updated %d links\n", len(ids))
			return nil
		})
	},
}
