package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stwalsh4118/publicrecords/internal/app"
)

var (
	resetSource       *string
	resetSubsetSource *string
	resetSubsetState  *string
)

func init() {
	resetSource = resetCmd.Flags().String("source", "", "The producer source to re-arm.")
	_ = resetCmd.MarkFlagRequired("source")

	resetSubsetSource = resetSubsetCmd.Flags().String("source", "", "The producer source to re-arm.")
	resetSubsetState = resetSubsetCmd.Flags().String("state", "", "Two letter state of the counties.")
	_ = resetSubsetCmd.MarkFlagRequired("source")
	_ = resetSubsetCmd.MarkFlagRequired("state")

	rootCmd.AddCommand(resetCmd, resetSubsetCmd)
}

var resetCmd = &cobra.Command{
	Use:   "reset --source <source>",
	Short: "Marks every producer of a source unprocessed.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			n, err := a.Ledger.ResetAll(ctx, *resetSource)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "re-armed %d producers\n", n)
			return nil
		})
	},
}

var resetSubsetCmd = &cobra.Command{
	Use:   "reset-subset --source <source> --state <state> <county>...",
	Short: "Marks the whole source processed, then re-arms only the listed counties.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, counties []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			n, err := a.Ledger.ResetSubset(ctx, *resetSubsetSource, *resetSubsetState, counties)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "re-armed %d producers in %s\n", n, *resetSubsetState)
			return nil
		})
	},
}
