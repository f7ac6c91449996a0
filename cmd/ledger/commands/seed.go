package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/stwalsh4118/publicrecords/internal/app"
	"github.com/stwalsh4118/publicrecords/internal/config"
	"github.com/stwalsh4118/publicrecords/internal/models"
	"github.com/stwalsh4118/publicrecords/internal/services"
)

var (
	seedSource *string
	seedState  *string
	seedCounty *string
	seedCity   *string

	tokenSubject *string
	tokenTTL     *time.Duration
)

func init() {
	seedSource = seedCmd.Flags().String("source", "", "The producer source.")
	seedState = seedCmd.Flags().String("state", "", "Two letter state.")
	seedCounty = seedCmd.Flags().String("county", "", "County name.")
	seedCity = seedCmd.Flags().String("city", "", "Optional city for municipal sources.")
	for _, f := range []string{"source", "state", "county"} {
		_ = seedCmd.MarkFlagRequired(f)
	}

	tokenSubject = tokenCmd.Flags().String("subject", "", "Who the token is issued to.")
	tokenTTL = tokenCmd.Flags().Duration("ttl", 30*24*time.Hour, "How long the token stays valid.")
	_ = tokenCmd.MarkFlagRequired("subject")

	rootCmd.AddCommand(seedCmd, productCmd, migrateCmd, tokenCmd)
}

var seedCmd = &cobra.Command{
	Use:   "seed --source <source> --state <state> --county <county> [--city <city>]",
	Short: "Registers a producer. Seeding an existing producer is a no-op.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			producer, err := a.Ledger.Seed(ctx, models.PublicRecordProducer{
				Source: *seedSource,
				State:  *seedState,
				County: *seedCounty,
				City:   *seedCity,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd, producer)
		})
	},
}

var productCmd = &cobra.Command{
	Use:   "product <state> <county> <practice-type>...",
	Short: "Adds catalog products for a county. Existing products are left as they are.",
	Args:  cobra.MinimumNArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		state, county := args[0], args[1]
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			for _, practiceType := range args[2:] {
				product, err := a.Products.Create(ctx, models.ProductName(state, county, practiceType))
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), product.Name)
			}
			return nil
		})
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Applies the database schema.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		// Opening the app applies the schema.
		return withApp(cmd, func(context.Context, *app.App) error {
			fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")
			return nil
		})
	},
}

var tokenCmd = &cobra.Command{
	Use:   "token --subject <name> [--ttl 720h]",
	Short: "Issues an access token for the query API.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if cfg.Auth.JWTSecret == "" {
			return fmt.Errorf("AUTH_JWT_SECRET must be set to issue tokens")
		}
		token, err := services.SignToken(cfg.Auth.JWTSecret, *tokenSubject, *tokenTTL)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}
