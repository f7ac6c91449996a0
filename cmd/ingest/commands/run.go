package commands

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/stwalsh4118/publicrecords/internal/app"
	"github.com/stwalsh4118/publicrecords/internal/config"
	"github.com/stwalsh4118/publicrecords/internal/ingest"
	"github.com/stwalsh4118/publicrecords/internal/logger"
	"github.com/stwalsh4118/publicrecords/internal/models"
)

var (
	runSource *string
	runDir    *string
	runOrder  *string
)

func init() {
	runSource = runCmd.Flags().String("source", "civil", "The producer source to work on.")
	runDir = runCmd.Flags().String("dir", "", "Export root laid out as <dir>/<state>/<county>/. Defaults to INGEST_DATA_DIR.")
	runOrder = runCmd.Flags().String("order", "asc", "Claim by county priority, asc or desc.")
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run [state county] [--source civil] [--dir ./data]",
	Short: "Ingests one producer: the given county, or the next one claimed by priority.",
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) != 0 && len(args) != 2 {
			return cobra.ExactArgs(2)(cmd, args)
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		order, err := models.ParsePriorityOrder(*runOrder)
		if err != nil {
			return err
		}

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if *runDir != "" {
			cfg.Ingest.DataDir = *runDir
		}
		log := logger.New(cfg.Server.Env).WithComponent("ingest-cli")

		ctx := cmd.Context()
		a, err := app.Open(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer a.Close()

		var state, county string
		if len(args) == 2 {
			state, county = args[0], args[1]
		}

		producer, err := a.Ledger.Acquire(ctx, *runSource, state, county, order)
		if err != nil {
			return err
		}
		if producer == nil {
			log.Info("Nothing to ingest", logger.Fields{"source": *runSource})
			return nil
		}

		source := ingest.NewCSVSource(*runSource, cfg.Ingest.DataDir, log)
		driver := ingest.NewDriver(a.Engine, a.Ledger, source, ingest.NewLogNotifier(log), cfg.Ingest, log)

		report, err := driver.Run(ctx, *producer)
		if report != nil {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if encErr := enc.Encode(report); encErr != nil {
				log.Warn("Failed to print report", logger.Fields{"error": encErr.Error()})
			}
		}
		return err
	},
}
