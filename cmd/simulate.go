package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/chrisdamba/brewqueue/internal/output"
	"github.com/chrisdamba/brewqueue/internal/simulator"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Replay synthetic peak shifts and print the summary",
	RunE: func(cmd *cobra.Command, args []string) error {
		bindFlags(cmd.Flags(), simulateFlagKeys)
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		dest, err := output.New(cfg)
		if err != nil {
			return fmt.Errorf("failed to open output: %w", err)
		}
		defer func() {
			if err := dest.Close(); err != nil {
				logger.Error("failed to close output", "error", err)
			}
		}()

		bar := progressbar.NewOptions(cfg.TestCases,
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetDescription("simulating"),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
		sim := simulator.New(simulator.Options{
			Seed:      cfg.Seed,
			TestCases: cfg.TestCases,
			Logger:    logger,
			Output:    dest,
			Progress:  func(done, _ int) { _ = bar.Set(done) },
		})

		status, report := sim.Run(ctx)
		_ = bar.Finish()
		if status != simulator.RunStatusCompleted {
			return fmt.Errorf("simulation %s after %d test cases", status, sim.CompletedTests())
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			RunID   string      `json:"runId"`
			Summary interface{} `json:"summary"`
		}{report.RunID, report.Summary})
	},
}

func init() {
	flags := simulateCmd.Flags()
	flags.Int("test-cases", 10, "Number of test cases per run")
	flags.String("output-format", "console", "Record format (console, json, csv, parquet, postgres)")
	flags.String("output-destination", "local", "Where record files go (local or cloud)")
	flags.String("output-path", "", "Base directory for local record files")
	flags.String("database-dsn", "", "Postgres connection string for the postgres format")
	flags.Bool("kafka-enabled", false, "Send records to Kafka instead")
	flags.String("kafka-broker-list", "localhost:9092", "Kafka broker list")
}

var simulateFlagKeys = map[string]string{
	"test_cases":         "test-cases",
	"output_format":      "output-format",
	"output_destination": "output-destination",
	"output_path":        "output-path",
	"database.dsn":       "database-dsn",
	"kafka_enabled":      "kafka-enabled",
	"kafka_broker_list":  "kafka-broker-list",
}
