package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/chrisdamba/brewqueue/internal/logging"
	"github.com/chrisdamba/brewqueue/internal/models"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "brewqueue",
	Short: "Priority order queue and shift simulator for a coffee bar",
	Long: `brewqueue schedules drink orders across a pool of baristas by priority and replays
synthetic peak-hour shifts to measure wait times, abandonment and workload balance.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.brewqueue.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "Log format (text or json)")
	rootCmd.PersistentFlags().Int64("seed", 42, "Random seed for synthetic orders")
	rootCmd.PersistentFlags().Int("barista-count", 3, "Number of baristas in the live pool")

	bindFlags(rootCmd.PersistentFlags(), map[string]string{
		"log_level":     "log-level",
		"log_format":    "log-format",
		"seed":          "seed",
		"barista_count": "barista-count",
	})

	rootCmd.AddCommand(serveCmd, simulateCmd)
}

// bindFlags maps config keys to the flags that override them.
func bindFlags(flags *pflag.FlagSet, keys map[string]string) {
	for key, name := range keys {
		cobra.CheckErr(viper.BindPFlag(key, flags.Lookup(name)))
	}
}

// loadConfig reads the configuration and installs the configured logger as
// the slog default.
func loadConfig() (*models.Config, *slog.Logger, error) {
	cfg, err := models.LoadConfig(cfgFile)
	if err != nil {
		return nil, nil, fmt.Errorf("error loading config: %w", err)
	}
	logger := logging.NewLogger(logging.ParseLevel(cfg.LogLevel), cfg.LogFormat)
	slog.SetDefault(logger)
	if used := viper.ConfigFileUsed(); used != "" {
		logger.Debug("using config file", "path", used)
	}
	return cfg, logger, nil
}

func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
