package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

type DatabaseConfig struct {
	DSN      string `mapstructure:"dsn"`
	MaxConns int32  `mapstructure:"max_conns"`
}

type CloudStorageConfig struct {
	Provider   string `mapstructure:"provider"`
	Region     string `mapstructure:"region"`
	BucketName string `mapstructure:"bucket_name"`
}

type Config struct {
	Seed         int64 `mapstructure:"seed"`
	TestCases    int   `mapstructure:"test_cases"`
	BaristaCount int   `mapstructure:"barista_count"`

	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`

	AutoCompleteInterval time.Duration `mapstructure:"auto_complete_interval"`
	RebalanceInterval    time.Duration `mapstructure:"rebalance_interval"`
	AutoAbandon          bool          `mapstructure:"auto_abandon"`
	BroadcastBuffer      int           `mapstructure:"broadcast_buffer"`

	Storage  string         `mapstructure:"storage"` // memory or postgres
	Database DatabaseConfig `mapstructure:"database"`

	KafkaEnabled     bool          `mapstructure:"kafka_enabled"`
	KafkaBrokerList  string        `mapstructure:"kafka_broker_list"`
	KafkaTimeout     time.Duration `mapstructure:"kafka_timeout"`
	RabbitMQURL      string        `mapstructure:"rabbitmq_url"`
	RabbitMQExchange string        `mapstructure:"rabbitmq_exchange"`

	OutputDestination string             `mapstructure:"output_destination"` // local or cloud
	OutputFormat      string             `mapstructure:"output_format"`      // console, json, csv, parquet
	OutputPath        string             `mapstructure:"output_path"`
	OutputFolder      string             `mapstructure:"output_folder"`
	CloudStorage      CloudStorageConfig `mapstructure:"cloud_storage"`

	FeedEnabled       bool    `mapstructure:"feed_enabled"`
	FeedRatePerMinute float64 `mapstructure:"feed_rate_per_minute"`
	FeedRegularRatio  float64 `mapstructure:"feed_regular_ratio"`
}

var defaults = map[string]interface{}{
	"seed":                   42,
	"test_cases":             10,
	"barista_count":          3,
	"log_level":              "info",
	"log_format":             "text",
	"auto_complete_interval": 5 * time.Second,
	"rebalance_interval":     30 * time.Second,
	"auto_abandon":           false,
	"broadcast_buffer":       16,
	"storage":                "memory",
	"database.max_conns":     4,
	"kafka_enabled":          false,
	"kafka_broker_list":      "localhost:9092",
	"kafka_timeout":          30 * time.Second,
	"rabbitmq_exchange":      "queue_updates_fanout",
	"output_destination":     "local",
	"output_format":          "console",
	"output_folder":          "simulations",
	"feed_enabled":           false,
	"feed_rate_per_minute":   1.4,
	"feed_regular_ratio":     0.6,
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() *Config {
	return &Config{
		Seed:                 42,
		TestCases:            10,
		BaristaCount:         3,
		LogLevel:             "info",
		LogFormat:            "text",
		AutoCompleteInterval: 5 * time.Second,
		RebalanceInterval:    30 * time.Second,
		BroadcastBuffer:      16,
		Storage:              "memory",
		Database:             DatabaseConfig{MaxConns: 4},
		KafkaBrokerList:      "localhost:9092",
		KafkaTimeout:         30 * time.Second,
		RabbitMQExchange:     "queue_updates_fanout",
		OutputDestination:    "local",
		OutputFormat:         "console",
		OutputFolder:         "simulations",
		FeedRatePerMinute:    1.4,
		FeedRegularRatio:     0.6,
	}
}

// LoadConfig initializes and reads the configuration using Viper
func LoadConfig(cfgFile string) (*Config, error) {
	for key, value := range defaults {
		viper.SetDefault(key, value)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME")
		viper.SetConfigName(".brewqueue")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("BREWQUEUE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	decoderConfigOption := viper.DecoderConfigOption(func(config *mapstructure.DecoderConfig) {
		config.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			config.DecodeHook,
			mapstructure.StringToTimeDurationHookFunc(),
		)
	})
	if err := viper.Unmarshal(&config, decoderConfigOption); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %w", err)
	}

	if config.BaristaCount <= 0 {
		return nil, fmt.Errorf("barista_count must be positive, got %d", config.BaristaCount)
	}

	return &config, nil
}
