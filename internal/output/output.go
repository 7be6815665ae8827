// Package output writes simulation records and queue updates to local files,
// cloud storage, Postgres, Kafka or the console. Every destination receives
// JSON messages keyed by topic.
package output

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/chrisdamba/brewqueue/internal/cloudwriter"
	"github.com/chrisdamba/brewqueue/internal/models"
	"github.com/chrisdamba/brewqueue/internal/producers"
)

type Destination interface {
	WriteMessage(topic string, msg []byte) error
	Close() error
}

// fileOpener creates the file stored under a path relative to the output root.
type fileOpener func(relPath string) (io.WriteCloser, error)

// New builds the destination selected by the configuration.
func New(cfg *models.Config) (Destination, error) {
	if cfg.KafkaEnabled {
		producer, err := producers.NewSaramaProducer(cfg)
		if err != nil {
			return nil, err
		}
		return producer, nil
	}

	if cfg.OutputFormat == "postgres" {
		pg, err := NewPostgresOutput(context.Background(), cfg.Database)
		if err != nil {
			return nil, err
		}
		return pg, nil
	}

	var opener fileOpener
	var parquetFactory cloudwriter.CloudWriterFactory
	switch cfg.OutputDestination {
	case "", "local":
		if cfg.OutputFormat == "console" || cfg.OutputPath == "" {
			return NewConsoleOutput(os.Stdout), nil
		}
		opener = localOpener(filepath.Join(cfg.OutputPath, cfg.OutputFolder))
	case "cloud":
		factory, err := newCloudFactory(cfg.CloudStorage)
		if err != nil {
			return nil, err
		}
		opener = cloudOpener(factory, cfg.CloudStorage.BucketName, cfg.OutputFolder)
		parquetFactory = factory
	default:
		return nil, fmt.Errorf("unsupported output destination: %s", cfg.OutputDestination)
	}

	switch cfg.OutputFormat {
	case "json":
		return NewJSONOutput(opener), nil
	case "csv":
		return NewCSVOutput(opener), nil
	case "parquet":
		if parquetFactory != nil {
			return NewCloudParquetOutput(parquetFactory, cfg.CloudStorage.BucketName, cfg.OutputFolder), nil
		}
		return NewParquetOutput(filepath.Join(cfg.OutputPath, cfg.OutputFolder)), nil
	case "console":
		return NewConsoleOutput(os.Stdout), nil
	}
	return nil, fmt.Errorf("unsupported output format: %s", cfg.OutputFormat)
}

func newCloudFactory(cfg models.CloudStorageConfig) (cloudwriter.CloudWriterFactory, error) {
	switch cfg.Provider {
	case "s3":
		factory, err := cloudwriter.NewS3WriterFactory(cfg.Region)
		if err != nil {
			return nil, fmt.Errorf("failed to create cloud writer factory: %w", err)
		}
		return factory, nil
	}
	return nil, fmt.Errorf("unsupported cloud storage provider: %s", cfg.Provider)
}

func localOpener(root string) fileOpener {
	return func(relPath string) (io.WriteCloser, error) {
		fullPath := filepath.Join(root, filepath.FromSlash(relPath))
		if err := os.MkdirAll(filepath.Dir(fullPath), os.ModePerm); err != nil {
			return nil, err
		}
		return os.Create(fullPath)
	}
}

func cloudOpener(factory cloudwriter.CloudWriterFactory, bucket, prefix string) fileOpener {
	return func(relPath string) (io.WriteCloser, error) {
		w, err := factory.NewWriter(bucket, path.Join(prefix, relPath))
		if err != nil {
			return nil, fmt.Errorf("failed to create cloud file writer: %w", err)
		}
		return w, nil
	}
}

// decodeEvent parses a message and returns the hourly partition it belongs to.
// The timestamp field may be unix seconds or an RFC 3339 string.
func decodeEvent(msg []byte) (map[string]interface{}, string, error) {
	var event map[string]interface{}
	if err := json.Unmarshal(msg, &event); err != nil {
		return nil, "", err
	}

	var eventTime time.Time
	switch ts := event["timestamp"].(type) {
	case float64:
		eventTime = time.Unix(int64(ts), 0).UTC()
	case string:
		t, err := time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return nil, "", fmt.Errorf("invalid timestamp %q: %w", ts, err)
		}
		eventTime = t.UTC()
	default:
		return nil, "", fmt.Errorf("invalid timestamp")
	}

	year, month, day := eventTime.Date()
	partition := fmt.Sprintf("year=%d/month=%02d/day=%02d/hour=%02d", year, month, day, eventTime.Hour())
	return event, partition, nil
}
