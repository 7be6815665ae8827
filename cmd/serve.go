package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/chrisdamba/brewqueue/internal/events"
	"github.com/chrisdamba/brewqueue/internal/models"
	"github.com/chrisdamba/brewqueue/internal/producers"
	"github.com/chrisdamba/brewqueue/internal/queue"
	"github.com/chrisdamba/brewqueue/internal/repositories"
	"github.com/chrisdamba/brewqueue/internal/repositories/memory"
	"github.com/chrisdamba/brewqueue/internal/repositories/postgres"
	"github.com/chrisdamba/brewqueue/internal/simulator"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the live order queue until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		bindFlags(cmd.Flags(), serveFlagKeys)
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return serve(ctx, cfg, logger)
	},
}

func init() {
	flags := serveCmd.Flags()
	flags.String("storage", "memory", "Order store (memory or postgres)")
	flags.String("database-dsn", "", "Postgres connection string")
	flags.Bool("feed", false, "Submit synthetic walk-in orders")
	flags.Float64("feed-rate", 1.4, "Walk-in arrivals per minute")
	flags.Bool("auto-abandon", false, "Abandon waiting orders past their patience threshold on rebalance")
	flags.Bool("kafka-enabled", false, "Publish queue updates to Kafka")
	flags.String("kafka-broker-list", "localhost:9092", "Kafka broker list")
	flags.String("rabbitmq-url", "", "Publish queue updates to this RabbitMQ server")
}

// Keys are bound when the command runs; serve and simulate share some of them.
var serveFlagKeys = map[string]string{
	"storage":              "storage",
	"database.dsn":         "database-dsn",
	"feed_enabled":         "feed",
	"feed_rate_per_minute": "feed-rate",
	"auto_abandon":         "auto-abandon",
	"kafka_enabled":        "kafka-enabled",
	"kafka_broker_list":    "kafka-broker-list",
	"rabbitmq_url":         "rabbitmq-url",
}

func serve(ctx context.Context, cfg *models.Config, logger *slog.Logger) error {
	orders, baristas, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	sinks, err := openSinks(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		for _, s := range sinks {
			if err := s.Close(); err != nil {
				logger.Warn("failed to close sink", "error", err)
			}
		}
	}()

	broadcaster := events.NewBroadcaster(cfg.BroadcastBuffer, logger, sinks...)
	manager, err := queue.NewManager(ctx, orders, baristas, queue.Options{
		Logger:               logger,
		Publisher:            broadcaster,
		BaristaCount:         cfg.BaristaCount,
		AutoAbandon:          cfg.AutoAbandon,
		AutoCompleteInterval: cfg.AutoCompleteInterval,
		RebalanceInterval:    cfg.RebalanceInterval,
	})
	if err != nil {
		return fmt.Errorf("failed to start queue: %w", err)
	}

	updates, unsubscribe := broadcaster.Subscribe(cfg.BroadcastBuffer)
	defer unsubscribe()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return broadcaster.Run(ctx) })
	g.Go(func() error { return manager.Start(ctx) })
	g.Go(func() error {
		for u := range updates {
			logger.Info("queue update",
				"sequence", u.Sequence,
				"event", u.EventType,
				"active_orders", len(u.Orders))
		}
		return nil
	})
	if cfg.FeedEnabled {
		feeder := simulator.NewFeeder(manager, simulator.FeederOptions{
			Seed:          cfg.Seed,
			RatePerMinute: cfg.FeedRatePerMinute,
			RegularRatio:  cfg.FeedRegularRatio,
			Logger:        logger,
		})
		g.Go(func() error { return feeder.Run(ctx) })
	}

	logger.Info("brewqueue serving", "baristas", cfg.BaristaCount, "storage", cfg.Storage, "feed", cfg.FeedEnabled)
	err = g.Wait()

	stats := manager.Stats()
	logger.Info("shutting down",
		"total_orders", stats.TotalOrders,
		"completed_orders", stats.CompletedOrders,
		"avg_wait_seconds", stats.AvgWaitTimeSeconds,
		"timeout_rate", stats.TimeoutRate,
		"workload_balance", stats.WorkloadBalance,
		"dropped_updates", broadcaster.Dropped())
	return err
}

func openStore(ctx context.Context, cfg *models.Config, logger *slog.Logger) (repositories.OrderRepository, repositories.BaristaRepository, func(), error) {
	switch cfg.Storage {
	case "", "memory":
		return memory.NewOrderRepository(), memory.NewBaristaRepository(), func() {}, nil
	case "postgres":
		pool, err := postgres.NewPool(ctx, cfg.Database.DSN, cfg.Database.MaxConns)
		if err != nil {
			return nil, nil, nil, err
		}
		if err := postgres.EnsureSchema(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, nil, err
		}
		logger.Info("connected to postgres", "max_conns", cfg.Database.MaxConns)
		return postgres.NewOrderRepository(pool), postgres.NewBaristaRepository(pool), pool.Close, nil
	}
	return nil, nil, nil, fmt.Errorf("unsupported storage: %s", cfg.Storage)
}

func openSinks(cfg *models.Config, logger *slog.Logger) ([]events.Sink, error) {
	var sinks []events.Sink
	if cfg.KafkaEnabled {
		producer, err := producers.NewSaramaProducer(cfg)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, producer)
	}
	if cfg.RabbitMQURL != "" {
		publisher, err := producers.NewRabbitMQPublisher(cfg.RabbitMQURL, cfg.RabbitMQExchange)
		if err != nil {
			for _, s := range sinks {
				_ = s.Close()
			}
			return nil, err
		}
		logger.Info("publishing queue updates to rabbitmq", "exchange", cfg.RabbitMQExchange)
		sinks = append(sinks, publisher)
	}
	return sinks, nil
}
