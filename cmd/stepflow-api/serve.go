package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/dukex/stepflow/pkg/cmd"
	"github.com/dukex/stepflow/pkg/log"
	"github.com/dukex/stepflow/pkg/otelhelper"
	"github.com/dukex/stepflow/pkg/services"
	cli "github.com/urfave/cli/v3"
)

const defaultPort = 9091

func databaseURLFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "database-url",
		Usage:    "Database connection URL (postgres://... or a file store directory)",
		Required: true,
		Sources:  cli.EnvVars("DATABASE_URL"),
	}
}

func redisURLFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "redis-url",
		Usage:   "Redis URL for the workflow view cache; empty disables caching",
		Sources: cli.EnvVars("REDIS_URL"),
	}
}

func logFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "Log level (debug, info, warn, error)",
			Value:   "info",
			Sources: cli.EnvVars("LOG_LEVEL"),
		},
		&cli.StringFlag{
			Name:    "log-format",
			Usage:   "Log format (text, json)",
			Value:   "text",
			Sources: cli.EnvVars("LOG_FORMAT"),
		},
	}
}

func NewServeCommand() *cli.Command {
	flags := []cli.Flag{
		&cli.IntFlag{
			Name:    "port",
			Aliases: []string{"p"},
			Usage:   "Port to run the API server on",
			Value:   defaultPort,
			Sources: cli.EnvVars("PORT"),
		},
		databaseURLFlag(),
		&cli.StringFlag{
			Name:    "event-bus",
			Usage:   "Event bus type (gochannel, kafka)",
			Value:   "gochannel",
			Sources: cli.EnvVars("EVENT_BUS_TYPE"),
		},
		&cli.StringFlag{
			Name:    "kafka-brokers",
			Usage:   "Comma separated Kafka brokers",
			Sources: cli.EnvVars("KAFKA_BROKERS"),
		},
		redisURLFlag(),
		&cli.DurationFlag{
			Name:    "view-cache-ttl",
			Usage:   "How long a cached workflow view lives",
			Value:   5 * time.Minute,
			Sources: cli.EnvVars("VIEW_CACHE_TTL"),
		},
		&cli.BoolFlag{
			Name:    "otel-enabled",
			Usage:   "Export traces over OTLP/HTTP",
			Sources: cli.EnvVars("OTEL_ENABLED"),
		},
	}

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start the API server",
		Flags:   append(flags, logFlags()...),
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"), command.String("log-format"))

			logger := log.WithModule("api")

			logger.InfoContext(ctx, "Initializing Stepflow API")

			ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if command.Bool("otel-enabled") {
				shutdown, err := otelhelper.Setup(ctx, "stepflow-api")
				if err != nil {
					return fmt.Errorf("failed to set up tracing: %w", err)
				}

				defer func() {
					if err := shutdown(context.Background()); err != nil {
						logger.ErrorContext(ctx, "Failed to shut down tracer provider", "error", err)
					}
				}()
			}

			persistence, err := cmd.NewPersistence(ctx, logger, command.String("database-url"))
			if err != nil {
				return err
			}

			defer func() {
				if err := persistence.Close(context.Background()); err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			eventBus, err := cmd.NewEventBus(
				command.String("event-bus"),
				cmd.ParseBrokers(command.String("kafka-brokers")),
				log.WithModule("eventbus"),
			)
			if err != nil {
				return err
			}

			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			viewCache, err := cmd.NewViewCache(ctx, command.String("redis-url"), command.Duration("view-cache-ttl"))
			if err != nil {
				return err
			}

			defer func() {
				if err := viewCache.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close view cache", "error", err)
				}
			}()

			api := NewAPI(
				logger,
				persistence,
				services.WithEventPublisher(eventBus),
				services.WithViewCache(viewCache),
				services.WithLogger(log.WithModule("services")),
			)

			return api.Start(ctx, eventBus, command.Int("port"))
		},
	}
}
