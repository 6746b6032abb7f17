package main

import (
	"context"
	"os"

	"github.com/n8njson/directory/pkg/cmd"
	"github.com/n8njson/directory/pkg/log"
	"github.com/n8njson/directory/pkg/newsletter"
	"github.com/n8njson/directory/pkg/otelhelper"
	"github.com/n8njson/directory/pkg/services"
	cli "github.com/urfave/cli/v3"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultPort    = 3000
	defaultBaseURL = "https://n8njson.com"
)

func main() {
	command := &cli.Command{
		Name:                  "directory-api",
		Usage:                 "Serve the n8n workflow template directory",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Database connection URL for persistence (postgres://, file://, memory://)",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "redis-url",
				Usage:   "Redis URL for caching filter options; empty disables caching",
				Sources: cli.EnvVars("REDIS_URL"),
			},
			&cli.DurationFlag{
				Name:    "filter-cache-ttl",
				Usage:   "How long filter options stay cached in Redis",
				Value:   services.DefaultFilterOptionsTTL,
				Sources: cli.EnvVars("FILTER_CACHE_TTL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus type (kafka, gochannel, none)",
				Value:   "none",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:    "kafka-brokers",
				Usage:   "Comma separated Kafka brokers",
				Sources: cli.EnvVars("KAFKA_BROKERS"),
			},
			&cli.StringFlag{
				Name:    "beehiiv-api-key",
				Usage:   "Beehiiv API key for newsletter signups",
				Sources: cli.EnvVars("BEEHIIV_API_KEY"),
			},
			&cli.StringFlag{
				Name:    "beehiiv-publication-id",
				Usage:   "Beehiiv publication id for newsletter signups",
				Sources: cli.EnvVars("BEEHIIV_PUBLICATION_ID"),
			},
			&cli.StringFlag{
				Name:    "base-url",
				Usage:   "Public site URL used for canonical links and the sitemap",
				Value:   defaultBaseURL,
				Sources: cli.EnvVars("BASE_URL"),
			},
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
			&cli.BoolFlag{
				Name:    "tracing",
				Usage:   "Export traces over OTLP/HTTP",
				Sources: cli.EnvVars("TRACING_ENABLED"),
			},
		},
		Action: run,
	}

	err := command.Run(context.Background(), os.Args)
	if err != nil {
		panic(err)
	}
}

func run(ctx context.Context, command *cli.Command) error {
	log.Setup(command.String("log-level"), command.String("log-format"))

	logger := log.WithModule("api")

	logger.InfoContext(ctx, "Initializing directory API")

	var tracer trace.Tracer

	if command.Bool("tracing") {
		t, shutdown, err := otelhelper.NewTracer(ctx, "directory-api")
		if err != nil {
			return err
		}

		defer func() {
			if err := shutdown(context.Background()); err != nil {
				logger.ErrorContext(ctx, "Failed to shutdown tracer provider", "error", err)
			}
		}()

		tracer = t
	}

	persistence, err := cmd.NewPersistence(ctx, logger, command.String("database-url"))
	if err != nil {
		return err
	}

	defer func() {
		err := persistence.Close(ctx)
		if err != nil {
			logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
		}
	}()

	cache, err := cmd.NewCache(ctx, logger, command.String("redis-url"))
	if err != nil {
		return err
	}

	defer func() {
		if err := cache.Close(); err != nil {
			logger.ErrorContext(ctx, "Failed to close cache", "error", err)
		}
	}()

	eventBus, err := cmd.NewEventBus(command.String("event-bus"), command.String("kafka-brokers"), logger)
	if err != nil {
		return err
	}

	defer func() {
		if err := eventBus.Close(); err != nil {
			logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
		}
	}()

	subscriber := newsletter.NewClient(newsletter.Config{
		APIKey:        command.String("beehiiv-api-key"),
		PublicationID: command.String("beehiiv-publication-id"),
	}, logger)

	if !subscriber.Configured() {
		logger.WarnContext(ctx, "Beehiiv credentials missing, newsletter signups will fail")
	}

	api := NewAPI(
		logger,
		persistence,
		cache,
		eventBus,
		subscriber,
		tracer,
		command.String("base-url"),
	)

	api.catalog.WithCacheTTL(command.Duration("filter-cache-ttl"))

	if err := api.SubscribeCacheInvalidation(ctx); err != nil {
		return err
	}

	err = api.Start(command.Int("port"))
	if err != nil {
		logger.ErrorContext(ctx, "Failed to start directory API", "error", err)
	}

	return nil
}
