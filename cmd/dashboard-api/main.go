// Package main provides the dashboard workflow API server.
package main

import (
	"context"
	"os"

	"github.com/Zachary0hill/ZZMEDIA-DASHBOARD-sub000/pkg/cmd"
	"github.com/Zachary0hill/ZZMEDIA-DASHBOARD-sub000/pkg/log"
	"github.com/Zachary0hill/ZZMEDIA-DASHBOARD-sub000/pkg/otelhelper"
	"github.com/Zachary0hill/ZZMEDIA-DASHBOARD-sub000/pkg/templates"
	cli "github.com/urfave/cli/v3"
)

const (
	defaultPort = 9091
	serviceName = "dashboard-api"
)

func main() {
	command := &cli.Command{
		Name:                  serviceName,
		Usage:                 "Store, version and run dashboard workflows",
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
				Name:    "database-url",
				Usage:   "Persistence URL (file://, postgres://, sqlite://)",
				Value:   "file://./data",
				Sources: cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus type (memory, kafka)",
				Value:   "memory",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:    "kafka-brokers",
				Usage:   "Comma separated Kafka brokers",
				Value:   "localhost:9092",
				Sources: cli.EnvVars("KAFKA_BROKERS"),
			},
			&cli.StringFlag{
				Name:    "ui-state-url",
				Usage:   "UI state store URL (redis://, file://)",
				Value:   "file://./data",
				Sources: cli.EnvVars("UI_STATE_URL"),
			},
			&cli.StringFlag{
				Name:    "templates-file",
				Usage:   "YAML file replacing the built-in workflow templates",
				Sources: cli.EnvVars("TEMPLATES_FILE"),
			},
			&cli.BoolFlag{
				Name:    "tracing",
				Usage:   "Export traces over OTLP/HTTP",
				Sources: cli.EnvVars("OTEL_TRACING_ENABLED"),
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

	logger.InfoContext(ctx, "Initializing Dashboard API")

	tracer, shutdown, err := otelhelper.NewTracer(ctx, serviceName, command.Bool("tracing"))
	if err != nil {
		return err
	}

	defer func() {
		if err := shutdown(ctx); err != nil {
			logger.ErrorContext(ctx, "Failed to shutdown tracer provider", "error", err)
		}
	}()

	catalog, err := templates.Load(command.String("templates-file"))
	if err != nil {
		return err
	}

	persistence, err := cmd.NewPersistence(ctx, logger, command.String("database-url"))
	if err != nil {
		return err
	}

	defer func() {
		if err := persistence.Close(ctx); err != nil {
			logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
		}
	}()

	eventBus, err := cmd.NewEventBus(cmd.EventBusConfig{
		Provider:    command.String("event-bus"),
		Brokers:     command.String("kafka-brokers"),
		ServiceName: serviceName,
		OTELEnabled: command.Bool("tracing"),
	}, logger)
	if err != nil {
		return err
	}

	defer func() {
		if err := eventBus.Close(); err != nil {
			logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
		}
	}()

	uiStateStore, err := cmd.NewUIStateStore(ctx, command.String("ui-state-url"))
	if err != nil {
		return err
	}

	defer func() {
		if err := uiStateStore.Close(); err != nil {
			logger.ErrorContext(ctx, "Failed to close ui state store", "error", err)
		}
	}()

	api := NewAPI(logger, persistence, eventBus, catalog, uiStateStore, tracer)

	err = api.LogEvents(ctx)
	if err != nil {
		return err
	}

	err = api.Start(command.Int("port"))
	if err != nil {
		logger.ErrorContext(ctx, "Failed to start API server", "error", err)
	}

	return nil
}
