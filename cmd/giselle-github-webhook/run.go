package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/giselles-ai/giselle-sub003/pkg/channels/kafka"
	"github.com/giselles-ai/giselle-sub003/pkg/cmd"
	"github.com/giselles-ai/giselle-sub003/pkg/dispatcher"
	"github.com/giselles-ai/giselle-sub003/pkg/engine/remote"
	"github.com/giselles-ai/giselle-sub003/pkg/eventbus"
	"github.com/giselles-ai/giselle-sub003/pkg/events"
	"github.com/giselles-ai/giselle-sub003/pkg/github/event"
	"github.com/giselles-ai/giselle-sub003/pkg/integration"
	"github.com/giselles-ai/giselle-sub003/pkg/log"
	"github.com/giselles-ai/giselle-sub003/pkg/models"
	"github.com/giselles-ai/giselle-sub003/pkg/otelhelper"
	"github.com/giselles-ai/giselle-sub003/pkg/run"
	"github.com/giselles-ai/giselle-sub003/pkg/trigger"
	"github.com/giselles-ai/giselle-sub003/pkg/vcs/githubapp"
	"github.com/giselles-ai/giselle-sub003/pkg/web"
	"github.com/giselles-ai/giselle-sub003/pkg/workspace"
	cli "github.com/urfave/cli/v3"
)

const defaultPort = 8080

func RunCommand() *cli.Command {
	return &cli.Command{
		Name:    "run",
		Aliases: []string{"r"},
		Usage:   "Serve the webhook endpoint and dispatch deliveries to flow triggers",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to serve the webhook endpoint on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
			storageFlag(),
			&cli.StringFlag{
				Name:     "webhook-secret",
				Usage:    "Secret GitHub signs deliveries with",
				Required: true,
				Sources:  cli.EnvVars("GITHUB_WEBHOOK_SECRET"),
			},
			&cli.Int64Flag{
				Name:     "app-id",
				Usage:    "GitHub App id",
				Required: true,
				Sources:  cli.EnvVars("GITHUB_APP_ID"),
			},
			&cli.StringFlag{
				Name:     "private-key-file",
				Usage:    "Path to the GitHub App private key (PEM)",
				Required: true,
				Sources:  cli.EnvVars("GITHUB_APP_PRIVATE_KEY_FILE"),
			},
			&cli.StringFlag{
				Name:    "github-url",
				Usage:   "GitHub Enterprise base URL, empty for github.com",
				Sources: cli.EnvVars("GITHUB_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus type (gochannel, kafka)",
				Value:   "gochannel",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:    "kafka-brokers",
				Usage:   "Comma-separated Kafka brokers",
				Sources: cli.EnvVars("KAFKA_BROKERS"),
			},
			&cli.DurationFlag{
				Name:    "run-timeout",
				Usage:   "Upper bound for a single flow run, 0 for none",
				Sources: cli.EnvVars("RUN_TIMEOUT"),
			},
			&cli.BoolFlag{
				Name:    "tracing",
				Usage:   "Export traces over OTLP/HTTP",
				Sources: cli.EnvVars("OTEL_ENABLED"),
			},
			logLevelFlag(),
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			logger := log.WithModule(serviceName)

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			if command.Bool("tracing") {
				tracerProvider, err := otelhelper.InitTracerProvider(ctx, serviceName)
				if err != nil {
					return fmt.Errorf("failed to initialize tracer: %w", err)
				}

				defer func() {
					if err := tracerProvider.Shutdown(context.WithoutCancel(ctx)); err != nil {
						logger.Error("Failed to shutdown tracer provider", "error", err)
					}
				}()
			}

			privateKey, err := os.ReadFile(command.String("private-key-file"))
			if err != nil {
				return fmt.Errorf("failed to read GitHub App private key: %w", err)
			}

			logger.InfoContext(ctx, "Initializing GitHub webhook service")

			store, err := cmd.NewPersistence(ctx, logger, command.StringSlice("storage"))
			if err != nil {
				return err
			}

			defer func() {
				if err := store.Close(context.WithoutCancel(ctx)); err != nil {
					logger.Error("Failed to close persistence", "error", err)
				}
			}()

			bus, err := cmd.NewEventBus(command.String("event-bus"), kafka.ParseBrokers(command.String("kafka-brokers")), logger)
			if err != nil {
				return err
			}

			defer func() {
				if err := bus.Close(); err != nil {
					logger.Error("Failed to close event bus", "error", err)
				}
			}()

			// In-flight runs keep receiving engine callbacks after shutdown starts.
			engineCtx, stopEngine := context.WithCancel(context.WithoutCancel(ctx))
			defer stopEngine()

			actEngine := remote.New(bus, logger)
			if err := actEngine.Start(engineCtx); err != nil {
				return fmt.Errorf("failed to start engine adapter: %w", err)
			}

			var factoryOpts []githubapp.FactoryOption
			if baseURL := command.String("github-url"); baseURL != "" {
				factoryOpts = append(factoryOpts, githubapp.WithBaseURL(baseURL))
			}

			coordinator := run.NewCoordinator(
				actEngine,
				workspace.NewStore(store),
				githubapp.NewClientFactory(command.Int64("app-id"), privateKey, factoryOpts...),
				logger,
			)

			d, err := dispatcher.New(
				integration.NewResolver(store),
				trigger.NewRepository(store),
				boundedRunner{runner: coordinator, timeout: command.Duration("run-timeout")},
				logger,
			)
			if err != nil {
				return err
			}

			if err := consumeDeliveries(ctx, bus, d); err != nil {
				return err
			}

			server := web.NewServer(
				web.NewWebhookHandler([]byte(command.String("webhook-secret")), bus, logger),
				store.HealthCheck,
				logger,
			)

			logger.InfoContext(ctx, "Listening for GitHub deliveries", "port", command.Int("port"))

			if err := server.Run(ctx, command.Int("port")); err != nil {
				logger.Error("HTTP server stopped", "error", err)
			}

			logger.Info("Waiting for in-flight runs")
			d.Wait()

			return nil
		},
	}
}

// consumeDeliveries hands every queued delivery to the dispatcher without
// waiting for its runs.
func consumeDeliveries(ctx context.Context, bus eventbus.EventSubscriber, d *dispatcher.Dispatcher) error {
	err := bus.Handle(events.DeliveryReceivedEvent, func(ctx context.Context, msg any) error {
		received, ok := msg.(*events.DeliveryReceived)
		if !ok || received.Delivery == nil {
			return nil
		}

		d.Enqueue(ctx, received.Delivery)

		return nil
	})
	if err != nil {
		return err
	}

	return bus.Subscribe(ctx, events.DeliveriesTopic)
}

// boundedRunner caps how long a run may wait on the engine when a timeout is set.
type boundedRunner struct {
	runner  dispatcher.Runner
	timeout time.Duration
}

func (b boundedRunner) Run(ctx context.Context, flowTrigger *models.FlowTrigger, ev *event.WebhookEvent, result models.EventHandlerResult) error {
	if b.timeout <= 0 {
		return b.runner.Run(ctx, flowTrigger, ev, result)
	}

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	return b.runner.Run(ctx, flowTrigger, ev, result)
}
