package main

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/Zachary0hill/ZZMEDIA-DASHBOARD-sub000/pkg/eventbus"
	"github.com/Zachary0hill/ZZMEDIA-DASHBOARD-sub000/pkg/events"
	"github.com/Zachary0hill/ZZMEDIA-DASHBOARD-sub000/pkg/metrics"
	"github.com/Zachary0hill/ZZMEDIA-DASHBOARD-sub000/pkg/otelhelper"
	"github.com/Zachary0hill/ZZMEDIA-DASHBOARD-sub000/pkg/persistence"
	"github.com/Zachary0hill/ZZMEDIA-DASHBOARD-sub000/pkg/services"
	"github.com/Zachary0hill/ZZMEDIA-DASHBOARD-sub000/pkg/templates"
	"github.com/Zachary0hill/ZZMEDIA-DASHBOARD-sub000/pkg/uistate"
	"github.com/Zachary0hill/ZZMEDIA-DASHBOARD-sub000/pkg/web"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/trace"
)

type API struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	eventBus    eventbus.EventBus
	templates   *templates.Catalog
	uiState     *uistate.Manager
	metrics     *metrics.Metrics
	tracer      trace.Tracer
	validate    *validator.Validate
}

func NewAPI(
	logger *slog.Logger,
	persistence persistence.Persistence,
	eventBus eventbus.EventBus,
	catalog *templates.Catalog,
	uiStateStore uistate.Store,
	tracer trace.Tracer,
) *API {
	if tracer == nil {
		tracer = otelhelper.NoopTracer()
	}

	return &API{
		logger:      logger,
		persistence: persistence,
		eventBus:    eventBus,
		templates:   catalog,
		uiState:     uistate.NewManager(uiStateStore, logger.With("module", "ui_state")),
		metrics:     metrics.New(),
		tracer:      tracer,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	opts := []services.Option{
		services.WithTemplates(a.templates),
		services.WithMetrics(a.metrics),
		services.WithTracer(a.tracer),
	}

	if a.eventBus != nil {
		opts = append(opts, services.WithEventBus(a.eventBus))
	}

	workflowService := services.NewWorkflow(a.persistence, a.logger, opts...)
	runService := services.NewRun(a.persistence, a.logger, opts...)

	handlers := web.NewAPIHandlers(a.logger, workflowService, runService, a.templates, a.uiState, a.validate)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))
	app.Use(web.RequestMetrics(a.metrics))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker(healthcheck.Config{
		Probe: func(c fiber.Ctx) bool {
			return a.persistence.HealthCheck(c.Context()) == nil
		},
	}))

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(a.metrics.Registry(), promhttp.HandlerOpts{})))

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Dashboard API")
	})

	handlers.Routes(app)

	return app
}

// LogEvents subscribes a debug logger to every workflow lifecycle event.
func (a *API) LogEvents(ctx context.Context) error {
	if a.eventBus == nil {
		return nil
	}

	eventTypes := []events.EventType{
		events.WorkflowCreatedEvent,
		events.WorkflowUpdatedEvent,
		events.VersionAppendedEvent,
		events.RunStartedEvent,
		events.RunFinishedEvent,
	}

	for _, eventType := range eventTypes {
		err := a.eventBus.Handle(eventType, func(ctx context.Context, event any) error {
			a.logger.DebugContext(ctx, "workflow event", "event_type", eventType, "event", event)

			return nil
		})
		if err != nil {
			return err
		}
	}

	return a.eventBus.Subscribe(ctx)
}

func (a *API) Start(port int) error {
	app := a.App()

	err := app.Listen(":" + strconv.Itoa(port))

	return err
}
