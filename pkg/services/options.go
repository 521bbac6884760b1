package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/Zachary0hill/ZZMEDIA-DASHBOARD-sub000/pkg/eventbus"
	"github.com/Zachary0hill/ZZMEDIA-DASHBOARD-sub000/pkg/events"
	"github.com/Zachary0hill/ZZMEDIA-DASHBOARD-sub000/pkg/metrics"
	"github.com/Zachary0hill/ZZMEDIA-DASHBOARD-sub000/pkg/models"
	"github.com/Zachary0hill/ZZMEDIA-DASHBOARD-sub000/pkg/otelhelper"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

// TemplateCatalog resolves template ids to deep copies of their graphs.
type TemplateCatalog interface {
	Lookup(id string) (models.Graph, bool)
}

// Option configures the optional collaborators of a service.
type Option func(*dependencies)

type dependencies struct {
	templates TemplateCatalog
	bus       eventbus.EventBus
	tracer    trace.Tracer
	metrics   *metrics.Metrics
	now       func() time.Time
	newID     func() string
}

func newDependencies(opts []Option) dependencies {
	deps := dependencies{
		tracer: otelhelper.NoopTracer(),
		now:    func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
		newID:  newID,
	}

	for _, opt := range opts {
		opt(&deps)
	}

	return deps
}

// WithTemplates sets the catalog used by CreateWorkflow.
func WithTemplates(templates TemplateCatalog) Option {
	return func(d *dependencies) { d.templates = templates }
}

// WithEventBus publishes lifecycle events after successful writes.
func WithEventBus(bus eventbus.EventBus) Option {
	return func(d *dependencies) { d.bus = bus }
}

func WithTracer(tracer trace.Tracer) Option {
	return func(d *dependencies) { d.tracer = tracer }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(d *dependencies) { d.metrics = m }
}

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(d *dependencies) { d.now = now }
}

// newID returns a time ordered UUIDv7, falling back to v4 if the clock source fails.
func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}

	return id.String()
}

// publish sends an event best-effort: failures are logged, never returned.
func (d *dependencies) publish(ctx context.Context, logger *slog.Logger, workflowID string, event eventbus.Event) {
	if d.bus == nil {
		return
	}

	err := d.bus.Publish(ctx, workflowID, event)
	if err != nil {
		logger.WarnContext(ctx, "failed to publish event", "event_type", event.GetType(), "workflow_id", workflowID, "error", err)
	}
}

func (d *dependencies) baseEvent(eventType events.EventType, workflowID string) events.BaseEvent {
	id := ""
	if d.bus != nil {
		id = d.bus.GenerateID()
	}

	return events.NewBaseEvent(id, eventType, workflowID, d.now())
}
