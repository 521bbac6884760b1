package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/Zachary0hill/ZZMEDIA-DASHBOARD-sub000/pkg/events"
	"github.com/Zachary0hill/ZZMEDIA-DASHBOARD-sub000/pkg/models"
	"github.com/Zachary0hill/ZZMEDIA-DASHBOARD-sub000/pkg/otelhelper"
	"github.com/Zachary0hill/ZZMEDIA-DASHBOARD-sub000/pkg/persistence"
	"go.opentelemetry.io/otel/attribute"
)

// Run records run attempts. It does not execute graphs: a started run finishes immediately.
type Run struct {
	dependencies

	persistence persistence.Persistence
	logger      *slog.Logger
}

// NewRun creates a new run service.
func NewRun(persistence persistence.Persistence, logger *slog.Logger, opts ...Option) *Run {
	return &Run{
		dependencies: newDependencies(opts),
		persistence:  persistence,
		logger:       logger.With("module", "run_service"),
	}
}

// StartRun records a running attempt at the workflow's current version and immediately
// moves it to succeeded. No record is written for an unknown workflow.
func (r *Run) StartRun(ctx context.Context, workflowID string) (*models.ExecutionRecord, error) {
	ctx, span := otelhelper.StartSpan(ctx, r.tracer, "run.start",
		attribute.String(otelhelper.WorkflowIDKey, workflowID),
	)
	defer span.End()

	workflow, err := r.persistence.WorkflowRepository().GetByID(ctx, workflowID)
	if err != nil {
		return nil, storeError(ctx, r.logger, "StartRun", err)
	}

	record := &models.ExecutionRecord{
		ID:         r.newID(),
		WorkflowID: workflow.ID,
		Version:    workflow.Version,
		Status:     models.ExecutionStatusRunning,
		StartedAt:  r.now(),
	}

	span.SetAttributes(attribute.String(otelhelper.RunIDKey, record.ID))

	err = r.persistence.ExecutionRepository().Create(ctx, record)
	if err != nil {
		otelhelper.SetError(span, err)
		r.metrics.StoreError("StartRun")

		return nil, storeError(ctx, r.logger, "StartRun", err)
	}

	r.publish(ctx, r.logger, workflow.ID, events.RunStarted{
		BaseEvent: r.baseEvent(events.RunStartedEvent, workflow.ID),
		RunID:     record.ID,
		Version:   record.Version,
	})

	record.Finish(models.ExecutionStatusSucceeded, r.now())

	err = r.persistence.ExecutionRepository().Update(ctx, record)
	if err != nil {
		otelhelper.SetError(span, err)
		r.metrics.StoreError("FinishRun")

		return nil, storeError(ctx, r.logger, "FinishRun", err)
	}

	r.metrics.RunFinished(string(record.Status), time.Duration(*record.DurationMs)*time.Millisecond)
	r.logger.InfoContext(ctx, "run finished", "run_id", record.ID, "workflow_id", workflow.ID, "version", record.Version, "status", record.Status)

	r.publish(ctx, r.logger, workflow.ID, events.RunFinished{
		BaseEvent:  r.baseEvent(events.RunFinishedEvent, workflow.ID),
		RunID:      record.ID,
		Version:    record.Version,
		Status:     record.Status,
		DurationMs: *record.DurationMs,
	})

	return record, nil
}

// GetRun returns one execution record.
func (r *Run) GetRun(ctx context.Context, runID string) (*models.ExecutionRecord, error) {
	ctx, span := otelhelper.StartSpan(ctx, r.tracer, "run.get",
		attribute.String(otelhelper.RunIDKey, runID),
	)
	defer span.End()

	record, err := r.persistence.ExecutionRepository().GetByID(ctx, runID)
	if err != nil {
		return nil, storeError(ctx, r.logger, "GetRun", err)
	}

	return record, nil
}

// ListRuns returns the newest runs of a workflow first. An unknown workflow is NotFound;
// other store failures yield an empty list.
func (r *Run) ListRuns(ctx context.Context, workflowID string, limit int) ([]*models.ExecutionRecord, error) {
	ctx, span := otelhelper.StartSpan(ctx, r.tracer, "run.list",
		attribute.String(otelhelper.WorkflowIDKey, workflowID),
	)
	defer span.End()

	_, err := r.persistence.WorkflowRepository().GetByID(ctx, workflowID)
	if err != nil {
		if persistence.IsNotFound(err) {
			return nil, err
		}

		r.metrics.StoreError("ListRuns")
		r.logger.WarnContext(ctx, "failed to load workflow for run listing", "workflow_id", workflowID, "error", err)

		return []*models.ExecutionRecord{}, nil
	}

	records, err := r.persistence.ExecutionRepository().ListByWorkflow(ctx, workflowID, persistence.ClampLimit(limit))
	if err != nil {
		otelhelper.SetError(span, err)
		r.metrics.StoreError("ListRuns")
		r.logger.WarnContext(ctx, "failed to list runs", "workflow_id", workflowID, "error", err)

		return []*models.ExecutionRecord{}, nil
	}

	return records, nil
}
