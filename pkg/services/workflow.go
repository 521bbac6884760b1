package services

import (
	"context"
	"log/slog"
	"strings"

	"github.com/Zachary0hill/ZZMEDIA-DASHBOARD-sub000/pkg/events"
	"github.com/Zachary0hill/ZZMEDIA-DASHBOARD-sub000/pkg/models"
	"github.com/Zachary0hill/ZZMEDIA-DASHBOARD-sub000/pkg/otelhelper"
	"github.com/Zachary0hill/ZZMEDIA-DASHBOARD-sub000/pkg/persistence"
	"go.opentelemetry.io/otel/attribute"
)

// maxAppendAttempts bounds the compare-and-set retries of AppendVersion.
const maxAppendAttempts = 10

var (
	// ErrWorkflowNotFound is returned when a workflow is not found.
	ErrWorkflowNotFound = persistence.ErrWorkflowNotFound
)

type Workflow struct {
	dependencies

	persistence persistence.Persistence
	logger      *slog.Logger
}

// NewWorkflow creates a new workflow service.
func NewWorkflow(persistence persistence.Persistence, logger *slog.Logger, opts ...Option) *Workflow {
	return &Workflow{
		dependencies: newDependencies(opts),
		persistence:  persistence,
		logger:       logger.With("module", "workflow_service"),
	}
}

// HealthCheck checks the health of the persistence layer.
func (w *Workflow) HealthCheck(ctx context.Context) (string, bool) {
	if w.persistence == nil {
		return "Persistence layer not initialized", false
	}

	err := w.persistence.HealthCheck(ctx)
	if err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

// CreateWorkflowRequest holds the inputs of CreateWorkflow. A known TemplateID wins over Graph.
type CreateWorkflowRequest struct {
	Name        string
	Description string
	TemplateID  string
	Graph       *models.Graph
}

// WorkflowDetails is a workflow with its latest version, nil when the version could not be loaded.
type WorkflowDetails struct {
	Workflow *models.Workflow `json:"workflow"`
	Version  *models.Version  `json:"version"`
}

// UpdateWorkflowRequest lists the metadata fields to change. Nil fields are left alone.
type UpdateWorkflowRequest struct {
	Name        *string
	Description *string
}

// AppendVersionResult is the stored version plus integrity warnings about its graph.
type AppendVersionResult struct {
	Version  *models.Version
	Warnings []string
}

// Create stores a new workflow at version 1 together with its first snapshot.
func (w *Workflow) Create(ctx context.Context, req CreateWorkflowRequest) (*models.Workflow, *models.Version, error) {
	ctx, span := otelhelper.StartSpan(ctx, w.tracer, "workflow.create",
		attribute.String(otelhelper.TemplateIDKey, req.TemplateID),
	)
	defer span.End()

	graph, err := w.initialGraph(ctx, req)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, nil, err
	}

	checksum, err := graph.Checksum()
	if err != nil {
		return nil, nil, NewValidationError("CreateWorkflow", "graph is not serializable", ErrInvalidGraph)
	}

	now := w.now()
	name := models.WorkflowName(req.Name)

	workflow := &models.Workflow{
		ID:          w.newID(),
		Name:        name,
		Slug:        models.Slugify(name),
		Description: strings.TrimSpace(req.Description),
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	initial := &models.Version{
		ID:         w.newID(),
		WorkflowID: workflow.ID,
		Version:    1,
		Graph:      graph,
		Checksum:   checksum,
		CreatedAt:  now,
	}

	span.SetAttributes(attribute.String(otelhelper.WorkflowIDKey, workflow.ID))

	err = w.persistence.WorkflowRepository().Create(ctx, workflow, initial)
	if err != nil {
		otelhelper.SetError(span, err)
		w.metrics.StoreError("CreateWorkflow")

		return nil, nil, storeError(ctx, w.logger, "CreateWorkflow", err)
	}

	w.metrics.WorkflowCreated()
	w.logger.InfoContext(ctx, "workflow created", "workflow_id", workflow.ID, "slug", workflow.Slug, "template_id", req.TemplateID)

	w.publish(ctx, w.logger, workflow.ID, events.WorkflowCreated{
		BaseEvent:  w.baseEvent(events.WorkflowCreatedEvent, workflow.ID),
		Name:       workflow.Name,
		Slug:       workflow.Slug,
		TemplateID: req.TemplateID,
	})

	return workflow, initial, nil
}

func (w *Workflow) initialGraph(ctx context.Context, req CreateWorkflowRequest) (models.Graph, error) {
	if req.TemplateID != "" {
		if w.templates != nil {
			if graph, ok := w.templates.Lookup(req.TemplateID); ok {
				return graph, nil
			}
		}

		w.logger.DebugContext(ctx, "unknown template, seeding empty graph", "template_id", req.TemplateID)
	}

	if req.Graph == nil {
		return models.EmptyGraph(), nil
	}

	graph, err := req.Graph.Normalize()
	if err != nil {
		return models.Graph{}, NewValidationError("CreateWorkflow", err.Error(), err)
	}

	return graph, nil
}

// Get returns the workflow and its latest version. A failure loading the version is
// logged and reported as a nil version.
func (w *Workflow) Get(ctx context.Context, workflowID string) (*WorkflowDetails, error) {
	ctx, span := otelhelper.StartSpan(ctx, w.tracer, "workflow.get",
		attribute.String(otelhelper.WorkflowIDKey, workflowID),
	)
	defer span.End()

	workflow, err := w.persistence.WorkflowRepository().GetByID(ctx, workflowID)
	if err != nil {
		if !persistence.IsNotFound(err) {
			otelhelper.SetError(span, err)
			w.metrics.StoreError("GetWorkflow")
		}

		return nil, storeError(ctx, w.logger, "GetWorkflow", err)
	}

	latest, err := w.persistence.VersionRepository().Latest(ctx, workflowID)
	if err != nil {
		w.logger.WarnContext(ctx, "failed to load latest version", "workflow_id", workflowID, "error", err)
		w.metrics.StoreError("LatestVersion")

		latest = nil
	}

	return &WorkflowDetails{Workflow: workflow, Version: latest}, nil
}

// List returns workflow metadata, most recently updated first. Store failures yield an empty list.
func (w *Workflow) List(ctx context.Context, limit int) []*models.Workflow {
	ctx, span := otelhelper.StartSpan(ctx, w.tracer, "workflow.list")
	defer span.End()

	workflows, err := w.persistence.WorkflowRepository().List(ctx, persistence.ClampLimit(limit))
	if err != nil {
		otelhelper.SetError(span, err)
		w.metrics.StoreError("ListWorkflows")
		w.logger.WarnContext(ctx, "failed to list workflows", "error", err)

		return []*models.Workflow{}
	}

	return workflows
}

// UpdateMetadata changes name and/or description. Blank names are ignored, the slug and
// version pointer never change, and a request without changes returns the current workflow.
func (w *Workflow) UpdateMetadata(ctx context.Context, workflowID string, req UpdateWorkflowRequest) (*models.Workflow, error) {
	ctx, span := otelhelper.StartSpan(ctx, w.tracer, "workflow.update_metadata",
		attribute.String(otelhelper.WorkflowIDKey, workflowID),
	)
	defer span.End()

	workflow, err := w.persistence.WorkflowRepository().GetByID(ctx, workflowID)
	if err != nil {
		return nil, storeError(ctx, w.logger, "UpdateWorkflowMetadata", err)
	}

	changed := false

	if req.Name != nil {
		if name := strings.TrimSpace(*req.Name); name != "" {
			workflow.Name = name
			changed = true
		}
	}

	if req.Description != nil {
		workflow.Description = strings.TrimSpace(*req.Description)
		changed = true
	}

	if !changed {
		return workflow, nil
	}

	workflow.UpdatedAt = w.now()

	err = w.persistence.WorkflowRepository().UpdateMetadata(ctx, workflow)
	if err != nil {
		otelhelper.SetError(span, err)
		w.metrics.StoreError("UpdateWorkflowMetadata")

		return nil, storeError(ctx, w.logger, "UpdateWorkflowMetadata", err)
	}

	w.publish(ctx, w.logger, workflow.ID, events.WorkflowUpdated{
		BaseEvent:   w.baseEvent(events.WorkflowUpdatedEvent, workflow.ID),
		Name:        workflow.Name,
		Description: workflow.Description,
	})

	return workflow, nil
}

// AppendVersion normalizes the graph and stores it as version current+1. Lost races against
// concurrent appends are retried up to maxAppendAttempts times.
func (w *Workflow) AppendVersion(ctx context.Context, workflowID string, graph models.Graph, note string) (*AppendVersionResult, error) {
	ctx, span := otelhelper.StartSpan(ctx, w.tracer, "workflow.append_version",
		attribute.String(otelhelper.WorkflowIDKey, workflowID),
	)
	defer span.End()

	normalized, err := graph.Normalize()
	if err != nil {
		return nil, NewValidationError("AppendVersion", err.Error(), err)
	}

	checksum, err := normalized.Checksum()
	if err != nil {
		return nil, NewValidationError("AppendVersion", "graph is not serializable", ErrInvalidGraph)
	}

	var version *models.Version

	for attempt := 1; attempt <= maxAppendAttempts; attempt++ {
		version = &models.Version{
			ID:         w.newID(),
			WorkflowID: workflowID,
			Graph:      normalized,
			Note:       strings.TrimSpace(note),
			Checksum:   checksum,
			CreatedAt:  w.now(),
		}

		err = w.persistence.VersionRepository().Append(ctx, version)
		if err == nil {
			break
		}

		if !persistence.IsVersionConflict(err) {
			if !persistence.IsNotFound(err) {
				otelhelper.SetError(span, err)
				w.metrics.StoreError("AppendVersion")
			}

			return nil, storeError(ctx, w.logger, "AppendVersion", err)
		}

		w.metrics.VersionConflict()
		w.logger.DebugContext(ctx, "version conflict, retrying append", "workflow_id", workflowID, "attempt", attempt)
	}

	if err != nil {
		otelhelper.SetError(span, err, attribute.Int(otelhelper.AttemptKey, maxAppendAttempts))

		return nil, &ServiceError{
			Op:      "AppendVersion",
			Code:    CodeConflict,
			Message: "too many concurrent appends, try again",
			Err:     err,
		}
	}

	span.SetAttributes(attribute.Int(otelhelper.WorkflowVersionKey, version.Version))
	w.metrics.VersionAppended()

	w.publish(ctx, w.logger, workflowID, events.VersionAppended{
		BaseEvent: w.baseEvent(events.VersionAppendedEvent, workflowID),
		Version:   version.Version,
		Checksum:  version.Checksum,
		Note:      version.Note,
		NodeCount: len(version.Graph.Nodes),
		EdgeCount: len(version.Graph.Edges),
	})

	return &AppendVersionResult{Version: version, Warnings: normalized.Issues()}, nil
}

// ListVersions returns version summaries, newest first. An unknown workflow is NotFound;
// other store failures yield an empty list.
func (w *Workflow) ListVersions(ctx context.Context, workflowID string) ([]*models.VersionSummary, error) {
	ctx, span := otelhelper.StartSpan(ctx, w.tracer, "workflow.list_versions",
		attribute.String(otelhelper.WorkflowIDKey, workflowID),
	)
	defer span.End()

	_, err := w.persistence.WorkflowRepository().GetByID(ctx, workflowID)
	if err != nil {
		if persistence.IsNotFound(err) {
			return nil, err
		}

		w.metrics.StoreError("ListVersions")
		w.logger.WarnContext(ctx, "failed to load workflow for version listing", "workflow_id", workflowID, "error", err)

		return []*models.VersionSummary{}, nil
	}

	summaries, err := w.persistence.VersionRepository().List(ctx, workflowID)
	if err != nil {
		otelhelper.SetError(span, err)
		w.metrics.StoreError("ListVersions")
		w.logger.WarnContext(ctx, "failed to list versions", "workflow_id", workflowID, "error", err)

		return []*models.VersionSummary{}, nil
	}

	return summaries, nil
}

// GetVersion returns one full version of a workflow.
func (w *Workflow) GetVersion(ctx context.Context, workflowID string, number int) (*models.Version, error) {
	ctx, span := otelhelper.StartSpan(ctx, w.tracer, "workflow.get_version",
		attribute.String(otelhelper.WorkflowIDKey, workflowID),
		attribute.Int(otelhelper.WorkflowVersionKey, number),
	)
	defer span.End()

	_, err := w.persistence.WorkflowRepository().GetByID(ctx, workflowID)
	if err != nil {
		return nil, storeError(ctx, w.logger, "GetVersion", err)
	}

	if number < 1 {
		return nil, persistence.NewVersionError("GetVersion", workflowID, number, persistence.ErrVersionNotFound)
	}

	version, err := w.persistence.VersionRepository().GetByNumber(ctx, workflowID, number)
	if err != nil {
		return nil, storeError(ctx, w.logger, "GetVersion", err)
	}

	return version, nil
}
