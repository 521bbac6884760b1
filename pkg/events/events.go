// Package events defines event types and structures for workflow lifecycle notifications.
package events

import (
	"time"

	"github.com/Zachary0hill/ZZMEDIA-DASHBOARD-sub000/pkg/models"
)

type EventType string

// Topic carries every workflow lifecycle event.
const Topic = "dashboard.workflow.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	WorkflowCreatedEvent EventType = "workflow.created"
	WorkflowUpdatedEvent EventType = "workflow.updated"
	VersionAppendedEvent EventType = "workflow.version.appended"
	RunStartedEvent      EventType = "workflow.run.started"
	RunFinishedEvent     EventType = "workflow.run.finished"
)

type BaseEvent struct {
	ID         string    `json:"id"`
	Type       EventType `json:"type"`
	Timestamp  time.Time `json:"timestamp"`
	WorkflowID string    `json:"workflow_id"`
}

// NewBaseEvent stamps an event of the given type for a workflow.
func NewBaseEvent(id string, eventType EventType, workflowID string, timestamp time.Time) BaseEvent {
	return BaseEvent{
		ID:         id,
		Type:       eventType,
		Timestamp:  timestamp,
		WorkflowID: workflowID,
	}
}

type WorkflowCreated struct {
	BaseEvent

	Name       string `json:"name"`
	Slug       string `json:"slug"`
	TemplateID string `json:"template_id,omitempty"`
}

func (w WorkflowCreated) GetType() EventType {
	return WorkflowCreatedEvent
}

type WorkflowUpdated struct {
	BaseEvent

	Name        string `json:"name"`
	Description string `json:"description"`
}

func (w WorkflowUpdated) GetType() EventType {
	return WorkflowUpdatedEvent
}

type VersionAppended struct {
	BaseEvent

	Version   int    `json:"version"`
	Checksum  string `json:"checksum"`
	Note      string `json:"note,omitempty"`
	NodeCount int    `json:"node_count"`
	EdgeCount int    `json:"edge_count"`
}

func (v VersionAppended) GetType() EventType {
	return VersionAppendedEvent
}

type RunStarted struct {
	BaseEvent

	RunID   string `json:"run_id"`
	Version int    `json:"version"`
}

func (r RunStarted) GetType() EventType {
	return RunStartedEvent
}

type RunFinished struct {
	BaseEvent

	RunID      string                 `json:"run_id"`
	Version    int                    `json:"version"`
	Status     models.ExecutionStatus `json:"status"`
	DurationMs int64                  `json:"duration_ms"`
}

func (r RunFinished) GetType() EventType {
	return RunFinishedEvent
}
