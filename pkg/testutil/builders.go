// Package testutil provides test data builders and utilities for testing.
package testutil

import (
	"time"

	"github.com/Zachary0hill/ZZMEDIA-DASHBOARD-sub000/pkg/models"
	"github.com/google/uuid"
)

// Now returns the current UTC time truncated to what every store round-trips.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// CreateTestNode creates a test Node with default values that can be overridden.
func CreateTestNode(overrides ...func(*models.Node)) models.Node {
	node := models.Node{
		ID:       uuid.New().String(),
		Type:     "http.request",
		Label:    "Test Node",
		Position: models.Position{X: 100, Y: 200},
		Config:   map[string]any{"url": "https://example.com", "method": "GET"},
	}

	for _, override := range overrides {
		override(&node)
	}

	return node
}

// WithTriggerNode configures the node as a manual trigger.
func WithTriggerNode() func(*models.Node) {
	return func(n *models.Node) {
		n.Type = "trigger.manual"
		n.Label = "Start"
		n.Config = map[string]any{}
	}
}

// WithNodeID sets the node ID.
func WithNodeID(id string) func(*models.Node) {
	return func(n *models.Node) {
		n.ID = id
	}
}

// CreateTestGraph builds a trigger -> action graph with one conditional edge.
func CreateTestGraph() models.Graph {
	trigger := CreateTestNode(WithTriggerNode(), WithNodeID("n1"))
	action := CreateTestNode(WithNodeID("n2"))

	return models.Graph{
		Nodes: []models.Node{trigger, action},
		Edges: []models.Edge{{
			ID:           "e1",
			Source:       trigger.ID,
			Target:       action.ID,
			SourceHandle: "out",
			TargetHandle: "in",
			Condition:    map[string]any{"equals": "yes"},
		}},
	}
}

// CreateTestWorkflow returns a workflow at version 1 and its initial snapshot.
func CreateTestWorkflow(name string, graph models.Graph) (*models.Workflow, *models.Version) {
	now := Now()
	workflow := &models.Workflow{
		ID:          uuid.New().String(),
		Name:        name,
		Slug:        models.Slugify(name),
		Description: "Created by tests",
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	checksum, _ := graph.Checksum()

	version := &models.Version{
		ID:         uuid.New().String(),
		WorkflowID: workflow.ID,
		Version:    1,
		Graph:      graph,
		Note:       "initial",
		Checksum:   checksum,
		CreatedAt:  now,
	}

	return workflow, version
}

// CreateTestVersion returns an unnumbered snapshot ready to be appended.
func CreateTestVersion(workflowID string, graph models.Graph, note string) *models.Version {
	checksum, _ := graph.Checksum()

	return &models.Version{
		ID:         uuid.New().String(),
		WorkflowID: workflowID,
		Graph:      graph,
		Note:       note,
		Checksum:   checksum,
		CreatedAt:  Now(),
	}
}
