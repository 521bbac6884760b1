package models

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrInvalidGraph indicates a graph that cannot be normalized into a usable snapshot.
var ErrInvalidGraph = errors.New("invalid graph")

// GraphError describes the offending field of an invalid graph.
// Wraps ErrInvalidGraph for errors.Is() compatibility.
type GraphError struct {
	Field string
	Msg   string
}

func (e *GraphError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s %s", ErrInvalidGraph.Error(), e.Field, e.Msg)
	}

	return fmt.Sprintf("%s: %s", ErrInvalidGraph.Error(), e.Msg)
}

func (e *GraphError) Unwrap() error { return ErrInvalidGraph }

// Position holds canvas coordinates. Presentation data only.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Node is a typed unit of work. Type and Config are opaque to the store.
type Node struct {
	ID       string         `json:"id"`
	Type     string         `json:"type"`
	Label    string         `json:"label"`
	Position Position       `json:"position"`
	Config   map[string]any `json:"config"`
}

// Edge is a directed connection between two nodes of the same graph.
type Edge struct {
	ID           string `json:"id"`
	Source       string `json:"source"`
	Target       string `json:"target"`
	SourceHandle string `json:"sourceHandle,omitempty"`
	TargetHandle string `json:"targetHandle,omitempty"`
	Condition    any    `json:"condition,omitempty"`
}

// Graph is the node/edge value embedded in every version snapshot.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// EmptyGraph returns a graph with empty, non-nil node and edge slices.
func EmptyGraph() Graph {
	return Graph{Nodes: []Node{}, Edges: []Edge{}}
}

// Normalize returns a copy of the graph with defaults applied:
//   - missing node or edge slices become empty
//   - a missing node config becomes an empty map
//   - an edge without id gets "e-<source>-<target>"
//
// Nodes without id and edges without source or target have no sensible default
// and produce a GraphError. Caller order of nodes and edges is preserved.
func (g Graph) Normalize() (Graph, error) {
	normalized := Graph{
		Nodes: make([]Node, 0, len(g.Nodes)),
		Edges: make([]Edge, 0, len(g.Edges)),
	}

	for i, node := range g.Nodes {
		if strings.TrimSpace(node.ID) == "" {
			return Graph{}, &GraphError{Field: fmt.Sprintf("nodes[%d].id", i), Msg: "is required"}
		}

		if node.Config == nil {
			node.Config = map[string]any{}
		}

		normalized.Nodes = append(normalized.Nodes, node)
	}

	for i, edge := range g.Edges {
		if strings.TrimSpace(edge.Source) == "" {
			return Graph{}, &GraphError{Field: fmt.Sprintf("edges[%d].source", i), Msg: "is required"}
		}

		if strings.TrimSpace(edge.Target) == "" {
			return Graph{}, &GraphError{Field: fmt.Sprintf("edges[%d].target", i), Msg: "is required"}
		}

		if edge.ID == "" {
			edge.ID = "e-" + edge.Source + "-" + edge.Target
		}

		normalized.Edges = append(normalized.Edges, edge)
	}

	return normalized, nil
}

// Clone returns a deep copy of the graph. Config and condition values come back as the
// canonical JSON types (float64, string, bool, []any, map[string]any).
func (g Graph) Clone() (Graph, error) {
	data, err := json.Marshal(g)
	if err != nil {
		return Graph{}, fmt.Errorf("failed to marshal graph: %w", err)
	}

	var clone Graph

	err = json.Unmarshal(data, &clone)
	if err != nil {
		return Graph{}, fmt.Errorf("failed to unmarshal graph: %w", err)
	}

	if clone.Nodes == nil {
		clone.Nodes = []Node{}
	}

	if clone.Edges == nil {
		clone.Edges = []Edge{}
	}

	return clone, nil
}

// Issues reports integrity problems the store tolerates but that make the graph
// meaningless to a runner: duplicate ids and edges pointing at unknown nodes.
func (g Graph) Issues() []string {
	var issues []string

	nodeIDs := make(map[string]bool, len(g.Nodes))

	for _, node := range g.Nodes {
		if nodeIDs[node.ID] {
			issues = append(issues, fmt.Sprintf("duplicate node id %q", node.ID))
		}

		nodeIDs[node.ID] = true
	}

	edgeIDs := make(map[string]bool, len(g.Edges))

	for _, edge := range g.Edges {
		if edgeIDs[edge.ID] {
			issues = append(issues, fmt.Sprintf("duplicate edge id %q", edge.ID))
		}

		edgeIDs[edge.ID] = true

		if !nodeIDs[edge.Source] {
			issues = append(issues, fmt.Sprintf("edge %q references unknown source node %q", edge.ID, edge.Source))
		}

		if !nodeIDs[edge.Target] {
			issues = append(issues, fmt.Sprintf("edge %q references unknown target node %q", edge.ID, edge.Target))
		}
	}

	return issues
}

// Checksum computes a SHA-256 over the canonical JSON of the graph: nodes sorted by id,
// edges sorted by id. Map keys are sorted by encoding/json.
func (g Graph) Checksum() (string, error) {
	nodes := make([]Node, len(g.Nodes))
	copy(nodes, g.Nodes)
	sort.SliceStable(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })

	edges := make([]Edge, len(g.Edges))
	copy(edges, g.Edges)
	sort.SliceStable(edges, func(i, j int) bool { return edges[i].ID < edges[j].ID })

	data, err := json.Marshal(Graph{Nodes: nodes, Edges: edges})
	if err != nil {
		return "", fmt.Errorf("failed to serialize graph for checksum: %w", err)
	}

	sum := sha256.Sum256(data)

	return hex.EncodeToString(sum[:]), nil
}
