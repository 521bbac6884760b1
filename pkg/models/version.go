package models

import "time"

// Version is an immutable, numbered snapshot of a workflow graph.
type Version struct {
	ID         string    `json:"id"`
	WorkflowID string    `json:"workflow_id"`
	Version    int       `json:"version"`
	Graph      Graph     `json:"graph"`
	Note       string    `json:"note,omitempty"`
	Checksum   string    `json:"checksum"`
	CreatedAt  time.Time `json:"created_at"`
}

// VersionSummary is a Version without its graph, used in listings.
type VersionSummary struct {
	ID        string    `json:"id"`
	Version   int       `json:"version"`
	Note      string    `json:"note,omitempty"`
	Checksum  string    `json:"checksum"`
	CreatedAt time.Time `json:"created_at"`
}

// Summary strips the graph from the version.
func (v *Version) Summary() *VersionSummary {
	return &VersionSummary{
		ID:        v.ID,
		Version:   v.Version,
		Note:      v.Note,
		Checksum:  v.Checksum,
		CreatedAt: v.CreatedAt,
	}
}
