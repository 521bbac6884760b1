package models

// Template is a predefined, read-only graph used to seed a new workflow's first version.
type Template struct {
	ID          string `json:"id"          yaml:"id"`
	Name        string `json:"name"        yaml:"name"`
	Description string `json:"description" yaml:"description"`
	Graph       Graph  `json:"graph"       yaml:"graph"`
}

// TemplateSummary describes a template without its graph.
type TemplateSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	NodeCount   int    `json:"node_count"`
	EdgeCount   int    `json:"edge_count"`
}
