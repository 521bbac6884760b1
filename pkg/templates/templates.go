// Package templates holds the read-only catalog of graphs used to seed new workflows.
package templates

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Zachary0hill/ZZMEDIA-DASHBOARD-sub000/pkg/models"
	"gopkg.in/yaml.v3"
)

//go:embed builtin.yaml
var builtin []byte

// ErrDuplicateTemplate is returned when two catalog entries share an id.
var ErrDuplicateTemplate = errors.New("duplicate template id")

// Catalog is immutable after construction and safe for concurrent use.
type Catalog struct {
	templates []models.Template
	byID      map[string]int
}

// Builtin returns the catalog compiled into the binary.
func Builtin() (*Catalog, error) {
	return Parse(builtin)
}

// Load reads a YAML catalog from path. An empty path yields the built-in catalog.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Builtin()
	}

	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read template catalog %s: %w", path, err)
	}

	return Parse(data)
}

// Parse decodes a YAML list of templates. Graphs are normalized and converted to the same
// value types a JSON request body produces, so a seeded version deep-equals its template.
func Parse(data []byte) (*Catalog, error) {
	var raw []map[string]any

	err := yaml.Unmarshal(data, &raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template catalog: %w", err)
	}

	catalog := &Catalog{
		templates: make([]models.Template, 0, len(raw)),
		byID:      make(map[string]int, len(raw)),
	}

	for i, entry := range raw {
		template, err := decodeTemplate(entry)
		if err != nil {
			return nil, fmt.Errorf("template %d: %w", i, err)
		}

		if _, exists := catalog.byID[template.ID]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateTemplate, template.ID)
		}

		catalog.byID[template.ID] = len(catalog.templates)
		catalog.templates = append(catalog.templates, template)
	}

	return catalog, nil
}

func decodeTemplate(entry map[string]any) (models.Template, error) {
	// YAML decodes integers as int; a JSON pass gives float64 like an HTTP body would.
	data, err := json.Marshal(entry)
	if err != nil {
		return models.Template{}, fmt.Errorf("failed to convert template: %w", err)
	}

	var template models.Template

	err = json.Unmarshal(data, &template)
	if err != nil {
		return models.Template{}, fmt.Errorf("failed to decode template: %w", err)
	}

	template.ID = strings.TrimSpace(template.ID)
	if template.ID == "" {
		return models.Template{}, errors.New("id is required")
	}

	graph, err := template.Graph.Normalize()
	if err != nil {
		return models.Template{}, fmt.Errorf("template %s: %w", template.ID, err)
	}

	template.Graph = graph

	return template, nil
}

// Lookup returns a deep copy of the template graph.
func (c *Catalog) Lookup(id string) (models.Graph, bool) {
	index, ok := c.byID[id]
	if !ok {
		return models.Graph{}, false
	}

	graph, err := c.templates[index].Graph.Clone()
	if err != nil {
		return models.Graph{}, false
	}

	return graph, true
}

// Get returns a copy of the full template record.
func (c *Catalog) Get(id string) (models.Template, bool) {
	index, ok := c.byID[id]
	if !ok {
		return models.Template{}, false
	}

	template := c.templates[index]

	graph, err := template.Graph.Clone()
	if err != nil {
		return models.Template{}, false
	}

	template.Graph = graph

	return template, true
}

// List returns catalog summaries in file order.
func (c *Catalog) List() []models.TemplateSummary {
	summaries := make([]models.TemplateSummary, 0, len(c.templates))

	for _, template := range c.templates {
		summaries = append(summaries, models.TemplateSummary{
			ID:          template.ID,
			Name:        template.Name,
			Description: template.Description,
			NodeCount:   len(template.Graph.Nodes),
			EdgeCount:   len(template.Graph.Edges),
		})
	}

	return summaries
}
