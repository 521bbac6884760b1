package web

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

var errPayloadShape = errors.New("payload does not match schema")

var positionSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"x": map[string]any{"type": "number"},
		"y": map[string]any{"type": "number"},
	},
}

var nodeSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"id":       map[string]any{"type": "string"},
		"type":     map[string]any{"type": "string"},
		"label":    map[string]any{"type": "string"},
		"position": positionSchema,
		"config":   map[string]any{"type": []any{"object", "null"}},
	},
}

var edgeSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"id":           map[string]any{"type": "string"},
		"source":       map[string]any{"type": "string"},
		"target":       map[string]any{"type": "string"},
		"sourceHandle": map[string]any{"type": "string"},
		"targetHandle": map[string]any{"type": "string"},
	},
}

var graphSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"nodes": map[string]any{"type": []any{"array", "null"}, "items": nodeSchema},
		"edges": map[string]any{"type": []any{"array", "null"}, "items": edgeSchema},
	},
}

var (
	createWorkflowSchema = mustCompile(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"name":        map[string]any{"type": "string"},
			"description": map[string]any{"type": "string"},
			"template_id": map[string]any{"type": "string"},
			"graph":       map[string]any{"anyOf": []any{graphSchema, map[string]any{"type": "null"}}},
		},
	})

	updateWorkflowSchema = mustCompile(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"name":        map[string]any{"type": []any{"string", "null"}},
			"description": map[string]any{"type": []any{"string", "null"}},
		},
	})

	appendVersionSchema = mustCompile(map[string]any{
		"type":     "object",
		"required": []any{"graph"},
		"properties": map[string]any{
			"graph": graphSchema,
			"note":  map[string]any{"type": "string"},
		},
	})

	// GraphSchema validates a bare graph document, as read from a file.
	GraphSchema = mustCompile(graphSchema)
)

func mustCompile(schema map[string]any) *gojsonschema.Schema {
	compiled, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(schema))
	if err != nil {
		panic(fmt.Errorf("invalid payload schema: %w", err))
	}

	return compiled
}

// ValidatePayload checks the raw JSON document against schema. Malformed JSON and
// shape mismatches both wrap errPayloadShape.
func ValidatePayload(schema *gojsonschema.Schema, payload []byte) error {
	result, err := schema.Validate(gojsonschema.NewBytesLoader(payload))
	if err != nil {
		return fmt.Errorf("%w: malformed JSON: %w", errPayloadShape, err)
	}

	if !result.Valid() {
		var details []string
		for _, desc := range result.Errors() {
			details = append(details, desc.String())
		}

		return fmt.Errorf("%w: %s", errPayloadShape, strings.Join(details, "; "))
	}

	return nil
}
