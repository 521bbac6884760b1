package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Zachary0hill/ZZMEDIA-DASHBOARD-sub000/pkg/models"
	"github.com/Zachary0hill/ZZMEDIA-DASHBOARD-sub000/pkg/web"
	"github.com/urfave/cli/v3"
)

var errMissingGraphFile = errors.New("graph file argument is required")

// NewValidateCommand checks a graph document the way the API checks an appended version,
// without touching any store.
func NewValidateCommand() *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Aliases:   []string{"v"},
		Usage:     "Validate a graph JSON file",
		ArgsUsage: "<graph.json>",
		Action: func(_ context.Context, command *cli.Command) error {
			path := command.Args().First()
			if path == "" {
				return errMissingGraphFile
			}

			data, err := os.ReadFile(filepath.Clean(path))
			if err != nil {
				return fmt.Errorf("failed to read graph file: %w", err)
			}

			err = web.ValidatePayload(web.GraphSchema, data)
			if err != nil {
				return err
			}

			var graph models.Graph

			err = json.Unmarshal(data, &graph)
			if err != nil {
				return fmt.Errorf("failed to decode graph: %w", err)
			}

			normalized, err := graph.Normalize()
			if err != nil {
				return err
			}

			out := command.Root().Writer
			issues := normalized.Issues()

			for _, issue := range issues {
				fmt.Fprintf(out, "warning: %s\n", issue)
			}

			_, err = fmt.Fprintf(out, "%s: %d nodes, %d edges, %d warnings\n",
				path, len(normalized.Nodes), len(normalized.Edges), len(issues))

			return err
		},
	}
}
