package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"
	"time"

	"github.com/Zachary0hill/ZZMEDIA-DASHBOARD-sub000/pkg/cmd"
	"github.com/Zachary0hill/ZZMEDIA-DASHBOARD-sub000/pkg/log"
	"github.com/Zachary0hill/ZZMEDIA-DASHBOARD-sub000/pkg/models"
	"github.com/Zachary0hill/ZZMEDIA-DASHBOARD-sub000/pkg/persistence"
	"github.com/Zachary0hill/ZZMEDIA-DASHBOARD-sub000/pkg/services"
	"github.com/urfave/cli/v3"
)

var errMissingWorkflowID = errors.New("workflow id argument is required")

// withPersistence opens the store named by --database-url for the duration of fn.
func withPersistence(ctx context.Context, command *cli.Command, fn func(p persistence.Persistence, logger *slog.Logger) error) error {
	log.Setup(command.String("log-level"), "text")

	logger := log.WithModule("dashboard-workflows").With("action", command.Name)

	p, err := cmd.NewPersistence(ctx, logger, command.String("database-url"))
	if err != nil {
		return err
	}

	defer func() {
		if err := p.Close(ctx); err != nil {
			logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
		}
	}()

	return fn(p, logger)
}

func NewListCommand() *cli.Command {
	return &cli.Command{
		Name:    "list",
		Aliases: []string{"ls"},
		Usage:   "List workflows, most recently updated first",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of workflows to show",
				Value: 50,
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			return withPersistence(ctx, command, func(p persistence.Persistence, logger *slog.Logger) error {
				workflows := services.NewWorkflow(p, logger).List(ctx, command.Int("limit"))

				w := tabwriter.NewWriter(command.Root().Writer, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tNAME\tSLUG\tVERSION\tUPDATED")

				for _, workflow := range workflows {
					fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
						workflow.ID, workflow.Name, workflow.Slug, workflow.Version, workflow.UpdatedAt.Format(time.RFC3339))
				}

				return w.Flush()
			})
		},
	}
}

func NewVersionsCommand() *cli.Command {
	return &cli.Command{
		Name:      "versions",
		Usage:     "Show the version history of a workflow",
		ArgsUsage: "<workflow-id>",
		Action: func(ctx context.Context, command *cli.Command) error {
			workflowID := command.Args().First()
			if workflowID == "" {
				return errMissingWorkflowID
			}

			return withPersistence(ctx, command, func(p persistence.Persistence, logger *slog.Logger) error {
				summaries, err := services.NewWorkflow(p, logger).ListVersions(ctx, workflowID)
				if err != nil {
					return err
				}

				return printVersions(command.Root().Writer, summaries)
			})
		},
	}
}

func printVersions(out io.Writer, summaries []*models.VersionSummary) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "VERSION\tCREATED\tCHECKSUM\tNOTE")

	for _, summary := range summaries {
		fmt.Fprintf(w, "%d\t%s\t%.12s\t%s\n",
			summary.Version, summary.CreatedAt.Format(time.RFC3339), summary.Checksum, summary.Note)
	}

	return w.Flush()
}

func NewRunCommand() *cli.Command {
	return &cli.Command{
		Name:      "run",
		Usage:     "Record a run of a workflow at its current version",
		ArgsUsage: "<workflow-id>",
		Action: func(ctx context.Context, command *cli.Command) error {
			workflowID := command.Args().First()
			if workflowID == "" {
				return errMissingWorkflowID
			}

			return withPersistence(ctx, command, func(p persistence.Persistence, logger *slog.Logger) error {
				record, err := services.NewRun(p, logger).StartRun(ctx, workflowID)
				if err != nil {
					return err
				}

				_, err = fmt.Fprintf(command.Root().Writer, "run %s: %s (version %d, %dms)\n",
					record.ID, record.Status, record.Version, *record.DurationMs)

				return err
			})
		},
	}
}
