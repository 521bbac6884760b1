package main

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Zachary0hill/ZZMEDIA-DASHBOARD-sub000/pkg/models"
	"github.com/Zachary0hill/ZZMEDIA-DASHBOARD-sub000/pkg/persistence/file"
	"github.com/Zachary0hill/ZZMEDIA-DASHBOARD-sub000/pkg/services"
	"github.com/Zachary0hill/ZZMEDIA-DASHBOARD-sub000/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer

	command := newCommand()
	command.Writer = &out

	err := command.Run(t.Context(), append([]string{"dashboard-workflows"}, args...))

	return out.String(), err
}

func seedWorkflow(t *testing.T, root string) *models.Workflow {
	t.Helper()

	service := services.NewWorkflow(file.NewPersistence(root), slog.New(slog.DiscardHandler))

	workflow, _, err := service.Create(t.Context(), services.CreateWorkflowRequest{Name: "Seeded"})
	require.NoError(t, err)

	_, err = service.AppendVersion(t.Context(), workflow.ID, testutil.CreateTestGraph(), "second")
	require.NoError(t, err)

	return workflow
}

func TestListCommand(t *testing.T) {
	root := t.TempDir()
	workflow := seedWorkflow(t, root)

	out, err := runCommand(t, "--database-url", "file://"+root, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "SLUG")
	assert.Contains(t, out, workflow.ID)
	assert.Contains(t, out, "seeded")
}

func TestVersionsCommand(t *testing.T) {
	root := t.TempDir()
	workflow := seedWorkflow(t, root)

	out, err := runCommand(t, "--database-url", "file://"+root, "versions", workflow.ID)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[1], "2"))
	assert.Contains(t, lines[1], "second")
	assert.True(t, strings.HasPrefix(lines[2], "1"))

	_, err = runCommand(t, "--database-url", "file://"+root, "versions")
	require.ErrorIs(t, err, errMissingWorkflowID)

	_, err = runCommand(t, "--database-url", "file://"+root, "versions", "missing")
	require.Error(t, err)
	assert.True(t, services.IsNotFound(err))
}

func TestRunCommand(t *testing.T) {
	root := t.TempDir()
	workflow := seedWorkflow(t, root)

	out, err := runCommand(t, "--database-url", "file://"+root, "run", workflow.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "succeeded (version 2,")

	_, err = runCommand(t, "--database-url", "file://"+root, "run", "missing")
	require.Error(t, err)
	assert.True(t, services.IsNotFound(err))
}

func TestValidateCommand(t *testing.T) {
	dir := t.TempDir()

	valid := filepath.Join(dir, "valid.json")
	require.NoError(t, os.WriteFile(valid, []byte(`{"nodes":[{"id":"a","type":"log"}],"edges":[{"source":"a","target":"b"}]}`), 0o600))

	out, err := runCommand(t, "validate", valid)
	require.NoError(t, err)
	assert.Contains(t, out, `warning: edge "e-a-b" references unknown target node "b"`)
	assert.Contains(t, out, "1 nodes, 1 edges, 1 warnings")

	shape := filepath.Join(dir, "shape.json")
	require.NoError(t, os.WriteFile(shape, []byte(`{"nodes":"a"}`), 0o600))

	_, err = runCommand(t, "validate", shape)
	require.Error(t, err)

	missingID := filepath.Join(dir, "missing-id.json")
	require.NoError(t, os.WriteFile(missingID, []byte(`{"nodes":[{"type":"log"}]}`), 0o600))

	_, err = runCommand(t, "validate", missingID)
	require.ErrorIs(t, err, models.ErrInvalidGraph)

	_, err = runCommand(t, "validate")
	require.ErrorIs(t, err, errMissingGraphFile)
}
