package tree

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tableflip.dev/sln/pkg/nodeid"
	"tableflip.dev/sln/pkg/slntest"
	"tableflip.dev/sln/pkg/store"
	"tableflip.dev/sln/pkg/treesync"
	"tableflip.dev/sln/pkg/workspace"
)

func openWorkspace(t *testing.T, opts workspace.Options) *workspace.Workspace {
	t.Helper()
	path := slntest.WriteSolution(t, t.TempDir(), slntest.Sample)
	cfg := &store.Config{
		StatePath: filepath.Join(t.TempDir(), "state"),
		Debounce:  time.Hour,
		Dotnet:    "dotnet",
	}
	ws, err := workspace.Open(context.Background(), path, cfg, opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ws.Close() })
	return ws
}

func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev, noColor := color.Output, color.NoColor
	color.Output, color.NoColor = &buf, true
	t.Cleanup(func() { color.Output, color.NoColor = prev, noColor })
	return &buf
}

func token(id nodeid.Identity) string { return nodeid.MustEncode(id) }

func TestExpandAllReachesNestedProjects(t *testing.T) {
	ws := openWorkspace(t, workspace.Options{})
	require.NoError(t, ExpandAll(context.Background(), ws.Tree, 0))

	tools := token(nodeid.GroupingFolder{Solution: ws.Path, FolderID: slntest.ToolsID})
	n, ok := ws.Tree.Find(tools)
	require.True(t, ok)
	assert.Equal(t, treesync.Expanded, n.State)

	cli := ws.Model.Project(slntest.CLIID)
	require.NotNil(t, cli)
	n, ok = ws.Tree.Find(token(nodeid.Project{Solution: ws.Path, ProjectID: slntest.CLIID, Path: cli.Path()}))
	require.True(t, ok)
	assert.Equal(t, treesync.Expanded, n.State)
}

func TestExpandAllStopsAtDepth(t *testing.T) {
	ws := openWorkspace(t, workspace.Options{})
	require.NoError(t, ExpandAll(context.Background(), ws.Tree, 2))

	shared, ok := ws.Tree.Find(token(nodeid.GroupingFolder{Solution: ws.Path, FolderID: slntest.SharedID}))
	require.True(t, ok)
	assert.Equal(t, treesync.Expanded, shared.State)

	tools, ok := ws.Tree.Find(token(nodeid.GroupingFolder{Solution: ws.Path, FolderID: slntest.ToolsID}))
	require.True(t, ok)
	assert.Equal(t, treesync.Collapsed, tools.State)
}

func TestDoPrintsJSON(t *testing.T) {
	ws := openWorkspace(t, workspace.Options{})
	buf := capture(t)

	require.NoError(t, (&Tree{Workspace: ws, JSON: true}).Do(context.Background()))

	var got []treesync.Summary
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "root", got[0].Kind)
	var labels []string
	for _, c := range got[0].Children {
		labels = append(labels, c.Label)
	}
	assert.Equal(t, []string{"Docs", "Shared", "App"}, labels)
}

func TestDoPrintsTree(t *testing.T) {
	ws := openWorkspace(t, workspace.Options{})
	buf := capture(t)

	require.NoError(t, (&Tree{Workspace: ws}).Do(context.Background()))
	assert.Contains(t, buf.String(), "▾ Solution 'Sample' (3 projects)")
	assert.Contains(t, buf.String(), "  ▸ Shared")
}

func TestDoWithoutWorkspace(t *testing.T) {
	assert.Error(t, (&Tree{}).Do(context.Background()))
}
