package folder

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

	"tableflip.dev/sln/pkg/printers"
	"tableflip.dev/sln/pkg/slntest"
	"tableflip.dev/sln/pkg/solution"
	"tableflip.dev/sln/pkg/store"
	"tableflip.dev/sln/pkg/workspace"
)

func openWorkspace(t *testing.T) *workspace.Workspace {
	t.Helper()
	path := slntest.WriteSolution(t, t.TempDir(), slntest.Sample)
	cfg := &store.Config{StatePath: filepath.Join(t.TempDir(), "state"), Debounce: time.Hour}
	ws, err := workspace.Open(context.Background(), path, cfg, workspace.Options{})
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

func TestAddUnderNamedParent(t *testing.T) {
	ws := openWorkspace(t)
	buf := capture(t)

	require.NoError(t, (&Add{Workspace: ws, Name: "Plugins", Parent: "Shared/Tools", JSON: true}).Do(context.Background()))

	var res printers.ResultJSON
	require.NoError(t, json.Unmarshal(buf.Bytes(), &res))
	assert.True(t, res.Changed)
	assert.Equal(t, "folder_add", res.Op)

	e, err := ws.Model.Resolve("Shared/Tools/Plugins")
	require.NoError(t, err)
	assert.Equal(t, res.ID, e.ID)
}

func TestAddTakenNameIsNoChange(t *testing.T) {
	ws := openWorkspace(t)
	buf := capture(t)

	require.NoError(t, (&Add{Workspace: ws, Name: "Docs"}).Do(context.Background()))
	assert.Equal(t, "no change: add folder Docs\n", buf.String())
}

func TestAddUnderProjectFails(t *testing.T) {
	ws := openWorkspace(t)
	capture(t)
	err := (&Add{Workspace: ws, Name: "X", Parent: "App"}).Do(context.Background())
	assert.ErrorIs(t, err, solution.ErrNotFound)
}

func TestRenameAndRemove(t *testing.T) {
	ws := openWorkspace(t)
	buf := capture(t)
	ctx := context.Background()

	require.NoError(t, (&Rename{Workspace: ws, Folder: "Docs", Name: "Documentation"}).Do(ctx))
	assert.Contains(t, buf.String(), "✓ rename folder Docs to Documentation")
	_, err := ws.Model.ResolveFolder("Documentation")
	require.NoError(t, err)

	require.NoError(t, (&Remove{Workspace: ws, Folder: "Shared"}).Do(ctx))
	assert.Contains(t, buf.String(), "✓ remove folder Shared")
	assert.Nil(t, ws.Model.Project(slntest.CoreID))
	assert.Nil(t, ws.Model.Project(slntest.CLIID))
	assert.NotNil(t, ws.Model.Project(slntest.AppID))
}

func TestNoWorkspace(t *testing.T) {
	ctx := context.Background()
	assert.Error(t, (&Add{}).Do(ctx))
	assert.Error(t, (&Remove{}).Do(ctx))
	assert.Error(t, (&Rename{}).Do(ctx))
}
