package item

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tableflip.dev/sln/pkg/slntest"
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

func TestAddThenRemove(t *testing.T) {
	ws := openWorkspace(t)
	buf := capture(t)
	ctx := context.Background()

	notes := filepath.Join(filepath.Dir(ws.Path), "NOTES.md")
	require.NoError(t, os.WriteFile(notes, []byte("# notes\n"), 0o644))

	require.NoError(t, (&Add{Workspace: ws, Folder: "Docs", Path: notes}).Do(ctx))
	assert.Contains(t, buf.String(), "✓ add NOTES.md to Docs")
	assert.Contains(t, ws.Model.Folder(slntest.DocsID).Items(), notes)

	require.NoError(t, (&Add{Workspace: ws, Folder: "Docs", Path: notes}).Do(ctx))
	assert.Contains(t, buf.String(), "no change: add NOTES.md to Docs")

	require.NoError(t, (&Remove{Workspace: ws, Folder: "Docs", Path: notes}).Do(ctx))
	assert.NotContains(t, ws.Model.Folder(slntest.DocsID).Items(), notes)
}

func TestItemNeedsFolder(t *testing.T) {
	ws := openWorkspace(t)
	capture(t)
	assert.Error(t, (&Add{Workspace: ws, Folder: "App", Path: "x.md"}).Do(context.Background()))
	assert.Error(t, (&Remove{Workspace: ws, Folder: "Missing", Path: "x.md"}).Do(context.Background()))
}
