package startup

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

func TestGetWithoutStartup(t *testing.T) {
	ws := openWorkspace(t)
	buf := capture(t)
	require.NoError(t, (&Get{Workspace: ws}).Do(context.Background()))
	assert.Equal(t, "no startup project\n", buf.String())
}

func TestSetThenGet(t *testing.T) {
	ws := openWorkspace(t)
	buf := capture(t)
	ctx := context.Background()

	require.NoError(t, (&Set{Workspace: ws, Project: "shared/core"}).Do(ctx))
	assert.Contains(t, buf.String(), "startup project is now Core")

	buf.Reset()
	require.NoError(t, (&Get{Workspace: ws, JSON: true}).Do(ctx))
	var got startupJSON
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, startupJSON{ID: slntest.CoreID, Name: "Core"}, got)
}

func TestSetNeedsProject(t *testing.T) {
	ws := openWorkspace(t)
	capture(t)
	assert.Error(t, (&Set{Workspace: ws, Project: "Docs"}).Do(context.Background()))
}
