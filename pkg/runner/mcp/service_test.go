package mcp

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tableflip.dev/sln/pkg/nodeid"
	"tableflip.dev/sln/pkg/slntest"
	"tableflip.dev/sln/pkg/store"
	"tableflip.dev/sln/pkg/treesync"
	"tableflip.dev/sln/pkg/workspace"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	path := slntest.WriteSolution(t, t.TempDir(), slntest.Sample)
	cfg := &store.Config{StatePath: filepath.Join(t.TempDir(), "state"), Debounce: time.Hour}
	ws, err := workspace.Open(context.Background(), path, cfg, workspace.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = ws.Close() })
	return NewService(ws)
}

func TestServiceExpandAndCollapse(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	roots, err := svc.Roots(ctx)
	require.NoError(t, err)
	require.Len(t, roots, 1)
	require.Len(t, roots[0].Children, 3)
	shared := roots[0].Children[1]
	assert.Equal(t, "Shared", shared.Label)
	assert.Equal(t, "collapsed", shared.State)

	node, err := svc.Expand(ctx, shared.Token)
	require.NoError(t, err)
	assert.Equal(t, "expanded", node.State)
	var labels []string
	for _, c := range node.Children {
		labels = append(labels, c.Label)
	}
	assert.Equal(t, []string{"Tools", "Core"}, labels)

	node, err = svc.Collapse(ctx, shared.Token)
	require.NoError(t, err)
	assert.Equal(t, "collapsed", node.State)
	assert.Empty(t, node.Children)

	_, err = svc.Expand(ctx, "bogus")
	assert.ErrorIs(t, err, treesync.ErrUnknownNode)
}

func TestServiceEdits(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	m := svc.Workspace.Model

	res, err := svc.AddFolder(ctx, "Tests", "Shared")
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Equal(t, slntest.SharedID, m.Forest().Parent(res.ID))

	res, err = svc.RenameFolder(ctx, "Shared/Tests", "Specs")
	require.NoError(t, err)
	assert.True(t, res.Changed)

	require.NoError(t, os.WriteFile(filepath.Join(m.Dir(), "LICENSE"), nil, 0o644))
	res, err = svc.AddItem(ctx, "Docs", "LICENSE")
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Contains(t, m.Folder(slntest.DocsID).Items(), filepath.Join(m.Dir(), "LICENSE"))

	res, err = svc.RemoveItem(ctx, "Docs", filepath.Join(m.Dir(), "LICENSE"))
	require.NoError(t, err)
	assert.True(t, res.Changed)

	res, err = svc.SetStartup(ctx, "App")
	require.NoError(t, err)
	assert.Equal(t, slntest.AppID, res.ID)
	startup, err := m.StartupProject()
	require.NoError(t, err)
	assert.Equal(t, slntest.AppID, startup)

	res, err = svc.RemoveFolder(ctx, "Shared")
	require.NoError(t, err)
	assert.Len(t, res.Removed, 5)

	_, err = svc.RemoveFolder(ctx, "Shared")
	assert.Error(t, err)
}

func TestServiceWithoutWorkspace(t *testing.T) {
	svc := NewService(nil)
	_, err := svc.Roots(context.Background())
	assert.ErrorIs(t, err, ErrNoWorkspace)
	_, err = svc.AddFolder(context.Background(), "X", "")
	assert.ErrorIs(t, err, ErrNoWorkspace)
}

func call(t *testing.T, svc *Service, method string, params any) map[string]any {
	t.Helper()
	srv := NewServer("sln", "test", svc)
	msg, err := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  method,
		"params":  params,
	})
	require.NoError(t, err)

	resp := srv.HandleMessage(context.Background(), msg)
	b, err := json.Marshal(resp)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(b, &out))
	require.Nil(t, out["error"], string(b))
	return out["result"].(map[string]any)
}

func TestToolCallOverProtocol(t *testing.T) {
	svc := newTestService(t)
	result := call(t, svc, "tools/call", map[string]any{
		"name":      "folder_add",
		"arguments": map[string]any{"name": "Benchmarks"},
	})
	assert.NotEqual(t, true, result["isError"])

	e, err := svc.Workspace.Model.ResolveFolder("Benchmarks")
	require.NoError(t, err)

	content := result["content"].([]any)
	require.NotEmpty(t, content)
	var res EditResult
	require.NoError(t, json.Unmarshal([]byte(content[0].(map[string]any)["text"].(string)), &res))
	assert.Equal(t, e.ID, res.ID)
}

func TestToolErrorsAreResults(t *testing.T) {
	svc := newTestService(t)
	result := call(t, svc, "tools/call", map[string]any{
		"name":      "tree_expand",
		"arguments": map[string]any{},
	})
	assert.Equal(t, true, result["isError"])
}

func TestTreeResources(t *testing.T) {
	svc := newTestService(t)
	result := call(t, svc, "resources/read", map[string]any{"uri": treeURI})
	contents := result["contents"].([]any)
	require.Len(t, contents, 1)

	var payload struct {
		Solution string             `json:"solution"`
		Roots    []treesync.Summary `json:"roots"`
	}
	require.NoError(t, json.Unmarshal([]byte(contents[0].(map[string]any)["text"].(string)), &payload))
	assert.Equal(t, svc.Workspace.Path, payload.Solution)
	require.Len(t, payload.Roots, 1)

	docs := nodeid.MustEncode(nodeid.GroupingFolder{Solution: svc.Workspace.Path, FolderID: slntest.DocsID})
	result = call(t, svc, "resources/read", map[string]any{"uri": "sln://nodes/" + docs})
	contents = result["contents"].([]any)
	require.Len(t, contents, 1)
	assert.Contains(t, contents[0].(map[string]any)["text"], `"label":"Docs"`)
}
