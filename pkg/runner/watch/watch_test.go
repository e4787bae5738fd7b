package watch

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tableflip.dev/sln/pkg/slntest"
	"tableflip.dev/sln/pkg/store"
	"tableflip.dev/sln/pkg/workspace"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func openWorkspace(t *testing.T) *workspace.Workspace {
	t.Helper()
	path := slntest.WriteSolution(t, t.TempDir(), slntest.Sample)
	cfg := &store.Config{StatePath: filepath.Join(t.TempDir(), "state"), Debounce: 10 * time.Millisecond}
	ws, err := workspace.Open(context.Background(), path, cfg, workspace.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = ws.Close() })
	return ws
}

func start(t *testing.T, w *Watch) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Do(ctx) }()
	t.Cleanup(func() {
		cancel()
		assert.NoError(t, <-done)
	})
}

func fixedNow() time.Time { return time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC) }

func TestWatchPrintsModelEvents(t *testing.T) {
	color.NoColor = true
	ws := openWorkspace(t)
	out := &syncBuffer{}
	start(t, &Watch{Workspace: ws, Out: out, Now: fixedNow})

	require.Eventually(t, func() bool { return strings.Contains(out.String(), "watching") }, time.Second, 5*time.Millisecond)

	res, err := ws.Model.AddFolder(context.Background(), "Tests", "")
	require.NoError(t, err)
	assert.Eventually(t, func() bool {
		return strings.Contains(out.String(), "09:30:00.000 folder-added Tests "+res.ID)
	}, time.Second, 5*time.Millisecond)
}

func TestWatchJSONIncludesTreeRebuilds(t *testing.T) {
	ws := openWorkspace(t)
	out := &syncBuffer{}
	w := &Watch{Workspace: ws, Out: out, JSON: true, Tree: true, Now: fixedNow}
	start(t, w)

	// JSON mode prints no banner; wait for the subscription by polling a
	// harmless rebuild.
	require.Eventually(t, func() bool {
		_ = ws.Tree.Refresh(context.Background())
		return strings.Contains(out.String(), "tree-rebuilt")
	}, time.Second, 10*time.Millisecond)

	_, err := ws.Model.AddFolder(context.Background(), "Tests", "")
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		for _, line := range strings.Split(strings.TrimSpace(out.String()), "\n") {
			var e eventJSON
			if json.Unmarshal([]byte(line), &e) == nil && e.Event == "folder-added" && e.Name == "Tests" {
				return true
			}
		}
		return false
	}, time.Second, 10*time.Millisecond)
}

func TestWatchWithoutWorkspace(t *testing.T) {
	assert.Error(t, (&Watch{}).Do(context.Background()))
}
