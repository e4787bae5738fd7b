package ui

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tableflip.dev/sln/pkg/slntest"
	"tableflip.dev/sln/pkg/store"
	"tableflip.dev/sln/pkg/workspace"
)

func TestDoNeedsWorkspace(t *testing.T) {
	err := (&UI{}).Do(context.Background())
	assert.Error(t, err)
}

func TestDoRefusesWithoutTerminal(t *testing.T) {
	if Interactive() {
		t.Skip("running on a terminal")
	}
	path := slntest.WriteSolution(t, t.TempDir(), slntest.Sample)
	cfg := &store.Config{StatePath: filepath.Join(t.TempDir(), "state"), Debounce: time.Hour}
	ws, err := workspace.Open(context.Background(), path, cfg, workspace.Options{})
	require.NoError(t, err)
	defer ws.Close()

	err = (&UI{Workspace: ws}).Do(context.Background())
	assert.ErrorIs(t, err, ErrNoTerminal)
}
