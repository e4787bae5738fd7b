// Package workspace ties one solution model, its tree and their shared
// watcher together for the lifetime of an open solution.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"tableflip.dev/sln/pkg/logging"
	"tableflip.dev/sln/pkg/solution"
	"tableflip.dev/sln/pkg/store"
	"tableflip.dev/sln/pkg/treesync"
)

// Workspace is an open solution with everything that hangs off it.
type Workspace struct {
	Path   string
	Model  *solution.Model
	Tree   *treesync.Controller
	Log    *zap.Logger
	Config *store.Config

	watcher store.Watcher
	sub     *solution.Subscription
	once    sync.Once
}

// Options carries the dependencies Open would otherwise build itself.
type Options struct {
	Log *zap.Logger
	// Watcher replaces the fsnotify watcher; it is closed with the workspace.
	Watcher store.Watcher
	// ViewState replaces the diskv store under Config.StatePath.
	ViewState   store.ViewState
	Directories treesync.DirectoryLister
}

// Open loads the solution at path and its tree.
func Open(ctx context.Context, path string, cfg *store.Config, opts Options) (*Workspace, error) {
	if cfg == nil {
		return nil, errors.New("workspace: config required")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("workspace: %w", err)
	}
	log := logging.OrNop(opts.Log)

	w := opts.Watcher
	if w == nil {
		if w, err = store.NewWatcher(cfg.Debounce, log); err != nil {
			return nil, fmt.Errorf("workspace: %w", err)
		}
	}
	state := opts.ViewState
	if state == nil {
		if state, err = store.OpenViewState(cfg.StatePath); err != nil {
			w.Close()
			return nil, fmt.Errorf("workspace: %w", err)
		}
	}

	modelOpts := []solution.Option{
		solution.WithLogger(log),
		solution.WithWatcher(w),
		solution.WithPackages(solution.Dotnet{Binary: cfg.Dotnet}),
	}
	if len(cfg.Hook) > 0 {
		modelOpts = append(modelOpts, solution.WithProjectCommand(solution.CommandHook{Command: cfg.Hook}))
	}
	model, err := solution.Open(ctx, abs, modelOpts...)
	if err != nil {
		w.Close()
		return nil, err
	}

	tree := treesync.New(model, treesync.Options{
		Directories:    opts.Directories,
		ViewState:      state,
		Watcher:        w,
		Debounce:       cfg.Debounce,
		RapidThreshold: cfg.RapidThreshold,
		RapidWindow:    cfg.RapidWindow,
		Log:            log,
	})
	ws := &Workspace{
		Path:    abs,
		Model:   model,
		Tree:    tree,
		Log:     log,
		Config:  cfg,
		watcher: w,
	}
	ws.sub = model.Subscribe(func(e solution.Event) {
		switch e.Type {
		case solution.EventFilesChanged, solution.EventReloaded:
			tree.Notify(e.Paths...)
		case solution.EventReloadFailed:
			log.Warn("workspace: solution file unreadable, showing last good state", zap.Error(e.Err))
		}
	})
	if err := tree.Load(ctx); err != nil {
		ws.Close()
		return nil, err
	}
	log.Info("workspace: opened", zap.String("path", abs))
	return ws, nil
}

// Close tears down the tree, then the model, then the watcher.
func (ws *Workspace) Close() error {
	var err error
	ws.once.Do(func() {
		ws.sub.Close()
		err = multierr.Combine(
			ws.Tree.Close(),
			ws.Model.Close(),
			ws.watcher.Close(),
		)
		ws.Log.Debug("workspace: closed", zap.String("path", ws.Path))
	})
	return err
}

// Manager holds at most one open workspace.
type Manager struct {
	cfg  *store.Config
	opts Options

	mu      sync.Mutex
	current *Workspace
}

// NewManager returns a manager opening workspaces with cfg and opts.
func NewManager(cfg *store.Config, opts Options) *Manager {
	return &Manager{cfg: cfg, opts: opts}
}

// Open closes the current workspace, if any, and opens path. A failure
// leaves no workspace open.
func (m *Manager) Open(ctx context.Context, path string) (*Workspace, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current != nil {
		if err := m.current.Close(); err != nil {
			logging.OrNop(m.opts.Log).Warn("workspace: close previous", zap.Error(err))
		}
		m.current = nil
	}
	ws, err := Open(ctx, path, m.cfg, m.opts)
	if err != nil {
		return nil, err
	}
	m.current = ws
	return ws, nil
}

// Current returns the open workspace, or nil.
func (m *Manager) Current() *Workspace {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Close closes the open workspace.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return nil
	}
	err := m.current.Close()
	m.current = nil
	return err
}
