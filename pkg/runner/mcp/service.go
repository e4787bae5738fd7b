// Package mcp provides the Model Context Protocol server that exposes the
// solution tree to a remote view.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"tableflip.dev/sln/pkg/solution"
	"tableflip.dev/sln/pkg/treesync"
	"tableflip.dev/sln/pkg/workspace"
)

// Service runs tree and solution operations for the MCP handlers.
type Service struct {
	Workspace *workspace.Workspace
}

// ErrNoWorkspace is returned when the service has no open solution.
var ErrNoWorkspace = errors.New("no solution is open")

// EditResult is the transport form of a solution edit.
type EditResult struct {
	Changed bool     `json:"changed"`
	ID      string   `json:"id,omitempty"`
	Removed []string `json:"removed,omitempty"`
	// Warning carries a partial failure after the edit was written.
	Warning string `json:"warning,omitempty"`
}

// NewService builds a service over an open workspace.
func NewService(ws *workspace.Workspace) *Service {
	return &Service{Workspace: ws}
}

func (s *Service) ready() error {
	if s.Workspace == nil {
		return ErrNoWorkspace
	}
	return nil
}

// Roots returns the visible tree.
func (s *Service) Roots(ctx context.Context) ([]treesync.Summary, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	roots := s.Workspace.Tree.Roots()
	out := make([]treesync.Summary, 0, len(roots))
	for _, r := range roots {
		out = append(out, treesync.Summarize(r))
	}
	return out, nil
}

// Node returns one node and its visible subtree.
func (s *Service) Node(ctx context.Context, token string) (*treesync.Summary, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	n, ok := s.Workspace.Tree.Find(token)
	if !ok {
		return nil, fmt.Errorf("%w: %s", treesync.ErrUnknownNode, token)
	}
	sum := treesync.Summarize(n)
	return &sum, nil
}

// Expand opens a node and returns it with its children.
func (s *Service) Expand(ctx context.Context, token string) (*treesync.Summary, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if err := s.Workspace.Tree.Expand(ctx, token); err != nil {
		return nil, err
	}
	return s.Node(ctx, token)
}

// Collapse closes a node.
func (s *Service) Collapse(ctx context.Context, token string) (*treesync.Summary, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if err := s.Workspace.Tree.Collapse(token); err != nil {
		return nil, err
	}
	return s.Node(ctx, token)
}

// Refresh rebuilds the tree, listing every expanded node again.
func (s *Service) Refresh(ctx context.Context) ([]treesync.Summary, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if err := s.Workspace.Tree.Refresh(ctx); err != nil {
		return nil, err
	}
	return s.Roots(ctx)
}

// AddFolder creates a folder under parent, a folder reference or "" for
// the root.
func (s *Service) AddFolder(ctx context.Context, name, parent string) (*EditResult, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	m := s.Workspace.Model
	parentID, err := m.ParentRef(parent)
	if err != nil {
		return nil, err
	}
	return toEditResult(m.AddFolder(ctx, name, parentID))
}

// RemoveFolder deletes a folder and everything nested in it.
func (s *Service) RemoveFolder(ctx context.Context, folder string) (*EditResult, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	m := s.Workspace.Model
	e, err := m.ResolveFolder(folder)
	if err != nil {
		return nil, err
	}
	return toEditResult(m.RemoveFolder(ctx, e.ID))
}

// RenameFolder renames a folder.
func (s *Service) RenameFolder(ctx context.Context, folder, name string) (*EditResult, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	m := s.Workspace.Model
	e, err := m.ResolveFolder(folder)
	if err != nil {
		return nil, err
	}
	return toEditResult(m.RenameFolder(ctx, e.ID, name))
}

// AddItem groups a file under a folder. Relative paths are taken from the
// solution directory.
func (s *Service) AddItem(ctx context.Context, folder, path string) (*EditResult, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	m := s.Workspace.Model
	e, err := m.ResolveFolder(folder)
	if err != nil {
		return nil, err
	}
	return toEditResult(m.AddItem(ctx, e.ID, s.absolute(path)))
}

// RemoveItem drops a file from a folder.
func (s *Service) RemoveItem(ctx context.Context, folder, path string) (*EditResult, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	m := s.Workspace.Model
	e, err := m.ResolveFolder(folder)
	if err != nil {
		return nil, err
	}
	return toEditResult(m.RemoveItem(ctx, e.ID, s.absolute(path)))
}

// SetStartup records the startup project.
func (s *Service) SetStartup(ctx context.Context, project string) (*EditResult, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	m := s.Workspace.Model
	e, err := m.ResolveProject(project)
	if err != nil {
		return nil, err
	}
	if err := m.SetStartupProject(ctx, e.ID); err != nil {
		return nil, err
	}
	return &EditResult{Changed: true, ID: e.ID}, nil
}

func (s *Service) absolute(path string) string {
	path = strings.TrimSpace(path)
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(s.Workspace.Model.Dir(), filepath.FromSlash(path))
}

// toEditResult converts a model edit into its transport form. A partial
// failure is reported as a warning since the edit itself was written.
func toEditResult(res solution.Result, err error) (*EditResult, error) {
	var partial *solution.PartialError
	if err != nil && !errors.As(err, &partial) {
		return nil, err
	}
	out := &EditResult{Changed: res.Changed, ID: res.ID, Removed: res.Removed}
	if partial != nil {
		out.Warning = partial.Error()
	}
	return out, nil
}
