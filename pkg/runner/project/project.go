// Package project holds the runners that add, remove and move projects.
package project

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"tableflip.dev/sln/pkg/printers"
	"tableflip.dev/sln/pkg/slnfile"
	"tableflip.dev/sln/pkg/workspace"
)

var errNoWorkspace = errors.New("can not edit projects, no workspace")

// Add declares a project file in the solution.
type Add struct {
	Workspace *workspace.Workspace
	Path      string
	// Name defaults to the file name without its extension.
	Name string
	// Kind is a kind name such as csharp; empty guesses from the extension.
	Kind   string
	Parent string
	JSON   bool
}

func (n *Add) Do(ctx context.Context) error {
	if n.Workspace == nil {
		return errNoWorkspace
	}
	m := n.Workspace.Model
	path, err := filepath.Abs(n.Path)
	if err != nil {
		return err
	}
	kind := slnfile.KindForExtension(path)
	if n.Kind != "" {
		if kind, err = slnfile.ParseKind(n.Kind); err != nil {
			return err
		}
	}
	parent, err := m.ParentRef(n.Parent)
	if err != nil {
		return err
	}

	res, err := m.AddProject(ctx, kind, n.Name, path, parent)
	pp := printers.PrettyPrint{}
	if perr := pp.Report("project_add", fmt.Sprintf("add %s project %s", kind, filepath.Base(path)), res, n.JSON); perr != nil {
		return perr
	}
	return err
}

// Remove drops a project from the solution. Files on disk are left alone.
type Remove struct {
	Workspace *workspace.Workspace
	Project   string
	JSON      bool
}

func (n *Remove) Do(ctx context.Context) error {
	if n.Workspace == nil {
		return errNoWorkspace
	}
	m := n.Workspace.Model
	e, err := m.ResolveProject(n.Project)
	if err != nil {
		return err
	}
	res, err := m.RemoveProject(ctx, e.ID)
	pp := printers.PrettyPrint{}
	if perr := pp.Report("project_remove", fmt.Sprintf("remove project %s", e.Name), res, n.JSON); perr != nil {
		return perr
	}
	return err
}

// Move places a project or folder under another folder, or at the root.
type Move struct {
	Workspace *workspace.Workspace
	Entity    string
	Parent    string
	JSON      bool
}

func (n *Move) Do(ctx context.Context) error {
	if n.Workspace == nil {
		return errNoWorkspace
	}
	m := n.Workspace.Model
	e, err := m.Resolve(n.Entity)
	if err != nil {
		return err
	}
	parent, err := m.ParentRef(n.Parent)
	if err != nil {
		return err
	}
	res, err := m.MoveEntity(ctx, e.ID, parent)
	if err != nil {
		return err
	}
	target := "the solution root"
	if parent != "" {
		target = m.Forest().Entity(parent).Name
	}
	pp := printers.PrettyPrint{}
	return pp.Report("project_move", fmt.Sprintf("move %s under %s", e.Name, target), res, n.JSON)
}
