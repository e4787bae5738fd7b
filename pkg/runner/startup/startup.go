// Package startup reads and sets the startup project.
package startup

import (
	"context"
	"errors"
	"fmt"

	"github.com/fatih/color"

	"tableflip.dev/sln/pkg/printers"
	"tableflip.dev/sln/pkg/workspace"
)

var errNoWorkspace = errors.New("can not read startup project, no workspace")

// Get prints the startup project.
type Get struct {
	Workspace *workspace.Workspace
	JSON      bool
}

type startupJSON struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}

func (n *Get) Do(ctx context.Context) error {
	if n.Workspace == nil {
		return errNoWorkspace
	}
	m := n.Workspace.Model
	id, err := m.StartupProject()
	if err != nil {
		return err
	}
	out := startupJSON{ID: id}
	if p := m.Project(id); p != nil {
		out.Name = p.Name()
	}

	pp := printers.PrettyPrint{}
	if n.JSON {
		return pp.JSON(out)
	}
	if out.ID == "" {
		f := color.New(color.Faint, color.Italic)
		_, _ = f.Fprintln(color.Output, "no startup project")
		return nil
	}
	if out.Name == "" {
		out.Name = "(not in solution)"
	}
	pp.Table([]string{"Startup", "ID"}, []string{out.Name, out.ID})
	return nil
}

// Set records the startup project.
type Set struct {
	Workspace *workspace.Workspace
	Project   string
	JSON      bool
}

func (n *Set) Do(ctx context.Context) error {
	if n.Workspace == nil {
		return errNoWorkspace
	}
	m := n.Workspace.Model
	e, err := m.ResolveProject(n.Project)
	if err != nil {
		return err
	}
	if err := m.SetStartupProject(ctx, e.ID); err != nil {
		return err
	}
	pp := printers.PrettyPrint{}
	if n.JSON {
		return pp.JSON(startupJSON{ID: e.ID, Name: e.Name})
	}
	pp.Title(fmt.Sprintf("startup project is now %s", e.Name))
	return nil
}
