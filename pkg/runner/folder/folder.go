// Package folder holds the runners that edit solution folders.
package folder

import (
	"context"
	"errors"
	"fmt"

	"tableflip.dev/sln/pkg/printers"
	"tableflip.dev/sln/pkg/workspace"
)

var errNoWorkspace = errors.New("can not edit folders, no workspace")

// Add creates a solution folder.
type Add struct {
	Workspace *workspace.Workspace
	Name      string
	// Parent is a folder reference; empty means the solution root.
	Parent string
	JSON   bool
}

func (n *Add) Do(ctx context.Context) error {
	if n.Workspace == nil {
		return errNoWorkspace
	}
	m := n.Workspace.Model
	parent, err := m.ParentRef(n.Parent)
	if err != nil {
		return err
	}
	res, err := m.AddFolder(ctx, n.Name, parent)
	if err != nil {
		return err
	}
	pp := printers.PrettyPrint{}
	return pp.Report("folder_add", fmt.Sprintf("add folder %s", n.Name), res, n.JSON)
}

// Remove deletes a folder with everything nested in it.
type Remove struct {
	Workspace *workspace.Workspace
	Folder    string
	JSON      bool
}

func (n *Remove) Do(ctx context.Context) error {
	if n.Workspace == nil {
		return errNoWorkspace
	}
	m := n.Workspace.Model
	e, err := m.ResolveFolder(n.Folder)
	if err != nil {
		return err
	}
	res, err := m.RemoveFolder(ctx, e.ID)
	pp := printers.PrettyPrint{}
	if perr := pp.Report("folder_remove", fmt.Sprintf("remove folder %s", e.Name), res, n.JSON); perr != nil {
		return perr
	}
	// A partial failure still removed the folder; report both.
	return err
}

// Rename changes a folder's name.
type Rename struct {
	Workspace *workspace.Workspace
	Folder    string
	Name      string
	JSON      bool
}

func (n *Rename) Do(ctx context.Context) error {
	if n.Workspace == nil {
		return errNoWorkspace
	}
	m := n.Workspace.Model
	e, err := m.ResolveFolder(n.Folder)
	if err != nil {
		return err
	}
	res, err := m.RenameFolder(ctx, e.ID, n.Name)
	if err != nil {
		return err
	}
	pp := printers.PrettyPrint{}
	return pp.Report("folder_rename", fmt.Sprintf("rename folder %s to %s", e.Name, n.Name), res, n.JSON)
}
