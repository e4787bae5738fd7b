// Package item holds the runners that group files under solution folders.
package item

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"tableflip.dev/sln/pkg/printers"
	"tableflip.dev/sln/pkg/workspace"
)

var errNoWorkspace = errors.New("can not edit items, no workspace")

// Add groups a file under a folder.
type Add struct {
	Workspace *workspace.Workspace
	Folder    string
	Path      string
	JSON      bool
}

func (n *Add) Do(ctx context.Context) error {
	if n.Workspace == nil {
		return errNoWorkspace
	}
	m := n.Workspace.Model
	e, err := m.ResolveFolder(n.Folder)
	if err != nil {
		return err
	}
	path, err := filepath.Abs(n.Path)
	if err != nil {
		return err
	}
	res, err := m.AddItem(ctx, e.ID, path)
	if err != nil {
		return err
	}
	pp := printers.PrettyPrint{}
	return pp.Report("item_add", fmt.Sprintf("add %s to %s", filepath.Base(path), e.Name), res, n.JSON)
}

// Remove drops a file from a folder.
type Remove struct {
	Workspace *workspace.Workspace
	Folder    string
	Path      string
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
	path, err := filepath.Abs(n.Path)
	if err != nil {
		return err
	}
	res, err := m.RemoveItem(ctx, e.ID, path)
	if err != nil {
		return err
	}
	pp := printers.PrettyPrint{}
	return pp.Report("item_remove", fmt.Sprintf("remove %s from %s", filepath.Base(path), e.Name), res, n.JSON)
}
