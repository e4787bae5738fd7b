// Package tree prints the solution tree.
package tree

import (
	"context"
	"errors"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"tableflip.dev/sln/pkg/printers"
	"tableflip.dev/sln/pkg/treesync"
	"tableflip.dev/sln/pkg/workspace"
)

// Tree prints the tree as it would show with the saved expansion, or fully
// expanded.
type Tree struct {
	Workspace *workspace.Workspace

	ExpandAll bool
	// Depth limits ExpandAll; 0 means no limit.
	Depth  int
	ShowID bool
	JSON   bool
}

func (n *Tree) Do(ctx context.Context) error {
	if n.Workspace == nil {
		return errors.New("can not print tree, no workspace")
	}
	ctl := n.Workspace.Tree

	if n.ExpandAll {
		if err := ExpandAll(ctx, ctl, n.Depth); err != nil {
			n.Workspace.Log.Warn("tree: some nodes could not be expanded", zap.Error(err))
		}
	}

	roots := ctl.Roots()
	pp := printers.PrettyPrint{ShowID: n.ShowID}
	if n.JSON {
		out := make([]treesync.Summary, 0, len(roots))
		for _, r := range roots {
			out = append(out, treesync.Summarize(r))
		}
		return pp.JSON(out)
	}
	pp.Tree(roots...)
	return nil
}

// ExpandAll expands every expandable node breadth first, down to depth
// levels below the roots when depth is positive. Nodes that fail to load stay
// collapsed and their errors are returned together.
func ExpandAll(ctx context.Context, ctl *treesync.Controller, depth int) error {
	var errs error
	type pending struct {
		token string
		level int
	}
	var queue []pending
	for _, r := range ctl.Roots() {
		queue = append(queue, pending{token: r.Token})
	}
	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		p := queue[0]
		queue = queue[1:]

		n, ok := ctl.Find(p.token)
		if !ok || !n.Expandable {
			continue
		}
		if n.State != treesync.Expanded {
			if err := ctl.Expand(ctx, p.token); err != nil {
				errs = multierr.Append(errs, err)
				continue
			}
			if n, ok = ctl.Find(p.token); !ok {
				continue
			}
		}
		if depth > 0 && p.level+1 >= depth {
			continue
		}
		for _, c := range n.Children {
			queue = append(queue, pending{token: c.Token, level: p.level + 1})
		}
	}
	return errs
}
