package treesync

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"tableflip.dev/sln/pkg/nodeid"
	"tableflip.dev/sln/pkg/slnfile"
	"tableflip.dev/sln/pkg/solution"
)

var categoryLabels = map[string]string{
	solution.CategoryPackages:   "Packages",
	solution.CategoryProjects:   "Projects",
	solution.CategoryAssemblies: "Assemblies",
}

var categoryOrder = []string{solution.CategoryPackages, solution.CategoryProjects, solution.CategoryAssemblies}

// virtual reports whether a node's children come from the parsed solution
// rather than from disk.
func virtual(k nodeid.Kind) bool {
	return k == nodeid.KindRoot || k == nodeid.KindGroupingFolder
}

// watchDir is the directory a node lists its children from.
func watchDir(n *Node) string {
	switch n.Kind {
	case nodeid.KindProject:
		return filepath.Dir(n.Path)
	case nodeid.KindDirectory:
		return n.Path
	}
	return ""
}

func (c *Controller) rootNode() *Node {
	path := c.model.Path()
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	count := len(c.model.Document().Projects())
	label := fmt.Sprintf("Solution '%s' (%d projects)", name, count)
	if count == 1 {
		label = fmt.Sprintf("Solution '%s' (1 project)", name)
	}
	return newNode(nodeid.Root{Solution: path}, label, path, true)
}

func (c *Controller) entityNodes(entities []*slnfile.Entity) []*Node {
	sorted := append([]*slnfile.Entity(nil), entities...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].IsFolder() != sorted[j].IsFolder() {
			return sorted[i].IsFolder()
		}
		return strings.ToLower(sorted[i].Name) < strings.ToLower(sorted[j].Name)
	})
	forest := c.model.Forest()
	out := make([]*Node, 0, len(sorted))
	for _, e := range sorted {
		id := slnfile.NormalizeGUID(e.ID)
		if e.IsFolder() {
			expandable := len(forest.Children(id)) > 0 || len(e.Items()) > 0
			out = append(out, newNode(nodeid.GroupingFolder{Solution: c.model.Path(), FolderID: id}, e.Name, "", expandable))
			continue
		}
		out = append(out, newNode(nodeid.Project{Solution: c.model.Path(), ProjectID: id, Path: e.Location}, e.Name, e.Location, true))
	}
	return out
}

// children loads the children of n by its kind.
func (c *Controller) children(ctx context.Context, n *Node) ([]*Node, error) {
	switch id := n.ID.(type) {
	case nodeid.Root:
		return c.entityNodes(c.model.Forest().Roots()), nil

	case nodeid.GroupingFolder:
		out := c.entityNodes(c.model.Forest().Children(id.FolderID))
		if f := c.model.Folder(id.FolderID); f != nil {
			for _, item := range f.Items() {
				out = append(out, newNode(nodeid.GroupedItem{FolderID: id.FolderID, Path: item}, filepath.Base(item), item, false))
			}
		}
		return out, nil

	case nodeid.Project:
		var out []*Node
		if c.opts.Dependencies != nil {
			out = append(out, newNode(nodeid.DependencyContainer{ProjectID: id.ProjectID}, "Dependencies", id.Path, true))
		}
		entries, err := c.list(ctx, id.ProjectID, filepath.Dir(id.Path), id.Path)
		if err != nil {
			return nil, err
		}
		return append(out, entries...), nil

	case nodeid.Directory:
		return c.list(ctx, id.ProjectID, id.Path, "")

	case nodeid.DependencyContainer:
		deps, err := c.opts.Dependencies.Dependencies(ctx, id.ProjectID)
		if err != nil {
			return nil, err
		}
		present := map[string]bool{}
		for _, d := range deps {
			present[d.Category] = true
		}
		var out []*Node
		for _, cat := range categoryOrder {
			if present[cat] {
				out = append(out, newNode(nodeid.DependencyCategory{ProjectID: id.ProjectID, Category: cat}, categoryLabels[cat], n.Path, true))
			}
		}
		return out, nil

	case nodeid.DependencyCategory:
		deps, err := c.opts.Dependencies.Dependencies(ctx, id.ProjectID)
		if err != nil {
			return nil, err
		}
		var out []*Node
		for _, d := range deps {
			if d.Category != id.Category {
				continue
			}
			label := d.Name
			if d.Version != "" {
				label = d.Name + " (" + d.Version + ")"
			}
			dep := nodeid.Dependency{ProjectID: id.ProjectID, Category: d.Category, Name: d.Name, Version: d.Version}
			out = append(out, newNode(dep, label, n.Path, false))
		}
		return out, nil
	}
	return nil, nil
}

// list reads dir through the directory lister. skip names a file left out,
// the project file when listing a project directory.
func (c *Controller) list(ctx context.Context, projectID, dir, skip string) ([]*Node, error) {
	entries, err := c.opts.Directories.List(ctx, dir)
	if err != nil {
		return nil, fmt.Errorf("treesync: list %s: %w", dir, err)
	}
	sortEntries(entries)
	out := make([]*Node, 0, len(entries))
	for _, e := range entries {
		if skip != "" && filepath.Clean(e.Path) == filepath.Clean(skip) {
			continue
		}
		if e.Dir {
			out = append(out, newNode(nodeid.Directory{ProjectID: projectID, Path: e.Path}, e.Name, e.Path, true))
		} else {
			out = append(out, newNode(nodeid.File{ProjectID: projectID, Path: e.Path}, e.Name, e.Path, false))
		}
	}
	return out, nil
}

// rebuild carries what one rebuild merges against.
type rebuild struct {
	prev    map[string]*Node
	index   map[string]*Node
	want    map[string]bool
	changed map[string]bool
	// all marks every disk-backed node stale.
	all bool
}

// stale reports whether the loaded children of n may be out of date.
func (r *rebuild) stale(n *Node) bool {
	if r.all {
		return true
	}
	if dir := watchDir(n); dir != "" {
		for p := range r.changed {
			if p == dir || filepath.Dir(p) == dir {
				return true
			}
		}
		return false
	}
	// Dependency nodes follow their project file.
	return r.changed[n.Path]
}

// materialize decides the state of n from the previous tree, or from the
// wanted set when one is given, and loads children of open nodes.
func (c *Controller) materialize(ctx context.Context, n *Node, r *rebuild) {
	r.index[n.Token] = n
	old := r.prev[n.Token]

	state := Collapsed
	switch {
	case r.want != nil:
		if r.want[n.Token] {
			state = Expanded
		}
	case old != nil:
		state = old.State
		if state == Collapsing {
			state = Collapsed
		}
	case n.Kind == nodeid.KindRoot:
		state = Expanded
	}
	if !n.Expandable && !virtual(n.Kind) {
		state = Collapsed
	}
	n.State = state
	if state == Collapsed {
		return
	}
	if state == Expanding && !virtual(n.Kind) {
		// An Expand is in flight and attaches the children when done.
		return
	}

	var kids []*Node
	var err error
	switch {
	case virtual(n.Kind):
		kids, err = c.children(ctx, n)
	case old != nil && old.Loaded && !r.stale(n):
		for _, k := range old.Children {
			if k.Kind != nodeid.KindTransient {
				kids = append(kids, k.rebase())
			}
		}
	default:
		kids, err = c.children(ctx, n)
	}
	if err != nil {
		c.log.Warn("treesync: load children", zap.String("node", n.Label), zap.Error(err))
		n.State = Collapsed
		return
	}
	n.State, n.Loaded = Expanded, true
	n.Children = append(c.transientsUnder(n.Token, r.index), kids...)
	for _, k := range kids {
		c.materialize(ctx, k, r)
	}
}
